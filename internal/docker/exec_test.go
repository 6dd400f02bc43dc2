package docker

import (
	"bytes"
	"context"
	"os/exec"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestArgv(t *testing.T) {
	e := Exec{Container: "system-postgres"}
	argv := e.Argv("psql", "-U", "postgres", "-d", "postgres", "-c", "SELECT 1")
	assert.Equal(t, []string{
		"docker", "exec", "system-postgres",
		"psql", "-U", "postgres", "-d", "postgres", "-c", "SELECT 1",
	}, argv)
}

func TestArgvInteractive(t *testing.T) {
	e := Exec{Container: "pg", Interactive: true}
	argv := e.Argv("pg_dump", "-U", "postgres", "-F", "c", "appdb")
	assert.Equal(t, []string{
		"docker", "exec", "-i", "pg",
		"pg_dump", "-U", "postgres", "-F", "c", "appdb",
	}, argv)
	assert.NotContains(t, argv, "-t")
}

func TestArgvEnv(t *testing.T) {
	e := Exec{Container: "pg", Interactive: true, Env: []string{"PGPASSWORD=secret"}}
	argv := e.Argv("pg_dump", "appdb")
	assert.Equal(t, []string{
		"docker", "exec", "-i", "-e", "PGPASSWORD=secret", "pg",
		"pg_dump", "appdb",
	}, argv)
}

func TestRunDrainsStreams(t *testing.T) {
	// Run itself is container-agnostic; exercise it with a host shell so the
	// test does not require a docker daemon.
	cmd := exec.CommandContext(context.Background(), "sh", "-c", "cat; echo diagnostics >&2")

	var out bytes.Buffer
	stderr, err := Run(cmd, bytes.NewBufferString("payload"), &out)
	require.NoError(t, err)
	assert.Equal(t, "payload", out.String())
	assert.Equal(t, "diagnostics", stderr)
}

func TestRunReportsExitError(t *testing.T) {
	cmd := exec.CommandContext(context.Background(), "sh", "-c", "echo boom >&2; exit 3")

	var out bytes.Buffer
	stderr, err := Run(cmd, nil, &out)
	require.Error(t, err)
	assert.Equal(t, "boom", stderr)
}
