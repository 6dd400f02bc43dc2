// Package docker builds and runs commands inside an already-running
// container via `docker exec`.
package docker

import (
	"bytes"
	"context"
	"io"
	"os/exec"
	"strings"
)

// Exec describes one command to run inside a container.
type Exec struct {
	// Container is the container name or id passed to docker exec.
	Container string
	// Env entries ("KEY=VALUE") are forwarded with -e.
	Env []string
	// Interactive adds -i so stdin/stdout can be streamed. The -t flag is
	// never used: a tty would corrupt binary dumps with carriage returns.
	Interactive bool
}

// Argv returns the full docker argv for running name with args inside the
// container.
func (e Exec) Argv(name string, args ...string) []string {
	argv := []string{"docker", "exec"}
	if e.Interactive {
		argv = append(argv, "-i")
	}
	for _, kv := range e.Env {
		argv = append(argv, "-e", kv)
	}
	argv = append(argv, e.Container, name)
	return append(argv, args...)
}

// Command returns an exec.Cmd for running name with args inside the
// container.
func (e Exec) Command(ctx context.Context, name string, args ...string) *exec.Cmd {
	argv := e.Argv(name, args...)
	return exec.CommandContext(ctx, argv[0], argv[1:]...)
}

// Run executes the command to completion with the given stdin and stdout,
// returning the captured stderr. Both streams are fully drained before the
// exit status is inspected; exec.Cmd.Run guarantees that ordering.
func Run(cmd *exec.Cmd, stdin io.Reader, stdout io.Writer) (stderr string, err error) {
	var errBuf bytes.Buffer
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = &errBuf

	err = cmd.Run()
	return strings.TrimSpace(errBuf.String()), err
}
