package operations

import (
	"context"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pgdock/pgdock/internal/database"
)

// fakeDocker installs a shell script named "docker" at the front of PATH so
// the full backup/restore pipeline can run without a docker daemon.
func fakeDocker(t *testing.T, script string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(dir, "docker"),
		[]byte("#!/bin/sh\n"+script+"\n"),
		0o755,
	))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
}

func newTestOperator(t *testing.T, extraYAML string) (*Operator, string) {
	t.Helper()
	outDir := filepath.Join(t.TempDir(), "backups")
	cfgFile := filepath.Join(t.TempDir(), "config.yaml")
	yaml := `
container: system-postgres
database:
  user: postgres
  name: mydb
  format: c
backup:
  output_directory: ` + outDir + `
` + extraYAML
	require.NoError(t, os.WriteFile(cfgFile, []byte(yaml), 0o644))

	op, err := NewOperator(context.Background(), cfgFile)
	require.NoError(t, err)
	return op, outDir
}

func TestBackupWritesArtifactAndMetadata(t *testing.T) {
	fakeDocker(t, `printf 'PGDMP-bytes'`)

	op, outDir := newTestOperator(t, "")
	require.NoError(t, op.Backup(context.Background()))

	var record Metadata
	require.NoError(t, record.Load(filepath.Join(outDir, MetadataFilename)))
	assert.Equal(t, "success", record.Status)
	assert.Equal(t, "mydb", record.Database)
	assert.Equal(t, int64(len("PGDMP-bytes")), record.SizeBytes)
	assert.Regexp(t, regexp.MustCompile(`mydb_\d{8}_\d{6}\.dump$`), record.FilePath)
	assert.FileExists(t, record.FilePath)
}

func TestBackupCompressed(t *testing.T) {
	fakeDocker(t, `printf 'PGDMP-bytes'`)

	op, outDir := newTestOperator(t, "  compress: true\n")
	require.NoError(t, op.Backup(context.Background()))

	var record Metadata
	require.NoError(t, record.Load(filepath.Join(outDir, MetadataFilename)))
	assert.Regexp(t, regexp.MustCompile(`\.dump\.zst$`), record.FilePath)
	assert.FileExists(t, record.FilePath)

	// Uncompressed intermediate is gone.
	assert.NoFileExists(t, record.FilePath[:len(record.FilePath)-len(".zst")])
}

func TestBackupFailureRecordsMetadata(t *testing.T) {
	fakeDocker(t, `echo 'pg_dump: error: database "mydb" does not exist' >&2; exit 1`)

	op, outDir := newTestOperator(t, "")
	err := op.Backup(context.Background())
	require.Error(t, err)

	var record Metadata
	require.NoError(t, record.Load(filepath.Join(outDir, MetadataFilename)))
	assert.Equal(t, "failed", record.Status)
	assert.Contains(t, record.Error, "does not exist")
	assert.Empty(t, record.FilePath)
}

func TestRestoreMissingSourceFailsBeforeDatabaseCommands(t *testing.T) {
	marker := filepath.Join(t.TempDir(), "docker-invoked")
	fakeDocker(t, `touch `+marker)

	op, _ := newTestOperator(t, "")
	err := op.Restore(context.Background(), filepath.Join(t.TempDir(), "nope.dump"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
	assert.NoFileExists(t, marker)
}

func TestRestoreNoSourceResolvesFromMetadata(t *testing.T) {
	fakeDocker(t, `cat >/dev/null`)

	op, outDir := newTestOperator(t, "")

	dump := filepath.Join(outDir, "mydb_20250101_120000.dump")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	require.NoError(t, os.WriteFile(dump, []byte("PGDMP"), 0o644))
	record := Metadata{Engine: "postgres", Database: "mydb", Status: "success", FilePath: dump}
	require.NoError(t, record.Write(outDir))

	assert.NoError(t, op.Restore(context.Background(), ""))
}

func TestRestoreNoSourceNoMetadata(t *testing.T) {
	op, _ := newTestOperator(t, "")
	err := op.Restore(context.Background(), "")
	assert.ErrorIs(t, err, ErrNoSource)
}

func TestRestoreCompressedSource(t *testing.T) {
	fakeDocker(t, `cat >/dev/null`)

	op, outDir := newTestOperator(t, "")
	require.NoError(t, os.MkdirAll(outDir, 0o755))

	dump := filepath.Join(outDir, "mydb_20250101_120000.dump")
	require.NoError(t, os.WriteFile(dump, []byte("PGDMP"), 0o644))
	comPath, err := CompressZstd(dump)
	require.NoError(t, err)

	require.NoError(t, op.Restore(context.Background(), comPath))

	// The temporary decompressed copy is cleaned up, the archive stays.
	assert.NoFileExists(t, dump)
	assert.FileExists(t, comPath)
}

func TestRestoreDropRefused(t *testing.T) {
	fakeDocker(t, `echo 'ERROR:  database "mydb" is being accessed by other users' >&2; exit 1`)

	op, outDir := newTestOperator(t, "")
	require.NoError(t, os.MkdirAll(outDir, 0o755))
	dump := filepath.Join(outDir, "mydb_20250101_120000.dump")
	require.NoError(t, os.WriteFile(dump, []byte("PGDMP"), 0o644))

	err := op.Restore(context.Background(), dump)
	require.Error(t, err)
	assert.ErrorIs(t, err, database.ErrDatabaseInUse)
}
