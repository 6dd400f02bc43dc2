package operations

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetadataWriteLoad(t *testing.T) {
	dir := t.TempDir()

	record := Metadata{
		Engine:      "postgres",
		Database:    "mydb",
		FilePath:    filepath.Join(dir, "mydb_20250101_120000.dump"),
		Status:      "success",
		StartedAt:   time.Now().Add(-time.Minute).Truncate(time.Second),
		CompletedAt: time.Now().Truncate(time.Second),
		Duration:    time.Minute,
		SizeBytes:   4096,
	}
	require.NoError(t, record.Write(dir))

	var loaded Metadata
	require.NoError(t, loaded.Load(filepath.Join(dir, MetadataFilename)))
	assert.Equal(t, record.Database, loaded.Database)
	assert.Equal(t, record.FilePath, loaded.FilePath)
	assert.Equal(t, record.Status, loaded.Status)
	assert.Equal(t, record.SizeBytes, loaded.SizeBytes)
}

func TestMetadataWriteCreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "does", "not", "exist")

	record := Metadata{Engine: "postgres", Database: "mydb", Status: "failed", Error: "boom"}
	require.NoError(t, record.Write(dir))
	assert.FileExists(t, filepath.Join(dir, MetadataFilename))
}

func TestMetadataLoadMissing(t *testing.T) {
	var m Metadata
	assert.Error(t, m.Load(filepath.Join(t.TempDir(), MetadataFilename)))
}
