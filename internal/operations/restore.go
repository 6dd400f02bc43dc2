package operations

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pgdock/pgdock/internal/database"
)

// ErrNoSource means no restore source was given and none could be resolved
// from the backup metadata.
var ErrNoSource = errors.New("no restore source")

// Restore replaces the target database with the contents of the given dump
// file: drop, create, then stream the dump into the restore tool. The first
// two steps abort the operation on failure; the final restore step treats a
// non-zero exit as advisory.
func (op *Operator) Restore(ctx context.Context, source string) error {
	source, err := op.resolveSource(source)
	if err != nil {
		return err
	}

	// Fail fast before touching the database at all.
	if _, err := os.Stat(source); err != nil {
		return fmt.Errorf("backup file %q not found: %w", source, err)
	}

	op.log.Info("preparing restore",
		"source", source,
		"database", op.cfg.Database.Name,
	)

	// Transparently decompress zstd artifacts produced by the backup path.
	if strings.HasSuffix(source, ".zst") {
		decPath, err := DecompressZstd(source)
		if err != nil {
			return fmt.Errorf("decompress backup file: %w", err)
		}
		defer RemoveFile(decPath)
		source = decPath
	}

	db, err := op.newDatabase(ctx)
	if err != nil {
		return err
	}

	if err := db.Drop(ctx); err != nil {
		op.log.Error("failed to drop database", "database", db.GetName(), "error", err.Error())
		if errors.Is(err, database.ErrDatabaseInUse) {
			op.log.Warn("there are active connections (e.g. backend API, GUI clients)")
			op.log.Warn("stop your services or close connections manually, then retry")
		} else {
			op.log.Warn("check that the database name is valid")
		}
		op.log.Info("restore aborted, no data was changed")
		return err
	}

	if err := db.Create(ctx); err != nil {
		op.log.Error("failed to create database", "database", db.GetName(), "error", err.Error())
		return err
	}

	return db.Restore(ctx, source)
}

// resolveSource picks the restore source: explicit argument, then the
// config's restore.source, then the file recorded by the latest backup's
// metadata sidecar.
func (op *Operator) resolveSource(source string) (string, error) {
	if source != "" {
		return source, nil
	}
	if op.cfg.Restore.Source != "" {
		return op.cfg.Restore.Source, nil
	}

	var record Metadata
	metadataFile := filepath.Join(op.cfg.Backup.OutputDirectory, MetadataFilename)
	if err := record.Load(metadataFile); err != nil {
		return "", fmt.Errorf("%w: pass a dump file or configure restore.source (%v)", ErrNoSource, err)
	}
	if record.Status != "success" || record.FilePath == "" {
		return "", fmt.Errorf("%w: last recorded backup did not succeed", ErrNoSource)
	}
	op.log.Info("using latest recorded backup", "source", record.FilePath)
	return record.FilePath, nil
}
