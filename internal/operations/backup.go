package operations

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/pgdock/pgdock/internal/storage"
)

// Backup runs one backup of the configured database: dump, optional zstd
// compression, metadata sidecar, optional S3 upload.
func (op *Operator) Backup(ctx context.Context) error {
	db, err := op.newDatabase(ctx)
	if err != nil {
		return err
	}

	start := time.Now()
	record := Metadata{
		Database:  db.GetName(),
		Engine:    db.GetEngine(),
		StartedAt: start,
	}

	backupPath, err := db.Backup(ctx)
	record.CompletedAt = time.Now()
	record.Duration = record.CompletedAt.Sub(start)
	if err != nil {
		record.Status = "failed"
		record.Error = err.Error()
		_ = record.Write(op.cfg.Backup.OutputDirectory)
		return fmt.Errorf("backup failed for %q: %w", db.GetName(), err)
	}
	record.Status = "success"
	record.FilePath = backupPath
	if info, err := os.Stat(backupPath); err == nil {
		record.SizeBytes = info.Size()
	}

	// Compress the backup file if needed
	if op.cfg.Backup.Compress {
		comPath, err := CompressZstd(backupPath)
		if err != nil {
			return fmt.Errorf("compress backup file: %w", err)
		}
		record.FilePath = comPath
		if info, err := os.Stat(comPath); err == nil {
			record.SizeBytes = info.Size()
		}
	}

	op.log.Info("backup artifact ready",
		"database", db.GetName(),
		"path", record.FilePath,
		"size", humanize.Bytes(uint64(record.SizeBytes)),
	)

	if err := record.Write(op.cfg.Backup.OutputDirectory); err != nil {
		op.log.Warn("could not write backup metadata", "error", err.Error())
	}

	if op.cfg.Upload.S3.Enabled {
		op.uploadS3(ctx, record.FilePath)
	}

	return nil
}

// uploadS3 copies the finished artifact off-host. Upload failures do not fail
// the backup; the local artifact is the source of truth.
func (op *Operator) uploadS3(ctx context.Context, localPath string) {
	s3store, err := storage.NewS3(ctx, op.cfg.Upload.S3)
	if err != nil {
		op.log.Error("s3 init failed", "error", err.Error())
		return
	}

	name := filepath.Base(localPath)
	op.log.Info("uploading backup to s3",
		"bucket", op.cfg.Upload.S3.Bucket,
		"key", name,
	)
	if err := s3store.Upload(ctx, localPath, name); err != nil {
		op.log.Error("s3 upload failed", "file", name, "error", err.Error())
		return
	}
	op.log.Info("s3 upload completed", "file", name)
}
