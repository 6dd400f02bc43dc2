package database

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pgdock/pgdock/internal/config"
	"github.com/pgdock/pgdock/internal/docker"
	"github.com/pgdock/pgdock/internal/logger"
)

const EnginePostgres = "postgres"

// maintenanceDB is the database psql connects to for DROP/CREATE; the target
// itself cannot be dropped from a session connected to it.
const maintenanceDB = "postgres"

// activeUsersPattern appears in the psql diagnostic when DROP DATABASE is
// refused because of open connections.
const activeUsersPattern = "accessed by other users"

// PostgresOption lets you override default settings on a Postgres.
type PostgresOption func(*Postgres)

// Postgres holds configuration for backing up and restoring a PostgreSQL
// database running inside a container.
type Postgres struct {
	Container       string
	Username        string
	Password        string // injected as PGPASSWORD into docker exec when set
	Database        string
	Format          string // "c" (custom) or "p" (plain)
	OutputDir       string
	TimeStampFormat string
	Timeout         time.Duration
	Logger          logger.Logger
}

// NewPostgres returns a Postgres configured from cfg plus any overrides.
func NewPostgres(cfg config.Config, opts ...PostgresOption) (*Postgres, error) {
	p := &Postgres{
		Container:       cfg.Container,
		Username:        cfg.Database.User,
		Database:        cfg.Database.Name,
		Format:          cfg.Database.Format,
		OutputDir:       cfg.Backup.OutputDirectory,
		TimeStampFormat: cfg.Backup.TimestampFormat,
		Timeout:         cfg.Backup.Timeout,
		Logger:          logger.Global(),
	}
	for _, opt := range opts {
		opt(p)
	}
	if p.Container == "" {
		return nil, fmt.Errorf("postgres: container name is required")
	}
	return p, nil
}

// WithPostgresContainer overrides the container name.
func WithPostgresContainer(container string) PostgresOption {
	return func(p *Postgres) {
		if container != "" {
			p.Container = container
		}
	}
}

// WithPostgresCredentials sets username and password.
func WithPostgresCredentials(user, pass string) PostgresOption {
	return func(p *Postgres) {
		if user != "" {
			p.Username = user
		}
		if pass != "" {
			p.Password = pass
		}
	}
}

// WithPostgresDatabase overrides the database name.
func WithPostgresDatabase(db string) PostgresOption {
	return func(p *Postgres) {
		if db != "" {
			p.Database = db
		}
	}
}

// WithPostgresFormat overrides the dump format (custom/plain).
func WithPostgresFormat(format string) PostgresOption {
	return func(p *Postgres) {
		if format != "" {
			p.Format = format
		}
	}
}

// WithPostgresOutputDir overrides where backups are written.
func WithPostgresOutputDir(dir string) PostgresOption {
	return func(p *Postgres) {
		if dir != "" {
			p.OutputDir = dir
		}
	}
}

// WithPostgresTimestampFormat overrides timestamp format
func WithPostgresTimestampFormat(timeStampFormat string) PostgresOption {
	return func(p *Postgres) {
		if timeStampFormat != "" {
			p.TimeStampFormat = timeStampFormat
		}
	}
}

// opContext applies the configured timeout; zero means no deadline.
func (p *Postgres) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if p.Timeout > 0 {
		return context.WithTimeoutCause(ctx, p.Timeout, ErrTimeout)
	}
	return context.WithCancel(ctx)
}

// exec returns the docker exec wrapper for this container. PGPASSWORD is
// forwarded only when a password is set; otherwise the container's trust
// authentication is relied upon.
func (p *Postgres) exec(interactive bool) docker.Exec {
	e := docker.Exec{Container: p.Container, Interactive: interactive}
	if p.Password != "" {
		e.Env = append(e.Env, "PGPASSWORD="+p.Password)
	}
	return e
}

// extension returns "dump" for custom-format backups and "sql" for plain.
func (p *Postgres) extension() string {
	if p.Format == config.FormatCustom {
		return "dump"
	}
	return "sql"
}

// Backup runs `pg_dump` inside the container and streams its stdout into a
// timestamped file under OutputDir, e.g. "./backups/mydb_20250101_090000.dump".
func (p *Postgres) Backup(ctx context.Context) (backupPath string, err error) {
	log := p.Logger
	ctx, cancel := p.opContext(ctx)
	defer cancel()

	// The directory must exist before the dump command runs.
	if err := os.MkdirAll(p.OutputDir, 0o755); err != nil {
		return "", fmt.Errorf("mkdir %q: %w", p.OutputDir, err)
	}

	timestamp := time.Now().Format(p.TimeStampFormat)
	backupPath = filepath.Join(
		p.OutputDir,
		fmt.Sprintf("%s_%s.%s", p.Database, timestamp, p.extension()),
	)

	out, err := os.Create(backupPath)
	if err != nil {
		return "", fmt.Errorf("create %q: %w", backupPath, err)
	}
	defer out.Close()

	cmd := p.exec(true).Command(ctx, "pg_dump",
		"-U", p.Username,
		"-F", p.Format,
		p.Database,
	)

	log.Info("backup started",
		"database", p.Database,
		"engine", EnginePostgres,
		"container", p.Container,
		"format", p.Format,
		"path", backupPath,
	)

	startTime := time.Now()
	stderr, err := docker.Run(cmd, nil, out)
	if err != nil {
		// The partial file is left on disk untouched for inspection.
		if cause := context.Cause(ctx); cause != nil && errors.Is(cause, ErrTimeout) {
			return "", fmt.Errorf("%w: pg_dump: %w", ErrBackupFailed, cause)
		}
		return "", fmt.Errorf("%w: pg_dump: %v: %s", ErrBackupFailed, err, stderr)
	}

	log.Info("backup completed",
		"database", p.Database,
		"engine", EnginePostgres,
		"path", backupPath,
		"duration", time.Since(startTime).String(),
	)
	return backupPath, nil
}

// runSQL executes one SQL statement through psql against the maintenance
// database and returns the captured stderr on failure.
func (p *Postgres) runSQL(ctx context.Context, sql string) (stderr string, err error) {
	cmd := p.exec(false).Command(ctx, "psql",
		"-U", p.Username,
		"-d", maintenanceDB,
		"-c", sql,
	)
	return docker.Run(cmd, nil, io.Discard)
}

// Drop removes the target database. The identifier is double-quoted so names
// with hyphens are not parsed as subtraction.
func (p *Postgres) Drop(ctx context.Context) error {
	ctx, cancel := p.opContext(ctx)
	defer cancel()

	p.Logger.Info("dropping database", "database", p.Database, "container", p.Container)

	sql := fmt.Sprintf(`DROP DATABASE IF EXISTS "%s";`, p.Database)
	if stderr, err := p.runSQL(ctx, sql); err != nil {
		if strings.Contains(stderr, activeUsersPattern) {
			return fmt.Errorf("%w: %s", ErrDatabaseInUse, stderr)
		}
		return fmt.Errorf("%w: %v: %s", ErrDropFailed, err, stderr)
	}
	return nil
}

// Create creates a fresh, empty target database.
func (p *Postgres) Create(ctx context.Context) error {
	ctx, cancel := p.opContext(ctx)
	defer cancel()

	p.Logger.Info("creating database", "database", p.Database, "container", p.Container)

	sql := fmt.Sprintf(`CREATE DATABASE "%s";`, p.Database)
	if stderr, err := p.runSQL(ctx, sql); err != nil {
		return fmt.Errorf("%w: %v: %s", ErrCreateFailed, err, stderr)
	}
	return nil
}

// Restore streams backupFile into the container's restore tool: pg_restore
// for custom-format dumps, psql for plain SQL. Ownership and ACL restoration
// are always skipped. A non-zero exit from the restore tool is advisory only;
// pg_restore commonly reports non-fatal warnings that way, so the exit code
// and the tail of its diagnostics are logged and the restore is considered
// done.
func (p *Postgres) Restore(ctx context.Context, backupFile string) error {
	log := p.Logger
	ctx, cancel := p.opContext(ctx)
	defer cancel()

	in, err := os.Open(backupFile)
	if err != nil {
		return fmt.Errorf("backup file %q not found: %w", backupFile, err)
	}
	defer in.Close()

	var cmd *exec.Cmd
	switch p.Format {
	case config.FormatPlain:
		cmd = p.exec(true).Command(ctx, "psql",
			"-U", p.Username,
			"-d", p.Database,
		)
	default:
		cmd = p.exec(true).Command(ctx, "pg_restore",
			"-U", p.Username,
			"-d", p.Database,
			"-v",         // verbose output
			"--no-owner", // skip restoring object ownership
			"--no-acl",   // skip restoring access privileges
		)
	}

	log.Info("restore started",
		"database", p.Database,
		"engine", EnginePostgres,
		"container", p.Container,
		"source", backupFile,
	)

	startTime := time.Now()
	stderr, err := docker.Run(cmd, in, io.Discard)
	if err != nil {
		if cause := context.Cause(ctx); cause != nil && errors.Is(cause, ErrTimeout) {
			return fmt.Errorf("%w: %w", ErrRestoreFailed, cause)
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			log.Warn("restore finished with warnings",
				"database", p.Database,
				"exit_code", exitErr.ExitCode(),
				"log_tail", tailLines(stderr, 5),
			)
			return nil
		}
		return fmt.Errorf("%w: %v: %s", ErrRestoreFailed, err, stderr)
	}

	log.Info("restore completed",
		"database", p.Database,
		"engine", EnginePostgres,
		"source", backupFile,
		"duration", time.Since(startTime).String(),
	)
	return nil
}

// tailLines returns the last n lines of s.
func tailLines(s string, n int) string {
	lines := strings.Split(strings.TrimRight(s, "\n"), "\n")
	if len(lines) > n {
		lines = lines[len(lines)-n:]
	}
	return strings.Join(lines, "\n")
}

// Getters
func (p *Postgres) GetName() string { return p.Database }

// Engine returns the engine name.
func (p *Postgres) GetEngine() string { return EnginePostgres }

// Path returns the base backup path.
func (p *Postgres) GetPath() string { return p.OutputDir }
