package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// ErrLoadConfig indicates a failure to read or parse the YAML configuration.
var ErrLoadConfig = errors.New("config load failed")

// ErrValidateConfig indicates that the loaded configuration is invalid.
var ErrValidateConfig = errors.New("configuration validation failed")

// Dump formats accepted by pg_dump's -F flag.
const (
	FormatCustom = "c"
	FormatPlain  = "p"
)

// Config represents the top-level YAML configuration file.
type Config struct {
	// Container is the name of the running container (docker-compose
	// container_name) that hosts PostgreSQL.
	Container string `mapstructure:"container" yaml:"container"`

	Database DatabaseConfig `mapstructure:"database" yaml:"database"`
	Backup   BackupConfig   `mapstructure:"backup"   yaml:"backup"`
	Restore  RestoreConfig  `mapstructure:"restore"  yaml:"restore"`
	Log      LogConfig      `mapstructure:"log"      yaml:"log"`
	Vault    VaultConfig    `mapstructure:"vault"    yaml:"vault"`
	Upload   UploadConfig   `mapstructure:"upload"   yaml:"upload"`
}

// DatabaseConfig identifies the target database inside the container.
type DatabaseConfig struct {
	User   string `mapstructure:"user"   yaml:"user"`
	Name   string `mapstructure:"name"   yaml:"name"`
	Format string `mapstructure:"format" yaml:"format"` // "c" (custom) or "p" (plain)
}

// BackupConfig contains backup output options.
type BackupConfig struct {
	OutputDirectory string        `mapstructure:"output_directory" yaml:"output_directory"`
	TimestampFormat string        `mapstructure:"timestamp_format" yaml:"timestamp_format"`
	Compress        bool          `mapstructure:"compress"         yaml:"compress"`
	Timeout         time.Duration `mapstructure:"timeout"          yaml:"timeout,omitempty"`
}

// RestoreConfig holds the default restore source. The --source flag and
// positional argument take precedence over it.
type RestoreConfig struct {
	Source string `mapstructure:"source" yaml:"source,omitempty"`
}

// LogConfig controls log verbosity and the optional rotated log file.
type LogConfig struct {
	Level string `mapstructure:"level" yaml:"level"`
	File  string `mapstructure:"file"  yaml:"file,omitempty"`
}

// VaultConfig holds connection settings for HashiCorp Vault. When Address is
// empty, no credentials are fetched and the container's trust auth is relied
// upon.
type VaultConfig struct {
	Address  string `mapstructure:"address"   yaml:"address,omitempty"`
	RoleID   string `mapstructure:"role_id"   yaml:"role_id,omitempty"`
	RoleName string `mapstructure:"role_name" yaml:"role_name,omitempty"`
	KVPath   string `mapstructure:"kv_path"   yaml:"kv_path,omitempty"`
}

// UploadConfig groups optional off-host copy targets.
type UploadConfig struct {
	S3 S3Config `mapstructure:"s3" yaml:"s3"`
}

// S3Config configures the optional S3 upload of finished backups.
type S3Config struct {
	Enabled   bool   `mapstructure:"enabled"    yaml:"enabled"`
	Region    string `mapstructure:"region"     yaml:"region,omitempty"`
	Bucket    string `mapstructure:"bucket"     yaml:"bucket,omitempty"`
	AccessKey string `mapstructure:"access_key" yaml:"access_key,omitempty"`
	SecretKey string `mapstructure:"secret_key" yaml:"secret_key,omitempty"`
	Prefix    string `mapstructure:"prefix"     yaml:"prefix,omitempty"`
}

// Enabled reports whether Vault-backed credentials are configured.
func (v VaultConfig) Enabled() bool {
	return v.Address != "" && v.KVPath != ""
}

// Extension returns the backup file extension for the configured dump format.
func (d DatabaseConfig) Extension() string {
	if d.Format == FormatCustom {
		return "dump"
	}
	return "sql"
}

// Load reads the configuration from the given YAML file using Viper, applies
// defaults, and unmarshals into the Config struct.
func (c *Config) Load(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetEnvPrefix("PGDOCK")
	v.AutomaticEnv()

	v.SetDefault("database.user", "postgres")
	v.SetDefault("database.format", FormatCustom)
	v.SetDefault("backup.output_directory", "./backups")
	v.SetDefault("backup.timestamp_format", "20060102_150405")
	v.SetDefault("log.level", "info")

	if err := v.ReadInConfig(); err != nil {
		return fmt.Errorf("%w: read config %s: %v", ErrLoadConfig, path, err)
	}

	if err := v.Unmarshal(c); err != nil {
		return fmt.Errorf("%w: unmarshal config: %v", ErrLoadConfig, err)
	}

	return c.Validate()
}

// Validate checks that the loaded configuration is usable.
func (c *Config) Validate() error {
	if c.Container == "" {
		return fmt.Errorf("%w: container is required", ErrValidateConfig)
	}
	if c.Database.Name == "" {
		return fmt.Errorf("%w: database.name is required", ErrValidateConfig)
	}
	if c.Database.User == "" {
		return fmt.Errorf("%w: database.user is required", ErrValidateConfig)
	}
	if c.Database.Format != FormatCustom && c.Database.Format != FormatPlain {
		return fmt.Errorf(
			"%w: database.format must be %q or %q, got %q",
			ErrValidateConfig, FormatCustom, FormatPlain, c.Database.Format,
		)
	}
	if c.Backup.OutputDirectory == "" {
		return fmt.Errorf("%w: backup.output_directory is required", ErrValidateConfig)
	}
	if c.Upload.S3.Enabled {
		if c.Upload.S3.Bucket == "" {
			return fmt.Errorf("%w: upload.s3.bucket is required when s3 is enabled", ErrValidateConfig)
		}
		if c.Upload.S3.Region == "" {
			return fmt.Errorf("%w: upload.s3.region is required when s3 is enabled", ErrValidateConfig)
		}
	}
	return nil
}
