package operations

import (
	"context"
	"fmt"

	"github.com/pgdock/pgdock/internal/config"
	"github.com/pgdock/pgdock/internal/database"
	"github.com/pgdock/pgdock/internal/logger"
	"github.com/pgdock/pgdock/internal/vault"
)

// Operator wires configuration, logging and the optional Vault credential
// source for the backup and restore operations.
type Operator struct {
	cfg         config.Config
	log         logger.Logger
	vaultClient *vault.Client
}

// NewOperator loads, parses, and validates the YAML config at configPath and
// initializes the logger. A Vault client is created only when the config
// carries a Vault address and secret path; without it the container's trust
// authentication is relied upon, as the original deployment assumes.
func NewOperator(ctx context.Context, configPath string) (*Operator, error) {
	var cfg config.Config
	if err := cfg.Load(configPath); err != nil {
		return nil, err
	}

	log, err := logger.Init(cfg.Log.Level, cfg.Log.File)
	if err != nil {
		return nil, fmt.Errorf("logger init: %w", err)
	}

	op := &Operator{cfg: cfg, log: log}

	if cfg.Vault.Enabled() {
		vaultOpts := []vault.Option{
			vault.WithAddress(cfg.Vault.Address),
		}
		if cfg.Vault.RoleID != "" {
			vaultOpts = append(vaultOpts, vault.WithAppRole(cfg.Vault.RoleID, cfg.Vault.RoleName))
		}
		client, err := vault.NewClient(ctx, vaultOpts...)
		if err != nil {
			return nil, fmt.Errorf("vault client init: %w", err)
		}
		op.vaultClient = client
	}

	return op, nil
}

// newDatabase builds the Postgres handle, fetching credentials from Vault
// when configured so PGPASSWORD can be injected into docker exec.
func (op *Operator) newDatabase(ctx context.Context) (database.Database, error) {
	var opts []database.PostgresOption

	if op.vaultClient != nil {
		creds, err := op.vaultClient.GetCredentials(ctx, op.cfg.Vault.KVPath)
		if err != nil {
			return nil, fmt.Errorf("fetch database credentials: %w", err)
		}
		opts = append(opts, database.WithPostgresCredentials(creds.Username, creds.Password))
	}

	db, err := database.NewPostgres(op.cfg, opts...)
	if err != nil {
		return nil, fmt.Errorf("initialize postgres instance: %w", err)
	}
	return db, nil
}
