package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pgdock/pgdock/internal/logger"
)

// ConfigFile is the path to the YAML configuration.
var (
	ConfigFile string
	// rootCmd is the base command for pgdock.
	rootCmd = &cobra.Command{
		Use:   "pgdock",
		Short: "Backup and restore a PostgreSQL database running in a container",
		Long: `pgdock captures pg_dump backups of a PostgreSQL database running
inside a container and safely restores them: the target database is
dropped, recreated, and repopulated through the container runtime's
exec interface.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command. Any command failure exits with status 1.
func Execute() {
	defer logger.Cleanup()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().
		StringVarP(&ConfigFile, "config", "c", "./configs/config.yaml", "path to YAML config file")
	rootCmd.AddCommand(backupCmd)
	rootCmd.AddCommand(restoreCmd)
}
