package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pgdock/pgdock/internal/operations"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Back up the configured database to a timestamped dump file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		op, err := operations.NewOperator(cmd.Context(), ConfigFile)
		if err != nil {
			return err
		}
		return op.Backup(cmd.Context())
	},
}
