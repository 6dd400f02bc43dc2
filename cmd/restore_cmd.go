package cmd

import (
	"github.com/spf13/cobra"

	"github.com/pgdock/pgdock/internal/operations"
)

var restoreSource string

var restoreCmd = &cobra.Command{
	Use:   "restore [dump file]",
	Short: "Drop, recreate and restore the configured database from a dump",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		source := restoreSource
		if len(args) == 1 {
			source = args[0]
		}

		op, err := operations.NewOperator(cmd.Context(), ConfigFile)
		if err != nil {
			return err
		}
		return op.Restore(cmd.Context(), source)
	},
}

func init() {
	restoreCmd.Flags().
		StringVarP(&restoreSource, "source", "s", "", "path to the dump file (defaults to the latest recorded backup)")
}
