package main

import (
	"fmt"

	"github.com/SscSPs/issue_tracker/pkg/database"
	"github.com/spf13/cobra"
)

var migrationsPath string

var migrateCmd = &cobra.Command{
	Use:       "migrate up|down",
	Short:     "Apply all pending migrations or roll back the latest one",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{string(database.MigrateUp), string(database.MigrateDown)},
	RunE:      runMigrate,
}

func init() {
	migrateCmd.Flags().StringVar(&migrationsPath, "source", "", "Migration source URL (defaults to MIGRATIONS_PATH)")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	source := migrationsPath
	if source == "" {
		source = cfg.MigrationsPath
	}

	changed, err := database.RunMigrations(cfg.DatabaseURL, source, database.MigrateDirection(args[0]), logger)
	if err != nil {
		return err
	}

	if jsonOutput {
		return printJSON(cmd.OutOrStdout(), map[string]any{"direction": args[0], "changed": changed})
	}
	if changed {
		fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: schema updated\n", args[0])
	} else {
		fmt.Fprintf(cmd.OutOrStdout(), "migrate %s: no change\n", args[0])
	}
	return nil
}
