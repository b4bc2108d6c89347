// Package main provides issuetrackerctl, the operator CLI for schema migrations and
// profile administration.
package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/SscSPs/issue_tracker/internal/platform/config"
	"github.com/spf13/cobra"
)

// Global flags
var (
	jsonOutput bool
	verbose    bool
)

var (
	cfg    *config.Config
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "issuetrackerctl",
	Short: "Administer the issue tracker database and profiles",
	Long: `issuetrackerctl runs schema migrations and manages profiles without going
through the HTTP API. It reads the same environment and .env file as the server.

Examples:
  issuetrackerctl migrate up
  issuetrackerctl user create --name "Siti" --email siti@example.com --password s3cretpass --role bendahara
  issuetrackerctl user set-role --email budi@example.com --role bendahara`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

		loaded, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(userCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error: "+err.Error())
		os.Exit(1)
	}
}
