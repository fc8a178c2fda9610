package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jonathan/career-transitions/internal/db"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	Long:  "Apply the embedded schema migrations to the database at DATABASE_URL.",
	Args:  cobra.NoArgs,
	RunE:  runMigrate,
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("database URL is required (set DATABASE_URL or database_url)")
	}
	if err := db.Migrate(cmd.Context(), cfg.DatabaseURL); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
	return nil
}
