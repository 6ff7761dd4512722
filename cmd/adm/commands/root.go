// Package commands implements the adm CLI subcommands.
package commands

import (
	"database/sql"

	"tutorapp/internal/config"
	"tutorapp/internal/database"
	"tutorapp/internal/observability"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "adm",
	Short:         "Administrative tools for the tutoring backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(createUserCmd)
	rootCmd.AddCommand(seedQuestionsCmd)
	rootCmd.AddCommand(migrateCmd)
}

// bootstrap loads config, builds a logger, and opens the database pool.
// Migrations are not run here; the migrate subcommand owns that.
func bootstrap() (*config.Config, *observability.Logger, *sql.DB, error) {
	cfg, err := config.NewConfig()
	if err != nil {
		return nil, nil, nil, err
	}

	logger := observability.NewLogger(&cfg.OpenTelemetry)

	dbManager := database.NewManager(logger)
	db, err := dbManager.Open(cfg.Database)
	if err != nil {
		return nil, nil, nil, err
	}

	return cfg, logger, db, nil
}
