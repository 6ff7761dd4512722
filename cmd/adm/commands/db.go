package commands

import (
	"fmt"

	"tutorapp/internal/config"
	"tutorapp/internal/database"
	"tutorapp/internal/observability"

	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig()
		if err != nil {
			return err
		}

		logger := observability.NewLogger(&cfg.OpenTelemetry)
		dbManager := database.NewManager(logger)

		if err := dbManager.RunMigrations(cfg.Database.URL, cfg.Database.MigrationsPath); err != nil {
			return err
		}

		fmt.Println("Migrations applied")
		return nil
	},
}
