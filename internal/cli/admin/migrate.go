package admin

import (
	"fmt"

	"github.com/cloo-solutions/gleaner/internal/config"
	"github.com/cloo-solutions/gleaner/internal/database"
	"github.com/cloo-solutions/gleaner/internal/logging"
	"github.com/spf13/cobra"
)

const defaultMigrationsDir = "migrations"

// MigrateCmd returns the migrate command
func MigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations",
		Long:  "Apply all pending database migrations (sources, chunks, ingest_jobs)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			debug, _ := cmd.Flags().GetBool("debug")
			logger, err := logging.New(cfg.Debug || debug)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			dir, _ := cmd.Flags().GetString("migrations")
			return database.Migrate(cfg.DatabaseURL, dir, logger)
		},
	}

	cmd.Flags().String("migrations", defaultMigrationsDir, "Directory containing migration files")

	return cmd
}
