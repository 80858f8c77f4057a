package main

import (
	"fmt"

	"herbal_store/config"
	"herbal_store/internal/repository"
	"herbal_store/pkg/db"

	"github.com/spf13/cobra"
)

var migrateDryRun bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the Postgres tables",
	Long: `Apply the embedded schema to DATABASE_URL. The statements are idempotent,
so running migrate against an existing database is safe.

Examples:
  herbal-store migrate
  herbal-store migrate --dry-run`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateDryRun, "dry-run", false, "print the schema without applying it")
}

func runMigrate(cmd *cobra.Command, args []string) error {
	if migrateDryRun {
		fmt.Fprintln(cmd.OutOrStdout(), repository.Schema)
		return nil
	}

	logger := setupLogger("info")
	cfg := config.LoadConfig(logger)
	applyLogLevel(logger, cfg.LogLevel)
	if cfg.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required for migrate")
	}

	ctx := commandContext(cmd)

	conn, err := db.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer closeDB(conn, logger)

	if err := repository.Migrate(ctx, conn); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	logger.Info("Schema applied.")
	return nil
}
