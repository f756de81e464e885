package main

import (
	"context"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"cerebro/internal/platform/database"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update the database schema and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadConfig()
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		db, err := database.New(context.Background(), cfg.Database, cfg.MySQLDSN())
		if err != nil {
			return err
		}
		defer func() { _ = database.Close(db) }()

		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info("schema migrated", zap.String("driver", cfg.Database.Driver))
		return nil
	},
}
