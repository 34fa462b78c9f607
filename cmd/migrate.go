package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/isdelr/blog-be/internal/config"
	"github.com/isdelr/blog-be/internal/database"
	"github.com/isdelr/blog-be/internal/logger"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

// migrateCmd represents the migrate command.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database migrations",
}

var migrateUpCmd = &cobra.Command{
	Use:   "up",
	Short: "Apply all up migrations (indexes on MongoDB)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}

		if database.IsMongoURL(cfg.DatabaseURL) {
			db, err := database.NewMongo(cmd.Context(), cfg.DatabaseURL, cfg.MongoDatabase)
			if err != nil {
				return err
			}
			defer db.Client().Disconnect(context.Background())
			if err := database.EnsureMongoIndexes(cmd.Context(), db); err != nil {
				return err
			}
			log.Info().Str("database", cfg.MongoDatabase).Msg("Mongo indexes ensured")
			return nil
		}

		db, err := database.New(database.SQLitePath(cfg.DatabaseURL))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.Migrate(db); err != nil {
			return err
		}
		log.Info().Msg("Migrations applied")
		return nil
	},
}

var migrateDownCmd = &cobra.Command{
	Use:   "down",
	Short: "Roll back all migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadCLIConfig()
		if err != nil {
			return err
		}
		if database.IsMongoURL(cfg.DatabaseURL) {
			return errors.New("migrate down is only supported for SQLite")
		}

		db, err := database.New(database.SQLitePath(cfg.DatabaseURL))
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.MigrateDown(db); err != nil {
			return err
		}
		log.Info().Msg("Migrations rolled back")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
	migrateCmd.AddCommand(migrateUpCmd)
	migrateCmd.AddCommand(migrateDownCmd)
}

func loadCLIConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger.Init(cfg.LogLevel, !cfg.IsProduction())
	return cfg, nil
}
