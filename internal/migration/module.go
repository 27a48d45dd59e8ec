package migration

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/config"
)

// Module brings the postgres schema to the latest version on start when
// database.auto_migrate is set. Other drivers manage their own indexes.
func Module() fx.Option {
	return fx.Options(
		fx.Invoke(registerHooks),
	)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	cfg *config.AppConfig,
	logger *zap.Logger,
) {
	if cfg.Database.Driver != config.DriverPostgres || !cfg.Database.AutoMigrate {
		logger.Debug("skipping schema migrations",
			zap.String("driver", cfg.Database.Driver),
			zap.Bool("auto_migrate", cfg.Database.AutoMigrate))
		return
	}

	var migrator *Migrator
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			var err error
			migrator, err = NewMigrator(&cfg.Database)
			if err != nil {
				return err
			}
			return syncSchema(migrator, logger)
		},
		OnStop: func(ctx context.Context) error {
			if migrator == nil {
				return nil
			}
			return migrator.Close()
		},
	})
}

func syncSchema(migrator *Migrator, logger *zap.Logger) error {
	currentVersion, err := migrator.GetCurrentVersion()
	if err != nil {
		return fmt.Errorf("failed to get current migration version: %w", err)
	}

	latestVersion, err := migrator.GetLatestVersion()
	if err != nil {
		return fmt.Errorf("failed to get latest migration version: %w", err)
	}

	logger.Info("Database migration status",
		zap.Int64("current_version", currentVersion),
		zap.Int64("latest_version", latestVersion))

	switch {
	case currentVersion > latestVersion:
		logger.Info("Downgrading database schema",
			zap.Int64("from_version", currentVersion),
			zap.Int64("to_version", latestVersion))

		if err := migrator.DownTo(latestVersion); err != nil {
			return fmt.Errorf("failed to downgrade database: %w", err)
		}
	case currentVersion < latestVersion:
		logger.Info("Upgrading database schema",
			zap.Int64("from_version", currentVersion),
			zap.Int64("to_version", latestVersion))

		if err := migrator.Up(); err != nil {
			return fmt.Errorf("failed to upgrade database: %w", err)
		}
	}

	return nil
}
