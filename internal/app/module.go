package app

import (
	"context"
	"os"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/account"
	"github.com/elskow/gatekeep/internal/auth"
	"github.com/elskow/gatekeep/internal/database"
	"github.com/elskow/gatekeep/internal/graph"
	"github.com/elskow/gatekeep/internal/migration"
	"github.com/elskow/gatekeep/internal/server"
)

// Module combines all application modules
func Module() fx.Option {
	return fx.Options(
		// Logger
		fx.Provide(newLogger),

		// Configuration
		fx.Provide(server.LoadConfig),

		// Storage
		database.Module(),
		migration.Module(),
		account.NewModule(),

		// Auth Module
		auth.NewModule(),

		// GraphQL
		graph.NewModule(),

		// Server
		fx.Provide(server.NewServer),

		// Start the server
		fx.Invoke(registerHooks),
	)
}

func newLogger() (*zap.Logger, error) {
	env := os.Getenv("APP_ENV")
	return server.NewLogger(env)
}

func registerHooks(
	lifecycle fx.Lifecycle,
	srv *server.Server,
	log *zap.Logger,
) {
	lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return srv.Start()
		},
		OnStop: func(ctx context.Context) error {
			log.Info("shutting down server...")
			return srv.Stop(ctx)
		},
	})
}
