package account

import (
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	"github.com/elskow/gatekeep/internal/config"
	"github.com/elskow/gatekeep/internal/database"
)

// NewModule provides the Store for the configured database driver.
func NewModule() fx.Option {
	return fx.Options(
		fx.Provide(
			fx.Annotate(
				func(cfg *config.AppConfig, manager *database.Manager, log *zap.Logger) (Store, error) {
					return NewStore(cfg.Database.Driver, manager, log)
				},
			),
		),
	)
}

func NewStore(driver string, manager *database.Manager, log *zap.Logger) (Store, error) {
	switch driver {
	case config.DriverPostgres:
		return NewGormStore(manager.Postgres()), nil
	case config.DriverMongoDB:
		return NewMongoStore(manager.Mongo()), nil
	case config.DriverRedis:
		return NewRedisStore(manager.Redis()), nil
	case config.DriverMemory:
		log.Warn("using in-memory account store; accounts are lost on restart")
		return NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("no account store for driver %q", driver)
	}
}
