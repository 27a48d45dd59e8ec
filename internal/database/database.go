package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/elskow/gatekeep/internal/config"
)

// Manager owns the lazily established connection for the configured driver.
// Exactly one of the accessors returns a non-nil cell.
type Manager struct {
	config *config.DatabaseConfig
	logger *zap.Logger

	postgres *Lazy[*gorm.DB]
	mongo    *Lazy[*mongo.Database]
	redis    *Lazy[*redis.Client]
}

func NewManager(cfg *config.DatabaseConfig, logger *zap.Logger) (*Manager, error) {
	m := &Manager{
		config: cfg,
		logger: logger,
	}

	switch cfg.Driver {
	case config.DriverPostgres:
		m.postgres = NewLazy(m.openPostgres, closePostgres)
	case config.DriverMongoDB:
		m.mongo = NewLazy(m.openMongo, closeMongo)
	case config.DriverRedis:
		m.redis = NewLazy(m.openRedis, closeRedis)
	case config.DriverMemory:
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}

	return m, nil
}

func (m *Manager) Postgres() *Lazy[*gorm.DB] {
	return m.postgres
}

func (m *Manager) Mongo() *Lazy[*mongo.Database] {
	return m.mongo
}

func (m *Manager) Redis() *Lazy[*redis.Client] {
	return m.redis
}

func (m *Manager) Close() error {
	switch {
	case m.postgres != nil:
		return m.postgres.Close()
	case m.mongo != nil:
		return m.mongo.Close()
	case m.redis != nil:
		return m.redis.Close()
	}
	return nil
}

func (m *Manager) openPostgres(ctx context.Context) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger: logger.New(
			zap.NewStdLog(m.logger.Named("gorm")),
			logger.Config{
				SlowThreshold:             time.Second,
				LogLevel:                  logger.Warn,
				IgnoreRecordNotFoundError: true,
				Colorful:                  false,
			},
		),
		SkipDefaultTransaction: true,
		TranslateError:         true,
	}

	db, err := gorm.Open(postgres.Open(m.config.DSN), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	pingCtx, cancel := m.connectContext(ctx)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to reach postgres: %w", err)
	}

	m.logger.Info("connected to postgres")
	return db, nil
}

func closePostgres(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (m *Manager) connectContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if m.config.ConnectTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, m.config.ConnectTimeout)
}
