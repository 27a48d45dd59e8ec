package database

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

func (m *Manager) openRedis(ctx context.Context) (*redis.Client, error) {
	opt, err := redis.ParseURL(m.config.DSN)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	if m.config.ConnectTimeout > 0 {
		opt.DialTimeout = m.config.ConnectTimeout
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := m.connectContext(ctx)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}

	m.logger.Info("connected to redis")
	return client, nil
}

func closeRedis(client *redis.Client) error {
	return client.Close()
}
