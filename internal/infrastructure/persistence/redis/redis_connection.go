// Package redis provides the Redis connection and the shared block/suspicious
// IP sets.
package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wavecard/guard/internal/config"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// NewConnection creates a Redis client from configuration and verifies
// connectivity.
func NewConnection(cfg *config.RedisConfig, log logger.Logger) (redis.UniversalClient, error) {
	client := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs:        cfg.Addresses,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.ErrCacheUnavailable(err)
	}

	log.Info(context.Background(), "Redis connection established",
		logger.Any("addresses", cfg.Addresses),
		logger.Int("db", cfg.DB),
	)

	return client, nil
}
