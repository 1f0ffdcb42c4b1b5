// Package ratelimit provides distributed fixed-window rate limiting backed by
// Redis, with a process-local token bucket fallback for Redis outages.
package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wavecard/guard/internal/domain/service"
	"github.com/wavecard/guard/pkg/errors"
	"github.com/wavecard/guard/pkg/logger"
)

// fixedWindowLuaScript increments the window counter and compares against the
// limit in a single atomic step. The first increment of a window sets its TTL,
// so the window is anchored to the first request. Returns {count, pttl}.
const fixedWindowLuaScript = `
local key = KEYS[1]
local window_ms = tonumber(ARGV[1])

local count = redis.call('INCR', key)
if count == 1 then
    redis.call('PEXPIRE', key, window_ms)
end

local ttl = redis.call('PTTL', key)
if ttl < 0 then
    redis.call('PEXPIRE', key, window_ms)
    ttl = window_ms
end

return {count, ttl}
`

// RedisWindowCounter implements service.WindowCounter on Redis.
type RedisWindowCounter struct {
	client    redis.UniversalClient
	keyPrefix string
	logger    logger.Logger
	script    *redis.Script
}

// NewRedisWindowCounter creates a Redis-backed window counter.
func NewRedisWindowCounter(client redis.UniversalClient, keyPrefix string, log logger.Logger) (*RedisWindowCounter, error) {
	if client == nil {
		return nil, errors.ErrInvalidRequest("redis client is required")
	}

	return &RedisWindowCounter{
		client:    client,
		keyPrefix: keyPrefix,
		logger:    log.WithComponent("window_counter"),
		script:    redis.NewScript(fixedWindowLuaScript),
	}, nil
}

// Incr atomically increments the counter for key and compares against limit.
func (c *RedisWindowCounter) Incr(ctx context.Context, key string, window time.Duration, limit int) (*service.CounterResult, error) {
	redisKey := c.keyPrefix + key

	result, err := c.script.Run(ctx, c.client, []string{redisKey}, window.Milliseconds()).Result()
	if err != nil {
		return nil, errors.ErrCacheUnavailable(err)
	}

	values, ok := result.([]interface{})
	if !ok || len(values) < 2 {
		return nil, errors.ErrServerError(fmt.Sprintf("unexpected counter script result: %v", result))
	}

	count, ok := values[0].(int64)
	if !ok {
		return nil, errors.ErrServerError("counter script returned non-integer count")
	}
	ttlMs, ok := values[1].(int64)
	if !ok {
		return nil, errors.ErrServerError("counter script returned non-integer ttl")
	}

	return &service.CounterResult{
		Current:    count,
		Allowed:    count <= int64(limit),
		ResetAfter: time.Duration(ttlMs) * time.Millisecond,
	}, nil
}

// Reset clears the counter for key.
func (c *RedisWindowCounter) Reset(ctx context.Context, key string) error {
	if err := c.client.Del(ctx, c.keyPrefix+key).Err(); err != nil && err != redis.Nil {
		return errors.ErrCacheUnavailable(err)
	}

	c.logger.Debug(ctx, "Window counter reset", logger.String("key", key))
	return nil
}

var _ service.WindowCounter = (*RedisWindowCounter)(nil)
