// Package cache memoizes chat responses in Redis.
package cache

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const keyPrefix = "neusearch:chat:"

// Cache is a Redis-backed response cache. A nil *Cache is valid and caches
// nothing, so callers don't need to branch on availability.
type Cache struct {
	rdb    *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// New connects to Redis and pings it.
func New(redisURL string, ttl time.Duration, logger *zap.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	logger.Info("Redis connected")
	return &Cache{rdb: rdb, ttl: ttl, logger: logger}, nil
}

// GetResponse returns the cached payload for a query, if any. Cache errors
// are treated as misses.
func (c *Cache) GetResponse(ctx context.Context, query string) ([]byte, bool) {
	if c == nil {
		return nil, false
	}
	data, err := c.rdb.Get(ctx, key(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.Warn("cache read failed", zap.Error(err))
		}
		return nil, false
	}
	return data, true
}

// SetResponse stores a payload for a query with the configured TTL. Write
// failures are logged, never surfaced.
func (c *Cache) SetResponse(ctx context.Context, query string, payload []byte) {
	if c == nil {
		return
	}
	if err := c.rdb.Set(ctx, key(query), payload, c.ttl).Err(); err != nil {
		c.logger.Warn("cache write failed", zap.Error(err))
	}
}

// Close shuts down the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.rdb.Close()
}

func key(query string) string {
	return keyPrefix + strings.ToLower(strings.Join(strings.Fields(query), " "))
}
