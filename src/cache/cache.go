// Package cache is a read-through Redis cache for hot room message lists.
// It is strictly an optimization over the badger store: every method on a
// nil *Cache is a no-op, so the server runs unchanged without Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Cache wraps a Redis client with a key prefix and TTL.
type Cache struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	logger zerolog.Logger
}

// Connect dials Redis and returns a Cache, or nil if Redis is not
// reachable. A nil Cache disables caching without disabling the server.
func Connect(ctx context.Context, addr, prefix string, ttl time.Duration, logger zerolog.Logger) *Cache {
	logger = logger.With().Str("component", "cache").Logger()

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn().Err(err).Str("addr", addr).
			Msg("redis unavailable, caching disabled")
		_ = client.Close()
		return nil
	}

	logger.Info().Str("addr", addr).Msg("redis cache connected")
	return &Cache{client: client, prefix: prefix, ttl: ttl, logger: logger}
}

// Get loads a cached value into dest. Returns false on a miss.
func (c *Cache) Get(ctx context.Context, key string, dest any) bool {
	if c == nil {
		return false
	}
	data, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache get failed")
		return false
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache entry corrupt")
		return false
	}
	return true
}

// Set stores a value under key with the configured TTL.
func (c *Cache) Set(ctx context.Context, key string, value any) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal: %w", err)
	}
	return c.client.Set(ctx, c.prefix+key, data, c.ttl).Err()
}

// Invalidate drops a cached value, called when the underlying document
// set changes.
func (c *Cache) Invalidate(ctx context.Context, key string) {
	if c == nil {
		return
	}
	if err := c.client.Del(ctx, c.prefix+key).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("cache invalidate failed")
	}
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
