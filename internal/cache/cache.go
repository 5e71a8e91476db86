package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// DefaultExpiration bounds how stale a cached response may get even without
// explicit invalidation.
const DefaultExpiration = 60 * time.Second

// Cache is a small Redis-backed byte cache for rendered responses. A nil
// *Cache is valid and disables caching, so call sites need no branching on
// configuration.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at the given URL. An empty URL returns a nil cache.
func New(redisURL string) (*Cache, error) {
	if redisURL == "" {
		return nil, nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Cache{client: redis.NewClient(opts)}, nil
}

// Get returns the cached value for key, or nil when absent or disabled.
func (c *Cache) Get(ctx context.Context, key string) []byte {
	if c == nil {
		return nil
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		return nil
	}
	return val
}

// Set stores value under key with the default expiration. Failures are
// swallowed: the cache is an optimization, never a source of truth.
func (c *Cache) Set(ctx context.Context, key string, value []byte) {
	if c == nil {
		return
	}
	c.client.Set(ctx, key, value, DefaultExpiration)
}

// Generation returns the current invalidation generation for scope. Keys
// embedding the generation become unreachable once Invalidate bumps it.
func (c *Cache) Generation(ctx context.Context, scope string) int64 {
	if c == nil {
		return 0
	}
	gen, err := c.client.Get(ctx, "gen:"+scope).Int64()
	if err != nil {
		return 0
	}
	return gen
}

// Invalidate bumps the generation counter for scope.
func (c *Cache) Invalidate(ctx context.Context, scope string) {
	if c == nil {
		return
	}
	c.client.Incr(ctx, "gen:"+scope)
}

// Close releases the underlying connection pool.
func (c *Cache) Close() error {
	if c == nil {
		return nil
	}
	return c.client.Close()
}
