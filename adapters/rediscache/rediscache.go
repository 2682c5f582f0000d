// Package rediscache provides a redis-backed implementation of the cache
// port for deployments that want lookup results shared across restarts.
// It is optional: when no redis URL is configured, the in-memory cache is
// used alone.
package rediscache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/djmoore711/brandfetch-mcp/ports"
)

const keyPrefix = "brandfetch:lookup:"

// Cache implements ports.Cache on redis. All operations are best-effort:
// redis being down degrades to cache misses, never to request failures.
type Cache struct {
	client *redis.Client
	logger zerolog.Logger
}

// New connects to redis using a URL like redis://localhost:6379/0 and
// verifies the connection.
func New(ctx context.Context, redisURL string, logger zerolog.Logger) (*Cache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return &Cache{
		client: client,
		logger: logger.With().Str("component", "rediscache").Logger(),
	}, nil
}

// Get returns the cached value for key, if present.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis get failed")
		return nil, false
	}
	return val, true
}

// Set stores value under key for ttl. Failures are logged and dropped.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	if ttl <= 0 {
		return
	}
	if err := c.client.Set(ctx, keyPrefix+key, value, ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Str("key", key).Msg("redis set failed")
	}
}

// Close releases the redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Ensure interface compliance.
var _ ports.Cache = (*Cache)(nil)

// Tiered layers a fast local cache in front of redis: reads hit the local
// cache first and backfill it from redis; writes go to both.
type Tiered struct {
	local  ports.Cache
	remote ports.Cache
	ttl    time.Duration
}

// NewTiered combines a local and a remote cache.
func NewTiered(local, remote ports.Cache, ttl time.Duration) *Tiered {
	return &Tiered{local: local, remote: remote, ttl: ttl}
}

// Get reads through the tiers.
func (t *Tiered) Get(ctx context.Context, key string) ([]byte, bool) {
	if val, ok := t.local.Get(ctx, key); ok {
		return val, true
	}
	val, ok := t.remote.Get(ctx, key)
	if ok {
		t.local.Set(ctx, key, val, t.ttl)
	}
	return val, ok
}

// Set writes to both tiers.
func (t *Tiered) Set(ctx context.Context, key string, value []byte, ttl time.Duration) {
	t.local.Set(ctx, key, value, ttl)
	t.remote.Set(ctx, key, value, ttl)
}

// Ensure interface compliance.
var _ ports.Cache = (*Tiered)(nil)
