// Package cache provides the Redis read-through cache for reviews.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache provides Redis cache access methods.
type Cache struct {
	client       *redis.Client
	ttl          time.Duration
	tombstoneTTL time.Duration
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides DefaultReviewTTL for cached reviews.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.ttl = ttl
		}
	}
}

// WithTombstoneTTL overrides DefaultTombstoneTTL, the window after an
// invalidation during which refills are refused.
func WithTombstoneTTL(ttl time.Duration) Option {
	return func(c *Cache) {
		if ttl > 0 {
			c.tombstoneTTL = ttl
		}
	}
}

// New creates a new Cache with a Redis client.
func New(ctx context.Context, redisURL string, opts ...Option) (*Cache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	// Connection pool settings
	opt.PoolSize = 10
	opt.MinIdleConns = 2
	opt.PoolTimeout = 4 * time.Second
	opt.ConnMaxIdleTime = 5 * time.Minute

	client := redis.NewClient(opt)

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return NewWithClient(client, opts...), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, opts ...Option) *Cache {
	c := &Cache{client: client, ttl: DefaultReviewTTL, tombstoneTTL: DefaultTombstoneTTL}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Ping checks Redis connectivity.
func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// Close closes the Redis client.
func (c *Cache) Close() error {
	return c.client.Close()
}

// Client returns the underlying Redis client.
// Use sparingly - prefer adding methods to Cache.
func (c *Cache) Client() *redis.Client {
	return c.client
}
