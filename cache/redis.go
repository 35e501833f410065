package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisConfig connects a RedisCache.
type RedisConfig struct {
	// Addr is the host:port of the redis server.
	Addr string

	Password string
	DB       int

	// Namespace prefixes every key, isolating clients that share a
	// server.
	// Default: "llmops"
	Namespace string

	// OpTimeout bounds each redis operation.
	// Default: 2s
	OpTimeout time.Duration
}

// RedisCache stores responses in redis so multiple processes share one
// response cache. The connection is established lazily; use Ping to
// verify reachability.
type RedisCache struct {
	client    *redis.Client
	namespace string
	opTimeout time.Duration
}

// NewRedisCache creates a redis-backed cache.
func NewRedisCache(config RedisConfig) (*RedisCache, error) {
	if config.Addr == "" {
		return nil, fmt.Errorf("cache: redis addr is required")
	}
	if config.Namespace == "" {
		config.Namespace = "llmops"
	}
	if config.OpTimeout <= 0 {
		config.OpTimeout = 2 * time.Second
	}

	client := redis.NewClient(&redis.Options{
		Addr:     config.Addr,
		Password: config.Password,
		DB:       config.DB,
	})

	return &RedisCache{
		client:    client,
		namespace: config.Namespace,
		opTimeout: config.OpTimeout,
	}, nil
}

func (c *RedisCache) namespaced(key string) string {
	return fmt.Sprintf("%s:%s", c.namespace, key)
}

// Get retrieves a cached value. Returns (nil, false) on miss and on
// any redis error; a flaky cache must not fail the call path.
func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	data, err := c.client.Get(ctx, c.namespaced(key)).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set stores a value with the given TTL. TTL=0 means no caching.
func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Set(ctx, c.namespaced(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: redis set: %w", err)
	}
	return nil
}

// Delete removes a cached value. Idempotent - no error on miss.
func (c *RedisCache) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()

	if err := c.client.Del(ctx, c.namespaced(key)).Err(); err != nil {
		return fmt.Errorf("cache: redis delete: %w", err)
	}
	return nil
}

// Clear removes every key in this cache's namespace.
func (c *RedisCache) Clear(ctx context.Context) error {
	iter := c.client.Scan(ctx, 0, c.namespace+":*", 100).Iterator()
	for iter.Next(ctx) {
		if err := c.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cache: redis clear: %w", err)
		}
	}
	if err := iter.Err(); err != nil {
		return fmt.Errorf("cache: redis scan: %w", err)
	}
	return nil
}

// Ping verifies the server is reachable.
func (c *RedisCache) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, c.opTimeout)
	defer cancel()
	return c.client.Ping(ctx).Err()
}

// Close releases the client's connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}

// Ensure RedisCache implements Cache
var _ Cache = (*RedisCache)(nil)
