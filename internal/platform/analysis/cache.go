package analysis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache remembers model answers for identical result sets.
type Cache interface {
	Get(ctx context.Context, key string) (Analysis, bool, error)
	Set(ctx context.Context, key string, a Analysis) error
}

const defaultCacheTTL = 24 * time.Hour

// RedisCache stores analyses as JSON under "analysis:<sha256>".
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	return &RedisCache{client: client, ttl: ttl}
}

func (c *RedisCache) Get(ctx context.Context, key string) (Analysis, bool, error) {
	raw, err := c.client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return Analysis{}, false, nil
	}
	if err != nil {
		return Analysis{}, false, fmt.Errorf("analysis cache get: %w", err)
	}
	a, err := Parse(string(raw))
	if err != nil {
		return Analysis{}, false, err
	}
	return a, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, a Analysis) error {
	b, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("analysis cache encode: %w", err)
	}
	if err := c.client.Set(ctx, c.key(key), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("analysis cache set: %w", err)
	}
	return nil
}

func (c *RedisCache) key(k string) string {
	return "analysis:" + k
}
