package classifier

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCache is a Cache backed by Redis, used in production when REDIS_URL
// is configured.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to the Redis instance at addr and validates
// connectivity with a Ping, matching the construct-then-ping pattern used
// elsewhere in this codebase for external stateful dependencies.
func NewRedisCache(ctx context.Context, addr string) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return &RedisCache{client: client}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string) (ClassificationResult, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ClassificationResult{}, false, nil
	}
	if err != nil {
		return ClassificationResult{}, false, fmt.Errorf("redis: get %s: %w", key, err)
	}

	var result ClassificationResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return ClassificationResult{}, false, fmt.Errorf("redis: decode %s: %w", key, err)
	}
	return result, true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, result ClassificationResult, ttl time.Duration) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, raw, ttl).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	return nil
}

// Close releases the underlying Redis connection pool.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
