package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"prop-simulator/internal/domain"
)

// RedisCache is a RunCache backed by Redis string keys with a TTL.
type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCache connects to addr and verifies the connection.
func NewRedisCache(ctx context.Context, addr string, ttl time.Duration) (*RedisCache, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis %s: %w", addr, err)
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisCache{client: client, ttl: ttl}, nil
}

// Compile-time interface check.
var _ RunCache = (*RedisCache)(nil)

// Get implements RunCache.
func (c *RedisCache) Get(ctx context.Context, runID string) (*domain.SimulationRun, error) {
	data, err := c.client.Get(ctx, keyFor(runID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, fmt.Errorf("redis get: %w", err)
	}

	var run domain.SimulationRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, fmt.Errorf("decode cached run: %w", err)
	}
	return &run, nil
}

// Set implements RunCache.
func (c *RedisCache) Set(ctx context.Context, run *domain.SimulationRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := c.client.Set(ctx, keyFor(run.RunID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (c *RedisCache) Close() error {
	return c.client.Close()
}
