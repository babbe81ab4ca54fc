package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"prop-simulator/internal/domain"
)

type memoryItem struct {
	data      []byte
	expiresAt time.Time
}

// MemoryCache is an in-process RunCache. Entries are stored as JSON so
// callers never share mutable state with the cache.
type MemoryCache struct {
	mu    sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
	items map[string]memoryItem
}

// NewMemoryCache creates a new MemoryCache.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryCache{ttl: ttl, now: time.Now, items: make(map[string]memoryItem)}
}

// Compile-time interface check.
var _ RunCache = (*MemoryCache)(nil)

// Get implements RunCache.
func (c *MemoryCache) Get(_ context.Context, runID string) (*domain.SimulationRun, error) {
	key := keyFor(runID)

	c.mu.RLock()
	item, ok := c.items[key]
	c.mu.RUnlock()
	if !ok {
		return nil, ErrCacheMiss
	}
	if c.now().After(item.expiresAt) {
		c.mu.Lock()
		delete(c.items, key)
		c.mu.Unlock()
		return nil, ErrCacheMiss
	}

	var run domain.SimulationRun
	if err := json.Unmarshal(item.data, &run); err != nil {
		return nil, fmt.Errorf("decode cached run: %w", err)
	}
	return &run, nil
}

// Set implements RunCache.
func (c *MemoryCache) Set(_ context.Context, run *domain.SimulationRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}

	c.mu.Lock()
	c.items[keyFor(run.RunID)] = memoryItem{data: data, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
	return nil
}
