package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/zlytics/wallet-insights/internal/adapter"
	"github.com/zlytics/wallet-insights/internal/logger"
)

// entry is one cached value with its expiry
type entry struct {
	value     interface{}
	expiresAt time.Time
}

// QueryCache memoizes expensive query results with a per-entry TTL. The
// producer runs outside the lock, so a slow query never blocks readers of
// other keys (compute-then-publish).
type QueryCache struct {
	clock adapter.Clock

	mu      sync.RWMutex
	entries map[string]entry
}

// NewQueryCache creates an empty query cache
func NewQueryCache(clock adapter.Clock) *QueryCache {
	return &QueryCache{
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Do returns the cached value for key when it is still fresh, otherwise runs
// producer and publishes its result with the given TTL. Producer errors are
// never cached.
func (c *QueryCache) Do(ctx context.Context, key string, ttl time.Duration, producer func(ctx context.Context) (interface{}, error)) (interface{}, error) {
	c.mu.RLock()
	cached, ok := c.entries[key]
	c.mu.RUnlock()

	now := c.clock.Now()
	if ok && now.Before(cached.expiresAt) {
		logger.DebugCtx(ctx, "query cache hit", zap.String("key", key))
		return cached.value, nil
	}

	value, err := producer(ctx)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = entry{value: value, expiresAt: now.Add(ttl)}
	c.mu.Unlock()

	return value, nil
}

// Invalidate drops every entry whose key starts with prefix and returns the
// number of entries dropped. An empty prefix clears the whole cache.
func (c *QueryCache) Invalidate(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	dropped := 0
	for key := range c.entries {
		if strings.HasPrefix(key, prefix) {
			delete(c.entries, key)
			dropped++
		}
	}
	return dropped
}

// SweepExpired removes entries past their expiry and returns the number swept
func (c *QueryCache) SweepExpired() int {
	now := c.clock.Now()

	c.mu.Lock()
	defer c.mu.Unlock()

	swept := 0
	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
			swept++
		}
	}
	return swept
}

// Len reports the number of entries currently held, expired or not
func (c *QueryCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
