package forecast

import (
	"context"
	"sync"
	"time"
)

// Cache holds hourly forecast results for a bounded time. Caching is a
// performance optimization only: a hit must return exactly what a recompute
// would for an unchanged input, and entries are never served past expiry.
type Cache interface {
	Get(ctx context.Context, key string) (HourlyForecast, bool)
	Set(ctx context.Context, key string, fc HourlyForecast)
}

type memoryEntry struct {
	value     HourlyForecast
	expiresAt time.Time
}

// MemoryCache is a mutex-guarded in-process Cache with per-entry TTL.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// NewMemoryCacheWithClock builds a cache with an injected clock so tests can
// assert expiry deterministically.
func NewMemoryCacheWithClock(ttl time.Duration, now func() time.Time) *MemoryCache {
	c := NewMemoryCache(ttl)
	c.now = now
	return c
}

func (c *MemoryCache) Get(_ context.Context, key string) (HourlyForecast, bool) {
	c.mu.RLock()
	entry, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || !c.now().Before(entry.expiresAt) {
		return HourlyForecast{}, false
	}
	return entry.value, true
}

func (c *MemoryCache) Set(_ context.Context, key string, fc HourlyForecast) {
	c.mu.Lock()
	c.entries[key] = memoryEntry{value: fc, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()
}

// NoopCache disables caching; every lookup misses.
type NoopCache struct{}

func (NoopCache) Get(context.Context, string) (HourlyForecast, bool) { return HourlyForecast{}, false }
func (NoopCache) Set(context.Context, string, HourlyForecast)        {}
