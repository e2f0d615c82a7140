package quota

import (
	"context"
	"sync"
	"time"
)

// Cache holds derived quota views keyed by user id.
// Invalidate must be called after every committed deduction.
type Cache interface {
	Get(ctx context.Context, userID string) (*Status, bool)
	Set(ctx context.Context, userID string, status *Status) error
	Invalidate(ctx context.Context, userID string) error
}

type cacheEntry struct {
	status    Status
	expiresAt time.Time
}

// MemoryCache is a process-local TTL cache
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryCache creates a MemoryCache with the given TTL
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the cached status if it has not expired
func (c *MemoryCache) Get(_ context.Context, userID string) (*Status, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[userID]
	if !ok || !c.now().Before(entry.expiresAt) {
		return nil, false
	}
	status := entry.status
	return &status, true
}

// Set stores the status until the TTL elapses
func (c *MemoryCache) Set(_ context.Context, userID string, status *Status) error {
	if status == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[userID] = cacheEntry{status: *status, expiresAt: c.now().Add(c.ttl)}
	return nil
}

// Invalidate drops the user's entry
func (c *MemoryCache) Invalidate(_ context.Context, userID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.entries, userID)
	return nil
}

// NopCache never stores anything
type NopCache struct{}

// Get always misses
func (NopCache) Get(context.Context, string) (*Status, bool) { return nil, false }

// Set is a no-op
func (NopCache) Set(context.Context, string, *Status) error { return nil }

// Invalidate is a no-op
func (NopCache) Invalidate(context.Context, string) error { return nil }
