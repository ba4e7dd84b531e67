package iocache

import (
	"sync"
	"time"

	"github.com/huangsam/patchpanel/internal/contract"
	"github.com/huangsam/patchpanel/schema"
)

// Lookup results reported to the observer.
const (
	LookupHit     = "hit"
	LookupMiss    = "miss"
	LookupExpired = "expired"
)

// TTLCache enforces a uniform time-to-live on top of a CacheStore.
// Expired entries are evicted lazily when read; there is no sweeper.
type TTLCache struct {
	mu      sync.Mutex
	store   contract.CacheStore
	ttl     time.Duration
	now     func() time.Time
	observe func(endpoint, result string)
}

var _ contract.Cache = &TTLCache{} // Compile-time check

// TTLOption customizes a TTLCache.
type TTLOption func(*TTLCache)

// WithClock replaces the wall clock.
func WithClock(now func() time.Time) TTLOption {
	return func(c *TTLCache) { c.now = now }
}

// WithLookupObserver is called after every Get with the endpoint and the lookup result.
func WithLookupObserver(fn func(endpoint, result string)) TTLOption {
	return func(c *TTLCache) { c.observe = fn }
}

// NewTTLCache wraps store with the given ttl.
func NewTTLCache(store contract.CacheStore, ttl time.Duration, opts ...TTLOption) *TTLCache {
	c := &TTLCache{
		store:   store,
		ttl:     ttl,
		now:     time.Now,
		observe: func(string, string) {},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured time-to-live.
func (c *TTLCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the payload when present and younger than the ttl.
func (c *TTLCache) Get(endpoint string, entityID int64) ([]byte, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	payload, storedAt, found, err := c.store.Get(endpoint, entityID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		c.observe(endpoint, LookupMiss)
		return nil, false, nil
	}
	if c.now().Sub(storedAt) > c.ttl {
		c.observe(endpoint, LookupExpired)
		if err := c.store.Delete(endpoint, entityID); err != nil {
			return nil, false, err
		}
		return nil, false, nil
	}
	c.observe(endpoint, LookupHit)
	return payload, true, nil
}

// Set stamps the payload with the current time and upserts it.
func (c *TTLCache) Set(endpoint string, entityID int64, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Set(endpoint, entityID, payload, c.now())
}

// Clear removes every entry.
func (c *TTLCache) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Clear()
}

// Stats counts stored entries, including ones that expired but were never read.
func (c *TTLCache) Stats() (schema.CacheStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.store.Stats()
}
