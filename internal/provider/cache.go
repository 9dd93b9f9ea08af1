package provider

import (
	"time"

	lru "github.com/hashicorp/golang-lru"
)

// Cache memoizes provider responses for a bounded time. Implementations must
// be safe for concurrent use; entries are best-effort and process-local.
type Cache interface {
	Get(key string) (any, bool)
	Set(key string, value any, ttl time.Duration)
}

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// TTLCache is a bounded LRU cache whose entries expire after a fixed
// duration. Expired entries are evicted on read.
type TTLCache struct {
	store *lru.Cache
	clock func() time.Time
}

// NewTTLCache builds a cache holding at most maxEntries values. The clock is
// injectable for tests; nil defaults to time.Now.
func NewTTLCache(maxEntries int, clock func() time.Time) (*TTLCache, error) {
	store, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	if clock == nil {
		clock = time.Now
	}
	return &TTLCache{store: store, clock: clock}, nil
}

// Get returns the live value for key, evicting it first if it has expired.
func (c *TTLCache) Get(key string) (any, bool) {
	raw, ok := c.store.Get(key)
	if !ok {
		return nil, false
	}
	entry, ok := raw.(cacheEntry)
	if !ok {
		c.store.Remove(key)
		return nil, false
	}
	if c.clock().After(entry.expiresAt) {
		c.store.Remove(key)
		return nil, false
	}
	return entry.value, true
}

// Set stores value under key with expiry = now + ttl.
func (c *TTLCache) Set(key string, value any, ttl time.Duration) {
	c.store.Add(key, cacheEntry{value: value, expiresAt: c.clock().Add(ttl)})
}
