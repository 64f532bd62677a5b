package remote

import (
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// DefaultCacheTTL is used for track, device and clip state
const DefaultCacheTTL = time.Second

type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// StateCache is a TTL cache over remote reads. Keys are cache keys built by
// CacheKey; invalidation is by exact key or by path prefix.
type StateCache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	// generation is bumped on every invalidation so a fetch that started
	// before an invalidation never stores its (stale) result
	generation uint64
	group      singleflight.Group
	now        func() time.Time
}

// NewStateCache creates a cache with the given TTL (DefaultCacheTTL if <= 0)
func NewStateCache(ttl time.Duration) *StateCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &StateCache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// TTL returns the entry lifetime
func (c *StateCache) TTL() time.Duration {
	return c.ttl
}

// Get returns the cached value for key, or calls fetch and caches its result.
// Concurrent misses for the same key share one fetch. Errors are not cached.
func (c *StateCache) Get(key string, fetch func() (any, error)) (any, error) {
	c.mu.Lock()
	if entry, ok := c.entries[key]; ok && c.now().Before(entry.expiresAt) {
		c.mu.Unlock()
		return entry.value, nil
	}
	gen := c.generation
	c.mu.Unlock()

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		if c.generation == gen {
			c.entries[key] = cacheEntry{value: value, expiresAt: c.now().Add(c.ttl)}
		}
		c.mu.Unlock()
		return value, nil
	})
	return v, err
}

// Invalidate drops the entry equal to keyOrPrefix and every entry below it.
// Matching is segment-aware: "live_set tracks 1" drops "live_set tracks 1|name"
// and "live_set tracks 1 devices 0" but not "live_set tracks 10".
func (c *StateCache) Invalidate(keyOrPrefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.generation++
	removed := 0
	for key := range c.entries {
		if matchesPrefix(key, keyOrPrefix) {
			delete(c.entries, key)
			removed++
		}
	}
	return removed
}

// Clear drops every entry
func (c *StateCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.generation++
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of stored entries, expired ones included
func (c *StateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the stored keys (for diagnostics)
func (c *StateCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func matchesPrefix(key, prefix string) bool {
	if key == prefix || prefix == "" {
		return true
	}
	if !strings.HasPrefix(key, prefix) {
		return false
	}
	next := key[len(prefix)]
	return next == ' ' || next == '|'
}
