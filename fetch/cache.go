package fetch

import (
	"sync"
	"time"
)

// cacheEntry is one cached response body keyed by the canonical request
// URL string. An entry is served only while time.Since(storedAt) <
// maxAge; otherwise the next access evicts it.
type cacheEntry struct {
	body     string
	maxAge   time.Duration
	storedAt time.Time
}

func (e cacheEntry) expired(now time.Time) bool {
	return now.Sub(e.storedAt) >= e.maxAge
}

// responseCache is the fetcher's process-wide (per-Fetcher-instance)
// cache-control-driven response cache, promoted from the source's
// module-level singleton to an explicit field per spec.md §9's design
// note on avoiding hidden global mutation.
type responseCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	hits    int64
	misses  int64
}

func newResponseCache() *responseCache {
	return &responseCache{entries: make(map[string]cacheEntry)}
}

// get returns the cached body for key if present and unexpired, evicting
// it first if it has expired.
func (c *responseCache) get(key string, now time.Time) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		c.misses++
		return "", false
	}
	if e.expired(now) {
		delete(c.entries, key)
		c.misses++
		return "", false
	}
	c.hits++
	return e.body, true
}

// store inserts or replaces the entry for key. maxAge <= 0 is treated as
// a no-store directive: any prior entry for key is evicted and nothing
// new is inserted.
func (c *responseCache) store(key, body string, maxAge time.Duration, now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if maxAge <= 0 {
		delete(c.entries, key)
		return
	}
	c.entries[key] = cacheEntry{body: body, maxAge: maxAge, storedAt: now}
}

// evict removes any entry for key, used for the bare no-store directive.
func (c *responseCache) evict(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

func (c *responseCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *responseCache) stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
