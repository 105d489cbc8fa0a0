// Package cache implements the in-memory TTL map that sits in front of the
// hybrid fetch path. Unlike the teacher's capacity-bounded response cache,
// this cache is bounded only by TTL, per the library's "no persistent disk
// cache, no distributed coordination" non-goal.
package cache

import (
	"sync"
	"time"
)

// Entry is a cached result paired with the time it was stored.
type Entry struct {
	Result    interface{}
	Timestamp time.Time
}

// Cache is a concurrency-safe URL -> Entry map with per-cache TTL. It holds
// no reference to any engine and is constructed once per engine instance,
// never shared at package scope.
type Cache struct {
	mu    sync.RWMutex
	store map[string]Entry
	ttl   time.Duration
}

// New builds a Cache with the given TTL. ttl <= 0 disables storage: Put
// becomes a no-op and Get always misses.
func New(ttl time.Duration) *Cache {
	return &Cache{
		store: make(map[string]Entry),
		ttl:   ttl,
	}
}

// Get returns a shallow copy of the stored entry for url, or (Entry{},
// false) on miss or expiry. An expired entry is removed as a side effect of
// the lookup.
func (c *Cache) Get(url string) (Entry, bool) {
	c.mu.RLock()
	e, ok := c.store[url]
	c.mu.RUnlock()

	if !ok {
		return Entry{}, false
	}

	if time.Since(e.Timestamp) >= c.ttl {
		c.mu.Lock()
		delete(c.store, url)
		c.mu.Unlock()
		return Entry{}, false
	}

	return e, true
}

// Put stores result under url with the current time as its timestamp. A
// no-op when the cache's TTL is zero or negative.
func (c *Cache) Put(url string, result interface{}) {
	if c.ttl <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[url] = Entry{Result: result, Timestamp: time.Now()}
}

// Invalidate removes any stored entry for url, used when a cached entry's
// contentType disagrees with what the caller asked for.
func (c *Cache) Invalidate(url string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, url)
}

// Len reports the number of entries currently stored, including any not
// yet evicted by a Get. Intended for tests and metrics, not control flow.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.store)
}
