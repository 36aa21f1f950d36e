// Package cache holds recently fetched bodies keyed by target URL.
//
// Entries are volatile and process-local: the cache is an optimization, not a
// source of truth, so nothing survives a restart. There is no LRU or size
// bound beyond TTL expiry; growth between sweeps is an accepted trade-off.
package cache

import (
	"sync"
	"time"
)

// Entry is one cached fetch result.
type Entry struct {
	Body     []byte
	Size     int
	StoredAt time.Time
}

// Cache maps normalized target URLs to previously fetched bodies.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]Entry

	ttl time.Duration

	// Clock is injectable for tests; defaults to time.Now.
	Clock func() time.Time
}

// New creates a cache whose entries expire after ttl.
func New(ttl time.Duration) *Cache {
	return &Cache{
		entries: make(map[string]Entry),
		ttl:     ttl,
	}
}

// Lookup returns the entry for url if present and fresh. An entry older than
// the TTL is treated as absent without being deleted; removal is deferred to
// the periodic sweep.
func (c *Cache) Lookup(url string) (Entry, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[url]
	if !ok {
		return Entry{}, false
	}
	if c.now().Sub(e.StoredAt) > c.ttl {
		return Entry{}, false
	}
	return e, true
}

// Store overwrites any existing entry for url with a fresh timestamp.
func (c *Cache) Store(url string, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = Entry{
		Body:     body,
		Size:     len(body),
		StoredAt: c.now(),
	}
}

// Sweep deletes expired entries and returns how many were removed.
func (c *Cache) Sweep() int {
	now := c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for url, e := range c.entries {
		if now.Sub(e.StoredAt) > c.ttl {
			delete(c.entries, url)
			removed++
		}
	}
	return removed
}

// Len reports the number of stored entries, expired or not.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *Cache) now() time.Time {
	if c.Clock != nil {
		return c.Clock()
	}
	return time.Now().UTC()
}
