package api

import (
	"sync"
	"time"
)

// DashboardTag is carried by every cached response that feeds the dashboard.
const DashboardTag = "dashboard"

// Cache holds GET response bodies keyed by token scope and request URL.
// Each entry carries tags; invalidating a tag drops every entry carrying it
// so the next read refetches. Entries are never patched in place.
type Cache struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]cacheEntry
	now     func() time.Time
}

type cacheEntry struct {
	body    []byte
	tags    []string
	expires time.Time
}

// NewCache creates a cache. A ttl <= 0 keeps entries until invalidated.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
		now:     time.Now,
	}
}

// Get returns a cached body.
func (c *Cache) Get(key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expires.IsZero() && c.now().After(e.expires) {
		delete(c.entries, key)
		return nil, false
	}
	return e.body, true
}

// Set stores a body under key with the given tags.
func (c *Cache) Set(key string, body []byte, tags ...string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e := cacheEntry{body: body, tags: tags}
	if c.ttl > 0 {
		e.expires = c.now().Add(c.ttl)
	}
	c.entries[key] = e
}

// Invalidate drops every entry carrying any of the tags and returns how many
// were removed.
func (c *Cache) Invalidate(tags ...string) int {
	if len(tags) == 0 {
		return 0
	}

	drop := make(map[string]bool, len(tags))
	for _, t := range tags {
		drop[t] = true
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key, e := range c.entries {
		for _, t := range e.tags {
			if drop[t] {
				delete(c.entries, key)
				removed++
				break
			}
		}
	}
	return removed
}

// Len returns the number of live entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
