// Package cache provides the small in-memory TTL cache injected into the
// portal clients and the scrape service. Expiry is checked on read, so a
// stale value is never returned even between cleanup passes.
package cache

import (
	"sync"
	"time"
)

type entry struct {
	value     string
	expiresAt time.Time
}

// Cache is a string key/value cache with per-entry TTL. It is safe for
// concurrent use.
type Cache struct {
	mu    sync.RWMutex
	store map[string]entry
	now   func() time.Time
}

func New() *Cache {
	c := &Cache{
		store: make(map[string]entry),
		now:   time.Now,
	}
	go c.cleanupLoop()
	return c
}

// NewWithClock is used by tests to control expiry.
func NewWithClock(now func() time.Time) *Cache {
	return &Cache{
		store: make(map[string]entry),
		now:   now,
	}
}

// Get returns the cached value for key, or ok=false when the key is
// absent or expired. Expired entries are deleted on read.
func (c *Cache) Get(key string) (string, bool) {
	c.mu.RLock()
	e, ok := c.store[key]
	c.mu.RUnlock()
	if !ok {
		return "", false
	}

	if c.now().After(e.expiresAt) {
		c.mu.Lock()
		delete(c.store, key)
		c.mu.Unlock()
		return "", false
	}
	return e.value, true
}

func (c *Cache) Set(key, value string, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.store[key] = entry{
		value:     value,
		expiresAt: c.now().Add(ttl),
	}
}

func (c *Cache) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.store, key)
}

// cleanupLoop evicts expired entries every 5 minutes so keys that are
// never read again do not accumulate.
func (c *Cache) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		now := c.now()
		c.mu.Lock()
		for k, e := range c.store {
			if now.After(e.expiresAt) {
				delete(c.store, k)
			}
		}
		c.mu.Unlock()
	}
}
