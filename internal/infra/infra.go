// Package infra carries the fetch-side plumbing shared by every
// provider: an in-memory TTL cache, a token-bucket rate limiter, HTTP
// helpers and a persistent sqlite-backed response cache.
package infra

import (
	"sync"
	"time"
)

// Cache is a thread-safe in-memory key-value store with per-entry
// expiry. Expired entries are dropped lazily on read; Sweep removes
// them in bulk.
type Cache struct {
	mu   sync.Mutex
	data map[string]cacheItem
	ttl  time.Duration
}

type cacheItem struct {
	value    any
	deadline time.Time
}

// NewCache creates a cache whose Set entries live for ttl.
func NewCache(ttl time.Duration) *Cache {
	return &Cache{
		data: make(map[string]cacheItem),
		ttl:  ttl,
	}
}

// Get returns the live value under key. An expired entry is removed on
// the spot and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	item, ok := c.data[key]
	if !ok {
		return nil, false
	}
	if time.Now().After(item.deadline) {
		delete(c.data, key)
		return nil, false
	}
	return item.value, true
}

// Set stores value under key for the cache's default TTL.
func (c *Cache) Set(key string, value any) {
	c.SetFor(key, value, c.ttl)
}

// SetFor stores value with an entry-specific TTL.
func (c *Cache) SetFor(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	c.data[key] = cacheItem{value: value, deadline: time.Now().Add(ttl)}
	c.mu.Unlock()
}

// Delete removes one entry.
func (c *Cache) Delete(key string) {
	c.mu.Lock()
	delete(c.data, key)
	c.mu.Unlock()
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.data = make(map[string]cacheItem)
	c.mu.Unlock()
}

// Size reports the number of stored entries, live or expired.
func (c *Cache) Size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.data)
}

// Sweep removes every expired entry and reports how many were dropped.
func (c *Cache) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	dropped := 0
	for k, item := range c.data {
		if now.After(item.deadline) {
			delete(c.data, k)
			dropped++
		}
	}
	return dropped
}
