// Package cache provides thread-safe generic caches, with or without expiry.
package cache

import (
	"sync"
	"time"
)

type Cache[K comparable, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

func NewCache[K comparable, V any]() *Cache[K, V] {
	return &Cache[K, V]{
		items: make(map[K]V),
	}
}

func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	val, ok := c.items[key]
	return val, ok
}

func (c *Cache[K, V]) Set(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = value
}

func (c *Cache[K, V]) Delete(key K) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.items, key)
}

func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = make(map[K]V)
}

func (c *Cache[K, V]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

type entry[V any] struct {
	value   V
	expires time.Time
}

// Expiring is a Cache whose entries vanish ttl after they were set. Expired entries are dropped
// lazily on Get and in bulk by Prune.
type Expiring[K comparable, V any] struct {
	items *Cache[K, entry[V]]
	ttl   time.Duration
	now   func() time.Time
}

// NewExpiring returns an expiring cache. now defaults to time.Now.
func NewExpiring[K comparable, V any](ttl time.Duration, now func() time.Time) *Expiring[K, V] {
	if now == nil {
		now = time.Now
	}
	return &Expiring[K, V]{
		items: NewCache[K, entry[V]](),
		ttl:   ttl,
		now:   now,
	}
}

func (c *Expiring[K, V]) Get(key K) (V, bool) {
	e, ok := c.items.Get(key)
	if !ok {
		var zero V
		return zero, false
	}
	if !c.now().Before(e.expires) {
		c.items.Delete(key)
		var zero V
		return zero, false
	}
	return e.value, true
}

func (c *Expiring[K, V]) Set(key K, value V) {
	if c.ttl <= 0 {
		return
	}
	c.items.Set(key, entry[V]{value: value, expires: c.now().Add(c.ttl)})
}

// Prune drops every expired entry and returns how many were removed.
func (c *Expiring[K, V]) Prune() int {
	now := c.now()
	c.items.mu.Lock()
	defer c.items.mu.Unlock()
	n := 0
	for k, e := range c.items.items {
		if !now.Before(e.expires) {
			delete(c.items.items, k)
			n++
		}
	}
	return n
}

func (c *Expiring[K, V]) Len() int {
	return c.items.Len()
}
