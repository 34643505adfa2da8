package cache

import (
	"strings"
	"sync"
	"time"
)

// Entry is a cached value with the time it was stored
type Entry[T any] struct {
	Data     T         `json:"data"`
	StoredAt time.Time `json:"stored_at"`
}

// Cache provides thread-safe caching with TTL
type Cache[T any] struct {
	mu    sync.RWMutex
	name  string
	items map[string]Entry[T]
	ttl   time.Duration
	now   func() time.Time

	hits   int64
	misses int64
}

// Option configures a Cache
type Option[T any] func(*Cache[T])

// WithClock replaces the wall clock used for expiry decisions
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *Cache[T]) {
		c.now = now
	}
}

// New creates a new cache with the specified TTL. Expired entries are removed
// lazily on Get and in bulk by Sweep; register the cache with a Janitor to
// sweep it periodically.
func New[T any](name string, ttl time.Duration, opts ...Option[T]) *Cache[T] {
	c := &Cache[T]{
		name:  name,
		items: make(map[string]Entry[T]),
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Name returns the name the cache was registered with
func (c *Cache[T]) Name() string {
	return c.name
}

// TTL returns the cache lifetime
func (c *Cache[T]) TTL() time.Duration {
	return c.ttl
}

func (c *Cache[T]) expired(e Entry[T], now time.Time) bool {
	return now.Sub(e.StoredAt) > c.ttl
}

// Get retrieves an item from the cache. An expired entry is deleted and
// reported as absent.
func (c *Cache[T]) Get(key string) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero T
	entry, exists := c.items[key]
	if !exists {
		c.misses++
		return zero, false
	}
	if c.expired(entry, c.now()) {
		delete(c.items, key)
		c.misses++
		return zero, false
	}

	c.hits++
	return entry.Data, true
}

// Set stores an item in the cache, replacing any previous entry
func (c *Cache[T]) Set(key string, data T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items[key] = Entry[T]{Data: data, StoredAt: c.now()}
}

// Delete removes an item from the cache
func (c *Cache[T]) Delete(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.items, key)
}

// DeletePrefix removes every item whose key starts with prefix
func (c *Cache[T]) DeletePrefix(prefix string) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for key := range c.items {
		if strings.HasPrefix(key, prefix) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Clear removes all items from the cache
func (c *Cache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]Entry[T])
}

// Sweep removes every expired entry and returns how many were removed
func (c *Cache[T]) Sweep() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for key, entry := range c.items {
		if c.expired(entry, now) {
			delete(c.items, key)
			removed++
		}
	}
	return removed
}

// Size returns the number of items physically held, expired or not
func (c *Cache[T]) Size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.items)
}

// Stats returns cache statistics
func (c *Cache[T]) Stats() map[string]interface{} {
	c.mu.RLock()
	defer c.mu.RUnlock()

	now := c.now()
	totalItems := len(c.items)
	expiredItems := 0
	for _, entry := range c.items {
		if c.expired(entry, now) {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   c.ttl.Seconds(),
		"hits":          c.hits,
		"misses":        c.misses,
	}
}
