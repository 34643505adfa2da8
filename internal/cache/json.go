package cache

import (
	"encoding/json"
	"log/slog"
)

// JSONView stores typed values as JSON inside a byte cache, so one cache
// instance can hold several record shapes under distinct key prefixes.
type JSONView[T any] struct {
	cache *Cache[[]byte]
}

// NewJSONView wraps a byte cache
func NewJSONView[T any](c *Cache[[]byte]) JSONView[T] {
	return JSONView[T]{cache: c}
}

// Get decodes the cached value for key
func (v JSONView[T]) Get(key string) (T, bool) {
	var out T
	data, found := v.cache.Get(key)
	if !found {
		return out, false
	}
	if err := json.Unmarshal(data, &out); err != nil {
		slog.Error("Failed to unmarshal cached value", "error", err, "cache", v.cache.Name(), "key", key)
		var zero T
		return zero, false
	}
	return out, true
}

// Set encodes and stores value under key
func (v JSONView[T]) Set(key string, value T) {
	data, err := json.Marshal(value)
	if err != nil {
		slog.Error("Failed to marshal value for cache", "error", err, "cache", v.cache.Name(), "key", key)
		return
	}
	v.cache.Set(key, data)
}
