package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
)

// Config holds rate limiter configuration
type Config struct {
	MaxRequests int           // requests allowed per window and client
	Window      time.Duration // fixed window length
}

// DefaultConfig returns default rate limiting configuration
func DefaultConfig() Config {
	return Config{
		MaxRequests: 20,
		Window:      60 * time.Second,
	}
}

// Result represents the result of a rate limit check
type Result struct {
	Allowed    bool
	Limit      int
	Remaining  int
	ResetAt    time.Time
	RetryAfter time.Duration
}

// RateLimiter applies a fixed-window budget per client, using Redis when it
// is available and the in-memory store otherwise.
type RateLimiter struct {
	redisClient *RedisClient
	redisStore  *RedisStore
	memory      *MemoryStore
	config      Config
	metrics     *monitoring.Metrics
}

// NewRateLimiter creates a new rate limiter. redisClient may be nil.
func NewRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics) *RateLimiter {
	return newRateLimiter(redisClient, config, metrics, nil)
}

func newRateLimiter(redisClient *RedisClient, config Config, metrics *monitoring.Metrics, now func() time.Time) *RateLimiter {
	if config.MaxRequests <= 0 {
		config.MaxRequests = DefaultConfig().MaxRequests
	}
	if config.Window <= 0 {
		config.Window = DefaultConfig().Window
	}

	rl := &RateLimiter{
		redisClient: redisClient,
		memory:      NewMemoryStore(config.Window, now),
		config:      config,
		metrics:     metrics,
	}

	if redisClient.IsEnabled() {
		rl.redisStore = NewRedisStore(redisClient.GetClient(), config.Window)
		slog.Info("Redis rate limiter initialized")
	} else {
		slog.Info("Using in-memory rate limiting")
	}

	return rl
}

// Config returns the limiter configuration
func (rl *RateLimiter) Config() Config {
	return rl.config
}

// Memory returns the in-memory store so it can be swept with the caches
func (rl *RateLimiter) Memory() *MemoryStore {
	return rl.memory
}

// Allow checks whether clientKey may make another request in the current window
func (rl *RateLimiter) Allow(ctx context.Context, clientKey string) Result {
	key := fmt.Sprintf("ratelimit:analyze:%s", clientKey)

	if rl.redisStore != nil {
		result, err := rl.redisStore.Allow(ctx, key, rl.config.MaxRequests)
		if err == nil {
			return result
		}
		slog.Warn("Redis rate limit check failed, using in-memory window", "key", key, "error", err)
		if rl.metrics != nil {
			rl.metrics.IncrementRateLimitRedisError()
		}
	}

	if rl.metrics != nil {
		rl.metrics.IncrementRateLimitFallback()
	}
	return rl.memory.Allow(key, rl.config.MaxRequests)
}

// GetStats returns rate limiter statistics
func (rl *RateLimiter) GetStats() map[string]interface{} {
	stats := map[string]interface{}{
		"redis_enabled":  rl.redisClient.IsEnabled(),
		"memory_windows": rl.memory.Len(),
		"max_requests":   rl.config.MaxRequests,
		"window_seconds": rl.config.Window.Seconds(),
	}

	if rl.redisClient.IsEnabled() {
		stats["redis_pool"] = rl.redisClient.GetPoolStats()
	}

	return stats
}
