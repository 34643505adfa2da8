package ratelimit

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/ZanzyTHEbar/hirescope/internal/monitoring"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}

func newTestLimiter(clock *testClock, cfg Config) *RateLimiter {
	return newRateLimiter(nil, cfg, monitoring.NewMetrics(), clock.Now)
}

func TestTwentyFirstCallInWindowIsRejected(t *testing.T) {
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	limiter := newTestLimiter(clock, DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		result := limiter.Allow(ctx, "203.0.113.7")
		require.True(t, result.Allowed, "request %d should be allowed", i+1)
		clock.Advance(time.Second)
	}

	result := limiter.Allow(ctx, "203.0.113.7")
	assert.False(t, result.Allowed, "21st request should be rejected")
	assert.Equal(t, 0, result.Remaining)
	assert.Greater(t, result.RetryAfter, time.Duration(0))
}

func TestNewWindowAcceptsAfterExhaustion(t *testing.T) {
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	limiter := newTestLimiter(clock, DefaultConfig())
	ctx := context.Background()

	for i := 0; i < 25; i++ {
		limiter.Allow(ctx, "client")
	}

	clock.Advance(60*time.Second + time.Millisecond)

	result := limiter.Allow(ctx, "client")
	assert.True(t, result.Allowed)
	assert.Equal(t, 19, result.Remaining)
}

func TestRejectedCallsDoNotExtendWindow(t *testing.T) {
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(time.Minute, clock.Now)

	for i := 0; i < 3; i++ {
		require.True(t, store.Allow("k", 3).Allowed)
	}
	for i := 0; i < 5; i++ {
		assert.False(t, store.Allow("k", 3).Allowed)
	}

	store.mu.Lock()
	count := store.windows["k"].count
	store.mu.Unlock()
	assert.Equal(t, 3, count, "rejections must not increment the count")
}

func TestWindowsAreIndependentPerKey(t *testing.T) {
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	limiter := newTestLimiter(clock, Config{MaxRequests: 3, Window: time.Minute})
	ctx := context.Background()

	for _, key := range []string{"a", "b", "c"} {
		for i := 0; i < 3; i++ {
			assert.True(t, limiter.Allow(ctx, key).Allowed, "key %s request %d", key, i+1)
		}
		assert.False(t, limiter.Allow(ctx, key).Allowed, "key %s 4th request", key)
	}
}

func TestMemoryStoreSweep(t *testing.T) {
	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	store := NewMemoryStore(time.Minute, clock.Now)

	store.Allow("old", 5)
	clock.Advance(40 * time.Second)
	store.Allow("new", 5)
	clock.Advance(30 * time.Second)

	assert.Equal(t, 1, store.Sweep())
	assert.Equal(t, 1, store.Len())
}

func TestRateLimiterConcurrency(t *testing.T) {
	limiter := NewRateLimiter(nil, Config{MaxRequests: 100, Window: time.Minute}, monitoring.NewMetrics())
	ctx := context.Background()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 10; j++ {
				if limiter.Allow(ctx, "shared").Allowed {
					mu.Lock()
					allowed++
					mu.Unlock()
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, allowed)
}

func TestRateLimiterStats(t *testing.T) {
	limiter := NewRateLimiter(&RedisClient{enabled: false}, DefaultConfig(), monitoring.NewMetrics())
	limiter.Allow(context.Background(), "x")

	stats := limiter.GetStats()
	assert.False(t, stats["redis_enabled"].(bool))
	assert.Equal(t, 1, stats["memory_windows"])
	assert.Equal(t, 20, stats["max_requests"])
}

func TestAnalyzeRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	clock := &testClock{t: time.Unix(1_700_000_000, 0)}
	metrics := monitoring.NewMetrics()
	limiter := newRateLimiter(nil, Config{MaxRequests: 2, Window: time.Minute}, metrics, clock.Now)

	router := gin.New()
	router.POST("/api/analyze", limiter.AnalyzeRateLimitMiddleware(), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", nil)
		req.RemoteAddr = "198.51.100.4:5000"
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		codes = append(codes, w.Code)

		if i == 2 {
			assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))
			assert.Equal(t, "0", w.Header().Get("X-RateLimit-Remaining"))
			assert.NotEmpty(t, w.Header().Get("Retry-After"))
			assert.Contains(t, w.Body.String(), "Too many analysis requests")
		}
	}

	assert.Equal(t, []int{200, 200, 429}, codes)
	assert.Equal(t, int64(1), metrics.RateLimitBlocks)
}

func TestRedisClientDisabledWithoutAddr(t *testing.T) {
	client, err := NewRedisClient(context.Background(), "", "", 0)
	require.NoError(t, err)
	assert.False(t, client.IsEnabled())
	assert.NoError(t, client.Close())
	assert.Equal(t, false, client.GetPoolStats()["enabled"])

	var nilClient *RedisClient
	assert.False(t, nilClient.IsEnabled())
	assert.Error(t, nilClient.HealthCheck(context.Background()))
}

func ExampleMemoryStore_Allow() {
	store := NewMemoryStore(time.Minute, func() time.Time { return time.Unix(0, 0) })
	for i := 0; i < 3; i++ {
		fmt.Println(store.Allow("client", 2).Allowed)
	}
	// Output:
	// true
	// true
	// false
}
