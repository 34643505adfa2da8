package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// fixedWindowScript increments the window counter only while it is under the
// limit. The key expires with the window, so the first INCR after expiry
// starts a new one.
var fixedWindowScript = redis.NewScript(`
local current = tonumber(redis.call("GET", KEYS[1]) or "0")
if current >= tonumber(ARGV[1]) then
  return {0, current, redis.call("PTTL", KEYS[1])}
end
local count = redis.call("INCR", KEYS[1])
if count == 1 then
  redis.call("PEXPIRE", KEYS[1], ARGV[2])
end
return {1, count, redis.call("PTTL", KEYS[1])}
`)

// RedisStore keeps fixed windows in Redis so several server processes share one budget
type RedisStore struct {
	client redis.Scripter
	length time.Duration
	now    func() time.Time
}

// NewRedisStore creates a Redis-backed fixed-window store
func NewRedisStore(client redis.Scripter, length time.Duration) *RedisStore {
	return &RedisStore{client: client, length: length, now: time.Now}
}

// Allow counts one call for key in Redis
func (s *RedisStore) Allow(ctx context.Context, key string, limit int) (Result, error) {
	vals, err := fixedWindowScript.Run(ctx, s.client, []string{key}, limit, s.length.Milliseconds()).Int64Slice()
	if err != nil {
		return Result{}, fmt.Errorf("redis fixed window: %w", err)
	}
	if len(vals) != 3 {
		return Result{}, fmt.Errorf("redis fixed window: unexpected reply length %d", len(vals))
	}

	now := s.now()
	ttl := time.Duration(vals[2]) * time.Millisecond
	if ttl <= 0 {
		ttl = s.length
	}
	return newResult(vals[0] == 1, limit, int(vals[1]), now.Add(ttl), now), nil
}
