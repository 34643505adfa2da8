package ratelimit

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisStore(client, time.Minute), mr
}

func TestRedisStoreRejectsTwentyFirstCall(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	for i := 1; i <= 20; i++ {
		res, err := store.Allow(ctx, "203.0.113.7", 20)
		require.NoError(t, err)
		assert.True(t, res.Allowed, "call %d", i)
		assert.Equal(t, 20-i, res.Remaining)
	}

	res, err := store.Allow(ctx, "203.0.113.7", 20)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Zero(t, res.Remaining)
	assert.Positive(t, res.RetryAfter)

	count, err := mr.Get("203.0.113.7")
	require.NoError(t, err)
	assert.Equal(t, "20", count, "rejected calls are not counted")
}

func TestRedisStoreWindowExpires(t *testing.T) {
	store, mr := newTestRedisStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := store.Allow(ctx, "client", 2)
		require.NoError(t, err)
	}
	assert.Equal(t, time.Minute, mr.TTL("client"))

	mr.FastForward(time.Minute)

	res, err := store.Allow(ctx, "client", 2)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	count, err := mr.Get("client")
	require.NoError(t, err)
	assert.Equal(t, "1", count)
}

func TestRedisStoreKeysAreIndependent(t *testing.T) {
	store, _ := newTestRedisStore(t)
	ctx := context.Background()

	res, err := store.Allow(ctx, "a", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)

	res, err = store.Allow(ctx, "a", 1)
	require.NoError(t, err)
	assert.False(t, res.Allowed)

	res, err = store.Allow(ctx, "b", 1)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestRedisStoreSurfacesConnectionErrors(t *testing.T) {
	store, mr := newTestRedisStore(t)
	mr.Close()

	_, err := store.Allow(context.Background(), "client", 20)
	assert.Error(t, err)
}
