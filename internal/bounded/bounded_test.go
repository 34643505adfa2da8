package bounded

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapPreservesOrderAndBoundsInFlight(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	delays := []time.Duration{9, 1, 7, 2, 8, 3, 6, 4, 5, 0}

	var inFlight, peak atomic.Int32
	out, err := Map(context.Background(), items, 3, func(ctx context.Context, i int, v int) (int, error) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(delays[i] * time.Millisecond)
		inFlight.Add(-1)
		return v * 10, nil
	})

	require.NoError(t, err)
	assert.Len(t, out, 10)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50, 60, 70, 80, 90}, out)
	assert.LessOrEqual(t, peak.Load(), int32(3))
	assert.Equal(t, int32(0), inFlight.Load())
}

func TestMapEmptyInput(t *testing.T) {
	called := false
	out, err := Map(context.Background(), []string{}, 4, func(ctx context.Context, i int, s string) (string, error) {
		called = true
		return s, nil
	})
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.False(t, called)
}

func TestMapLimitBelowOne(t *testing.T) {
	var peak, inFlight atomic.Int32
	out, err := Map(context.Background(), []int{1, 2, 3}, 0, func(ctx context.Context, i int, v int) (int, error) {
		n := inFlight.Add(1)
		if n > peak.Load() {
			peak.Store(n)
		}
		inFlight.Add(-1)
		return v, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2, 3}, out)
	assert.Equal(t, int32(1), peak.Load())
}

func TestMapSurfacesError(t *testing.T) {
	boom := errors.New("boom")
	_, err := Map(context.Background(), []int{1, 2, 3, 4}, 2, func(ctx context.Context, i int, v int) (int, error) {
		if v == 3 {
			return 0, boom
		}
		return v, nil
	})
	assert.ErrorIs(t, err, boom)
}

func TestMapStopsOnCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	_, err := Map(ctx, []int{1, 2, 3}, 2, func(ctx context.Context, i int, v int) (int, error) {
		calls.Add(1)
		return v, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), calls.Load())
}
