package resilience

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var errUpstream = errors.New("upstream down")

func TestCircuitBreakerOpensAfterThreshold(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		Name:             "github",
		FailureThreshold: 3,
		RecoveryTimeout:  time.Minute,
		OnStateChange: func(name string, from, to CircuitBreakerState) {
			transitions = append(transitions, name+":"+from.String()+"->"+to.String())
		},
	})

	for i := 0; i < 3; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return errUpstream }), errUpstream)
	}
	assert.Equal(t, StateOpen, cb.State())

	called := false
	err := cb.Call(func() error { called = true; return nil })
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, []string{"github:closed->open"}, transitions)
}

func TestCircuitBreakerHalfOpenRecovery(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, RecoveryTimeout: 10 * time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Call(func() error { return errUpstream })
	assert.Equal(t, StateOpen, cb.State())

	now = now.Add(11 * time.Second)
	assert.NoError(t, cb.Call(func() error { return nil }))
	assert.Equal(t, StateClosed, cb.State())
}

func TestCircuitBreakerHalfOpenFailureReopens(t *testing.T) {
	now := time.Unix(1_700_000_000, 0)
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, RecoveryTimeout: 10 * time.Second})
	cb.now = func() time.Time { return now }

	_ = cb.Call(func() error { return errUpstream })
	_ = cb.Call(func() error { return errUpstream })
	now = now.Add(11 * time.Second)

	_ = cb.Call(func() error { return errUpstream })
	assert.Equal(t, StateOpen, cb.State())
}

func TestCircuitBreakerIgnoresNonFailures(t *testing.T) {
	notCounted := errors.New("404")
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		IsFailure:        func(err error) bool { return !errors.Is(err, notCounted) },
	})

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, cb.Call(func() error { return notCounted }), notCounted)
	}
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 0, cb.Failures())
}

func TestCircuitBreakerReset(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1})
	_ = cb.Call(func() error { return errUpstream })
	assert.Equal(t, StateOpen, cb.State())

	cb.Reset()
	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, "closed", cb.Stats()["state"])
}
