package ratelimit

import (
	"sync"
	"time"
)

type window struct {
	start time.Time
	count int
}

// MemoryStore is an in-process fixed-window counter keyed by client identity
type MemoryStore struct {
	mu      sync.Mutex
	windows map[string]*window
	length  time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty fixed-window store. A nil clock uses time.Now.
func NewMemoryStore(length time.Duration, now func() time.Time) *MemoryStore {
	if now == nil {
		now = time.Now
	}
	return &MemoryStore{
		windows: make(map[string]*window),
		length:  length,
		now:     now,
	}
}

// Allow counts one call for key. A new window starts when none exists or the
// current one has elapsed; a rejected call leaves the count unchanged.
func (s *MemoryStore) Allow(key string, limit int) Result {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	w, exists := s.windows[key]
	if !exists || now.After(w.start.Add(s.length)) {
		w = &window{start: now, count: 1}
		s.windows[key] = w
		return newResult(true, limit, w.count, w.start.Add(s.length), now)
	}

	if w.count >= limit {
		return newResult(false, limit, w.count, w.start.Add(s.length), now)
	}

	w.count++
	return newResult(true, limit, w.count, w.start.Add(s.length), now)
}

// Name implements cache.Sweeper
func (s *MemoryStore) Name() string {
	return "ratelimit"
}

// Sweep drops windows that have elapsed
func (s *MemoryStore) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, w := range s.windows {
		if now.After(w.start.Add(s.length)) {
			delete(s.windows, key)
			removed++
		}
	}
	return removed
}

// Reset forgets the window for key
func (s *MemoryStore) Reset(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.windows, key)
}

// Len returns the number of tracked windows
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.windows)
}

func newResult(allowed bool, limit, count int, resetAt, now time.Time) Result {
	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:   allowed,
		Limit:     limit,
		Remaining: remaining,
		ResetAt:   resetAt,
	}
	if !allowed {
		res.RetryAfter = resetAt.Sub(now)
		if res.RetryAfter < 0 {
			res.RetryAfter = 0
		}
	}
	return res
}
