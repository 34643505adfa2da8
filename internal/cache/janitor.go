package cache

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Sweeper is anything that can drop its own expired entries
type Sweeper interface {
	Name() string
	Sweep() int
}

// Janitor sweeps a set of caches on a fixed interval
type Janitor struct {
	mu       sync.Mutex
	caches   []Sweeper
	interval time.Duration
}

// NewJanitor creates a janitor for the given caches
func NewJanitor(interval time.Duration, caches ...Sweeper) *Janitor {
	return &Janitor{
		caches:   caches,
		interval: interval,
	}
}

// Register adds a cache to the sweep set
func (j *Janitor) Register(c Sweeper) {
	j.mu.Lock()
	defer j.mu.Unlock()

	j.caches = append(j.caches, c)
}

// SweepAll sweeps every registered cache once
func (j *Janitor) SweepAll() int {
	j.mu.Lock()
	caches := append([]Sweeper(nil), j.caches...)
	j.mu.Unlock()

	total := 0
	for _, c := range caches {
		if removed := c.Sweep(); removed > 0 {
			slog.Debug("Cache sweep", "cache", c.Name(), "removed", removed)
			total += removed
		}
	}
	return total
}

// Run sweeps until ctx is cancelled
func (j *Janitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			j.SweepAll()
		}
	}
}
