// Package bounded runs a mapping function over a slice with a fixed number
// of workers, keeping results in input order.
package bounded

import (
	"context"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// Map calls fn on every item with at most limit calls outstanding and returns
// the results in input order. Each worker claims the next unprocessed index
// until the input is exhausted. The first error cancels the context passed to
// the remaining calls and is returned; callers that want per-item defaults
// should handle errors inside fn.
func Map[In, Out any](ctx context.Context, items []In, limit int, fn func(ctx context.Context, index int, item In) (Out, error)) ([]Out, error) {
	out := make([]Out, len(items))
	if len(items) == 0 {
		return out, nil
	}
	if limit < 1 {
		limit = 1
	}
	if limit > len(items) {
		limit = len(items)
	}

	g, gctx := errgroup.WithContext(ctx)
	var cursor atomic.Int64

	for w := 0; w < limit; w++ {
		g.Go(func() error {
			for {
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				if err := gctx.Err(); err != nil {
					return err
				}
				res, err := fn(gctx, i, items[i])
				if err != nil {
					return err
				}
				out[i] = res
			}
		})
	}

	if err := g.Wait(); err != nil {
		return out, err
	}
	return out, nil
}
