package orchestration

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/errgroup"
)

// RunAll runs worker over items with at most maxConcurrency calls in flight.
//
// Workers pull the next index from a shared cursor. After the first error no new items are
// dispatched, but items already running finish. A done ctx stops dispatch and is reported as
// a cancellation rather than a worker failure. The returned slice holds the results of the
// completed items in their original order; on success it is aligned with items.
func RunAll[I, O any](ctx context.Context, items []I, worker func(ctx context.Context, index int, item I) (O, error), maxConcurrency int) ([]O, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if maxConcurrency <= 0 {
		maxConcurrency = 1
	}
	workers := min(maxConcurrency, len(items))

	results := make([]O, len(items))
	done := make([]bool, len(items))
	var cursor atomic.Int64
	var failed atomic.Bool

	var g errgroup.Group
	for range workers {
		g.Go(func() error {
			for {
				if failed.Load() || ctx.Err() != nil {
					return nil
				}
				i := int(cursor.Add(1) - 1)
				if i >= len(items) {
					return nil
				}
				out, err := worker(ctx, i, items[i])
				if err != nil {
					failed.Store(true)
					return err
				}
				// Each index is written by exactly one goroutine; Wait orders these writes before the read below.
				results[i] = out
				done[i] = true
			}
		})
	}
	werr := g.Wait()

	completed := make([]O, 0, len(items))
	for i := range items {
		if done[i] {
			completed = append(completed, results[i])
		}
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return completed, cancelled(ctxErr)
	}
	if werr != nil {
		if errors.Is(werr, context.Canceled) {
			return completed, cancelled(werr)
		}
		return completed, werr
	}
	return completed, nil
}
