package textmatch

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// SelectAll runs Select for every query concurrently against the same
// candidate slice. Results are returned in query order. The only error is
// context cancellation.
func SelectAll[T any](ctx context.Context, sel Selector, queries []string, candidates []Candidate[T], workers int) ([]MatchResult[T], error) {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	results := make([]MatchResult[T], len(queries))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, query := range queries {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = Select(sel, query, candidates)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return results, nil
}
