package search

import (
	"context"

	"pddlenv/internal/env"
	"pddlenv/internal/logging"

	"golang.org/x/sync/errgroup"
)

// SolveAll searches from every initial state with up to workers concurrent
// searches. Results are in the order of initial. The first error cancels
// the remaining searches.
func SolveAll(ctx context.Context, s Searcher, initial []env.State, workers int) ([]Result, error) {
	timer := logging.StartTimer(logging.CategorySearch, "SolveAll")
	defer timer.Stop()

	results := make([]Result, len(initial))
	g, ctx := errgroup.WithContext(ctx)
	if workers > 0 {
		g.SetLimit(workers)
	}
	for i, st := range initial {
		g.Go(func() error {
			res, err := s.Search(ctx, st)
			results[i] = res
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return results, err
	}

	found := 0
	for _, r := range results {
		if r.Found {
			found++
		}
	}
	logging.Search("%s solved %d of %d problems", s.Name(), found, len(initial))
	return results, nil
}
