package search

import (
	"context"
	"time"

	"pddlenv/internal/env"
)

// GreedyBestFirst always expands the frontier state with the lowest
// heuristic value and returns as soon as a successor satisfies the goal.
type GreedyBestFirst struct {
	Heuristic env.Heuristic
	Limits    Limits
	Logger    Logger
	// Clock defaults to time.Now.
	Clock func() time.Time
}

func (g *GreedyBestFirst) Name() string { return "gbfs" }

// Search implements Searcher.
func (g *GreedyBestFirst) Search(ctx context.Context, initial env.State) (Result, error) {
	r := run{
		algorithm: g.Name(),
		heuristic: g.Heuristic,
		limits:    g.Limits,
		logger:    g.Logger,
		clock:     g.Clock,
	}
	return r.search(ctx, initial)
}
