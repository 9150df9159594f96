package search

import (
	"context"
	"time"

	"pddlenv/internal/env"
)

// HillClimbing keeps only the successors of the state it just expanded:
// the frontier is cleared on every pop, so the search follows a single
// greedy path and never backtracks.
type HillClimbing struct {
	Heuristic env.Heuristic
	Limits    Limits
	Logger    Logger
	// DetectMinima drops successors that are worse than the current state,
	// which makes the search stall at local minima.
	DetectMinima bool
	Clock        func() time.Time
}

func (h *HillClimbing) Name() string { return "hill" }

// Search implements Searcher.
func (h *HillClimbing) Search(ctx context.Context, initial env.State) (Result, error) {
	r := run{
		algorithm:    h.Name(),
		heuristic:    h.Heuristic,
		limits:       h.Limits,
		logger:       h.Logger,
		clock:        h.Clock,
		hill:         true,
		detectMinima: h.DetectMinima,
	}
	return r.search(ctx, initial)
}
