// Package search finds plans by heuristic search over the states induced
// by a problem's grounded actions.
package search

import (
	"context"
	"fmt"
	"time"

	"pddlenv/internal/env"
	"pddlenv/internal/logging"
	"pddlenv/internal/pddl"
)

// StopReason tells why a search returned.
type StopReason int

const (
	GoalFound StopReason = iota
	FrontierExhausted
	Stalled
	ExpansionLimit
	EvaluationLimit
	TimeLimit
	Canceled
)

var stopReasonNames = map[StopReason]string{
	GoalFound:         "goal_found",
	FrontierExhausted: "frontier_exhausted",
	Stalled:           "stalled",
	ExpansionLimit:    "expansion_limit",
	EvaluationLimit:   "evaluation_limit",
	TimeLimit:         "time_limit",
	Canceled:          "canceled",
}

func (r StopReason) String() string {
	if n, ok := stopReasonNames[r]; ok {
		return n
	}
	return fmt.Sprintf("StopReason(%d)", int(r))
}

// Limited reports whether the search stopped on a resource limit rather
// than by exhausting the states it could reach.
func (r StopReason) Limited() bool {
	return r == ExpansionLimit || r == EvaluationLimit || r == TimeLimit || r == Canceled
}

// Result is the outcome of a search. Plan is nil unless Found.
type Result struct {
	Plan      []*pddl.Action
	Found     bool
	Expanded  int
	Evaluated int
	Reason    StopReason
	Elapsed   time.Duration
}

// Logger receives end-of-search metrics. *logging.Logger and the run store
// both satisfy it.
type Logger interface {
	Write(metrics map[string]any)
}

// Limits bound a search. Zero values mean unlimited.
type Limits struct {
	Expansions  int
	Evaluations int
	Time        time.Duration
}

// Searcher is implemented by every algorithm of this package.
type Searcher interface {
	Name() string
	Search(ctx context.Context, initial env.State) (Result, error)
}

// run is the loop shared by greedy best-first and hill climbing.
type run struct {
	algorithm    string
	heuristic    env.Heuristic
	limits       Limits
	logger       Logger
	clock        func() time.Time
	hill         bool
	detectMinima bool
}

func (r *run) search(ctx context.Context, initial env.State) (Result, error) {
	now := r.clock
	if now == nil {
		now = time.Now
	}
	start := now()
	var res Result
	finish := func(reason StopReason) Result {
		res.Reason = reason
		res.Elapsed = now().Sub(start)
		r.report(initial, res)
		return res
	}

	if initial.IsGoal() {
		res.Found = true
		res.Plan = []*pddl.Action{}
		return finish(GoalFound), nil
	}

	dynamics := env.DefaultDynamics()
	parents := Parents{initial.Key(): {}}
	f := &frontier{}
	f.push(r.heuristic.Evaluate(initial.Facts, initial.Problem), initial)

	for f.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return finish(Canceled), err
		}
		if r.limits.Time > 0 && now().Sub(start) >= r.limits.Time {
			return finish(TimeLimit), nil
		}
		if r.limits.Expansions > 0 && res.Expanded >= r.limits.Expansions {
			return finish(ExpansionLimit), nil
		}

		node := f.pop()
		if r.hill {
			f.reset()
		}
		res.Expanded++

		actions, steps := dynamics.SampleTransitions(node.state)
		for i, a := range actions {
			if r.limits.Evaluations > 0 && res.Evaluated >= r.limits.Evaluations {
				break
			}
			res.Evaluated++
			next := steps[i].Observation

			key := next.Key()
			if _, seen := parents[key]; !seen {
				parents[key] = Link{Prev: node.state, Action: a}
				v := r.heuristic.Evaluate(next.Facts, next.Problem)
				if !r.detectMinima || v <= node.value {
					f.push(v, next)
				}
			}

			if next.IsGoal() {
				res.Found = true
				res.Plan = GeneratePlan(parents, next)
				return finish(GoalFound), nil
			}
		}
	}

	switch {
	case r.limits.Evaluations > 0 && res.Evaluated >= r.limits.Evaluations:
		return finish(EvaluationLimit), nil
	case r.hill:
		return finish(Stalled), nil
	default:
		return finish(FrontierExhausted), nil
	}
}

func (r *run) report(initial env.State, res Result) {
	metrics := map[string]any{
		"algorithm":        r.algorithm,
		"problem":          initial.Problem.String(),
		"expanded_states":  res.Expanded,
		"evaluated_states": res.Evaluated,
		"stop_reason":      res.Reason.String(),
		"elapsed_ms":       res.Elapsed.Milliseconds(),
	}
	if res.Found {
		metrics["plan_length"] = len(res.Plan)
	}
	if r.logger != nil {
		r.logger.Write(metrics)
	}
	logging.SearchDebug("%s on %s: %s after %d expansions, %d evaluations",
		r.algorithm, initial.Problem, res.Reason, res.Expanded, res.Evaluated)
}
