package search

import (
	"slices"

	"pddlenv/internal/env"
	"pddlenv/internal/pddl"
)

// Link records how a state was first reached. The root's Action is nil.
type Link struct {
	Prev   env.State
	Action *pddl.Action
}

// Parents maps every discovered state to its Link. It doubles as the
// visited set of a search.
type Parents map[env.Key]Link

// GeneratePlan walks parents back from end to the root and returns the
// actions in execution order.
func GeneratePlan(parents Parents, end env.State) []*pddl.Action {
	var plan []*pddl.Action
	s := end
	for {
		link, ok := parents[s.Key()]
		if !ok || link.Action == nil {
			break
		}
		plan = append(plan, link.Action)
		s = link.Prev
	}
	slices.Reverse(plan)
	return plan
}

// GeneratePath replays plan from initial and returns every visited state,
// initial included. A nil dynamics uses env.DefaultDynamics.
func GeneratePath(dynamics *env.Dynamics, initial env.State, plan []*pddl.Action) ([]env.State, error) {
	if dynamics == nil {
		dynamics = env.DefaultDynamics()
	}
	path := make([]env.State, 0, len(plan)+1)
	path = append(path, initial)
	s := initial
	for _, a := range plan {
		ts, err := dynamics.Step(s, a)
		if err != nil {
			return path, err
		}
		s = ts.Observation
		path = append(path, s)
	}
	return path, nil
}
