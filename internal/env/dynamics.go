package env

import (
	"errors"
	"fmt"

	"pddlenv/internal/logging"
	"pddlenv/internal/pddl"
)

// ErrInvalidAction is returned when stepping with an action whose
// preconditions do not hold.
var ErrInvalidAction = errors.New("invalid action")

// StepType marks a timestep's position in an episode.
type StepType int

const (
	First StepType = iota
	Mid
	Last
)

func (t StepType) String() string {
	switch t {
	case First:
		return "first"
	case Mid:
		return "mid"
	case Last:
		return "last"
	default:
		return fmt.Sprintf("StepType(%d)", int(t))
	}
}

// TimeStep is the outcome of resetting or stepping an environment.
type TimeStep struct {
	Type        StepType
	Reward      float64
	Discount    float64
	Observation State
}

// IsLast reports whether the episode ended.
func (ts TimeStep) IsLast() bool { return ts.Type == Last }

// Heuristic estimates the distance from facts to the goal of problem.
type Heuristic interface {
	Evaluate(facts pddl.LiteralSet, problem *pddl.Problem) float64
}

// HeuristicFunc adapts a function to Heuristic.
type HeuristicFunc func(facts pddl.LiteralSet, problem *pddl.Problem) float64

func (f HeuristicFunc) Evaluate(facts pddl.LiteralSet, problem *pddl.Problem) float64 {
	return f(facts, problem)
}

// Dynamics is the transition function of a planning environment.
type Dynamics struct {
	// Discount applied to non-terminal transitions.
	Discount float64
	// CostReward charges -1 per step.
	CostReward bool
	// Shaping, when set, adds h(s) - Discount*h(s') to the reward. Transitions
	// into a goal state use h(s') = 0.
	Shaping Heuristic
}

// DefaultDynamics charges a unit cost per step without discounting.
func DefaultDynamics() *Dynamics {
	return &Dynamics{Discount: 1, CostReward: true}
}

// Step applies action in state.
func (d *Dynamics) Step(state State, action *pddl.Action) (TimeStep, error) {
	if !action.Applicable(state.Facts) {
		return TimeStep{}, fmt.Errorf("%s in %s: preconditions %s not satisfied: %w",
			action, state, action.Preconditions(), ErrInvalidAction)
	}

	next := State{Facts: action.Apply(state.Facts), Problem: state.Problem}
	goal := next.IsGoal()

	reward := 0.0
	if d.CostReward {
		reward = -1
	}
	if goal {
		reward++
	}
	if d.Shaping != nil {
		shaping := d.Shaping.Evaluate(state.Facts, state.Problem)
		if !goal {
			shaping -= d.Discount * d.Shaping.Evaluate(next.Facts, next.Problem)
		}
		reward += shaping
	}

	if goal {
		logging.EnvDebug("%s reached the goal of %s", action, state.Problem)
		return TimeStep{Type: Last, Reward: reward, Discount: 0, Observation: next}, nil
	}
	return TimeStep{Type: Mid, Reward: reward, Discount: d.Discount, Observation: next}, nil
}

// SampleTransitions steps every valid action of state.
func (d *Dynamics) SampleTransitions(state State) ([]*pddl.Action, []TimeStep) {
	actions := state.ValidActions()
	steps := make([]TimeStep, len(actions))
	for i, a := range actions {
		// Valid actions are applicable by construction.
		steps[i], _ = d.Step(state, a)
	}
	return actions, steps
}

// ReachableStates explores every state reachable from initial. Goal states
// are kept but not expanded. States are returned in discovery order.
func ReachableStates(initial []State, dynamics *Dynamics) []State {
	if dynamics == nil {
		dynamics = DefaultDynamics()
	}

	stack := append([]State(nil), initial...)
	seen := make(map[Key]struct{})
	var out []State
	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		k := s.Key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, s)

		if s.IsGoal() {
			continue
		}
		_, steps := dynamics.SampleTransitions(s)
		for _, ts := range steps {
			if _, ok := seen[ts.Observation.Key()]; !ok {
				stack = append(stack, ts.Observation)
			}
		}
	}
	logging.Env("reachable states: %d from %d initial", len(out), len(initial))
	return out
}
