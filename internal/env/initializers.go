package env

import (
	"errors"
	"math/rand/v2"

	"pddlenv/internal/pddl"
)

// ErrNoStates is returned by initializers that have nothing to draw from.
var ErrNoStates = errors.New("initializer has no states")

// StateInitializer is an unbounded stream of initial states. A non-nil reset
// asks the stream to continue with that problem; initializers bound to a
// fixed set of states ignore it.
type StateInitializer interface {
	Next(reset *pddl.Problem) (State, error)
}

// InitializerFunc adapts a function to StateInitializer.
type InitializerFunc func(reset *pddl.Problem) (State, error)

func (f InitializerFunc) Next(reset *pddl.Problem) (State, error) { return f(reset) }

// FixedProblem draws initial facts uniformly from initial, always for problem.
func FixedProblem(rng *rand.Rand, problem *pddl.Problem, initial []pddl.LiteralSet) StateInitializer {
	return InitializerFunc(func(*pddl.Problem) (State, error) {
		if len(initial) == 0 {
			return State{}, ErrNoStates
		}
		return NewState(initial[rng.IntN(len(initial))], problem), nil
	})
}

// Uniform draws uniformly from states.
func Uniform(rng *rand.Rand, states []State) StateInitializer {
	states = append([]State(nil), states...)
	return InitializerFunc(func(*pddl.Problem) (State, error) {
		if len(states) == 0 {
			return State{}, ErrNoStates
		}
		return states[rng.IntN(len(states))], nil
	})
}

// Reachable draws uniformly from every state reachable from initial.
func Reachable(rng *rand.Rand, initial State) StateInitializer {
	return Uniform(rng, ReachableStates([]State{initial}, nil))
}

// Cycle yields states in order, starting over after the last one.
func Cycle(states []State) StateInitializer {
	states = append([]State(nil), states...)
	i := 0
	return InitializerFunc(func(*pddl.Problem) (State, error) {
		if len(states) == 0 {
			return State{}, ErrNoStates
		}
		s := states[i]
		i = (i + 1) % len(states)
		return s, nil
	})
}
