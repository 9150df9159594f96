package env

import (
	"errors"

	"pddlenv/internal/pddl"
)

// ErrNotReset is returned by Step before the first Reset.
var ErrNotReset = errors.New("environment has not been reset")

// Env is an episodic environment driven by a state initializer.
type Env struct {
	dynamics    *Dynamics
	initializer StateInitializer
	state       *State
}

// New returns an environment. A nil dynamics uses DefaultDynamics.
func New(dynamics *Dynamics, initializer StateInitializer) *Env {
	if dynamics == nil {
		dynamics = DefaultDynamics()
	}
	return &Env{dynamics: dynamics, initializer: initializer}
}

// Reset starts a new episode from the next initial state.
func (e *Env) Reset() (TimeStep, error) {
	return e.ResetWith(nil)
}

// ResetWith starts a new episode, asking the initializer to switch to
// problem when it is non-nil.
func (e *Env) ResetWith(problem *pddl.Problem) (TimeStep, error) {
	s, err := e.initializer.Next(problem)
	if err != nil {
		return TimeStep{}, err
	}
	e.state = &s
	return TimeStep{Type: First, Discount: 1, Observation: s}, nil
}

// Step advances the episode with action.
func (e *Env) Step(action *pddl.Action) (TimeStep, error) {
	if e.state == nil {
		return TimeStep{}, ErrNotReset
	}
	ts, err := e.dynamics.Step(*e.state, action)
	if err != nil {
		return TimeStep{}, err
	}
	e.state = &ts.Observation
	return ts, nil
}

// State returns the current state and whether an episode has started.
func (e *Env) State() (State, bool) {
	if e.state == nil {
		return State{}, false
	}
	return *e.state, true
}
