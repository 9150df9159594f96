// Package env turns a planning problem into an episodic environment: states,
// a transition function with rewards, and streams of initial states.
package env

import "pddlenv/internal/pddl"

// State is an immutable planning state: the facts that hold and the problem
// they belong to.
type State struct {
	Facts   pddl.LiteralSet
	Problem *pddl.Problem
}

// Key identifies a state. Two states are equal iff their keys are.
type Key struct {
	problem *pddl.Problem
	facts   string
}

// NewState pairs facts with problem.
func NewState(facts pddl.LiteralSet, problem *pddl.Problem) State {
	return State{Facts: facts, Problem: problem}
}

// Key returns the state's identity for use in maps.
func (s State) Key() Key {
	return Key{problem: s.Problem, facts: s.Facts.Key()}
}

// Equal reports whether s and o hold the same facts of the same problem.
func (s State) Equal(o State) bool {
	return s.Problem == o.Problem && s.Facts.Equal(o.Facts)
}

// IsGoal reports whether the problem's goal holds in s.
func (s State) IsGoal() bool {
	return s.Problem.GoalSatisfied(s.Facts)
}

// ValidActions lists the grounded actions applicable in s.
func (s State) ValidActions() []*pddl.Action {
	return s.Problem.ValidActions(s.Facts)
}

func (s State) String() string {
	return s.Problem.String() + " " + s.Facts.String()
}
