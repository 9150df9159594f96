package pddl

import "errors"

var (
	// ErrInvalidAssignment marks an assignment whose static-predicate literal is
	// not among the problem's static literals. Grounding skips such assignments.
	ErrInvalidAssignment = errors.New("assignment not consistent with static literals")

	// ErrArity is returned when the number of supplied objects differs from a
	// schema's arity.
	ErrArity = errors.New("wrong number of arguments")

	// ErrTypeMismatch is returned when an object's type is outside the types
	// accepted at an argument position.
	ErrTypeMismatch = errors.New("object type not accepted")

	// ErrUnknownName is returned when a name does not resolve.
	ErrUnknownName = errors.New("unknown name")

	// ErrDuplicateName is returned when two entities of one category share a name.
	ErrDuplicateName = errors.New("duplicate name")
)
