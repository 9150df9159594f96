package pddl

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrUnboundVariable is returned when a literal template refers to a variable
// index the action does not declare.
var ErrUnboundVariable = errors.New("unbound action variable")

// Variable is an action parameter. An empty Types accepts any object.
type Variable struct {
	Name  string
	Types []*Type
}

// Accepts reports whether o may be bound to v.
func (v Variable) Accepts(o Object) bool {
	return acceptsObject(v.Types, o)
}

// Template is a lifted literal inside an action schema: a predicate applied
// to action variables, referenced by index.
type Template struct {
	Predicate *Predicate
	Vars      []int
}

// T is shorthand for building a Template.
func T(p *Predicate, vars ...int) Template {
	return Template{Predicate: p, Vars: vars}
}

func (t Template) ground(objects []Object) Literal {
	args := make([]Object, len(t.Vars))
	for i, v := range t.Vars {
		args[i] = objects[v]
	}
	return newLiteral(t.Predicate, args)
}

// ActionSchema is a lifted STRIPS action.
type ActionSchema struct {
	name      string
	variables []Variable
	pre       []Template
	add       []Template
	del       []Template
}

// NewActionSchema validates and builds an action schema.
func NewActionSchema(name string, variables []Variable, pre, add, del []Template) (*ActionSchema, error) {
	s := &ActionSchema{
		name:      name,
		variables: slices.Clone(variables),
		pre:       slices.Clone(pre),
		add:       slices.Clone(add),
		del:       slices.Clone(del),
	}
	for _, group := range [][]Template{s.pre, s.add, s.del} {
		for _, t := range group {
			if t.Predicate == nil {
				return nil, fmt.Errorf("action %s: template without predicate: %w", name, ErrUnknownName)
			}
			if len(t.Vars) != t.Predicate.Arity() {
				return nil, fmt.Errorf("action %s: %s expects %d variables, got %d: %w",
					name, t.Predicate.name, t.Predicate.Arity(), len(t.Vars), ErrArity)
			}
			for _, v := range t.Vars {
				if v < 0 || v >= len(variables) {
					return nil, fmt.Errorf("action %s: %s refers to variable %d of %d: %w",
						name, t.Predicate.name, v, len(variables), ErrUnboundVariable)
				}
			}
		}
	}
	return s, nil
}

// MustActionSchema is NewActionSchema for fixtures; it panics on error.
func MustActionSchema(name string, variables []Variable, pre, add, del []Template) *ActionSchema {
	s, err := NewActionSchema(name, variables, pre, add, del)
	if err != nil {
		panic(err)
	}
	return s
}

func (s *ActionSchema) Name() string              { return s.name }
func (s *ActionSchema) Arity() int                { return len(s.variables) }
func (s *ActionSchema) String() string            { return s.name }
func (s *ActionSchema) Variables() []Variable     { return slices.Clone(s.variables) }
func (s *ActionSchema) Preconditions() []Template { return slices.Clone(s.pre) }
func (s *ActionSchema) AddEffects() []Template    { return slices.Clone(s.add) }
func (s *ActionSchema) DelEffects() []Template    { return slices.Clone(s.del) }

// Instantiate grounds the schema with objects. Arity and type mismatches are
// reported as ErrArity and ErrTypeMismatch. When problem is non-nil an
// assignment contradicting its static literals yields ErrInvalidAssignment,
// and static literals are dropped from the preconditions.
func (s *ActionSchema) Instantiate(problem *Problem, objects ...Object) (*Action, error) {
	if len(objects) != len(s.variables) {
		return nil, fmt.Errorf("action %s expects %d objects, got %d: %w",
			s.name, len(s.variables), len(objects), ErrArity)
	}
	for i, o := range objects {
		if !s.variables[i].Accepts(o) {
			return nil, fmt.Errorf("action %s variable %s: object %s of type %v: %w",
				s.name, s.variables[i].Name, o.Name, o.Type, ErrTypeMismatch)
		}
	}
	return s.build(problem, slices.Clone(objects))
}

func (s *ActionSchema) build(problem *Problem, objects []Object) (*Action, error) {
	pre, err := s.groundAll(problem, s.pre, objects)
	if err != nil {
		return nil, err
	}
	add, err := s.groundAll(problem, s.add, objects)
	if err != nil {
		return nil, err
	}
	del, err := s.groundAll(problem, s.del, objects)
	if err != nil {
		return nil, err
	}

	// Static literals are removed only after every template is grounded so
	// that an invalid static assignment is still detected above.
	if problem != nil {
		pre = pre.Difference(problem.static)
	}
	del = del.Difference(add)
	add = add.Difference(pre)

	return &Action{
		schema:  s,
		objects: objects,
		key:     canonical(s.name, objects),
		pre:     pre,
		add:     add,
		del:     del,
	}, nil
}

func (s *ActionSchema) groundAll(problem *Problem, templates []Template, objects []Object) (LiteralSet, error) {
	m := make(map[string]Literal, len(templates))
	for _, t := range templates {
		l := t.ground(objects)
		if problem != nil && problem.domain.IsStatic(t.Predicate) && !problem.static.Has(l) {
			return LiteralSet{}, ErrInvalidAssignment
		}
		m[l.key] = l
	}
	return LiteralSet{m: m}, nil
}

// FeasibleDomains returns, per variable, the objects that may be bound to it
// in problem: the type-filtered objects, narrowed by every static
// precondition to the values observed at the matching column of the
// problem's static literals.
func (s *ActionSchema) FeasibleDomains(problem *Problem) [][]Object {
	domains := make([][]Object, len(s.variables))
	for i, v := range s.variables {
		domains[i] = problem.objects.Lookup(v.Types...)
	}
	for _, t := range s.pre {
		if !problem.domain.IsStatic(t.Predicate) {
			continue
		}
		for pos, v := range t.Vars {
			column := problem.staticColumn(t.Predicate, pos)
			domains[v] = slices.DeleteFunc(slices.Clone(domains[v]), func(o Object) bool {
				_, ok := column[o]
				return !ok
			})
		}
	}
	return domains
}

// Ground lazily yields every grounded action of the schema in problem, in
// cartesian-product order over the feasible domains (last variable varying
// fastest). Assignments rejected by the static literals are skipped.
func (s *ActionSchema) Ground(problem *Problem) iter.Seq[*Action] {
	return func(yield func(*Action) bool) {
		domains := s.FeasibleDomains(problem)
		for assignment := range product(domains) {
			a, err := s.build(problem, assignment)
			if err == nil && !yield(a) {
				return
			}
		}
	}
}

// product yields the cartesian product of domains with the last position
// varying fastest. Each yielded slice is freshly allocated.
func product(domains [][]Object) iter.Seq[[]Object] {
	return func(yield func([]Object) bool) {
		for _, d := range domains {
			if len(d) == 0 {
				return
			}
		}
		idx := make([]int, len(domains))
		for {
			tuple := make([]Object, len(domains))
			for i, d := range domains {
				tuple[i] = d[idx[i]]
			}
			if !yield(tuple) {
				return
			}
			k := len(idx) - 1
			for ; k >= 0; k-- {
				idx[k]++
				if idx[k] < len(domains[k]) {
					break
				}
				idx[k] = 0
			}
			if k < 0 {
				return
			}
		}
	}
}

// Action is a grounded STRIPS operator. Actions are immutable.
type Action struct {
	schema  *ActionSchema
	objects []Object
	key     string
	pre     LiteralSet
	add     LiteralSet
	del     LiteralSet
}

// Lifted returns the schema the action was grounded from.
func (a *Action) Lifted() *ActionSchema { return a.schema }

// Schema implements Atom.
func (a *Action) Schema() Schema { return a.schema }

func (a *Action) Name() string { return a.schema.name }

// Objects returns the bound objects. The slice must not be modified.
func (a *Action) Objects() []Object { return a.objects }

func (a *Action) String() string { return a.key }

func (a *Action) Preconditions() LiteralSet { return a.pre }
func (a *Action) AddEffects() LiteralSet    { return a.add }
func (a *Action) DelEffects() LiteralSet    { return a.del }

// Literals returns every literal the action mentions.
func (a *Action) Literals() LiteralSet {
	return a.pre.Union(a.add).Union(a.del)
}

// Applicable reports whether the preconditions hold in facts.
func (a *Action) Applicable(facts LiteralSet) bool {
	return facts.Contains(a.pre)
}

// Apply returns (facts − del) ∪ add. It does not check applicability.
func (a *Action) Apply(facts LiteralSet) LiteralSet {
	m := make(map[string]Literal, len(facts.m)+len(a.add.m))
	for k, l := range facts.m {
		if _, drop := a.del.m[k]; !drop {
			m[k] = l
		}
	}
	for k, l := range a.add.m {
		m[k] = l
	}
	return LiteralSet{m: m}
}
