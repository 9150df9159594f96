package pddl

import (
	"fmt"
	"slices"
	"strings"
)

// Domain is an immutable collection of types, predicates, action schemas and
// constants.
type Domain struct {
	name       string
	types      []*Type
	predicates []*Predicate
	actions    []*ActionSchema
	constants  []Object

	typeByName   map[string]*Type
	predByName   map[string]*Predicate
	actionByName map[string]*ActionSchema
	static       map[*Predicate]struct{}
}

// NewDomain validates and assembles a domain. Predicates and actions are kept
// sorted by name.
func NewDomain(name string, types []*Type, predicates []*Predicate, actions []*ActionSchema, constants []Object) (*Domain, error) {
	d := &Domain{
		name:         name,
		types:        slices.Clone(types),
		predicates:   slices.Clone(predicates),
		actions:      slices.Clone(actions),
		constants:    slices.Clone(constants),
		typeByName:   make(map[string]*Type, len(types)),
		predByName:   make(map[string]*Predicate, len(predicates)),
		actionByName: make(map[string]*ActionSchema, len(actions)),
	}
	slices.SortFunc(d.predicates, func(a, b *Predicate) int { return strings.Compare(a.name, b.name) })
	slices.SortFunc(d.actions, func(a, b *ActionSchema) int { return strings.Compare(a.name, b.name) })

	for _, t := range d.types {
		if _, dup := d.typeByName[t.name]; dup {
			return nil, fmt.Errorf("domain %s: type %s: %w", name, t.name, ErrDuplicateName)
		}
		d.typeByName[t.name] = t
	}
	for _, p := range d.predicates {
		if _, dup := d.predByName[p.name]; dup {
			return nil, fmt.Errorf("domain %s: predicate %s: %w", name, p.name, ErrDuplicateName)
		}
		d.predByName[p.name] = p
	}
	for _, a := range d.actions {
		if _, dup := d.actionByName[a.name]; dup {
			return nil, fmt.Errorf("domain %s: action %s: %w", name, a.name, ErrDuplicateName)
		}
		d.actionByName[a.name] = a
		for _, group := range [][]Template{a.pre, a.add, a.del} {
			for _, t := range group {
				if d.predByName[t.Predicate.name] != t.Predicate {
					return nil, fmt.Errorf("domain %s: action %s uses undeclared predicate %s: %w",
						name, a.name, t.Predicate.name, ErrUnknownName)
				}
			}
		}
	}

	d.static = findStaticPredicates(d.predicates, d.actions)
	return d, nil
}

// MustDomain is NewDomain for fixtures; it panics on error.
func MustDomain(name string, types []*Type, predicates []*Predicate, actions []*ActionSchema, constants []Object) *Domain {
	d, err := NewDomain(name, types, predicates, actions, constants)
	if err != nil {
		panic(err)
	}
	return d
}

func findStaticPredicates(predicates []*Predicate, actions []*ActionSchema) map[*Predicate]struct{} {
	effects := make(map[*Predicate]struct{})
	for _, a := range actions {
		for _, t := range a.add {
			effects[t.Predicate] = struct{}{}
		}
		for _, t := range a.del {
			effects[t.Predicate] = struct{}{}
		}
	}
	static := make(map[*Predicate]struct{})
	for _, p := range predicates {
		if _, changes := effects[p]; !changes {
			static[p] = struct{}{}
		}
	}
	return static
}

func (d *Domain) Name() string             { return d.name }
func (d *Domain) Types() []*Type           { return slices.Clone(d.types) }
func (d *Domain) Predicates() []*Predicate { return slices.Clone(d.predicates) }
func (d *Domain) Actions() []*ActionSchema { return slices.Clone(d.actions) }
func (d *Domain) Constants() []Object      { return slices.Clone(d.constants) }

// Type looks up a type by name.
func (d *Domain) Type(name string) (*Type, bool) {
	t, ok := d.typeByName[name]
	return t, ok
}

// Predicate looks up a predicate by name.
func (d *Domain) Predicate(name string) (*Predicate, bool) {
	p, ok := d.predByName[name]
	return p, ok
}

// Action looks up an action schema by name.
func (d *Domain) Action(name string) (*ActionSchema, bool) {
	a, ok := d.actionByName[name]
	return a, ok
}

// StaticPredicates returns the predicates no action adds or deletes, sorted
// by name.
func (d *Domain) StaticPredicates() []*Predicate {
	var out []*Predicate
	for _, p := range d.predicates {
		if _, ok := d.static[p]; ok {
			out = append(out, p)
		}
	}
	return out
}

// IsStatic reports whether p is a static predicate of the domain.
func (d *Domain) IsStatic(p *Predicate) bool {
	_, ok := d.static[p]
	return ok
}

// StaticLiterals restricts facts to static predicates, typically to derive a
// problem's static literals from its initial state.
func (d *Domain) StaticLiterals(facts LiteralSet) LiteralSet {
	m := make(map[string]Literal)
	for k, l := range facts.m {
		if d.IsStatic(l.pred) {
			m[k] = l
		}
	}
	return LiteralSet{m: m}
}
