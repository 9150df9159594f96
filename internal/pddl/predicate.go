package pddl

import (
	"fmt"
	"slices"
	"strings"
)

// Schema is a named template with a fixed number of argument positions.
// Predicates and action schemas are both schemas.
type Schema interface {
	Name() string
	Arity() int
}

// Atom is a schema applied to concrete objects: a grounded literal or a
// grounded action.
type Atom interface {
	Schema() Schema
	Objects() []Object
}

// Predicate is a lifted predicate schema. Each argument position accepts a
// union of types.
type Predicate struct {
	name  string
	types [][]*Type
}

// NewPredicate declares a predicate with one accepted-type set per argument.
func NewPredicate(name string, argTypes ...[]*Type) *Predicate {
	types := make([][]*Type, len(argTypes))
	for i, ts := range argTypes {
		types[i] = slices.Clone(ts)
	}
	return &Predicate{name: name, types: types}
}

func (p *Predicate) Name() string   { return p.name }
func (p *Predicate) Arity() int     { return len(p.types) }
func (p *Predicate) String() string { return p.name }

// ArgTypes returns the types accepted at argument position i.
func (p *Predicate) ArgTypes(i int) []*Type {
	return slices.Clone(p.types[i])
}

// Ground applies the predicate to objects, checking arity and argument types.
func (p *Predicate) Ground(objects ...Object) (Literal, error) {
	if len(objects) != len(p.types) {
		return Literal{}, fmt.Errorf("predicate %s expects %d objects, got %d: %w",
			p.name, len(p.types), len(objects), ErrArity)
	}
	for i, o := range objects {
		if !acceptsObject(p.types[i], o) {
			return Literal{}, fmt.Errorf("predicate %s argument %d: object %s of type %v: %w",
				p.name, i, o.Name, o.Type, ErrTypeMismatch)
		}
	}
	return newLiteral(p, slices.Clone(objects)), nil
}

// MustGround is Ground for fixtures; it panics on error.
func (p *Predicate) MustGround(objects ...Object) Literal {
	l, err := p.Ground(objects...)
	if err != nil {
		panic(err)
	}
	return l
}

// Literal is a grounded predicate. Two literals are equal when they apply the
// same predicate to the same objects; String gives the canonical
// "(name arg1 arg2)" form.
type Literal struct {
	pred *Predicate
	args []Object
	key  string
}

func newLiteral(p *Predicate, args []Object) Literal {
	return Literal{pred: p, args: args, key: canonical(p.name, args)}
}

func canonical(name string, args []Object) string {
	var b strings.Builder
	b.WriteByte('(')
	b.WriteString(name)
	for _, o := range args {
		b.WriteByte(' ')
		b.WriteString(o.Name)
	}
	b.WriteByte(')')
	return b.String()
}

// Predicate returns the literal's predicate schema.
func (l Literal) Predicate() *Predicate { return l.pred }

// Schema implements Atom.
func (l Literal) Schema() Schema { return l.pred }

// Objects returns the arguments. The slice must not be modified.
func (l Literal) Objects() []Object { return l.args }

func (l Literal) String() string { return l.key }

// IsZero reports whether l is the zero Literal.
func (l Literal) IsZero() bool { return l.pred == nil }

// Equal reports structural equality.
func (l Literal) Equal(o Literal) bool {
	return l.pred == o.pred && slices.Equal(l.args, o.args)
}

// CompareLiterals orders literals by canonical form.
func CompareLiterals(a, b Literal) int {
	return strings.Compare(a.key, b.key)
}
