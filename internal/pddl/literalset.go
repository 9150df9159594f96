package pddl

import (
	"iter"
	"maps"
	"slices"
	"strings"
)

// LiteralSet is an immutable set of grounded literals. The zero value is the
// empty set. Operations never modify their receivers or arguments.
type LiteralSet struct {
	m map[string]Literal
}

// NewLiteralSet returns the set of lits.
func NewLiteralSet(lits ...Literal) LiteralSet {
	m := make(map[string]Literal, len(lits))
	for _, l := range lits {
		m[l.key] = l
	}
	return LiteralSet{m: m}
}

// CollectLiterals builds a set from a sequence.
func CollectLiterals(seq iter.Seq[Literal]) LiteralSet {
	m := make(map[string]Literal)
	for l := range seq {
		m[l.key] = l
	}
	return LiteralSet{m: m}
}

func (s LiteralSet) Len() int { return len(s.m) }

// Has reports membership.
func (s LiteralSet) Has(l Literal) bool {
	_, ok := s.m[l.key]
	return ok
}

// Contains reports whether every literal of o is in s.
func (s LiteralSet) Contains(o LiteralSet) bool {
	if len(o.m) > len(s.m) {
		return false
	}
	for k := range o.m {
		if _, ok := s.m[k]; !ok {
			return false
		}
	}
	return true
}

// Union returns s ∪ o.
func (s LiteralSet) Union(o LiteralSet) LiteralSet {
	if len(o.m) == 0 {
		return s
	}
	if len(s.m) == 0 {
		return o
	}
	m := maps.Clone(s.m)
	maps.Copy(m, o.m)
	return LiteralSet{m: m}
}

// Difference returns s − o.
func (s LiteralSet) Difference(o LiteralSet) LiteralSet {
	if len(o.m) == 0 || len(s.m) == 0 {
		return s
	}
	m := make(map[string]Literal, len(s.m))
	for k, l := range s.m {
		if _, drop := o.m[k]; !drop {
			m[k] = l
		}
	}
	return LiteralSet{m: m}
}

// Intersect returns s ∩ o.
func (s LiteralSet) Intersect(o LiteralSet) LiteralSet {
	small, large := s, o
	if len(large.m) < len(small.m) {
		small, large = large, small
	}
	m := make(map[string]Literal, len(small.m))
	for k, l := range small.m {
		if _, ok := large.m[k]; ok {
			m[k] = l
		}
	}
	return LiteralSet{m: m}
}

// Equal reports whether s and o hold the same literals.
func (s LiteralSet) Equal(o LiteralSet) bool {
	return len(s.m) == len(o.m) && s.Contains(o)
}

// All iterates the literals in no particular order.
func (s LiteralSet) All() iter.Seq[Literal] {
	return maps.Values(s.m)
}

// Sorted returns the literals in canonical order.
func (s LiteralSet) Sorted() []Literal {
	return slices.SortedFunc(maps.Values(s.m), CompareLiterals)
}

// Key returns a canonical string identifying the set's contents.
func (s LiteralSet) Key() string {
	return strings.Join(slices.Sorted(maps.Keys(s.m)), " ")
}

func (s LiteralSet) String() string {
	return "{" + s.Key() + "}"
}
