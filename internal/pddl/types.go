// Package pddl models typed STRIPS planning domains and problems: type trees,
// objects, predicates, lifted action schemas, and their grounding into
// propositional operators.
package pddl

import (
	"strings"
	"sync"
)

// Type is a node in a PDDL type tree. Types are interned by name and
// ancestry, so NewType called twice with the same arguments returns the same
// pointer and pointer equality is structural equality.
type Type struct {
	name      string
	parent    *Type
	key       string
	hierarchy []*Type
}

var typeRegistry sync.Map

// NewType returns the interned type called name below parent. A nil parent
// makes a root type.
func NewType(name string, parent *Type) *Type {
	key := name
	if parent != nil {
		key = name + "<" + parent.key
	}
	if t, ok := typeRegistry.Load(key); ok {
		return t.(*Type)
	}

	t := &Type{name: name, parent: parent, key: key}
	t.hierarchy = []*Type{t}
	if parent != nil {
		t.hierarchy = append(t.hierarchy, parent.hierarchy...)
	}
	actual, _ := typeRegistry.LoadOrStore(key, t)
	return actual.(*Type)
}

// Name returns the type name.
func (t *Type) Name() string { return t.name }

// Parent returns the parent type, or nil for a root.
func (t *Type) Parent() *Type { return t.parent }

func (t *Type) String() string { return t.name }

// Hierarchy returns t followed by its ancestors up to the root.
func (t *Type) Hierarchy() []*Type {
	out := make([]*Type, len(t.hierarchy))
	copy(out, t.hierarchy)
	return out
}

// IsInstanceOf reports whether ancestor is t or one of its ancestors.
func (t *Type) IsInstanceOf(ancestor *Type) bool {
	for _, h := range t.hierarchy {
		if h == ancestor {
			return true
		}
	}
	return false
}

func typeKey(t *Type) string {
	if t == nil {
		return ""
	}
	return t.key
}

// Object is a named, typed constant of a problem.
type Object struct {
	Name string
	Type *Type
}

// NewObject is shorthand for Object{Name: name, Type: t}.
func NewObject(name string, t *Type) Object {
	return Object{Name: name, Type: t}
}

func (o Object) String() string { return o.Name }

// CompareObjects orders objects by name, then by type.
func CompareObjects(a, b Object) int {
	if c := strings.Compare(a.Name, b.Name); c != 0 {
		return c
	}
	return strings.Compare(typeKey(a.Type), typeKey(b.Type))
}

// acceptsObject reports whether o's type descends from one of types. An empty
// type set accepts every object.
func acceptsObject(types []*Type, o Object) bool {
	if len(types) == 0 {
		return true
	}
	if o.Type == nil {
		return false
	}
	for _, t := range types {
		if o.Type.IsInstanceOf(t) {
			return true
		}
	}
	return false
}
