package pddl

import (
	"slices"
	"strings"
	"sync"
)

// TypeObjectMap indexes a problem's objects by type. A lookup for type T
// returns the objects whose type is T or a descendant of T.
type TypeObjectMap struct {
	objects  []Object
	byType   map[*Type][]Object
	subtypes map[*Type][]*Type

	mu    sync.RWMutex
	cache map[string][]Object
}

// NewTypeObjectMap builds a map over objects. Duplicates are dropped.
func NewTypeObjectMap(objects ...Object) *TypeObjectMap {
	sorted := slices.Clone(objects)
	slices.SortFunc(sorted, CompareObjects)
	sorted = slices.Compact(sorted)

	m := &TypeObjectMap{
		objects:  sorted,
		byType:   make(map[*Type][]Object),
		subtypes: make(map[*Type][]*Type),
		cache:    make(map[string][]Object),
	}
	for _, o := range sorted {
		if o.Type == nil {
			continue
		}
		if _, seen := m.byType[o.Type]; !seen {
			for _, ancestor := range o.Type.hierarchy {
				m.subtypes[ancestor] = append(m.subtypes[ancestor], o.Type)
			}
		}
		m.byType[o.Type] = append(m.byType[o.Type], o)
	}
	return m
}

// Objects returns every object sorted by name.
func (m *TypeObjectMap) Objects() []Object {
	return slices.Clone(m.objects)
}

// Len returns the number of objects.
func (m *TypeObjectMap) Len() int { return len(m.objects) }

// Lookup returns the objects belonging to any of types or their subtypes,
// deduplicated and sorted by name. No types means every object. Unknown types
// contribute nothing. The returned slice is shared and must not be modified.
func (m *TypeObjectMap) Lookup(types ...*Type) []Object {
	if len(types) == 0 {
		return m.objects
	}

	key := lookupKey(types)
	m.mu.RLock()
	cached, ok := m.cache[key]
	m.mu.RUnlock()
	if ok {
		return cached
	}

	var found []Object
	seen := make(map[*Type]struct{})
	for _, t := range types {
		for _, sub := range m.subtypes[t] {
			if _, dup := seen[sub]; dup {
				continue
			}
			seen[sub] = struct{}{}
			found = append(found, m.byType[sub]...)
		}
	}
	slices.SortFunc(found, CompareObjects)
	found = slices.Compact(found)

	m.mu.Lock()
	m.cache[key] = found
	m.mu.Unlock()
	return found
}

func lookupKey(types []*Type) string {
	keys := make([]string, len(types))
	for i, t := range types {
		keys[i] = typeKey(t)
	}
	slices.Sort(keys)
	return strings.Join(slices.Compact(keys), "|")
}
