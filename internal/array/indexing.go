// Package array turns collections of grounded literals into coordinate lists
// and flat offsets suitable for building dense or sparse tensors.
package array

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
	"strings"

	"pddlenv/internal/pddl"
)

// ErrOffsetOutOfRange is returned when a flat offset lies outside every arity block.
var ErrOffsetOutOfRange = errors.New("flat offset out of range")

// Indices groups coordinates by arity. For arity k, Indices[k] has k+2 rows
// (slot, object_1..object_k, schema) and one column per literal.
type Indices map[int][][]int

// Shapes gives, per arity k, the tensor shape (objects × k, schemas of arity k)
// without the slot dimension.
type Shapes map[int][]int

// Flat holds raveled coordinates: Slot[i] is the slot and Offset[i] the
// position along the single concatenated axis.
type Flat struct {
	Slot   []int
	Offset []int
}

// Len returns the number of entries.
func (f Flat) Len() int { return len(f.Offset) }

// Arities returns the arities in ascending order.
func (s Shapes) Arities() []int {
	return slices.Sorted(maps.Keys(s))
}

// Size returns the number of cells of the block for arity k.
func (s Shapes) Size(k int) int {
	n := 1
	for _, d := range s[k] {
		n *= d
	}
	return n
}

// Total returns the length of the concatenated flat axis.
func (s Shapes) Total() int {
	total := 0
	for k := range s {
		total += s.Size(k)
	}
	return total
}

// Offsets returns where each arity block starts on the flat axis.
func (s Shapes) Offsets() map[int]int {
	offsets := make(map[int]int, len(s))
	next := 0
	for _, k := range s.Arities() {
		offsets[k] = next
		next += s.Size(k)
	}
	return offsets
}

// Universe fixes the dense numbering of objects and schemas. Objects are
// told apart by name and type.
type Universe struct {
	objects map[pddl.Object]int
	schemas map[int]map[string]int
	shapes  Shapes
}

// NewUniverse numbers objects by sorted name, then type, and within each
// arity, schemas by sorted name.
func NewUniverse[S pddl.Schema](objects []pddl.Object, schemas []S) *Universe {
	sortedObjects := slices.Clone(objects)
	slices.SortFunc(sortedObjects, pddl.CompareObjects)
	sortedObjects = slices.Compact(sortedObjects)

	u := &Universe{
		objects: make(map[pddl.Object]int, len(sortedObjects)),
		schemas: make(map[int]map[string]int),
		shapes:  make(Shapes),
	}
	for i, o := range sortedObjects {
		u.objects[o] = i
	}

	byArity := make(map[int][]string)
	for _, s := range schemas {
		byArity[s.Arity()] = append(byArity[s.Arity()], s.Name())
	}
	for k, ns := range byArity {
		sort.Strings(ns)
		ns = slices.Compact(ns)
		idx := make(map[string]int, len(ns))
		for i, n := range ns {
			idx[n] = i
		}
		u.schemas[k] = idx

		shape := make([]int, k+1)
		for i := 0; i < k; i++ {
			shape[i] = len(sortedObjects)
		}
		shape[k] = len(ns)
		u.shapes[k] = shape
	}
	return u
}

// Shapes returns the per-arity shape table. It depends only on the universe.
func (u *Universe) Shapes() Shapes {
	out := make(Shapes, len(u.shapes))
	for k, s := range u.shapes {
		out[k] = slices.Clone(s)
	}
	return out
}

// Index returns (object indices..., schema index) for one atom.
func (u *Universe) Index(a pddl.Atom) ([]int, error) {
	schema := a.Schema()
	k := schema.Arity()
	group, ok := u.schemas[k]
	if !ok {
		return nil, fmt.Errorf("schema %s: no schemas of arity %d: %w", schema.Name(), k, pddl.ErrUnknownName)
	}
	si, ok := group[schema.Name()]
	if !ok {
		return nil, fmt.Errorf("schema %s: %w", schema.Name(), pddl.ErrUnknownName)
	}
	objs := a.Objects()
	idx := make([]int, 0, k+1)
	for _, o := range objs {
		oi, ok := u.objects[o]
		if !ok {
			return nil, fmt.Errorf("object %s of type %s: %w", o.Name, o.Type, pddl.ErrUnknownName)
		}
		idx = append(idx, oi)
	}
	return append(idx, si), nil
}

// ComputeIndices builds the coordinate lists for slots of atoms (literals or
// grounded actions) over the given object and schema universe.
func ComputeIndices[A pddl.Atom, S pddl.Schema](slots [][]A, objects []pddl.Object, schemas []S) (Indices, Shapes, error) {
	u := NewUniverse(objects, schemas)
	indices, err := SlotIndices(u, slots)
	if err != nil {
		return nil, nil, err
	}
	return indices, u.Shapes(), nil
}

// SlotIndices computes coordinate lists for slots against u.
func SlotIndices[A pddl.Atom](u *Universe, slots [][]A) (Indices, error) {
	indices := make(Indices)
	for slot, atoms := range slots {
		for _, a := range atoms {
			idx, err := u.Index(a)
			if err != nil {
				return nil, err
			}
			k := len(idx) - 1
			rows, ok := indices[k]
			if !ok {
				rows = make([][]int, k+2)
			}
			rows[0] = append(rows[0], slot)
			for i, v := range idx {
				rows[i+1] = append(rows[i+1], v)
			}
			indices[k] = rows
		}
	}
	return indices, nil
}

// LiteralSetIndices computes indices for literal sets over a problem's
// objects and predicates. Sets are walked in canonical order.
func LiteralSetIndices(sets []pddl.LiteralSet, problem *pddl.Problem) (Indices, Shapes, error) {
	slots := make([][]pddl.Literal, len(sets))
	for i, set := range sets {
		slots[i] = set.Sorted()
	}
	return ComputeIndices(slots, problem.Objects(), problem.Predicates())
}

// Ravel flattens coordinates onto one axis. Arity blocks are concatenated in
// ascending arity order; within a block the row-major offset of
// (objects..., schema) is added to the block start. Entries are emitted
// arity by arity, preserving order within each arity.
func Ravel(indices Indices, shapes Shapes) (Flat, error) {
	offsets := shapes.Offsets()
	var flat Flat
	for _, k := range slices.Sorted(maps.Keys(indices)) {
		rows := indices[k]
		shape, ok := shapes[k]
		if !ok {
			return Flat{}, fmt.Errorf("no shape for arity %d", k)
		}
		if len(rows) != len(shape)+1 {
			return Flat{}, fmt.Errorf("arity %d: expected %d index rows, got %d", k, len(shape)+1, len(rows))
		}
		for j := range rows[0] {
			off := 0
			for d, dim := range shape {
				v := rows[d+1][j]
				if v < 0 || v >= dim {
					return Flat{}, fmt.Errorf("arity %d: coordinate %d out of bounds for dimension %d of size %d",
						k, v, d, dim)
				}
				off = off*dim + v
			}
			flat.Slot = append(flat.Slot, rows[0][j])
			flat.Offset = append(flat.Offset, offsets[k]+off)
		}
	}
	return flat, nil
}

// Unravel is the inverse of Ravel. Arities without entries are absent from
// the result.
func Unravel(flat Flat, shapes Shapes) (Indices, error) {
	if len(flat.Slot) != len(flat.Offset) {
		return nil, fmt.Errorf("flat index has %d slots but %d offsets", len(flat.Slot), len(flat.Offset))
	}
	arities := shapes.Arities()
	starts := make([]int, len(arities))
	ends := make([]int, len(arities))
	next := 0
	for i, k := range arities {
		starts[i] = next
		next += shapes.Size(k)
		ends[i] = next
	}

	indices := make(Indices)
	for j, off := range flat.Offset {
		b := sort.SearchInts(ends, off+1)
		if off < 0 || b >= len(arities) {
			return nil, fmt.Errorf("offset %d (total %d): %w", off, next, ErrOffsetOutOfRange)
		}
		k := arities[b]
		shape := shapes[k]
		local := off - starts[b]

		coord := make([]int, len(shape))
		for d := len(shape) - 1; d >= 0; d-- {
			coord[d] = local % shape[d]
			local /= shape[d]
		}

		rows, ok := indices[k]
		if !ok {
			rows = make([][]int, len(shape)+1)
		}
		rows[0] = append(rows[0], flat.Slot[j])
		for d, v := range coord {
			rows[d+1] = append(rows[d+1], v)
		}
		indices[k] = rows
	}
	return indices, nil
}

// String renders a shape table like "1:(3,2) 2:(3,3,2)".
func (s Shapes) String() string {
	parts := make([]string, 0, len(s))
	for _, k := range s.Arities() {
		dims := make([]string, len(s[k]))
		for i, d := range s[k] {
			dims[i] = fmt.Sprint(d)
		}
		parts = append(parts, fmt.Sprintf("%d:(%s)", k, strings.Join(dims, ",")))
	}
	return strings.Join(parts, " ")
}
