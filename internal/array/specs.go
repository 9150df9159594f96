package array

import (
	"fmt"

	"pddlenv/internal/pddl"
)

// NumObjects is the symbolic dimension standing for a problem's object count.
const NumObjects = "# objects"

// Dim is a tensor dimension: either symbolic (NumObjects) or a fixed size.
type Dim struct {
	Symbol string
	Size   int
}

func (d Dim) String() string {
	if d.Symbol != "" {
		return d.Symbol
	}
	return fmt.Sprint(d.Size)
}

// LiteralArray describes, per arity, the shape of dense literal encodings
// for a domain independently of any particular problem.
type LiteralArray struct {
	Name  string
	Shape map[int][]Dim
}

// NewLiteralArray builds the spec for a domain's predicates.
func NewLiteralArray(name string, predicates []*pddl.Predicate) LiteralArray {
	counts := make(map[int]int)
	for _, p := range predicates {
		counts[p.Arity()]++
	}
	shape := make(map[int][]Dim, len(counts))
	for k, n := range counts {
		dims := make([]Dim, 0, k+1)
		for i := 0; i < k; i++ {
			dims = append(dims, Dim{Symbol: NumObjects})
		}
		shape[k] = append(dims, Dim{Size: n})
	}
	return LiteralArray{Name: name, Shape: shape}
}

// GroundedShape resolves the symbolic dimensions against problem.
func (a LiteralArray) GroundedShape(problem *pddl.Problem) Shapes {
	n := problem.ObjectMap().Len()
	out := make(Shapes, len(a.Shape))
	for k, dims := range a.Shape {
		shape := make([]int, len(dims))
		for i, d := range dims {
			if d.Symbol == NumObjects {
				shape[i] = n
			} else {
				shape[i] = d.Size
			}
		}
		out[k] = shape
	}
	return out
}
