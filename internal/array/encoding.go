package array

import "pddlenv/internal/pddl"

// Tensor is a dense row-major float32 tensor.
type Tensor struct {
	Shape []int
	Data  []float32
}

func newTensor(shape []int) Tensor {
	n := 1
	for _, d := range shape {
		n *= d
	}
	return Tensor{Shape: shape, Data: make([]float32, n)}
}

// At returns the element at coord.
func (t Tensor) At(coord ...int) float32 {
	return t.Data[t.offset(coord)]
}

func (t Tensor) offset(coord []int) int {
	off := 0
	for d, dim := range t.Shape {
		off = off*dim + coord[d]
	}
	return off
}

// ToDenseBinary encodes each literal set as a binary tensor per arity of
// shape (len(sets), objects × k, predicates of arity k).
func ToDenseBinary(sets []pddl.LiteralSet, problem *pddl.Problem) (map[int]Tensor, error) {
	indices, shapes, err := LiteralSetIndices(sets, problem)
	if err != nil {
		return nil, err
	}

	features := make(map[int]Tensor, len(shapes))
	for k, shape := range shapes {
		features[k] = newTensor(append([]int{len(sets)}, shape...))
	}
	for k, rows := range indices {
		t := features[k]
		coord := make([]int, len(rows))
		for j := range rows[0] {
			for d := range rows {
				coord[d] = rows[d][j]
			}
			t.Data[t.offset(coord)] = 1
		}
	}
	return features, nil
}

// ToFlatDenseBinary concatenates the per-arity encodings of ToDenseBinary in
// ascending arity order, giving one row of shapes.Total() values per set.
func ToFlatDenseBinary(sets []pddl.LiteralSet, problem *pddl.Problem) ([][]float32, error) {
	features, err := ToDenseBinary(sets, problem)
	if err != nil {
		return nil, err
	}

	shapes := make(Shapes, len(features))
	for k, t := range features {
		shapes[k] = t.Shape[1:]
	}
	rows := make([][]float32, len(sets))
	for i := range rows {
		row := make([]float32, 0, shapes.Total())
		for _, k := range shapes.Arities() {
			size := shapes.Size(k)
			row = append(row, features[k].Data[i*size:(i+1)*size]...)
		}
		rows[i] = row
	}
	return rows, nil
}
