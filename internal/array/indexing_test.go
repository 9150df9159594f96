package array_test

import (
	"testing"

	"pddlenv/internal/array"
	"pddlenv/internal/pddl"
	"pddlenv/internal/pddl/pddltest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// RAVEL / UNRAVEL
// =============================================================================

func TestUnravelSkipsEmptyArity(t *testing.T) {
	shapes := array.Shapes{1: {3, 2}, 2: {3, 3, 2}}

	got, err := array.Unravel(array.Flat{Slot: []int{0}, Offset: []int{20}}, shapes)
	require.NoError(t, err)

	want := array.Indices{2: {{0}, {2}, {1}, {0}}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Unravel mismatch (-want +got):\n%s", diff)
	}
	_, ok := got[1]
	assert.False(t, ok, "no arity-1 entries expected")
}

func TestUnravelOutOfRange(t *testing.T) {
	shapes := array.Shapes{1: {3, 2}, 2: {3, 3, 2}}
	for _, off := range []int{-1, 24, 100} {
		_, err := array.Unravel(array.Flat{Slot: []int{0}, Offset: []int{off}}, shapes)
		assert.ErrorIs(t, err, array.ErrOffsetOutOfRange, "offset %d", off)
	}

	_, err := array.Unravel(array.Flat{Slot: []int{0, 1}, Offset: []int{0}}, shapes)
	assert.Error(t, err)
}

func TestRavelRoundTrip(t *testing.T) {
	shapes := array.Shapes{0: {4}, 1: {3, 2}, 2: {3, 3, 2}}
	indices := array.Indices{
		0: {{0, 1}, {3, 0}},
		1: {{0, 0, 2}, {0, 2, 1}, {1, 0, 1}},
		2: {{1}, {2}, {1}, {0}},
	}

	flat, err := array.Ravel(indices, shapes)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 0, 0, 2, 1}, flat.Slot)
	assert.Equal(t, []int{3, 0, 4 + 1, 4 + 4, 4 + 3, 4 + 6 + 14}, flat.Offset)

	back, err := array.Unravel(flat, shapes)
	require.NoError(t, err)
	if diff := cmp.Diff(indices, back); diff != "" {
		t.Errorf("unravel(ravel(x)) mismatch (-want +got):\n%s", diff)
	}

	again, err := array.Ravel(back, shapes)
	require.NoError(t, err)
	assert.Equal(t, flat, again)
}

func TestRavelRejectsBadCoordinates(t *testing.T) {
	shapes := array.Shapes{1: {3, 2}}

	_, err := array.Ravel(array.Indices{1: {{0}, {3}, {0}}}, shapes)
	assert.Error(t, err, "object index past dimension")

	_, err = array.Ravel(array.Indices{2: {{0}, {0}, {0}, {0}}}, shapes)
	assert.Error(t, err, "arity without shape")

	_, err = array.Ravel(array.Indices{1: {{0}, {0}}}, shapes)
	assert.Error(t, err, "missing row")
}

func TestShapesOffsetsAndString(t *testing.T) {
	shapes := array.Shapes{2: {3, 3, 2}, 1: {3, 2}}
	assert.Equal(t, []int{1, 2}, shapes.Arities())
	assert.Equal(t, 24, shapes.Total())
	assert.Equal(t, map[int]int{1: 0, 2: 6}, shapes.Offsets())
	assert.Equal(t, "1:(3,2) 2:(3,3,2)", shapes.String())
}

// =============================================================================
// LITERAL INDICES
// =============================================================================

func TestLiteralSetIndicesToy(t *testing.T) {
	toy := pddltest.NewToy()
	sets := []pddl.LiteralSet{
		toy.Facts("Dirty", "Out"),
		toy.Facts("Clean", "ParentsHappy", "In"),
	}

	indices, shapes, err := array.LiteralSetIndices(sets, toy.Problem)
	require.NoError(t, err)

	// cat=0 hat=1 house=2; arity 1: Clean Dirty ParentsHappy; arity 2: In Out.
	assert.Equal(t, array.Shapes{1: {3, 3}, 2: {3, 3, 2}}, shapes)
	want := array.Indices{
		1: {{0, 1, 1}, {2, 2, 2}, {1, 0, 2}},
		2: {{0, 1}, {0, 0}, {2, 1}, {1, 0}},
	}
	if diff := cmp.Diff(want, indices); diff != "" {
		t.Errorf("indices mismatch (-want +got):\n%s", diff)
	}

	flat, err := array.Ravel(indices, shapes)
	require.NoError(t, err)
	back, err := array.Unravel(flat, shapes)
	require.NoError(t, err)
	assert.Equal(t, indices, back)
}

func TestEmptySlotsKeepShapes(t *testing.T) {
	toy := pddltest.NewToy()

	_, full, err := array.LiteralSetIndices([]pddl.LiteralSet{toy.Facts("Dirty")}, toy.Problem)
	require.NoError(t, err)

	for name, sets := range map[string][]pddl.LiteralSet{
		"no slots":    nil,
		"empty slots": {{}, pddl.NewLiteralSet()},
	} {
		t.Run(name, func(t *testing.T) {
			indices, shapes, err := array.LiteralSetIndices(sets, toy.Problem)
			require.NoError(t, err)
			assert.Empty(t, indices)
			assert.Equal(t, full, shapes)

			flat, err := array.Ravel(indices, shapes)
			require.NoError(t, err)
			assert.Zero(t, flat.Len())
		})
	}
}

func TestActionIndices(t *testing.T) {
	toy := pddltest.NewToy()
	actions := toy.Problem.GroundedActions()

	indices, shapes, err := array.ComputeIndices([][]*pddl.Action{actions},
		toy.Problem.Objects(), toy.Domain.Actions())
	require.NoError(t, err)

	assert.Equal(t, array.Shapes{2: {3, 3, 2}, 3: {3, 3, 3, 1}}, shapes)
	// CleanHouse(cat, house) and RemoveCat(cat, hat) share arity 2.
	assert.Equal(t, [][]int{{0, 0}, {0, 0}, {2, 1}, {0, 1}}, indices[2])
	assert.Equal(t, [][]int{{0}, {0}, {1}, {2}, {0}}, indices[3])
}

func TestIndexUnknownNames(t *testing.T) {
	toy := pddltest.NewToy()
	u := array.NewUniverse(toy.Problem.Objects(), toy.Problem.Predicates())

	stray := pddl.NewPredicate("Stray", []*pddl.Type{toy.House})
	_, err := u.Index(stray.MustGround(toy.Home))
	assert.ErrorIs(t, err, pddl.ErrUnknownName)

	ghost := pddl.NewObject("ghost", toy.House)
	_, err = u.Index(toy.Dirty.MustGround(ghost))
	assert.ErrorIs(t, err, pddl.ErrUnknownName)

	ternary := pddl.NewPredicate("Loud", []*pddl.Type{toy.House}, []*pddl.Type{toy.House}, []*pddl.Type{toy.House})
	_, err = u.Index(ternary.MustGround(toy.Home, toy.Home, toy.Home))
	assert.ErrorIs(t, err, pddl.ErrUnknownName)
}

func TestUniverseSeparatesSameNameObjects(t *testing.T) {
	room := pddl.NewType("room", nil)
	robot := pddl.NewType("robot", nil)
	named := pddl.NewPredicate("named", []*pddl.Type{room, robot})

	deltaRoom := pddl.NewObject("delta", room)
	deltaRobot := pddl.NewObject("delta", robot)
	u := array.NewUniverse([]pddl.Object{deltaRobot, deltaRoom, pddl.NewObject("alpha", room)}, []*pddl.Predicate{named})

	assert.Equal(t, array.Shapes{1: {3, 1}}, u.Shapes())
	got := map[pddl.Object][]int{}
	for _, o := range []pddl.Object{deltaRoom, deltaRobot} {
		idx, err := u.Index(named.MustGround(o))
		require.NoError(t, err)
		got[o] = idx
	}
	assert.Equal(t, []int{1, 0}, got[deltaRobot])
	assert.Equal(t, []int{2, 0}, got[deltaRoom])

	_, err := u.Index(named.MustGround(pddl.NewObject("alpha", robot)))
	assert.ErrorIs(t, err, pddl.ErrUnknownName)
}

// =============================================================================
// ENCODING
// =============================================================================

func TestToDenseBinary(t *testing.T) {
	toy := pddltest.NewToy()
	sets := []pddl.LiteralSet{toy.Facts("Dirty", "Out"), toy.Facts("In")}

	features, err := array.ToDenseBinary(sets, toy.Problem)
	require.NoError(t, err)

	unary := features[1]
	assert.Equal(t, []int{2, 3, 3}, unary.Shape)
	assert.Equal(t, float32(1), unary.At(0, 2, 1), "Dirty(house)")
	assert.Equal(t, float32(0), unary.At(1, 2, 1))

	binary := features[2]
	assert.Equal(t, []int{2, 3, 3, 2}, binary.Shape)
	assert.Equal(t, float32(1), binary.At(0, 0, 2, 1), "Out(cat, house)")
	assert.Equal(t, float32(1), binary.At(1, 0, 1, 0), "In(cat, hat)")

	var ones float32
	for _, v := range binary.Data {
		ones += v
	}
	assert.Equal(t, float32(2), ones)
}

func TestToFlatDenseBinary(t *testing.T) {
	toy := pddltest.NewToy()
	sets := []pddl.LiteralSet{toy.Facts("Dirty", "Out"), {}}

	rows, err := array.ToFlatDenseBinary(sets, toy.Problem)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Len(t, rows[0], 9+18)

	indices, shapes, err := array.LiteralSetIndices(sets, toy.Problem)
	require.NoError(t, err)
	flat, err := array.Ravel(indices, shapes)
	require.NoError(t, err)

	for j, off := range flat.Offset {
		assert.Equal(t, float32(1), rows[flat.Slot[j]][off])
	}
	assert.NotContains(t, rows[1], float32(1))
}

func TestLiteralArraySpec(t *testing.T) {
	toy := pddltest.NewToy()
	spec := array.NewLiteralArray("literals", toy.Domain.Predicates())

	require.Len(t, spec.Shape[2], 3)
	assert.Equal(t, array.NumObjects, spec.Shape[2][0].String())
	assert.Equal(t, "2", spec.Shape[2][2].String())

	_, shapes, err := array.LiteralSetIndices(nil, toy.Problem)
	require.NoError(t, err)
	assert.Equal(t, shapes, spec.GroundedShape(toy.Problem))
}
