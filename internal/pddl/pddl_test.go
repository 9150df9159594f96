package pddl_test

import (
	"slices"
	"testing"

	"pddlenv/internal/pddl"
	"pddlenv/internal/pddl/pddltest"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func names[T interface{ String() string }](xs []T) []string {
	out := make([]string, len(xs))
	for i, x := range xs {
		out[i] = x.String()
	}
	return out
}

func TestTypeHierarchy(t *testing.T) {
	root := pddl.NewType("thing", nil)
	animal := pddl.NewType("animal", root)
	cat := pddl.NewType("cat", animal)

	assert.Same(t, cat, pddl.NewType("cat", animal), "types are interned")
	assert.NotSame(t, cat, pddl.NewType("cat", root), "ancestry distinguishes types")

	assert.Equal(t, []*pddl.Type{cat, animal, root}, cat.Hierarchy())
	assert.Equal(t, append([]*pddl.Type{cat}, animal.Hierarchy()...), cat.Hierarchy())

	for _, ty := range []*pddl.Type{root, animal, cat} {
		assert.True(t, ty.IsInstanceOf(ty), "%s is an instance of itself", ty)
	}
	assert.True(t, cat.IsInstanceOf(root))
	assert.False(t, root.IsInstanceOf(cat))
	assert.False(t, animal.IsInstanceOf(pddl.NewType("plant", root)))
}

func TestTypeObjectMapLookup(t *testing.T) {
	root := pddl.NewType("vehicle", nil)
	car := pddl.NewType("car", root)
	truck := pddl.NewType("truck", root)
	boat := pddl.NewType("boat", nil)

	m := pddl.NewTypeObjectMap(
		pddl.NewObject("zed", car),
		pddl.NewObject("alpha", truck),
		pddl.NewObject("mid", root),
		pddl.NewObject("alpha", truck),
	)

	tests := []struct {
		name  string
		types []*pddl.Type
		want  []string
	}{
		{"root includes subtypes", []*pddl.Type{root}, []string{"alpha", "mid", "zed"}},
		{"leaf", []*pddl.Type{car}, []string{"zed"}},
		{"union deduplicates", []*pddl.Type{car, root}, []string{"alpha", "mid", "zed"}},
		{"unregistered type", []*pddl.Type{boat}, nil},
		{"no types means all", nil, []string{"alpha", "mid", "zed"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := names(m.Lookup(tt.types...))
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Lookup mismatch (-want +got):\n%s", diff)
			}
		})
	}

	first := m.Lookup(car, truck)
	second := m.Lookup(truck, car)
	require.Len(t, second, 2)
	assert.Same(t, &first[0], &second[0], "lookups are memoized independent of type order")
}

func TestPredicateGround(t *testing.T) {
	toy := pddltest.NewToy()

	lit, err := toy.Out.Ground(toy.CatObj, toy.Home)
	require.NoError(t, err)
	assert.Equal(t, "(Out cat house)", lit.String())
	assert.True(t, lit.Equal(toy.Out.MustGround(toy.CatObj, toy.Home)))
	assert.False(t, lit.Equal(toy.In.MustGround(toy.CatObj, toy.HatObj)))

	_, err = toy.Out.Ground(toy.CatObj)
	assert.ErrorIs(t, err, pddl.ErrArity)

	_, err = toy.Out.Ground(toy.Home, toy.Home)
	assert.ErrorIs(t, err, pddl.ErrTypeMismatch)
}

func TestLiteralSetAlgebra(t *testing.T) {
	toy := pddltest.NewToy()
	a := toy.Facts("Dirty", "Out")
	b := toy.Facts("Out", "Clean")

	assert.Equal(t, "{(Clean house) (Dirty house) (Out cat house)}", a.Union(b).String())
	assert.Equal(t, "{(Dirty house)}", a.Difference(b).String())
	assert.Equal(t, "{(Out cat house)}", a.Intersect(b).String())
	assert.True(t, a.Union(b).Contains(a))
	assert.False(t, a.Contains(b))
	assert.True(t, a.Equal(toy.Facts("Out", "Dirty")))
	assert.Equal(t, a.Key(), toy.Facts("Out", "Dirty").Key())

	var empty pddl.LiteralSet
	assert.Equal(t, 0, empty.Len())
	assert.True(t, a.Contains(empty))
	assert.True(t, empty.Union(a).Equal(a))
	assert.Equal(t, 2, a.Len(), "operations leave operands untouched")
}

func TestToyStaticPredicates(t *testing.T) {
	toy := pddltest.NewToy()
	assert.Empty(t, toy.Domain.StaticPredicates(), "every toy predicate is some action's effect")
}

func TestGroundedActions(t *testing.T) {
	toy := pddltest.NewToy()

	actions := toy.Problem.GroundedActions()
	want := []string{"(CleanHouse cat house)", "(LetIn cat hat house)", "(RemoveCat cat hat)"}
	if diff := cmp.Diff(want, names(actions)); diff != "" {
		t.Fatalf("grounded actions mismatch (-want +got):\n%s", diff)
	}

	again := toy.Problem.GroundedActions()
	assert.Same(t, &actions[0], &again[0], "grounded actions are cached")

	letIn := actions[1]
	assert.Equal(t, "{(Out cat house)}", letIn.Preconditions().String(), "static literal stripped")
	assert.Equal(t, "{(Dirty house)}", letIn.AddEffects().String())
	assert.Equal(t, 0, actions[2].Preconditions().Len())
}

func TestValidActions(t *testing.T) {
	toy := pddltest.NewToy()

	valid := toy.Problem.ValidActions(toy.Facts("Dirty", "Out"))
	assert.Equal(t, []string{"(CleanHouse cat house)", "(LetIn cat hat house)", "(RemoveCat cat hat)"}, names(valid))

	valid = toy.Problem.ValidActions(toy.Facts("Clean", "Out"))
	assert.Equal(t, []string{"(LetIn cat hat house)", "(RemoveCat cat hat)"}, names(valid))
}

func TestApplicableBoundary(t *testing.T) {
	toy := pddltest.NewToy()
	for _, a := range toy.Problem.GroundedActions() {
		pre := a.Preconditions()
		assert.True(t, a.Applicable(pre), "%s applicable on exactly its preconditions", a)
		for l := range pre.All() {
			missing := pre.Difference(pddl.NewLiteralSet(l))
			assert.False(t, a.Applicable(missing), "%s without %s", a, l)
		}
	}
}

func TestApplyIsPure(t *testing.T) {
	toy := pddltest.NewToy()
	clean := toy.Problem.GroundedActions()[0]

	facts := toy.Facts("Dirty", "Out")
	next := clean.Apply(facts)

	assert.Equal(t, "{(Dirty house) (Out cat house)}", facts.String())
	assert.Equal(t, "{(Clean house) (Out cat house) (ParentsHappy house)}", next.String())
	assert.True(t, toy.Problem.GoalSatisfied(next))
	assert.False(t, toy.Problem.GoalSatisfied(facts))
}

func TestSTRIPSConvention(t *testing.T) {
	ty := pddl.NewType("switch", nil)
	on := pddl.NewPredicate("on", []*pddl.Type{ty})
	off := pddl.NewPredicate("off", []*pddl.Type{ty})
	toggle := pddl.MustActionSchema("toggle",
		[]pddl.Variable{{Name: "?s", Types: []*pddl.Type{ty}}},
		[]pddl.Template{pddl.T(off, 0)},
		[]pddl.Template{pddl.T(on, 0), pddl.T(off, 0)},
		[]pddl.Template{pddl.T(on, 0), pddl.T(off, 0)},
	)
	domain := pddl.MustDomain("switches", []*pddl.Type{ty}, []*pddl.Predicate{on, off}, []*pddl.ActionSchema{toggle}, nil)
	s := pddl.NewObject("s", ty)
	problem := pddl.MustProblem("p", domain, []pddl.Object{s}, []pddl.Literal{on.MustGround(s)}, nil)

	for _, a := range problem.GroundedActions() {
		assert.Equal(t, 0, a.AddEffects().Intersect(a.DelEffects()).Len())
		assert.Equal(t, 0, a.DelEffects().Len(), "add wins over delete")
		assert.Equal(t, "{(on s)}", a.AddEffects().String(), "re-adding a precondition is dropped")

		facts := pddl.NewLiteralSet(off.MustGround(s))
		assert.Equal(t, "{(off s) (on s)}", a.Apply(facts).String())
	}
}

// routes builds a domain with a static adjacency relation.
func routes(t *testing.T) (*pddl.Problem, *pddl.ActionSchema) {
	t.Helper()
	loc := pddl.NewType("location", nil)
	at := pddl.NewPredicate("at", []*pddl.Type{loc})
	adjacent := pddl.NewPredicate("adjacent", []*pddl.Type{loc}, []*pddl.Type{loc})
	move := pddl.MustActionSchema("move",
		[]pddl.Variable{{Name: "?from", Types: []*pddl.Type{loc}}, {Name: "?to", Types: []*pddl.Type{loc}}},
		[]pddl.Template{pddl.T(at, 0), pddl.T(adjacent, 0, 1)},
		[]pddl.Template{pddl.T(at, 1)},
		[]pddl.Template{pddl.T(at, 0)},
	)
	domain := pddl.MustDomain("routes", []*pddl.Type{loc}, []*pddl.Predicate{at, adjacent}, []*pddl.ActionSchema{move}, nil)
	l1, l2, l3 := pddl.NewObject("l1", loc), pddl.NewObject("l2", loc), pddl.NewObject("l3", loc)
	problem := pddl.MustProblem("line", domain,
		[]pddl.Object{l3, l1, l2},
		[]pddl.Literal{at.MustGround(l3)},
		[]pddl.Literal{adjacent.MustGround(l1, l2), adjacent.MustGround(l2, l3)},
	)
	require.Equal(t, []string{"adjacent"}, names(domain.StaticPredicates()))
	return problem, move
}

func TestStaticPruning(t *testing.T) {
	problem, move := routes(t)

	domains := move.FeasibleDomains(problem)
	require.Len(t, domains, 2)
	assert.Equal(t, []string{"l1", "l2"}, names(domains[0]))
	assert.Equal(t, []string{"l2", "l3"}, names(domains[1]))

	// (l1 l3) and (l2 l2) survive the column projection but not membership.
	grounded := slices.Collect(move.Ground(problem))
	assert.Equal(t, []string{"(move l1 l2)", "(move l2 l3)"}, names(grounded))
	for _, a := range grounded {
		assert.Equal(t, 1, a.Preconditions().Len(), "static precondition stripped from %s", a)
	}
}

func TestInstantiateErrors(t *testing.T) {
	problem, move := routes(t)
	objs := problem.Objects()
	l1, l2, l3 := objs[0], objs[1], objs[2]

	_, err := move.Instantiate(problem, l1)
	assert.ErrorIs(t, err, pddl.ErrArity)

	_, err = move.Instantiate(problem, l1, pddl.NewObject("x", pddl.NewType("other", nil)))
	assert.ErrorIs(t, err, pddl.ErrTypeMismatch)

	_, err = move.Instantiate(problem, l1, l3)
	assert.ErrorIs(t, err, pddl.ErrInvalidAssignment)

	a, err := move.Instantiate(nil, l1, l3)
	require.NoError(t, err, "no problem means no static check")
	assert.Equal(t, 2, a.Preconditions().Len())

	a, err = move.Instantiate(problem, l1, l2)
	require.NoError(t, err)
	assert.Equal(t, "(move l1 l2)", a.String())
}

func TestNewActionSchemaValidation(t *testing.T) {
	ty := pddl.NewType("x", nil)
	p := pddl.NewPredicate("p", []*pddl.Type{ty})
	vars := []pddl.Variable{{Name: "?a", Types: []*pddl.Type{ty}}}

	_, err := pddl.NewActionSchema("bad", vars, []pddl.Template{pddl.T(p, 0, 0)}, nil, nil)
	assert.ErrorIs(t, err, pddl.ErrArity)

	_, err = pddl.NewActionSchema("bad", vars, nil, []pddl.Template{pddl.T(p, 1)}, nil)
	assert.ErrorIs(t, err, pddl.ErrUnboundVariable)
}

func TestNewDomainValidation(t *testing.T) {
	ty := pddl.NewType("x", nil)
	p := pddl.NewPredicate("p", []*pddl.Type{ty})
	q := pddl.NewPredicate("q", []*pddl.Type{ty})
	act := pddl.MustActionSchema("a", []pddl.Variable{{Name: "?v"}}, []pddl.Template{pddl.T(q, 0)}, nil, nil)

	_, err := pddl.NewDomain("d", nil, []*pddl.Predicate{p, pddl.NewPredicate("p")}, nil, nil)
	assert.ErrorIs(t, err, pddl.ErrDuplicateName)

	_, err = pddl.NewDomain("d", nil, []*pddl.Predicate{p}, []*pddl.ActionSchema{act}, nil)
	assert.ErrorIs(t, err, pddl.ErrUnknownName)
}

func TestNewProblemValidation(t *testing.T) {
	toy := pddltest.NewToy()
	stranger := pddl.NewObject("dog", toy.Cat)

	_, err := pddl.NewProblem("p", toy.Domain,
		[]pddl.Object{toy.CatObj, toy.Home},
		[]pddl.Literal{toy.Out.MustGround(stranger, toy.Home)}, nil)
	assert.ErrorIs(t, err, pddl.ErrUnknownName)
}

func TestParallelGroundingMatchesSerial(t *testing.T) {
	defer goleak.VerifyNone(t)

	serial := pddltest.NewToy()
	parallel := pddltest.NewToy(pddl.WithGroundingWorkers(4))

	assert.Equal(t, names(serial.Problem.GroundedActions()), names(parallel.Problem.GroundedActions()))
}

func TestGroundLiterals(t *testing.T) {
	toy := pddltest.NewToy()
	got := names(slices.Collect(toy.Problem.GroundLiterals(toy.Out)))
	assert.Equal(t, []string{"(Out cat house)"}, got)

	problem, _ := routes(t)
	adjacent, ok := problem.Domain().Predicate("adjacent")
	require.True(t, ok)
	got = names(slices.Collect(problem.GroundLiterals(adjacent)))
	assert.Equal(t, []string{"(adjacent l1 l2)", "(adjacent l2 l3)"}, got)
}
