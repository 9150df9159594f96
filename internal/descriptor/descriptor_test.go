package descriptor

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"pddlenv/internal/pddl"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T, name string) *Loaded {
	t.Helper()
	l, err := Load(filepath.Join("testdata", name))
	require.NoError(t, err)
	return l
}

func TestLoadEmbeddedBlocks(t *testing.T) {
	l := load(t, "blocks3.yaml")

	assert.Equal(t, "blocks", l.Domain.Name())
	assert.Equal(t, "blocks/tower3", l.Problem.String())
	assert.Len(t, l.Domain.Actions(), 4)
	assert.Empty(t, l.Domain.StaticPredicates())
	assert.Equal(t, 7, l.Init.Len())
	assert.Equal(t, 2, l.Problem.Goal().Len())
	require.NotNil(t, l.Solution)
	assert.Equal(t, 4, *l.Solution)

	// pick-up and put-down per block, stack and unstack per ordered pair.
	assert.Len(t, l.Problem.GroundedActions(), 3+3+9+9)

	root, ok := l.Domain.Type(RootType)
	require.True(t, ok)
	block, ok := l.Domain.Type("block")
	require.True(t, ok)
	assert.Same(t, root, block.Parent())

	assert.False(t, l.InitialState().IsGoal())
}

func TestLoadStaticLiterals(t *testing.T) {
	l := load(t, "rooms.yaml")

	static := l.Domain.StaticPredicates()
	require.Len(t, static, 1)
	assert.Equal(t, "connected", static[0].Name())
	assert.Equal(t, 4, l.Problem.StaticLiterals().Len())
	assert.Equal(t, 5, l.Init.Len(), "initial facts keep the static literals")

	var got []string
	for _, a := range l.Problem.GroundedActions() {
		got = append(got, a.String())
		assert.Equal(t, 1, a.Preconditions().Len(), "static precondition stripped from %s", a)
	}
	assert.ElementsMatch(t, []string{"(move h1 r1)", "(move h1 r2)", "(move r1 h1)", "(move r2 h1)"}, got)

	move, ok := l.Domain.Action("move")
	require.True(t, ok)
	to := move.Variables()[1]
	require.Len(t, to.Types, 2)
	assert.Equal(t, "room", to.Types[0].Name())
	assert.Equal(t, "hall", to.Types[1].Name())
}

func TestLoadInlineDomain(t *testing.T) {
	l := load(t, "rooms_unreachable.yaml")
	assert.Equal(t, "rooms-inline", l.Domain.Name())
	assert.Equal(t, -1, *l.Solution)
	assert.Len(t, l.Problem.GroundedActions(), 2)
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{
			name: "unknown parent type",
			doc: `
domain: {name: d, types: [{name: a, parent: ghost}]}
problem: {name: p, goal: []}`,
			want: pddl.ErrUnknownName,
		},
		{
			name: "duplicate type",
			doc: `
domain: {name: d, types: [{name: a}, {name: a}]}
problem: {name: p, goal: []}`,
			want: pddl.ErrDuplicateName,
		},
		{
			name: "unknown predicate in action",
			doc: `
domain:
  name: d
  actions:
    - {name: go, params: [{name: "?x"}], pre: [[at, "?x"]]}
problem: {name: p, goal: []}`,
			want: pddl.ErrUnknownName,
		},
		{
			name: "unbound variable",
			doc: `
domain:
  name: d
  predicates: [{name: at, params: [object]}]
  actions:
    - {name: go, params: [{name: "?x"}], add: [[at, "?y"]]}
problem: {name: p, goal: []}`,
			want: pddl.ErrUnboundVariable,
		},
		{
			name: "wrong arity in action",
			doc: `
domain:
  name: d
  predicates: [{name: at, params: [object]}]
  actions:
    - {name: go, params: [{name: "?x"}], add: [[at, "?x", "?x"]]}
problem: {name: p, goal: []}`,
			want: pddl.ErrArity,
		},
		{
			name: "unknown object",
			doc: `
domain: {name: d, predicates: [{name: at, params: [object]}]}
problem: {name: p, init: [[at, nowhere]], goal: []}`,
			want: pddl.ErrUnknownName,
		},
		{
			name: "duplicate object",
			doc: `
domain: {name: d}
problem: {name: p, objects: [{name: x}, {name: x}], goal: []}`,
			want: pddl.ErrDuplicateName,
		},
		{
			name: "type mismatch in goal",
			doc: `
domain:
  name: d
  types: [{name: room}, {name: cat}]
  predicates: [{name: at, params: [room]}]
problem: {name: p, objects: [{name: tom, type: cat}], goal: [[at, tom]]}`,
			want: pddl.ErrTypeMismatch,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			doc, err := Decode([]byte(tt.doc))
			require.NoError(t, err)
			_, err = doc.Build()
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestBuildRejectsTypeCycleAndConstants(t *testing.T) {
	doc, err := Decode([]byte(`
domain: {name: d, types: [{name: a, parent: b}, {name: b, parent: a}]}
problem: {name: p, goal: []}`))
	require.NoError(t, err)
	_, err = doc.Build()
	assert.ErrorContains(t, err, "its own ancestor")

	doc, err = Decode([]byte(`
domain:
  name: d
  predicates: [{name: at, params: [object]}]
  actions:
    - {name: go, params: [{name: "?x"}], add: [[at, home]]}
problem: {name: p, goal: []}`))
	require.NoError(t, err)
	_, err = doc.Build()
	assert.ErrorContains(t, err, "not supported")
}

func TestDomainConstants(t *testing.T) {
	doc, err := Decode([]byte(`
domain:
  name: d
  types: [{name: room}]
  constants: [{name: home, type: room}]
  predicates: [{name: at, params: [room]}]
problem: {name: p, objects: [{name: attic, type: room}], init: [[at, home]], goal: [[at, attic]]}`))
	require.NoError(t, err)
	l, err := doc.Build()
	require.NoError(t, err)
	assert.Equal(t, 2, l.Problem.ObjectMap().Len())
}

func TestDecodeRejectsBadTypeRef(t *testing.T) {
	_, err := Decode([]byte(`
domain: {name: d, predicates: [{name: at, params: [{nested: map}]}]}
problem: {name: p, goal: []}`))
	assert.Error(t, err)
}

func TestReadFileMissingDomain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "p.yaml")
	require.NoError(t, os.WriteFile(path, []byte("problem: {name: p, goal: []}\n"), 0o644))
	_, err := ReadFile(path)
	assert.ErrorContains(t, err, "neither domain nor domain_ref")

	require.NoError(t, os.WriteFile(path, []byte("domain_ref: missing.yaml\nproblem: {name: p, goal: []}\n"), 0o644))
	_, err = ReadFile(path)
	assert.Error(t, err)
}

func TestEmbedded(t *testing.T) {
	assert.Equal(t, []string{"blocks"}, EmbeddedNames())

	d, err := Blocks()
	require.NoError(t, err)
	for _, name := range []string{"on", "ontable", "clear", "handempty", "holding"} {
		_, ok := d.Predicate(name)
		assert.True(t, ok, name)
	}

	_, err = Embedded("logistics")
	assert.ErrorIs(t, err, pddl.ErrUnknownName)
}

func TestLoadDirAndInitializer(t *testing.T) {
	loaded, err := LoadDir("testdata")
	require.NoError(t, err)

	var names []string
	for _, l := range loaded {
		names = append(names, l.Problem.Name())
	}
	assert.Equal(t, []string{"tower3", "cycle", "swap", "corridor", "island"}, names)

	rng := rand.New(rand.NewPCG(7, 7))
	fixed, err := Initializer(rng, loaded, 2)
	require.NoError(t, err)
	for range 3 {
		s, err := fixed.Next(nil)
		require.NoError(t, err)
		assert.Same(t, loaded[2].Problem, s.Problem)
	}

	uniform, err := Initializer(rng, loaded, -1)
	require.NoError(t, err)
	s, err := uniform.Next(nil)
	require.NoError(t, err)
	assert.Contains(t, []string{"tower3", "cycle", "swap", "corridor", "island"}, s.Problem.Name())

	_, err = Initializer(rng, loaded, len(loaded))
	assert.Error(t, err)
}
