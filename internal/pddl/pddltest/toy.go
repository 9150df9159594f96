// Package pddltest provides small hand-built planning fixtures for tests.
package pddltest

import "pddlenv/internal/pddl"

// Toy is the Cat/Hat/House domain: a cat in a hat makes a mess that has to be
// cleaned before the parents are happy.
type Toy struct {
	Cat, Hat, House       *pddl.Type
	CatObj, HatObj, Home  pddl.Object
	In, Out, Clean, Dirty *pddl.Predicate
	ParentsHappy          *pddl.Predicate

	CleanHouse, LetIn, RemoveCat *pddl.ActionSchema

	Domain  *pddl.Domain
	Problem *pddl.Problem
}

// NewToy builds the toy domain and its single problem: objects cat, hat and
// house, goal Clean(house), static literal In(cat, hat).
func NewToy(opts ...pddl.ProblemOption) *Toy {
	t := &Toy{}
	t.Cat = pddl.NewType("Cat", nil)
	t.Hat = pddl.NewType("Hat", nil)
	t.House = pddl.NewType("House", nil)

	t.In = pddl.NewPredicate("In", []*pddl.Type{t.Cat}, []*pddl.Type{t.Hat})
	t.Out = pddl.NewPredicate("Out", []*pddl.Type{t.Cat}, []*pddl.Type{t.House})
	t.Clean = pddl.NewPredicate("Clean", []*pddl.Type{t.House})
	t.Dirty = pddl.NewPredicate("Dirty", []*pddl.Type{t.House})
	t.ParentsHappy = pddl.NewPredicate("ParentsHappy", []*pddl.Type{t.House})

	t.CleanHouse = pddl.MustActionSchema("CleanHouse",
		[]pddl.Variable{{Name: "?c", Types: []*pddl.Type{t.Cat}}, {Name: "?h", Types: []*pddl.Type{t.House}}},
		[]pddl.Template{pddl.T(t.Dirty, 1), pddl.T(t.Out, 0, 1)},
		[]pddl.Template{pddl.T(t.ParentsHappy, 1), pddl.T(t.Clean, 1)},
		[]pddl.Template{pddl.T(t.Dirty, 1)},
	)
	t.LetIn = pddl.MustActionSchema("LetIn",
		[]pddl.Variable{
			{Name: "?c", Types: []*pddl.Type{t.Cat}},
			{Name: "?hat", Types: []*pddl.Type{t.Hat}},
			{Name: "?h", Types: []*pddl.Type{t.House}},
		},
		[]pddl.Template{pddl.T(t.Out, 0, 2), pddl.T(t.In, 0, 1)},
		[]pddl.Template{pddl.T(t.Dirty, 2)},
		[]pddl.Template{pddl.T(t.ParentsHappy, 2), pddl.T(t.Clean, 2), pddl.T(t.Out, 0, 2)},
	)
	t.RemoveCat = pddl.MustActionSchema("RemoveCat",
		[]pddl.Variable{{Name: "?c", Types: []*pddl.Type{t.Cat}}, {Name: "?hat", Types: []*pddl.Type{t.Hat}}},
		[]pddl.Template{pddl.T(t.In, 0, 1)},
		nil,
		[]pddl.Template{pddl.T(t.In, 0, 1)},
	)

	t.Domain = pddl.MustDomain("DummyDomain",
		[]*pddl.Type{t.Cat, t.Hat, t.House},
		[]*pddl.Predicate{t.In, t.Out, t.Clean, t.Dirty, t.ParentsHappy},
		[]*pddl.ActionSchema{t.CleanHouse, t.LetIn, t.RemoveCat},
		nil,
	)

	t.CatObj = pddl.NewObject("cat", t.Cat)
	t.HatObj = pddl.NewObject("hat", t.Hat)
	t.Home = pddl.NewObject("house", t.House)
	t.Problem = pddl.MustProblem("dummy", t.Domain,
		[]pddl.Object{t.CatObj, t.HatObj, t.Home},
		[]pddl.Literal{t.Clean.MustGround(t.Home)},
		[]pddl.Literal{t.In.MustGround(t.CatObj, t.HatObj)},
		opts...,
	)
	return t
}

// Facts grounds a handful of toy literals by predicate name for brevity.
func (t *Toy) Facts(names ...string) pddl.LiteralSet {
	var lits []pddl.Literal
	for _, n := range names {
		switch n {
		case "Dirty":
			lits = append(lits, t.Dirty.MustGround(t.Home))
		case "Clean":
			lits = append(lits, t.Clean.MustGround(t.Home))
		case "Out":
			lits = append(lits, t.Out.MustGround(t.CatObj, t.Home))
		case "In":
			lits = append(lits, t.In.MustGround(t.CatObj, t.HatObj))
		case "ParentsHappy":
			lits = append(lits, t.ParentsHappy.MustGround(t.Home))
		default:
			panic("pddltest: unknown toy fact " + n)
		}
	}
	return pddl.NewLiteralSet(lits...)
}
