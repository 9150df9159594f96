package pddl

import (
	"fmt"
	"iter"
	"slices"
	"sync"

	"pddlenv/internal/logging"

	"golang.org/x/sync/errgroup"
)

// Problem is a domain instance: objects, a goal, and the static literals that
// hold throughout. Problems are immutable; identity is pointer identity.
type Problem struct {
	name    string
	domain  *Domain
	objects *TypeObjectMap
	goal    LiteralSet
	static  LiteralSet
	workers int

	// staticColumns[p][i] holds the objects seen at position i of p's static literals.
	staticColumns map[*Predicate][]map[Object]struct{}

	groundOnce sync.Once
	grounded   []*Action
}

// ProblemOption configures a Problem.
type ProblemOption func(*Problem)

// WithGroundingWorkers grounds up to n action schemas concurrently. The
// resulting action order does not depend on n.
func WithGroundingWorkers(n int) ProblemOption {
	return func(p *Problem) { p.workers = n }
}

// NewProblem builds a problem over objects plus the domain constants. Goal
// and static literals must use the domain's predicates and known objects.
func NewProblem(name string, domain *Domain, objects []Object, goal, static []Literal, opts ...ProblemOption) (*Problem, error) {
	all := append(domain.Constants(), objects...)
	p := &Problem{
		name:          name,
		domain:        domain,
		objects:       NewTypeObjectMap(all...),
		goal:          NewLiteralSet(goal...),
		static:        NewLiteralSet(static...),
		staticColumns: make(map[*Predicate][]map[Object]struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}

	known := make(map[Object]struct{}, p.objects.Len())
	for _, o := range p.objects.objects {
		known[o] = struct{}{}
	}
	for _, set := range []LiteralSet{p.goal, p.static} {
		for _, l := range set.m {
			if err := p.checkLiteral(l, known); err != nil {
				return nil, fmt.Errorf("problem %s: %w", name, err)
			}
		}
	}

	for _, l := range p.static.m {
		cols, ok := p.staticColumns[l.pred]
		if !ok {
			cols = make([]map[Object]struct{}, l.pred.Arity())
			for i := range cols {
				cols[i] = make(map[Object]struct{})
			}
			p.staticColumns[l.pred] = cols
		}
		for i, o := range l.args {
			cols[i][o] = struct{}{}
		}
	}
	return p, nil
}

// MustProblem is NewProblem for fixtures; it panics on error.
func MustProblem(name string, domain *Domain, objects []Object, goal, static []Literal, opts ...ProblemOption) *Problem {
	p, err := NewProblem(name, domain, objects, goal, static, opts...)
	if err != nil {
		panic(err)
	}
	return p
}

func (p *Problem) checkLiteral(l Literal, known map[Object]struct{}) error {
	if got, ok := p.domain.predByName[l.pred.name]; !ok || got != l.pred {
		return fmt.Errorf("literal %s: predicate %s not in domain %s: %w", l, l.pred.name, p.domain.name, ErrUnknownName)
	}
	for _, o := range l.args {
		if _, ok := known[o]; !ok {
			return fmt.Errorf("literal %s: object %s: %w", l, o.Name, ErrUnknownName)
		}
	}
	return nil
}

func (p *Problem) staticColumn(pred *Predicate, pos int) map[Object]struct{} {
	cols, ok := p.staticColumns[pred]
	if !ok {
		return nil
	}
	return cols[pos]
}

func (p *Problem) Name() string               { return p.name }
func (p *Problem) Domain() *Domain            { return p.domain }
func (p *Problem) ObjectMap() *TypeObjectMap  { return p.objects }
func (p *Problem) Objects() []Object          { return p.objects.Objects() }
func (p *Problem) Predicates() []*Predicate   { return p.domain.Predicates() }
func (p *Problem) Goal() LiteralSet           { return p.goal }
func (p *Problem) StaticLiterals() LiteralSet { return p.static }
func (p *Problem) String() string             { return p.domain.name + "/" + p.name }

// GroundedActions returns every grounded action of the problem, ordered by
// schema name and then by assignment order. The result is computed once.
// The returned slice must not be modified.
func (p *Problem) GroundedActions() []*Action {
	p.groundOnce.Do(func() {
		timer := logging.StartTimer(logging.CategoryGrounding, "ground "+p.String())
		p.grounded = p.ground()
		timer.Stop()
		logging.Grounding("problem %s: %d grounded actions from %d schemas",
			p, len(p.grounded), len(p.domain.actions))
	})
	return p.grounded
}

func (p *Problem) ground() []*Action {
	schemas := p.domain.actions
	if p.workers <= 1 || len(schemas) < 2 {
		var out []*Action
		for _, s := range schemas {
			out = slices.AppendSeq(out, s.Ground(p))
		}
		return out
	}

	parts := make([][]*Action, len(schemas))
	var g errgroup.Group
	g.SetLimit(p.workers)
	for i, s := range schemas {
		g.Go(func() error {
			parts[i] = slices.Collect(s.Ground(p))
			logging.GroundingDebug("schema %s: %d groundings", s.name, len(parts[i]))
			return nil
		})
	}
	_ = g.Wait()
	return slices.Concat(parts...)
}

// GoalSatisfied reports whether the goal holds in facts.
func (p *Problem) GoalSatisfied(facts LiteralSet) bool {
	return facts.Contains(p.goal)
}

// ValidActions returns the grounded actions applicable in facts.
func (p *Problem) ValidActions(facts LiteralSet) []*Action {
	var out []*Action
	for _, a := range p.GroundedActions() {
		if a.Applicable(facts) {
			out = append(out, a)
		}
	}
	return out
}

// GroundLiterals yields every type-correct grounding of pred over the
// problem's objects. Static predicates only yield their static literals.
func (p *Problem) GroundLiterals(pred *Predicate) iter.Seq[Literal] {
	return func(yield func(Literal) bool) {
		if p.domain.IsStatic(pred) {
			for _, l := range p.static.Sorted() {
				if l.pred == pred && !yield(l) {
					return
				}
			}
			return
		}
		domains := make([][]Object, pred.Arity())
		for i, ts := range pred.types {
			domains[i] = p.objects.Lookup(ts...)
		}
		for args := range product(domains) {
			if !yield(newLiteral(pred, args)) {
				return
			}
		}
	}
}
