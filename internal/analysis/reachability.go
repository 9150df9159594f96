// Package analysis answers questions about a problem without searching it.
// Relaxed reachability ignores delete effects: a fact is reached when some
// action adding it has all its preconditions reached. A goal that is not
// relaxed-reachable is unreachable, so the problem has no plan.
package analysis

import (
	"fmt"
	"strconv"
	"strings"

	"pddlenv/internal/logging"
	"pddlenv/internal/mangle"
	"pddlenv/internal/pddl"
)

const header = `Decl holds(F).
Decl reached(F) descr [mode("-")].
reached(F) :- holds(F).
`

// Program is the relaxed reachability program of a problem. Literals are
// encoded as Mangle names /f0, /f1, ...
type Program struct {
	Source string
	// Rules counts distinct rules, one per grounded action and add effect.
	Rules int

	problem *pddl.Problem
	ids     map[string]int
	lits    []pddl.Literal
}

// NewProgram renders the program of problem.
func NewProgram(problem *pddl.Problem) *Program {
	p := &Program{problem: problem, ids: make(map[string]int)}
	var b strings.Builder
	b.WriteString(header)

	seen := make(map[string]struct{})
	for _, a := range problem.GroundedActions() {
		body := make([]string, 0, a.Preconditions().Len())
		for _, l := range a.Preconditions().Sorted() {
			body = append(body, "reached("+p.Name(l)+")")
		}
		for _, l := range a.AddEffects().Sorted() {
			rule := "reached(" + p.Name(l) + ")"
			if len(body) > 0 {
				rule += " :- " + strings.Join(body, ", ")
			}
			rule += ".\n"
			if _, dup := seen[rule]; dup {
				continue
			}
			seen[rule] = struct{}{}
			b.WriteString(rule)
		}
	}
	for _, l := range problem.Goal().Sorted() {
		p.Name(l)
	}
	p.Source = b.String()
	p.Rules = len(seen)
	return p
}

// Name returns the Mangle name of l, numbering it on first use.
func (p *Program) Name(l pddl.Literal) string {
	id, ok := p.ids[l.String()]
	if !ok {
		id = len(p.lits)
		p.ids[l.String()] = id
		p.lits = append(p.lits, l)
	}
	return "/f" + strconv.Itoa(id)
}

// Literal maps a Mangle name back to its literal.
func (p *Program) Literal(name string) (pddl.Literal, error) {
	id, err := strconv.Atoi(strings.TrimPrefix(name, "/f"))
	if err != nil || !strings.HasPrefix(name, "/f") || id < 0 || id >= len(p.lits) {
		return pddl.Literal{}, fmt.Errorf("unexpected fact name %q", name)
	}
	return p.lits[id], nil
}

// HoldsFacts encodes init as holds facts in canonical literal order.
func (p *Program) HoldsFacts(init pddl.LiteralSet) []mangle.Fact {
	initial := init.Sorted()
	facts := make([]mangle.Fact, len(initial))
	for i, l := range initial {
		facts[i] = mangle.Fact{Predicate: "holds", Args: []interface{}{p.Name(l)}}
	}
	return facts
}

// Load starts a fresh engine with the program and init as holds facts, and
// evaluates it. The caller closes the engine.
func (p *Program) Load(init pddl.LiteralSet, cfg mangle.Config) (*mangle.Engine, error) {
	engine := mangle.NewEngine(cfg)
	if err := engine.LoadSchemaString(p.Source); err != nil {
		engine.Close()
		return nil, fmt.Errorf("%s: %w", p.problem, err)
	}

	engine.ToggleAutoEval(false)
	err := engine.AddFacts(p.HoldsFacts(init))
	if err == nil {
		err = engine.RecomputeRules()
	}
	engine.ToggleAutoEval(cfg.AutoEval)
	if err != nil {
		engine.Close()
		return nil, fmt.Errorf("%s: %w", p.problem, err)
	}
	return engine, nil
}

// Reachability is the result of a relaxed reachability analysis.
type Reachability struct {
	Reached pddl.LiteralSet
	// Missing holds the goal literals that were not reached.
	Missing pddl.LiteralSet
	Rules   int
}

// GoalReachable reports whether every goal literal was reached.
func (r *Reachability) GoalReachable() bool {
	return r.Missing.Len() == 0
}

// Reached reads the reached literals out of an engine returned by Load.
func (p *Program) Reached(engine *mangle.Engine) (*Reachability, error) {
	facts, err := engine.GetFacts("reached")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", p.problem, err)
	}
	lits := make([]pddl.Literal, 0, len(facts))
	for _, f := range facts {
		name, _ := f.Args[0].(string)
		l, err := p.Literal(name)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", p.problem, err)
		}
		lits = append(lits, l)
	}
	r := &Reachability{Reached: pddl.NewLiteralSet(lits...), Rules: p.Rules}
	r.Missing = p.problem.Goal().Difference(r.Reached)
	return r, nil
}

// RelaxedReachability evaluates the relaxed reachability program of problem
// from init with a fresh Datalog engine.
func RelaxedReachability(problem *pddl.Problem, init pddl.LiteralSet, cfg mangle.Config) (*Reachability, error) {
	timer := logging.StartTimer(logging.CategoryAnalysis, "relaxed reachability "+problem.String())
	defer func() {
		if cfg.QueryTimeout > 0 {
			timer.StopWithThreshold(cfg.QueryTimeout)
		} else {
			timer.Stop()
		}
	}()

	program := NewProgram(problem)
	engine, err := program.Load(init, cfg)
	if err != nil {
		return nil, err
	}
	defer engine.Close()

	r, err := program.Reached(engine)
	if err != nil {
		return nil, err
	}
	logging.Analysis("%s: %d rules, %d facts reached, goal reachable: %v",
		problem, r.Rules, r.Reached.Len(), r.GoalReachable())
	return r, nil
}
