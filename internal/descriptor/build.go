package descriptor

import (
	"fmt"
	"strings"

	"pddlenv/internal/env"
	"pddlenv/internal/pddl"
)

// Build validates the spec and assembles the domain.
func (s *DomainSpec) Build() (*pddl.Domain, error) {
	types, err := s.buildTypes()
	if err != nil {
		return nil, err
	}
	typeList := make([]*pddl.Type, 0, len(types))
	typeList = append(typeList, types[RootType])
	for _, ts := range s.Types {
		if ts.Name != RootType {
			typeList = append(typeList, types[ts.Name])
		}
	}

	resolve := func(ref TypeRef) ([]*pddl.Type, error) {
		out := make([]*pddl.Type, 0, len(ref))
		for _, n := range ref {
			t, ok := types[n]
			if !ok {
				return nil, fmt.Errorf("type %s: %w", n, pddl.ErrUnknownName)
			}
			out = append(out, t)
		}
		return out, nil
	}

	preds := make(map[string]*pddl.Predicate, len(s.Predicates))
	predList := make([]*pddl.Predicate, 0, len(s.Predicates))
	for _, ps := range s.Predicates {
		args := make([][]*pddl.Type, len(ps.Params))
		for i, ref := range ps.Params {
			if args[i], err = resolve(ref); err != nil {
				return nil, fmt.Errorf("domain %s: predicate %s: %w", s.Name, ps.Name, err)
			}
		}
		p := pddl.NewPredicate(ps.Name, args...)
		preds[ps.Name] = p
		predList = append(predList, p)
	}

	actions := make([]*pddl.ActionSchema, 0, len(s.Actions))
	for _, as := range s.Actions {
		a, err := as.build(preds, resolve)
		if err != nil {
			return nil, fmt.Errorf("domain %s: %w", s.Name, err)
		}
		actions = append(actions, a)
	}

	constants := make([]pddl.Object, 0, len(s.Constants))
	for _, c := range s.Constants {
		o, err := buildObject(c, types)
		if err != nil {
			return nil, fmt.Errorf("domain %s: constant %w", s.Name, err)
		}
		constants = append(constants, o)
	}

	return pddl.NewDomain(s.Name, typeList, predList, actions, constants)
}

func (s *DomainSpec) buildTypes() (map[string]*pddl.Type, error) {
	specs := make(map[string]TypeSpec, len(s.Types))
	for _, ts := range s.Types {
		if _, dup := specs[ts.Name]; dup {
			return nil, fmt.Errorf("domain %s: type %s: %w", s.Name, ts.Name, pddl.ErrDuplicateName)
		}
		specs[ts.Name] = ts
	}

	types := map[string]*pddl.Type{RootType: pddl.NewType(RootType, nil)}
	visiting := make(map[string]bool)
	var resolve func(name string) (*pddl.Type, error)
	resolve = func(name string) (*pddl.Type, error) {
		if t, ok := types[name]; ok {
			return t, nil
		}
		ts, ok := specs[name]
		if !ok {
			return nil, fmt.Errorf("domain %s: type %s: %w", s.Name, name, pddl.ErrUnknownName)
		}
		if visiting[name] {
			return nil, fmt.Errorf("domain %s: type %s is its own ancestor", s.Name, name)
		}
		visiting[name] = true
		parent := ts.Parent
		if parent == "" {
			parent = RootType
		}
		p, err := resolve(parent)
		if err != nil {
			return nil, err
		}
		t := pddl.NewType(name, p)
		types[name] = t
		return t, nil
	}
	for _, ts := range s.Types {
		if _, err := resolve(ts.Name); err != nil {
			return nil, err
		}
	}
	return types, nil
}

func (as ActionSpec) build(preds map[string]*pddl.Predicate, resolve func(TypeRef) ([]*pddl.Type, error)) (*pddl.ActionSchema, error) {
	vars := make([]pddl.Variable, len(as.Params))
	index := make(map[string]int, len(as.Params))
	for i, p := range as.Params {
		if _, dup := index[p.Name]; dup {
			return nil, fmt.Errorf("action %s: parameter %s: %w", as.Name, p.Name, pddl.ErrDuplicateName)
		}
		ts, err := resolve(p.Type)
		if err != nil {
			return nil, fmt.Errorf("action %s: parameter %s: %w", as.Name, p.Name, err)
		}
		vars[i] = pddl.Variable{Name: p.Name, Types: ts}
		index[p.Name] = i
	}

	templates := func(lits []LiteralSpec) ([]pddl.Template, error) {
		out := make([]pddl.Template, 0, len(lits))
		for _, l := range lits {
			if len(l) == 0 {
				return nil, fmt.Errorf("action %s: empty literal", as.Name)
			}
			p, ok := preds[l[0]]
			if !ok {
				return nil, fmt.Errorf("action %s: literal %s: predicate %s: %w", as.Name, l, l[0], pddl.ErrUnknownName)
			}
			vs := make([]int, len(l)-1)
			for i, arg := range l[1:] {
				v, ok := index[arg]
				if !ok {
					if !strings.HasPrefix(arg, "?") {
						return nil, fmt.Errorf("action %s: literal %s: constant %s in action literals is not supported", as.Name, l, arg)
					}
					return nil, fmt.Errorf("action %s: literal %s: variable %s: %w", as.Name, l, arg, pddl.ErrUnboundVariable)
				}
				vs[i] = v
			}
			out = append(out, pddl.T(p, vs...))
		}
		return out, nil
	}

	pre, err := templates(as.Pre)
	if err != nil {
		return nil, err
	}
	add, err := templates(as.Add)
	if err != nil {
		return nil, err
	}
	del, err := templates(as.Del)
	if err != nil {
		return nil, err
	}
	return pddl.NewActionSchema(as.Name, vars, pre, add, del)
}

func buildObject(o ObjectSpec, types map[string]*pddl.Type) (pddl.Object, error) {
	name := o.Type
	if name == "" {
		name = RootType
	}
	t, ok := types[name]
	if !ok {
		return pddl.Object{}, fmt.Errorf("%s: type %s: %w", o.Name, name, pddl.ErrUnknownName)
	}
	return pddl.NewObject(o.Name, t), nil
}

// Loaded is a built document.
type Loaded struct {
	Domain   *pddl.Domain
	Problem  *pddl.Problem
	Init     pddl.LiteralSet
	Solution *int
}

// InitialState returns the problem's initial state.
func (l *Loaded) InitialState() env.State {
	return env.NewState(l.Init, l.Problem)
}

// Build assembles the domain and problem. The problem's static literals are
// the initial literals of static predicates.
func (d *Document) Build(opts ...pddl.ProblemOption) (*Loaded, error) {
	if d.Domain == nil {
		return nil, fmt.Errorf("problem %s: domain not resolved", d.Problem.Name)
	}
	domain, err := d.Domain.Build()
	if err != nil {
		return nil, err
	}
	problem, init, err := BuildProblem(domain, d.Problem, opts...)
	if err != nil {
		return nil, err
	}
	return &Loaded{Domain: domain, Problem: problem, Init: init, Solution: d.Solution}, nil
}

// BuildProblem assembles a problem of domain and its initial literals.
func BuildProblem(domain *pddl.Domain, spec ProblemSpec, opts ...pddl.ProblemOption) (*pddl.Problem, pddl.LiteralSet, error) {
	types := make(map[string]*pddl.Type)
	for _, t := range domain.Types() {
		types[t.Name()] = t
	}
	if _, ok := types[RootType]; !ok {
		types[RootType] = pddl.NewType(RootType, nil)
	}

	byName := make(map[string]pddl.Object)
	for _, c := range domain.Constants() {
		byName[c.Name] = c
	}
	objects := make([]pddl.Object, 0, len(spec.Objects))
	for _, obj := range spec.Objects {
		o, err := buildObject(obj, types)
		if err != nil {
			return nil, pddl.LiteralSet{}, fmt.Errorf("problem %s: object %w", spec.Name, err)
		}
		if _, dup := byName[o.Name]; dup {
			return nil, pddl.LiteralSet{}, fmt.Errorf("problem %s: object %s: %w", spec.Name, o.Name, pddl.ErrDuplicateName)
		}
		byName[o.Name] = o
		objects = append(objects, o)
	}

	ground := func(lits []LiteralSpec) ([]pddl.Literal, error) {
		out := make([]pddl.Literal, 0, len(lits))
		for _, l := range lits {
			if len(l) == 0 {
				return nil, fmt.Errorf("empty literal")
			}
			p, ok := domain.Predicate(l[0])
			if !ok {
				return nil, fmt.Errorf("literal %s: predicate %s: %w", l, l[0], pddl.ErrUnknownName)
			}
			args := make([]pddl.Object, len(l)-1)
			for i, n := range l[1:] {
				o, ok := byName[n]
				if !ok {
					return nil, fmt.Errorf("literal %s: object %s: %w", l, n, pddl.ErrUnknownName)
				}
				args[i] = o
			}
			lit, err := p.Ground(args...)
			if err != nil {
				return nil, fmt.Errorf("literal %s: %w", l, err)
			}
			out = append(out, lit)
		}
		return out, nil
	}

	init, err := ground(spec.Init)
	if err != nil {
		return nil, pddl.LiteralSet{}, fmt.Errorf("problem %s: init: %w", spec.Name, err)
	}
	goal, err := ground(spec.Goal)
	if err != nil {
		return nil, pddl.LiteralSet{}, fmt.Errorf("problem %s: goal: %w", spec.Name, err)
	}

	initSet := pddl.NewLiteralSet(init...)
	static := domain.StaticLiterals(initSet).Sorted()
	problem, err := pddl.NewProblem(spec.Name, domain, objects, goal, static, opts...)
	if err != nil {
		return nil, pddl.LiteralSet{}, err
	}
	return problem, initSet, nil
}

// Load reads and builds a document file.
func Load(path string, opts ...pddl.ProblemOption) (*Loaded, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	loaded, err := doc.Build(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return loaded, nil
}
