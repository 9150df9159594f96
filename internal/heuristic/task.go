package heuristic

import "pddlenv/internal/pddl"

// Task is the delete-relaxation view of a problem: facts are numbered
// densely and operators refer to them by id.
type Task struct {
	problem   *pddl.Problem
	ids       map[string]int
	facts     []pddl.Literal
	operators []operator
	goal      []int

	// consumers[f] lists the operators having f as a precondition.
	consumers [][]int
}

type operator struct {
	action *pddl.Action
	pre    []int
	add    []int
}

// NewTask derives the task of problem. Its facts are every literal mentioned
// by a grounded action together with the goal.
func NewTask(problem *pddl.Problem) *Task {
	t := &Task{problem: problem, ids: make(map[string]int)}
	actions := problem.GroundedActions()

	for _, a := range actions {
		for _, l := range a.Literals().Sorted() {
			t.intern(l)
		}
	}
	for _, l := range problem.Goal().Sorted() {
		t.goal = append(t.goal, t.intern(l))
	}

	t.consumers = make([][]int, len(t.facts))
	t.operators = make([]operator, len(actions))
	for i, a := range actions {
		op := operator{action: a}
		for _, l := range a.Preconditions().Sorted() {
			f := t.ids[l.String()]
			op.pre = append(op.pre, f)
			t.consumers[f] = append(t.consumers[f], i)
		}
		for _, l := range a.AddEffects().Sorted() {
			op.add = append(op.add, t.ids[l.String()])
		}
		t.operators[i] = op
	}
	return t
}

func (t *Task) intern(l pddl.Literal) int {
	if id, ok := t.ids[l.String()]; ok {
		return id
	}
	id := len(t.facts)
	t.ids[l.String()] = id
	t.facts = append(t.facts, l)
	return id
}

func (t *Task) Problem() *pddl.Problem { return t.problem }

// NumFacts returns the number of task facts.
func (t *Task) NumFacts() int { return len(t.facts) }

// NumOperators returns the number of relaxed operators.
func (t *Task) NumOperators() int { return len(t.operators) }

// Facts returns the task facts in id order.
func (t *Task) Facts() []pddl.Literal { return t.facts }

// Restrict drops the literals of state that the task does not know about,
// such as static literals stripped from every precondition.
func (t *Task) Restrict(state pddl.LiteralSet) []int {
	var out []int
	for l := range state.All() {
		if id, ok := t.ids[l.String()]; ok {
			out = append(out, id)
		}
	}
	return out
}

// goalReached reports whether every goal fact is in state.
func (t *Task) goalReached(state []int) bool {
	in := make([]bool, len(t.facts))
	for _, f := range state {
		in[f] = true
	}
	for _, g := range t.goal {
		if !in[g] {
			return false
		}
	}
	return true
}
