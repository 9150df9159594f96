package heuristic

import (
	"container/heap"
	"math"
)

type combine int

const (
	combineSum combine = iota
	combineMax
)

// exploration holds the result of one relaxed cost propagation.
type exploration struct {
	cost      []float64
	supporter []int
}

type factItem struct {
	fact int
	cost float64
}

type factQueue []factItem

func (q factQueue) Len() int           { return len(q) }
func (q factQueue) Less(i, j int) bool { return q[i].cost < q[j].cost }
func (q factQueue) Swap(i, j int)      { q[i], q[j] = q[j], q[i] }
func (q *factQueue) Push(x any)        { *q = append(*q, x.(factItem)) }
func (q *factQueue) Pop() any {
	old := *q
	it := old[len(old)-1]
	*q = old[:len(old)-1]
	return it
}

// explore propagates unit operator costs from state through the relaxed
// task. Operator cost is 1 plus the sum or max of its precondition costs.
func (t *Task) explore(state []int, mode combine) exploration {
	e := exploration{
		cost:      make([]float64, len(t.facts)),
		supporter: make([]int, len(t.facts)),
	}
	for i := range e.cost {
		e.cost[i] = math.Inf(1)
		e.supporter[i] = -1
	}

	q := &factQueue{}
	for _, f := range state {
		if e.cost[f] != 0 {
			e.cost[f] = 0
			heap.Push(q, factItem{fact: f})
		}
	}

	remaining := make([]int, len(t.operators))
	acc := make([]float64, len(t.operators))
	fire := func(op int) {
		c := 1 + acc[op]
		for _, f := range t.operators[op].add {
			if c < e.cost[f] {
				e.cost[f] = c
				e.supporter[f] = op
				heap.Push(q, factItem{fact: f, cost: c})
			}
		}
	}
	for i, op := range t.operators {
		remaining[i] = len(op.pre)
		if remaining[i] == 0 {
			fire(i)
		}
	}

	for q.Len() > 0 {
		it := heap.Pop(q).(factItem)
		if it.cost > e.cost[it.fact] {
			continue
		}
		for _, op := range t.consumers[it.fact] {
			switch mode {
			case combineSum:
				acc[op] += it.cost
			case combineMax:
				acc[op] = math.Max(acc[op], it.cost)
			}
			remaining[op]--
			if remaining[op] == 0 {
				fire(op)
			}
		}
	}
	return e
}

func (t *Task) goalCost(e exploration, mode combine) float64 {
	h := 0.0
	for _, g := range t.goal {
		switch mode {
		case combineSum:
			h += e.cost[g]
		case combineMax:
			h = math.Max(h, e.cost[g])
		}
	}
	return h
}

// hadd is the additive heuristic.
func hadd(t *Task) Func {
	return func(state []int) float64 {
		return t.goalCost(t.explore(state, combineSum), combineSum)
	}
}

// hmax is the max heuristic. It is admissible.
func hmax(t *Task) Func {
	return func(state []int) float64 {
		return t.goalCost(t.explore(state, combineMax), combineMax)
	}
}

// hff counts the operators of a relaxed plan built from additive best
// supporters.
func hff(t *Task) Func {
	return func(state []int) float64 {
		e := t.explore(state, combineSum)
		for _, g := range t.goal {
			if math.IsInf(e.cost[g], 1) {
				return math.Inf(1)
			}
		}

		plan := make(map[int]struct{})
		marked := make([]bool, len(t.facts))
		stack := append([]int(nil), t.goal...)
		for len(stack) > 0 {
			f := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if marked[f] {
				continue
			}
			marked[f] = true
			op := e.supporter[f]
			if op < 0 {
				continue
			}
			if _, seen := plan[op]; seen {
				continue
			}
			plan[op] = struct{}{}
			stack = append(stack, t.operators[op].pre...)
		}
		return float64(len(plan))
	}
}

func blind(t *Task) Func {
	return func(state []int) float64 {
		if t.goalReached(state) {
			return 0
		}
		return 1
	}
}

func goalCount(t *Task) Func {
	return func(state []int) float64 {
		in := make(map[int]struct{}, len(state))
		for _, f := range state {
			in[f] = struct{}{}
		}
		missing := 0
		for _, g := range t.goal {
			if _, ok := in[g]; !ok {
				missing++
			}
		}
		return float64(missing)
	}
}
