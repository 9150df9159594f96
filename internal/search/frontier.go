package search

import (
	"container/heap"

	"pddlenv/internal/env"
)

type candidate struct {
	value float64
	seq   int
	state env.State
}

// frontier is a min-heap on heuristic value. Ties go to the earlier push.
type frontier struct {
	items []candidate
	next  int
}

func (f *frontier) Len() int { return len(f.items) }

func (f *frontier) Less(i, j int) bool {
	a, b := f.items[i], f.items[j]
	if a.value != b.value {
		return a.value < b.value
	}
	return a.seq < b.seq
}

func (f *frontier) Swap(i, j int) { f.items[i], f.items[j] = f.items[j], f.items[i] }

func (f *frontier) Push(x any) { f.items = append(f.items, x.(candidate)) }

func (f *frontier) Pop() any {
	n := len(f.items)
	it := f.items[n-1]
	f.items = f.items[:n-1]
	return it
}

func (f *frontier) push(value float64, s env.State) {
	heap.Push(f, candidate{value: value, seq: f.next, state: s})
	f.next++
}

func (f *frontier) pop() candidate {
	return heap.Pop(f).(candidate)
}

func (f *frontier) reset() {
	f.items = f.items[:0]
}
