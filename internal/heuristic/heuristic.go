// Package heuristic estimates goal distance for planning states. Heuristics
// are computed on the delete relaxation of a problem and wrapped with
// per-problem and per-state memoization.
package heuristic

import (
	"errors"
	"fmt"
	"maps"
	"math"
	"slices"
	"sync"

	"pddlenv/internal/logging"
	"pddlenv/internal/pddl"

	"github.com/golang/groupcache/lru"
)

// ErrUnknownHeuristic is returned for a name missing from the registry.
var ErrUnknownHeuristic = errors.New("unknown heuristic")

// Func evaluates a state, given as task fact ids, for the task it was built
// from.
type Func func(state []int) float64

// Factory builds a heuristic function for a task.
type Factory func(*Task) Func

var registry = map[string]Factory{
	"hadd":      hadd,
	"hmax":      hmax,
	"hff":       hff,
	"blind":     blind,
	"goalcount": goalCount,
}

// Names lists the registered heuristics.
func Names() []string {
	return slices.Sorted(maps.Keys(registry))
}

// Unbounded disables eviction when passed as a cache size.
const Unbounded = -1

// Options configures a Heuristic.
type Options struct {
	// Discount, when in (0, 1), maps h to (1 - d^h) / (1 - d). Zero means 1.
	Discount float64
	// FunctionCacheSize bounds the number of problems whose heuristic
	// function is kept. 0 disables the cache, Unbounded keeps everything.
	FunctionCacheSize int
	// ValueCacheSize bounds the number of memoized (problem, facts) values.
	ValueCacheSize int
}

// DefaultOptions keeps functions for a handful of problems and no values.
func DefaultOptions() Options {
	return Options{Discount: 1, FunctionCacheSize: 8, ValueCacheSize: 0}
}

// Heuristic is a named, memoizing heuristic. It is safe for concurrent use.
type Heuristic struct {
	name     string
	factory  Factory
	discount float64

	mu        sync.Mutex
	functions *lru.Cache
	values    *lru.Cache
}

type valueKey struct {
	problem *pddl.Problem
	facts   string
}

// New looks up name in the registry.
func New(name string, opts Options) (*Heuristic, error) {
	factory, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("%q (known: %v): %w", name, Names(), ErrUnknownHeuristic)
	}
	if opts.Discount == 0 {
		opts.Discount = 1
	}
	if opts.Discount < 0 || opts.Discount > 1 {
		return nil, fmt.Errorf("heuristic %s: discount %v outside (0, 1]", name, opts.Discount)
	}
	return &Heuristic{
		name:      name,
		factory:   factory,
		discount:  opts.Discount,
		functions: newCache(opts.FunctionCacheSize),
		values:    newCache(opts.ValueCacheSize),
	}, nil
}

// Must is New for fixtures; it panics on error.
func Must(name string, opts Options) *Heuristic {
	h, err := New(name, opts)
	if err != nil {
		panic(err)
	}
	return h
}

func newCache(size int) *lru.Cache {
	switch {
	case size == 0:
		return nil
	case size < 0:
		return lru.New(0)
	default:
		return lru.New(size)
	}
}

func (h *Heuristic) Name() string { return h.name }

// Evaluate estimates the distance from facts to the goal of problem.
func (h *Heuristic) Evaluate(facts pddl.LiteralSet, problem *pddl.Problem) float64 {
	key := valueKey{problem: problem}
	if h.values != nil {
		key.facts = facts.Key()
		h.mu.Lock()
		v, ok := h.values.Get(key)
		h.mu.Unlock()
		if ok {
			return v.(float64)
		}
	}

	fn, task := h.function(problem)
	value := h.applyDiscount(fn(task.Restrict(facts)))

	if h.values != nil {
		h.mu.Lock()
		h.values.Add(key, value)
		h.mu.Unlock()
	}
	return value
}

type boundFunc struct {
	fn   Func
	task *Task
}

func (h *Heuristic) function(problem *pddl.Problem) (Func, *Task) {
	if h.functions != nil {
		h.mu.Lock()
		v, ok := h.functions.Get(problem)
		h.mu.Unlock()
		if ok {
			b := v.(boundFunc)
			return b.fn, b.task
		}
	}

	timer := logging.StartTimer(logging.CategoryHeuristic, "task "+problem.String())
	task := NewTask(problem)
	fn := h.factory(task)
	timer.Stop()
	logging.HeuristicDebug("%s for %s: %d facts, %d operators",
		h.name, problem, task.NumFacts(), task.NumOperators())

	if h.functions != nil {
		h.mu.Lock()
		h.functions.Add(problem, boundFunc{fn: fn, task: task})
		h.mu.Unlock()
	}
	return fn, task
}

func (h *Heuristic) applyDiscount(v float64) float64 {
	if h.discount >= 1 {
		return v
	}
	return (1 - math.Pow(h.discount, v)) / (1 - h.discount)
}
