package generators

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"sync"

	"pddlenv/internal/descriptor"
	"pddlenv/internal/logging"
	"pddlenv/internal/pddl"
)

// ErrNotBlocksWorld is returned when a problem lacks the blocks world
// vocabulary.
var ErrNotBlocksWorld = errors.New("not a blocks world problem")

const blockType = "block"

var blocksPredicates = []string{"on", "ontable", "clear", "handempty"}

// SingleTowerGenerator yields blocks world problems whose goal stacks every
// block into one tower b0 on b1 on b2 and so on.
type SingleTowerGenerator struct {
	MinBlocks, MaxBlocks int
	// RoundRobin cycles block counts from MinBlocks to MaxBlocks even when
	// an rng is supplied.
	RoundRobin bool

	domain *pddl.Domain

	mu       sync.Mutex
	problems map[int]*pddl.Problem
}

// NewSingleTowerGenerator uses the embedded blocks domain.
func NewSingleTowerGenerator(minBlocks, maxBlocks int, roundRobin bool) (*SingleTowerGenerator, error) {
	if minBlocks < 1 || maxBlocks < minBlocks {
		return nil, fmt.Errorf("invalid block range [%d, %d]", minBlocks, maxBlocks)
	}
	domain, err := descriptor.Blocks()
	if err != nil {
		return nil, err
	}
	return &SingleTowerGenerator{
		MinBlocks:  minBlocks,
		MaxBlocks:  maxBlocks,
		RoundRobin: roundRobin,
		domain:     domain,
		problems:   make(map[int]*pddl.Problem),
	}, nil
}

// Domain returns the blocks domain problems are built from.
func (g *SingleTowerGenerator) Domain() *pddl.Domain { return g.domain }

// Stream implements ProblemSampler. Block counts are drawn uniformly when
// rng is non-nil and RoundRobin is unset.
func (g *SingleTowerGenerator) Stream(rng *rand.Rand) ProblemStream {
	if g.RoundRobin {
		rng = nil
	}
	span := g.MaxBlocks - g.MinBlocks + 1
	n := g.MinBlocks
	return func() (*pddl.Problem, error) {
		count := n
		if rng != nil {
			count = g.MinBlocks + rng.IntN(span)
		} else {
			n = g.MinBlocks + (n-g.MinBlocks+1)%span
		}
		return g.Problem(count)
	}
}

// EnumerateProblems cycles through every block count in order.
func (g *SingleTowerGenerator) EnumerateProblems() ProblemStream {
	return g.Stream(nil)
}

// Problem returns the cached tower problem with n blocks.
func (g *SingleTowerGenerator) Problem(n int) (*pddl.Problem, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if p, ok := g.problems[n]; ok {
		return p, nil
	}

	block, _ := g.domain.Type(blockType)
	on, _ := g.domain.Predicate("on")
	blocks := make([]pddl.Object, n)
	for i := range blocks {
		blocks[i] = pddl.NewObject("b"+strconv.Itoa(i), block)
	}
	goal := make([]pddl.Literal, 0, n-1)
	for i := 0; i+1 < n; i++ {
		l, err := on.Ground(blocks[i], blocks[i+1])
		if err != nil {
			return nil, err
		}
		goal = append(goal, l)
	}

	p, err := pddl.NewProblem("tower"+strconv.Itoa(n), g.domain, blocks, goal, nil)
	if err != nil {
		return nil, err
	}
	g.problems[n] = p
	logging.EnvDebug("generated %s with %d blocks", p, n)
	return p, nil
}

// ClearSampler starts every block clear on the table with the hand empty.
type ClearSampler struct{}

// Sample implements LiteralsSampler.
func (ClearSampler) Sample(problem *pddl.Problem, _ *rand.Rand) (pddl.LiteralSet, error) {
	domain := problem.Domain()
	block, ok := domain.Type(blockType)
	if !ok {
		return pddl.LiteralSet{}, fmt.Errorf("%s: missing type %s: %w", problem, blockType, ErrNotBlocksWorld)
	}
	preds := make(map[string]*pddl.Predicate, len(blocksPredicates))
	for _, name := range blocksPredicates {
		p, ok := domain.Predicate(name)
		if !ok {
			return pddl.LiteralSet{}, fmt.Errorf("%s: missing predicate %s (need %v): %w",
				problem, name, blocksPredicates, ErrNotBlocksWorld)
		}
		preds[name] = p
	}

	var lits []pddl.Literal
	ground := func(p *pddl.Predicate, args ...pddl.Object) error {
		l, err := p.Ground(args...)
		if err != nil {
			return fmt.Errorf("%s: %w", problem, err)
		}
		lits = append(lits, l)
		return nil
	}
	for _, b := range problem.ObjectMap().Lookup(block) {
		if err := ground(preds["clear"], b); err != nil {
			return pddl.LiteralSet{}, err
		}
		if err := ground(preds["ontable"], b); err != nil {
			return pddl.LiteralSet{}, err
		}
	}
	if err := ground(preds["handempty"]); err != nil {
		return pddl.LiteralSet{}, err
	}
	return pddl.NewLiteralSet(lits...), nil
}
