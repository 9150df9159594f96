// Package generators produces planning problems and initial states
// procedurally, for training loops that need an endless supply of episodes.
package generators

import (
	"math/rand/v2"

	"pddlenv/internal/env"
	"pddlenv/internal/pddl"
)

// ProblemStream returns the next problem of an unbounded sequence.
type ProblemStream func() (*pddl.Problem, error)

// ProblemSampler creates problem streams. A nil rng asks for the sampler's
// deterministic order.
type ProblemSampler interface {
	Stream(rng *rand.Rand) ProblemStream
}

// LiteralsSampler draws initial facts for a problem.
type LiteralsSampler interface {
	Sample(problem *pddl.Problem, rng *rand.Rand) (pddl.LiteralSet, error)
}

// AsStateInitializer combines a problem sampler and a literals sampler into
// a state stream. Problems and literals draw from independent generators
// derived from seed. A reset problem is used instead of drawing a new one.
func AsStateInitializer(seed uint64, problems ProblemSampler, literals LiteralsSampler) env.StateInitializer {
	problemRNG := rand.New(rand.NewPCG(seed, 0))
	literalsRNG := rand.New(rand.NewPCG(seed, 1))
	next := problems.Stream(problemRNG)

	return env.InitializerFunc(func(reset *pddl.Problem) (env.State, error) {
		problem := reset
		if problem == nil {
			var err error
			if problem, err = next(); err != nil {
				return env.State{}, err
			}
		}
		facts, err := literals.Sample(problem, literalsRNG)
		if err != nil {
			return env.State{}, err
		}
		return env.NewState(facts, problem), nil
	})
}
