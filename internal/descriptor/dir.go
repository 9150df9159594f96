package descriptor

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"pddlenv/internal/env"
	"pddlenv/internal/logging"
	"pddlenv/internal/pddl"
)

// LoadDir loads every .yaml or .yml document in dir in file name order.
func LoadDir(dir string, opts ...pddl.ProblemOption) ([]*Loaded, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", dir, err)
	}
	var names []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if !e.IsDir() && (ext == ".yaml" || ext == ".yml") {
			names = append(names, e.Name())
		}
	}
	slices.Sort(names)

	out := make([]*Loaded, 0, len(names))
	for _, n := range names {
		l, err := Load(filepath.Join(dir, n), opts...)
		if err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	logging.Boot("loaded %d problems from %s", len(out), dir)
	return out, nil
}

// Initializer yields the initial state of loaded[index], or of a uniformly
// drawn problem when index is negative.
func Initializer(rng *rand.Rand, loaded []*Loaded, index int) (env.StateInitializer, error) {
	if index >= len(loaded) {
		return nil, fmt.Errorf("problem index %d out of range [0, %d)", index, len(loaded))
	}
	states := make([]env.State, len(loaded))
	for i, l := range loaded {
		states[i] = l.InitialState()
	}
	if index >= 0 {
		return env.Cycle(states[index : index+1]), nil
	}
	return env.Uniform(rng, states), nil
}
