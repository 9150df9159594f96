package main

import (
	"fmt"

	"pddlenv/internal/analysis"
	"pddlenv/internal/descriptor"
	"pddlenv/internal/env"
	"pddlenv/internal/heuristic"
	"pddlenv/internal/logging"
	"pddlenv/internal/pddl"
	"pddlenv/internal/search"
	"pddlenv/internal/store"
)

func loadDescriptor(path string) (*descriptor.Loaded, error) {
	loaded, err := descriptor.Load(path, pddl.WithGroundingWorkers(cfg.Grounding.Workers))
	if err != nil {
		return nil, err
	}
	logging.BootDebug("loaded %s from %s", loaded.Problem, path)
	return loaded, nil
}

func newHeuristic() (*heuristic.Heuristic, error) {
	return heuristic.New(cfg.Heuristic.Name, cfg.HeuristicOptions())
}

func newSearcher(h env.Heuristic, log search.Logger) (search.Searcher, error) {
	switch cfg.Search.Algorithm {
	case "gbfs":
		return &search.GreedyBestFirst{Heuristic: h, Limits: cfg.SearchLimits(), Logger: log}, nil
	case "hill":
		return &search.HillClimbing{
			Heuristic:    h,
			Limits:       cfg.SearchLimits(),
			Logger:       log,
			DetectMinima: cfg.Search.DetectMinima,
		}, nil
	default:
		return nil, fmt.Errorf("unknown search algorithm %q", cfg.Search.Algorithm)
	}
}

// openStore opens the run store when enabled; it returns nil otherwise.
func openStore() (*store.Store, error) {
	if !cfg.Store.Enabled {
		return nil, nil
	}
	return store.Open(cfg.Store.Path)
}

// metricsLogger fans search metrics out to several loggers.
type metricsLogger []search.Logger

func (m metricsLogger) Write(metrics map[string]any) {
	for _, l := range m {
		l.Write(metrics)
	}
}

// searchLogger writes metrics to the search log category and, when given,
// the run store.
func searchLogger(runs *store.Store) search.Logger {
	loggers := metricsLogger{logging.Get(logging.CategorySearch)}
	if runs != nil {
		loggers = append(loggers, runs)
	}
	return loggers
}

// precheck runs relaxed reachability when analysis is enabled and reports
// whether search is worthwhile.
func precheck(loaded *descriptor.Loaded) (*analysis.Reachability, bool, error) {
	if !cfg.Analysis.Enabled {
		return nil, true, nil
	}
	r, err := analysis.RelaxedReachability(loaded.Problem, loaded.Init, cfg.Analysis.MangleConfig())
	if err != nil {
		return nil, false, err
	}
	return r, r.GoalReachable(), nil
}
