package main

import (
	"context"
	"fmt"
	"io"

	"pddlenv/internal/descriptor"
	"pddlenv/internal/env"
	"pddlenv/internal/logging"
	"pddlenv/internal/search"

	"github.com/spf13/cobra"
)

var planCmd = &cobra.Command{
	Use:   "plan <file>...",
	Short: "Search for a plan for each problem descriptor",
	Long: `Loads each descriptor, rules out problems whose goal is not even
relaxed-reachable, and searches the rest concurrently with the configured
algorithm and heuristic. Found plans are replayed through the dynamics before
they are printed.

Example:
  pddlenv plan problems/tower3.yaml --heuristic hff --algorithm hill`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := commandContext(cmd)
		defer cancel()
		return planFiles(ctx, cmd.OutOrStdout(), args)
	},
}

// planFiles plans every descriptor in paths and writes a report to w.
func planFiles(ctx context.Context, w io.Writer, paths []string) error {
	runs, err := openStore()
	if err != nil {
		return err
	}
	if runs != nil {
		defer runs.Close()
	}

	h, err := newHeuristic()
	if err != nil {
		return err
	}
	searcher, err := newSearcher(h, searchLogger(runs))
	if err != nil {
		return err
	}

	var (
		loaded []*descriptor.Loaded
		states []env.State
	)
	for _, path := range paths {
		l, err := loadDescriptor(path)
		if err != nil {
			return err
		}
		r, ok, err := precheck(l)
		if err != nil {
			return err
		}
		if !ok {
			fmt.Fprintf(w, "%s: goal unreachable, missing %s\n", l.Problem, r.Missing)
			continue
		}
		loaded = append(loaded, l)
		states = append(states, l.InitialState())
	}
	if len(states) == 0 {
		return nil
	}

	timer := logging.StartTimer(logging.CategorySearch, fmt.Sprintf("%s on %d problems", searcher.Name(), len(states)))
	results, err := search.SolveAll(ctx, searcher, states, cfg.Search.Workers)
	timer.StopWithInfo()
	if err != nil {
		return err
	}

	dynamics := env.DefaultDynamics()
	for i, res := range results {
		if err := reportResult(w, dynamics, loaded[i], states[i], searcher.Name(), res); err != nil {
			return err
		}
	}
	return nil
}

func reportResult(w io.Writer, dynamics *env.Dynamics, l *descriptor.Loaded, initial env.State, algo string, res search.Result) error {
	if !res.Found {
		fmt.Fprintf(w, "%s: no plan (%s: %s after %d expanded, %d evaluated)\n",
			l.Problem, algo, res.Reason, res.Expanded, res.Evaluated)
		return nil
	}

	path, err := search.GeneratePath(dynamics, initial, res.Plan)
	if err != nil {
		return fmt.Errorf("%s: plan does not replay: %w", l.Problem, err)
	}
	if !path[len(path)-1].IsGoal() {
		return fmt.Errorf("%s: plan does not reach the goal", l.Problem)
	}

	fmt.Fprintf(w, "%s: plan found (%d steps, %d expanded, %d evaluated)\n",
		l.Problem, len(res.Plan), res.Expanded, res.Evaluated)
	for i, a := range res.Plan {
		fmt.Fprintf(w, "  %d. %s\n", i+1, a)
	}
	if l.Solution != nil && *l.Solution >= 0 && len(res.Plan) > *l.Solution {
		fmt.Fprintf(w, "  note: known solution has %d steps\n", *l.Solution)
	}
	return nil
}
