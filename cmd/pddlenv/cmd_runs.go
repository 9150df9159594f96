package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"pddlenv/internal/store"

	"github.com/spf13/cobra"
)

var (
	runsProblem string
	runsLimit   int
	runsSummary bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded search runs",
	Long: `Reads the run metrics database written by plan and tower when the store
is enabled (store.enabled in the config or PDDLENV_STORE).`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg.Store.Path == "" {
			return fmt.Errorf("no store path configured")
		}
		runs, err := store.Open(cfg.Store.Path)
		if err != nil {
			return err
		}
		defer runs.Close()
		return listRuns(cmd.OutOrStdout(), runs)
	},
}

func init() {
	runsCmd.Flags().StringVar(&runsProblem, "problem", "", "Only show runs of this problem (domain/name)")
	runsCmd.Flags().IntVarP(&runsLimit, "limit", "n", 20, "Maximum number of runs (0 = all)")
	runsCmd.Flags().BoolVar(&runsSummary, "summary", false, "Aggregate runs per algorithm")
}

func listRuns(w io.Writer, runs *store.Store) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	if runsSummary {
		sums, err := runs.Summarize()
		if err != nil {
			return err
		}
		fmt.Fprintln(tw, "ALGORITHM\tRUNS\tSOLVED\tMEAN EXPANDED")
		for _, s := range sums {
			fmt.Fprintf(tw, "%s\t%d\t%d\t%.1f\n", s.Algorithm, s.Runs, s.Solved, s.MeanExpanded)
		}
		return nil
	}

	list, err := runs.List(runsProblem, runsLimit)
	if err != nil {
		return err
	}
	fmt.Fprintln(tw, "ID\tALGORITHM\tPROBLEM\tRESULT\tPLAN\tEXPANDED\tEVALUATED\tMS")
	for _, r := range list {
		plan := "-"
		if r.Found() {
			plan = fmt.Sprint(r.PlanLength)
		}
		id := r.ID
		if len(id) > 8 {
			id = id[:8]
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\n",
			id, r.Algorithm, r.Problem, r.StopReason, plan, r.Expanded, r.Evaluated, r.ElapsedMS)
	}
	return nil
}
