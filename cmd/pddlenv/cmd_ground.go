package main

import (
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"pddlenv/internal/array"
	"pddlenv/internal/pddl"

	"github.com/spf13/cobra"
)

var (
	listActions bool
	showDense   bool
)

var groundCmd = &cobra.Command{
	Use:   "ground <file>",
	Short: "Ground a problem and summarize its actions",
	Long: `Grounds every action schema of the problem, dropping assignments that
contradict its static literals, and prints a summary. With --list every
grounded action is printed with its preconditions and effects.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return groundFile(cmd.OutOrStdout(), args[0])
	},
}

var encodeCmd = &cobra.Command{
	Use:   "encode <file>",
	Short: "Print the array encoding of the initial state and goal",
	Long: `Indexes the initial state (slot 0) and the goal (slot 1) over the problem's
objects and predicates and prints the per-arity shapes, the raveled offsets and,
with --dense, the flattened binary encoding.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return encodeFile(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	groundCmd.Flags().BoolVar(&listActions, "list", false, "List every grounded action")
	encodeCmd.Flags().BoolVar(&showDense, "dense", false, "Also print the flat dense encoding")
}

func groundFile(w io.Writer, path string) error {
	l, err := loadDescriptor(path)
	if err != nil {
		return err
	}
	p := l.Problem
	actions := p.GroundedActions()

	fmt.Fprintf(w, "problem:  %s\n", p)
	fmt.Fprintf(w, "objects:  %d\n", p.ObjectMap().Len())
	fmt.Fprintf(w, "static:   %s\n", predicateNames(p.Domain().StaticPredicates()))
	fmt.Fprintf(w, "actions:  %d grounded from %d schemas\n", len(actions), len(p.Domain().Actions()))
	fmt.Fprintf(w, "valid:    %d in the initial state\n", len(p.ValidActions(l.Init)))

	if listActions {
		for _, a := range actions {
			fmt.Fprintf(w, "%s\n  pre %s\n  add %s\n  del %s\n", a, a.Preconditions(), a.AddEffects(), a.DelEffects())
		}
	}
	return nil
}

func predicateNames(preds []*pddl.Predicate) string {
	if len(preds) == 0 {
		return "-"
	}
	names := make([]string, len(preds))
	for i, p := range preds {
		names[i] = p.Name()
	}
	return strings.Join(names, " ")
}

func encodeFile(w io.Writer, path string) error {
	l, err := loadDescriptor(path)
	if err != nil {
		return err
	}
	p := l.Problem
	sets := []pddl.LiteralSet{l.Init, p.Goal()}

	spec := array.NewLiteralArray(p.Domain().Name(), p.Predicates())
	for _, k := range slices.Sorted(maps.Keys(spec.Shape)) {
		fmt.Fprintf(w, "arity %d: %v\n", k, spec.Shape[k])
	}

	indices, shapes, err := array.LiteralSetIndices(sets, p)
	if err != nil {
		return err
	}
	flat, err := array.Ravel(indices, shapes)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "shapes: %s (total %d)\n", shapes, shapes.Total())
	for slot, name := range []string{"init", "goal"} {
		var offsets []int
		for i := range flat.Len() {
			if flat.Slot[i] == slot {
				offsets = append(offsets, flat.Offset[i])
			}
		}
		fmt.Fprintf(w, "%s: %v\n", name, offsets)
	}

	if showDense {
		dense, err := array.ToFlatDenseBinary(sets, p)
		if err != nil {
			return err
		}
		for slot, row := range dense {
			fmt.Fprintf(w, "dense[%d]: %v\n", slot, row)
		}
	}
	return nil
}
