package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/varga-lab/threatscope/internal/entropy"
	"github.com/varga-lab/threatscope/internal/primitive"
	"github.com/varga-lab/threatscope/internal/scenario"
)

// newScenariosCmd lists the built-in scenario catalog.
func newScenariosCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "scenarios",
		Short: "List the built-in scenario catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			entries, err := scenario.Builtin()
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "KEY\tNAME\tTIER\tPRIMITIVES\tCOMPLEXITY")
			for _, e := range entries {
				fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.1f\n",
					e.Key, e.Scenario.Name, e.APTLevel,
					len(e.Scenario.PrimitivesRequired), e.Scenario.Complexity)
			}
			return w.Flush()
		},
	}
}

// newEntropyCmd scores an ad-hoc primitive trace given as arguments.
func newEntropyCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "entropy PRIMITIVE...",
		Short: "Compute topological entropy for an ad-hoc primitive trace",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seq, err := primitive.ParseSequence(args)
			if err != nil {
				return err
			}
			h, err := entropy.CalculateTopologicalEntropy(seq)
			if err != nil {
				return err
			}
			fmt.Printf("primitives: %d (distinct: %d)\n", len(seq), primitive.Distinct(seq))
			fmt.Printf("topological entropy: %.3f\n", h)
			return nil
		},
	}
}
