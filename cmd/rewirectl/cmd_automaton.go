package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"rewire/internal/tsetlin"
)

func newAutomatonCmd() *cobra.Command {
	var file string
	cmd := &cobra.Command{
		Use:   "automaton",
		Short: "Validate an automaton design and print its state table",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := tsetlin.DefaultConfig()
			if file != "" {
				loaded, err := tsetlin.LoadConfig(file)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			a, err := tsetlin.New(cfg)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "states=%d main=%d tolerance=%g\n", len(a.States()), a.StateIndex(), a.Tolerance())
			w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tPHASE\tINCREASE\tDECREASE\tSTAGNATION")
			for _, s := range a.States() {
				fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\n", s.ID, s.Phase,
					s.Next[tsetlin.PerformanceIncrease], s.Next[tsetlin.PerformanceDecrease], s.Next[tsetlin.PerformanceStagnation])
			}
			return w.Flush()
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "automaton design (.json or YAML); built-in design when empty")
	return cmd
}
