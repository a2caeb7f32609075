package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"rewire/internal/scape"
	"rewire/internal/substrate"
	"rewire/internal/task"
)

func newKindsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "kinds",
		Short: "List the registered substrates, scapes and tasks",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "substrates: %s\n", strings.Join(substrate.ListKinds(), " "))
			fmt.Fprintf(out, "scapes: %s\n", strings.Join(scape.List(), " "))
			fmt.Fprintf(out, "tasks: %s\n", strings.Join(task.List(), " "))
			return nil
		},
	}
}
