// rewirectl runs wiring-adaptation experiments and inspects their results.
//
// Usage:
//
//	rewirectl run --config exp.yaml [--epochs N] [--replicas N] [--seed S] [--out dir] [--store memory|sqlite] [--db-path p]
//	rewirectl automaton --file tsetlin.json
//	rewirectl legal --nodes N --edges 0-1,1-2 --anchors 4 --distance 2 [--negate]
//	rewirectl runs [--limit N] [--json]
//	rewirectl history [--run-id ID] [--replica K] [--json|--csv]
//	rewirectl report [--run-id ID] [--json]
//	rewirectl kinds
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const (
	defaultOutDir = "runs"
	defaultDBPath = "rewire.db"
)

// app carries state shared by the subcommands of one invocation.
type app struct {
	verbose bool
	logger  *zap.Logger
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	root := newRootCmd()
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	a := &app{logger: zap.NewNop()}
	root := &cobra.Command{
		Use:           "rewirectl",
		Short:         "Online wiring adaptation for substrate controllers",
		SilenceUsage:  true,
		SilenceErrors: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			config := zap.NewProductionConfig()
			if a.verbose {
				config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
			}
			logger, err := config.Build()
			if err != nil {
				return fmt.Errorf("failed to initialize logger: %w", err)
			}
			a.logger = logger
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			_ = a.logger.Sync()
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		a.newRunCmd(),
		newAutomatonCmd(),
		newLegalCmd(),
		a.newRunsCmd(),
		a.newHistoryCmd(),
		a.newReportCmd(),
		newKindsCmd(),
	)
	return root
}
