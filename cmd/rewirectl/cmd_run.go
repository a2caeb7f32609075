package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"rewire/internal/config"
	"rewire/pkg/rewire"
)

type runFlags struct {
	configPath string
	epochs     int
	replicas   int
	seed       int64
	outDir     string
	store      string
	dbPath     string
}

func (a *app) newRunCmd() *cobra.Command {
	var flags runFlags
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run an experiment and store its histories",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.runRun(cmd, flags)
		},
	}
	f := cmd.Flags()
	f.StringVar(&flags.configPath, "config", "", "experiment YAML (defaults when empty)")
	f.IntVar(&flags.epochs, "epochs", 0, "override experiment.epochs")
	f.IntVar(&flags.replicas, "replicas", 0, "override experiment.replicas")
	f.Int64Var(&flags.seed, "seed", 0, "override experiment.seed")
	f.StringVar(&flags.outDir, "out", "", "override output.directory")
	f.StringVar(&flags.store, "store", "", "override output.store (memory|sqlite)")
	f.StringVar(&flags.dbPath, "db-path", "", "override output.db_path")
	return cmd
}

func (a *app) runRun(cmd *cobra.Command, flags runFlags) error {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return err
	}
	f := cmd.Flags()
	if f.Changed("epochs") {
		cfg.Experiment.Epochs = flags.epochs
	}
	if f.Changed("replicas") {
		cfg.Experiment.Replicas = flags.replicas
	}
	if f.Changed("seed") {
		cfg.Experiment.Seed = flags.seed
	}
	if f.Changed("out") {
		cfg.Output.Directory = flags.outDir
	}
	if f.Changed("store") {
		cfg.Output.Store = flags.store
	}
	if f.Changed("db-path") {
		cfg.Output.DBPath = flags.dbPath
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	client, err := rewire.New(rewire.Options{
		StoreKind: cfg.Output.Store,
		DBPath:    cfg.Output.DBPath,
		OutputDir: cfg.Output.Directory,
		Logger:    a.logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	summary, err := client.Run(cmd.Context(), cfg)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "run_id=%s replicas=%d epochs=%d\n", summary.RunID, cfg.Experiment.Replicas, cfg.Experiment.Epochs)
	for i, best := range summary.BestPerformance {
		fmt.Fprintf(out, "replica=%d best=%.4f\n", i, best)
	}
	fmt.Fprintf(out, "mean=%.4f std=%.4f\n", summary.Mean, summary.StdDev)
	if summary.ArtifactsDir != "" {
		fmt.Fprintf(out, "artifacts=%s\n", summary.ArtifactsDir)
	}
	return nil
}
