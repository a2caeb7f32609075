package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"rewire/internal/model"
	"rewire/internal/stats"
	"rewire/internal/storage"
	"rewire/internal/tsetlin"
	"rewire/pkg/rewire"
)

// sourceFlags choose where finished runs are read from. The memory store does
// not outlive the process, so it reads the exported artifacts instead.
type sourceFlags struct {
	store  string
	dbPath string
	outDir string
}

func (s *sourceFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&s.store, "store", storage.MemoryStoreKind, "run store (memory reads --out artifacts)")
	f.StringVar(&s.dbPath, "db-path", defaultDBPath, "sqlite database path")
	f.StringVar(&s.outDir, "out", defaultOutDir, "artifacts directory")
}

func (s sourceFlags) fromArtifacts() bool {
	kind := strings.ToLower(strings.TrimSpace(s.store))
	return kind == "" || kind == storage.MemoryStoreKind
}

func (a *app) newRunsCmd() *cobra.Command {
	var (
		source sourceFlags
		limit  int
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List finished runs, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return errors.New("limit must be >= 0")
			}
			entries, err := a.listRuns(cmd, source, limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, entries)
			}
			if len(entries) == 0 {
				fmt.Fprintln(out, "no runs found")
				return nil
			}
			for _, e := range entries {
				fmt.Fprintf(out, "run_id=%s created_at=%s task=%s scape=%s replicas=%d epochs=%d seed=%d mean=%.4f\n",
					e.RunID, e.CreatedAtUTC, e.Task, e.Scape, e.Replicas, e.Epochs, e.Seed, e.Mean)
			}
			return nil
		},
	}
	source.register(cmd)
	cmd.Flags().IntVar(&limit, "limit", 0, "max runs to list (0 lists all)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) listRuns(cmd *cobra.Command, source sourceFlags, limit int) ([]stats.RunIndexEntry, error) {
	if source.fromArtifacts() {
		entries, err := stats.ListRunIndex(source.outDir)
		if err != nil {
			return nil, err
		}
		if limit > 0 && len(entries) > limit {
			entries = entries[:limit]
		}
		return entries, nil
	}

	client, err := a.openClient(source)
	if err != nil {
		return nil, err
	}
	defer client.Close()
	runs, err := client.Runs(cmd.Context(), limit)
	if err != nil {
		return nil, err
	}
	entries := make([]stats.RunIndexEntry, 0, len(runs))
	for _, run := range runs {
		entries = append(entries, stats.IndexEntry(run))
	}
	return entries, nil
}

func (a *app) newHistoryCmd() *cobra.Command {
	var (
		source  sourceFlags
		runID   string
		replica int
		asJSON  bool
		asCSV   bool
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Print the adaptation log of one replica",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if replica < 0 {
				return errors.New("replica must be >= 0")
			}
			if asJSON && asCSV {
				return errors.New("--json and --csv are exclusive")
			}
			record, err := a.loadHistory(cmd, source, runID, replica)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			switch {
			case asJSON:
				return writeJSON(out, record)
			case asCSV:
				rows, ok, err := stats.ReadReplicaEpochs(source.outDir, record.RunID, replica)
				if err != nil {
					return err
				}
				if !ok {
					return fmt.Errorf("run %s has no epoch table under %s", record.RunID, source.outDir)
				}
				return gocsv.Marshal(&rows, out)
			}

			history, err := record.Restore()
			if err != nil {
				return fmt.Errorf("restore history: %w", err)
			}
			fmt.Fprintf(out, "run_id=%s replica=%d seed=%d best=%.4f\n", record.RunID, record.Replica, record.Seed, history.BestPerformance())
			for _, e := range history.Log() {
				fmt.Fprintf(out, "epoch=%d phase=%s state=%d edge=%s performance=%.4f best=%.4f steps=%d reconnected=%d reweighted=%d\n",
					e.Epoch, e.Phase, e.StateIndex, e.Edge, e.Performance, e.Best, e.Steps, len(e.Mutation.Reconnected), len(e.Mutation.Reweighted))
			}
			best := history.Best()
			for _, ch := range best.Channels() {
				b, _ := best.Binding(ch)
				fmt.Fprintf(out, "best channel=%s node=%d weight=%.4f\n", ch, b.Node, b.Weight)
			}
			return nil
		},
	}
	source.register(cmd)
	cmd.Flags().StringVar(&runID, "run-id", "", "run id (latest when empty)")
	cmd.Flags().IntVar(&replica, "replica", 0, "replica index")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	cmd.Flags().BoolVar(&asCSV, "csv", false, "print the replica's rows of the exported epoch table")
	return cmd
}

func (a *app) newReportCmd() *cobra.Command {
	var (
		source sourceFlags
		runID  string
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Print the mean performance curve and phase occupancy of a run",
		RunE: func(cmd *cobra.Command, _ []string) error {
			summary, report, err := a.loadReport(cmd, source, runID)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, struct {
					Summary model.RunSummary `json:"summary"`
					stats.RunReport
				}{summary, report})
			}
			fmt.Fprintf(out, "run_id=%s task=%s scape=%s replicas=%d epochs=%d mean=%.4f std=%.4f\n",
				summary.ID, summary.Task, summary.Scape, summary.Replicas, summary.Epochs, summary.Mean, summary.StdDev)
			for _, p := range report.Curve {
				fmt.Fprintf(out, "epoch=%d mean=%.4f std=%.4f\n", p.Epoch, p.Mean, p.StdDev)
			}
			for _, phase := range []tsetlin.Phase{tsetlin.Exploration, tsetlin.Operation, tsetlin.Adaptation} {
				fmt.Fprintf(out, "phase=%s epochs=%d\n", phase, report.Phases[phase])
			}
			return nil
		},
	}
	source.register(cmd)
	cmd.Flags().StringVar(&runID, "run-id", "", "run id (latest when empty)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON")
	return cmd
}

func (a *app) loadReport(cmd *cobra.Command, source sourceFlags, runID string) (model.RunSummary, stats.RunReport, error) {
	if source.fromArtifacts() {
		if runID == "" {
			latest, err := latestArtifactRun(source.outDir)
			if err != nil {
				return model.RunSummary{}, stats.RunReport{}, err
			}
			runID = latest
		}
		summary, ok, err := stats.ReadRunSummary(source.outDir, runID)
		if err != nil {
			return model.RunSummary{}, stats.RunReport{}, err
		}
		if !ok {
			return model.RunSummary{}, stats.RunReport{}, fmt.Errorf("run %s not found under %s", runID, source.outDir)
		}
		report, ok, err := stats.ReadRunReport(source.outDir, runID)
		if err != nil {
			return model.RunSummary{}, stats.RunReport{}, err
		}
		if !ok {
			return model.RunSummary{}, stats.RunReport{}, fmt.Errorf("report not found for run %s", runID)
		}
		return summary, report, nil
	}

	client, err := a.openClient(source)
	if err != nil {
		return model.RunSummary{}, stats.RunReport{}, err
	}
	defer client.Close()
	summary, err := client.Summary(cmd.Context(), runID)
	if err != nil {
		return model.RunSummary{}, stats.RunReport{}, err
	}
	report, err := client.Report(cmd.Context(), summary.ID)
	if err != nil {
		return model.RunSummary{}, stats.RunReport{}, err
	}
	return summary, report, nil
}

func latestArtifactRun(outDir string) (string, error) {
	entries, err := stats.ListRunIndex(outDir)
	if err != nil {
		return "", err
	}
	if len(entries) == 0 {
		return "", errors.New("no runs available")
	}
	return entries[0].RunID, nil
}

func (a *app) loadHistory(cmd *cobra.Command, source sourceFlags, runID string, replica int) (model.ReplicaHistory, error) {
	if !source.fromArtifacts() {
		client, err := a.openClient(source)
		if err != nil {
			return model.ReplicaHistory{}, err
		}
		defer client.Close()
		return client.History(cmd.Context(), runID, replica)
	}

	if runID == "" {
		latest, err := latestArtifactRun(source.outDir)
		if err != nil {
			return model.ReplicaHistory{}, err
		}
		runID = latest
	}
	history, ok, err := stats.ReadReplicaHistory(source.outDir, runID, replica)
	if err != nil {
		return model.ReplicaHistory{}, err
	}
	if !ok {
		return model.ReplicaHistory{}, fmt.Errorf("history not found for run %s replica %d", runID, replica)
	}
	return history, nil
}

func (a *app) openClient(source sourceFlags) (*rewire.Client, error) {
	return rewire.New(rewire.Options{
		StoreKind: source.store,
		DBPath:    source.dbPath,
		Logger:    a.logger,
	})
}

func writeJSON(w io.Writer, value any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(value)
}
