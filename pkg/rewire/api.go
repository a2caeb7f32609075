// Package rewire runs wiring-adaptation experiments and queries their
// results.
package rewire

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"rewire/internal/config"
	"rewire/internal/coupling"
	"rewire/internal/model"
	"rewire/internal/replica"
	"rewire/internal/scape"
	"rewire/internal/stats"
	"rewire/internal/storage"
	"rewire/internal/substrate"
	"rewire/internal/task"
)

const defaultDBPath = "rewire.db"

type Options struct {
	StoreKind string
	DBPath    string
	// OutputDir receives run artifacts. Empty disables them.
	OutputDir string
	Logger    *zap.Logger
}

type Client struct {
	storeKind string
	dbPath    string
	store     storage.Store
	outputDir string
	log       *zap.Logger
}

type RunSummary struct {
	RunID           string
	ArtifactsDir    string
	BestPerformance []float64
	Mean            float64
	StdDev          float64
	Histories       []*replica.History
}

// New records the options. The store is opened on first use.
func New(opts Options) (*Client, error) {
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{storeKind: opts.StoreKind, dbPath: dbPath, outputDir: opts.OutputDir, log: logger}, nil
}

func (c *Client) Close() error {
	if c.store == nil {
		return nil
	}
	err := storage.CloseIfSupported(c.store)
	c.store = nil
	return err
}

// Init opens and initializes the configured store.
func (c *Client) Init(ctx context.Context) error {
	if c.store != nil {
		return nil
	}
	store, err := storage.Open(ctx, c.storeKind, c.dbPath)
	if err != nil {
		return err
	}
	c.store = store
	return nil
}

// Run executes every replica of cfg one after another, each on its own
// substrate instance and body, then persists and exports the results.
func (c *Client) Run(ctx context.Context, cfg *config.Config) (RunSummary, error) {
	if cfg == nil {
		return RunSummary{}, errors.New("config is required")
	}
	if err := cfg.Validate(); err != nil {
		return RunSummary{}, err
	}
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}

	runID := uuid.NewString()
	created := time.Now().UTC()
	log := c.log.With(zap.String("run", runID))
	log.Info("run started",
		zap.Int("replicas", cfg.Experiment.Replicas),
		zap.Int("epochs", cfg.Experiment.Epochs),
		zap.String("task", cfg.Experiment.Task),
	)

	var shared substrate.Substrate
	if cfg.Substrate.Shared {
		var err error
		if shared, err = substrate.New(cfg.Substrate.Kind, cfg.Substrate.Datasheet); err != nil {
			return RunSummary{}, fmt.Errorf("shared substrate: %w", err)
		}
	}

	out := RunSummary{RunID: runID}
	records := make([]model.ReplicaHistory, 0, cfg.Experiment.Replicas)
	for i := 0; i < cfg.Experiment.Replicas; i++ {
		r, err := c.newReplica(cfg, i, shared, log)
		if err != nil {
			return RunSummary{}, err
		}
		if err := r.Run(ctx, cfg.Experiment.Epochs); err != nil {
			return RunSummary{}, fmt.Errorf("replica %d: %w", i, err)
		}

		record := model.NewReplicaHistory(runID, i, cfg.Experiment.Seed+int64(i), r.History())
		record.VersionedRecord = storage.Versioned()
		record.Best.VersionedRecord = storage.Versioned()
		if err := c.store.SaveHistory(ctx, record); err != nil {
			return RunSummary{}, fmt.Errorf("save replica %d history: %w", i, err)
		}
		records = append(records, record)
		out.Histories = append(out.Histories, r.History())
		out.BestPerformance = append(out.BestPerformance, r.History().BestPerformance())
		log.Info("replica finished", zap.Int("replica", i), zap.Float64("best", r.History().BestPerformance()))
	}
	out.Mean, out.StdDev = stats.MeanStdDev(out.BestPerformance)

	summary := model.RunSummary{
		VersionedRecord: storage.Versioned(),
		ID:              runID,
		CreatedAt:       created,
		Task:            cfg.Experiment.Task,
		Scape:           cfg.Experiment.Scape,
		Seed:            cfg.Experiment.Seed,
		Replicas:        cfg.Experiment.Replicas,
		Epochs:          cfg.Experiment.Epochs,
		BestPerformance: out.BestPerformance,
		Mean:            out.Mean,
		StdDev:          out.StdDev,
	}
	if err := c.store.SaveRun(ctx, summary); err != nil {
		return RunSummary{}, fmt.Errorf("save run: %w", err)
	}

	if c.outputDir != "" {
		dir, err := stats.WriteRunArtifacts(c.outputDir, stats.RunArtifacts{Summary: summary, Histories: records, CSV: cfg.Output.CSV})
		if err != nil {
			return RunSummary{}, err
		}
		if err := cfg.WriteYAML(filepath.Join(dir, "config.yaml")); err != nil {
			return RunSummary{}, err
		}
		if err := stats.AppendRunIndex(c.outputDir, stats.IndexEntry(summary)); err != nil {
			return RunSummary{}, err
		}
		out.ArtifactsDir = dir
	}
	log.Info("run finished", zap.Float64("mean", out.Mean), zap.Float64("std", out.StdDev))
	return out, nil
}

func (c *Client) newReplica(cfg *config.Config, index int, shared substrate.Substrate, log *zap.Logger) (*replica.Replica, error) {
	sub, err := replicaSubstrate(cfg, index, shared)
	if err != nil {
		return nil, fmt.Errorf("replica %d substrate: %w", index, err)
	}
	body, err := scape.New(cfg.Experiment.Scape, cfg.Corridor)
	if err != nil {
		return nil, fmt.Errorf("replica %d body: %w", index, err)
	}
	evaluators, err := task.New(cfg.Experiment.Task, body)
	if err != nil {
		return nil, fmt.Errorf("replica %d task: %w", index, err)
	}
	sensors, actuators := body.Channels()
	layout := coupling.Layout{Sensors: sensors, Actuators: actuators}
	return replica.New(index, cfg.Replica(index, layout, log), sub, body, evaluators)
}

// replicaSubstrate gives a replica a substrate instance it owns alone: a copy
// of the shared one when there is one, a freshly generated one otherwise.
func replicaSubstrate(cfg *config.Config, index int, shared substrate.Substrate) (substrate.Substrate, error) {
	if shared == nil {
		return substrate.New(cfg.Substrate.Kind, cfg.Datasheet(index))
	}
	if cloner, ok := shared.(substrate.Cloner); ok {
		return cloner.Clone(), nil
	}
	return substrate.New(cfg.Substrate.Kind, cfg.Substrate.Datasheet)
}

// Runs lists stored runs newest first, at most limit of them when limit > 0.
func (c *Client) Runs(ctx context.Context, limit int) ([]model.RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	runs, err := c.store.ListRuns(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.RunSummary, 0, len(runs))
	for i := len(runs) - 1; i >= 0; i-- {
		out = append(out, runs[i])
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

// Report aggregates every stored replica history of a run. An empty run id
// selects the latest run.
func (c *Client) Report(ctx context.Context, runID string) (stats.RunReport, error) {
	run, err := c.Summary(ctx, runID)
	if err != nil {
		return stats.RunReport{}, err
	}
	histories := make([]model.ReplicaHistory, 0, run.Replicas)
	for i := 0; i < run.Replicas; i++ {
		h, err := c.History(ctx, run.ID, i)
		if err != nil {
			return stats.RunReport{}, err
		}
		histories = append(histories, h)
	}
	return stats.NewRunReport(histories), nil
}

// Summary loads a stored run summary. An empty run id selects the latest run.
func (c *Client) Summary(ctx context.Context, runID string) (model.RunSummary, error) {
	if runID == "" {
		runs, err := c.Runs(ctx, 1)
		if err != nil {
			return model.RunSummary{}, err
		}
		if len(runs) == 0 {
			return model.RunSummary{}, errors.New("no runs available")
		}
		return runs[0], nil
	}
	if err := c.Init(ctx); err != nil {
		return model.RunSummary{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return model.RunSummary{}, err
	}
	if !ok {
		return model.RunSummary{}, fmt.Errorf("run %s not found", runID)
	}
	return run, nil
}

// History loads one replica history. An empty run id selects the latest run.
func (c *Client) History(ctx context.Context, runID string, index int) (model.ReplicaHistory, error) {
	if index < 0 {
		return model.ReplicaHistory{}, errors.New("replica index must be >= 0")
	}
	if runID == "" {
		latest, err := c.Summary(ctx, "")
		if err != nil {
			return model.ReplicaHistory{}, err
		}
		runID = latest.ID
	}
	if err := c.Init(ctx); err != nil {
		return model.ReplicaHistory{}, err
	}
	history, ok, err := c.store.GetHistory(ctx, runID, index)
	if err != nil {
		return model.ReplicaHistory{}, err
	}
	if !ok {
		return model.ReplicaHistory{}, fmt.Errorf("history not found for run %s replica %d", runID, index)
	}
	return history, nil
}
