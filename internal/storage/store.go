package storage

import (
	"context"

	"rewire/internal/model"
)

// Store persists run summaries and per-replica adaptation histories.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunSummary) error
	GetRun(ctx context.Context, id string) (model.RunSummary, bool, error)
	// ListRuns returns runs ordered by creation time, oldest first.
	ListRuns(ctx context.Context) ([]model.RunSummary, error)
	SaveHistory(ctx context.Context, history model.ReplicaHistory) error
	GetHistory(ctx context.Context, runID string, replica int) (model.ReplicaHistory, bool, error)
}
