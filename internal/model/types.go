package model

import (
	"time"

	"rewire/internal/coupling"
	"rewire/internal/tsetlin"
)

// VersionedRecord captures schema and codec evolution for persistent data.
type VersionedRecord struct {
	SchemaVersion int `json:"schema_version"`
	CodecVersion  int `json:"codec_version"`
}

// CouplingRecord is a coupling together with the performance it earned.
// The coupling serializes as {channel: [node, weight]}.
type CouplingRecord struct {
	VersionedRecord
	Performance float64            `json:"performance"`
	Coupling    *coupling.Coupling `json:"coupling"`
}

// EpochRecord is one entry of a replica's adaptation log.
type EpochRecord struct {
	Epoch       int                `json:"epoch"`
	Performance float64            `json:"performance"`
	Best        float64            `json:"best"`
	Phase       tsetlin.Phase      `json:"phase"`
	StateIndex  int                `json:"state_index"`
	Edge        tsetlin.Edge       `json:"edge"`
	Steps       int                `json:"steps"`
	Stopped     bool               `json:"stopped,omitempty"`
	Reconnected []string           `json:"reconnected,omitempty"`
	Reweighted  []string           `json:"reweighted,omitempty"`
	Coupling    *coupling.Coupling `json:"coupling"`
}

// ReplicaHistory is the persisted history of one replica.
type ReplicaHistory struct {
	VersionedRecord
	RunID   string         `json:"run_id"`
	Replica int            `json:"replica"`
	Seed    int64          `json:"seed"`
	Best    CouplingRecord `json:"best"`
	Epochs  []EpochRecord  `json:"epochs"`
}

// RunSummary describes a finished run across all of its replicas.
type RunSummary struct {
	VersionedRecord
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"created_at"`
	Task      string    `json:"task"`
	Scape     string    `json:"scape"`
	Seed      int64     `json:"seed"`
	Replicas  int       `json:"replicas"`
	Epochs    int       `json:"epochs"`
	// BestPerformance holds the final best performance of every replica.
	BestPerformance []float64 `json:"best_performance"`
	Mean            float64   `json:"mean"`
	StdDev          float64   `json:"std_dev"`
}
