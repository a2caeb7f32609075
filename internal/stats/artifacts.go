package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"rewire/internal/model"
)

const (
	runIndexFile   = "run_index.json"
	summaryFile    = "summary.json"
	epochsFile     = "epochs.csv"
	bestFile       = "best_couplings.json"
	reportFile     = "report.json"
	historyPattern = "replica_%d.json"
)

// RunArtifacts is everything written for one finished run.
type RunArtifacts struct {
	Summary   model.RunSummary
	Histories []model.ReplicaHistory
	// CSV enables the per-epoch table.
	CSV bool
}

type RunIndexEntry struct {
	RunID        string  `json:"run_id"`
	Task         string  `json:"task"`
	Scape        string  `json:"scape"`
	Replicas     int     `json:"replicas"`
	Epochs       int     `json:"epochs"`
	Seed         int64   `json:"seed"`
	Mean         float64 `json:"mean"`
	CreatedAtUTC string  `json:"created_at_utc"`
}

// IndexEntry derives the index line of a finished run.
func IndexEntry(run model.RunSummary) RunIndexEntry {
	return RunIndexEntry{
		RunID:        run.ID,
		Task:         run.Task,
		Scape:        run.Scape,
		Replicas:     run.Replicas,
		Epochs:       run.Epochs,
		Seed:         run.Seed,
		Mean:         run.Mean,
		CreatedAtUTC: run.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

// BestCoupling pairs a replica with its best coupling.
type BestCoupling struct {
	Replica int                  `json:"replica"`
	Best    model.CouplingRecord `json:"best"`
}

// WriteRunArtifacts writes the run summary, one history file per replica,
// the best couplings, the run report and optionally the epoch table under
// baseDir/<run id>.
func WriteRunArtifacts(baseDir string, artifacts RunArtifacts) (string, error) {
	if artifacts.Summary.ID == "" {
		return "", fmt.Errorf("run id is required")
	}

	runDir := filepath.Join(baseDir, artifacts.Summary.ID)
	if err := os.MkdirAll(runDir, 0o755); err != nil {
		return "", err
	}

	if err := writeJSON(filepath.Join(runDir, summaryFile), artifacts.Summary); err != nil {
		return "", err
	}
	best := make([]BestCoupling, 0, len(artifacts.Histories))
	for _, h := range artifacts.Histories {
		if err := writeJSON(filepath.Join(runDir, fmt.Sprintf(historyPattern, h.Replica)), h); err != nil {
			return "", err
		}
		best = append(best, BestCoupling{Replica: h.Replica, Best: h.Best})
	}
	if err := writeJSON(filepath.Join(runDir, bestFile), best); err != nil {
		return "", err
	}
	if err := writeJSON(filepath.Join(runDir, reportFile), NewRunReport(artifacts.Histories)); err != nil {
		return "", err
	}
	if artifacts.CSV {
		if err := WriteEpochCSV(filepath.Join(runDir, epochsFile), EpochRows(artifacts.Histories...)); err != nil {
			return "", err
		}
	}
	return runDir, nil
}

func ReadRunSummary(baseDir, runID string) (model.RunSummary, bool, error) {
	var summary model.RunSummary
	ok, err := readJSON(filepath.Join(baseDir, runID, summaryFile), &summary)
	return summary, ok, err
}

func ReadRunReport(baseDir, runID string) (RunReport, bool, error) {
	var report RunReport
	ok, err := readJSON(filepath.Join(baseDir, runID, reportFile), &report)
	return report, ok, err
}

// ReadReplicaEpochs returns the rows of one replica from a run's epoch table.
// A run exported without the table reports false.
func ReadReplicaEpochs(baseDir, runID string, replica int) ([]*EpochRow, bool, error) {
	rows, err := ReadEpochCSV(filepath.Join(baseDir, runID, epochsFile))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	out := make([]*EpochRow, 0, len(rows))
	for _, row := range rows {
		if row.Replica == replica {
			out = append(out, row)
		}
	}
	return out, true, nil
}

func ReadReplicaHistory(baseDir, runID string, replica int) (model.ReplicaHistory, bool, error) {
	var history model.ReplicaHistory
	ok, err := readJSON(filepath.Join(baseDir, runID, fmt.Sprintf(historyPattern, replica)), &history)
	return history, ok, err
}

func AppendRunIndex(baseDir string, entry RunIndexEntry) error {
	if entry.RunID == "" {
		return fmt.Errorf("run id is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return err
	}

	index, err := ListRunIndex(baseDir)
	if err != nil {
		return err
	}

	for i := range index {
		if index[i].RunID == entry.RunID {
			index[i] = entry
			return writeJSON(filepath.Join(baseDir, runIndexFile), index)
		}
	}

	index = append(index, entry)
	return writeJSON(filepath.Join(baseDir, runIndexFile), index)
}

// ListRunIndex returns indexed runs, newest first.
func ListRunIndex(baseDir string) ([]RunIndexEntry, error) {
	var entries []RunIndexEntry
	ok, err := readJSON(filepath.Join(baseDir, runIndexFile), &entries)
	if err != nil {
		return nil, err
	}
	if !ok {
		return []RunIndexEntry{}, nil
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAtUTC > entries[j].CreatedAtUTC
	})
	return entries, nil
}

func writeJSON(path string, value any) error {
	data, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o644)
}

func readJSON(path string, value any) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	if err := json.Unmarshal(data, value); err != nil {
		return false, fmt.Errorf("decode %s: %w", filepath.Base(path), err)
	}
	return true, nil
}
