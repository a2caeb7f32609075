package storage

import (
	"context"
	"errors"
	"sort"
	"sync"

	"rewire/internal/model"
)

type historyKey struct {
	runID   string
	replica int
}

type MemoryStore struct {
	mu          sync.RWMutex
	initialized bool
	runs        map[string]model.RunSummary
	histories   map[historyKey]model.ReplicaHistory
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Init(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.initialized = true
	s.runs = make(map[string]model.RunSummary)
	s.histories = make(map[historyKey]model.ReplicaHistory)
	return nil
}

func (s *MemoryStore) SaveRun(_ context.Context, run model.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	run.BestPerformance = append([]float64(nil), run.BestPerformance...)
	s.runs[run.ID] = run
	return nil
}

func (s *MemoryStore) GetRun(_ context.Context, id string) (model.RunSummary, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	run, ok := s.runs[id]
	if !ok {
		return model.RunSummary{}, false, nil
	}
	run.BestPerformance = append([]float64(nil), run.BestPerformance...)
	return run, true, nil
}

func (s *MemoryStore) ListRuns(_ context.Context) ([]model.RunSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	runs := make([]model.RunSummary, 0, len(s.runs))
	for _, run := range s.runs {
		run.BestPerformance = append([]float64(nil), run.BestPerformance...)
		runs = append(runs, run)
	}
	sortRuns(runs)
	return runs, nil
}

func (s *MemoryStore) SaveHistory(_ context.Context, history model.ReplicaHistory) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return errors.New("store is not initialized")
	}
	history.Epochs = append([]model.EpochRecord(nil), history.Epochs...)
	s.histories[historyKey{runID: history.RunID, replica: history.Replica}] = history
	return nil
}

func (s *MemoryStore) GetHistory(_ context.Context, runID string, replica int) (model.ReplicaHistory, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	history, ok := s.histories[historyKey{runID: runID, replica: replica}]
	if !ok {
		return model.ReplicaHistory{}, false, nil
	}
	history.Epochs = append([]model.EpochRecord(nil), history.Epochs...)
	return history, true, nil
}

func sortRuns(runs []model.RunSummary) {
	sort.Slice(runs, func(i, j int) bool {
		if !runs[i].CreatedAt.Equal(runs[j].CreatedAt) {
			return runs[i].CreatedAt.Before(runs[j].CreatedAt)
		}
		return runs[i].ID < runs[j].ID
	})
}
