package model

import (
	"fmt"

	"rewire/internal/coupling"
	"rewire/internal/replica"
)

// NewReplicaHistory captures the state of a replica history for storage.
// The caller sets the version fields.
func NewReplicaHistory(runID string, index int, seed int64, h *replica.History) ReplicaHistory {
	log := h.Log()
	epochs := make([]EpochRecord, 0, len(log))
	for _, a := range log {
		epochs = append(epochs, EpochRecord{
			Epoch:       a.Epoch,
			Performance: a.Performance,
			Best:        a.Best,
			Phase:       a.Phase,
			StateIndex:  a.StateIndex,
			Edge:        a.Edge,
			Steps:       a.Steps,
			Stopped:     a.Stopped,
			Reconnected: append([]string(nil), a.Mutation.Reconnected...),
			Reweighted:  append([]string(nil), a.Mutation.Reweighted...),
			Coupling:    a.Coupling,
		})
	}
	return ReplicaHistory{
		RunID:   runID,
		Replica: index,
		Seed:    seed,
		Best:    CouplingRecord{Performance: h.BestPerformance(), Coupling: h.Best()},
		Epochs:  epochs,
	}
}

// Restore rebuilds the in-memory history. Epoch couplings equal to the best
// coupling share its pointer again.
func (r ReplicaHistory) Restore() (*replica.History, error) {
	if r.Best.Coupling == nil {
		return nil, fmt.Errorf("replica %d history has no best coupling", r.Replica)
	}
	log := make([]replica.Adaptation, 0, len(r.Epochs))
	for _, e := range r.Epochs {
		c := e.Coupling
		if c == nil {
			return nil, fmt.Errorf("replica %d epoch %d has no coupling", r.Replica, e.Epoch)
		}
		if c.Equal(r.Best.Coupling) {
			c = r.Best.Coupling
		}
		log = append(log, replica.Adaptation{
			Epoch:       e.Epoch,
			Coupling:    c,
			Performance: e.Performance,
			Phase:       e.Phase,
			StateIndex:  e.StateIndex,
			Edge:        e.Edge,
			Steps:       e.Steps,
			Stopped:     e.Stopped,
			Best:        e.Best,
			Mutation:    coupling.Report{Reconnected: e.Reconnected, Reweighted: e.Reweighted},
		})
	}
	return replica.Restore(r.Best.Coupling, r.Best.Performance, log), nil
}
