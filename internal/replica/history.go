package replica

import (
	"rewire/internal/coupling"
	"rewire/internal/tsetlin"
)

// Adaptation is the log entry of one completed epoch. Phase and StateIndex
// are those the epoch ran under, before the automaton transited.
type Adaptation struct {
	Epoch       int
	Coupling    *coupling.Coupling
	Performance float64
	Phase       tsetlin.Phase
	StateIndex  int
	Edge        tsetlin.Edge
	Steps       int
	Stopped     bool
	// Best is the best performance after this epoch's history update.
	Best float64
	// Mutation describes how the coupling of the following epoch was made.
	Mutation coupling.Report
}

// History keeps the best coupling seen so far and an append-only epoch log.
type History struct {
	best            *coupling.Coupling
	bestPerformance float64
	log             []Adaptation
}

// NewHistory starts a history from the replica's first coupling with a best
// performance of zero.
func NewHistory(initial *coupling.Coupling) *History {
	return &History{best: initial}
}

func (h *History) Best() *coupling.Coupling {
	return h.best
}

func (h *History) BestPerformance() float64 {
	return h.bestPerformance
}

// Log returns a copy of the epoch log.
func (h *History) Log() []Adaptation {
	return append([]Adaptation(nil), h.log...)
}

// Len reports the number of logged epochs.
func (h *History) Len() int {
	return len(h.log)
}

// Update folds an evaluated coupling into the best-so-far record. After an
// operation epoch the best performance is an exponential moving average and
// the evaluated coupling always becomes the best one; otherwise only a strict
// improvement replaces the best.
func (h *History) Update(prev tsetlin.Phase, evaluated *coupling.Coupling, performance, weight float64) {
	if prev == tsetlin.Operation {
		h.bestPerformance = weight*h.bestPerformance + (1-weight)*performance
		h.best = evaluated
		return
	}
	if performance > h.bestPerformance {
		h.bestPerformance = performance
		h.best = evaluated
	}
}

func (h *History) append(a Adaptation) {
	h.log = append(h.log, a)
}

// Restore rebuilds a history from persisted state.
func Restore(best *coupling.Coupling, bestPerformance float64, log []Adaptation) *History {
	return &History{best: best, bestPerformance: bestPerformance, log: append([]Adaptation(nil), log...)}
}
