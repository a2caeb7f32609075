package stats

import (
	"gonum.org/v1/gonum/stat"

	"rewire/internal/model"
	"rewire/internal/tsetlin"
)

// MeanStdDev summarizes values, reporting zero spread for fewer than two
// samples and zeros for none.
func MeanStdDev(values []float64) (mean, std float64) {
	switch len(values) {
	case 0:
		return 0, 0
	case 1:
		return values[0], 0
	}
	return stat.MeanStdDev(values, nil)
}

type PlotPoint struct {
	Epoch  int     `json:"epoch"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"std_dev"`
}

// PerformanceCurve averages epoch performance across replicas. Replicas that
// logged fewer epochs stop contributing once their log ends.
func PerformanceCurve(histories []model.ReplicaHistory) []PlotPoint {
	var points []PlotPoint
	for epoch := 0; ; epoch++ {
		values := make([]float64, 0, len(histories))
		for _, h := range histories {
			if epoch < len(h.Epochs) {
				values = append(values, h.Epochs[epoch].Performance)
			}
		}
		if len(values) == 0 {
			return points
		}
		mean, std := MeanStdDev(values)
		points = append(points, PlotPoint{Epoch: epoch, Mean: mean, StdDev: std})
	}
}

// PhaseOccupancy counts the epochs each replica ran under every phase.
func PhaseOccupancy(histories []model.ReplicaHistory) map[tsetlin.Phase]int {
	counts := map[tsetlin.Phase]int{}
	for _, h := range histories {
		for _, e := range h.Epochs {
			counts[e.Phase]++
		}
	}
	return counts
}

// RunReport aggregates a run across its replicas.
type RunReport struct {
	Curve  []PlotPoint           `json:"curve"`
	Phases map[tsetlin.Phase]int `json:"phases"`
}

func NewRunReport(histories []model.ReplicaHistory) RunReport {
	return RunReport{Curve: PerformanceCurve(histories), Phases: PhaseOccupancy(histories)}
}
