package stats

import (
	"os"
	"strings"

	"github.com/gocarina/gocsv"

	"rewire/internal/model"
)

// EpochRow is one line of the per-epoch table.
type EpochRow struct {
	Replica     int     `csv:"replica"`
	Epoch       int     `csv:"epoch"`
	Performance float64 `csv:"performance"`
	Best        float64 `csv:"best"`
	Phase       string  `csv:"phase"`
	State       int     `csv:"state"`
	Edge        string  `csv:"edge"`
	Steps       int     `csv:"steps"`
	Stopped     bool    `csv:"stopped"`
	Reconnected string  `csv:"reconnected"`
	Reweighted  string  `csv:"reweighted"`
}

// EpochRows flattens histories in replica then epoch order.
func EpochRows(histories ...model.ReplicaHistory) []*EpochRow {
	var rows []*EpochRow
	for _, h := range histories {
		for _, e := range h.Epochs {
			rows = append(rows, &EpochRow{
				Replica:     h.Replica,
				Epoch:       e.Epoch,
				Performance: e.Performance,
				Best:        e.Best,
				Phase:       e.Phase.String(),
				State:       e.StateIndex,
				Edge:        e.Edge.String(),
				Steps:       e.Steps,
				Stopped:     e.Stopped,
				Reconnected: strings.Join(e.Reconnected, " "),
				Reweighted:  strings.Join(e.Reweighted, " "),
			})
		}
	}
	return rows
}

func WriteEpochCSV(path string, rows []*EpochRow) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	if err := gocsv.MarshalFile(&rows, f); err != nil {
		return err
	}
	return f.Sync()
}

func ReadEpochCSV(path string) ([]*EpochRow, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	var rows []*EpochRow
	if err := gocsv.UnmarshalFile(f, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}
