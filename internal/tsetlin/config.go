package tsetlin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidConfig   = errors.New("invalid automaton config")
	ErrUnknownState    = errors.New("transition to unknown state")
	ErrDuplicateState  = errors.New("duplicate state id")
	ErrStartOutOfRange = errors.New("start state out of range")
)

// StateConfig is the persisted form of one automaton state.
type StateConfig struct {
	ID                    int   `yaml:"id" json:"id"`
	Phase                 Phase `yaml:"phase" json:"phase"`
	PerformanceIncrease   *int  `yaml:"performance-increase" json:"performance-increase"`
	PerformanceDecrease   *int  `yaml:"performance-decrease" json:"performance-decrease"`
	PerformanceStagnation *int  `yaml:"performance-stagnation" json:"performance-stagnation"`
}

// Config is the persisted automaton design.
type Config struct {
	States              []StateConfig `yaml:"states" json:"states"`
	MainState           int           `yaml:"main_state" json:"main_state"`
	StagnationTolerance float64       `yaml:"stagnation_tolerance" json:"stagnation_tolerance"`
}

// State is one validated automaton state. Next is indexed by Edge.
type State struct {
	ID    int
	Phase Phase
	Next  [3]int
}

// Compile validates the design and returns the state table ordered by id.
// Ids must cover [0, len(states)) exactly once and every edge must name an
// existing state.
func (c Config) Compile() ([]State, error) {
	n := len(c.States)
	if n == 0 {
		return nil, fmt.Errorf("%w: no states", ErrInvalidConfig)
	}
	if c.StagnationTolerance < 0 {
		return nil, fmt.Errorf("%w: stagnation tolerance must be >= 0", ErrInvalidConfig)
	}
	if c.MainState < 0 || c.MainState >= n {
		return nil, fmt.Errorf("%w: main state %d, %d states", ErrStartOutOfRange, c.MainState, n)
	}

	table := make([]State, n)
	seen := make([]bool, n)
	for _, sc := range c.States {
		if sc.ID < 0 || sc.ID >= n {
			return nil, fmt.Errorf("%w: state id %d outside [0, %d)", ErrInvalidConfig, sc.ID, n)
		}
		if seen[sc.ID] {
			return nil, fmt.Errorf("%w: %d", ErrDuplicateState, sc.ID)
		}
		seen[sc.ID] = true
		if !sc.Phase.Valid() {
			return nil, fmt.Errorf("%w: state %d has invalid phase", ErrInvalidConfig, sc.ID)
		}
		st := State{ID: sc.ID, Phase: sc.Phase}
		edges := []struct {
			edge Edge
			to   *int
		}{
			{PerformanceIncrease, sc.PerformanceIncrease},
			{PerformanceDecrease, sc.PerformanceDecrease},
			{PerformanceStagnation, sc.PerformanceStagnation},
		}
		for _, e := range edges {
			if e.to == nil {
				return nil, fmt.Errorf("%w: state %d misses %s", ErrInvalidConfig, sc.ID, e.edge)
			}
			if *e.to < 0 || *e.to >= n {
				return nil, fmt.Errorf("%w: state %d %s -> %d", ErrUnknownState, sc.ID, e.edge, *e.to)
			}
			st.Next[e.edge] = *e.to
		}
		table[sc.ID] = st
	}
	return table, nil
}

// LoadConfig reads a design from disk. Files ending in .json are decoded as
// JSON, anything else as YAML.
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	format := "yaml"
	if strings.EqualFold(filepath.Ext(path), ".json") {
		format = "json"
	}
	cfg, err := ParseConfig(data, format)
	if err != nil {
		return Config{}, fmt.Errorf("load %s: %w", path, err)
	}
	return cfg, nil
}

// ParseConfig decodes a design in the given format ("json" or "yaml") and
// validates it.
func ParseConfig(data []byte, format string) (Config, error) {
	var cfg Config
	switch format {
	case "json":
		if err := json.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	case "yaml", "":
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
	default:
		return Config{}, fmt.Errorf("unsupported automaton config format: %s", format)
	}
	if _, err := cfg.Compile(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func ptr(v int) *int { return &v }

// DefaultConfig is a seven state design: an exploration chain (0-2) entered
// from its far end, an operation chain (3-5) centred on the main state 4, and
// a single adaptation state (6). Stagnation drifts operation towards
// exploration, decreases drift it towards adaptation.
func DefaultConfig() Config {
	st := func(id int, phase Phase, inc, dec, stag int) StateConfig {
		return StateConfig{
			ID:                    id,
			Phase:                 phase,
			PerformanceIncrease:   ptr(inc),
			PerformanceDecrease:   ptr(dec),
			PerformanceStagnation: ptr(stag),
		}
	}
	return Config{
		States: []StateConfig{
			st(0, Exploration, 4, 4, 4),
			st(1, Exploration, 4, 0, 0),
			st(2, Exploration, 4, 1, 1),
			st(3, Operation, 4, 4, 2),
			st(4, Operation, 4, 5, 3),
			st(5, Operation, 4, 6, 4),
			st(6, Adaptation, 6, 5, 5),
		},
		MainState:           4,
		StagnationTolerance: 0.5,
	}
}
