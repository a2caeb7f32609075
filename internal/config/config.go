// Package config loads experiment configuration for wiring-adaptation runs.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"rewire/internal/coupling"
	"rewire/internal/replica"
	"rewire/internal/scape"
	"rewire/internal/substrate"
	"rewire/internal/tsetlin"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config is the full description of an experiment.
type Config struct {
	Experiment    ExperimentConfig     `yaml:"experiment" json:"experiment"`
	Coupling      CouplingConfig       `yaml:"coupling" json:"coupling"`
	HistoryWeight float64              `yaml:"history_weight" json:"history_weight"`
	Substrate     SubstrateConfig      `yaml:"substrate" json:"substrate"`
	Corridor      scape.CorridorConfig `yaml:"corridor" json:"corridor"`
	// AutomatonFile, when set, replaces the inline automaton design.
	AutomatonFile string         `yaml:"automaton_file" json:"automaton_file,omitempty"`
	Automaton     tsetlin.Config `yaml:"automaton" json:"automaton"`
	Output        OutputConfig   `yaml:"output" json:"output"`
}

type ExperimentConfig struct {
	Replicas      int    `yaml:"replicas" json:"replicas"`
	Epochs        int    `yaml:"epochs" json:"epochs"`
	EpochDuration int    `yaml:"epoch_duration" json:"epoch_duration"`
	Continuous    bool   `yaml:"continuous" json:"continuous"`
	Seed          int64  `yaml:"seed" json:"seed"`
	Task          string `yaml:"task" json:"task"`
	Scape         string `yaml:"scape" json:"scape"`
}

type CouplingConfig struct {
	Creation     coupling.Noise `yaml:"creation" json:"creation"`
	Modification coupling.Noise `yaml:"modification" json:"modification"`
	MinFraction  float64        `yaml:"min_fraction" json:"min_fraction"`
	Load         float64        `yaml:"load" json:"load"`
	Distance     int            `yaml:"distance" json:"distance"`
}

type SubstrateConfig struct {
	Kind string `yaml:"kind" json:"kind"`
	// Shared generates one substrate for the run and hands every replica its
	// own copy. Otherwise each replica generates its own from Datasheet(i).
	Shared    bool                `yaml:"shared" json:"shared"`
	Datasheet substrate.Datasheet `yaml:"datasheet" json:"datasheet"`
}

type OutputConfig struct {
	Directory string `yaml:"directory" json:"directory"`
	Store     string `yaml:"store" json:"store"`
	DBPath    string `yaml:"db_path" json:"db_path"`
	CSV       bool   `yaml:"csv" json:"csv"`
}

// Default returns the embedded configuration.
func Default() (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}
	return cfg, nil
}

// Load overlays the YAML file at path onto the embedded defaults and
// validates the result. An empty path yields the defaults.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}
	if cfg.AutomatonFile != "" {
		file := cfg.AutomatonFile
		if !filepath.IsAbs(file) && path != "" {
			file = filepath.Join(filepath.Dir(path), file)
		}
		automaton, err := tsetlin.LoadConfig(file)
		if err != nil {
			return nil, err
		}
		cfg.Automaton = automaton
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Experiment.Replicas < 1 {
		return errors.New("experiment.replicas must be >= 1")
	}
	if c.Experiment.Epochs < 0 {
		return errors.New("experiment.epochs must be >= 0")
	}
	if c.Experiment.EpochDuration < 0 {
		return errors.New("experiment.epoch_duration must be >= 0")
	}
	if c.Coupling.Distance < 0 {
		return errors.New("coupling.distance must be >= 0")
	}
	if c.Coupling.Load <= 0 {
		return errors.New("coupling.load must be > 0")
	}
	if c.Coupling.MinFraction < 0 || c.Coupling.MinFraction > 1 {
		return errors.New("coupling.min_fraction must be in [0, 1]")
	}
	if c.HistoryWeight < 0 || c.HistoryWeight > 1 {
		return errors.New("history_weight must be in [0, 1]")
	}
	if err := c.Corridor.Validate(); err != nil {
		return fmt.Errorf("corridor: %w", err)
	}
	if _, err := c.Automaton.Compile(); err != nil {
		return err
	}
	switch c.Output.Store {
	case "", "memory", "sqlite":
	default:
		return fmt.Errorf("output.store %q is not supported", c.Output.Store)
	}
	return nil
}

// Replica builds the adaptation loop settings of the replica at index. Each
// replica gets the experiment seed offset by its index.
func (c *Config) Replica(index int, layout coupling.Layout, logger *zap.Logger) replica.Config {
	return replica.Config{
		Layout:        layout,
		Distance:      c.Coupling.Distance,
		Creation:      c.Coupling.Creation,
		Modification:  c.Coupling.Modification,
		MinFraction:   c.Coupling.MinFraction,
		Load:          c.Coupling.Load,
		HistoryWeight: c.HistoryWeight,
		EpochDuration: c.Experiment.EpochDuration,
		Continuous:    c.Experiment.Continuous,
		TimeStep:      c.Corridor.TimeStep,
		Automaton:     c.Automaton,
		Seed:          c.Experiment.Seed + int64(index),
		Logger:        logger,
	}
}

// Datasheet returns the substrate datasheet of the replica at index, with
// the generation seed offset like the replica seed.
func (c *Config) Datasheet(index int) substrate.Datasheet {
	ds := c.Substrate.Datasheet
	ds.Seed += int64(index)
	return ds
}

// WriteYAML stores the effective configuration next to run artifacts.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}
