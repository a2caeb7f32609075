// Package scape provides simulated bodies a substrate controller can be
// coupled to when no external simulator is attached.
package scape

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"rewire/internal/replica"
	"rewire/internal/task"
)

const CorridorName = "corridor"

var (
	ErrScapeExists   = errors.New("scape already registered")
	ErrScapeNotFound = errors.New("scape not found")
)

// Scape is a body that also exposes what task evaluators measure.
type Scape interface {
	replica.Body
	task.Subject
	Name() string
	Channels() (sensors, actuators []string)
}

type Factory func(cfg CorridorConfig) (Scape, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	if err := Register(CorridorName, func(cfg CorridorConfig) (Scape, error) {
		return NewCorridor(cfg)
	}); err != nil {
		panic(err)
	}
}

func Register(name string, f Factory) error {
	name = baseName(name)
	if name == "" || f == nil {
		return errors.New("scape name and factory are required")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("%w: %s", ErrScapeExists, name)
	}
	registry[name] = f
	return nil
}

// New builds a registered scape. The empty name selects the corridor.
// References such as "scape_corridor_sim" resolve to "corridor".
func New(name string, cfg CorridorConfig) (Scape, error) {
	name = baseName(name)
	if name == "" {
		name = CorridorName
	}
	registryMu.RLock()
	var f Factory
	for _, candidate := range aliasCandidates(name) {
		if f = registry[candidate]; f != nil {
			break
		}
	}
	registryMu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrScapeNotFound, name)
	}
	return f(cfg)
}

func List() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
