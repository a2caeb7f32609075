package substrate

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

const ResistiveKind = "resistive"

var (
	ErrKindExists   = errors.New("substrate kind already registered")
	ErrKindNotFound = errors.New("substrate kind not found")
)

// Factory builds a fresh substrate instance from a datasheet.
type Factory func(ds Datasheet) (Substrate, error)

var registry = struct {
	mu sync.RWMutex
	m  map[string]Factory
}{
	m: make(map[string]Factory),
}

func init() {
	initializeDefaultKinds()
}

func initializeDefaultKinds() {
	if err := Register(ResistiveKind, func(ds Datasheet) (Substrate, error) {
		return NewNetwork(ds)
	}); err != nil {
		panic(err)
	}
}

func Register(kind string, factory Factory) error {
	if kind == "" {
		return errors.New("substrate kind is required")
	}
	if factory == nil {
		return errors.New("substrate factory is required")
	}

	registry.mu.Lock()
	defer registry.mu.Unlock()
	if _, exists := registry.m[kind]; exists {
		return fmt.Errorf("%w: %s", ErrKindExists, kind)
	}
	registry.m[kind] = factory
	return nil
}

// New resolves kind and builds a substrate. An empty kind selects the
// resistive network.
func New(kind string, ds Datasheet) (Substrate, error) {
	if kind == "" {
		kind = ResistiveKind
	}
	registry.mu.RLock()
	factory, ok := registry.m[kind]
	registry.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrKindNotFound, kind)
	}
	return factory(ds)
}

func ListKinds() []string {
	registry.mu.RLock()
	defer registry.mu.RUnlock()
	names := make([]string, 0, len(registry.m))
	for name := range registry.m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func resetRegistryForTests() {
	registry.mu.Lock()
	registry.m = make(map[string]Factory)
	registry.mu.Unlock()

	initializeDefaultKinds()
}
