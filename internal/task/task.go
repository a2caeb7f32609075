// Package task scores how well a body performs during an epoch.
package task

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"rewire/internal/replica"
)

const (
	CollisionAvoidanceKind = "collision"
	AreaAvoidanceKind      = "area"
	DistanceKind           = "distance"
)

var (
	ErrTaskExists         = errors.New("task already registered")
	ErrTaskNotFound       = errors.New("task not found")
	ErrSubjectUnsupported = errors.New("subject does not support task")
)

// Subject exposes the quantities evaluators score. Proximities and wheel
// speeds are normalized to [0, 1].
type Subject interface {
	Proximities() []float64
	WheelSpeeds() (left, right float64)
	Position() (x, y float64)
}

// AreaSubject is an optional body capability reporting whether the body is
// over ground it must not enter.
type AreaSubject interface {
	Subject
	OnForbiddenArea() bool
}

// Factory builds an evaluator factory bound to a body.
type Factory func(subject Subject) (replica.EvaluatorFactory, error)

var (
	registryMu sync.RWMutex
	registry   = map[string]Factory{}
)

func init() {
	registerBuiltins()
}

func registerBuiltins() {
	mustRegister(CollisionAvoidanceKind, func(p Subject) (replica.EvaluatorFactory, error) {
		return func() replica.Evaluator { return NewCollisionAvoidance(p) }, nil
	})
	mustRegister(AreaAvoidanceKind, func(p Subject) (replica.EvaluatorFactory, error) {
		ap, ok := p.(AreaSubject)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrSubjectUnsupported, AreaAvoidanceKind)
		}
		return func() replica.Evaluator { return NewAreaAvoidance(ap) }, nil
	})
	mustRegister(DistanceKind, func(p Subject) (replica.EvaluatorFactory, error) {
		return func() replica.Evaluator { return NewDistance(p) }, nil
	})
}

func mustRegister(name string, f Factory) {
	if err := Register(name, f); err != nil {
		panic(err)
	}
}

func Register(name string, f Factory) error {
	name = normalize(name)
	if name == "" || f == nil {
		return errors.New("task name and factory are required")
	}
	registryMu.Lock()
	defer registryMu.Unlock()
	if _, ok := registry[name]; ok {
		return fmt.Errorf("%w: %s", ErrTaskExists, name)
	}
	registry[name] = f
	return nil
}

// New resolves a task by name and binds it to body. The empty name selects
// collision avoidance.
func New(name string, body Subject) (replica.EvaluatorFactory, error) {
	name = normalize(name)
	if name == "" {
		name = CollisionAvoidanceKind
	}
	registryMu.RLock()
	f, ok := registry[name]
	registryMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrTaskNotFound, name)
	}
	if body == nil {
		return nil, errors.New("body is required")
	}
	return f(body)
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

func resetRegistryForTests() {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry = map[string]Factory{}
}

func normalize(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// CollisionAvoidance rewards fast straight motion away from obstacles.
type CollisionAvoidance struct {
	body  Subject
	sum   float64
	steps int
}

func NewCollisionAvoidance(body Subject) *CollisionAvoidance {
	return &CollisionAvoidance{body: body}
}

func (c *CollisionAvoidance) Update() {
	nearest := 0.0
	for _, p := range c.body.Proximities() {
		nearest = math.Max(nearest, p)
	}
	left, right := c.body.WheelSpeeds()
	c.sum += (1 - nearest) * (1 - math.Sqrt(math.Abs(left-right))) * (left + right) / 2
	c.steps++
}

func (c *CollisionAvoidance) Value() float64 {
	if c.steps == 0 {
		return 0
	}
	return 100 * c.sum / float64(c.steps)
}

// AreaPenalty is subtracted for every step spent over forbidden ground.
const AreaPenalty = 100

// AreaAvoidance rewards straight motion while staying off forbidden ground.
// Wheel speeds are remapped to [-1, 1] and the mean score from [-101, 1] to
// [0, 100].
type AreaAvoidance struct {
	body  AreaSubject
	sum   float64
	steps int
}

func NewAreaAvoidance(body AreaSubject) *AreaAvoidance {
	return &AreaAvoidance{body: body}
}

func (a *AreaAvoidance) Update() {
	if a.body.OnForbiddenArea() {
		a.sum -= AreaPenalty
	}
	left, right := a.body.WheelSpeeds()
	left, right = 2*left-1, 2*right-1
	a.sum += (1 - math.Sqrt(math.Abs(left-right))) * (left + right) / 2
	a.steps++
}

func (a *AreaAvoidance) Value() float64 {
	if a.steps == 0 {
		return 0
	}
	mean := a.sum / float64(a.steps)
	return (mean + 101) / 102 * 100
}

// Distance accumulates the path length travelled by the body since the
// evaluator was created.
type Distance struct {
	body      Subject
	x, y      float64
	travelled float64
}

func NewDistance(body Subject) *Distance {
	x, y := body.Position()
	return &Distance{body: body, x: x, y: y}
}

func (d *Distance) Update() {
	x, y := d.body.Position()
	d.travelled += math.Hypot(x-d.x, y-d.y)
	d.x, d.y = x, y
}

func (d *Distance) Value() float64 {
	return d.travelled
}
