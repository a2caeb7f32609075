package replica

import (
	"context"
	"errors"
)

// ErrStopped is returned by a Body when the simulation ended. It truncates
// the running epoch and is never reported as a failure.
var ErrStopped = errors.New("simulation stopped")

// Body is the robot side of the loop: its sensors feed the substrate and its
// actuators are driven by it.
type Body interface {
	// Step advances the body by one control step.
	Step(ctx context.Context) error
	// Sensors returns readings normalized to [0, 1], keyed by channel.
	Sensors(ctx context.Context) (map[string]float64, error)
	// Drive applies actuator outputs normalized to [0, 1], keyed by channel.
	Drive(ctx context.Context, outputs map[string]float64) error
	// Reset restores the body to its initial condition.
	Reset(ctx context.Context) error
}

// Evaluator accumulates task performance over one epoch. Value must be 0
// when Update was never called.
type Evaluator interface {
	Update()
	Value() float64
}

// EvaluatorFactory creates the evaluator of a new epoch.
type EvaluatorFactory func() Evaluator
