// Package tsetlin implements the performance-driven phase automaton that
// decides whether the controller explores, exploits or adapts its wiring.
package tsetlin

import (
	"fmt"
	"strings"
)

// Phase tags a state with the wiring regime it selects.
type Phase int

const (
	Exploration Phase = iota
	Operation
	Adaptation
)

func (p Phase) String() string {
	switch p {
	case Exploration:
		return "exploration"
	case Operation:
		return "operation"
	case Adaptation:
		return "adaptation"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

func (p Phase) Valid() bool {
	return p == Exploration || p == Operation || p == Adaptation
}

func ParsePhase(s string) (Phase, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "exploration":
		return Exploration, nil
	case "operation":
		return Operation, nil
	case "adaptation":
		return Adaptation, nil
	default:
		return 0, fmt.Errorf("%w: unknown phase %q", ErrInvalidConfig, s)
	}
}

func (p Phase) MarshalText() ([]byte, error) {
	if !p.Valid() {
		return nil, fmt.Errorf("invalid phase %d", int(p))
	}
	return []byte(p.String()), nil
}

func (p *Phase) UnmarshalText(text []byte) error {
	parsed, err := ParsePhase(string(text))
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}

// Edge is the feedback signal that selects a transition.
type Edge int

const (
	PerformanceIncrease Edge = iota
	PerformanceDecrease
	PerformanceStagnation
)

func (e Edge) String() string {
	switch e {
	case PerformanceIncrease:
		return "performance-increase"
	case PerformanceDecrease:
		return "performance-decrease"
	case PerformanceStagnation:
		return "performance-stagnation"
	default:
		return fmt.Sprintf("edge(%d)", int(e))
	}
}

// Decide classifies an epoch: strict improvement first, then stagnation
// within tolerance, otherwise decrease.
func Decide(last, best, tolerance float64) Edge {
	if last > best {
		return PerformanceIncrease
	}
	diff := last - best
	if diff < 0 {
		diff = -diff
	}
	if diff < tolerance {
		return PerformanceStagnation
	}
	return PerformanceDecrease
}

func ParseEdge(s string) (Edge, error) {
	switch strings.TrimSpace(strings.ToLower(s)) {
	case "performance-increase":
		return PerformanceIncrease, nil
	case "performance-decrease":
		return PerformanceDecrease, nil
	case "performance-stagnation":
		return PerformanceStagnation, nil
	default:
		return 0, fmt.Errorf("unknown edge %q", s)
	}
}

func (e Edge) MarshalText() ([]byte, error) {
	if e < PerformanceIncrease || e > PerformanceStagnation {
		return nil, fmt.Errorf("invalid edge %d", int(e))
	}
	return []byte(e.String()), nil
}

func (e *Edge) UnmarshalText(text []byte) error {
	parsed, err := ParseEdge(string(text))
	if err != nil {
		return err
	}
	*e = parsed
	return nil
}
