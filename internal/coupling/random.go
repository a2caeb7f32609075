package coupling

import (
	"errors"
	"fmt"
	"math"
	"math/rand"

	"rewire/internal/substrate"
)

// RandomParams configures the first coupling of a replica.
type RandomParams struct {
	Creation Noise
	// Load is the resistance assigned to every actuator channel.
	Load float64
	// Distance is the minimum hop distance between sensor and actuator nodes.
	Distance int
}

// Random wires actuators to distinct component nodes, then wires sensors to
// distinct nodes at least Distance+1 hops away from every actuator. Sensor
// weights are drawn from the creation noise and clamped at zero.
func Random(rng *rand.Rand, component *substrate.Component, layout Layout, params RandomParams) (*Coupling, error) {
	if rng == nil {
		return nil, errors.New("random source is required")
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if len(layout.Actuators) > 0 && params.Load <= 0 {
		return nil, fmt.Errorf("actuator load must be > 0, got %g", params.Load)
	}
	if params.Distance < 0 {
		return nil, fmt.Errorf("distance must be >= 0, got %d", params.Distance)
	}

	bindings := make(map[string]Binding, len(layout.Sensors)+len(layout.Actuators))

	nodes := component.Nodes()
	if len(nodes) < len(layout.Actuators) {
		return nil, fmt.Errorf("%w: %d actuators for %d nodes", ErrWiringExhausted, len(layout.Actuators), len(nodes))
	}
	actuatorNodes := make([]substrate.Node, 0, len(layout.Actuators))
	for i, idx := range rng.Perm(len(nodes))[:len(layout.Actuators)] {
		bindings[layout.Actuators[i]] = Binding{Node: nodes[idx], Weight: params.Load}
		actuatorNodes = append(actuatorNodes, nodes[idx])
	}

	legal := component.LegalNodes(actuatorNodes, params.Distance)
	if len(legal) < len(layout.Sensors) {
		return nil, fmt.Errorf("%w: %d sensors for %d legal nodes at distance %d",
			ErrWiringExhausted, len(layout.Sensors), len(legal), params.Distance)
	}
	for i, idx := range rng.Perm(len(legal))[:len(layout.Sensors)] {
		weight := math.Max(0, params.Creation.sample(rng))
		bindings[layout.Sensors[i]] = Binding{Node: legal[idx], Weight: weight}
	}
	return New(bindings), nil
}
