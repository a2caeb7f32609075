// Package coupling holds the wiring between sensor/actuator channels and
// substrate nodes, and the operators that evolve it.
package coupling

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"sort"

	"rewire/internal/substrate"
)

var (
	ErrWiringExhausted = errors.New("wiring space exhausted")
	ErrNoSensors       = errors.New("no sensor channels to mutate")
	ErrUnknownChannel  = errors.New("unknown channel")
	ErrInvalidLayout   = errors.New("invalid channel layout")
)

// Binding attaches one channel to a substrate node. For sensors Weight is the
// signal multiplier (>= 0), for actuators the load resistance (> 0).
type Binding struct {
	Node   substrate.Node
	Weight float64
}

// Coupling is an immutable channel -> binding assignment. Evolution always
// produces a new Coupling; existing values are never modified.
type Coupling struct {
	bindings map[string]Binding
}

// New copies bindings into a Coupling.
func New(bindings map[string]Binding) *Coupling {
	copied := make(map[string]Binding, len(bindings))
	for ch, b := range bindings {
		copied[ch] = b
	}
	return &Coupling{bindings: copied}
}

// Len reports the number of channels.
func (c *Coupling) Len() int {
	return len(c.bindings)
}

// Binding returns the binding of a channel.
func (c *Coupling) Binding(channel string) (Binding, bool) {
	b, ok := c.bindings[channel]
	return b, ok
}

// Channels returns channel names in ascending order.
func (c *Coupling) Channels() []string {
	out := make([]string, 0, len(c.bindings))
	for ch := range c.bindings {
		out = append(out, ch)
	}
	sort.Strings(out)
	return out
}

// Bindings returns a copy of the whole assignment.
func (c *Coupling) Bindings() map[string]Binding {
	out := make(map[string]Binding, len(c.bindings))
	for ch, b := range c.bindings {
		out[ch] = b
	}
	return out
}

// Nodes returns the nodes of the given channels, in channel order.
func (c *Coupling) Nodes(channels []string) []substrate.Node {
	out := make([]substrate.Node, 0, len(channels))
	for _, ch := range channels {
		b, ok := c.bindings[ch]
		if !ok {
			panic(fmt.Sprintf("coupling: %v: %s", ErrUnknownChannel, ch))
		}
		out = append(out, b.Node)
	}
	return out
}

// With returns a new Coupling where overrides replace the matching channels.
func (c *Coupling) With(overrides map[string]Binding) *Coupling {
	out := make(map[string]Binding, len(c.bindings))
	for ch, b := range c.bindings {
		out[ch] = b
	}
	for ch, b := range overrides {
		out[ch] = b
	}
	return &Coupling{bindings: out}
}

// Equal reports whether two couplings hold the same assignment.
func (c *Coupling) Equal(other *Coupling) bool {
	if c == other {
		return true
	}
	if c == nil || other == nil || len(c.bindings) != len(other.bindings) {
		return false
	}
	for ch, b := range c.bindings {
		if ob, ok := other.bindings[ch]; !ok || ob != b {
			return false
		}
	}
	return true
}

// MarshalJSON encodes the coupling as {channel: [node, weight]}.
func (c *Coupling) MarshalJSON() ([]byte, error) {
	raw := make(map[string][2]any, len(c.bindings))
	for ch, b := range c.bindings {
		raw[ch] = [2]any{int(b.Node), b.Weight}
	}
	return json.Marshal(raw)
}

// UnmarshalJSON decodes the {channel: [node, weight]} form.
func (c *Coupling) UnmarshalJSON(data []byte) error {
	var raw map[string][2]float64
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	bindings := make(map[string]Binding, len(raw))
	for ch, pair := range raw {
		if pair[0] != math.Trunc(pair[0]) {
			return fmt.Errorf("channel %s: node %v is not an integer", ch, pair[0])
		}
		bindings[ch] = Binding{Node: substrate.Node(pair[0]), Weight: pair[1]}
	}
	c.bindings = bindings
	return nil
}

// Layout partitions channels into sensors and actuators.
type Layout struct {
	Sensors   []string `yaml:"sensors" json:"sensors"`
	Actuators []string `yaml:"actuators" json:"actuators"`
}

func (l Layout) Validate() error {
	if len(l.Sensors) == 0 {
		return fmt.Errorf("%w: at least one sensor channel is required", ErrInvalidLayout)
	}
	seen := make(map[string]struct{}, len(l.Sensors)+len(l.Actuators))
	for _, ch := range append(append([]string(nil), l.Sensors...), l.Actuators...) {
		if ch == "" {
			return fmt.Errorf("%w: empty channel name", ErrInvalidLayout)
		}
		if _, dup := seen[ch]; dup {
			return fmt.Errorf("%w: channel %s listed twice", ErrInvalidLayout, ch)
		}
		seen[ch] = struct{}{}
	}
	return nil
}

// Check panics when the coupling references a channel missing from the
// layout or a node outside the component. Both are programming errors.
func (l Layout) Check(c *Coupling, component *substrate.Component) {
	for _, ch := range append(append([]string(nil), l.Sensors...), l.Actuators...) {
		b, ok := c.Binding(ch)
		if !ok {
			panic(fmt.Sprintf("coupling: %v: %s", ErrUnknownChannel, ch))
		}
		if !component.Contains(b.Node) {
			panic(fmt.Sprintf("coupling: channel %s bound to node %d outside the substrate component", ch, b.Node))
		}
	}
}
