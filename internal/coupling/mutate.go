package coupling

import (
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"

	"rewire/internal/substrate"
)

// Noise is the gaussian perturbation applied to sensor weights.
type Noise struct {
	Mu    float64 `yaml:"mu" json:"mu"`
	Sigma float64 `yaml:"sigma" json:"sigma"`
}

func (n Noise) sample(rng *rand.Rand) float64 {
	return n.Mu + n.Sigma*rng.NormFloat64()
}

// Report lists the channels a mutation touched.
type Report struct {
	Reconnected []string `json:"reconnected"`
	Reweighted  []string `json:"reweighted"`
}

// Mutator perturbs sensor wiring. Actuator channels are never touched.
type Mutator struct {
	Rand *rand.Rand
	// Noise is the modification noise used by Reweight.
	Noise Noise
	// MinFraction raises the lower bound of changed channels to
	// ceil(MinFraction * k). Zero keeps the bound at one channel.
	MinFraction float64
}

// Mutate reconnects then reweights independently sampled sensor subsets.
func (m *Mutator) Mutate(c *Coupling, legal []substrate.Node, sensors []string) (*Coupling, Report, error) {
	reconnected, touched, err := m.Reconnect(c, legal, sensors)
	if err != nil {
		return nil, Report{}, err
	}
	reweighted, weighted, err := m.Reweight(reconnected, sensors)
	if err != nil {
		return nil, Report{}, err
	}
	return reweighted, Report{Reconnected: touched, Reweighted: weighted}, nil
}

// Reconnect moves between 1 and ceil(k/2) sensors to legal nodes that no
// other sensor uses and that differ from their current node.
func (m *Mutator) Reconnect(c *Coupling, legal []substrate.Node, sensors []string) (*Coupling, []string, error) {
	picked, err := m.sample(c, sensors)
	if err != nil {
		return nil, nil, err
	}

	used := make(map[substrate.Node]int, len(sensors))
	for _, ch := range sensors {
		b, _ := c.Binding(ch)
		used[b.Node]++
	}

	overrides := make(map[string]Binding, len(picked))
	for _, ch := range picked {
		current, _ := c.Binding(ch)
		pool := make([]substrate.Node, 0, len(legal))
		for _, n := range legal {
			if n == current.Node || used[n] > 0 {
				continue
			}
			pool = append(pool, n)
		}
		if len(pool) == 0 {
			return nil, nil, fmt.Errorf("%w: no legal node left for sensor %s", ErrWiringExhausted, ch)
		}
		next := pool[m.Rand.Intn(len(pool))]
		used[current.Node]--
		used[next]++
		overrides[ch] = Binding{Node: next, Weight: current.Weight}
	}
	return c.With(overrides), picked, nil
}

// Reweight adds modification noise to between 1 and ceil(k/2) sensor
// weights, clamping at zero.
func (m *Mutator) Reweight(c *Coupling, sensors []string) (*Coupling, []string, error) {
	picked, err := m.sample(c, sensors)
	if err != nil {
		return nil, nil, err
	}
	overrides := make(map[string]Binding, len(picked))
	for _, ch := range picked {
		b, _ := c.Binding(ch)
		b.Weight = math.Max(0, b.Weight+m.Noise.sample(m.Rand))
		overrides[ch] = b
	}
	return c.With(overrides), picked, nil
}

func (m *Mutator) sample(c *Coupling, sensors []string) ([]string, error) {
	if m == nil || m.Rand == nil {
		return nil, errors.New("random source is required")
	}
	if len(sensors) == 0 {
		return nil, ErrNoSensors
	}
	ordered := append([]string(nil), sensors...)
	sort.Strings(ordered)
	for _, ch := range ordered {
		if _, ok := c.Binding(ch); !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownChannel, ch)
		}
	}
	count := ChangeCount(m.Rand, len(ordered), m.MinFraction)
	perm := m.Rand.Perm(len(ordered))
	picked := make([]string, 0, count)
	for _, i := range perm[:count] {
		picked = append(picked, ordered[i])
	}
	sort.Strings(picked)
	return picked, nil
}

// ChangeCount draws how many of k channels a single operator changes:
// uniform in [lo, ceil(k/2)] with lo = max(1, ceil(minFraction*k)).
func ChangeCount(rng *rand.Rand, k int, minFraction float64) int {
	if k <= 0 {
		return 0
	}
	hi := int(math.Ceil(0.5 * float64(k)))
	lo := 1
	if minFraction > 0 {
		lo = int(math.Ceil(minFraction * float64(k)))
	}
	if lo < 1 {
		lo = 1
	}
	if lo > hi {
		lo = hi
	}
	return lo + rng.Intn(hi-lo+1)
}
