package coupling

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"rewire/internal/substrate"
)

func sensorFixture(k int) (*Coupling, []string) {
	bindings := make(map[string]Binding, k+2)
	sensors := make([]string, 0, k)
	for i := 0; i < k; i++ {
		ch := "s" + string(rune('a'+i))
		sensors = append(sensors, ch)
		bindings[ch] = Binding{Node: substrate.Node(i), Weight: 1}
	}
	bindings["left_motor"] = Binding{Node: 90, Weight: 100}
	bindings["right_motor"] = Binding{Node: 91, Weight: 100}
	return New(bindings), sensors
}

func legalRange(lo, hi int) []substrate.Node {
	out := make([]substrate.Node, 0, hi-lo)
	for i := lo; i < hi; i++ {
		out = append(out, substrate.Node(i))
	}
	return out
}

func TestMutateRespectsChangeBounds(t *testing.T) {
	for _, k := range []int{1, 2, 3, 5, 8} {
		base, sensors := sensorFixture(k)
		m := &Mutator{Rand: rand.New(rand.NewSource(int64(k))), Noise: Noise{Mu: 0, Sigma: 0.1}}
		hi := int(math.Ceil(0.5 * float64(k)))
		for trial := 0; trial < 50; trial++ {
			next, report, err := m.Mutate(base, legalRange(0, 40), sensors)
			if err != nil {
				t.Fatalf("k=%d mutate: %v", k, err)
			}
			moved := 0
			for _, ch := range sensors {
				before, _ := base.Binding(ch)
				after, _ := next.Binding(ch)
				if before.Node != after.Node {
					moved++
				}
			}
			if moved < 1 || moved > hi || moved != len(report.Reconnected) {
				t.Fatalf("k=%d moved %d channels (report %v), want [1,%d]", k, moved, report.Reconnected, hi)
			}
			if n := len(report.Reweighted); n < 1 || n > hi {
				t.Fatalf("k=%d reweighted %d channels, want [1,%d]", k, n, hi)
			}
		}
	}
}

func TestReconnectAvoidsCollisionsAndPreviousNodes(t *testing.T) {
	base, sensors := sensorFixture(6)
	m := &Mutator{Rand: rand.New(rand.NewSource(7))}
	for trial := 0; trial < 100; trial++ {
		next, touched, err := m.Reconnect(base, legalRange(0, 12), sensors)
		if err != nil {
			t.Fatalf("reconnect: %v", err)
		}
		seen := make(map[substrate.Node]string)
		for _, ch := range sensors {
			b, _ := next.Binding(ch)
			if other, dup := seen[b.Node]; dup {
				t.Fatalf("sensors %s and %s share node %d", other, ch, b.Node)
			}
			seen[b.Node] = ch
		}
		for _, ch := range touched {
			before, _ := base.Binding(ch)
			after, _ := next.Binding(ch)
			if before.Node == after.Node {
				t.Fatalf("sensor %s kept node %d", ch, after.Node)
			}
			if after.Weight != before.Weight {
				t.Fatalf("reconnect changed weight of %s", ch)
			}
		}
	}
}

func TestMutateNeverTouchesActuatorsOrSource(t *testing.T) {
	base, sensors := sensorFixture(4)
	snapshot := base.Bindings()
	m := &Mutator{Rand: rand.New(rand.NewSource(3)), Noise: Noise{Mu: 0.5, Sigma: 1}}
	next, _, err := m.Mutate(base, legalRange(0, 20), sensors)
	if err != nil {
		t.Fatalf("mutate: %v", err)
	}
	for _, ch := range []string{"left_motor", "right_motor"} {
		a, _ := next.Binding(ch)
		if a != snapshot[ch] {
			t.Fatalf("actuator %s changed: %+v", ch, a)
		}
	}
	if !New(snapshot).Equal(base) {
		t.Fatal("source coupling was modified in place")
	}
}

func TestReweightClampsAtZero(t *testing.T) {
	base, sensors := sensorFixture(2)
	m := &Mutator{Rand: rand.New(rand.NewSource(1)), Noise: Noise{Mu: -100, Sigma: 0}}
	next, touched, err := m.Reweight(base, sensors)
	if err != nil {
		t.Fatalf("reweight: %v", err)
	}
	for _, ch := range touched {
		b, _ := next.Binding(ch)
		if b.Weight != 0 {
			t.Fatalf("expected clamped weight for %s, got %g", ch, b.Weight)
		}
	}
}

func TestReconnectFailsWhenWiringExhausted(t *testing.T) {
	base, sensors := sensorFixture(3)
	m := &Mutator{Rand: rand.New(rand.NewSource(1))}
	_, _, err := m.Reconnect(base, legalRange(0, 3), sensors)
	if !errors.Is(err, ErrWiringExhausted) {
		t.Fatalf("expected wiring exhausted, got %v", err)
	}
}

func TestMutateIsReproducibleForSeed(t *testing.T) {
	base, sensors := sensorFixture(5)
	run := func() *Coupling {
		m := &Mutator{Rand: rand.New(rand.NewSource(42)), Noise: Noise{Sigma: 0.2}}
		next, _, err := m.Mutate(base, legalRange(0, 30), sensors)
		if err != nil {
			t.Fatalf("mutate: %v", err)
		}
		return next
	}
	if !run().Equal(run()) {
		t.Fatal("expected identical mutations for identical seeds")
	}
}

func TestMutateRequiresSensors(t *testing.T) {
	base, _ := sensorFixture(2)
	m := &Mutator{Rand: rand.New(rand.NewSource(1))}
	if _, _, err := m.Mutate(base, legalRange(0, 10), nil); !errors.Is(err, ErrNoSensors) {
		t.Fatalf("expected no sensors error, got %v", err)
	}
	if _, _, err := m.Mutate(base, legalRange(0, 10), []string{"ghost"}); !errors.Is(err, ErrUnknownChannel) {
		t.Fatalf("expected unknown channel error, got %v", err)
	}
}

func TestChangeCountHonoursMinFraction(t *testing.T) {
	rng := rand.New(rand.NewSource(9))
	for i := 0; i < 100; i++ {
		if n := ChangeCount(rng, 10, 0.4); n < 4 || n > 5 {
			t.Fatalf("count %d outside [4,5]", n)
		}
		if n := ChangeCount(rng, 10, 0.9); n != 5 {
			t.Fatalf("min fraction above half should cap at 5, got %d", n)
		}
	}
	if n := ChangeCount(rng, 0, 0); n != 0 {
		t.Fatalf("expected zero for no channels, got %d", n)
	}
}
