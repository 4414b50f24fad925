package systems

import (
	"errors"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/fluid"
)

type fakeTarget struct {
	positions []r2.Vec
	failAdd   error
}

func (f *fakeTarget) Len() int { return len(f.positions) }

func (f *fakeTarget) AddParticleAt(pos r2.Vec) error {
	if f.failAdd != nil {
		return f.failAdd
	}
	f.positions = append(f.positions, pos)
	return nil
}

func (f *fakeTarget) RemoveParticlesNear(center r2.Vec, radius float64) (int, error) {
	kept := f.positions[:0]
	removed := 0
	for _, p := range f.positions {
		if r2.Norm2(r2.Sub(p, center)) < radius*radius {
			removed++
			continue
		}
		kept = append(kept, p)
	}
	f.positions = kept
	return removed, nil
}

func TestAccumulate(t *testing.T) {
	tests := []struct {
		name  string
		rate  float64
		ticks int
		want  int
	}{
		{"whole rate", 3, 4, 12},
		{"half rate", 0.5, 4, 2},
		{"third rate", 1.0 / 3, 9, 3},
		{"zero rate", 0, 10, 0},
		{"negative rate", -2, 10, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var carry float64
			total := 0
			for i := 0; i < tt.ticks; i++ {
				total += accumulate(&carry, tt.rate)
			}
			if total < tt.want-1 || total > tt.want {
				t.Errorf("total = %d, want %d", total, tt.want)
			}
			if carry < 0 || carry >= 1 {
				t.Errorf("carry = %v, want [0,1)", carry)
			}
		})
	}
}

func TestSourcesEmitWithinSpread(t *testing.T) {
	pop := NewPopulation(rand.New(rand.NewSource(1)), 0)
	pop.AddSource(100, 100, 2, 10)
	pop.AddSource(300, 100, 0.5, 0)

	target := &fakeTarget{}
	total := 0
	for i := 0; i < 4; i++ {
		emitted, drained, err := pop.Update(target)
		if err != nil {
			t.Fatal(err)
		}
		if drained != 0 {
			t.Errorf("drained = %d with no sinks", drained)
		}
		total += emitted
	}

	if total != 10 || target.Len() != 10 {
		t.Fatalf("emitted %d (target has %d), want 10", total, target.Len())
	}
	for _, p := range target.positions {
		d1 := r2.Norm(r2.Sub(p, r2.Vec{X: 100, Y: 100}))
		d2 := r2.Norm(r2.Sub(p, r2.Vec{X: 300, Y: 100}))
		if d1 > 10 && d2 != 0 {
			t.Errorf("particle %v outside every source's spread", p)
		}
	}
}

func TestSourcesRespectMaxParticles(t *testing.T) {
	pop := NewPopulation(rand.New(rand.NewSource(1)), 5)
	pop.AddSource(50, 50, 4, 2)

	target := &fakeTarget{}
	for i := 0; i < 5; i++ {
		if _, _, err := pop.Update(target); err != nil {
			t.Fatal(err)
		}
	}
	if target.Len() != 5 {
		t.Errorf("population = %d, want cap 5", target.Len())
	}
}

func TestSourcesPropagateError(t *testing.T) {
	pop := NewPopulation(rand.New(rand.NewSource(1)), 0)
	pop.AddSource(50, 50, 1, 0)
	pop.AddSource(60, 50, 1, 0)

	sentinel := errors.New("locked")
	_, _, err := pop.Update(&fakeTarget{failAdd: sentinel})
	if !errors.Is(err, sentinel) {
		t.Fatalf("err = %v, want sentinel", err)
	}

	// The world must be usable after an early query exit.
	pop.AddSink(0, 0, 1)
	if sources, sinks := pop.Counts(); sources != 2 || sinks != 1 {
		t.Errorf("counts = %d, %d", sources, sinks)
	}
}

func TestSinksDrain(t *testing.T) {
	pop := NewPopulation(rand.New(rand.NewSource(1)), 0)
	pop.AddSink(0, 0, 10)

	target := &fakeTarget{positions: []r2.Vec{{X: 1, Y: 1}, {X: 9, Y: 0}, {X: 10, Y: 0}, {X: 50, Y: 50}}}
	_, drained, err := pop.Update(target)
	if err != nil {
		t.Fatal(err)
	}
	if drained != 2 || target.Len() != 2 {
		t.Errorf("drained %d, left %d; want 2, 2", drained, target.Len())
	}
}

func TestRemoveNear(t *testing.T) {
	pop := NewPopulation(rand.New(rand.NewSource(1)), 0)
	pop.AddSource(10, 10, 1, 0)
	pop.AddSink(12, 10, 5)
	pop.AddSink(200, 200, 5)

	if n := pop.RemoveNear(10, 10, 5); n != 2 {
		t.Fatalf("removed %d, want 2", n)
	}
	if sources, sinks := pop.Counts(); sources != 0 || sinks != 1 {
		t.Errorf("counts = %d, %d; want 0, 1", sources, sinks)
	}

	pop.Clear()
	if sources, sinks := pop.Counts(); sources != 0 || sinks != 0 {
		t.Errorf("counts after Clear = %d, %d", sources, sinks)
	}
}

func TestPopulationDrivesSimulation(t *testing.T) {
	sim, err := fluid.New(fluid.DefaultParams(400, 300), 3)
	if err != nil {
		t.Fatal(err)
	}
	sim.Start()

	pop := NewPopulation(rand.New(rand.NewSource(3)), 0)
	pop.AddSource(200, 100, 3, 8)
	pop.AddSink(200, 280, 40)

	for i := 0; i < 30; i++ {
		if _, _, err := pop.Update(sim); err != nil {
			t.Fatal(err)
		}
		if err := sim.Step(fluid.Interaction{}); err != nil {
			t.Fatal(err)
		}
	}
	if sim.Len() == 0 || sim.Len() > 90 {
		t.Errorf("particles = %d, want in (0, 90]", sim.Len())
	}
}

func TestPointerEmitAndDrain(t *testing.T) {
	pop := NewPopulation(rand.New(rand.NewSource(1)), 0)
	target := &fakeTarget{}

	var carry float64
	for i := 0; i < 4; i++ {
		if _, err := pop.Sources.EmitAt(target, r2.Vec{X: 20, Y: 20}, 1.5, 3, &carry); err != nil {
			t.Fatal(err)
		}
	}
	if target.Len() != 6 {
		t.Fatalf("emitted %d, want 6", target.Len())
	}

	n, err := pop.Sinks.DrainAt(target, r2.Vec{X: 20, Y: 20}, 4)
	if err != nil {
		t.Fatal(err)
	}
	if n != 6 || target.Len() != 0 {
		t.Errorf("drained %d, left %d", n, target.Len())
	}
}
