package fluid

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func newTestSim(t *testing.T, n int) *Simulation {
	t.Helper()
	p := DefaultParams(400, 300)
	p.KernelRadius = 12
	p.NumBuckets = 1024
	sim, err := New(p, 42)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := sim.AddParticles(n); err != nil {
		t.Fatalf("AddParticles: %v", err)
	}
	sim.Start()
	return sim
}

func TestStepVelocityMatchesDisplacement(t *testing.T) {
	sim := newTestSim(t, 300)
	dt := sim.Params().DT

	for step := 0; step < 20; step++ {
		in := Interaction{Pointer: r2.Vec{X: 200, Y: 150}, Attract: step%2 == 0}
		if err := sim.Step(in); err != nil {
			t.Fatalf("Step: %v", err)
		}
		for i, p := range sim.Particles() {
			want := r2.Vec{
				X: (p.Position.X - p.PrevPosition.X) / dt,
				Y: (p.Position.Y - p.PrevPosition.Y) / dt,
			}
			if p.Velocity != want {
				t.Fatalf("step %d particle %d: velocity %v, want %v", step, i, p.Velocity, want)
			}
		}
	}
}

func TestStepKeepsGridInvariants(t *testing.T) {
	sim := newTestSim(t, 250)
	for step := 0; step < 5; step++ {
		if err := sim.Step(Interaction{}); err != nil {
			t.Fatalf("Step: %v", err)
		}
		checkGridInvariants(t, sim.Grid(), sim.Len())
	}
	if got := sim.Stats().ActiveBuckets; got != len(sim.Grid().ActiveBuckets()) {
		t.Errorf("stats active buckets = %d, grid has %d", got, len(sim.Grid().ActiveBuckets()))
	}
}

func TestStepPausedIsNoop(t *testing.T) {
	sim := newTestSim(t, 10)
	sim.Pause()
	before := append([]Particle(nil), sim.Particles()...)

	var stages []Stage
	sim.SetStageObserver(func(s Stage) { stages = append(stages, s) })
	if err := sim.Step(Interaction{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if len(stages) != 0 {
		t.Errorf("paused step ran stages %v", stages)
	}
	if sim.Tick() != 0 {
		t.Errorf("tick = %d, want 0", sim.Tick())
	}
	for i, p := range sim.Particles() {
		if p != before[i] {
			t.Fatalf("particle %d changed while paused", i)
		}
	}
}

func TestStepStageOrder(t *testing.T) {
	sim := newTestSim(t, 5)
	var stages []Stage
	sim.SetStageObserver(func(s Stage) { stages = append(stages, s) })

	if err := sim.Step(Interaction{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	want := Stages()
	if len(stages) != len(want) {
		t.Fatalf("stages = %v, want %v", stages, want)
	}
	for i := range want {
		if stages[i] != want[i] {
			t.Errorf("stage %d = %s, want %s", i, stages[i], want[i])
		}
	}
}

// recordingExtension counts hook calls and can fail or mutate population.
type recordingExtension struct {
	calls  []string
	failAt string
	sim    *Simulation
	mutErr error
}

func (r *recordingExtension) hook(name string) error {
	r.calls = append(r.calls, name)
	if r.sim != nil {
		_, r.mutErr = r.sim.RemoveParticlesNear(r2.Vec{}, 1e9)
	}
	if name == r.failAt {
		return errors.New("boom")
	}
	return nil
}

func (r *recordingExtension) ApplyViscosity(*StepContext) error { return r.hook("viscosity") }
func (r *recordingExtension) AdjustSprings(*StepContext) error  { return r.hook("springs") }
func (r *recordingExtension) ApplySpringDisplacements(*StepContext) error {
	return r.hook("displacements")
}

func TestExtensionHooks(t *testing.T) {
	t.Run("called in order", func(t *testing.T) {
		sim := newTestSim(t, 5)
		ext := &recordingExtension{}
		sim.SetExtension(ext)
		if err := sim.Step(Interaction{}); err != nil {
			t.Fatalf("Step: %v", err)
		}
		want := []string{"viscosity", "springs", "displacements"}
		if len(ext.calls) != len(want) {
			t.Fatalf("calls = %v, want %v", ext.calls, want)
		}
		for i := range want {
			if ext.calls[i] != want[i] {
				t.Errorf("call %d = %s, want %s", i, ext.calls[i], want[i])
			}
		}
	})

	t.Run("error corrupts until reset", func(t *testing.T) {
		sim := newTestSim(t, 5)
		sim.SetExtension(&recordingExtension{failAt: "springs"})
		if err := sim.Step(Interaction{}); err == nil {
			t.Fatal("expected step error")
		}
		if err := sim.Step(Interaction{}); !errors.Is(err, ErrCorruptState) {
			t.Fatalf("second step err = %v, want ErrCorruptState", err)
		}
		sim.Reset()
		sim.SetExtension(nil)
		if err := sim.Step(Interaction{}); err != nil {
			t.Fatalf("step after reset: %v", err)
		}
		if sim.Len() != 0 {
			t.Errorf("Len after reset = %d, want 0", sim.Len())
		}
	})

	t.Run("population locked during step", func(t *testing.T) {
		sim := newTestSim(t, 5)
		ext := &recordingExtension{sim: sim}
		sim.SetExtension(ext)
		if err := sim.Step(Interaction{}); err != nil {
			t.Fatalf("Step: %v", err)
		}
		if !errors.Is(ext.mutErr, ErrStepInProgress) {
			t.Errorf("mid-step removal err = %v, want ErrStepInProgress", ext.mutErr)
		}
		if sim.Len() != 5 {
			t.Errorf("Len = %d, want 5", sim.Len())
		}
	})

	t.Run("nop extension is safe", func(t *testing.T) {
		var ext Extension = NopExtension{}
		ctx := &StepContext{}
		if err := ext.ApplyViscosity(ctx); err != nil {
			t.Error(err)
		}
		if err := ext.AdjustSprings(ctx); err != nil {
			t.Error(err)
		}
		if err := ext.ApplySpringDisplacements(ctx); err != nil {
			t.Error(err)
		}
	})
}

func TestConfigureRejectsInvalid(t *testing.T) {
	sim := newTestSim(t, 0)
	good := sim.Params()

	tests := []struct {
		name   string
		mutate func(*Params)
	}{
		{"zero kernel radius", func(p *Params) { p.KernelRadius = 0 }},
		{"negative dt", func(p *Params) { p.DT = -1 }},
		{"zero buckets", func(p *Params) { p.NumBuckets = 0 }},
		{"negative clamp", func(p *Params) { p.PressureClamp = -1 }},
		{"restitution above one", func(p *Params) { p.Restitution = 1.5 }},
		{"width inside margins", func(p *Params) { p.BoundaryMargin = p.Width / 2 }},
		{"height inside margins", func(p *Params) { p.Height = 2 * p.BoundaryMargin }},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bad := good
			tc.mutate(&bad)
			err := sim.Configure(bad)
			if !errors.Is(err, ErrInvalidParameter) {
				t.Fatalf("err = %v, want ErrInvalidParameter", err)
			}
			if sim.Params() != good {
				t.Errorf("params changed after rejected Configure")
			}
		})
	}
}

func TestConfigureResizesGrid(t *testing.T) {
	sim := newTestSim(t, 50)
	p := sim.Params()
	p.NumBuckets = 64
	p.KernelRadius = 20
	if err := sim.Configure(p); err != nil {
		t.Fatalf("Configure: %v", err)
	}
	if err := sim.Step(Interaction{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	if sim.Grid().NumBuckets() != 64 || sim.Grid().CellSize() != 20 {
		t.Errorf("grid = %d buckets, cell %v", sim.Grid().NumBuckets(), sim.Grid().CellSize())
	}
	checkGridInvariants(t, sim.Grid(), sim.Len())
}

func TestPopulationAddRemove(t *testing.T) {
	sim := newTestSim(t, 0)
	p := sim.Params()

	if err := sim.AddParticles(5); err != nil {
		t.Fatalf("AddParticles: %v", err)
	}
	if sim.Len() != 5 {
		t.Fatalf("Len = %d, want 5", sim.Len())
	}
	for i, pt := range sim.Particles() {
		if pt.Position.X < 0 || pt.Position.X > p.Width || pt.Position.Y < 0 || pt.Position.Y > p.Height {
			t.Errorf("particle %d at %v outside domain", i, pt.Position)
		}
	}

	if err := sim.AddParticles(195); err != nil {
		t.Fatalf("AddParticles: %v", err)
	}
	for i := 0; i < 3; i++ {
		if err := sim.Step(Interaction{}); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}

	center := r2.Vec{X: p.Width / 2, Y: p.Height / 2}
	removed, err := sim.RemoveParticlesNear(center, 100)
	if err != nil {
		t.Fatalf("RemoveParticlesNear: %v", err)
	}
	if removed == 0 {
		t.Fatal("expected some particles near the centre")
	}
	if sim.Len() != 200-removed {
		t.Fatalf("Len = %d, want %d", sim.Len(), 200-removed)
	}
	for i, pt := range sim.Particles() {
		if r2.Norm(r2.Sub(pt.Position, center)) < 100 {
			t.Errorf("particle %d at %v survived removal", i, pt.Position)
		}
	}

	g := sim.Grid()
	if g.Len() != sim.Len() {
		t.Errorf("grid index arrays sized %d, want %d", g.Len(), sim.Len())
	}
	if len(g.ActiveBuckets()) != 0 {
		t.Errorf("grid kept %d active buckets referencing removed particles", len(g.ActiveBuckets()))
	}

	if err := sim.Step(Interaction{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	checkGridInvariants(t, g, sim.Len())
}

func TestAddParticleAt(t *testing.T) {
	sim := newTestSim(t, 0)
	pos := r2.Vec{X: 12, Y: 34}
	if err := sim.AddParticleAt(pos); err != nil {
		t.Fatalf("AddParticleAt: %v", err)
	}
	got := sim.Particles()[0]
	if got.Position != pos || got.Velocity != (r2.Vec{}) {
		t.Errorf("particle = %+v", got)
	}

	for i := 1; i < 30; i++ {
		if err := sim.AddParticleAt(r2.Vec{X: float64(10 * i), Y: 150}); err != nil {
			t.Fatalf("AddParticleAt: %v", err)
		}
	}
	if g := sim.Grid(); g.Len() != sim.Len() || len(g.ActiveBuckets()) != 0 {
		t.Errorf("grid Len = %d, active = %d after adds, want %d and 0", g.Len(), len(g.ActiveBuckets()), sim.Len())
	}
	if err := sim.Step(Interaction{}); err != nil {
		t.Fatalf("Step: %v", err)
	}
	checkGridInvariants(t, sim.Grid(), sim.Len())
}

func TestRemoveParticlesNearIgnoresNonPositiveRadius(t *testing.T) {
	sim := newTestSim(t, 0)
	center := r2.Vec{X: 100, Y: 100}
	for _, off := range []float64{0, 1, 5} {
		if err := sim.AddParticleAt(r2.Add(center, r2.Vec{X: off})); err != nil {
			t.Fatalf("AddParticleAt: %v", err)
		}
	}

	for _, radius := range []float64{0, -10, math.NaN()} {
		removed, err := sim.RemoveParticlesNear(center, radius)
		if err != nil {
			t.Fatalf("RemoveParticlesNear(%v): %v", radius, err)
		}
		if removed != 0 || sim.Len() != 3 {
			t.Errorf("radius %v removed %d, Len = %d; want 0 and 3", radius, removed, sim.Len())
		}
	}
}

func TestAllYieldsCopies(t *testing.T) {
	sim := newTestSim(t, 20)
	count := 0
	for i, p := range sim.All() {
		if p != sim.ParticleAt(i) {
			t.Fatalf("All()[%d] = %+v, want %+v", i, p, sim.ParticleAt(i))
		}
		p.Position = r2.Vec{X: -1000, Y: -1000}
		if sim.ParticleAt(i).Position == p.Position {
			t.Fatalf("modifying yielded particle %d changed the simulation", i)
		}
		count++
	}
	if count != sim.Len() {
		t.Errorf("All yielded %d particles, want %d", count, sim.Len())
	}
}

func TestLongRunStaysInsideDomain(t *testing.T) {
	sim := newTestSim(t, 400)
	p := sim.Params()
	for step := 0; step < 200; step++ {
		if err := sim.Step(Interaction{}); err != nil {
			t.Fatalf("Step: %v", err)
		}
	}
	slack := 3 * p.KernelRadius
	for i, pt := range sim.Particles() {
		if !finite(pt.Position.X) || !finite(pt.Position.Y) {
			t.Fatalf("particle %d not finite: %v", i, pt.Position)
		}
		if pt.Position.X < -slack || pt.Position.X > p.Width+slack ||
			pt.Position.Y < -slack || pt.Position.Y > p.Height+slack {
			t.Errorf("particle %d escaped to %v", i, pt.Position)
		}
	}
	if s := sim.Stats(); s.MaxPressure > p.PressureClamp || s.MaxNearPressure > p.PressureClamp {
		t.Errorf("stats pressure above clamp: %+v", s)
	}
}
