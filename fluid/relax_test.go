package fluid

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func relaxParams() Params {
	p := DefaultParams(1000, 1000)
	p.KernelRadius = 10
	p.DT = 1
	p.RestDensity = 0
	p.Stiffness = 1
	p.NearStiffness = 0
	p.PressureClamp = 1
	return p
}

func TestRelaxTwoParticlesRepel(t *testing.T) {
	p := relaxParams()
	a := r2.Vec{X: 500, Y: 500}
	b := r2.Vec{X: 500 + 0.5*p.KernelRadius, Y: 500}
	ps := []Particle{{Position: a}, {Position: b}}

	g := NewSpatialHashGrid(p.NumBuckets, p.KernelRadius)
	g.Rebuild(ps)
	var s Solver
	st := s.Relax(ps, g, &p)

	before := r2.Norm(r2.Sub(b, a))
	after := r2.Norm(r2.Sub(ps[1].Position, ps[0].Position))
	if after <= before {
		t.Fatalf("distance %v -> %v, want particles pushed apart", before, after)
	}
	if ps[0].Position.X >= a.X || ps[1].Position.X <= b.X {
		t.Errorf("particles moved toward each other: %v %v", ps[0].Position, ps[1].Position)
	}
	if math.Abs(ps[0].Position.Y-500) > 1e-12 || math.Abs(ps[1].Position.Y-500) > 1e-12 {
		t.Errorf("displacement left the separating axis: %v %v", ps[0].Position, ps[1].Position)
	}
	if st.Particles != 2 || st.Pairs != 2 {
		t.Errorf("stats = %+v, want 2 particles and 2 pairs", st)
	}
}

func TestRelaxFirstDisplacementMagnitude(t *testing.T) {
	// closeness 0.5, density 0.25, pressure 0.25: D = dt^2 * (0.25*0.5) / 2.
	p := relaxParams()
	ps := []Particle{
		{Position: r2.Vec{X: 500, Y: 500}},
		{Position: r2.Vec{X: 505, Y: 500}},
	}
	g := NewSpatialHashGrid(p.NumBuckets, p.KernelRadius)
	g.Rebuild(ps)

	var s Solver
	first := -1
	g.ForEachActive(func(i int) {
		if first < 0 {
			first = i
		}
	})
	st := RelaxStats{}
	s.relaxParticle(ps, g, &p, first, &st)

	want := 0.0625
	moved := r2.Norm(r2.Sub(ps[1-first].Position, r2.Vec{X: 500 + 5*float64(1-first), Y: 500}))
	if math.Abs(moved-want) > 1e-12 {
		t.Errorf("neighbor displacement = %v, want %v", moved, want)
	}
	self := r2.Norm(r2.Sub(ps[first].Position, r2.Vec{X: 500 + 5*float64(first), Y: 500}))
	if math.Abs(self-want) > 1e-12 {
		t.Errorf("self displacement = %v, want %v", self, want)
	}
}

func TestRelaxIgnoresParticlesBeyondKernel(t *testing.T) {
	p := relaxParams()
	ps := []Particle{
		{Position: r2.Vec{X: 500, Y: 500}},
		{Position: r2.Vec{X: 500 + p.KernelRadius, Y: 500}},
		{Position: r2.Vec{X: 500 - 0.8*p.KernelRadius, Y: 500 + 0.8*p.KernelRadius}},
	}
	orig := append([]Particle(nil), ps...)
	g := NewSpatialHashGrid(p.NumBuckets, p.KernelRadius)
	g.Rebuild(ps)

	var s Solver
	st := s.Relax(ps, g, &p)
	for i := range ps {
		if ps[i].Position != orig[i].Position {
			t.Errorf("particle %d moved from %v to %v", i, orig[i].Position, ps[i].Position)
		}
	}
	if st.Pairs != 0 {
		t.Errorf("pairs = %d, want 0", st.Pairs)
	}
}

func TestRelaxCoincidentParticlesStayFinite(t *testing.T) {
	p := relaxParams()
	ps := []Particle{
		{Position: r2.Vec{X: 300, Y: 300}},
		{Position: r2.Vec{X: 300, Y: 300}},
	}
	g := NewSpatialHashGrid(p.NumBuckets, p.KernelRadius)
	g.Rebuild(ps)

	var s Solver
	st := s.Relax(ps, g, &p)
	for i, pt := range ps {
		if math.IsNaN(pt.Position.X) || math.IsNaN(pt.Position.Y) {
			t.Fatalf("particle %d became NaN", i)
		}
	}
	if st.MaxDensity != 1 {
		t.Errorf("MaxDensity = %v, want 1 for a coincident pair", st.MaxDensity)
	}
}

func TestRelaxPressureClampUnderDenseCluster(t *testing.T) {
	tests := []struct {
		name  string
		count int
		clamp float64
	}{
		{"200 particles", 200, 1},
		{"500 particles", 500, 1},
		{"tight clamp", 300, 0.05},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			p := relaxParams()
			p.RestDensity = 0.1
			p.Stiffness = 1000
			p.NearStiffness = 1000
			p.PressureClamp = tc.clamp

			rng := rand.New(rand.NewSource(11))
			ps := make([]Particle, tc.count)
			for i := range ps {
				ps[i].Position = r2.Vec{X: 400 + rng.Float64()*0.5, Y: 400 + rng.Float64()*0.5}
			}
			g := NewSpatialHashGrid(p.NumBuckets, p.KernelRadius)
			g.Rebuild(ps)

			var s Solver
			st := s.Relax(ps, g, &p)
			if st.MaxPressure > tc.clamp {
				t.Errorf("MaxPressure = %v exceeds clamp %v", st.MaxPressure, tc.clamp)
			}
			if st.MaxNearPressure > tc.clamp {
				t.Errorf("MaxNearPressure = %v exceeds clamp %v", st.MaxNearPressure, tc.clamp)
			}
			if st.Clamped == 0 {
				t.Errorf("expected clamping in a cluster of %d", tc.count)
			}
			for i, pt := range ps {
				if !finite(pt.Position.X) || !finite(pt.Position.Y) {
					t.Fatalf("particle %d not finite: %v", i, pt.Position)
				}
			}
		})
	}
}

func TestClampMagnitude(t *testing.T) {
	tests := []struct {
		v, limit float64
		want     float64
		clamped  bool
	}{
		{0.5, 1, 0.5, false},
		{3, 1, 1, true},
		{-3, 1, -1, true},
		{-1, 1, -1, false},
	}
	for _, tc := range tests {
		got, clamped := clampMagnitude(tc.v, tc.limit)
		if got != tc.want || clamped != tc.clamped {
			t.Errorf("clampMagnitude(%v,%v) = %v,%v want %v,%v", tc.v, tc.limit, got, clamped, tc.want, tc.clamped)
		}
	}
}

func TestRelaxUpdatesInPlaceInGridOrder(t *testing.T) {
	p := relaxParams()
	p.PressureClamp = 10

	// One cell, one bucket: traversal visits 2, 1, 0 and each sees the
	// positions already moved by the particles before it.
	ps := []Particle{
		{Position: r2.Vec{X: 1, Y: 5}},
		{Position: r2.Vec{X: 3, Y: 5}},
		{Position: r2.Vec{X: 6, Y: 5}},
	}
	g := NewSpatialHashGrid(p.NumBuckets, p.KernelRadius)
	g.Rebuild(ps)

	var order []int
	g.ForEachActive(func(i int) { order = append(order, i) })
	if len(order) != 3 || order[0] != 2 || order[1] != 1 || order[2] != 0 {
		t.Fatalf("traversal order = %v, want [2 1 0]", order)
	}

	var s Solver
	s.Relax(ps, g, &p)

	tests := []struct {
		name string
		want [3]float64
		same bool
	}{
		{"grid order in place", [3]float64{-0.0005245044881617145, 3.099441878257572, 6.90108262623059}, true},
		{"index order", [3]float64{-0.03559950523515419, 3.1563178210452008, 6.8792816841899525}, false},
		{"grid order on snapshot", [3]float64{-0.2155, 3.1535, 7.062}, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			matches := true
			for i, want := range tc.want {
				if math.Abs(ps[i].Position.X-want) > 1e-9 {
					matches = false
				}
				if ps[i].Position.Y != 5 {
					t.Errorf("particle %d left the line: %v", i, ps[i].Position)
				}
			}
			if matches != tc.same {
				t.Errorf("x = [%v %v %v], match %v = %v, want %v",
					ps[0].Position.X, ps[1].Position.X, ps[2].Position.X, tc.want, matches, tc.same)
			}
		})
	}
}
