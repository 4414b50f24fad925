package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// degenerateDistSq is the squared distance under which two particles are
// treated as coincident: they add density but get no displacement direction.
const degenerateDistSq = 1e-12

// RelaxStats summarises one relaxation pass.
type RelaxStats struct {
	Particles       int
	Pairs           int // accepted neighbor pairs, counted from both sides
	SumDensity      float64
	MaxDensity      float64
	MaxPressure     float64 // largest |pressure| after clamping
	MaxNearPressure float64 // largest |near pressure| after clamping
	Clamped         int     // pressure terms that hit the clamp
}

// MeanDensity returns the average particle density of the pass.
func (s RelaxStats) MeanDensity() float64 {
	if s.Particles == 0 {
		return 0
	}
	return s.SumDensity / float64(s.Particles)
}

type relaxNeighbor struct {
	index     int
	dir       r2.Vec // unit vector from the relaxed particle to this neighbor
	closeness float64
}

// Solver runs double density relaxation. The neighbor buffer is reused
// across particles and steps.
type Solver struct {
	neighbors []relaxNeighbor
}

// Relax displaces predicted positions toward rest density.
//
// Particles are processed in grid traversal order and every displacement is
// written straight back into particles, so later particles see the updates of
// earlier ones. This is sequential by construction; running the loop in
// parallel or on a position snapshot gives different results.
func (s *Solver) Relax(particles []Particle, g *SpatialHashGrid, p *Params) RelaxStats {
	var st RelaxStats
	g.ForEachActive(func(i int) {
		s.relaxParticle(particles, g, p, i, &st)
	})
	return st
}

func (s *Solver) relaxParticle(particles []Particle, g *SpatialHashGrid, p *Params, i int, st *RelaxStats) {
	h := p.KernelRadius
	hSq := h * h
	origin := particles[i].Position

	s.neighbors = s.neighbors[:0]
	var density, nearDensity float64

	g.ForEachNeighbor(origin, func(j int) {
		if j == i {
			return
		}
		diff := r2.Sub(particles[j].Position, origin)
		if math.Abs(diff.X) >= h || math.Abs(diff.Y) >= h {
			return
		}
		distSq := diff.X*diff.X + diff.Y*diff.Y
		if distSq >= hSq {
			return
		}
		r := math.Sqrt(distSq)
		closeness := 1 - r/h
		density += closeness * closeness
		nearDensity += closeness * closeness * closeness
		st.Pairs++

		if distSq <= degenerateDistSq {
			return
		}
		s.neighbors = append(s.neighbors, relaxNeighbor{
			index:     j,
			dir:       r2.Scale(1/r, diff),
			closeness: closeness,
		})
	})

	pressure, clampedP := clampMagnitude(p.Stiffness*(density-p.RestDensity), p.PressureClamp)
	nearPressure, clampedN := clampMagnitude(p.NearStiffness*nearDensity, p.PressureClamp)

	st.Particles++
	st.SumDensity += density
	st.MaxDensity = math.Max(st.MaxDensity, density)
	st.MaxPressure = math.Max(st.MaxPressure, math.Abs(pressure))
	st.MaxNearPressure = math.Max(st.MaxNearPressure, math.Abs(nearPressure))
	if clampedP {
		st.Clamped++
	}
	if clampedN {
		st.Clamped++
	}

	dtSq := p.DT * p.DT
	var self r2.Vec
	for _, n := range s.neighbors {
		c := n.closeness
		d := dtSq * (pressure*c + nearPressure*c*c) / 2
		disp := r2.Scale(d, n.dir)
		particles[n.index].Position = r2.Add(particles[n.index].Position, disp)
		self = r2.Sub(self, disp)
	}
	particles[i].Position = r2.Add(particles[i].Position, self)
}

// clampMagnitude limits v to [-limit, limit] and reports whether it had to.
func clampMagnitude(v, limit float64) (float64, bool) {
	switch {
	case v > limit:
		return limit, true
	case v < -limit:
		return -limit, true
	}
	return v, false
}
