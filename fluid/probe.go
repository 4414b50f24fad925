package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Probe describes the density field around one particle as the relaxation
// pass would see it with the current positions and parameters.
type Probe struct {
	Index        int
	Particle     Particle
	Neighbors    int
	Density      float64
	NearDensity  float64
	Pressure     float64 // after clamping
	NearPressure float64 // after clamping
}

// Nearest returns the index of the particle closest to pos within maxDist,
// or -1 if there is none.
func (s *Simulation) Nearest(pos r2.Vec, maxDist float64) int {
	best := -1
	bestSq := maxDist * maxDist
	for i, p := range s.particles.All() {
		if d := r2.Norm2(r2.Sub(p.Position, pos)); d <= bestSq {
			best, bestSq = i, d
		}
	}
	return best
}

// Probe measures particle i. It scans every particle rather than the grid,
// which is only valid between a rebuild and the next population change.
func (s *Simulation) Probe(i int) (Probe, bool) {
	all := s.particles.All()
	if i < 0 || i >= len(all) {
		return Probe{}, false
	}
	h := s.params.KernelRadius
	origin := all[i].Position

	pr := Probe{Index: i, Particle: all[i]}
	for j := range all {
		if j == i {
			continue
		}
		distSq := r2.Norm2(r2.Sub(all[j].Position, origin))
		if distSq >= h*h {
			continue
		}
		c := 1 - math.Sqrt(distSq)/h
		pr.Neighbors++
		pr.Density += c * c
		pr.NearDensity += c * c * c
	}
	pr.Pressure, _ = clampMagnitude(s.params.Stiffness*(pr.Density-s.params.RestDensity), s.params.PressureClamp)
	pr.NearPressure, _ = clampMagnitude(s.params.NearStiffness*pr.NearDensity, s.params.PressureClamp)
	return pr, true
}
