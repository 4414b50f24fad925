package fluid

import "gonum.org/v1/gonum/spatial/r2"

// Particle is one fluid particle.
// PrevPosition is only meaningful between the predict and velocity stages.
type Particle struct {
	Position     r2.Vec
	PrevPosition r2.Vec
	Velocity     r2.Vec
}

// Store is a dense, order-irrelevant particle array.
type Store struct {
	items []Particle
}

// Len returns the particle count.
func (s *Store) Len() int {
	return len(s.items)
}

// All returns the backing slice. Indices are stable until the next removal.
func (s *Store) All() []Particle {
	return s.items
}

// Add appends a particle at rest and returns its index.
func (s *Store) Add(pos r2.Vec) int {
	s.items = append(s.items, Particle{Position: pos, PrevPosition: pos})
	return len(s.items) - 1
}

// SwapRemove removes particle i by moving the last particle into its slot.
func (s *Store) SwapRemove(i int) {
	last := len(s.items) - 1
	s.items[i] = s.items[last]
	s.items = s.items[:last]
}

// RemoveWithin swap-removes every particle strictly closer than radius to
// center and returns how many were removed. A non-positive radius removes
// nothing.
func (s *Store) RemoveWithin(center r2.Vec, radius float64) int {
	if !(radius > 0) {
		return 0
	}
	radiusSq := radius * radius
	removed := 0
	for i := 0; i < len(s.items); {
		if r2.Norm2(r2.Sub(s.items[i].Position, center)) < radiusSq {
			s.SwapRemove(i)
			removed++
			continue
		}
		i++
	}
	return removed
}

// Clear drops every particle, keeping capacity.
func (s *Store) Clear() {
	s.items = s.items[:0]
}
