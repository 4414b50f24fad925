// Package systems provides the ECS systems that drive the fluid's population.
package systems

import (
	"math"
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/components"
)

// ParticleTarget is the part of the fluid simulation the population systems drive.
type ParticleTarget interface {
	Len() int
	AddParticleAt(pos r2.Vec) error
	RemoveParticlesNear(center r2.Vec, radius float64) (int, error)
}

// SourceSystem emits particles from every Source entity.
type SourceSystem struct {
	filter       ecs.Filter2[components.Position, components.Source]
	rng          *rand.Rand
	maxParticles int
}

// NewSourceSystem creates a source system. maxParticles caps the population
// (0 = unlimited).
func NewSourceSystem(w *ecs.World, rng *rand.Rand, maxParticles int) *SourceSystem {
	return &SourceSystem{
		filter:       *ecs.NewFilter2[components.Position, components.Source](w),
		rng:          rng,
		maxParticles: maxParticles,
	}
}

// Update emits this tick's particles from all sources and returns how many were added.
func (s *SourceSystem) Update(target ParticleTarget) (int, error) {
	emitted := 0
	query := s.filter.Query()
	for query.Next() {
		pos, src := query.Get()
		n := accumulate(&src.Carry, src.Rate)
		added, err := s.emit(target, r2.Vec{X: pos.X, Y: pos.Y}, src.Spread, n)
		emitted += added
		if err != nil {
			query.Close()
			return emitted, err
		}
	}
	return emitted, nil
}

// EmitAt emits rate particles per call around at, carrying fractions in carry.
// Used for pointer emission, which has no entity.
func (s *SourceSystem) EmitAt(target ParticleTarget, at r2.Vec, rate, spread float64, carry *float64) (int, error) {
	return s.emit(target, at, spread, accumulate(carry, rate))
}

func (s *SourceSystem) emit(target ParticleTarget, at r2.Vec, spread float64, n int) (int, error) {
	added := 0
	for i := 0; i < n; i++ {
		if s.maxParticles > 0 && target.Len() >= s.maxParticles {
			break
		}
		if err := target.AddParticleAt(r2.Add(at, s.jitter(spread))); err != nil {
			return added, err
		}
		added++
	}
	return added, nil
}

// jitter returns a uniformly distributed offset inside a disc of the given radius.
func (s *SourceSystem) jitter(radius float64) r2.Vec {
	if radius <= 0 {
		return r2.Vec{}
	}
	angle := s.rng.Float64() * 2 * math.Pi
	r := radius * math.Sqrt(s.rng.Float64())
	return r2.Vec{X: r * math.Cos(angle), Y: r * math.Sin(angle)}
}

// accumulate adds rate to carry and returns the whole particles now owed.
func accumulate(carry *float64, rate float64) int {
	if rate <= 0 || math.IsNaN(rate) {
		return 0
	}
	*carry += rate
	n := int(*carry)
	*carry -= float64(n)
	return n
}
