package systems

import (
	"math"
	"math/rand"
)

// EffectKind identifies the type of feedback effect.
type EffectKind uint8

const (
	EffectEmit  EffectKind = iota // Particles entering at a source
	EffectDrain                   // Particles leaving at a sink
	EffectPlace                   // A source or sink was placed
)

// EffectParticle represents a visual feedback particle.
type EffectParticle struct {
	X, Y       float32
	VelX, VelY float32
	Life       int32
	MaxLife    int32
	Kind       EffectKind
	Size       float32
}

// EffectSystem manages short-lived particles that mark population changes.
// They are cosmetic and never enter the fluid.
type EffectSystem struct {
	Particles    []EffectParticle
	maxParticles int
	rng          *rand.Rand
}

// NewEffectSystem creates a new effect system.
func NewEffectSystem(rng *rand.Rand) *EffectSystem {
	return &EffectSystem{
		Particles:    make([]EffectParticle, 0, 500),
		maxParticles: 500,
		rng:          rng,
	}
}

// Update ages and moves all effects, dropping expired ones.
func (s *EffectSystem) Update() {
	alive := 0
	for i := range s.Particles {
		p := &s.Particles[i]

		p.Life--
		if p.Life <= 0 {
			continue
		}

		switch p.Kind {
		case EffectEmit:
			p.VelY -= 0.01
		case EffectDrain:
			// Rotate a little each tick to swirl
			p.VelX, p.VelY = p.VelX*0.9-p.VelY*0.1, p.VelY*0.9+p.VelX*0.1
		}

		p.VelX *= 0.95
		p.VelY *= 0.95
		p.X += p.VelX
		p.Y += p.VelY

		s.Particles[alive] = s.Particles[i]
		alive++
	}
	s.Particles = s.Particles[:alive]
}

// Emit marks n particles entering at (x, y). At most a few effects are spawned.
func (s *EffectSystem) Emit(x, y float32, n int) {
	for i := 0; i < min(n, 3); i++ {
		s.spawn(x, y, EffectEmit, 0.3)
	}
}

// Drain marks n particles leaving at (x, y).
func (s *EffectSystem) Drain(x, y float32, n int) {
	for i := 0; i < min(n, 3); i++ {
		s.spawn(x, y, EffectDrain, 0.6)
	}
}

// Place emits a radial burst marking a placement.
func (s *EffectSystem) Place(x, y float32) {
	count := 8 + s.rng.Intn(7)
	for i := 0; i < count; i++ {
		s.spawn(x, y, EffectPlace, 0.5+s.rng.Float32()*0.8)
	}
}

func (s *EffectSystem) spawn(x, y float32, kind EffectKind, speed float32) {
	if len(s.Particles) >= s.maxParticles {
		return
	}

	angle := s.rng.Float64() * 2 * math.Pi
	velX := float32(math.Cos(angle)) * speed
	velY := float32(math.Sin(angle)) * speed
	life := int32(30 + s.rng.Intn(30))

	s.Particles = append(s.Particles, EffectParticle{
		X:       x + (s.rng.Float32()-0.5)*4,
		Y:       y + (s.rng.Float32()-0.5)*4,
		VelX:    velX,
		VelY:    velY,
		Life:    life,
		MaxLife: life,
		Kind:    kind,
		Size:    2 + s.rng.Float32()*1.5,
	})
}

// Count returns the current number of active effects.
func (s *EffectSystem) Count() int {
	return len(s.Particles)
}
