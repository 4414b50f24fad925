package systems

import (
	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/components"
)

// SinkSystem removes particles around every Sink entity.
type SinkSystem struct {
	filter ecs.Filter2[components.Position, components.Sink]
}

// NewSinkSystem creates a sink system.
func NewSinkSystem(w *ecs.World) *SinkSystem {
	return &SinkSystem{
		filter: *ecs.NewFilter2[components.Position, components.Sink](w),
	}
}

// Update drains particles at all sinks and returns how many were removed.
func (s *SinkSystem) Update(target ParticleTarget) (int, error) {
	drained := 0
	query := s.filter.Query()
	for query.Next() {
		pos, sink := query.Get()
		n, err := target.RemoveParticlesNear(r2.Vec{X: pos.X, Y: pos.Y}, sink.Radius)
		drained += n
		if err != nil {
			query.Close()
			return drained, err
		}
	}
	return drained, nil
}

// DrainAt removes particles within radius of at. Used for pointer drain.
func (s *SinkSystem) DrainAt(target ParticleTarget, at r2.Vec, radius float64) (int, error) {
	return target.RemoveParticlesNear(at, radius)
}
