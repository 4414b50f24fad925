package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// minPointerDistSq keeps pointer forces away from the singularity at the pointer.
const minPointerDistSq = 1e-6

// Interaction is the pointer snapshot for one step. The solver reads
// Attract, Repel and Drag; Emit and Drain are for the population collaborator.
type Interaction struct {
	Pointer      r2.Vec
	PointerDelta r2.Vec // pointer displacement since the previous step
	Attract      bool
	Repel        bool
	Drag         bool
	Emit         bool
	Drain        bool
}

// ApplyExternalForces adds gravity and pointer forces to every velocity.
// Drag overrides velocity inside DragRadius rather than adding to it.
func ApplyExternalForces(particles []Particle, p *Params, in Interaction) {
	gravityStep := r2.Scale(p.DT, p.Gravity)

	// Attract and Repel together cancel out.
	sign := 0.0
	if in.Attract && !in.Repel {
		sign = 1
	} else if in.Repel && !in.Attract {
		sign = -1
	}
	pushStep := sign * p.InteractionStrength * p.DT
	radiusSq := p.InteractionRadius * p.InteractionRadius
	dragRadiusSq := p.DragRadius * p.DragRadius
	dragVel := r2.Scale(1/p.DT, in.PointerDelta)

	for i := range particles {
		pt := &particles[i]
		pt.Velocity = r2.Add(pt.Velocity, gravityStep)

		if sign == 0 && !in.Drag {
			continue
		}

		toPointer := r2.Sub(in.Pointer, pt.Position)
		distSq := r2.Norm2(toPointer)

		if sign != 0 && distSq < radiusSq && distSq > minPointerDistSq {
			pt.Velocity = r2.Add(pt.Velocity, r2.Scale(pushStep/math.Sqrt(distSq), toPointer))
		}
		if in.Drag && distSq < dragRadiusSq {
			pt.Velocity = dragVel
		}
	}
}

// PredictPositions saves each position as PrevPosition and advances it by
// velocity over dt.
func PredictPositions(particles []Particle, dt float64) {
	for i := range particles {
		pt := &particles[i]
		pt.PrevPosition = pt.Position
		pt.Position = r2.Add(pt.Position, r2.Scale(dt, pt.Velocity))
	}
}
