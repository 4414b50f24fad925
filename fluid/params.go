package fluid

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Default values used when a field is left at zero by DefaultParams callers.
const (
	DefaultPressureClamp  = 1.0
	DefaultBoundaryMargin = 5.0
	DefaultNumBuckets     = 4096
)

// Params holds the simulation-wide constants for one step.
// A step never observes a change; Configure swaps the whole value between steps.
type Params struct {
	RestDensity   float64
	Stiffness     float64
	NearStiffness float64
	KernelRadius  float64 // h; also the hash grid cell size
	Gravity       r2.Vec
	DT            float64

	// PressureClamp bounds |pressure| and |near pressure| per particle.
	// It is a stability cap for dense clusters, not a physical constant.
	PressureClamp float64

	Width, Height  float64
	BoundaryMargin float64
	Restitution    float64 // 1 snaps to the boundary, 0 leaves particles outside

	NumBuckets int

	InteractionRadius   float64
	InteractionStrength float64
	DragRadius          float64
}

// DefaultParams returns a stable parameter set for a width x height domain.
func DefaultParams(width, height float64) Params {
	return Params{
		RestDensity:         4,
		Stiffness:           0.5,
		NearStiffness:       1,
		KernelRadius:        16,
		Gravity:             r2.Vec{X: 0, Y: 0.4},
		DT:                  1,
		PressureClamp:       DefaultPressureClamp,
		Width:               width,
		Height:              height,
		BoundaryMargin:      DefaultBoundaryMargin,
		Restitution:         0.5,
		NumBuckets:          DefaultNumBuckets,
		InteractionRadius:   150,
		InteractionStrength: 2,
		DragRadius:          40,
	}
}

// Validate reports the first rejected field wrapped in ErrInvalidParameter.
func (p Params) Validate() error {
	switch {
	case !positive(p.KernelRadius):
		return fmt.Errorf("%w: kernel radius must be positive, got %v", ErrInvalidParameter, p.KernelRadius)
	case !positive(p.DT):
		return fmt.Errorf("%w: dt must be positive, got %v", ErrInvalidParameter, p.DT)
	case p.NumBuckets <= 0:
		return fmt.Errorf("%w: bucket count must be positive, got %d", ErrInvalidParameter, p.NumBuckets)
	case !positive(p.Width) || !positive(p.Height):
		return fmt.Errorf("%w: domain must be positive, got %vx%v", ErrInvalidParameter, p.Width, p.Height)
	case !finite(p.PressureClamp) || p.PressureClamp < 0:
		return fmt.Errorf("%w: pressure clamp must be non-negative, got %v", ErrInvalidParameter, p.PressureClamp)
	case !finite(p.Restitution) || p.Restitution < 0 || p.Restitution > 1:
		return fmt.Errorf("%w: restitution must be in [0,1], got %v", ErrInvalidParameter, p.Restitution)
	case !finite(p.BoundaryMargin) || p.BoundaryMargin < 0:
		return fmt.Errorf("%w: boundary margin must be non-negative, got %v", ErrInvalidParameter, p.BoundaryMargin)
	case p.Width <= 2*p.BoundaryMargin || p.Height <= 2*p.BoundaryMargin:
		return fmt.Errorf("%w: domain %vx%v leaves no room inside margin %v", ErrInvalidParameter, p.Width, p.Height, p.BoundaryMargin)
	case !finite(p.RestDensity) || !finite(p.Stiffness) || !finite(p.NearStiffness):
		return fmt.Errorf("%w: density terms must be finite", ErrInvalidParameter)
	case !finite(p.Gravity.X) || !finite(p.Gravity.Y):
		return fmt.Errorf("%w: gravity must be finite", ErrInvalidParameter)
	}
	return nil
}

func positive(v float64) bool {
	return finite(v) && v > 0
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
