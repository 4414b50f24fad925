package fluid

// StepContext is what an Extension sees during a step. Particles may be
// moved in place; adding or removing particles is not allowed mid-step.
type StepContext struct {
	Particles []Particle
	Grid      *SpatialHashGrid
	Params    *Params
	Tick      int64
}

// Extension plugs viscosity and spring stages into the step pipeline.
// The stages run after the grid rebuild and before relaxation, in the order
// ApplyViscosity, AdjustSprings, ApplySpringDisplacements. A returned error
// abandons the step and marks the simulation corrupt.
type Extension interface {
	ApplyViscosity(ctx *StepContext) error
	AdjustSprings(ctx *StepContext) error
	ApplySpringDisplacements(ctx *StepContext) error
}

// NopExtension is the default Extension; every stage does nothing.
type NopExtension struct{}

func (NopExtension) ApplyViscosity(*StepContext) error           { return nil }
func (NopExtension) AdjustSprings(*StepContext) error            { return nil }
func (NopExtension) ApplySpringDisplacements(*StepContext) error { return nil }
