package fluid

// Stage identifies one step of the pipeline.
type Stage uint8

// Pipeline stages in execution order.
const (
	StageExternalForces Stage = iota
	StagePredict
	StageGridRebuild
	StageViscosity
	StageAdjustSprings
	StageSpringDisplacements
	StageRelaxation
	StageBoundary
	StageVelocity
	numStages
)

var stageNames = [numStages]string{
	StageExternalForces:      "external_forces",
	StagePredict:             "predict",
	StageGridRebuild:         "grid_rebuild",
	StageViscosity:           "viscosity",
	StageAdjustSprings:       "adjust_springs",
	StageSpringDisplacements: "spring_displacements",
	StageRelaxation:          "relaxation",
	StageBoundary:            "boundary",
	StageVelocity:            "velocity",
}

func (s Stage) String() string {
	if s < numStages {
		return stageNames[s]
	}
	return "unknown"
}

// Stages returns every stage in execution order.
func Stages() []Stage {
	out := make([]Stage, numStages)
	for i := range out {
		out[i] = Stage(i)
	}
	return out
}
