package fluid

import "errors"

var (
	// ErrInvalidParameter is returned by Configure when a parameter set is rejected.
	// The previously configured parameters stay in effect.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrStepInProgress is returned by population changes attempted during a step.
	ErrStepInProgress = errors.New("step in progress")

	// ErrCorruptState is returned by Step after an earlier step was abandoned.
	// Call Reset before stepping again.
	ErrCorruptState = errors.New("simulation state corrupt")
)
