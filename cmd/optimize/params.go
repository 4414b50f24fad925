package main

import (
	"github.com/pthm-cable/droplet/config"
)

// ParamSpec defines a single optimizable parameter.
type ParamSpec struct {
	Name    string  // Human-readable name
	Path    string  // Config path for logging
	Min     float64 // Lower bound
	Max     float64 // Upper bound
	Default float64 // Default value
}

// ParamVector holds the set of all optimizable parameters.
type ParamVector struct {
	Specs []ParamSpec
}

// NewParamVector creates the standard set of optimizable parameters.
// Defaults are taken from base so a tuned config can be refined further.
func NewParamVector(base *config.Config) *ParamVector {
	f := base.Fluid
	return &ParamVector{
		Specs: []ParamSpec{
			{Name: "stiffness", Path: "fluid.stiffness", Min: 0.05, Max: 2.0, Default: f.Stiffness},
			{Name: "near_stiffness", Path: "fluid.near_stiffness", Min: 0.1, Max: 5.0, Default: f.NearStiffness},
			{Name: "rest_density", Path: "fluid.rest_density", Min: 1.0, Max: 12.0, Default: f.RestDensity},
			{Name: "pressure_clamp", Path: "fluid.pressure_clamp", Min: 0.1, Max: 4.0, Default: f.PressureClamp},
		},
	}
}

// Dim returns the number of parameters.
func (pv *ParamVector) Dim() int {
	return len(pv.Specs)
}

// DefaultVector returns the default parameter values as a slice.
func (pv *ParamVector) DefaultVector() []float64 {
	v := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		v[i] = spec.Default
	}
	return v
}

// Normalize converts raw parameter values to [0,1] range.
func (pv *ParamVector) Normalize(raw []float64) []float64 {
	normalized := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		normalized[i] = (raw[i] - spec.Min) / (spec.Max - spec.Min)
	}
	return normalized
}

// Denormalize converts [0,1] values back to raw parameter values.
func (pv *ParamVector) Denormalize(normalized []float64) []float64 {
	raw := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		raw[i] = spec.Min + normalized[i]*(spec.Max-spec.Min)
	}
	return raw
}

// Clamp ensures all values are within bounds.
func (pv *ParamVector) Clamp(v []float64) []float64 {
	clamped := make([]float64, len(pv.Specs))
	for i, spec := range pv.Specs {
		clamped[i] = min(max(v[i], spec.Min), spec.Max)
	}
	return clamped
}

// ApplyToConfig writes clamped parameter values into cfg.
// Order must match Specs order.
func (pv *ParamVector) ApplyToConfig(cfg *config.Config, values []float64) {
	clamped := pv.Clamp(values)
	cfg.Fluid.Stiffness = clamped[0]
	cfg.Fluid.NearStiffness = clamped[1]
	cfg.Fluid.RestDensity = clamped[2]
	cfg.Fluid.PressureClamp = clamped[3]
}

// ExtractFromConfig reads the current parameter values from cfg.
func (pv *ParamVector) ExtractFromConfig(cfg *config.Config) []float64 {
	return []float64{
		cfg.Fluid.Stiffness,
		cfg.Fluid.NearStiffness,
		cfg.Fluid.RestDensity,
		cfg.Fluid.PressureClamp,
	}
}
