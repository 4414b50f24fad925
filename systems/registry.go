package systems

import (
	"github.com/pthm-cable/droplet/fluid"
	"github.com/pthm-cable/droplet/telemetry"
)

// SystemInfo describes a simulation phase for UI display.
type SystemInfo struct {
	ID          string // Internal identifier (matches the perf phase name)
	Name        string // Display name
	Description string // What this phase does
	Category    string // Grouping (e.g., "fluid", "population")
}

// SystemRegistry holds metadata about all phases.
// This centralizes naming so the UI and perf tracker stay in sync.
type SystemRegistry struct {
	systems []SystemInfo
	byID    map[string]SystemInfo
}

// NewSystemRegistry creates a registry with all known phases.
func NewSystemRegistry() *SystemRegistry {
	reg := &SystemRegistry{
		byID: make(map[string]SystemInfo),
	}
	reg.registerDefaults()
	return reg
}

var stageInfo = map[fluid.Stage][2]string{
	fluid.StageExternalForces:      {"Forces", "Applies gravity and pointer interaction"},
	fluid.StagePredict:             {"Predict", "Saves previous positions and advances by velocity"},
	fluid.StageGridRebuild:         {"Spatial Hash", "Rebuilds the neighbor lookup grid"},
	fluid.StageViscosity:           {"Viscosity", "Viscous impulses (extension hook)"},
	fluid.StageAdjustSprings:       {"Springs", "Spring rest lengths (extension hook)"},
	fluid.StageSpringDisplacements: {"Spring Push", "Spring displacements (extension hook)"},
	fluid.StageRelaxation:          {"Relaxation", "Double density relaxation"},
	fluid.StageBoundary:            {"Boundary", "Pulls particles back inside the walls"},
	fluid.StageVelocity:            {"Velocity", "Derives velocity from displacement"},
}

// registerDefaults adds all known phases to the registry in step order.
func (r *SystemRegistry) registerDefaults() {
	r.Register(SystemInfo{ID: telemetry.PhasePopulation, Name: "Population", Description: "Sources, sinks and pointer emit/drain", Category: "population"})

	for _, stage := range fluid.Stages() {
		info := stageInfo[stage]
		r.Register(SystemInfo{ID: stage.String(), Name: info[0], Description: info[1], Category: "fluid"})
	}

	r.Register(SystemInfo{ID: telemetry.PhaseTelemetry, Name: "Telemetry", Description: "Window stats and CSV output", Category: "internal"})
}

// Register adds a phase to the registry.
func (r *SystemRegistry) Register(info SystemInfo) {
	r.systems = append(r.systems, info)
	r.byID[info.ID] = info
}

// Get returns phase info by ID.
func (r *SystemRegistry) Get(id string) (SystemInfo, bool) {
	info, ok := r.byID[id]
	return info, ok
}

// GetName returns the display name for a phase ID.
// Falls back to the ID itself if not found.
func (r *SystemRegistry) GetName(id string) string {
	if info, ok := r.byID[id]; ok {
		return info.Name
	}
	return id
}

// All returns all registered phases.
func (r *SystemRegistry) All() []SystemInfo {
	return r.systems
}

// ByCategory returns phases filtered by category.
func (r *SystemRegistry) ByCategory(category string) []SystemInfo {
	var result []SystemInfo
	for _, info := range r.systems {
		if info.Category == category {
			result = append(result, info)
		}
	}
	return result
}

// Categories returns all unique categories in registration order.
func (r *SystemRegistry) Categories() []string {
	seen := make(map[string]bool)
	var cats []string
	for _, info := range r.systems {
		if !seen[info.Category] {
			seen[info.Category] = true
			cats = append(cats, info.Category)
		}
	}
	return cats
}
