// Package fluid implements a 2D particle fluid advanced by double density
// relaxation over a spatial hash grid.
package fluid

import (
	"fmt"
	"iter"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r2"
)

// StepStats describes the most recent completed step.
type StepStats struct {
	Tick                int64
	Particles           int
	Pairs               int
	MeanDensity         float64
	MaxDensity          float64
	MaxPressure         float64
	MaxNearPressure     float64
	ClampedPressures    int
	BoundaryCorrections int
	ActiveBuckets       int
}

// Simulation owns the particles, the grid and the parameters of one fluid.
// It is not safe for concurrent use.
type Simulation struct {
	params    Params
	particles Store
	grid      *SpatialHashGrid
	solver    Solver
	ext       Extension
	observer  func(Stage)
	rng       *rand.Rand

	running  bool
	stepping bool
	corrupt  bool
	tick     int64
	stats    StepStats
}

// New creates a paused simulation with no particles.
func New(params Params, seed int64) (*Simulation, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Simulation{
		params: params,
		grid:   NewSpatialHashGrid(params.NumBuckets, params.KernelRadius),
		ext:    NopExtension{},
		rng:    rand.New(rand.NewSource(seed)),
	}, nil
}

// Configure replaces the parameters. The current step, if any, keeps the
// values it started with. Invalid parameters are rejected and the previous
// set stays in effect.
func (s *Simulation) Configure(params Params) error {
	if err := params.Validate(); err != nil {
		return fmt.Errorf("configure: %w", err)
	}
	s.params = params
	return nil
}

// Params returns the current parameters.
func (s *Simulation) Params() Params {
	return s.params
}

// SetExtension installs the viscosity/spring stages. nil restores the no-op default.
func (s *Simulation) SetExtension(ext Extension) {
	if ext == nil {
		ext = NopExtension{}
	}
	s.ext = ext
}

// SetStageObserver registers fn to be called as each stage begins.
func (s *Simulation) SetStageObserver(fn func(Stage)) {
	s.observer = fn
}

// Start lets Step advance the simulation.
func (s *Simulation) Start() { s.running = true }

// Pause makes Step a no-op.
func (s *Simulation) Pause() { s.running = false }

// Running reports whether Step advances the simulation.
func (s *Simulation) Running() bool { return s.running }

// Tick returns the number of completed steps.
func (s *Simulation) Tick() int64 { return s.tick }

// Stats returns statistics for the last completed step.
func (s *Simulation) Stats() StepStats { return s.stats }

// Grid exposes the spatial index as of the last rebuild.
func (s *Simulation) Grid() *SpatialHashGrid { return s.grid }

// Particles returns the particle array. Callers must treat it as read-only;
// it is invalidated by any population change.
func (s *Simulation) Particles() []Particle {
	return s.particles.All()
}

// All yields every particle by value, so callers cannot modify the
// simulation through it.
func (s *Simulation) All() iter.Seq2[int, Particle] {
	return func(yield func(int, Particle) bool) {
		for i, p := range s.particles.All() {
			if !yield(i, p) {
				return
			}
		}
	}
}

// ParticleAt returns a copy of particle i.
func (s *Simulation) ParticleAt(i int) Particle {
	return s.particles.All()[i]
}

// Len returns the particle count.
func (s *Simulation) Len() int {
	return s.particles.Len()
}

// AddParticles inserts n particles at rest at uniformly random positions
// inside the domain.
func (s *Simulation) AddParticles(n int) error {
	if s.stepping {
		return ErrStepInProgress
	}
	for i := 0; i < n; i++ {
		s.particles.Add(r2.Vec{
			X: s.rng.Float64() * s.params.Width,
			Y: s.rng.Float64() * s.params.Height,
		})
	}
	s.grid.Clear()
	s.grid.grow(s.particles.Len())
	return nil
}

// AddParticleAt inserts one particle at rest at pos.
func (s *Simulation) AddParticleAt(pos r2.Vec) error {
	if s.stepping {
		return ErrStepInProgress
	}
	i := s.particles.Add(pos)
	s.grid.Clear()
	s.grid.grow(i + 1)
	return nil
}

// RemoveParticlesNear swap-removes every particle within radius of center.
// Particle indices are not preserved. The grid index arrays are resized to
// the new count.
func (s *Simulation) RemoveParticlesNear(center r2.Vec, radius float64) (int, error) {
	if s.stepping {
		return 0, ErrStepInProgress
	}
	removed := s.particles.RemoveWithin(center, radius)
	if removed > 0 {
		s.grid.Reset(s.particles.Len())
	}
	return removed, nil
}

// Reset drops all particles and clears a corrupt state. The running flag and
// parameters are kept.
func (s *Simulation) Reset() {
	s.particles.Clear()
	s.grid = NewSpatialHashGrid(s.params.NumBuckets, s.params.KernelRadius)
	s.corrupt = false
	s.tick = 0
	s.stats = StepStats{}
}

// Step advances every particle by one dt. It does nothing while paused.
// An extension error abandons the step part way; the particles are then in
// an undefined state and Step refuses to run until Reset.
func (s *Simulation) Step(in Interaction) error {
	if s.corrupt {
		return ErrCorruptState
	}
	if !s.running {
		return nil
	}

	p := s.params
	s.ensureGrid(&p)

	s.stepping = true
	defer func() { s.stepping = false }()

	particles := s.particles.All()
	ctx := &StepContext{Particles: particles, Grid: s.grid, Params: &p, Tick: s.tick}

	s.enter(StageExternalForces)
	ApplyExternalForces(particles, &p, in)

	s.enter(StagePredict)
	PredictPositions(particles, p.DT)

	s.enter(StageGridRebuild)
	s.grid.Rebuild(particles)

	s.enter(StageViscosity)
	if err := s.ext.ApplyViscosity(ctx); err != nil {
		return s.abandon(StageViscosity, err)
	}
	s.enter(StageAdjustSprings)
	if err := s.ext.AdjustSprings(ctx); err != nil {
		return s.abandon(StageAdjustSprings, err)
	}
	s.enter(StageSpringDisplacements)
	if err := s.ext.ApplySpringDisplacements(ctx); err != nil {
		return s.abandon(StageSpringDisplacements, err)
	}

	s.enter(StageRelaxation)
	rs := s.solver.Relax(particles, s.grid, &p)

	s.enter(StageBoundary)
	corrections := ResolveBoundaries(particles, &p)

	s.enter(StageVelocity)
	ReconcileVelocities(particles, p.DT)

	s.tick++
	s.stats = StepStats{
		Tick:                s.tick,
		Particles:           len(particles),
		Pairs:               rs.Pairs,
		MeanDensity:         rs.MeanDensity(),
		MaxDensity:          rs.MaxDensity,
		MaxPressure:         rs.MaxPressure,
		MaxNearPressure:     rs.MaxNearPressure,
		ClampedPressures:    rs.Clamped,
		BoundaryCorrections: corrections,
		ActiveBuckets:       len(s.grid.ActiveBuckets()),
	}
	return nil
}

// ensureGrid replaces the grid when the bucket count or cell size changed.
func (s *Simulation) ensureGrid(p *Params) {
	if s.grid.NumBuckets() == p.NumBuckets && s.grid.CellSize() == p.KernelRadius {
		return
	}
	s.grid = NewSpatialHashGrid(p.NumBuckets, p.KernelRadius)
}

func (s *Simulation) enter(stage Stage) {
	if s.observer != nil {
		s.observer(stage)
	}
}

func (s *Simulation) abandon(stage Stage, err error) error {
	s.corrupt = true
	return fmt.Errorf("%s stage: %w", stage, err)
}
