package main

import (
	"log/slog"
	"math"
	"sync"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/droplet/config"
	"github.com/pthm-cable/droplet/fluid"
	"github.com/pthm-cable/droplet/game"
	"github.com/pthm-cable/droplet/telemetry"
)

// failedFitness scores runs that could not complete or went non-finite.
const failedFitness = 1e6

// Fitness weights.
const (
	weightRestError  = 1.0  // squared relative error of mean density vs rest
	weightDensityCV  = 1.0  // squared coefficient of variation across windows
	weightOutside    = 10.0 // fraction of particles outside the domain
	weightClampShare = 0.5  // share of pressure terms that hit the clamp

	warmupWindows = 1 // windows skipped while the initial scatter settles
)

// FitnessEvaluator runs headless simulations and computes fitness.
type FitnessEvaluator struct {
	params      *ParamVector
	maxTicks    int64
	seeds       []int64
	baseConfig  *config.Config
	statsWindow float64

	mu          sync.Mutex
	lastOutside float64 // outside fraction from most recent Evaluate call
}

// NewFitnessEvaluator creates a new evaluator.
func NewFitnessEvaluator(params *ParamVector, maxTicks int64, seeds []int64, baseCfg *config.Config) *FitnessEvaluator {
	return &FitnessEvaluator{
		params:      params,
		maxTicks:    maxTicks,
		seeds:       seeds,
		baseConfig:  baseCfg,
		statsWindow: 100,
	}
}

// LastOutside returns the outside-domain fraction from the most recent evaluation.
func (fe *FitnessEvaluator) LastOutside() float64 {
	fe.mu.Lock()
	defer fe.mu.Unlock()
	return fe.lastOutside
}

// runResult holds the results from a single simulation run.
type runResult struct {
	windows     []telemetry.WindowStats
	restDensity float64
	outside     float64 // fraction of particles outside the domain at the end
	failed      bool
}

// Evaluate computes fitness for a parameter vector (lower = better).
// Seeds run in parallel; the fitness is their mean.
func (fe *FitnessEvaluator) Evaluate(x []float64) float64 {
	results := make([]*runResult, len(fe.seeds))
	var wg sync.WaitGroup

	for i, seed := range fe.seeds {
		wg.Add(1)
		go func(idx int, s int64) {
			defer wg.Done()
			results[idx] = fe.runSimulation(x, s)
		}(i, seed)
	}
	wg.Wait()

	var total, outside float64
	for _, r := range results {
		total += computeFitness(r)
		outside += r.outside
	}
	n := float64(len(fe.seeds))

	fe.mu.Lock()
	fe.lastOutside = outside / n
	fe.mu.Unlock()

	return total / n
}

// runSimulation executes a single headless run for maxTicks.
func (fe *FitnessEvaluator) runSimulation(x []float64, seed int64) *runResult {
	cfg := fe.baseConfig.Clone()
	fe.params.ApplyToConfig(cfg, x)

	result := &runResult{restDensity: cfg.Fluid.RestDensity}

	g, err := game.NewGameWithOptions(game.Options{
		Config:         cfg,
		Seed:           seed,
		Headless:       true,
		StatsWindowSec: fe.statsWindow,
		StepsPerUpdate: 1,
		StatsCallback: func(stats telemetry.WindowStats) {
			result.windows = append(result.windows, stats)
		},
	})
	if err != nil {
		slog.Warn("rejected candidate", "error", err)
		result.failed = true
		return result
	}
	defer g.Unload()

	for g.Tick() < fe.maxTicks {
		g.UpdateHeadless()
		if g.Corrupt() {
			result.failed = true
			return result
		}
	}

	params := g.Simulation().Params()
	outside, finite := sampleDomain(g.Simulation().Particles(), params)
	result.outside = outside
	result.failed = !finite
	return result
}

// sampleDomain returns the fraction of particles outside the domain and
// whether every position and velocity is finite.
func sampleDomain(particles []fluid.Particle, p fluid.Params) (outside float64, finite bool) {
	if len(particles) == 0 {
		return 0, true
	}
	var count int
	for i := range particles {
		pt := &particles[i]
		if !isFinite(pt.Position.X) || !isFinite(pt.Position.Y) ||
			!isFinite(pt.Velocity.X) || !isFinite(pt.Velocity.Y) {
			return 1, false
		}
		if pt.Position.X < 0 || pt.Position.X > p.Width || pt.Position.Y < 0 || pt.Position.Y > p.Height {
			count++
		}
	}
	return float64(count) / float64(len(particles)), true
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// computeFitness scores one run (lower = better): distance of the mean
// density from rest, density variation between windows, particles lost
// through the walls and how often the pressure clamp engaged.
func computeFitness(r *runResult) float64 {
	if r.failed {
		return failedFitness
	}
	if len(r.windows) <= warmupWindows {
		return failedFitness / 2
	}
	windows := r.windows[warmupWindows:]

	densities := make([]float64, len(windows))
	var clamped, terms float64
	for i, w := range windows {
		if !isFinite(w.MeanDensity) {
			return failedFitness
		}
		densities[i] = w.MeanDensity
		clamped += float64(w.ClampedPressures)
		terms += 2 * float64(w.Particles) * float64(w.WindowEndTick-w.WindowStartTick)
	}

	mean, std := stat.PopMeanStdDev(densities, nil)
	restErr := 0.0
	if r.restDensity > 0 {
		restErr = (mean - r.restDensity) / r.restDensity
	}
	cv := 0.0
	if mean > 0 {
		cv = std / mean
	}
	clampShare := 0.0
	if terms > 0 {
		clampShare = clamped / terms
	}

	return weightRestError*restErr*restErr +
		weightDensityCV*cv*cv +
		weightOutside*r.outside +
		weightClampShare*clampShare
}
