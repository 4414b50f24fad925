// Package telemetry provides fluid step statistics, phase timing, and CSV output.
package telemetry

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/fluid"
)

// Collector accumulates per-step results within time windows and produces WindowStats.
type Collector struct {
	windowDurationTicks int64
	dt                  float64

	windowStartTick int64

	// Accumulators for the current window
	steps               int
	densitySum          float64
	pairsSum            int
	maxDensity          float64
	maxPressure         float64
	maxNearPressure     float64
	clampedPressures    int
	boundaryCorrections int
	emitted             int
	drained             int
}

// NewCollector creates a new stats collector.
// windowDuration: how long each stats window lasts in simulation time units
// dt: simulation time per tick (used for tick-to-time conversion)
func NewCollector(windowDuration, dt float64) *Collector {
	ticksPerWindow := int64(1)
	if dt > 0 {
		ticksPerWindow = int64(windowDuration / dt)
	}
	if ticksPerWindow < 1 {
		ticksPerWindow = 1
	}
	return &Collector{
		windowDurationTicks: ticksPerWindow,
		dt:                  dt,
	}
}

// RecordStep folds one step's solver statistics into the window.
func (c *Collector) RecordStep(s fluid.StepStats) {
	c.steps++
	c.densitySum += s.MeanDensity
	c.pairsSum += s.Pairs
	c.maxDensity = math.Max(c.maxDensity, s.MaxDensity)
	c.maxPressure = math.Max(c.maxPressure, s.MaxPressure)
	c.maxNearPressure = math.Max(c.maxNearPressure, s.MaxNearPressure)
	c.clampedPressures += s.ClampedPressures
	c.boundaryCorrections += s.BoundaryCorrections
}

// RecordEmitted records particles added by sources or the pointer.
func (c *Collector) RecordEmitted(n int) {
	c.emitted += n
}

// RecordDrained records particles removed by sinks or the pointer.
func (c *Collector) RecordDrained(n int) {
	c.drained += n
}

// ShouldFlush returns true if enough ticks have passed to flush the window.
func (c *Collector) ShouldFlush(currentTick int64) bool {
	return currentTick-c.windowStartTick >= c.windowDurationTicks
}

// Flush produces a WindowStats and resets counters for the next window.
// particles is sampled for the speed distribution; sources and sinks are
// the current collaborator counts.
func (c *Collector) Flush(currentTick int64, particles []fluid.Particle, sources, sinks int) WindowStats {
	speeds := make([]float64, len(particles))
	var ke float64
	for i := range particles {
		v := particles[i].Velocity
		speeds[i] = r2.Norm(v)
		ke += 0.5 * r2.Norm2(v)
	}
	mean, std, p50, p90, maxSpeed := ComputeSpeedStats(speeds)

	stats := WindowStats{
		WindowStartTick: c.windowStartTick,
		WindowEndTick:   currentTick,
		SimTime:         float64(currentTick) * c.dt,

		Particles: len(particles),
		Sources:   sources,
		Sinks:     sinks,
		Emitted:   c.emitted,
		Drained:   c.drained,

		SpeedMean: mean,
		SpeedStd:  std,
		SpeedP50:  p50,
		SpeedP90:  p90,
		SpeedMax:  maxSpeed,

		KineticEnergy: ke,

		MaxDensity:          c.maxDensity,
		MaxPressure:         c.maxPressure,
		MaxNearPressure:     c.maxNearPressure,
		ClampedPressures:    c.clampedPressures,
		BoundaryCorrections: c.boundaryCorrections,
	}
	if c.steps > 0 {
		stats.MeanDensity = c.densitySum / float64(c.steps)
		stats.MeanPairs = float64(c.pairsSum) / float64(c.steps)
	}

	*c = Collector{
		windowDurationTicks: c.windowDurationTicks,
		dt:                  c.dt,
		windowStartTick:     currentTick,
	}
	return stats
}

// WindowDurationTicks returns the number of ticks per window.
func (c *Collector) WindowDurationTicks() int64 {
	return c.windowDurationTicks
}
