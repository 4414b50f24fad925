package game

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/fluid"
	"github.com/pthm-cable/droplet/telemetry"
)

// UpdateHeadless runs one update's worth of steps with no pointer input.
func (g *Game) UpdateHeadless() {
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.Step(fluid.Interaction{}); err != nil {
			return
		}
	}
}

// Step advances the population and the fluid by one tick. A failed fluid
// step pauses the game and leaves it corrupt until Reset.
func (g *Game) Step(in fluid.Interaction) error {
	if g.corrupt {
		return fluid.ErrCorruptState
	}
	if !g.sim.Running() {
		return nil
	}

	g.perfCollector.StartTick()
	defer g.perfCollector.EndTick()

	g.perfCollector.StartPhase(telemetry.PhasePopulation)
	if err := g.updatePopulation(in); err != nil {
		slog.Error("population update failed", "tick", g.sim.Tick(), "error", err)
		return err
	}

	if err := g.sim.Step(in); err != nil {
		g.corrupt = true
		g.sim.Pause()
		slog.Error("fluid step failed", "tick", g.sim.Tick(), "error", err)
		return err
	}

	g.perfCollector.StartPhase(telemetry.PhaseTelemetry)
	g.collector.RecordStep(g.sim.Stats())
	g.flushTelemetry()
	return nil
}

// updatePopulation runs the sources and sinks, then the pointer's emit and
// drain.
func (g *Game) updatePopulation(in fluid.Interaction) error {
	emitted, drained, err := g.population.Update(g.sim)
	g.collector.RecordEmitted(emitted)
	g.collector.RecordDrained(drained)
	if err != nil {
		return fmt.Errorf("sources and sinks: %w", err)
	}

	pop := g.cfg.Population
	at := in.Pointer
	if in.Emit {
		n, err := g.population.Sources.EmitAt(g.sim, at, pop.EmitRate, pop.EmitSpread, &g.emitCarry)
		g.collector.RecordEmitted(n)
		if n > 0 {
			g.effects.Emit(float32(at.X), float32(at.Y), n)
		}
		if err != nil {
			return fmt.Errorf("pointer emit: %w", err)
		}
	}
	if in.Drain {
		n, err := g.population.Sinks.DrainAt(g.sim, at, pop.DrainRadius)
		g.collector.RecordDrained(n)
		if n > 0 {
			g.effects.Drain(float32(at.X), float32(at.Y), n)
		}
		if err != nil {
			return fmt.Errorf("pointer drain: %w", err)
		}
	}
	return nil
}

// PlaceSource adds a source at the given world position using the pointer
// emission settings.
func (g *Game) PlaceSource(at r2.Vec) {
	pop := g.cfg.Population
	g.population.AddSource(at.X, at.Y, pop.EmitRate, pop.EmitSpread)
	g.effects.Place(float32(at.X), float32(at.Y))
}

// PlaceSink adds a sink at the given world position using the pointer
// drain radius.
func (g *Game) PlaceSink(at r2.Vec) {
	g.population.AddSink(at.X, at.Y, g.cfg.Population.DrainRadius)
	g.effects.Place(float32(at.X), float32(at.Y))
}

// RemoveMarkers deletes sources and sinks near the given world position.
func (g *Game) RemoveMarkers(at r2.Vec) int {
	return g.population.RemoveNear(at.X, at.Y, g.cfg.Fluid.KernelRadius)
}

// Configure applies new solver parameters to the running fluid.
func (g *Game) Configure(p fluid.Params) error {
	if err := g.sim.Configure(p); err != nil {
		return err
	}
	g.cfg.ApplyFluidParams(p)
	return nil
}

// SaveParams writes the current configuration, including live parameter
// edits, to path.
func (g *Game) SaveParams(path string) error {
	cfg := g.cfg.Clone()
	cfg.ApplyFluidParams(g.sim.Params())
	return cfg.WriteYAML(path)
}
