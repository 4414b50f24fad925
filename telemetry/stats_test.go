package telemetry

import (
	"math"
	"testing"

	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/fluid"
)

func TestQuantile(t *testing.T) {
	tests := []struct {
		name   string
		sorted []float64
		p      float64
		want   float64
	}{
		{"empty slice", []float64{}, 0.5, 0},
		{"single element", []float64{5.0}, 0.5, 5.0},
		{"p0", []float64{1, 2, 3, 4, 5}, 0.0, 1.0},
		{"p100", []float64{1, 2, 3, 4, 5}, 1.0, 5.0},
		{"p50 odd", []float64{1, 2, 3, 4, 5}, 0.5, 3.0},
		{"p50 even", []float64{1, 2, 3, 4}, 0.5, 2.0},
		{"p10", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.1, 1.0},
		{"p90", []float64{1, 2, 3, 4, 5, 6, 7, 8, 9, 10}, 0.9, 9.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Quantile(tt.sorted, tt.p)
			if math.Abs(got-tt.want) > 0.001 {
				t.Errorf("Quantile(%v, %v) = %v, want %v", tt.sorted, tt.p, got, tt.want)
			}
		})
	}
}

func TestComputeSpeedStats(t *testing.T) {
	values := []float64{1.0, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9, 0.1}
	mean, std, p50, p90, max := ComputeSpeedStats(values)

	if math.Abs(mean-0.55) > 0.001 {
		t.Errorf("mean = %v, want 0.55", mean)
	}
	if math.Abs(std-0.28723) > 0.001 {
		t.Errorf("std = %v, want ~0.28723", std)
	}
	if math.Abs(p50-0.5) > 0.001 {
		t.Errorf("p50 = %v, want 0.5", p50)
	}
	if math.Abs(p90-0.9) > 0.001 {
		t.Errorf("p90 = %v, want 0.9", p90)
	}
	if max != 1.0 {
		t.Errorf("max = %v, want 1.0", max)
	}
	if values[0] != 1.0 {
		t.Error("input slice was reordered")
	}
}

func TestComputeSpeedStatsEmpty(t *testing.T) {
	mean, std, p50, p90, max := ComputeSpeedStats(nil)
	if mean != 0 || std != 0 || p50 != 0 || p90 != 0 || max != 0 {
		t.Error("empty slice should return all zeros")
	}
}

func TestCollectorWindow(t *testing.T) {
	c := NewCollector(10, 0.5)
	if c.WindowDurationTicks() != 20 {
		t.Fatalf("window ticks = %d, want 20", c.WindowDurationTicks())
	}
	if c.ShouldFlush(19) {
		t.Error("should not flush before window ends")
	}
	if !c.ShouldFlush(20) {
		t.Error("should flush at window end")
	}

	c.RecordStep(fluid.StepStats{MeanDensity: 2, MaxDensity: 5, MaxPressure: 0.5, Pairs: 10, ClampedPressures: 1, BoundaryCorrections: 3})
	c.RecordStep(fluid.StepStats{MeanDensity: 4, MaxDensity: 3, MaxPressure: 0.9, Pairs: 30, ClampedPressures: 2})
	c.RecordEmitted(7)
	c.RecordDrained(2)

	particles := []fluid.Particle{
		{Velocity: r2.Vec{X: 3, Y: 4}},
		{Velocity: r2.Vec{}},
	}
	ws := c.Flush(20, particles, 1, 2)

	if ws.WindowStartTick != 0 || ws.WindowEndTick != 20 || ws.SimTime != 10 {
		t.Errorf("window bounds = %d..%d at %v", ws.WindowStartTick, ws.WindowEndTick, ws.SimTime)
	}
	if ws.MeanDensity != 3 || ws.MaxDensity != 5 || ws.MaxPressure != 0.9 {
		t.Errorf("density stats = %+v", ws)
	}
	if ws.MeanPairs != 20 || ws.ClampedPressures != 3 || ws.BoundaryCorrections != 3 {
		t.Errorf("solver counters = %+v", ws)
	}
	if ws.Emitted != 7 || ws.Drained != 2 || ws.Sources != 1 || ws.Sinks != 2 || ws.Particles != 2 {
		t.Errorf("population = %+v", ws)
	}
	if ws.SpeedMax != 5 || ws.KineticEnergy != 12.5 {
		t.Errorf("speed max = %v, ke = %v", ws.SpeedMax, ws.KineticEnergy)
	}

	next := c.Flush(40, nil, 0, 0)
	if next.WindowStartTick != 20 || next.Emitted != 0 || next.MaxDensity != 0 || next.MeanDensity != 0 {
		t.Errorf("counters not reset: %+v", next)
	}
	if c.WindowDurationTicks() != 20 {
		t.Error("window duration lost on flush")
	}
}

func TestNewCollectorMinimumWindow(t *testing.T) {
	if got := NewCollector(0.1, 1).WindowDurationTicks(); got != 1 {
		t.Errorf("window ticks = %d, want 1", got)
	}
}
