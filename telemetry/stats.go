package telemetry

import (
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// WindowStats holds aggregated statistics for a time window.
type WindowStats struct {
	WindowStartTick int64   `csv:"-"`
	WindowEndTick   int64   `csv:"window_end"`
	SimTime         float64 `csv:"sim_time"`

	// Population at window end, and flow during the window
	Particles int `csv:"particles"`
	Sources   int `csv:"sources"`
	Sinks     int `csv:"sinks"`
	Emitted   int `csv:"emitted"`
	Drained   int `csv:"drained"`

	// Speed distribution (sampled at window end)
	SpeedMean float64 `csv:"speed_mean"`
	SpeedStd  float64 `csv:"speed_std"`
	SpeedP50  float64 `csv:"speed_p50"`
	SpeedP90  float64 `csv:"speed_p90"`
	SpeedMax  float64 `csv:"speed_max"`

	KineticEnergy float64 `csv:"kinetic_energy"`

	// Solver health over the window
	MeanDensity         float64 `csv:"mean_density"` // Mean of per-step mean densities
	MaxDensity          float64 `csv:"max_density"`
	MaxPressure         float64 `csv:"max_pressure"`
	MaxNearPressure     float64 `csv:"max_near_pressure"`
	ClampedPressures    int     `csv:"clamped_pressures"`
	BoundaryCorrections int     `csv:"boundary_corrections"`
	MeanPairs           float64 `csv:"mean_pairs"`
}

// Quantile returns the empirical p-quantile of sorted values, 0 when empty.
func Quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	switch {
	case p <= 0:
		return sorted[0]
	case p >= 1:
		return sorted[len(sorted)-1]
	}
	return stat.Quantile(p, stat.Empirical, sorted, nil)
}

// ComputeSpeedStats calculates the distribution summary of speed values.
func ComputeSpeedStats(values []float64) (mean, std, p50, p90, max float64) {
	if len(values) == 0 {
		return 0, 0, 0, 0, 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std = stat.PopMeanStdDev(sorted, nil)
	p50 = Quantile(sorted, 0.50)
	p90 = Quantile(sorted, 0.90)
	max = floats.Max(sorted)
	return mean, std, p50, p90, max
}

// LogValue implements slog.LogValuer for structured logging.
func (s WindowStats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("window_start", s.WindowStartTick),
		slog.Int64("window_end", s.WindowEndTick),
		slog.Float64("sim_time", s.SimTime),
		slog.Int("particles", s.Particles),
		slog.Int("sources", s.Sources),
		slog.Int("sinks", s.Sinks),
		slog.Int("emitted", s.Emitted),
		slog.Int("drained", s.Drained),
		slog.Float64("speed_mean", s.SpeedMean),
		slog.Float64("speed_std", s.SpeedStd),
		slog.Float64("speed_p50", s.SpeedP50),
		slog.Float64("speed_p90", s.SpeedP90),
		slog.Float64("speed_max", s.SpeedMax),
		slog.Float64("kinetic_energy", s.KineticEnergy),
		slog.Float64("mean_density", s.MeanDensity),
		slog.Float64("max_density", s.MaxDensity),
		slog.Float64("max_pressure", s.MaxPressure),
		slog.Float64("max_near_pressure", s.MaxNearPressure),
		slog.Int("clamped_pressures", s.ClampedPressures),
		slog.Int("boundary_corrections", s.BoundaryCorrections),
		slog.Float64("mean_pairs", s.MeanPairs),
	)
}

// LogStats logs the window stats using slog.
func (s WindowStats) LogStats() {
	slog.Info("stats", "window", s)
}
