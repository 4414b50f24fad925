// Package config provides configuration loading and access for the simulation.
package config

import (
	_ "embed"
	"fmt"
	"os"

	"gonum.org/v1/gonum/spatial/r2"
	"gopkg.in/yaml.v3"

	"github.com/pthm-cable/droplet/fluid"
)

//go:embed defaults.yaml
var defaultsYAML []byte

// Config holds all simulation configuration parameters.
type Config struct {
	Screen      ScreenConfig      `yaml:"screen"`
	World       WorldConfig       `yaml:"world"`
	Fluid       FluidConfig       `yaml:"fluid"`
	Interaction InteractionConfig `yaml:"interaction"`
	Population  PopulationConfig  `yaml:"population"`
	Sources     []SourceConfig    `yaml:"sources"`
	Sinks       []SinkConfig      `yaml:"sinks"`
	Telemetry   TelemetryConfig   `yaml:"telemetry"`

	// Derived values computed after loading
	Derived DerivedConfig `yaml:"-"`
}

// ScreenConfig holds display settings.
type ScreenConfig struct {
	Width     int `yaml:"width"`
	Height    int `yaml:"height"`
	TargetFPS int `yaml:"target_fps"`
}

// WorldConfig holds simulation domain dimensions.
type WorldConfig struct {
	Width  float64 `yaml:"width"`  // Domain width (0 = use screen width)
	Height float64 `yaml:"height"` // Domain height (0 = use screen height)
}

// FluidConfig holds the relaxation solver parameters.
type FluidConfig struct {
	DT             float64    `yaml:"dt"`
	Gravity        [2]float64 `yaml:"gravity"`
	KernelRadius   float64    `yaml:"kernel_radius"` // Interaction cutoff and hash cell size
	RestDensity    float64    `yaml:"rest_density"`
	Stiffness      float64    `yaml:"stiffness"`
	NearStiffness  float64    `yaml:"near_stiffness"`
	PressureClamp  float64    `yaml:"pressure_clamp"`  // Max |pressure| per particle (stability cap)
	BoundaryMargin float64    `yaml:"boundary_margin"` // Distance from the domain edge to the wall
	Restitution    float64    `yaml:"restitution"`     // Fraction of overshoot pulled back per step
	NumBuckets     int        `yaml:"num_buckets"`
}

// InteractionConfig holds pointer interaction tuning.
type InteractionConfig struct {
	Radius     float64 `yaml:"radius"`      // Attract/repel reach
	Strength   float64 `yaml:"strength"`    // Attract/repel acceleration
	DragRadius float64 `yaml:"drag_radius"` // Reach of the drag velocity override
}

// PopulationConfig holds particle population parameters.
type PopulationConfig struct {
	Initial      int     `yaml:"initial"`
	MaxParticles int     `yaml:"max_particles"`
	EmitRate     float64 `yaml:"emit_rate"`    // Particles per step while the pointer emits
	EmitSpread   float64 `yaml:"emit_spread"`  // Jitter radius around the pointer
	DrainRadius  float64 `yaml:"drain_radius"` // Pointer drain radius
}

// SourceConfig places a persistent particle source.
type SourceConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Rate   float64 `yaml:"rate"`   // Particles per step
	Spread float64 `yaml:"spread"` // Jitter radius
}

// SinkConfig places a persistent particle sink.
type SinkConfig struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
}

// TelemetryConfig holds telemetry parameters.
type TelemetryConfig struct {
	StatsWindow         float64 `yaml:"stats_window"` // Seconds of simulated time per window
	PerfCollectorWindow int     `yaml:"perf_collector_window"`
}

// DerivedConfig holds computed values derived from the loaded config.
type DerivedConfig struct {
	WorldW float64 // Effective domain width
	WorldH float64 // Effective domain height
}

// global holds the loaded configuration.
var global *Config

// Init loads configuration from the given path, or uses embedded defaults if path is empty.
// Must be called before Cfg().
func Init(path string) error {
	cfg, err := Load(path)
	if err != nil {
		return err
	}
	global = cfg
	return nil
}

// Cfg returns the global configuration. Panics if Init was not called.
func Cfg() *Config {
	if global == nil {
		panic("config: Cfg() called before Init()")
	}
	return global
}

// Load loads configuration from a YAML file, merging with embedded defaults.
// If path is empty, only embedded defaults are used.
func Load(path string) (*Config, error) {
	cfg := &Config{}
	if err := yaml.Unmarshal(defaultsYAML, cfg); err != nil {
		return nil, fmt.Errorf("parsing embedded defaults: %w", err)
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
		// Unmarshal into same struct - only overwrites fields present in file
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	cfg.computeDerived()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// computeDerived calculates values derived from loaded config.
func (c *Config) computeDerived() {
	// World dimensions default to screen size if not specified
	c.Derived.WorldW = c.World.Width
	if c.Derived.WorldW == 0 {
		c.Derived.WorldW = float64(c.Screen.Width)
	}
	c.Derived.WorldH = c.World.Height
	if c.Derived.WorldH == 0 {
		c.Derived.WorldH = float64(c.Screen.Height)
	}

	if c.Fluid.PressureClamp == 0 {
		c.Fluid.PressureClamp = fluid.DefaultPressureClamp
	}
	if c.Fluid.NumBuckets == 0 {
		c.Fluid.NumBuckets = fluid.DefaultNumBuckets
	}
}

// FluidParams builds solver parameters from the fluid and interaction sections.
func (c *Config) FluidParams() fluid.Params {
	f := c.Fluid
	return fluid.Params{
		RestDensity:         f.RestDensity,
		Stiffness:           f.Stiffness,
		NearStiffness:       f.NearStiffness,
		KernelRadius:        f.KernelRadius,
		Gravity:             r2.Vec{X: f.Gravity[0], Y: f.Gravity[1]},
		DT:                  f.DT,
		PressureClamp:       f.PressureClamp,
		Width:               c.Derived.WorldW,
		Height:              c.Derived.WorldH,
		BoundaryMargin:      f.BoundaryMargin,
		Restitution:         f.Restitution,
		NumBuckets:          f.NumBuckets,
		InteractionRadius:   c.Interaction.Radius,
		InteractionStrength: c.Interaction.Strength,
		DragRadius:          c.Interaction.DragRadius,
	}
}

// ApplyFluidParams writes solver parameters back into the config, e.g. after
// live tuning, so WriteYAML captures them.
func (c *Config) ApplyFluidParams(p fluid.Params) {
	c.Fluid.RestDensity = p.RestDensity
	c.Fluid.Stiffness = p.Stiffness
	c.Fluid.NearStiffness = p.NearStiffness
	c.Fluid.KernelRadius = p.KernelRadius
	c.Fluid.Gravity = [2]float64{p.Gravity.X, p.Gravity.Y}
	c.Fluid.DT = p.DT
	c.Fluid.PressureClamp = p.PressureClamp
	c.Fluid.BoundaryMargin = p.BoundaryMargin
	c.Fluid.Restitution = p.Restitution
	c.Fluid.NumBuckets = p.NumBuckets
	c.Interaction.Radius = p.InteractionRadius
	c.Interaction.Strength = p.InteractionStrength
	c.Interaction.DragRadius = p.DragRadius
}

// Validate checks the solver parameters and population limits.
func (c *Config) Validate() error {
	if err := c.FluidParams().Validate(); err != nil {
		return fmt.Errorf("fluid config: %w", err)
	}
	if c.Population.Initial < 0 || c.Population.MaxParticles < 0 {
		return fmt.Errorf("population config: counts must be non-negative")
	}
	if c.Telemetry.StatsWindow < 0 {
		return fmt.Errorf("telemetry config: stats_window must be non-negative")
	}
	return nil
}

// Clone returns a deep copy of the configuration.
func (c *Config) Clone() *Config {
	out := *c
	out.Sources = append([]SourceConfig(nil), c.Sources...)
	out.Sinks = append([]SinkConfig(nil), c.Sinks...)
	return &out
}

// WriteYAML writes the configuration to a YAML file.
func (c *Config) WriteYAML(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
