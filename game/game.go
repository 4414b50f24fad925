// Package game wires the fluid simulation to its population, telemetry,
// input and rendering.
package game

import (
	"fmt"
	"log/slog"
	"math/rand"

	"github.com/pthm-cable/droplet/camera"
	"github.com/pthm-cable/droplet/config"
	"github.com/pthm-cable/droplet/fluid"
	"github.com/pthm-cable/droplet/renderer"
	"github.com/pthm-cable/droplet/systems"
	"github.com/pthm-cable/droplet/telemetry"
	"github.com/pthm-cable/droplet/ui"
)

// Title is shown in the window title bar and the HUD.
const Title = "Droplet"

// maxStepsPerUpdate bounds the speed multiplier.
const maxStepsPerUpdate = 10

// Options configures a Game.
type Options struct {
	Config         *config.Config // nil uses config.Cfg()
	Seed           int64
	LogStats       bool
	StatsWindowSec float64 // 0 uses the config value
	OutputDir      string
	Headless       bool
	StepsPerUpdate int
	StatsCallback  func(telemetry.WindowStats)
}

// Game holds the simulation and everything attached to it.
type Game struct {
	cfg      *config.Config
	defaults fluid.Params
	rng      *rand.Rand
	headless bool

	sim        *fluid.Simulation
	population *systems.Population
	effects    *systems.EffectSystem
	emitCarry  float64
	corrupt    bool

	stepsPerUpdate int

	// Telemetry
	collector      *telemetry.Collector
	perfCollector  *telemetry.PerfCollector
	outputManager  *telemetry.OutputManager
	statsWindowSec float64
	logStats       bool
	statsCallback  func(telemetry.WindowStats)
	lastStats      telemetry.WindowStats

	// Input
	pointer pointerState

	// Graphics only
	camera         *camera.Camera
	fluidRenderer  *renderer.FluidRenderer
	effectRenderer *renderer.EffectRenderer
	uiOverlays     *ui.OverlayRegistry
	uiSystems      *systems.SystemRegistry
	uiHUD          *ui.HUD
	uiControls     *ui.ControlsPanel
	uiQuickStats   *ui.QuickStatsPanel
	uiPerfPanel    *ui.PerfPanel
	uiInspector    *ui.Inspector
	uiParams       *ui.ParamsPanel
	screenWidth    float32
	screenHeight   float32
}

// NewGameWithOptions builds a game, seeds the initial particles and the
// configured sources and sinks, and starts the simulation.
func NewGameWithOptions(opts Options) (*Game, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Cfg()
	}

	params := cfg.FluidParams()
	sim, err := fluid.New(params, opts.Seed)
	if err != nil {
		return nil, fmt.Errorf("creating simulation: %w", err)
	}

	steps := opts.StepsPerUpdate
	if steps < 1 {
		steps = 1
	}
	statsWindow := cfg.Telemetry.StatsWindow
	if opts.StatsWindowSec > 0 {
		statsWindow = opts.StatsWindowSec
	}

	rng := rand.New(rand.NewSource(opts.Seed))
	g := &Game{
		cfg:            cfg,
		defaults:       params,
		rng:            rng,
		headless:       opts.Headless,
		sim:            sim,
		population:     systems.NewPopulation(rng, cfg.Population.MaxParticles),
		effects:        systems.NewEffectSystem(rng),
		stepsPerUpdate: steps,
		collector:      telemetry.NewCollector(statsWindow, params.DT),
		perfCollector:  telemetry.NewPerfCollector(cfg.Telemetry.PerfCollectorWindow),
		statsWindowSec: statsWindow,
		logStats:       opts.LogStats,
		statsCallback:  opts.StatsCallback,
	}
	sim.SetStageObserver(g.perfCollector.ObserveStage)

	om, err := telemetry.NewOutputManager(opts.OutputDir)
	if err != nil {
		return nil, err
	}
	g.outputManager = om
	if err := om.WriteConfig(cfg); err != nil {
		slog.Error("failed to write config", "error", err)
	}

	for _, s := range cfg.Sources {
		g.population.AddSource(s.X, s.Y, s.Rate, s.Spread)
	}
	for _, s := range cfg.Sinks {
		g.population.AddSink(s.X, s.Y, s.Radius)
	}
	if err := sim.AddParticles(cfg.Population.Initial); err != nil {
		return nil, fmt.Errorf("seeding particles: %w", err)
	}
	sim.Start()

	if !opts.Headless {
		g.initGraphics()
	}
	return g, nil
}

// initGraphics creates the camera, renderers and panels.
func (g *Game) initGraphics() {
	cfg := g.cfg
	g.screenWidth = float32(cfg.Screen.Width)
	g.screenHeight = float32(cfg.Screen.Height)

	g.camera = camera.New(g.screenWidth, g.screenHeight, float32(cfg.Derived.WorldW), float32(cfg.Derived.WorldH))
	g.fluidRenderer = renderer.NewFluidRenderer(cfg.Fluid.KernelRadius)
	g.effectRenderer = renderer.NewEffectRenderer()

	g.uiOverlays = ui.NewOverlayRegistry()
	g.uiSystems = systems.NewSystemRegistry()
	g.uiHUD = ui.NewHUD()
	g.uiControls = ui.NewControlsPanel(10, 100, 200)
	g.uiQuickStats = ui.NewQuickStatsPanel(0, 0, 200)
	g.uiPerfPanel = ui.NewPerfPanel(0, 0)
	g.uiInspector = ui.NewInspector(0, 0, 220)
	g.uiParams = ui.NewParamsPanel(0, 0, 260)
	g.layoutPanels()
}

// layoutPanels anchors the right-hand panels to the current screen size.
func (g *Game) layoutPanels() {
	w := int32(g.screenWidth)
	g.uiQuickStats.SetPosition(w-210, 10)
	g.uiInspector.SetPosition(w-230, 150)
	g.uiParams.SetPosition(w-270, 150)
	g.uiPerfPanel.SetPosition(10, 300)
}

// Tick returns the number of completed fluid steps.
func (g *Game) Tick() int64 {
	return g.sim.Tick()
}

// Simulation exposes the fluid for inspection.
func (g *Game) Simulation() *fluid.Simulation {
	return g.sim
}

// Population exposes the sources and sinks.
func (g *Game) Population() *systems.Population {
	return g.population
}

// Corrupt reports whether a failed step left the fluid unusable until Reset.
func (g *Game) Corrupt() bool {
	return g.corrupt
}

// Reset drops every particle and reseeds the initial population. Sources,
// sinks and parameters are kept.
func (g *Game) Reset() error {
	g.sim.Reset()
	g.corrupt = false
	g.emitCarry = 0
	g.collector = telemetry.NewCollector(g.statsWindowSec, g.sim.Params().DT)
	if err := g.sim.AddParticles(g.cfg.Population.Initial); err != nil {
		return fmt.Errorf("reseeding particles: %w", err)
	}
	g.sim.Start()
	slog.Info("simulation reset", "particles", g.sim.Len())
	return nil
}

// Unload releases resources and flushes output files.
func (g *Game) Unload() {
	if err := g.outputManager.Close(); err != nil {
		slog.Error("failed to close output", "error", err)
	}
}
