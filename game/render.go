package game

import (
	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/renderer"
	"github.com/pthm-cable/droplet/ui"
)

var backgroundColor = rl.Color{R: 12, G: 16, B: 24, A: 255}

const controlsLegend = "LMB attract | RMB repel | Shift+LMB drag | E emit | Q drain | S source | X sink | Del remove | Space pause | R reset | Tab overlays"

// Draw renders the fluid, the population markers and the UI.
func (g *Game) Draw() {
	g.perfCollector.RecordFrame()

	rl.BeginDrawing()
	rl.ClearBackground(backgroundColor)

	rl.BeginMode2D(g.camera2D())
	g.drawWorld()
	rl.EndMode2D()

	g.drawUI()

	rl.EndDrawing()
}

// camera2D converts the camera state into a raylib camera.
func (g *Game) camera2D() rl.Camera2D {
	return rl.Camera2D{
		Offset: rl.Vector2{X: g.screenWidth / 2, Y: g.screenHeight / 2},
		Target: rl.Vector2{X: g.camera.X, Y: g.camera.Y},
		Zoom:   g.camera.Zoom,
	}
}

// drawWorld renders everything in world space.
func (g *Game) drawWorld() {
	particles := g.sim.All()
	params := g.sim.Params()

	if g.uiOverlays.IsEnabled(ui.OverlayBuckets) {
		g.fluidRenderer.DrawBuckets(g.sim)
	}
	g.fluidRenderer.DrawWalls(params)
	g.fluidRenderer.Draw(particles, g.camera)

	if g.uiOverlays.IsEnabled(ui.OverlayVelocity) {
		g.fluidRenderer.DrawVelocities(particles, g.camera, 4)
	}
	if g.uiOverlays.IsEnabled(ui.OverlayMarkers) {
		g.population.EachSource(renderer.DrawSource)
		g.population.EachSink(renderer.DrawSink)
	}
	if g.uiOverlays.IsEnabled(ui.OverlayEffects) {
		g.effectRenderer.Draw(g.effects.Particles)
	}

	if !g.pointer.overUI {
		b := g.pointer.buttons
		active := b.Left || b.Right
		radius := params.InteractionRadius
		if b.Left && b.Shift {
			radius = params.DragRadius
		}
		g.fluidRenderer.DrawPointer(g.pointer.pos, radius, active)
	}
}

// drawUI renders screen-space panels.
func (g *Game) drawUI() {
	sources, sinks := g.population.Counts()
	g.uiHUD.Draw(ui.HUDData{
		Title:          Title,
		Particles:      g.sim.Len(),
		Sources:        sources,
		Sinks:          sinks,
		Tick:           g.sim.Tick(),
		StepsPerUpdate: g.stepsPerUpdate,
		FPS:            rl.GetFPS(),
		Paused:         !g.sim.Running(),
		Corrupt:        g.corrupt,
	})
	g.uiHUD.DrawControls(int32(g.screenWidth), int32(g.screenHeight), controlsLegend)
	g.uiControls.Draw(g.uiOverlays)

	stats := g.sim.Stats()
	params := g.sim.Params()
	bottom := g.uiQuickStats.Draw(ui.QuickStatsData{
		MeanDensity:   stats.MeanDensity,
		RestDensity:   params.RestDensity,
		MaxPressure:   stats.MaxPressure,
		Clamped:       stats.ClampedPressures,
		Corrections:   stats.BoundaryCorrections,
		KineticEnergy: g.lastStats.KineticEnergy,
	})

	panelY := bottom + 10
	if g.uiOverlays.IsEnabled(ui.OverlayParams) {
		g.uiParams.SetPosition(int32(g.screenWidth)-270, panelY)
		edited, action := g.uiParams.Draw(params)
		g.handleParamsAction(edited, action)
	} else if g.uiOverlays.IsEnabled(ui.OverlayInspector) {
		g.drawInspector(panelY)
	}

	if g.uiOverlays.IsEnabled(ui.OverlayPerf) {
		g.drawPerfPanel()
	}
}

// drawInspector shows the particle nearest the pointer.
func (g *Game) drawInspector(y int32) {
	params := g.sim.Params()
	i := g.sim.Nearest(g.pointer.pos, params.KernelRadius)
	probe, ok := g.sim.Probe(i)
	if !ok {
		return
	}

	// Highlight the probed particle in world space
	rl.BeginMode2D(g.camera2D())
	at := probe.Particle.Position
	rl.DrawCircleLinesV(rl.Vector2{X: float32(at.X), Y: float32(at.Y)}, g.fluidRenderer.Radius*2, rl.Yellow)
	rl.EndMode2D()

	g.uiInspector.SetPosition(int32(g.screenWidth)-230, y)
	g.uiInspector.Draw(&ui.InspectorData{
		Probe:         probe,
		RestDensity:   params.RestDensity,
		PressureClamp: params.PressureClamp,
		Color:         g.fluidRenderer.SpeedColor(r2.Norm(probe.Particle.Velocity)),
	})
}

// drawPerfPanel renders per-phase timing averages.
func (g *Game) drawPerfPanel() {
	stats := g.perfCollector.Stats()
	g.uiPerfPanel.Draw(ui.PerfPanelData{
		PhaseTimes: stats.PhaseAvg,
		Total:      stats.AvgTickDuration,
		Registry:   g.uiSystems,
	})
}
