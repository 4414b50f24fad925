package game

import (
	"log/slog"
	"path/filepath"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/fluid"
	"github.com/pthm-cable/droplet/ui"
)

// pointerState tracks the pointer in world space between frames.
type pointerState struct {
	pos     r2.Vec
	prev    r2.Vec
	seen    bool
	buttons buttonState
	overUI  bool
}

// buttonState is the raw input that drives the fluid this frame.
type buttonState struct {
	Left, Right, Shift bool
	Emit, Drain        bool
}

// interactionFor builds the per-step interaction. The frame's pointer
// movement is split evenly across the steps run this frame.
func interactionFor(b buttonState, pos, prev r2.Vec, steps int) fluid.Interaction {
	if steps < 1 {
		steps = 1
	}
	return fluid.Interaction{
		Pointer:      pos,
		PointerDelta: r2.Scale(1/float64(steps), r2.Sub(pos, prev)),
		Attract:      b.Left && !b.Shift,
		Repel:        b.Right,
		Drag:         b.Left && b.Shift,
		Emit:         b.Emit,
		Drain:        b.Drain,
	}
}

// Update handles input and advances the simulation by stepsPerUpdate ticks.
func (g *Game) Update() {
	g.handleInput()

	in := fluid.Interaction{Pointer: g.pointer.pos}
	if !g.pointer.overUI {
		in = interactionFor(g.pointer.buttons, g.pointer.pos, g.pointer.prev, g.stepsPerUpdate)
	}
	for i := 0; i < g.stepsPerUpdate; i++ {
		if err := g.Step(in); err != nil {
			break
		}
	}
	g.effects.Update()
}

// handleInput processes keyboard and mouse input.
func (g *Game) handleInput() {
	g.handleResize()

	if rl.IsKeyPressed(rl.KeyF11) {
		rl.ToggleFullscreen()
	}

	if rl.IsKeyPressed(rl.KeySpace) {
		if g.sim.Running() {
			g.sim.Pause()
		} else if !g.corrupt {
			g.sim.Start()
		}
	}
	if rl.IsKeyPressed(rl.KeyR) {
		if err := g.Reset(); err != nil {
			slog.Error("reset failed", "error", err)
		}
	}

	// Steps-per-update control with < > keys (comma and period)
	if rl.IsKeyPressed(rl.KeyComma) && g.stepsPerUpdate > 1 {
		g.stepsPerUpdate--
	}
	if rl.IsKeyPressed(rl.KeyPeriod) && g.stepsPerUpdate < maxStepsPerUpdate {
		g.stepsPerUpdate++
	}

	if rl.IsKeyPressed(rl.KeyTab) {
		g.uiControls.Toggle()
	}
	g.handleOverlayKeys()

	g.handleCameraInput()
	g.handlePointer()
}

// handleOverlayKeys drains this frame's key queue into overlay toggles.
func (g *Game) handleOverlayKeys() {
	for key := rl.GetKeyPressed(); key != 0; key = rl.GetKeyPressed() {
		if id, on, ok := g.uiOverlays.HandleKeyPress(key); ok {
			slog.Debug("overlay toggled", "overlay", id, "enabled", on)
		}
	}
}

// handlePointer samples the mouse in world space and applies the
// placement commands.
func (g *Game) handlePointer() {
	mouse := rl.GetMousePosition()
	wx, wy := g.camera.ScreenToWorld(mouse.X, mouse.Y)
	pos := r2.Vec{X: float64(wx), Y: float64(wy)}

	if !g.pointer.seen {
		g.pointer.pos = pos
		g.pointer.seen = true
	}
	g.pointer.prev = g.pointer.pos
	g.pointer.pos = pos

	g.pointer.overUI = g.uiOverlays.IsEnabled(ui.OverlayParams) && g.uiParams.Contains(mouse.X, mouse.Y)
	g.pointer.buttons = buttonState{
		Left:  rl.IsMouseButtonDown(rl.MouseButtonLeft),
		Right: rl.IsMouseButtonDown(rl.MouseButtonRight),
		Shift: rl.IsKeyDown(rl.KeyLeftShift) || rl.IsKeyDown(rl.KeyRightShift),
		Emit:  rl.IsKeyDown(rl.KeyE),
		Drain: rl.IsKeyDown(rl.KeyQ),
	}

	if rl.IsKeyPressed(rl.KeyS) {
		g.PlaceSource(pos)
	}
	if rl.IsKeyPressed(rl.KeyX) {
		g.PlaceSink(pos)
	}
	if rl.IsKeyPressed(rl.KeyDelete) || rl.IsKeyPressed(rl.KeyBackspace) {
		g.RemoveMarkers(pos)
	}
}

// handleParamsAction applies the result of the parameter panel.
func (g *Game) handleParamsAction(edited fluid.Params, action ui.ParamsAction) {
	switch action {
	case ui.ParamsChanged:
		if err := g.Configure(edited); err != nil {
			slog.Warn("rejected parameters", "error", err)
		}
	case ui.ParamsDefaults:
		if err := g.Configure(g.defaults); err != nil {
			slog.Warn("rejected default parameters", "error", err)
		}
	case ui.ParamsSave:
		path := "droplet.yaml"
		if g.outputManager != nil {
			path = filepath.Join(g.outputManager.Dir(), "tuned.yaml")
		}
		if err := g.SaveParams(path); err != nil {
			slog.Error("failed to save parameters", "error", err)
			return
		}
		slog.Info("saved parameters", "path", path)
	}
}

// handleResize checks for window resize and propagates new dimensions.
func (g *Game) handleResize() {
	if !rl.IsWindowResized() {
		return
	}
	w := float32(rl.GetScreenWidth())
	h := float32(rl.GetScreenHeight())
	if w == g.screenWidth && h == g.screenHeight {
		return
	}
	g.screenWidth = w
	g.screenHeight = h

	g.camera.Resize(w, h)
	g.layoutPanels()
}

// handleCameraInput processes camera pan/zoom controls.
func (g *Game) handleCameraInput() {
	// Pan speed scales inversely with zoom for natural feel
	panSpeed := float32(8.0) / g.camera.Zoom

	if rl.IsKeyDown(rl.KeyRight) {
		g.camera.Pan(panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyLeft) {
		g.camera.Pan(-panSpeed, 0)
	}
	if rl.IsKeyDown(rl.KeyDown) {
		g.camera.Pan(0, panSpeed)
	}
	if rl.IsKeyDown(rl.KeyUp) {
		g.camera.Pan(0, -panSpeed)
	}

	// Zoom toward the cursor
	if wheel := rl.GetMouseWheelMove(); wheel != 0 {
		mouse := rl.GetMousePosition()
		g.camera.ZoomAt(mouse.X, mouse.Y, 1+wheel*0.1)
	}
	if rl.IsKeyPressed(rl.KeyEqual) || rl.IsKeyPressed(rl.KeyKpAdd) {
		g.camera.ZoomBy(1.25)
	}
	if rl.IsKeyPressed(rl.KeyMinus) || rl.IsKeyPressed(rl.KeyKpSubtract) {
		g.camera.ZoomBy(0.8)
	}

	if rl.IsKeyPressed(rl.KeyHome) {
		g.camera.Reset()
	}
}
