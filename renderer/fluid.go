// Package renderer draws the fluid and its collaborators with raylib.
package renderer

import (
	"iter"
	"math"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/camera"
	"github.com/pthm-cable/droplet/components"
	"github.com/pthm-cable/droplet/fluid"
)

// FluidRenderer draws particles coloured by speed.
type FluidRenderer struct {
	Radius   float32 // Drawn particle radius in world units
	MaxSpeed float32 // Speed mapped to the hot end of the gradient

	slow rl.Color
	fast rl.Color
}

// NewFluidRenderer creates a renderer sized for the given kernel radius.
func NewFluidRenderer(kernelRadius float64) *FluidRenderer {
	return &FluidRenderer{
		Radius:   float32(kernelRadius) * 0.35,
		MaxSpeed: float32(kernelRadius) * 0.5,
		slow:     rl.Color{R: 30, G: 90, B: 200, A: 255},
		fast:     rl.Color{R: 220, G: 245, B: 255, A: 255},
	}
}

// SpeedColor maps a speed to the slow..fast gradient.
func (r *FluidRenderer) SpeedColor(speed float64) rl.Color {
	t := float32(0)
	if r.MaxSpeed > 0 {
		t = float32(speed) / r.MaxSpeed
	}
	if t != t { // NaN
		t = 1
	}
	t = max(0, min(1, t))
	return lerpColor(r.slow, r.fast, t)
}

func lerpColor(a, b rl.Color, t float32) rl.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(float32(x) + (float32(y)-float32(x))*t)
	}
	return rl.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// Draw renders visible particles in world space. Call inside BeginMode2D.
func (r *FluidRenderer) Draw(particles iter.Seq2[int, fluid.Particle], cam *camera.Camera) {
	for _, p := range particles {
		x, y := float32(p.Position.X), float32(p.Position.Y)
		if !cam.IsVisible(x, y, r.Radius) {
			continue
		}
		rl.DrawCircleV(rl.Vector2{X: x, Y: y}, r.Radius, r.SpeedColor(r2.Norm(p.Velocity)))
	}
}

// DrawVelocities draws each visible particle's velocity scaled by scale.
func (r *FluidRenderer) DrawVelocities(particles iter.Seq2[int, fluid.Particle], cam *camera.Camera, scale float32) {
	color := rl.Color{R: 255, G: 120, B: 80, A: 200}
	for _, p := range particles {
		x, y := float32(p.Position.X), float32(p.Position.Y)
		if !cam.IsVisible(x, y, r.Radius) {
			continue
		}
		end := rl.Vector2{X: x + float32(p.Velocity.X)*scale, Y: y + float32(p.Velocity.Y)*scale}
		rl.DrawLineV(rl.Vector2{X: x, Y: y}, end, color)
	}
}

// DrawBuckets shades every occupied cell with a colour derived from its
// hash bucket, so collisions between distant cells show as matching colours.
func (r *FluidRenderer) DrawBuckets(sim *fluid.Simulation) {
	grid := sim.Grid()
	n := sim.Len()
	size := float32(grid.CellSize())
	type cell struct{ x, y int32 }
	drawn := make(map[cell]bool)

	for _, b := range grid.ActiveBuckets() {
		hue := float32((b * 137) % 360)
		color := rl.ColorFromHSV(hue, 0.6, 0.9)
		color.A = 60
		for _, i := range grid.Bucket(b) {
			if i >= n {
				continue
			}
			cx, cy := grid.Cell(sim.ParticleAt(i).Position)
			c := cell{cx, cy}
			if drawn[c] {
				continue
			}
			drawn[c] = true
			rl.DrawRectangleV(rl.Vector2{X: float32(cx) * size, Y: float32(cy) * size}, rl.Vector2{X: size, Y: size}, color)
		}
	}
}

// DrawWalls outlines the domain and the boundary margin.
func (r *FluidRenderer) DrawWalls(p fluid.Params) {
	w, h := float32(p.Width), float32(p.Height)
	m := float32(p.BoundaryMargin)
	rl.DrawRectangleLinesEx(rl.Rectangle{X: 0, Y: 0, Width: w, Height: h}, 2, rl.Color{R: 70, G: 80, B: 95, A: 255})
	if m > 0 {
		rl.DrawRectangleLinesEx(rl.Rectangle{X: m, Y: m, Width: w - 2*m, Height: h - 2*m}, 1, rl.Color{R: 50, G: 60, B: 70, A: 255})
	}
}

// DrawPointer shows the interaction radius around the pointer.
func (r *FluidRenderer) DrawPointer(at r2.Vec, radius float64, active bool) {
	color := rl.Color{R: 200, G: 200, B: 200, A: 60}
	if active {
		color.A = 140
	}
	rl.DrawCircleLinesV(rl.Vector2{X: float32(at.X), Y: float32(at.Y)}, float32(radius), color)
}

// DrawSource marks a source.
func DrawSource(pos components.Position, src components.Source) {
	center := rl.Vector2{X: float32(pos.X), Y: float32(pos.Y)}
	radius := float32(math.Max(src.Spread, 4))
	rl.DrawCircleV(center, 4, rl.Color{R: 120, G: 220, B: 255, A: 255})
	rl.DrawCircleLinesV(center, radius, rl.Color{R: 120, G: 220, B: 255, A: 120})
}

// DrawSink marks a sink.
func DrawSink(pos components.Position, sink components.Sink) {
	center := rl.Vector2{X: float32(pos.X), Y: float32(pos.Y)}
	rl.DrawCircleV(center, 4, rl.Color{R: 160, G: 90, B: 220, A: 255})
	rl.DrawCircleLinesV(center, float32(sink.Radius), rl.Color{R: 160, G: 90, B: 220, A: 120})
}
