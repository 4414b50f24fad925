package ui

import (
	"fmt"

	gui "github.com/gen2brain/raylib-go/raygui"
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/droplet/fluid"
)

// paramSlider binds one slider to one solver parameter.
type paramSlider struct {
	label    string
	min, max float32
	get      func(*fluid.Params) float64
	set      func(*fluid.Params, float64)
}

var paramSliders = []paramSlider{
	{"Stiffness", 0, 2,
		func(p *fluid.Params) float64 { return p.Stiffness },
		func(p *fluid.Params, v float64) { p.Stiffness = v }},
	{"Near stiffness", 0, 5,
		func(p *fluid.Params) float64 { return p.NearStiffness },
		func(p *fluid.Params, v float64) { p.NearStiffness = v }},
	{"Rest density", 0.5, 20,
		func(p *fluid.Params) float64 { return p.RestDensity },
		func(p *fluid.Params, v float64) { p.RestDensity = v }},
	{"Pressure clamp", 0.05, 5,
		func(p *fluid.Params) float64 { return p.PressureClamp },
		func(p *fluid.Params, v float64) { p.PressureClamp = v }},
	{"Gravity", -1, 2,
		func(p *fluid.Params) float64 { return p.Gravity.Y },
		func(p *fluid.Params, v float64) { p.Gravity.Y = v }},
	{"Restitution", 0, 1,
		func(p *fluid.Params) float64 { return p.Restitution },
		func(p *fluid.Params, v float64) { p.Restitution = v }},
	{"Pointer force", 0, 10,
		func(p *fluid.Params) float64 { return p.InteractionStrength },
		func(p *fluid.Params, v float64) { p.InteractionStrength = v }},
}

// ParamsAction reports what the user did with the panel this frame.
type ParamsAction int

const (
	ParamsNone     ParamsAction = iota
	ParamsChanged               // A slider moved; apply the returned params
	ParamsDefaults              // Restore the configured defaults
	ParamsSave                  // Write the current params to disk
)

// ParamsPanel renders raygui sliders for the live solver parameters.
type ParamsPanel struct {
	renderer *Renderer
	x, y     float32
	width    float32
}

// NewParamsPanel creates a new parameter panel.
func NewParamsPanel(x, y, width int32) *ParamsPanel {
	return &ParamsPanel{
		renderer: NewRenderer(),
		x:        float32(x),
		y:        float32(y),
		width:    float32(width),
	}
}

// SetPosition updates the panel position.
func (pp *ParamsPanel) SetPosition(x, y int32) {
	pp.x = float32(x)
	pp.y = float32(y)
}

// Draw renders the panel for current and returns the edited parameters.
// The caller validates and applies them.
func (pp *ParamsPanel) Draw(current fluid.Params) (fluid.Params, ParamsAction) {
	r := pp.renderer
	pad := float32(r.Theme.Padding)
	rowHeight := float32(38)
	height := pad*3 + 20 + rowHeight*float32(len(paramSliders)) + 30

	r.DrawPanel(int32(pp.x), int32(pp.y), int32(pp.width), int32(height))

	x := pp.x + pad
	y := pp.y + pad
	rl.DrawText("Solver Parameters", int32(x), int32(y), 16, rl.White)
	y += 26

	edited := current
	action := ParamsNone
	sliderWidth := pp.width - pad*2 - 60

	for _, s := range paramSliders {
		value := float32(s.get(&current))
		rl.DrawText(s.label, int32(x), int32(y), r.Theme.FontSize, r.Theme.LabelColor)
		next := gui.SliderBar(
			rl.Rectangle{X: x, Y: y + 14, Width: sliderWidth, Height: 16},
			"", "",
			value, s.min, s.max,
		)
		rl.DrawText(fmt.Sprintf("%.2f", next), int32(x+sliderWidth+8), int32(y+15), r.Theme.FontSize, r.Theme.ValueColor)
		if next != value {
			s.set(&edited, float64(next))
			action = ParamsChanged
		}
		y += rowHeight
	}

	y += pad / 2
	half := (pp.width - pad*3) / 2
	if gui.Button(rl.Rectangle{X: x, Y: y, Width: half, Height: 24}, "Defaults") {
		action = ParamsDefaults
	}
	if gui.Button(rl.Rectangle{X: x + half + pad, Y: y, Width: half, Height: 24}, "Save") {
		action = ParamsSave
	}

	return edited, action
}

// Contains reports whether the screen point lies over the panel, so pointer
// interaction can be suppressed while dragging sliders.
func (pp *ParamsPanel) Contains(px, py float32) bool {
	height := float32(pp.renderer.Theme.Padding)*3 + 20 + 38*float32(len(paramSliders)) + 30
	return px >= pp.x && px <= pp.x+pp.width && py >= pp.y && py <= pp.y+height
}
