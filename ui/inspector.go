package ui

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/fluid"
)

// InspectorData holds everything the particle inspector shows.
type InspectorData struct {
	Probe         fluid.Probe
	RestDensity   float64
	PressureClamp float64
	Color         rl.Color // Colour the particle is drawn with
}

func inspectorData(d any) *InspectorData { return d.(*InspectorData) }

// inspectorSections describes the inspector layout.
var inspectorSections = []SectionDescriptor{
	{
		ID:    "particle",
		Title: "Particle",
		Fields: []FieldDescriptor{
			{ID: "index", Label: "Index", Widget: WidgetText, TextGetter: func(d any) string {
				return fmt.Sprintf("#%d", inspectorData(d).Probe.Index)
			}},
			{ID: "position", Label: "Position", Widget: WidgetText, TextGetter: func(d any) string {
				p := inspectorData(d).Probe.Particle.Position
				return fmt.Sprintf("%.1f, %.1f", p.X, p.Y)
			}},
			{ID: "speed", Label: "Speed", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 {
				return float32(r2.Norm(inspectorData(d).Probe.Particle.Velocity))
			}},
			{ID: "color", Label: "Colour", Widget: WidgetColorSwatch, ColorGetter: func(d any) rl.Color {
				return inspectorData(d).Color
			}},
		},
	},
	{
		ID:    "density",
		Title: "Density",
		Fields: []FieldDescriptor{
			{ID: "neighbors", Label: "Neighbors", Widget: WidgetText, Format: "%.0f", Getter: func(d any) float32 {
				return float32(inspectorData(d).Probe.Neighbors)
			}},
			{ID: "density", Label: "Density", Widget: WidgetText, TextGetter: func(d any) string {
				data := inspectorData(d)
				return fmt.Sprintf("%.2f / %.2f rest", data.Probe.Density, data.RestDensity)
			}},
			{ID: "near_density", Label: "Near", Widget: WidgetText, Format: "%.3f", Getter: func(d any) float32 {
				return float32(inspectorData(d).Probe.NearDensity)
			}},
		},
	},
	{
		ID:    "pressure",
		Title: "Pressure",
		Fields: []FieldDescriptor{
			{ID: "pressure", Label: "Pressure", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 {
				return normalizedPressure(inspectorData(d), inspectorData(d).Probe.Pressure)
			}},
			{ID: "near_pressure", Label: "Near", Widget: WidgetCenteredBar, Range: CenteredRange(), Getter: func(d any) float32 {
				return normalizedPressure(inspectorData(d), inspectorData(d).Probe.NearPressure)
			}},
		},
	},
}

// normalizedPressure maps a clamped pressure to [-1, 1].
func normalizedPressure(d *InspectorData, p float64) float32 {
	if d.PressureClamp <= 0 {
		return 0
	}
	return float32(p / d.PressureClamp)
}

// Inspector renders the particle inspection panel.
type Inspector struct {
	renderer *Renderer
	x, y     int32
	width    int32
}

// NewInspector creates a new inspector panel.
func NewInspector(x, y, width int32) *Inspector {
	return &Inspector{
		renderer: NewRenderer(),
		x:        x,
		y:        y,
		width:    width,
	}
}

// SetPosition updates the inspector position.
func (ins *Inspector) SetPosition(x, y int32) {
	ins.x = x
	ins.y = y
}

// Draw renders the inspector panel for the given data and returns the
// bottom edge.
func (ins *Inspector) Draw(data *InspectorData) int32 {
	r := ins.renderer
	padding := r.Theme.Padding

	height := padding * 2
	for _, sd := range inspectorSections {
		height += r.SectionHeight(sd, data)
	}
	r.DrawPanel(ins.x, ins.y, ins.width, height)

	y := ins.y + padding
	for _, sd := range inspectorSections {
		y = r.DrawSection(ins.x+padding, y, sd, data, ins.width-padding*2)
	}
	return ins.y + height
}
