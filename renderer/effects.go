package renderer

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/droplet/systems"
)

// EffectRenderer renders population feedback effects.
type EffectRenderer struct{}

// NewEffectRenderer creates a new effect renderer.
func NewEffectRenderer() *EffectRenderer {
	return &EffectRenderer{}
}

// effectColor returns the base colour of an effect kind at full life.
func effectColor(kind systems.EffectKind) rl.Color {
	switch kind {
	case systems.EffectEmit:
		return rl.Color{R: 120, G: 220, B: 255, A: 200}
	case systems.EffectDrain:
		return rl.Color{R: 90, G: 70, B: 140, A: 180}
	default:
		return rl.Color{R: 255, G: 200, B: 90, A: 220}
	}
}

// Draw renders all effects in world space. Call inside BeginMode2D.
func (r *EffectRenderer) Draw(effects []systems.EffectParticle) {
	for i := range effects {
		p := &effects[i]

		lifeRatio := float32(p.Life) / float32(p.MaxLife)
		color := effectColor(p.Kind)
		color.A = uint8(lifeRatio * float32(color.A))

		size := max(p.Size*lifeRatio, 0.5)
		rl.DrawCircleV(rl.Vector2{X: p.X, Y: p.Y}, size, color)
	}
}
