package fluid

// ResolveBoundaries pulls positions outside the margin rectangle back by
// Restitution times the overshoot, per axis. Velocities are left alone; the
// correction turns into velocity in ReconcileVelocities. Returns the number
// of axis corrections applied.
func ResolveBoundaries(particles []Particle, p *Params) int {
	lo := p.BoundaryMargin
	maxX := p.Width - p.BoundaryMargin
	maxY := p.Height - p.BoundaryMargin
	e := p.Restitution

	corrections := 0
	for i := range particles {
		pos := &particles[i].Position
		if pos.X < lo {
			pos.X += e * (lo - pos.X)
			corrections++
		} else if pos.X > maxX {
			pos.X += e * (maxX - pos.X)
			corrections++
		}
		if pos.Y < lo {
			pos.Y += e * (lo - pos.Y)
			corrections++
		} else if pos.Y > maxY {
			pos.Y += e * (maxY - pos.Y)
			corrections++
		}
	}
	return corrections
}

// ReconcileVelocities sets every velocity to the position change over dt.
func ReconcileVelocities(particles []Particle, dt float64) {
	for i := range particles {
		pt := &particles[i]
		pt.Velocity.X = (pt.Position.X - pt.PrevPosition.X) / dt
		pt.Velocity.Y = (pt.Position.Y - pt.PrevPosition.Y) / dt
	}
}
