// Package components defines ECS components for the fluid's persistent
// sources and sinks.
package components

// Position represents an entity's world position.
type Position struct {
	X, Y float64
}

// Source emits particles around its position every tick.
type Source struct {
	Rate   float64 // Particles per tick; fractional rates accumulate in Carry
	Spread float64 // Jitter radius around the position
	Carry  float64 // Fractional particles owed to the next tick
}

// Sink removes particles within Radius of its position every tick.
type Sink struct {
	Radius float64
}
