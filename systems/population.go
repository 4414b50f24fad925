package systems

import (
	"math/rand"

	"github.com/mlange-42/ark/ecs"
	"gonum.org/v1/gonum/spatial/r2"

	"github.com/pthm-cable/droplet/components"
)

// Population owns the ECS world of persistent sources and sinks and runs
// their systems against the fluid.
type Population struct {
	world *ecs.World

	sourceMap *ecs.Map2[components.Position, components.Source]
	sinkMap   *ecs.Map2[components.Position, components.Sink]

	sourceFilter ecs.Filter2[components.Position, components.Source]
	sinkFilter   ecs.Filter2[components.Position, components.Sink]
	posFilter    ecs.Filter1[components.Position]

	Sources *SourceSystem
	Sinks   *SinkSystem
}

// NewPopulation creates an empty population.
func NewPopulation(rng *rand.Rand, maxParticles int) *Population {
	world := ecs.NewWorld()
	return &Population{
		world:        world,
		sourceMap:    ecs.NewMap2[components.Position, components.Source](world),
		sinkMap:      ecs.NewMap2[components.Position, components.Sink](world),
		sourceFilter: *ecs.NewFilter2[components.Position, components.Source](world),
		sinkFilter:   *ecs.NewFilter2[components.Position, components.Sink](world),
		posFilter:    *ecs.NewFilter1[components.Position](world),
		Sources:      NewSourceSystem(world, rng, maxParticles),
		Sinks:        NewSinkSystem(world),
	}
}

// AddSource places a source.
func (p *Population) AddSource(x, y, rate, spread float64) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	src := components.Source{Rate: rate, Spread: spread}
	return p.sourceMap.NewEntity(&pos, &src)
}

// AddSink places a sink.
func (p *Population) AddSink(x, y, radius float64) ecs.Entity {
	pos := components.Position{X: x, Y: y}
	sink := components.Sink{Radius: radius}
	return p.sinkMap.NewEntity(&pos, &sink)
}

// RemoveNear removes every source and sink within radius of (x, y) and
// returns how many were removed.
func (p *Population) RemoveNear(x, y, radius float64) int {
	var toRemove []ecs.Entity
	center := r2.Vec{X: x, Y: y}
	query := p.posFilter.Query()
	for query.Next() {
		pos := query.Get()
		if r2.Norm2(r2.Sub(r2.Vec{X: pos.X, Y: pos.Y}, center)) <= radius*radius {
			toRemove = append(toRemove, query.Entity())
		}
	}
	// Query must finish before the world is modified.
	for _, e := range toRemove {
		p.world.RemoveEntity(e)
	}
	return len(toRemove)
}

// Clear removes all sources and sinks.
func (p *Population) Clear() {
	var all []ecs.Entity
	query := p.posFilter.Query()
	for query.Next() {
		all = append(all, query.Entity())
	}
	for _, e := range all {
		p.world.RemoveEntity(e)
	}
}

// Update runs sources then sinks against target.
func (p *Population) Update(target ParticleTarget) (emitted, drained int, err error) {
	emitted, err = p.Sources.Update(target)
	if err != nil {
		return emitted, 0, err
	}
	drained, err = p.Sinks.Update(target)
	return emitted, drained, err
}

// EachSource calls fn for every source.
func (p *Population) EachSource(fn func(pos components.Position, src components.Source)) {
	query := p.sourceFilter.Query()
	for query.Next() {
		pos, src := query.Get()
		fn(*pos, *src)
	}
}

// EachSink calls fn for every sink.
func (p *Population) EachSink(fn func(pos components.Position, sink components.Sink)) {
	query := p.sinkFilter.Query()
	for query.Next() {
		pos, sink := query.Get()
		fn(*pos, *sink)
	}
}

// Counts returns the number of sources and sinks.
func (p *Population) Counts() (sources, sinks int) {
	p.EachSource(func(components.Position, components.Source) { sources++ })
	p.EachSink(func(components.Position, components.Sink) { sinks++ })
	return sources, sinks
}
