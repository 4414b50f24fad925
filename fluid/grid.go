package fluid

import (
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// Hash constants for 2D cell coordinates. Changing them changes bucket
// occupancy and therefore relaxation order.
const (
	hashPrimeX int32 = 92837111
	hashPrimeY int32 = 689287499
)

// emptyBucket marks an empty bucket head and the end of a bucket list.
const emptyBucket int32 = -1

// HashCell maps integer cell coordinates to a bucket in [0, numBuckets).
// Multiplication wraps at 32 bits; the absolute value is taken in 64 bits.
func HashCell(bx, by int32, numBuckets int) int {
	return int(abs64(int64(mixCell(bx, by))) % int64(numBuckets))
}

func mixCell(bx, by int32) int32 {
	return (bx * hashPrimeX) ^ (by * hashPrimeY)
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// SpatialHashGrid buckets particle indices by hashed cell. Bucket lists are
// singly linked through next, so the grid allocates nothing per rebuild once
// next has grown to the particle count.
type SpatialHashGrid struct {
	cellSize float64
	head     []int32 // per bucket: first particle index or emptyBucket
	next     []int32 // per particle: following index in its bucket or emptyBucket
	active   []int   // buckets made non-empty since the last Clear
}

// NewSpatialHashGrid creates an empty grid with numBuckets buckets of
// square cells cellSize wide.
func NewSpatialHashGrid(numBuckets int, cellSize float64) *SpatialHashGrid {
	head := make([]int32, numBuckets)
	for i := range head {
		head[i] = emptyBucket
	}
	return &SpatialHashGrid{
		cellSize: cellSize,
		head:     head,
		active:   make([]int, 0, 64),
	}
}

// NumBuckets returns the fixed bucket capacity.
func (g *SpatialHashGrid) NumBuckets() int {
	return len(g.head)
}

// CellSize returns the cell edge length.
func (g *SpatialHashGrid) CellSize() float64 {
	return g.cellSize
}

// Len returns the number of particle slots in the index arrays.
func (g *SpatialHashGrid) Len() int {
	return len(g.next)
}

// ActiveBuckets returns the buckets touched since the last Clear, in the
// order they became non-empty. The slice must not be modified.
func (g *SpatialHashGrid) ActiveBuckets() []int {
	return g.active
}

// Cell returns the cell coordinates containing p.
func (g *SpatialHashGrid) Cell(p r2.Vec) (int32, int32) {
	return int32(math.Floor(p.X / g.cellSize)), int32(math.Floor(p.Y / g.cellSize))
}

// BucketOf returns the bucket that p hashes to.
func (g *SpatialHashGrid) BucketOf(p r2.Vec) int {
	bx, by := g.Cell(p)
	return HashCell(bx, by, len(g.head))
}

// Clear empties every bucket made active since the previous Clear.
// Cost is proportional to the active bucket count, not the capacity.
func (g *SpatialHashGrid) Clear() {
	for _, b := range g.active {
		g.head[b] = emptyBucket
	}
	g.active = g.active[:0]
}

// Insert prepends particle i to the bucket containing p. The index arrays
// grow to fit i if needed.
func (g *SpatialHashGrid) Insert(i int, p r2.Vec) {
	if i >= len(g.next) {
		g.grow(i + 1)
	}
	b := g.BucketOf(p)
	old := g.head[b]
	if old == emptyBucket {
		g.active = append(g.active, b)
	}
	g.next[i] = old
	g.head[b] = int32(i)
}

// Rebuild clears the grid and inserts every particle in index order.
// Buckets end up holding their particles in reverse insertion order.
func (g *SpatialHashGrid) Rebuild(particles []Particle) {
	g.Clear()
	g.resize(len(particles))
	for i := range particles {
		g.Insert(i, particles[i].Position)
	}
}

// Reset clears the grid and sizes the index arrays for n particles.
// Population changes call it so no index past the new count survives.
func (g *SpatialHashGrid) Reset(n int) {
	g.Clear()
	g.resize(n)
}

// grow extends the index arrays to n slots. Existing links are kept and
// only the new slots are marked empty.
func (g *SpatialHashGrid) grow(n int) {
	old := len(g.next)
	if cap(g.next) >= n {
		g.next = g.next[:n]
	} else {
		next := make([]int32, n, max(n, 2*cap(g.next)))
		copy(next, g.next)
		g.next = next
	}
	for i := old; i < n; i++ {
		g.next[i] = emptyBucket
	}
}

func (g *SpatialHashGrid) resize(n int) {
	if cap(g.next) >= n {
		g.next = g.next[:n]
	} else {
		next := make([]int32, n)
		copy(next, g.next)
		g.next = next
	}
	for i := range g.next {
		g.next[i] = emptyBucket
	}
}

// ForEachNeighbor calls fn with every particle index stored in the 3x3 block
// of cells around p. Cells that hash to the same bucket are visited once.
// No distance filtering is done.
func (g *SpatialHashGrid) ForEachNeighbor(p r2.Vec, fn func(i int)) {
	cx, cy := g.Cell(p)

	var visited [9]int
	seen := 0

	for dx := int32(-1); dx <= 1; dx++ {
		for dy := int32(-1); dy <= 1; dy++ {
			b := HashCell(cx+dx, cy+dy, len(g.head))
			if containsBucket(visited[:seen], b) {
				continue
			}
			visited[seen] = b
			seen++

			for i := g.head[b]; i != emptyBucket; i = g.next[i] {
				fn(int(i))
			}
		}
	}
}

// ForEachActive calls fn with every stored particle index: active buckets in
// activation order, each bucket in list order.
func (g *SpatialHashGrid) ForEachActive(fn func(i int)) {
	for _, b := range g.active {
		for i := g.head[b]; i != emptyBucket; i = g.next[i] {
			fn(int(i))
		}
	}
}

// Bucket returns the particle indices stored in bucket b, in list order.
func (g *SpatialHashGrid) Bucket(b int) []int {
	var out []int
	for i := g.head[b]; i != emptyBucket; i = g.next[i] {
		out = append(out, int(i))
	}
	return out
}

func containsBucket(buckets []int, b int) bool {
	for _, v := range buckets {
		if v == b {
			return true
		}
	}
	return false
}
