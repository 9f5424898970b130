package behavior

import (
	"sync/atomic"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// Boid represents a single entity in the flock.
// Boids is an artificial life program, developed by Craig Reynolds in 1986,
// which simulates the flocking behaviour of birds, and related group motion.
// The name "boid" corresponds to a shortened version of "bird-oid object",
// which refers to a bird-like object. https://en.wikipedia.org/wiki/Boids
// Fields are exported so the renderer can read them.
type Boid struct {
	ID  uint64            `json:"id"`
	Pos geometry.Vector2D `json:"pos"`
	Vel geometry.Vector2D `json:"vel"`
}

var lastID atomic.Uint64

// New creates a boid with the next process-wide identity.
func New(pos, vel geometry.Vector2D) Boid {
	return Boid{ID: lastID.Add(1), Pos: pos, Vel: vel}
}
