package simulation

import (
	"errors"
	"fmt"
	"iter"
	"math"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/tochemey/goakt/v3/log"
	"golang.org/x/sync/errgroup"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/quadtree"
)

// ErrNonFiniteBoid is returned by Add for a NaN or infinite position or velocity.
var ErrNonFiniteBoid = errors.New("boid position and velocity must be finite")

// Settings are the runtime switches the front-end may change between ticks.
type Settings struct {
	Border    BorderPolicy  `json:"border"`
	Behaviors behavior.Mask `json:"behaviors"`
}

// TickStats describes what one call to Tick did.
type TickStats struct {
	Tick           uint64        `json:"tick"`
	Rebuilt        bool          `json:"rebuilt"`
	Boids          int           `json:"boids"`
	Indexed        int           `json:"indexed"`
	InsertFailures int           `json:"insertFailures"` // boids left out of the current index

	Leaves         int           `json:"leaves"`
	Depth          int           `json:"depth"`
	Neighbors      int           `json:"neighbors"` // summed over all boids
	Duration       time.Duration `json:"duration"`
}

// Flock owns the boids and the spatial index built over them.
//
// Each Tick runs in two phases. The compute phase reads the committed boids
// and the index only, and writes every next state into a staging slice; it
// may be spread over several goroutines. The commit phase swaps the staging
// slice in. Flock itself is not safe for concurrent use: it belongs to one
// goroutine, usually the FlockActor.
type Flock struct {
	cfg    Config
	params behavior.Params
	world  geometry.Region
	logger log.Logger
	rng    *rand.Rand

	boids []behavior.Boid
	next  []behavior.Boid

	index   *quadtree.Tree[int] // values are indices into boids
	indexed []bool
	// phase counts ticks since the last rebuild, in [0, RebuildEvery).
	phase int
	dirty bool

	tick uint64
	last TickStats

	// scratch buffers for the sequential path
	ids       []int
	neighbors []behavior.Boid
}

// Option configures a Flock.
type Option func(*Flock)

// WithLogger sets the logger used for rebuild and indexing messages.
func WithLogger(l log.Logger) Option {
	return func(f *Flock) {
		if l != nil {
			f.logger = l
		}
	}
}

// New validates cfg and returns an empty flock. Call Spawn to populate it.
func New(cfg *Config, opts ...Option) (*Flock, error) {
	if cfg == nil {
		return nil, fmt.Errorf("%w: nil config", ErrInvalidConfig)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	f := &Flock{
		cfg:    *cfg,
		params: cfg.Params(),
		world:  cfg.Bounds(),
		logger: log.DiscardLogger,
		rng:    rand.New(rand.NewPCG(cfg.Seed, cfg.Seed^0x9e3779b97f4a7c15)),
		dirty:  true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f, nil
}

// Config returns a copy of the configuration the flock was built with.
func (f *Flock) Config() Config { return f.cfg }

// Len returns the number of boids.
func (f *Flock) Len() int { return len(f.boids) }

// Spawn appends n boids at random positions inside the border margin, each
// heading in a random direction at the initial speed.
func (f *Flock) Spawn(n int) {
	if n <= 0 {
		return
	}
	inner := f.world.Inset(f.cfg.BorderMargin)
	f.boids = slices.Grow(f.boids, n)
	for range n {
		pos := geometry.NewVector(
			inner.Min.X+f.rng.Float64()*inner.Width(),
			inner.Min.Y+f.rng.Float64()*inner.Height(),
		)
		vel := geometry.NewVectorPolar(f.cfg.InitialSpeed, f.rng.Float64()*2*math.Pi)
		// finite by construction
		_, _ = f.Add(pos, vel)
	}
	f.logger.Debugf("spawned %d boids, flock size %d", n, len(f.boids))
}

// Add appends a single boid. Its velocity is clamped to the max speed.
func (f *Flock) Add(pos, vel geometry.Vector2D) (behavior.Boid, error) {
	if !pos.IsFinite() || !vel.IsFinite() {
		return behavior.Boid{}, fmt.Errorf("%w: pos %s vel %s", ErrNonFiniteBoid, pos, vel)
	}
	b := behavior.New(pos, vel.Limit(f.cfg.MaxSpeed))
	f.boids = append(f.boids, b)
	f.dirty = true
	return b, nil
}

// Clear removes every boid.
func (f *Flock) Clear() {
	f.boids = f.boids[:0]
	f.dirty = true
	f.logger.Debug("flock cleared")
}

// All yields the committed boids in insertion order.
func (f *Flock) All() iter.Seq[behavior.Boid] {
	return func(yield func(behavior.Boid) bool) {
		for _, b := range f.boids {
			if !yield(b) {
				return
			}
		}
	}
}

// Leaves yields the leaf regions of the current index; nothing before the
// first tick.
func (f *Flock) Leaves() iter.Seq[quadtree.Leaf] {
	if f.index == nil {
		return func(func(quadtree.Leaf) bool) {}
	}
	return f.index.Leaves()
}

// LastStats returns the statistics of the most recent tick.
func (f *Flock) LastStats() TickStats { return f.last }

// Tick advances the simulation by one step with the given settings.
func (f *Flock) Tick(s Settings) TickStats {
	start := time.Now()
	f.tick++
	stats := TickStats{Tick: f.tick, Boids: len(f.boids)}

	// 1. Index (re)build on cadence, or right after the population changed
	if f.dirty || f.phase == 0 {
		stats.Rebuilt = true
		f.rebuild()
		f.phase = 0
		f.dirty = false
	}
	f.phase = (f.phase + 1) % f.cfg.RebuildEvery

	// 2. Compute into staging
	f.next = slices.Grow(f.next[:0], len(f.boids))[:len(f.boids)]
	if w := f.cfg.Workers; w > 1 && len(f.boids) >= 2*w {
		stats.Neighbors = f.computeParallel(s, w)
	} else {
		f.ids, f.neighbors, stats.Neighbors = f.computeRange(s, 0, len(f.boids), f.ids, f.neighbors)
	}

	// 3. Commit
	f.boids, f.next = f.next, f.boids

	for l := range f.index.Leaves() {
		stats.Leaves++
		stats.Depth = max(stats.Depth, l.Depth)
	}
	for _, ok := range f.indexed {
		if ok {
			stats.Indexed++
		}
	}
	stats.InsertFailures = len(f.indexed) - stats.Indexed
	stats.Duration = time.Since(start)
	f.last = stats
	return stats
}

// rebuild throws the index away and inserts every committed boid.
func (f *Flock) rebuild() {
	tree, err := quadtree.New[int](f.world, f.cfg.LeafCapacity, f.cfg.MaxDepth)
	if err != nil {
		// Validate guarantees a usable world and capacity
		panic(fmt.Sprintf("quadtree over validated config: %v", err))
	}
	f.index = tree

	if cap(f.indexed) < len(f.boids) {
		f.indexed = make([]bool, len(f.boids))
	}
	f.indexed = f.indexed[:len(f.boids)]

	failures := 0
	for i := range f.boids {
		_, err := tree.Insert(f.boids[i].Pos, i)
		f.indexed[i] = err == nil
		if err != nil {
			failures++
			f.logger.Debugf("boid %d not indexed: %v", f.boids[i].ID, err)
		}
	}
	if failures > 0 {
		f.logger.Warnf("index rebuild: %d of %d boids outside %s", failures, len(f.boids), f.world)
	}
	f.logger.Debugf("index rebuilt at tick %d: %d boids, depth %d", f.tick, tree.Count(), tree.Depth())
}

// computeRange fills next[lo:hi] and returns the grown scratch buffers and
// the number of neighbors seen.
func (f *Flock) computeRange(s Settings, lo, hi int, ids []int, neighbors []behavior.Boid) ([]int, []behavior.Boid, int) {
	seen := 0
	for i := lo; i < hi; i++ {
		self := f.boids[i]
		neighbors = neighbors[:0]
		if f.indexed[i] {
			ids = f.index.Query(geometry.RegionAround(self.Pos, f.cfg.ViewDistance), ids[:0])
			for _, j := range ids {
				if j != i {
					neighbors = append(neighbors, f.boids[j])
				}
			}
		}
		seen += len(neighbors)
		f.next[i] = f.integrate(self, behavior.Compose(self, neighbors, f.params, s.Behaviors), s)
	}
	return ids, neighbors, seen
}

func (f *Flock) computeParallel(s Settings, workers int) int {
	n := len(f.boids)
	chunk := (n + workers - 1) / workers
	seen := make([]int, workers)

	var g errgroup.Group
	g.SetLimit(workers)
	for w := range workers {
		lo, hi := w*chunk, min((w+1)*chunk, n)
		if lo >= hi {
			break
		}
		g.Go(func() error {
			_, _, seen[w] = f.computeRange(s, lo, hi, nil, nil)
			return nil
		})
	}
	_ = g.Wait()

	total := 0
	for _, c := range seen {
		total += c
	}
	return total
}

// integrate applies acc, clamps the speed, moves and enforces the border.
func (f *Flock) integrate(self behavior.Boid, acc geometry.Vector2D, s Settings) behavior.Boid {
	vel := self.Vel.Add(acc.Mul(f.cfg.MaxForce)).Limit(f.cfg.MaxSpeed)
	if !vel.IsFinite() {
		vel = geometry.Zero
	}
	pos := self.Pos.Add(vel)
	pos, vel = s.Border.Apply(pos, vel, f.world, f.cfg.BorderMargin)
	if !pos.IsFinite() {
		pos = self.Pos
		if !pos.IsFinite() {
			pos = f.world.Center()
		}
	}
	return behavior.Boid{ID: self.ID, Pos: pos, Vel: vel}
}

// Snapshot is a copy of the flock state, safe to hand to another goroutine.
type Snapshot struct {
	Tick     uint64          `json:"tick"`
	Boids    []behavior.Boid `json:"boids"`
	Leaves   []quadtree.Leaf `json:"leaves"`
	Stats    TickStats       `json:"stats"`
	Settings Settings        `json:"settings"`
	World    geometry.Region `json:"world"`
}

// Snapshot copies the committed state.
func (f *Flock) Snapshot(s Settings) *Snapshot {
	snap := &Snapshot{
		Tick:     f.tick,
		Boids:    slices.Clone(f.boids),
		Stats:    f.last,
		Settings: s,
		World:    f.world,
	}
	for l := range f.Leaves() {
		snap.Leaves = append(snap.Leaves, l)
	}
	return snap
}
