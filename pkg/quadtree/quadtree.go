// Package quadtree implements a point quadtree used to find the boids
// surrounding a position without scanning the whole flock.
//
// A tree starts as a single leaf over its bounds. Leaves hold at most
// capacity entries; the insert that would overflow a full leaf turns it into
// an internal node with four children (NorthWest, NorthEast, SouthWest,
// SouthEast) and redistributes its entries. The transformation is one-way:
// trees are never coarsened, they are thrown away and rebuilt instead.
package quadtree

import (
	"errors"
	"fmt"
	"iter"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

var (
	// ErrOutOfBounds is returned by Insert for a position outside the tree bounds.
	ErrOutOfBounds = errors.New("quadtree: position outside tree bounds")
	// ErrInvalidCapacity is returned by New for a leaf capacity below one.
	ErrInvalidCapacity = errors.New("quadtree: leaf capacity must be at least 1")
	// ErrEmptyBounds is returned by New for degenerate bounds.
	ErrEmptyBounds = errors.New("quadtree: bounds must have a positive area")
)

// AreaID identifies a node for the lifetime of its tree.
type AreaID uint32

type entry[T any] struct {
	pos  geometry.Vector2D
	item T
}

type node[T any] struct {
	id     AreaID
	region geometry.Region
	depth  int
	// leaf: every entry satisfies region.Contains(pos).
	// internal: only entries lying exactly on a split line of this node.
	entries  []entry[T]
	children *[4]*node[T]
}

func (n *node[T]) isLeaf() bool { return n.children == nil }

// Tree is a quadtree of items of type T keyed by position.
// It is not safe for concurrent mutation; concurrent Query calls are fine
// once all inserts are done.
type Tree[T any] struct {
	root     *node[T]
	capacity int
	maxDepth int
	nextID   AreaID
}

// New returns a tree made of a single empty leaf covering bounds.
// Leaves at maxDepth accept entries beyond capacity instead of subdividing,
// which bounds the recursion when many items share a position.
func New[T any](bounds geometry.Region, capacity, maxDepth int) (*Tree[T], error) {
	if capacity < 1 {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidCapacity, capacity)
	}
	if bounds.IsEmpty() || bounds.Width() < 0 || bounds.Height() < 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyBounds, bounds)
	}
	if maxDepth < 0 {
		maxDepth = 0
	}
	t := &Tree[T]{capacity: capacity, maxDepth: maxDepth}
	t.root = t.newNode(bounds, 0)
	return t, nil
}

func (t *Tree[T]) newNode(r geometry.Region, depth int) *node[T] {
	n := &node[T]{id: t.nextID, region: r, depth: depth}
	t.nextID++
	return n
}

// Bounds returns the region covered by the tree.
func (t *Tree[T]) Bounds() geometry.Region { return t.root.region }


// Insert stores item at pos and returns the id of the node that accepted it.
// Positions not strictly inside the tree bounds are rejected with
// ErrOutOfBounds and nothing is stored.
func (t *Tree[T]) Insert(pos geometry.Vector2D, item T) (AreaID, error) {
	if !t.root.region.Contains(pos) {
		return 0, fmt.Errorf("%w: %s not in %s", ErrOutOfBounds, pos, t.root.region)
	}
	return t.insert(t.root, entry[T]{pos: pos, item: item}), nil
}

// insert assumes n.region contains e.pos.
func (t *Tree[T]) insert(n *node[T], e entry[T]) AreaID {
	for !n.isLeaf() {
		child := n.childFor(e.pos)
		if child == nil {
			// on a split line: no child contains it, the parent does
			n.entries = append(n.entries, e)
			return n.id
		}
		n = child
	}

	if len(n.entries) < t.capacity || n.depth >= t.maxDepth {
		n.entries = append(n.entries, e)
		return n.id
	}

	t.subdivide(n)
	return t.insert(n, e)
}

// subdivide turns the leaf n into an internal node and re-inserts its entries.
func (t *Tree[T]) subdivide(n *node[T]) {
	quads := n.region.Subdivide()
	var children [4]*node[T]
	for i, r := range quads {
		children[i] = t.newNode(r, n.depth+1)
	}

	held := n.entries
	n.entries = nil
	n.children = &children
	for _, e := range held {
		t.insert(n, e)
	}
}

func (n *node[T]) childFor(p geometry.Vector2D) *node[T] {
	for _, c := range n.children {
		if c.region.Contains(p) {
			return c
		}
	}
	return nil
}

// Query appends to out every item whose position lies strictly inside r and
// returns the extended slice. Subtrees whose region does not intersect r are
// skipped.
func (t *Tree[T]) Query(r geometry.Region, out []T) []T {
	return t.root.query(r, out)
}

func (n *node[T]) query(r geometry.Region, out []T) []T {
	if !n.region.Intersects(r) {
		return out
	}
	for i := range n.entries {
		if r.Contains(n.entries[i].pos) {
			out = append(out, n.entries[i].item)
		}
	}
	if n.isLeaf() {
		return out
	}
	for _, c := range n.children {
		out = c.query(r, out)
	}
	return out
}

// Count returns the number of stored items.
func (t *Tree[T]) Count() int {
	return t.root.count()
}

func (n *node[T]) count() int {
	total := len(n.entries)
	if !n.isLeaf() {
		for _, c := range n.children {
			total += c.count()
		}
	}
	return total
}

// Leaf describes a leaf node for read-only traversal.
type Leaf struct {
	ID     AreaID
	Region geometry.Region
	Depth  int
	Len    int
}

// Leaves yields every leaf in depth-first, quadrant order.
func (t *Tree[T]) Leaves() iter.Seq[Leaf] {
	return func(yield func(Leaf) bool) {
		t.root.walk(yield)
	}
}

func (n *node[T]) walk(yield func(Leaf) bool) bool {
	if n.isLeaf() {
		return yield(Leaf{ID: n.id, Region: n.region, Depth: n.depth, Len: len(n.entries)})
	}
	for _, c := range n.children {
		if !c.walk(yield) {
			return false
		}
	}
	return true
}

// Depth returns the depth of the deepest leaf; a fresh tree has depth 0.
func (t *Tree[T]) Depth() int {
	deepest := 0
	for l := range t.Leaves() {
		deepest = max(deepest, l.Depth)
	}
	return deepest
}
