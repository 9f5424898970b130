package geometry

import "fmt"

// Quadrant indexes the four sub-regions returned by Region.Subdivide.
// Screen coordinates: Y grows downward, so "north" is the low-Y half.
type Quadrant int

const (
	NorthWest Quadrant = iota
	NorthEast
	SouthWest
	SouthEast
)

// Region is an axis-aligned rectangle defined by its low (Min) and high (Max)
// corners. Callers must pass Min <= Max component-wise; an inverted pair is
// not rejected but its tests are meaningless.
//
// Regions are values: Subdivide and Inset return new regions and never touch
// the receiver.
type Region struct {
	Min Vector2D `json:"min"`
	Max Vector2D `json:"max"`
}

// NewRegion builds the region spanning min to max.
func NewRegion(min, max Vector2D) Region {
	return Region{Min: min, Max: max}
}

// RegionAround builds a square of the given side length centred on center.
func RegionAround(center Vector2D, side float64) Region {
	half := Vector2D{side / 2, side / 2}
	return Region{Min: center.Sub(half), Max: center.Add(half)}
}

func (r Region) String() string {
	return fmt.Sprintf("[%s-%s]", r.Min, r.Max)
}

// Width of the region along X.
func (r Region) Width() float64 { return r.Max.X - r.Min.X }

// Height of the region along Y.
func (r Region) Height() float64 { return r.Max.Y - r.Min.Y }

// Center returns the midpoint of the region.
func (r Region) Center() Vector2D {
	return Vector2D{r.Min.X + r.Width()/2, r.Min.Y + r.Height()/2}
}

// IsEmpty reports a degenerate region: zero width or zero height.
func (r Region) IsEmpty() bool {
	return r.Width() == 0 || r.Height() == 0
}

// Contains is a strict interior test: points on the boundary are excluded.
// A point on the shared edge of two quadrants therefore belongs to neither,
// never to both.
func (r Region) Contains(p Vector2D) bool {
	return p.X > r.Min.X && p.X < r.Max.X &&
		p.Y > r.Min.Y && p.Y < r.Max.Y
}

// Intersects is a closed-interval overlap test, more permissive than
// Contains so that pruning never drops a subtree touching the query edge.
// Degenerate regions intersect nothing.
func (r Region) Intersects(other Region) bool {
	if r.IsEmpty() || other.IsEmpty() {
		return false
	}
	return r.Min.X <= other.Max.X && r.Max.X >= other.Min.X &&
		r.Min.Y <= other.Max.Y && r.Max.Y >= other.Min.Y
}

// Subdivide splits the region at its center into four quadrants, always in
// NorthWest, NorthEast, SouthWest, SouthEast order.
func (r Region) Subdivide() [4]Region {
	c := r.Center()
	return [4]Region{
		NorthWest: {Min: r.Min, Max: c},
		NorthEast: {Min: Vector2D{c.X, r.Min.Y}, Max: Vector2D{r.Max.X, c.Y}},
		SouthWest: {Min: Vector2D{r.Min.X, c.Y}, Max: Vector2D{c.X, r.Max.Y}},
		SouthEast: {Min: c, Max: r.Max},
	}
}

// Inset shrinks the region by margin on every side.
func (r Region) Inset(margin float64) Region {
	m := Vector2D{margin, margin}
	return Region{Min: r.Min.Add(m), Max: r.Max.Sub(m)}
}
