package behavior

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// ErrUnknownBehavior is returned when parsing a behavior name that is not one
// of align, cohesion, separate or bound.
var ErrUnknownBehavior = errors.New("unknown behavior")

// Kind selects one steering rule.
type Kind uint8

const (
	Align Kind = iota
	Cohesion
	Separate
	Bound
	numKinds
)

var kindNames = [numKinds]string{
	Align:    "align",
	Cohesion: "cohesion",
	Separate: "separate",
	Bound:    "bound",
}

func (k Kind) String() string {
	if k < numKinds {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Kinds lists every behavior in evaluation order.
func Kinds() []Kind {
	return []Kind{Align, Cohesion, Separate, Bound}
}

// ParseKind maps a lower-case behavior name to its Kind.
func ParseKind(name string) (Kind, error) {
	for k, n := range kindNames {
		if n == strings.ToLower(strings.TrimSpace(name)) {
			return Kind(k), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBehavior, name)
}

// Mask is the set of enabled behaviors, one bit per Kind.
type Mask uint8

// AllBehaviors enables every rule.
const AllBehaviors Mask = 1<<numKinds - 1

// MaskOf builds a mask with the given behaviors enabled.
func MaskOf(kinds ...Kind) Mask {
	var m Mask
	for _, k := range kinds {
		m |= 1 << k
	}
	return m
}

// ParseMask builds a mask from behavior names.
func ParseMask(names []string) (Mask, error) {
	var m Mask
	for _, n := range names {
		k, err := ParseKind(n)
		if err != nil {
			return 0, err
		}
		m |= 1 << k
	}
	return m, nil
}

func (m Mask) Has(k Kind) bool { return m&(1<<k) != 0 }

// Toggle flips one behavior and returns the new mask.
func (m Mask) Toggle(k Kind) Mask { return m ^ (1 << k) }

// Names returns the enabled behavior names in evaluation order.
func (m Mask) Names() []string {
	names := make([]string, 0, numKinds)
	for _, k := range Kinds() {
		if m.Has(k) {
			names = append(names, k.String())
		}
	}
	return names
}

func (m Mask) String() string {
	if m&AllBehaviors == 0 {
		return "none"
	}
	return strings.Join(m.Names(), "|")
}

// MarshalJSON encodes the mask as a list of names: ["align","bound"].
func (m Mask) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.Names())
}

func (m *Mask) UnmarshalJSON(data []byte) error {
	var names []string
	if err := json.Unmarshal(data, &names); err != nil {
		return err
	}
	parsed, err := ParseMask(names)
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Params are the tunable constants shared by every rule.
type Params struct {
	MaxSpeed       float64
	AlignWeight    float64
	CohesionWeight float64
	SeparateWeight float64
	// BoundFactor is the per-axis nudge applied outside SafeArea.
	BoundFactor float64
	SafeArea    geometry.Region
	// MinSeparation clamps the distance used by Separate so that boids
	// sharing a position never divide by zero.
	MinSeparation float64
}

type rule func(self Boid, neighbors []Boid, p Params) geometry.Vector2D

var rules = [numKinds]rule{
	Align:    align,
	Cohesion: cohesion,
	Separate: separate,
	Bound:    bound,
}

// Calculate returns the acceleration contributed by one behavior, or the zero
// vector when that behavior is disabled in mask. neighbors may contain self;
// it is skipped by ID.
func Calculate(k Kind, self Boid, neighbors []Boid, p Params, mask Mask) geometry.Vector2D {
	if k >= numKinds || !mask.Has(k) {
		return geometry.Zero
	}
	return rules[k](self, neighbors, p)
}

// Compose sums the contributions of every enabled behavior.
// A non-finite sum is discarded so NaN never reaches the velocity.
func Compose(self Boid, neighbors []Boid, p Params, mask Mask) geometry.Vector2D {
	var acc geometry.Vector2D
	for k := range numKinds {
		acc = acc.Add(Calculate(k, self, neighbors, p, mask))
	}
	if !acc.IsFinite() {
		return geometry.Zero
	}
	return acc
}

// steer turns a desired direction into a correction of the current velocity.
func steer(desired geometry.Vector2D, self Boid, p Params, weight float64) geometry.Vector2D {
	if desired.IsZero() {
		return geometry.Zero
	}
	return desired.SetLen(p.MaxSpeed).Sub(self.Vel).Mul(weight)
}

func align(self Boid, neighbors []Boid, p Params) geometry.Vector2D {
	var sum geometry.Vector2D
	n := 0
	for i := range neighbors {
		if neighbors[i].ID == self.ID {
			continue
		}
		sum = sum.Add(neighbors[i].Vel)
		n++
	}
	avg, err := sum.Div(float64(n))
	if err != nil {
		return geometry.Zero
	}
	return steer(avg, self, p, p.AlignWeight)
}

func cohesion(self Boid, neighbors []Boid, p Params) geometry.Vector2D {
	var sum geometry.Vector2D
	n := 0
	for i := range neighbors {
		if neighbors[i].ID == self.ID {
			continue
		}
		sum = sum.Add(neighbors[i].Pos)
		n++
	}
	center, err := sum.Div(float64(n))
	if err != nil {
		return geometry.Zero
	}
	return steer(center.Sub(self.Pos), self, p, p.CohesionWeight)
}

func separate(self Boid, neighbors []Boid, p Params) geometry.Vector2D {
	var sum geometry.Vector2D
	for i := range neighbors {
		if neighbors[i].ID == self.ID {
			continue
		}
		diff := self.Pos.Sub(neighbors[i].Pos)
		d2 := max(self.Pos.DistanceSquaredTo(neighbors[i].Pos), p.MinSeparation*p.MinSeparation)
		if d2 == 0 {
			continue
		}
		sum = sum.Add(diff.Mul(1 / d2))
	}
	return steer(sum, self, p, p.SeparateWeight)
}

func bound(self Boid, _ []Boid, p Params) geometry.Vector2D {
	var v geometry.Vector2D
	switch {
	case self.Pos.X < p.SafeArea.Min.X:
		v.X = p.BoundFactor
	case self.Pos.X > p.SafeArea.Max.X:
		v.X = -p.BoundFactor
	}
	switch {
	case self.Pos.Y < p.SafeArea.Min.Y:
		v.Y = p.BoundFactor
	case self.Pos.Y > p.SafeArea.Max.Y:
		v.Y = -p.BoundFactor
	}
	return v
}
