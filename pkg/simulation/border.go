package simulation

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// ErrUnknownBorderPolicy is returned when parsing a border policy name other
// than "reflect" or "go-through".
var ErrUnknownBorderPolicy = errors.New("unknown border policy")

// BorderPolicy decides what happens to a boid leaving the world.
type BorderPolicy uint8

const (
	// Reflect bounces the boid back, mirroring the velocity on the crossed edge.
	Reflect BorderPolicy = iota
	// GoThrough wraps the boid to the opposite edge (toroidal world).
	GoThrough
)

func (b BorderPolicy) String() string {
	switch b {
	case Reflect:
		return "reflect"
	case GoThrough:
		return "go-through"
	default:
		return fmt.Sprintf("BorderPolicy(%d)", b)
	}
}

// ParseBorderPolicy accepts "reflect" and "go-through" (or "gothrough").
func ParseBorderPolicy(s string) (BorderPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "reflect":
		return Reflect, nil
	case "go-through", "gothrough":
		return GoThrough, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownBorderPolicy, s)
}

func (b BorderPolicy) MarshalText() ([]byte, error) {
	if b > GoThrough {
		return nil, fmt.Errorf("%w: %d", ErrUnknownBorderPolicy, b)
	}
	return []byte(b.String()), nil
}

func (b *BorderPolicy) UnmarshalText(text []byte) error {
	p, err := ParseBorderPolicy(string(text))
	if err != nil {
		return err
	}
	*b = p
	return nil
}

var (
	normalLeft   = geometry.NewVector(1, 0)
	normalRight  = geometry.NewVector(-1, 0)
	normalTop    = geometry.NewVector(0, 1)
	normalBottom = geometry.NewVector(0, -1)
)

// Apply returns the position and velocity after enforcing the policy on
// world shrunk by margin.
func (b BorderPolicy) Apply(pos, vel geometry.Vector2D, world geometry.Region, margin float64) (geometry.Vector2D, geometry.Vector2D) {
	inner := world.Inset(margin)
	if b == GoThrough {
		pos.X = wrap(pos.X, inner.Min.X, inner.Max.X)
		pos.Y = wrap(pos.Y, inner.Min.Y, inner.Max.Y)
		return pos, vel
	}

	if pos.X < inner.Min.X {
		pos.X = inner.Min.X
		if vel.X < 0 {
			vel = vel.Reflect(normalLeft)
		}
	} else if pos.X > inner.Max.X {
		pos.X = inner.Max.X
		if vel.X > 0 {
			vel = vel.Reflect(normalRight)
		}
	}
	if pos.Y < inner.Min.Y {
		pos.Y = inner.Min.Y
		if vel.Y < 0 {
			vel = vel.Reflect(normalTop)
		}
	} else if pos.Y > inner.Max.Y {
		pos.Y = inner.Max.Y
		if vel.Y > 0 {
			vel = vel.Reflect(normalBottom)
		}
	}
	return pos, vel
}

// wrap folds p into [lo, hi] keeping the overshoot.
func wrap(p, lo, hi float64) float64 {
	span := hi - lo
	if span <= 0 || (p >= lo && p <= hi) {
		return p
	}
	off := math.Mod(p-lo, span)
	if off < 0 {
		off += span
	}
	return lo + off
}
