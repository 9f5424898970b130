package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Checkbox is a labelled toggle. Value may also be flipped from the
// keyboard; the box only reflects it.
type Checkbox struct {
	Label   string
	Value   bool
	Hint    string // shortcut shown after the label, e.g. "1"
	X, Y    float64
	Size    float64
	clicked bool // Track if already clicked this frame
}

// NewCheckbox creates a new checkbox instance
func NewCheckbox(x, y float64, label string, value bool) *Checkbox {
	return &Checkbox{
		Label: label,
		Value: value,
		X:     x,
		Y:     y,
		Size:  14,
	}
}

// Toggle flips the value.
func (c *Checkbox) Toggle() { c.Value = !c.Value }

// Update checks for mouse interaction
func (c *Checkbox) Update() {
	mx, my := ebiten.CursorPosition()

	// Toggle on click (with debouncing)
	if hit(c.X, c.Y, c.Size, c.Size, mx, my) && ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		if !c.clicked {
			c.Toggle()
			c.clicked = true
		}
	} else {
		c.clicked = false
	}
}

// Draw renders the checkbox and its label
func (c *Checkbox) Draw(screen *ebiten.Image) {
	vector.StrokeRect(screen,
		float32(c.X), float32(c.Y),
		float32(c.Size), float32(c.Size),
		2,
		color.RGBA{R: 200, G: 200, B: 200, A: 255},
		true)

	if c.Value {
		vector.FillRect(screen,
			float32(c.X+3), float32(c.Y+3),
			float32(c.Size-6), float32(c.Size-6),
			color.RGBA{R: 100, G: 200, B: 100, A: 255},
			true)
	}

	label := c.Label
	if c.Hint != "" {
		label += " [" + c.Hint + "]"
	}
	ebitenutil.DebugPrintAt(screen, label, int(c.X+c.Size+6), int(c.Y))
}

func (c *Checkbox) height() float64 { return c.Size + 6 }

func (c *Checkbox) moveTo(x, y float64) { c.X, c.Y = x, y }

// hit reports whether the cursor (mx, my) is over the rectangle.
func hit(x, y, w, h float64, mx, my int) bool {
	return float64(mx) >= x && float64(mx) <= x+w &&
		float64(my) >= y && float64(my) <= y+h
}
