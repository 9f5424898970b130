package ui

import (
	"image/color"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/vector"
)

// Widget is implemented by every control a Panel can hold.
type Widget interface {
	Update()
	Draw(screen *ebiten.Image)
	height() float64
	moveTo(x, y float64)
}

type section struct {
	title string
	y     float64
}

// Panel stacks widgets vertically under section headers.
type Panel struct {
	Title         string
	X, Y          float64
	Width, Height float64
	Hidden        bool
	widgets       []Widget
	sections      []section
	cursor        float64 // y of the next widget, relative to Y

	// Styling
	BGColor     color.RGBA
	BorderColor color.RGBA
}

// NewPanel creates an empty panel whose height grows with its content.
func NewPanel(x, y, width float64, title string) *Panel {
	return &Panel{
		Title:       title,
		X:           x,
		Y:           y,
		Width:       width,
		cursor:      25,
		BGColor:     color.RGBA{R: 40, G: 40, B: 45, A: 200},
		BorderColor: color.RGBA{R: 100, G: 100, B: 110, A: 255},
	}
}

// AddSection starts a new section header.
func (p *Panel) AddSection(title string) {
	p.sections = append(p.sections, section{title: title, y: p.cursor})
	p.cursor += 22
	p.Height = p.cursor + 5
}

// AddCheckbox appends a checkbox to the current section.
func (p *Panel) AddCheckbox(label, hint string, value bool) *Checkbox {
	c := NewCheckbox(0, 0, label, value)
	c.Hint = hint
	p.add(c)
	return c
}

// AddButton appends a full-width button to the current section.
func (p *Panel) AddButton(label string, onClick func()) *Button {
	b := NewButton(0, 0, p.Width-20, 20, label, onClick)
	p.add(b)
	return b
}

func (p *Panel) add(w Widget) {
	w.moveTo(p.X+10, p.Y+p.cursor)
	p.widgets = append(p.widgets, w)
	p.cursor += w.height()
	p.Height = p.cursor + 5
}

// Update handles input for all widgets
func (p *Panel) Update() {
	if p.Hidden {
		return
	}
	for _, w := range p.widgets {
		w.Update()
	}
}

// Draw renders the panel and all widgets
func (p *Panel) Draw(screen *ebiten.Image) {
	if p.Hidden {
		return
	}
	vector.FillRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		p.BGColor, true)
	vector.StrokeRect(screen,
		float32(p.X), float32(p.Y),
		float32(p.Width), float32(p.Height),
		2, p.BorderColor, true)
	ebitenutil.DebugPrintAt(screen, p.Title, int(p.X+10), int(p.Y+5))

	sectionBG := color.RGBA{R: 60, G: 60, B: 70, A: 255}
	for _, s := range p.sections {
		vector.FillRect(screen,
			float32(p.X+5), float32(p.Y+s.y),
			float32(p.Width-10), 18,
			sectionBG, true)
		ebitenutil.DebugPrintAt(screen, s.title, int(p.X+10), int(p.Y+s.y+1))
	}

	for _, w := range p.widgets {
		w.Draw(screen)
	}
}
