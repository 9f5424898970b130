// Package render draws the flock with ebiten and turns keyboard and mouse
// input into messages for the FlockActor.
package render

import (
	"context"
	"fmt"
	"image/color"
	"math"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/tochemey/goakt/v3/actor"
	"google.golang.org/protobuf/proto"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/ui"
)

var (
	whiteImage = ebiten.NewImage(3, 3)
	background = color.RGBA{R: 10, G: 10, B: 30, A: 255}
	viewColor  = color.RGBA{R: 255, G: 255, B: 255, A: 40}
	// leaf overlay, picked by area id
	leafColors = []color.RGBA{
		{R: 80, G: 200, B: 120, A: 120},
		{R: 220, G: 180, B: 60, A: 120},
		{R: 90, G: 140, B: 255, A: 120},
		{R: 230, G: 90, B: 140, A: 120},
		{R: 160, G: 110, B: 230, A: 120},
	}
)

func init() {
	whiteImage.Fill(color.RGBA{R: 100, G: 200, B: 255, A: 255})
}

type Game struct {
	ctx        context.Context
	System     actor.ActorSystem
	flockPID   *actor.PID
	snapshotCh chan *simulation.Snapshot
	lastState  *simulation.Snapshot
	cfg        *simulation.Config
	settings   simulation.Settings
	lastTick   time.Time

	// UI Controls
	panel         *ui.Panel
	behaviorBoxes [4]*ui.Checkbox // indexed by behavior.Kind
	goThroughBox  *ui.Checkbox
	treeBox       *ui.Checkbox
	viewBox       *ui.Checkbox
	pauseBox      *ui.Checkbox

	// Timing instrumentation
	updateAvg float64 // Rolling average in ms
	drawAvg   float64
}

// NewGame spawns the flock actor on system and builds the control panel.
func NewGame(ctx context.Context, cfg *simulation.Config, system actor.ActorSystem) (*Game, error) {
	// Buffer to avoid blocking
	snapshotCh := make(chan *simulation.Snapshot, 2)

	flockPID, err := system.Spawn(ctx, "flock", simulation.NewFlockActor(cfg, snapshotCh))
	if err != nil {
		return nil, fmt.Errorf("failed to spawn flock: %w", err)
	}

	g := &Game{
		ctx:        ctx,
		System:     system,
		flockPID:   flockPID,
		snapshotCh: snapshotCh,
		lastState:  &simulation.Snapshot{}, // Avoid nil pointer
		cfg:        cfg,
		settings:   cfg.Settings(),
		lastTick:   time.Now(),
	}

	p := ui.NewPanel(10, 10, 200, "Boids quadtree")
	p.AddSection("Behaviors")
	for i, k := range behavior.Kinds() {
		g.behaviorBoxes[k] = p.AddCheckbox(k.String(), fmt.Sprint(i+1), g.settings.Behaviors.Has(k))
	}
	p.AddSection("World")
	g.goThroughBox = p.AddCheckbox("go through", "B", g.settings.Border == simulation.GoThrough)
	g.pauseBox = p.AddCheckbox("pause", "Space", false)
	p.AddSection("Display")
	g.treeBox = p.AddCheckbox("quadtree", "Q", true)
	g.viewBox = p.AddCheckbox("view windows", "V", false)
	p.AddSection("Flock")
	p.AddButton("add boid [W]", func() { g.send(simulation.SpawnMessage(1)) })
	p.AddButton("respawn [R]", g.respawn)
	p.AddButton("clear [C]", func() { g.send(simulation.ClearMessage()) })
	g.panel = p

	return g, nil
}

func (g *Game) send(msg proto.Message) {
	if err := actor.Tell(g.ctx, g.flockPID, msg); err != nil {
		g.System.Logger().Warnf("message to flock dropped: %v", err)
	}
}

func (g *Game) respawn() {
	g.send(simulation.ClearMessage())
	g.send(simulation.SpawnMessage(uint32(g.cfg.NumBoids)))
}

func (g *Game) Update() error {
	start := time.Now()
	defer func() {
		// Rolling average (exponential moving average)
		g.updateAvg = g.updateAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	// 1. Input: panel first, then shortcuts flipping the same boxes
	g.panel.Update()
	g.handleKeys()

	// 2. Retrieve Latest State (Non-blocking)
	select {
	case snap := <-g.snapshotCh:
		g.lastState = snap
	default:
		// Use previous state if new one isn't ready
	}

	// 3. Push settings when a toggle changed
	if s := g.currentSettings(); s != g.settings {
		msg, err := simulation.SettingsMessage(s)
		if err != nil {
			return err
		}
		g.send(msg)
		g.settings = s
	}

	// 4. Trigger Simulation Step
	now := time.Now()
	if !g.pauseBox.Value {
		g.send(simulation.TickMessage(now.Sub(g.lastTick)))
	}
	g.lastTick = now
	return nil
}

func (g *Game) handleKeys() {
	keys := [...]ebiten.Key{ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4}
	for k, key := range keys {
		if inpututil.IsKeyJustPressed(key) {
			g.behaviorBoxes[k].Toggle()
		}
	}
	toggles := map[ebiten.Key]*ui.Checkbox{
		ebiten.KeyB:     g.goThroughBox,
		ebiten.KeyQ:     g.treeBox,
		ebiten.KeyV:     g.viewBox,
		ebiten.KeySpace: g.pauseBox,
	}
	for key, box := range toggles {
		if inpututil.IsKeyJustPressed(key) {
			box.Toggle()
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyW) {
		g.send(simulation.SpawnMessage(1))
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.send(simulation.ClearMessage())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		g.respawn()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyH) {
		g.panel.Hidden = !g.panel.Hidden
	}
}

func (g *Game) currentSettings() simulation.Settings {
	var s simulation.Settings
	for k, box := range g.behaviorBoxes {
		if box.Value {
			s.Behaviors = s.Behaviors.Toggle(behavior.Kind(k))
		}
	}
	s.Border = simulation.Reflect
	if g.goThroughBox.Value {
		s.Border = simulation.GoThrough
	}
	return s
}

func (g *Game) Draw(screen *ebiten.Image) {
	start := time.Now()
	defer func() {
		g.drawAvg = g.drawAvg*0.95 + float64(time.Since(start).Microseconds())/1000.0*0.05
	}()

	screen.Fill(background)

	// 1. Quadtree overlay
	if g.treeBox.Value {
		for _, l := range g.lastState.Leaves {
			drawRegion(screen, l.Region, leafColors[int(l.ID)%len(leafColors)])
		}
	}

	// 2. Boids from the last known snapshot
	for _, b := range g.lastState.Boids {
		if g.viewBox.Value {
			drawRegion(screen, geometry.RegionAround(b.Pos, g.cfg.ViewDistance), viewColor)
		}
		drawBoid(screen, b)
	}

	// 3. UI Panel and stats
	g.panel.Draw(screen)
	g.drawStats(screen)
}

func (g *Game) drawStats(screen *ebiten.Image) {
	st := g.lastState.Stats
	msg := fmt.Sprintf("FPS: %.1f  TPS: %.1f\nUpdate: %.2fms\nDraw:   %.2fms\n\nTick:   %d\nBoids:  %d\nLeaves: %d (depth %d)\nStray:  %d\nStep:   %s",
		ebiten.ActualFPS(),
		ebiten.ActualTPS(),
		g.updateAvg,
		g.drawAvg,
		g.lastState.Tick,
		len(g.lastState.Boids),
		st.Leaves, st.Depth,
		st.InsertFailures,
		st.Duration.Round(time.Microsecond))
	// Print stats on the right side
	ebitenutil.DebugPrintAt(screen, msg, int(g.cfg.WorldWidth)-170, 10)
}

func drawRegion(screen *ebiten.Image, r geometry.Region, clr color.Color) {
	vector.StrokeRect(screen,
		float32(r.Min.X), float32(r.Min.Y),
		float32(r.Width()), float32(r.Height()),
		1, clr, false)
}

func drawBoid(screen *ebiten.Image, b behavior.Boid) {
	angle := b.Vel.Angle()

	tipX := b.Pos.X + math.Cos(angle)*6
	tipY := b.Pos.Y + math.Sin(angle)*6
	rightX := b.Pos.X + math.Cos(angle+2.5)*5
	rightY := b.Pos.Y + math.Sin(angle+2.5)*5
	leftX := b.Pos.X + math.Cos(angle-2.5)*5
	leftY := b.Pos.Y + math.Sin(angle-2.5)*5

	vertices := []ebiten.Vertex{
		{DstX: float32(tipX), DstY: float32(tipY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: float32(rightX), DstY: float32(rightY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
		{DstX: float32(leftX), DstY: float32(leftY), SrcX: 1, SrcY: 1, ColorR: 1, ColorG: 1, ColorB: 1, ColorA: 1},
	}
	indices := []uint16{0, 1, 2}

	screen.DrawTriangles(vertices, indices, whiteImage, &ebiten.DrawTrianglesOptions{})
}

func (g *Game) Layout(w, h int) (int, int) { return int(g.cfg.WorldWidth), int(g.cfg.WorldHeight) }
