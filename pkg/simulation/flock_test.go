package simulation

import (
	"errors"
	"math"
	"testing"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

func testConfig() *Config {
	cfg := DefaultConfig()
	cfg.NumBoids = 200
	cfg.Seed = 42
	return cfg
}

func mustFlock(t testing.TB, cfg *Config) *Flock {
	t.Helper()
	f, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	return f
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.WorldWidth = 0
	cfg.LeafCapacity = 0
	_, err := New(cfg)
	if !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("New() error = %v; want ErrInvalidConfig", err)
	}
	if _, err := New(nil); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("New(nil) error = %v; want ErrInvalidConfig", err)
	}
}

func TestSpawnAndClear(t *testing.T) {
	cfg := testConfig()
	f := mustFlock(t, cfg)
	f.Spawn(50)
	f.Spawn(25)
	if f.Len() != 75 {
		t.Fatalf("Len() = %d; want 75", f.Len())
	}

	inner := cfg.Bounds().Inset(cfg.BorderMargin)
	seen := make(map[uint64]bool)
	for b := range f.All() {
		if seen[b.ID] {
			t.Errorf("duplicate boid id %d", b.ID)
		}
		seen[b.ID] = true
		if b.Pos.X < inner.Min.X || b.Pos.X > inner.Max.X || b.Pos.Y < inner.Min.Y || b.Pos.Y > inner.Max.Y {
			t.Errorf("boid %d spawned at %v outside %v", b.ID, b.Pos, inner)
		}
		if d := b.Vel.Len() - cfg.InitialSpeed; d > 1e-9 || d < -1e-9 {
			t.Errorf("boid %d spawned with speed %v; want %v", b.ID, b.Vel.Len(), cfg.InitialSpeed)
		}
	}

	f.Clear()
	if f.Len() != 0 {
		t.Errorf("Len() after Clear = %d; want 0", f.Len())
	}
	stats := f.Tick(cfg.Settings())
	if !stats.Rebuilt || stats.Boids != 0 || stats.Indexed != 0 {
		t.Errorf("tick after Clear = %+v; want a rebuilt empty index", stats)
	}
}

func TestTick_SpeedNeverExceedsMax(t *testing.T) {
	cfg := testConfig()
	cfg.MaxForce = 5
	cfg.SeparateWeight = 10
	for _, border := range []BorderPolicy{Reflect, GoThrough} {
		t.Run(border.String(), func(t *testing.T) {
			f := mustFlock(t, cfg)
			f.Spawn(cfg.NumBoids)
			// a few boids crammed together push hard on each other
			for i := range 5 {
				f.Add(geometry.NewVector(400+float64(i)*0.001, 300), geometry.NewVector(100, -100))
			}
			s := Settings{Border: border, Behaviors: behavior.AllBehaviors}
			for range 50 {
				f.Tick(s)
				for b := range f.All() {
					if b.Vel.Len() > cfg.MaxSpeed+1e-9 {
						t.Fatalf("tick %d: boid %d speed %v > %v", f.LastStats().Tick, b.ID, b.Vel.Len(), cfg.MaxSpeed)
					}
				}
			}
		})
	}
}

func TestTick_IdenticalPositionsStayFinite(t *testing.T) {
	cfg := testConfig()
	cfg.MinSeparation = 0
	f := mustFlock(t, cfg)
	pos := geometry.NewVector(400, 300)
	f.Add(pos, geometry.NewVector(1, 0))
	f.Add(pos, geometry.NewVector(1, 0))

	s := Settings{Border: Reflect, Behaviors: behavior.MaskOf(behavior.Separate)}
	for range 10 {
		f.Tick(s)
		for b := range f.All() {
			if !b.Pos.IsFinite() || !b.Vel.IsFinite() {
				t.Fatalf("boid %d went non-finite: pos %v vel %v", b.ID, b.Pos, b.Vel)
			}
		}
	}
}

func TestTick_RebuildCadence(t *testing.T) {
	cfg := testConfig()
	cfg.RebuildEvery = 3
	f := mustFlock(t, cfg)
	f.Spawn(20)

	var got []bool
	for range 7 {
		got = append(got, f.Tick(cfg.Settings()).Rebuilt)
	}
	want := []bool{true, false, false, true, false, false, true}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("rebuild pattern = %v; want %v", got, want)
		}
	}

	// a population change forces the next tick to rebuild
	f.Spawn(1)
	if !f.Tick(cfg.Settings()).Rebuilt {
		t.Error("tick after Spawn did not rebuild the index")
	}
	if f.Tick(cfg.Settings()).Rebuilt {
		t.Error("cadence did not restart after the forced rebuild")
	}
}

func TestTick_OutOfBoundsBoidIsTolerated(t *testing.T) {
	cfg := testConfig()
	cfg.RebuildEvery = 3
	f := mustFlock(t, cfg)
	f.Spawn(30)
	// exactly on the world edge: no node contains it
	stray, err := f.Add(geometry.NewVector(0, 300), geometry.NewVector(1, 0))
	if err != nil {
		t.Fatalf("Add() error: %v", err)
	}

	stats := f.Tick(cfg.Settings())
	if stats.InsertFailures != 1 {
		t.Errorf("InsertFailures = %d; want 1", stats.InsertFailures)
	}
	if stats.Indexed != 30 {
		t.Errorf("Indexed = %d; want 30", stats.Indexed)
	}
	if f.Len() != 31 {
		t.Fatalf("Len() = %d; want 31, the stray boid must survive", f.Len())
	}
	for b := range f.All() {
		if b.ID == stray.ID && b.Pos.X < cfg.BorderMargin {
			t.Errorf("stray boid at %v was not pushed back inside the border", b.Pos)
		}
	}

	// still missing from the index until the next rebuild
	for range 2 {
		st := f.Tick(cfg.Settings())
		if st.Rebuilt || st.InsertFailures != 1 {
			t.Errorf("tick %d: rebuilt=%v InsertFailures=%d; want false and 1", st.Tick, st.Rebuilt, st.InsertFailures)
		}
	}
	st := f.Tick(cfg.Settings())
	if !st.Rebuilt || st.InsertFailures != 0 || st.Indexed != 31 {
		t.Errorf("tick %d: rebuilt=%v InsertFailures=%d Indexed=%d; want a rebuild indexing all 31",
			st.Tick, st.Rebuilt, st.InsertFailures, st.Indexed)
	}
}

func TestAdd_RejectsNonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	tests := []struct {
		name     string
		pos, vel geometry.Vector2D
	}{
		{"nan position", geometry.NewVector(nan, 100), geometry.NewVector(1, 0)},
		{"inf position", geometry.NewVector(100, -inf), geometry.NewVector(1, 0)},
		{"inf velocity", geometry.NewVector(100, 100), geometry.NewVector(inf, 0)},
		{"nan velocity", geometry.NewVector(100, 100), geometry.NewVector(0, nan)},
	}
	cfg := testConfig()
	f := mustFlock(t, cfg)
	f.Spawn(5)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.Add(tt.pos, tt.vel); !errors.Is(err, ErrNonFiniteBoid) {
				t.Errorf("Add(%v, %v) error = %v; want ErrNonFiniteBoid", tt.pos, tt.vel, err)
			}
		})
	}
	if f.Len() != 5 {
		t.Fatalf("Len() = %d; want 5, rejected boids must not be added", f.Len())
	}

	for range 5 {
		f.Tick(cfg.Settings())
		for b := range f.All() {
			if !b.Pos.IsFinite() || !b.Vel.IsFinite() {
				t.Fatalf("tick %d committed non-finite boid %+v", f.LastStats().Tick, b)
			}
		}
	}
}

func TestIntegrate_NonFinitePositionFallsBackToCenter(t *testing.T) {
	cfg := testConfig()
	f := mustFlock(t, cfg)
	self := behavior.Boid{ID: 1, Pos: geometry.NewVector(math.NaN(), 100), Vel: geometry.NewVector(1, 0)}
	for _, border := range []BorderPolicy{Reflect, GoThrough} {
		got := f.integrate(self, geometry.Zero, Settings{Border: border})
		if !got.Pos.IsFinite() || !got.Vel.IsFinite() {
			t.Errorf("%s: integrate kept a non-finite state %+v", border, got)
		}
	}
}

func TestSpawn_NonPositiveIsNoop(t *testing.T) {
	f := mustFlock(t, testConfig())
	for _, n := range []int{0, -1, -100} {
		f.Spawn(n)
		if f.Len() != 0 {
			t.Fatalf("Spawn(%d) left %d boids; want 0", n, f.Len())
		}
	}
}

func TestTick_ParallelMatchesSequential(t *testing.T) {
	seq := testConfig()
	seq.Workers = 0
	par := testConfig()
	par.Workers = 4

	a, b := mustFlock(t, seq), mustFlock(t, par)
	a.Spawn(seq.NumBoids)
	b.Spawn(par.NumBoids)

	for range 20 {
		sa := a.Tick(seq.Settings())
		sb := b.Tick(par.Settings())
		if sa.Neighbors != sb.Neighbors {
			t.Fatalf("tick %d: neighbors %d sequential vs %d parallel", sa.Tick, sa.Neighbors, sb.Neighbors)
		}
	}

	var as, bs []behavior.Boid
	for x := range a.All() {
		as = append(as, x)
	}
	for x := range b.All() {
		bs = append(bs, x)
	}
	for i := range as {
		if as[i].Pos != bs[i].Pos || as[i].Vel != bs[i].Vel {
			t.Fatalf("boid #%d diverged: %+v vs %+v", i, as[i], bs[i])
		}
	}
}

func TestTick_NeighborsComeFromViewWindow(t *testing.T) {
	cfg := testConfig()
	cfg.ViewDistance = 20
	f := mustFlock(t, cfg)
	f.Add(geometry.NewVector(200, 200), geometry.Zero)
	f.Add(geometry.NewVector(205, 200), geometry.Zero) // inside the 20x20 window
	f.Add(geometry.NewVector(500, 400), geometry.Zero) // far away

	stats := f.Tick(Settings{Border: Reflect})
	// the two close boids see each other, the far one sees nobody
	if stats.Neighbors != 2 {
		t.Errorf("Neighbors = %d; want 2", stats.Neighbors)
	}
}

func TestScenario_HorizontalLineIndex(t *testing.T) {
	cfg := testConfig()
	cfg.WorldWidth, cfg.WorldHeight = 300, 300
	cfg.LeafCapacity = 10
	cfg.BoundMargin = 50
	f := mustFlock(t, cfg)
	for i := range 10 {
		f.Add(geometry.NewVector(15+float64(i)*30, 150), geometry.Zero)
	}

	stats := f.Tick(Settings{Border: Reflect})
	if stats.Indexed != 10 || stats.Leaves != 1 {
		t.Errorf("stats = %+v; want 10 boids indexed in a single leaf", stats)
	}
	if got := f.index.Count(); got != 10 {
		t.Errorf("index Count() = %d; want 10", got)
	}
	left := geometry.NewRegion(geometry.Zero, geometry.NewVector(100, 300))
	if got := f.index.Query(left, nil); len(got) != 3 {
		t.Errorf("left third holds %d boids; want 3", len(got))
	}
}

func TestSnapshot_IsACopy(t *testing.T) {
	cfg := testConfig()
	f := mustFlock(t, cfg)
	f.Spawn(10)
	f.Tick(cfg.Settings())

	snap := f.Snapshot(cfg.Settings())
	if snap.Tick != 1 || len(snap.Boids) != 10 || len(snap.Leaves) == 0 {
		t.Fatalf("snapshot = tick %d, %d boids, %d leaves", snap.Tick, len(snap.Boids), len(snap.Leaves))
	}
	snap.Boids[0].Pos = geometry.NewVector(-1, -1)
	for b := range f.All() {
		if b.Pos == snap.Boids[0].Pos {
			t.Fatal("mutating the snapshot changed the flock")
		}
	}
}

func BenchmarkTick(b *testing.B) {
	benchmarks := []struct {
		name    string
		workers int
	}{
		{"sequential", 0},
		{"parallel", 4},
	}
	for _, bm := range benchmarks {
		cfg := DefaultConfig()
		cfg.NumBoids = 2000
		cfg.Workers = bm.workers
		f, _ := New(cfg)
		f.Spawn(cfg.NumBoids)
		b.Run(bm.name, func(b *testing.B) {
			for i := 0; i < b.N; i++ {
				f.Tick(cfg.Settings())
			}
		})
	}
}
