package simulation

import (
	"time"

	"github.com/tochemey/goakt/v3/actor"
	"github.com/tochemey/goakt/v3/goaktpb"
	"github.com/tochemey/goakt/v3/log"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// FlockActor owns a Flock and is the only goroutine touching it.
// The UI drives it with tick messages and receives snapshots on snapshotCh.
type FlockActor struct {
	cfg        *Config
	flock      *Flock
	settings   Settings
	snapshotCh chan<- *Snapshot

	// --- Benchmark Stats ---
	ticks       int
	tickTime    time.Duration
	lastLogTime time.Time
}

// NewFlockActor creates the actor; the flock itself is built in PreStart.
func NewFlockActor(cfg *Config, snapshotCh chan<- *Snapshot) *FlockActor {
	return &FlockActor{
		cfg:         cfg,
		settings:    cfg.Settings(),
		snapshotCh:  snapshotCh,
		lastLogTime: time.Now(),
	}
}

func (a *FlockActor) PreStart(ctx *actor.Context) error {
	return a.init(ctx.ActorSystem().Logger())
}

func (a *FlockActor) init(logger log.Logger) error {
	f, err := New(a.cfg, WithLogger(logger))
	if err != nil {
		return err
	}
	a.flock = f
	logger.Infof("Flock ready: world %s, leaf capacity %d, rebuild every %d ticks",
		f.world, a.cfg.LeafCapacity, a.cfg.RebuildEvery)
	return nil
}

func (a *FlockActor) Receive(ctx *actor.ReceiveContext) {
	if !a.handle(ctx.Message(), ctx.Logger()) {
		ctx.Unhandled()
	}
}

// handle applies one message and reports whether it was understood.
func (a *FlockActor) handle(message proto.Message, logger log.Logger) bool {
	switch msg := message.(type) {

	case *goaktpb.PostStart:
		logger.Infof("Flock Started. Spawning %d boids...", a.cfg.NumBoids)
		a.flock.Spawn(a.cfg.NumBoids)

	// The Main Simulation Step (Driven by Game Loop)
	case *durationpb.Duration:
		stats := a.flock.Tick(a.settings)
		a.ticks++
		a.tickTime += stats.Duration
		a.logBenchmarks(logger)
		a.pushSnapshot()

	case *wrapperspb.UInt32Value:
		a.flock.Spawn(int(msg.GetValue()))
		logger.Infof("Spawned %d boids, flock size %d", msg.GetValue(), a.flock.Len())

	case *emptypb.Empty:
		a.flock.Clear()
		logger.Info("Flock cleared")

	// runtime toggles from the UI
	case *structpb.Struct:
		s, err := SettingsFromStruct(msg, a.settings)
		if err != nil {
			logger.Warnf("settings update rejected: %v", err)
			return true
		}
		if s != a.settings {
			logger.Infof("settings: border %s, behaviors %s", s.Border, s.Behaviors)
		}
		a.settings = s

	default:
		return false
	}
	return true
}

func (a *FlockActor) logBenchmarks(logger log.Logger) {
	if time.Since(a.lastLogTime) >= time.Second {
		last := a.flock.LastStats()
		var avg time.Duration
		if a.ticks > 0 {
			avg = a.tickTime / time.Duration(a.ticks)
		}
		logger.Infof("📊 TICK RATE: %d/sec (avg %s) | Boids: %d | Leaves: %d depth %d | Unindexed: %d",
			a.ticks, avg, last.Boids, last.Leaves, last.Depth, last.InsertFailures)
		a.ticks = 0
		a.tickTime = 0
		a.lastLogTime = time.Now()
	}
}

func (a *FlockActor) pushSnapshot() {
	if a.snapshotCh == nil {
		return
	}
	select {
	case a.snapshotCh <- a.flock.Snapshot(a.settings):
	default:
		// UI busy, skip frame
	}
}

func (a *FlockActor) PostStop(ctx *actor.Context) error {
	ctx.ActorSystem().Logger().Info("Flock is shutdown...")
	return nil
}
