// Command simulation runs the flock without a window and logs tick
// statistics once per second.
package main

import (
	"flag"
	"log"
	"os"
	"time"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/internal/cli"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
)

func main() {
	var opts cli.Options
	opts.Register(flag.CommandLine)
	ticks := flag.Int("ticks", 1000, "number of ticks to run")
	flag.Parse()

	cfg, err := opts.Config()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := opts.Logger(os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	flock, err := simulation.New(cfg, simulation.WithLogger(logger))
	if err != nil {
		log.Fatal(err)
	}
	flock.Spawn(cfg.NumBoids)
	logger.Infof("running %d ticks: %d boids, %d workers, border %s, behaviors %s",
		*ticks, cfg.NumBoids, cfg.Workers, cfg.Border, cfg.Behaviors)

	settings := cfg.Settings()
	start := time.Now()
	lastLog := start
	var (
		count     int
		busy      time.Duration
		rebuilds  int
		neighbors int
	)
	for range *ticks {
		st := flock.Tick(settings)
		count++
		busy += st.Duration
		neighbors += st.Neighbors
		if st.Rebuilt {
			rebuilds++
		}
		if time.Since(lastLog) >= time.Second {
			logger.Infof("📊 TICK RATE: %d/sec (avg %s) | Rebuilds: %d | Leaves: %d depth %d | Neighbors/boid: %.1f | Unindexed: %d",
				count, busy/time.Duration(count), rebuilds, st.Leaves, st.Depth,
				float64(neighbors)/float64(max(1, count*st.Boids)), st.InsertFailures)
			count, busy, rebuilds, neighbors = 0, 0, 0, 0
			lastLog = time.Now()
		}
	}

	last := flock.LastStats()
	logger.Infof("done: %d ticks in %s, %d boids, %d leaves", last.Tick, time.Since(start).Round(time.Millisecond), last.Boids, last.Leaves)
}
