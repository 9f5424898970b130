package main

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/tochemey/goakt/v3/actor"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/internal/cli"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/internal/render"
)

func main() {
	var opts cli.Options
	opts.Register(flag.CommandLine)
	flag.Parse()

	cfg, err := opts.Config()
	if err != nil {
		log.Fatal(err)
	}
	logger, err := opts.Logger(os.Stdout)
	if err != nil {
		log.Fatal(err)
	}

	ctx := context.Background()
	system, err := actor.NewActorSystem("BoidsWorld",
		actor.WithLogger(logger),
		actor.WithActorInitMaxRetries(3))
	if err != nil {
		log.Fatal(err)
	}
	if err := system.Start(ctx); err != nil {
		log.Fatal(err)
	}
	defer func() { _ = system.Stop(ctx) }()

	game, err := render.NewGame(ctx, cfg, system)
	if err != nil {
		log.Fatal(err)
	}

	ebiten.SetWindowSize(int(cfg.WorldWidth), int(cfg.WorldHeight))
	ebiten.SetWindowTitle("Boids (quadtree)")
	if err := ebiten.RunGame(game); err != nil {
		log.Fatal(err)
	}
}
