// Package cli holds the flag handling shared by the binaries.
package cli

import (
	"flag"
	"fmt"
	"io"
	"strings"

	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
)

type Options struct {
	ConfigFile string
	LogLevel   string
	Workers    int // -1 keeps the config value
	NumBoids   int // -1 keeps the config value
}

// Register binds the common flags on fs.
func (o *Options) Register(fs *flag.FlagSet) {
	fs.StringVar(&o.ConfigFile, "config", "", "JSON or TOML configuration file (defaults are used when empty)")
	fs.StringVar(&o.LogLevel, "log-level", "info", "debug, info, warn or error")
	fs.IntVar(&o.Workers, "workers", -1, "goroutines for the compute phase (overrides the config)")
	fs.IntVar(&o.NumBoids, "boids", -1, "number of boids at start (overrides the config)")
}

// Config loads the configuration file, if any, and applies flag overrides.
func (o *Options) Config() (*simulation.Config, error) {
	cfg := simulation.DefaultConfig()
	if o.ConfigFile != "" {
		var err error
		if cfg, err = simulation.LoadConfig(o.ConfigFile); err != nil {
			return nil, err
		}
	}
	if o.Workers >= 0 {
		cfg.Workers = o.Workers
	}
	if o.NumBoids >= 0 {
		cfg.NumBoids = o.NumBoids
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Logger builds the goakt logger writing to w at the requested level.
func (o *Options) Logger(w io.Writer) (golog.Logger, error) {
	level, err := ParseLevel(o.LogLevel)
	if err != nil {
		return nil, err
	}
	return golog.New(level, w), nil
}

// ParseLevel maps a level name to a goakt log level.
func ParseLevel(name string) (golog.Level, error) {
	switch strings.ToLower(name) {
	case "debug":
		return golog.DebugLevel, nil
	case "info", "":
		return golog.InfoLevel, nil
	case "warn", "warning":
		return golog.WarningLevel, nil
	case "error":
		return golog.ErrorLevel, nil
	}
	return golog.InvalidLevel, fmt.Errorf("unknown log level %q", name)
}
