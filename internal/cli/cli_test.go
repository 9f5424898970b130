package cli

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"

	golog "github.com/tochemey/goakt/v3/log"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/simulation"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in      string
		want    golog.Level
		wantErr bool
	}{
		{"debug", golog.DebugLevel, false},
		{"INFO", golog.InfoLevel, false},
		{"", golog.InfoLevel, false},
		{"warn", golog.WarningLevel, false},
		{"error", golog.ErrorLevel, false},
		{"loud", golog.InvalidLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseLevel(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseLevel(%q) error = %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseLevel(%q) = %v; want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestOptions_Config(t *testing.T) {
	path := filepath.Join(t.TempDir(), "flock.toml")
	if err := os.WriteFile(path, []byte("numBoids = 42\nworkers = 3\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	var o Options
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	o.Register(fs)
	if err := fs.Parse([]string{"-config", path, "-workers", "8"}); err != nil {
		t.Fatal(err)
	}
	cfg, err := o.Config()
	if err != nil {
		t.Fatalf("Config() error: %v", err)
	}
	if cfg.NumBoids != 42 {
		t.Errorf("NumBoids = %d; want 42 from the file", cfg.NumBoids)
	}
	if cfg.Workers != 8 {
		t.Errorf("Workers = %d; want 8 from the flag", cfg.Workers)
	}
}

func TestOptions_ConfigRejectsBadOverride(t *testing.T) {
	o := Options{Workers: -1, NumBoids: -1}
	if _, err := o.Config(); err != nil {
		t.Fatalf("defaults rejected: %v", err)
	}
	o.ConfigFile = filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(o.ConfigFile, []byte(`{"rebuildEvery": 0}`), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := o.Config(); !errors.Is(err, simulation.ErrInvalidConfig) {
		t.Errorf("Config() error = %v; want ErrInvalidConfig", err)
	}
}
