package simulation

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/behavior"
	"github.com/lao-tseu-is-alive/go-boids-quadtree/pkg/geometry"
)

// ErrInvalidConfig wraps every configuration validation failure.
var ErrInvalidConfig = errors.New("invalid configuration")

//go:embed config.schema.json
var configSchema string

type Config struct {
	// World Dimensions
	WorldWidth  float64 `json:"worldWidth"`
	WorldHeight float64 `json:"worldHeight"`

	// Population
	NumBoids     int     `json:"numBoids"`
	InitialSpeed float64 `json:"initialSpeed"`

	// Physics
	MaxSpeed float64 `json:"maxSpeed"`
	MaxForce float64 `json:"maxForce"` // scales the composed acceleration

	// Behaviors
	AlignWeight    float64 `json:"alignWeight"`
	CohesionWeight float64 `json:"cohesionWeight"`
	SeparateWeight float64 `json:"separateWeight"`
	BoundFactor    float64 `json:"boundFactor"`
	BoundMargin    float64 `json:"boundMargin"`
	ViewDistance   float64 `json:"viewDistance"` // side of the square neighbour window
	MinSeparation  float64 `json:"minSeparation"`

	// Spatial index
	LeafCapacity int `json:"leafCapacity"`
	MaxDepth     int `json:"maxDepth"`
	RebuildEvery int `json:"rebuildEvery"`

	// Runtime settings at start
	Border       BorderPolicy  `json:"border"`
	BorderMargin float64       `json:"borderMargin"`
	Behaviors    behavior.Mask `json:"behaviors"`

	Workers int    `json:"workers"` // 0 or 1: sequential compute phase
	Seed    uint64 `json:"seed"`
}

func DefaultConfig() *Config {
	return &Config{
		WorldWidth:     800,
		WorldHeight:    600,
		NumBoids:       300,
		InitialSpeed:   2,
		MaxSpeed:       4,
		MaxForce:       1,
		AlignWeight:    0.1,
		CohesionWeight: 0.05,
		SeparateWeight: 0.15,
		BoundFactor:    0.5,
		BoundMargin:    100,
		ViewDistance:   60,
		MinSeparation:  0.01,
		LeafCapacity:   10,
		MaxDepth:       8,
		RebuildEvery:   3,
		Border:         Reflect,
		BorderMargin:   10,
		Behaviors:      behavior.AllBehaviors,
		Workers:        0,
		Seed:           1,
	}
}

// Bounds is the world region, anchored at the origin.
func (c *Config) Bounds() geometry.Region {
	return geometry.NewRegion(geometry.Zero, geometry.NewVector(c.WorldWidth, c.WorldHeight))
}

// Settings returns the runtime settings the simulation starts with.
func (c *Config) Settings() Settings {
	return Settings{Border: c.Border, Behaviors: c.Behaviors}
}

// Params returns the behavior constants derived from the config.
func (c *Config) Params() behavior.Params {
	return behavior.Params{
		MaxSpeed:       c.MaxSpeed,
		AlignWeight:    c.AlignWeight,
		CohesionWeight: c.CohesionWeight,
		SeparateWeight: c.SeparateWeight,
		BoundFactor:    c.BoundFactor,
		SafeArea:       c.Bounds().Inset(c.BoundMargin),
		MinSeparation:  c.MinSeparation,
	}
}

// Validate checks the cross-field rules the schema cannot express.
// All failures are reported together, each wrapping ErrInvalidConfig.
func (c *Config) Validate() error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if c.WorldWidth <= 0 || c.WorldHeight <= 0 {
		fail("world must be positive, got %vx%v", c.WorldWidth, c.WorldHeight)
	}
	if c.NumBoids < 0 {
		fail("numBoids must not be negative, got %d", c.NumBoids)
	}
	if c.MaxSpeed <= 0 {
		fail("maxSpeed must be positive, got %v", c.MaxSpeed)
	}
	if c.InitialSpeed > c.MaxSpeed {
		fail("initialSpeed %v exceeds maxSpeed %v", c.InitialSpeed, c.MaxSpeed)
	}
	if c.ViewDistance <= 0 {
		fail("viewDistance must be positive, got %v", c.ViewDistance)
	}
	if c.LeafCapacity < 1 {
		fail("leafCapacity must be at least 1, got %d", c.LeafCapacity)
	}
	if c.MaxDepth < 0 {
		fail("maxDepth must not be negative, got %d", c.MaxDepth)
	}
	if c.RebuildEvery < 1 {
		fail("rebuildEvery must be at least 1, got %d", c.RebuildEvery)
	}
	if c.Workers < 0 {
		fail("workers must not be negative, got %d", c.Workers)
	}
	if c.BorderMargin < 0 || 2*c.BorderMargin >= min(c.WorldWidth, c.WorldHeight) {
		fail("borderMargin %v leaves no room inside a %vx%v world", c.BorderMargin, c.WorldWidth, c.WorldHeight)
	}
	if c.BoundMargin < 0 || 2*c.BoundMargin >= min(c.WorldWidth, c.WorldHeight) {
		fail("boundMargin %v leaves no safe area inside a %vx%v world", c.BoundMargin, c.WorldWidth, c.WorldHeight)
	}
	if c.Border > GoThrough {
		fail("%v", c.Border)
	}
	return errors.Join(errs...)
}

// LoadConfig reads a JSON or TOML file (chosen by extension), validates it
// against the embedded schema and overlays it on DefaultConfig.
func LoadConfig(configFile string) (*Config, error) {
	// 1. Compile Schema
	sch, err := jsonschema.CompileString("config.schema.json", configSchema)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	// 2. Read Config File, as JSON bytes whatever the source format
	raw, err := readAsJSON(configFile)
	if err != nil {
		return nil, err
	}

	// 3. Validate
	var v interface{}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("failed to decode config json: %w", err)
	}
	if err := sch.Validate(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}

	// 4. Unmarshal into Struct, on top of the defaults
	cfg := DefaultConfig()
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func readAsJSON(configFile string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(configFile)) {
	case ".toml":
		var doc map[string]any
		if _, err := toml.DecodeFile(configFile, &doc); err != nil {
			return nil, fmt.Errorf("failed to decode config toml: %w", err)
		}
		b, err := json.Marshal(doc)
		if err != nil {
			return nil, fmt.Errorf("failed to convert config toml: %w", err)
		}
		return b, nil
	default:
		b, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to open config file: %w", err)
		}
		return b, nil
	}
}
