package config

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wildersim/wilder/internal/core/physics"
)

// Config is the startup configuration of the simulation core,
// decodable from JSON or YAML.
type Config struct {
	World   WorldConfig   `json:"world" yaml:"world"`
	Octree  OctreeConfig  `json:"octree" yaml:"octree"`
	Queries QueryConfig   `json:"queries" yaml:"queries"`
	Physics PhysicsConfig `json:"physics" yaml:"physics"`

	Layers []physics.LayerConfig `json:"layers,omitempty" yaml:"layers,omitempty"`

	LogLevel string `json:"log_level" yaml:"log_level"`
}

type WorldConfig struct {
	BoundsMin [3]float32 `json:"bounds_min" yaml:"bounds_min"`
	BoundsMax [3]float32 `json:"bounds_max" yaml:"bounds_max"`
}

type OctreeConfig struct {
	SplitThreshold int `json:"split_threshold" yaml:"split_threshold"`
	MaxDepth       int `json:"max_depth" yaml:"max_depth"`
}

type QueryConfig struct {
	DetectionInterval time.Duration `json:"detection_interval" yaml:"detection_interval"`
}

type PhysicsConfig struct {
	Gravity     [3]float32 `json:"gravity" yaml:"gravity"`
	FixedDt     float32    `json:"fixed_dt" yaml:"fixed_dt"`
	Threads     int        `json:"threads" yaml:"threads"`
	MaxBodies   int        `json:"max_bodies" yaml:"max_bodies"`
	CellSize    float32    `json:"cell_size" yaml:"cell_size"`
	PoseEpsilon float32    `json:"pose_epsilon" yaml:"pose_epsilon"`
}

// Default returns a configuration good for a mid-size world. Zeroed
// physics fields defer to the bridge's own defaults.
func Default() *Config {
	return &Config{
		World: WorldConfig{
			BoundsMin: [3]float32{-500, -100, -500},
			BoundsMax: [3]float32{500, 200, 500},
		},
		Octree: OctreeConfig{
			SplitThreshold: 8,
			MaxDepth:       8,
		},
		Queries: QueryConfig{
			DetectionInterval: 200 * time.Millisecond,
		},
		Physics: PhysicsConfig{
			Gravity: [3]float32{0, -9.81, 0},
		},
		LogLevel: "info",
	}
}

// LoadJSON decodes a configuration from a JSON reader.
func LoadJSON(r io.Reader) (*Config, error) {
	c := Default()
	dec := json.NewDecoder(r)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadYAML decodes a configuration from a YAML reader.
func LoadYAML(r io.Reader) (*Config, error) {
	c := Default()
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(c); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate rejects configurations the core cannot run with.
func (c *Config) Validate() error {
	for i := 0; i < 3; i++ {
		if c.World.BoundsMin[i] >= c.World.BoundsMax[i] {
			return fmt.Errorf("world bounds: min %v must be below max %v on every axis",
				c.World.BoundsMin, c.World.BoundsMax)
		}
	}
	if c.Octree.SplitThreshold < 0 {
		return fmt.Errorf("octree split threshold %d must not be negative", c.Octree.SplitThreshold)
	}
	if c.Octree.MaxDepth < 0 {
		return fmt.Errorf("octree max depth %d must not be negative", c.Octree.MaxDepth)
	}
	if c.Queries.DetectionInterval < 0 {
		return fmt.Errorf("detection interval %s must not be negative", c.Queries.DetectionInterval)
	}
	if c.Physics.FixedDt < 0 || c.Physics.FixedDt > 1 {
		return fmt.Errorf("physics fixed dt %f must be within [0, 1]", c.Physics.FixedDt)
	}
	if c.Physics.Threads < 0 {
		return fmt.Errorf("physics threads %d must not be negative", c.Physics.Threads)
	}
	if c.Physics.MaxBodies < 0 {
		return fmt.Errorf("physics max bodies %d must not be negative", c.Physics.MaxBodies)
	}
	for _, l := range c.Layers {
		if l.Bit >= physics.MaxLayers {
			return fmt.Errorf("layer %q: bit %d out of range", l.Name, l.Bit)
		}
		if l.Name == "" {
			return fmt.Errorf("layer bit %d: name must not be empty", l.Bit)
		}
	}
	switch c.LogLevel {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log level %q not recognized", c.LogLevel)
	}
	return nil
}
