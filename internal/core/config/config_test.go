package config

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildersim/wilder/internal/core/physics"
)

func TestDefault(t *testing.T) {
	c := Default()
	require.NoError(t, c.Validate())
	assert.Equal(t, 200*time.Millisecond, c.Queries.DetectionInterval)
	assert.Equal(t, float32(-9.81), c.Physics.Gravity[1])
}

func TestLoadYAML(t *testing.T) {
	doc := `
world:
  bounds_min: [-100, -10, -100]
  bounds_max: [100, 50, 100]
octree:
  split_threshold: 12
physics:
  threads: 4
  max_bodies: 256
layers:
  - name: terrain
    bit: 0
    collides_with: 0xffffffff
    priority: 10
  - name: ghosts
    bit: 2
    collides_with: 1
log_level: debug
`
	c, err := LoadYAML(strings.NewReader(doc))
	require.NoError(t, err)

	assert.Equal(t, float32(-100), c.World.BoundsMin[0])
	assert.Equal(t, 12, c.Octree.SplitThreshold)
	assert.Equal(t, 8, c.Octree.MaxDepth, "unset fields keep defaults")
	assert.Equal(t, 4, c.Physics.Threads)
	require.Len(t, c.Layers, 2)
	assert.Equal(t, "ghosts", c.Layers[1].Name)
	assert.Equal(t, uint32(1), c.Layers[1].CollidesWith)
}

func TestLoadJSON(t *testing.T) {
	doc := `{
  "world": {"bounds_min": [-1, -1, -1], "bounds_max": [1, 1, 1]},
  "physics": {"gravity": [0, -20, 0]}
}`
	c, err := LoadJSON(strings.NewReader(doc))
	require.NoError(t, err)
	assert.Equal(t, float32(-20), c.Physics.Gravity[1])
}

func TestValidateRejects(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"inverted bounds", func(c *Config) { c.World.BoundsMin[0] = 10; c.World.BoundsMax[0] = -10 }},
		{"flat axis", func(c *Config) { c.World.BoundsMin[1] = 5; c.World.BoundsMax[1] = 5 }},
		{"negative threshold", func(c *Config) { c.Octree.SplitThreshold = -1 }},
		{"negative interval", func(c *Config) { c.Queries.DetectionInterval = -time.Second }},
		{"huge fixed dt", func(c *Config) { c.Physics.FixedDt = 2 }},
		{"layer bit range", func(c *Config) {
			c.Layers = append(c.Layers, physics.LayerConfig{Name: "x", Bit: 40})
		}},
		{"nameless layer", func(c *Config) {
			c.Layers = append(c.Layers, physics.LayerConfig{Bit: 3})
		}},
		{"bad log level", func(c *Config) { c.LogLevel = "chatty" }},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := Default()
			tc.mutate(c)
			require.Error(t, c.Validate())
		})
	}
}

func TestLoadYAMLDecodeError(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("world: ["))
	require.Error(t, err)
}
