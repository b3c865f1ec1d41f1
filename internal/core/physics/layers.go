package physics

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// MaxLayers bounds the collision layer space to one bit per uint32.
const MaxLayers = 32

// LayerConfig describes one collision layer for LayerMatrix.Configure.
type LayerConfig struct {
	Name         string `yaml:"name" json:"name"`
	Bit          uint8  `yaml:"bit" json:"bit"`
	CollidesWith uint32 `yaml:"collides_with" json:"collides_with"`
	Priority     int    `yaml:"priority" json:"priority"`
}

// layerTable is an immutable matrix snapshot. Readers load it through
// an atomic pointer, so lookups never block a concurrent Configure.
type layerTable struct {
	rows     [MaxLayers]uint32
	priority [MaxLayers]int
	names    map[string]uint8
	byBit    [MaxLayers]string
}

// LayerMatrix maps named collision layers to a symmetric 32x32 enable
// table with per-layer priorities. The zero value is unusable; call
// NewLayerMatrix, which starts with every pair colliding.
type LayerMatrix struct {
	table atomic.Pointer[layerTable]
	mu    sync.Mutex // serializes writers only
}

func NewLayerMatrix() *LayerMatrix {
	m := &LayerMatrix{}
	t := &layerTable{names: map[string]uint8{}}
	for i := range t.rows {
		t.rows[i] = ^uint32(0)
	}
	m.table.Store(t)
	return m
}

// Configure replaces the whole matrix in one atomic swap. Layers absent
// from the list keep the all-collide default row. Symmetry is enforced
// by mirroring every mask bit onto the partner row.
func (m *LayerMatrix) Configure(layers []LayerConfig) error {
	t := &layerTable{names: make(map[string]uint8, len(layers))}
	for i := range t.rows {
		t.rows[i] = ^uint32(0)
	}

	seen := [MaxLayers]bool{}
	for _, lc := range layers {
		if lc.Bit >= MaxLayers {
			return fmt.Errorf("layer %q: bit %d out of range", lc.Name, lc.Bit)
		}
		if seen[lc.Bit] {
			return fmt.Errorf("layer %q: bit %d already assigned", lc.Name, lc.Bit)
		}
		if _, dup := t.names[lc.Name]; dup {
			return fmt.Errorf("layer %q: duplicate name", lc.Name)
		}
		seen[lc.Bit] = true
		t.names[lc.Name] = lc.Bit
		t.byBit[lc.Bit] = lc.Name
		t.rows[lc.Bit] = lc.CollidesWith
		t.priority[lc.Bit] = lc.Priority
	}

	// A pair collides only when both rows agree, so a layer that opts
	// out of a pairing is not overridden by the partner's default row.
	for a := 0; a < MaxLayers; a++ {
		for b := a; b < MaxLayers; b++ {
			on := t.rows[a]&(1<<b) != 0 && t.rows[b]&(1<<a) != 0
			if on {
				t.rows[a] |= 1 << b
				t.rows[b] |= 1 << a
			} else {
				t.rows[a] &^= 1 << b
				t.rows[b] &^= 1 << a
			}
		}
	}

	m.mu.Lock()
	m.table.Store(t)
	m.mu.Unlock()
	return nil
}

// SetCollision enables or disables collisions between two layers. The
// write is symmetric and lands as one snapshot swap.
func (m *LayerMatrix) SetCollision(a, b uint8, enabled bool) {
	if a >= MaxLayers || b >= MaxLayers {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	next := *m.table.Load()
	if enabled {
		next.rows[a] |= 1 << b
		next.rows[b] |= 1 << a
	} else {
		next.rows[a] &^= 1 << b
		next.rows[b] &^= 1 << a
	}
	m.table.Store(&next)
}

// GetCollision reports whether two layers collide.
func (m *LayerMatrix) GetCollision(a, b uint8) bool {
	if a >= MaxLayers || b >= MaxLayers {
		return false
	}
	return m.table.Load().rows[a]&(1<<b) != 0
}

// Mask returns the collides-with row of a layer.
func (m *LayerMatrix) Mask(layer uint8) uint32 {
	if layer >= MaxLayers {
		return 0
	}
	return m.table.Load().rows[layer]
}

// Priority returns the resolution priority assigned to a layer.
func (m *LayerMatrix) Priority(layer uint8) int {
	if layer >= MaxLayers {
		return 0
	}
	return m.table.Load().priority[layer]
}

// Bit resolves a layer name to its bit index.
func (m *LayerMatrix) Bit(name string) (uint8, bool) {
	bit, ok := m.table.Load().names[name]
	return bit, ok
}

// Name resolves a bit index to its layer name, empty if unnamed.
func (m *LayerMatrix) Name(bit uint8) string {
	if bit >= MaxLayers {
		return ""
	}
	return m.table.Load().byBit[bit]
}
