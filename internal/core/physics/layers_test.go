package physics

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLayerMatrix_DefaultAllCollide(t *testing.T) {
	m := NewLayerMatrix()
	for a := uint8(0); a < MaxLayers; a++ {
		for b := uint8(0); b < MaxLayers; b++ {
			require.True(t, m.GetCollision(a, b), "layers %d/%d", a, b)
		}
	}
}

func TestLayerMatrix_SetCollisionSymmetry(t *testing.T) {
	m := NewLayerMatrix()

	m.SetCollision(3, 7, false)
	assert.False(t, m.GetCollision(3, 7))
	assert.False(t, m.GetCollision(7, 3))

	m.SetCollision(7, 3, true)
	assert.True(t, m.GetCollision(3, 7))
	assert.True(t, m.GetCollision(7, 3))
}

func TestLayerMatrix_Configure(t *testing.T) {
	m := NewLayerMatrix()
	err := m.Configure([]LayerConfig{
		{Name: "terrain", Bit: 0, CollidesWith: ^uint32(0), Priority: 10},
		{Name: "creatures", Bit: 1, CollidesWith: ^uint32(0), Priority: 5},
		{Name: "ghosts", Bit: 2, CollidesWith: 1 << 0, Priority: 1},
	})
	require.NoError(t, err)

	t.Run("name lookups", func(t *testing.T) {
		bit, ok := m.Bit("ghosts")
		require.True(t, ok)
		assert.Equal(t, uint8(2), bit)
		assert.Equal(t, "creatures", m.Name(1))
		_, ok = m.Bit("missing")
		assert.False(t, ok)
	})

	t.Run("priorities", func(t *testing.T) {
		assert.Equal(t, 10, m.Priority(0))
		assert.Equal(t, 1, m.Priority(2))
	})

	t.Run("opt-out wins over partner default", func(t *testing.T) {
		// Ghosts only listed terrain, so the creature row's all-ones
		// default cannot re-enable the ghost/creature pair.
		assert.True(t, m.GetCollision(2, 0))
		assert.False(t, m.GetCollision(2, 1))
		assert.False(t, m.GetCollision(1, 2))
	})

	t.Run("unconfigured layers keep default", func(t *testing.T) {
		assert.True(t, m.GetCollision(5, 6))
	})
}

func TestLayerMatrix_ConfigureRejectsBadInput(t *testing.T) {
	m := NewLayerMatrix()

	err := m.Configure([]LayerConfig{{Name: "x", Bit: 32}})
	require.Error(t, err)

	err = m.Configure([]LayerConfig{
		{Name: "a", Bit: 1},
		{Name: "b", Bit: 1},
	})
	require.Error(t, err)

	err = m.Configure([]LayerConfig{
		{Name: "a", Bit: 1},
		{Name: "a", Bit: 2},
	})
	require.Error(t, err)
}

func TestLayerMatrix_ConcurrentReadsDuringWrites(t *testing.T) {
	m := NewLayerMatrix()
	var wg sync.WaitGroup
	stop := make(chan struct{})

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-stop:
				return
			default:
				m.SetCollision(1, 2, false)
				m.SetCollision(1, 2, true)
			}
		}
	}()

	// Keeps the race detector honest about the snapshot swap.
	for i := 0; i < 10000; i++ {
		_ = m.GetCollision(1, 2)
		_ = m.GetCollision(2, 1)
	}
	close(stop)
	wg.Wait()
}
