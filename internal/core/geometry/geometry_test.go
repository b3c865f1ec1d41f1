package geometry

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAABB_ContainsAndIntersects(t *testing.T) {
	b := AABB{Min: V3(-1, -1, -1), Max: V3(1, 1, 1)}

	require.True(t, b.Contains(V3(0, 0, 0)))
	require.True(t, b.Contains(V3(1, 1, 1)), "boundary points are inside")
	require.False(t, b.Contains(V3(1.001, 0, 0)))

	other := BoxFromCenterRadius(V3(1.5, 0, 0), 1)
	require.True(t, b.Intersects(other))
	require.True(t, other.Intersects(b))

	far := BoxFromCenterRadius(V3(10, 0, 0), 1)
	require.False(t, b.Intersects(far))

	inner := BoxFromCenterRadius(V3(0, 0, 0), 0.5)
	require.True(t, b.ContainsBox(inner))
	require.False(t, inner.ContainsBox(b))
}

func TestAABB_IntersectsSphere(t *testing.T) {
	b := AABB{Min: V3(0, 0, 0), Max: V3(2, 2, 2)}

	require.True(t, b.IntersectsSphere(V3(1, 1, 1), 0.1), "center inside")
	require.True(t, b.IntersectsSphere(V3(3, 1, 1), 1.0), "touches face")
	require.False(t, b.IntersectsSphere(V3(3, 1, 1), 0.5))
	// Corner case: the closest point is the box corner.
	require.True(t, b.IntersectsSphere(V3(3, 3, 3), 1.8))
	require.False(t, b.IntersectsSphere(V3(3, 3, 3), 1.7))
}

func TestAABB_ClampInto(t *testing.T) {
	world := AABB{Min: V3(-10, -10, -10), Max: V3(10, 10, 10)}

	out := BoxFromCenterRadius(V3(15, 0, 0), 1).ClampInto(world)
	require.True(t, world.ContainsBox(out))

	// Larger than the world on one axis: centered, not rejected.
	tall := AABB{Min: V3(0, -50, 0), Max: V3(1, 50, 1)}
	clamped := tall.ClampInto(world)
	assert.InDelta(t, 0, float64(clamped.Center().Y), 1e-5)
}

func TestVec3_Ops(t *testing.T) {
	a := V3(1, 2, 3)
	b := V3(4, 5, 6)

	assert.Equal(t, V3(5, 7, 9), a.Add(b))
	assert.Equal(t, V3(3, 3, 3), b.Sub(a))
	assert.InDelta(t, 32, float64(a.Dot(b)), 1e-6)
	assert.Equal(t, V3(-3, 6, -3), a.Cross(b))

	n := V3(0, 0, 5).Normalize()
	assert.InDelta(t, 1, float64(n.Length()), 1e-6)
	assert.Equal(t, Vec3{}, Vec3{}.Normalize())
}

func TestRay_IntersectBox(t *testing.T) {
	b := AABB{Min: V3(-1, -1, -1), Max: V3(1, 1, 1)}

	t.Run("head-on hit", func(t *testing.T) {
		d, ok := NewRay(V3(-5, 0, 0), V3(1, 0, 0)).IntersectBox(b, 100)
		require.True(t, ok)
		assert.InDelta(t, 4, float64(d), 1e-5)
	})

	t.Run("miss to the side", func(t *testing.T) {
		_, ok := NewRay(V3(-5, 3, 0), V3(1, 0, 0)).IntersectBox(b, 100)
		require.False(t, ok)
	})

	t.Run("behind origin", func(t *testing.T) {
		_, ok := NewRay(V3(5, 0, 0), V3(1, 0, 0)).IntersectBox(b, 100)
		require.False(t, ok)
	})

	t.Run("beyond max distance", func(t *testing.T) {
		_, ok := NewRay(V3(-5, 0, 0), V3(1, 0, 0)).IntersectBox(b, 3)
		require.False(t, ok)
	})

	t.Run("origin inside", func(t *testing.T) {
		d, ok := NewRay(V3(0, 0, 0), V3(1, 0, 0)).IntersectBox(b, 100)
		require.True(t, ok)
		assert.Zero(t, d)
	})
}

func TestRay_IntersectSphere(t *testing.T) {
	s := Sphere{Center: V3(0, 0, 0), Radius: 2}

	d, ok := NewRay(V3(-10, 0, 0), V3(1, 0, 0)).IntersectSphere(s, 100)
	require.True(t, ok)
	assert.InDelta(t, 8, float64(d), 1e-4)

	_, ok = NewRay(V3(-10, 5, 0), V3(1, 0, 0)).IntersectSphere(s, 100)
	require.False(t, ok)

	// Grazing shots within the radius still count.
	_, ok = NewRay(V3(-10, 1.99, 0), V3(1, 0, 0)).IntersectSphere(s, 100)
	require.True(t, ok)

	// Origin inside hits the exit point.
	d, ok = NewRay(V3(0, 0, 0), V3(0, 1, 0)).IntersectSphere(s, 100)
	require.True(t, ok)
	assert.InDelta(t, 2, float64(d), 1e-4)
}
