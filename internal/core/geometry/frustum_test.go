package geometry

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

// testFrustum builds a frustum at the origin looking down -Z with a 90
// degree vertical field of view.
func testFrustum() Frustum {
	proj := Perspective(float32(math.Pi/2), 1, 0.1, 100)
	view := LookAt(V3(0, 0, 0), V3(0, 0, -1), V3(0, 1, 0))
	return FrustumFromMatrix(proj.Mul(view))
}

func TestFrustum_ContainsPoint(t *testing.T) {
	f := testFrustum()

	require.True(t, f.ContainsPoint(V3(0, 0, -10)))
	require.True(t, f.ContainsPoint(V3(5, 5, -10)), "inside the 90 degree cone")
	require.False(t, f.ContainsPoint(V3(0, 0, 10)), "behind the camera")
	require.False(t, f.ContainsPoint(V3(0, 0, -200)), "beyond the far plane")
	require.False(t, f.ContainsPoint(V3(50, 0, -10)), "outside the side plane")
}

func TestFrustum_BoxTests(t *testing.T) {
	f := testFrustum()

	inside := BoxFromCenterRadius(V3(0, 0, -20), 1)
	require.True(t, f.IntersectsBox(inside))
	require.True(t, f.ContainsBox(inside))

	straddling := BoxFromCenterRadius(V3(10, 0, -10.5), 1.5)
	require.True(t, f.IntersectsBox(straddling))
	require.False(t, f.ContainsBox(straddling))

	outside := BoxFromCenterRadius(V3(0, 0, 20), 1)
	require.False(t, f.IntersectsBox(outside))
	require.False(t, f.ContainsBox(outside))
}

func TestFrustum_NoFalseNegatives(t *testing.T) {
	f := testFrustum()

	// Sweep boxes through the volume; any box whose center is inside
	// must be reported by the conservative intersection test.
	for z := float32(-90); z < 0; z += 7 {
		for x := float32(-20); x <= 20; x += 4 {
			center := V3(x, 0, z)
			if !f.ContainsPoint(center) {
				continue
			}
			b := BoxFromCenterRadius(center, 0.5)
			require.True(t, f.IntersectsBox(b), "box at %v culled while visible", center)
		}
	}
}

func TestFrustum_ContainsSphere(t *testing.T) {
	f := testFrustum()

	require.True(t, f.ContainsSphere(V3(0, 0, -10), 1))
	// Center outside but the sphere pokes through the near plane.
	require.True(t, f.ContainsSphere(V3(0, 0, 1), 2))
	require.False(t, f.ContainsSphere(V3(0, 0, 5), 2))
}
