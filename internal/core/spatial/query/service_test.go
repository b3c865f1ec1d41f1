package query

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
	"github.com/wildersim/wilder/internal/core/observability/log"
	"github.com/wildersim/wilder/internal/core/spatial"
)

const allLayers = ^uint32(0)

func testService(t *testing.T) (*Service, *spatial.Index) {
	t.Helper()
	idx := spatial.NewIndex(spatial.Options{
		WorldBounds: geometry.AABB{
			Min: geometry.V3(-100, -100, -100),
			Max: geometry.V3(100, 100, 100),
		},
	}, log.NewNop())
	svc := NewService(idx, 0, log.NewNop())
	svc.BeginTick(1, time.Unix(0, 0))
	return svc, idx
}

func TestService_RadiusCache(t *testing.T) {
	svc, idx := testService(t)
	require.NoError(t, idx.Insert(1, geometry.BoxFromCenterRadius(geometry.V3(0, 0, 0), 1), allLayers, spatial.Dynamic))

	first, err := svc.Radius(geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	require.Equal(t, []models.EntityID{1}, first)

	// Index changes are invisible to repeats of the same query until
	// the next tick.
	require.NoError(t, idx.Insert(2, geometry.BoxFromCenterRadius(geometry.V3(1, 0, 0), 1), allLayers, spatial.Dynamic))
	second, err := svc.Radius(geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	hits, misses := svc.Stats()
	assert.Equal(t, uint64(1), hits)
	assert.Equal(t, uint64(1), misses)

	svc.BeginTick(2, time.Unix(1, 0))
	third, err := svc.Radius(geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Len(t, third, 2)
}

func TestService_CacheKeyDiscriminates(t *testing.T) {
	svc, idx := testService(t)
	require.NoError(t, idx.Insert(1, geometry.BoxFromCenterRadius(geometry.V3(3, 0, 0), 1), 0b01, spatial.Dynamic))
	require.NoError(t, idx.Insert(2, geometry.BoxFromCenterRadius(geometry.V3(0, 2, 0), 1), 0b10, spatial.Dynamic))

	a, err := svc.Radius(geometry.V3(0, 0, 0), 5, 0b01)
	require.NoError(t, err)
	b, err := svc.Radius(geometry.V3(0, 0, 0), 5, 0b10)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{1}, a)
	assert.Equal(t, []models.EntityID{2}, b)

	// Same center and mask, different radius: a fresh key, and a
	// radius too short to reach the entity at (3,0,0).
	c, err := svc.Radius(geometry.V3(0, 0, 0), 0.1, 0b01)
	require.NoError(t, err)
	assert.Empty(t, c)

	hits, misses := svc.Stats()
	assert.Equal(t, uint64(0), hits)
	assert.Equal(t, uint64(3), misses)
}

func TestService_CachedResultIsACopy(t *testing.T) {
	svc, idx := testService(t)
	require.NoError(t, idx.Insert(1, geometry.BoxFromCenterRadius(geometry.V3(0, 0, 0), 1), allLayers, spatial.Dynamic))
	require.NoError(t, idx.Insert(2, geometry.BoxFromCenterRadius(geometry.V3(1, 0, 0), 1), allLayers, spatial.Dynamic))

	first, err := svc.Radius(geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	first[0] = 999

	second, err := svc.Radius(geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.NotContains(t, second, models.EntityID(999))
}

func TestService_InvalidRadius(t *testing.T) {
	svc, _ := testService(t)
	_, err := svc.Radius(geometry.V3(0, 0, 0), -1, allLayers)
	require.ErrorIs(t, err, spatial.ErrInvalidQuery)
}

func TestService_RegionAndFrustum(t *testing.T) {
	svc, idx := testService(t)
	require.NoError(t, idx.Insert(1, geometry.BoxFromCenterRadius(geometry.V3(0, 0, -10), 1), allLayers, spatial.Static))

	region := geometry.AABB{Min: geometry.V3(-5, -5, -15), Max: geometry.V3(5, 5, -5)}
	assert.Equal(t, []models.EntityID{1}, svc.Region(region, allLayers))
	assert.Equal(t, []models.EntityID{1}, svc.Region(region, allLayers))

	proj := geometry.Perspective(1.2, 1, 0.1, 100)
	view := geometry.LookAt(geometry.V3(0, 0, 0), geometry.V3(0, 0, -1), geometry.V3(0, 1, 0))
	f := geometry.FrustumFromMatrix(proj.Mul(view))
	assert.Equal(t, []models.EntityID{1}, svc.Frustum(f, allLayers))

	hits, _ := svc.Stats()
	assert.Equal(t, uint64(1), hits)
}

func TestService_DetectionThrottle(t *testing.T) {
	svc, idx := testService(t)
	require.NoError(t, idx.Insert(1, geometry.BoxFromCenterRadius(geometry.V3(0, 0, 0), 1), allLayers, spatial.Dynamic))
	require.NoError(t, idx.Insert(2, geometry.BoxFromCenterRadius(geometry.V3(2, 0, 0), 1), allLayers, spatial.Dynamic))

	seen, err := svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{2}, seen, "scanner excludes itself")

	// Entity 2 leaves, but the next scan lands inside the throttle
	// window and keeps reporting it.
	require.NoError(t, idx.Update(2, geometry.BoxFromCenterRadius(geometry.V3(50, 0, 0), 1)))
	svc.BeginTick(2, time.Unix(0, int64(100*time.Millisecond)))
	seen, err = svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{2}, seen)

	// Past the interval the scan reruns and notices the departure.
	svc.BeginTick(3, time.Unix(0, int64(250*time.Millisecond)))
	seen, err = svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Empty(t, seen)
}

func TestService_DetectionResultIsACopy(t *testing.T) {
	svc, idx := testService(t)
	require.NoError(t, idx.Insert(1, geometry.BoxFromCenterRadius(geometry.V3(0, 0, 0), 1), allLayers, spatial.Dynamic))
	require.NoError(t, idx.Insert(2, geometry.BoxFromCenterRadius(geometry.V3(2, 0, 0), 1), allLayers, spatial.Dynamic))

	seen, err := svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	seen[0] = 999

	// A throttled hit must not see the caller's mutation.
	svc.BeginTick(2, time.Unix(0, int64(50*time.Millisecond)))
	seen, err = svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{2}, seen)

	seen[0] = 999
	svc.BeginTick(3, time.Unix(0, int64(100*time.Millisecond)))
	seen, err = svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{2}, seen)
}

func TestService_ForgetDetection(t *testing.T) {
	svc, idx := testService(t)
	require.NoError(t, idx.Insert(1, geometry.BoxFromCenterRadius(geometry.V3(0, 0, 0), 1), allLayers, spatial.Dynamic))

	_, err := svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	svc.ForgetDetection(1)

	// A fresh scan runs immediately after the state is dropped.
	require.NoError(t, idx.Insert(2, geometry.BoxFromCenterRadius(geometry.V3(1, 0, 0), 1), allLayers, spatial.Dynamic))
	svc.BeginTick(2, time.Unix(0, int64(time.Millisecond)))
	seen, err := svc.Detection(1, geometry.V3(0, 0, 0), 5, allLayers)
	require.NoError(t, err)
	assert.Equal(t, []models.EntityID{2}, seen)
}

func BenchmarkService_RadiusCached(b *testing.B) {
	idx := spatial.NewIndex(spatial.Options{
		WorldBounds: geometry.AABB{
			Min: geometry.V3(-100, -100, -100),
			Max: geometry.V3(100, 100, 100),
		},
	}, log.NewNop())
	for i := 1; i <= 500; i++ {
		pos := geometry.V3(float32(i%100)-50, float32(i%50)-25, float32(i%20)-10)
		_ = idx.Insert(models.EntityID(i), geometry.BoxFromCenterRadius(pos, 1), allLayers, spatial.Dynamic)
	}
	svc := NewService(idx, 0, log.NewNop())
	svc.BeginTick(1, time.Unix(0, 0))

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = svc.Radius(geometry.V3(0, 0, 0), 20, allLayers)
	}
}
