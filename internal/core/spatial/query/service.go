package query

import (
	"encoding/binary"
	"math"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
	"github.com/wildersim/wilder/internal/core/observability/log"
	"github.com/wildersim/wilder/internal/core/spatial"
	"github.com/wildersim/wilder/pkg/generic"
)

// DefaultDetectionInterval throttles per-entity perception scans.
// Creatures re-evaluate their surroundings at most five times a second.
const DefaultDetectionInterval = 200 * time.Millisecond

type queryKind byte

const (
	kindRadius queryKind = iota + 1
	kindRegion
	kindFrustum
	kindNearest
)

// Service wraps the spatial index with a one-tick result cache and a
// per-entity detection throttle. Like the index it is single-threaded
// by contract.
type Service struct {
	index *spatial.Index

	cache map[uint64][]models.EntityID
	pool  *generic.Pool[[]models.EntityID]

	detectionInterval time.Duration
	detections        map[models.EntityID]*detectionState

	now  time.Time
	tick uint64

	hits   uint64
	misses uint64

	log log.Log
}

type detectionState struct {
	last    time.Time
	results []models.EntityID
}

// NewService builds a query service over an index. A zero
// detectionInterval falls back to DefaultDetectionInterval.
func NewService(index *spatial.Index, detectionInterval time.Duration, logger log.Log) *Service {
	if detectionInterval <= 0 {
		detectionInterval = DefaultDetectionInterval
	}
	return &Service{
		index: index,
		cache: make(map[uint64][]models.EntityID),
		pool: generic.NewPool(func() []models.EntityID {
			return make([]models.EntityID, 0, 32)
		}),
		detectionInterval: detectionInterval,
		detections:        make(map[models.EntityID]*detectionState),
		log:               logger,
	}
}

// BeginTick drops every cached result. Results served afterwards
// reflect index state from the new tick onward.
func (s *Service) BeginTick(tick uint64, now time.Time) {
	for k, v := range s.cache {
		s.pool.Put(v[:0])
		delete(s.cache, k)
	}
	s.tick = tick
	s.now = now
}

// Radius returns entities intersecting the sphere, serving repeats of
// the same query within one tick from cache.
func (s *Service) Radius(center geometry.Vec3, radius float32, mask uint32) ([]models.EntityID, error) {
	key := s.key(kindRadius, mask, center.X, center.Y, center.Z, radius)
	if out, ok := s.lookup(key); ok {
		return out, nil
	}
	res, err := s.index.QueryRadius(center, radius, mask)
	if err != nil {
		return nil, err
	}
	return s.store(key, res), nil
}

// Region returns entities intersecting the box.
func (s *Service) Region(region geometry.AABB, mask uint32) []models.EntityID {
	key := s.key(kindRegion, mask,
		region.Min.X, region.Min.Y, region.Min.Z,
		region.Max.X, region.Max.Y, region.Max.Z)
	if out, ok := s.lookup(key); ok {
		return out
	}
	return s.store(key, s.index.QueryRegion(region, mask))
}

// Frustum returns entities possibly visible in the frustum.
func (s *Service) Frustum(f geometry.Frustum, mask uint32) []models.EntityID {
	params := make([]float32, 0, 24)
	for _, p := range f.Planes {
		params = append(params, p.Normal.X, p.Normal.Y, p.Normal.Z, p.D)
	}
	key := s.key(kindFrustum, mask, params...)
	if out, ok := s.lookup(key); ok {
		return out
	}
	return s.store(key, s.index.QueryFrustum(f, mask))
}

// Nearest returns the closest entity to point within maxDistance.
// Single-value results are cheap enough that no caching applies.
func (s *Service) Nearest(point geometry.Vec3, mask uint32, maxDistance float32) (models.EntityID, bool) {
	return s.index.QueryNearest(point, mask, maxDistance)
}

// Detection runs a perception scan for an entity. Scans repeat at most
// once per detection interval; in between, the previous result is
// returned unchanged even if the surroundings moved.
func (s *Service) Detection(entity models.EntityID, center geometry.Vec3, radius float32, mask uint32) ([]models.EntityID, error) {
	st, ok := s.detections[entity]
	if ok && s.now.Sub(st.last) < s.detectionInterval {
		return copyResults(st.results), nil
	}

	res, err := s.Radius(center, radius, mask)
	if err != nil {
		return nil, err
	}
	if !ok {
		st = &detectionState{}
		s.detections[entity] = st
	}
	st.last = s.now
	st.results = append(st.results[:0], res...)

	// A scan result may contain the scanning entity itself.
	for i, id := range st.results {
		if id == entity {
			st.results[i] = st.results[len(st.results)-1]
			st.results = st.results[:len(st.results)-1]
			break
		}
	}
	// Callers get a copy; the retained slice feeds later throttled
	// hits and must not be aliased.
	return copyResults(st.results), nil
}

func copyResults(res []models.EntityID) []models.EntityID {
	out := make([]models.EntityID, len(res))
	copy(out, res)
	return out
}

// ForgetDetection drops the throttle state of a despawned entity.
func (s *Service) ForgetDetection(entity models.EntityID) {
	delete(s.detections, entity)
}

// Stats reports cache effectiveness since construction.
func (s *Service) Stats() (hits, misses uint64) {
	return s.hits, s.misses
}

func (s *Service) lookup(key uint64) ([]models.EntityID, bool) {
	cached, ok := s.cache[key]
	if !ok {
		s.misses++
		return nil, false
	}
	s.hits++
	return copyResults(cached), true
}

// store caches a copy of res in a pooled slice and returns res itself.
func (s *Service) store(key uint64, res []models.EntityID) []models.EntityID {
	buf := s.pool.Get()
	s.cache[key] = append(buf[:0], res...)
	return res
}

func (s *Service) key(kind queryKind, mask uint32, params ...float32) uint64 {
	var h xxhash.Digest
	h.Reset()

	var scratch [8]byte
	scratch[0] = byte(kind)
	binary.LittleEndian.PutUint32(scratch[1:5], mask)
	_, _ = h.Write(scratch[:5])
	for _, p := range params {
		binary.LittleEndian.PutUint32(scratch[:4], math.Float32bits(p))
		_, _ = h.Write(scratch[:4])
	}
	return h.Sum64()
}
