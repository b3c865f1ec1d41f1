package spatial

import (
	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
)

// Behavior classifies how often an entity is expected to move. Static
// records are skipped by the per-tick reposition sweep.
type Behavior uint8

const (
	Static Behavior = iota
	Dynamic
)

func (b Behavior) String() string {
	switch b {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	default:
		return "unknown"
	}
}

// Record is an indexed entity. Exactly one octree node holds each
// record; the node field is the arena id of that node.
//
// Radius > 0 marks a sphere-bounded record: Bounds is then the sphere's
// enclosing box used for filing, while exact query filtering uses the
// tighter sphere.
type Record struct {
	Entity     models.EntityID
	Bounds     geometry.AABB
	Radius     float32
	Layers     uint32
	Behavior   Behavior
	LastUpdate uint64 // tick of the last bounds change

	node nodeID
}

// matches reports whether the record passes a query layer mask.
func (r *Record) matches(mask uint32) bool {
	return r.Layers&mask != 0
}

// hitsSphere is the exact record-versus-query-sphere test.
func (r *Record) hitsSphere(center geometry.Vec3, radius float32) bool {
	if r.Radius > 0 {
		reach := radius + r.Radius
		return r.Bounds.Center().DistanceSq(center) <= reach*reach
	}
	return r.Bounds.IntersectsSphere(center, radius)
}

// distanceSq is the distance from p to the record surface, zero inside.
func (r *Record) distanceSq(p geometry.Vec3) float32 {
	if r.Radius > 0 {
		d := r.Bounds.Center().Distance(p) - r.Radius
		if d < 0 {
			d = 0
		}
		return d * d
	}
	return r.Bounds.DistanceSq(p)
}

// inFrustum is the conservative record-versus-frustum test.
func (r *Record) inFrustum(f geometry.Frustum) bool {
	if r.Radius > 0 {
		return f.ContainsSphere(r.Bounds.Center(), r.Radius)
	}
	return f.IntersectsBox(r.Bounds)
}
