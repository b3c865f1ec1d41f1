package models

import "github.com/wildersim/wilder/internal/core/geometry"

// EntityID identifies an entity owned by the external registry. The
// spatial index and physics bridge reference entities by value only and
// never manage their lifetime.
type EntityID uint64

// InvalidEntity is the zero id; no live entity carries it.
const InvalidEntity EntityID = 0

// Transform is an entity pose. The authoritative copy lives in the
// external component store; physics reads it before a step and writes it
// back afterwards.
type Transform struct {
	Position geometry.Vec3
	Rotation geometry.Vec3 // euler radians
	Scale    geometry.Vec3
}

// DefaultTransform returns an identity pose at the given position.
func DefaultTransform(pos geometry.Vec3) Transform {
	return Transform{Position: pos, Scale: geometry.V3(1, 1, 1)}
}

// ApproxEqual reports whether two transforms differ by less than eps on
// every component. Used to skip redundant write-backs after a physics
// step.
func (t Transform) ApproxEqual(o Transform, eps float32) bool {
	return t.Position.Sub(o.Position).LengthSq() <= eps*eps &&
		t.Rotation.Sub(o.Rotation).LengthSq() <= eps*eps &&
		t.Scale.Sub(o.Scale).LengthSq() <= eps*eps
}

// TransformStore is the narrow interface the core consumes from the
// entity/component store.
type TransformStore interface {
	Transform(id EntityID) (Transform, bool)
	SetTransform(id EntityID, t Transform)
	// Entities iterates ids carrying a transform; used by the orphan
	// sweep to detect bodies whose entity was destroyed.
	Entities() []EntityID
}

// FrustumProvider is the narrow interface consumed from the camera/view
// system.
type FrustumProvider interface {
	ActiveFrustum() geometry.Frustum
}
