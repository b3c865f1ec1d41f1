package physics

import (
	"fmt"
	"math"

	"github.com/wildersim/wilder/internal/core/geometry"
)

// ShapeKind selects the collision primitive.
type ShapeKind uint8

const (
	ShapeBox ShapeKind = iota
	ShapeSphere
	ShapeCapsule
)

func (k ShapeKind) String() string {
	switch k {
	case ShapeBox:
		return "box"
	case ShapeSphere:
		return "sphere"
	case ShapeCapsule:
		return "capsule"
	default:
		return "unknown"
	}
}

// Shape is a collision primitive descriptor. Only the fields of the
// active kind are meaningful: HalfExtents for boxes, Radius for spheres
// and capsules, HalfHeight for the cylindrical section of capsules.
type Shape struct {
	Kind        ShapeKind
	HalfExtents geometry.Vec3
	Radius      float32
	HalfHeight  float32
}

// NewBoxShape builds a box from half extents.
func NewBoxShape(halfExtents geometry.Vec3) Shape {
	return Shape{Kind: ShapeBox, HalfExtents: halfExtents}
}

// NewSphereShape builds a sphere from a radius.
func NewSphereShape(radius float32) Shape {
	return Shape{Kind: ShapeSphere, Radius: radius}
}

// NewCapsuleShape builds a capsule from a radius and the half height of
// its cylindrical section.
func NewCapsuleShape(radius, halfHeight float32) Shape {
	return Shape{Kind: ShapeCapsule, Radius: radius, HalfHeight: halfHeight}
}

// Validate rejects geometry the solver cannot handle.
func (s Shape) Validate() error {
	switch s.Kind {
	case ShapeBox:
		if !s.HalfExtents.IsFinite() {
			return fmt.Errorf("box extents %v: %w", s.HalfExtents, ErrInvalidShape)
		}
		if s.HalfExtents.X <= 0 || s.HalfExtents.Y <= 0 || s.HalfExtents.Z <= 0 {
			return fmt.Errorf("box extents %v must be positive: %w", s.HalfExtents, ErrInvalidShape)
		}
	case ShapeSphere:
		if !finitePositive(s.Radius) {
			return fmt.Errorf("sphere radius %f: %w", s.Radius, ErrInvalidShape)
		}
	case ShapeCapsule:
		if !finitePositive(s.Radius) {
			return fmt.Errorf("capsule radius %f: %w", s.Radius, ErrInvalidShape)
		}
		if !finitePositive(s.HalfHeight) {
			return fmt.Errorf("capsule half height %f: %w", s.HalfHeight, ErrInvalidShape)
		}
	default:
		return fmt.Errorf("shape kind %d: %w", s.Kind, ErrInvalidShape)
	}
	return nil
}

// boundingRadius encloses the shape for broad-phase culling.
func (s Shape) boundingRadius() float32 {
	switch s.Kind {
	case ShapeBox:
		return s.HalfExtents.Length()
	case ShapeSphere:
		return s.Radius
	case ShapeCapsule:
		return s.Radius + s.HalfHeight
	default:
		return 0
	}
}

// bounds returns the shape's AABB at the given center.
func (s Shape) bounds(center geometry.Vec3) geometry.AABB {
	switch s.Kind {
	case ShapeBox:
		return geometry.AABB{Min: center.Sub(s.HalfExtents), Max: center.Add(s.HalfExtents)}
	case ShapeCapsule:
		half := geometry.V3(s.Radius, s.Radius+s.HalfHeight, s.Radius)
		return geometry.AABB{Min: center.Sub(half), Max: center.Add(half)}
	default:
		return geometry.BoxFromCenterRadius(center, s.Radius)
	}
}

func finitePositive(v float32) bool {
	f := float64(v)
	return v > 0 && !math.IsNaN(f) && !math.IsInf(f, 0)
}
