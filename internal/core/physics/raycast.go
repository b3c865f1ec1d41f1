package physics

import (
	"math"

	"github.com/wildersim/wilder/internal/core/geometry"
	"github.com/wildersim/wilder/internal/core/models"
)

// Hit describes the closest body struck by a raycast.
type Hit struct {
	Entity   models.EntityID
	Point    geometry.Vec3
	Normal   geometry.Vec3
	Distance float32
}

// raycast walks every live body and keeps the closest intersection.
// Layer filtering happens before any intersection math.
func (e *engine) raycast(r geometry.Ray, maxDist float32, mask uint32) (Hit, bool) {
	best := Hit{Distance: maxDist}
	found := false

	for i := range e.bodies {
		b := &e.bodies[i]
		if !b.alive || (1<<b.layer)&mask == 0 {
			continue
		}

		t, ok := rayBody(r, b, best.Distance)
		if !ok || t > best.Distance {
			continue
		}
		point := r.At(t)
		best = Hit{
			Entity:   b.entity,
			Point:    point,
			Normal:   surfaceNormal(b, point),
			Distance: t,
		}
		found = true
	}
	return best, found
}

func rayBody(r geometry.Ray, b *body, maxDist float32) (float32, bool) {
	switch b.shape.Kind {
	case ShapeBox:
		return r.IntersectBox(b.shape.bounds(b.pos), maxDist)
	case ShapeSphere:
		return r.IntersectSphere(geometry.Sphere{Center: b.pos, Radius: b.shape.Radius}, maxDist)
	case ShapeCapsule:
		return rayCapsule(r, b.pos, b.shape.Radius, b.shape.HalfHeight, maxDist)
	default:
		return 0, false
	}
}

// rayCapsule tests a vertical capsule: the cylinder quadratic in the
// XZ plane clipped to the segment, then the two cap spheres.
func rayCapsule(r geometry.Ray, center geometry.Vec3, radius, halfHeight, maxDist float32) (float32, bool) {
	o := r.Origin.Sub(center)
	a := r.Dir.X*r.Dir.X + r.Dir.Z*r.Dir.Z
	best := float32(math.Inf(1))

	if a > 1e-8 {
		bq := 2 * (o.X*r.Dir.X + o.Z*r.Dir.Z)
		c := o.X*o.X + o.Z*o.Z - radius*radius
		disc := bq*bq - 4*a*c
		if disc >= 0 {
			sq := float32(math.Sqrt(float64(disc)))
			for _, t := range [2]float32{(-bq - sq) / (2 * a), (-bq + sq) / (2 * a)} {
				if t < 0 || t > maxDist {
					continue
				}
				y := o.Y + t*r.Dir.Y
				if y >= -halfHeight && y <= halfHeight && t < best {
					best = t
				}
			}
		}
	}

	for _, dy := range [2]float32{halfHeight, -halfHeight} {
		capSphere := geometry.Sphere{Center: center.Add(geometry.V3(0, dy, 0)), Radius: radius}
		if t, ok := r.IntersectSphere(capSphere, maxDist); ok && t < best {
			best = t
		}
	}

	if math.IsInf(float64(best), 1) {
		return 0, false
	}
	return best, true
}

func surfaceNormal(b *body, point geometry.Vec3) geometry.Vec3 {
	switch b.shape.Kind {
	case ShapeBox:
		// Dominant axis of the offset from center picks the face.
		d := point.Sub(b.pos)
		rel := geometry.V3(
			absf(d.X)/b.shape.HalfExtents.X,
			absf(d.Y)/b.shape.HalfExtents.Y,
			absf(d.Z)/b.shape.HalfExtents.Z,
		)
		if rel.X >= rel.Y && rel.X >= rel.Z {
			return geometry.V3(sign(d.X), 0, 0)
		}
		if rel.Y >= rel.Z {
			return geometry.V3(0, sign(d.Y), 0)
		}
		return geometry.V3(0, 0, sign(d.Z))
	case ShapeCapsule:
		axis := sphereAt(b, point)
		return point.Sub(axis.Center).Normalize()
	default:
		return point.Sub(b.pos).Normalize()
	}
}

// overlap returns entities whose bodies intersect the query shape
// placed at center, layer filtered.
func (e *engine) overlap(shape Shape, center geometry.Vec3, mask uint32) []models.EntityID {
	probe := body{shape: shape, pos: center, kind: Dynamic}
	var out []models.EntityID
	for i := range e.bodies {
		b := &e.bodies[i]
		if !b.alive || (1<<b.layer)&mask == 0 {
			continue
		}
		if overlapTest(&probe, b) {
			out = append(out, b.entity)
		}
	}
	return out
}

// overlapTest is a pure boolean intersection, with none of the contact
// solver's degenerate-distance rejection, so coincident centers count.
func overlapTest(a, b *body) bool {
	if a.shape.Kind == ShapeBox && b.shape.Kind == ShapeBox {
		return a.shape.bounds(a.pos).Intersects(b.shape.bounds(b.pos))
	}
	if a.shape.Kind == ShapeBox {
		s := sphereAt(b, a.pos)
		return a.shape.bounds(a.pos).IntersectsSphere(s.Center, s.Radius)
	}
	if b.shape.Kind == ShapeBox {
		s := sphereAt(a, b.pos)
		return b.shape.bounds(b.pos).IntersectsSphere(s.Center, s.Radius)
	}
	sa, sb := sphereAt(a, b.pos), sphereAt(b, a.pos)
	reach := sa.Radius + sb.Radius
	return sa.Center.DistanceSq(sb.Center) <= reach*reach
}

func absf(v float32) float32 {
	if v < 0 {
		return -v
	}
	return v
}
