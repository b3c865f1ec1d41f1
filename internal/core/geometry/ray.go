package geometry

import "math"

// Ray is a half-line from Origin along a normalized Dir.
type Ray struct {
	Origin Vec3
	Dir    Vec3
}

// NewRay normalizes dir; a zero direction yields a degenerate ray that
// hits nothing.
func NewRay(origin, dir Vec3) Ray {
	return Ray{Origin: origin, Dir: dir.Normalize()}
}

// At returns the point t units along the ray.
func (r Ray) At(t float32) Vec3 { return r.Origin.Add(r.Dir.Scale(t)) }

// IntersectBox performs the slab test against b. It returns the entry
// distance and true when the ray hits within maxDist. A ray starting
// inside the box reports distance 0.
func (r Ray) IntersectBox(b AABB, maxDist float32) (float32, bool) {
	tmin := float32(math.Inf(-1))
	tmax := float32(math.Inf(1))

	for axis := 0; axis < 3; axis++ {
		o := component(r.Origin, axis)
		d := component(r.Dir, axis)
		lo := component(b.Min, axis)
		hi := component(b.Max, axis)
		if d == 0 {
			if o < lo || o > hi {
				return 0, false
			}
			continue
		}
		t1 := (lo - o) / d
		t2 := (hi - o) / d
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		if t1 > tmin {
			tmin = t1
		}
		if t2 < tmax {
			tmax = t2
		}
		if tmin > tmax {
			return 0, false
		}
	}

	if tmax < 0 || tmin > maxDist {
		return 0, false
	}
	if tmin < 0 {
		tmin = 0
	}
	return tmin, true
}

// IntersectSphere solves the ray/sphere quadratic and returns the
// nearest non-negative hit distance within maxDist.
func (r Ray) IntersectSphere(s Sphere, maxDist float32) (float32, bool) {
	oc := r.Origin.Sub(s.Center)
	b := oc.Dot(r.Dir)
	c := oc.LengthSq() - s.Radius*s.Radius
	disc := b*b - c
	if disc < 0 {
		return 0, false
	}
	sq := float32(math.Sqrt(float64(disc)))
	t := -b - sq
	if t < 0 {
		t = -b + sq // origin inside the sphere
	}
	if t < 0 || t > maxDist {
		return 0, false
	}
	return t, true
}
