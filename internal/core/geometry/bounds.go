package geometry

// AABB is an axis-aligned bounding box described by its min and max corners.
type AABB struct {
	Min Vec3
	Max Vec3
}

// BoxFromCenterRadius builds a cube-shaped AABB around center, the common
// bounds for sphere-shaped entities.
func BoxFromCenterRadius(center Vec3, radius float32) AABB {
	r := Vec3{radius, radius, radius}
	return AABB{Min: center.Sub(r), Max: center.Add(r)}
}

// BoxFromCenterSize builds an AABB from a center point and full extents.
func BoxFromCenterSize(center, size Vec3) AABB {
	half := size.Scale(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

func (b AABB) Center() Vec3 { return b.Min.Add(b.Max).Scale(0.5) }

func (b AABB) Size() Vec3 { return b.Max.Sub(b.Min) }

func (b AABB) Volume() float32 {
	s := b.Size()
	return s.X * s.Y * s.Z
}

// Valid reports whether min <= max on every axis.
func (b AABB) Valid() bool {
	return b.Min.X <= b.Max.X && b.Min.Y <= b.Max.Y && b.Min.Z <= b.Max.Z
}

func (b AABB) Contains(p Vec3) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// ContainsBox reports whether o lies entirely inside b.
func (b AABB) ContainsBox(o AABB) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

func (b AABB) Intersects(o AABB) bool {
	return b.Min.X <= o.Max.X && b.Max.X >= o.Min.X &&
		b.Min.Y <= o.Max.Y && b.Max.Y >= o.Min.Y &&
		b.Min.Z <= o.Max.Z && b.Max.Z >= o.Min.Z
}

// ClosestPoint returns the point on or inside b nearest to p.
func (b AABB) ClosestPoint(p Vec3) Vec3 {
	return Vec3{
		X: Clamp(p.X, b.Min.X, b.Max.X),
		Y: Clamp(p.Y, b.Min.Y, b.Max.Y),
		Z: Clamp(p.Z, b.Min.Z, b.Max.Z),
	}
}

// DistanceSq returns the squared distance from p to the box, zero when p
// is inside.
func (b AABB) DistanceSq(p Vec3) float32 {
	return b.ClosestPoint(p).DistanceSq(p)
}

// IntersectsSphere tests box-versus-sphere overlap via the closest-point
// criterion.
func (b AABB) IntersectsSphere(center Vec3, radius float32) bool {
	return b.DistanceSq(center) <= radius*radius
}

// ClampInto translates b so it fits inside outer where possible. Axes on
// which b is larger than outer are centered instead.
func (b AABB) ClampInto(outer AABB) AABB {
	size := b.Size()
	room := outer.Size()
	shifted := b
	for axis := 0; axis < 3; axis++ {
		bMin, bMax := component(b.Min, axis), component(b.Max, axis)
		oMin, oMax := component(outer.Min, axis), component(outer.Max, axis)
		var d float32
		if component(size, axis) > component(room, axis) {
			d = (oMin+oMax)/2 - (bMin+bMax)/2
		} else if bMin < oMin {
			d = oMin - bMin
		} else if bMax > oMax {
			d = oMax - bMax
		}
		shifted.Min = addComponent(shifted.Min, axis, d)
		shifted.Max = addComponent(shifted.Max, axis, d)
	}
	return shifted
}

func component(v Vec3, axis int) float32 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

func addComponent(v Vec3, axis int, d float32) Vec3 {
	switch axis {
	case 0:
		v.X += d
	case 1:
		v.Y += d
	default:
		v.Z += d
	}
	return v
}

// Sphere is a bounding sphere.
type Sphere struct {
	Center Vec3
	Radius float32
}

func (s Sphere) Contains(p Vec3) bool {
	return s.Center.DistanceSq(p) <= s.Radius*s.Radius
}

func (s Sphere) Intersects(o Sphere) bool {
	r := s.Radius + o.Radius
	return s.Center.DistanceSq(o.Center) <= r*r
}

// Bounds returns the AABB enclosing the sphere.
func (s Sphere) Bounds() AABB {
	return BoxFromCenterRadius(s.Center, s.Radius)
}
