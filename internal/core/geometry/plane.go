package geometry

// Plane is a half-space in Hessian normal form: points p with
// Normal·p + D >= 0 are on the inside.
type Plane struct {
	Normal Vec3
	D      float32
}

// Normalized returns the plane scaled so its normal has unit length.
func (p Plane) Normalized() Plane {
	l := p.Normal.Length()
	if l == 0 {
		return p
	}
	return Plane{Normal: p.Normal.Scale(1 / l), D: p.D / l}
}

// SignedDistance is positive on the inside of the half-space.
func (p Plane) SignedDistance(point Vec3) float32 {
	return p.Normal.Dot(point) + p.D
}
