package geometry

// Frustum is the six half-spaces of a camera view volume, normals facing
// inward. It is transient: recomputed from the active camera each query.
type Frustum struct {
	Planes [6]Plane // left, right, bottom, top, near, far
}

// FrustumFromMatrix extracts the six planes from a view-projection matrix
// using the Gribb/Hartmann row method.
func FrustumFromMatrix(vp Mat4) Frustum {
	r0x, r0y, r0z, r0w := vp.row(0)
	r1x, r1y, r1z, r1w := vp.row(1)
	r2x, r2y, r2z, r2w := vp.row(2)
	r3x, r3y, r3z, r3w := vp.row(3)

	var f Frustum
	// left: row3 + row0, right: row3 - row0
	f.Planes[0] = Plane{Normal: Vec3{r3x + r0x, r3y + r0y, r3z + r0z}, D: r3w + r0w}.Normalized()
	f.Planes[1] = Plane{Normal: Vec3{r3x - r0x, r3y - r0y, r3z - r0z}, D: r3w - r0w}.Normalized()
	// bottom: row3 + row1, top: row3 - row1
	f.Planes[2] = Plane{Normal: Vec3{r3x + r1x, r3y + r1y, r3z + r1z}, D: r3w + r1w}.Normalized()
	f.Planes[3] = Plane{Normal: Vec3{r3x - r1x, r3y - r1y, r3z - r1z}, D: r3w - r1w}.Normalized()
	// near: row3 + row2, far: row3 - row2
	f.Planes[4] = Plane{Normal: Vec3{r3x + r2x, r3y + r2y, r3z + r2z}, D: r3w + r2w}.Normalized()
	f.Planes[5] = Plane{Normal: Vec3{r3x - r2x, r3y - r2y, r3z - r2z}, D: r3w - r2w}.Normalized()
	return f
}

// ContainsPoint reports whether p is inside all six planes.
func (f Frustum) ContainsPoint(p Vec3) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(p) < 0 {
			return false
		}
	}
	return true
}

// ContainsSphere reports whether the sphere is at least partially inside
// the frustum.
func (f Frustum) ContainsSphere(center Vec3, radius float32) bool {
	for i := range f.Planes {
		if f.Planes[i].SignedDistance(center) < -radius {
			return false
		}
	}
	return true
}

// IntersectsBox is the conservative positive-vertex test: it never
// reports an intersecting box as outside, but may keep boxes that only
// straddle plane corners. That bias is what culling needs.
func (f Frustum) IntersectsBox(b AABB) bool {
	for i := range f.Planes {
		n := f.Planes[i].Normal
		// Vertex of b furthest along the plane normal.
		pv := b.Min
		if n.X >= 0 {
			pv.X = b.Max.X
		}
		if n.Y >= 0 {
			pv.Y = b.Max.Y
		}
		if n.Z >= 0 {
			pv.Z = b.Max.Z
		}
		if f.Planes[i].SignedDistance(pv) < 0 {
			return false
		}
	}
	return true
}

// ContainsBox reports whether b is fully inside the frustum: the
// negative vertex of every plane must also be inside.
func (f Frustum) ContainsBox(b AABB) bool {
	for i := range f.Planes {
		n := f.Planes[i].Normal
		// Vertex of b least along the plane normal.
		nv := b.Max
		if n.X >= 0 {
			nv.X = b.Min.X
		}
		if n.Y >= 0 {
			nv.Y = b.Min.Y
		}
		if n.Z >= 0 {
			nv.Z = b.Min.Z
		}
		if f.Planes[i].SignedDistance(nv) < 0 {
			return false
		}
	}
	return true
}
