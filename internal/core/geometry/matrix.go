package geometry

import "math"

// Mat4 is a column-major 4x4 matrix. Element (row r, col c) sits at
// index c*4+r, matching the layout camera systems hand over.
type Mat4 [16]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	var m Mat4
	m[0], m[5], m[10], m[15] = 1, 1, 1, 1
	return m
}

// Mul returns m * o.
func (m Mat4) Mul(o Mat4) Mat4 {
	var r Mat4
	for c := 0; c < 4; c++ {
		for row := 0; row < 4; row++ {
			var sum float32
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[c*4+k]
			}
			r[c*4+row] = sum
		}
	}
	return r
}

// Perspective builds a right-handed perspective projection.
// fovY is in radians.
func Perspective(fovY, aspect, near, far float32) Mat4 {
	f := float32(1 / math.Tan(float64(fovY)/2))
	var m Mat4
	m[0] = f / aspect
	m[5] = f
	m[10] = (far + near) / (near - far)
	m[11] = -1
	m[14] = (2 * far * near) / (near - far)
	return m
}

// LookAt builds a right-handed view matrix from eye toward target.
func LookAt(eye, target, up Vec3) Mat4 {
	fwd := target.Sub(eye).Normalize()
	right := fwd.Cross(up).Normalize()
	realUp := right.Cross(fwd)

	var m Mat4
	m[0], m[4], m[8] = right.X, right.Y, right.Z
	m[1], m[5], m[9] = realUp.X, realUp.Y, realUp.Z
	m[2], m[6], m[10] = -fwd.X, -fwd.Y, -fwd.Z
	m[12] = -right.Dot(eye)
	m[13] = -realUp.Dot(eye)
	m[14] = fwd.Dot(eye)
	m[15] = 1
	return m
}

// row returns row i of the matrix as a plane-style 4-vector.
func (m Mat4) row(i int) (x, y, z, w float32) {
	return m[i], m[4+i], m[8+i], m[12+i]
}
