package math

import "github.com/chewxy/math32"

// Mat4 is stored row-major for row vectors: a point p transforms as p*M and the
// translation lives in row 3.
type Mat4 [4][4]float32

func Mat4Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func Mat4Zero() Mat4 {
	return Mat4{}
}

// Mat4FromSlice reads 16 floats in row-major order.
func Mat4FromSlice(data []float32) Mat4 {
	var m Mat4
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			m[i][j] = data[i*4+j]
		}
	}
	return m
}

// Mul returns m*other, i.e. apply m first then other.
func (m Mat4) Mul(other Mat4) Mat4 {
	result := Mat4Zero()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			for k := 0; k < 4; k++ {
				result[i][j] += m[i][k] * other[k][j]
			}
		}
	}
	return result
}

func (m Mat4) MulVec(v Vec4) Vec4 {
	return v.MulMat(m)
}

func (m Mat4) MulVec3(v Vec3) Vec3 {
	v4 := v.ToVec4(1.0)
	result := m.MulVec(v4)
	return result.ToVec3DivW()
}

func (m Mat4) Transpose() Mat4 {
	return Mat4{
		{m[0][0], m[1][0], m[2][0], m[3][0]},
		{m[0][1], m[1][1], m[2][1], m[3][1]},
		{m[0][2], m[1][2], m[2][2], m[3][2]},
		{m[0][3], m[1][3], m[2][3], m[3][3]},
	}
}

// Slice flattens the matrix in the order expected by UniformMatrix4fv without
// transposition.
func (m Mat4) Slice() []float32 {
	out := make([]float32, 16)
	for i := 0; i < 4; i++ {
		copy(out[i*4:], m[i][:])
	}
	return out
}

func (m Mat4) Row(i int) Vec4 {
	return Vec4{X: m[i][0], Y: m[i][1], Z: m[i][2], W: m[i][3]}
}

func (m Mat4) Translation() Vec3 {
	return Vec3{X: m[3][0], Y: m[3][1], Z: m[3][2]}
}

func (m Mat4) SetTranslation(t Vec3) Mat4 {
	m[3][0] = t.X
	m[3][1] = t.Y
	m[3][2] = t.Z
	return m
}

func (m Mat4) WithoutTranslation() Mat4 {
	return m.SetTranslation(Vec3Zero)
}

func (m Mat4) IsIdentity() bool {
	return m == Mat4Identity()
}

func (m Mat4) EqualsWithEpsilon(other Mat4, eps float32) bool {
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if math32.Abs(m[i][j]-other[i][j]) > eps {
				return false
			}
		}
	}
	return true
}

func Mat4Translation(translation Vec3) Mat4 {
	return Mat4Identity().SetTranslation(translation)
}

func Mat4Scale(scale Vec3) Mat4 {
	m := Mat4Identity()
	m[0][0] = scale.X
	m[1][1] = scale.Y
	m[2][2] = scale.Z
	return m
}

func Mat4RotationX(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return Mat4{
		{1, 0, 0, 0},
		{0, c, s, 0},
		{0, -s, c, 0},
		{0, 0, 0, 1},
	}
}

func Mat4RotationY(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return Mat4{
		{c, 0, -s, 0},
		{0, 1, 0, 0},
		{s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

func Mat4RotationZ(angle float32) Mat4 {
	s, c := math32.Sincos(angle)
	return Mat4{
		{c, s, 0, 0},
		{-s, c, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

func Mat4RotationAxis(axis Vec3, angle float32) Mat4 {
	axis = axis.Normalize()
	s, c := math32.Sincos(angle)
	t := 1 - c

	x, y, z := axis.X, axis.Y, axis.Z

	return Mat4{
		{t*x*x + c, t*x*y + s*z, t*x*z - s*y, 0},
		{t*x*y - s*z, t*y*y + c, t*y*z + s*x, 0},
		{t*x*z + s*y, t*y*z - s*x, t*z*z + c, 0},
		{0, 0, 0, 1},
	}
}

// Mat4RotationYawPitchRoll builds the rotation yaw (Y), then pitch (X), then roll (Z).
func Mat4RotationYawPitchRoll(yaw, pitch, roll float32) Mat4 {
	return QuaternionRotationYawPitchRoll(yaw, pitch, roll).ToMat4()
}

// Mat4PerspectiveFovLH is a left-handed perspective projection mapping depth to [-1, 1].
func Mat4PerspectiveFovLH(fovY, aspect, near, far float32) Mat4 {
	t := 1 / math32.Tan(fovY/2)

	m := Mat4Zero()
	m[0][0] = t / aspect
	m[1][1] = t
	m[2][2] = (far + near) / (far - near)
	m[2][3] = 1
	m[3][2] = -2 * far * near / (far - near)
	return m
}

// Mat4OrthoOffCenterLH is a left-handed orthographic projection mapping depth to [-1, 1].
func Mat4OrthoOffCenterLH(left, right, bottom, top, near, far float32) Mat4 {
	m := Mat4Identity()
	m[0][0] = 2 / (right - left)
	m[1][1] = 2 / (top - bottom)
	m[2][2] = 2 / (far - near)
	m[3][0] = (left + right) / (left - right)
	m[3][1] = (top + bottom) / (bottom - top)
	m[3][2] = -(far + near) / (far - near)
	return m
}

// Mat4LookAtLH builds a left-handed view matrix looking from eye towards target.
func Mat4LookAtLH(eye, target, up Vec3) Mat4 {
	zAxis := target.Sub(eye).Normalize()
	xAxis := up.Cross(zAxis)
	if xAxis.LengthSqr() == 0 {
		xAxis = Vec3Right
	} else {
		xAxis = xAxis.Normalize()
	}
	yAxis := zAxis.Cross(xAxis).Normalize()

	return Mat4{
		{xAxis.X, yAxis.X, zAxis.X, 0},
		{xAxis.Y, yAxis.Y, zAxis.Y, 0},
		{xAxis.Z, yAxis.Z, zAxis.Z, 0},
		{-xAxis.Dot(eye), -yAxis.Dot(eye), -zAxis.Dot(eye), 1},
	}
}

// Mat4Compose builds scale, then rotation, then translation.
func Mat4Compose(scale Vec3, rotation Quaternion, translation Vec3) Mat4 {
	m := rotation.ToMat4()
	for j := 0; j < 3; j++ {
		m[0][j] *= scale.X
		m[1][j] *= scale.Y
		m[2][j] *= scale.Z
	}
	return m.SetTranslation(translation)
}

// Decompose splits an affine matrix into scale, rotation and translation. It
// returns false when a scale component is zero, in which case rotation is the
// identity.
func (m Mat4) Decompose() (scale Vec3, rotation Quaternion, translation Vec3, ok bool) {
	translation = m.Translation()

	scale.X = math32.Sqrt(m[0][0]*m[0][0] + m[0][1]*m[0][1] + m[0][2]*m[0][2])
	scale.Y = math32.Sqrt(m[1][0]*m[1][0] + m[1][1]*m[1][1] + m[1][2]*m[1][2])
	scale.Z = math32.Sqrt(m[2][0]*m[2][0] + m[2][1]*m[2][1] + m[2][2]*m[2][2])
	if m.Determinant() <= 0 {
		scale.Y = -scale.Y
	}

	if scale.X == 0 || scale.Y == 0 || scale.Z == 0 {
		return scale, QuaternionIdentity(), translation, false
	}

	sx, sy, sz := 1/scale.X, 1/scale.Y, 1/scale.Z
	r := Mat4{
		{m[0][0] * sx, m[0][1] * sx, m[0][2] * sx, 0},
		{m[1][0] * sy, m[1][1] * sy, m[1][2] * sy, 0},
		{m[2][0] * sz, m[2][1] * sz, m[2][2] * sz, 0},
		{0, 0, 0, 1},
	}
	return scale, QuaternionFromRotationMatrix(r), translation, true
}

func (m Mat4) Determinant() float32 {
	m00, m01, m02, m03 := m[0][0], m[0][1], m[0][2], m[0][3]
	m10, m11, m12, m13 := m[1][0], m[1][1], m[1][2], m[1][3]
	m20, m21, m22, m23 := m[2][0], m[2][1], m[2][2], m[2][3]
	m30, m31, m32, m33 := m[3][0], m[3][1], m[3][2], m[3][3]

	det22_33 := m22*m33 - m32*m23
	det21_33 := m21*m33 - m31*m23
	det21_32 := m21*m32 - m31*m22
	det20_33 := m20*m33 - m30*m23
	det20_32 := m20*m32 - m22*m30
	det20_31 := m20*m31 - m30*m21

	cof00 := +(m11*det22_33 - m12*det21_33 + m13*det21_32)
	cof01 := -(m10*det22_33 - m12*det20_33 + m13*det20_32)
	cof02 := +(m10*det21_33 - m11*det20_33 + m13*det20_31)
	cof03 := -(m10*det21_32 - m11*det20_32 + m12*det20_31)

	return m00*cof00 + m01*cof01 + m02*cof02 + m03*cof03
}

func (m Mat4) Inverse() Mat4 {
	inv := Mat4Zero()

	inv[0][0] = m[1][1]*m[2][2]*m[3][3] - m[1][1]*m[2][3]*m[3][2] - m[2][1]*m[1][2]*m[3][3] + m[2][1]*m[1][3]*m[3][2] + m[3][1]*m[1][2]*m[2][3] - m[3][1]*m[1][3]*m[2][2]
	inv[1][0] = -m[1][0]*m[2][2]*m[3][3] + m[1][0]*m[2][3]*m[3][2] + m[2][0]*m[1][2]*m[3][3] - m[2][0]*m[1][3]*m[3][2] - m[3][0]*m[1][2]*m[2][3] + m[3][0]*m[1][3]*m[2][2]
	inv[2][0] = m[1][0]*m[2][1]*m[3][3] - m[1][0]*m[2][3]*m[3][1] - m[2][0]*m[1][1]*m[3][3] + m[2][0]*m[1][3]*m[3][1] + m[3][0]*m[1][1]*m[2][3] - m[3][0]*m[1][3]*m[2][1]
	inv[3][0] = -m[1][0]*m[2][1]*m[3][2] + m[1][0]*m[2][2]*m[3][1] + m[2][0]*m[1][1]*m[3][2] - m[2][0]*m[1][2]*m[3][1] - m[3][0]*m[1][1]*m[2][2] + m[3][0]*m[1][2]*m[2][1]

	det := m[0][0]*inv[0][0] + m[0][1]*inv[1][0] + m[0][2]*inv[2][0] + m[0][3]*inv[3][0]
	if det == 0 {
		return Mat4Identity()
	}

	inv[0][1] = -m[0][1]*m[2][2]*m[3][3] + m[0][1]*m[2][3]*m[3][2] + m[2][1]*m[0][2]*m[3][3] - m[2][1]*m[0][3]*m[3][2] - m[3][1]*m[0][2]*m[2][3] + m[3][1]*m[0][3]*m[2][2]
	inv[1][1] = m[0][0]*m[2][2]*m[3][3] - m[0][0]*m[2][3]*m[3][2] - m[2][0]*m[0][2]*m[3][3] + m[2][0]*m[0][3]*m[3][2] + m[3][0]*m[0][2]*m[2][3] - m[3][0]*m[0][3]*m[2][2]
	inv[2][1] = -m[0][0]*m[2][1]*m[3][3] + m[0][0]*m[2][3]*m[3][1] + m[2][0]*m[0][1]*m[3][3] - m[2][0]*m[0][3]*m[3][1] - m[3][0]*m[0][1]*m[2][3] + m[3][0]*m[0][3]*m[2][1]
	inv[3][1] = m[0][0]*m[2][1]*m[3][2] - m[0][0]*m[2][2]*m[3][1] - m[2][0]*m[0][1]*m[3][2] + m[2][0]*m[0][2]*m[3][1] + m[3][0]*m[0][1]*m[2][2] - m[3][0]*m[0][2]*m[2][1]

	inv[0][2] = m[0][1]*m[1][2]*m[3][3] - m[0][1]*m[1][3]*m[3][2] - m[1][1]*m[0][2]*m[3][3] + m[1][1]*m[0][3]*m[3][2] + m[3][1]*m[0][2]*m[1][3] - m[3][1]*m[0][3]*m[1][2]
	inv[1][2] = -m[0][0]*m[1][2]*m[3][3] + m[0][0]*m[1][3]*m[3][2] + m[1][0]*m[0][2]*m[3][3] - m[1][0]*m[0][3]*m[3][2] - m[3][0]*m[0][2]*m[1][3] + m[3][0]*m[0][3]*m[1][2]
	inv[2][2] = m[0][0]*m[1][1]*m[3][3] - m[0][0]*m[1][3]*m[3][1] - m[1][0]*m[0][1]*m[3][3] + m[1][0]*m[0][3]*m[3][1] + m[3][0]*m[0][1]*m[1][3] - m[3][0]*m[0][3]*m[1][1]
	inv[3][2] = -m[0][0]*m[1][1]*m[3][2] + m[0][0]*m[1][2]*m[3][1] + m[1][0]*m[0][1]*m[3][2] - m[1][0]*m[0][2]*m[3][1] - m[3][0]*m[0][1]*m[1][2] + m[3][0]*m[0][2]*m[1][1]

	inv[0][3] = -m[0][1]*m[1][2]*m[2][3] + m[0][1]*m[1][3]*m[2][2] + m[1][1]*m[0][2]*m[2][3] - m[1][1]*m[0][3]*m[2][2] - m[2][1]*m[0][2]*m[1][3] + m[2][1]*m[0][3]*m[1][2]
	inv[1][3] = m[0][0]*m[1][2]*m[2][3] - m[0][0]*m[1][3]*m[2][2] - m[1][0]*m[0][2]*m[2][3] + m[1][0]*m[0][3]*m[2][2] + m[2][0]*m[0][2]*m[1][3] - m[2][0]*m[0][3]*m[1][2]
	inv[2][3] = -m[0][0]*m[1][1]*m[2][3] + m[0][0]*m[1][3]*m[2][1] + m[1][0]*m[0][1]*m[2][3] - m[1][0]*m[0][3]*m[2][1] - m[2][0]*m[0][1]*m[1][3] + m[2][0]*m[0][3]*m[1][1]
	inv[3][3] = m[0][0]*m[1][1]*m[2][2] - m[0][0]*m[1][2]*m[2][1] - m[1][0]*m[0][1]*m[2][2] + m[1][0]*m[0][2]*m[2][1] + m[2][0]*m[0][1]*m[1][2] - m[2][0]*m[0][2]*m[1][1]

	det = 1 / det
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			inv[i][j] *= det
		}
	}

	return inv
}
