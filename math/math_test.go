package math

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tol = 1e-4

func assertVec3(t *testing.T, expected, actual Vec3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, tol, "x")
	assert.InDelta(t, expected.Y, actual.Y, tol, "y")
	assert.InDelta(t, expected.Z, actual.Z, tol, "z")
}

func assertMat4(t *testing.T, expected, actual Mat4) {
	t.Helper()
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			assert.InDelta(t, expected[i][j], actual[i][j], tol, "[%d][%d]", i, j)
		}
	}
}

// toMGL reinterprets the row-major, row-vector matrix as mathgl's column-major
// storage; the flat memory is identical.
func toMGL(m Mat4) mgl32.Mat4 {
	var out mgl32.Mat4
	copy(out[:], m.Slice())
	return out
}

func fromMGL(m mgl32.Mat4) Mat4 {
	return Mat4FromSlice(m[:])
}

func sampleMatrix() Mat4 {
	return Mat4Compose(
		NewVec3(2, 3, 0.5),
		QuaternionRotationYawPitchRoll(0.3, -0.7, 1.1),
		NewVec3(4, -5, 6),
	)
}

func TestVec3Operations(t *testing.T) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	assert.Equal(t, NewVec3(5, 7, 9), v1.Add(v2))
	assert.Equal(t, NewVec3(3, 3, 3), v2.Sub(v1))
	assert.Equal(t, NewVec3(2, 4, 6), v1.Mul(2))
	assert.Equal(t, float32(32), v1.Dot(v2))
	assert.Equal(t, Vec3Front, Vec3Right.Cross(Vec3Up))
	assert.Equal(t, NewVec3(1, 2, 3), v1.Min(v2))
	assert.Equal(t, NewVec3(4, 5, 6), v2.Max(v1))
}

func TestVec3Normalize(t *testing.T) {
	normalized := NewVec3(3, 0, 0).Normalize()
	assert.Equal(t, NewVec3(1, 0, 0), normalized)
	assert.InDelta(t, 1, normalized.Length(), tol)

	// zero vectors stay zero
	assert.Equal(t, Vec3Zero, Vec3Zero.Normalize())
}

func TestVec3NonUniform(t *testing.T) {
	assert.False(t, NewVec3(2, 2, 2).IsNonUniformWithinEpsilon(1e-6))
	assert.False(t, NewVec3(-2, 2, 2).IsNonUniformWithinEpsilon(1e-6))
	assert.True(t, NewVec3(1, 2, 1).IsNonUniformWithinEpsilon(1e-6))
	assert.True(t, NewVec3(1, 1, 1.1).IsNonUniformWithinEpsilon(1e-6))
}

func TestVec3TransformNormal(t *testing.T) {
	m := Mat4RotationY(math32.Pi / 2).SetTranslation(NewVec3(10, 10, 10))
	assertVec3(t, NewVec3(0, 0, -1), Vec3Right.TransformNormal(m))
	assertVec3(t, NewVec3(10, 10, 9), Vec3Right.TransformCoordinates(m))
}

func TestMat4Identity(t *testing.T) {
	m := Mat4Identity()
	assert.True(t, m.IsIdentity())
	for i := 0; i < 4; i++ {
		for j := 0; j < 4; j++ {
			if i == j {
				assert.Equal(t, float32(1), m[i][j])
			} else {
				assert.Equal(t, float32(0), m[i][j])
			}
		}
	}
	assert.False(t, Mat4Translation(Vec3One).IsIdentity())
}

func TestMat4Translation(t *testing.T) {
	translation := NewVec3(1, 2, 3)
	m := Mat4Translation(translation)

	assert.Equal(t, translation, m.Translation())
	assert.Equal(t, translation, Vec4{W: 1}.MulMat(m).ToVec3())
	assert.Equal(t, toMGL(m), mgl32.Translate3D(1, 2, 3))
}

func TestVec4Arithmetic(t *testing.T) {
	a := Vec4{X: 1, Y: 2, Z: 3, W: 4}
	b := Vec4{X: 0.5, Y: -1, Z: 3, W: 1}

	assert.Equal(t, Vec4{X: 0.5, Y: 3, Z: 0, W: 3}, a.Sub(b))
	assert.Equal(t, a, a.Sub(b).Add(b))
	assert.Equal(t, Vec4{X: 2, Y: 4, Z: 6, W: 8}, a.Scale(2))
	assert.Equal(t, float32(0.5-2+9+4), a.Dot(b))
	assertVec3(t, NewVec3(0.25, 0.5, 0.75), a.ToVec3DivW())
	assert.Equal(t, NewVec3(1, 2, 3), Vec4{X: 1, Y: 2, Z: 3}.ToVec3DivW())
}

func TestMat4MulMatchesMathgl(t *testing.T) {
	a := sampleMatrix()
	b := Mat4RotationX(0.4).Mul(Mat4Translation(NewVec3(-1, 2, 0.5)))

	// a*b in row-vector order is B*A in mathgl's column-vector order
	expected := fromMGL(toMGL(b).Mul4(toMGL(a)))
	assertMat4(t, expected, a.Mul(b))
}

func TestMat4InverseMatchesMathgl(t *testing.T) {
	m := sampleMatrix()
	assertMat4(t, fromMGL(toMGL(m).Inv()), m.Inverse())
	assertMat4(t, Mat4Identity(), m.Mul(m.Inverse()))

	// singular matrices fall back to identity
	assert.Equal(t, Mat4Identity(), Mat4Zero().Inverse())
}

func TestMat4DeterminantMatchesMathgl(t *testing.T) {
	m := sampleMatrix()
	assert.InDelta(t, toMGL(m).Det(), m.Determinant(), 1e-3)
	assert.InDelta(t, 3, Mat4Scale(NewVec3(1, 3, 1)).Determinant(), tol)
}

func TestMat4RotationMatchesMathgl(t *testing.T) {
	angle := float32(0.8)
	assertMat4(t, fromMGL(mgl32.HomogRotate3DX(angle)), Mat4RotationX(angle))
	assertMat4(t, fromMGL(mgl32.HomogRotate3DY(angle)), Mat4RotationY(angle))
	assertMat4(t, fromMGL(mgl32.HomogRotate3DZ(angle)), Mat4RotationZ(angle))

	axis := NewVec3(1, 2, -1)
	n := axis.Normalize()
	expected := fromMGL(mgl32.HomogRotate3D(angle, mgl32.Vec3{n.X, n.Y, n.Z}))
	assertMat4(t, expected, Mat4RotationAxis(axis, angle))
	assertMat4(t, expected, QuaternionFromAxisAngle(axis, angle).ToMat4())
}

func TestMat4YawPitchRollOrder(t *testing.T) {
	yaw, pitch, roll := float32(0.5), float32(-0.3), float32(1.2)
	expected := Mat4RotationZ(roll).Mul(Mat4RotationX(pitch)).Mul(Mat4RotationY(yaw))
	assertMat4(t, expected, Mat4RotationYawPitchRoll(yaw, pitch, roll))
}

func TestMat4ComposeDecompose(t *testing.T) {
	scale := NewVec3(2, 3, 0.5)
	rotation := QuaternionRotationYawPitchRoll(0.3, -0.7, 1.1)
	translation := NewVec3(4, -5, 6)

	m := Mat4Compose(scale, rotation, translation)
	assertMat4(t, Mat4Scale(scale).Mul(rotation.ToMat4()).Mul(Mat4Translation(translation)), m)

	s, r, tr, ok := m.Decompose()
	require.True(t, ok)
	assertVec3(t, scale, s)
	assertVec3(t, translation, tr)
	assert.True(t, r.EqualsWithEpsilon(rotation, tol) || r.EqualsWithEpsilon(NewQuaternion(-rotation.X, -rotation.Y, -rotation.Z, -rotation.W), tol))
}

func TestMat4DecomposeZeroScale(t *testing.T) {
	m := Mat4Compose(NewVec3(0, 1, 1), QuaternionRotationYawPitchRoll(1, 0, 0), NewVec3(1, 2, 3))
	_, r, tr, ok := m.Decompose()
	assert.False(t, ok)
	assert.Equal(t, QuaternionIdentity(), r)
	assert.Equal(t, NewVec3(1, 2, 3), tr)
}

func TestMat4PerspectiveFovLH(t *testing.T) {
	near, far := float32(0.5), float32(100)
	m := Mat4PerspectiveFovLH(math32.Pi/4, 16.0/9.0, near, far)

	assert.InDelta(t, -1, m.MulVec3(NewVec3(0, 0, near)).Z, tol)
	assert.InDelta(t, 1, m.MulVec3(NewVec3(0, 0, far)).Z, 1e-3)
	assert.Greater(t, m[1][1], m[0][0])
}

func TestMat4OrthoOffCenterLH(t *testing.T) {
	m := Mat4OrthoOffCenterLH(-2, 2, -1, 1, 0, 10)
	assertVec3(t, NewVec3(-1, -1, -1), m.MulVec3(NewVec3(-2, -1, 0)))
	assertVec3(t, NewVec3(1, 1, 1), m.MulVec3(NewVec3(2, 1, 10)))
}

func TestMat4LookAtLH(t *testing.T) {
	eye := NewVec3(0, 0, -5)
	m := Mat4LookAtLH(eye, Vec3Zero, Vec3Up)

	assertVec3(t, Vec3Zero, m.MulVec3(eye))
	assertVec3(t, NewVec3(0, 0, 5), m.MulVec3(Vec3Zero))
	assertVec3(t, NewVec3(1, 0, 5), m.MulVec3(Vec3Right))
}

func TestQuaternionIdentity(t *testing.T) {
	assert.Equal(t, Quaternion{0, 0, 0, 1}, QuaternionIdentity())
	assert.True(t, QuaternionIdentity().ToMat4().IsIdentity())
}

func TestQuaternionRotation(t *testing.T) {
	q := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)
	assertVec3(t, NewVec3(0, 0, -1), q.RotateVector(Vec3Right))
	assertVec3(t, NewVec3(0, 0, -1), Vec3Right.TransformNormal(q.ToMat4()))
}

func TestQuaternionMatchesMathgl(t *testing.T) {
	axis := NewVec3(0.2, 1, -0.4).Normalize()
	angle := float32(1.3)
	ours := QuaternionFromAxisAngle(axis, angle)
	theirs := mgl32.QuatRotate(angle, mgl32.Vec3{axis.X, axis.Y, axis.Z})

	assert.InDelta(t, theirs.W, ours.W, tol)
	assert.InDelta(t, theirs.V[0], ours.X, tol)
	assert.InDelta(t, theirs.V[1], ours.Y, tol)
	assert.InDelta(t, theirs.V[2], ours.Z, tol)

	other := QuaternionRotationYawPitchRoll(0.1, 0.2, 0.3)
	otherMGL := mgl32.Quat{W: other.W, V: mgl32.Vec3{other.X, other.Y, other.Z}}
	product := theirs.Mul(otherMGL)
	got := ours.Mul(other)
	assert.InDelta(t, product.W, got.W, tol)
	assert.InDelta(t, product.V[0], got.X, tol)
	assert.InDelta(t, product.V[1], got.Y, tol)
	assert.InDelta(t, product.V[2], got.Z, tol)
}

func TestQuaternionEulerRoundTrip(t *testing.T) {
	cases := []Vec3{
		{0, 0, 0},
		{0.3, 0.5, -0.2},
		{-1.2, 2.5, 0.7},
		{0.1, -3.0, 1.5},
	}
	for _, euler := range cases {
		q := QuaternionFromEuler(euler)
		back := q.ToEulerAngles()
		assertMat4(t, q.ToMat4(), QuaternionFromEuler(back).ToMat4())
	}

	// pitch saturates at the pole
	locked := QuaternionRotationYawPitchRoll(0.4, math32.Pi/2, 0).ToEulerAngles()
	assert.InDelta(t, math32.Pi/2, locked.X, 1e-3)
}

func TestQuaternionFromRotationMatrix(t *testing.T) {
	for _, q := range []Quaternion{
		QuaternionIdentity(),
		QuaternionFromAxisAngle(Vec3Right, 3.0),
		QuaternionFromAxisAngle(Vec3Up, 3.0),
		QuaternionFromAxisAngle(Vec3Front, 3.0),
		QuaternionRotationYawPitchRoll(0.3, -0.7, 1.1),
	} {
		back := QuaternionFromRotationMatrix(q.ToMat4())
		assertMat4(t, q.ToMat4(), back.ToMat4())
	}
}

func TestQuaternionSlerp(t *testing.T) {
	a := QuaternionIdentity()
	b := QuaternionFromAxisAngle(Vec3Up, math32.Pi/2)
	half := a.Slerp(b, 0.5)
	expected := QuaternionFromAxisAngle(Vec3Up, math32.Pi/4)
	assert.True(t, half.EqualsWithEpsilon(expected, tol), "got %v", half)
}

func BenchmarkVec3Add(b *testing.B) {
	v1 := NewVec3(1, 2, 3)
	v2 := NewVec3(4, 5, 6)

	for i := 0; i < b.N; i++ {
		_ = v1.Add(v2)
	}
}

func BenchmarkMat4Mul(b *testing.B) {
	m1 := sampleMatrix()
	m2 := Mat4Identity()

	for i := 0; i < b.N; i++ {
		_ = m1.Mul(m2)
	}
}

func BenchmarkComputeCompose(b *testing.B) {
	q := QuaternionRotationYawPitchRoll(0.3, -0.7, 1.1)
	for i := 0; i < b.N; i++ {
		_ = Mat4Compose(Vec3One, q, Vec3Zero)
	}
}
