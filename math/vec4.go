package math

// Vec4 is a homogeneous coordinate, a plane or an RGBA value.
type Vec4 struct {
	X, Y, Z, W float32
}

func Vec4FromSlice(s []float32, offset int) Vec4 {
	return Vec4{X: s[offset], Y: s[offset+1], Z: s[offset+2], W: s[offset+3]}
}

func (v Vec4) Add(other Vec4) Vec4 {
	return Vec4{X: v.X + other.X, Y: v.Y + other.Y, Z: v.Z + other.Z, W: v.W + other.W}
}

func (v Vec4) Sub(other Vec4) Vec4 {
	return Vec4{X: v.X - other.X, Y: v.Y - other.Y, Z: v.Z - other.Z, W: v.W - other.W}
}

func (v Vec4) Scale(f float32) Vec4 {
	return Vec4{X: v.X * f, Y: v.Y * f, Z: v.Z * f, W: v.W * f}
}

// MulMat transforms v as a row vector: v × m.
func (v Vec4) MulMat(m Mat4) Vec4 {
	var r [4]float32
	for j := range 4 {
		r[j] = v.X*m[0][j] + v.Y*m[1][j] + v.Z*m[2][j] + v.W*m[3][j]
	}
	return Vec4{X: r[0], Y: r[1], Z: r[2], W: r[3]}
}

func (v Vec4) Dot(other Vec4) float32 {
	return v.X*other.X + v.Y*other.Y + v.Z*other.Z + v.W*other.W
}

func (v Vec4) ToVec3() Vec3 {
	return Vec3{X: v.X, Y: v.Y, Z: v.Z}
}

// ToVec3DivW performs the perspective divide. A zero W leaves XYZ as is.
func (v Vec4) ToVec3DivW() Vec3 {
	if v.W == 0 {
		return v.ToVec3()
	}
	inv := 1 / v.W
	return Vec3{X: v.X * inv, Y: v.Y * inv, Z: v.Z * inv}
}
