package math

// Vec2 holds texture coordinates and two-component uniforms.
type Vec2 struct {
	X, Y float32
}

func Vec2FromSlice(s []float32, offset int) Vec2 {
	return Vec2{X: s[offset], Y: s[offset+1]}
}

func (v Vec2) Add(other Vec2) Vec2 {
	return Vec2{X: v.X + other.X, Y: v.Y + other.Y}
}

func (v Vec2) Sub(other Vec2) Vec2 {
	return Vec2{X: v.X - other.X, Y: v.Y - other.Y}
}

func (v Vec2) Scale(f float32) Vec2 {
	return Vec2{X: v.X * f, Y: v.Y * f}
}

// Cross is the z component of the 3D cross product of v and other.
func (v Vec2) Cross(other Vec2) float32 {
	return v.X*other.Y - other.X*v.Y
}
