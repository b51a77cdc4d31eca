package core

import (
	"render-core/math"
)

type Color struct {
	R, G, B, A float32
}

var (
	ColorWhite       = Color{1, 1, 1, 1}
	ColorBlack       = Color{0, 0, 0, 1}
	ColorTransparent = Color{0, 0, 0, 0}
	ColorRed         = Color{1, 0, 0, 1}
	ColorGreen       = Color{0, 1, 0, 1}
	ColorBlue        = Color{0, 0, 1, 1}
)

func NewColor(r, g, b, a float32) Color {
	return Color{R: r, G: g, B: b, A: a}
}

func (c Color) Vec4() math.Vec4 {
	return math.Vec4{X: c.R, Y: c.G, Z: c.B, W: c.A}
}

// Lerp blends from c to other by t.
func (c Color) Lerp(other Color, t float32) Color {
	return Color{
		R: c.R + (other.R-c.R)*t,
		G: c.G + (other.G-c.G)*t,
		B: c.B + (other.B-c.B)*t,
		A: c.A + (other.A-c.A)*t,
	}
}

// Scale multiplies the RGB channels by f.
func (c Color) Scale(f float32) Color {
	return Color{R: c.R * f, G: c.G * f, B: c.B * f, A: c.A}
}

// Viewport is expressed in normalized [0, 1] coordinates of the render target.
type Viewport struct {
	X, Y, Width, Height float32
}

func FullViewport() Viewport {
	return Viewport{X: 0, Y: 0, Width: 1, Height: 1}
}

// ToPixels converts the viewport to integer pixel coordinates for a target size.
func (v Viewport) ToPixels(targetWidth, targetHeight int) (x, y, width, height int32) {
	return int32(v.X * float32(targetWidth)),
		int32(v.Y * float32(targetHeight)),
		int32(v.Width * float32(targetWidth)),
		int32(v.Height * float32(targetHeight))
}

type ClearValue struct {
	Color   Color
	Depth   float32
	Stencil int32
}

func DefaultClearValue() ClearValue {
	return ClearValue{Color: Color{0.2, 0.2, 0.3, 1}, Depth: 1, Stencil: 0}
}
