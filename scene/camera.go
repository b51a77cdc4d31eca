package scene

import (
	"github.com/chewxy/math32"

	"render-core/math"
)

// Camera projection modes.
const (
	PerspectiveCamera = iota
	OrthographicCamera
)

// Camera is a transform node that produces view and projection matrices.
type Camera struct {
	TransformNode

	Mode int
	// Fov is the vertical field of view in radians.
	Fov         float32
	MinZ        float32
	MaxZ        float32
	AspectRatio float32
	UpVector    math.Vec3

	OrthoLeft, OrthoRight, OrthoBottom, OrthoTop float32

	target    math.Vec3
	hasTarget bool
}

// NewCamera creates a perspective camera at position. The first camera added
// to a scene becomes its active camera.
func NewCamera(name string, position math.Vec3, scene *Scene) *Camera {
	c := &Camera{
		Fov:         0.8,
		MinZ:        1,
		MaxZ:        10000,
		AspectRatio: 1,
		UpVector:    math.Vec3Up,
	}
	c.init(name, scene)
	c.position = position
	c.onDisposing = func() { scene.removeCamera(c) }
	scene.addCamera(c)
	return c
}

// SetTarget makes the camera look at target regardless of its rotation.
func (c *Camera) SetTarget(target math.Vec3) {
	c.target = target
	c.hasTarget = true
}

func (c *Camera) Target() (math.Vec3, bool) { return c.target, c.hasTarget }

func (c *Camera) ClearTarget() { c.hasTarget = false }

// UpdateAspectRatio follows the render target size.
func (c *Camera) UpdateAspectRatio(width, height float32) {
	if height > 0 {
		c.AspectRatio = width / height
	}
}

// GlobalPosition is the camera position in world space.
func (c *Camera) GlobalPosition() math.Vec3 {
	return c.WorldMatrix().Translation()
}

func (c *Camera) ViewMatrix() math.Mat4 {
	if c.hasTarget {
		eye := c.GlobalPosition()
		target := c.target
		if c.parent != nil {
			target = target.TransformCoordinates(c.parent.WorldMatrix())
		}
		return math.Mat4LookAtLH(eye, target, c.UpVector)
	}
	return c.WorldMatrix().Inverse()
}

func (c *Camera) ProjectionMatrix() math.Mat4 {
	if c.Mode == OrthographicCamera {
		return math.Mat4OrthoOffCenterLH(c.OrthoLeft, c.OrthoRight, c.OrthoBottom, c.OrthoTop, c.MinZ, c.MaxZ)
	}
	return math.Mat4PerspectiveFovLH(c.Fov, c.AspectRatio, c.MinZ, c.MaxZ)
}

// ViewProjectionMatrix maps world space to clip space.
func (c *Camera) ViewProjectionMatrix() math.Mat4 {
	return c.ViewMatrix().Mul(c.ProjectionMatrix())
}

// Frustum returns the clip planes of the current view.
func (c *Camera) Frustum() Frustum {
	return FrustumFromViewProjection(c.ViewProjectionMatrix())
}

// ArcRotateCamera orbits a target point. Alpha is the longitudinal angle,
// Beta the latitudinal one measured from the up axis.
type ArcRotateCamera struct {
	*Camera

	Alpha  float32
	Beta   float32
	Radius float32

	LowerRadiusLimit float32
	UpperRadiusLimit float32
}

// betaLimit keeps the camera off the poles where LookAt degenerates.
const betaLimit float32 = 0.01

func NewArcRotateCamera(name string, alpha, beta, radius float32, target math.Vec3, scene *Scene) *ArcRotateCamera {
	c := &ArcRotateCamera{
		Camera:           NewCamera(name, math.Vec3Zero, scene),
		Alpha:            alpha,
		Beta:             beta,
		Radius:           radius,
		LowerRadiusLimit: 0.1,
	}
	c.SetTarget(target)
	c.RebuildPosition()
	return c
}

// RebuildPosition places the camera on its sphere around the target.
func (c *ArcRotateCamera) RebuildPosition() {
	c.Beta = min(max(c.Beta, betaLimit), math32.Pi-betaLimit)
	c.Radius = max(c.Radius, c.LowerRadiusLimit)
	if c.UpperRadiusLimit > 0 {
		c.Radius = min(c.Radius, c.UpperRadiusLimit)
	}

	sinAlpha, cosAlpha := math32.Sincos(c.Alpha)
	sinBeta, cosBeta := math32.Sincos(c.Beta)
	offset := math.Vec3{
		X: c.Radius * cosAlpha * sinBeta,
		Y: c.Radius * cosBeta,
		Z: c.Radius * sinAlpha * sinBeta,
	}
	c.SetPosition(c.target.Add(offset))
}

func (c *ArcRotateCamera) Orbit(deltaAlpha, deltaBeta float32) {
	c.Alpha += deltaAlpha
	c.Beta += deltaBeta
	c.RebuildPosition()
}

func (c *ArcRotateCamera) Zoom(delta float32) {
	c.Radius += delta
	c.RebuildPosition()
}
