package scene

import (
	"github.com/chewxy/math32"

	"render-core/math"
)

// BoundingInfo pairs a local box with its world-space box and sphere. Update
// refreshes the world values from a world matrix.
type BoundingInfo struct {
	Local AABB
	World AABB

	CenterWorld math.Vec3
	RadiusWorld float32
}

func NewBoundingInfo(minimum, maximum math.Vec3) *BoundingInfo {
	b := &BoundingInfo{}
	b.ReConstruct(minimum, maximum)
	return b
}

// ReConstruct resets the local box and clears the world values to it.
func (b *BoundingInfo) ReConstruct(minimum, maximum math.Vec3) {
	b.Local = AABB{Min: minimum, Max: maximum}
	b.Update(math.Mat4Identity())
}

func (b *BoundingInfo) Minimum() math.Vec3 { return b.Local.Min }
func (b *BoundingInfo) Maximum() math.Vec3 { return b.Local.Max }

// Update moves the box into world space. The sphere radius is scaled by the
// largest axis scale of world.
func (b *BoundingInfo) Update(world math.Mat4) {
	b.World = transformAABB(b.Local, world)
	b.CenterWorld = b.Local.Center().TransformCoordinates(world)

	localRadius := b.Local.Max.Sub(b.Local.Min).Length() * 0.5
	scaleX := math.Vec3{X: world[0][0], Y: world[0][1], Z: world[0][2]}.Length()
	scaleY := math.Vec3{X: world[1][0], Y: world[1][1], Z: world[1][2]}.Length()
	scaleZ := math.Vec3{X: world[2][0], Y: world[2][1], Z: world[2][2]}.Length()
	b.RadiusWorld = localRadius * math32.Max(scaleX, math32.Max(scaleY, scaleZ))
}

// IsInFrustum tests the sphere first and falls back to the box.
func (b *BoundingInfo) IsInFrustum(f *Frustum) bool {
	for _, p := range f.Planes {
		if p.DistanceTo(b.CenterWorld) <= -b.RadiusWorld {
			return false
		}
	}
	return b.World.IntersectsFrustum(f)
}

// extentOf returns the bounds of the xyz triplets in positions, skipping
// stride floats per vertex. The bias grows the box by bias.X relative and
// bias.Y absolute.
func extentOf(positions []float32, start, count, stride int, bias *math.Vec2) AABB {
	if stride <= 0 {
		stride = 3
	}
	inf := math32.Inf(1)
	out := AABB{
		Min: math.Vec3{X: inf, Y: inf, Z: inf},
		Max: math.Vec3{X: -inf, Y: -inf, Z: -inf},
	}
	for i := start; i < start+count; i++ {
		off := i * stride
		if off+2 >= len(positions) {
			break
		}
		p := math.Vec3FromSlice(positions, off)
		out.Min = out.Min.Min(p)
		out.Max = out.Max.Max(p)
	}
	if out.Min.X > out.Max.X {
		return AABB{}
	}
	if bias != nil {
		out.Min = out.Min.Sub(math.Vec3{
			X: out.Min.X*bias.X + bias.Y,
			Y: out.Min.Y*bias.X + bias.Y,
			Z: out.Min.Z*bias.X + bias.Y,
		})
		out.Max = out.Max.Add(math.Vec3{
			X: out.Max.X*bias.X + bias.Y,
			Y: out.Max.Y*bias.X + bias.Y,
			Z: out.Max.Z*bias.X + bias.Y,
		})
	}
	return out
}
