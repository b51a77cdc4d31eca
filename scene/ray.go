package scene

import (
	"github.com/chewxy/math32"

	"render-core/engine"
	"render-core/math"
)

// Ray is a half line used for picking.
type Ray struct {
	Origin    math.Vec3
	Direction math.Vec3
	// Length bounds hits; zero means unbounded.
	Length float32
}

// PickingInfo describes the closest hit of a pick.
type PickingInfo struct {
	Hit         bool
	Distance    float32
	PickedMesh  *Mesh
	PickedPoint math.Vec3
	// Normal is the world space normal of the hit face.
	Normal math.Vec3
	FaceID int
}

// CreatePickingRay builds the world space ray through the pixel (x, y) of a
// width by height viewport, y growing downwards.
func CreatePickingRay(x, y, width, height float32, camera *Camera) Ray {
	ndcX := 2*x/width - 1
	ndcY := 1 - 2*y/height
	inv := camera.ViewProjectionMatrix().Inverse()

	near := math.Vec4{X: ndcX, Y: ndcY, Z: -1, W: 1}.MulMat(inv).ToVec3DivW()
	far := math.Vec4{X: ndcX, Y: ndcY, Z: 1, W: 1}.MulMat(inv).ToVec3DivW()
	return Ray{Origin: near, Direction: far.Sub(near).Normalize()}
}

// Transform returns the ray expressed through m.
func (r Ray) Transform(m math.Mat4) Ray {
	origin := r.Origin.TransformCoordinates(m)
	dir := r.Direction.TransformNormal(m)
	out := Ray{Origin: origin, Direction: dir.Normalize()}
	if r.Length > 0 {
		out.Length = r.Length * dir.Length()
	}
	return out
}

// IntersectsAABB returns the entry distance of the ray into box.
func (r Ray) IntersectsAABB(box AABB) (float32, bool) {
	tmin, tmax := float32(0), math32.Inf(1)
	origin := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float32{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float32{box.Min.X, box.Min.Y, box.Min.Z}
	hi := [3]float32{box.Max.X, box.Max.Y, box.Max.Z}

	for axis := range 3 {
		if math32.Abs(dir[axis]) < 1e-7 {
			if origin[axis] < lo[axis] || origin[axis] > hi[axis] {
				return 0, false
			}
			continue
		}
		inv := 1 / dir[axis]
		t1 := (lo[axis] - origin[axis]) * inv
		t2 := (hi[axis] - origin[axis]) * inv
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tmin = max(tmin, t1)
		tmax = min(tmax, t2)
		if tmin > tmax {
			return 0, false
		}
	}
	if r.Length > 0 && tmin > r.Length {
		return 0, false
	}
	return tmin, true
}

// IntersectsTriangle returns the distance to the triangle with the
// Möller-Trumbore test.
func (r Ray) IntersectsTriangle(v0, v1, v2 math.Vec3) (float32, bool) {
	const epsilon = 1e-7

	edge1 := v1.Sub(v0)
	edge2 := v2.Sub(v0)
	h := r.Direction.Cross(edge2)
	a := edge1.Dot(h)
	if a > -epsilon && a < epsilon {
		return 0, false
	}

	f := 1 / a
	s := r.Origin.Sub(v0)
	u := f * s.Dot(h)
	if u < 0 || u > 1 {
		return 0, false
	}
	q := s.Cross(edge1)
	v := f * r.Direction.Dot(q)
	if v < 0 || u+v > 1 {
		return 0, false
	}

	t := f * edge2.Dot(q)
	if t <= epsilon || (r.Length > 0 && t > r.Length) {
		return 0, false
	}
	return t, true
}

// Intersects tests the ray against the triangles of mesh in world space.
func (r Ray) Intersects(mesh *Mesh) PickingInfo {
	var info PickingInfo
	g := mesh.geometry
	if g == nil || mesh.boundingInfo == nil {
		return info
	}
	world := mesh.WorldMatrix()
	if _, ok := r.IntersectsAABB(mesh.boundingInfo.World); !ok {
		return info
	}

	positions := g.VerticesData(engine.PositionKind, false, false)
	indices := g.Indices(false, false)
	count := len(indices)
	if indices == nil {
		count = len(positions) / 3
	}
	vertex := func(i int) math.Vec3 {
		idx := i
		if indices != nil {
			idx = int(indices[i])
		}
		return math.Vec3FromSlice(positions, idx*3).TransformCoordinates(world)
	}

	for i := 0; i+2 < count; i += 3 {
		v0, v1, v2 := vertex(i), vertex(i+1), vertex(i+2)
		t, hit := r.IntersectsTriangle(v0, v1, v2)
		if !hit || (info.Hit && t >= info.Distance) {
			continue
		}
		info = PickingInfo{
			Hit:         true,
			Distance:    t,
			PickedMesh:  mesh,
			PickedPoint: r.Origin.Add(r.Direction.Mul(t)),
			Normal:      v1.Sub(v0).Cross(v2.Sub(v0)).Normalize(),
			FaceID:      i / 3,
		}
	}
	return info
}

// PickWithRay returns the closest visible, enabled mesh hit by ray. predicate
// may further restrict the candidates.
func (s *Scene) PickWithRay(ray Ray, predicate func(*Mesh) bool) PickingInfo {
	var best PickingInfo
	for _, m := range s.meshes {
		if !m.IsVisible || !m.IsEnabled(true) || (predicate != nil && !predicate(m)) {
			continue
		}
		if m.drawsLines() {
			continue
		}
		m.ComputeWorldMatrix(false)
		info := ray.Intersects(m)
		if info.Hit && (!best.Hit || info.Distance < best.Distance) {
			best = info
		}
	}
	return best
}

// Pick casts a ray from the active camera through the pixel (x, y).
func (s *Scene) Pick(x, y, width, height float32, predicate func(*Mesh) bool) PickingInfo {
	if s.ActiveCamera == nil {
		return PickingInfo{}
	}
	return s.PickWithRay(CreatePickingRay(x, y, width, height, s.ActiveCamera), predicate)
}
