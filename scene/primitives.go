package scene

import (
	"github.com/chewxy/math32"

	"render-core/math"
)

// vertexBuilder accumulates interleaved attributes into a VertexData.
type vertexBuilder struct {
	vd VertexData
}

func (b *vertexBuilder) add(p, n math.Vec3, u, v float32) uint32 {
	index := uint32(len(b.vd.Positions) / 3)
	b.vd.Positions = append(b.vd.Positions, p.X, p.Y, p.Z)
	b.vd.Normals = append(b.vd.Normals, n.X, n.Y, n.Z)
	b.vd.UVs = append(b.vd.UVs, u, v)
	return index
}

func (b *vertexBuilder) triangle(a, c, d uint32) {
	b.vd.Indices = append(b.vd.Indices, a, c, d)
}

// quad adds two triangles for the corners a b c d given counter clockwise.
func (b *vertexBuilder) quad(a, c, d, e uint32) {
	b.vd.Indices = append(b.vd.Indices, a, c, d, d, e, a)
}

func (b *vertexBuilder) data() *VertexData {
	out := b.vd
	return &out
}

// CreateBoxData builds a box centered on the origin with one quad per face
// so each face has its own normals.
func CreateBoxData(width, height, depth float32) *VertexData {
	hw, hh, hd := width/2, height/2, depth/2
	faces := []struct {
		normal, u, v math.Vec3
		extent       float32
		uExt, vExt   float32
	}{
		{math.Vec3Front, math.Vec3Right, math.Vec3Up, hd, hw, hh},
		{math.Vec3Back, math.Vec3Left, math.Vec3Up, hd, hw, hh},
		{math.Vec3Up, math.Vec3Right, math.Vec3Back, hh, hw, hd},
		{math.Vec3Down, math.Vec3Right, math.Vec3Front, hh, hw, hd},
		{math.Vec3Right, math.Vec3Back, math.Vec3Up, hw, hd, hh},
		{math.Vec3Left, math.Vec3Front, math.Vec3Up, hw, hd, hh},
	}

	var b vertexBuilder
	for _, f := range faces {
		center := f.normal.Mul(f.extent)
		u := f.u.Mul(f.uExt)
		v := f.v.Mul(f.vExt)
		i0 := b.add(center.Sub(u).Sub(v), f.normal, 0, 0)
		i1 := b.add(center.Add(u).Sub(v), f.normal, 1, 0)
		i2 := b.add(center.Add(u).Add(v), f.normal, 1, 1)
		i3 := b.add(center.Sub(u).Add(v), f.normal, 0, 1)
		b.quad(i0, i1, i2, i3)
	}
	return b.data()
}

// CreatePlaneData builds a vertical plane in XY facing -Z.
func CreatePlaneData(width, height float32) *VertexData {
	hw, hh := width/2, height/2
	var b vertexBuilder
	i0 := b.add(math.Vec3{X: -hw, Y: -hh}, math.Vec3Back, 0, 0)
	i1 := b.add(math.Vec3{X: hw, Y: -hh}, math.Vec3Back, 1, 0)
	i2 := b.add(math.Vec3{X: hw, Y: hh}, math.Vec3Back, 1, 1)
	i3 := b.add(math.Vec3{X: -hw, Y: hh}, math.Vec3Back, 0, 1)
	b.quad(i0, i1, i2, i3)
	return b.data()
}

// CreateGroundData builds a subdivided horizontal plane facing up.
func CreateGroundData(width, depth float32, subdivisions int) *VertexData {
	subdivisions = max(subdivisions, 1)
	var b vertexBuilder
	for z := 0; z <= subdivisions; z++ {
		for x := 0; x <= subdivisions; x++ {
			u := float32(x) / float32(subdivisions)
			v := float32(z) / float32(subdivisions)
			b.add(math.Vec3{X: (u - 0.5) * width, Z: (v - 0.5) * depth}, math.Vec3Up, u, v)
		}
	}
	row := uint32(subdivisions + 1)
	for z := 0; z < subdivisions; z++ {
		for x := 0; x < subdivisions; x++ {
			tl := uint32(z)*row + uint32(x)
			bl := tl + row
			b.triangle(tl, bl, tl+1)
			b.triangle(tl+1, bl, bl+1)
		}
	}
	return b.data()
}

// CreateSphereData builds a UV sphere.
func CreateSphereData(radius float32, segments, rings int) *VertexData {
	segments = max(segments, 3)
	rings = max(rings, 2)

	var b vertexBuilder
	for ring := 0; ring <= rings; ring++ {
		sinPhi, cosPhi := math32.Sincos(float32(ring) * math32.Pi / float32(rings))
		for seg := 0; seg <= segments; seg++ {
			sinTheta, cosTheta := math32.Sincos(float32(seg) * 2 * math32.Pi / float32(segments))
			normal := math.Vec3{X: sinPhi * cosTheta, Y: cosPhi, Z: sinPhi * sinTheta}
			b.add(normal.Mul(radius), normal, float32(seg)/float32(segments), float32(ring)/float32(rings))
		}
	}
	row := uint32(segments + 1)
	for ring := 0; ring < rings; ring++ {
		for seg := 0; seg < segments; seg++ {
			current := uint32(ring)*row + uint32(seg)
			next := current + row
			b.triangle(current, next, current+1)
			b.triangle(current+1, next, next+1)
		}
	}
	return b.data()
}

// CreateCylinderData builds a capped cylinder along Y.
func CreateCylinderData(radius, height float32, segments int) *VertexData {
	segments = max(segments, 3)
	half := height / 2

	var b vertexBuilder
	for i := 0; i <= segments; i++ {
		sin, cos := math32.Sincos(float32(i) * 2 * math32.Pi / float32(segments))
		normal := math.Vec3{X: cos, Z: sin}
		u := float32(i) / float32(segments)
		b.add(math.Vec3{X: cos * radius, Y: -half, Z: sin * radius}, normal, u, 0)
		b.add(math.Vec3{X: cos * radius, Y: half, Z: sin * radius}, normal, u, 1)
	}
	for i := 0; i < segments; i++ {
		base := uint32(i * 2)
		b.triangle(base, base+1, base+2)
		b.triangle(base+2, base+1, base+3)
	}

	addCap := func(y float32, normal math.Vec3, flip bool) {
		center := b.add(math.Vec3{Y: y}, normal, 0.5, 0.5)
		first := uint32(len(b.vd.Positions) / 3)
		for i := 0; i <= segments; i++ {
			sin, cos := math32.Sincos(float32(i) * 2 * math32.Pi / float32(segments))
			b.add(math.Vec3{X: cos * radius, Y: y, Z: sin * radius}, normal, cos*0.5+0.5, sin*0.5+0.5)
		}
		for i := uint32(0); i < uint32(segments); i++ {
			if flip {
				b.triangle(center, first+i+1, first+i)
			} else {
				b.triangle(center, first+i, first+i+1)
			}
		}
	}
	addCap(half, math.Vec3Up, false)
	addCap(-half, math.Vec3Down, true)
	return b.data()
}

// CreateTorusData builds a torus lying in the XZ plane.
func CreateTorusData(majorRadius, minorRadius float32, majorSegments, minorSegments int) *VertexData {
	majorSegments = max(majorSegments, 3)
	minorSegments = max(minorSegments, 3)

	var b vertexBuilder
	for i := 0; i <= majorSegments; i++ {
		sinTheta, cosTheta := math32.Sincos(float32(i) * 2 * math32.Pi / float32(majorSegments))
		for j := 0; j <= minorSegments; j++ {
			sinPhi, cosPhi := math32.Sincos(float32(j) * 2 * math32.Pi / float32(minorSegments))
			ring := majorRadius + minorRadius*cosPhi
			normal := math.Vec3{X: cosPhi * cosTheta, Y: sinPhi, Z: cosPhi * sinTheta}
			b.add(math.Vec3{X: ring * cosTheta, Y: minorRadius * sinPhi, Z: ring * sinTheta}, normal,
				float32(i)/float32(majorSegments), float32(j)/float32(minorSegments))
		}
	}
	row := uint32(minorSegments + 1)
	for i := 0; i < majorSegments; i++ {
		for j := 0; j < minorSegments; j++ {
			current := uint32(i)*row + uint32(j)
			next := current + row
			b.triangle(current, next, current+1)
			b.triangle(current+1, next, next+1)
		}
	}
	return b.data()
}

// NewMeshFromVertexData creates a mesh owning a new geometry built from vd.
func NewMeshFromVertexData(name string, vd *VertexData, scene *Scene, updatable bool) (*Mesh, error) {
	if err := vd.Validate(); err != nil {
		return nil, err
	}
	mesh := NewMesh(name, scene)
	if err := vd.ApplyToMesh(mesh, updatable); err != nil {
		mesh.Dispose(false)
		return nil, err
	}
	return mesh, nil
}

func CreateBox(name string, size float32, scene *Scene) (*Mesh, error) {
	return NewMeshFromVertexData(name, CreateBoxData(size, size, size), scene, false)
}

func CreatePlane(name string, size float32, scene *Scene) (*Mesh, error) {
	return NewMeshFromVertexData(name, CreatePlaneData(size, size), scene, false)
}

func CreateGround(name string, width, depth float32, subdivisions int, scene *Scene) (*Mesh, error) {
	return NewMeshFromVertexData(name, CreateGroundData(width, depth, subdivisions), scene, false)
}

func CreateSphere(name string, radius float32, segments int, scene *Scene) (*Mesh, error) {
	return NewMeshFromVertexData(name, CreateSphereData(radius, segments, segments/2), scene, false)
}

func CreateCylinder(name string, radius, height float32, segments int, scene *Scene) (*Mesh, error) {
	return NewMeshFromVertexData(name, CreateCylinderData(radius, height, segments), scene, false)
}

func CreateTorus(name string, majorRadius, minorRadius float32, segments int, scene *Scene) (*Mesh, error) {
	return NewMeshFromVertexData(name, CreateTorusData(majorRadius, minorRadius, segments, segments/2), scene, false)
}
