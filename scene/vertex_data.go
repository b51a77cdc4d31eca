package scene

import (
	"errors"
	"fmt"
	"slices"

	"render-core/engine"
	"render-core/math"
)

var (
	ErrNoPositions     = errors.New("vertex data has no positions")
	ErrInvalidGeometry = errors.New("invalid geometry")
)

// VertexData is the CPU side of a mesh: flat attribute arrays plus indices.
type VertexData struct {
	Positions []float32
	Normals   []float32
	Tangents  []float32
	UVs       []float32
	UVs2      []float32
	Colors    []float32
	Indices   []uint32
}

// Set stores data under the attribute kind it belongs to.
func (vd *VertexData) Set(data []float32, kind string) {
	if p := vd.field(kind); p != nil {
		*p = data
	}
}

// Get returns the array stored for kind, or nil.
func (vd *VertexData) Get(kind string) []float32 {
	if p := vd.field(kind); p != nil {
		return *p
	}
	return nil
}

func (vd *VertexData) field(kind string) *[]float32 {
	switch kind {
	case engine.PositionKind:
		return &vd.Positions
	case engine.NormalKind:
		return &vd.Normals
	case engine.TangentKind:
		return &vd.Tangents
	case engine.UVKind:
		return &vd.UVs
	case engine.UV2Kind:
		return &vd.UVs2
	case engine.ColorKind:
		return &vd.Colors
	}
	return nil
}

// vertexDataKinds lists the kinds VertexData carries, positions first so
// that geometry extents are known before the other buffers arrive.
var vertexDataKinds = []string{
	engine.PositionKind, engine.NormalKind, engine.TangentKind,
	engine.UVKind, engine.UV2Kind, engine.ColorKind,
}

// Validate checks that every attribute describes the same number of vertices
// and that indices stay in range.
func (vd *VertexData) Validate() error {
	if len(vd.Positions) == 0 {
		return ErrNoPositions
	}
	if len(vd.Positions)%3 != 0 {
		return fmt.Errorf("%w: %d position floats", ErrInvalidGeometry, len(vd.Positions))
	}
	count := len(vd.Positions) / 3
	for _, kind := range vertexDataKinds[1:] {
		data := vd.Get(kind)
		if data == nil {
			continue
		}
		stride, _ := engine.DeduceStride(kind)
		if len(data) != count*stride {
			return fmt.Errorf("%w: %s has %d floats for %d vertices", ErrInvalidGeometry, kind, len(data), count)
		}
	}
	for i, idx := range vd.Indices {
		if int(idx) >= count {
			return fmt.Errorf("%w: index %d at %d out of range", ErrInvalidGeometry, idx, i)
		}
	}
	return nil
}

// ApplyToMesh gives mesh a fresh geometry holding this data, or updates the
// geometry it already has.
func (vd *VertexData) ApplyToMesh(mesh *Mesh, updatable bool) error {
	if g := mesh.Geometry(); g != nil {
		return vd.ApplyToGeometry(g, updatable)
	}
	g := NewGeometry(mesh.scene.nextGeometryID(mesh.Name), mesh.scene, nil, updatable)
	if err := vd.ApplyToGeometry(g, updatable); err != nil {
		g.Dispose()
		return err
	}
	g.ApplyToMesh(mesh)
	return nil
}

// ApplyToGeometry replaces the data of every kind present in vd.
func (vd *VertexData) ApplyToGeometry(g *Geometry, updatable bool) error {
	for _, kind := range vertexDataKinds {
		data := vd.Get(kind)
		if data == nil {
			continue
		}
		if err := g.SetVerticesData(kind, data, updatable, 0); err != nil {
			return err
		}
	}
	if vd.Indices != nil {
		g.SetIndices(vd.Indices, 0, updatable)
	}
	return nil
}

// UpdateGeometry pushes vd into the existing buffers of g without
// recreating them.
func (vd *VertexData) UpdateGeometry(g *Geometry) {
	for _, kind := range vertexDataKinds {
		if data := vd.Get(kind); data != nil {
			g.UpdateVerticesData(kind, data, kind == engine.PositionKind)
		}
	}
	if vd.Indices != nil {
		g.UpdateIndices(vd.Indices, 0, false)
	}
}

// ExtractFromMesh copies the data of mesh's geometry.
func ExtractFromMesh(mesh *Mesh, copyWhenShared, forceCopy bool) *VertexData {
	g := mesh.Geometry()
	if g == nil {
		return &VertexData{}
	}
	return ExtractFromGeometry(g, copyWhenShared, forceCopy)
}

func ExtractFromGeometry(g *Geometry, copyWhenShared, forceCopy bool) *VertexData {
	vd := &VertexData{}
	for _, kind := range vertexDataKinds {
		if g.IsVerticesDataPresent(kind) {
			vd.Set(g.VerticesData(kind, copyWhenShared, forceCopy), kind)
		}
	}
	vd.Indices = g.Indices(copyWhenShared, forceCopy)
	return vd
}

// Transform applies m to positions and normals in place.
func (vd *VertexData) Transform(m math.Mat4) {
	for i := 0; i+2 < len(vd.Positions); i += 3 {
		p := math.Vec3FromSlice(vd.Positions, i).TransformCoordinates(m)
		vd.Positions[i], vd.Positions[i+1], vd.Positions[i+2] = p.X, p.Y, p.Z
	}
	for i := 0; i+2 < len(vd.Normals); i += 3 {
		n := math.Vec3FromSlice(vd.Normals, i).TransformNormal(m).Normalize()
		vd.Normals[i], vd.Normals[i+1], vd.Normals[i+2] = n.X, n.Y, n.Z
	}
	for i := 0; i+3 < len(vd.Tangents); i += 4 {
		t := math.Vec3FromSlice(vd.Tangents, i).TransformNormal(m).Normalize()
		vd.Tangents[i], vd.Tangents[i+1], vd.Tangents[i+2] = t.X, t.Y, t.Z
	}
}

// Clone returns a deep copy.
func (vd *VertexData) Clone() *VertexData {
	return &VertexData{
		Positions: slices.Clone(vd.Positions),
		Normals:   slices.Clone(vd.Normals),
		Tangents:  slices.Clone(vd.Tangents),
		UVs:       slices.Clone(vd.UVs),
		UVs2:      slices.Clone(vd.UVs2),
		Colors:    slices.Clone(vd.Colors),
		Indices:   slices.Clone(vd.Indices),
	}
}

// ComputeNormals returns smooth per-vertex normals by accumulating face
// normals of the indexed triangles.
func ComputeNormals(positions []float32, indices []uint32) []float32 {
	normals := make([]float32, len(positions))
	for i := 0; i+2 < len(indices); i += 3 {
		i0, i1, i2 := int(indices[i])*3, int(indices[i+1])*3, int(indices[i+2])*3
		p0 := math.Vec3FromSlice(positions, i0)
		p1 := math.Vec3FromSlice(positions, i1)
		p2 := math.Vec3FromSlice(positions, i2)

		face := p1.Sub(p0).Cross(p2.Sub(p0))
		for _, off := range [3]int{i0, i1, i2} {
			normals[off] += face.X
			normals[off+1] += face.Y
			normals[off+2] += face.Z
		}
	}
	for i := 0; i+2 < len(normals); i += 3 {
		n := math.Vec3FromSlice(normals, i).Normalize()
		normals[i], normals[i+1], normals[i+2] = n.X, n.Y, n.Z
	}
	return normals
}

// ComputeNormals fills Normals from the positions and indices.
func (vd *VertexData) ComputeNormals() {
	vd.Normals = ComputeNormals(vd.Positions, vd.Indices)
}
