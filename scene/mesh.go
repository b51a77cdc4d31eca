package scene

import (
	"render-core/engine"
	"render-core/materials"
	"render-core/math"
)

// DrawModeMaterial draws with the fill mode of the mesh material.
const DrawModeMaterial = -1

// Mesh is a transform node drawn with a geometry and a material.
type Mesh struct {
	TransformNode

	// DrawMode overrides the material fill mode with an engine fill or draw
	// mode, for example engine.LineListDrawMode for line meshes.
	DrawMode  int
	IsVisible bool
	// AlwaysSelectAsActiveMesh skips frustum culling.
	AlwaysSelectAsActiveMesh bool

	geometry     *Geometry
	material     *materials.Material
	boundingInfo *BoundingInfo

	linesIndexBuffer *engine.DataBuffer
	linesIndexCount  int
}

// NewMesh creates an empty mesh registered with scene.
func NewMesh(name string, scene *Scene) *Mesh {
	m := &Mesh{
		DrawMode:  DrawModeMaterial,
		IsVisible: true,
	}
	m.init(name, scene)
	m.onDisposing = m.releaseResources
	m.onWorldMatrixComputed = m.updateBoundingInfo
	scene.addMesh(m)
	return m
}

func (m *Mesh) Geometry() *Geometry { return m.geometry }

func (m *Mesh) Material() *materials.Material { return m.material }

func (m *Mesh) SetMaterial(mat *materials.Material) { m.material = mat }

// BoundingInfo is nil until the mesh has positions.
func (m *Mesh) BoundingInfo() *BoundingInfo { return m.boundingInfo }

func (m *Mesh) setBoundingInfo(b *BoundingInfo) {
	m.boundingInfo = b
	b.Update(m.worldMatrix)
}

func (m *Mesh) updateBoundingInfo() {
	if m.boundingInfo != nil {
		m.boundingInfo.Update(m.worldMatrix)
	}
}

// RefreshBoundingInfo recomputes the local box from the current positions.
func (m *Mesh) RefreshBoundingInfo() {
	if m.geometry == nil {
		return
	}
	data := m.geometry.VerticesData(engine.PositionKind, false, false)
	if data == nil {
		return
	}
	extent := extentOf(data, 0, m.geometry.TotalVertices(), 3, m.geometry.boundingBias)
	m.setBoundingInfo(NewBoundingInfo(extent.Min, extent.Max))
}

// invalidateSubMeshes drops derived index data after the geometry changed.
func (m *Mesh) invalidateSubMeshes() {
	if m.linesIndexBuffer != nil {
		m.scene.Engine().ReleaseBuffer(m.linesIndexBuffer)
		m.linesIndexBuffer = nil
		m.linesIndexCount = 0
	}
}

// IsVerticesDataPresent lets materials pick defines from the mesh layout.
func (m *Mesh) IsVerticesDataPresent(kind string) bool {
	return m.geometry != nil && m.geometry.IsVerticesDataPresent(kind)
}

func (m *Mesh) VerticesData(kind string) []float32 {
	if m.geometry == nil {
		return nil
	}
	return m.geometry.VerticesData(kind, false, false)
}

func (m *Mesh) Indices() []uint32 {
	if m.geometry == nil {
		return nil
	}
	return m.geometry.Indices(false, false)
}

func (m *Mesh) TotalVertices() int {
	if m.geometry == nil {
		return 0
	}
	return m.geometry.TotalVertices()
}

func (m *Mesh) TotalIndices() int {
	if m.geometry == nil {
		return 0
	}
	return m.geometry.TotalIndices()
}

// SetVerticesData stores data on the mesh geometry, creating one when the
// mesh has none.
func (m *Mesh) SetVerticesData(kind string, data []float32, updatable bool) error {
	if m.geometry == nil {
		vd := &VertexData{}
		vd.Set(data, kind)
		return vd.ApplyToMesh(m, updatable)
	}
	return m.geometry.SetVerticesData(kind, data, updatable, 0)
}

func (m *Mesh) UpdateVerticesData(kind string, data []float32, updateExtends bool) {
	if m.geometry != nil {
		m.geometry.UpdateVerticesData(kind, data, updateExtends)
	}
}

// SetIndices stores indices on the mesh geometry, creating one when needed.
func (m *Mesh) SetIndices(indices []uint32, updatable bool) error {
	if m.geometry == nil {
		vd := &VertexData{Indices: indices}
		return vd.ApplyToMesh(m, updatable)
	}
	m.geometry.SetIndices(indices, 0, updatable)
	return nil
}

// IsReady reports whether the geometry is loaded and the material effect for
// this mesh is compiled.
func (m *Mesh) IsReady(uniforms *materials.SceneUniforms) bool {
	if m.geometry == nil || !m.geometry.IsReady() {
		return false
	}
	return m.effectiveMaterial().IsReadyForMesh(m, uniforms)
}

func (m *Mesh) effectiveMaterial() *materials.Material {
	if m.material != nil {
		return m.material
	}
	return m.scene.DefaultMaterial()
}

func (m *Mesh) fillMode(mat *materials.Material) int {
	if m.DrawMode != DrawModeMaterial {
		return m.DrawMode
	}
	return mat.FillMode()
}

// drawsLines reports whether the mesh draws lines or points, which picking
// ignores.
func (m *Mesh) drawsLines() bool {
	switch m.DrawMode {
	case engine.PointListDrawMode, engine.LineListDrawMode, engine.LineLoopDrawMode, engine.LineStripDrawMode:
		return true
	}
	return false
}

// Render binds and draws the mesh. It returns false when something was not
// ready, so the caller can retry next frame.
func (m *Mesh) Render(uniforms *materials.SceneUniforms) bool {
	g := m.geometry
	if g == nil {
		return false
	}
	if !g.IsReady() {
		if err := g.Load(); err != nil {
			m.scene.Logger().Error("delayed geometry load failed", "mesh", m.Name, "error", err)
		}
		return false
	}
	if g.TotalVertices() == 0 {
		return false
	}

	mat := m.effectiveMaterial()
	effect := mat.EffectFor(m, uniforms)
	if effect == nil || !effect.IsReady() {
		return false
	}

	e := m.scene.Engine()
	fillMode := m.fillMode(mat)
	mat.Bind(m.WorldMatrix(), effect, uniforms)
	if m.WorldMatrixDeterminant() < 0 {
		// Mirrored transforms flip the winding of every triangle.
		e.SetState(mat.BackFaceCulling, 0, true, true)
	}

	switch {
	case fillMode == engine.WireFrameFillMode:
		lines, count := m.linesIndices()
		if lines == nil {
			return false
		}
		g.Bind(effect, lines)
		e.DrawElementsType(engine.WireFrameFillMode, 0, count, 0)
	case fillMode == engine.PointFillMode || g.IndexBuffer() == nil:
		g.Bind(effect, nil)
		e.DrawArraysType(fillMode, 0, g.TotalVertices(), 0)
	default:
		g.Bind(effect, nil)
		e.DrawElementsType(fillMode, 0, g.TotalIndices(), 0)
	}
	return true
}

// linesIndices builds, once, an index buffer listing every triangle edge.
func (m *Mesh) linesIndices() (*engine.DataBuffer, int) {
	if m.linesIndexBuffer != nil {
		return m.linesIndexBuffer, m.linesIndexCount
	}
	indices := m.geometry.Indices(false, false)
	if indices == nil {
		total := m.geometry.TotalVertices()
		indices = make([]uint32, total)
		for i := range indices {
			indices[i] = uint32(i)
		}
	}
	lines := make([]uint32, 0, len(indices)*2)
	for i := 0; i+2 < len(indices); i += 3 {
		a, b, c := indices[i], indices[i+1], indices[i+2]
		lines = append(lines, a, b, b, c, c, a)
	}
	if len(lines) == 0 {
		return nil, 0
	}
	m.linesIndexBuffer = m.scene.Engine().CreateIndexBuffer(lines, false)
	m.linesIndexCount = len(lines)
	return m.linesIndexBuffer, m.linesIndexCount
}

// Clone creates a mesh sharing this mesh's geometry and material.
func (m *Mesh) Clone(name string, parent *TransformNode) *Mesh {
	clone := NewMesh(name, m.scene)
	clone.position = m.position
	clone.rotation = m.rotation
	clone.rotationQuaternion = m.rotationQuaternion
	clone.hasQuaternion = m.hasQuaternion
	clone.scaling = m.scaling
	clone.billboardMode = m.billboardMode
	clone.DrawMode = m.DrawMode
	clone.IsVisible = m.IsVisible
	clone.material = m.material
	if m.geometry != nil {
		m.geometry.ApplyToMesh(clone)
	}
	if parent != nil {
		clone.AttachTo(parent)
	}
	return clone
}

// MakeGeometryUnique gives the mesh a private copy of a shared geometry.
func (m *Mesh) MakeGeometryUnique() {
	if m.geometry == nil || m.geometry.MeshCount() <= 1 {
		return
	}
	m.geometry.Copy(m.scene.nextGeometryID(m.Name)).ApplyToMesh(m)
}

// BakeTransformIntoVertices applies transform to the vertex data and keeps the
// world matrix unchanged relative to it.
func (m *Mesh) BakeTransformIntoVertices(transform math.Mat4) error {
	if m.geometry == nil {
		return nil
	}
	m.MakeGeometryUnique()
	vd := ExtractFromMesh(m, false, true)
	vd.Transform(transform)
	if transform.Determinant() < 0 {
		for i := 0; i+2 < len(vd.Indices); i += 3 {
			vd.Indices[i], vd.Indices[i+2] = vd.Indices[i+2], vd.Indices[i]
		}
	}
	return vd.ApplyToGeometry(m.geometry, m.geometry.updatable)
}

func (m *Mesh) releaseResources() {
	m.invalidateSubMeshes()
	if m.geometry != nil {
		m.geometry.ReleaseForMesh(m, true)
	}
	m.scene.removeMesh(m)
}
