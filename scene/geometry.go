package scene

import (
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"weak"

	"render-core/core"
	"render-core/engine"
	"render-core/math"
)

// Delay load states of a Geometry.
const (
	DelayLoadStateNone = iota
	DelayLoadStateLoaded
	DelayLoadStateLoading
	DelayLoadStateNotLoaded
)

// GeometryUpdate is sent to OnGeometryUpdated. Kind is empty when indices or
// several kinds changed.
type GeometryUpdate struct {
	Geometry *Geometry
	Kind     string
}

// Geometry owns vertex and index buffers shared by any number of meshes.
// Meshes are held weakly; a mesh that was collected without being disposed
// simply drops out of the list.
type Geometry struct {
	ID       string
	uniqueID int

	scene  *Scene
	engine *engine.ThinEngine
	logger *slog.Logger

	meshes []weak.Pointer[Mesh]

	// vertexBuffers is replaced rather than mutated so the engine's
	// identity check on the bound map stays correct.
	vertexBuffers          engine.VertexBuffers
	indices                []uint32
	indexBuffer            *engine.DataBuffer
	indexBufferIsUpdatable bool
	totalVertices          int
	updatable              bool

	extend       AABB
	hasExtend    bool
	boundingBias *math.Vec2
	positions    []math.Vec3

	vertexArrayObjects map[string]uint32

	delayLoadState int
	delayInfo      []string
	delayLoader    func() (*VertexData, error)

	disposed bool

	OnGeometryUpdated core.Observable[GeometryUpdate]
}

// NewGeometry creates a geometry registered with scene. vd may be nil.
func NewGeometry(id string, scene *Scene, vd *VertexData, updatable bool) *Geometry {
	e := scene.Engine()
	g := &Geometry{
		ID:            id,
		uniqueID:      scene.nextUniqueID(),
		scene:         scene,
		engine:        e,
		logger:        scene.Logger().With("component", "geometry", "geometry", id),
		vertexBuffers: engine.VertexBuffers{},
		updatable:     updatable,
	}
	if !e.Config().DisableVertexArrayObjects {
		g.vertexArrayObjects = map[string]uint32{}
	}
	if vd != nil {
		if err := vd.ApplyToGeometry(g, updatable); err != nil {
			g.logger.Error("applying vertex data", "error", err)
		}
	}
	scene.addGeometry(g)
	return g
}

func (g *Geometry) UniqueID() int       { return g.uniqueID }
func (g *Geometry) Scene() *Scene       { return g.scene }
func (g *Geometry) IsDisposed() bool    { return g.disposed }
func (g *Geometry) DelayLoadState() int { return g.delayLoadState }

// IsReady is false while delay-loaded data has not arrived.
func (g *Geometry) IsReady() bool {
	return g.delayLoadState == DelayLoadStateLoaded || g.delayLoadState == DelayLoadStateNone
}

// Meshes returns the live meshes sharing this geometry and compacts the list.
func (g *Geometry) Meshes() []*Mesh {
	live := make([]*Mesh, 0, len(g.meshes))
	kept := g.meshes[:0]
	for _, wp := range g.meshes {
		if m := wp.Value(); m != nil {
			live = append(live, m)
			kept = append(kept, wp)
		}
	}
	clear(g.meshes[len(kept):])
	g.meshes = kept
	return live
}

func (g *Geometry) MeshCount() int { return len(g.Meshes()) }

// SetBoundingBias grows the extent: x is relative, y absolute.
func (g *Geometry) SetBoundingBias(bias math.Vec2) {
	g.boundingBias = &bias
	if g.hasExtend {
		g.updateExtend(nil)
		g.updateBoundingInfo()
	}
}

// Extend is the local bounding box of the position data.
func (g *Geometry) Extend() (AABB, bool) { return g.extend, g.hasExtend }

// ── Vertex data ─────────────────────────────────────────────────────────────

// SetVerticesData creates a vertex buffer for kind from data. The GPU buffer
// is created right away only when a mesh already uses the geometry.
func (g *Geometry) SetVerticesData(kind string, data []float32, updatable bool, stride int) error {
	if updatable && !g.updatable {
		g.updatable = true
	}
	vb, err := engine.NewVertexBuffer(g.engine, data, kind, engine.VertexBufferOptions{
		Updatable: updatable,
		Postpone:  len(g.Meshes()) == 0,
		Stride:    stride,
	})
	if err != nil {
		return fmt.Errorf("geometry %s: %w", g.ID, err)
	}
	g.SetVerticesBuffer(vb, 0)
	return nil
}

// SetVerticesBuffer installs buffer for its kind, disposing the previous one.
// A positive totalVertices overrides the count derived from position data.
func (g *Geometry) SetVerticesBuffer(buffer *engine.VertexBuffer, totalVertices int) {
	kind := buffer.Kind()
	if old, ok := g.vertexBuffers[kind]; ok {
		disposeOwned(old)
	}

	vbs := maps.Clone(g.vertexBuffers)
	vbs[kind] = buffer
	g.vertexBuffers = vbs

	meshes := g.Meshes()
	if db := buffer.DataBuffer(); db != nil && len(meshes) > 0 {
		db.SetReferences(len(meshes))
	}

	if kind == engine.PositionKind {
		data := buffer.Data()
		switch {
		case totalVertices > 0:
			g.totalVertices = totalVertices
		case data != nil && buffer.StrideSize() > 0:
			g.totalVertices = len(data) / buffer.StrideSize()
		}
		g.updateExtend(data)
		g.positions = nil

		for _, mesh := range meshes {
			mesh.setBoundingInfo(NewBoundingInfo(g.extend.Min, g.extend.Max))
			mesh.invalidateSubMeshes()
			mesh.ComputeWorldMatrix(true)
		}
	}

	g.notifyUpdate(kind)
	g.disposeVertexArrayObjects()
}

// UpdateVerticesData rewrites the data of an existing kind. For positions,
// updateExtends also recomputes the extent and the meshes' bounding info.
func (g *Geometry) UpdateVerticesData(kind string, data []float32, updateExtends bool) {
	vb, ok := g.vertexBuffers[kind]
	if !ok {
		return
	}
	vb.Update(data)
	if kind == engine.PositionKind {
		g.positions = nil
		if updateExtends {
			g.updateExtend(data)
		}
		g.updateBoundingInfo()
	}
	g.notifyUpdate(kind)
}

// UpdateVerticesDataDirectly writes into the GPU buffer at a float offset.
func (g *Geometry) UpdateVerticesDataDirectly(kind string, data []float32, offset int) {
	vb, ok := g.vertexBuffers[kind]
	if !ok {
		return
	}
	vb.UpdateDirectly(data, offset)
	g.notifyUpdate(kind)
}

func (g *Geometry) RemoveVerticesData(kind string) {
	vb, ok := g.vertexBuffers[kind]
	if !ok {
		return
	}
	disposeOwned(vb)
	vbs := maps.Clone(g.vertexBuffers)
	delete(vbs, kind)
	g.vertexBuffers = vbs
	g.disposeVertexArrayObjects()
	g.notifyUpdate(kind)
}

// VertexBuffer returns nil for missing kinds and while not ready.
func (g *Geometry) VertexBuffer(kind string) *engine.VertexBuffer {
	if !g.IsReady() {
		return nil
	}
	return g.vertexBuffers[kind]
}

func (g *Geometry) VertexBuffers() engine.VertexBuffers {
	if !g.IsReady() {
		return nil
	}
	return g.vertexBuffers
}

// VerticesData returns the tightly packed data of kind. Shared data is
// returned as is unless forceCopy, or copyWhenShared with several meshes.
func (g *Geometry) VerticesData(kind string, copyWhenShared, forceCopy bool) []float32 {
	vb := g.VertexBuffer(kind)
	if vb == nil {
		return nil
	}
	data := vb.Data()
	if data == nil {
		return nil
	}

	if vb.ByteStride() != vb.Size()*4 || vb.ByteOffset() != 0 {
		packed := make([]float32, 0, g.totalVertices*vb.Size())
		vb.ForEach(vb.TotalVertices(), func(values []float32, _ int) {
			packed = append(packed, values...)
		})
		return packed
	}

	if forceCopy || (copyWhenShared && len(g.Meshes()) != 1) {
		return slices.Clone(data)
	}
	return data
}

// IsVerticesDataPresent falls back to the delay-load description when no
// buffers exist yet.
func (g *Geometry) IsVerticesDataPresent(kind string) bool {
	if len(g.vertexBuffers) == 0 {
		return slices.Contains(g.delayInfo, kind)
	}
	_, ok := g.vertexBuffers[kind]
	return ok
}

// VerticesDataKinds lists the kinds present, sorted.
func (g *Geometry) VerticesDataKinds() []string {
	if len(g.vertexBuffers) == 0 {
		return slices.Clone(g.delayInfo)
	}
	return slices.Sorted(maps.Keys(g.vertexBuffers))
}

func (g *Geometry) IsVertexBufferUpdatable(kind string) bool {
	vb, ok := g.vertexBuffers[kind]
	return ok && vb.IsUpdatable()
}

func (g *Geometry) TotalVertices() int {
	if !g.IsReady() {
		return 0
	}
	return g.totalVertices
}

// Positions returns the cached position vectors.
func (g *Geometry) Positions() []math.Vec3 {
	if g.positions != nil {
		return g.positions
	}
	data := g.VerticesData(engine.PositionKind, false, false)
	if data == nil {
		return nil
	}
	g.positions = make([]math.Vec3, 0, len(data)/3)
	for i := 0; i+2 < len(data); i += 3 {
		g.positions = append(g.positions, math.Vec3FromSlice(data, i))
	}
	return g.positions
}

// ── Indices ─────────────────────────────────────────────────────────────────

// SetIndices replaces the index data. The GPU index buffer is created now
// when meshes use the geometry, otherwise on the first ApplyToMesh.
func (g *Geometry) SetIndices(indices []uint32, totalVertices int, updatable bool) {
	if g.indexBuffer != nil {
		g.releaseIndexBuffer()
	}
	g.disposeVertexArrayObjects()

	g.indices = indices
	g.indexBufferIsUpdatable = updatable

	meshes := g.Meshes()
	if len(meshes) > 0 && len(indices) > 0 {
		g.indexBuffer = g.engine.CreateIndexBuffer(indices, updatable)
		g.indexBuffer.SetReferences(len(meshes))
	}
	if totalVertices > 0 {
		g.totalVertices = totalVertices
	}
	for _, mesh := range meshes {
		mesh.invalidateSubMeshes()
	}
	g.notifyUpdate("")
}

// UpdateIndices rewrites indices starting at offset (in indices). Without
// gpuMemoryOnly the CPU copy is replaced too.
func (g *Geometry) UpdateIndices(indices []uint32, offset int, gpuMemoryOnly bool) {
	if g.indexBuffer == nil {
		return
	}
	if !g.indexBufferIsUpdatable {
		g.SetIndices(indices, 0, true)
		return
	}

	needsUpdate := len(indices) != len(g.indices)
	if !gpuMemoryOnly {
		g.indices = indices
	}
	elementSize := 2
	if g.indexBuffer.Is32Bits() {
		elementSize = 4
	}
	g.engine.UpdateDynamicIndexBuffer(g.indexBuffer, indices, offset*elementSize)
	if needsUpdate {
		for _, mesh := range g.Meshes() {
			mesh.invalidateSubMeshes()
		}
	}
}

func (g *Geometry) Indices(copyWhenShared, forceCopy bool) []uint32 {
	if !g.IsReady() || g.indices == nil {
		return nil
	}
	if forceCopy || (copyWhenShared && len(g.Meshes()) != 1) {
		return slices.Clone(g.indices)
	}
	return g.indices
}

func (g *Geometry) TotalIndices() int {
	if !g.IsReady() {
		return 0
	}
	return len(g.indices)
}

func (g *Geometry) IndexBuffer() *engine.DataBuffer {
	if !g.IsReady() {
		return nil
	}
	return g.indexBuffer
}

func (g *Geometry) releaseIndexBuffer() {
	g.indexBuffer.SetReferences(1)
	g.engine.ReleaseBuffer(g.indexBuffer)
	g.indexBuffer = nil
}

// ── Binding ─────────────────────────────────────────────────────────────────

// Bind makes the geometry's buffers current for effect. An index buffer other
// than the geometry's own goes through a plain binding; otherwise a vertex
// array object is recorded once per effect and reused.
func (g *Geometry) Bind(effect engine.Effect, indexToBind *engine.DataBuffer) {
	if effect == nil {
		return
	}
	if indexToBind == nil {
		indexToBind = g.indexBuffer
	}
	vbs := g.VertexBuffers()
	if len(vbs) == 0 {
		return
	}

	if indexToBind != g.indexBuffer || g.vertexArrayObjects == nil {
		g.engine.BindBuffers(vbs, indexToBind, effect, nil)
		return
	}

	key := effect.Key()
	vao, ok := g.vertexArrayObjects[key]
	if !ok {
		vao = g.engine.RecordVertexArrayObject(vbs, indexToBind, effect, nil)
		g.vertexArrayObjects[key] = vao
	}
	g.engine.BindVertexArrayObject(vao, indexToBind)
}

// ReleaseVertexArrayObject drops the VAO recorded for effect.
func (g *Geometry) ReleaseVertexArrayObject(effect engine.Effect) {
	if g.vertexArrayObjects == nil || effect == nil {
		return
	}
	if vao, ok := g.vertexArrayObjects[effect.Key()]; ok {
		g.engine.ReleaseVertexArrayObject(vao)
		delete(g.vertexArrayObjects, effect.Key())
	}
}

func (g *Geometry) VertexArrayObjectCount() int { return len(g.vertexArrayObjects) }

func (g *Geometry) disposeVertexArrayObjects() {
	if g.vertexArrayObjects == nil {
		return
	}
	for _, vao := range g.vertexArrayObjects {
		g.engine.ReleaseVertexArrayObject(vao)
	}
	clear(g.vertexArrayObjects)
}

// ── Meshes ──────────────────────────────────────────────────────────────────

// ApplyToMesh makes mesh use this geometry, releasing the one it had.
func (g *Geometry) ApplyToMesh(mesh *Mesh) {
	if mesh.geometry == g {
		return
	}
	if previous := mesh.geometry; previous != nil {
		previous.ReleaseForMesh(mesh, true)
	}

	mesh.geometry = g
	g.meshes = append(g.meshes, weak.Make(mesh))
	g.scene.addGeometry(g)

	if g.IsReady() {
		g.applyToMesh(mesh)
	} else if g.hasExtend {
		mesh.setBoundingInfo(NewBoundingInfo(g.extend.Min, g.extend.Max))
	}
}

func (g *Geometry) applyToMesh(mesh *Mesh) {
	count := len(g.Meshes())

	for _, kind := range slices.Sorted(maps.Keys(g.vertexBuffers)) {
		vb := g.vertexBuffers[kind]
		if count == 1 {
			vb.Create(nil)
		}
		if db := vb.DataBuffer(); db != nil {
			db.SetReferences(count)
		}
		if kind == engine.PositionKind {
			if !g.hasExtend {
				g.updateExtend(nil)
			}
			mesh.setBoundingInfo(NewBoundingInfo(g.extend.Min, g.extend.Max))
			mesh.invalidateSubMeshes()
			mesh.ComputeWorldMatrix(true)
		}
	}

	if count == 1 && len(g.indices) > 0 && g.indexBuffer == nil {
		g.indexBuffer = g.engine.CreateIndexBuffer(g.indices, g.indexBufferIsUpdatable)
	}
	if g.indexBuffer != nil {
		g.indexBuffer.SetReferences(count)
	}
	g.notifyUpdate("")
}

// ReleaseForMesh detaches mesh. The last mesh leaving with shouldDispose
// disposes the geometry.
func (g *Geometry) ReleaseForMesh(mesh *Mesh, shouldDispose bool) {
	index := slices.IndexFunc(g.meshes, func(wp weak.Pointer[Mesh]) bool { return wp.Value() == mesh })
	if index < 0 {
		return
	}
	g.meshes = slices.Delete(g.meshes, index, index+1)
	mesh.geometry = nil
	mesh.invalidateSubMeshes()

	remaining := len(g.Meshes())
	for _, vb := range g.vertexBuffers {
		if db := vb.DataBuffer(); db != nil {
			db.SetReferences(max(remaining, 1))
		}
	}
	if g.indexBuffer != nil {
		g.indexBuffer.SetReferences(max(remaining, 1))
	}

	if remaining == 0 && shouldDispose {
		g.Dispose()
	}
}

// ── Extent ──────────────────────────────────────────────────────────────────

func (g *Geometry) updateExtend(data []float32) {
	if data == nil {
		data = g.VerticesData(engine.PositionKind, false, false)
	}
	if data == nil {
		return
	}
	g.extend = extentOf(data, 0, g.totalVertices, 3, g.boundingBias)
	g.hasExtend = true
}

func (g *Geometry) updateBoundingInfo() {
	for _, mesh := range g.Meshes() {
		mesh.setBoundingInfo(NewBoundingInfo(g.extend.Min, g.extend.Max))
		mesh.invalidateSubMeshes()
		mesh.ComputeWorldMatrix(true)
	}
}

// ── Delay loading ───────────────────────────────────────────────────────────

// SetDelayLoad defers the vertex data: loader runs on the first Load. kinds
// answers IsVerticesDataPresent in the meantime.
func (g *Geometry) SetDelayLoad(kinds []string, loader func() (*VertexData, error)) {
	g.delayInfo = slices.Clone(kinds)
	g.delayLoader = loader
	g.delayLoadState = DelayLoadStateNotLoaded
}

// Load runs the delayed loader once and applies its data to the meshes
// waiting on it.
func (g *Geometry) Load() error {
	if g.delayLoadState != DelayLoadStateNotLoaded {
		return nil
	}
	g.delayLoadState = DelayLoadStateLoading
	vd, err := g.delayLoader()
	if err != nil {
		g.delayLoadState = DelayLoadStateNotLoaded
		return fmt.Errorf("loading geometry %s: %w", g.ID, err)
	}
	g.delayLoadState = DelayLoadStateLoaded
	g.delayInfo = nil
	g.delayLoader = nil

	// Meshes are already attached, so the buffers are created immediately
	// and their bounding info follows the new positions.
	return vd.ApplyToGeometry(g, g.updatable)
}

// ── Lifetime ────────────────────────────────────────────────────────────────

// Copy returns a new geometry with copies of the data.
func (g *Geometry) Copy(id string) *Geometry {
	vd := &VertexData{Indices: slices.Clone(g.indices)}
	updatable := false
	for i, kind := range g.VerticesDataKinds() {
		vd.Set(g.VerticesData(kind, false, true), kind)
		if i == 0 {
			updatable = g.IsVertexBufferUpdatable(kind)
		}
	}
	out := NewGeometry(id, g.scene, vd, updatable)
	if g.boundingBias != nil {
		out.SetBoundingBias(*g.boundingBias)
	}
	return out
}

// ToLeftHanded flips the winding order and mirrors Z.
func (g *Geometry) ToLeftHanded() {
	indices := slices.Clone(g.indices)
	for i := 0; i+2 < len(indices); i += 3 {
		indices[i], indices[i+2] = indices[i+2], indices[i]
	}
	if len(indices) > 0 {
		g.SetIndices(indices, g.totalVertices, g.indexBufferIsUpdatable)
	}

	for _, kind := range []string{engine.PositionKind, engine.NormalKind} {
		data := slices.Clone(g.VerticesData(kind, false, false))
		if data == nil {
			continue
		}
		for i := 2; i < len(data); i += 3 {
			data[i] = -data[i]
		}
		if err := g.SetVerticesData(kind, data, g.IsVertexBufferUpdatable(kind), 0); err != nil {
			g.logger.Error("mirroring vertex data", "kind", kind, "error", err)
		}
	}
}

// Rebuild recreates the GPU objects after a context restore.
func (g *Geometry) Rebuild() {
	if g.vertexArrayObjects != nil {
		clear(g.vertexArrayObjects)
	}
	meshes := g.Meshes()
	if len(meshes) > 0 && len(g.indices) > 0 {
		g.indexBuffer = g.engine.CreateIndexBuffer(g.indices, g.indexBufferIsUpdatable)
		g.indexBuffer.SetReferences(len(meshes))
	}
	for _, vb := range g.vertexBuffers {
		vb.Rebuild()
		if db := vb.DataBuffer(); db != nil && len(meshes) > 0 {
			db.SetReferences(len(meshes))
		}
	}
}

// Dispose detaches every mesh and releases all GPU and CPU data.
func (g *Geometry) Dispose() {
	if g.disposed {
		return
	}
	for _, mesh := range g.Meshes() {
		g.ReleaseForMesh(mesh, false)
	}
	g.meshes = nil

	g.disposeVertexArrayObjects()
	for _, vb := range g.vertexBuffers {
		disposeOwned(vb)
	}
	g.vertexBuffers = engine.VertexBuffers{}
	g.totalVertices = 0

	if g.indexBuffer != nil {
		g.releaseIndexBuffer()
	}
	g.indices = nil
	g.positions = nil

	g.delayLoadState = DelayLoadStateNone
	g.delayInfo = nil
	g.delayLoader = nil

	g.scene.removeGeometry(g)
	g.OnGeometryUpdated.Clear()
	g.disposed = true
}

func (g *Geometry) notifyUpdate(kind string) {
	g.OnGeometryUpdated.NotifyObservers(GeometryUpdate{Geometry: g, Kind: kind})
}

// disposeOwned releases a buffer the geometry owns outright, whatever the
// number of meshes sharing it.
func disposeOwned(vb *engine.VertexBuffer) {
	if db := vb.DataBuffer(); db != nil {
		db.SetReferences(1)
	}
	vb.Dispose()
}
