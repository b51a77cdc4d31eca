package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/engine"
	"render-core/math"
)

func TestSharedGeometryReferencesFollowMeshes(t *testing.T) {
	s, d := newTestScene(t)
	baseline := len(d.Buffers)

	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	g := box.Geometry()
	clone := box.Clone("clone", nil)

	assert.Same(t, g, clone.Geometry())
	assert.Equal(t, 2, g.MeshCount())
	assert.Equal(t, 2, g.IndexBuffer().References())
	assert.Equal(t, 2, g.VertexBuffer(engine.PositionKind).DataBuffer().References())
	assert.Equal(t, baseline+4, len(d.Buffers), "positions, normals, uvs and indices are uploaded once")

	box.Dispose(false)
	assert.False(t, g.IsDisposed())
	assert.Equal(t, 1, g.MeshCount())
	assert.Equal(t, 1, g.IndexBuffer().References())
	assert.Equal(t, baseline+4, len(d.Buffers))

	clone.Dispose(false)
	assert.True(t, g.IsDisposed())
	assert.Equal(t, baseline, len(d.Buffers))
	assert.Empty(t, s.Geometries())
	assert.Empty(t, s.Meshes())
}

func TestGeometryPostponesUploadUntilUsed(t *testing.T) {
	s, d := newTestScene(t)
	baseline := len(d.Buffers)

	g := NewGeometry("plane", s, CreatePlaneData(2, 2), false)
	assert.Equal(t, baseline, len(d.Buffers))
	assert.Equal(t, 4, g.TotalVertices())
	assert.Nil(t, g.IndexBuffer())

	mesh := NewMesh("plane", s)
	g.ApplyToMesh(mesh)
	assert.Equal(t, baseline+4, len(d.Buffers))
	require.NotNil(t, mesh.BoundingInfo())
	assertVec3(t, math.Vec3{X: -1, Y: -1}, mesh.BoundingInfo().Minimum())
	assertVec3(t, math.Vec3{X: 1, Y: 1}, mesh.BoundingInfo().Maximum())
}

func TestGeometryPositionUpdateRefreshesBounds(t *testing.T) {
	s, _ := newTestScene(t)
	mesh, err := NewMeshFromVertexData("tri", &VertexData{
		Positions: []float32{0, 0, 0, 1, 0, 0, 0, 1, 0},
		Indices:   []uint32{0, 1, 2},
	}, s, true)
	require.NoError(t, err)

	updates := 0
	mesh.Geometry().OnGeometryUpdated.Add(func(u GeometryUpdate) {
		if u.Kind == engine.PositionKind {
			updates++
		}
	})
	mesh.UpdateVerticesData(engine.PositionKind, []float32{0, 0, 0, 4, 0, 0, 0, 2, 0}, true)
	assert.Equal(t, 1, updates)
	assertVec3(t, math.Vec3{X: 4, Y: 2}, mesh.BoundingInfo().Maximum())
	assertVec3(t, math.Vec3{X: 4, Y: 2}, mesh.BoundingInfo().World.Max)
}

func TestGeometryRejectsMismatchedData(t *testing.T) {
	s, _ := newTestScene(t)
	_, err := NewMeshFromVertexData("bad", &VertexData{
		Positions: []float32{0, 0, 0, 1, 0, 0},
		Normals:   []float32{0, 1, 0},
	}, s, false)
	require.ErrorIs(t, err, ErrInvalidGeometry)

	_, err = NewMeshFromVertexData("empty", &VertexData{}, s, false)
	require.ErrorIs(t, err, ErrNoPositions)
	assert.Empty(t, s.Meshes())
}

func TestGeometryCopyIsIndependent(t *testing.T) {
	s, _ := newTestScene(t)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	clone := box.Clone("clone", nil)

	clone.MakeGeometryUnique()
	require.NotSame(t, box.Geometry(), clone.Geometry())
	assert.Equal(t, 1, box.Geometry().MeshCount())
	assert.Equal(t, box.TotalVertices(), clone.TotalVertices())
	assert.Equal(t, box.Indices(), clone.Indices())
	assert.Len(t, s.Geometries(), 2)
}

func TestGeometryDelayLoad(t *testing.T) {
	s, _ := newTestScene(t)
	g := NewGeometry("delayed", s, nil, false)
	loads := 0
	g.SetDelayLoad([]string{engine.PositionKind}, func() (*VertexData, error) {
		loads++
		return CreateBoxData(1, 1, 1), nil
	})
	mesh := NewMesh("box", s)
	g.ApplyToMesh(mesh)

	assert.False(t, g.IsReady())
	assert.True(t, mesh.IsVerticesDataPresent(engine.PositionKind))
	assert.False(t, mesh.Render(s.Uniforms()), "the first frame triggers the load")
	assert.True(t, g.IsReady())
	assert.Equal(t, 24, mesh.TotalVertices())
	assert.True(t, mesh.Render(s.Uniforms()))
	assert.Equal(t, 1, loads)
}

func TestContextRestoreRebuildsBuffers(t *testing.T) {
	s, d := newTestScene(t)
	_, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	created := d.Calls["CreateBuffer"]

	s.Engine().HandleContextLost()
	s.Engine().HandleContextRestored()
	assert.Equal(t, created+4, d.Calls["CreateBuffer"])
}
