package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/engine"
	"render-core/materials"
	"render-core/math"
)

func TestBoxScalingWorldMatrix(t *testing.T) {
	s, _ := newTestScene(t)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)

	box.SetScaling(math.Vec3{X: 2, Y: 1, Z: 1})
	world := box.ComputeWorldMatrix(false)
	assert.Equal(t, [4]float32{2, 0, 0, 0}, world[0])
	assert.Equal(t, math.Vec3Zero, world.Translation())
	assert.True(t, box.NonUniformScaling())

	bounds := box.BoundingInfo().World
	assertVec3(t, math.Vec3{X: -1, Y: -0.5, Z: -0.5}, bounds.Min)
	assertVec3(t, math.Vec3{X: 1, Y: 0.5, Z: 0.5}, bounds.Max)
}

func TestMeshRenderReusesVertexArrayPerEffect(t *testing.T) {
	s, d := newTestScene(t)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	u := s.Uniforms()

	require.True(t, box.Render(u))
	require.True(t, box.Render(u))
	assert.Equal(t, 1, box.Geometry().VertexArrayObjectCount())
	assert.Equal(t, 1, d.Calls["CreateVertexArray"])
	assert.Equal(t, 2, d.Calls["DrawElements"])
	assert.Equal(t, engine.GL_TRIANGLES, d.DrawModes[len(d.DrawModes)-1])
	assert.Equal(t, engine.GL_UNSIGNED_SHORT, d.LastIndexType)

	textured := materials.NewMaterial("textured", s.Engine())
	textured.DiffuseTexture = s.Engine().EmptyTexture()
	box.SetMaterial(textured)
	require.True(t, box.Render(u))
	assert.Equal(t, 2, box.Geometry().VertexArrayObjectCount(), "one vertex array per effect")
}

func TestWireframeDrawsEdgeIndices(t *testing.T) {
	s, d := newTestScene(t)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	u := s.Uniforms()
	require.True(t, box.Render(u))

	wire := materials.NewMaterial("wire", s.Engine())
	wire.Wireframe = true
	box.SetMaterial(wire)
	buffers := len(d.Buffers)

	require.True(t, box.Render(u))
	assert.Equal(t, engine.GL_LINES, d.DrawModes[len(d.DrawModes)-1])
	assert.Equal(t, buffers+1, len(d.Buffers), "the edge index buffer is built on demand")

	require.True(t, box.Render(u))
	assert.Equal(t, buffers+1, len(d.Buffers), "and reused afterwards")
	assert.Equal(t, 1, box.Geometry().VertexArrayObjectCount(), "edge indices bind without a vertex array")

	box.SetIndices(CreateBoxData(2, 2, 2).Indices, false)
	assert.Equal(t, buffers, len(d.Buffers), "new indices drop the edge buffer")
}

func TestLineMeshDrawsWithoutIndices(t *testing.T) {
	s, d := newTestScene(t)
	mesh, err := NewMeshFromVertexData("strip", &VertexData{
		Positions: []float32{0, 0, 0, 1, 0, 0, 1, 1, 0},
	}, s, false)
	require.NoError(t, err)
	mesh.DrawMode = engine.LineStripDrawMode

	require.True(t, mesh.Render(s.Uniforms()))
	assert.Equal(t, 1, d.Calls["DrawArrays"])
	assert.Equal(t, engine.GL_LINE_STRIP, d.DrawModes[len(d.DrawModes)-1])
}

func TestMirroredMeshFlipsFrontFace(t *testing.T) {
	s, _ := newTestScene(t)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	u := s.Uniforms()
	state := s.Engine().DepthCullingState()

	require.True(t, box.Render(u))
	assert.Equal(t, engine.GL_CCW, state.FrontFace())

	box.SetScaling(math.Vec3{X: -1, Y: 1, Z: 1})
	require.True(t, box.Render(u))
	assert.Equal(t, engine.GL_CW, state.FrontFace())
}

func TestBakeTransformIntoVertices(t *testing.T) {
	s, _ := newTestScene(t)
	box, err := CreateBox("box", 2, s)
	require.NoError(t, err)
	shared := box.Clone("shared", nil)
	before := box.Indices()[:3]
	before = append([]uint32(nil), before...)

	require.NoError(t, box.BakeTransformIntoVertices(math.Mat4Scale(math.Vec3{X: 1, Y: 1, Z: -1})))
	assert.NotSame(t, box.Geometry(), shared.Geometry(), "baking makes the geometry unique")
	assert.Equal(t, []uint32{before[2], before[1], before[0]}, box.Indices()[:3], "mirroring flips the winding")

	require.NoError(t, box.BakeTransformIntoVertices(math.Mat4Translation(math.Vec3{Y: 3})))
	assertVec3(t, math.Vec3{X: -1, Y: 2, Z: -1}, box.BoundingInfo().Minimum())
	assertVec3(t, math.Vec3{X: 1, Y: 4, Z: 1}, box.BoundingInfo().Maximum())
	assertVec3(t, math.Vec3{X: -1, Y: -1, Z: -1}, shared.BoundingInfo().Minimum())
}

func TestMeshWithoutMaterialUsesSceneDefault(t *testing.T) {
	s, _ := newTestScene(t)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)

	assert.Nil(t, box.Material())
	assert.True(t, box.IsReady(s.Uniforms()))
	assert.Same(t, s.DefaultMaterial(), box.effectiveMaterial())
}

func TestPrimitiveBuilders(t *testing.T) {
	cases := []struct {
		name     string
		data     *VertexData
		vertices int
		indices  int
	}{
		{"box", CreateBoxData(1, 1, 1), 24, 36},
		{"plane", CreatePlaneData(1, 1), 4, 6},
		{"ground", CreateGroundData(4, 4, 2), 9, 24},
		{"sphere", CreateSphereData(1, 8, 4), 45, 192},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.NoError(t, tc.data.Validate())
			assert.Len(t, tc.data.Positions, tc.vertices*3)
			assert.Len(t, tc.data.Normals, tc.vertices*3)
			assert.Len(t, tc.data.UVs, tc.vertices*2)
			assert.Len(t, tc.data.Indices, tc.indices)
		})
	}

	for _, vd := range []*VertexData{CreateCylinderData(1, 2, 8), CreateTorusData(2, 0.5, 8, 6)} {
		require.NoError(t, vd.Validate())
	}
}

func TestComputeNormalsOfFlatTriangle(t *testing.T) {
	normals := ComputeNormals([]float32{0, 0, 0, 0, 1, 0, 1, 0, 0}, []uint32{0, 1, 2})
	require.Len(t, normals, 9)
	for i := 0; i < 9; i += 3 {
		n := math.Vec3FromSlice(normals, i)
		assertVec3(t, math.Vec3{Z: -1}, n)
	}
}

func TestComputeTangentsFollowUVs(t *testing.T) {
	vd := CreatePlaneData(2, 2)
	vd.ComputeTangents()
	require.Len(t, vd.Tangents, 4*4)
	for i := 0; i < len(vd.Tangents); i += 4 {
		assertVec3(t, math.Vec3Right, math.Vec3FromSlice(vd.Tangents, i))
		assert.InDelta(t, 1, abs32(vd.Tangents[i+3]), testEpsilon, "handedness is a unit sign")
	}
}
