package scene

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/core"
	"render-core/engine"
	"render-core/math"
)

func TestSceneRenderCullsOutsideFrustum(t *testing.T) {
	s, d := newTestScene(t)
	NewCamera("camera", math.Vec3{Z: -10}, s)
	_, err := CreateBox("visible", 1, s)
	require.NoError(t, err)
	behind, err := CreateBox("behind", 1, s)
	require.NoError(t, err)
	behind.SetPosition(math.Vec3{Z: -50})

	var order []string
	s.OnBeforeRenderObservable.Add(func(*Scene) { order = append(order, "before") })
	s.OnAfterRenderObservable.Add(func(*Scene) { order = append(order, "after") })

	s.Render()
	assert.Equal(t, 1, s.ActiveMeshCount())
	assert.Equal(t, 1, d.Calls["Clear"])
	assert.Equal(t, []string{"before", "after"}, order)

	behind.AlwaysSelectAsActiveMesh = true
	s.Render()
	assert.Equal(t, 2, s.ActiveMeshCount())
	assert.Equal(t, 2, s.RenderID())

	s.AutoClear = false
	behind.IsVisible = false
	s.Render()
	assert.Equal(t, 1, s.ActiveMeshCount())
	assert.Equal(t, 2, d.Calls["Clear"])
}

func TestSceneRenderSkipsDisabledBranches(t *testing.T) {
	s, _ := newTestScene(t)
	NewCamera("camera", math.Vec3{Z: -10}, s)
	parent := NewTransformNode("parent", s)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	box.AttachTo(parent)

	parent.SetEnabled(false)
	s.Render()
	assert.Equal(t, 0, s.ActiveMeshCount())
	assert.False(t, box.IsEnabled(true))
	assert.True(t, box.IsEnabled(false))

	parent.SetEnabled(true)
	s.Render()
	assert.Equal(t, 1, s.ActiveMeshCount())
}

func TestSceneIsReadyCompilesVisibleMeshes(t *testing.T) {
	s, d := newTestScene(t)
	_, err := CreateSphere("sphere", 1, 8, s)
	require.NoError(t, err)
	_, err = CreateBox("box", 1, s)
	require.NoError(t, err)
	links := d.Calls["LinkProgram"]

	assert.True(t, s.IsReady())
	assert.Equal(t, links+1, d.Calls["LinkProgram"], "meshes with the same layout share one program")
}

func TestSceneDisposeReleasesEverything(t *testing.T) {
	s, d := newTestScene(t)
	baseline := len(d.Buffers)
	NewCamera("camera", math.Vec3{Z: -10}, s)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	box.Clone("clone", nil)
	_, err = s.CreateSolidTexture("white", 255, 255, 255, 255)
	require.NoError(t, err)
	disposed := false
	s.OnDisposeObservable.Add(func(*Scene) { disposed = true })

	s.Dispose()
	assert.True(t, disposed)
	assert.True(t, s.IsDisposed())
	assert.Empty(t, s.Meshes())
	assert.Empty(t, s.Geometries())
	assert.Empty(t, s.Cameras())
	assert.Nil(t, s.ActiveCamera)
	assert.Equal(t, 0, s.TextureCount())
	assert.Equal(t, baseline, len(d.Buffers))

	s.Render()
	assert.Equal(t, 0, d.Calls["Clear"], "a disposed scene does not draw")
}

func TestPickHitsClosestFace(t *testing.T) {
	s, _ := newTestScene(t)
	NewCamera("camera", math.Vec3{Z: -10}, s)
	near, err := CreateBox("near", 1, s)
	require.NoError(t, err)
	far, err := CreateBox("far", 1, s)
	require.NoError(t, err)
	far.SetPosition(math.Vec3{Z: 5})

	info := s.Pick(50, 50, 100, 100, nil)
	require.True(t, info.Hit)
	assert.Same(t, near, info.PickedMesh)
	assertVec3(t, math.Vec3{Z: -0.5}, info.PickedPoint)
	assert.InDelta(t, 0, info.Normal.X, testEpsilon)
	assert.InDelta(t, 0, info.Normal.Y, testEpsilon)

	info = s.Pick(50, 50, 100, 100, func(m *Mesh) bool { return m != near })
	require.True(t, info.Hit)
	assert.Same(t, far, info.PickedMesh)
	assertVec3(t, math.Vec3{Z: 4.5}, info.PickedPoint)

	info = s.Pick(0, 0, 100, 100, nil)
	assert.False(t, info.Hit)
}

func TestPickIgnoresLineMeshes(t *testing.T) {
	s, _ := newTestScene(t)
	NewCamera("camera", math.Vec3{Z: -10}, s)
	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	box.DrawMode = engine.LineListDrawMode

	assert.False(t, s.Pick(50, 50, 100, 100, nil).Hit)
}

func TestRayIntersectsTransformedMesh(t *testing.T) {
	s, _ := newTestScene(t)
	box, err := CreateBox("box", 2, s)
	require.NoError(t, err)
	box.SetPosition(math.Vec3{X: 10})
	box.SetScaling(math.Vec3{X: 2, Y: 2, Z: 2})

	ray := Ray{Origin: math.Vec3{X: 10, Y: 10}, Direction: math.Vec3Down}
	info := s.PickWithRay(ray, nil)
	require.True(t, info.Hit)
	assert.InDelta(t, 8, info.Distance, testEpsilon)
	assertVec3(t, math.Vec3{X: 10, Y: 2}, info.PickedPoint)

	ray.Length = 5
	assert.False(t, s.PickWithRay(ray, nil).Hit, "the hit lies beyond the ray length")
}

func TestRayIntersectsAABB(t *testing.T) {
	box := AABB{Min: math.Vec3{X: -1, Y: -1, Z: -1}, Max: math.Vec3One}
	d, ok := Ray{Origin: math.Vec3{Z: -5}, Direction: math.Vec3Front}.IntersectsAABB(box)
	require.True(t, ok)
	assert.InDelta(t, 4, d, testEpsilon)

	_, ok = Ray{Origin: math.Vec3{Z: -5}, Direction: math.Vec3Back}.IntersectsAABB(box)
	assert.False(t, ok)

	d, ok = Ray{Origin: math.Vec3Zero, Direction: math.Vec3Up}.IntersectsAABB(box)
	require.True(t, ok, "an origin inside the box hits immediately")
	assert.InDelta(t, 0, d, testEpsilon)
}

func TestGridData(t *testing.T) {
	vd := CreateGridData(10, 4)
	require.NoError(t, vd.Validate())
	assert.Len(t, vd.Positions, 10*2*3)
	assert.Len(t, vd.Indices, 10*2)
	assert.Len(t, vd.Colors, 10*2*4)

	// The third line along Z passes through the origin and is blue.
	assert.Equal(t, []float32{0, 0, -5, 0, 0, 5}, vd.Positions[2*6:3*6])
	assert.Greater(t, vd.Colors[2*8+2], vd.Colors[2*8])
}

func TestGridRendersAsLineList(t *testing.T) {
	s, d := newTestScene(t)
	grid, err := CreateGrid("grid", 10, 4, s)
	require.NoError(t, err)

	require.True(t, grid.Render(s.Uniforms()))
	assert.Equal(t, engine.GL_LINES, d.DrawModes[len(d.DrawModes)-1])
	assert.True(t, grid.Material().DisableLighting)
}

func TestBoundingBoxLinesFollowTarget(t *testing.T) {
	s, _ := newTestScene(t)
	box, err := CreateBox("box", 2, s)
	require.NoError(t, err)
	box.SetPosition(math.Vec3{Y: 3})

	lines, err := CreateBoundingBoxLines("box lines", box)
	require.NoError(t, err)
	assert.Same(t, &box.TransformNode, lines.Parent())
	assert.Equal(t, 24, lines.TotalIndices())
	lines.ComputeWorldMatrix(true)
	assertVec3(t, math.Vec3{X: -1, Y: 2, Z: -1}, lines.BoundingInfo().World.Min)

	_, err = CreateBoundingBoxLines("empty lines", NewMesh("empty", s))
	assert.ErrorIs(t, err, ErrNoPositions)
}

func TestSkyboxData(t *testing.T) {
	gradient := DefaultSkyGradient()
	vd := CreateSkyboxData(100, gradient)
	require.NoError(t, vd.Validate())
	sphere := CreateSphereData(50, 32, 16)

	require.Len(t, vd.Indices, len(sphere.Indices))
	assert.Equal(t, []uint32{sphere.Indices[2], sphere.Indices[1], sphere.Indices[0]}, vd.Indices[:3])
	assert.InDelta(t, -sphere.Normals[1], vd.Normals[1], testEpsilon, "normals face inwards")

	// The first vertex is the north pole.
	assert.InDelta(t, gradient.Zenith.B, vd.Colors[2], testEpsilon)
	last := len(vd.Colors) - 4
	assert.InDelta(t, gradient.Ground.R, vd.Colors[last], testEpsilon)
	assert.Equal(t, gradient.Horizon, gradient.At(0))
}

func TestSkyboxFollowsCameraAndIsNeverCulled(t *testing.T) {
	s, _ := newTestScene(t)
	camera := NewCamera("camera", math.Vec3{X: 7, Z: -10}, s)
	sky, err := CreateSkybox("sky", 100, DefaultSkyGradient(), s)
	require.NoError(t, err)

	assert.True(t, sky.AlwaysSelectAsActiveMesh)
	assert.False(t, sky.Material().BackFaceCulling)
	s.Render()
	assert.Equal(t, 1, s.ActiveMeshCount())
	assertVec3(t, camera.GlobalPosition(), sky.WorldMatrix().Translation())
}

func TestTexturesRegisterWithScene(t *testing.T) {
	s, d := newTestScene(t)
	uploads := d.Calls["TexImage2D"]
	checker, err := s.CreateCheckerTexture("checker", 16, color.RGBA{R: 255, A: 255}, color.RGBA{B: 255, A: 255})
	require.NoError(t, err)
	assert.Equal(t, 16, checker.Width)
	assert.True(t, checker.IsReady())
	assert.True(t, checker.GenerateMipMaps)
	assert.Equal(t, 1, s.TextureCount())

	_, err = s.CreateCheckerTexture("bad", 0, color.RGBA{}, color.RGBA{})
	assert.Error(t, err)

	solid, err := s.CreateSolidTexture("white", 255, 255, 255, 255)
	require.NoError(t, err)
	assert.Equal(t, 1, solid.Width)
	assert.Equal(t, 2, s.TextureCount())
	assert.Equal(t, uploads+2, d.Calls["TexImage2D"])
}

func TestUniformsCollectEnabledLights(t *testing.T) {
	s, _ := newTestScene(t)
	s.AmbientColor = core.ColorRed
	sun := NewDirectionalLight("sun", math.Vec3{Y: -2})
	lamp := NewPointLight("lamp", math.Vec3{Y: 3})
	lamp.Enabled = false
	s.AddLight(sun)
	s.AddLight(lamp)

	u := s.Uniforms()
	require.Len(t, u.Lights, 1)
	assertVec3(t, math.Vec3Down, u.Lights[0].Direction)
	assert.Equal(t, core.ColorRed, u.AmbientColor)

	s.RemoveLight(sun)
	assert.Empty(t, s.Uniforms().Lights)
}
