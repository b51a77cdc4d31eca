package scene

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/core"
	"render-core/materials"
	"render-core/math"
)

func buildSerializableScene(t *testing.T, s *Scene) {
	t.Helper()
	s.AmbientColor = core.ColorGreen
	s.FogMode = materials.FogModeLinear

	NewCamera("overview", math.Vec3{Y: 5, Z: -20}, s)
	follow := NewCamera("follow", math.Vec3{Z: -5}, s)
	follow.SetTarget(math.Vec3{Y: 1})
	s.ActiveCamera = follow
	s.AddLight(NewPointLight("lamp", math.Vec3{Y: 4}))

	pivot := NewTransformNode("pivot", s)
	pivot.SetPosition(math.Vec3{X: 3})
	pivot.SetRotationQuaternion(math.QuaternionFromAxisAngle(math.Vec3Up, 0.5))

	box, err := CreateBox("box", 1, s)
	require.NoError(t, err)
	mat := materials.NewMaterial("shiny", s.Engine())
	mat.DiffuseColor = core.ColorBlue
	mat.SpecularPower = 12
	box.SetMaterial(mat)
	box.AttachTo(pivot)
	box.SetPosition(math.Vec3{Y: 2})

	twin := box.Clone("twin", nil)
	twin.SetScaling(math.Vec3{X: 2, Y: 2, Z: 2})
	twin.IsVisible = false
}

func TestSceneRoundTrip(t *testing.T) {
	src, _ := newTestScene(t)
	buildSerializableScene(t, src)
	path := filepath.Join(t.TempDir(), "scene.json")
	require.NoError(t, SaveScene(src, path))

	dst, _ := newTestScene(t)
	require.NoError(t, LoadScene(dst, path))

	assert.Equal(t, core.ColorGreen, dst.AmbientColor)
	assert.Equal(t, materials.FogModeLinear, dst.FogMode)
	require.Len(t, dst.Cameras(), 2)
	require.NotNil(t, dst.ActiveCamera)
	assert.Equal(t, "follow", dst.ActiveCamera.Name)
	target, ok := dst.ActiveCamera.Target()
	assert.True(t, ok)
	assertVec3(t, math.Vec3{Y: 1}, target)
	require.Len(t, dst.Lights, 1)
	assert.Equal(t, LightTypePoint, dst.Lights[0].Type)

	box := dst.MeshByName("box")
	twin := dst.MeshByName("twin")
	require.NotNil(t, box)
	require.NotNil(t, twin)
	assert.Same(t, box.Geometry(), twin.Geometry(), "shared geometry stays shared")
	assert.Len(t, dst.Geometries(), 1)
	assert.Equal(t, 24, box.TotalVertices())
	assert.Same(t, box.Material(), twin.Material())
	assert.Equal(t, core.ColorBlue, box.Material().DiffuseColor)
	assert.Equal(t, float32(12), box.Material().SpecularPower)
	assert.False(t, twin.IsVisible)
	assertVec3(t, math.Vec3{X: 2, Y: 2, Z: 2}, twin.Scaling())

	pivot := dst.TransformNodeByName("pivot")
	require.NotNil(t, pivot)
	assert.Same(t, pivot, box.Parent())
	_, hasQuaternion := pivot.RotationQuaternion()
	assert.True(t, hasQuaternion)

	srcBox := src.MeshByName("box")
	assertMat4(t, srcBox.ComputeWorldMatrix(true), box.ComputeWorldMatrix(true))
}

func TestSerializeAfterLoadIsStable(t *testing.T) {
	src, _ := newTestScene(t)
	buildSerializableScene(t, src)
	saved, err := src.Serialize()
	require.NoError(t, err)

	first, _ := newTestScene(t)
	require.NoError(t, first.Append(saved))
	firstData, err := first.Serialize()
	require.NoError(t, err)

	second, _ := newTestScene(t)
	require.NoError(t, second.Append(firstData))
	secondData, err := second.Serialize()
	require.NoError(t, err)
	assert.JSONEq(t, string(firstData), string(secondData))
}

func TestAppendRejectsBadInput(t *testing.T) {
	s, _ := newTestScene(t)

	assert.Error(t, s.Append([]byte("{")))
	assert.ErrorContains(t, s.Append([]byte(`{"Version": 99}`)), "newer")
	assert.ErrorContains(t, s.Append([]byte(`{"Version": 2, "Meshes": [{"Name": "m", "GeometryID": "nope"}]}`)), "unknown geometry")
	assert.ErrorIs(t, s.Append([]byte(`{"Version": 2, "Geometries": [{"ID": "g", "Positions": [0, 0]}]}`)), ErrInvalidGeometry)

	assert.Error(t, LoadScene(s, filepath.Join(t.TempDir(), "missing.json")))
}
