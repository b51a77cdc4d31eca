package materials

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/core"
	"render-core/engine"
	"render-core/math"
)

func litScene() *SceneUniforms {
	return &SceneUniforms{
		ViewProjection: math.Mat4Identity(),
		EyePosition:    math.Vec3{Z: -10},
		AmbientColor:   core.ColorWhite,
		Lights: []LightData{
			{Directional: true, Direction: math.Vec3{Y: -1}, Diffuse: core.ColorWhite, Specular: core.ColorWhite, Intensity: 0.5},
			{Position: math.Vec3{Y: 5}, Diffuse: core.ColorRed, Specular: core.ColorWhite, Intensity: 1, Range: 20},
		},
		FogMode:    FogModeExp,
		FogDensity: 0.1,
		FogColor:   core.ColorBlack,
	}
}

func TestMaterialDefinesFollowMeshAndScene(t *testing.T) {
	e, _ := newTestEngine(t)
	m := NewMaterial("lit", e)
	mesh := fakeMesh{engine.PositionKind: true, engine.NormalKind: true, engine.UVKind: true}

	assert.Equal(t, "#define NORMAL\n#define UV1", m.Defines(mesh, nil))

	m.DiffuseTexture = e.EmptyTexture()
	assert.Equal(t, "#define NORMAL\n#define UV1\n#define DIFFUSE\n#define LIGHT0\n#define LIGHT1\n#define FOG",
		m.Defines(mesh, litScene()))

	m.DisableLighting = true
	m.FogEnabled = false
	assert.Equal(t, "#define NORMAL\n#define UV1\n#define DIFFUSE", m.Defines(mesh, litScene()))

	noUVs := fakeMesh{engine.PositionKind: true, engine.ColorKind: true}
	assert.Equal(t, "#define VERTEXCOLOR", m.Defines(noUVs, litScene()))
}

func TestMaterialCompilesBuiltinShader(t *testing.T) {
	e, d := newTestEngine(t)
	RegisterBuiltinShaders(e.ShaderStore())

	m := NewMaterial("lit", e)
	mesh := fakeMesh{engine.PositionKind: true, engine.NormalKind: true}
	scene := litScene()

	require.True(t, m.IsReadyForMesh(mesh, scene))
	fx := m.Effect()
	assert.Same(t, fx, m.EffectFor(mesh, scene))
	assert.Equal(t, 1, d.Calls["LinkProgram"])

	fragment := fx.FragmentSourceCode()
	assert.Contains(t, fragment, "uniform vec4 vLightData0;")
	assert.Contains(t, fragment, "uniform vec4 vLightData3;")
	assert.Contains(t, fragment, "color.rgb = mix(vFogColor, color.rgb, fog);")
	assert.Contains(t, fragment, "glFragColor = color;")
	assert.NotContains(t, fragment, "#include")

	other := NewMaterial("other", e)
	assert.Same(t, fx, other.EffectFor(mesh, scene), "same layout shares the cached effect")
}

func TestMaterialFallsBackWithoutFog(t *testing.T) {
	e, d := newTestEngine(t)
	RegisterBuiltinShaders(e.ShaderStore())
	// FOGMODE_* defines from the fog include must not match.
	d.FailShadersContaining("#define FOG\n")

	m := NewMaterial("foggy", e)
	fx := m.EffectFor(fakeMesh{engine.PositionKind: true}, litScene())

	assert.True(t, fx.IsReady())
	assert.Equal(t, "#define LIGHT0\n#define LIGHT1", fx.Defines())
	assert.Equal(t, 2, d.Calls["LinkProgram"])
}

func TestMaterialBindSetsStateAndUniforms(t *testing.T) {
	e, d := newTestEngine(t)
	RegisterBuiltinShaders(e.ShaderStore())

	m := GlassMaterial(e)
	mesh := fakeMesh{engine.PositionKind: true, engine.NormalKind: true}
	scene := litScene()
	fx := m.EffectFor(mesh, scene)
	require.True(t, fx.IsReady())

	bound := 0
	m.OnBindObservable.Add(func(*Material) { bound++ })
	m.Bind(math.Mat4Translation(math.Vec3{X: 1}), fx, scene)

	assert.Equal(t, 1, bound)
	assert.Same(t, fx, e.CurrentEffect())
	assert.Equal(t, engine.AlphaCombine, e.AlphaMode())
	assert.Equal(t, []float32{0.9, 0.95, 1.0, 0.3}, d.UniformValues[fx.Uniform("vDiffuseColor").Location()])
	assert.Equal(t, []float32{0, -1, 0, 1}, d.UniformValues[fx.Uniform("vLightData0").Location()])
	assert.Equal(t, []float32{1, 0, 0, 20}, d.UniformValues[fx.Uniform("vLightDiffuse1").Location()])
	assert.Equal(t, []float32{FogModeExp, 0, 0, 0.1}, d.UniformValues[fx.Uniform("vFogInfos").Location()])
}

func TestMaterialCloneSharesTexture(t *testing.T) {
	e, _ := newTestEngine(t)
	m := RedMaterial(e)
	m.DiffuseTexture = e.EmptyTexture()

	clone := m.Clone("copy")
	assert.Equal(t, "copy", clone.Name)
	assert.Equal(t, core.ColorRed, clone.DiffuseColor)
	assert.Same(t, m.DiffuseTexture, clone.DiffuseTexture)
	assert.Nil(t, clone.Effect())
}

func TestMaterialDispose(t *testing.T) {
	e, _ := newTestEngine(t)
	RegisterBuiltinShaders(e.ShaderStore())
	m := NewMaterial("lit", e)
	fx := m.EffectFor(fakeMesh{engine.PositionKind: true}, nil)

	m.Dispose(false)
	assert.Nil(t, m.Effect())
	assert.False(t, fx.IsDisposed())

	m.EffectFor(fakeMesh{engine.PositionKind: true}, nil)
	m.Dispose(true)
	assert.True(t, fx.IsDisposed())
}
