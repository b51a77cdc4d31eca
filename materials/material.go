package materials

import (
	"fmt"
	"strings"

	"render-core/core"
	"render-core/engine"
	"render-core/math"
)

// Fog modes, matching the FOGMODE_* values of the default shader.
const (
	FogModeNone   = 0
	FogModeExp    = 1
	FogModeExp2   = 2
	FogModeLinear = 3
)

// MeshAttributes is what a material needs to know about the mesh it draws.
type MeshAttributes interface {
	IsVerticesDataPresent(kind string) bool
}

// LightData is one light as the default shader consumes it.
type LightData struct {
	// Directional lights use Direction; point lights use Position and Range.
	Directional bool
	Position    math.Vec3
	Direction   math.Vec3
	Diffuse     core.Color
	Specular    core.Color
	Intensity   float32
	Range       float32
}

// SceneUniforms carries the per-frame values a material binds.
type SceneUniforms struct {
	ViewProjection math.Mat4
	EyePosition    math.Vec3
	AmbientColor   core.Color
	Lights         []LightData

	FogMode    int
	FogStart   float32
	FogEnd     float32
	FogDensity float32
	FogColor   core.Color
}

// unboundedLightRange keeps point light attenuation at 1.
const unboundedLightRange float32 = 1e30

var standardAttributes = []string{
	engine.PositionKind, engine.NormalKind, engine.UVKind, engine.ColorKind,
}

var standardUniforms = []string{
	"world", "viewProjection", "vEyePosition",
	"vDiffuseColor", "vSpecularColor", "vEmissiveColor", "vAmbientColor",
	"vDiffuseInfos", "vFogInfos", "vFogColor",
}

// Material is a Blinn-Phong material drawn with the default shader. The
// defines it compiles with follow the mesh attributes, its textures, the
// scene lights and fog.
type Material struct {
	Name string

	DiffuseColor  core.Color
	SpecularColor core.Color
	EmissiveColor core.Color
	AmbientColor  core.Color
	SpecularPower float32
	Alpha         float32

	// DiffuseTexture is sampled when the mesh has UVs. Level scales it.
	DiffuseTexture *engine.InternalTexture
	DiffuseLevel   float32

	BackFaceCulling bool
	Wireframe       bool
	DisableLighting bool
	FogEnabled      bool

	// Shader overrides the default shader, for example with InlineShader.
	Shader ShaderName

	engine  *engine.ThinEngine
	effect  *Effect
	defines string

	OnCompiledObservable core.Observable[*Effect]
	OnErrorObservable    core.Observable[*Effect]
	OnBindObservable     core.Observable[*Material]
}

func NewMaterial(name string, e *engine.ThinEngine) *Material {
	return &Material{
		Name:            name,
		DiffuseColor:    core.Color{R: 0.8, G: 0.8, B: 0.8, A: 1.0},
		SpecularColor:   core.Color{R: 1.0, G: 1.0, B: 1.0, A: 1.0},
		EmissiveColor:   core.Color{R: 0.0, G: 0.0, B: 0.0, A: 0.0},
		AmbientColor:    core.Color{R: 0.0, G: 0.0, B: 0.0, A: 1.0},
		SpecularPower:   64,
		Alpha:           1.0,
		DiffuseLevel:    1.0,
		BackFaceCulling: true,
		FogEnabled:      true,
		Shader:          Shader("default"),
		engine:          e,
	}
}

// Defines returns the define block for drawing mesh under scene.
func (m *Material) Defines(mesh MeshAttributes, scene *SceneUniforms) string {
	var lines []string
	add := func(name string) { lines = append(lines, "#define "+name) }

	hasUVs := mesh.IsVerticesDataPresent(engine.UVKind)
	if mesh.IsVerticesDataPresent(engine.NormalKind) {
		add("NORMAL")
	}
	if hasUVs {
		add("UV1")
	}
	if mesh.IsVerticesDataPresent(engine.ColorKind) {
		add("VERTEXCOLOR")
	}
	if hasUVs && m.DiffuseTexture != nil {
		add("DIFFUSE")
	}
	if scene != nil {
		if !m.DisableLighting {
			for i := range min(len(scene.Lights), MaxSimultaneousLights) {
				add(fmt.Sprintf("LIGHT%d", i))
			}
		}
		if m.FogEnabled && scene.FogMode != FogModeNone {
			add("FOG")
		}
	}
	return strings.Join(lines, "\n")
}

// fallbacks drops the costlier features first: fog, extra lights, the
// diffuse texture, then vertex colors.
func (m *Material) fallbacks(defines string) *EffectFallbacks {
	fallbacks := NewEffectFallbacks()
	has := func(name string) bool {
		for _, line := range strings.Split(defines, "\n") {
			if line == "#define "+name {
				return true
			}
		}
		return false
	}
	if has("FOG") {
		fallbacks.AddFallback(0, "FOG")
	}
	for i := 1; i < MaxSimultaneousLights; i++ {
		if name := fmt.Sprintf("LIGHT%d", i); has(name) {
			fallbacks.AddFallback(1, name)
		}
	}
	if has("DIFFUSE") {
		fallbacks.AddFallback(2, "DIFFUSE")
	}
	if has("VERTEXCOLOR") {
		fallbacks.AddFallback(3, "VERTEXCOLOR")
	}
	return fallbacks
}

// EffectFor returns the effect for mesh under scene, creating it when the
// defines changed. Effects come from the engine cache, so meshes with the
// same layout share one program.
func (m *Material) EffectFor(mesh MeshAttributes, scene *SceneUniforms) *Effect {
	defines := m.Defines(mesh, scene)
	if m.effect != nil && defines == m.defines && !m.effect.IsDisposed() {
		return m.effect
	}

	uniforms := append([]string(nil), standardUniforms...)
	for i := range MaxSimultaneousLights {
		uniforms = append(uniforms,
			fmt.Sprintf("vLightData%d", i),
			fmt.Sprintf("vLightDiffuse%d", i),
			fmt.Sprintf("vLightSpecular%d", i))
	}

	m.defines = defines
	m.effect = CreateEffect(m.engine, m.Shader, EffectOptions{
		Attributes:      standardAttributes,
		Uniforms:        uniforms,
		Samplers:        []string{"diffuseSampler"},
		Defines:         defines,
		Fallbacks:       m.fallbacks(defines),
		IndexParameters: map[string]int{"maxSimultaneousLights": MaxSimultaneousLights},
		OnCompiled: func(effect *Effect) {
			m.OnCompiledObservable.NotifyObservers(effect)
		},
		OnError: func(effect *Effect, _ string) {
			m.OnErrorObservable.NotifyObservers(effect)
		},
	})
	return m.effect
}

// IsReadyForMesh reports whether the effect for mesh is compiled.
func (m *Material) IsReadyForMesh(mesh MeshAttributes, scene *SceneUniforms) bool {
	return m.EffectFor(mesh, scene).IsReady()
}

func (m *Material) Effect() *Effect { return m.effect }

// NeedAlphaBlending reports whether the material draws transparent.
func (m *Material) NeedAlphaBlending() bool {
	return m.Alpha < 1.0
}

// FillMode maps the wireframe flag to a draw fill mode.
func (m *Material) FillMode() int {
	if m.Wireframe {
		return engine.WireFrameFillMode
	}
	return engine.TriangleFillMode
}

// Bind enables effect with the material's render state and uniforms.
func (m *Material) Bind(world math.Mat4, effect *Effect, scene *SceneUniforms) {
	e := m.engine
	e.SetState(m.BackFaceCulling, 0, false, true)
	if m.NeedAlphaBlending() {
		e.SetAlphaMode(engine.AlphaCombine, false)
	} else {
		e.SetAlphaMode(engine.AlphaDisable, false)
	}
	e.EnableEffect(effect)

	effect.SetMatrix("world", world)
	effect.SetMatrix("viewProjection", scene.ViewProjection)
	effect.SetFloat4("vEyePosition", scene.EyePosition.X, scene.EyePosition.Y, scene.EyePosition.Z, 1)

	effect.SetColor4("vDiffuseColor", m.DiffuseColor, m.Alpha)
	effect.SetColor4("vSpecularColor", m.SpecularColor, m.SpecularPower)
	effect.SetColor3("vEmissiveColor", m.EmissiveColor)
	effect.SetFloat3("vAmbientColor",
		m.AmbientColor.R*scene.AmbientColor.R,
		m.AmbientColor.G*scene.AmbientColor.G,
		m.AmbientColor.B*scene.AmbientColor.B)

	if m.DiffuseTexture != nil {
		effect.SetTexture("diffuseSampler", m.DiffuseTexture)
		effect.SetFloat2("vDiffuseInfos", m.DiffuseLevel, 0)
	}

	if !m.DisableLighting {
		for i, light := range scene.Lights {
			if i >= MaxSimultaneousLights {
				break
			}
			bindLight(effect, i, light)
		}
	}

	if m.FogEnabled && scene.FogMode != FogModeNone {
		effect.SetFloat4("vFogInfos", float32(scene.FogMode), scene.FogStart, scene.FogEnd, scene.FogDensity)
		effect.SetColor3("vFogColor", scene.FogColor)
	}

	m.OnBindObservable.NotifyObservers(m)
}

func bindLight(effect *Effect, index int, light LightData) {
	if light.Directional {
		effect.SetFloat4(fmt.Sprintf("vLightData%d", index), light.Direction.X, light.Direction.Y, light.Direction.Z, 1)
	} else {
		effect.SetFloat4(fmt.Sprintf("vLightData%d", index), light.Position.X, light.Position.Y, light.Position.Z, 0)
	}
	rangeValue := light.Range
	if rangeValue <= 0 {
		rangeValue = unboundedLightRange
	}
	effect.SetFloat4(fmt.Sprintf("vLightDiffuse%d", index),
		light.Diffuse.R*light.Intensity, light.Diffuse.G*light.Intensity, light.Diffuse.B*light.Intensity, rangeValue)
	effect.SetFloat3(fmt.Sprintf("vLightSpecular%d", index),
		light.Specular.R*light.Intensity, light.Specular.G*light.Intensity, light.Specular.B*light.Intensity)
}

// Clone copies the material. Textures and the compiled effect are shared.
func (m *Material) Clone(newName string) *Material {
	clone := &Material{
		Name:            newName,
		DiffuseColor:    m.DiffuseColor,
		SpecularColor:   m.SpecularColor,
		EmissiveColor:   m.EmissiveColor,
		AmbientColor:    m.AmbientColor,
		SpecularPower:   m.SpecularPower,
		Alpha:           m.Alpha,
		DiffuseTexture:  m.DiffuseTexture,
		DiffuseLevel:    m.DiffuseLevel,
		BackFaceCulling: m.BackFaceCulling,
		Wireframe:       m.Wireframe,
		DisableLighting: m.DisableLighting,
		FogEnabled:      m.FogEnabled,
		Shader:          m.Shader,
		engine:          m.engine,
	}
	return clone
}

// Dispose drops the material's effect reference. Effects stay in the engine
// cache for other materials; forceDisposeEffect releases it as well.
func (m *Material) Dispose(forceDisposeEffect bool) {
	if forceDisposeEffect && m.effect != nil {
		m.effect.Dispose()
	}
	m.effect = nil
	m.defines = ""
	m.OnCompiledObservable.Clear()
	m.OnErrorObservable.Clear()
	m.OnBindObservable.Clear()
}

// ── Presets ─────────────────────────────────────────────────────────────────

func RedMaterial(e *engine.ThinEngine) *Material {
	m := NewMaterial("Red", e)
	m.DiffuseColor = core.ColorRed
	return m
}

func GreenMaterial(e *engine.ThinEngine) *Material {
	m := NewMaterial("Green", e)
	m.DiffuseColor = core.ColorGreen
	return m
}

func BlueMaterial(e *engine.ThinEngine) *Material {
	m := NewMaterial("Blue", e)
	m.DiffuseColor = core.ColorBlue
	return m
}

// GlassMaterial is a transparent, highly specular material.
func GlassMaterial(e *engine.ThinEngine) *Material {
	m := NewMaterial("Glass", e)
	m.DiffuseColor = core.Color{R: 0.9, G: 0.95, B: 1.0, A: 1.0}
	m.SpecularPower = 256
	m.Alpha = 0.3
	return m
}

// EmissiveMaterial glows with its own color and ignores lights.
func EmissiveMaterial(e *engine.ThinEngine, r, g, b float32) *Material {
	m := NewMaterial("Emissive", e)
	m.DiffuseColor = core.Color{R: r, G: g, B: b, A: 1.0}
	m.EmissiveColor = core.Color{R: r, G: g, B: b, A: 1.0}
	m.DisableLighting = true
	return m
}
