package scene

import (
	"fmt"
	"log/slog"
	"slices"
	"sort"

	"render-core/core"
	"render-core/engine"
	"render-core/materials"
	"render-core/math"
)

// Scene owns the nodes, meshes, geometries and cameras drawn by one engine.
type Scene struct {
	ActiveCamera *Camera
	Lights       []*Light

	AmbientColor core.Color
	Clear        core.ClearValue
	AutoClear    bool

	FogMode    int
	FogStart   float32
	FogEnd     float32
	FogDensity float32
	FogColor   core.Color

	OnBeforeRenderObservable core.Observable[*Scene]
	OnAfterRenderObservable  core.Observable[*Scene]
	OnDisposeObservable      core.Observable[*Scene]

	engine *engine.ThinEngine
	logger *slog.Logger

	renderID      int
	uniqueCounter int

	transformNodes []*TransformNode
	cameras        []*Camera
	meshes         []*Mesh
	geometries     []*Geometry

	textures        map[string]*engine.InternalTexture
	defaultMaterial *materials.Material
	restoreObserver *core.Observer[*engine.ThinEngine]

	activeMeshes int
	disposed     bool
}

func NewScene(e *engine.ThinEngine) *Scene {
	s := &Scene{
		AmbientColor: core.Color{R: 0.2, G: 0.2, B: 0.2, A: 1.0},
		Clear:        core.DefaultClearValue(),
		AutoClear:    true,
		FogStart:     20,
		FogEnd:       1000,
		FogDensity:   0.1,
		FogColor:     core.Color{R: 0.2, G: 0.2, B: 0.3, A: 1},
		engine:       e,
		logger:       e.Logger().With("component", "scene"),
		textures:     make(map[string]*engine.InternalTexture),
	}
	s.restoreObserver = e.OnContextRestoredObservable.Add(func(*engine.ThinEngine) {
		s.rebuild()
	})
	return s
}

func (s *Scene) Engine() *engine.ThinEngine { return s.engine }
func (s *Scene) Logger() *slog.Logger       { return s.logger }

// RenderID identifies the current frame. World matrices computed under an
// older id are recomputed on access.
func (s *Scene) RenderID() int { return s.renderID }

// IncrementRenderID starts a new frame for cached world matrices.
func (s *Scene) IncrementRenderID() { s.renderID++ }

func (s *Scene) nextUniqueID() int {
	s.uniqueCounter++
	return s.uniqueCounter
}

func (s *Scene) nextGeometryID(name string) string {
	return fmt.Sprintf("%s#%d", name, s.nextUniqueID())
}

func (s *Scene) TransformNodes() []*TransformNode { return slices.Clone(s.transformNodes) }
func (s *Scene) Cameras() []*Camera               { return slices.Clone(s.cameras) }
func (s *Scene) Meshes() []*Mesh                  { return slices.Clone(s.meshes) }
func (s *Scene) Geometries() []*Geometry          { return slices.Clone(s.geometries) }

func (s *Scene) addTransformNode(n *TransformNode) {
	s.transformNodes = append(s.transformNodes, n)
}

func (s *Scene) removeTransformNode(n *TransformNode) {
	s.transformNodes = removeItem(s.transformNodes, n)
}

func (s *Scene) addCamera(c *Camera) {
	s.cameras = append(s.cameras, c)
	if s.ActiveCamera == nil {
		s.ActiveCamera = c
	}
}

func (s *Scene) removeCamera(c *Camera) {
	s.cameras = removeItem(s.cameras, c)
	if s.ActiveCamera == c {
		s.ActiveCamera = nil
		if len(s.cameras) > 0 {
			s.ActiveCamera = s.cameras[0]
		}
	}
}

func (s *Scene) addMesh(m *Mesh) {
	s.meshes = append(s.meshes, m)
}

func (s *Scene) removeMesh(m *Mesh) {
	s.meshes = removeItem(s.meshes, m)
}

func (s *Scene) addGeometry(g *Geometry) {
	if slices.Contains(s.geometries, g) {
		return
	}
	s.geometries = append(s.geometries, g)
}

func (s *Scene) removeGeometry(g *Geometry) {
	s.geometries = removeItem(s.geometries, g)
}

func removeItem[T comparable](list []T, item T) []T {
	if i := slices.Index(list, item); i >= 0 {
		return slices.Delete(list, i, i+1)
	}
	return list
}

// GeometryByID returns the geometry registered under id.
func (s *Scene) GeometryByID(id string) *Geometry {
	for _, g := range s.geometries {
		if g.ID == id {
			return g
		}
	}
	return nil
}

// MeshByName returns the first mesh called name.
func (s *Scene) MeshByName(name string) *Mesh {
	for _, m := range s.meshes {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// TransformNodeByName searches plain transform nodes, then meshes and cameras.
func (s *Scene) TransformNodeByName(name string) *TransformNode {
	for _, n := range s.transformNodes {
		if n.Name == name {
			return n
		}
	}
	if m := s.MeshByName(name); m != nil {
		return &m.TransformNode
	}
	for _, c := range s.cameras {
		if c.Name == name {
			return &c.TransformNode
		}
	}
	return nil
}

// DefaultMaterial is used by meshes without a material.
func (s *Scene) DefaultMaterial() *materials.Material {
	if s.defaultMaterial == nil {
		s.defaultMaterial = materials.NewMaterial("default material", s.engine)
	}
	return s.defaultMaterial
}

// ── Lights ─────────────────────────────────────────────────────────────────

// Light types
const (
	LightTypeDirectional = iota
	LightTypePoint
)

// Light is a directional or point light. At most
// materials.MaxSimultaneousLights enabled lights reach a material.
type Light struct {
	Name      string
	Type      int
	Position  math.Vec3
	Direction math.Vec3
	Diffuse   core.Color
	Specular  core.Color
	Intensity float32
	// Range limits point light attenuation; zero means unbounded.
	Range   float32
	Enabled bool
}

func NewDirectionalLight(name string, direction math.Vec3) *Light {
	return &Light{
		Name:      name,
		Type:      LightTypeDirectional,
		Direction: direction.Normalize(),
		Diffuse:   core.ColorWhite,
		Specular:  core.ColorWhite,
		Intensity: 1,
		Enabled:   true,
	}
}

func NewPointLight(name string, position math.Vec3) *Light {
	return &Light{
		Name:      name,
		Type:      LightTypePoint,
		Position:  position,
		Diffuse:   core.ColorWhite,
		Specular:  core.ColorWhite,
		Intensity: 1,
		Enabled:   true,
	}
}

func (l *Light) data() materials.LightData {
	return materials.LightData{
		Directional: l.Type == LightTypeDirectional,
		Position:    l.Position,
		Direction:   l.Direction,
		Diffuse:     l.Diffuse,
		Specular:    l.Specular,
		Intensity:   l.Intensity,
		Range:       l.Range,
	}
}

func (s *Scene) AddLight(light *Light) {
	s.Lights = append(s.Lights, light)
}

func (s *Scene) RemoveLight(light *Light) {
	s.Lights = removeItem(s.Lights, light)
}

// ── Textures ───────────────────────────────────────────────────────────────

// LoadTexture returns the scene's texture for path, starting an asynchronous
// load the first time the path is seen.
func (s *Scene) LoadTexture(path string, invertY bool) *engine.InternalTexture {
	key := fmt.Sprintf("%s|%t", path, invertY)
	if t, ok := s.textures[key]; ok {
		return t
	}
	t := s.engine.LoadTextureFile(path, invertY, engine.TextureTrilinearSamplingMode, nil, func(err error) {
		s.logger.Warn("scene texture unavailable", "url", path, "error", err)
	})
	s.textures[key] = t
	return t
}

// AddTexture registers a texture created elsewhere under name so it is
// released with the scene.
func (s *Scene) AddTexture(name string, t *engine.InternalTexture) {
	if old, ok := s.textures[name]; ok && old != t {
		old.Dispose()
	}
	s.textures[name] = t
}

func (s *Scene) TextureCount() int { return len(s.textures) }

// ── Frame ──────────────────────────────────────────────────────────────────

// Uniforms collects the per-frame values bound by every material.
func (s *Scene) Uniforms() *materials.SceneUniforms {
	u := &materials.SceneUniforms{
		ViewProjection: math.Mat4Identity(),
		AmbientColor:   s.AmbientColor,
		FogMode:        s.FogMode,
		FogStart:       s.FogStart,
		FogEnd:         s.FogEnd,
		FogDensity:     s.FogDensity,
		FogColor:       s.FogColor,
	}
	if cam := s.ActiveCamera; cam != nil {
		u.ViewProjection = cam.ViewProjectionMatrix()
		u.EyePosition = cam.GlobalPosition()
	}
	for _, l := range s.Lights {
		if l.Enabled && len(u.Lights) < materials.MaxSimultaneousLights {
			u.Lights = append(u.Lights, l.data())
		}
	}
	return u
}

// IsReady reports whether every visible mesh can be drawn.
func (s *Scene) IsReady() bool {
	u := s.Uniforms()
	for _, m := range s.meshes {
		if m.IsVisible && m.IsEnabled(true) && !m.IsReady(u) {
			return false
		}
	}
	return true
}

// ActiveMeshCount is the number of meshes drawn by the last Render.
func (s *Scene) ActiveMeshCount() int { return s.activeMeshes }

// Render draws one frame: world matrices are brought up to date, meshes outside
// the camera frustum are skipped, opaque meshes are drawn first and blended
// meshes afterwards from back to front.
func (s *Scene) Render() {
	if s.disposed {
		return
	}
	s.renderID++
	s.engine.RunPendingTasks()
	s.OnBeforeRenderObservable.NotifyObservers(s)

	for _, c := range s.cameras {
		c.ComputeWorldMatrix(false)
	}
	for _, n := range s.transformNodes {
		n.ComputeWorldMatrix(false)
	}

	if s.AutoClear {
		s.engine.Clear(&s.Clear.Color, true, true)
	}

	uniforms := s.Uniforms()
	var frustum *Frustum
	if s.ActiveCamera != nil {
		f := s.ActiveCamera.Frustum()
		frustum = &f
	}

	var opaque, blended []*Mesh
	for _, m := range s.meshes {
		if !m.IsVisible || !m.IsEnabled(true) || m.geometry == nil {
			continue
		}
		m.ComputeWorldMatrix(false)
		if frustum != nil && !m.AlwaysSelectAsActiveMesh && m.boundingInfo != nil && !m.boundingInfo.IsInFrustum(frustum) {
			continue
		}
		if m.effectiveMaterial().NeedAlphaBlending() {
			blended = append(blended, m)
		} else {
			opaque = append(opaque, m)
		}
	}

	if len(blended) > 1 {
		eye := uniforms.EyePosition
		sort.SliceStable(blended, func(i, j int) bool {
			return blended[i].worldPosition().Distance(eye) > blended[j].worldPosition().Distance(eye)
		})
	}

	s.activeMeshes = 0
	for _, m := range opaque {
		if m.Render(uniforms) {
			s.activeMeshes++
		}
	}
	for _, m := range blended {
		if m.Render(uniforms) {
			s.activeMeshes++
		}
	}

	s.OnAfterRenderObservable.NotifyObservers(s)
}

func (s *Scene) rebuild() {
	s.logger.Info("rebuilding scene resources", "geometries", len(s.geometries))
	for _, g := range s.geometries {
		g.Rebuild()
	}
	for _, m := range s.meshes {
		m.invalidateSubMeshes()
	}
}

// Dispose releases every mesh, geometry, camera and texture of the scene.
func (s *Scene) Dispose() {
	if s.disposed {
		return
	}
	s.OnDisposeObservable.NotifyObservers(s)
	s.OnDisposeObservable.Clear()

	for _, m := range slices.Clone(s.meshes) {
		m.Dispose(false)
	}
	for _, n := range slices.Clone(s.transformNodes) {
		n.Dispose(false)
	}
	for _, c := range slices.Clone(s.cameras) {
		c.Dispose(false)
	}
	for _, g := range slices.Clone(s.geometries) {
		g.Dispose()
	}
	for name, t := range s.textures {
		t.Dispose()
		delete(s.textures, name)
	}
	if s.defaultMaterial != nil {
		s.defaultMaterial.Dispose(false)
	}
	s.engine.OnContextRestoredObservable.Remove(s.restoreObserver)
	s.OnBeforeRenderObservable.Clear()
	s.OnAfterRenderObservable.Clear()
	s.disposed = true
}

func (s *Scene) IsDisposed() bool { return s.disposed }
