package scene

import (
	"github.com/chewxy/math32"

	"render-core/core"
	"render-core/engine"
	"render-core/materials"
)

// SkyGradient colors a procedural sky by the vertical direction of each
// vertex.
type SkyGradient struct {
	// Zenith is the color straight up.
	Zenith core.Color
	// Horizon is the color at the horizon.
	Horizon core.Color
	// Ground is the color below the horizon.
	Ground core.Color
}

// DefaultSkyGradient is a clear day sky.
func DefaultSkyGradient() SkyGradient {
	return SkyGradient{
		Zenith:  core.Color{R: 0.10, G: 0.30, B: 0.70, A: 1},
		Horizon: core.Color{R: 0.60, G: 0.80, B: 1.00, A: 1},
		Ground:  core.Color{R: 0.30, G: 0.25, B: 0.20, A: 1},
	}
}

// At returns the sky color for a normalized direction with vertical
// component y.
func (g SkyGradient) At(y float32) core.Color {
	if y >= 0 {
		return g.Horizon.Lerp(g.Zenith, math32.Pow(y, 0.4))
	}
	return g.Horizon.Lerp(g.Ground, min(-y*3, 1))
}

// CreateSkyboxData builds an inward facing sphere whose vertex colors follow
// gradient.
func CreateSkyboxData(size float32, gradient SkyGradient) *VertexData {
	vd := CreateSphereData(size/2, 32, 16)
	vd.Colors = make([]float32, 0, len(vd.Positions)/3*4)
	for i := 0; i+2 < len(vd.Positions); i += 3 {
		y := vd.Positions[i+1] / (size / 2)
		c := gradient.At(y)
		vd.Colors = append(vd.Colors, c.R, c.G, c.B, 1)
	}
	for i := 0; i+2 < len(vd.Indices); i += 3 {
		vd.Indices[i], vd.Indices[i+2] = vd.Indices[i+2], vd.Indices[i]
	}
	for i := range vd.Normals {
		vd.Normals[i] = -vd.Normals[i]
	}
	return vd
}

// CreateSkybox creates a sky mesh that follows the active camera. It is
// unlit, ignores fog and is never culled.
func CreateSkybox(name string, size float32, gradient SkyGradient, scene *Scene) (*Mesh, error) {
	mesh, err := NewMeshFromVertexData(name, CreateSkyboxData(size, gradient), scene, false)
	if err != nil {
		return nil, err
	}
	mesh.SetInfiniteDistance(true)
	mesh.AlwaysSelectAsActiveMesh = true
	mesh.DrawMode = engine.TriangleFillMode

	mat := materials.NewMaterial(name+" material", scene.Engine())
	mat.DisableLighting = true
	mat.FogEnabled = false
	mat.BackFaceCulling = false
	mat.EmissiveColor = core.ColorWhite
	mat.DiffuseColor = core.ColorBlack
	mat.SpecularColor = core.ColorBlack
	mesh.SetMaterial(mat)
	return mesh, nil
}
