package scene

import (
	"encoding/json"
	"fmt"
	"os"

	"render-core/core"
	"render-core/materials"
	"render-core/math"
)

// sceneFormatVersion is written to every saved scene. Files with a newer
// version are rejected.
const sceneFormatVersion = 2

type sceneJSON struct {
	Version        int
	AmbientColor   [4]float32
	ClearColor     [4]float32
	Fog            fogJSON
	ActiveCameraID int `json:",omitempty"`
	Cameras        []cameraJSON
	Lights         []lightJSON
	Materials      []materialJSON
	Geometries     []geometryJSON
	TransformNodes []nodeJSON
	Meshes         []meshJSON
}

type fogJSON struct {
	Mode                int
	Start, End, Density float32
	Color               [4]float32
}

// nodeJSON identifies nodes by their unique id at save time. Parents are
// resolved after every node of the file exists.
type nodeJSON struct {
	UniqueID           int
	ParentID           int `json:",omitempty"`
	Name               string
	Enabled            bool
	Position           [3]float32
	Rotation           [3]float32
	RotationQuaternion *[4]float32 `json:",omitempty"`
	Scaling            [3]float32
	BillboardMode      int  `json:",omitempty"`
	InfiniteDistance   bool `json:",omitempty"`
}

type cameraJSON struct {
	nodeJSON
	Mode            int
	Fov, MinZ, MaxZ float32
	Ortho           [4]float32  `json:",omitempty"`
	Target          *[3]float32 `json:",omitempty"`
}

type meshJSON struct {
	nodeJSON
	GeometryID string `json:",omitempty"`
	Material   string `json:",omitempty"`
	DrawMode   int
	IsVisible  bool
}

type geometryJSON struct {
	ID        string
	Positions []float32
	Normals   []float32 `json:",omitempty"`
	Tangents  []float32 `json:",omitempty"`
	UVs       []float32 `json:",omitempty"`
	UVs2      []float32 `json:",omitempty"`
	Colors    []float32 `json:",omitempty"`
	Indices   []uint32  `json:",omitempty"`
}

type materialJSON struct {
	Name            string
	Diffuse         [4]float32
	Specular        [4]float32
	Emissive        [4]float32
	Ambient         [4]float32
	SpecularPower   float32
	Alpha           float32
	DiffuseTexture  string `json:",omitempty"`
	BackFaceCulling bool
	Wireframe       bool
	DisableLighting bool
	FogEnabled      bool
}

type lightJSON struct {
	Name      string
	Type      int
	Position  [3]float32
	Direction [3]float32
	Diffuse   [4]float32
	Specular  [4]float32
	Intensity float32
	Range     float32
	Enabled   bool
}

// Serialize encodes the scene graph, cameras, lights, materials and the
// vertex data of every geometry.
func (s *Scene) Serialize() ([]byte, error) {
	js := sceneJSON{
		Version:      sceneFormatVersion,
		AmbientColor: colorArray(s.AmbientColor),
		ClearColor:   colorArray(s.Clear.Color),
		Fog: fogJSON{
			Mode: s.FogMode, Start: s.FogStart, End: s.FogEnd,
			Density: s.FogDensity, Color: colorArray(s.FogColor),
		},
	}
	if s.ActiveCamera != nil {
		js.ActiveCameraID = s.ActiveCamera.uniqueID
	}

	for _, c := range s.cameras {
		cj := cameraJSON{
			nodeJSON: nodeToJSON(&c.TransformNode),
			Mode:     c.Mode,
			Fov:      c.Fov,
			MinZ:     c.MinZ,
			MaxZ:     c.MaxZ,
			Ortho:    [4]float32{c.OrthoLeft, c.OrthoRight, c.OrthoBottom, c.OrthoTop},
		}
		if target, ok := c.Target(); ok {
			t := vecArray(target)
			cj.Target = &t
		}
		js.Cameras = append(js.Cameras, cj)
	}

	for _, l := range s.Lights {
		js.Lights = append(js.Lights, lightJSON{
			Name: l.Name, Type: l.Type,
			Position: vecArray(l.Position), Direction: vecArray(l.Direction),
			Diffuse: colorArray(l.Diffuse), Specular: colorArray(l.Specular),
			Intensity: l.Intensity, Range: l.Range, Enabled: l.Enabled,
		})
	}

	for _, g := range s.geometries {
		if !g.IsReady() {
			continue
		}
		vd := ExtractFromGeometry(g, false, false)
		js.Geometries = append(js.Geometries, geometryJSON{
			ID: g.ID, Positions: vd.Positions, Normals: vd.Normals,
			Tangents: vd.Tangents, UVs: vd.UVs, UVs2: vd.UVs2,
			Colors: vd.Colors, Indices: vd.Indices,
		})
	}

	for _, n := range s.transformNodes {
		js.TransformNodes = append(js.TransformNodes, nodeToJSON(n))
	}

	seen := make(map[*materials.Material]bool)
	for _, m := range s.meshes {
		mj := meshJSON{
			nodeJSON:  nodeToJSON(&m.TransformNode),
			DrawMode:  m.DrawMode,
			IsVisible: m.IsVisible,
		}
		if m.geometry != nil {
			mj.GeometryID = m.geometry.ID
		}
		if mat := m.material; mat != nil {
			mj.Material = mat.Name
			if !seen[mat] {
				seen[mat] = true
				js.Materials = append(js.Materials, materialToJSON(mat))
			}
		}
		js.Meshes = append(js.Meshes, mj)
	}

	data, err := json.MarshalIndent(js, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal scene: %w", err)
	}
	return data, nil
}

// SaveScene writes the serialized scene to path.
func SaveScene(s *Scene, path string) error {
	data, err := s.Serialize()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write scene %q: %w", path, err)
	}
	return nil
}

// LoadScene appends the content of a file written by SaveScene to s.
func LoadScene(s *Scene, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read scene %q: %w", path, err)
	}
	return s.Append(data)
}

// Append decodes serialized scene data and adds its nodes, meshes, geometries,
// lights and cameras to s. Scene wide colors and fog are replaced.
func (s *Scene) Append(data []byte) error {
	var js sceneJSON
	if err := json.Unmarshal(data, &js); err != nil {
		return fmt.Errorf("unmarshal scene: %w", err)
	}
	if js.Version > sceneFormatVersion {
		return fmt.Errorf("scene format version %d is newer than %d", js.Version, sceneFormatVersion)
	}

	s.AmbientColor = arrayColor(js.AmbientColor)
	s.Clear.Color = arrayColor(js.ClearColor)
	s.FogMode = js.Fog.Mode
	s.FogStart, s.FogEnd, s.FogDensity = js.Fog.Start, js.Fog.End, js.Fog.Density
	s.FogColor = arrayColor(js.Fog.Color)

	for _, lj := range js.Lights {
		s.AddLight(&Light{
			Name: lj.Name, Type: lj.Type,
			Position: arrayVec(lj.Position), Direction: arrayVec(lj.Direction),
			Diffuse: arrayColor(lj.Diffuse), Specular: arrayColor(lj.Specular),
			Intensity: lj.Intensity, Range: lj.Range, Enabled: lj.Enabled,
		})
	}

	mats := make(map[string]*materials.Material, len(js.Materials))
	for _, mj := range js.Materials {
		mats[mj.Name] = s.materialFromJSON(mj)
	}

	geometries := make(map[string]*Geometry, len(js.Geometries))
	for _, gj := range js.Geometries {
		vd := &VertexData{
			Positions: gj.Positions, Normals: gj.Normals, Tangents: gj.Tangents,
			UVs: gj.UVs, UVs2: gj.UVs2, Colors: gj.Colors, Indices: gj.Indices,
		}
		if err := vd.Validate(); err != nil {
			return fmt.Errorf("geometry %q: %w", gj.ID, err)
		}
		geometries[gj.ID] = NewGeometry(gj.ID, s, vd, false)
	}

	nodes := make(map[int]*TransformNode)
	parents := make(map[*TransformNode]int)
	register := func(n *TransformNode, nj nodeJSON) {
		nodeFromJSON(n, nj)
		nodes[nj.UniqueID] = n
		if nj.ParentID != 0 {
			parents[n] = nj.ParentID
		}
	}

	for _, cj := range js.Cameras {
		c := NewCamera(cj.Name, arrayVec(cj.Position), s)
		register(&c.TransformNode, cj.nodeJSON)
		c.Mode, c.Fov, c.MinZ, c.MaxZ = cj.Mode, cj.Fov, cj.MinZ, cj.MaxZ
		c.OrthoLeft, c.OrthoRight, c.OrthoBottom, c.OrthoTop = cj.Ortho[0], cj.Ortho[1], cj.Ortho[2], cj.Ortho[3]
		if cj.Target != nil {
			c.SetTarget(arrayVec(*cj.Target))
		}
		if cj.UniqueID == js.ActiveCameraID {
			s.ActiveCamera = c
		}
	}

	for _, nj := range js.TransformNodes {
		register(NewTransformNode(nj.Name, s), nj)
	}

	for _, mj := range js.Meshes {
		m := NewMesh(mj.Name, s)
		register(&m.TransformNode, mj.nodeJSON)
		m.DrawMode = mj.DrawMode
		m.IsVisible = mj.IsVisible
		if mat, ok := mats[mj.Material]; ok {
			m.SetMaterial(mat)
		}
		if mj.GeometryID != "" {
			g, ok := geometries[mj.GeometryID]
			if !ok {
				return fmt.Errorf("mesh %q: unknown geometry %q", mj.Name, mj.GeometryID)
			}
			g.ApplyToMesh(m)
		}
	}

	for child, parentID := range parents {
		parent, ok := nodes[parentID]
		if !ok {
			s.logger.Warn("scene node parent missing", "node", child.Name, "parent", parentID)
			continue
		}
		child.AttachTo(parent)
	}
	return nil
}

func nodeToJSON(n *TransformNode) nodeJSON {
	nj := nodeJSON{
		UniqueID:         n.uniqueID,
		Name:             n.Name,
		Enabled:          n.enabled,
		Position:         vecArray(n.position),
		Rotation:         vecArray(n.rotation),
		Scaling:          vecArray(n.scaling),
		BillboardMode:    n.billboardMode,
		InfiniteDistance: n.infiniteDistance,
	}
	if n.parent != nil {
		nj.ParentID = n.parent.uniqueID
	}
	if q, ok := n.RotationQuaternion(); ok {
		nj.RotationQuaternion = &[4]float32{q.X, q.Y, q.Z, q.W}
	}
	return nj
}

func nodeFromJSON(n *TransformNode, nj nodeJSON) {
	n.SetEnabled(nj.Enabled)
	n.SetPosition(arrayVec(nj.Position))
	n.SetScaling(arrayVec(nj.Scaling))
	if q := nj.RotationQuaternion; q != nil {
		n.SetRotationQuaternion(math.Quaternion{X: q[0], Y: q[1], Z: q[2], W: q[3]})
	} else {
		n.SetRotation(arrayVec(nj.Rotation))
	}
	n.SetBillboardMode(nj.BillboardMode)
	n.SetInfiniteDistance(nj.InfiniteDistance)
}

func materialToJSON(m *materials.Material) materialJSON {
	mj := materialJSON{
		Name:            m.Name,
		Diffuse:         colorArray(m.DiffuseColor),
		Specular:        colorArray(m.SpecularColor),
		Emissive:        colorArray(m.EmissiveColor),
		Ambient:         colorArray(m.AmbientColor),
		SpecularPower:   m.SpecularPower,
		Alpha:           m.Alpha,
		BackFaceCulling: m.BackFaceCulling,
		Wireframe:       m.Wireframe,
		DisableLighting: m.DisableLighting,
		FogEnabled:      m.FogEnabled,
	}
	if m.DiffuseTexture != nil {
		mj.DiffuseTexture = m.DiffuseTexture.URL
	}
	return mj
}

func (s *Scene) materialFromJSON(mj materialJSON) *materials.Material {
	m := materials.NewMaterial(mj.Name, s.engine)
	m.DiffuseColor = arrayColor(mj.Diffuse)
	m.SpecularColor = arrayColor(mj.Specular)
	m.EmissiveColor = arrayColor(mj.Emissive)
	m.AmbientColor = arrayColor(mj.Ambient)
	m.SpecularPower = mj.SpecularPower
	m.Alpha = mj.Alpha
	m.BackFaceCulling = mj.BackFaceCulling
	m.Wireframe = mj.Wireframe
	m.DisableLighting = mj.DisableLighting
	m.FogEnabled = mj.FogEnabled
	if mj.DiffuseTexture != "" {
		m.DiffuseTexture = s.LoadTexture(mj.DiffuseTexture, true)
	}
	return m
}

func vecArray(v math.Vec3) [3]float32    { return [3]float32{v.X, v.Y, v.Z} }
func arrayVec(a [3]float32) math.Vec3    { return math.Vec3{X: a[0], Y: a[1], Z: a[2]} }
func colorArray(c core.Color) [4]float32 { return [4]float32{c.R, c.G, c.B, c.A} }
func arrayColor(a [4]float32) core.Color { return core.Color{R: a[0], G: a[1], B: a[2], A: a[3]} }
