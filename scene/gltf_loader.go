package scene

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"render-core/core"
	"render-core/engine"
	"render-core/materials"
	"render-core/math"
)

// GLTFResult lists what ImportGLTF added to the scene.
type GLTFResult struct {
	// Root converts the right handed file into the left handed scene. Every
	// imported top level node is its child.
	Root       *TransformNode
	Nodes      []*TransformNode
	Meshes     []*Mesh
	Geometries []*Geometry
	Materials  []*materials.Material
}

// ImportGLTF loads a .gltf or .glb file into scene. A glTF mesh used by
// several nodes produces one geometry per primitive shared by all of them.
func ImportGLTF(scene *Scene, path string) (*GLTFResult, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("gltf open %q: %w", path, err)
	}
	imp := &gltfImporter{
		scene:  scene,
		doc:    doc,
		dir:    filepath.Dir(path),
		path:   path,
		logger: scene.Logger().With("gltf", path),
		result: &GLTFResult{},
	}
	if err := imp.run(); err != nil {
		imp.rollback()
		return nil, err
	}
	return imp.result, nil
}

type gltfPrimitive struct {
	geometry *Geometry
	material *materials.Material
	drawMode int
}

type gltfImporter struct {
	scene  *Scene
	doc    *gltf.Document
	dir    string
	path   string
	logger *slog.Logger
	result *GLTFResult

	textures   []*engine.InternalTexture
	materials  []*materials.Material
	primitives [][]gltfPrimitive
}

func (imp *gltfImporter) run() error {
	imp.loadTextures()
	imp.loadMaterials()
	if err := imp.loadMeshes(); err != nil {
		return err
	}

	root := NewTransformNode("__root__", imp.scene)
	root.SetRotationQuaternion(math.Quaternion{X: 0, Y: 1, Z: 0, W: 0})
	root.SetScaling(math.Vec3{X: 1, Y: 1, Z: -1})
	imp.result.Root = root

	nodes := make([]*TransformNode, len(imp.doc.Nodes))
	for i, gn := range imp.doc.Nodes {
		nodes[i] = imp.createNode(i, gn)
	}
	hasParent := make([]bool, len(nodes))
	for i, gn := range imp.doc.Nodes {
		for _, child := range gn.Children {
			if child < 0 || child >= len(nodes) {
				return fmt.Errorf("gltf %q: node %d has invalid child %d", imp.path, i, child)
			}
			nodes[child].AttachTo(nodes[i])
			hasParent[child] = true
		}
	}

	var roots []int
	if imp.doc.Scene != nil && *imp.doc.Scene < len(imp.doc.Scenes) {
		roots = imp.doc.Scenes[*imp.doc.Scene].Nodes
	} else {
		for i := range nodes {
			if !hasParent[i] {
				roots = append(roots, i)
			}
		}
	}
	for _, i := range roots {
		if i >= 0 && i < len(nodes) {
			nodes[i].AttachTo(root)
		}
	}

	imp.logger.Debug("gltf imported",
		"nodes", len(imp.result.Nodes),
		"meshes", len(imp.result.Meshes),
		"geometries", len(imp.result.Geometries))
	return nil
}

func (imp *gltfImporter) loadTextures() {
	imp.textures = make([]*engine.InternalTexture, len(imp.doc.Textures))
	for i, gt := range imp.doc.Textures {
		if gt.Source == nil || *gt.Source >= len(imp.doc.Images) {
			continue
		}
		img := imp.doc.Images[*gt.Source]
		name := img.Name
		if name == "" {
			name = fmt.Sprintf("%s#image%d", imp.path, *gt.Source)
		}

		switch {
		case img.BufferView != nil:
			raw, err := modeler.ReadBufferView(imp.doc, imp.doc.BufferViews[*img.BufferView])
			if err != nil {
				imp.logger.Warn("gltf image buffer view", "image", *gt.Source, "error", err)
				continue
			}
			t, err := imp.scene.CreateTextureFromBytes(name, raw, false)
			if err != nil {
				imp.logger.Warn("gltf image decode", "image", *gt.Source, "error", err)
				continue
			}
			imp.textures[i] = t
		case img.IsEmbeddedResource():
			raw, err := img.MarshalData()
			if err != nil {
				imp.logger.Warn("gltf embedded image", "image", *gt.Source, "error", err)
				continue
			}
			t, err := imp.scene.CreateTextureFromBytes(name, raw, false)
			if err != nil {
				imp.logger.Warn("gltf image decode", "image", *gt.Source, "error", err)
				continue
			}
			imp.textures[i] = t
		case img.URI != "":
			imp.textures[i] = imp.scene.LoadTexture(filepath.Join(imp.dir, img.URI), false)
		}
	}
}

// loadMaterials approximates metallic-roughness with the Blinn-Phong default
// material: smooth surfaces get a high specular power, metals a strong
// specular color.
func (imp *gltfImporter) loadMaterials() {
	imp.materials = make([]*materials.Material, len(imp.doc.Materials))
	for i, gm := range imp.doc.Materials {
		name := gm.Name
		if name == "" {
			name = fmt.Sprintf("material%d", i)
		}
		mat := materials.NewMaterial(name, imp.scene.Engine())
		mat.BackFaceCulling = !gm.DoubleSided
		mat.EmissiveColor = core.Color{
			R: float32(gm.EmissiveFactor[0]),
			G: float32(gm.EmissiveFactor[1]),
			B: float32(gm.EmissiveFactor[2]),
			A: 1,
		}

		if pbr := gm.PBRMetallicRoughness; pbr != nil {
			base := pbr.BaseColorFactorOrDefault()
			mat.DiffuseColor = core.Color{R: float32(base[0]), G: float32(base[1]), B: float32(base[2]), A: 1}
			if gm.AlphaMode == gltf.AlphaBlend {
				mat.Alpha = float32(base[3])
			}
			if info := pbr.BaseColorTexture; info != nil && info.Index < len(imp.textures) {
				mat.DiffuseTexture = imp.textures[info.Index]
			}
			roughness := float32(pbr.RoughnessFactorOrDefault())
			metallic := float32(pbr.MetallicFactorOrDefault())
			mat.SpecularPower = (1-roughness)*(1-roughness)*128 + 1
			s := metallic * 0.7
			mat.SpecularColor = core.Color{R: s, G: s, B: s, A: 1}
		}
		imp.materials[i] = mat
		imp.result.Materials = append(imp.result.Materials, mat)
	}
}

func (imp *gltfImporter) loadMeshes() error {
	imp.primitives = make([][]gltfPrimitive, len(imp.doc.Meshes))
	for mi, gm := range imp.doc.Meshes {
		for pi, prim := range gm.Primitives {
			vd, err := imp.readPrimitive(prim)
			if err != nil {
				return fmt.Errorf("gltf %q mesh %d primitive %d: %w", imp.path, mi, pi, err)
			}
			id := fmt.Sprintf("%s#mesh%d.%d", imp.path, mi, pi)
			g := NewGeometry(id, imp.scene, vd, false)
			imp.result.Geometries = append(imp.result.Geometries, g)

			p := gltfPrimitive{geometry: g, drawMode: gltfDrawMode(prim.Mode)}
			if prim.Material != nil && *prim.Material < len(imp.materials) {
				p.material = imp.materials[*prim.Material]
			}
			imp.primitives[mi] = append(imp.primitives[mi], p)
		}
	}
	return nil
}

func gltfDrawMode(mode gltf.PrimitiveMode) int {
	switch mode {
	case gltf.PrimitivePoints:
		return engine.PointListDrawMode
	case gltf.PrimitiveLines:
		return engine.LineListDrawMode
	case gltf.PrimitiveLineLoop:
		return engine.LineLoopDrawMode
	case gltf.PrimitiveLineStrip:
		return engine.LineStripDrawMode
	case gltf.PrimitiveTriangleStrip:
		return engine.TriangleStripDrawMode
	case gltf.PrimitiveTriangleFan:
		return engine.TriangleFanDrawMode
	}
	return DrawModeMaterial
}

func (imp *gltfImporter) readPrimitive(prim *gltf.Primitive) (*VertexData, error) {
	doc := imp.doc
	posIdx, ok := prim.Attributes[gltf.POSITION]
	if !ok {
		return nil, ErrNoPositions
	}
	positions, err := modeler.ReadPosition(doc, doc.Accessors[posIdx], nil)
	if err != nil {
		return nil, fmt.Errorf("positions: %w", err)
	}

	vd := &VertexData{Positions: make([]float32, 0, len(positions)*3)}
	for _, p := range positions {
		vd.Positions = append(vd.Positions, p[0], p[1], p[2])
	}

	if idx, ok := prim.Attributes[gltf.NORMAL]; ok {
		normals, err := modeler.ReadNormal(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("normals: %w", err)
		}
		vd.Normals = make([]float32, 0, len(normals)*3)
		for _, n := range normals {
			vd.Normals = append(vd.Normals, n[0], n[1], n[2])
		}
	}
	if idx, ok := prim.Attributes[gltf.TANGENT]; ok {
		tangents, err := modeler.ReadTangent(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("tangents: %w", err)
		}
		vd.Tangents = make([]float32, 0, len(tangents)*4)
		for _, t := range tangents {
			vd.Tangents = append(vd.Tangents, t[0], t[1], t[2], t[3])
		}
	}
	if idx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
		uvs, err := modeler.ReadTextureCoord(doc, doc.Accessors[idx], nil)
		if err != nil {
			return nil, fmt.Errorf("uvs: %w", err)
		}
		vd.UVs = make([]float32, 0, len(uvs)*2)
		for _, uv := range uvs {
			vd.UVs = append(vd.UVs, uv[0], uv[1])
		}
	}
	if prim.Indices != nil {
		indices, err := modeler.ReadIndices(doc, doc.Accessors[*prim.Indices], nil)
		if err != nil {
			return nil, fmt.Errorf("indices: %w", err)
		}
		vd.Indices = indices
	}

	if vd.Normals == nil && vd.Indices != nil {
		vd.ComputeNormals()
	}
	if vd.Tangents == nil && vd.Normals != nil && vd.UVs != nil && vd.Indices != nil {
		vd.ComputeTangents()
	}
	if err := vd.Validate(); err != nil {
		return nil, err
	}
	return vd, nil
}

// createNode builds a transform node for a glTF node, or a mesh when it
// references a single primitive. Further primitives become child meshes.
func (imp *gltfImporter) createNode(index int, gn *gltf.Node) *TransformNode {
	name := gn.Name
	if name == "" {
		name = fmt.Sprintf("node%d", index)
	}

	var prims []gltfPrimitive
	if gn.Mesh != nil && *gn.Mesh < len(imp.primitives) {
		prims = imp.primitives[*gn.Mesh]
	}

	var node *TransformNode
	if len(prims) == 1 {
		node = &imp.newMesh(name, prims[0]).TransformNode
	} else {
		node = NewTransformNode(name, imp.scene)
		for pi, p := range prims {
			imp.newMesh(fmt.Sprintf("%s_primitive%d", name, pi), p).AttachTo(node)
		}
	}

	t := gn.TranslationOrDefault()
	node.SetPosition(math.Vec3{X: float32(t[0]), Y: float32(t[1]), Z: float32(t[2])})
	s := gn.ScaleOrDefault()
	node.SetScaling(math.Vec3{X: float32(s[0]), Y: float32(s[1]), Z: float32(s[2])})
	r := gn.RotationOrDefault()
	node.SetRotationQuaternion(math.Quaternion{X: float32(r[0]), Y: float32(r[1]), Z: float32(r[2]), W: float32(r[3])})

	imp.result.Nodes = append(imp.result.Nodes, node)
	return node
}

func (imp *gltfImporter) newMesh(name string, p gltfPrimitive) *Mesh {
	mesh := NewMesh(name, imp.scene)
	mesh.DrawMode = p.drawMode
	if p.material != nil {
		mesh.SetMaterial(p.material)
	}
	p.geometry.ApplyToMesh(mesh)
	imp.result.Meshes = append(imp.result.Meshes, mesh)
	return mesh
}

func (imp *gltfImporter) rollback() {
	for _, m := range imp.result.Meshes {
		m.Dispose(true)
	}
	for _, n := range imp.result.Nodes {
		n.Dispose(true)
	}
	if imp.result.Root != nil {
		imp.result.Root.Dispose(true)
	}
	for _, g := range imp.result.Geometries {
		g.Dispose()
	}
}
