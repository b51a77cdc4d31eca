package scene

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"render-core/core"
	"render-core/materials"
	"render-core/math"
)

// OBJGroup is one object or group of a Wavefront file, already indexed and
// triangulated.
type OBJGroup struct {
	Name     string
	Material string
	Data     *VertexData
}

// MTLMaterial is the subset of a Wavefront material definition the default
// material can represent.
type MTLMaterial struct {
	Name          string
	Ambient       core.Color
	Diffuse       core.Color
	Specular      core.Color
	Emissive      core.Color
	SpecularPower float32
	Alpha         float32
	DiffuseMap    string
}

// objCorner references a position, UV and normal of the file pools.
// Missing entries are -1.
type objCorner struct{ v, vt, vn int }

type objGroupBuilder struct {
	name, material string
	corners        []objCorner
}

type objParser struct {
	positions []math.Vec3
	normals   []math.Vec3
	uvs       []math.Vec2
	groups    []*objGroupBuilder
	current   *objGroupBuilder
	libraries []string
}

// ParseOBJ reads a Wavefront OBJ stream. Polygons are fan triangulated and
// vertices deduplicated per group. Groups without faces are dropped. The
// returned libraries are the mtllib references in file order.
func ParseOBJ(r io.Reader) (groups []OBJGroup, libraries []string, err error) {
	p := &objParser{current: &objGroupBuilder{name: "default"}}
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if err := p.parseLine(fields); err != nil {
			return nil, nil, fmt.Errorf("obj line %d: %w", lineNo, err)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, fmt.Errorf("scan obj: %w", err)
	}
	p.flush()

	for _, g := range p.groups {
		groups = append(groups, OBJGroup{Name: g.name, Material: g.material, Data: p.build(g.corners)})
	}
	return groups, p.libraries, nil
}

func (p *objParser) parseLine(fields []string) error {
	switch fields[0] {
	case "v":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.positions = append(p.positions, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
	case "vn":
		v, err := parseFloats(fields[1:], 3)
		if err != nil {
			return err
		}
		p.normals = append(p.normals, math.Vec3{X: v[0], Y: v[1], Z: v[2]})
	case "vt":
		v, err := parseFloats(fields[1:], 2)
		if err != nil {
			return err
		}
		p.uvs = append(p.uvs, math.Vec2{X: v[0], Y: v[1]})
	case "o", "g":
		p.flush()
		name := "default"
		if len(fields) > 1 {
			name = strings.Join(fields[1:], " ")
		}
		p.current = &objGroupBuilder{name: name, material: p.current.material}
	case "usemtl":
		if len(fields) > 1 {
			if len(p.current.corners) > 0 && p.current.material != fields[1] {
				name := p.current.name
				p.flush()
				p.current = &objGroupBuilder{name: name}
			}
			p.current.material = fields[1]
		}
	case "mtllib":
		p.libraries = append(p.libraries, fields[1:]...)
	case "f":
		if len(fields) < 4 {
			return fmt.Errorf("face with %d vertices", len(fields)-1)
		}
		corners := make([]objCorner, 0, len(fields)-1)
		for _, tok := range fields[1:] {
			c, err := p.parseCorner(tok)
			if err != nil {
				return err
			}
			corners = append(corners, c)
		}
		for i := 1; i+1 < len(corners); i++ {
			p.current.corners = append(p.current.corners, corners[0], corners[i], corners[i+1])
		}
	}
	return nil
}

func (p *objParser) flush() {
	if p.current != nil && len(p.current.corners) > 0 {
		p.groups = append(p.groups, p.current)
	}
}

// parseCorner parses "v", "v/vt", "v//vn" or "v/vt/vn". Negative indices
// count back from the last element read so far.
func (p *objParser) parseCorner(tok string) (objCorner, error) {
	parts := strings.Split(tok, "/")
	c := objCorner{v: -1, vt: -1, vn: -1}
	pools := [3]int{len(p.positions), len(p.uvs), len(p.normals)}
	targets := [3]*int{&c.v, &c.vt, &c.vn}
	for i, part := range parts {
		if i > 2 || part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			return c, fmt.Errorf("face index %q: %w", tok, err)
		}
		switch {
		case n > 0:
			*targets[i] = n - 1
		case n < 0:
			*targets[i] = pools[i] + n
		default:
			return c, fmt.Errorf("face index %q: zero index", tok)
		}
		if *targets[i] < 0 || *targets[i] >= pools[i] {
			return c, fmt.Errorf("face index %q out of range", tok)
		}
	}
	if c.v < 0 {
		return c, fmt.Errorf("face vertex %q has no position", tok)
	}
	return c, nil
}

func (p *objParser) build(corners []objCorner) *VertexData {
	vd := &VertexData{}
	seen := make(map[objCorner]uint32, len(corners))
	hasNormals, hasUVs := false, false
	for _, c := range corners {
		hasNormals = hasNormals || c.vn >= 0
		hasUVs = hasUVs || c.vt >= 0
	}

	for _, c := range corners {
		if idx, ok := seen[c]; ok {
			vd.Indices = append(vd.Indices, idx)
			continue
		}
		idx := uint32(len(vd.Positions) / 3)
		pos := p.positions[c.v]
		vd.Positions = append(vd.Positions, pos.X, pos.Y, pos.Z)
		if hasNormals {
			n := math.Vec3Up
			if c.vn >= 0 {
				n = p.normals[c.vn]
			}
			vd.Normals = append(vd.Normals, n.X, n.Y, n.Z)
		}
		if hasUVs {
			var uv math.Vec2
			if c.vt >= 0 {
				uv = p.uvs[c.vt]
			}
			vd.UVs = append(vd.UVs, uv.X, uv.Y)
		}
		seen[c] = idx
		vd.Indices = append(vd.Indices, idx)
	}

	if !hasNormals {
		vd.ComputeNormals()
	}
	return vd
}

func parseFloats(fields []string, n int) ([]float32, error) {
	if len(fields) < n {
		return nil, fmt.Errorf("expected %d values, got %d", n, len(fields))
	}
	out := make([]float32, n)
	for i := range out {
		f, err := strconv.ParseFloat(fields[i], 32)
		if err != nil {
			return nil, err
		}
		out[i] = float32(f)
	}
	return out, nil
}

// ParseMTL reads a Wavefront material library.
func ParseMTL(r io.Reader) (map[string]*MTLMaterial, error) {
	mats := make(map[string]*MTLMaterial)
	var cur *MTLMaterial
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
			continue
		}
		if fields[0] == "newmtl" {
			if len(fields) < 2 {
				return nil, fmt.Errorf("newmtl without a name")
			}
			cur = &MTLMaterial{
				Name:          fields[1],
				Diffuse:       core.ColorWhite,
				Specular:      core.ColorBlack,
				Emissive:      core.ColorBlack,
				Ambient:       core.ColorBlack,
				SpecularPower: 64,
				Alpha:         1,
			}
			mats[cur.Name] = cur
			continue
		}
		if cur == nil {
			continue
		}
		switch fields[0] {
		case "Ka", "Kd", "Ks", "Ke":
			v, err := parseFloats(fields[1:], 3)
			if err != nil {
				return nil, fmt.Errorf("mtl %s %s: %w", cur.Name, fields[0], err)
			}
			c := core.Color{R: v[0], G: v[1], B: v[2], A: 1}
			switch fields[0] {
			case "Ka":
				cur.Ambient = c
			case "Kd":
				cur.Diffuse = c
			case "Ks":
				cur.Specular = c
			case "Ke":
				cur.Emissive = c
			}
		case "Ns":
			v, err := parseFloats(fields[1:], 1)
			if err != nil {
				return nil, fmt.Errorf("mtl %s Ns: %w", cur.Name, err)
			}
			cur.SpecularPower = max(v[0], 1)
		case "d":
			v, err := parseFloats(fields[1:], 1)
			if err != nil {
				return nil, fmt.Errorf("mtl %s d: %w", cur.Name, err)
			}
			cur.Alpha = v[0]
		case "Tr":
			v, err := parseFloats(fields[1:], 1)
			if err != nil {
				return nil, fmt.Errorf("mtl %s Tr: %w", cur.Name, err)
			}
			cur.Alpha = 1 - v[0]
		case "map_Kd":
			if len(fields) > 1 {
				cur.DiffuseMap = fields[len(fields)-1]
			}
		}
	}
	return mats, scanner.Err()
}

// ImportOBJ loads a Wavefront file into scene, one mesh per group. Material
// libraries and diffuse maps are resolved relative to the file. A missing
// library is logged and its meshes keep the scene default material.
func ImportOBJ(scene *Scene, path string) ([]*Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open obj %q: %w", path, err)
	}
	defer f.Close()

	groups, libraries, err := ParseOBJ(f)
	if err != nil {
		return nil, fmt.Errorf("parse obj %q: %w", path, err)
	}
	if len(groups) == 0 {
		return nil, fmt.Errorf("obj %q: %w", path, ErrNoPositions)
	}

	dir := filepath.Dir(path)
	mats := make(map[string]*materials.Material)
	for _, lib := range libraries {
		specs, err := loadMTLFile(filepath.Join(dir, lib))
		if err != nil {
			scene.Logger().Warn("obj material library unavailable", "obj", path, "mtl", lib, "error", err)
			continue
		}
		for name, def := range specs {
			mats[name] = scene.materialFromMTL(def, dir)
		}
	}

	meshes := make([]*Mesh, 0, len(groups))
	for _, g := range groups {
		mesh, err := NewMeshFromVertexData(g.Name, g.Data, scene, false)
		if err != nil {
			for _, m := range meshes {
				m.Dispose(false)
			}
			return nil, fmt.Errorf("obj %q group %q: %w", path, g.Name, err)
		}
		if mat, ok := mats[g.Material]; ok {
			mesh.SetMaterial(mat)
		}
		meshes = append(meshes, mesh)
	}
	scene.Logger().Debug("obj imported", "path", path, "meshes", len(meshes), "materials", len(mats))
	return meshes, nil
}

func loadMTLFile(path string) (map[string]*MTLMaterial, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ParseMTL(f)
}

func (s *Scene) materialFromMTL(def *MTLMaterial, dir string) *materials.Material {
	m := materials.NewMaterial(def.Name, s.engine)
	m.AmbientColor = def.Ambient
	m.DiffuseColor = def.Diffuse
	m.SpecularColor = def.Specular
	m.EmissiveColor = def.Emissive
	m.SpecularPower = def.SpecularPower
	m.Alpha = def.Alpha
	if def.DiffuseMap != "" {
		m.DiffuseTexture = s.LoadTexture(filepath.Join(dir, def.DiffuseMap), true)
	}
	return m
}
