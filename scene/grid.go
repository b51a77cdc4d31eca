package scene

import (
	"render-core/core"
	"render-core/engine"
	"render-core/materials"
	"render-core/math"
)

// lineBuilder accumulates colored line segments.
type lineBuilder struct {
	vd VertexData
}

func (b *lineBuilder) line(a, c math.Vec3, color core.Color) {
	base := uint32(len(b.vd.Positions) / 3)
	b.vd.Positions = append(b.vd.Positions, a.X, a.Y, a.Z, c.X, c.Y, c.Z)
	b.vd.Normals = append(b.vd.Normals, 0, 1, 0, 0, 1, 0)
	b.vd.Colors = append(b.vd.Colors,
		color.R, color.G, color.B, color.A,
		color.R, color.G, color.B, color.A)
	b.vd.Indices = append(b.vd.Indices, base, base+1)
}

// CreateGridData builds line segments for a flat grid spanning size on X and
// Z. The line through the origin parallel to X is red, the one parallel to Z
// is blue, and the rest are gray.
func CreateGridData(size float32, divisions int) *VertexData {
	divisions = max(divisions, 1)
	half := size / 2
	step := size / float32(divisions)

	gray := core.Color{R: 0.35, G: 0.35, B: 0.35, A: 1}
	red := core.Color{R: 0.8, G: 0.15, B: 0.15, A: 1}
	blue := core.Color{R: 0.15, G: 0.35, B: 0.9, A: 1}

	var b lineBuilder
	for i := 0; i <= divisions; i++ {
		x := -half + float32(i)*step
		color := gray
		if i == divisions/2 {
			color = blue
		}
		b.line(math.Vec3{X: x, Z: -half}, math.Vec3{X: x, Z: half}, color)
	}
	for i := 0; i <= divisions; i++ {
		z := -half + float32(i)*step
		color := gray
		if i == divisions/2 {
			color = red
		}
		b.line(math.Vec3{X: -half, Z: z}, math.Vec3{X: half, Z: z}, color)
	}
	return &b.vd
}

// CreateBoxLinesData builds the twelve edges of the box from minimum to
// maximum.
func CreateBoxLinesData(minimum, maximum math.Vec3, color core.Color) *VertexData {
	box := AABB{Min: minimum, Max: maximum}
	c := box.corners()
	var b lineBuilder
	for _, edge := range boxEdges {
		b.line(c[edge[0]], c[edge[1]], color)
	}
	return &b.vd
}

// boxEdges index the corners returned by AABB.corners.
var boxEdges = [12][2]int{
	{0, 1}, {1, 3}, {3, 2}, {2, 0},
	{4, 5}, {5, 7}, {7, 6}, {6, 4},
	{0, 4}, {1, 5}, {2, 6}, {3, 7},
}

// CreateGrid builds an unlit grid mesh drawn as a line list.
func CreateGrid(name string, size float32, divisions int, scene *Scene) (*Mesh, error) {
	return newLineMesh(name, CreateGridData(size, divisions), scene, core.ColorWhite)
}

// CreateBoundingBoxLines builds an unlit line box around the local bounding
// box of target and parents it to target so it follows the mesh.
func CreateBoundingBoxLines(name string, target *Mesh) (*Mesh, error) {
	info := target.BoundingInfo()
	if info == nil {
		return nil, ErrNoPositions
	}
	lines, err := newLineMesh(name,
		CreateBoxLinesData(info.Minimum(), info.Maximum(), core.ColorWhite),
		target.scene, core.Color{R: 0.1, G: 0.95, B: 0.1, A: 1})
	if err != nil {
		return nil, err
	}
	lines.AttachTo(&target.TransformNode)
	return lines, nil
}

func newLineMesh(name string, vd *VertexData, scene *Scene, tint core.Color) (*Mesh, error) {
	mesh, err := NewMeshFromVertexData(name, vd, scene, false)
	if err != nil {
		return nil, err
	}
	mesh.DrawMode = engine.LineListDrawMode

	mat := materials.NewMaterial(name+" material", scene.Engine())
	mat.DisableLighting = true
	mat.FogEnabled = false
	mat.BackFaceCulling = false
	mat.EmissiveColor = tint
	mat.DiffuseColor = core.ColorBlack
	mesh.SetMaterial(mat)
	return mesh, nil
}
