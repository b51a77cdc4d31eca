package scene

import "render-core/math"

// ComputeTangents fills vd.Tangents with one xyzw tangent per vertex for
// tangent-space normal mapping. W holds the bitangent handedness. Positions,
// normals and UVs are required; triangles with a degenerate UV area are
// skipped.
func (vd *VertexData) ComputeTangents() {
	count := len(vd.Positions) / 3
	if count == 0 || len(vd.Normals) != count*3 || len(vd.UVs) != count*2 {
		return
	}
	tangents := make([]math.Vec3, count)
	bitangents := make([]math.Vec3, count)

	uv := func(i int) math.Vec2 { return math.Vec2FromSlice(vd.UVs, i*2) }

	accum := func(i0, i1, i2 int) {
		p0 := math.Vec3FromSlice(vd.Positions, i0*3)
		e1 := math.Vec3FromSlice(vd.Positions, i1*3).Sub(p0)
		e2 := math.Vec3FromSlice(vd.Positions, i2*3).Sub(p0)

		d1 := uv(i1).Sub(uv(i0))
		d2 := uv(i2).Sub(uv(i0))

		denom := d1.Cross(d2)
		if denom == 0 {
			return
		}
		r := 1 / denom

		t := e1.Mul(d2.Y * r).Sub(e2.Mul(d1.Y * r))
		b := e2.Mul(d1.X * r).Sub(e1.Mul(d2.X * r))
		for _, i := range [3]int{i0, i1, i2} {
			tangents[i] = tangents[i].Add(t)
			bitangents[i] = bitangents[i].Add(b)
		}
	}

	if len(vd.Indices) > 0 {
		for i := 0; i+2 < len(vd.Indices); i += 3 {
			accum(int(vd.Indices[i]), int(vd.Indices[i+1]), int(vd.Indices[i+2]))
		}
	} else {
		for i := 0; i+2 < count; i += 3 {
			accum(i, i+1, i+2)
		}
	}

	vd.Tangents = make([]float32, count*4)
	for i := range count {
		n := math.Vec3FromSlice(vd.Normals, i*3)

		// Gram-Schmidt against the normal.
		t := tangents[i].Sub(n.Mul(n.Dot(tangents[i])))
		if t.LengthSqr() < 1e-8 {
			if abs32(n.X) < 0.9 {
				t = math.Vec3{X: 1}.Sub(n.Mul(n.X))
			} else {
				t = math.Vec3{Y: 1}.Sub(n.Mul(n.Y))
			}
		}
		t = t.Normalize()

		w := float32(1)
		if n.Cross(t).Dot(bitangents[i]) < 0 {
			w = -1
		}
		vd.Tangents[i*4] = t.X
		vd.Tangents[i*4+1] = t.Y
		vd.Tangents[i*4+2] = t.Z
		vd.Tangents[i*4+3] = w
	}
}

func abs32(f float32) float32 {
	if f < 0 {
		return -f
	}
	return f
}
