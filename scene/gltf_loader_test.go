package scene

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/core"
	"render-core/math"
)

// triangleBuffer holds three float32 positions followed by three uint16
// indices.
func triangleBuffer(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	positions := []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, positions))
	require.NoError(t, binary.Write(&buf, binary.LittleEndian, []uint16{0, 1, 2}))
	buf.Write([]byte{0, 0})
	return "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

const gltfTemplate = `{
  "asset": {"version": "2.0"},
  "scene": 0,
  "scenes": [{"nodes": [0]}],
  "nodes": [
    {"name": "parent", "mesh": 0, "children": [1], "translation": [1, 0, 2]},
    {"name": "child", "mesh": 0, "translation": [0, 3, 0], "scale": [2, 2, 2]}
  ],
  "meshes": [
    {"primitives": [{"attributes": {"POSITION": 0}, "indices": 1, "material": 0}]}%s
  ],
  "materials": [
    {"name": "red", "doubleSided": true, "pbrMetallicRoughness": {"baseColorFactor": [1, 0, 0, 1], "metallicFactor": 0}}
  ],
  "buffers": [{"byteLength": 44, "uri": %q}],
  "bufferViews": [
    {"buffer": 0, "byteOffset": 0, "byteLength": 36},
    {"buffer": 0, "byteOffset": 36, "byteLength": 6}
  ],
  "accessors": [
    {"bufferView": 0, "componentType": 5126, "count": 3, "type": "VEC3", "min": [0, 0, 0], "max": [1, 1, 0]},
    {"bufferView": 1, "componentType": 5123, "count": 3, "type": "SCALAR"}
  ]
}`

func writeGLTF(t *testing.T, extraMeshes string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "triangle.gltf")
	doc := fmt.Sprintf(gltfTemplate, extraMeshes, triangleBuffer(t))
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func TestImportGLTFSharesGeometryBetweenNodes(t *testing.T) {
	s, _ := newTestScene(t)
	res, err := ImportGLTF(s, writeGLTF(t, ""))
	require.NoError(t, err)

	require.Len(t, res.Meshes, 2)
	require.Len(t, res.Geometries, 1)
	g := res.Geometries[0]
	assert.Equal(t, 2, g.MeshCount())
	assert.Equal(t, 3, g.TotalVertices())
	assert.Equal(t, []uint32{0, 1, 2}, g.Indices(false, false))

	parent, child := res.Meshes[0], res.Meshes[1]
	assert.Equal(t, "parent", parent.Name)
	assert.Same(t, res.Root, parent.Parent())
	assert.Same(t, &parent.TransformNode, child.Parent())

	require.Len(t, res.Materials, 1)
	assert.Same(t, res.Materials[0], parent.Material())
	assert.Equal(t, core.ColorRed.R, parent.Material().DiffuseColor.R)
	assert.False(t, parent.Material().BackFaceCulling)
}

func TestImportGLTFConvertsHandedness(t *testing.T) {
	s, _ := newTestScene(t)
	res, err := ImportGLTF(s, writeGLTF(t, ""))
	require.NoError(t, err)

	q, ok := res.Root.RotationQuaternion()
	require.True(t, ok)
	assert.Equal(t, math.Quaternion{Y: 1}, q)
	assert.Equal(t, math.Vec3{X: 1, Y: 1, Z: -1}, res.Root.Scaling())

	parent, child := res.Meshes[0], res.Meshes[1]
	assertVec3(t, math.Vec3{X: -1, Z: 2}, parent.ComputeWorldMatrix(true).Translation())
	assertVec3(t, math.Vec3{X: -1, Y: 3, Z: 2}, child.ComputeWorldMatrix(true).Translation())
	assert.Less(t, child.WorldMatrixDeterminant(), float32(0), "the mirrored root flips winding")
}

func TestImportGLTFRollsBackOnError(t *testing.T) {
	s, _ := newTestScene(t)
	broken := `,
    {"primitives": [{"attributes": {}}]}`
	_, err := ImportGLTF(s, writeGLTF(t, broken))
	require.ErrorIs(t, err, ErrNoPositions)
	assert.Empty(t, s.Meshes())
	assert.Empty(t, s.Geometries())
	assert.Empty(t, s.TransformNodes())

	_, err = ImportGLTF(s, filepath.Join(t.TempDir(), "missing.gltf"))
	assert.Error(t, err)
}
