package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"render-core/core"
	"render-core/engine"
	"render-core/engine/enginetest"
	"render-core/materials"
	"render-core/math"
)

const testEpsilon = 1e-4

func newTestScene(t *testing.T) (*Scene, *enginetest.Driver) {
	t.Helper()
	d := enginetest.NewDriver()
	e := engine.New(d, core.DefaultEngineConfig(), core.NopLogger())
	materials.RegisterBuiltinShaders(e.ShaderStore())
	s := NewScene(e)
	t.Cleanup(func() {
		s.Dispose()
		e.Dispose()
	})
	return s, d
}

func assertVec3(t *testing.T, expected, actual math.Vec3) {
	t.Helper()
	assert.InDelta(t, expected.X, actual.X, testEpsilon, "x")
	assert.InDelta(t, expected.Y, actual.Y, testEpsilon, "y")
	assert.InDelta(t, expected.Z, actual.Z, testEpsilon, "z")
}

func assertMat4(t *testing.T, expected, actual math.Mat4) {
	t.Helper()
	for i := range 4 {
		for j := range 4 {
			assert.InDelta(t, expected[i][j], actual[i][j], testEpsilon, "[%d][%d]", i, j)
		}
	}
}
