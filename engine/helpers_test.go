package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"render-core/core"
	"render-core/engine"
	"render-core/engine/enginetest"
)

type testEffect struct {
	key        string
	pc         *engine.PipelineContext
	attributes []string
	locations  []int32
	samplers   []string
	binds      int
	rebuilds   int
}

func (f *testEffect) Key() string                              { return f.key }
func (f *testEffect) PipelineContext() *engine.PipelineContext { return f.pc }
func (f *testEffect) AttributesNames() []string                { return f.attributes }
func (f *testEffect) AttributeLocation(index int) int32        { return f.locations[index] }
func (f *testEffect) Samplers() []string                       { return f.samplers }
func (f *testEffect) Uniform(name string) *engine.Uniform      { return f.pc.Uniform(name) }
func (f *testEffect) NotifyBind()                              { f.binds++ }
func (f *testEffect) Rebuild()                                 { f.rebuilds++ }

func newTestEngine(t *testing.T) (*engine.ThinEngine, *enginetest.Driver) {
	t.Helper()
	return newTestEngineWith(t, core.DefaultEngineConfig())
}

func newTestEngineWith(t *testing.T, config core.EngineConfig) (*engine.ThinEngine, *enginetest.Driver) {
	t.Helper()
	d := enginetest.NewDriver()
	e := engine.New(d, config, core.NopLogger())
	t.Cleanup(e.Dispose)
	return e, d
}

func compileEffect(t *testing.T, e *engine.ThinEngine, key string, uniforms, samplers, attributes []string) *testEffect {
	t.Helper()
	pc := e.CreatePipelineContext()
	require.NoError(t, e.PreparePipelineContext(pc, "void main() {}", "void main() {}", ""))

	fx := &testEffect{key: key, pc: pc, attributes: attributes}
	all := append(append([]string(nil), uniforms...), samplers...)
	fx.samplers, _, fx.locations = pc.FillEffectInformation(all, samplers, attributes)
	e.RegisterEffect(fx)
	return fx
}

func positionBuffers(t *testing.T, e *engine.ThinEngine) engine.VertexBuffers {
	t.Helper()
	vb, err := engine.NewVertexBuffer(e, []float32{0, 0, 0, 1, 0, 0, 0, 1, 0}, engine.PositionKind, engine.VertexBufferOptions{})
	require.NoError(t, err)
	return engine.VertexBuffers{engine.PositionKind: vb}
}
