package materials

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/core"
	"render-core/engine"
)

func TestEffectCompilesInlineShaders(t *testing.T) {
	e, d := newTestEngine(t)

	compiled := 0
	fx := CreateEffect(e, InlineShader("plain", plainVertex, plainFragment), EffectOptions{
		Attributes: []string{"position"},
		Uniforms:   []string{"world"},
		Samplers:   []string{"diffuseSampler"},
		OnCompiled: func(*Effect) { compiled++ },
	})

	require.True(t, fx.IsReady())
	assert.Equal(t, 1, compiled)
	assert.True(t, fx.IsSupported())
	assert.Empty(t, fx.CompilationError())
	assert.Equal(t, 1, d.Calls["LinkProgram"])
	attribLookups := d.Calls["GetAttribLocation"]
	assert.Equal(t, int32(0), fx.AttributeLocationByName("position"))
	assert.Equal(t, int32(-1), fx.AttributeLocationByName("normal"))
	assert.Equal(t, int32(0), fx.AttributeLocationByName("position"))
	assert.Equal(t, attribLookups, d.Calls["GetAttribLocation"], "locations come from the cache")
	assert.Equal(t, []string{"diffuseSampler"}, fx.Samplers())

	unit, ok := fx.SamplerUnit("diffuseSampler")
	assert.True(t, ok)
	assert.Equal(t, 0, unit)

	assert.True(t, strings.HasPrefix(fx.VertexSourceCode(), "#define SHADER_NAME vertex:plain\n"))
	assert.Contains(t, fx.VertexSourceCode(), "in vec3 position;")
	assert.Contains(t, fx.FragmentSourceCode(), "layout(location = 0) out vec4 glFragColor;")
}

func TestCreateEffectReusesCachedEffect(t *testing.T) {
	e, d := newTestEngine(t)
	name := InlineShader("plain", plainVertex, plainFragment)

	first := CreateEffect(e, name, EffectOptions{Defines: "#define A"})
	calls := 0
	second := CreateEffect(e, name, EffectOptions{
		Defines:    "#define A",
		OnCompiled: func(*Effect) { calls++ },
	})
	other := CreateEffect(e, name, EffectOptions{Defines: "#define B"})

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, d.Calls["LinkProgram"])
	assert.Equal(t, 2, e.CompiledEffectsCount())

	cached, ok := e.CachedEffect(engine.EffectKey(name.Vertex, name.Fragment, "#define A"))
	require.True(t, ok)
	assert.Same(t, first, cached)
}

func TestEffectFallbacksGiveOneAttemptPerRank(t *testing.T) {
	e, d := newTestEngine(t)
	d.FailShadersContaining("#define BROKEN")

	fallbacks := NewEffectFallbacks()
	fallbacks.AddFallback(0, "A")
	fallbacks.AddFallback(2, "B")

	var errorsSeen []string
	fx := CreateEffect(e, InlineShader("fb", plainVertex, plainFragment), EffectOptions{
		Defines:   "#define A\n#define B\n#define BROKEN",
		Fallbacks: fallbacks,
		OnError:   func(_ *Effect, message string) { errorsSeen = append(errorsSeen, message) },
	})

	assert.Equal(t, 3, d.Calls["LinkProgram"])
	assert.False(t, fx.IsReady())
	assert.False(t, fx.IsSupported())
	assert.True(t, fx.AllFallbacksProcessed())
	assert.Equal(t, "#define BROKEN", fx.Defines())
	require.Len(t, errorsSeen, 1)
	assert.Contains(t, errorsSeen[0], "VERTEX SHADER ERROR: 0:1:")
	assert.Empty(t, d.Programs, "failed programs are deleted")
}

func TestEffectFallbacksAboveDefaultRank(t *testing.T) {
	e, d := newTestEngine(t)
	d.FailShadersContaining("#define BROKEN")

	fallbacks := NewEffectFallbacks()
	fallbacks.AddFallback(40, "A")
	require.Equal(t, 40, fallbacks.CurrentRank())

	fx := CreateEffect(e, InlineShader("high", plainVertex, plainFragment), EffectOptions{
		Defines:   "#define A\n#define BROKEN",
		Fallbacks: fallbacks,
	})

	assert.Equal(t, 2, d.Calls["LinkProgram"])
	assert.True(t, fx.AllFallbacksProcessed())
	assert.Equal(t, "#define BROKEN", fx.Defines())
}

func TestEffectFallbackRecoversWhenDefineDropped(t *testing.T) {
	e, d := newTestEngine(t)
	d.FailShadersContaining("#define DIFFUSE")

	fallbacks := NewEffectFallbacks()
	fallbacks.AddFallback(0, "FOG")
	fallbacks.AddFallback(1, "DIFFUSE")

	failed := false
	fx := CreateEffect(e, InlineShader("fb", plainVertex, plainFragment), EffectOptions{
		Defines:   "#define FOG\n#define DIFFUSE\n#define NORMAL",
		Fallbacks: fallbacks,
		OnError:   func(*Effect, string) { failed = true },
	})

	assert.True(t, fx.IsReady())
	assert.False(t, failed)
	assert.Equal(t, 3, d.Calls["LinkProgram"])
	assert.Equal(t, "#define NORMAL", fx.Defines())
	assert.False(t, fx.AllFallbacksProcessed())
}

func TestEffectErrorWithoutFallbacks(t *testing.T) {
	e, d := newTestEngine(t)
	d.FailShadersContaining("BROKEN")

	var observed *Effect
	fx := NewEffect(e, InlineShader("bad", "BROKEN\n"+plainVertex, plainFragment), EffectOptions{})
	fx.OnErrorObservable.Add(func(effect *Effect) { observed = effect })

	assert.Equal(t, 1, d.Calls["LinkProgram"])
	assert.True(t, fx.AllFallbacksProcessed())
	assert.Nil(t, fx.PipelineContext())
	assert.Nil(t, observed, "observers added after failure are not replayed")
	assert.Error(t, fx.Err())
}

func TestRebuildProgramRestoresPreviousOnFailure(t *testing.T) {
	e, d := newTestEngine(t)
	fx := CreateEffect(e, InlineShader("hot", plainVertex, plainFragment), EffectOptions{
		Attributes: []string{"position"},
	})
	require.True(t, fx.IsReady())
	previous := fx.PipelineContext()
	program := previous.Program()

	d.FailShadersContaining("BROKEN")
	var message string
	fx.RebuildProgram("BROKEN\n"+plainVertex, plainFragment, nil, func(m string) { message = m })

	assert.Contains(t, message, "VERTEX SHADER ERROR: 0:1:")
	assert.True(t, fx.IsReady())
	assert.Same(t, previous, fx.PipelineContext())
	assert.Contains(t, d.Programs, program)

	compiled := 0
	fx.RebuildProgram(plainVertex+"// v2\n", plainFragment, func(*Effect) { compiled++ }, nil)

	assert.Equal(t, 1, compiled)
	assert.True(t, fx.IsReady())
	assert.NotSame(t, previous, fx.PipelineContext())
	assert.NotContains(t, d.Programs, program, "the replaced program is deleted")
	assert.Contains(t, fx.VertexSourceCode(), "// v2")
}

func TestEffectAsyncCompilationPollsThroughTaskQueue(t *testing.T) {
	config := core.DefaultEngineConfig()
	config.ParallelShaderCompile = true
	e, d := newTestEngineWith(t, config)
	d.LinkPolls = 3

	var order []int
	fx := CreateEffect(e, InlineShader("async", plainVertex, plainFragment), EffectOptions{
		OnCompiled: func(*Effect) { order = append(order, 0) },
	})
	fx.ExecuteWhenCompiled(func(*Effect) { order = append(order, 1) })
	fx.ExecuteWhenCompiled(func(*Effect) { order = append(order, 2) })

	assert.Empty(t, order)
	for i := 0; i < 10 && len(order) == 0; i++ {
		e.RunPendingTasks()
	}

	assert.True(t, fx.IsReady())
	assert.Equal(t, []int{0, 1, 2}, order)
	assert.Zero(t, e.PendingTasks())

	ran := false
	fx.ExecuteWhenCompiled(func(*Effect) { ran = true })
	assert.True(t, ran)
}

func TestEffectAsyncFailureUsesFallbacks(t *testing.T) {
	config := core.DefaultEngineConfig()
	config.ParallelShaderCompile = true
	e, d := newTestEngineWith(t, config)
	d.FailShadersContaining("#define FOG")

	fallbacks := NewEffectFallbacks()
	fallbacks.AddFallback(0, "FOG")
	fx := CreateEffect(e, InlineShader("async", plainVertex, plainFragment), EffectOptions{
		Defines:   "#define FOG",
		Fallbacks: fallbacks,
	})

	for i := 0; i < 10 && !fx.IsReady(); i++ {
		e.RunPendingTasks()
	}
	assert.True(t, fx.IsReady())
	assert.Empty(t, fx.Defines())
	assert.Equal(t, 2, d.Calls["LinkProgram"])
}

func TestEffectLoadsStagesAndIncludesThroughLoader(t *testing.T) {
	e, d := newTestEngine(t)
	loader := mapLoader(map[string]string{
		"shaders/basic.vertex.fx":        plainVertex,
		"shaders/basic.fragment.fx":      "#include<tint>(TINT,0.5)\n" + plainFragment,
		"shaders/ShadersInclude/tint.fx": "const float tint = TINT;\n",
	})

	fx := CreateEffect(e, Shader("basic"), EffectOptions{Loader: loader})

	require.True(t, fx.IsReady(), fx.CompilationError())
	assert.Contains(t, fx.FragmentSourceCode(), "const float tint = 0.5;")
	include, ok := e.ShaderStore().Include("tint")
	assert.True(t, ok)
	assert.Equal(t, "const float tint = TINT;\n", include)
	assert.Equal(t, 1, d.Calls["LinkProgram"])
}

func TestEffectPrefersStoreOverLoader(t *testing.T) {
	e, _ := newTestEngine(t)
	e.ShaderStore().SetShader("storedVertexShader", plainVertex)
	e.ShaderStore().SetShader("storedPixelShader", plainFragment)

	fx := CreateEffect(e, Shader("stored"), EffectOptions{Loader: mapLoader(nil)})
	assert.True(t, fx.IsReady(), fx.CompilationError())
}

func TestEffectBase64Source(t *testing.T) {
	e, _ := newTestEngine(t)
	name := ShaderName{
		Vertex:   "base64:YXR0cmlidXRlIHZlYzMgcG9zaXRpb247CnZvaWQgbWFpbih2b2lkKSB7fQo=",
		Fragment: "source:" + plainFragment,
		Label:    "encoded",
	}
	fx := CreateEffect(e, name, EffectOptions{})

	require.True(t, fx.IsReady(), fx.CompilationError())
	assert.Contains(t, fx.VertexSourceCode(), "in vec3 position;")
}

func TestEffectLoadErrorIsFinal(t *testing.T) {
	e, d := newTestEngine(t)

	calls := 0
	var message string
	fx := CreateEffect(e, Shader("missing"), EffectOptions{
		Loader:  mapLoader(nil),
		OnError: func(_ *Effect, m string) { calls++; message = m },
	})

	assert.Equal(t, 1, calls)
	assert.Contains(t, message, filepath.Join("shaders", "missing.vertex.fx"))
	assert.True(t, fx.AllFallbacksProcessed())
	assert.False(t, fx.IsReady())
	assert.Zero(t, d.Calls["LinkProgram"])
}

func TestEffectMissingIncludeFails(t *testing.T) {
	e, _ := newTestEngine(t)
	e.ShaderStore().SetShader("incVertexShader", "#include<nowhere>\n"+plainVertex)
	e.ShaderStore().SetShader("incFragmentShader", plainFragment)

	var loadErr string
	fx := NewEffect(e, Shader("inc"), EffectOptions{
		Loader: mapLoader(nil),
		OnError: func(_ *Effect, m string) {
			loadErr = m
		},
	})
	assert.Contains(t, loadErr, `load include "nowhere"`)
	assert.False(t, fx.IsReady())
}

func TestEffectDisposedBeforeLoadIgnoresContinuation(t *testing.T) {
	e, d := newTestEngine(t)
	loader := &deferredLoader{}

	fx := CreateEffect(e, Shader("late"), EffectOptions{Loader: loader.load})
	require.Len(t, loader.pending, 2)

	fx.Dispose()
	loader.deliver()

	assert.False(t, fx.IsReady())
	assert.True(t, fx.IsDisposed())
	assert.Zero(t, d.Calls["LinkProgram"])
	_, ok := e.CachedEffect(fx.Key())
	assert.False(t, ok)
}

func TestEffectDisposeReleasesProgram(t *testing.T) {
	e, d := newTestEngine(t)
	fx := CreateEffect(e, InlineShader("plain", plainVertex, plainFragment), EffectOptions{})
	program := fx.PipelineContext().Program()
	require.Contains(t, d.Programs, program)

	fx.Dispose()

	assert.NotContains(t, d.Programs, program)
	assert.Zero(t, e.CompiledEffectsCount())
	assert.False(t, fx.IsReady())
	fx.SetFloat("anything", 1)
}

func TestEffectRebuildAfterContextRestore(t *testing.T) {
	e, d := newTestEngine(t)
	fx := CreateEffect(e, InlineShader("plain", plainVertex, plainFragment), EffectOptions{})
	stale := fx.PipelineContext()

	e.HandleContextLost()
	e.HandleContextRestored()

	assert.True(t, fx.IsReady())
	assert.NotSame(t, stale, fx.PipelineContext())
	assert.Equal(t, 2, d.Calls["LinkProgram"])
}

func TestEffectUniformSettersUseCache(t *testing.T) {
	e, d := newTestEngine(t)
	fx := CreateEffect(e, InlineShader("plain", plainVertex, plainFragment), EffectOptions{
		Uniforms: []string{"alpha", "tint"},
	})
	require.True(t, fx.IsReady())

	fx.SetFloat("alpha", 0.5)
	fx.SetFloat("alpha", 0.5)
	fx.SetColor3("tint", core.ColorRed)
	fx.SetFloat("absent", 1)

	assert.Equal(t, 1, d.Calls["Uniform1f"])
	assert.Equal(t, 1, d.Calls["Uniform3f"])
	assert.Equal(t, []float32{1, 0, 0}, d.UniformValues[fx.Uniform("tint").Location()])
}

func TestEffectLoadsFromRepository(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disk.vertex.fx"), []byte(plainVertex), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "disk.fragment.fx"), []byte(plainFragment), 0o644))

	e, _ := newTestEngine(t)
	e.ShaderStore().Repository = dir

	fx := CreateEffect(e, Shader("disk"), EffectOptions{})
	require.Eventually(t, func() bool { return e.PendingTasks() == 2 }, time.Second, 5*time.Millisecond)
	e.RunPendingTasks()

	assert.True(t, fx.IsReady(), fx.CompilationError())
}

func TestEffectFileLoaderReportsMissingFile(t *testing.T) {
	e, _ := newTestEngine(t)
	e.ShaderStore().Repository = t.TempDir()

	var loadErr error
	NewFileLoader(e)(e.ShaderStore().ShaderURL("nothing", "vertex"), func(string) {}, func(err error) { loadErr = err })
	require.Eventually(t, func() bool { return e.PendingTasks() == 1 }, time.Second, 5*time.Millisecond)
	e.RunPendingTasks()

	assert.True(t, errors.Is(loadErr, os.ErrNotExist))
}

func TestOffendingLine(t *testing.T) {
	code := "#version 410 core\nfloat x = ;\nvoid main() {}"

	assert.Equal(t, "Offending line [2] in vertex code: float x = ;",
		offendingLine(code, "VERTEX SHADER ERROR: 0:2: '' : syntax error", false))
	assert.Equal(t, "Offending line [1] in fragment code: #version 410 core",
		offendingLine(code, "FRAGMENT SHADER ERROR: 0:1: 'x' : syntax error", true))
	assert.Empty(t, offendingLine(code, "FRAGMENT SHADER ERROR: 0:2: x", false))
	assert.Empty(t, offendingLine(code, "VERTEX SHADER ERROR: 0:9: x", false))

	assert.Equal(t, "1\ta\n2\tb", numberLines("a\nb"))
}
