package materials

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/core"
)

func TestShaderWatcherRebuildsChangedStage(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "live.vertex.fx"), []byte(plainVertex), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "live.fragment.fx"), []byte(plainFragment), 0o644))

	e, _ := newTestEngine(t)
	e.ShaderStore().Repository = dir
	fx := CreateEffect(e, Shader("live"), EffectOptions{})
	require.Eventually(t, func() bool { return e.PendingTasks() == 2 }, time.Second, 5*time.Millisecond)
	e.RunPendingTasks()
	require.True(t, fx.IsReady())

	sw, err := NewShaderWatcher(e, core.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sw.Close() })
	sw.Watch(fx)
	sw.Start()

	staged := filepath.Join(dir, "staged")
	require.NoError(t, os.WriteFile(staged, []byte(plainVertex+"// edited\n"), 0o644))
	require.NoError(t, os.Rename(staged, filepath.Join(dir, "live.vertex.fx")))

	require.Eventually(t, func() bool { return e.PendingTasks() > 0 }, 2*time.Second, 10*time.Millisecond)
	e.RunPendingTasks()

	assert.True(t, fx.IsReady())
	assert.Contains(t, fx.VertexSourceCode(), "// edited")
}

func TestShaderWatcherReloadsIncludes(t *testing.T) {
	e, d := newTestEngine(t)
	store := e.ShaderStore()
	store.SetShader("incVertexShader", "#include<common>\n"+plainVertex)
	store.SetShader("incFragmentShader", plainFragment)
	store.SetInclude("common", "// v1")

	loader := mapLoader(map[string]string{"shaders/ShadersInclude/common.fx": "// v2"})
	fx := CreateEffect(e, Shader("inc"), EffectOptions{Loader: loader})
	require.True(t, fx.IsReady())
	assert.Contains(t, fx.VertexSourceCode(), "// v1")

	sw, err := NewShaderWatcher(e, core.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sw.Close() })
	sw.Watch(fx)

	sw.reloadInclude("common")

	assert.Contains(t, fx.VertexSourceCode(), "// v2")
	assert.Equal(t, 2, d.Calls["LinkProgram"])
	source, _ := store.Include("common")
	assert.Equal(t, "// v2", source)
}

func TestShaderWatcherSkipsInlineAndDisposed(t *testing.T) {
	e, d := newTestEngine(t)
	sw, err := NewShaderWatcher(e, core.NopLogger())
	require.NoError(t, err)
	t.Cleanup(func() { sw.Close() })

	inline := CreateEffect(e, InlineShader("inline", plainVertex, plainFragment), EffectOptions{})
	sw.Watch(inline)
	assert.Empty(t, sw.effects)

	e.ShaderStore().SetShader("goneVertexShader", plainVertex)
	e.ShaderStore().SetShader("goneFragmentShader", plainFragment)
	gone := CreateEffect(e, Shader("gone"), EffectOptions{})
	sw.Watch(gone)
	sw.Watch(gone)
	assert.Len(t, sw.effects["gone"], 1)

	gone.Dispose()
	links := d.Calls["LinkProgram"]
	sw.reloadStage("gone", "vertex", plainVertex)

	assert.Equal(t, links, d.Calls["LinkProgram"])
	assert.Empty(t, sw.effects)
}
