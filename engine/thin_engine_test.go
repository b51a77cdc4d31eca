package engine_test

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"render-core/core"
	"render-core/engine"
	"render-core/engine/enginetest"
)

func TestNewClampsLimitsToDriver(t *testing.T) {
	d := enginetest.NewDriver()
	d.MaxVertexAttribs = 8
	d.MaxTextureUnits = 32

	e := engine.New(d, core.DefaultEngineConfig(), nil)
	assert.Equal(t, 8, e.MaxVertexAttribs())
	assert.Equal(t, 16, e.MaxSimultaneousTextures(), "configured limit is lower than the driver's")
}

func TestApplyStatesOnlyPushesDirtyState(t *testing.T) {
	e, d := newTestEngine(t)

	e.ApplyStates()
	assert.Equal(t, 1, d.Calls["DepthMask"])
	assert.Equal(t, 1, d.Calls["DepthFunc"])
	assert.Equal(t, 1, d.Calls["StencilFunc"])
	assert.Equal(t, 1, d.Calls["ColorMask"])

	d.ResetCalls()
	e.ApplyStates()
	assert.Empty(t, d.Calls, "clean state issues no calls")

	e.SetDepthWrite(true)
	e.ApplyStates()
	assert.Zero(t, d.Calls["DepthMask"], "unchanged value stays clean")

	e.SetDepthWrite(false)
	e.SetDepthFunction(engine.GL_LESS)
	e.ApplyStates()
	assert.Equal(t, 1, d.Calls["DepthMask"])
	assert.False(t, d.DepthMaskValue)
	assert.Equal(t, engine.GL_LESS, d.DepthFuncValue)
}

func TestSetStateMapsCullingAndWinding(t *testing.T) {
	e, _ := newTestEngine(t)
	e.SetState(true, 0.5, true, false)

	s := e.DepthCullingState()
	assert.True(t, s.Cull())
	assert.Equal(t, engine.GL_FRONT, s.CullFace())
	assert.Equal(t, engine.GL_CW, s.FrontFace())
	assert.Equal(t, float32(0.5), s.ZOffset())
}

func TestSetAlphaMode(t *testing.T) {
	e, d := newTestEngine(t)
	e.ApplyStates()
	d.ResetCalls()

	e.SetAlphaMode(engine.AlphaCombine, false)
	assert.Equal(t, engine.AlphaCombine, e.AlphaMode())
	assert.True(t, e.AlphaState().AlphaBlend())
	assert.Equal(t, [4]uint32{engine.GL_SRC_ALPHA, engine.GL_ONE_MINUS_SRC_ALPHA, engine.GL_ONE, engine.GL_ONE},
		e.AlphaState().FunctionParameters())
	assert.False(t, e.DepthCullingState().DepthMask(), "blending disables depth writes")

	e.ApplyStates()
	assert.True(t, d.Enabled[engine.GL_BLEND])
	assert.Equal(t, 1, d.Calls["BlendFuncSeparate"])
	assert.Equal(t, 1, d.Calls["BlendEquationSeparate"])

	e.SetAlphaMode(engine.AlphaDisable, false)
	assert.True(t, e.DepthCullingState().DepthMask())
	e.ApplyStates()
	assert.False(t, d.Enabled[engine.GL_BLEND])

	e.SetAlphaMode(engine.AlphaOneOne, true)
	assert.True(t, e.DepthCullingState().DepthMask(), "depth write left alone")
}

func TestColorWrite(t *testing.T) {
	e, d := newTestEngine(t)
	e.ApplyStates()

	e.SetColorWrite(false)
	e.ApplyStates()
	assert.Equal(t, [4]bool{}, d.ColorMaskValue)
	assert.False(t, e.ColorWrite())

	d.ResetCalls()
	e.SetColorWrite(false)
	e.ApplyStates()
	assert.Zero(t, d.Calls["ColorMask"])
}

func TestSetViewportIsCachedUntilWipe(t *testing.T) {
	e, d := newTestEngine(t)

	e.SetViewport(0, 0, 640, 480)
	e.SetViewport(0, 0, 640, 480)
	assert.Equal(t, 1, d.Calls["Viewport"])
	assert.Equal(t, [4]int32{0, 0, 640, 480}, d.ViewportValue)

	e.WipeCaches(false)
	e.SetViewport(0, 0, 640, 480)
	assert.Equal(t, 2, d.Calls["Viewport"])
}

func TestWipeCachesHonorsPreventFlag(t *testing.T) {
	config := core.DefaultEngineConfig()
	config.PreventCacheWipeBetweenFrames = true
	e, d := newTestEngineWith(t, config)

	e.SetViewport(0, 0, 10, 10)
	require.NoError(t, e.BeginFrame())
	e.SetViewport(0, 0, 10, 10)
	assert.Equal(t, 1, d.Calls["Viewport"])

	e.WipeCaches(true)
	e.SetViewport(0, 0, 10, 10)
	assert.Equal(t, 2, d.Calls["Viewport"])
}

func TestWipeCachesBruteForceResetsState(t *testing.T) {
	e, d := newTestEngine(t)
	e.SetProgram(7)
	e.ApplyStates()
	d.ResetCalls()

	e.WipeCaches(true)
	e.ApplyStates()
	assert.Equal(t, 1, d.Calls["DepthMask"])
	assert.Equal(t, 1, d.Calls["ColorMask"])

	e.SetProgram(7)
	assert.Equal(t, 1, d.Calls["UseProgram"], "program cache was forgotten")
}

func TestClear(t *testing.T) {
	e, d := newTestEngine(t)

	e.Clear(&core.ColorRed, true, false)
	assert.Equal(t, 1, d.Calls["ClearColor"])
	assert.Equal(t, 1, d.Calls["ClearDepth"])
	assert.Zero(t, d.Calls["ClearStencil"])
	assert.Equal(t, 1, d.Calls["Clear"])

	d.ResetCalls()
	e.Clear(nil, false, false)
	assert.Zero(t, d.Calls["Clear"])
}

func TestTaskQueue(t *testing.T) {
	e, _ := newTestEngine(t)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			e.QueueTask(func() {
				mu.Lock()
				ran++
				mu.Unlock()
			})
		}()
	}
	wg.Wait()
	assert.Equal(t, 10, e.PendingTasks())

	e.QueueTask(func() {
		e.QueueTask(func() { ran++ })
	})
	assert.Equal(t, 11, e.RunPendingTasks())
	assert.Equal(t, 10, ran)
	assert.Equal(t, 1, e.PendingTasks(), "tasks queued while draining wait for the next frame")

	require.NoError(t, e.BeginFrame())
	assert.Equal(t, 11, ran)
}

func TestBeginFrameResetsDrawCalls(t *testing.T) {
	e, _ := newTestEngine(t)
	e.DrawArraysType(engine.PointFillMode, 0, 3, 0)
	assert.Equal(t, 1, e.DrawCalls())

	require.NoError(t, e.BeginFrame())
	assert.Zero(t, e.DrawCalls())
	e.EndFrame()
	assert.Equal(t, 1, e.FrameID())
}

func TestContextLostAndRestored(t *testing.T) {
	e, d := newTestEngine(t)
	fx := compileEffect(t, e, "basic", []string{"world"}, nil, []string{"position"})
	tex, err := e.CreateRawTexture([]byte{255, 0, 0, 255}, 1, 1, false, engine.TextureBilinearSamplingMode)
	require.NoError(t, err)
	oldHandle := tex.Handle()

	lost, restored := 0, 0
	e.OnContextLostObservable.Add(func(*engine.ThinEngine) { lost++ })
	e.OnContextRestoredObservable.Add(func(*engine.ThinEngine) { restored++ })

	e.HandleContextLost()
	e.HandleContextLost()
	assert.Equal(t, 1, lost)
	assert.True(t, e.IsContextLost())
	assert.ErrorIs(t, e.BeginFrame(), engine.ErrContextLost)
	assert.ErrorIs(t, e.PreparePipelineContext(e.CreatePipelineContext(), "", "", ""), engine.ErrContextLost)

	e.HandleContextRestored()
	assert.Equal(t, 1, restored)
	assert.Equal(t, 1, fx.rebuilds)
	assert.True(t, tex.IsReady())
	assert.NotEqual(t, oldHandle, tex.Handle(), "texture was uploaded again")
	assert.True(t, d.Textures[tex.Handle()])
	assert.NoError(t, e.BeginFrame())
}

func TestDispose(t *testing.T) {
	e, d := newTestEngine(t)
	fx := compileEffect(t, e, "basic", nil, nil, nil)
	program := fx.pc.Program()

	disposed := 0
	e.OnDisposeObservable.Add(func(*engine.ThinEngine) { disposed++ })
	e.Dispose()
	e.Dispose()

	assert.Equal(t, 1, disposed)
	assert.True(t, e.IsDisposed())
	assert.NotContains(t, d.Programs, program)
	assert.Zero(t, e.CompiledEffectsCount())
	assert.ErrorIs(t, e.BeginFrame(), engine.ErrEngineDisposed)
}
