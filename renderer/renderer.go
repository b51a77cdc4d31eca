package renderer

import (
	"fmt"
	"log/slog"

	"render-core/core"
	"render-core/engine"
	"render-core/internal/opengl"
	"render-core/materials"
	"render-core/scene"
)

// FrameStats describes the last presented frame.
type FrameStats struct {
	FrameTime  float64
	DrawCalls  int
	ActiveMesh int
}

// RenderEngine owns the window, the GL-backed engine and the scene drawn into
// it.
type RenderEngine struct {
	Window *Window
	Engine *engine.ThinEngine
	Scene  *scene.Scene

	config  core.Config
	logger  *slog.Logger
	watcher *materials.ShaderWatcher

	lastTime float64
	stats    FrameStats
}

// NewRenderEngine opens the window described by config and builds an engine
// and an empty scene on its context.
func NewRenderEngine(config core.Config, logger *slog.Logger) (*RenderEngine, error) {
	logger = core.LoggerOr(logger).With("component", "renderer")

	window, err := NewWindow(config.Window)
	if err != nil {
		return nil, err
	}
	driver, err := opengl.NewDriver()
	if err != nil {
		window.Destroy()
		return nil, fmt.Errorf("failed to create OpenGL driver: %w", err)
	}
	logger.Info("render engine initialized", "backend", "opengl", "version", driver.Version())

	e := engine.New(driver, config.Engine, logger)
	e.ShaderStore().Repository = config.Shaders.Repository
	materials.RegisterBuiltinShaders(e.ShaderStore())

	re := &RenderEngine{
		Window:   window,
		Engine:   e,
		Scene:    scene.NewScene(e),
		config:   config,
		logger:   logger,
		lastTime: Time(),
	}
	re.Resize(window.GetFramebufferSize())
	window.OnResize(re.Resize)

	if config.Shaders.HotReload {
		watcher, err := materials.NewShaderWatcher(e, logger)
		if err != nil {
			logger.Warn("shader hot reload disabled", "error", err)
		} else {
			re.watcher = watcher
			watcher.Start()
			re.WatchMaterial(re.Scene.DefaultMaterial())
		}
	}
	return re, nil
}

// WatchMaterial reloads the effects of m when their shader files change. It
// does nothing unless hot reload is enabled.
func (re *RenderEngine) WatchMaterial(m *materials.Material) {
	if re.watcher == nil || m == nil {
		return
	}
	if fx := m.Effect(); fx != nil {
		re.watcher.Watch(fx)
	}
	m.OnCompiledObservable.Add(re.watcher.Watch)
}

// Resize follows the framebuffer size.
func (re *RenderEngine) Resize(width, height int) {
	re.Engine.SetViewport(0, 0, int32(width), int32(height))
	for _, c := range re.Scene.Cameras() {
		c.UpdateAspectRatio(float32(width), float32(height))
	}
}

// Frame draws and presents one frame of the scene.
func (re *RenderEngine) Frame() error {
	now := Time()
	re.stats.FrameTime = now - re.lastTime
	re.lastTime = now

	if err := re.Engine.BeginFrame(); err != nil {
		return err
	}
	re.Scene.Render()
	re.Engine.EndFrame()

	re.stats.DrawCalls = re.Engine.DrawCalls()
	re.stats.ActiveMesh = re.Scene.ActiveMeshCount()
	re.Window.SwapBuffers()
	re.Window.PollEvents()
	return nil
}

// Run calls update then Frame until the window is closed. dt is the previous
// frame duration in seconds.
func (re *RenderEngine) Run(update func(dt float32)) error {
	for !re.Window.ShouldClose() {
		if update != nil {
			update(float32(re.stats.FrameTime))
		}
		if err := re.Frame(); err != nil {
			return err
		}
	}
	return nil
}

func (re *RenderEngine) Stats() FrameStats { return re.stats }

// Destroy releases the scene, the engine and the window, in that order.
func (re *RenderEngine) Destroy() {
	if re.watcher != nil {
		if err := re.watcher.Close(); err != nil {
			re.logger.Warn("close shader watcher", "error", err)
		}
	}
	re.Scene.Dispose()
	re.Engine.Dispose()
	re.Window.Destroy()
}
