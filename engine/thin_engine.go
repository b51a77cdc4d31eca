package engine

import (
	"log/slog"

	"render-core/core"
)

// Effect is the view of a compiled shader effect the engine needs to bind it.
type Effect interface {
	Key() string
	PipelineContext() *PipelineContext
	AttributesNames() []string
	AttributeLocation(index int) int32
	Samplers() []string
	Uniform(name string) *Uniform
	// NotifyBind fires the effect's bind observers.
	NotifyBind()
	// Rebuild recompiles the effect after a context restore.
	Rebuild()
}

// VertexBuffers maps attribute kind to vertex buffer. The engine compares maps
// by identity to skip redundant attribute setup.
type VertexBuffers map[string]*VertexBuffer

type bufferPointer struct {
	active     bool
	buffer     *DataBuffer
	size       int
	typ        uint32
	normalized bool
	stride     int
	offset     int
}

// ThinEngine wraps a Driver and suppresses redundant GPU state changes. One
// engine exists per rendering context. It is not safe for concurrent use apart
// from QueueTask.
type ThinEngine struct {
	driver Driver
	config core.EngineConfig
	logger *slog.Logger

	maxVertexAttribs int
	maxTextures      int

	depthCullingState *DepthCullingState
	alphaState        *AlphaState
	stencilState      *StencilState
	alphaMode         int
	colorWrite        bool
	colorWriteChanged bool
	viewportCached    [4]int32
	viewportKnown     bool

	currentProgram  uint32
	currentEffect   Effect
	compiledEffects map[string]Effect
	shaderStore     *ShaderStore

	activeChannel         int
	currentTextureChannel int
	boundTexturesCache    []*InternalTexture
	boundUniforms         map[int]*Uniform
	internalTextures      []*InternalTexture
	emptyTexture          *InternalTexture

	currentBoundBuffer           map[uint32]*DataBuffer
	cachedVertexBuffers          VertexBuffers
	cachedEffectForVertexBuffers Effect
	cachedIndexBuffer            *DataBuffer
	cachedVertexArrayObject      uint32
	vaoRecordInProgress          bool
	mustWipeVertexAttributes     bool
	vertexAttribArraysEnabled    []bool
	currentBufferPointers        []bufferPointer
	currentInstanceLocations     []uint32
	currentInstanceBuffers       []*DataBuffer
	uintIndicesCurrentlySet      bool
	bufferCounter                int

	drawCalls int
	frameID   int

	tasks       taskQueue
	disposed    bool
	contextLost bool

	OnContextLostObservable             core.Observable[*ThinEngine]
	OnContextRestoredObservable         core.Observable[*ThinEngine]
	OnBeforeShaderCompilationObservable core.Observable[*ThinEngine]
	OnAfterShaderCompilationObservable  core.Observable[*ThinEngine]
	OnDisposeObservable                 core.Observable[*ThinEngine]
}

// New creates an engine on top of driver. Capabilities the driver reports
// override the configured limits when they are lower.
func New(driver Driver, config core.EngineConfig, logger *slog.Logger) *ThinEngine {
	logger = core.LoggerOr(logger).With("component", "engine")

	e := &ThinEngine{
		driver:          driver,
		config:          config,
		logger:          logger,
		compiledEffects: make(map[string]Effect),
		shaderStore:     NewShaderStore(core.DefaultShaderConfig().Repository),
		boundUniforms:   make(map[int]*Uniform),
		colorWrite:      true,
	}

	e.maxVertexAttribs = config.MaxVertexAttribs
	if n := int(driver.GetInteger(GL_MAX_VERTEX_ATTRIBS)); n > 0 && (e.maxVertexAttribs <= 0 || n < e.maxVertexAttribs) {
		e.maxVertexAttribs = n
	}
	e.maxTextures = config.MaxSimultaneousTextures
	if n := int(driver.GetInteger(GL_MAX_TEXTURE_IMAGE_UNITS)); n > 0 && (e.maxTextures <= 0 || n < e.maxTextures) {
		e.maxTextures = n
	}

	e.initStates()
	logger.Info("engine created",
		"version", driver.Version(),
		"maxVertexAttribs", e.maxVertexAttribs,
		"maxTextures", e.maxTextures,
		"parallelShaderCompile", config.ParallelShaderCompile)
	return e
}

func (e *ThinEngine) initStates() {
	e.depthCullingState = NewDepthCullingState()
	e.alphaState = NewAlphaState()
	e.stencilState = NewStencilState()
	e.alphaMode = AlphaAdd

	e.boundTexturesCache = make([]*InternalTexture, e.maxTextures)
	e.currentTextureChannel = -1
	e.activeChannel = 0

	e.currentBoundBuffer = make(map[uint32]*DataBuffer)
	e.vertexAttribArraysEnabled = make([]bool, e.maxVertexAttribs)
	e.currentBufferPointers = make([]bufferPointer, e.maxVertexAttribs)
	e.mustWipeVertexAttributes = true
	e.colorWrite = true
	e.colorWriteChanged = true
}

func (e *ThinEngine) Driver() Driver               { return e.driver }
func (e *ThinEngine) Logger() *slog.Logger         { return e.logger }
func (e *ThinEngine) Config() core.EngineConfig    { return e.config }
func (e *ThinEngine) IsDisposed() bool             { return e.disposed }
func (e *ThinEngine) IsContextLost() bool          { return e.contextLost }
func (e *ThinEngine) MaxVertexAttribs() int        { return e.maxVertexAttribs }
func (e *ThinEngine) MaxSimultaneousTextures() int { return e.maxTextures }
func (e *ThinEngine) DrawCalls() int               { return e.drawCalls }
func (e *ThinEngine) FrameID() int                 { return e.frameID }
func (e *ThinEngine) CurrentEffect() Effect        { return e.currentEffect }
func (e *ThinEngine) CurrentProgram() uint32       { return e.currentProgram }

// ShaderStore returns the sources shared by every effect of this engine.
func (e *ThinEngine) ShaderStore() *ShaderStore { return e.shaderStore }

func (e *ThinEngine) DepthCullingState() *DepthCullingState { return e.depthCullingState }
func (e *ThinEngine) AlphaState() *AlphaState               { return e.alphaState }
func (e *ThinEngine) StencilState() *StencilState           { return e.stencilState }

// SupportsParallelShaderCompile reports whether programs link asynchronously.
func (e *ThinEngine) SupportsParallelShaderCompile() bool {
	return e.config.ParallelShaderCompile
}

// GetError returns the driver's pending error code.
func (e *ThinEngine) GetError() uint32 {
	return e.driver.GetError()
}

// BeginFrame runs queued continuations and wipes per-frame caches unless
// PreventCacheWipeBetweenFrames is set.
func (e *ThinEngine) BeginFrame() error {
	if e.disposed {
		return ErrEngineDisposed
	}
	if e.contextLost {
		return ErrContextLost
	}
	e.RunPendingTasks()
	e.drawCalls = 0
	e.WipeCaches(false)
	return nil
}

func (e *ThinEngine) EndFrame() {
	e.frameID++
}

// WipeCaches forgets cached bindings so the next calls hit the driver again.
// bruteForce also resets programs, textures and fixed-function state.
func (e *ThinEngine) WipeCaches(bruteForce bool) {
	if e.config.PreventCacheWipeBetweenFrames && !bruteForce {
		return
	}
	e.currentEffect = nil
	e.viewportKnown = false
	e.unbindVertexArrayObject()

	if bruteForce {
		e.currentProgram = 0
		e.ResetTextureCache()

		e.stencilState.Reset()
		e.depthCullingState.Reset()
		e.depthCullingState.SetDepthFunc(GL_LEQUAL)
		e.alphaState.Reset()
		e.alphaMode = AlphaAdd

		e.colorWrite = true
		e.colorWriteChanged = true

		e.mustWipeVertexAttributes = true
		e.UnbindAllAttributes()
	}

	e.resetVertexBufferBinding()
	e.cachedIndexBuffer = nil
	e.cachedEffectForVertexBuffers = nil
	e.BindIndexBuffer(nil)
}

// ApplyStates pushes dirty depth, stencil and alpha state plus the color mask.
func (e *ThinEngine) ApplyStates() {
	e.depthCullingState.Apply(e.driver)
	e.stencilState.Apply(e.driver)
	e.alphaState.Apply(e.driver)
	if e.colorWriteChanged {
		e.colorWriteChanged = false
		enable := e.colorWrite
		e.driver.ColorMask(enable, enable, enable, enable)
	}
}

func (e *ThinEngine) SetColorWrite(enable bool) {
	if enable != e.colorWrite {
		e.colorWriteChanged = true
		e.colorWrite = enable
	}
}

func (e *ThinEngine) ColorWrite() bool { return e.colorWrite }

// SetState configures culling, depth offset and winding for the next draw.
func (e *ThinEngine) SetState(culling bool, zOffset float32, reverseSide, cullBackFaces bool) {
	e.depthCullingState.SetCull(culling)
	if cullBackFaces {
		e.depthCullingState.SetCullFace(GL_BACK)
	} else {
		e.depthCullingState.SetCullFace(GL_FRONT)
	}
	e.depthCullingState.SetZOffset(zOffset)
	if reverseSide {
		e.depthCullingState.SetFrontFace(GL_CW)
	} else {
		e.depthCullingState.SetFrontFace(GL_CCW)
	}
}

func (e *ThinEngine) SetDepthBuffer(enable bool) { e.depthCullingState.SetDepthTest(enable) }
func (e *ThinEngine) SetDepthWrite(enable bool)  { e.depthCullingState.SetDepthMask(enable) }
func (e *ThinEngine) SetDepthFunction(fn uint32) { e.depthCullingState.SetDepthFunc(fn) }

func (e *ThinEngine) AlphaMode() int { return e.alphaMode }

// SetAlphaMode selects a blending preset. Unless noDepthWriteChange is set,
// depth writes are enabled only when blending is disabled.
func (e *ThinEngine) SetAlphaMode(mode int, noDepthWriteChange bool) {
	if e.alphaMode == mode {
		if mode == AlphaDisable {
			return
		}
		if !noDepthWriteChange {
			e.depthCullingState.SetDepthMask(false)
		}
		return
	}

	switch mode {
	case AlphaDisable:
		e.alphaState.SetAlphaBlend(false)
	case AlphaPremultiplied:
		e.alphaState.SetFunctionParameters(GL_ONE, GL_ONE_MINUS_SRC_ALPHA, GL_ONE, GL_ONE)
		e.alphaState.SetAlphaBlend(true)
	case AlphaCombine:
		e.alphaState.SetFunctionParameters(GL_SRC_ALPHA, GL_ONE_MINUS_SRC_ALPHA, GL_ONE, GL_ONE)
		e.alphaState.SetAlphaBlend(true)
	case AlphaOneOne:
		e.alphaState.SetFunctionParameters(GL_ONE, GL_ONE, GL_ZERO, GL_ONE)
		e.alphaState.SetAlphaBlend(true)
	case AlphaAdd:
		e.alphaState.SetFunctionParameters(GL_SRC_ALPHA, GL_ONE, GL_ZERO, GL_ONE)
		e.alphaState.SetAlphaBlend(true)
	case AlphaSubtract:
		e.alphaState.SetFunctionParameters(GL_ZERO, GL_ONE_MINUS_SRC_COLOR, GL_ONE, GL_ONE)
		e.alphaState.SetAlphaBlend(true)
	case AlphaMultiply:
		e.alphaState.SetFunctionParameters(GL_DST_COLOR, GL_ZERO, GL_ONE, GL_ONE)
		e.alphaState.SetAlphaBlend(true)
	case AlphaMaximized:
		e.alphaState.SetFunctionParameters(GL_SRC_ALPHA, GL_ONE_MINUS_SRC_COLOR, GL_ONE, GL_ONE)
		e.alphaState.SetAlphaBlend(true)
	}
	if mode != AlphaDisable {
		e.alphaState.SetEquationParameters(GL_FUNC_ADD, GL_FUNC_ADD)
	}

	if !noDepthWriteChange {
		e.depthCullingState.SetDepthMask(mode == AlphaDisable)
	}
	e.alphaMode = mode
}

// SetViewport sets the viewport in pixels, skipping the driver when unchanged.
func (e *ThinEngine) SetViewport(x, y, width, height int32) {
	v := [4]int32{x, y, width, height}
	if e.viewportKnown && e.viewportCached == v {
		return
	}
	e.viewportCached = v
	e.viewportKnown = true
	e.driver.Viewport(x, y, width, height)
}

// Clear clears the selected buffers. A nil color skips the color buffer.
func (e *ThinEngine) Clear(color *core.Color, depth, stencil bool) {
	e.ApplyStates()
	var mask uint32
	if color != nil {
		e.driver.ClearColor(color.R, color.G, color.B, color.A)
		mask |= GL_COLOR_BUFFER_BIT
	}
	if depth {
		e.depthCullingState.SetDepthFunc(GL_LEQUAL)
		e.driver.ClearDepth(1.0)
		mask |= GL_DEPTH_BUFFER_BIT
	}
	if stencil {
		e.driver.ClearStencil(0)
		mask |= GL_STENCIL_BUFFER_BIT
	}
	if mask != 0 {
		e.driver.Clear(mask)
	}
}

// HandleContextLost marks every GPU handle as invalid. Rendering is refused
// until HandleContextRestored runs.
func (e *ThinEngine) HandleContextLost() {
	if e.contextLost {
		return
	}
	e.contextLost = true
	e.logger.Warn("rendering context lost")
	e.OnContextLostObservable.NotifyObservers(e)
}

// HandleContextRestored recreates effects and textures on the new context,
// resets every cache and notifies observers so owners of buffers can rebuild
// them.
func (e *ThinEngine) HandleContextRestored() {
	if !e.contextLost {
		return
	}
	e.initStates()
	e.currentProgram = 0
	e.currentEffect = nil
	e.cachedVertexArrayObject = 0
	e.emptyTexture = nil
	e.boundUniforms = make(map[int]*Uniform)
	e.contextLost = false

	for _, effect := range e.compiledEffects {
		effect.Rebuild()
	}
	for _, t := range e.internalTextures {
		if t.pixels == nil {
			continue
		}
		t.handle = 0
		e.uploadTexture(t)
	}

	e.WipeCaches(true)
	e.logger.Warn("rendering context restored")
	e.OnContextRestoredObservable.NotifyObservers(e)
}

// Dispose releases effects and cached bindings. The driver itself is owned by
// the caller.
func (e *ThinEngine) Dispose() {
	if e.disposed {
		return
	}
	if e.emptyTexture != nil {
		e.emptyTexture.Dispose()
		e.emptyTexture = nil
	}
	e.ReleaseEffects()
	e.UnbindAllAttributes()
	e.boundUniforms = make(map[int]*Uniform)

	e.OnDisposeObservable.NotifyObservers(e)
	e.OnDisposeObservable.Clear()
	e.OnContextLostObservable.Clear()
	e.OnContextRestoredObservable.Clear()

	e.disposed = true
	e.logger.Debug("engine disposed")
}
