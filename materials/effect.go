package materials

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"

	"render-core/core"
	"render-core/engine"
	"render-core/math"
)

// ShaderName identifies the two stages of an effect. A stage is looked up in
// the engine's shader store, then loaded from the repository. A "source:" or
// "base64:" prefix carries the code inline.
type ShaderName struct {
	Vertex   string
	Fragment string
	// Label replaces the stage names in SHADER_NAME defines and logs.
	Label string
}

// Shader names both stages after name.
func Shader(name string) ShaderName {
	return ShaderName{Vertex: name, Fragment: name}
}

// InlineShader builds a name whose stages carry their code directly.
func InlineShader(label, vertex, fragment string) ShaderName {
	return ShaderName{Vertex: "source:" + vertex, Fragment: "source:" + fragment, Label: label}
}

func (n ShaderName) vertexLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Vertex
}

func (n ShaderName) fragmentLabel() string {
	if n.Label != "" {
		return n.Label
	}
	return n.Fragment
}

type EffectOptions struct {
	Attributes []string
	Uniforms   []string
	Samplers   []string
	// Defines holds "#define NAME" lines joined by newlines.
	Defines   string
	Fallbacks *EffectFallbacks
	// IndexParameters resolve symbolic include ranges.
	IndexParameters map[string]int
	OnCompiled      func(*Effect)
	OnError         func(effect *Effect, err string)
	// Loader fetches stage and include files. Defaults to NewFileLoader.
	Loader FileLoader
	Logger *slog.Logger
}

var effectCounter int

// Effect is a shader program built from processed sources and defines. It
// degrades through its fallbacks when compilation fails and keeps the last
// working program while a rebuild compiles.
type Effect struct {
	engine   *engine.ThinEngine
	logger   *slog.Logger
	name     ShaderName
	key      string
	uniqueID int

	defines         string
	attributesNames []string
	uniformsNames   []string
	samplerList     []string
	indexParameters map[string]int
	fallbacks       *EffectFallbacks
	loader          FileLoader

	pipelineContext         *engine.PipelineContext
	samplers                []string
	samplerUnits            map[string]int
	attributes              []int32
	attributeLocationByName map[string]int32

	isReady               bool
	compilationError      string
	allFallbacksProcessed bool
	loadFailed            bool
	disposed              bool

	vertexSourceCode           string
	fragmentSourceCode         string
	vertexSourceCodeOverride   string
	fragmentSourceCodeOverride string

	onCompiled func(*Effect)
	onError    func(*Effect, string)

	OnCompileObservable core.Observable[*Effect]
	OnErrorObservable   core.Observable[*Effect]
	OnBindObservable    core.Observable[*Effect]
}

// CreateEffect returns the engine's cached effect for the same stages and
// defines, or starts building a new one.
func CreateEffect(e *engine.ThinEngine, name ShaderName, options EffectOptions) *Effect {
	key := engine.EffectKey(name.Vertex, name.Fragment, options.Defines)
	if cached, ok := e.CachedEffect(key); ok {
		if effect, ok := cached.(*Effect); ok {
			if options.OnCompiled != nil && effect.IsReady() {
				options.OnCompiled(effect)
			}
			return effect
		}
	}

	effect := NewEffect(e, name, options)
	e.RegisterEffect(effect)
	return effect
}

// NewEffect builds an effect outside the engine cache. Loading and
// compilation start immediately; with synchronous loaders and compilation the
// effect is ready (or failed) when NewEffect returns.
func NewEffect(e *engine.ThinEngine, name ShaderName, options EffectOptions) *Effect {
	logger := options.Logger
	if logger == nil {
		logger = e.Logger()
	}
	loader := options.Loader
	if loader == nil {
		loader = NewFileLoader(e)
	}

	fx := &Effect{
		engine:          e,
		name:            name,
		key:             engine.EffectKey(name.Vertex, name.Fragment, options.Defines),
		uniqueID:        effectCounter,
		defines:         options.Defines,
		attributesNames: options.Attributes,
		uniformsNames:   append(append([]string(nil), options.Uniforms...), options.Samplers...),
		samplerList:     append([]string(nil), options.Samplers...),
		indexParameters: options.IndexParameters,
		fallbacks:       options.Fallbacks,
		loader:          loader,
		onCompiled:      options.OnCompiled,
		onError:         options.OnError,
	}
	effectCounter++
	fx.logger = logger.With("component", "effect", "effect", name.vertexLabel())

	fx.load()
	return fx
}

// NewFileLoader reads files on a goroutine and delivers the result through
// the engine task queue.
func NewFileLoader(e *engine.ThinEngine) FileLoader {
	return func(url string, onSuccess func(string), onError func(error)) {
		go func() {
			data, err := os.ReadFile(url)
			e.QueueTask(func() {
				if err != nil {
					onError(err)
					return
				}
				onSuccess(string(data))
			})
		}()
	}
}

func (fx *Effect) processingOptions(isFragment bool) ProcessingOptions {
	store := fx.engine.ShaderStore()
	return ProcessingOptions{
		IsFragment:       isFragment,
		IndexParameters:  fx.indexParameters,
		UseHighPrecision: store.UseHighPrecision,
		Store:            store,
		Loader:           fx.loader,
	}
}

func (fx *Effect) load() {
	var vertexCode, fragmentCode string
	vertexDone, fragmentDone := false, false

	joined := func() {
		if !vertexDone || !fragmentDone || fx.disposed {
			return
		}
		ProcessShader(fragmentCode, fx.processingOptions(true), func(migrated string, err error) {
			if err != nil {
				fx.failLoad(err)
				return
			}
			fx.useFinalCode(vertexCode, migrated)
		})
	}

	fx.loadShader(fx.name.Vertex, "Vertex", "", func(code string) {
		ProcessShader(code, fx.processingOptions(false), func(migrated string, err error) {
			if err != nil {
				fx.failLoad(err)
				return
			}
			vertexCode = migrated
			vertexDone = true
			joined()
		})
	})
	fx.loadShader(fx.name.Fragment, "Fragment", "Pixel", func(code string) {
		fragmentCode = code
		fragmentDone = true
		joined()
	})
}

// loadShader resolves one stage: inline code, then the store under
// name+key+"Shader" (or the optional key), then the repository file.
func (fx *Effect) loadShader(shader, key, optionalKey string, callback func(string)) {
	switch {
	case strings.HasPrefix(shader, "source:"):
		callback(shader[len("source:"):])
		return
	case strings.HasPrefix(shader, "base64:"):
		decoded, err := base64.StdEncoding.DecodeString(shader[len("base64:"):])
		if err != nil {
			fx.failLoad(fmt.Errorf("decode %s shader: %w", strings.ToLower(key), err))
			return
		}
		callback(string(decoded))
		return
	}

	store := fx.engine.ShaderStore()
	if source, ok := store.Shader(shader + key + "Shader"); ok {
		callback(source)
		return
	}
	if optionalKey != "" {
		if source, ok := store.Shader(shader + optionalKey + "Shader"); ok {
			callback(source)
			return
		}
	}

	url := store.ShaderURL(shader, strings.ToLower(key))
	fx.loader(url, func(data string) {
		if fx.disposed {
			return
		}
		callback(data)
	}, func(err error) {
		fx.failLoad(fmt.Errorf("load shader %q: %w", url, err))
	})
}

// failLoad surfaces a source that could not be fetched or processed. There
// is nothing to fall back to, so the error is final.
func (fx *Effect) failLoad(err error) {
	if fx.disposed || fx.loadFailed {
		return
	}
	fx.loadFailed = true
	fx.compilationError = err.Error()
	fx.allFallbacksProcessed = true
	fx.logger.Error("unable to load effect", "error", err)
	fx.notifyError()
	fx.OnErrorObservable.Clear()
}

func (fx *Effect) useFinalCode(vertexCode, fragmentCode string) {
	fx.vertexSourceCode = "#define SHADER_NAME vertex:" + fx.name.vertexLabel() + "\n" + vertexCode
	fx.fragmentSourceCode = "#define SHADER_NAME fragment:" + fx.name.fragmentLabel() + "\n" + fragmentCode
	fx.prepareEffect()
}

func (fx *Effect) prepareEffect() {
	if fx.disposed {
		return
	}
	previous := fx.pipelineContext
	fx.isReady = false

	pc := fx.engine.CreatePipelineContext()
	fx.pipelineContext = pc

	vertex, fragment := fx.vertexSourceCode, fx.fragmentSourceCode
	if fx.vertexSourceCodeOverride != "" && fx.fragmentSourceCodeOverride != "" {
		vertex, fragment = fx.vertexSourceCodeOverride, fx.fragmentSourceCodeOverride
	}
	if err := fx.engine.PreparePipelineContext(pc, vertex, fragment, fx.defines); err != nil {
		fx.processCompilationErrors(err, previous)
		return
	}

	fx.engine.ExecuteWhenRenderingStateIsCompiled(pc, func() {
		fx.pipelineCompiled(pc, previous)
	})
	if pc.IsAsync() {
		fx.checkIsReady(pc, previous)
	}
}

func (fx *Effect) pipelineCompiled(pc, previous *engine.PipelineContext) {
	if fx.disposed || fx.pipelineContext != pc {
		return
	}
	fx.samplers, fx.samplerUnits, fx.attributes = pc.FillEffectInformation(fx.uniformsNames, fx.samplerList, fx.attributesNames)
	fx.attributeLocationByName = make(map[string]int32, len(fx.attributesNames))
	for i, name := range fx.attributesNames {
		fx.attributeLocationByName[name] = fx.attributes[i]
	}

	fx.engine.BindSamplers(fx)
	fx.compilationError = ""
	fx.isReady = true

	if fx.onCompiled != nil {
		fx.onCompiled(fx)
	}
	fx.OnCompileObservable.NotifyObservers(fx)
	fx.OnCompileObservable.Clear()

	if previous != nil {
		fx.engine.DeletePipelineContext(previous)
	}
}

// checkIsReady polls an asynchronous link once per engine task tick.
func (fx *Effect) checkIsReady(pc, previous *engine.PipelineContext) {
	if fx.disposed || fx.pipelineContext != pc || fx.isReady {
		return
	}
	ready, err := pc.IsReady()
	if err != nil {
		fx.processCompilationErrors(err, previous)
		return
	}
	if ready {
		return
	}
	fx.engine.QueueTask(func() {
		fx.checkIsReady(pc, previous)
	})
}

func (fx *Effect) processCompilationErrors(err error, previous *engine.PipelineContext) {
	fx.compilationError = err.Error()

	fx.logger.Error("unable to compile effect",
		"defines", fx.defines,
		"uniforms", fx.uniformsNames,
		"attributes", fx.attributesNames,
		"error", fx.compilationError)

	if failed := fx.pipelineContext; failed != nil {
		fx.logShaderCode(failed.VertexSourceCode(), false)
		fx.logShaderCode(failed.FragmentSourceCode(), true)
		fx.engine.DeletePipelineContext(failed)
	}
	fx.pipelineContext = nil

	if previous != nil {
		fx.pipelineContext = previous
		fx.isReady = true
		fx.notifyError()
		return
	}

	if fx.fallbacks != nil && fx.fallbacks.HasMoreFallbacks() {
		fx.allFallbacksProcessed = false
		fx.logger.Warn("trying next fallback", "rank", fx.fallbacks.CurrentRank())
		fx.defines = fx.fallbacks.Reduce(fx.defines)
		fx.prepareEffect()
		return
	}

	fx.allFallbacksProcessed = true
	fx.notifyError()
	fx.OnErrorObservable.Clear()
}

func (fx *Effect) notifyError() {
	if fx.onError != nil {
		fx.onError(fx, fx.compilationError)
	}
	fx.OnErrorObservable.NotifyObservers(fx)
}

var (
	vertexErrorLine   = regexp.MustCompile(`VERTEX SHADER ERROR: 0:(\d+?):`)
	fragmentErrorLine = regexp.MustCompile(`FRAGMENT SHADER ERROR: 0:(\d+?):`)
)

func (fx *Effect) logShaderCode(code string, isFragment bool) {
	if code == "" {
		return
	}
	stage := "vertex"
	if isFragment {
		stage = "fragment"
	}
	fx.logger.Error(stage+" code", "code", numberLines(code))
	if line := offendingLine(code, fx.compilationError, isFragment); line != "" {
		fx.logger.Error(line)
	}
}

// numberLines prefixes each line with its 1-based number and a tab.
func numberLines(code string) string {
	lines := strings.Split(code, "\n")
	var b strings.Builder
	for i, line := range lines {
		b.WriteString(strconv.Itoa(i + 1))
		b.WriteByte('\t')
		b.WriteString(line)
		if i < len(lines)-1 {
			b.WriteByte('\n')
		}
	}
	return b.String()
}

// offendingLine quotes the source line a driver error points at.
func offendingLine(code, compilationError string, isFragment bool) string {
	re, stage := vertexErrorLine, "vertex"
	if isFragment {
		re, stage = fragmentErrorLine, "fragment"
	}
	match := re.FindStringSubmatch(compilationError)
	if len(match) != 2 {
		return ""
	}
	lineNumber, err := strconv.Atoi(match[1])
	if err != nil || lineNumber < 1 {
		return ""
	}
	lines := strings.Split(code, "\n")
	if lineNumber > len(lines) {
		return ""
	}
	return fmt.Sprintf("Offending line [%d] in %s code: %s", lineNumber, stage, lines[lineNumber-1])
}

// RebuildProgram recompiles the effect from new stage sources, keeping the
// current program live until the new one links. On failure the previous
// program is restored and onError receives the message. Fallbacks are
// dropped for the rebuilt program.
func (fx *Effect) RebuildProgram(vertexCode, fragmentCode string, onCompiled func(*Effect), onError func(string)) {
	fx.onError = func(_ *Effect, message string) {
		if onError != nil {
			onError(message)
		}
	}
	fx.onCompiled = onCompiled
	fx.fallbacks = nil

	ProcessShader(vertexCode, fx.processingOptions(false), func(vertex string, err error) {
		if err != nil {
			fx.compilationError = err.Error()
			fx.notifyError()
			return
		}
		ProcessShader(fragmentCode, fx.processingOptions(true), func(fragment string, err error) {
			if err != nil {
				fx.compilationError = err.Error()
				fx.notifyError()
				return
			}
			fx.vertexSourceCodeOverride = "#define SHADER_NAME vertex:" + fx.name.vertexLabel() + "\n" + vertex
			fx.fragmentSourceCodeOverride = "#define SHADER_NAME fragment:" + fx.name.fragmentLabel() + "\n" + fragment
			fx.prepareEffect()
		})
	})
}

// Rebuild recompiles on a restored context. Handles from the lost context are
// dropped without being deleted.
func (fx *Effect) Rebuild() {
	if fx.disposed || (fx.vertexSourceCode == "" && fx.vertexSourceCodeOverride == "") {
		return
	}
	fx.pipelineContext = nil
	fx.prepareEffect()
}

// IsReady reports whether the effect can be bound. Asynchronous programs are
// polled, which may complete them.
func (fx *Effect) IsReady() bool {
	if !fx.isReady && fx.pipelineContext != nil && fx.pipelineContext.IsAsync() {
		if _, err := fx.pipelineContext.IsReady(); err != nil {
			return false
		}
	}
	return fx.isReady
}

// ExecuteWhenCompiled runs fn now when ready, or once compilation succeeds.
func (fx *Effect) ExecuteWhenCompiled(fn func(*Effect)) {
	if fx.IsReady() {
		fn(fx)
		return
	}
	fx.OnCompileObservable.Add(fn)
}

// Dispose removes the effect from the engine cache and deletes its program.
func (fx *Effect) Dispose() {
	if fx.disposed {
		return
	}
	fx.engine.ReleaseEffect(fx)
	if fx.pipelineContext != nil {
		fx.engine.DeletePipelineContext(fx.pipelineContext)
		fx.pipelineContext = nil
	}
	fx.disposed = true
	fx.isReady = false
	fx.OnCompileObservable.Clear()
	fx.OnErrorObservable.Clear()
	fx.OnBindObservable.Clear()
}

// ── Accessors ───────────────────────────────────────────────────────────────

func (fx *Effect) Engine() *engine.ThinEngine { return fx.engine }
func (fx *Effect) Name() ShaderName           { return fx.name }
func (fx *Effect) Key() string                { return fx.key }
func (fx *Effect) UniqueID() int              { return fx.uniqueID }
func (fx *Effect) Defines() string            { return fx.defines }
func (fx *Effect) IsDisposed() bool           { return fx.disposed }

// CompilationError returns the last compile or load error, empty once a
// program links.
func (fx *Effect) CompilationError() string { return fx.compilationError }

// IsSupported reports whether the effect compiled without errors.
func (fx *Effect) IsSupported() bool { return fx.compilationError == "" }

// AllFallbacksProcessed reports that every fallback failed.
func (fx *Effect) AllFallbacksProcessed() bool { return fx.allFallbacksProcessed }

// VertexSourceCode returns the processed vertex stage as compiled.
func (fx *Effect) VertexSourceCode() string {
	if fx.vertexSourceCodeOverride != "" {
		return fx.vertexSourceCodeOverride
	}
	return fx.vertexSourceCode
}

func (fx *Effect) FragmentSourceCode() string {
	if fx.fragmentSourceCodeOverride != "" {
		return fx.fragmentSourceCodeOverride
	}
	return fx.fragmentSourceCode
}

func (fx *Effect) PipelineContext() *engine.PipelineContext { return fx.pipelineContext }
func (fx *Effect) AttributesNames() []string                { return fx.attributesNames }
func (fx *Effect) AttributesCount() int                     { return len(fx.attributes) }
func (fx *Effect) Samplers() []string                       { return fx.samplers }
func (fx *Effect) UniformNames() []string                   { return fx.uniformsNames }

func (fx *Effect) AttributeLocation(index int) int32 {
	if index < 0 || index >= len(fx.attributes) {
		return -1
	}
	return fx.attributes[index]
}

// AttributeLocationByName returns the cached location, -1 when unknown.
func (fx *Effect) AttributeLocationByName(name string) int32 {
	if location, ok := fx.attributeLocationByName[name]; ok {
		return location
	}
	return -1
}

func (fx *Effect) Uniform(name string) *engine.Uniform {
	if fx.pipelineContext == nil {
		return nil
	}
	return fx.pipelineContext.Uniform(name)
}

// SamplerUnit returns the texture unit assigned to a live sampler.
func (fx *Effect) SamplerUnit(name string) (int, bool) {
	unit, ok := fx.samplerUnits[name]
	return unit, ok
}

func (fx *Effect) NotifyBind() {
	fx.OnBindObservable.NotifyObservers(fx)
}

// ── Uniform setters ─────────────────────────────────────────────────────────
// Setters do nothing while no program is live.

func (fx *Effect) SetInt(name string, v int32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetInt(name, v)
	}
}

func (fx *Effect) SetBool(name string, v bool) {
	if v {
		fx.SetInt(name, 1)
	} else {
		fx.SetInt(name, 0)
	}
}

func (fx *Effect) SetFloat(name string, v float32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetFloat(name, v)
	}
}

func (fx *Effect) SetFloat2(name string, x, y float32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetFloat2(name, x, y)
	}
}

func (fx *Effect) SetFloat3(name string, x, y, z float32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetFloat3(name, x, y, z)
	}
}

func (fx *Effect) SetFloat4(name string, x, y, z, w float32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetFloat4(name, x, y, z, w)
	}
}

func (fx *Effect) SetVector3(name string, v math.Vec3) {
	fx.SetFloat3(name, v.X, v.Y, v.Z)
}

func (fx *Effect) SetColor3(name string, c core.Color) {
	fx.SetFloat3(name, c.R, c.G, c.B)
}

func (fx *Effect) SetColor4(name string, c core.Color, alpha float32) {
	fx.SetFloat4(name, c.R, c.G, c.B, alpha)
}

func (fx *Effect) SetMatrix(name string, m math.Mat4) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetMatrix(name, m)
	}
}

func (fx *Effect) SetMatrices(name string, values []float32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetMatrices(name, values)
	}
}

func (fx *Effect) SetFloatArray(name string, values []float32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetFloatArray(name, values)
	}
}

func (fx *Effect) SetFloatArray4(name string, values []float32) {
	if pc := fx.pipelineContext; pc != nil {
		pc.SetFloatArray4(name, values)
	}
}

// SetTexture binds texture to the unit of sampler name.
func (fx *Effect) SetTexture(name string, texture *engine.InternalTexture) {
	unit, ok := fx.samplerUnits[name]
	if !ok {
		return
	}
	fx.engine.SetTexture(unit, fx.Uniform(name), texture)
}

var errNotCompiled = errors.New("effect not compiled")

// Err returns the compilation error as an error value, nil when supported.
func (fx *Effect) Err() error {
	if fx.compilationError == "" {
		if !fx.isReady {
			return errNotCompiled
		}
		return nil
	}
	return errors.New(fx.compilationError)
}
