package engine

import (
	"errors"
	"fmt"
)

// ShaderVersion is prepended to every shader before the defines.
const ShaderVersion = "#version 410 core\n"

// EffectKey builds the effect cache key from shader names and defines.
func EffectKey(vertex, fragment, defines string) string {
	return vertex + "+" + fragment + "@" + defines
}

// ── Effect cache ────────────────────────────────────────────────────────────

// CachedEffect returns the effect compiled under key, if any.
func (e *ThinEngine) CachedEffect(key string) (Effect, bool) {
	effect, ok := e.compiledEffects[key]
	return effect, ok
}

// RegisterEffect stores an effect under its key.
func (e *ThinEngine) RegisterEffect(effect Effect) {
	e.compiledEffects[effect.Key()] = effect
}

func (e *ThinEngine) CompiledEffectsCount() int {
	return len(e.compiledEffects)
}

// ReleaseEffect removes an effect from the cache and deletes its program.
func (e *ThinEngine) ReleaseEffect(effect Effect) {
	if cached, ok := e.compiledEffects[effect.Key()]; ok && cached == effect {
		delete(e.compiledEffects, effect.Key())
		e.DeletePipelineContext(effect.PipelineContext())
	}
	if e.currentEffect == effect {
		e.currentEffect = nil
	}
}

// ReleaseEffects deletes every cached effect's program.
func (e *ThinEngine) ReleaseEffects() {
	for _, effect := range e.compiledEffects {
		e.DeletePipelineContext(effect.PipelineContext())
	}
	e.compiledEffects = make(map[string]Effect)
	e.currentEffect = nil
}

// ── Pipeline contexts ───────────────────────────────────────────────────────

func (e *ThinEngine) CreatePipelineContext() *PipelineContext {
	return &PipelineContext{
		engine:             e,
		isParallelCompiled: e.config.ParallelShaderCompile,
	}
}

// DeletePipelineContext deletes the program and any shaders still attached.
func (e *ThinEngine) DeletePipelineContext(pc *PipelineContext) {
	if pc == nil || pc.program == 0 {
		return
	}
	if e.currentProgram == pc.program {
		e.currentProgram = 0
	}
	if pc.vertexShader != 0 {
		e.driver.DeleteShader(pc.vertexShader)
		pc.vertexShader = 0
	}
	if pc.fragmentShader != 0 {
		e.driver.DeleteShader(pc.fragmentShader)
		pc.fragmentShader = 0
	}
	e.driver.DeleteProgram(pc.program)
	pc.program = 0
	pc.uniforms = nil
	pc.onCompiled = nil
}

// ConcatenateShader prefixes source with the version line and defines.
func ConcatenateShader(source, defines, version string) string {
	if defines != "" {
		return version + defines + "\n" + source
	}
	return version + source
}

// PreparePipelineContext compiles and links a program into pc. Without
// parallel compilation the result is final; otherwise errors surface when
// readiness is polled.
func (e *ThinEngine) PreparePipelineContext(pc *PipelineContext, vertexCode, fragmentCode, defines string) error {
	if e.disposed {
		return ErrEngineDisposed
	}
	if e.contextLost {
		return ErrContextLost
	}
	e.OnBeforeShaderCompilationObservable.NotifyObservers(e)
	defer e.OnAfterShaderCompilationObservable.NotifyObservers(e)

	pc.vertexSourceCode = ConcatenateShader(vertexCode, defines, ShaderVersion)
	pc.fragmentSourceCode = ConcatenateShader(fragmentCode, defines, ShaderVersion)

	vertexShader, err := e.compileRawShader(pc.vertexSourceCode, GL_VERTEX_SHADER)
	if err != nil {
		return err
	}
	fragmentShader, err := e.compileRawShader(pc.fragmentSourceCode, GL_FRAGMENT_SHADER)
	if err != nil {
		e.driver.DeleteShader(vertexShader)
		return err
	}
	return e.createShaderProgram(pc, vertexShader, fragmentShader)
}

func (e *ThinEngine) compileRawShader(source string, typ uint32) (uint32, error) {
	shader := e.driver.CreateShader(typ)
	if shader == 0 {
		return 0, fmt.Errorf("%w: error %d", ErrShaderCreation, e.driver.GetError())
	}
	e.driver.ShaderSource(shader, source)
	e.driver.CompileShader(shader)
	return shader, nil
}

func (e *ThinEngine) createShaderProgram(pc *PipelineContext, vertexShader, fragmentShader uint32) error {
	program := e.driver.CreateProgram()
	pc.program = program
	if program == 0 {
		e.driver.DeleteShader(vertexShader)
		e.driver.DeleteShader(fragmentShader)
		return ErrProgramCreation
	}

	e.driver.AttachShader(program, vertexShader)
	e.driver.AttachShader(program, fragmentShader)
	e.driver.LinkProgram(program)

	pc.vertexShader = vertexShader
	pc.fragmentShader = fragmentShader

	if !pc.isParallelCompiled {
		return e.finalizePipelineContext(pc)
	}
	return nil
}

// finalizePipelineContext checks the link result, frees the shader objects
// and runs the compiled callback.
func (e *ThinEngine) finalizePipelineContext(pc *PipelineContext) error {
	if pc.finalized {
		return nil
	}
	if !e.driver.GetProgramLinkStatus(pc.program) {
		if !e.driver.GetShaderCompileStatus(pc.vertexShader) {
			if log := e.driver.GetShaderInfoLog(pc.vertexShader); log != "" {
				pc.VertexCompilationError = log
				return errors.New("VERTEX SHADER " + log)
			}
		}
		if !e.driver.GetShaderCompileStatus(pc.fragmentShader) {
			if log := e.driver.GetShaderInfoLog(pc.fragmentShader); log != "" {
				pc.FragmentCompilationError = log
				return errors.New("FRAGMENT SHADER " + log)
			}
		}
		if log := e.driver.GetProgramInfoLog(pc.program); log != "" {
			pc.ProgramLinkError = log
			return errors.New(log)
		}
		return errors.New("program link failed")
	}

	if e.config.ValidateShaderPrograms && !e.driver.ValidateProgram(pc.program) {
		if log := e.driver.GetProgramInfoLog(pc.program); log != "" {
			pc.ProgramValidationError = log
			return errors.New(log)
		}
	}

	e.driver.DeleteShader(pc.vertexShader)
	e.driver.DeleteShader(pc.fragmentShader)
	pc.vertexShader = 0
	pc.fragmentShader = 0
	pc.finalized = true

	if pc.onCompiled != nil {
		onCompiled := pc.onCompiled
		pc.onCompiled = nil
		onCompiled()
	}
	return nil
}

// IsRenderingStateCompiled polls an asynchronous link and finalizes the
// context when it completes.
func (e *ThinEngine) IsRenderingStateCompiled(pc *PipelineContext) (bool, error) {
	if e.disposed || pc.program == 0 {
		return false, nil
	}
	if pc.finalized {
		return true, nil
	}
	if e.driver.ProgramCompletionStatus(pc.program) {
		if err := e.finalizePipelineContext(pc); err != nil {
			return false, err
		}
		return true, nil
	}
	return false, nil
}

// ExecuteWhenRenderingStateIsCompiled runs action once pc is linked. Synchronous
// contexts run it immediately; asynchronous ones chain it behind any pending
// handler.
func (e *ThinEngine) ExecuteWhenRenderingStateIsCompiled(pc *PipelineContext, action func()) {
	if !pc.isParallelCompiled || pc.finalized {
		action()
		return
	}
	if previous := pc.onCompiled; previous != nil {
		pc.onCompiled = func() {
			previous()
			action()
		}
		return
	}
	pc.onCompiled = action
}

// GetUniforms resolves uniform locations for names, -1 when absent.
func (e *ThinEngine) GetUniforms(pc *PipelineContext, names []string) []int32 {
	out := make([]int32, len(names))
	for i, name := range names {
		out[i] = e.driver.GetUniformLocation(pc.program, name)
	}
	return out
}

// GetAttributes resolves attribute locations for names, -1 when absent.
func (e *ThinEngine) GetAttributes(pc *PipelineContext, names []string) []int32 {
	out := make([]int32, len(names))
	for i, name := range names {
		out[i] = e.driver.GetAttribLocation(pc.program, name)
	}
	return out
}

// ── Program binding ─────────────────────────────────────────────────────────

// SetProgram switches the current program unless it is already current.
func (e *ThinEngine) SetProgram(program uint32) {
	if e.currentProgram != program {
		e.driver.UseProgram(program)
		e.currentProgram = program
	}
}

// BindSamplers makes the effect's program current and records which uniform
// feeds each texture channel.
func (e *ThinEngine) BindSamplers(effect Effect) {
	pc := effect.PipelineContext()
	if pc == nil {
		return
	}
	e.SetProgram(pc.program)
	for index, name := range effect.Samplers() {
		if u := effect.Uniform(name); u != nil {
			e.boundUniforms[index] = u
		}
	}
	e.currentEffect = nil
}

// EnableEffect binds effect for the next draws. It is a no-op when effect is
// already current.
func (e *ThinEngine) EnableEffect(effect Effect) {
	if effect == nil || effect == e.currentEffect {
		return
	}
	e.BindSamplers(effect)
	e.currentEffect = effect

	e.cachedVertexBuffers = nil
	e.cachedEffectForVertexBuffers = nil
	e.cachedIndexBuffer = nil

	effect.NotifyBind()
}

// ── Uniform setters ─────────────────────────────────────────────────────────
// Each setter returns false and does nothing when the uniform is absent.

func (e *ThinEngine) SetInt(u *Uniform, v int32) bool {
	if u == nil {
		return false
	}
	e.driver.Uniform1i(u.location, v)
	return true
}

func (e *ThinEngine) SetFloat(u *Uniform, v float32) bool {
	if u == nil {
		return false
	}
	e.driver.Uniform1f(u.location, v)
	return true
}

func (e *ThinEngine) SetFloat2(u *Uniform, x, y float32) bool {
	if u == nil {
		return false
	}
	e.driver.Uniform2f(u.location, x, y)
	return true
}

func (e *ThinEngine) SetFloat3(u *Uniform, x, y, z float32) bool {
	if u == nil {
		return false
	}
	e.driver.Uniform3f(u.location, x, y, z)
	return true
}

func (e *ThinEngine) SetFloat4(u *Uniform, x, y, z, w float32) bool {
	if u == nil {
		return false
	}
	e.driver.Uniform4f(u.location, x, y, z, w)
	return true
}

func (e *ThinEngine) SetIntArray(u *Uniform, values []int32) bool {
	if u == nil {
		return false
	}
	e.driver.Uniform1iv(u.location, values)
	return true
}

func (e *ThinEngine) SetFloatArray(u *Uniform, values []float32) bool {
	if u == nil {
		return false
	}
	e.driver.Uniform1fv(u.location, values)
	return true
}

func (e *ThinEngine) SetFloatArray4(u *Uniform, values []float32) bool {
	if u == nil || len(values)%4 != 0 {
		return false
	}
	e.driver.Uniform4fv(u.location, values)
	return true
}

// SetMatrices uploads one or more 4x4 matrices stored row-major for row
// vectors, which is the column-major layout GL expects.
func (e *ThinEngine) SetMatrices(u *Uniform, values []float32) bool {
	if u == nil {
		return false
	}
	e.driver.UniformMatrix4fv(u.location, values)
	return true
}

func (e *ThinEngine) SetMatrix3x3(u *Uniform, values []float32) bool {
	if u == nil {
		return false
	}
	e.driver.UniformMatrix3fv(u.location, values)
	return true
}

func (e *ThinEngine) SetMatrix2x2(u *Uniform, values []float32) bool {
	if u == nil {
		return false
	}
	e.driver.UniformMatrix2fv(u.location, values)
	return true
}
