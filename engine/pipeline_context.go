package engine

import (
	"render-core/math"
)

// Uniform is a resolved uniform location inside one program. currentState
// remembers the texture unit a sampler uniform points at.
type Uniform struct {
	location     int32
	currentState int
}

func newUniform(location int32) *Uniform {
	return &Uniform{location: location, currentState: -1}
}

func (u *Uniform) Location() int32 { return u.location }

// PipelineContext holds one linked (or linking) program and its uniform
// value cache.
type PipelineContext struct {
	engine             *ThinEngine
	program            uint32
	vertexShader       uint32
	fragmentShader     uint32
	isParallelCompiled bool
	onCompiled         func()
	finalized          bool

	vertexSourceCode   string
	fragmentSourceCode string

	VertexCompilationError   string
	FragmentCompilationError string
	ProgramLinkError         string
	ProgramValidationError   string

	uniforms    map[string]*Uniform
	valueCache  map[string][]float32
	intCache    map[string]int32
	matrixCache map[string]math.Mat4
}

func (pc *PipelineContext) Engine() *ThinEngine { return pc.engine }
func (pc *PipelineContext) Program() uint32     { return pc.program }

// IsAsync reports whether readiness has to be polled.
func (pc *PipelineContext) IsAsync() bool { return pc.isParallelCompiled }

func (pc *PipelineContext) VertexSourceCode() string   { return pc.vertexSourceCode }
func (pc *PipelineContext) FragmentSourceCode() string { return pc.fragmentSourceCode }

// IsReady reports whether the program is linked and finalized. For parallel
// compilation it polls the driver and finalizes on completion, which may fail.
func (pc *PipelineContext) IsReady() (bool, error) {
	if pc.program == 0 {
		return false, nil
	}
	if pc.isParallelCompiled {
		return pc.engine.IsRenderingStateCompiled(pc)
	}
	return true, nil
}

// FillEffectInformation resolves uniforms and attributes after linking.
// Samplers without a live uniform are pruned; the returned map gives each
// remaining sampler its texture unit.
func (pc *PipelineContext) FillEffectInformation(uniformNames, samplerNames, attributeNames []string) (samplers []string, samplerUnits map[string]int, attributes []int32) {
	locations := pc.engine.GetUniforms(pc, uniformNames)
	pc.uniforms = make(map[string]*Uniform, len(uniformNames))
	for i, name := range uniformNames {
		if locations[i] >= 0 {
			pc.uniforms[name] = newUniform(locations[i])
		}
	}

	samplerUnits = make(map[string]int)
	for _, name := range samplerNames {
		if pc.uniforms[name] == nil {
			continue
		}
		samplerUnits[name] = len(samplers)
		samplers = append(samplers, name)
	}

	attributes = pc.engine.GetAttributes(pc, attributeNames)
	return samplers, samplerUnits, attributes
}

// Uniform returns the resolved uniform or nil when the program does not use it.
func (pc *PipelineContext) Uniform(name string) *Uniform {
	return pc.uniforms[name]
}

func (pc *PipelineContext) resetCaches() {
	pc.valueCache = make(map[string][]float32)
	pc.intCache = make(map[string]int32)
	pc.matrixCache = make(map[string]math.Mat4)
}

func (pc *PipelineContext) cacheFloats(name string, values ...float32) bool {
	if pc.valueCache == nil {
		pc.resetCaches()
	}
	cache, ok := pc.valueCache[name]
	if !ok || len(cache) != len(values) {
		pc.valueCache[name] = append([]float32(nil), values...)
		return true
	}
	changed := false
	for i, v := range values {
		if cache[i] != v {
			cache[i] = v
			changed = true
		}
	}
	return changed
}

func (pc *PipelineContext) SetInt(name string, v int32) {
	if pc.intCache == nil {
		pc.resetCaches()
	}
	if cached, ok := pc.intCache[name]; ok && cached == v {
		return
	}
	if pc.engine.SetInt(pc.uniforms[name], v) {
		pc.intCache[name] = v
	}
}

func (pc *PipelineContext) SetFloat(name string, v float32) {
	if pc.cacheFloats(name, v) && !pc.engine.SetFloat(pc.uniforms[name], v) {
		delete(pc.valueCache, name)
	}
}

func (pc *PipelineContext) SetFloat2(name string, x, y float32) {
	if pc.cacheFloats(name, x, y) && !pc.engine.SetFloat2(pc.uniforms[name], x, y) {
		delete(pc.valueCache, name)
	}
}

func (pc *PipelineContext) SetFloat3(name string, x, y, z float32) {
	if pc.cacheFloats(name, x, y, z) && !pc.engine.SetFloat3(pc.uniforms[name], x, y, z) {
		delete(pc.valueCache, name)
	}
}

func (pc *PipelineContext) SetFloat4(name string, x, y, z, w float32) {
	if pc.cacheFloats(name, x, y, z, w) && !pc.engine.SetFloat4(pc.uniforms[name], x, y, z, w) {
		delete(pc.valueCache, name)
	}
}

func (pc *PipelineContext) SetMatrix(name string, m math.Mat4) {
	if pc.matrixCache == nil {
		pc.resetCaches()
	}
	if cached, ok := pc.matrixCache[name]; ok && cached == m {
		return
	}
	if pc.engine.SetMatrices(pc.uniforms[name], m.Slice()) {
		pc.matrixCache[name] = m
	}
}

// SetFloatArray pushes an uncached float array (vec1).
func (pc *PipelineContext) SetFloatArray(name string, values []float32) {
	pc.engine.SetFloatArray(pc.uniforms[name], values)
}

func (pc *PipelineContext) SetFloatArray4(name string, values []float32) {
	pc.engine.SetFloatArray4(pc.uniforms[name], values)
}

func (pc *PipelineContext) SetMatrices(name string, values []float32) {
	pc.engine.SetMatrices(pc.uniforms[name], values)
}
