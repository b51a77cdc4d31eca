// Package enginetest provides an in-memory engine.Driver that records calls.
package enginetest

import (
	"strings"

	"render-core/engine"
)

type Shader struct {
	Type     uint32
	Source   string
	Compiled bool
	Log      string
}

type Program struct {
	Shaders    []uint32
	Linked     bool
	LinkCalled bool
	Polls      int
	Log        string
	uniforms   map[string]int32
	attributes map[string]int32
}

type BufferRecord struct {
	Target uint32
	Usage  uint32
	Floats []float32
	Uint16 []uint16
	Uint32 []uint32
	Size   int
}

// Driver is a fake engine.Driver. Every method increments Calls[name].
type Driver struct {
	Calls map[string]int

	// CompileError returns a non-empty info log to make a shader fail.
	CompileError func(typ uint32, source string) string
	// LinkPolls is how many ProgramCompletionStatus calls return false before
	// a program reports completion.
	LinkPolls int
	// MissingUniforms and MissingAttributes resolve to -1.
	MissingUniforms   map[string]bool
	MissingAttributes map[string]bool
	MaxVertexAttribs  int32
	MaxTextureUnits   int32
	ValidationFails   bool
	ErrorCode         uint32

	Shaders  map[uint32]*Shader
	Programs map[uint32]*Program
	Buffers  map[uint32]*BufferRecord
	Textures map[uint32]bool
	VAOs     map[uint32]bool

	BoundBuffers   map[uint32]uint32
	BoundVAO       uint32
	CurrentProgram uint32
	ActiveUnit     uint32
	BoundTextures  map[uint32]uint32
	Enabled        map[uint32]bool
	AttribEnabled  map[uint32]bool
	AttribPointers map[uint32][2]int32
	UniformValues  map[int32][]float32
	UniformInts    map[int32]int32
	DepthMaskValue bool
	DepthFuncValue uint32
	ColorMaskValue [4]bool
	ViewportValue  [4]int32
	CompiledSource []string
	DrawModes      []uint32
	LastIndexType  uint32

	nextHandle   uint32
	nextLocation int32
}

func NewDriver() *Driver {
	return &Driver{
		Calls:             make(map[string]int),
		MissingUniforms:   make(map[string]bool),
		MissingAttributes: make(map[string]bool),
		MaxVertexAttribs:  16,
		MaxTextureUnits:   16,
		Shaders:           make(map[uint32]*Shader),
		Programs:          make(map[uint32]*Program),
		Buffers:           make(map[uint32]*BufferRecord),
		Textures:          make(map[uint32]bool),
		VAOs:              make(map[uint32]bool),
		BoundBuffers:      make(map[uint32]uint32),
		BoundTextures:     make(map[uint32]uint32),
		Enabled:           make(map[uint32]bool),
		AttribEnabled:     make(map[uint32]bool),
		AttribPointers:    make(map[uint32][2]int32),
		UniformValues:     make(map[int32][]float32),
		UniformInts:       make(map[int32]int32),
		DepthMaskValue:    true,
	}
}

// FailShadersContaining makes every shader whose source contains marker fail
// to compile with an error on line 1.
func (d *Driver) FailShadersContaining(marker string) {
	d.CompileError = func(typ uint32, source string) string {
		if strings.Contains(source, marker) {
			return "ERROR: 0:1: '" + marker + "' : syntax error"
		}
		return ""
	}
}

// ResetCalls zeroes the call counters.
func (d *Driver) ResetCalls() {
	d.Calls = make(map[string]int)
}

func (d *Driver) handle() uint32 {
	d.nextHandle++
	return d.nextHandle
}

func (d *Driver) call(name string) {
	d.Calls[name]++
}

func (d *Driver) Version() string { return "fake 4.1" }

func (d *Driver) GetError() uint32 {
	d.call("GetError")
	code := d.ErrorCode
	d.ErrorCode = engine.GL_NO_ERROR
	return code
}

func (d *Driver) GetInteger(pname uint32) int32 {
	d.call("GetInteger")
	switch pname {
	case engine.GL_MAX_VERTEX_ATTRIBS:
		return d.MaxVertexAttribs
	case engine.GL_MAX_TEXTURE_IMAGE_UNITS:
		return d.MaxTextureUnits
	}
	return 0
}

// ── Buffers ─────────────────────────────────────────────────────────────────

func (d *Driver) CreateBuffer() uint32 {
	d.call("CreateBuffer")
	h := d.handle()
	d.Buffers[h] = &BufferRecord{}
	return h
}

func (d *Driver) DeleteBuffer(buffer uint32) {
	d.call("DeleteBuffer")
	delete(d.Buffers, buffer)
}

func (d *Driver) BindBuffer(target, buffer uint32) {
	d.call("BindBuffer")
	d.BoundBuffers[target] = buffer
}

func (d *Driver) bound(target uint32) *BufferRecord {
	if rec, ok := d.Buffers[d.BoundBuffers[target]]; ok {
		rec.Target = target
		return rec
	}
	return &BufferRecord{}
}

func (d *Driver) BufferDataFloat32(target uint32, data []float32, usage uint32) {
	d.call("BufferData")
	rec := d.bound(target)
	rec.Floats = append([]float32(nil), data...)
	rec.Usage = usage
	rec.Size = len(data) * 4
}

func (d *Driver) BufferDataUint16(target uint32, data []uint16, usage uint32) {
	d.call("BufferData")
	rec := d.bound(target)
	rec.Uint16 = append([]uint16(nil), data...)
	rec.Usage = usage
	rec.Size = len(data) * 2
}

func (d *Driver) BufferDataUint32(target uint32, data []uint32, usage uint32) {
	d.call("BufferData")
	rec := d.bound(target)
	rec.Uint32 = append([]uint32(nil), data...)
	rec.Usage = usage
	rec.Size = len(data) * 4
}

func (d *Driver) BufferDataSize(target uint32, byteSize int, usage uint32) {
	d.call("BufferData")
	rec := d.bound(target)
	rec.Usage = usage
	rec.Size = byteSize
}

func (d *Driver) BufferSubDataFloat32(target uint32, byteOffset int, data []float32) {
	d.call("BufferSubData")
	rec := d.bound(target)
	start := byteOffset / 4
	if need := start + len(data); need > len(rec.Floats) {
		rec.Floats = append(rec.Floats, make([]float32, need-len(rec.Floats))...)
	}
	copy(rec.Floats[start:], data)
}

func (d *Driver) BufferSubDataUint16(target uint32, byteOffset int, data []uint16) {
	d.call("BufferSubData")
	rec := d.bound(target)
	start := byteOffset / 2
	if need := start + len(data); need > len(rec.Uint16) {
		rec.Uint16 = append(rec.Uint16, make([]uint16, need-len(rec.Uint16))...)
	}
	copy(rec.Uint16[start:], data)
}

func (d *Driver) BufferSubDataUint32(target uint32, byteOffset int, data []uint32) {
	d.call("BufferSubData")
	rec := d.bound(target)
	start := byteOffset / 4
	if need := start + len(data); need > len(rec.Uint32) {
		rec.Uint32 = append(rec.Uint32, make([]uint32, need-len(rec.Uint32))...)
	}
	copy(rec.Uint32[start:], data)
}

// ── Vertex arrays ───────────────────────────────────────────────────────────

func (d *Driver) CreateVertexArray() uint32 {
	d.call("CreateVertexArray")
	h := d.handle()
	d.VAOs[h] = true
	return h
}

func (d *Driver) BindVertexArray(vao uint32) {
	d.call("BindVertexArray")
	d.BoundVAO = vao
}

func (d *Driver) DeleteVertexArray(vao uint32) {
	d.call("DeleteVertexArray")
	delete(d.VAOs, vao)
}

func (d *Driver) EnableVertexAttribArray(index uint32) {
	d.call("EnableVertexAttribArray")
	d.AttribEnabled[index] = true
}

func (d *Driver) DisableVertexAttribArray(index uint32) {
	d.call("DisableVertexAttribArray")
	d.AttribEnabled[index] = false
}

func (d *Driver) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride, offset int32) {
	d.call("VertexAttribPointer")
	d.AttribPointers[index] = [2]int32{size, offset}
}

func (d *Driver) VertexAttribIPointer(index uint32, size int32, typ uint32, stride, offset int32) {
	d.call("VertexAttribIPointer")
	d.AttribPointers[index] = [2]int32{size, offset}
}

func (d *Driver) VertexAttribDivisor(index, divisor uint32) {
	d.call("VertexAttribDivisor")
}

// ── Shaders and programs ────────────────────────────────────────────────────

func (d *Driver) CreateShader(typ uint32) uint32 {
	d.call("CreateShader")
	h := d.handle()
	d.Shaders[h] = &Shader{Type: typ}
	return h
}

func (d *Driver) ShaderSource(shader uint32, source string) {
	d.call("ShaderSource")
	if s, ok := d.Shaders[shader]; ok {
		s.Source = source
	}
}

func (d *Driver) CompileShader(shader uint32) {
	d.call("CompileShader")
	s, ok := d.Shaders[shader]
	if !ok {
		return
	}
	d.CompiledSource = append(d.CompiledSource, s.Source)
	s.Compiled = true
	if d.CompileError != nil {
		if log := d.CompileError(s.Type, s.Source); log != "" {
			s.Compiled = false
			s.Log = log
		}
	}
}

func (d *Driver) GetShaderCompileStatus(shader uint32) bool {
	d.call("GetShaderCompileStatus")
	s, ok := d.Shaders[shader]
	return ok && s.Compiled
}

func (d *Driver) GetShaderInfoLog(shader uint32) string {
	d.call("GetShaderInfoLog")
	if s, ok := d.Shaders[shader]; ok {
		return s.Log
	}
	return ""
}

func (d *Driver) DeleteShader(shader uint32) {
	d.call("DeleteShader")
	delete(d.Shaders, shader)
}

func (d *Driver) CreateProgram() uint32 {
	d.call("CreateProgram")
	h := d.handle()
	d.Programs[h] = &Program{uniforms: make(map[string]int32), attributes: make(map[string]int32)}
	return h
}

func (d *Driver) AttachShader(program, shader uint32) {
	d.call("AttachShader")
	if p, ok := d.Programs[program]; ok {
		p.Shaders = append(p.Shaders, shader)
	}
}

func (d *Driver) LinkProgram(program uint32) {
	d.call("LinkProgram")
	p, ok := d.Programs[program]
	if !ok {
		return
	}
	p.LinkCalled = true
	p.Linked = true
	for _, sh := range p.Shaders {
		if s, ok := d.Shaders[sh]; !ok || !s.Compiled {
			p.Linked = false
			p.Log = "link failed: shader not compiled"
		}
	}
}

func (d *Driver) GetProgramLinkStatus(program uint32) bool {
	d.call("GetProgramLinkStatus")
	p, ok := d.Programs[program]
	return ok && p.Linked
}

func (d *Driver) ProgramCompletionStatus(program uint32) bool {
	d.call("ProgramCompletionStatus")
	p, ok := d.Programs[program]
	if !ok {
		return false
	}
	p.Polls++
	return p.Polls > d.LinkPolls
}

func (d *Driver) ValidateProgram(program uint32) bool {
	d.call("ValidateProgram")
	if d.ValidationFails {
		if p, ok := d.Programs[program]; ok {
			p.Log = "validation failed"
		}
		return false
	}
	return true
}

func (d *Driver) GetProgramInfoLog(program uint32) string {
	d.call("GetProgramInfoLog")
	if p, ok := d.Programs[program]; ok {
		return p.Log
	}
	return ""
}

func (d *Driver) DeleteProgram(program uint32) {
	d.call("DeleteProgram")
	delete(d.Programs, program)
}

func (d *Driver) UseProgram(program uint32) {
	d.call("UseProgram")
	d.CurrentProgram = program
}

func (d *Driver) GetUniformLocation(program uint32, name string) int32 {
	d.call("GetUniformLocation")
	p, ok := d.Programs[program]
	if !ok || d.MissingUniforms[name] {
		return -1
	}
	if loc, ok := p.uniforms[name]; ok {
		return loc
	}
	loc := d.nextLocation
	d.nextLocation++
	p.uniforms[name] = loc
	return loc
}

func (d *Driver) GetAttribLocation(program uint32, name string) int32 {
	d.call("GetAttribLocation")
	p, ok := d.Programs[program]
	if !ok || d.MissingAttributes[name] {
		return -1
	}
	if loc, ok := p.attributes[name]; ok {
		return loc
	}
	loc := int32(len(p.attributes))
	p.attributes[name] = loc
	return loc
}

func (d *Driver) Uniform1i(location, v int32) {
	d.call("Uniform1i")
	d.UniformInts[location] = v
}

func (d *Driver) uniform(name string, location int32, values ...float32) {
	d.call(name)
	d.UniformValues[location] = append([]float32(nil), values...)
}

func (d *Driver) Uniform1f(location int32, v float32)    { d.uniform("Uniform1f", location, v) }
func (d *Driver) Uniform2f(location int32, x, y float32) { d.uniform("Uniform2f", location, x, y) }
func (d *Driver) Uniform3f(location int32, x, y, z float32) {
	d.uniform("Uniform3f", location, x, y, z)
}
func (d *Driver) Uniform4f(location int32, x, y, z, w float32) {
	d.uniform("Uniform4f", location, x, y, z, w)
}

func (d *Driver) Uniform1iv(location int32, values []int32) {
	d.call("Uniform1iv")
}

func (d *Driver) Uniform1fv(location int32, values []float32) {
	d.uniform("Uniform1fv", location, values...)
}

func (d *Driver) Uniform2fv(location int32, values []float32) {
	d.uniform("Uniform2fv", location, values...)
}

func (d *Driver) Uniform3fv(location int32, values []float32) {
	d.uniform("Uniform3fv", location, values...)
}

func (d *Driver) Uniform4fv(location int32, values []float32) {
	d.uniform("Uniform4fv", location, values...)
}

func (d *Driver) UniformMatrix2fv(location int32, values []float32) {
	d.uniform("UniformMatrix2fv", location, values...)
}

func (d *Driver) UniformMatrix3fv(location int32, values []float32) {
	d.uniform("UniformMatrix3fv", location, values...)
}

func (d *Driver) UniformMatrix4fv(location int32, values []float32) {
	d.uniform("UniformMatrix4fv", location, values...)
}

// ── Textures ────────────────────────────────────────────────────────────────

func (d *Driver) CreateTexture() uint32 {
	d.call("CreateTexture")
	h := d.handle()
	d.Textures[h] = true
	return h
}

func (d *Driver) DeleteTexture(texture uint32) {
	d.call("DeleteTexture")
	delete(d.Textures, texture)
}

func (d *Driver) ActiveTexture(unit uint32) {
	d.call("ActiveTexture")
	d.ActiveUnit = unit - engine.GL_TEXTURE0
}

func (d *Driver) BindTexture(target, texture uint32) {
	d.call("BindTexture")
	d.BoundTextures[d.ActiveUnit] = texture
}

func (d *Driver) TexImage2D(target uint32, level int32, internalFormat uint32, width, height int32, format, typ uint32, pixels []byte) {
	d.call("TexImage2D")
}

func (d *Driver) TexParameteri(target, pname uint32, param int32) { d.call("TexParameteri") }
func (d *Driver) GenerateMipmap(target uint32)                    { d.call("GenerateMipmap") }
func (d *Driver) PixelStorei(pname uint32, param int32)           { d.call("PixelStorei") }

// ── Fixed-function state ────────────────────────────────────────────────────

func (d *Driver) Enable(capability uint32) {
	d.call("Enable")
	d.Enabled[capability] = true
}

func (d *Driver) Disable(capability uint32) {
	d.call("Disable")
	d.Enabled[capability] = false
}

func (d *Driver) DepthMask(flag bool) {
	d.call("DepthMask")
	d.DepthMaskValue = flag
}

func (d *Driver) DepthFunc(fn uint32) {
	d.call("DepthFunc")
	d.DepthFuncValue = fn
}

func (d *Driver) CullFace(mode uint32)                { d.call("CullFace") }
func (d *Driver) FrontFace(mode uint32)               { d.call("FrontFace") }
func (d *Driver) PolygonOffset(factor, units float32) { d.call("PolygonOffset") }

func (d *Driver) ColorMask(r, g, b, a bool) {
	d.call("ColorMask")
	d.ColorMaskValue = [4]bool{r, g, b, a}
}

func (d *Driver) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	d.call("BlendFuncSeparate")
}
func (d *Driver) BlendEquationSeparate(modeRGB, modeAlpha uint32) { d.call("BlendEquationSeparate") }
func (d *Driver) BlendColor(r, g, b, a float32)                   { d.call("BlendColor") }
func (d *Driver) StencilFunc(fn uint32, ref int32, mask uint32)   { d.call("StencilFunc") }
func (d *Driver) StencilOp(fail, zfail, zpass uint32)             { d.call("StencilOp") }
func (d *Driver) StencilMask(mask uint32)                         { d.call("StencilMask") }

func (d *Driver) Viewport(x, y, width, height int32) {
	d.call("Viewport")
	d.ViewportValue = [4]int32{x, y, width, height}
}

func (d *Driver) ClearColor(r, g, b, a float32) { d.call("ClearColor") }
func (d *Driver) ClearDepth(depth float64)      { d.call("ClearDepth") }
func (d *Driver) ClearStencil(s int32)          { d.call("ClearStencil") }
func (d *Driver) Clear(mask uint32)             { d.call("Clear") }

// ── Draws ───────────────────────────────────────────────────────────────────

func (d *Driver) DrawElements(mode uint32, count int32, typ uint32, byteOffset int) {
	d.call("DrawElements")
	d.DrawModes = append(d.DrawModes, mode)
	d.LastIndexType = typ
}

func (d *Driver) DrawElementsInstanced(mode uint32, count int32, typ uint32, byteOffset int, instances int32) {
	d.call("DrawElementsInstanced")
	d.DrawModes = append(d.DrawModes, mode)
	d.LastIndexType = typ
}

func (d *Driver) DrawArrays(mode uint32, first, count int32) {
	d.call("DrawArrays")
	d.DrawModes = append(d.DrawModes, mode)
}

func (d *Driver) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	d.call("DrawArraysInstanced")
	d.DrawModes = append(d.DrawModes, mode)
}

var _ engine.Driver = (*Driver)(nil)
