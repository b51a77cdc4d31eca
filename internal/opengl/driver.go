// Package opengl implements engine.Driver on top of OpenGL 4.1 core.
package opengl

import (
	"fmt"
	"strings"
	"unsafe"

	gl "github.com/go-gl/gl/v4.1-core/gl"
)

// Driver forwards engine calls to the current OpenGL context. It holds no
// state of its own; every call must be made from the goroutine that owns the
// context.
type Driver struct {
	version string
}

// NewDriver loads the OpenGL entry points.
// Must be called after the GLFW window context is made current.
func NewDriver() (*Driver, error) {
	if err := gl.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize OpenGL: %w", err)
	}
	return &Driver{version: gl.GoStr(gl.GetString(gl.VERSION))}, nil
}

func (d *Driver) Version() string  { return d.version }
func (d *Driver) GetError() uint32 { return gl.GetError() }

func (d *Driver) GetInteger(pname uint32) int32 {
	var v int32
	gl.GetIntegerv(pname, &v)
	return v
}

// ── Buffers ───────────────────────────────────────────────────────────────────

func (d *Driver) CreateBuffer() uint32 {
	var id uint32
	gl.GenBuffers(1, &id)
	return id
}

func (d *Driver) DeleteBuffer(buffer uint32) { gl.DeleteBuffers(1, &buffer) }

func (d *Driver) BindBuffer(target, buffer uint32) { gl.BindBuffer(target, buffer) }

func (d *Driver) BufferDataFloat32(target uint32, data []float32, usage uint32) {
	gl.BufferData(target, len(data)*4, ptr(data), usage)
}

func (d *Driver) BufferDataUint16(target uint32, data []uint16, usage uint32) {
	gl.BufferData(target, len(data)*2, ptr(data), usage)
}

func (d *Driver) BufferDataUint32(target uint32, data []uint32, usage uint32) {
	gl.BufferData(target, len(data)*4, ptr(data), usage)
}

// BufferDataSize allocates byteSize bytes without uploading anything.
func (d *Driver) BufferDataSize(target uint32, byteSize int, usage uint32) {
	gl.BufferData(target, byteSize, nil, usage)
}

func (d *Driver) BufferSubDataFloat32(target uint32, byteOffset int, data []float32) {
	if len(data) == 0 {
		return
	}
	gl.BufferSubData(target, byteOffset, len(data)*4, gl.Ptr(data))
}

func (d *Driver) BufferSubDataUint16(target uint32, byteOffset int, data []uint16) {
	if len(data) == 0 {
		return
	}
	gl.BufferSubData(target, byteOffset, len(data)*2, gl.Ptr(data))
}

func (d *Driver) BufferSubDataUint32(target uint32, byteOffset int, data []uint32) {
	if len(data) == 0 {
		return
	}
	gl.BufferSubData(target, byteOffset, len(data)*4, gl.Ptr(data))
}

// ── Vertex arrays ─────────────────────────────────────────────────────────────

func (d *Driver) CreateVertexArray() uint32 {
	var id uint32
	gl.GenVertexArrays(1, &id)
	return id
}

func (d *Driver) BindVertexArray(vao uint32)   { gl.BindVertexArray(vao) }
func (d *Driver) DeleteVertexArray(vao uint32) { gl.DeleteVertexArrays(1, &vao) }

func (d *Driver) EnableVertexAttribArray(index uint32)  { gl.EnableVertexAttribArray(index) }
func (d *Driver) DisableVertexAttribArray(index uint32) { gl.DisableVertexAttribArray(index) }

func (d *Driver) VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride, offset int32) {
	gl.VertexAttribPointer(index, size, typ, normalized, stride, gl.PtrOffset(int(offset)))
}

func (d *Driver) VertexAttribIPointer(index uint32, size int32, typ uint32, stride, offset int32) {
	gl.VertexAttribIPointer(index, size, typ, stride, gl.PtrOffset(int(offset)))
}

func (d *Driver) VertexAttribDivisor(index, divisor uint32) { gl.VertexAttribDivisor(index, divisor) }

// ── Shaders and programs ──────────────────────────────────────────────────────

func (d *Driver) CreateShader(typ uint32) uint32 { return gl.CreateShader(typ) }

func (d *Driver) ShaderSource(shader uint32, source string) {
	csrc, free := gl.Strs(source + "\x00")
	gl.ShaderSource(shader, 1, csrc, nil)
	free()
}

func (d *Driver) CompileShader(shader uint32) { gl.CompileShader(shader) }

func (d *Driver) GetShaderCompileStatus(shader uint32) bool {
	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	return status != gl.FALSE
}

func (d *Driver) GetShaderInfoLog(shader uint32) string {
	var logLen int32
	gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLen+1))
	gl.GetShaderInfoLog(shader, logLen, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (d *Driver) DeleteShader(shader uint32)          { gl.DeleteShader(shader) }
func (d *Driver) CreateProgram() uint32               { return gl.CreateProgram() }
func (d *Driver) AttachShader(program, shader uint32) { gl.AttachShader(program, shader) }
func (d *Driver) LinkProgram(program uint32)          { gl.LinkProgram(program) }

func (d *Driver) GetProgramLinkStatus(program uint32) bool {
	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	return status != gl.FALSE
}

// ProgramCompletionStatus is always true: links on a 4.1 core context block.
func (d *Driver) ProgramCompletionStatus(program uint32) bool { return true }

func (d *Driver) ValidateProgram(program uint32) bool {
	gl.ValidateProgram(program)
	var status int32
	gl.GetProgramiv(program, gl.VALIDATE_STATUS, &status)
	return status != gl.FALSE
}

func (d *Driver) GetProgramInfoLog(program uint32) string {
	var logLen int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLen)
	if logLen == 0 {
		return ""
	}
	log := strings.Repeat("\x00", int(logLen+1))
	gl.GetProgramInfoLog(program, logLen, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}

func (d *Driver) DeleteProgram(program uint32) { gl.DeleteProgram(program) }
func (d *Driver) UseProgram(program uint32)    { gl.UseProgram(program) }

func (d *Driver) GetUniformLocation(program uint32, name string) int32 {
	return gl.GetUniformLocation(program, gl.Str(name+"\x00"))
}

func (d *Driver) GetAttribLocation(program uint32, name string) int32 {
	return gl.GetAttribLocation(program, gl.Str(name+"\x00"))
}

// ── Uniforms ──────────────────────────────────────────────────────────────────

func (d *Driver) Uniform1i(location, v int32)                  { gl.Uniform1i(location, v) }
func (d *Driver) Uniform1f(location int32, v float32)          { gl.Uniform1f(location, v) }
func (d *Driver) Uniform2f(location int32, x, y float32)       { gl.Uniform2f(location, x, y) }
func (d *Driver) Uniform3f(location int32, x, y, z float32)    { gl.Uniform3f(location, x, y, z) }
func (d *Driver) Uniform4f(location int32, x, y, z, w float32) { gl.Uniform4f(location, x, y, z, w) }

func (d *Driver) Uniform1iv(location int32, values []int32) {
	if len(values) > 0 {
		gl.Uniform1iv(location, int32(len(values)), &values[0])
	}
}

func (d *Driver) Uniform1fv(location int32, values []float32) {
	if len(values) > 0 {
		gl.Uniform1fv(location, int32(len(values)), &values[0])
	}
}

func (d *Driver) Uniform2fv(location int32, values []float32) {
	if len(values) >= 2 {
		gl.Uniform2fv(location, int32(len(values)/2), &values[0])
	}
}

func (d *Driver) Uniform3fv(location int32, values []float32) {
	if len(values) >= 3 {
		gl.Uniform3fv(location, int32(len(values)/3), &values[0])
	}
}

func (d *Driver) Uniform4fv(location int32, values []float32) {
	if len(values) >= 4 {
		gl.Uniform4fv(location, int32(len(values)/4), &values[0])
	}
}

func (d *Driver) UniformMatrix2fv(location int32, values []float32) {
	if len(values) >= 4 {
		gl.UniformMatrix2fv(location, int32(len(values)/4), false, &values[0])
	}
}

func (d *Driver) UniformMatrix3fv(location int32, values []float32) {
	if len(values) >= 9 {
		gl.UniformMatrix3fv(location, int32(len(values)/9), false, &values[0])
	}
}

// UniformMatrix4fv uploads row-vector matrices as stored; GLSL reads them
// column major, which matches the shaders' vector * matrix order.
func (d *Driver) UniformMatrix4fv(location int32, values []float32) {
	if len(values) >= 16 {
		gl.UniformMatrix4fv(location, int32(len(values)/16), false, &values[0])
	}
}

// ── Textures ──────────────────────────────────────────────────────────────────

func (d *Driver) CreateTexture() uint32 {
	var id uint32
	gl.GenTextures(1, &id)
	return id
}

func (d *Driver) DeleteTexture(texture uint32)          { gl.DeleteTextures(1, &texture) }
func (d *Driver) ActiveTexture(unit uint32)             { gl.ActiveTexture(unit) }
func (d *Driver) BindTexture(target, texture uint32)    { gl.BindTexture(target, texture) }
func (d *Driver) GenerateMipmap(target uint32)          { gl.GenerateMipmap(target) }
func (d *Driver) PixelStorei(pname uint32, param int32) { gl.PixelStorei(pname, param) }

func (d *Driver) TexImage2D(target uint32, level int32, internalFormat uint32, width, height int32, format, typ uint32, pixels []byte) {
	gl.TexImage2D(target, level, int32(internalFormat), width, height, 0, format, typ, ptr(pixels))
}

func (d *Driver) TexParameteri(target, pname uint32, param int32) {
	gl.TexParameteri(target, pname, param)
}

// ── Fixed function state ──────────────────────────────────────────────────────

func (d *Driver) Enable(capability uint32)  { gl.Enable(capability) }
func (d *Driver) Disable(capability uint32) { gl.Disable(capability) }
func (d *Driver) DepthMask(flag bool)       { gl.DepthMask(flag) }
func (d *Driver) DepthFunc(fn uint32)       { gl.DepthFunc(fn) }
func (d *Driver) CullFace(mode uint32)      { gl.CullFace(mode) }
func (d *Driver) FrontFace(mode uint32)     { gl.FrontFace(mode) }

func (d *Driver) PolygonOffset(factor, units float32) { gl.PolygonOffset(factor, units) }
func (d *Driver) ColorMask(r, g, b, a bool)           { gl.ColorMask(r, g, b, a) }

func (d *Driver) BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32) {
	gl.BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha)
}

func (d *Driver) BlendEquationSeparate(modeRGB, modeAlpha uint32) {
	gl.BlendEquationSeparate(modeRGB, modeAlpha)
}

func (d *Driver) BlendColor(r, g, b, a float32) { gl.BlendColor(r, g, b, a) }

func (d *Driver) StencilFunc(fn uint32, ref int32, mask uint32) { gl.StencilFunc(fn, ref, mask) }
func (d *Driver) StencilOp(fail, zfail, zpass uint32)           { gl.StencilOp(fail, zfail, zpass) }
func (d *Driver) StencilMask(mask uint32)                       { gl.StencilMask(mask) }

// ── Frame ─────────────────────────────────────────────────────────────────────

func (d *Driver) Viewport(x, y, width, height int32) { gl.Viewport(x, y, width, height) }
func (d *Driver) ClearColor(r, g, b, a float32)      { gl.ClearColor(r, g, b, a) }
func (d *Driver) ClearDepth(depth float64)           { gl.ClearDepth(depth) }
func (d *Driver) ClearStencil(s int32)               { gl.ClearStencil(s) }
func (d *Driver) Clear(mask uint32)                  { gl.Clear(mask) }

func (d *Driver) DrawElements(mode uint32, count int32, typ uint32, byteOffset int) {
	gl.DrawElements(mode, count, typ, gl.PtrOffset(byteOffset))
}

func (d *Driver) DrawElementsInstanced(mode uint32, count int32, typ uint32, byteOffset int, instances int32) {
	gl.DrawElementsInstanced(mode, count, typ, gl.PtrOffset(byteOffset), instances)
}

func (d *Driver) DrawArrays(mode uint32, first, count int32) { gl.DrawArrays(mode, first, count) }

func (d *Driver) DrawArraysInstanced(mode uint32, first, count, instances int32) {
	gl.DrawArraysInstanced(mode, first, count, instances)
}

// ptr is gl.Ptr for possibly empty slices; gl.Ptr panics on those.
func ptr[T any](data []T) unsafe.Pointer {
	if len(data) == 0 {
		return nil
	}
	return gl.Ptr(data)
}
