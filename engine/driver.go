package engine

// Driver is the GPU API consumed by ThinEngine. Handles are opaque non-zero
// identifiers; zero means "none". Locations are -1 when absent.
//
// Implementations issue every call unconditionally: redundant-state filtering
// is the engine's job.
type Driver interface {
	Version() string
	GetError() uint32
	GetInteger(pname uint32) int32

	CreateBuffer() uint32
	DeleteBuffer(buffer uint32)
	BindBuffer(target, buffer uint32)
	BufferDataFloat32(target uint32, data []float32, usage uint32)
	BufferDataUint16(target uint32, data []uint16, usage uint32)
	BufferDataUint32(target uint32, data []uint32, usage uint32)
	BufferDataSize(target uint32, byteSize int, usage uint32)
	BufferSubDataFloat32(target uint32, byteOffset int, data []float32)
	BufferSubDataUint16(target uint32, byteOffset int, data []uint16)
	BufferSubDataUint32(target uint32, byteOffset int, data []uint32)

	CreateVertexArray() uint32
	BindVertexArray(vao uint32)
	DeleteVertexArray(vao uint32)
	EnableVertexAttribArray(index uint32)
	DisableVertexAttribArray(index uint32)
	VertexAttribPointer(index uint32, size int32, typ uint32, normalized bool, stride, offset int32)
	VertexAttribIPointer(index uint32, size int32, typ uint32, stride, offset int32)
	VertexAttribDivisor(index, divisor uint32)

	CreateShader(typ uint32) uint32
	ShaderSource(shader uint32, source string)
	CompileShader(shader uint32)
	GetShaderCompileStatus(shader uint32) bool
	GetShaderInfoLog(shader uint32) string
	DeleteShader(shader uint32)
	CreateProgram() uint32
	AttachShader(program, shader uint32)
	LinkProgram(program uint32)
	GetProgramLinkStatus(program uint32) bool
	// ProgramCompletionStatus reports whether an asynchronous link finished.
	// Drivers without parallel compilation always return true.
	ProgramCompletionStatus(program uint32) bool
	ValidateProgram(program uint32) bool
	GetProgramInfoLog(program uint32) string
	DeleteProgram(program uint32)
	UseProgram(program uint32)

	GetUniformLocation(program uint32, name string) int32
	GetAttribLocation(program uint32, name string) int32
	Uniform1i(location, v int32)
	Uniform1f(location int32, v float32)
	Uniform2f(location int32, x, y float32)
	Uniform3f(location int32, x, y, z float32)
	Uniform4f(location int32, x, y, z, w float32)
	Uniform1iv(location int32, values []int32)
	Uniform1fv(location int32, values []float32)
	Uniform2fv(location int32, values []float32)
	Uniform3fv(location int32, values []float32)
	Uniform4fv(location int32, values []float32)
	UniformMatrix2fv(location int32, values []float32)
	UniformMatrix3fv(location int32, values []float32)
	UniformMatrix4fv(location int32, values []float32)

	CreateTexture() uint32
	DeleteTexture(texture uint32)
	ActiveTexture(unit uint32)
	BindTexture(target, texture uint32)
	TexImage2D(target uint32, level int32, internalFormat uint32, width, height int32, format, typ uint32, pixels []byte)
	TexParameteri(target, pname uint32, param int32)
	GenerateMipmap(target uint32)
	PixelStorei(pname uint32, param int32)

	Enable(capability uint32)
	Disable(capability uint32)
	DepthMask(flag bool)
	DepthFunc(fn uint32)
	CullFace(mode uint32)
	FrontFace(mode uint32)
	PolygonOffset(factor, units float32)
	ColorMask(r, g, b, a bool)
	BlendFuncSeparate(srcRGB, dstRGB, srcAlpha, dstAlpha uint32)
	BlendEquationSeparate(modeRGB, modeAlpha uint32)
	BlendColor(r, g, b, a float32)
	StencilFunc(fn uint32, ref int32, mask uint32)
	StencilOp(fail, zfail, zpass uint32)
	StencilMask(mask uint32)

	Viewport(x, y, width, height int32)
	ClearColor(r, g, b, a float32)
	ClearDepth(depth float64)
	ClearStencil(s int32)
	Clear(mask uint32)

	DrawElements(mode uint32, count int32, typ uint32, byteOffset int)
	DrawElementsInstanced(mode uint32, count int32, typ uint32, byteOffset int, instances int32)
	DrawArrays(mode uint32, first, count int32)
	DrawArraysInstanced(mode uint32, first, count, instances int32)
}
