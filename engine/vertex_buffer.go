package engine

import "fmt"

// Vertex buffer kinds.
const (
	PositionKind             = "position"
	NormalKind               = "normal"
	TangentKind              = "tangent"
	UVKind                   = "uv"
	UV2Kind                  = "uv2"
	UV3Kind                  = "uv3"
	UV4Kind                  = "uv4"
	UV5Kind                  = "uv5"
	UV6Kind                  = "uv6"
	ColorKind                = "color"
	ColorInstanceKind        = "instanceColor"
	MatricesIndicesKind      = "matricesIndices"
	MatricesWeightsKind      = "matricesWeights"
	MatricesIndicesExtraKind = "matricesIndicesExtra"
	MatricesWeightsExtraKind = "matricesWeightsExtra"
)

// DeduceStride returns the component count of a standard kind, or an error for
// unknown kinds.
func DeduceStride(kind string) (int, error) {
	switch kind {
	case UVKind, UV2Kind, UV3Kind, UV4Kind, UV5Kind, UV6Kind:
		return 2, nil
	case NormalKind, PositionKind:
		return 3, nil
	case ColorKind, ColorInstanceKind, MatricesIndicesKind, MatricesIndicesExtraKind,
		MatricesWeightsKind, MatricesWeightsExtraKind, TangentKind:
		return 4, nil
	default:
		return 0, fmt.Errorf("invalid vertex buffer kind %q", kind)
	}
}

// GetTypeByteLength returns the byte size of a GL component type.
func GetTypeByteLength(typ uint32) (int, error) {
	switch typ {
	case GL_BYTE, GL_UNSIGNED_BYTE:
		return 1, nil
	case GL_SHORT, GL_UNSIGNED_SHORT:
		return 2, nil
	case GL_INT, GL_UNSIGNED_INT, GL_FLOAT:
		return 4, nil
	default:
		return 0, fmt.Errorf("invalid component type %d", typ)
	}
}

var vertexBufferCounter int

// VertexBuffer describes how one attribute kind is read from a Buffer.
type VertexBuffer struct {
	buffer          *Buffer
	ownsBuffer      bool
	kind            string
	size            int
	typ             uint32
	normalized      bool
	byteStride      int
	byteOffset      int
	instanced       bool
	instanceDivisor int
	uniqueID        int
}

type VertexBufferOptions struct {
	Updatable bool
	// Postpone defers GPU creation until Create is called.
	Postpone bool
	// Stride and Offset are in floats. Size defaults to the kind's stride.
	Stride     int
	Offset     int
	Size       int
	Instanced  bool
	Divisor    int
	Normalized bool
}

// NewVertexBuffer creates a vertex buffer owning its own Buffer.
func NewVertexBuffer(engine *ThinEngine, data []float32, kind string, opts VertexBufferOptions) (*VertexBuffer, error) {
	size := opts.Size
	if size == 0 {
		size = opts.Stride
	}
	if size == 0 {
		deduced, err := DeduceStride(kind)
		if err != nil {
			return nil, err
		}
		size = deduced
	}
	stride := opts.Stride
	if stride == 0 {
		stride = size
	}

	divisor := opts.Divisor
	if divisor == 0 {
		divisor = 1
	}
	vb := &VertexBuffer{
		buffer:     NewBuffer(engine, data, opts.Updatable, stride, opts.Postpone, opts.Instanced),
		ownsBuffer: true,
		kind:       kind,
		size:       size,
		typ:        GL_FLOAT,
		normalized: opts.Normalized,
		byteStride: stride * 4,
		byteOffset: opts.Offset * 4,
		instanced:  opts.Instanced,
		uniqueID:   vertexBufferCounter,
	}
	vb.buffer.divisor = divisor
	if opts.Instanced {
		vb.instanceDivisor = divisor
	}
	vertexBufferCounter++
	return vb, nil
}

func newVertexBufferView(buffer *Buffer, kind string, byteOffset, size, byteStride int) *VertexBuffer {
	vb := &VertexBuffer{
		buffer:     buffer,
		kind:       kind,
		size:       size,
		typ:        GL_FLOAT,
		byteStride: byteStride,
		byteOffset: byteOffset,
		instanced:  buffer.instanced,
		uniqueID:   vertexBufferCounter,
	}
	if vb.instanced {
		vb.instanceDivisor = buffer.divisor
	}
	vertexBufferCounter++
	return vb
}

func (vb *VertexBuffer) Kind() string            { return vb.kind }
func (vb *VertexBuffer) IsUpdatable() bool       { return vb.buffer.IsUpdatable() }
func (vb *VertexBuffer) Data() []float32         { return vb.buffer.Data() }
func (vb *VertexBuffer) Buffer() *Buffer         { return vb.buffer }
func (vb *VertexBuffer) DataBuffer() *DataBuffer { return vb.buffer.DataBuffer() }
func (vb *VertexBuffer) Size() int               { return vb.size }
func (vb *VertexBuffer) Type() uint32            { return vb.typ }
func (vb *VertexBuffer) Normalized() bool        { return vb.normalized }
func (vb *VertexBuffer) ByteStride() int         { return vb.byteStride }
func (vb *VertexBuffer) ByteOffset() int         { return vb.byteOffset }
func (vb *VertexBuffer) IsInstanced() bool       { return vb.instanced }
func (vb *VertexBuffer) InstanceDivisor() int    { return vb.instanceDivisor }
func (vb *VertexBuffer) UniqueID() int           { return vb.uniqueID }
func (vb *VertexBuffer) StrideSize() int         { return vb.byteStride / 4 }
func (vb *VertexBuffer) Offset() int             { return vb.byteOffset / 4 }

// SetInstanceDivisor switches the buffer between per-vertex (0) and
// per-instance reads.
func (vb *VertexBuffer) SetInstanceDivisor(divisor int) {
	vb.instanceDivisor = divisor
	vb.instanced = divisor != 0
}

// Create uploads the data to the GPU if not done yet. Passing data replaces
// the contents of an updatable buffer.
func (vb *VertexBuffer) Create(data []float32) {
	vb.buffer.Create(data)
}

// IncreaseReferences marks one more owner of the underlying GPU buffer.
func (vb *VertexBuffer) IncreaseReferences() {
	vb.buffer.increaseReferences()
}

func (vb *VertexBuffer) Update(data []float32) {
	vb.buffer.Update(data)
}

func (vb *VertexBuffer) UpdateDirectly(data []float32, offset int) {
	vb.buffer.UpdateDirectly(data, offset)
}

func (vb *VertexBuffer) Rebuild() {
	vb.buffer.Rebuild()
}

func (vb *VertexBuffer) Dispose() {
	if vb.ownsBuffer {
		vb.buffer.Dispose()
	}
}

// ForEach visits count elements, passing the components of each.
func (vb *VertexBuffer) ForEach(count int, fn func(values []float32, index int)) {
	data := vb.buffer.Data()
	if data == nil {
		return
	}
	stride := vb.StrideSize()
	offset := vb.Offset()
	for i := 0; i < count; i++ {
		start := offset + i*stride
		if start+vb.size > len(data) {
			return
		}
		fn(data[start:start+vb.size], i)
	}
}

// TotalVertices returns the number of complete elements in the CPU data.
func (vb *VertexBuffer) TotalVertices() int {
	data := vb.buffer.Data()
	if data == nil || vb.StrideSize() == 0 {
		return 0
	}
	return len(data) / vb.StrideSize()
}
