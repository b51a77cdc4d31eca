package engine

// Buffer owns CPU float data and the GPU DataBuffer created from it. GPU
// creation may be postponed until a consumer calls Create.
type Buffer struct {
	engine     *ThinEngine
	buffer     *DataBuffer
	data       []float32
	updatable  bool
	instanced  bool
	divisor    int
	byteStride int
	owned      bool
	disposed   bool
}

// NewBuffer wraps data. stride is in floats.
func NewBuffer(engine *ThinEngine, data []float32, updatable bool, stride int, postponeInternalCreation, instanced bool) *Buffer {
	b := &Buffer{
		engine:     engine,
		data:       data,
		updatable:  updatable,
		instanced:  instanced,
		divisor:    1,
		byteStride: stride * 4,
	}
	if !postponeInternalCreation {
		b.Create(nil)
	}
	return b
}

// NewBufferFromDataBuffer wraps an existing GPU buffer without CPU data.
func NewBufferFromDataBuffer(engine *ThinEngine, buffer *DataBuffer, updatable bool, stride int) *Buffer {
	return &Buffer{engine: engine, buffer: buffer, updatable: updatable, divisor: 1, byteStride: stride * 4}
}

// CreateVertexBuffer builds a view over this buffer for an interleaved kind.
// offset and stride are in floats; a zero stride uses the buffer's stride.
func (b *Buffer) CreateVertexBuffer(kind string, offset, size, stride int) *VertexBuffer {
	byteStride := b.byteStride
	if stride > 0 {
		byteStride = stride * 4
	}
	return newVertexBufferView(b, kind, offset*4, size, byteStride)
}

func (b *Buffer) IsUpdatable() bool       { return b.updatable }
func (b *Buffer) Data() []float32         { return b.data }
func (b *Buffer) DataBuffer() *DataBuffer { return b.buffer }
func (b *Buffer) ByteStride() int         { return b.byteStride }
func (b *Buffer) StrideSize() int         { return b.byteStride / 4 }
func (b *Buffer) IsDisposed() bool        { return b.disposed }

// Create uploads data (or the stored data) to the GPU. An updatable buffer
// that already exists is updated in place.
func (b *Buffer) Create(data []float32) {
	if data == nil && b.buffer != nil {
		return
	}
	if data == nil {
		data = b.data
	}
	if data == nil || b.engine == nil {
		return
	}

	if b.buffer == nil {
		if b.updatable {
			b.buffer = b.engine.CreateDynamicVertexBuffer(data)
			b.data = data
		} else {
			b.buffer = b.engine.CreateVertexBuffer(data)
		}
	} else if b.updatable {
		b.engine.UpdateDynamicVertexBuffer(b.buffer, data, 0)
		b.data = data
	}
}

func (b *Buffer) Update(data []float32) {
	b.Create(data)
}

// UpdateDirectly writes data into an updatable GPU buffer at a float offset.
func (b *Buffer) UpdateDirectly(data []float32, offset int) {
	if b.buffer == nil || !b.updatable {
		return
	}
	b.engine.UpdateDynamicVertexBuffer(b.buffer, data, offset*4)
	if offset == 0 {
		b.data = data
	} else {
		b.data = nil
	}
}

// Rebuild recreates the GPU buffer after a context restore.
func (b *Buffer) Rebuild() {
	b.buffer = nil
	b.Create(b.data)
}

// increaseReferences is called for every additional owner after the first.
func (b *Buffer) increaseReferences() {
	if b.buffer == nil {
		return
	}
	if !b.owned {
		b.owned = true
		return
	}
	b.buffer.references++
}

// Dispose releases one reference on the GPU buffer and frees CPU data once it
// reaches zero.
func (b *Buffer) Dispose() {
	if b.buffer == nil {
		return
	}
	if b.engine.ReleaseBuffer(b.buffer) {
		b.disposed = true
		b.data = nil
		b.buffer = nil
	}
}
