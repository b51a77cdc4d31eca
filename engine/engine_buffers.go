package engine

import (
	"reflect"
)

// ── Buffer creation ─────────────────────────────────────────────────────────

func (e *ThinEngine) newDataBuffer() *DataBuffer {
	handle := e.driver.CreateBuffer()
	if handle == 0 {
		e.logger.Error("buffer creation failed", "error", ErrBufferCreation)
	}
	b := &DataBuffer{handle: handle, uniqueID: e.bufferCounter}
	e.bufferCounter++
	return b
}

// CreateVertexBuffer uploads static vertex data. The returned buffer has one
// reference.
func (e *ThinEngine) CreateVertexBuffer(data []float32) *DataBuffer {
	return e.createVertexBuffer(data, GL_STATIC_DRAW)
}

// CreateDynamicVertexBuffer uploads vertex data expected to change.
func (e *ThinEngine) CreateDynamicVertexBuffer(data []float32) *DataBuffer {
	return e.createVertexBuffer(data, GL_DYNAMIC_DRAW)
}

func (e *ThinEngine) createVertexBuffer(data []float32, usage uint32) *DataBuffer {
	b := e.newDataBuffer()
	e.BindArrayBuffer(b)
	e.driver.BufferDataFloat32(GL_ARRAY_BUFFER, data, usage)
	e.resetVertexBufferBinding()
	b.references = 1
	b.capacity = len(data) * 4
	return b
}

// UpdateDynamicVertexBuffer writes data at byteOffset.
func (e *ThinEngine) UpdateDynamicVertexBuffer(b *DataBuffer, data []float32, byteOffset int) {
	e.BindArrayBuffer(b)
	if byteOffset == 0 && len(data)*4 > b.capacity {
		e.driver.BufferDataFloat32(GL_ARRAY_BUFFER, data, GL_DYNAMIC_DRAW)
		b.capacity = len(data) * 4
	} else {
		e.driver.BufferSubDataFloat32(GL_ARRAY_BUFFER, byteOffset, data)
	}
	e.resetVertexBufferBinding()
}

// NeedsUint32Indices reports whether indices exceed the 16-bit range. 65535 is
// reserved as the primitive restart index.
func NeedsUint32Indices(indices []uint32) bool {
	for _, index := range indices {
		if index >= 65535 {
			return true
		}
	}
	return false
}

// CreateIndexBuffer uploads indices as 16-bit unless a value needs 32 bits.
func (e *ThinEngine) CreateIndexBuffer(indices []uint32, updatable bool) *DataBuffer {
	b := e.newDataBuffer()
	e.BindIndexBuffer(b)

	usage := GL_STATIC_DRAW
	if updatable {
		usage = GL_DYNAMIC_DRAW
	}
	if NeedsUint32Indices(indices) {
		e.driver.BufferDataUint32(GL_ELEMENT_ARRAY_BUFFER, indices, usage)
		b.is32Bits = true
		b.capacity = len(indices) * 4
	} else {
		e.driver.BufferDataUint16(GL_ELEMENT_ARRAY_BUFFER, toUint16(indices), usage)
		b.capacity = len(indices) * 2
	}

	e.resetIndexBufferBinding()
	b.references = 1
	return b
}

// UpdateDynamicIndexBuffer rewrites an index buffer, keeping its element size.
func (e *ThinEngine) UpdateDynamicIndexBuffer(b *DataBuffer, indices []uint32, byteOffset int) {
	e.BindIndexBuffer(b)
	if b.is32Bits {
		e.driver.BufferSubDataUint32(GL_ELEMENT_ARRAY_BUFFER, byteOffset, indices)
	} else {
		e.driver.BufferSubDataUint16(GL_ELEMENT_ARRAY_BUFFER, byteOffset, toUint16(indices))
	}
	e.resetIndexBufferBinding()
}

func toUint16(indices []uint32) []uint16 {
	out := make([]uint16, len(indices))
	for i, v := range indices {
		out[i] = uint16(v)
	}
	return out
}

// ReleaseBuffer drops one reference and deletes the GPU buffer when the count
// reaches zero. It reports whether the buffer was deleted.
func (e *ThinEngine) ReleaseBuffer(b *DataBuffer) bool {
	b.references--
	if b.references == 0 {
		e.deleteBuffer(b)
		return true
	}
	return false
}

func (e *ThinEngine) deleteBuffer(b *DataBuffer) {
	for target, bound := range e.currentBoundBuffer {
		if bound == b {
			delete(e.currentBoundBuffer, target)
		}
	}
	if e.cachedIndexBuffer == b {
		e.cachedIndexBuffer = nil
	}
	e.driver.DeleteBuffer(b.handle)
	b.handle = 0
}

// ── Binding ─────────────────────────────────────────────────────────────────

func (e *ThinEngine) BindArrayBuffer(b *DataBuffer) {
	if !e.vaoRecordInProgress {
		e.unbindVertexArrayObject()
	}
	e.bindBuffer(b, GL_ARRAY_BUFFER)
}

func (e *ThinEngine) BindIndexBuffer(b *DataBuffer) {
	if !e.vaoRecordInProgress {
		e.unbindVertexArrayObject()
	}
	e.bindBuffer(b, GL_ELEMENT_ARRAY_BUFFER)
}

func (e *ThinEngine) bindBuffer(b *DataBuffer, target uint32) {
	if e.vaoRecordInProgress || e.currentBoundBuffer[target] != b {
		var handle uint32
		if b != nil {
			handle = b.handle
		}
		e.driver.BindBuffer(target, handle)
		e.currentBoundBuffer[target] = b
	}
}

func (e *ThinEngine) resetVertexBufferBinding() {
	e.BindArrayBuffer(nil)
	e.cachedVertexBuffers = nil
}

func (e *ThinEngine) resetIndexBufferBinding() {
	e.BindIndexBuffer(nil)
	e.cachedIndexBuffer = nil
}

func (e *ThinEngine) bindIndexBufferWithCache(b *DataBuffer) {
	if b == nil {
		return
	}
	if e.cachedIndexBuffer != b {
		e.cachedIndexBuffer = b
		e.BindIndexBuffer(b)
		e.uintIndicesCurrentlySet = b.is32Bits
	}
}

func (e *ThinEngine) vertexAttribPointer(b *DataBuffer, index int, size int, typ uint32, normalized bool, stride, offset int) {
	if index < 0 || index >= len(e.currentBufferPointers) {
		return
	}
	pointer := &e.currentBufferPointers[index]

	changed := false
	if !pointer.active {
		changed = true
		*pointer = bufferPointer{active: true, buffer: b, size: size, typ: typ, normalized: normalized, stride: stride, offset: offset}
	} else {
		if pointer.buffer != b {
			pointer.buffer = b
			changed = true
		}
		if pointer.size != size {
			pointer.size = size
			changed = true
		}
		if pointer.typ != typ {
			pointer.typ = typ
			changed = true
		}
		if pointer.normalized != normalized {
			pointer.normalized = normalized
			changed = true
		}
		if pointer.stride != stride {
			pointer.stride = stride
			changed = true
		}
		if pointer.offset != offset {
			pointer.offset = offset
			changed = true
		}
	}

	if changed || e.vaoRecordInProgress {
		e.BindArrayBuffer(b)
		if typ == GL_UNSIGNED_INT || typ == GL_INT {
			e.driver.VertexAttribIPointer(uint32(index), int32(size), typ, int32(stride), int32(offset))
		} else {
			e.driver.VertexAttribPointer(uint32(index), int32(size), typ, normalized, int32(stride), int32(offset))
		}
	}
}

func (e *ThinEngine) bindVertexBuffersAttributes(vertexBuffers VertexBuffers, effect Effect, overrides VertexBuffers) {
	attributes := effect.AttributesNames()

	if !e.vaoRecordInProgress {
		e.unbindVertexArrayObject()
	}
	e.UnbindAllAttributes()

	for index, name := range attributes {
		order := effect.AttributeLocation(index)
		if order < 0 || int(order) >= e.maxVertexAttribs {
			continue
		}
		var vb *VertexBuffer
		if overrides != nil {
			vb = overrides[name]
		}
		if vb == nil {
			vb = vertexBuffers[name]
		}
		if vb == nil {
			continue
		}

		e.driver.EnableVertexAttribArray(uint32(order))
		if !e.vaoRecordInProgress {
			e.vertexAttribArraysEnabled[order] = true
		}

		if b := vb.DataBuffer(); b != nil {
			e.vertexAttribPointer(b, int(order), vb.Size(), vb.Type(), vb.Normalized(), vb.ByteStride(), vb.ByteOffset())
			if vb.IsInstanced() {
				e.driver.VertexAttribDivisor(uint32(order), uint32(vb.InstanceDivisor()))
				if !e.vaoRecordInProgress {
					e.currentInstanceLocations = append(e.currentInstanceLocations, uint32(order))
					e.currentInstanceBuffers = append(e.currentInstanceBuffers, b)
				}
			}
		}
	}
}

func sameVertexBuffers(a, b VertexBuffers) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return reflect.ValueOf(a).UnsafePointer() == reflect.ValueOf(b).UnsafePointer()
}

// BindBuffers binds attributes for effect, skipping the work when the same
// buffer map and effect are already bound, then binds the index buffer.
func (e *ThinEngine) BindBuffers(vertexBuffers VertexBuffers, indexBuffer *DataBuffer, effect Effect, overrides VertexBuffers) {
	if !sameVertexBuffers(e.cachedVertexBuffers, vertexBuffers) || e.cachedEffectForVertexBuffers != effect {
		e.cachedVertexBuffers = vertexBuffers
		e.cachedEffectForVertexBuffers = effect
		e.bindVertexBuffersAttributes(vertexBuffers, effect, overrides)
	}
	e.bindIndexBufferWithCache(indexBuffer)
}

// UnbindInstanceAttributes resets divisors set by instanced vertex buffers.
func (e *ThinEngine) UnbindInstanceAttributes() {
	var bound *DataBuffer
	for i, location := range e.currentInstanceLocations {
		instancesBuffer := e.currentInstanceBuffers[i]
		if bound != instancesBuffer && instancesBuffer.references > 0 {
			bound = instancesBuffer
			e.BindArrayBuffer(instancesBuffer)
		}
		e.driver.VertexAttribDivisor(location, 0)
	}
	e.currentInstanceBuffers = e.currentInstanceBuffers[:0]
	e.currentInstanceLocations = e.currentInstanceLocations[:0]
}

// ── Vertex array objects ────────────────────────────────────────────────────

// RecordVertexArrayObject captures the attribute and index bindings of
// effect into a new VAO.
func (e *ThinEngine) RecordVertexArrayObject(vertexBuffers VertexBuffers, indexBuffer *DataBuffer, effect Effect, overrides VertexBuffers) uint32 {
	vao := e.driver.CreateVertexArray()

	e.vaoRecordInProgress = true
	e.driver.BindVertexArray(vao)

	e.mustWipeVertexAttributes = true
	e.bindVertexBuffersAttributes(vertexBuffers, effect, overrides)
	e.BindIndexBuffer(indexBuffer)

	e.vaoRecordInProgress = false
	e.driver.BindVertexArray(0)
	// The element binding belongs to the recorded VAO, not the default one.
	delete(e.currentBoundBuffer, GL_ELEMENT_ARRAY_BUFFER)
	e.cachedIndexBuffer = nil
	e.mustWipeVertexAttributes = true
	return vao
}

// BindVertexArrayObject binds vao unless already bound. Cached buffer bindings
// are invalidated because the VAO carries its own.
func (e *ThinEngine) BindVertexArrayObject(vao uint32, indexBuffer *DataBuffer) {
	if e.cachedVertexArrayObject != vao {
		e.cachedVertexArrayObject = vao
		e.driver.BindVertexArray(vao)
		e.cachedVertexBuffers = nil
		e.cachedIndexBuffer = nil
		e.uintIndicesCurrentlySet = indexBuffer != nil && indexBuffer.is32Bits
		e.mustWipeVertexAttributes = true
	}
}

func (e *ThinEngine) unbindVertexArrayObject() {
	if e.cachedVertexArrayObject == 0 {
		return
	}
	e.cachedVertexArrayObject = 0
	e.driver.BindVertexArray(0)
}

func (e *ThinEngine) ReleaseVertexArrayObject(vao uint32) {
	if e.cachedVertexArrayObject == vao {
		e.unbindVertexArrayObject()
	}
	e.driver.DeleteVertexArray(vao)
}

// ── Attributes ──────────────────────────────────────────────────────────────

// UnbindAllAttributes disables enabled attribute arrays, or every array up to
// the limit when the enabled set is unknown.
func (e *ThinEngine) UnbindAllAttributes() {
	if e.mustWipeVertexAttributes {
		e.mustWipeVertexAttributes = false
		for i := 0; i < e.maxVertexAttribs; i++ {
			e.DisableAttributeByIndex(i)
		}
		return
	}
	for i, enabled := range e.vertexAttribArraysEnabled {
		if i >= e.maxVertexAttribs || !enabled {
			continue
		}
		e.DisableAttributeByIndex(i)
	}
}

func (e *ThinEngine) DisableAttributeByIndex(index int) {
	e.driver.DisableVertexAttribArray(uint32(index))
	e.vertexAttribArraysEnabled[index] = false
	e.currentBufferPointers[index].active = false
}

// BoundBuffer returns the cached binding for target.
func (e *ThinEngine) BoundBuffer(target uint32) *DataBuffer {
	return e.currentBoundBuffer[target]
}
