package engine

// DataBuffer is a GPU buffer handle shared by reference count.
type DataBuffer struct {
	handle     uint32
	references int
	capacity   int
	is32Bits   bool
	uniqueID   int
}

func (b *DataBuffer) Handle() uint32  { return b.handle }
func (b *DataBuffer) References() int { return b.references }
func (b *DataBuffer) Capacity() int   { return b.capacity }
func (b *DataBuffer) Is32Bits() bool  { return b.is32Bits }
func (b *DataBuffer) UniqueID() int   { return b.uniqueID }

// AddReference registers one more owner of the buffer.
func (b *DataBuffer) AddReference() { b.references++ }

// SetReferences overrides the owner count, used when a geometry hands the same
// buffer to several meshes at once.
func (b *DataBuffer) SetReferences(n int) { b.references = n }
