package wasm

const (
	// MemoryPageSize is the unit of size of a WebAssembly memory.
	MemoryPageSize = 65536
	// MemoryPageSizeInBits is the bit width of MemoryPageSize.
	MemoryPageSizeInBits = 16
	// MemoryMaxPages is the implementation ceiling, yielding the full 4GiB
	// address range.
	MemoryMaxPages = 65536
	// MemoryGrowFailed is returned by MemoryInstance.Grow when the requested
	// growth exceeds the maximum. As an i32 it reads as -1.
	MemoryGrowFailed = uint32(0xffffffff)
)

// MemoryInstance is the backing storage of one linear memory. The engine
// publishes Buffer's address and length to generated code through a memory
// descriptor, so any operation that reallocates Buffer must be followed by a
// descriptor refresh before native code runs again.
type MemoryInstance struct {
	Buffer []byte
	Min    uint32
	Max    *uint32
}

// NewMemoryInstance allocates the backing storage for a memory declaration
// at its minimum size.
func NewMemoryInstance(mt *MemoryType) *MemoryInstance {
	return &MemoryInstance{
		Buffer: make([]byte, MemoryPagesToBytesNum(mt.Min)),
		Min:    mt.Min,
		Max:    mt.Max,
	}
}

// Size returns the current size in bytes.
func (m *MemoryInstance) Size() uint32 {
	return uint32(len(m.Buffer))
}

// PageSize returns the current size in pages.
func (m *MemoryInstance) PageSize() uint32 {
	return memoryBytesNumToPages(uint64(len(m.Buffer)))
}

// Grow extends the memory buffer by newPages and returns the previous page
// count, or MemoryGrowFailed when the result would exceed the maximum. On
// failure nothing is mutated.
func (m *MemoryInstance) Grow(newPages uint32) uint32 {
	currentPages := m.PageSize()
	maxPages := uint32(MemoryMaxPages)
	if m.Max != nil {
		maxPages = *m.Max
	}
	if uint64(currentPages)+uint64(newPages) > uint64(maxPages) {
		return MemoryGrowFailed
	}
	m.Buffer = append(m.Buffer, make([]byte, MemoryPagesToBytesNum(newPages))...)
	return currentPages
}

// Read returns a view of byteCount bytes at offset, and false when the range
// is out of bounds. The view aliases Buffer; it is invalidated by Grow.
func (m *MemoryInstance) Read(offset, byteCount uint32) ([]byte, bool) {
	if uint64(offset)+uint64(byteCount) > uint64(len(m.Buffer)) {
		return nil, false
	}
	return m.Buffer[offset : offset+byteCount], true
}

// MemoryPagesToBytesNum converts a page count into bytes.
func MemoryPagesToBytesNum(pages uint32) uint64 {
	return uint64(pages) << MemoryPageSizeInBits
}

func memoryBytesNumToPages(bytesNum uint64) uint32 {
	return uint32(bytesNum >> MemoryPageSizeInBits)
}
