package wasm

// TableInstance is the backing storage of one table. Contents hold native
// function addresses (8 bytes each), written by element segment application;
// unset entries stay zero. The engine publishes Contents through a table
// descriptor.
type TableInstance struct {
	Contents []uintptr
	Min      uint32
	Max      *uint32
}

// NewTableInstance allocates the backing storage for a table declaration at
// its minimum size.
func NewTableInstance(tt *TableType) *TableInstance {
	return &TableInstance{
		Contents: make([]uintptr, tt.Min),
		Min:      tt.Min,
		Max:      tt.Max,
	}
}
