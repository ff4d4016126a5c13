package wasm

// DataSegment initializes a byte range of a memory. Offset is evaluated with
// the global initializer evaluator (const and get-global forms).
type DataSegment struct {
	MemoryIndex Index
	Offset      GlobalInit
	Init        []byte
}

// ElementSegment initializes a range of a table with function addresses
// resolved through the flat function index space.
type ElementSegment struct {
	TableIndex      Index
	Offset          GlobalInit
	FunctionIndexes []Index
}
