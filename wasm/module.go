package wasm

import "fmt"

// Module is the immutable, already-decoded description of one WebAssembly
// module. Imported entity slices are in declaration order; local entity
// slices are in definition order. The flat index spaces concatenate the two,
// imported first.
type Module struct {
	// ImportedFunctions precede Functions in the function index space.
	ImportedFunctions []*ImportedFunction
	// Functions are the module-defined bodies, already lowered to the code
	// generator's IR.
	Functions []*Function

	// ImportedGlobals precede Globals in the global index space.
	ImportedGlobals []*ImportedGlobal
	Globals         []*Global

	ImportedMemories []*ImportedMemory
	Memories         []*MemoryType

	ImportedTables []*ImportedTable
	Tables         []*TableType

	// Exports maps export name to the exported entity. Indexes are into the
	// flat index space of the exported kind.
	Exports map[string]*Export

	// StartFunction is the function invoked by Instance.Start, addressed in
	// the flat function index space. When nil, Start falls back to an export
	// named "main" if one exists.
	StartFunction *Index

	DataSegments    []*DataSegment
	ElementSegments []*ElementSegment
}

// Function is one module-defined function: its signature and its body in the
// code generator's IR. The engine never interprets IR bytes; they are handed
// to the backend and hashed for compiled-code cache keys.
type Function struct {
	Type *FunctionType
	IR   []byte
}

// ImportedFunction declares a function import. Type may be nil when the
// module carries no signature for it; signature checking then depends on
// what the import object provides.
type ImportedFunction struct {
	Module, Field string
	Type          *FunctionType
}

// ImportedGlobal declares a global import.
type ImportedGlobal struct {
	Module, Field string
	Type          ValueType
	Mutable       bool
}

// ImportedMemory declares a memory import with its limits in pages.
type ImportedMemory struct {
	Module, Field string
	Min           uint32
	Max           *uint32
}

// ImportedTable declares a table import with its limits in elements.
type ImportedTable struct {
	Module, Field string
	Min           uint32
	Max           *uint32
}

// MemoryType declares a locally defined memory: limits in pages, nil Max
// meaning the implementation ceiling.
type MemoryType struct {
	Min uint32
	Max *uint32
}

// TableType declares a locally defined table: limits in elements.
type TableType struct {
	Min uint32
	Max *uint32
}

// Export is one entry of the module's export map.
type Export struct {
	Name  string
	Kind  ExternKind
	Index Index
}

// GetExport returns the export with the given name and kind.
func (m *Module) GetExport(name string, kind ExternKind) (*Export, error) {
	exp, ok := m.Exports[name]
	if !ok {
		return nil, fmt.Errorf("%q is not exported", name)
	}
	if exp.Kind != kind {
		return nil, fmt.Errorf("export %q is a %s, not a %s", name, exp.Kind, kind)
	}
	return exp, nil
}

// NumImportedFunctions returns the size of the imported prefix of the
// function index space.
func (m *Module) NumImportedFunctions() uint32 {
	return uint32(len(m.ImportedFunctions))
}

// NumFunctions returns the total size of the function index space.
func (m *Module) NumFunctions() uint32 {
	return uint32(len(m.ImportedFunctions) + len(m.Functions))
}

// TypeOfFunction returns the signature of the function at the flat index i,
// or nil when the index is out of range or the import carries no type.
func (m *Module) TypeOfFunction(i Index) *FunctionType {
	imported := uint32(len(m.ImportedFunctions))
	if i < imported {
		return m.ImportedFunctions[i].Type
	}
	if local := i - imported; local < uint32(len(m.Functions)) {
		return m.Functions[local].Type
	}
	return nil
}
