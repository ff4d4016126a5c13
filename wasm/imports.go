package wasm

// ImportValue is one caller-supplied import: a tagged union selected by Kind.
type ImportValue struct {
	Kind ExternKind

	// FuncAddr is the native address of an imported function. FuncType is
	// optional; when both the module and the import value declare a type,
	// the linker requires them to match.
	FuncAddr uintptr
	FuncType *FunctionType

	// Global is the 8-byte slot representation of an imported global's value.
	Global uint64

	Memory *MemoryInstance
	Table  *TableInstance
}

// FuncValue builds an untyped function import from a native address.
func FuncValue(addr uintptr) ImportValue {
	return ImportValue{Kind: ExternKindFunction, FuncAddr: addr}
}

// TypedFuncValue builds a function import whose signature the linker checks
// against the module's declaration.
func TypedFuncValue(addr uintptr, t *FunctionType) ImportValue {
	return ImportValue{Kind: ExternKindFunction, FuncAddr: addr, FuncType: t}
}

// GlobalValue builds a global import from an 8-byte slot value.
func GlobalValue(v uint64) ImportValue {
	return ImportValue{Kind: ExternKindGlobal, Global: v}
}

// MemoryValue builds a memory import.
func MemoryValue(m *MemoryInstance) ImportValue {
	return ImportValue{Kind: ExternKindMemory, Memory: m}
}

// TableValue builds a table import.
func TableValue(t *TableInstance) ImportValue {
	return ImportValue{Kind: ExternKindTable, Table: t}
}

type importKey struct {
	module, field string
}

// ImportObject maps (module, field) pairs to import values. Lookup is by
// exact two-part string key. The zero value is not usable; construct with
// NewImportObject.
type ImportObject struct {
	values map[importKey]ImportValue
}

// NewImportObject returns an empty ImportObject.
func NewImportObject() *ImportObject {
	return &ImportObject{values: map[importKey]ImportValue{}}
}

// Add registers v under (module, field), replacing any previous entry, and
// returns the receiver for chaining.
func (o *ImportObject) Add(module, field string, v ImportValue) *ImportObject {
	o.values[importKey{module, field}] = v
	return o
}

// Get returns the value registered under (module, field). The second result
// distinguishes absence from a present value of the wrong kind.
func (o *ImportObject) Get(module, field string) (ImportValue, bool) {
	v, ok := o.values[importKey{module, field}]
	return v, ok
}

// Len returns the number of registered values.
func (o *ImportObject) Len() int {
	return len(o.values)
}
