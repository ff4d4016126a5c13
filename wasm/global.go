package wasm

import "math"

// GlobalInitKind selects the form of a global (or segment offset)
// initializer expression.
type GlobalInitKind byte

const (
	GlobalInitI32Const GlobalInitKind = iota
	GlobalInitI64Const
	GlobalInitF32Const
	GlobalInitF64Const
	// GlobalInitGetGlobal copies the value of an already-initialized global:
	// an imported global, or a local global declared strictly earlier.
	GlobalInitGetGlobal
)

// GlobalInit is one initializer expression. Value holds the constant's 8-byte
// slot representation for the const kinds; Index is the referenced global for
// GlobalInitGetGlobal.
type GlobalInit struct {
	Kind  GlobalInitKind
	Value uint64
	Index Index
}

// I32Const builds an i32 constant initializer. The value is zero-extended
// into the slot.
func I32Const(v int32) GlobalInit {
	return GlobalInit{Kind: GlobalInitI32Const, Value: uint64(uint32(v))}
}

// I64Const builds an i64 constant initializer.
func I64Const(v int64) GlobalInit {
	return GlobalInit{Kind: GlobalInitI64Const, Value: uint64(v)}
}

// F32Const builds an f32 constant initializer from its bit pattern.
func F32Const(v float32) GlobalInit {
	return GlobalInit{Kind: GlobalInitF32Const, Value: uint64(math.Float32bits(v))}
}

// F64Const builds an f64 constant initializer from its bit pattern.
func F64Const(v float64) GlobalInit {
	return GlobalInit{Kind: GlobalInitF64Const, Value: math.Float64bits(v)}
}

// GetGlobal builds an initializer copying the global at the flat index i.
func GetGlobal(i Index) GlobalInit {
	return GlobalInit{Kind: GlobalInitGetGlobal, Index: i}
}

// Global declares a locally defined global.
type Global struct {
	Type    ValueType
	Mutable bool
	Init    GlobalInit
}
