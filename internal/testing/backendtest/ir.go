package backendtest

import (
	"encoding/binary"

	"github.com/wasmlink/wasmlink/wasm"
)

// The test ISA: each function body is one opcode, operating on the value
// slots per the calling convention. The amd64 backend lowers these to real
// machine code; the opcodes double as cache keys, so two functions with the
// same IR bytes share a compiled-code cache entry.
const (
	// OpAdd32 stores u32(slot0 + slot1) zero-extended into slot 0.
	OpAdd32 = 0x01
	// OpConst64 stores the 8-byte immediate following the opcode into slot 0.
	OpConst64 = 0x02
	// OpCall calls the function at the 4-byte flat index following the
	// opcode; the callee's slot 0 result is the caller's result.
	OpCall = 0x03
	// OpGrowMemory grows memory 0 by slot0 pages; slot 0 receives the
	// previous page count.
	OpGrowMemory = 0x04
	// OpMemorySize stores memory 0's page count into slot 0.
	OpMemorySize = 0x05
	// OpCeilF32 rounds the f32 whose bits are in slot 0 upward.
	OpCeilF32 = 0x06
	// OpUnreachable traps.
	OpUnreachable = 0x07
	// OpGrowRaw issues the grow builtin with slot 0 and slot 1 exactly as
	// the caller supplied them, memory index included.
	OpGrowRaw = 0x08
)

// Add32IR returns the body of an (i32, i32) -> i32 add function.
func Add32IR() []byte { return []byte{OpAdd32} }

// Const64IR returns the body of a () -> i64 function producing v.
func Const64IR(v uint64) []byte {
	return binary.LittleEndian.AppendUint64([]byte{OpConst64}, v)
}

// CallIR returns the body of a function that calls the function at the flat
// index i and returns its result.
func CallIR(i wasm.Index) []byte {
	return binary.LittleEndian.AppendUint32([]byte{OpCall}, i)
}

// GrowMemoryIR returns the body of an (i32) -> i32 memory.grow function.
func GrowMemoryIR() []byte { return []byte{OpGrowMemory} }

// MemorySizeIR returns the body of a () -> i32 memory.size function.
func MemorySizeIR() []byte { return []byte{OpMemorySize} }

// CeilF32IR returns the body of an (f32) -> f32 ceil function.
func CeilF32IR() []byte { return []byte{OpCeilF32} }

// UnreachableIR returns the body of a trapping function.
func UnreachableIR() []byte { return []byte{OpUnreachable} }

// GrowRawIR returns the body of an (i32, i32) -> i32 function passing its
// parameters straight to the grow builtin as (delta, memory index).
func GrowRawIR() []byte { return []byte{OpGrowRaw} }
