package engine

import (
	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/internal/platform"
)

// Builtin indexes stored at ContextBuiltinIndexOffset by the exit stubs.
// The dispatcher services them against the caller's value slots.
const (
	builtinGrowMemory uint32 = iota
	builtinCurrentMemory
	builtinCeilF32
	builtinFloorF32
	builtinTruncF32
	builtinNearestF32
	builtinCeilF64
	builtinFloorF64
	builtinTruncF64
	builtinNearestF64
	numBuiltins
)

// builtinForLibCall maps a relocation's library routine to its builtin
// index. Probestack is not a builtin: it resolves to a plain native stub and
// never exits to the host.
func builtinForLibCall(l codegen.LibCall) (uint32, bool) {
	switch l {
	case codegen.LibCallCeilF32:
		return builtinCeilF32, true
	case codegen.LibCallFloorF32:
		return builtinFloorF32, true
	case codegen.LibCallTruncF32:
		return builtinTruncF32, true
	case codegen.LibCallNearestF32:
		return builtinNearestF32, true
	case codegen.LibCallCeilF64:
		return builtinCeilF64, true
	case codegen.LibCallFloorF64:
		return builtinFloorF64, true
	case codegen.LibCallTruncF64:
		return builtinTruncF64, true
	case codegen.LibCallNearestF64:
		return builtinNearestF64, true
	}
	return 0, false
}

// stubs is the engine's shared executable mapping, assembled once at
// construction. It holds one exit stub per builtin, the mock import stub
// bound for mocked function imports, and the probestack stub. Relocations
// against intrinsic and library targets resolve to these addresses.
type stubs struct {
	seg []byte

	// exits[k] is the entry point whose call transfers builtin k to the
	// host: it pops the native return address into the context's
	// continuation field, stores k and StatusCallBuiltin, and returns.
	exits [numBuiltins]uintptr

	// mock writes zero into value slot 0, stores StatusReturned, and
	// returns to its caller.
	mock uintptr

	// probestack returns immediately. The symbol exists so library-call
	// relocations against it resolve; stack discipline is governed by the
	// calling convention, not by probing.
	probestack uintptr
}

func (s *stubs) close() error {
	return platform.MunmapCodeSegment(s.seg)
}
