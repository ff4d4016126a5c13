// Package codegen defines the contract between the linking engine and the
// machine code generator: the compiled-function artifact, relocation records,
// exit status codes, and the runtime context layout that generated code
// addresses by raw byte offsets.
//
// The engine consumes backends through the Backend interface and never
// inspects code bytes except at relocation sites, so any generator that
// honors this contract can be plugged in.
package codegen

import "github.com/wasmlink/wasmlink/wasm"

// Backend lowers one IR function body into machine code plus relocation
// records. Implementations are opaque to the engine and must be safe for
// concurrent Compile calls, as compilation runs on a bounded worker pool.
type Backend interface {
	// ID identifies the backend and its generation for compiled-code cache
	// keys, e.g. "testisa-amd64-v1". Two backends with the same ID must
	// produce identical output for identical input.
	ID() string

	// ContextLayoutVersion returns the runtime context layout generation
	// this backend's code was built against. The engine rejects a backend
	// whose version differs from ContextLayoutVersion in this package.
	ContextLayoutVersion() uint32

	// Compile lowers fn.IR into machine code. The returned body must be
	// position independent except at the recorded relocation sites.
	Compile(fn *wasm.Function) (*CompiledFunction, error)
}

// CompiledFunction is the backend's artifact for one local function: raw
// machine code plus the relocations to apply once every function's final
// address is known. The engine consumes Relocs exactly once and keeps only
// the placed copy of Body.
type CompiledFunction struct {
	Body   []byte
	Relocs []Reloc
}

// Calling convention, fixed by layout version 1:
//
// The engine enters a function at its first byte with the context register
// (R13 on amd64) holding the runtime context address. Parameters are read
// from the value slot area (8 bytes per slot, slot 0 first) and results are
// stored back starting at slot 0. Value slots are caller-saved scratch: a
// call, builtin exit, or mock import may clobber any slot. Before its final
// return the function must store a StatusCode at ContextStatusCodeOffset and
// execute a return with the machine stack exactly as it was on entry, which
// lands back in the host.
//
// Builtins (memory grow/size and the float library routines) are reached by
// a near call through a relocation; the engine's exit stub pops the call's
// return address into ContextContinuationOffset, records the builtin index
// and StatusCallBuiltin, and returns to the host. The host services the
// builtin against the value slots and re-enters at the continuation. For
// that handoff to work, a builtin call site must execute with the entry
// stack, so generated code keeps the stack balanced around builtin calls
// rather than issuing them from a pushed frame.
//
// Generated code must leave the context register and the host's stack and
// frame registers (SP and BP on amd64) as it found them, and may use at most
// 512 bytes of machine stack below the entry stack pointer, including direct
// call return addresses.
