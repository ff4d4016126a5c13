package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/wasm"
)

// resolveRelocTarget maps a relocation's symbolic target to a native
// address: the flat function index space for direct calls, the engine's exit
// stubs for intrinsics and library routines. Named intrinsics are never
// supported; probestack resolves to its own stub rather than an exit.
func (e *Engine) resolveRelocTarget(t codegen.RelocTarget, funcAddrs []uintptr) (uintptr, error) {
	switch t.Kind {
	case codegen.TargetDirectCall:
		if int(t.Index) >= len(funcAddrs) {
			return 0, fmt.Errorf("%w: direct call to %d, have %d functions",
				wasm.ErrInvalidFunctionIndex, t.Index, len(funcAddrs))
		}
		return funcAddrs[t.Index], nil
	case codegen.TargetGrowMemoryIntrinsic:
		return e.stubs.exits[builtinGrowMemory], nil
	case codegen.TargetCurrentMemoryIntrinsic:
		return e.stubs.exits[builtinCurrentMemory], nil
	case codegen.TargetLibraryCall:
		if t.Lib == codegen.LibCallProbestack {
			return e.stubs.probestack, nil
		}
		if k, ok := builtinForLibCall(t.Lib); ok {
			return e.stubs.exits[k], nil
		}
		return 0, fmt.Errorf("%w: %s", wasm.ErrUnsupportedLibCall, t.Lib)
	case codegen.TargetNamedIntrinsic:
		return 0, fmt.Errorf("%w: %q", wasm.ErrUnsupportedIntrinsic, t.Name)
	default:
		return 0, fmt.Errorf("%w: target kind %d", wasm.ErrUnsupportedReloc, t.Kind)
	}
}

// relocate patches every function's placed code in record order. All
// placements are final by the time this runs, so resolving the same module
// and imports at the same placement writes identical bytes.
//
// The 4-byte PC-relative form truncates to 32 bits without a range check;
// placements beyond ±2GiB produce wrong code. That limitation is part of the
// relocation contract (see codegen.RelocPCRelativeWrite4).
func (e *Engine) relocate(codes []*compiledCode, funcAddrs []uintptr, numImported uint32) error {
	for j, c := range codes {
		for _, r := range c.relocs {
			target, err := e.resolveRelocTarget(r.Target, funcAddrs)
			if err != nil {
				return &wasm.CompileError{FunctionIndex: numImported + wasm.Index(j), Err: err}
			}
			switch r.Kind {
			case codegen.RelocAbsoluteWrite8:
				if int(r.Offset)+8 > len(c.codeSegment) {
					return &wasm.CompileError{FunctionIndex: numImported + wasm.Index(j),
						Err: fmt.Errorf("%w: abs8 at %d, body is %d bytes", wasm.ErrUnsupportedReloc, r.Offset, len(c.codeSegment))}
				}
				binary.LittleEndian.PutUint64(c.codeSegment[r.Offset:], uint64(int64(target)+r.Addend))
			case codegen.RelocPCRelativeWrite4:
				if int(r.Offset)+4 > len(c.codeSegment) {
					return &wasm.CompileError{FunctionIndex: numImported + wasm.Index(j),
						Err: fmt.Errorf("%w: pcrel4 at %d, body is %d bytes", wasm.ErrUnsupportedReloc, r.Offset, len(c.codeSegment))}
				}
				site := int64(c.codeInitialAddress) + int64(r.Offset)
				delta := int64(target) - site + r.Addend
				binary.LittleEndian.PutUint32(c.codeSegment[r.Offset:], uint32(int32(delta)))
			default:
				return &wasm.CompileError{FunctionIndex: numImported + wasm.Index(j),
					Err: fmt.Errorf("%w: kind %d", wasm.ErrUnsupportedReloc, r.Kind)}
			}
		}
	}
	return nil
}
