package engine

import (
	"fmt"
	"math"
	"runtime/debug"
	"unsafe"

	"go.uber.org/zap"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/internal/moremath"
	"github.com/wasmlink/wasmlink/wasm"
)

// execute runs one protected call: enter placed native code at addr and
// loop, servicing builtin exits, until the episode returns or traps. A trap
// becomes a TrapError and any panic crossing the boundary is recovered into
// an error, so a guest fault never takes the hosting process down.
//
// Callers hold the instance mutex.
func (i *Instance) execute(addr uintptr) (err error) {
	defer func() {
		if v := recover(); v != nil {
			i.engine.log.Error("panic during native call",
				zap.Any("panic", v), zap.ByteString("stack", debug.Stack()))
			if e, ok := v.(error); ok {
				err = fmt.Errorf("wasm runtime error: %w", e)
			} else {
				err = fmt.Errorf("wasm runtime error: %v", v)
			}
		}
	}()

	code := addr
	for {
		nativecall(code, uintptr(unsafe.Pointer(i.ctx)))

		switch codegen.StatusCode(i.ctx.statusCode) {
		case codegen.StatusReturned:
			return nil
		case codegen.StatusCallBuiltin:
			// The builtin is serviced against the instance the context
			// names by handle, never by reinterpreting a raw pointer.
			target := i.engine.instanceForHandle(i.ctx.instanceHandle)
			if target == nil {
				return fmt.Errorf("%w: stale instance handle %d", wasm.ErrInstanceClosed, i.ctx.instanceHandle)
			}
			if err = target.callBuiltin(i.ctx.builtinIndex); err != nil {
				return err
			}
			code = i.ctx.continuation
		case codegen.StatusTrapUnreachable:
			return &wasm.TrapError{Code: wasm.TrapUnreachable}
		case codegen.StatusTrapMemoryOutOfBounds:
			return &wasm.TrapError{Code: wasm.TrapMemoryOutOfBounds}
		case codegen.StatusTrapIntegerDivideByZero:
			return &wasm.TrapError{Code: wasm.TrapIntegerDivideByZero}
		case codegen.StatusTrapIntegerOverflow:
			return &wasm.TrapError{Code: wasm.TrapIntegerOverflow}
		default:
			return fmt.Errorf("native code exited with unknown status %d", i.ctx.statusCode)
		}
	}
}

// callBuiltin services one builtin exit. Operands are read from value slot 0
// onward and the result is stored back at slot 0, matching the calling
// convention's builtin protocol.
func (i *Instance) callBuiltin(k uint32) error {
	slots := i.valueSlots
	switch k {
	case builtinGrowMemory:
		// grow_memory(delta, memory_index) -> previous page count, or -1 as
		// an i32 when the maximum would be exceeded.
		if memIdx := uint32(slots[1]); memIdx != 0 {
			return fmt.Errorf("%w: grow_memory on memory %d, only memory 0 is addressable",
				wasm.ErrInvalidMemoryIndex, memIdx)
		}
		if len(i.memories) == 0 {
			return fmt.Errorf("%w: grow_memory without a memory", wasm.ErrInvalidMemoryIndex)
		}
		slots[0] = uint64(i.memories[0].Grow(uint32(slots[0])))
		i.refreshMemoryDescriptor(0)
	case builtinCurrentMemory:
		// current_memory(memory_index) -> current page count.
		if memIdx := uint32(slots[0]); memIdx != 0 {
			return fmt.Errorf("%w: current_memory on memory %d, only memory 0 is addressable",
				wasm.ErrInvalidMemoryIndex, memIdx)
		}
		if len(i.memories) == 0 {
			return fmt.Errorf("%w: current_memory without a memory", wasm.ErrInvalidMemoryIndex)
		}
		slots[0] = uint64(i.memories[0].PageSize())
	case builtinCeilF32:
		slots[0] = uint64(math.Float32bits(moremath.WasmCompatCeilF32(math.Float32frombits(uint32(slots[0])))))
	case builtinFloorF32:
		slots[0] = uint64(math.Float32bits(moremath.WasmCompatFloorF32(math.Float32frombits(uint32(slots[0])))))
	case builtinTruncF32:
		slots[0] = uint64(math.Float32bits(moremath.WasmCompatTruncF32(math.Float32frombits(uint32(slots[0])))))
	case builtinNearestF32:
		slots[0] = uint64(math.Float32bits(moremath.WasmCompatNearestF32(math.Float32frombits(uint32(slots[0])))))
	case builtinCeilF64:
		slots[0] = math.Float64bits(moremath.WasmCompatCeilF64(math.Float64frombits(slots[0])))
	case builtinFloorF64:
		slots[0] = math.Float64bits(moremath.WasmCompatFloorF64(math.Float64frombits(slots[0])))
	case builtinTruncF64:
		slots[0] = math.Float64bits(moremath.WasmCompatTruncF64(math.Float64frombits(slots[0])))
	case builtinNearestF64:
		slots[0] = math.Float64bits(moremath.WasmCompatNearestF64(math.Float64frombits(slots[0])))
	default:
		return fmt.Errorf("native code requested unknown builtin %d", k)
	}
	return nil
}
