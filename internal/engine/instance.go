package engine

import (
	"fmt"
	"sync"
	"unsafe"

	"github.com/wasmlink/wasmlink/internal/platform"
	"github.com/wasmlink/wasmlink/wasm"
)

// Instance is one live instantiation: placed native code, resolved function
// addresses, initialized globals, backing memories and tables, and the
// runtime context generated code addresses through the context register.
// Guest calls are serialized by an internal mutex; Close releases the
// executable mappings and is required, not left to a finalizer.
type Instance struct {
	engine *Engine
	module *wasm.Module
	handle uint64

	mux    sync.Mutex
	closed bool

	// funcAddrs is the flat function index space: imported addresses in
	// declaration order, then placed local entry points in definition
	// order. funcTypes carries the signature known for each index; entries
	// stay nil for untyped imports.
	funcAddrs []uintptr
	funcTypes []*wasm.FunctionType

	// codes owns the local functions' executable mappings.
	codes []*compiledCode

	// globals, memories and tables are each imported-first, like funcAddrs.
	globals  []uint64
	memories []*wasm.MemoryInstance
	tables   []*wasm.TableInstance

	valueSlots []uint64
	tableDescs []tableDescriptor
	memDescs   []memoryDescriptor
	ctx        *context

	// emscripten is non-nil when the ABI shim resolved at least one of the
	// well-known exports.
	emscripten *EmscriptenData
}

// Start invokes the module's start function under a protected call: the
// declared start index when present, else an export named "main" of function
// kind, else success without running anything.
func (i *Instance) Start() error {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return wasm.ErrInstanceClosed
	}
	idx, ok := i.startIndex()
	if !ok {
		return nil
	}
	addr, err := i.functionAddress(idx)
	if err != nil {
		return fmt.Errorf("start function: %w", err)
	}
	if err = i.execute(addr); err != nil {
		return fmt.Errorf("start function failed: %w", err)
	}
	return nil
}

func (i *Instance) startIndex() (wasm.Index, bool) {
	if i.module.StartFunction != nil {
		return *i.module.StartFunction, true
	}
	if exp, ok := i.module.Exports["main"]; ok && exp.Kind == wasm.ExternKindFunction {
		return exp.Index, true
	}
	return 0, false
}

// Call invokes the exported function under a protected call. Parameters are
// passed and results returned as 8-byte slot values; floats travel as their
// IEEE-754 bit patterns. The signature must be known, which it always is for
// local functions and typed imports.
func (i *Instance) Call(name string, params ...uint64) ([]uint64, error) {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return nil, wasm.ErrInstanceClosed
	}
	exp, err := i.module.GetExport(name, wasm.ExternKindFunction)
	if err != nil {
		return nil, err
	}
	addr, err := i.functionAddress(exp.Index)
	if err != nil {
		return nil, err
	}
	typ := i.funcTypes[exp.Index]
	if typ == nil {
		return nil, fmt.Errorf("function %q has no known signature", name)
	}
	if len(params) != len(typ.Params) {
		return nil, fmt.Errorf("function %q takes %d parameters, got %d", name, len(typ.Params), len(params))
	}
	copy(i.valueSlots, params)
	if err = i.execute(addr); err != nil {
		return nil, err
	}
	results := make([]uint64, len(typ.Results))
	copy(results, i.valueSlots)
	return results, nil
}

// FunctionAddress returns the native address of the function at the flat
// index: imported functions first, then local functions.
func (i *Instance) FunctionAddress(idx wasm.Index) (uintptr, error) {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return 0, wasm.ErrInstanceClosed
	}
	return i.functionAddress(idx)
}

func (i *Instance) functionAddress(idx wasm.Index) (uintptr, error) {
	if int(idx) >= len(i.funcAddrs) {
		return 0, fmt.Errorf("%w: %d, have %d functions", wasm.ErrInvalidFunctionIndex, idx, len(i.funcAddrs))
	}
	return i.funcAddrs[idx], nil
}

// Memory returns the memory at the flat index, imported memories first. The
// instance keeps no copy: mutations through the returned value are visible
// to guest code once descriptors refresh.
func (i *Instance) Memory(idx wasm.Index) (*wasm.MemoryInstance, error) {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return nil, wasm.ErrInstanceClosed
	}
	return i.memory(idx)
}

func (i *Instance) memory(idx wasm.Index) (*wasm.MemoryInstance, error) {
	if int(idx) >= len(i.memories) {
		return nil, fmt.Errorf("%w: %d, have %d memories", wasm.ErrInvalidMemoryIndex, idx, len(i.memories))
	}
	return i.memories[idx], nil
}

// InspectMemory returns a view of length bytes of the memory at addr. The
// view aliases the buffer and is invalidated by growth.
func (i *Instance) InspectMemory(memIdx wasm.Index, addr, length uint32) ([]byte, error) {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return nil, wasm.ErrInstanceClosed
	}
	mem, err := i.memory(memIdx)
	if err != nil {
		return nil, err
	}
	view, ok := mem.Read(addr, length)
	if !ok {
		return nil, fmt.Errorf("%w: [%d, %d) exceeds memory size %d",
			wasm.ErrMemoryOutOfBounds, addr, uint64(addr)+uint64(length), len(mem.Buffer))
	}
	return view, nil
}

// MemoryOffsetAddr returns the native address of the given byte of a memory.
// Like InspectMemory's view, the address is invalidated by growth.
func (i *Instance) MemoryOffsetAddr(memIdx wasm.Index, offset uint32) (uintptr, error) {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return 0, wasm.ErrInstanceClosed
	}
	mem, err := i.memory(memIdx)
	if err != nil {
		return 0, err
	}
	if uint64(offset) >= uint64(len(mem.Buffer)) {
		return 0, fmt.Errorf("%w: offset %d exceeds memory size %d",
			wasm.ErrMemoryOutOfBounds, offset, len(mem.Buffer))
	}
	return uintptr(unsafe.Pointer(&mem.Buffer[offset])), nil
}

// GlobalValue returns the 8-byte slot value of the global at the flat index,
// imported globals first.
func (i *Instance) GlobalValue(idx wasm.Index) (uint64, error) {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return 0, wasm.ErrInstanceClosed
	}
	if int(idx) >= len(i.globals) {
		return 0, fmt.Errorf("%w: %d, have %d globals", wasm.ErrInvalidGlobalIndex, idx, len(i.globals))
	}
	return i.globals[idx], nil
}

// Exports lists the module's export names and kinds.
func (i *Instance) Exports() map[string]wasm.ExternKind {
	out := make(map[string]wasm.ExternKind, len(i.module.Exports))
	for name, exp := range i.module.Exports {
		out[name] = exp.Kind
	}
	return out
}

// EmscriptenData reports the resolved ABI shim, if one was installed.
func (i *Instance) EmscriptenData() (*EmscriptenData, bool) {
	if i.emscripten == nil {
		return nil, false
	}
	return i.emscripten, true
}

// Close unregisters the instance and releases its executable mappings.
// Idempotent; the first mapping error is reported after all are attempted.
func (i *Instance) Close() error {
	i.mux.Lock()
	defer i.mux.Unlock()
	if i.closed {
		return nil
	}
	i.closed = true
	i.engine.unregisterInstance(i.handle)
	var firstErr error
	for _, c := range i.codes {
		if c == nil {
			continue
		}
		if err := platform.MunmapCodeSegment(c.codeSegment); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	i.codes = nil
	i.funcAddrs = nil
	return firstErr
}
