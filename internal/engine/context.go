package engine

import (
	"unsafe"
)

// context is the block generated code addresses through the reserved context
// register as raw byte offsets. Field order, sizes and the total size are
// layout version 1, published as constants in the codegen package and pinned
// by TestVerifyContextOffsets. The layout assumes a 64-bit platform.
//
// The base/len pairs describe Go slices owned by the Instance. Native code
// never edits len or cap, and the Instance keeps the slices referenced, so
// the raw addresses stay valid; any host operation that can reallocate a
// backing array (memory grow) refreshes the affected descriptor before
// native code runs again.
type context struct {
	tablesBase     uintptr
	tablesLen      uint64
	memoriesBase   uintptr
	memoriesLen    uint64
	globalsBase    uintptr
	globalsLen     uint64 // bytes, GlobalSlotSize per global
	valueSlotsBase uintptr
	valueSlotsLen  uint64 // slots
	statusCode     uint32
	builtinIndex   uint32
	continuation   uintptr
	instanceHandle uint64
}

// tableDescriptor describes one table: the address of its first element
// (8-byte function addresses) and the element count. Mirrors the
// codegen.TableDescriptor* constants.
type tableDescriptor struct {
	base uintptr
	len  uint64
}

// memoryDescriptor describes one linear memory: the address of its first
// byte and its length in bytes. Mirrors the codegen.MemoryDescriptor*
// constants.
type memoryDescriptor struct {
	base uintptr
	len  uint64
}

// buildContext wires the instance's runtime context over its tables,
// memories, global slots and value slots. Called once at the end of
// instantiation, before any native code runs.
func (i *Instance) buildContext(handle uint64, valueSlotCount uint32) {
	i.valueSlots = make([]uint64, valueSlotCount)
	i.tableDescs = make([]tableDescriptor, len(i.tables))
	i.memDescs = make([]memoryDescriptor, len(i.memories))

	i.ctx = &context{instanceHandle: handle}
	for j := range i.tables {
		i.refreshTableDescriptor(j)
	}
	for j := range i.memories {
		i.refreshMemoryDescriptor(j)
	}
	if len(i.tableDescs) > 0 {
		i.ctx.tablesBase = uintptr(unsafe.Pointer(&i.tableDescs[0]))
	}
	i.ctx.tablesLen = uint64(len(i.tableDescs))
	if len(i.memDescs) > 0 {
		i.ctx.memoriesBase = uintptr(unsafe.Pointer(&i.memDescs[0]))
	}
	i.ctx.memoriesLen = uint64(len(i.memDescs))
	if len(i.globals) > 0 {
		i.ctx.globalsBase = uintptr(unsafe.Pointer(&i.globals[0]))
	}
	i.ctx.globalsLen = uint64(len(i.globals)) * 8
	if len(i.valueSlots) > 0 {
		i.ctx.valueSlotsBase = uintptr(unsafe.Pointer(&i.valueSlots[0]))
	}
	i.ctx.valueSlotsLen = uint64(len(i.valueSlots))
}

// refreshTableDescriptor rewrites table j's descriptor from its current
// backing array.
func (i *Instance) refreshTableDescriptor(j int) {
	contents := i.tables[j].Contents
	d := tableDescriptor{len: uint64(len(contents))}
	if len(contents) > 0 {
		d.base = uintptr(unsafe.Pointer(&contents[0]))
	}
	i.tableDescs[j] = d
}

// refreshMemoryDescriptor rewrites memory j's descriptor from its current
// buffer. Must run after every grow, which may reallocate the buffer.
func (i *Instance) refreshMemoryDescriptor(j int) {
	buf := i.memories[j].Buffer
	d := memoryDescriptor{len: uint64(len(buf))}
	if len(buf) > 0 {
		d.base = uintptr(unsafe.Pointer(&buf[0]))
	}
	i.memDescs[j] = d
}
