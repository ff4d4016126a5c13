package codegen

// ContextLayoutVersion identifies the generation of the runtime context
// layout below. Generated code and the engine must agree on it exactly; the
// engine refuses a backend reporting any other version. Changing a single
// offset, size or field order requires bumping this constant.
const ContextLayoutVersion uint32 = 1

// Byte offsets into the runtime context block, layout version 1. The context
// address is passed to generated code in the reserved context register, and
// every field below is addressed as a raw offset from it. The engine pins its
// Go struct to these values with an unsafe.Offsetof test.
//
// The first three base/len pairs are the data-pointer prefix: table
// descriptors, then memory descriptors, then the global slot region, in that
// exact order. The remaining fields are the host call interface.
const (
	// ContextTablesBaseOffset holds the address of the first table
	// descriptor (TableDescriptor* layout below); ContextTablesLenOffset
	// holds the descriptor count.
	ContextTablesBaseOffset = 0
	ContextTablesLenOffset  = 8

	// ContextMemoriesBaseOffset holds the address of the first memory
	// descriptor; ContextMemoriesLenOffset holds the descriptor count.
	ContextMemoriesBaseOffset = 16
	ContextMemoriesLenOffset  = 24

	// ContextGlobalsBaseOffset holds the address of global slot 0;
	// ContextGlobalsLenOffset holds the region length in bytes
	// (GlobalSlotSize per global).
	ContextGlobalsBaseOffset = 32
	ContextGlobalsLenOffset  = 40

	// ContextValueSlotsBaseOffset holds the address of value slot 0, used
	// for call parameters, results and builtin operands;
	// ContextValueSlotsLenOffset holds the slot count.
	ContextValueSlotsBaseOffset = 48
	ContextValueSlotsLenOffset  = 56

	// ContextStatusCodeOffset holds the StatusCode stored by generated code
	// before returning to the host (uint32).
	ContextStatusCodeOffset = 64
	// ContextBuiltinIndexOffset holds the builtin index to service when the
	// status is StatusCallBuiltin (uint32).
	ContextBuiltinIndexOffset = 68
	// ContextContinuationOffset holds the native address execution resumes
	// at after a builtin is serviced.
	ContextContinuationOffset = 72
	// ContextInstanceHandleOffset holds the opaque handle the engine
	// assigned to the owning instance. Native code treats it as an opaque
	// 64-bit value; the host resolves it through a side table.
	ContextInstanceHandleOffset = 80

	// ContextSize is the total size of the context block.
	ContextSize = 88
)

// Table descriptor layout: base address of the element array (8-byte
// function addresses) and the element count.
const (
	TableDescriptorBaseOffset = 0
	TableDescriptorLenOffset  = 8
	TableDescriptorSize       = 16
)

// Memory descriptor layout: base address of the linear memory and its length
// in bytes.
const (
	MemoryDescriptorBaseOffset = 0
	MemoryDescriptorLenOffset  = 8
	MemoryDescriptorSize       = 16
)

const (
	// GlobalSlotSize is the size of one global slot. Every scalar value type
	// is widened or reinterpreted to 8 bytes.
	GlobalSlotSize = 8
	// ValueSlotSize is the size of one value slot.
	ValueSlotSize = 8
)
