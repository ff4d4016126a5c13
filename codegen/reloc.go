package codegen

import (
	"fmt"

	"github.com/wasmlink/wasmlink/wasm"
)

// RelocKind selects how a relocation site is patched.
type RelocKind byte

const (
	// RelocAbsoluteWrite8 writes the 64-bit target address plus addend,
	// little-endian, at the site.
	RelocAbsoluteWrite8 RelocKind = iota
	// RelocPCRelativeWrite4 writes target - site + addend truncated to a
	// signed 32-bit delta, little-endian, at the site. Deltas beyond the
	// 32-bit range are not range checked; keeping code within ±2GiB is the
	// placement's responsibility. This is a documented limitation of the
	// supported targets.
	RelocPCRelativeWrite4
)

func (k RelocKind) String() string {
	switch k {
	case RelocAbsoluteWrite8:
		return "abs8"
	case RelocPCRelativeWrite4:
		return "pcrel4"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// TargetKind selects what a relocation resolves to.
type TargetKind byte

const (
	// TargetDirectCall resolves to the function at RelocTarget.Index in the
	// flat index space: imported functions first, then local functions.
	TargetDirectCall TargetKind = iota
	// TargetGrowMemoryIntrinsic resolves to the fixed grow_memory entry point.
	TargetGrowMemoryIntrinsic
	// TargetCurrentMemoryIntrinsic resolves to the fixed current_memory entry point.
	TargetCurrentMemoryIntrinsic
	// TargetLibraryCall resolves to the built-in routine named by RelocTarget.Lib.
	TargetLibraryCall
	// TargetNamedIntrinsic is carried for diagnostics only; linking a module
	// containing one always fails.
	TargetNamedIntrinsic
)

func (k TargetKind) String() string {
	switch k {
	case TargetDirectCall:
		return "direct_call"
	case TargetGrowMemoryIntrinsic:
		return "grow_memory"
	case TargetCurrentMemoryIntrinsic:
		return "current_memory"
	case TargetLibraryCall:
		return "library_call"
	case TargetNamedIntrinsic:
		return "named_intrinsic"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// RelocTarget is the symbolic destination of a relocation. Exactly one of
// Index, Lib or Name is meaningful, selected by Kind.
type RelocTarget struct {
	Kind  TargetKind
	Index wasm.Index
	Lib   LibCall
	Name  string
}

// DirectCall targets the function at the flat index i.
func DirectCall(i wasm.Index) RelocTarget {
	return RelocTarget{Kind: TargetDirectCall, Index: i}
}

// GrowMemory targets the grow_memory intrinsic entry point.
func GrowMemory() RelocTarget {
	return RelocTarget{Kind: TargetGrowMemoryIntrinsic}
}

// CurrentMemory targets the current_memory intrinsic entry point.
func CurrentMemory() RelocTarget {
	return RelocTarget{Kind: TargetCurrentMemoryIntrinsic}
}

// Library targets the built-in routine l.
func Library(l LibCall) RelocTarget {
	return RelocTarget{Kind: TargetLibraryCall, Lib: l}
}

// NamedIntrinsic targets an intrinsic by symbolic name. No named intrinsic
// is supported; the target exists so a generator can hand the name to the
// engine for the resulting link error.
func NamedIntrinsic(name string) RelocTarget {
	return RelocTarget{Kind: TargetNamedIntrinsic, Name: name}
}

// Reloc is one deferred patch of the owning function's code: at Offset bytes
// into the placed body, write the resolved Target (plus Addend) as Kind
// dictates. Records are applied in order, exactly once.
type Reloc struct {
	Offset uint32
	Kind   RelocKind
	Target RelocTarget
	Addend int64
}
