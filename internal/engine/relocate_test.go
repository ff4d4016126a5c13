package engine

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/wasm"
)

// newTestEngine returns an engine with synthetic stub addresses, enough for
// exercising relocation resolution without emitting native code.
func newTestEngine() *Engine {
	s := &stubs{mock: 0x9000, probestack: 0xa000}
	for k := range s.exits {
		s.exits[k] = uintptr(0x1000 + 0x10*k)
	}
	return &Engine{stubs: s}
}

func TestResolveRelocTarget(t *testing.T) {
	e := newTestEngine()
	funcAddrs := []uintptr{0x100, 0x200, 0x300}

	t.Run("direct call", func(t *testing.T) {
		addr, err := e.resolveRelocTarget(codegen.DirectCall(1), funcAddrs)
		require.NoError(t, err)
		require.Equal(t, uintptr(0x200), addr)
	})
	t.Run("direct call out of range", func(t *testing.T) {
		_, err := e.resolveRelocTarget(codegen.DirectCall(3), funcAddrs)
		require.ErrorIs(t, err, wasm.ErrInvalidFunctionIndex)
	})
	t.Run("grow_memory", func(t *testing.T) {
		addr, err := e.resolveRelocTarget(codegen.GrowMemory(), funcAddrs)
		require.NoError(t, err)
		require.Equal(t, e.stubs.exits[builtinGrowMemory], addr)
	})
	t.Run("current_memory", func(t *testing.T) {
		addr, err := e.resolveRelocTarget(codegen.CurrentMemory(), funcAddrs)
		require.NoError(t, err)
		require.Equal(t, e.stubs.exits[builtinCurrentMemory], addr)
	})
	t.Run("float library calls", func(t *testing.T) {
		for lib, builtin := range map[codegen.LibCall]uint32{
			codegen.LibCallCeilF32:    builtinCeilF32,
			codegen.LibCallFloorF32:   builtinFloorF32,
			codegen.LibCallTruncF32:   builtinTruncF32,
			codegen.LibCallNearestF32: builtinNearestF32,
			codegen.LibCallCeilF64:    builtinCeilF64,
			codegen.LibCallFloorF64:   builtinFloorF64,
			codegen.LibCallTruncF64:   builtinTruncF64,
			codegen.LibCallNearestF64: builtinNearestF64,
		} {
			addr, err := e.resolveRelocTarget(codegen.Library(lib), funcAddrs)
			require.NoError(t, err, lib.String())
			require.Equal(t, e.stubs.exits[builtin], addr, lib.String())
		}
	})
	t.Run("probestack", func(t *testing.T) {
		addr, err := e.resolveRelocTarget(codegen.Library(codegen.LibCallProbestack), funcAddrs)
		require.NoError(t, err)
		require.Equal(t, e.stubs.probestack, addr)
	})
	t.Run("unknown library call", func(t *testing.T) {
		_, err := e.resolveRelocTarget(codegen.Library(codegen.LibCall(200)), funcAddrs)
		require.ErrorIs(t, err, wasm.ErrUnsupportedLibCall)
	})
	t.Run("named intrinsic", func(t *testing.T) {
		_, err := e.resolveRelocTarget(codegen.NamedIntrinsic("llvm.ctpop.i32"), funcAddrs)
		require.ErrorIs(t, err, wasm.ErrUnsupportedIntrinsic)
		require.Contains(t, err.Error(), "llvm.ctpop.i32")
	})
	t.Run("unknown target kind", func(t *testing.T) {
		_, err := e.resolveRelocTarget(codegen.RelocTarget{Kind: codegen.TargetKind(200)}, funcAddrs)
		require.ErrorIs(t, err, wasm.ErrUnsupportedReloc)
	})
}

func TestRelocate_absoluteWrite8(t *testing.T) {
	e := newTestEngine()
	c := &compiledCode{
		codeSegment:        make([]byte, 16),
		codeInitialAddress: 0x7f0000,
		relocs: []codegen.Reloc{
			{Offset: 4, Kind: codegen.RelocAbsoluteWrite8, Target: codegen.DirectCall(0), Addend: 3},
		},
	}
	funcAddrs := []uintptr{0x123456789a}

	require.NoError(t, e.relocate([]*compiledCode{c}, funcAddrs, 0))
	require.Equal(t, uint64(0x123456789a+3), binary.LittleEndian.Uint64(c.codeSegment[4:]))
	// Bytes outside the patch stay zero.
	require.Equal(t, []byte{0, 0, 0, 0}, c.codeSegment[:4])
	require.Equal(t, []byte{0, 0, 0, 0}, c.codeSegment[12:])
}

func TestRelocate_pcRelativeWrite4(t *testing.T) {
	e := newTestEngine()
	c := &compiledCode{
		codeSegment:        make([]byte, 12),
		codeInitialAddress: 0x400000,
		relocs: []codegen.Reloc{
			// A call instruction's displacement field: the addend backs the
			// delta up over the 4 displacement bytes themselves.
			{Offset: 5, Kind: codegen.RelocPCRelativeWrite4, Target: codegen.DirectCall(1), Addend: -4},
		},
	}
	funcAddrs := []uintptr{0x400000, 0x400100}

	require.NoError(t, e.relocate([]*compiledCode{c}, funcAddrs, 0))
	// target - (base+offset) + addend = 0x400100 - 0x400005 - 4 = 0xf7.
	require.Equal(t, uint32(0xf7), binary.LittleEndian.Uint32(c.codeSegment[5:]))
}

func TestRelocate_pcRelativeNegativeDelta(t *testing.T) {
	e := newTestEngine()
	c := &compiledCode{
		codeSegment:        make([]byte, 12),
		codeInitialAddress: 0x500000,
		relocs: []codegen.Reloc{
			{Offset: 0, Kind: codegen.RelocPCRelativeWrite4, Target: codegen.DirectCall(0), Addend: 0},
		},
	}
	funcAddrs := []uintptr{0x4fff00}

	require.NoError(t, e.relocate([]*compiledCode{c}, funcAddrs, 0))
	want := int32(0x4fff00 - 0x500000)
	require.Equal(t, uint32(want), binary.LittleEndian.Uint32(c.codeSegment))
}

// Applying the same records to identical placements writes identical bytes.
func TestRelocate_deterministic(t *testing.T) {
	e := newTestEngine()
	funcAddrs := []uintptr{0x610000, 0x620000}
	relocs := []codegen.Reloc{
		{Offset: 0, Kind: codegen.RelocAbsoluteWrite8, Target: codegen.GrowMemory()},
		{Offset: 8, Kind: codegen.RelocPCRelativeWrite4, Target: codegen.DirectCall(1), Addend: -4},
	}

	patch := func() []byte {
		c := &compiledCode{codeSegment: make([]byte, 16), codeInitialAddress: 0x600000, relocs: relocs}
		require.NoError(t, e.relocate([]*compiledCode{c}, funcAddrs, 0))
		return c.codeSegment
	}
	require.Equal(t, patch(), patch())
}

func TestRelocate_errors(t *testing.T) {
	e := newTestEngine()
	funcAddrs := []uintptr{0x100}

	tests := []struct {
		name  string
		reloc codegen.Reloc
		is    error
	}{
		{
			name:  "named intrinsic",
			reloc: codegen.Reloc{Kind: codegen.RelocPCRelativeWrite4, Target: codegen.NamedIntrinsic("memmove")},
			is:    wasm.ErrUnsupportedIntrinsic,
		},
		{
			name:  "abs8 beyond body",
			reloc: codegen.Reloc{Offset: 10, Kind: codegen.RelocAbsoluteWrite8, Target: codegen.DirectCall(0)},
			is:    wasm.ErrUnsupportedReloc,
		},
		{
			name:  "pcrel4 beyond body",
			reloc: codegen.Reloc{Offset: 15, Kind: codegen.RelocPCRelativeWrite4, Target: codegen.DirectCall(0)},
			is:    wasm.ErrUnsupportedReloc,
		},
		{
			name:  "unknown kind",
			reloc: codegen.Reloc{Kind: codegen.RelocKind(200), Target: codegen.DirectCall(0)},
			is:    wasm.ErrUnsupportedReloc,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			c := &compiledCode{codeSegment: make([]byte, 16), relocs: []codegen.Reloc{tc.reloc}}
			err := e.relocate([]*compiledCode{c}, funcAddrs, 2)
			require.ErrorIs(t, err, tc.is)

			// The failing function is reported in the flat index space.
			ce := &wasm.CompileError{}
			require.ErrorAs(t, err, &ce)
			require.Equal(t, wasm.Index(2), ce.FunctionIndex)
		})
	}
}
