package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmlink/wasmlink/wasm"
)

func TestSegments_apply(t *testing.T) {
	mem := wasm.NewMemoryInstance(&wasm.MemoryType{Min: 1})
	table := wasm.NewTableInstance(&wasm.TableType{Min: 4})
	funcAddrs := []uintptr{0x100, 0x200, 0x300}
	m := &wasm.Module{
		DataSegments: []*wasm.DataSegment{
			{MemoryIndex: 0, Offset: wasm.I32Const(8), Init: []byte("hello")},
			{MemoryIndex: 0, Offset: wasm.GetGlobal(0), Init: []byte{0xff}},
		},
		ElementSegments: []*wasm.ElementSegment{
			{TableIndex: 0, Offset: wasm.I32Const(1), FunctionIndexes: []wasm.Index{2, 0}},
		},
	}
	globals := []uint64{32}

	data, elems, err := validateSegments(m, []*wasm.MemoryInstance{mem}, []*wasm.TableInstance{table}, globals, funcAddrs)
	require.NoError(t, err)

	// Validation writes nothing.
	require.Equal(t, byte(0), mem.Buffer[8])
	require.Equal(t, uintptr(0), table.Contents[1])

	applySegments(data, elems)
	require.Equal(t, []byte("hello"), mem.Buffer[8:13])
	require.Equal(t, byte(0xff), mem.Buffer[32])
	require.Equal(t, []uintptr{0, 0x300, 0x100, 0}, table.Contents)
}

func TestSegments_allOrNothing(t *testing.T) {
	mem := wasm.NewMemoryInstance(&wasm.MemoryType{Min: 1})
	m := &wasm.Module{
		DataSegments: []*wasm.DataSegment{
			{MemoryIndex: 0, Offset: wasm.I32Const(0), Init: []byte("written never")},
			// Ends one byte past the end of the single page.
			{MemoryIndex: 0, Offset: wasm.I32Const(wasm.MemoryPageSize - 1), Init: []byte{1, 2}},
		},
	}

	_, _, err := validateSegments(m, []*wasm.MemoryInstance{mem}, nil, nil, nil)
	require.ErrorIs(t, err, wasm.ErrSegmentOutOfBounds)

	// The earlier, in-bounds segment was not applied.
	for _, b := range mem.Buffer[:16] {
		require.Equal(t, byte(0), b)
	}
}

func TestSegments_validationErrors(t *testing.T) {
	mem := wasm.NewMemoryInstance(&wasm.MemoryType{Min: 1})
	table := wasm.NewTableInstance(&wasm.TableType{Min: 2})
	memories := []*wasm.MemoryInstance{mem}
	tables := []*wasm.TableInstance{table}

	t.Run("bad memory index", func(t *testing.T) {
		m := &wasm.Module{DataSegments: []*wasm.DataSegment{
			{MemoryIndex: 1, Offset: wasm.I32Const(0), Init: []byte{1}},
		}}
		_, _, err := validateSegments(m, memories, tables, nil, nil)
		require.ErrorIs(t, err, wasm.ErrInvalidMemoryIndex)
	})

	t.Run("bad table index", func(t *testing.T) {
		m := &wasm.Module{ElementSegments: []*wasm.ElementSegment{
			{TableIndex: 1, Offset: wasm.I32Const(0)},
		}}
		_, _, err := validateSegments(m, memories, tables, nil, nil)
		require.ErrorIs(t, err, wasm.ErrInvalidTableIndex)
	})

	t.Run("bad data offset expression", func(t *testing.T) {
		m := &wasm.Module{DataSegments: []*wasm.DataSegment{
			{MemoryIndex: 0, Offset: wasm.GetGlobal(5), Init: []byte{1}},
		}}
		_, _, err := validateSegments(m, memories, tables, []uint64{1}, nil)
		require.ErrorIs(t, err, wasm.ErrBadGlobalInit)
	})

	t.Run("element out of bounds", func(t *testing.T) {
		m := &wasm.Module{ElementSegments: []*wasm.ElementSegment{
			{TableIndex: 0, Offset: wasm.I32Const(1), FunctionIndexes: []wasm.Index{0, 0}},
		}}
		_, _, err := validateSegments(m, memories, tables, nil, []uintptr{0x1})
		require.ErrorIs(t, err, wasm.ErrSegmentOutOfBounds)
	})

	t.Run("element function index out of range", func(t *testing.T) {
		m := &wasm.Module{ElementSegments: []*wasm.ElementSegment{
			{TableIndex: 0, Offset: wasm.I32Const(0), FunctionIndexes: []wasm.Index{3}},
		}}
		_, _, err := validateSegments(m, memories, tables, nil, []uintptr{0x1, 0x2})
		require.ErrorIs(t, err, wasm.ErrInvalidFunctionIndex)
	})

	t.Run("empty segment at memory end is in bounds", func(t *testing.T) {
		m := &wasm.Module{DataSegments: []*wasm.DataSegment{
			{MemoryIndex: 0, Offset: wasm.I32Const(wasm.MemoryPageSize)},
		}}
		_, _, err := validateSegments(m, memories, tables, nil, nil)
		require.NoError(t, err)
	})
}
