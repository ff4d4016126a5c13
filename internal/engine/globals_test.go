package engine

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmlink/wasmlink/wasm"
)

func TestInitGlobals(t *testing.T) {
	t.Run("imported precede locals", func(t *testing.T) {
		m := &wasm.Module{
			Globals: []*wasm.Global{
				{Type: wasm.ValueTypeI32, Init: wasm.I32Const(10)},
				{Type: wasm.ValueTypeI64, Init: wasm.I64Const(-1)},
			},
		}
		globals, err := initGlobals(m, []uint64{100, 200})
		require.NoError(t, err)
		require.Equal(t, []uint64{100, 200, 10, uint64(0xffffffffffffffff)}, globals)
	})

	t.Run("float constants store bit patterns", func(t *testing.T) {
		m := &wasm.Module{
			Globals: []*wasm.Global{
				{Type: wasm.ValueTypeF32, Init: wasm.F32Const(1.5)},
				{Type: wasm.ValueTypeF64, Init: wasm.F64Const(-2.25)},
			},
		}
		globals, err := initGlobals(m, nil)
		require.NoError(t, err)
		require.Equal(t, uint64(math.Float32bits(1.5)), globals[0])
		require.Equal(t, math.Float64bits(-2.25), globals[1])
	})

	t.Run("get_global copies imported value", func(t *testing.T) {
		m := &wasm.Module{
			Globals: []*wasm.Global{
				{Type: wasm.ValueTypeI32, Init: wasm.GetGlobal(0)},
			},
		}
		globals, err := initGlobals(m, []uint64{42})
		require.NoError(t, err)
		require.Equal(t, []uint64{42, 42}, globals)
	})

	t.Run("get_global copies earlier local", func(t *testing.T) {
		m := &wasm.Module{
			Globals: []*wasm.Global{
				{Type: wasm.ValueTypeI32, Init: wasm.I32Const(7)},
				{Type: wasm.ValueTypeI32, Init: wasm.GetGlobal(0)},
			},
		}
		globals, err := initGlobals(m, nil)
		require.NoError(t, err)
		require.Equal(t, []uint64{7, 7}, globals)
	})

	t.Run("self reference fails", func(t *testing.T) {
		m := &wasm.Module{
			Globals: []*wasm.Global{
				{Type: wasm.ValueTypeI32, Init: wasm.GetGlobal(0)},
			},
		}
		_, err := initGlobals(m, nil)
		require.ErrorIs(t, err, wasm.ErrBadGlobalInit)
	})

	t.Run("forward reference fails", func(t *testing.T) {
		m := &wasm.Module{
			Globals: []*wasm.Global{
				{Type: wasm.ValueTypeI32, Init: wasm.GetGlobal(1)},
				{Type: wasm.ValueTypeI32, Init: wasm.I32Const(1)},
			},
		}
		_, err := initGlobals(m, nil)
		require.ErrorIs(t, err, wasm.ErrBadGlobalInit)
	})

	t.Run("unknown initializer kind fails", func(t *testing.T) {
		m := &wasm.Module{
			Globals: []*wasm.Global{
				{Type: wasm.ValueTypeI32, Init: wasm.GlobalInit{Kind: wasm.GlobalInitKind(99)}},
			},
		}
		_, err := initGlobals(m, nil)
		require.ErrorIs(t, err, wasm.ErrBadGlobalInit)
	})
}

func TestEvalOffset(t *testing.T) {
	globals := []uint64{0, 0x1000}

	t.Run("i32 const", func(t *testing.T) {
		off, err := evalOffset(wasm.I32Const(24), globals)
		require.NoError(t, err)
		require.Equal(t, uint32(24), off)
	})

	t.Run("get_global", func(t *testing.T) {
		off, err := evalOffset(wasm.GetGlobal(1), globals)
		require.NoError(t, err)
		require.Equal(t, uint32(0x1000), off)
	})

	t.Run("get_global out of range", func(t *testing.T) {
		_, err := evalOffset(wasm.GetGlobal(2), globals)
		require.ErrorIs(t, err, wasm.ErrBadGlobalInit)
	})

	t.Run("i64 const is not an offset", func(t *testing.T) {
		_, err := evalOffset(wasm.I64Const(1), globals)
		require.ErrorIs(t, err, wasm.ErrBadGlobalInit)
	})
}
