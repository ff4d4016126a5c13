package wasm

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGlobalInit_Constructors(t *testing.T) {
	tests := []struct {
		name    string
		init    GlobalInit
		expKind GlobalInitKind
		expVal  uint64
	}{
		{name: "i32", init: I32Const(-1), expKind: GlobalInitI32Const, expVal: 0xffffffff},
		{name: "i32 positive", init: I32Const(10), expKind: GlobalInitI32Const, expVal: 10},
		{name: "i64", init: I64Const(-1), expKind: GlobalInitI64Const, expVal: 0xffffffffffffffff},
		{name: "f32", init: F32Const(1.5), expKind: GlobalInitF32Const, expVal: uint64(math.Float32bits(1.5))},
		{name: "f64", init: F64Const(-2.5), expKind: GlobalInitF64Const, expVal: math.Float64bits(-2.5)},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.expKind, tc.init.Kind)
			require.Equal(t, tc.expVal, tc.init.Value)
		})
	}

	g := GetGlobal(3)
	require.Equal(t, GlobalInitGetGlobal, g.Kind)
	require.Equal(t, Index(3), g.Index)
}

func TestImportObject(t *testing.T) {
	o := NewImportObject().
		Add("env", "f", FuncValue(0x1000)).
		Add("env", "g", GlobalValue(42))

	v, ok := o.Get("env", "f")
	require.True(t, ok)
	require.Equal(t, ExternKindFunction, v.Kind)
	require.Equal(t, uintptr(0x1000), v.FuncAddr)

	v, ok = o.Get("env", "g")
	require.True(t, ok)
	require.Equal(t, ExternKindGlobal, v.Kind)
	require.Equal(t, uint64(42), v.Global)

	_, ok = o.Get("env", "missing")
	require.False(t, ok)

	// Same field name under a different module is a distinct key.
	_, ok = o.Get("other", "f")
	require.False(t, ok)

	require.Equal(t, 2, o.Len())
}
