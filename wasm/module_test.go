package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestModule_GetExport(t *testing.T) {
	m := &Module{
		Exports: map[string]*Export{
			"add": {Name: "add", Kind: ExternKindFunction, Index: 0},
			"mem": {Name: "mem", Kind: ExternKindMemory, Index: 0},
		},
	}

	exp, err := m.GetExport("add", ExternKindFunction)
	require.NoError(t, err)
	require.Equal(t, Index(0), exp.Index)

	_, err = m.GetExport("missing", ExternKindFunction)
	require.EqualError(t, err, `"missing" is not exported`)

	_, err = m.GetExport("mem", ExternKindFunction)
	require.EqualError(t, err, `export "mem" is a memory, not a function`)
}

func TestModule_TypeOfFunction(t *testing.T) {
	i32i32_i32 := &FunctionType{
		Params:  []ValueType{ValueTypeI32, ValueTypeI32},
		Results: []ValueType{ValueTypeI32},
	}
	v_v := &FunctionType{}
	m := &Module{
		ImportedFunctions: []*ImportedFunction{
			{Module: "env", Field: "f", Type: v_v},
			{Module: "env", Field: "untyped"},
		},
		Functions: []*Function{{Type: i32i32_i32}},
	}

	require.Equal(t, uint32(2), m.NumImportedFunctions())
	require.Equal(t, uint32(3), m.NumFunctions())

	require.Equal(t, v_v, m.TypeOfFunction(0))
	require.Nil(t, m.TypeOfFunction(1))
	require.Equal(t, i32i32_i32, m.TypeOfFunction(2))
	require.Nil(t, m.TypeOfFunction(3))
}
