package engine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmlink/wasmlink/internal/testing/backendtest"
	"github.com/wasmlink/wasmlink/wasm"
)

func TestNew_nilBackend(t *testing.T) {
	_, err := New(nil, Config{})
	require.ErrorContains(t, err, "nil backend")
}

// A backend from another layout generation is refused before anything is
// assembled or mapped.
func TestNew_layoutVersionMismatch(t *testing.T) {
	_, err := New(&backendtest.Fake{LayoutVersion: 99}, Config{})
	require.ErrorIs(t, err, wasm.ErrLayoutVersion)
	require.ErrorContains(t, err, "99")
}

func TestValueSlotCount(t *testing.T) {
	require.Equal(t, uint32(16), valueSlotCount(nil))
	require.Equal(t, uint32(16), valueSlotCount([]*wasm.FunctionType{nil, {}}))

	wide := &wasm.FunctionType{Params: make([]wasm.ValueType, 23)}
	require.Equal(t, uint32(23), valueSlotCount([]*wasm.FunctionType{wide}))

	wideResults := &wasm.FunctionType{Results: make([]wasm.ValueType, 31)}
	require.Equal(t, uint32(31), valueSlotCount([]*wasm.FunctionType{wide, wideResults}))
}

func TestInstanceRegistry(t *testing.T) {
	e := &Engine{instances: map[uint64]*Instance{}}

	a, b := &Instance{}, &Instance{}
	ha, err := e.registerInstance(a)
	require.NoError(t, err)
	hb, err := e.registerInstance(b)
	require.NoError(t, err)
	require.NotEqual(t, ha, hb)

	require.Same(t, a, e.instanceForHandle(ha))
	require.Same(t, b, e.instanceForHandle(hb))
	require.Nil(t, e.instanceForHandle(999))

	e.unregisterInstance(ha)
	require.Nil(t, e.instanceForHandle(ha))
	require.Same(t, b, e.instanceForHandle(hb))

	// Handles are never reused, so a stale one cannot alias a new instance.
	hc, err := e.registerInstance(&Instance{})
	require.NoError(t, err)
	require.NotEqual(t, ha, hc)

	e.closed = true
	_, err = e.registerInstance(&Instance{})
	require.ErrorIs(t, err, wasm.ErrEngineClosed)
}
