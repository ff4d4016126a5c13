package moremath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWasmCompatNearestF32(t *testing.T) {
	tests := []struct {
		name string
		in   float32
		exp  float32
	}{
		{name: "half rounds to even down", in: 0.5, exp: 0},
		{name: "half rounds to even up", in: 1.5, exp: 2},
		{name: "negative half", in: -0.5, exp: 0},
		{name: "negative tie", in: -2.5, exp: -2},
		{name: "below half", in: 1.4, exp: 1},
		{name: "above half", in: 1.6, exp: 2},
		{name: "already integer", in: 1 << 24, exp: 1 << 24},
	}

	for _, tt := range tests {
		tc := tt
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.exp, WasmCompatNearestF32(tc.in))
		})
	}

	require.True(t, math.IsNaN(float64(WasmCompatNearestF32(float32(math.NaN())))))
	require.True(t, math.IsInf(float64(WasmCompatNearestF32(float32(math.Inf(1)))), 1))
}

func TestWasmCompatNearestF64(t *testing.T) {
	require.Equal(t, 2.0, WasmCompatNearestF64(2.5))
	require.Equal(t, -2.0, WasmCompatNearestF64(-2.5))
	require.Equal(t, 4.0, WasmCompatNearestF64(3.5))
	require.True(t, math.IsNaN(WasmCompatNearestF64(math.NaN())))
}

func TestWasmCompatRounding(t *testing.T) {
	require.Equal(t, float32(2), WasmCompatCeilF32(1.1))
	require.Equal(t, float32(-1), WasmCompatCeilF32(-1.9))
	require.Equal(t, float32(1), WasmCompatFloorF32(1.9))
	require.Equal(t, float32(-2), WasmCompatFloorF32(-1.1))
	require.Equal(t, float32(1), WasmCompatTruncF32(1.9))
	require.Equal(t, float32(-1), WasmCompatTruncF32(-1.9))

	require.Equal(t, 2.0, WasmCompatCeilF64(1.1))
	require.Equal(t, -2.0, WasmCompatFloorF64(-1.1))
	require.Equal(t, -1.0, WasmCompatTruncF64(-1.9))

	// Negative zero must survive truncation toward zero.
	require.Equal(t, math.Signbit(-0.5), math.Signbit(WasmCompatTruncF64(-0.5)))
}
