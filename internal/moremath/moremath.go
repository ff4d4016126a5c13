// Package moremath implements the float rounding routines reachable from
// generated code as library calls, with WebAssembly-compatible semantics on
// the 32-bit variants: the operation is performed in float64 space, which is
// exact for every float32 input, and narrowed back.
package moremath

import "math"

// WasmCompatCeilF32 implements the f32 ceil operation.
func WasmCompatCeilF32(f float32) float32 {
	return float32(math.Ceil(float64(f)))
}

// WasmCompatFloorF32 implements the f32 floor operation.
func WasmCompatFloorF32(f float32) float32 {
	return float32(math.Floor(float64(f)))
}

// WasmCompatTruncF32 implements the f32 trunc operation.
func WasmCompatTruncF32(f float32) float32 {
	return float32(math.Trunc(float64(f)))
}

// WasmCompatNearestF32 implements the f32 nearest operation: round to
// nearest integer, ties to even. math.Round doesn't comply with the Wasm
// spec on ties, so this goes through math.RoundToEven. Rounding in float64
// space is exact here because every float32 at or above 2^23 is already an
// integer.
func WasmCompatNearestF32(f float32) float32 {
	return float32(math.RoundToEven(float64(f)))
}

// WasmCompatCeilF64 implements the f64 ceil operation.
func WasmCompatCeilF64(f float64) float64 {
	return math.Ceil(f)
}

// WasmCompatFloorF64 implements the f64 floor operation.
func WasmCompatFloorF64(f float64) float64 {
	return math.Floor(f)
}

// WasmCompatTruncF64 implements the f64 trunc operation.
func WasmCompatTruncF64(f float64) float64 {
	return math.Trunc(f)
}

// WasmCompatNearestF64 implements the f64 nearest operation: round to
// nearest integer, ties to even.
func WasmCompatNearestF64(f float64) float64 {
	return math.RoundToEven(f)
}
