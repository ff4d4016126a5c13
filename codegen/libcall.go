package codegen

import "fmt"

// LibCall names a built-in routine reachable through TargetLibraryCall
// relocations: the float rounding primitives and the stack probe. The set is
// closed; any other library symbol fails linking.
type LibCall byte

const (
	LibCallCeilF32 LibCall = iota
	LibCallFloorF32
	LibCallTruncF32
	LibCallNearestF32
	LibCallCeilF64
	LibCallFloorF64
	LibCallTruncF64
	LibCallNearestF64
	LibCallProbestack

	// NumLibCalls is the number of defined library calls.
	NumLibCalls = int(LibCallProbestack) + 1
)

func (l LibCall) String() string {
	switch l {
	case LibCallCeilF32:
		return "ceil.f32"
	case LibCallFloorF32:
		return "floor.f32"
	case LibCallTruncF32:
		return "trunc.f32"
	case LibCallNearestF32:
		return "nearest.f32"
	case LibCallCeilF64:
		return "ceil.f64"
	case LibCallFloorF64:
		return "floor.f64"
	case LibCallTruncF64:
		return "trunc.f64"
	case LibCallNearestF64:
		return "nearest.f64"
	case LibCallProbestack:
		return "probestack"
	default:
		return fmt.Sprintf("unknown(%d)", byte(l))
	}
}
