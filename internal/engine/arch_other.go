//go:build !amd64

package engine

import "runtime"

// nativecall is unreachable here: newStubs fails engine construction on
// architectures without an assembly entry path.
func nativecall(codeSegment, ctx uintptr) {
	panic("BUG: nativecall on " + runtime.GOARCH)
}
