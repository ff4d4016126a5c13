//go:build !amd64

package engine

import (
	"fmt"
	"runtime"
)

// newStubs fails on architectures without a stub emitter, which fails engine
// construction before any native path can be reached.
func newStubs() (*stubs, error) {
	return nil, fmt.Errorf("native execution is not supported on %s", runtime.GOARCH)
}
