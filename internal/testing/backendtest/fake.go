// Package backendtest provides code generator implementations for
// exercising the engine: a canned-response fake for portable unit tests, and
// on amd64 a tiny real backend whose IR is a one-byte opcode per function.
package backendtest

import (
	"fmt"
	"sync"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/wasm"
)

// Fake is a Backend returning canned artifacts keyed by the function's IR
// bytes. The zero value reports the current context layout version; set
// LayoutVersion to simulate skew.
type Fake struct {
	// Name is the backend ID, "fake" when empty.
	Name string
	// LayoutVersion overrides the reported layout version when non-zero.
	LayoutVersion uint32
	// Responses maps string(fn.IR) to the artifact Compile returns.
	Responses map[string]*codegen.CompiledFunction
	// Err, when set, fails every Compile call.
	Err error

	mu       sync.Mutex
	compiled []string
}

func (f *Fake) ID() string {
	if f.Name == "" {
		return "fake"
	}
	return f.Name
}

func (f *Fake) ContextLayoutVersion() uint32 {
	if f.LayoutVersion != 0 {
		return f.LayoutVersion
	}
	return codegen.ContextLayoutVersion
}

func (f *Fake) Compile(fn *wasm.Function) (*codegen.CompiledFunction, error) {
	f.mu.Lock()
	f.compiled = append(f.compiled, string(fn.IR))
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	cf, ok := f.Responses[string(fn.IR)]
	if !ok {
		return nil, fmt.Errorf("no canned response for IR %#x", fn.IR)
	}
	return cf, nil
}

// CompileCount returns how many Compile calls the fake has served.
func (f *Fake) CompileCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.compiled)
}
