// Package wasmlink instantiates precompiled WebAssembly modules and links
// them against native code in process. A module arrives already decoded and
// already lowered to backend IR; this package binds its imports, turns each
// function body into placed executable memory through a pluggable codegen
// backend, patches the relocations between bodies and into the runtime's
// native stubs, initializes globals and data/element segments, and then runs
// guest code behind a protected call boundary that converts traps into
// ordinary errors.
//
// The entry point is NewEngine. An Engine is immutable after construction
// and safe for concurrent use; each Instantiate yields an isolated Instance
// whose guest calls are serialized internally. Instances own executable
// mappings, so Close them, and the Engine, when done.
//
//	e, err := wasmlink.NewEngine(backend)
//	if err != nil { ... }
//	defer e.Close()
//	inst, err := e.Instantiate(ctx, module, imports)
//	if err != nil { ... }
//	defer inst.Close()
//	results, err := inst.Call("add", 2, 3)
package wasmlink

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/internal/compilationcache"
	"github.com/wasmlink/wasmlink/internal/engine"
	"github.com/wasmlink/wasmlink/wasm"
)

// Engine compiles, links and instantiates modules against one codegen
// backend. All methods are safe for concurrent use.
type Engine struct {
	e *engine.Engine
}

// NewEngine validates that the backend was built against this runtime's
// context layout and assembles the shared native stubs. It fails with
// wasm.ErrLayoutVersion on layout skew, so a stale backend is rejected
// before any code is placed.
func NewEngine(backend codegen.Backend, opts ...Option) (*Engine, error) {
	cfg := newConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	ecfg := engine.Config{
		MockMissingImports: cfg.mockImports,
		MockMissingGlobals: cfg.mockGlobals,
		MockMissingTables:  cfg.mockTables,
		Emscripten:         cfg.abi == ABIEmscripten,
		Progress:           cfg.progress,
		Workers:            cfg.workers,
		Logger:             cfg.logger,
		Metrics:            cfg.metrics,
	}
	if cfg.cacheDir != "" {
		dir, err := ensureCacheDir(cfg.cacheDir)
		if err != nil {
			return nil, err
		}
		ecfg.Cache = compilationcache.NewFileCache(dir)
	}

	e, err := engine.New(backend, ecfg)
	if err != nil {
		return nil, err
	}
	return &Engine{e: e}, nil
}

// Instantiate links the module against the provided imports, compiles and
// places its functions, and initializes its runtime state. imports may be
// nil when the module declares none (or when missing imports are mocked).
// The context bounds compilation only; it is not retained by the instance.
func (e *Engine) Instantiate(ctx context.Context, m *wasm.Module, imports *wasm.ImportObject) (*Instance, error) {
	inst, err := e.e.Instantiate(ctx, m, imports)
	if err != nil {
		return nil, err
	}
	return &Instance{i: inst}, nil
}

// Close releases the engine's stub mapping and closes every instance still
// registered with it. Idempotent.
func (e *Engine) Close() error {
	return e.e.Close()
}

// Instance is one live instantiation of a module. Guest calls are
// serialized; Close releases the executable mappings and is required, not
// left to a finalizer.
type Instance struct {
	i *engine.Instance
}

// Start runs the module's start function under a protected call: the
// declared start index when present, else an export named "main" of function
// kind, else it succeeds without running anything.
func (i *Instance) Start() error {
	return i.i.Start()
}

// Call invokes an exported function. Parameters and results travel as 8-byte
// slot values; floats are passed as their IEEE-754 bit patterns.
func (i *Instance) Call(name string, params ...uint64) ([]uint64, error) {
	return i.i.Call(name, params...)
}

// FunctionAddress returns the native entry point of the function at the flat
// index: imported functions first, then local functions.
func (i *Instance) FunctionAddress(idx wasm.Index) (uintptr, error) {
	return i.i.FunctionAddress(idx)
}

// Memory returns the memory instance at the index, imported memories first.
func (i *Instance) Memory(idx wasm.Index) (*wasm.MemoryInstance, error) {
	return i.i.Memory(idx)
}

// InspectMemory returns a view of length bytes at addr. The view aliases the
// live buffer and is invalidated by memory growth.
func (i *Instance) InspectMemory(memIdx wasm.Index, addr, length uint32) ([]byte, error) {
	return i.i.InspectMemory(memIdx, addr, length)
}

// MemoryOffsetAddr returns the native address of the byte at offset,
// invalidated by memory growth like InspectMemory views.
func (i *Instance) MemoryOffsetAddr(memIdx wasm.Index, offset uint32) (uintptr, error) {
	return i.i.MemoryOffsetAddr(memIdx, offset)
}

// GlobalValue returns the raw 8-byte value of the global at the index,
// imported globals first.
func (i *Instance) GlobalValue(idx wasm.Index) (uint64, error) {
	return i.i.GlobalValue(idx)
}

// Exports lists the module's exports by name and kind.
func (i *Instance) Exports() map[string]wasm.ExternKind {
	return i.i.Exports()
}

// EmscriptenData reports the well-known allocator entry points resolved by
// the emscripten ABI shim. ok is false unless the shim was enabled via
// WithABI(ABIEmscripten) and at least one known export resolved.
func (i *Instance) EmscriptenData() (*EmscriptenData, bool) {
	return i.i.EmscriptenData()
}

// Close unmaps the instance's executable code and unregisters it from the
// engine. Idempotent; all other methods fail with wasm.ErrInstanceClosed
// afterwards.
func (i *Instance) Close() error {
	return i.i.Close()
}

// EmscriptenData holds the native addresses of the emscripten allocator
// exports; zero means the export was absent.
type EmscriptenData = engine.EmscriptenData

// SetLogger replaces the logger used by engines constructed without
// WithLogger. Call it before NewEngine; engines capture the logger at
// construction. Passing nil is a no-op.
func SetLogger(l *zap.Logger) {
	engine.SetLogger(l)
}

// Logger returns the logger engines are constructed with by default.
func Logger() *zap.Logger {
	return engine.Logger()
}

// ensureCacheDir resolves the configured cache directory to an absolute
// path, creating it when absent.
func ensureCacheDir(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if st, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		if err = os.MkdirAll(dir, 0o700); err != nil {
			return "", fmt.Errorf("create compilation cache directory: %w", err)
		}
	} else if err != nil {
		return "", err
	} else if !st.IsDir() {
		return "", fmt.Errorf("compilation cache path %s is not a directory", dir)
	}
	return dir, nil
}
