// Package engine implements instantiation and linking: it binds imports,
// compiles function bodies through a pluggable codegen backend, places and
// relocates the native code, initializes globals and segments, and runs
// guest code through a protected native call boundary.
package engine

import (
	gocontext "context"
	"errors"
	"fmt"
	"sync"

	"github.com/klauspost/compress/zstd"
	"go.uber.org/zap"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/internal/compilationcache"
	"github.com/wasmlink/wasmlink/internal/platform"
	"github.com/wasmlink/wasmlink/wasm"
)

// Engine owns what instances share: the backend, the stub mapping, the
// compiled-code cache and the ambient stack. It is immutable after
// construction apart from the instance registry, and safe for concurrent
// use.
type Engine struct {
	backend codegen.Backend
	cfg     Config
	log     *zap.Logger
	metrics *metrics
	cache   compilationcache.Cache
	stubs   *stubs

	// zenc and zdec are only created when a cache is configured. Both are
	// safe for concurrent EncodeAll/DecodeAll use.
	zenc *zstd.Encoder
	zdec *zstd.Decoder

	mux        sync.RWMutex
	closed     bool
	instances  map[uint64]*Instance
	nextHandle uint64
}

// New validates the backend against the published runtime context layout,
// assembles the shared native stubs, and returns an engine ready to
// instantiate modules.
func New(backend codegen.Backend, cfg Config) (*Engine, error) {
	if backend == nil {
		return nil, errors.New("nil backend")
	}
	if v := backend.ContextLayoutVersion(); v != codegen.ContextLayoutVersion {
		return nil, fmt.Errorf("%w: backend %q was built against layout version %d, engine has %d",
			wasm.ErrLayoutVersion, backend.ID(), v, codegen.ContextLayoutVersion)
	}

	e := &Engine{
		backend:   backend,
		cfg:       cfg,
		log:       cfg.Logger,
		metrics:   newMetrics(cfg.Metrics),
		cache:     cfg.Cache,
		instances: map[uint64]*Instance{},
	}
	if e.log == nil {
		e.log = logger
	}
	if e.cache != nil {
		var err error
		if e.zenc, err = zstd.NewWriter(nil); err != nil {
			return nil, err
		}
		if e.zdec, err = zstd.NewReader(nil); err != nil {
			return nil, err
		}
	}

	var err error
	if e.stubs, err = newStubs(); err != nil {
		return nil, err
	}
	e.log.Debug("engine ready",
		zap.String("backend", backend.ID()),
		zap.Uint32("layout_version", codegen.ContextLayoutVersion))
	return e, nil
}

// Instantiate runs the pipeline against one module: link imports, compile
// and place every local function, relocate, initialize globals, populate
// segments, and resolve the ABI shim. The returned instance is idle; the
// caller decides when to invoke Start. The context bounds compilation; it is
// not retained.
func (e *Engine) Instantiate(ctx gocontext.Context, m *wasm.Module, imports *wasm.ImportObject) (inst *Instance, err error) {
	e.mux.RLock()
	closed := e.closed
	e.mux.RUnlock()
	if closed {
		return nil, wasm.ErrEngineClosed
	}
	e.metrics.instantiations.Inc()

	linked, err := resolveImports(m, imports, &e.cfg, e.stubs.mock)
	if err != nil {
		return nil, err
	}

	codes, err := e.compileFunctions(ctx, m)
	if err != nil {
		return nil, err
	}
	// Every error path below must give the mappings back.
	defer func() {
		if err != nil {
			releaseCodes(codes)
		}
	}()

	funcAddrs := make([]uintptr, 0, len(linked.funcAddrs)+len(codes))
	funcAddrs = append(funcAddrs, linked.funcAddrs...)
	for _, c := range codes {
		funcAddrs = append(funcAddrs, c.codeInitialAddress)
	}
	funcTypes := make([]*wasm.FunctionType, 0, len(linked.funcTypes)+len(m.Functions))
	funcTypes = append(funcTypes, linked.funcTypes...)
	for _, fn := range m.Functions {
		funcTypes = append(funcTypes, fn.Type)
	}

	if err = e.relocate(codes, funcAddrs, m.NumImportedFunctions()); err != nil {
		return nil, err
	}
	// Execute permission only after relocation wrote the final bytes.
	for _, c := range codes {
		if err = platform.FinalizeCodeSegment(c.codeSegment); err != nil {
			return nil, fmt.Errorf("failed to finalize code segment: %w", err)
		}
	}

	globals, err := initGlobals(m, linked.globals)
	if err != nil {
		return nil, err
	}

	memories := make([]*wasm.MemoryInstance, 0, len(linked.memories)+len(m.Memories))
	memories = append(memories, linked.memories...)
	for _, mt := range m.Memories {
		memories = append(memories, wasm.NewMemoryInstance(mt))
	}
	tables := make([]*wasm.TableInstance, 0, len(linked.tables)+len(m.Tables))
	tables = append(tables, linked.tables...)
	for _, tt := range m.Tables {
		tables = append(tables, wasm.NewTableInstance(tt))
	}

	data, elems, err := validateSegments(m, memories, tables, globals, funcAddrs)
	if err != nil {
		return nil, err
	}
	applySegments(data, elems)

	inst = &Instance{
		engine:    e,
		module:    m,
		funcAddrs: funcAddrs,
		funcTypes: funcTypes,
		codes:     codes,
		globals:   globals,
		memories:  memories,
		tables:    tables,
	}
	if e.cfg.Emscripten {
		inst.emscripten = resolveEmscripten(m, funcAddrs)
	}

	handle, err := e.registerInstance(inst)
	if err != nil {
		return nil, err
	}
	inst.handle = handle
	inst.buildContext(handle, valueSlotCount(funcTypes))

	e.log.Debug("module instantiated",
		zap.Uint64("handle", handle),
		zap.Uint32("functions", m.NumFunctions()),
		zap.Int("compiled", len(codes)))
	return inst, nil
}

// valueSlotCount sizes the value slot area: enough for every declared
// signature's parameters and results, never fewer than builtin traffic
// needs.
func valueSlotCount(types []*wasm.FunctionType) uint32 {
	n := 16
	for _, t := range types {
		if t == nil {
			continue
		}
		if len(t.Params) > n {
			n = len(t.Params)
		}
		if len(t.Results) > n {
			n = len(t.Results)
		}
	}
	return uint32(n)
}

func (e *Engine) registerInstance(inst *Instance) (uint64, error) {
	e.mux.Lock()
	defer e.mux.Unlock()
	if e.closed {
		return 0, wasm.ErrEngineClosed
	}
	e.nextHandle++
	e.instances[e.nextHandle] = inst
	return e.nextHandle, nil
}

func (e *Engine) unregisterInstance(h uint64) {
	e.mux.Lock()
	delete(e.instances, h)
	e.mux.Unlock()
}

// instanceForHandle resolves the opaque handle native code carries in its
// context block. Returns nil for a handle that was never issued or whose
// instance is closed.
func (e *Engine) instanceForHandle(h uint64) *Instance {
	e.mux.RLock()
	defer e.mux.RUnlock()
	return e.instances[h]
}

// Close closes every live instance, releases the shared stub mapping, and
// marks the engine unusable. Idempotent; the first error is reported after
// every release is attempted.
func (e *Engine) Close() error {
	e.mux.Lock()
	if e.closed {
		e.mux.Unlock()
		return nil
	}
	e.closed = true
	instances := make([]*Instance, 0, len(e.instances))
	for _, inst := range e.instances {
		instances = append(instances, inst)
	}
	e.instances = map[uint64]*Instance{}
	e.mux.Unlock()

	var firstErr error
	for _, inst := range instances {
		if err := inst.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.stubs != nil {
		if err := e.stubs.close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.zenc != nil {
		if err := e.zenc.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	if e.zdec != nil {
		e.zdec.Close()
	}
	return firstErr
}
