package engine

import (
	"bytes"
	gocontext "context"
	"crypto/sha256"
	"encoding/binary"
	"fmt"
	"io"
	"runtime"
	"sync/atomic"
	"unsafe"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/internal/compilationcache"
	"github.com/wasmlink/wasmlink/internal/platform"
	"github.com/wasmlink/wasmlink/wasm"
)

// compiledCode is one local function's placed native code.
type compiledCode struct {
	// codeSegment holds the executable mapping; codeInitialAddress caches
	// the address of its first byte.
	codeSegment        []byte
	codeInitialAddress uintptr
	// relocs are applied once all placements are known, then dropped.
	relocs []codegen.Reloc
}

// compileFunctions obtains native code for every local function on a bounded
// pool and places each body in its own executable mapping. Slot j is written
// only by unit j, so the pool shares nothing but the backend and the cache.
// On failure every mapping placed so far is released.
func (e *Engine) compileFunctions(ctx gocontext.Context, m *wasm.Module) ([]*compiledCode, error) {
	codes := make([]*compiledCode, len(m.Functions))
	if len(codes) == 0 {
		return codes, nil
	}

	workers := e.cfg.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	total := uint32(len(codes))
	var completed uint32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	numImported := m.NumImportedFunctions()
	for j := range m.Functions {
		j := j
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			c, err := e.compileOne(m.Functions[j], numImported+wasm.Index(j))
			if err != nil {
				return err
			}
			codes[j] = c
			if e.cfg.Progress != nil {
				e.cfg.Progress(atomic.AddUint32(&completed, 1), total)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		releaseCodes(codes)
		return nil, err
	}
	return codes, nil
}

// compileOne serves one function body from the compilation cache or the
// backend, then places it. Cache trouble is never fatal: a bad read falls
// back to the backend, a failed write only loses persistence.
func (e *Engine) compileOne(fn *wasm.Function, flatIndex wasm.Index) (*compiledCode, error) {
	var cf *codegen.CompiledFunction
	if e.cache != nil {
		hit, err := e.cacheGet(fn)
		if err != nil {
			e.log.Debug("compilation cache read failed",
				zap.Uint32("function", uint32(flatIndex)), zap.Error(err))
		}
		if hit != nil {
			e.metrics.cacheHits.Inc()
			cf = hit
		}
	}
	if cf == nil {
		var err error
		cf, err = e.backend.Compile(fn)
		if err != nil {
			return nil, &wasm.CompileError{FunctionIndex: flatIndex, Err: err}
		}
		e.metrics.compilations.Inc()
		if len(cf.Body) == 0 {
			return nil, &wasm.CompileError{FunctionIndex: flatIndex, Err: fmt.Errorf("backend returned an empty body")}
		}
		if e.cache != nil {
			if err = e.cache.Add(e.cacheKey(fn), bytes.NewReader(e.serializeCompiledFunction(cf))); err != nil {
				e.log.Debug("compilation cache write failed",
					zap.Uint32("function", uint32(flatIndex)), zap.Error(err))
			}
		}
	}
	if len(cf.Body) == 0 {
		return nil, &wasm.CompileError{FunctionIndex: flatIndex, Err: fmt.Errorf("cached entry has an empty body")}
	}

	seg, err := platform.MmapCodeSegment(cf.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to map code for function %d: %w", flatIndex, err)
	}
	return &compiledCode{
		codeSegment:        seg,
		codeInitialAddress: uintptr(unsafe.Pointer(&seg[0])),
		relocs:             cf.Relocs,
	}, nil
}

// cacheGet reads and decodes the cache entry for fn. An entry that fails to
// decode (produced by another layout generation, or corrupted) is deleted so
// the next run recompiles without tripping over it again.
func (e *Engine) cacheGet(fn *wasm.Function) (*codegen.CompiledFunction, error) {
	key := e.cacheKey(fn)
	content, ok, err := e.cache.Get(key)
	if err != nil || !ok {
		return nil, err
	}
	defer content.Close()
	encoded, err := io.ReadAll(content)
	if err != nil {
		return nil, err
	}
	cf, err := e.deserializeCompiledFunction(encoded)
	if err != nil {
		_ = e.cache.Delete(key)
		return nil, err
	}
	return cf, nil
}

// cacheKey derives the content address of fn's compiled form: the backend
// identity, the context layout generation, and the IR bytes.
func (e *Engine) cacheKey(fn *wasm.Function) compilationcache.Key {
	h := sha256.New()
	h.Write([]byte(e.backend.ID()))
	var version [4]byte
	binary.LittleEndian.PutUint32(version[:], codegen.ContextLayoutVersion)
	h.Write(version[:])
	h.Write(fn.IR)
	var key compilationcache.Key
	copy(key[:], h.Sum(nil))
	return key
}

// releaseCodes unmaps every placed segment, tolerating nil slots left by a
// failed pool.
func releaseCodes(codes []*compiledCode) {
	for _, c := range codes {
		if c != nil {
			_ = platform.MunmapCodeSegment(c.codeSegment)
		}
	}
}
