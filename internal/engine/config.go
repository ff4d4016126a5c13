package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/wasmlink/wasmlink/internal/compilationcache"
)

// Config carries the resolved options from the public package. The zero
// value is a strict engine: nothing mocked, no shim, no cache, silent.
type Config struct {
	// MockMissingImports binds absent function imports to a stub that
	// returns zero instead of failing the link.
	MockMissingImports bool
	// MockMissingGlobals substitutes zero for absent global imports.
	MockMissingGlobals bool
	// MockMissingTables is recorded for configuration compatibility. Table
	// imports are never mocked; a missing one always fails the link.
	MockMissingTables bool
	// Emscripten enables resolution of the emscripten allocator exports
	// once functions are finalized.
	Emscripten bool
	// Progress, when non-nil, observes compilation completion: it is called
	// with the number of functions finished so far and the total. Calls
	// arrive from pool goroutines.
	Progress func(completed, total uint32)
	// Workers bounds the compilation pool. Zero or negative means NumCPU.
	Workers int
	// Cache, when non-nil, persists compiled function bodies across
	// processes, keyed by backend identity and IR content.
	Cache compilationcache.Cache
	// Logger overrides the package-level logger for this engine.
	Logger *zap.Logger
	// Metrics, when non-nil, receives the engine's counters. Use a distinct
	// registerer per engine; duplicate registration panics.
	Metrics prometheus.Registerer
}
