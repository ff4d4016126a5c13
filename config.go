package wasmlink

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// ABI selects an optional compatibility shim applied after linking.
type ABI int

const (
	// ABINone applies no shim. The zero value.
	ABINone ABI = iota
	// ABIEmscripten resolves the well-known emscripten allocator exports
	// (_malloc, _free, _memalign, _memset, stackAlloc) so embedders can
	// manage guest memory without dictionary lookups per call.
	ABIEmscripten
)

// config collects the options applied by NewEngine. The zero value is a
// strict engine: nothing mocked, no shim, no cache, silent.
type config struct {
	mockImports bool
	mockGlobals bool
	mockTables  bool
	abi         ABI
	progress    func(completed, total uint32)
	workers     int
	cacheDir    string
	logger      *zap.Logger
	metrics     prometheus.Registerer
}

func newConfig() *config {
	return &config{}
}

// Option configures an Engine under construction.
type Option func(*config)

// WithMockMissingImports binds absent function imports to a stub returning
// zero instead of failing the link. Useful for running modules whose host
// functions are irrelevant to the caller, at the cost of silently wrong
// results if one is actually reached.
func WithMockMissingImports(enabled bool) Option {
	return func(c *config) { c.mockImports = enabled }
}

// WithMockMissingGlobals substitutes zero for absent global imports.
func WithMockMissingGlobals(enabled bool) Option {
	return func(c *config) { c.mockGlobals = enabled }
}

// WithMockMissingTables is accepted for configuration compatibility. Table
// imports are never mocked; a missing one always fails the link.
func WithMockMissingTables(enabled bool) Option {
	return func(c *config) { c.mockTables = enabled }
}

// WithABI selects a compatibility shim. Defaults to ABINone.
func WithABI(abi ABI) Option {
	return func(c *config) { c.abi = abi }
}

// WithProgress registers an observer for compilation progress. It is called
// with the number of function bodies finished so far and the total, from
// compilation pool goroutines.
func WithProgress(fn func(completed, total uint32)) Option {
	return func(c *config) { c.progress = fn }
}

// WithCompilationWorkers bounds the compilation pool. Zero or negative means
// one worker per CPU.
func WithCompilationWorkers(n int) Option {
	return func(c *config) { c.workers = n }
}

// WithCompilationCacheDir persists compiled function bodies under dir,
// keyed by backend identity and IR content, so later engines over the same
// directory skip the backend for unchanged functions. The directory is
// created if absent. Corrupt or stale entries are treated as misses.
func WithCompilationCacheDir(dir string) Option {
	return func(c *config) { c.cacheDir = dir }
}

// WithLogger overrides the package-level logger for this engine.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// WithMetrics registers the engine's counters with reg. Use a distinct
// registerer per engine; registering two engines with one panics.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(c *config) { c.metrics = reg }
}
