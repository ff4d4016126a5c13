package wasmlink

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmlink/wasmlink/internal/testing/backendtest"
	"github.com/wasmlink/wasmlink/wasm"
)

func TestNewEngine_nilBackend(t *testing.T) {
	_, err := NewEngine(nil)
	require.EqualError(t, err, "nil backend")
}

func TestNewEngine_layoutVersionSkew(t *testing.T) {
	_, err := NewEngine(&backendtest.Fake{LayoutVersion: 99})
	require.ErrorIs(t, err, wasm.ErrLayoutVersion)
}

func TestNewEngine_cacheDirIsAFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "occupied")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o600))

	_, err := NewEngine(&backendtest.Fake{}, WithCompilationCacheDir(path))
	require.ErrorContains(t, err, "not a directory")
}

func TestEnsureCacheDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")

	got, err := ensureCacheDir(dir)
	require.NoError(t, err)
	require.True(t, filepath.IsAbs(got))
	st, err := os.Stat(got)
	require.NoError(t, err)
	require.True(t, st.IsDir())

	// Existing directories are accepted as-is.
	again, err := ensureCacheDir(dir)
	require.NoError(t, err)
	require.Equal(t, got, again)
}

func TestOptions(t *testing.T) {
	progress := func(completed, total uint32) {}
	cfg := newConfig()
	for _, opt := range []Option{
		WithMockMissingImports(true),
		WithMockMissingGlobals(true),
		WithMockMissingTables(true),
		WithABI(ABIEmscripten),
		WithProgress(progress),
		WithCompilationWorkers(3),
		WithCompilationCacheDir("/tmp/wasmlink-cache"),
	} {
		opt(cfg)
	}

	require.True(t, cfg.mockImports)
	require.True(t, cfg.mockGlobals)
	require.True(t, cfg.mockTables)
	require.Equal(t, ABIEmscripten, cfg.abi)
	require.NotNil(t, cfg.progress)
	require.Equal(t, 3, cfg.workers)
	require.Equal(t, "/tmp/wasmlink-cache", cfg.cacheDir)
}
