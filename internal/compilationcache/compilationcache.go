// Package compilationcache defines the interface for caches of native code
// produced by codegen backends, plus a file system implementation.
package compilationcache

import (
	"crypto/sha256"
	"io"
)

// Cache is the interface for compilation caches. The engine keeps compiled
// code in memory for the lifetime of the instance regardless of Cache; the
// cache exists so that the compilation result survives across processes.
// Compiling function bodies is the dominant cost of instantiation, so
// long-running deployments usually want a persistent cache.
//
// Since these methods are concurrently accessed, implementations must be
// Goroutine-safe.
//
// See NewFileCache for the example implementation.
type Cache interface {
	// Get is called when the engine is trying to get the cached content.
	// Implementations are supposed to return `content` which can be used to
	// read the content passed by Add as-is. Returns ok=true if the
	// content was found on the cache. That means the content is not empty
	// if and only if ok=true. In the case of not-found, this should return
	// ok=false with err=nil. content.Close() is automatically called by
	// the caller of this Get.
	//
	// Note: the returned content does not go through the verification pass
	// applied when code is compiled from scratch. The engine layers its own
	// checksum on top, but implementors who need stronger guarantees (e.g.
	// signing) can add them around Add/Get.
	Get(key Key) (content io.ReadCloser, ok bool, err error)
	// Add is called when the engine is trying to add the new cache entry.
	// The given `content` must be un-modified, and returned as-is in Get method.
	Add(key Key, content io.Reader) (err error)
	// Delete is called when the cache on the `key` returned by Get is no longer
	// usable, and must be purged. Specifically, this happens when the entry was
	// produced by a different engine version or context layout, or fails its
	// integrity check.
	Delete(key Key) (err error)
}

// Key represents the 256-bit unique identifier assigned to each cache content.
type Key = [sha256.Size]byte
