package engine

import "github.com/wasmlink/wasmlink/wasm"

// EmscriptenData holds the resolved native addresses of the well-known
// emscripten allocator exports. Entries for absent exports stay zero.
type EmscriptenData struct {
	Malloc     uintptr
	Free       uintptr
	Memalign   uintptr
	Memset     uintptr
	StackAlloc uintptr
}

// resolveEmscripten looks up the five well-known export names once function
// addresses are final. Any subset installs the shim; with none present there
// is no shim. Beyond name and kind nothing is validated, deliberately: the
// shim is a compatibility surface, not a checker.
func resolveEmscripten(m *wasm.Module, funcAddrs []uintptr) *EmscriptenData {
	d := &EmscriptenData{}
	found := false
	resolve := func(name string, dst *uintptr) {
		exp, ok := m.Exports[name]
		if !ok || exp.Kind != wasm.ExternKindFunction || int(exp.Index) >= len(funcAddrs) {
			return
		}
		*dst = funcAddrs[exp.Index]
		found = true
	}
	resolve("_malloc", &d.Malloc)
	resolve("_free", &d.Free)
	resolve("_memalign", &d.Memalign)
	resolve("_memset", &d.Memset)
	resolve("stackAlloc", &d.StackAlloc)
	if !found {
		return nil
	}
	return d
}
