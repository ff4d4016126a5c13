package engine

import (
	"fmt"

	"github.com/wasmlink/wasmlink/wasm"
)

// initGlobals lays out the global slot region: imported values first, then
// local globals evaluated in declaration order. A get-global initializer may
// only reference a slot that is already written, which makes every read
// defined; forward and out-of-range references fail the link.
func initGlobals(m *wasm.Module, imported []uint64) ([]uint64, error) {
	globals := make([]uint64, 0, len(imported)+len(m.Globals))
	globals = append(globals, imported...)

	for j, g := range m.Globals {
		switch g.Init.Kind {
		case wasm.GlobalInitI32Const, wasm.GlobalInitI64Const,
			wasm.GlobalInitF32Const, wasm.GlobalInitF64Const:
			globals = append(globals, g.Init.Value)
		case wasm.GlobalInitGetGlobal:
			src := g.Init.Index
			if int(src) >= len(globals) {
				return nil, fmt.Errorf("%w: global %d references global %d, initialized so far: %d",
					wasm.ErrBadGlobalInit, len(imported)+j, src, len(globals))
			}
			globals = append(globals, globals[src])
		default:
			return nil, fmt.Errorf("%w: global %d has initializer kind %d",
				wasm.ErrBadGlobalInit, len(imported)+j, g.Init.Kind)
		}
	}
	return globals, nil
}

// evalOffset evaluates a segment offset expression against the initialized
// global slots. Only the i32 constant and get-global forms are valid here.
func evalOffset(init wasm.GlobalInit, globals []uint64) (uint32, error) {
	switch init.Kind {
	case wasm.GlobalInitI32Const:
		return uint32(init.Value), nil
	case wasm.GlobalInitGetGlobal:
		if int(init.Index) >= len(globals) {
			return 0, fmt.Errorf("%w: offset references global %d, have %d",
				wasm.ErrBadGlobalInit, init.Index, len(globals))
		}
		return uint32(globals[init.Index]), nil
	default:
		return 0, fmt.Errorf("%w: offset expression kind %d", wasm.ErrBadGlobalInit, init.Kind)
	}
}
