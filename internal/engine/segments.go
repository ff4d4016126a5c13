package engine

import (
	"fmt"

	"github.com/wasmlink/wasmlink/wasm"
)

// dataPlacement and elementPlacement are validated, ready-to-write segment
// targets. The validate/apply split is the population contract: validation
// completes over every segment before the first byte is written, so a
// failing segment leaves memories and tables untouched.
type dataPlacement struct {
	dst  []byte
	init []byte
}

type elementPlacement struct {
	dst   []uintptr
	addrs []uintptr
}

// validateSegments resolves every data and element segment against its
// target: offset expressions are evaluated, ranges are bounds-checked, and
// element function indexes are resolved through the flat function index
// space. Nothing is written.
func validateSegments(m *wasm.Module, memories []*wasm.MemoryInstance, tables []*wasm.TableInstance,
	globals []uint64, funcAddrs []uintptr) ([]dataPlacement, []elementPlacement, error) {
	var data []dataPlacement
	for s, seg := range m.DataSegments {
		if int(seg.MemoryIndex) >= len(memories) {
			return nil, nil, fmt.Errorf("data segment %d: %w: %d", s, wasm.ErrInvalidMemoryIndex, seg.MemoryIndex)
		}
		offset, err := evalOffset(seg.Offset, globals)
		if err != nil {
			return nil, nil, fmt.Errorf("data segment %d: %w", s, err)
		}
		buf := memories[seg.MemoryIndex].Buffer
		end := uint64(offset) + uint64(len(seg.Init))
		if end > uint64(len(buf)) {
			return nil, nil, fmt.Errorf("data segment %d: %w: [%d, %d) exceeds memory size %d",
				s, wasm.ErrSegmentOutOfBounds, offset, end, len(buf))
		}
		data = append(data, dataPlacement{dst: buf[offset:end], init: seg.Init})
	}

	var elems []elementPlacement
	for s, seg := range m.ElementSegments {
		if int(seg.TableIndex) >= len(tables) {
			return nil, nil, fmt.Errorf("element segment %d: %w: %d", s, wasm.ErrInvalidTableIndex, seg.TableIndex)
		}
		offset, err := evalOffset(seg.Offset, globals)
		if err != nil {
			return nil, nil, fmt.Errorf("element segment %d: %w", s, err)
		}
		contents := tables[seg.TableIndex].Contents
		end := uint64(offset) + uint64(len(seg.FunctionIndexes))
		if end > uint64(len(contents)) {
			return nil, nil, fmt.Errorf("element segment %d: %w: [%d, %d) exceeds table size %d",
				s, wasm.ErrSegmentOutOfBounds, offset, end, len(contents))
		}
		addrs := make([]uintptr, len(seg.FunctionIndexes))
		for k, fi := range seg.FunctionIndexes {
			if int(fi) >= len(funcAddrs) {
				return nil, nil, fmt.Errorf("element segment %d: %w: %d", s, wasm.ErrInvalidFunctionIndex, fi)
			}
			addrs[k] = funcAddrs[fi]
		}
		elems = append(elems, elementPlacement{dst: contents[offset:end], addrs: addrs})
	}
	return data, elems, nil
}

// applySegments writes validated placements into their targets.
func applySegments(data []dataPlacement, elems []elementPlacement) {
	for _, p := range data {
		copy(p.dst, p.init)
	}
	for _, p := range elems {
		copy(p.dst, p.addrs)
	}
}
