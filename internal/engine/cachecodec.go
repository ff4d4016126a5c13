package engine

import (
	"encoding/binary"
	"fmt"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/wasm"

	"github.com/OneOfOne/xxhash"
)

// Cache entry encoding:
//
//	"WLNK" | layout version (u32) | xxhash64 of payload (u64) | payload
//
// where payload is the zstd-compressed serialization of the compiled
// function: body length and bytes, then each relocation record. All integers
// little-endian. The checksum guards the file content; the layout version
// makes entries from an incompatible generation read as misses.
const cacheHeader = "WLNK"

func (e *Engine) serializeCompiledFunction(cf *codegen.CompiledFunction) []byte {
	plain := make([]byte, 0, 8+len(cf.Body)+len(cf.Relocs)*24)
	plain = binary.LittleEndian.AppendUint32(plain, uint32(len(cf.Body)))
	plain = append(plain, cf.Body...)
	plain = binary.LittleEndian.AppendUint32(plain, uint32(len(cf.Relocs)))
	for i := range cf.Relocs {
		r := &cf.Relocs[i]
		plain = binary.LittleEndian.AppendUint32(plain, r.Offset)
		plain = append(plain, byte(r.Kind), byte(r.Target.Kind))
		plain = binary.LittleEndian.AppendUint32(plain, uint32(r.Target.Index))
		plain = append(plain, byte(r.Target.Lib))
		plain = binary.LittleEndian.AppendUint16(plain, uint16(len(r.Target.Name)))
		plain = append(plain, r.Target.Name...)
		plain = binary.LittleEndian.AppendUint64(plain, uint64(r.Addend))
	}
	payload := e.zenc.EncodeAll(plain, nil)

	out := make([]byte, 0, len(cacheHeader)+12+len(payload))
	out = append(out, cacheHeader...)
	out = binary.LittleEndian.AppendUint32(out, codegen.ContextLayoutVersion)
	out = binary.LittleEndian.AppendUint64(out, xxhash.Checksum64(payload))
	out = append(out, payload...)
	return out
}

// deserializeCompiledFunction decodes a cache entry. Any defect, from a
// foreign header to trailing garbage, is an error; the caller treats it as a
// miss and purges the entry.
func (e *Engine) deserializeCompiledFunction(encoded []byte) (*codegen.CompiledFunction, error) {
	if len(encoded) < len(cacheHeader)+12 {
		return nil, fmt.Errorf("cache entry truncated: %d bytes", len(encoded))
	}
	if string(encoded[:len(cacheHeader)]) != cacheHeader {
		return nil, fmt.Errorf("invalid cache entry header")
	}
	if version := binary.LittleEndian.Uint32(encoded[4:]); version != codegen.ContextLayoutVersion {
		return nil, fmt.Errorf("%w: cache entry has version %d, want %d",
			wasm.ErrLayoutVersion, version, codegen.ContextLayoutVersion)
	}
	sum := binary.LittleEndian.Uint64(encoded[8:])
	payload := encoded[16:]
	if xxhash.Checksum64(payload) != sum {
		return nil, fmt.Errorf("cache entry checksum mismatch")
	}
	plain, err := e.zdec.DecodeAll(payload, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress cache entry: %w", err)
	}

	cur := plain
	next := func(n int) (b []byte, ok bool) {
		if n < 0 || len(cur) < n {
			return nil, false
		}
		b, cur = cur[:n], cur[n:]
		return b, true
	}

	b, ok := next(4)
	if !ok {
		return nil, fmt.Errorf("cache entry truncated in body length")
	}
	body, ok := next(int(binary.LittleEndian.Uint32(b)))
	if !ok {
		return nil, fmt.Errorf("cache entry truncated in body")
	}
	b, ok = next(4)
	if !ok {
		return nil, fmt.Errorf("cache entry truncated in relocation count")
	}
	relocCount := binary.LittleEndian.Uint32(b)
	// A record is at least 21 bytes, which bounds a plausible count.
	if uint64(relocCount)*21 > uint64(len(cur)) {
		return nil, fmt.Errorf("cache entry declares %d relocations in %d bytes", relocCount, len(cur))
	}

	cf := &codegen.CompiledFunction{Body: body, Relocs: make([]codegen.Reloc, relocCount)}
	for i := range cf.Relocs {
		if b, ok = next(4); !ok {
			return nil, fmt.Errorf("cache entry truncated in relocation %d", i)
		}
		offset := binary.LittleEndian.Uint32(b)
		if b, ok = next(2); !ok {
			return nil, fmt.Errorf("cache entry truncated in relocation %d", i)
		}
		kind, targetKind := codegen.RelocKind(b[0]), codegen.TargetKind(b[1])
		if b, ok = next(4); !ok {
			return nil, fmt.Errorf("cache entry truncated in relocation %d", i)
		}
		index := wasm.Index(binary.LittleEndian.Uint32(b))
		if b, ok = next(1); !ok {
			return nil, fmt.Errorf("cache entry truncated in relocation %d", i)
		}
		lib := codegen.LibCall(b[0])
		if b, ok = next(2); !ok {
			return nil, fmt.Errorf("cache entry truncated in relocation %d", i)
		}
		name, ok := next(int(binary.LittleEndian.Uint16(b)))
		if !ok {
			return nil, fmt.Errorf("cache entry truncated in relocation %d", i)
		}
		if b, ok = next(8); !ok {
			return nil, fmt.Errorf("cache entry truncated in relocation %d", i)
		}
		cf.Relocs[i] = codegen.Reloc{
			Offset: offset,
			Kind:   kind,
			Target: codegen.RelocTarget{Kind: targetKind, Index: index, Lib: lib, Name: string(name)},
			Addend: int64(binary.LittleEndian.Uint64(b)),
		}
	}
	if len(cur) != 0 {
		return nil, fmt.Errorf("cache entry has %d trailing bytes", len(cur))
	}
	return cf, nil
}
