//go:build amd64

package engine

// This file assembles the engine's shared stubs for amd64 targets.
// Note that the x86 pkg prefixes instructions with "A",
// e.g. MOVQ is given as x86.AMOVQ.

import (
	"fmt"
	"unsafe"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/internal/platform"
)

// reservedRegisterForContext holds the runtime context address for the whole
// native episode. nativecall loads it; generated code and the stubs address
// context fields relative to it.
const reservedRegisterForContext = x86.REG_R13

// newStubs assembles every stub into one builder, places the result in a
// single executable mapping, and reads each stub's entry offset back from
// its first instruction.
func newStubs() (*stubs, error) {
	b, err := asm.NewBuilder("amd64", 1024)
	if err != nil {
		return nil, fmt.Errorf("failed to create an assembly builder: %w", err)
	}

	var firsts [numBuiltins + 2]*obj.Prog
	for k := uint32(0); k < numBuiltins; k++ {
		firsts[k] = emitExitStub(b, k)
	}
	firsts[numBuiltins] = emitMockStub(b)
	firsts[numBuiltins+1] = emitProbestackStub(b)

	seg, err := platform.MmapCodeSegment(b.Assemble())
	if err != nil {
		return nil, err
	}
	if err = platform.FinalizeCodeSegment(seg); err != nil {
		_ = platform.MunmapCodeSegment(seg)
		return nil, err
	}

	// Instruction offsets (Prog.Pc) are resolved by Assemble above.
	base := uintptr(unsafe.Pointer(&seg[0]))
	s := &stubs{seg: seg}
	for k := range s.exits {
		s.exits[k] = base + uintptr(firsts[k].Pc)
	}
	s.mock = base + uintptr(firsts[numBuiltins].Pc)
	s.probestack = base + uintptr(firsts[numBuiltins+1].Pc)
	return s, nil
}

// emitExitStub emits the transfer sequence for builtin k:
//
//	POPQ AX                      // the caller's resume address
//	MOVQ AX, continuation(R13)
//	MOVL $k, builtinIndex(R13)
//	MOVL $callBuiltin, statusCode(R13)
//	RET                          // lands on the host's return address
//
// The calling convention requires builtin call sites to execute with the
// entry stack, so after the POPQ the top of stack is the host's return
// address and the RET exits the episode.
func emitExitStub(b *asm.Builder, k uint32) *obj.Prog {
	pop := b.NewProg()
	pop.As = x86.APOPQ
	pop.To.Type = obj.TYPE_REG
	pop.To.Reg = x86.REG_AX
	b.AddInstruction(pop)

	store := b.NewProg()
	store.As = x86.AMOVQ
	store.From.Type = obj.TYPE_REG
	store.From.Reg = x86.REG_AX
	store.To.Type = obj.TYPE_MEM
	store.To.Reg = reservedRegisterForContext
	store.To.Offset = codegen.ContextContinuationOffset
	b.AddInstruction(store)

	emitContextStore32(b, int64(k), codegen.ContextBuiltinIndexOffset)
	emitContextStore32(b, int64(codegen.StatusCallBuiltin), codegen.ContextStatusCodeOffset)
	emitRet(b)
	return pop
}

// emitMockStub emits the body bound for mocked function imports: store zero
// into value slot 0, report a completed status, and return to the caller.
// When the mock is the whole episode the status ends it; when it is called
// mid-episode the caller overwrites the status before its own return.
func emitMockStub(b *asm.Builder) *obj.Prog {
	load := b.NewProg()
	load.As = x86.AMOVQ
	load.From.Type = obj.TYPE_MEM
	load.From.Reg = reservedRegisterForContext
	load.From.Offset = codegen.ContextValueSlotsBaseOffset
	load.To.Type = obj.TYPE_REG
	load.To.Reg = x86.REG_AX
	b.AddInstruction(load)

	zero := b.NewProg()
	zero.As = x86.AMOVQ
	zero.From.Type = obj.TYPE_CONST
	zero.From.Offset = 0
	zero.To.Type = obj.TYPE_MEM
	zero.To.Reg = x86.REG_AX
	b.AddInstruction(zero)

	emitContextStore32(b, int64(codegen.StatusReturned), codegen.ContextStatusCodeOffset)
	emitRet(b)
	return load
}

// emitProbestackStub emits a bare return.
func emitProbestackStub(b *asm.Builder) *obj.Prog {
	return emitRet(b)
}

func emitContextStore32(b *asm.Builder, v int64, offset int64) *obj.Prog {
	p := b.NewProg()
	p.As = x86.AMOVL
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = v
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = reservedRegisterForContext
	p.To.Offset = offset
	b.AddInstruction(p)
	return p
}

func emitRet(b *asm.Builder) *obj.Prog {
	p := b.NewProg()
	p.As = obj.ARET
	b.AddInstruction(p)
	return p
}
