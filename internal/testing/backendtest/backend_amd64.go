//go:build amd64

package backendtest

// This file lowers the test ISA to amd64 machine code.
// Note that the x86 pkg prefixes instructions with "A",
// e.g. MOVQ is given as x86.AMOVQ.

import (
	"encoding/binary"
	"fmt"

	asm "github.com/twitchyliquid64/golang-asm"
	"github.com/twitchyliquid64/golang-asm/obj"
	"github.com/twitchyliquid64/golang-asm/obj/x86"

	"github.com/wasmlink/wasmlink/codegen"
	"github.com/wasmlink/wasmlink/wasm"
)

const contextReg = x86.REG_R13

// New returns the test ISA backend for the running architecture.
func New() codegen.Backend { return testISA{} }

type testISA struct{}

func (testISA) ID() string { return "testisa-amd64-v1" }

func (testISA) ContextLayoutVersion() uint32 { return codegen.ContextLayoutVersion }

func (testISA) Compile(fn *wasm.Function) (*codegen.CompiledFunction, error) {
	if len(fn.IR) == 0 {
		return nil, fmt.Errorf("empty IR")
	}
	bb := &bodyBuilder{}
	var err error
	switch op := fn.IR[0]; op {
	case OpAdd32:
		err = bb.asm(func(b *asm.Builder) {
			loadSlotsBase(b, x86.REG_AX)
			// The 32-bit add clears the upper half of CX, so the full-width
			// store zero-extends the result into the slot.
			loadSlot32(b, x86.REG_AX, 0, x86.REG_CX)
			addSlot32(b, x86.REG_AX, 1, x86.REG_CX)
			storeSlot64(b, x86.REG_AX, 0, x86.REG_CX)
			storeStatus(b, codegen.StatusReturned)
			ret(b)
		})

	case OpConst64:
		if len(fn.IR) != 9 {
			return nil, fmt.Errorf("const64 needs an 8-byte immediate, IR is %d bytes", len(fn.IR))
		}
		v := binary.LittleEndian.Uint64(fn.IR[1:])
		err = bb.asm(func(b *asm.Builder) {
			moveImm64(b, int64(v), x86.REG_AX)
			loadSlotsBase(b, x86.REG_CX)
			storeSlot64(b, x86.REG_CX, 0, x86.REG_AX)
			storeStatus(b, codegen.StatusReturned)
			ret(b)
		})

	case OpCall:
		if len(fn.IR) != 5 {
			return nil, fmt.Errorf("call needs a 4-byte function index, IR is %d bytes", len(fn.IR))
		}
		bb.call(codegen.DirectCall(binary.LittleEndian.Uint32(fn.IR[1:])))
		err = bb.epilogue()

	case OpGrowMemory:
		err = bb.asm(func(b *asm.Builder) {
			loadSlotsBase(b, x86.REG_AX)
			storeSlotImm(b, x86.REG_AX, 1, 0) // memory index
		})
		if err == nil {
			bb.call(codegen.GrowMemory())
			err = bb.epilogue()
		}

	case OpMemorySize:
		err = bb.asm(func(b *asm.Builder) {
			loadSlotsBase(b, x86.REG_AX)
			storeSlotImm(b, x86.REG_AX, 0, 0) // memory index
		})
		if err == nil {
			bb.call(codegen.CurrentMemory())
			err = bb.epilogue()
		}

	case OpCeilF32:
		bb.call(codegen.Library(codegen.LibCallCeilF32))
		err = bb.epilogue()

	case OpUnreachable:
		err = bb.asm(func(b *asm.Builder) {
			storeStatus(b, codegen.StatusTrapUnreachable)
			ret(b)
		})

	case OpGrowRaw:
		bb.call(codegen.GrowMemory())
		err = bb.epilogue()

	default:
		return nil, fmt.Errorf("unknown opcode %#x", op)
	}
	if err != nil {
		return nil, err
	}
	return &codegen.CompiledFunction{Body: bb.code, Relocs: bb.relocs}, nil
}

// bodyBuilder accumulates a function body from assembled fragments and raw
// call sites. Fragments must be position independent; the only
// position-dependent bytes are call displacements, which are left zero and
// covered by relocation records.
type bodyBuilder struct {
	code   []byte
	relocs []codegen.Reloc
}

func (bb *bodyBuilder) asm(emit func(*asm.Builder)) error {
	b, err := asm.NewBuilder("amd64", 64)
	if err != nil {
		return fmt.Errorf("failed to create an assembly builder: %w", err)
	}
	emit(b)
	bb.code = append(bb.code, b.Assemble()...)
	return nil
}

// call appends a near call with a zero displacement and records the
// relocation that will fill it in.
func (bb *bodyBuilder) call(target codegen.RelocTarget) {
	bb.relocs = append(bb.relocs, codegen.Reloc{
		Offset: uint32(len(bb.code)) + 1,
		Kind:   codegen.RelocPCRelativeWrite4,
		Target: target,
		// The displacement is relative to the next instruction, 4 bytes
		// past the site.
		Addend: -4,
	})
	bb.code = append(bb.code, 0xe8, 0, 0, 0, 0)
}

func (bb *bodyBuilder) epilogue() error {
	return bb.asm(func(b *asm.Builder) {
		storeStatus(b, codegen.StatusReturned)
		ret(b)
	})
}

// loadSlotsBase loads the value slot base address into reg.
func loadSlotsBase(b *asm.Builder, reg int16) {
	p := b.NewProg()
	p.As = x86.AMOVQ
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = contextReg
	p.From.Offset = codegen.ContextValueSlotsBaseOffset
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	b.AddInstruction(p)
}

// loadSlot32 loads the low 32 bits of slot i into dst, zero-extended.
func loadSlot32(b *asm.Builder, base int16, slot int64, dst int16) {
	p := b.NewProg()
	p.As = x86.AMOVL
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = base
	p.From.Offset = slot * codegen.ValueSlotSize
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	b.AddInstruction(p)
}

// addSlot32 adds the low 32 bits of slot i into dst.
func addSlot32(b *asm.Builder, base int16, slot int64, dst int16) {
	p := b.NewProg()
	p.As = x86.AADDL
	p.From.Type = obj.TYPE_MEM
	p.From.Reg = base
	p.From.Offset = slot * codegen.ValueSlotSize
	p.To.Type = obj.TYPE_REG
	p.To.Reg = dst
	b.AddInstruction(p)
}

// storeSlot64 stores src into slot i.
func storeSlot64(b *asm.Builder, base int16, slot int64, src int16) {
	p := b.NewProg()
	p.As = x86.AMOVQ
	p.From.Type = obj.TYPE_REG
	p.From.Reg = src
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = base
	p.To.Offset = slot * codegen.ValueSlotSize
	b.AddInstruction(p)
}

// storeSlotImm stores a small immediate into slot i.
func storeSlotImm(b *asm.Builder, base int16, slot int64, v int32) {
	p := b.NewProg()
	p.As = x86.AMOVQ
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = int64(v)
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = base
	p.To.Offset = slot * codegen.ValueSlotSize
	b.AddInstruction(p)
}

// moveImm64 loads a full 64-bit immediate into reg.
func moveImm64(b *asm.Builder, v int64, reg int16) {
	p := b.NewProg()
	p.As = x86.AMOVQ
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = v
	p.To.Type = obj.TYPE_REG
	p.To.Reg = reg
	b.AddInstruction(p)
}

func storeStatus(b *asm.Builder, s codegen.StatusCode) {
	p := b.NewProg()
	p.As = x86.AMOVL
	p.From.Type = obj.TYPE_CONST
	p.From.Offset = int64(s)
	p.To.Type = obj.TYPE_MEM
	p.To.Reg = contextReg
	p.To.Offset = codegen.ContextStatusCodeOffset
	b.AddInstruction(p)
}

func ret(b *asm.Builder) {
	p := b.NewProg()
	p.As = obj.ARET
	b.AddInstruction(p)
}
