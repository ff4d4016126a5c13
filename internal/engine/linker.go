package engine

import (
	"fmt"

	"github.com/wasmlink/wasmlink/wasm"
)

// linkedImports holds the resolved imported prefix of each index space, in
// declaration order.
type linkedImports struct {
	// funcAddrs are the native addresses bound for imported functions;
	// mocked entries hold the engine's mock stub. funcTypes carry the
	// signature known for each, nil when neither side declared one.
	funcAddrs []uintptr
	funcTypes []*wasm.FunctionType

	// globals are the imported global slot values.
	globals []uint64

	memories []*wasm.MemoryInstance
	tables   []*wasm.TableInstance
}

func linkErr(module, field string, err error) error {
	return &wasm.LinkError{Module: module, Field: field, Err: err}
}

// resolveImports walks the module's declared imports against the caller's
// import object. Mock settings substitute for absent function and global
// imports only; a present value of the wrong kind always fails, and memory
// and table imports always require a real value. Guest code never runs here.
func resolveImports(m *wasm.Module, imports *wasm.ImportObject, cfg *Config, mockAddr uintptr) (*linkedImports, error) {
	if imports == nil {
		imports = wasm.NewImportObject()
	}
	li := &linkedImports{}

	for _, imp := range m.ImportedFunctions {
		v, ok := imports.Get(imp.Module, imp.Field)
		if !ok {
			if cfg.MockMissingImports {
				li.funcAddrs = append(li.funcAddrs, mockAddr)
				li.funcTypes = append(li.funcTypes, imp.Type)
				continue
			}
			return nil, linkErr(imp.Module, imp.Field, wasm.ErrImportNotFound)
		}
		if v.Kind != wasm.ExternKindFunction {
			return nil, linkErr(imp.Module, imp.Field,
				fmt.Errorf("%w: have %s, want %s", wasm.ErrImportKindMismatch, v.Kind, wasm.ExternKindFunction))
		}
		if imp.Type != nil && v.FuncType != nil && !imp.Type.Equals(v.FuncType) {
			return nil, linkErr(imp.Module, imp.Field,
				fmt.Errorf("%w: have %s, want %s", wasm.ErrImportSignatureMismatch, v.FuncType, imp.Type))
		}
		typ := imp.Type
		if typ == nil {
			typ = v.FuncType
		}
		li.funcAddrs = append(li.funcAddrs, v.FuncAddr)
		li.funcTypes = append(li.funcTypes, typ)
	}

	for _, imp := range m.ImportedGlobals {
		v, ok := imports.Get(imp.Module, imp.Field)
		if !ok {
			if cfg.MockMissingGlobals {
				li.globals = append(li.globals, 0)
				continue
			}
			return nil, linkErr(imp.Module, imp.Field, wasm.ErrImportNotFound)
		}
		if v.Kind != wasm.ExternKindGlobal {
			return nil, linkErr(imp.Module, imp.Field,
				fmt.Errorf("%w: have %s, want %s", wasm.ErrImportKindMismatch, v.Kind, wasm.ExternKindGlobal))
		}
		li.globals = append(li.globals, v.Global)
	}

	for _, imp := range m.ImportedMemories {
		v, ok := imports.Get(imp.Module, imp.Field)
		if !ok {
			return nil, linkErr(imp.Module, imp.Field, wasm.ErrImportNotFound)
		}
		if v.Kind != wasm.ExternKindMemory || v.Memory == nil {
			return nil, linkErr(imp.Module, imp.Field,
				fmt.Errorf("%w: have %s, want %s", wasm.ErrImportKindMismatch, v.Kind, wasm.ExternKindMemory))
		}
		if err := checkMemoryLimits(imp, v.Memory); err != nil {
			return nil, linkErr(imp.Module, imp.Field, err)
		}
		li.memories = append(li.memories, v.Memory)
	}

	// Table imports are never mocked; MockMissingTables is recorded in the
	// configuration but deliberately unconnected.
	for _, imp := range m.ImportedTables {
		v, ok := imports.Get(imp.Module, imp.Field)
		if !ok {
			return nil, linkErr(imp.Module, imp.Field, wasm.ErrImportNotFound)
		}
		if v.Kind != wasm.ExternKindTable || v.Table == nil {
			return nil, linkErr(imp.Module, imp.Field,
				fmt.Errorf("%w: have %s, want %s", wasm.ErrImportKindMismatch, v.Kind, wasm.ExternKindTable))
		}
		if err := checkTableLimits(imp, v.Table); err != nil {
			return nil, linkErr(imp.Module, imp.Field, err)
		}
		li.tables = append(li.tables, v.Table)
	}
	return li, nil
}

// checkMemoryLimits requires the provided memory to cover the declared
// minimum and stay within the declared maximum.
func checkMemoryLimits(imp *wasm.ImportedMemory, mem *wasm.MemoryInstance) error {
	if mem.Min < imp.Min {
		return fmt.Errorf("%w: memory min %d pages, import requires at least %d",
			wasm.ErrImportLimitsMismatch, mem.Min, imp.Min)
	}
	if imp.Max != nil {
		if mem.Max == nil {
			return fmt.Errorf("%w: memory has no max, import requires at most %d pages",
				wasm.ErrImportLimitsMismatch, *imp.Max)
		}
		if *mem.Max > *imp.Max {
			return fmt.Errorf("%w: memory max %d pages, import requires at most %d",
				wasm.ErrImportLimitsMismatch, *mem.Max, *imp.Max)
		}
	}
	return nil
}

// checkTableLimits requires the provided table to cover the declared minimum
// and stay within the declared maximum.
func checkTableLimits(imp *wasm.ImportedTable, table *wasm.TableInstance) error {
	if table.Min < imp.Min {
		return fmt.Errorf("%w: table min %d, import requires at least %d",
			wasm.ErrImportLimitsMismatch, table.Min, imp.Min)
	}
	if imp.Max != nil {
		if table.Max == nil {
			return fmt.Errorf("%w: table has no max, import requires at most %d",
				wasm.ErrImportLimitsMismatch, *imp.Max)
		}
		if *table.Max > *imp.Max {
			return fmt.Errorf("%w: table max %d, import requires at most %d",
				wasm.ErrImportLimitsMismatch, *table.Max, *imp.Max)
		}
	}
	return nil
}
