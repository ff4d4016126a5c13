package wasm

import (
	"errors"
	"fmt"
)

var (
	// ErrImportNotFound is wrapped by a LinkError when a declared import has
	// no entry in the import object and mocking does not cover it.
	ErrImportNotFound = errors.New("import not found")
	// ErrImportKindMismatch is wrapped by a LinkError when an import
	// resolves to a value of the wrong kind. Never masked by mocking.
	ErrImportKindMismatch = errors.New("import kind mismatch")
	// ErrImportSignatureMismatch is wrapped by a LinkError when a function
	// import's declared signature differs from the provided one.
	ErrImportSignatureMismatch = errors.New("import signature mismatch")
	// ErrImportLimitsMismatch is wrapped by a LinkError when a provided
	// memory or table does not satisfy the declared limits.
	ErrImportLimitsMismatch = errors.New("import limits mismatch")

	// ErrBadGlobalInit reports a global initializer referencing a global
	// that is not yet initialized or out of range.
	ErrBadGlobalInit = errors.New("invalid global initializer")
	// ErrSegmentOutOfBounds reports a data or element segment that does not
	// fit its target; no segment is applied when any fails validation.
	ErrSegmentOutOfBounds = errors.New("segment out of bounds")

	// ErrUnsupportedLibCall reports a relocation against a library routine
	// outside the defined set. Indicates codegen/runtime version skew.
	ErrUnsupportedLibCall = errors.New("unsupported library call")
	// ErrUnsupportedIntrinsic reports a named-intrinsic relocation target,
	// none of which are supported.
	ErrUnsupportedIntrinsic = errors.New("unsupported named intrinsic")
	// ErrUnsupportedReloc reports a relocation record with an unknown kind
	// or an offset outside the function body.
	ErrUnsupportedReloc = errors.New("unsupported relocation")
	// ErrLayoutVersion reports a backend built against a different runtime
	// context layout generation.
	ErrLayoutVersion = errors.New("context layout version mismatch")

	ErrInvalidFunctionIndex = errors.New("invalid function index")
	ErrInvalidMemoryIndex   = errors.New("invalid memory index")
	ErrInvalidGlobalIndex   = errors.New("invalid global index")
	ErrInvalidTableIndex    = errors.New("invalid table index")
	// ErrMemoryOutOfBounds reports an out-of-range memory inspection.
	ErrMemoryOutOfBounds = errors.New("out of bounds memory access")

	ErrEngineClosed   = errors.New("engine closed")
	ErrInstanceClosed = errors.New("instance closed")
)

// LinkError reports a failure to resolve one declared import, naming the
// (module, field) pair. The wrapped sentinel identifies the failure class.
type LinkError struct {
	Module string
	Field  string
	Err    error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("link error: %v: %q.%q", e.Err, e.Module, e.Field)
}

func (e *LinkError) Unwrap() error {
	return e.Err
}

// CompileError reports the backend rejecting one function body. It aborts
// instantiation cleanly; the hosting process is never taken down.
type CompileError struct {
	// FunctionIndex is in the flat function index space.
	FunctionIndex Index
	Err           error
}

func (e *CompileError) Error() string {
	return fmt.Sprintf("compilation failed for function %d: %v", e.FunctionIndex, e.Err)
}

func (e *CompileError) Unwrap() error {
	return e.Err
}

// TrapCode classifies a fault raised by generated code.
type TrapCode byte

const (
	TrapUnreachable TrapCode = iota
	TrapMemoryOutOfBounds
	TrapIntegerDivideByZero
	TrapIntegerOverflow
)

func (c TrapCode) String() string {
	switch c {
	case TrapUnreachable:
		return "unreachable"
	case TrapMemoryOutOfBounds:
		return "out of bounds memory access"
	case TrapIntegerDivideByZero:
		return "integer divide by zero"
	case TrapIntegerOverflow:
		return "integer overflow"
	default:
		return fmt.Sprintf("unknown trap (%d)", byte(c))
	}
}

// TrapError is the recoverable form of a fault during a protected call into
// generated code.
type TrapError struct {
	Code TrapCode
}

func (e *TrapError) Error() string {
	return fmt.Sprintf("wasm runtime error: %s", e.Code)
}
