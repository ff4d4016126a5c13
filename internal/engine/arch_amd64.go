//go:build amd64

package engine

// nativecall is implemented in arch_amd64.s as a Go Assembler function.
// It enters placed native code at codeSegment with the runtime context
// address in the reserved context register. Control comes back here once the
// code stores a status into the context and returns on the entry stack.
func nativecall(codeSegment, ctx uintptr)
