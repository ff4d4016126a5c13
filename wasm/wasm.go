// Package wasm holds the data model the linking engine consumes: the decoded
// module, the caller-supplied import object, and the backing instances for
// memories and tables. Binary decoding is out of scope; a Module arrives
// already parsed, with function bodies lowered to the code generator's IR.
package wasm

import "fmt"

// ExternKind classifies an importable or exportable entity.
type ExternKind byte

const (
	ExternKindFunction ExternKind = iota
	ExternKindGlobal
	ExternKindMemory
	ExternKindTable
)

func (k ExternKind) String() string {
	switch k {
	case ExternKindFunction:
		return "function"
	case ExternKindGlobal:
		return "global"
	case ExternKindMemory:
		return "memory"
	case ExternKindTable:
		return "table"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Index addresses an entity inside one of the module's flat index spaces.
// For functions and globals the space is imported entities first, in
// declaration order, followed by locally defined ones.
type Index = uint32
