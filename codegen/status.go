package codegen

import "fmt"

// StatusCode is the value generated code stores at ContextStatusCodeOffset
// before returning to the host. It tells the dispatcher whether the episode
// finished, needs a builtin serviced, or trapped.
type StatusCode uint32

const (
	// StatusReturned means the function completed; results are in the value
	// slots.
	StatusReturned StatusCode = iota
	// StatusCallBuiltin means the context's builtin index must be serviced
	// and execution resumed at the context's continuation address.
	StatusCallBuiltin
	StatusTrapUnreachable
	StatusTrapMemoryOutOfBounds
	StatusTrapIntegerDivideByZero
	StatusTrapIntegerOverflow
)

func (s StatusCode) String() string {
	switch s {
	case StatusReturned:
		return "returned"
	case StatusCallBuiltin:
		return "call_builtin"
	case StatusTrapUnreachable:
		return "unreachable"
	case StatusTrapMemoryOutOfBounds:
		return "memory out of bounds"
	case StatusTrapIntegerDivideByZero:
		return "integer divide by zero"
	case StatusTrapIntegerOverflow:
		return "integer overflow"
	default:
		return fmt.Sprintf("unknown status (%d)", uint32(s))
	}
}
