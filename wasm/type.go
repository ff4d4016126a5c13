package wasm

// ValueType classifies a scalar WebAssembly value. All value types occupy an
// 8-byte slot at runtime: integers zero/sign-extended, floats reinterpreted
// as their IEEE-754 bit pattern.
type ValueType byte

const (
	ValueTypeI32 ValueType = iota
	ValueTypeI64
	ValueTypeF32
	ValueTypeF64
)

func (v ValueType) String() string {
	switch v {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	default:
		return "unknown"
	}
}

// FunctionType is a function signature.
type FunctionType struct {
	Params, Results []ValueType
}

func (t *FunctionType) String() (ret string) {
	for _, b := range t.Params {
		ret += b.String()
	}
	if len(t.Params) == 0 {
		ret += "null"
	}
	ret += "_"
	for _, b := range t.Results {
		ret += b.String()
	}
	if len(t.Results) == 0 {
		ret += "null"
	}
	return
}

// Equals returns true if both signatures have identical parameter and result
// types.
func (t *FunctionType) Equals(other *FunctionType) bool {
	if other == nil {
		return false
	}
	if len(t.Params) != len(other.Params) || len(t.Results) != len(other.Results) {
		return false
	}
	for i, p := range t.Params {
		if other.Params[i] != p {
			return false
		}
	}
	for i, r := range t.Results {
		if other.Results[i] != r {
			return false
		}
	}
	return true
}
