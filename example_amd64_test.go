//go:build amd64

package wasmlink_test

import (
	"context"
	"fmt"
	"log"

	"github.com/wasmlink/wasmlink"
	"github.com/wasmlink/wasmlink/internal/testing/backendtest"
	"github.com/wasmlink/wasmlink/wasm"
)

// ExampleNewEngine links a one-function module and calls its export. Real
// embedders pass the codegen backend their modules were lowered for; the
// test backend stands in here.
func ExampleNewEngine() {
	e, err := wasmlink.NewEngine(backendtest.New())
	if err != nil {
		log.Fatal(err)
	}
	defer e.Close()

	m := &wasm.Module{
		Functions: []*wasm.Function{{
			Type: &wasm.FunctionType{
				Params:  []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
				Results: []wasm.ValueType{wasm.ValueTypeI32},
			},
			IR: backendtest.Add32IR(),
		}},
		Exports: map[string]*wasm.Export{
			"add": {Name: "add", Kind: wasm.ExternKindFunction, Index: 0},
		},
	}

	inst, err := e.Instantiate(context.Background(), m, nil)
	if err != nil {
		log.Fatal(err)
	}
	defer inst.Close()

	results, err := inst.Call("add", 2, 3)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(results[0])

	// Output:
	// 5
}
