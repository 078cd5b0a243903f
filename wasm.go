//go:build js && wasm

package main

import (
	"strings"
	"syscall/js"

	"github.com/cottand/typegraph/loader"
	"github.com/cottand/typegraph/model"
	"github.com/cottand/typegraph/typerr"
)

func main() {
	js.Global().Set("CheckGraph", js.FuncOf(checkGraph))
	js.Global().Set("IsSubtype", js.FuncOf(isSubtype))

	// wait indefinitely so that Go does not terminate execution
	// and the functions remain available
	<-make(chan struct{})
}

// checkGraph takes a graph description and returns its errors, one per line
func checkGraph(_ js.Value, args []js.Value) any {
	res, err := loader.Load(model.NewGraph(), "input.yaml", []byte(args[0].String()))
	if err != nil {
		return err.Error()
	}
	lines := make([]string, 0, len(res.Errors.Errors()))
	for _, e := range res.Errors.Errors() {
		lines = append(lines, typerr.FormatWithCodeAndSource(e, res.Source))
	}
	return strings.Join(lines, "\n")
}

// isSubtype takes a graph description and two type expressions
func isSubtype(_ js.Value, args []js.Value) any {
	res, err := loader.Load(model.NewGraph(), "input.yaml", []byte(args[0].String()))
	if err != nil {
		return err.Error()
	}
	sub, err := res.Type(nil, args[1].String())
	if err != nil {
		return err.Error()
	}
	super, err := res.Type(nil, args[2].String())
	if err != nil {
		return err.Error()
	}
	return sub.IsSubtypeOf(super)
}
