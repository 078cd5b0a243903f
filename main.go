//go:build !(js || wasm)

package main

import (
	"os"

	"github.com/cottand/typegraph/cmd"
)

func main() {
	err := cmd.NewRootCmd().Execute()
	if err != nil {
		os.Exit(1)
	}
}
