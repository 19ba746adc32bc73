// Command staticconfig embeds key/value configuration into WebAssembly
// adapter modules and inspects modules that carry it.
//
//	staticconfig patch --in adapter.wasm --out patched.wasm --config static.toml
//	staticconfig patch --in adapter.wasm --out patched.wasm --set greeting=hello
//	staticconfig inspect patched.wasm
//	staticconfig inspect --runtime --key greeting patched.wasm
package main

import (
	"context"
	"fmt"
	"os"
)

func main() {
	if err := NewRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
