// Package wasm provides a mutable, section-preserving WebAssembly module object.
//
// The package decodes only the sections needed to locate exports, globals,
// memories and data segments. All other sections are carried through as raw
// bytes, so a parse/encode round trip of an untouched module reproduces the
// original binary apart from LEB128 canonicalisation of decoded sections.
//
// # Parsing
//
//	data, _ := os.ReadFile("adapter.wasm")
//	module, err := wasm.Parse(data)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Mutation
//
// Globals and data segments are plain slices; pointers returned by
// DefinedGlobal and taken from module.Data update the module in place:
//
//	g, _ := module.DefinedGlobal(0)
//	g.Init = wasm.I32ConstExpr(1024)
//	module.AddData(wasm.DataSegment{Offset: wasm.I32ConstExpr(64), Init: blob})
//
// # Encoding
//
//	encoded := module.Encode()
package wasm
