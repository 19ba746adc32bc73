// Package patch embeds host configuration overrides into an adapter module.
//
// An adapter exports an immutable i32 global named CONFIG holding the
// address of a 12-byte config struct (see Layout) inside an active data
// segment. Apply encodes the overrides as a sorted field table, carves room
// for it below the stack pointer, adds it as a new active data segment and
// points the struct at it:
//
//	module, err := wasm.Parse(data)
//	if err != nil {
//	    return err
//	}
//	res, err := patch.Apply(module, cfg.Overrides)
//	if err != nil {
//	    return err
//	}
//	out := module.Encode()
//
// Every lookup and check runs before the first write, so a failed Apply
// leaves the module untouched.
//
// # Field table
//
// The table is the flattened key, value, key, value sequence sorted by key.
// Each string is a little-endian u32 length, its bytes, and zero padding to
// a multiple of 4. The whole table is padded to a multiple of 8. Readers
// binary-search it by key, so the order is part of the runtime contract.
package patch
