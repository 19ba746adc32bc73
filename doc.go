// Package staticconfig embeds host configuration into a WebAssembly adapter
// module ahead of time, so the module reads its configuration from its own
// memory image instead of calling the host at startup.
//
// # Architecture Overview
//
//	staticconfig/        Root package with Bake and the Memory interface
//	├── patch/           CONFIG resolution, field table encoding, memory patching
//	├── wasm/            Section-preserving module parser and encoder
//	├── store/           Reads an embedded table back by key
//	├── config/          Override files (TOML, YAML, JSON)
//	├── errors/          Structured error types
//	└── cmd/staticconfig Command line tool
//
// # Quick Start
//
//	adapter, err := os.ReadFile("adapter.wasm")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	cfg, err := config.Load("static.toml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	patched, err := staticconfig.Bake(adapter, cfg.Overrides)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Adapter Contract
//
// The adapter exports an immutable i32 global named CONFIG whose value is
// the address of this struct, placed in an active data segment:
//
//	struct config {
//	    uint32_t unused;
//	    uint32_t host_field_cnt;
//	    uint32_t host_field_data;
//	};
//
// host_field_data points at host_field_cnt key/value pairs sorted by key.
// Each string is a little-endian u32 length followed by its bytes padded to
// a multiple of 4. The table lives below the initial stack pointer.
//
// # Reading Back
//
// The store package reads the table the way the adapter does:
//
//	s, err := store.FromInstance(instance)
//	value, ok, err := s.Get("greeting")
package staticconfig
