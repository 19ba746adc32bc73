package patch

import (
	"fmt"

	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/wasm"
)

// ConfigExport is the name of the global export holding the config struct
// address.
const ConfigExport = "CONFIG"

// ResolveConfigAddr returns the constant address held by the CONFIG global.
// The global must be defined by the module, immutable, of type i32, and
// initialized with a single i32.const. The module is not modified.
func ResolveConfigAddr(m *wasm.Module) (uint32, error) {
	exp, ok := m.FindExport(ConfigExport)
	if !ok {
		return 0, errors.MissingExport(ConfigExport)
	}
	if exp.Kind != wasm.KindGlobal {
		return 0, errors.NotAGlobal(ConfigExport, kindName(exp.Kind))
	}
	if m.IsImportedGlobal(exp.Idx) {
		return 0, errors.UnsupportedGlobalKind(ConfigExport, "global is imported")
	}
	g, ok := m.DefinedGlobal(exp.Idx)
	if !ok {
		return 0, errors.UnsupportedGlobalKind(ConfigExport,
			fmt.Sprintf("global index %d out of range", exp.Idx))
	}
	if g.Type.Mutable {
		return 0, errors.UnsupportedGlobalKind(ConfigExport, "global is mutable")
	}
	if g.Type.ValType != wasm.ValI32 {
		return 0, errors.UnsupportedGlobalKind(ConfigExport,
			fmt.Sprintf("global has type %s, want i32", g.Type.ValType))
	}
	addr, ok := wasm.ConstI32(g.Init)
	if !ok {
		return 0, errors.UnsupportedGlobalKind(ConfigExport, "init expression is not a single i32.const")
	}
	return uint32(addr), nil
}

func kindName(kind byte) string {
	switch kind {
	case wasm.KindFunc:
		return "function"
	case wasm.KindTable:
		return "table"
	case wasm.KindMemory:
		return "memory"
	case wasm.KindGlobal:
		return "global"
	case wasm.KindTag:
		return "tag"
	default:
		return fmt.Sprintf("kind 0x%02x", kind)
	}
}
