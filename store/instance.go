package store

import (
	"context"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"

	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/patch"
)

// InstanceMemory adapts a wazero memory.
type InstanceMemory struct {
	mem api.Memory
}

// NewInstanceMemory wraps mem.
func NewInstanceMemory(mem api.Memory) *InstanceMemory {
	return &InstanceMemory{mem: mem}
}

// Read returns a copy of length bytes at offset.
func (m *InstanceMemory) Read(offset, length uint32) ([]byte, error) {
	b, ok := m.mem.Read(offset, length)
	if !ok {
		return nil, m.outOfRange(offset, length)
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out, nil
}

// ReadU32 reads a little-endian u32 at offset.
func (m *InstanceMemory) ReadU32(offset uint32) (uint32, error) {
	v, ok := m.mem.ReadUint32Le(offset)
	if !ok {
		return 0, m.outOfRange(offset, 4)
	}
	return v, nil
}

// Size returns the current memory size in bytes.
func (m *InstanceMemory) Size() uint32 {
	return m.mem.Size()
}

func (m *InstanceMemory) outOfRange(offset, length uint32) error {
	return errors.OutOfBounds(errors.PhaseRead, offset, length, uint64(m.mem.Size()))
}

// FromInstance returns a store over the linear memory of a live instance.
// The config address is read from the instance's exported CONFIG global.
func FromInstance(mod api.Module) (*Store, error) {
	g := mod.ExportedGlobal(patch.ConfigExport)
	if g == nil {
		return nil, errors.MissingExport(patch.ConfigExport)
	}
	if g.Type() != api.ValueTypeI32 {
		return nil, errors.UnsupportedGlobalKind(patch.ConfigExport,
			"global has type "+api.ValueTypeName(g.Type())+", want i32")
	}
	mem := mod.Memory()
	if mem == nil {
		return nil, errors.MemoryNotFound()
	}
	return New(NewInstanceMemory(mem), api.DecodeU32(g.Get()))
}

// wasiModule is the import module name of WASI preview1.
const wasiModule = "wasi_snapshot_preview1"

// Instantiate compiles wasmBytes in r, instantiates it and returns a store
// over the instance. WASI preview1 is instantiated first when the module
// imports it. Only a reactor's _initialize runs; _start does not.
func Instantiate(ctx context.Context, r wazero.Runtime, wasmBytes []byte) (*Store, api.Module, error) {
	compiled, err := r.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, nil, errors.Load("compile module", err)
	}

	if importsModule(compiled, wasiModule) && r.Module(wasiModule) == nil {
		if _, err := wasi_snapshot_preview1.Instantiate(ctx, r); err != nil {
			return nil, nil, errors.Load("instantiate WASI", err)
		}
	}

	cfg := wazero.NewModuleConfig().WithStartFunctions("_initialize")
	mod, err := r.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		return nil, nil, errors.Load("instantiate module", err)
	}

	s, err := FromInstance(mod)
	if err != nil {
		_ = mod.Close(ctx)
		return nil, nil, err
	}
	return s, mod, nil
}

func importsModule(compiled wazero.CompiledModule, name string) bool {
	for _, def := range compiled.ImportedFunctions() {
		if moduleName, _, ok := def.Import(); ok && moduleName == name {
			return true
		}
	}
	return false
}
