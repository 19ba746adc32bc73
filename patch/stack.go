package patch

import (
	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/wasm"
)

// StackPointerName is the linker-assigned name of the stack pointer global.
const StackPointerName = "__stack_pointer"

// StackArena allocates build-time memory by moving the module's stack
// pointer down. The stack grows towards zero, so bytes between the new and
// the old stack pointer are never touched by the stack at runtime.
type StackArena struct {
	module *wasm.Module
	global *wasm.Global

	// Index is the stack pointer's index in the global index space.
	Index uint32
	// Top is the stack pointer's current initial value.
	Top uint32
}

// Allocation is a planned arena reservation.
type Allocation struct {
	Addr uint32
	Size uint32
}

// End returns the first address past the allocation.
func (a Allocation) End() uint32 {
	return a.Addr + a.Size
}

// FindStackArena locates the stack pointer global. It is looked up by name
// in the "name" section first. Modules without global names fall back to
// the first defined mutable i32 global with a constant initializer, which is
// where wasm-ld places the stack pointer.
func FindStackArena(m *wasm.Module) (*StackArena, error) {
	if idx, ok := m.GlobalIndexByName(StackPointerName); ok {
		return arenaAt(m, idx)
	}

	imported := uint32(m.NumImportedGlobals())
	for i := range m.Globals {
		g := &m.Globals[i]
		if !g.Type.Mutable || g.Type.ValType != wasm.ValI32 {
			continue
		}
		if _, ok := wasm.ConstI32(g.Init); ok {
			return arenaAt(m, imported+uint32(i))
		}
	}

	return nil, errors.New(errors.PhaseAllocate, errors.KindStackGlobalNotFound).
		Item(StackPointerName).
		Detail("no named stack pointer and no mutable i32 global with a constant initializer").
		Build()
}

func arenaAt(m *wasm.Module, idx uint32) (*StackArena, error) {
	notFound := func(format string, args ...any) error {
		return errors.New(errors.PhaseAllocate, errors.KindStackGlobalNotFound).
			Item(StackPointerName).
			Value(idx).
			Detail(format, args...).
			Build()
	}

	if m.IsImportedGlobal(idx) {
		return nil, notFound("global %d is imported", idx)
	}
	g, ok := m.DefinedGlobal(idx)
	if !ok {
		return nil, notFound("global %d out of range", idx)
	}
	if !g.Type.Mutable || g.Type.ValType != wasm.ValI32 {
		return nil, notFound("global %d is not a mutable i32", idx)
	}
	top, ok := wasm.ConstI32(g.Init)
	if !ok {
		return nil, notFound("global %d has a non-constant initializer", idx)
	}

	return &StackArena{
		module: m,
		global: g,
		Index:  idx,
		Top:    uint32(top),
	}, nil
}

// Reserve plans an allocation of size bytes directly below the stack
// pointer. The range must not overlap any active data segment with a
// constant offset. Nothing is modified until Commit.
func (a *StackArena) Reserve(size uint32) (Allocation, error) {
	if size > a.Top {
		return Allocation{}, errors.StackExhausted(size, a.Top)
	}
	alloc := Allocation{Addr: a.Top - size, Size: size}

	for i := range a.module.Data {
		seg := &a.module.Data[i]
		if seg.MemIdx != 0 {
			continue
		}
		start, ok := seg.Address()
		if !ok {
			continue
		}
		end := uint64(start) + uint64(len(seg.Init))
		if uint64(alloc.Addr) < end && uint64(start) < uint64(alloc.End()) {
			return Allocation{}, errors.SegmentOverlap(alloc.Addr, alloc.End(), i)
		}
	}
	return alloc, nil
}

// Commit moves the stack pointer down to the start of alloc.
func (a *StackArena) Commit(alloc Allocation) {
	a.global.Init = wasm.I32ConstExpr(int32(alloc.Addr))
	a.Top = alloc.Addr
}
