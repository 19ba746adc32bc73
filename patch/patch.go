package patch

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/static-config/config"
	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/wasm"
)

// Result describes what Apply changed.
type Result struct {
	// ConfigAddr is the address held by the CONFIG global.
	ConfigAddr uint32
	// Count is the number of override pairs written to the struct.
	Count uint32
	// TableSize is the encoded field table size in bytes.
	TableSize uint32

	// The fields below are zero when there were no overrides.

	// FieldDataAddr is where the field table was placed.
	FieldDataAddr uint32
	// StackBefore and StackAfter are the stack pointer's initial value
	// before and after the table was carved out.
	StackBefore uint32
	StackAfter  uint32
	// Segment is the index of the added data segment, -1 if none.
	Segment int
}

// plan holds everything Apply needs to commit, gathered without mutation.
type plan struct {
	arena   *StackArena
	table   FieldTable
	alloc   Allocation
	segment int
	addr    uint32
	offset  uint32
}

// Apply embeds overrides into m.
//
// The config struct's host_field_cnt is always set to len(overrides).
// With at least one override the field table is added as a new active data
// segment below the stack pointer and host_field_data is pointed at it;
// otherwise host_field_data keeps its compiled value and the stack pointer
// is left alone.
//
// On error m is unchanged.
func Apply(m *wasm.Module, overrides []config.Override) (*Result, error) {
	p, err := planPatch(m, overrides)
	if err != nil {
		return nil, err
	}
	return p.commit(m), nil
}

func planPatch(m *wasm.Module, overrides []config.Override) (*plan, error) {
	addr, err := ResolveConfigAddr(m)
	if err != nil {
		return nil, err
	}

	p := &plan{
		addr:  addr,
		table: EncodeFieldTable(overrides),
	}

	switch n := m.NumMemories(); {
	case n == 0:
		return nil, errors.MemoryNotFound()
	case n > 1:
		return nil, errors.Unsupported(errors.PhasePatch, fmt.Sprintf("module has %d memories", n))
	}

	p.segment, p.offset, err = configSegment(m, addr)
	if err != nil {
		return nil, err
	}

	if len(p.table.Bytes) == 0 {
		return p, nil
	}

	p.arena, err = FindStackArena(m)
	if err != nil {
		return nil, err
	}
	p.alloc, err = p.arena.Reserve(uint32(len(p.table.Bytes)))
	if err != nil {
		return nil, err
	}
	return p, nil
}

// configSegment finds the active segment on memory 0 holding the whole
// config struct at addr and returns its index with the struct's offset
// inside it.
func configSegment(m *wasm.Module, addr uint32) (int, uint32, error) {
	found := -1
	for i := range m.Data {
		seg := &m.Data[i]
		if seg.MemIdx != 0 || !seg.Contains(addr) {
			continue
		}
		if found >= 0 {
			return 0, 0, errors.New(errors.PhasePatch, errors.KindUnsupported).
				Value(addr).
				Detail("address 0x%x is covered by data segments %d and %d", addr, found, i).
				Build()
		}
		found = i
	}
	if found < 0 {
		return 0, 0, errors.NoContainingSegment(addr, "no active data segment contains the address")
	}

	seg := &m.Data[found]
	start, _ := seg.Address()
	offset := addr - start
	if uint64(offset)+ConfigSize > uint64(len(seg.Init)) {
		return 0, 0, errors.NoContainingSegment(addr,
			fmt.Sprintf("config struct needs %d bytes at offset %d but segment %d is %d bytes",
				ConfigSize, offset, found, len(seg.Init)))
	}
	return found, offset, nil
}

func (p *plan) commit(m *wasm.Module) *Result {
	res := &Result{
		ConfigAddr: p.addr,
		Count:      p.table.Count,
		TableSize:  uint32(len(p.table.Bytes)),
		Segment:    -1,
	}

	if p.arena != nil {
		res.StackBefore = p.arena.Top
		p.arena.Commit(p.alloc)
		res.StackAfter = p.arena.Top
		res.FieldDataAddr = p.alloc.Addr

		res.Segment = int(m.AddData(wasm.DataSegment{
			Flags:  wasm.DataActive,
			Offset: wasm.I32ConstExpr(int32(p.alloc.Addr)),
			Init:   p.table.Bytes,
		}))
	}

	s := m.Data[p.segment].Init[p.offset : p.offset+ConfigSize]
	binary.LittleEndian.PutUint32(s[OffsetFieldCount:], p.table.Count)
	if p.arena != nil {
		binary.LittleEndian.PutUint32(s[OffsetFieldData:], p.alloc.Addr)
	}

	Logger().Debug("embedded static config",
		zap.Uint32("config_addr", res.ConfigAddr),
		zap.Uint32("count", res.Count),
		zap.Uint32("table_size", res.TableSize),
		zap.Uint32("field_data_addr", res.FieldDataAddr),
		zap.Uint32("stack_before", res.StackBefore),
		zap.Uint32("stack_after", res.StackAfter),
	)
	return res
}
