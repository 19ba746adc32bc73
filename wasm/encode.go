package wasm

import (
	"math"

	"github.com/wippyai/static-config/wasm/internal/binary"
)

// decodedSections lists the sections Encode writes from Module fields, in
// canonical order.
var decodedSections = []byte{
	SectionImport,
	SectionMemory,
	SectionGlobal,
	SectionExport,
	SectionDataCount,
	SectionData,
}

// Encode encodes the module to WebAssembly binary format.
//
// Raw sections are written back in their original order. Decoded sections
// are written from the Module fields at their original position; a decoded
// section that was absent from the input but now has content is inserted at
// its canonical position.
func (m *Module) Encode() []byte {
	w := binary.NewWriter()
	w.WriteU32LE(Magic)
	w.WriteU32LE(Version)

	present := make(map[byte]bool, len(m.layout))
	for _, s := range m.layout {
		if s.decoded {
			present[s.id] = true
		}
	}
	var pending []byte
	for _, id := range decodedSections {
		if !present[id] && m.hasContent(id) {
			pending = append(pending, id)
		}
	}

	flushBefore := func(order int) {
		for len(pending) > 0 && sectionOrder(pending[0]) < order {
			m.writeDecoded(w, pending[0])
			pending = pending[1:]
		}
	}

	for _, s := range m.layout {
		if s.id != SectionCustom {
			flushBefore(sectionOrder(s.id))
		}
		if s.decoded {
			m.writeDecoded(w, s.id)
			continue
		}
		writeSection(w, s.id, s.raw)
	}
	flushBefore(math.MaxInt)

	return w.Bytes()
}

func (m *Module) hasContent(id byte) bool {
	switch id {
	case SectionImport:
		return len(m.Imports) > 0
	case SectionMemory:
		return len(m.Memories) > 0
	case SectionGlobal:
		return len(m.Globals) > 0
	case SectionExport:
		return len(m.Exports) > 0
	case SectionDataCount:
		return m.DataCount != nil
	case SectionData:
		return len(m.Data) > 0
	}
	return false
}

func (m *Module) writeDecoded(w *binary.Writer, id byte) {
	sec := binary.NewWriter()

	switch id {
	case SectionImport:
		sec.WriteU32(uint32(len(m.Imports)))
		for _, imp := range m.Imports {
			sec.WriteName(imp.Module)
			sec.WriteName(imp.Name)
			sec.Byte(imp.Kind)
			sec.WriteBytes(imp.Desc)
		}
	case SectionMemory:
		sec.WriteU32(uint32(len(m.Memories)))
		for _, mem := range m.Memories {
			writeLimits(sec, mem.Limits)
		}
	case SectionGlobal:
		sec.WriteU32(uint32(len(m.Globals)))
		for _, g := range m.Globals {
			writeGlobalType(sec, g.Type)
			sec.WriteBytes(g.Init)
		}
	case SectionExport:
		sec.WriteU32(uint32(len(m.Exports)))
		for _, exp := range m.Exports {
			sec.WriteName(exp.Name)
			sec.Byte(exp.Kind)
			sec.WriteU32(exp.Idx)
		}
	case SectionDataCount:
		if m.DataCount == nil {
			return
		}
		sec.WriteU32(*m.DataCount)
	case SectionData:
		sec.WriteU32(uint32(len(m.Data)))
		for _, seg := range m.Data {
			sec.WriteU32(seg.Flags)
			if seg.Flags == DataActiveExplicit {
				sec.WriteU32(seg.MemIdx)
			}
			if seg.Flags != DataPassive {
				sec.WriteBytes(seg.Offset)
			}
			sec.WriteU32(uint32(len(seg.Init)))
			sec.WriteBytes(seg.Init)
		}
	}

	writeSection(w, id, sec.Bytes())
}

func writeSection(w *binary.Writer, id byte, data []byte) {
	w.Byte(id)
	w.WriteU32(uint32(len(data)))
	w.WriteBytes(data)
}

func writeLimits(w *binary.Writer, l Limits) {
	var flags byte
	if l.Max != nil {
		flags |= LimitsHasMax
	}
	if l.Shared {
		flags |= LimitsShared
	}
	if l.Memory64 {
		flags |= LimitsMemory64
	}
	w.Byte(flags)
	w.WriteU64(l.Min)
	if l.Max != nil {
		w.WriteU64(*l.Max)
	}
}

func writeGlobalType(w *binary.Writer, g GlobalType) {
	w.Byte(byte(g.ValType))
	if g.ValType == ValRefNull || g.ValType == ValRef {
		w.WriteS64(g.HeapType)
	}
	if g.Mutable {
		w.Byte(1)
	} else {
		w.Byte(0)
	}
}
