package wasm

import (
	"errors"
	"fmt"

	"github.com/wippyai/static-config/wasm/internal/binary"
)

// Parsing errors returned by Parse.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseError is returned for malformed input, with the failing section and
// byte position.
type ParseError = binary.ParseError

// Parse decodes a WebAssembly binary module. The returned Module does not
// alias data.
func Parse(data []byte) (*Module, error) {
	r := binary.NewReader(data)

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}
	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	var lastOrder int

	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError("section header", err)
		}
		if id != SectionCustom {
			order := sectionOrder(id)
			if order == 0 {
				return nil, r.WrapError("section header", fmt.Errorf("unknown section ID: 0x%02x", id))
			}
			if order <= lastOrder {
				return nil, r.WrapError("section header", fmt.Errorf("section %d appears out of order", id))
			}
			lastOrder = order
		}

		size, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, r.WrapError("section data", err)
		}

		if err := m.decodeSection(id, payload); err != nil {
			return nil, err
		}
	}

	return m, nil
}

func (m *Module) decodeSection(id byte, payload []byte) error {
	sr := binary.NewReader(payload)
	var err error

	switch id {
	case SectionCustom:
		name, nerr := sr.ReadName()
		if nerr != nil {
			return sr.WrapError("custom section", nerr)
		}
		if name == CustomName {
			m.GlobalNames = parseGlobalNames(payload[sr.Position():])
		}
		m.layout = append(m.layout, section{id: id, name: name, raw: payload})
		return nil
	case SectionImport:
		err = parseImportSection(sr, m)
	case SectionMemory:
		err = parseMemorySection(sr, m)
	case SectionGlobal:
		err = parseGlobalSection(sr, m)
	case SectionExport:
		err = parseExportSection(sr, m)
	case SectionData:
		err = parseDataSection(sr, m)
	case SectionDataCount:
		var count uint32
		count, err = sr.ReadU32()
		m.DataCount = &count
	default:
		m.layout = append(m.layout, section{id: id, raw: payload})
		return nil
	}

	if err != nil {
		return sr.WrapError(sectionName(id), err)
	}
	if sr.Len() != 0 {
		return sr.WrapError(sectionName(id), errors.New("section size mismatch"))
	}
	m.layout = append(m.layout, section{id: id, decoded: true})
	return nil
}

// sectionOrder returns the canonical ordering for a non-custom section ID,
// or 0 for an unknown ID.
func sectionOrder(id byte) int {
	switch id {
	case SectionType:
		return 1
	case SectionImport:
		return 2
	case SectionFunction:
		return 3
	case SectionTable:
		return 4
	case SectionMemory:
		return 5
	case SectionTag:
		return 6
	case SectionGlobal:
		return 7
	case SectionExport:
		return 8
	case SectionStart:
		return 9
	case SectionElement:
		return 10
	case SectionDataCount:
		return 11
	case SectionCode:
		return 12
	case SectionData:
		return 13
	default:
		return 0
	}
}

func sectionName(id byte) string {
	switch id {
	case SectionImport:
		return "import section"
	case SectionMemory:
		return "memory section"
	case SectionGlobal:
		return "global section"
	case SectionExport:
		return "export section"
	case SectionData:
		return "data section"
	case SectionDataCount:
		return "data count section"
	default:
		return fmt.Sprintf("section %d", id)
	}
}

func parseImportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Imports = make([]Import, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		module, err := r.ReadName()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}

		imp := Import{Module: module, Name: name, Kind: kind}
		start := r.Position()

		switch kind {
		case KindFunc:
			_, err = r.ReadU32()
		case KindTable:
			err = skipTableType(r)
		case KindMemory:
			var mem MemoryType
			mem, err = readMemoryType(r)
			imp.Memory = &mem
		case KindGlobal:
			var gt GlobalType
			gt, err = readGlobalType(r)
			imp.Global = &gt
		case KindTag:
			if _, err = r.ReadByte(); err == nil {
				_, err = r.ReadU32()
			}
		default:
			err = fmt.Errorf("unknown import kind: %d", kind)
		}
		if err != nil {
			return fmt.Errorf("import %q.%q: %w", module, name, err)
		}

		imp.Desc = r.Since(start)
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Memories = make([]MemoryType, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		mem, err := readMemoryType(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, mem)
	}
	return nil
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Globals = make([]Global, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		gt, err := readGlobalType(r)
		if err != nil {
			return err
		}
		init, err := readConstExpr(r)
		if err != nil {
			return err
		}
		m.Globals = append(m.Globals, Global{Type: gt, Init: init})
	}
	return nil
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Exports = make([]Export, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return err
		}
		if kind > KindTag {
			return fmt.Errorf("invalid export kind: 0x%02x", kind)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return err
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func parseDataSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return err
	}
	m.Data = make([]DataSegment, 0, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return err
		}
		if flags > DataActiveExplicit {
			return fmt.Errorf("invalid data segment flags: %d", flags)
		}

		seg := DataSegment{Flags: flags}
		if flags == DataActiveExplicit {
			seg.MemIdx, err = r.ReadU32()
			if err != nil {
				return err
			}
		}
		if flags != DataPassive {
			seg.Offset, err = readConstExpr(r)
			if err != nil {
				return err
			}
		}

		size, err := r.ReadU32()
		if err != nil {
			return err
		}
		seg.Init, err = r.ReadBytes(int(size))
		if err != nil {
			return err
		}
		m.Data = append(m.Data, seg)
	}
	return nil
}

func readLimits(r *binary.Reader) (Limits, error) {
	flags, err := r.ReadByte()
	if err != nil {
		return Limits{}, err
	}
	if flags&^(LimitsHasMax|LimitsShared|LimitsMemory64) != 0 {
		return Limits{}, fmt.Errorf("unsupported limits flags 0x%02x", flags)
	}

	l := Limits{
		Shared:   flags&LimitsShared != 0,
		Memory64: flags&LimitsMemory64 != 0,
	}
	l.Min, err = r.ReadU64()
	if err != nil {
		return Limits{}, err
	}
	if flags&LimitsHasMax != 0 {
		maxVal, err := r.ReadU64()
		if err != nil {
			return Limits{}, err
		}
		l.Max = &maxVal
	}
	return l, nil
}

func readMemoryType(r *binary.Reader) (MemoryType, error) {
	limits, err := readLimits(r)
	if err != nil {
		return MemoryType{}, err
	}
	return MemoryType{Limits: limits}, nil
}

func skipTableType(r *binary.Reader) error {
	b, err := r.ReadByte()
	if err != nil {
		return err
	}
	if b == byte(ValRefNull) || b == byte(ValRef) {
		if err := r.SkipLEB128(); err != nil {
			return err
		}
	}
	_, err = readLimits(r)
	return err
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	vt, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	gt := GlobalType{ValType: ValType(vt)}

	if gt.ValType == ValRefNull || gt.ValType == ValRef {
		gt.HeapType, err = r.ReadS64()
		if err != nil {
			return GlobalType{}, err
		}
	}

	mut, err := r.ReadByte()
	if err != nil {
		return GlobalType{}, err
	}
	if mut > 1 {
		return GlobalType{}, fmt.Errorf("invalid global mutability 0x%02x", mut)
	}
	gt.Mutable = mut == 1
	return gt, nil
}

// parseGlobalNames extracts the global-names subsection of a "name" custom
// section. Malformed name data is ignored, as engines do.
func parseGlobalNames(data []byte) map[uint32]string {
	r := binary.NewReader(data)
	for r.Len() > 0 {
		id, err := r.ReadByte()
		if err != nil {
			return nil
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil
		}
		if id != nameSubsectionGlobal {
			if r.Skip(int(size)) != nil {
				return nil
			}
			continue
		}

		sub, err := r.ReadBytes(int(size))
		if err != nil {
			return nil
		}
		return readNameMap(binary.NewReader(sub))
	}
	return nil
}

func readNameMap(r *binary.Reader) map[uint32]string {
	count, err := r.ReadU32()
	if err != nil {
		return nil
	}
	names := make(map[uint32]string, min(int(count), r.Len()))
	for i := uint32(0); i < count; i++ {
		idx, err := r.ReadU32()
		if err != nil {
			return nil
		}
		name, err := r.ReadName()
		if err != nil {
			return nil
		}
		names[idx] = name
	}
	return names
}
