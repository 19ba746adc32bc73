package wasm

// Module is a mutable, section-preserving view of a WebAssembly binary.
//
// Imports, memories, globals, exports, data segments and the data count are
// decoded into fields and re-encoded from them. Every other section,
// including custom sections, is carried as raw bytes and written back
// unchanged in its original position.
type Module struct {
	Imports  []Import
	Memories []MemoryType
	Globals  []Global
	Exports  []Export
	Data     []DataSegment

	// DataCount holds the count from the DataCount section (ID 12).
	// AddData keeps it in step with Data when present.
	DataCount *uint32

	// GlobalNames maps global indices to names from the "name" custom
	// section. Nil when the module carries no global names.
	GlobalNames map[uint32]string

	layout []section
}

// section records one section of the original binary. Decoded sections keep
// only their ID; the others keep their payload.
type section struct {
	raw     []byte
	name    string
	id      byte
	decoded bool
}

// ValType represents a WebAssembly value type.
type ValType byte

func (v ValType) String() string {
	switch v {
	case ValI32:
		return "i32"
	case ValI64:
		return "i64"
	case ValF32:
		return "f32"
	case ValF64:
		return "f64"
	case ValV128:
		return "v128"
	case ValFuncRef:
		return "funcref"
	case ValExtern:
		return "externref"
	case ValRefNull:
		return "ref null"
	case ValRef:
		return "ref"
	default:
		return "unknown"
	}
}

// Import represents an imported function, table, memory, global, or tag.
// Desc holds the encoded descriptor following the kind byte; Memory and
// Global are decoded from it for the corresponding kinds.
type Import struct {
	Memory *MemoryType
	Global *GlobalType
	Module string
	Name   string
	Desc   []byte
	Kind   byte
}

// MemoryType describes a linear memory with size limits.
type MemoryType struct {
	Limits Limits
}

// Limits describes size constraints for tables and memories.
type Limits struct {
	Max      *uint64
	Min      uint64
	Shared   bool
	Memory64 bool
}

// GlobalType describes a global variable's type and mutability.
// HeapType is only meaningful for ValRef and ValRefNull.
type GlobalType struct {
	HeapType int64
	ValType  ValType
	Mutable  bool
}

// Global represents a defined global with its raw init expression.
type Global struct {
	Init []byte
	Type GlobalType
}

// Export describes an exported item.
type Export struct {
	Name string
	Kind byte
	Idx  uint32
}

// DataSegment represents a data segment.
// Flags determine the format:
//   - 0: active, memIdx=0, offset expr, vec(byte)
//   - 1: passive, vec(byte)
//   - 2: active, memIdx, offset expr, vec(byte)
type DataSegment struct {
	Offset []byte
	Init   []byte
	Flags  uint32
	MemIdx uint32
}

// IsActive reports whether the segment initializes memory at instantiation.
func (d *DataSegment) IsActive() bool {
	return d.Flags != DataPassive
}

// Address returns the constant start address of an active segment. The
// second result is false for passive segments and for offsets that are not
// a plain i32.const.
func (d *DataSegment) Address() (uint32, bool) {
	if !d.IsActive() {
		return 0, false
	}
	v, ok := ConstI32(d.Offset)
	if !ok {
		return 0, false
	}
	return uint32(v), true
}

// Contains reports whether addr falls inside the active segment's range.
func (d *DataSegment) Contains(addr uint32) bool {
	start, ok := d.Address()
	if !ok {
		return false
	}
	return uint64(start) <= uint64(addr) && uint64(addr) < uint64(start)+uint64(len(d.Init))
}

// NumImportedGlobals returns the number of imported globals.
func (m *Module) NumImportedGlobals() int {
	return m.countImports(KindGlobal)
}

// NumImportedMemories returns the number of imported memories.
func (m *Module) NumImportedMemories() int {
	return m.countImports(KindMemory)
}

// NumMemories returns the size of the memory index space.
func (m *Module) NumMemories() int {
	return m.NumImportedMemories() + len(m.Memories)
}

func (m *Module) countImports(kind byte) int {
	count := 0
	for _, imp := range m.Imports {
		if imp.Kind == kind {
			count++
		}
	}
	return count
}

// FindExport returns the first export with the given name.
func (m *Module) FindExport(name string) (*Export, bool) {
	for i := range m.Exports {
		if m.Exports[i].Name == name {
			return &m.Exports[i], true
		}
	}
	return nil, false
}

// IsImportedGlobal reports whether idx refers to an imported global.
func (m *Module) IsImportedGlobal(idx uint32) bool {
	return idx < uint32(m.NumImportedGlobals())
}

// DefinedGlobal returns a pointer to the module-defined global at idx in the
// global index space. Imported globals and out-of-range indices return false.
func (m *Module) DefinedGlobal(idx uint32) (*Global, bool) {
	imported := uint32(m.NumImportedGlobals())
	if idx < imported {
		return nil, false
	}
	local := idx - imported
	if uint64(local) >= uint64(len(m.Globals)) {
		return nil, false
	}
	return &m.Globals[local], true
}

// GlobalIndexByName returns the index of the global named name in the name
// section. Duplicate names resolve to the lowest index.
func (m *Module) GlobalIndexByName(name string) (uint32, bool) {
	var found bool
	var best uint32
	for idx, n := range m.GlobalNames {
		if n == name && (!found || idx < best) {
			best, found = idx, true
		}
	}
	return best, found
}

// AddData appends a data segment and returns its index. The DataCount
// section, when present, is incremented to match.
func (m *Module) AddData(seg DataSegment) uint32 {
	idx := uint32(len(m.Data))
	m.Data = append(m.Data, seg)
	if m.DataCount != nil {
		count := uint32(len(m.Data))
		m.DataCount = &count
	}
	return idx
}
