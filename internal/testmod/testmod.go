// Package testmod builds small adapter-shaped WebAssembly modules for tests.
//
// The default adapter mirrors what a compiled configuration adapter looks
// like: one memory, a mutable __stack_pointer global, an immutable CONFIG
// global holding the address of a 12-byte config struct inside an active
// data segment, a "name" section naming both globals, and exported getter
// functions that read the struct through CONFIG at runtime.
package testmod

import (
	"encoding/binary"
)

// Exported function names of a built adapter.
const (
	FuncFieldCount   = "field_count"
	FuncFieldData    = "field_data"
	FuncStackPointer = "stack_pointer"
	ExportMemory     = "memory"
	ExportConfig     = "CONFIG"
)

// Defaults used by Default.
const (
	DefaultStackPointer = 65536
	DefaultConfigAddr   = 1024
	DefaultMemoryPages  = 2
	DefaultUnusedWord   = 0x01
)

// Segment is an extra active data segment.
type Segment struct {
	Bytes []byte
	Addr  uint32
}

// Adapter describes the module to build. The zero value is not useful; start
// from Default.
type Adapter struct {
	ExtraSegments []Segment

	StackPointer     int32
	ConfigAddr       int32
	DefaultFieldData uint32
	MemoryPages      uint32

	// ConfigPrefix is placed in the config segment before the struct, so the
	// struct sits at a non-zero offset inside its segment.
	ConfigPrefix []byte

	NoMemory          bool
	ImportMemory      bool
	ImportConfig      bool
	MutableConfig     bool
	ConfigI64         bool
	ConfigAsFunc      bool
	OmitConfigExport  bool
	OmitConfigSegment bool
	OmitNames         bool
	DataCount         bool
}

// Default returns the canonical adapter layout.
func Default() Adapter {
	return Adapter{
		StackPointer: DefaultStackPointer,
		ConfigAddr:   DefaultConfigAddr,
		MemoryPages:  DefaultMemoryPages,
	}
}

// ConfigSegmentStart returns the address of the segment holding the struct.
func (a Adapter) ConfigSegmentStart() uint32 {
	return uint32(a.ConfigAddr) - uint32(len(a.ConfigPrefix))
}

// Build encodes the adapter.
func (a Adapter) Build() []byte {
	var wasm []byte
	wasm = append(wasm, 0x00, 0x61, 0x73, 0x6d)
	wasm = append(wasm, 0x01, 0x00, 0x00, 0x00)

	l := a.indices()

	// Type section: () -> i32
	wasm = appendSection(wasm, 0x01, []byte{0x01, 0x60, 0x00, 0x01, 0x7f})

	if imports := a.importSection(); imports != nil {
		wasm = appendSection(wasm, 0x02, imports)
	}

	funcs := a.funcBodies(l)
	funcSec := EncodeULEB128(uint32(len(funcs)))
	for range funcs {
		funcSec = append(funcSec, 0x00)
	}
	wasm = appendSection(wasm, 0x03, funcSec)

	if !a.NoMemory && !a.ImportMemory {
		mem := []byte{0x01, 0x00}
		mem = append(mem, EncodeULEB128(a.MemoryPages)...)
		wasm = appendSection(wasm, 0x05, mem)
	}

	wasm = appendSection(wasm, 0x06, a.globalSection())
	wasm = appendSection(wasm, 0x07, a.exportSection(l, funcs))

	segments := a.segments()
	if a.DataCount {
		wasm = appendSection(wasm, 0x0c, EncodeULEB128(uint32(len(segments))))
	}

	code := EncodeULEB128(uint32(len(funcs)))
	for _, f := range funcs {
		code = append(code, EncodeULEB128(uint32(len(f.body)))...)
		code = append(code, f.body...)
	}
	wasm = appendSection(wasm, 0x0a, code)

	if len(segments) > 0 {
		data := EncodeULEB128(uint32(len(segments)))
		for _, seg := range segments {
			data = append(data, 0x00, 0x41)
			data = append(data, EncodeSLEB128(int32(seg.Addr))...)
			data = append(data, 0x0b)
			data = append(data, EncodeULEB128(uint32(len(seg.Bytes)))...)
			data = append(data, seg.Bytes...)
		}
		wasm = appendSection(wasm, 0x0b, data)
	}

	if !a.OmitNames {
		wasm = appendSection(wasm, 0x00, a.nameSection(l, funcs))
	}

	return wasm
}

// ConfigStruct returns the initial 12-byte config struct.
func (a Adapter) ConfigStruct() []byte {
	s := make([]byte, 12)
	binary.LittleEndian.PutUint32(s[0:], DefaultUnusedWord)
	binary.LittleEndian.PutUint32(s[8:], a.DefaultFieldData)
	return s
}

type indices struct {
	sp     uint32
	config uint32
}

func (a Adapter) indices() indices {
	if a.ImportConfig {
		return indices{config: 0, sp: 1}
	}
	return indices{sp: 0, config: 1}
}

type fn struct {
	name string
	body []byte
}

func (a Adapter) funcBodies(l indices) []fn {
	funcs := []fn{{
		name: FuncStackPointer,
		body: append(append([]byte{0x00, 0x23}, EncodeULEB128(l.sp)...), 0x0b),
	}}
	if a.NoMemory || a.ConfigI64 {
		return funcs
	}
	load := func(offset byte) []byte {
		body := []byte{0x00, 0x23}
		body = append(body, EncodeULEB128(l.config)...)
		return append(body, 0x28, 0x02, offset, 0x0b)
	}
	return append(funcs,
		fn{name: FuncFieldCount, body: load(4)},
		fn{name: FuncFieldData, body: load(8)},
	)
}

func (a Adapter) importSection() []byte {
	var entries [][]byte
	if a.ImportMemory {
		e := appendName(nil, "env")
		e = appendName(e, "memory")
		e = append(e, 0x02, 0x00)
		e = append(e, EncodeULEB128(a.MemoryPages)...)
		entries = append(entries, e)
	}
	if a.ImportConfig {
		e := appendName(nil, "env")
		e = appendName(e, ExportConfig)
		e = append(e, 0x03, 0x7f, 0x00)
		entries = append(entries, e)
	}
	if len(entries) == 0 {
		return nil
	}
	sec := EncodeULEB128(uint32(len(entries)))
	for _, e := range entries {
		sec = append(sec, e...)
	}
	return sec
}

func (a Adapter) globalSection() []byte {
	var globals [][]byte

	sp := []byte{0x7f, 0x01, 0x41}
	sp = append(sp, EncodeSLEB128(a.StackPointer)...)
	globals = append(globals, append(sp, 0x0b))

	if !a.ImportConfig {
		var cfg []byte
		mut := byte(0x00)
		if a.MutableConfig {
			mut = 0x01
		}
		if a.ConfigI64 {
			cfg = []byte{0x7e, mut, 0x42}
			cfg = append(cfg, EncodeSLEB128(int64(a.ConfigAddr))...)
		} else {
			cfg = []byte{0x7f, mut, 0x41}
			cfg = append(cfg, EncodeSLEB128(a.ConfigAddr)...)
		}
		globals = append(globals, append(cfg, 0x0b))
	}

	sec := EncodeULEB128(uint32(len(globals)))
	for _, g := range globals {
		sec = append(sec, g...)
	}
	return sec
}

func (a Adapter) exportSection(l indices, funcs []fn) []byte {
	var entries [][]byte
	if !a.NoMemory {
		entries = append(entries, append(appendName(nil, ExportMemory), 0x02, 0x00))
	}
	if !a.OmitConfigExport {
		e := appendName(nil, ExportConfig)
		if a.ConfigAsFunc {
			e = append(e, 0x00, 0x00)
		} else {
			e = append(e, 0x03)
			e = append(e, EncodeULEB128(l.config)...)
		}
		entries = append(entries, e)
	}
	for i, f := range funcs {
		e := appendName(nil, f.name)
		e = append(e, 0x00)
		e = append(e, EncodeULEB128(uint32(i))...)
		entries = append(entries, e)
	}

	sec := EncodeULEB128(uint32(len(entries)))
	for _, e := range entries {
		sec = append(sec, e...)
	}
	return sec
}

func (a Adapter) segments() []Segment {
	if a.NoMemory {
		return nil
	}
	var segs []Segment
	if !a.OmitConfigSegment {
		body := append(append([]byte{}, a.ConfigPrefix...), a.ConfigStruct()...)
		segs = append(segs, Segment{Addr: a.ConfigSegmentStart(), Bytes: body})
	}
	return append(segs, a.ExtraSegments...)
}

// nameSection emits function names (subsection 1) followed by global names
// (subsection 7).
func (a Adapter) nameSection(l indices, funcs []fn) []byte {
	sec := appendName(nil, "name")

	fnames := EncodeULEB128(uint32(len(funcs)))
	for i, f := range funcs {
		fnames = append(fnames, EncodeULEB128(uint32(i))...)
		fnames = appendName(fnames, f.name)
	}
	sec = append(sec, 0x01)
	sec = append(sec, EncodeULEB128(uint32(len(fnames)))...)
	sec = append(sec, fnames...)

	gnames := EncodeULEB128(2)
	first, second := l.sp, l.config
	firstName, secondName := "__stack_pointer", ExportConfig
	if first > second {
		first, second = second, first
		firstName, secondName = secondName, firstName
	}
	gnames = append(gnames, EncodeULEB128(first)...)
	gnames = appendName(gnames, firstName)
	gnames = append(gnames, EncodeULEB128(second)...)
	gnames = appendName(gnames, secondName)
	sec = append(sec, 0x07)
	sec = append(sec, EncodeULEB128(uint32(len(gnames)))...)
	return append(sec, gnames...)
}

func appendSection(wasm []byte, id byte, payload []byte) []byte {
	wasm = append(wasm, id)
	wasm = append(wasm, EncodeULEB128(uint32(len(payload)))...)
	return append(wasm, payload...)
}

func appendName(b []byte, name string) []byte {
	b = append(b, EncodeULEB128(uint32(len(name)))...)
	return append(b, name...)
}

// EncodeULEB128 encodes an unsigned value in LEB128 format.
func EncodeULEB128(v uint32) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		result = append(result, b)
		if v == 0 {
			break
		}
	}
	return result
}

// EncodeSLEB128 encodes a signed value in LEB128 format.
func EncodeSLEB128[T int32 | int64](v T) []byte {
	var result []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			result = append(result, b)
			break
		}
		result = append(result, b|0x80)
	}
	return result
}
