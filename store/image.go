package store

import (
	"encoding/binary"

	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/patch"
	"github.com/wippyai/static-config/wasm"
)

// Image is the initial contents of memory 0 as set up by a module's active
// data segments. Bytes no segment covers read as zero. Only the segments are
// held, so a segment at a high address costs no more than its own bytes.
type Image struct {
	segments []imageSegment
	size     uint64
}

type imageSegment struct {
	start uint64
	data  []byte
}

func (s imageSegment) end() uint64 {
	return s.start + uint64(len(s.data))
}

// NewImage lays out m's active data segments on memory 0 in order, later
// segments overwriting earlier ones as at instantiation. Segments whose
// offset is not a constant are skipped.
func NewImage(m *wasm.Module) (*Image, error) {
	if m.NumMemories() == 0 {
		return nil, errors.MemoryNotFound()
	}

	img := &Image{size: memoryMin(m) * wasm.PageSize}
	for i := range m.Data {
		seg := &m.Data[i]
		if seg.MemIdx != 0 || len(seg.Init) == 0 {
			continue
		}
		start, ok := seg.Address()
		if !ok {
			continue
		}
		s := imageSegment{start: uint64(start), data: seg.Init}
		img.segments = append(img.segments, s)
		img.size = max(img.size, s.end())
	}
	return img, nil
}

func memoryMin(m *wasm.Module) uint64 {
	for _, imp := range m.Imports {
		if imp.Kind == wasm.KindMemory && imp.Memory != nil {
			return imp.Memory.Limits.Min
		}
	}
	if len(m.Memories) > 0 {
		return m.Memories[0].Limits.Min
	}
	return 0
}

// Read returns a copy of length bytes at offset.
func (img *Image) Read(offset, length uint32) ([]byte, error) {
	lo := uint64(offset)
	hi := lo + uint64(length)
	if hi > img.size {
		return nil, errors.OutOfBounds(errors.PhaseRead, offset, length, img.size)
	}
	out := make([]byte, length)
	for _, s := range img.segments {
		if s.start >= hi || s.end() <= lo {
			continue
		}
		from := max(s.start, lo)
		to := min(s.end(), hi)
		copy(out[from-lo:to-lo], s.data[from-s.start:to-s.start])
	}
	return out, nil
}

// ReadU32 reads a little-endian u32 at offset.
func (img *Image) ReadU32(offset uint32) (uint32, error) {
	b, err := img.Read(offset, 4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

// Size returns the initial memory size in bytes, or the extent of the data
// segments if that is larger. Sizes past 4GiB are clamped.
func (img *Image) Size() uint32 {
	return uint32(min(img.size, 1<<32-1))
}

// FromModule returns a store over the static memory image of m.
func FromModule(m *wasm.Module) (*Store, error) {
	addr, err := patch.ResolveConfigAddr(m)
	if err != nil {
		return nil, err
	}
	img, err := NewImage(m)
	if err != nil {
		return nil, err
	}
	return New(img, addr)
}
