package patch

import (
	"encoding/binary"
	"fmt"
	"slices"
	"strings"

	"github.com/wippyai/static-config/config"
	"github.com/wippyai/static-config/errors"
)

const (
	stringAlign = 4
	tableAlign  = 8
)

// FieldTable is an encoded override table ready to be placed in memory.
type FieldTable struct {
	Bytes []byte
	Count uint32
}

// EncodeFieldTable sorts overrides by key and encodes them. Keys compare
// byte-wise; equal keys keep their input order. The input slice is not
// reordered. An empty input yields an empty table.
func EncodeFieldTable(overrides []config.Override) FieldTable {
	if len(overrides) == 0 {
		return FieldTable{}
	}

	sorted := slices.Clone(overrides)
	slices.SortStableFunc(sorted, func(a, b config.Override) int {
		return strings.Compare(a.Key, b.Key)
	})

	size := 0
	for _, o := range sorted {
		size += encodedLen(o.Key) + encodedLen(o.Value)
	}
	if size%tableAlign != 0 {
		size += stringAlign
	}

	buf := make([]byte, 0, size)
	for _, o := range sorted {
		buf = appendString(buf, o.Key)
		buf = appendString(buf, o.Value)
	}
	if len(buf)%tableAlign != 0 {
		buf = append(buf, 0, 0, 0, 0)
	}

	return FieldTable{Bytes: buf, Count: uint32(len(sorted))}
}

func encodedLen(s string) int {
	return 4 + pad4(len(s))
}

func pad4(n int) int {
	return (n + stringAlign - 1) &^ (stringAlign - 1)
}

func appendString(buf []byte, s string) []byte {
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(s)))
	buf = append(buf, s...)
	for i := len(s); i%stringAlign != 0; i++ {
		buf = append(buf, 0)
	}
	return buf
}

// DecodeFieldTable reads count key/value pairs back from an encoded table
// held in a byte slice. store.New walks the same layout through a Memory.
func DecodeFieldTable(data []byte, count uint32) ([]config.Override, error) {
	out := make([]config.Override, 0, min(count, uint32(len(data)/8)))
	pos := 0
	next := func(i uint32, what string) (string, error) {
		path := []string{"table", fmt.Sprint(i), what}
		if pos+4 > len(data) {
			return "", errors.InvalidData(errors.PhaseRead, path,
				fmt.Sprintf("length prefix at offset %d past end of table (%d bytes)", pos, len(data)))
		}
		n := int(binary.LittleEndian.Uint32(data[pos:]))
		start := pos + 4
		if n > len(data)-start {
			return "", errors.InvalidData(errors.PhaseRead, path,
				fmt.Sprintf("string of %d bytes at offset %d past end of table", n, start))
		}
		pos = start + pad4(n)
		return string(data[start : start+n]), nil
	}

	for i := uint32(0); i < count; i++ {
		key, err := next(i, "key")
		if err != nil {
			return nil, err
		}
		value, err := next(i, "value")
		if err != nil {
			return nil, err
		}
		out = append(out, config.Override{Key: key, Value: value})
	}
	return out, nil
}
