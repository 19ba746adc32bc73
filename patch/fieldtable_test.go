package patch

import (
	"bytes"
	"encoding/binary"
	stderrors "errors"
	"fmt"
	"math/rand/v2"
	"reflect"
	"slices"
	"testing"

	"github.com/wippyai/static-config/config"
	"github.com/wippyai/static-config/errors"
)

func TestEncodeFieldTableEmpty(t *testing.T) {
	for _, in := range [][]config.Override{nil, {}} {
		table := EncodeFieldTable(in)
		if len(table.Bytes) != 0 || table.Count != 0 {
			t.Errorf("EncodeFieldTable(%v) = %v, want empty", in, table)
		}
	}
}

func TestEncodeFieldTableBytes(t *testing.T) {
	le := func(v uint32) []byte {
		return binary.LittleEndian.AppendUint32(nil, v)
	}
	cat := func(parts ...[]byte) []byte {
		return bytes.Join(parts, nil)
	}

	tests := []struct {
		name string
		in   []config.Override
		want []byte
	}{
		{
			name: "aligned strings",
			in:   []config.Override{{Key: "greeting", Value: "hello"}},
			want: cat(le(8), []byte("greeting"), le(5), []byte("hello\x00\x00\x00")),
		},
		{
			name: "table padded to 8",
			in:   []config.Override{{Key: "ab", Value: ""}},
			want: cat(le(2), []byte("ab\x00\x00"), le(0), make([]byte, 4)),
		},
		{
			name: "sorted by key",
			in:   []config.Override{{Key: "b", Value: "2"}, {Key: "a", Value: "1"}},
			want: cat(
				le(1), []byte("a\x00\x00\x00"), le(1), []byte("1\x00\x00\x00"),
				le(1), []byte("b\x00\x00\x00"), le(1), []byte("2\x00\x00\x00"),
			),
		},
		{
			name: "multibyte utf-8",
			in:   []config.Override{{Key: "ключ", Value: "é"}},
			want: cat(le(8), []byte("ключ"), le(2), []byte("é\x00\x00"), make([]byte, 4)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			table := EncodeFieldTable(tt.in)
			if !bytes.Equal(table.Bytes, tt.want) {
				t.Errorf("bytes:\n got %x\nwant %x", table.Bytes, tt.want)
			}
			if table.Count != uint32(len(tt.in)) {
				t.Errorf("count = %d, want %d", table.Count, len(tt.in))
			}
		})
	}
}

func TestEncodeFieldTableStableTies(t *testing.T) {
	in := []config.Override{
		{Key: "b", Value: "first"},
		{Key: "a", Value: "x"},
		{Key: "b", Value: "second"},
	}
	got, err := DecodeFieldTable(EncodeFieldTable(in).Bytes, 3)
	if err != nil {
		t.Fatal(err)
	}
	want := []config.Override{
		{Key: "a", Value: "x"},
		{Key: "b", Value: "first"},
		{Key: "b", Value: "second"},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestEncodeFieldTableDoesNotReorderInput(t *testing.T) {
	in := []config.Override{{Key: "z", Value: "1"}, {Key: "a", Value: "2"}}
	before := slices.Clone(in)
	EncodeFieldTable(in)
	if !reflect.DeepEqual(in, before) {
		t.Errorf("input reordered: %v", in)
	}
}

func randomOverrides(r *rand.Rand, n int) []config.Override {
	str := func() string {
		b := make([]byte, r.IntN(13))
		for i := range b {
			b[i] = byte(r.IntN(256))
		}
		return string(b)
	}
	out := make([]config.Override, n)
	for i := range out {
		out[i] = config.Override{Key: str(), Value: str()}
	}
	return out
}

func TestEncodeFieldTableProperties(t *testing.T) {
	r := rand.New(rand.NewPCG(1, 2))

	for i := 0; i < 200; i++ {
		in := randomOverrides(r, r.IntN(10))
		t.Run(fmt.Sprintf("case%d", i), func(t *testing.T) {
			table := EncodeFieldTable(in)

			if len(table.Bytes)%8 != 0 {
				t.Fatalf("table length %d is not a multiple of 8", len(table.Bytes))
			}

			pos := 0
			for s := 0; s < 2*len(in); s++ {
				if pos%4 != 0 {
					t.Fatalf("length prefix %d at unaligned offset %d", s, pos)
				}
				n := int(binary.LittleEndian.Uint32(table.Bytes[pos:]))
				pos += 4 + (n+3)&^3
			}

			got, err := DecodeFieldTable(table.Bytes, table.Count)
			if err != nil {
				t.Fatalf("DecodeFieldTable: %v", err)
			}
			for j := 1; j < len(got); j++ {
				if got[j-1].Key > got[j].Key {
					t.Fatalf("keys out of order at %d: %q > %q", j, got[j-1].Key, got[j].Key)
				}
			}

			sortedIn := slices.Clone(in)
			slices.SortStableFunc(sortedIn, func(a, b config.Override) int {
				return compareOverride(a, b)
			})
			slices.SortStableFunc(got, func(a, b config.Override) int {
				return compareOverride(a, b)
			})
			if !reflect.DeepEqual(got, sortedIn) {
				t.Fatalf("round trip: got %v, want %v", got, sortedIn)
			}

			if again := EncodeFieldTable(in); !bytes.Equal(again.Bytes, table.Bytes) {
				t.Fatal("encoding is not deterministic")
			}
		})
	}
}

func compareOverride(a, b config.Override) int {
	if a.Key != b.Key {
		if a.Key < b.Key {
			return -1
		}
		return 1
	}
	switch {
	case a.Value < b.Value:
		return -1
	case a.Value > b.Value:
		return 1
	}
	return 0
}

func TestEncodeFieldTableIgnoresInputOrder(t *testing.T) {
	in := []config.Override{
		{Key: "greeting", Value: "hello"},
		{Key: "name", Value: "componentized"},
		{Key: "alpha", Value: "1"},
		{Key: "zeta", Value: ""},
	}
	want := EncodeFieldTable(in).Bytes

	r := rand.New(rand.NewPCG(3, 4))
	for i := 0; i < 20; i++ {
		shuffled := slices.Clone(in)
		r.Shuffle(len(shuffled), func(a, b int) {
			shuffled[a], shuffled[b] = shuffled[b], shuffled[a]
		})
		if got := EncodeFieldTable(shuffled).Bytes; !bytes.Equal(got, want) {
			t.Fatalf("order %v encoded differently", shuffled)
		}
	}
}

func TestDecodeFieldTableErrors(t *testing.T) {
	valid := EncodeFieldTable([]config.Override{{Key: "greeting", Value: "hello"}}).Bytes

	tests := []struct {
		name  string
		data  []byte
		count uint32
	}{
		{"count past table", valid, 2},
		{"truncated prefix", valid[:2], 1},
		{"truncated string", valid[:8], 1},
		{"length overflows", []byte{0xff, 0xff, 0xff, 0xff, 0, 0, 0, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeFieldTable(tt.data, tt.count)
			if !stderrors.Is(err, errors.ErrInvalidData) {
				t.Errorf("expected invalid data error, got %v", err)
			}
		})
	}
}
