package store

import (
	"fmt"
	"slices"
	"strings"

	staticconfig "github.com/wippyai/static-config"
	"github.com/wippyai/static-config/config"
	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/patch"
)

// maxPrealloc bounds the entry slice allocated up front from an untrusted
// count.
const maxPrealloc = 1024

type span struct {
	addr uint32
	len  uint32
}

type entry struct {
	key   string
	value span
}

// Store is a read-only view of an embedded field table.
type Store struct {
	mem     staticconfig.Memory
	entries []entry

	// ConfigAddr is the address of the config struct.
	ConfigAddr uint32
	// FieldData is the table address from the struct. It is not followed
	// when the count is zero.
	FieldData uint32
}

// New reads the config struct at configAddr and indexes its table.
func New(mem staticconfig.Memory, configAddr uint32) (*Store, error) {
	count, err := mem.ReadU32(configAddr + patch.OffsetFieldCount)
	if err != nil {
		return nil, tableError(err, "config", "host_field_cnt")
	}
	data, err := mem.ReadU32(configAddr + patch.OffsetFieldData)
	if err != nil {
		return nil, tableError(err, "config", "host_field_data")
	}

	s := &Store{
		mem:        mem,
		ConfigAddr: configAddr,
		FieldData:  data,
		entries:    make([]entry, 0, min(count, maxPrealloc)),
	}

	pos := data
	for i := uint32(0); i < count; i++ {
		key, next, err := readSpan(mem, pos)
		if err != nil {
			return nil, tableError(err, "table", fmt.Sprint(i), "key")
		}
		value, next, err := readSpan(mem, next)
		if err != nil {
			return nil, tableError(err, "table", fmt.Sprint(i), "value")
		}
		pos = next

		raw, err := mem.Read(key.addr, key.len)
		if err != nil {
			return nil, tableError(err, "table", fmt.Sprint(i), "key")
		}
		s.entries = append(s.entries, entry{key: string(raw), value: value})
	}

	for i := 1; i < len(s.entries); i++ {
		if s.entries[i-1].key > s.entries[i].key {
			return nil, errors.InvalidData(errors.PhaseRead, []string{"table", fmt.Sprint(i)},
				fmt.Sprintf("key %q sorts before preceding key %q", s.entries[i].key, s.entries[i-1].key))
		}
	}

	return s, nil
}

// readSpan reads a length-prefixed string header at pos and returns where
// its bytes live and where the next string starts.
func readSpan(mem staticconfig.Memory, pos uint32) (span, uint32, error) {
	n, err := mem.ReadU32(pos)
	if err != nil {
		return span{}, 0, err
	}
	next := uint64(pos) + 4 + (uint64(n)+3)&^3
	if next > 1<<32 {
		return span{}, 0, errors.OutOfBounds(errors.PhaseRead, pos+4, n, 1<<32)
	}
	return span{addr: pos + 4, len: n}, uint32(next), nil
}

func tableError(err error, path ...string) error {
	return errors.New(errors.PhaseRead, errors.KindInvalidData).
		Path(path...).
		Cause(err).
		Build()
}

// MemorySize reports the size of the memory the table is read from, when the
// memory can tell.
func (s *Store) MemorySize() (uint32, bool) {
	sizer, ok := s.mem.(staticconfig.MemorySizer)
	if !ok {
		return 0, false
	}
	return sizer.Size(), true
}

// Len returns the number of pairs in the table.
func (s *Store) Len() int {
	return len(s.entries)
}

// Keys returns the keys in table order.
func (s *Store) Keys() []string {
	keys := make([]string, len(s.entries))
	for i, e := range s.entries {
		keys[i] = e.key
	}
	return keys
}

// Get returns the value stored for key. With duplicate keys the first in
// table order wins.
func (s *Store) Get(key string) (string, bool, error) {
	i, found := slices.BinarySearchFunc(s.entries, key, func(e entry, k string) int {
		return strings.Compare(e.key, k)
	})
	if !found {
		return "", false, nil
	}
	v, err := s.value(i)
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// GetAll returns every pair in table order.
func (s *Store) GetAll() ([]config.Override, error) {
	out := make([]config.Override, 0, len(s.entries))
	for i, e := range s.entries {
		v, err := s.value(i)
		if err != nil {
			return nil, err
		}
		out = append(out, config.Override{Key: e.key, Value: v})
	}
	return out, nil
}

func (s *Store) value(i int) (string, error) {
	sp := s.entries[i].value
	raw, err := s.mem.Read(sp.addr, sp.len)
	if err != nil {
		return "", tableError(err, "table", fmt.Sprint(i), "value")
	}
	return string(raw), nil
}
