package patch

import "testing"

func TestLayoutOffsets(t *testing.T) {
	named := map[string]uint32{
		"unused":          OffsetUnused,
		"host_field_cnt":  OffsetFieldCount,
		"host_field_data": OffsetFieldData,
	}

	var off uint32
	for _, f := range Layout {
		want, ok := named[f.Name]
		if !ok {
			t.Fatalf("layout field %q has no offset constant", f.Name)
		}
		if off != want {
			t.Errorf("%s: derived offset %d, constant %d", f.Name, off, want)
		}
		if got, _ := FieldOffset(f.Name); got != off {
			t.Errorf("FieldOffset(%q) = %d, want %d", f.Name, got, off)
		}
		if f.Size != 4 {
			t.Errorf("%s: size %d, want 4", f.Name, f.Size)
		}
		off += f.Size
	}

	if off != ConfigSize {
		t.Errorf("derived size %d, ConfigSize %d", off, ConfigSize)
	}
	if len(Layout) != len(named) {
		t.Errorf("layout has %d fields, %d offset constants", len(Layout), len(named))
	}
	if _, ok := FieldOffset("missing"); ok {
		t.Error("FieldOffset found a field that does not exist")
	}
}
