package patch

// Field is one member of the config struct.
type Field struct {
	Name string
	Size uint32
}

// Layout is the config struct the CONFIG global points at. Fields are packed
// in order with no padding.
var Layout = []Field{
	{Name: "unused", Size: 4},
	{Name: "host_field_cnt", Size: 4},
	{Name: "host_field_data", Size: 4},
}

// Byte offsets into the config struct.
const (
	OffsetUnused     = 0
	OffsetFieldCount = 4
	OffsetFieldData  = 8

	// ConfigSize is the size of the whole struct.
	ConfigSize = 12
)

// FieldOffset returns the offset of the named field in Layout.
func FieldOffset(name string) (uint32, bool) {
	var off uint32
	for _, f := range Layout {
		if f.Name == name {
			return off, true
		}
		off += f.Size
	}
	return 0, false
}
