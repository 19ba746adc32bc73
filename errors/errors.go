package errors

import (
	"fmt"
	"strings"
)

// Phase indicates where in processing the error occurred
type Phase string

const (
	PhaseLoad     Phase = "load"     // module parsing
	PhaseResolve  Phase = "resolve"  // CONFIG export resolution
	PhaseEncode   Phase = "encode"   // field table encoding
	PhaseAllocate Phase = "allocate" // stack region allocation
	PhasePatch    Phase = "patch"    // config struct patching
	PhaseConfig   Phase = "config"   // override file loading
	PhaseRead     Phase = "read"     // reading an embedded table back
)

// Kind categorizes the error
type Kind string

const (
	KindMissingExport         Kind = "missing_export"
	KindNotAGlobal            Kind = "not_a_global"
	KindUnsupportedGlobalKind Kind = "unsupported_global_kind"
	KindMemoryNotFound        Kind = "memory_not_found"
	KindNoContainingSegment   Kind = "no_containing_segment"
	KindStackGlobalNotFound   Kind = "stack_global_not_found"
	KindStackExhausted        Kind = "stack_exhausted"
	KindSegmentOverlap        Kind = "segment_overlap"
	KindUnsupported           Kind = "unsupported"
	KindInvalidData           Kind = "invalid_data"
	KindInvalidConfig         Kind = "invalid_config"
	KindFieldUnknown          Kind = "field_unknown"
	KindOutOfBounds           Kind = "out_of_bounds"
)

// Sentinels for errors.Is. They match any Error of the same Kind regardless
// of phase.
var (
	ErrMissingExport         = &Error{Kind: KindMissingExport}
	ErrNotAGlobal            = &Error{Kind: KindNotAGlobal}
	ErrUnsupportedGlobalKind = &Error{Kind: KindUnsupportedGlobalKind}
	ErrMemoryNotFound        = &Error{Kind: KindMemoryNotFound}
	ErrNoContainingSegment   = &Error{Kind: KindNoContainingSegment}
	ErrStackGlobalNotFound   = &Error{Kind: KindStackGlobalNotFound}
	ErrStackExhausted        = &Error{Kind: KindStackExhausted}
	ErrSegmentOverlap        = &Error{Kind: KindSegmentOverlap}
	ErrUnsupported           = &Error{Kind: KindUnsupported}
	ErrInvalidData           = &Error{Kind: KindInvalidData}
	ErrInvalidConfig         = &Error{Kind: KindInvalidConfig}
	ErrFieldUnknown          = &Error{Kind: KindFieldUnknown}
	ErrOutOfBounds           = &Error{Kind: KindOutOfBounds}
)

// Error is the structured error type used throughout the module
type Error struct {
	Value  any
	Cause  error
	Phase  Phase
	Kind   Kind
	Item   string
	Detail string
	Path   []string
}

// Error implements the error interface
func (e *Error) Error() string {
	var b strings.Builder

	if e.Phase != "" {
		b.WriteByte('[')
		b.WriteString(string(e.Phase))
		b.WriteString("] ")
	}
	b.WriteString(string(e.Kind))

	if len(e.Path) > 0 {
		b.WriteString(" at ")
		b.WriteString(strings.Join(e.Path, "."))
	}

	if e.Item != "" {
		b.WriteString(": ")
		b.WriteString(e.Item)
	}

	if e.Detail != "" {
		if e.Item != "" {
			b.WriteString(" - ")
		} else {
			b.WriteString(": ")
		}
		b.WriteString(e.Detail)
	}

	if e.Cause != nil {
		b.WriteString(" (caused by: ")
		b.WriteString(e.Cause.Error())
		b.WriteByte(')')
	}

	return b.String()
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error. A target without a phase
// matches on kind alone.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Phase != "" && t.Phase != e.Phase {
		return false
	}
	return e.Kind == t.Kind
}

// Builder provides structured error construction
type Builder struct {
	err Error
}

// New creates a new error builder
func New(phase Phase, kind Kind) *Builder {
	return &Builder{
		err: Error{
			Phase: phase,
			Kind:  kind,
		},
	}
}

// Path sets the field path
func (b *Builder) Path(path ...string) *Builder {
	b.err.Path = path
	return b
}

// Item names the module item the error is about
func (b *Builder) Item(item string) *Builder {
	b.err.Item = item
	return b
}

// Value sets the offending value
func (b *Builder) Value(v any) *Builder {
	b.err.Value = v
	return b
}

// Cause sets the underlying error
func (b *Builder) Cause(err error) *Builder {
	b.err.Cause = err
	return b
}

// Detail sets the human-readable detail message
func (b *Builder) Detail(msg string, args ...any) *Builder {
	if len(args) > 0 {
		b.err.Detail = fmt.Sprintf(msg, args...)
	} else {
		b.err.Detail = msg
	}
	return b
}

// Build returns the constructed error
func (b *Builder) Build() *Error {
	return &b.err
}

// Convenience constructors for common error patterns

// MissingExport creates an error for an absent export
func MissingExport(name string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindMissingExport,
		Item:   name,
		Detail: fmt.Sprintf("export %q not found", name),
	}
}

// NotAGlobal creates an error for an export of the wrong kind
func NotAGlobal(name, kind string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindNotAGlobal,
		Item:   name,
		Detail: fmt.Sprintf("export is a %s, not a global", kind),
		Value:  kind,
	}
}

// UnsupportedGlobalKind creates an error for a global that is not a local
// immutable i32 constant
func UnsupportedGlobalKind(name, detail string) *Error {
	return &Error{
		Phase:  PhaseResolve,
		Kind:   KindUnsupportedGlobalKind,
		Item:   name,
		Detail: detail,
	}
}

// MemoryNotFound creates an error for a module without linear memory
func MemoryNotFound() *Error {
	return &Error{
		Phase:  PhasePatch,
		Kind:   KindMemoryNotFound,
		Detail: "module has no linear memory",
	}
}

// NoContainingSegment creates an error for an address outside every active
// data segment
func NoContainingSegment(addr uint32, detail string) *Error {
	return &Error{
		Phase:  PhasePatch,
		Kind:   KindNoContainingSegment,
		Detail: fmt.Sprintf("address 0x%x: %s", addr, detail),
		Value:  addr,
	}
}

// StackExhausted creates an allocation failure error
func StackExhausted(size, stackPointer uint32) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindStackExhausted,
		Detail: fmt.Sprintf("stack pointer 0x%x is smaller than the %d bytes requested", stackPointer, size),
		Value:  size,
	}
}

// SegmentOverlap creates an error for an allocation that would overlap an
// existing active segment
func SegmentOverlap(start, end uint32, segment int) *Error {
	return &Error{
		Phase:  PhaseAllocate,
		Kind:   KindSegmentOverlap,
		Detail: fmt.Sprintf("range [0x%x, 0x%x) overlaps data segment %d", start, end, segment),
		Value:  segment,
	}
}

// Unsupported creates an unsupported operation error
func Unsupported(phase Phase, what string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindUnsupported,
		Detail: what,
	}
}

// OutOfBounds creates an error for a read of length bytes at offset that
// ends past size
func OutOfBounds(phase Phase, offset, length uint32, size uint64) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindOutOfBounds,
		Detail: fmt.Sprintf("read of %d bytes at 0x%x past memory size 0x%x", length, offset, size),
		Value:  offset,
	}
}

// FieldUnknown creates an unknown field error
func FieldUnknown(phase Phase, path []string, fieldName string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindFieldUnknown,
		Path:   path,
		Detail: fmt.Sprintf("unknown field %q", fieldName),
	}
}

// InvalidData creates an invalid data error
func InvalidData(phase Phase, path []string, detail string) *Error {
	return &Error{
		Phase:  phase,
		Kind:   KindInvalidData,
		Path:   path,
		Detail: detail,
	}
}

// InvalidConfig creates a configuration error
func InvalidConfig(source string, cause error) *Error {
	return &Error{
		Phase:  PhaseConfig,
		Kind:   KindInvalidConfig,
		Item:   source,
		Cause:  cause,
		Detail: "invalid configuration",
	}
}

// Load creates a module loading error
func Load(detail string, cause error) *Error {
	return &Error{
		Phase:  PhaseLoad,
		Kind:   KindInvalidData,
		Detail: detail,
		Cause:  cause,
	}
}
