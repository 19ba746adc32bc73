package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestError_Error(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "full error",
			err: &Error{
				Phase:  PhaseResolve,
				Kind:   KindUnsupportedGlobalKind,
				Path:   []string{"exports", "CONFIG"},
				Item:   "CONFIG",
				Detail: "global is mutable",
			},
			contains: []string{"[resolve]", "unsupported_global_kind", "exports.CONFIG", "CONFIG - global is mutable"},
		},
		{
			name: "minimal error",
			err: &Error{
				Phase: PhasePatch,
				Kind:  KindMemoryNotFound,
			},
			contains: []string{"[patch]", "memory_not_found"},
		},
		{
			name: "error with cause",
			err: &Error{
				Phase:  PhaseConfig,
				Kind:   KindInvalidConfig,
				Detail: "bad file",
				Cause:  errors.New("underlying error"),
			},
			contains: []string{"[config]", "invalid_config", "bad file", "caused by", "underlying error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg := tt.err.Error()
			for _, s := range tt.contains {
				if !strings.Contains(msg, s) {
					t.Errorf("error message %q does not contain %q", msg, s)
				}
			}
		})
	}
}

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("root cause")
	err := Load("parse module", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is did not reach cause")
	}
	if !errors.Is(errors.Unwrap(err), cause) {
		t.Error("errors.Unwrap did not return cause")
	}
}

func TestError_Is(t *testing.T) {
	err := MissingExport("CONFIG")

	if !errors.Is(err, ErrMissingExport) {
		t.Error("sentinel without phase should match on kind")
	}
	if !errors.Is(err, &Error{Phase: PhaseResolve, Kind: KindMissingExport}) {
		t.Error("Is should match same phase and kind")
	}
	if errors.Is(err, &Error{Phase: PhasePatch, Kind: KindMissingExport}) {
		t.Error("Is should not match different phase")
	}
	if errors.Is(err, ErrNotAGlobal) {
		t.Error("Is should not match different kind")
	}
	if errors.Is(err, errors.New("missing_export")) {
		t.Error("Is should not match foreign error types")
	}
}

func TestBuilder(t *testing.T) {
	cause := errors.New("root")
	err := New(PhaseAllocate, KindStackExhausted).
		Path("globals", "__stack_pointer").
		Item("__stack_pointer").
		Value(42).
		Cause(cause).
		Detail("need %d bytes, have %d", 64, 16).
		Build()

	if err.Phase != PhaseAllocate {
		t.Errorf("Phase = %v, want %v", err.Phase, PhaseAllocate)
	}
	if err.Kind != KindStackExhausted {
		t.Errorf("Kind = %v, want %v", err.Kind, KindStackExhausted)
	}
	if len(err.Path) != 2 || err.Path[1] != "__stack_pointer" {
		t.Errorf("Path = %v", err.Path)
	}
	if err.Item != "__stack_pointer" {
		t.Errorf("Item = %v", err.Item)
	}
	if err.Value != 42 {
		t.Errorf("Value = %v, want 42", err.Value)
	}
	if !errors.Is(err, cause) {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}
	if err.Detail != "need 64 bytes, have 16" {
		t.Errorf("Detail = %q", err.Detail)
	}
	if !errors.Is(err, ErrStackExhausted) {
		t.Error("built error should match its sentinel")
	}
}

func TestConvenienceConstructors(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		sentinel *Error
		phase    Phase
		contains string
	}{
		{"MissingExport", MissingExport("CONFIG"), ErrMissingExport, PhaseResolve, `"CONFIG"`},
		{"NotAGlobal", NotAGlobal("CONFIG", "function"), ErrNotAGlobal, PhaseResolve, "function"},
		{"UnsupportedGlobalKind", UnsupportedGlobalKind("CONFIG", "imported"), ErrUnsupportedGlobalKind, PhaseResolve, "imported"},
		{"MemoryNotFound", MemoryNotFound(), ErrMemoryNotFound, PhasePatch, "no linear memory"},
		{"NoContainingSegment", NoContainingSegment(0x400, "no segment"), ErrNoContainingSegment, PhasePatch, "0x400"},
		{"StackExhausted", StackExhausted(64, 16), ErrStackExhausted, PhaseAllocate, "64 bytes"},
		{"SegmentOverlap", SegmentOverlap(0x10, 0x20, 3), ErrSegmentOverlap, PhaseAllocate, "segment 3"},
		{"Unsupported", Unsupported(PhasePatch, "multiple memories"), ErrUnsupported, PhasePatch, "multiple memories"},
		{"OutOfBounds", OutOfBounds(PhaseRead, 0xfffe, 4, 0x10000), ErrOutOfBounds, PhaseRead, "4 bytes at 0xfffe past memory size 0x10000"},
		{"FieldUnknown", FieldUnknown(PhaseConfig, []string{"config"}, "extra"), ErrFieldUnknown, PhaseConfig, `"extra"`},
		{"InvalidData", InvalidData(PhaseRead, nil, "truncated"), ErrInvalidData, PhaseRead, "truncated"},
		{"InvalidConfig", InvalidConfig("cfg.toml", errors.New("boom")), ErrInvalidConfig, PhaseConfig, "cfg.toml"},
		{"Load", Load("parse adapter module", errors.New("boom")), ErrInvalidData, PhaseLoad, "boom"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Phase != tt.phase {
				t.Errorf("Phase = %v, want %v", tt.err.Phase, tt.phase)
			}
			if !errors.Is(tt.err, tt.sentinel) {
				t.Errorf("%v does not match sentinel %v", tt.err, tt.sentinel.Kind)
			}
			if !strings.Contains(tt.err.Error(), tt.contains) {
				t.Errorf("message %q does not contain %q", tt.err.Error(), tt.contains)
			}
		})
	}
}
