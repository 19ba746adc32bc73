package config

import (
	stderrors "errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/wippyai/static-config/errors"
)

var twoPairs = []Override{
	{Key: "greeting", Value: "hello"},
	{Key: "name", Value: "componentized"},
}

func TestDecodeFormats(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		data   string
	}{
		{
			name:   "toml",
			format: FormatTOML,
			data:   "overrides = [\n  [\"greeting\", \"hello\"],\n  [\"name\", \"componentized\"],\n]\n",
		},
		{
			name:   "yaml",
			format: FormatYAML,
			data:   "overrides:\n  - [greeting, hello]\n  - [name, componentized]\n",
		},
		{
			name:   "json",
			format: FormatJSON,
			data:   `{"overrides": [["greeting", "hello"], ["name", "componentized"]]}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Decode([]byte(tt.data), tt.format)
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			if !reflect.DeepEqual(cfg.Overrides, twoPairs) {
				t.Errorf("overrides: got %v, want %v", cfg.Overrides, twoPairs)
			}
		})
	}
}

func TestDecodeKeepsOrderAndDuplicates(t *testing.T) {
	cfg, err := Decode([]byte(`{"overrides": [["b", "1"], ["a", "2"], ["b", "3"]]}`), FormatJSON)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := []Override{{"b", "1"}, {"a", "2"}, {"b", "3"}}
	if !reflect.DeepEqual(cfg.Overrides, want) {
		t.Errorf("overrides: got %v, want %v", cfg.Overrides, want)
	}
}

func TestDecodeEmpty(t *testing.T) {
	for _, format := range []Format{FormatTOML, FormatYAML, FormatJSON} {
		cfg, err := Decode([]byte("  \n"), format)
		if err != nil {
			t.Fatalf("%s: Decode: %v", format, err)
		}
		if len(cfg.Overrides) != 0 {
			t.Errorf("%s: expected no overrides, got %v", format, cfg.Overrides)
		}
	}

	cfg, err := Decode([]byte("overrides = []\n"), FormatTOML)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if len(cfg.Overrides) != 0 {
		t.Errorf("expected no overrides, got %v", cfg.Overrides)
	}
}

func TestDecodeRejectsUnknownFields(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatTOML, "overrides = []\nextra = 1\n"},
		{FormatYAML, "overrides: []\nextra: 1\n"},
		{FormatJSON, `{"overrides": [], "extra": 1}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			if !stderrors.Is(err, errors.ErrInvalidConfig) {
				t.Errorf("expected invalid config error, got %v", err)
			}
			if !stderrors.Is(err, errors.ErrFieldUnknown) {
				t.Errorf("expected unknown field error, got %v", err)
			}
			if err == nil || !strings.Contains(err.Error(), `"extra"`) {
				t.Errorf("error should name the field: %v", err)
			}
		})
	}
}

func TestDecodeRejectsMalformedPairs(t *testing.T) {
	tests := []struct {
		format Format
		data   string
	}{
		{FormatTOML, "overrides = [[\"only-key\"]]\n"},
		{FormatYAML, "overrides:\n  - [only-key]\n"},
		{FormatJSON, `{"overrides": [["only-key"]]}`},
	}

	for _, tt := range tests {
		t.Run(string(tt.format), func(t *testing.T) {
			_, err := Decode([]byte(tt.data), tt.format)
			if !stderrors.Is(err, errors.ErrInvalidConfig) {
				t.Fatalf("expected invalid config error, got %v", err)
			}
			if stderrors.Is(err, errors.ErrInvalidData) {
				t.Errorf("malformed pair should not report invalid data: %v", err)
			}
			if !strings.Contains(err.Error(), "overrides.0") {
				t.Errorf("error should name the entry: %v", err)
			}
		})
	}
}

func TestDecodeUnsupportedFormat(t *testing.T) {
	_, err := Decode([]byte("x"), Format("ini"))
	if !stderrors.Is(err, errors.ErrUnsupported) {
		t.Errorf("expected unsupported error, got %v", err)
	}
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "static.toml")
	data := "overrides = [[\"greeting\", \"hello\"]]\n"
	if err := os.WriteFile(path, []byte(data), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := []Override{{Key: "greeting", Value: "hello"}}
	if !reflect.DeepEqual(cfg.Overrides, want) {
		t.Errorf("overrides: got %v, want %v", cfg.Overrides, want)
	}

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.yaml"))
		if !stderrors.Is(err, errors.ErrInvalidConfig) || !stderrors.Is(err, os.ErrNotExist) {
			t.Errorf("expected wrapped not-exist error, got %v", err)
		}
	})

	t.Run("bad extension", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "static.ini"))
		if !stderrors.Is(err, errors.ErrUnsupported) {
			t.Errorf("expected unsupported error, got %v", err)
		}
	})

	t.Run("decode error names file", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.json")
		if err := os.WriteFile(bad, []byte(`{"nope": 1}`), 0o600); err != nil {
			t.Fatal(err)
		}
		_, err := Load(bad)
		if err == nil || !strings.Contains(err.Error(), bad) {
			t.Errorf("expected error naming %s, got %v", bad, err)
		}
	})
}

func TestParseOverride(t *testing.T) {
	tests := []struct {
		in      string
		want    Override
		wantErr bool
	}{
		{in: "greeting=hello", want: Override{"greeting", "hello"}},
		{in: "expr=a=b", want: Override{"expr", "a=b"}},
		{in: "empty=", want: Override{"empty", ""}},
		{in: "novalue", wantErr: true},
		{in: "=value", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOverride(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Errorf("expected error, got %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseOverride: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMerge(t *testing.T) {
	base := &Config{Overrides: []Override{{"a", "1"}}}
	merged := base.Merge(Override{"b", "2"})

	want := []Override{{"a", "1"}, {"b", "2"}}
	if !reflect.DeepEqual(merged.Overrides, want) {
		t.Errorf("merged: got %v, want %v", merged.Overrides, want)
	}
	if len(base.Overrides) != 1 {
		t.Error("Merge modified the receiver")
	}
}
