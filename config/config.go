// Package config loads the host-supplied key/value overrides that get baked
// into an adapter module.
//
// Files hold a single "overrides" list of [key, value] pairs:
//
//	overrides = [
//	  ["greeting", "hello"],
//	  ["name", "componentized"],
//	]
//
// TOML, YAML and JSON are accepted, chosen by file extension. Unknown fields
// are rejected in every format and reported as errors.ErrFieldUnknown.
package config

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/static-config/errors"
)

// Format names a supported file format.
type Format string

const (
	FormatTOML Format = "toml"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// Override is one key/value pair.
type Override struct {
	Key   string
	Value string
}

func (o Override) String() string {
	return o.Key + "=" + o.Value
}

// Config is the set of overrides to embed. Order is irrelevant and
// duplicates are kept as given.
type Config struct {
	Overrides []Override
}

// file is the on-disk shape shared by all formats.
type file struct {
	Overrides [][]string `toml:"overrides" yaml:"overrides" json:"overrides"`
}

// Load reads the config file at path, choosing the format by extension.
func Load(path string) (*Config, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.InvalidConfig(path, err)
	}
	cfg, err := Decode(data, format)
	if err != nil {
		var e *errors.Error
		if stderrors.As(err, &e) && e.Item == "" {
			e.Item = path
		}
		return nil, err
	}
	return cfg, nil
}

// FormatFromPath maps a file extension to a Format.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML, nil
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", errors.New(errors.PhaseConfig, errors.KindUnsupported).
		Item(path).
		Detail("unknown config file extension %q", filepath.Ext(path)).
		Build()
}

// Decode parses data in the given format. Empty input yields an empty
// config.
func Decode(data []byte, format Format) (*Config, error) {
	if err := format.validate(); err != nil {
		return nil, err
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return &Config{}, nil
	}

	var f file
	var err error
	switch format {
	case FormatTOML:
		dec := toml.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	case FormatYAML:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		err = dec.Decode(&f)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		err = dec.Decode(&f)
	}
	if err != nil {
		if name, ok := unknownField(err); ok {
			err = errors.FieldUnknown(errors.PhaseConfig, nil, name)
		}
		return nil, errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
			Detail("decode %s", format).
			Cause(err).
			Build()
	}

	return f.toConfig()
}

// unknownField extracts the offending field name from a strict-mode decode
// failure of any supported format.
func unknownField(err error) (string, bool) {
	var strict *toml.StrictMissingError
	if stderrors.As(err, &strict) && len(strict.Errors) > 0 {
		return strings.Join(strict.Errors[0].Key(), "."), true
	}

	var typeErr *yaml.TypeError
	if stderrors.As(err, &typeErr) {
		for _, msg := range typeErr.Errors {
			if _, rest, ok := strings.Cut(msg, ": field "); ok {
				if name, _, ok := strings.Cut(rest, " not found in type"); ok {
					return name, true
				}
			}
		}
	}

	if quoted, ok := strings.CutPrefix(err.Error(), "json: unknown field "); ok {
		if name, uerr := strconv.Unquote(quoted); uerr == nil {
			return name, true
		}
	}
	return "", false
}

func (f Format) validate() error {
	switch f {
	case FormatTOML, FormatYAML, FormatJSON:
		return nil
	}
	return errors.Unsupported(errors.PhaseConfig, fmt.Sprintf("config format %q", f))
}

func (f file) toConfig() (*Config, error) {
	cfg := &Config{Overrides: make([]Override, 0, len(f.Overrides))}
	for i, pair := range f.Overrides {
		if len(pair) != 2 {
			return nil, errors.New(errors.PhaseConfig, errors.KindInvalidConfig).
				Path("overrides", fmt.Sprint(i)).
				Detail("expected a [key, value] pair, got %d elements", len(pair)).
				Build()
		}
		cfg.Overrides = append(cfg.Overrides, Override{Key: pair[0], Value: pair[1]})
	}
	return cfg, nil
}

// ParseOverride parses a "key=value" command-line assignment. The value may
// contain further '=' characters and may be empty.
func ParseOverride(s string) (Override, error) {
	key, value, ok := strings.Cut(s, "=")
	if !ok || key == "" {
		return Override{}, errors.New(errors.PhaseConfig, errors.KindInvalidData).
			Value(s).
			Detail("expected key=value, got %q", s).
			Build()
	}
	return Override{Key: key, Value: value}, nil
}

// Merge returns a config holding c's overrides followed by extra.
func (c *Config) Merge(extra ...Override) *Config {
	out := &Config{Overrides: make([]Override, 0, len(c.Overrides)+len(extra))}
	out.Overrides = append(out.Overrides, c.Overrides...)
	out.Overrides = append(out.Overrides, extra...)
	return out
}
