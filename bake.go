package staticconfig

import (
	"github.com/wippyai/static-config/config"
	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/patch"
	"github.com/wippyai/static-config/wasm"
)

// Bake returns a copy of the adapter module wasmBytes with overrides
// embedded. The input is not modified.
func Bake(wasmBytes []byte, overrides []config.Override) ([]byte, error) {
	m, err := wasm.Parse(wasmBytes)
	if err != nil {
		return nil, errors.Load("parse adapter module", err)
	}
	if _, err := patch.Apply(m, overrides); err != nil {
		return nil, err
	}
	return m.Encode(), nil
}
