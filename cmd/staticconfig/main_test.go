package main

import (
	"bytes"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/internal/testmod"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func writeAdapter(t *testing.T, dir string, a testmod.Adapter) string {
	t.Helper()
	path := filepath.Join(dir, "adapter.wasm")
	if err := os.WriteFile(path, a.Build(), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestPatchAndInspect(t *testing.T) {
	dir := t.TempDir()
	in := writeAdapter(t, dir, testmod.Default())
	out := filepath.Join(dir, "patched.wasm")

	cfgPath := filepath.Join(dir, "static.yaml")
	if err := os.WriteFile(cfgPath, []byte("overrides:\n  - [name, componentized]\n"), 0o600); err != nil {
		t.Fatal(err)
	}

	msg, err := execute(t, "patch", "--in", in, "--out", out, "--config", cfgPath, "--set", "greeting=hello")
	if err != nil {
		t.Fatalf("patch: %v\n%s", err, msg)
	}
	if !strings.Contains(msg, "embedded 2 overrides") {
		t.Errorf("unexpected patch output: %q", msg)
	}

	for _, runtime := range []bool{false, true} {
		args := []string{"inspect", out}
		if runtime {
			args = []string{"inspect", "--runtime", out}
		}
		listing, err := execute(t, args...)
		if err != nil {
			t.Fatalf("%v: %v", args, err)
		}
		for _, want := range []string{
			"CONFIG at 0x400: 2 fields",
			"memory 0x20000 bytes",
			`greeting = "hello"`,
			`name = "componentized"`,
		} {
			if !strings.Contains(listing, want) {
				t.Errorf("%v: output missing %q:\n%s", args, want, listing)
			}
		}
		if strings.Index(listing, "greeting") > strings.Index(listing, "name =") {
			t.Errorf("%v: pairs not listed in key order:\n%s", args, listing)
		}
	}

	value, err := execute(t, "inspect", "--key", "name", out)
	if err != nil {
		t.Fatalf("inspect --key: %v", err)
	}
	if strings.TrimSpace(value) != "componentized" {
		t.Errorf("inspect --key name = %q", value)
	}

	if _, err := execute(t, "inspect", "--key", "missing", out); err == nil {
		t.Error("expected an error for an unset key")
	}
}

func TestInspectUnpatched(t *testing.T) {
	in := writeAdapter(t, t.TempDir(), testmod.Default())

	listing, err := execute(t, "inspect", in)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if !strings.Contains(listing, "0 fields") || !strings.Contains(listing, "(no overrides)") {
		t.Errorf("unexpected listing:\n%s", listing)
	}
}

func TestPatchErrors(t *testing.T) {
	dir := t.TempDir()
	noConfig := testmod.Default()
	noConfig.OmitConfigExport = true
	in := writeAdapter(t, dir, noConfig)
	out := filepath.Join(dir, "patched.wasm")

	_, err := execute(t, "patch", "--in", in, "--out", out, "--set", "greeting=hello")
	if !stderrors.Is(err, errors.ErrMissingExport) {
		t.Errorf("expected missing export error, got %v", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Error("output written despite failure")
	}

	if _, err := execute(t, "patch", "--in", in, "--out", out, "--set", "novalue"); !stderrors.Is(err, errors.ErrInvalidData) {
		t.Errorf("expected invalid override error, got %v", err)
	}

	if _, err := execute(t, "patch", "--out", out); err == nil {
		t.Error("expected an error without --in")
	}
}
