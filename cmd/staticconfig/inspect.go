package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/tetratelabs/wazero"

	"github.com/wippyai/static-config/errors"
	"github.com/wippyai/static-config/store"
	"github.com/wippyai/static-config/wasm"
)

// InspectOptions holds the inspect subcommand flags.
type InspectOptions struct {
	Key     string
	Runtime bool
}

func NewInspectOptions() *InspectOptions {
	return &InspectOptions{}
}

func NewInspectCmd() *cobra.Command {
	o := NewInspectOptions()

	inspectCmd := &cobra.Command{
		Use:   "inspect <module.wasm>",
		Short: "List the configuration embedded in a module",
		Long: `List the configuration embedded in a module.

By default the table is read from the module's data segments. With --runtime
the module is instantiated in wazero and the table is read from its live
memory through the exported CONFIG global.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, o, args[0])
		},
	}

	fs := inspectCmd.Flags()
	fs.BoolVar(&o.Runtime, "runtime", o.Runtime, "Read the table from a live wazero instance")
	fs.StringVar(&o.Key, "key", o.Key, "Print only the value for this key")

	return inspectCmd
}

func runInspect(cmd *cobra.Command, o *InspectOptions, path string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	s, closeStore, err := openStore(ctx, data, o.Runtime)
	if err != nil {
		return err
	}
	defer closeStore()

	out := cmd.OutOrStdout()
	st := newStyles(out)

	if o.Key != "" {
		v, ok, err := s.Get(o.Key)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("key %q is not set", o.Key)
		}
		fmt.Fprintln(out, st.value.Render(v))
		return nil
	}

	return printTable(out, st, s)
}

// openStore reads the table from the module image, or from a live wazero
// instance when runtime is set. The returned func releases the instance.
func openStore(ctx context.Context, data []byte, runtime bool) (*store.Store, func(), error) {
	if !runtime {
		m, err := wasm.Parse(data)
		if err != nil {
			return nil, nil, errors.Load("parse module", err)
		}
		s, err := store.FromModule(m)
		if err != nil {
			return nil, nil, err
		}
		return s, func() {}, nil
	}

	r := wazero.NewRuntime(ctx)
	s, _, err := store.Instantiate(ctx, r, data)
	if err != nil {
		_ = r.Close(ctx)
		return nil, nil, err
	}
	return s, func() { _ = r.Close(ctx) }, nil
}

func printTable(out io.Writer, st styles, s *store.Store) error {
	pairs, err := s.GetAll()
	if err != nil {
		return err
	}

	fmt.Fprintln(out, st.title.Render(fmt.Sprintf("CONFIG at 0x%x: %d fields", s.ConfigAddr, len(pairs))))
	if size, ok := s.MemorySize(); ok {
		fmt.Fprintln(out, st.muted.Render(fmt.Sprintf("memory 0x%x bytes", size)))
	}
	if len(pairs) == 0 {
		fmt.Fprintln(out, st.muted.Render("(no overrides)"))
		return nil
	}
	fmt.Fprintln(out, st.muted.Render("table at 0x"+strconv.FormatUint(uint64(s.FieldData), 16)))
	for _, p := range pairs {
		fmt.Fprintf(out, "%s = %s\n", st.key.Render(p.Key), st.value.Render(strconv.Quote(p.Value)))
	}
	return nil
}
