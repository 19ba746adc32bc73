package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	staticconfig "github.com/wippyai/static-config"
	"github.com/wippyai/static-config/config"
)

// PatchOptions holds the patch subcommand flags.
type PatchOptions struct {
	In         string
	Out        string
	ConfigFile string
	Set        []string
}

func NewPatchOptions() *PatchOptions {
	return &PatchOptions{}
}

func NewPatchCmd() *cobra.Command {
	o := NewPatchOptions()

	patchCmd := &cobra.Command{
		Use:   "patch",
		Short: "Embed overrides into an adapter module",
		Long: `Embed key/value overrides into an adapter module.

Overrides come from a TOML, YAML or JSON file holding an "overrides" list of
[key, value] pairs, from repeated --set key=value flags, or both. Values from
--set are added after the file's.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runPatch(cmd, o)
		},
	}

	fs := patchCmd.Flags()
	fs.StringVar(&o.In, "in", o.In, "Adapter module to patch")
	fs.StringVar(&o.Out, "out", o.Out, "Where to write the patched module")
	fs.StringVarP(&o.ConfigFile, "config", "c", o.ConfigFile, "Override file (.toml, .yaml, .yml or .json)")
	fs.StringArrayVar(&o.Set, "set", o.Set, "Add an override as key=value (repeatable)")
	for _, name := range []string{"in", "out"} {
		if err := patchCmd.MarkFlagRequired(name); err != nil {
			panic(fmt.Sprintf("DEVELOPER ERROR: %s", err))
		}
	}

	return patchCmd
}

func (o *PatchOptions) overrides() (*config.Config, error) {
	cfg := &config.Config{}
	if o.ConfigFile != "" {
		loaded, err := config.Load(o.ConfigFile)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}

	extra := make([]config.Override, 0, len(o.Set))
	for _, s := range o.Set {
		ov, err := config.ParseOverride(s)
		if err != nil {
			return nil, err
		}
		extra = append(extra, ov)
	}
	return cfg.Merge(extra...), nil
}

func runPatch(cmd *cobra.Command, o *PatchOptions) error {
	cfg, err := o.overrides()
	if err != nil {
		return err
	}

	in, err := os.ReadFile(o.In)
	if err != nil {
		return fmt.Errorf("read module: %w", err)
	}

	out, err := staticconfig.Bake(in, cfg.Overrides)
	if err != nil {
		return fmt.Errorf("patch %s: %w", o.In, err)
	}

	if err := os.WriteFile(o.Out, out, 0o644); err != nil {
		return fmt.Errorf("write module: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "embedded %d overrides into %s (%d bytes)\n", len(cfg.Overrides), o.Out, len(out))
	return nil
}
