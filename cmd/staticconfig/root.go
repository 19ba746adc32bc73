package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/wippyai/static-config/patch"
)

// RootOptions holds flags shared by every subcommand.
type RootOptions struct {
	logger  *zap.Logger
	Verbose bool
}

func NewRootCmd() *cobra.Command {
	o := &RootOptions{}

	rootCmd := &cobra.Command{
		Use:           "staticconfig",
		Short:         "Embed static configuration into WebAssembly adapter modules",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return o.setupLogging()
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if o.logger != nil {
				_ = o.logger.Sync()
			}
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&o.Verbose, "verbose", "v", o.Verbose, "Log patch details to stderr")

	rootCmd.AddCommand(NewPatchCmd(), NewInspectCmd())
	return rootCmd
}

func (o *RootOptions) setupLogging() error {
	var (
		l   *zap.Logger
		err error
	)
	if o.Verbose {
		l, err = zap.NewDevelopment()
	} else {
		cfg := zap.NewProductionConfig()
		cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
		l, err = cfg.Build()
	}
	if err != nil {
		return err
	}
	o.logger = l
	patch.SetLogger(l)
	return nil
}
