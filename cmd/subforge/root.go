package main

import (
	"errors"

	"github.com/spf13/cobra"

	"subforge/internal/services"
)

// failedAssetsError signals a completed run with asset-level failures, so
// main can exit 1 without reprinting the summary as an error.
var failedAssetsError = errors.New("one or more assets failed")

func exitCodeFor(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, services.ErrConfiguration):
		return 2
	default:
		return 1
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string

	ctx := newCommandContext(&configFlag)

	rootCmd := &cobra.Command{
		Use:           "subforge",
		Short:         "Acquire, synchronize, and embed subtitles for a video library",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newInspectCommand(ctx))
	rootCmd.AddCommand(newDepsCommand(ctx))
	rootCmd.AddCommand(newConfigCommand(ctx))

	return rootCmd
}
