package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"subforge/internal/asset"
	"subforge/internal/config"
	"subforge/internal/inventory"
	"subforge/internal/media/ffprobe"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <video-file>",
		Short: "Show subtitle coverage for a single video file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			path, err := config.ExpandPath(args[0])
			if err != nil {
				return err
			}
			if !asset.IsVideoFile(path) {
				return fmt.Errorf("%s is not a recognized video file", path)
			}

			a := asset.VideoAsset{Path: path, RelPath: filepath.Base(path)}
			taker := inventory.Taker{
				FFprobeBinary: cfg.FFprobeBinary(),
				Inspect:       ffprobe.Inspect,
			}
			inv, err := taker.Take(cmd.Context(), a, cfg.TargetLanguages())
			if err != nil {
				return err
			}

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Language", "Embedded", "Sidecar"})
			for _, status := range inv.Statuses {
				sidecar := ""
				if status.Sidecar != nil {
					sidecar = filepath.Base(status.Sidecar.Path)
					if status.Sidecar.Aligned {
						sidecar += " (aligned)"
					}
				}
				tw.AppendRow(table.Row{status.Language, status.Embedded, sidecar})
			}
			tw.Render()

			if missing := inv.Missing(); len(missing) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "missing: %s\n", strings.Join(missing, ", "))
			} else {
				fmt.Fprintln(cmd.OutOrStdout(), "all target languages covered")
			}
			return nil
		},
	}
}
