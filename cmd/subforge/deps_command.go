package main

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"

	"subforge/internal/deps"
)

func newDepsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "deps",
		Short: "Check the external binaries the pipeline shells out to",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			statuses := deps.CheckBinaries(deps.Requirements(cfg))

			tw := table.NewWriter()
			tw.SetOutputMirror(cmd.OutOrStdout())
			tw.AppendHeader(table.Row{"Binary", "Available", "Detail"})
			missingRequired := false
			for _, status := range statuses {
				detail := status.Description
				if !status.Available {
					detail = status.Detail
					if status.Optional {
						detail += " (optional)"
					} else {
						missingRequired = true
					}
				}
				tw.AppendRow(table.Row{status.Name, status.Available, detail})
			}
			tw.Render()

			if missingRequired {
				return fmt.Errorf("required binaries missing")
			}
			return nil
		},
	}
}
