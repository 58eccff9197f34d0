package main

import (
	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"supplychain/internal/report"
)

func newReportsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reports",
		Short: "List the available reports",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"ID", "Title"})
			for _, d := range report.Definitions(report.DefaultOptions()) {
				table.Append([]string{d.ID, d.Title})
			}
			table.Render()
			return nil
		},
	}
}
