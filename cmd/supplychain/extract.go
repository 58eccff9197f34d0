package main

import (
	"os/signal"
	"strconv"
	"syscall"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"supplychain/internal/pipeline"
)

func newExtractCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Load and extract the relations, export them and print their sizes",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := newLogger(cmd.ErrOrStderr(), f.verbose)

			p, err := loadPipeline(f, log)
			if err != nil {
				return err
			}
			flush := setupMetrics(f, p, log)
			defer flush()

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			res, err := pipeline.ExtractOnly(ctx, p, pipeline.Options{Logger: log})
			if err != nil {
				return err
			}

			table := tablewriter.NewWriter(cmd.OutOrStdout())
			table.SetAutoFormatHeaders(false)
			table.SetHeader([]string{"Relation", "Rows"})
			for _, name := range res.Catalog.Names() {
				rel, err := res.Catalog.Lookup(name)
				if err != nil {
					return err
				}
				table.Append([]string{name, strconv.Itoa(rel.Len())})
			}
			table.SetFooter([]string{"source rows", strconv.FormatInt(res.Stats.Read, 10)})
			table.Render()
			return nil
		},
	}
}
