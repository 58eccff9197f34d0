package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"supplychain/internal/config"
	"supplychain/internal/pipeline"
	"supplychain/internal/present"
)

func newRunCmd(f *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Load, extract, run reports, then print and export the results",
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

			res, err := pipeline.Run(ctx, p, pipeline.Options{
				ReportIDs: splitIDs(f.reports),
				Logger:    log,
			})
			if err != nil {
				return err
			}

			switch p.Output.Format {
			case config.FormatTable:
				for _, r := range res.Reports {
					if err := present.Table(cmd.OutOrStdout(), r, p.Output.MaxRows); err != nil {
						return err
					}
				}
			case config.FormatJSON:
				for _, r := range res.Reports {
					if r.Err != nil {
						continue
					}
					path, err := present.WriteJSON(p.Output.Dir, res.RunID, res.StartedAt, r)
					if err != nil {
						return err
					}
					log.Info("report written", "report", r.ID, "path", path)
				}
			}

			if res.Failed() {
				for _, r := range res.Reports {
					if r.Err != nil {
						log.Error("report failed", "report", r.ID, "err", r.Err)
					}
				}
				return fmt.Errorf("run %s: %w", res.RunID, errReportsFailed)
			}
			log.Info("run complete", "run_id", res.RunID, "reports", len(res.Reports), "rows", res.Stats.Read)
			return nil
		},
	}
}

