package report

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"supplychain/internal/engine"
	"supplychain/internal/metrics"
)

// Result is the outcome of one report. Exactly one of Frame and Err is set.
type Result struct {
	ID       string
	Title    string
	Frame    *engine.Frame
	Err      error
	Duration time.Duration
}

// Runner executes report definitions concurrently over a read-only catalog.
type Runner struct {
	Catalog *engine.Catalog
	// Workers bounds concurrency; <= 0 uses GOMAXPROCS.
	Workers int
	Job     string
	Logger  *slog.Logger
}

// Run executes defs and returns one Result per definition, in the order of
// defs. A failing or panicking report never affects the others; only context
// cancellation stops scheduling of reports not yet started.
func (r *Runner) Run(ctx context.Context, defs []Definition) []Result {
	logger := r.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := r.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	results := make([]Result, len(defs))
	g := new(errgroup.Group)
	g.SetLimit(workers)
	for i, d := range defs {
		results[i] = Result{ID: d.ID, Title: d.Title}
		g.Go(func() error {
			start := time.Now()
			var (
				f   *engine.Frame
				err error
			)
			if err = ctx.Err(); err == nil {
				f, err = r.runOne(ctx, d)
			}
			dur := time.Since(start)

			results[i].Frame, results[i].Err, results[i].Duration = f, err, dur
			metrics.RecordStep(r.Job, "report_"+d.ID, err, dur)
			if err != nil {
				logger.Error("report failed", "report", d.ID, "err", err, "duration", dur)
				return nil
			}
			metrics.RecordRow(r.Job, "report_rows", int64(f.Len()))
			logger.Debug("report done", "report", d.ID, "rows", f.Len(), "duration", dur)
			return nil
		})
	}
	_ = g.Wait()
	return results
}

func (r *Runner) runOne(ctx context.Context, d Definition) (f *engine.Frame, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("report %s panicked: %v\n%s", d.ID, p, debug.Stack())
		}
	}()
	f, err = engine.Execute(ctx, r.Catalog, d.Pipeline)
	if err != nil {
		return nil, fmt.Errorf("report %s: %w", d.ID, err)
	}
	f.Name = d.ID
	return f, nil
}

// Failed returns the failed results.
func Failed(results []Result) []Result {
	var out []Result
	for _, res := range results {
		if res.Err != nil {
			out = append(out, res)
		}
	}
	return out
}
