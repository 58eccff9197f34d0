// Package pipeline wires the loader, extraction, reports and export into one
// run. The loader keeps the streaming shape of a classic ETL run:
//
//	Reader (CSV → pooled rows)
//	     → N Transformers (coerce in place)
//	     → Collector (copy into the source frame, free rows)
//
// Channels are bounded, so peak memory beyond the frame itself stays around
// O(buffer). Unlike a database load nothing is dropped after parsing: cells
// that do not coerce become NULL and are counted.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"supplychain/internal/config"
	"supplychain/internal/datasource"
	"supplychain/internal/dates"
	"supplychain/internal/engine"
	"supplychain/internal/metrics"
	csvparser "supplychain/internal/parser/csv"
	"supplychain/internal/schema"
	"supplychain/internal/transformer"
)

// SourceFrame is the name of the frame Load returns.
const SourceFrame = "source"

// sampleErrors is how many distinct error messages are kept for the summary.
const sampleErrors = 3

// LoadOptions configures Load.
type LoadOptions struct {
	Parser          config.Options
	OrderDateLayout string
	// Workers is the number of coercion goroutines; <= 0 uses GOMAXPROCS.
	Workers int
	// Buffer sizes the channels between stages; <= 0 uses config.DefaultChannelBuffer.
	Buffer int
	Job    string
	Logger *slog.Logger
}

// LoadStats summarizes a load.
//
// Invariant: Read + ParseErrors equals the number of data records in the
// source.
type LoadStats struct {
	Read        int64 // rows that reached the frame
	ParseErrors int64 // malformed CSV records that were skipped
	NullCoerced int64 // non-empty cells that did not parse and became NULL
}

// Load reads src into a typed frame with the schema.Columns layout. Rows
// appear in source order regardless of the number of workers.
func Load(ctx context.Context, src datasource.Source, opt LoadOptions) (*engine.Frame, LoadStats, error) {
	start := time.Now()
	f, stats, err := load(ctx, src, opt)
	metrics.RecordStep(opt.Job, "load", err, time.Since(start))
	if err != nil {
		return nil, stats, err
	}
	metrics.RecordRow(opt.Job, "read", stats.Read)
	metrics.RecordRow(opt.Job, "parse_errors", stats.ParseErrors)
	metrics.RecordRow(opt.Job, "null_coerced", stats.NullCoerced)
	return f, stats, nil
}

func load(ctx context.Context, src datasource.Source, opt LoadOptions) (*engine.Frame, LoadStats, error) {
	logger := opt.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opt.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	buffer := opt.Buffer
	if buffer <= 0 {
		buffer = config.DefaultChannelBuffer
	}
	layout := opt.OrderDateLayout
	if layout == "" {
		layout = dates.DefaultOrderLayout
	}

	cols := schema.Columns()
	kinds := make([]engine.Kind, len(cols))
	for i, c := range cols {
		kinds[i] = c.Kind
	}
	plan := transformer.CompilePlan(kinds, dates.NewNormalizer(layout))
	headers := schema.Headers()

	var (
		parseErrs   atomic.Int64
		nullCoerced atomic.Int64
		parseAgg    = newErrAgg(sampleErrors)
		nullAgg     = newErrAgg(sampleErrors)
	)
	onParseErr := func(line int, err error) {
		parseErrs.Add(1)
		parseAgg.add(fmt.Sprintf("line=%d: %v", line, err))
	}
	onNull := func(line, col int) {
		nullCoerced.Add(1)
		nullAgg.add(fmt.Sprintf("line=%d col=%s", line, cols[col].Name))
	}

	g, ctx := errgroup.WithContext(ctx)
	rawCh := make(chan *transformer.Row, buffer)
	coercedCh := make(chan *transformer.Row, buffer)

	// 1) Reader.
	g.Go(func() error {
		defer close(rawCh)
		rc, err := src.Open(ctx)
		if err != nil {
			return fmt.Errorf("source open: %w", err)
		}
		if err := csvparser.StreamCSVRows(ctx, rc, headers, headers, opt.Parser, rawCh, onParseErr); err != nil {
			return fmt.Errorf("read source: %w", err)
		}
		return nil
	})

	// 2) Transformers.
	g.Go(func() error {
		var wg sync.WaitGroup
		wg.Add(workers)
		for range workers {
			go func() {
				defer wg.Done()
				transformer.TransformLoopRows(ctx, plan, rawCh, coercedCh, onNull)
			}()
		}
		wg.Wait()
		close(coercedCh)
		return nil
	})

	// 3) Collector. It drains until the channel closes, so no upstream stage
	// blocks on send after cancellation.
	type lined struct {
		line int
		row  engine.Row
	}
	var collected []lined
	g.Go(func() error {
		for r := range coercedCh {
			row := make(engine.Row, len(r.V))
			copy(row, r.V)
			collected = append(collected, lined{line: r.Line, row: row})
			r.Free()
		}
		return nil
	})

	err := g.Wait()
	stats := LoadStats{
		Read:        int64(len(collected)),
		ParseErrors: parseErrs.Load(),
		NullCoerced: nullCoerced.Load(),
	}
	parseAgg.log(logger, "parse errors")
	nullAgg.log(logger, "cells coerced to NULL")
	if err != nil {
		return nil, stats, err
	}

	slices.SortFunc(collected, func(a, b lined) int { return a.line - b.line })
	f := engine.NewFrame(SourceFrame, cols...)
	f.Rows = make([]engine.Row, len(collected))
	for i, l := range collected {
		f.Rows[i] = l.row
	}

	logger.Info("load complete",
		"rows", stats.Read,
		"parse_errors", stats.ParseErrors,
		"null_coerced", stats.NullCoerced,
		"workers", workers,
	)
	return f, stats, nil
}
