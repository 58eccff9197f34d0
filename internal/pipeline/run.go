package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"supplychain/internal/config"
	"supplychain/internal/datasource"
	"supplychain/internal/datasource/file"
	"supplychain/internal/datasource/httpds"
	"supplychain/internal/dates"
	"supplychain/internal/engine"
	"supplychain/internal/extract"
	"supplychain/internal/metrics"
	"supplychain/internal/report"
	"supplychain/internal/storage"
)

// Export targets accepted in storage.db.export.
const (
	ExportRelations = "relations"
	ExportReports   = "reports"
)

// Options carries the collaborators of a run. Zero values are usable.
type Options struct {
	// ReportIDs overrides analysis.reports when non-empty.
	ReportIDs []string
	Logger    *slog.Logger
	// Clock supplies "today" when analysis.processing_date is empty.
	Clock clockwork.Clock
	// OpenRepository defaults to storage.New.
	OpenRepository func(ctx context.Context, cfg storage.Config) (storage.Repository, error)
	// OpenSource defaults to a local file source for source.file.path.
	OpenSource func(src config.Source) (datasource.Source, error)
}

func (o Options) withDefaults() Options {
	if o.Logger == nil {
		o.Logger = slog.Default()
	}
	if o.Clock == nil {
		o.Clock = clockwork.NewRealClock()
	}
	if o.OpenRepository == nil {
		o.OpenRepository = storage.New
	}
	if o.OpenSource == nil {
		o.OpenSource = openSource
	}
	return o
}

// Result is everything a run produced.
type Result struct {
	RunID     string
	StartedAt time.Time
	Stats     LoadStats
	Catalog   *engine.Catalog
	Reports   []report.Result
	// Exported maps table name to rows written.
	Exported map[string]int64
}

// Failed reports whether any report failed.
func (r *Result) Failed() bool { return len(report.Failed(r.Reports)) > 0 }

// runtimeConfig holds the resolved concurrency settings for a run. Values come
// from the pipeline with environment fallbacks (12-factor style).
type runtimeConfig struct {
	transformers  int
	reportWorkers int
	batchSize     int
	bufferSize    int
}

func newRuntimeConfig(p config.Pipeline) runtimeConfig {
	return runtimeConfig{
		transformers:  pickInt(p.Runtime.TransformWorkers, getenvInt("SC_TRANSFORM_WORKERS", 0)),
		reportWorkers: pickInt(p.Runtime.ReportWorkers, getenvInt("SC_REPORT_WORKERS", 0)),
		batchSize:     pickInt(p.Runtime.BatchSize, config.DefaultBatchSize),
		bufferSize:    pickInt(p.Runtime.ChannelBuffer, config.DefaultChannelBuffer),
	}
}

// ReportOptions resolves the analysis section into report options.
func ReportOptions(a config.Analysis, clock clockwork.Clock) (report.Options, error) {
	ref, err := dates.ParseISO(a.ReferenceDate)
	if err != nil {
		return report.Options{}, fmt.Errorf("analysis.reference_date: %w", err)
	}
	today := dates.Today(clock.Now())
	if a.ProcessingDate != "" {
		if today, err = dates.ParseISO(a.ProcessingDate); err != nil {
			return report.Options{}, fmt.Errorf("analysis.processing_date: %w", err)
		}
	}
	join := a.PurchaseIntervalJoin
	if join == "" {
		join = report.JoinLegacy
	}
	return report.Options{ReferenceDate: ref, ProcessingDate: today, PurchaseIntervalJoin: join}, nil
}

// Prepare loads the source and extracts the relations.
func Prepare(ctx context.Context, p config.Pipeline, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	rt := newRuntimeConfig(p)
	res := &Result{RunID: uuid.NewString(), StartedAt: opts.Clock.Now().UTC()}
	logger := opts.Logger.With("run_id", res.RunID)

	src, err := opts.OpenSource(p.Source)
	if err != nil {
		return nil, err
	}
	frame, stats, err := Load(ctx, src, LoadOptions{
		Parser:          p.Parser.Options,
		OrderDateLayout: p.Analysis.OrderDateLayout,
		Workers:         rt.transformers,
		Buffer:          rt.bufferSize,
		Job:             p.Job,
		Logger:          logger,
	})
	res.Stats = stats
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}

	start := time.Now()
	cat, err := extract.Extract(frame)
	metrics.RecordStep(p.Job, "extract", err, time.Since(start))
	if err != nil {
		return nil, err
	}
	for _, name := range cat.Names() {
		rel, _ := cat.Lookup(name)
		metrics.RecordRow(p.Job, "relation_"+name, int64(rel.Len()))
		logger.Debug("relation extracted", "relation", name, "rows", rel.Len())
	}
	res.Catalog = cat
	return res, nil
}

// Run executes the whole pipeline: load, extract, reports and, when a storage
// kind is configured, export. Report failures are recorded in the result and
// do not make Run fail; load, extract and export errors do.
func Run(ctx context.Context, p config.Pipeline, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	ropt, err := ReportOptions(p.Analysis, opts.Clock)
	if err != nil {
		return nil, err
	}
	ids := opts.ReportIDs
	if len(ids) == 0 {
		ids = p.Analysis.Reports
	}
	defs, err := report.Select(report.Definitions(ropt), ids)
	if err != nil {
		return nil, err
	}

	res, err := Prepare(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	logger := opts.Logger.With("run_id", res.RunID)

	runner := &report.Runner{
		Catalog: res.Catalog,
		Workers: newRuntimeConfig(p).reportWorkers,
		Job:     p.Job,
		Logger:  logger,
	}
	res.Reports = runner.Run(ctx, defs)

	if p.Storage.Kind == "" {
		return res, nil
	}
	var frames []*engine.Frame
	if p.Storage.DB.Exports(ExportRelations) {
		frames = append(frames, relationFrames(res.Catalog)...)
	}
	if p.Storage.DB.Exports(ExportReports) {
		for _, r := range res.Reports {
			if r.Err == nil {
				frames = append(frames, r.Frame)
			}
		}
	}
	if res.Exported, err = exportFrames(ctx, p, opts, frames); err != nil {
		return res, err
	}
	return res, nil
}

// ExtractOnly loads and extracts, then exports the relations when a storage
// kind is configured.
func ExtractOnly(ctx context.Context, p config.Pipeline, opts Options) (*Result, error) {
	opts = opts.withDefaults()
	res, err := Prepare(ctx, p, opts)
	if err != nil {
		return nil, err
	}
	if p.Storage.Kind == "" {
		return res, nil
	}
	if res.Exported, err = exportFrames(ctx, p, opts, relationFrames(res.Catalog)); err != nil {
		return res, err
	}
	return res, nil
}

func relationFrames(cat *engine.Catalog) []*engine.Frame {
	names := cat.Names()
	out := make([]*engine.Frame, 0, len(names))
	for _, name := range names {
		f, _ := cat.Lookup(name)
		out = append(out, f)
	}
	return out
}

// exportFrames opens the configured repository and writes frames one table
// at a time.
func exportFrames(ctx context.Context, p config.Pipeline, opts Options, frames []*engine.Frame) (map[string]int64, error) {
	start := time.Now()
	out, err := exportAll(ctx, p, opts, frames)
	metrics.RecordStep(p.Job, "export", err, time.Since(start))
	return out, err
}

func exportAll(ctx context.Context, p config.Pipeline, opts Options, frames []*engine.Frame) (map[string]int64, error) {
	repo, err := opts.OpenRepository(ctx, storage.Config{Kind: p.Storage.Kind, DSN: p.Storage.DB.DSN})
	if err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}
	defer repo.Close()

	eopt := storage.ExportOptions{
		Kind:        p.Storage.Kind,
		Schema:      p.Storage.DB.Schema,
		TablePrefix: p.Storage.DB.TablePrefix,
		AutoCreate:  p.Storage.DB.AutoCreateTable,
		BatchSize:   newRuntimeConfig(p).batchSize,
		Job:         p.Job,
	}
	out := make(map[string]int64, len(frames))
	for _, f := range frames {
		n, err := storage.ExportFrame(ctx, repo, eopt, f)
		if err != nil {
			return out, err
		}
		out[eopt.TableName(f.Name)] = n
		opts.Logger.Info("exported", "table", eopt.TableName(f.Name), "rows", n, "storage", p.Storage.Kind)
	}
	return out, nil
}

func openSource(s config.Source) (datasource.Source, error) {
	switch s.Kind {
	case "file", "":
		return file.NewLocal(s.File.Path), nil
	case "http":
		hdr := make(http.Header, len(s.HTTP.Headers))
		for k, v := range s.HTTP.Headers {
			hdr.Set(k, v)
		}
		return httpds.New(s.HTTP.URL, httpds.Config{
			MaxRetries:         s.HTTP.MaxRetries,
			InsecureSkipVerify: s.HTTP.InsecureSkipVerify,
			Header:             hdr,
		}), nil
	default:
		return nil, fmt.Errorf("unsupported source.kind=%s", s.Kind)
	}
}

// getenvInt reads an int from environment, returning def when unset/invalid.
func getenvInt(k string, def int) int {
	if s := os.Getenv(k); s != "" {
		if n, err := strconv.Atoi(s); err == nil {
			return n
		}
	}
	return def
}

// pickInt chooses the first positive value 'a', otherwise returns 'b'.
func pickInt(a, b int) int {
	if a > 0 {
		return a
	}
	return b
}
