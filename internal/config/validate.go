package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/golang-sql/civil"
)

// IssueSeverity represents the severity of a configuration issue.
type IssueSeverity string

const (
	// SeverityError indicates a configuration error that should block execution.
	SeverityError IssueSeverity = "error"
	// SeverityWarning is surfaced to users but does not block execution.
	SeverityWarning IssueSeverity = "warning"
)

// Issue describes a single validation finding for a Pipeline.
//
// Path is a dotted path into the config (e.g. "storage.kind",
// "analysis.reports[2]").
type Issue struct {
	Severity IssueSeverity
	Path     string
	Message  string
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s at %s: %s", i.Severity, i.Path, i.Message)
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, iss := range issues {
		if iss.Severity == SeverityError {
			return true
		}
	}
	return false
}

// ValidatePipeline performs static validation of p. knownReports, when
// non-empty, is the set of valid ids for analysis.reports.
//
// It does not mutate the pipeline; callers decide whether warnings are fatal.
func ValidatePipeline(p Pipeline, knownReports ...string) []Issue {
	var issues []Issue

	if strings.TrimSpace(p.Job) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "job",
			Message:  "job must not be empty; it is used for metrics labeling and identifying runs",
		})
	}
	issues = append(issues, validateSource(p.Source)...)
	issues = append(issues, validateParser(p.Parser)...)
	issues = append(issues, validateAnalysis(p.Analysis, knownReports)...)
	issues = append(issues, validateStorage(p.Storage)...)
	issues = append(issues, validateOutput(p.Output)...)
	issues = append(issues, validateRuntime(p.Runtime)...)

	return issues
}

func validateSource(s Source) []Issue {
	var issues []Issue

	switch strings.TrimSpace(s.Kind) {
	case "":
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  "source.kind must not be empty",
		})
	case "file":
		if strings.TrimSpace(s.File.Path) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.file.path",
				Message:  "file source requires a non-empty path",
			})
		}
	case "http":
		u, err := url.Parse(s.HTTP.URL)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.url",
				Message:  fmt.Sprintf("http source requires an absolute http(s) URL, got %q", s.HTTP.URL),
			})
		}
		if s.HTTP.MaxRetries < 0 {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "source.http.max_retries",
				Message:  "max_retries must not be negative",
			})
		}
		if s.HTTP.InsecureSkipVerify {
			issues = append(issues, Issue{
				Severity: SeverityWarning,
				Path:     "source.http.insecure_skip_verify",
				Message:  "TLS certificate verification is disabled",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "source.kind",
			Message:  fmt.Sprintf("unsupported source kind %q", s.Kind),
		})
	}
	return issues
}

func validateParser(p Parser) []Issue {
	var issues []Issue

	if p.Kind != "csv" {
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.kind",
			Message:  fmt.Sprintf("unsupported parser kind %q; only csv is implemented", p.Kind),
		})
	}
	if !p.Options.Bool("has_header", true) {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "parser.options.has_header",
			Message:  "has_header=false; columns are mapped by position in schema order",
		})
	}
	if c := p.Options.String("comma", ","); len([]rune(c)) != 1 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "parser.options.comma",
			Message:  fmt.Sprintf("comma must be a single character, got %q", c),
		})
	}
	return issues
}

func validateAnalysis(a Analysis, known []string) []Issue {
	var issues []Issue

	if _, err := civil.ParseDate(a.ReferenceDate); err != nil {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "analysis.reference_date",
			Message:  fmt.Sprintf("reference_date must be YYYY-MM-DD: %v", err),
		})
	}
	if a.ProcessingDate != "" {
		if _, err := civil.ParseDate(a.ProcessingDate); err != nil {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "analysis.processing_date",
				Message:  fmt.Sprintf("processing_date must be YYYY-MM-DD: %v", err),
			})
		}
	}
	if a.OrderDateLayout != "" {
		// The layout must carry year, month and day.
		probe := time.Date(2017, time.November, 23, 14, 5, 0, 0, time.UTC)
		got, err := time.Parse(a.OrderDateLayout, probe.Format(a.OrderDateLayout))
		if err != nil || civil.DateOf(got) != civil.DateOf(probe) {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "analysis.order_date_layout",
				Message:  fmt.Sprintf("order_date_layout %q is not a usable Go date layout", a.OrderDateLayout),
			})
		}
	}
	switch a.PurchaseIntervalJoin {
	case JoinLegacy:
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "analysis.purchase_interval_join",
			Message:  "legacy mode joins customer id to finance order id; set \"order\" for per-customer spend",
		})
	case JoinOrder:
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "analysis.purchase_interval_join",
			Message:  fmt.Sprintf("purchase_interval_join must be %q or %q, got %q", JoinLegacy, JoinOrder, a.PurchaseIntervalJoin),
		})
	}
	if len(known) > 0 {
		set := make(map[string]struct{}, len(known))
		for _, k := range known {
			set[k] = struct{}{}
		}
		for i, r := range a.Reports {
			if _, ok := set[r]; !ok {
				issues = append(issues, Issue{
					Severity: SeverityError,
					Path:     fmt.Sprintf("analysis.reports[%d]", i),
					Message:  fmt.Sprintf("unknown report %q", r),
				})
			}
		}
	}
	return issues
}

func validateStorage(s Storage) []Issue {
	var issues []Issue

	if s.Kind == "" {
		return issues
	}
	switch s.Kind {
	case "postgres", "mysql", "mssql", "sqlite":
	default:
		return append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.kind",
			Message:  fmt.Sprintf("unknown storage kind %q; expected postgres, mysql, mssql or sqlite", s.Kind),
		})
	}
	if strings.TrimSpace(s.DB.DSN) == "" {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "storage.db.dsn",
			Message:  "storage.db.dsn must not be empty",
		})
	}
	for i, e := range s.DB.Export {
		if e != "relations" && e != "reports" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     fmt.Sprintf("storage.db.export[%d]", i),
				Message:  fmt.Sprintf("export target must be \"relations\" or \"reports\", got %q", e),
			})
		}
	}
	if !s.DB.AutoCreateTable {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "storage.db.auto_create_table",
			Message:  "auto_create_table is false; target tables must already exist",
		})
	}
	return issues
}

func validateOutput(o Output) []Issue {
	var issues []Issue

	switch o.Format {
	case FormatTable, FormatNone:
	case FormatJSON:
		if strings.TrimSpace(o.Dir) == "" {
			issues = append(issues, Issue{
				Severity: SeverityError,
				Path:     "output.dir",
				Message:  "json output requires a directory",
			})
		}
	default:
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "output.format",
			Message:  fmt.Sprintf("output.format must be table, json or none, got %q", o.Format),
		})
	}
	return issues
}

// validateRuntime catches obvious misconfigurations such as negative values.
func validateRuntime(r RuntimeConfig) []Issue {
	var issues []Issue

	if r.BatchSize <= 0 {
		issues = append(issues, Issue{
			Severity: SeverityWarning,
			Path:     "runtime.batch_size",
			Message:  fmt.Sprintf("batch_size=%d; non-positive batch sizes may hurt throughput", r.BatchSize),
		})
	}
	if r.TransformWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.transform_workers",
			Message:  "transform_workers must not be negative",
		})
	}
	if r.ReportWorkers < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.report_workers",
			Message:  "report_workers must not be negative",
		})
	}
	if r.ChannelBuffer < 0 {
		issues = append(issues, Issue{
			Severity: SeverityError,
			Path:     "runtime.channel_buffer",
			Message:  "channel_buffer must not be negative",
		})
	}
	return issues
}
