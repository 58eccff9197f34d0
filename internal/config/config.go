// Package config defines the JSON-serializable configuration model for a
// supply-chain analysis run. Pipelines are loaded from disk (see
// configs/pipelines/*.json) and passed through the program as plain values.
//
// Example (trimmed):
//
//	{
//	  "job":      "supplychain",
//	  "source":   { "kind": "file", "file": { "path": "data/DataCoSupplyChain.csv" } },
//	  "parser":   { "kind": "csv", "options": { "has_header": true } },
//	  "analysis": { "reference_date": "2018-01-01", "purchase_interval_join": "legacy" },
//	  "storage":  { "kind": "sqlite", "db": { "dsn": "file:out.db" } },
//	  "output":   { "format": "table", "max_rows": 20 }
//	}
package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Defaults applied by ApplyDefaults.
const (
	DefaultReferenceDate = "2018-01-01"
	DefaultMaxRows       = 20
	DefaultBatchSize     = 5000
	DefaultChannelBuffer = 1000

	JoinLegacy = "legacy"
	JoinOrder  = "order"

	FormatTable = "table"
	FormatJSON  = "json"
	FormatNone  = "none"
)

// Pipeline is the top-level object decoded from a pipeline file.
type Pipeline struct {
	// Job labels metrics and log lines for this run.
	Job string `json:"job"`

	Source   Source        `json:"source"`
	Parser   Parser        `json:"parser"`
	Analysis Analysis      `json:"analysis"`
	Storage  Storage       `json:"storage"`
	Output   Output        `json:"output"`
	Runtime  RuntimeConfig `json:"runtime"`
	Metrics  Metrics       `json:"metrics"`
}

// RuntimeConfig controls concurrency, batching, and channel buffer sizes.
type RuntimeConfig struct {
	TransformWorkers int `json:"transform_workers"`
	ReportWorkers    int `json:"report_workers"`
	BatchSize        int `json:"batch_size"`
	ChannelBuffer    int `json:"channel_buffer"`
}

// Source identifies the data source.
type Source struct {
	// Kind selects the source implementation: "file" or "http".
	Kind string     `json:"kind"`
	File SourceFile `json:"file"`
	HTTP SourceHTTP `json:"http"`
}

// SourceFile holds configuration for the "file" source kind.
type SourceFile struct {
	Path string `json:"path"`
}

// SourceHTTP holds configuration for the "http" source kind.
type SourceHTTP struct {
	URL                string            `json:"url"`
	MaxRetries         int               `json:"max_retries"`
	InsecureSkipVerify bool              `json:"insecure_skip_verify"`
	Headers            map[string]string `json:"headers"`
}

// Parser selects how to parse the raw source into logical rows.
type Parser struct {
	// Kind selects the parser implementation. Current value: "csv".
	Kind string `json:"kind"`

	// Options is interpreted by the parser. For CSV:
	//   has_header (bool), comma (string), trim_space (bool),
	//   lazy_quotes (bool), fields_per_record (int), header_map (object)
	Options Options `json:"options"`
}

// Analysis parameterizes the reports.
type Analysis struct {
	// ReferenceDate (YYYY-MM-DD) anchors the churn-risk report.
	ReferenceDate string `json:"reference_date"`

	// ProcessingDate (YYYY-MM-DD) is "today" for the RFM report. Empty means
	// the current UTC date.
	ProcessingDate string `json:"processing_date"`

	// OrderDateLayout is the Go time layout of the raw order timestamp.
	OrderDateLayout string `json:"order_date_layout"`

	// PurchaseIntervalJoin selects how the purchase-interval report reaches
	// finance rows: "legacy" matches customer id against finance order id,
	// "order" goes through the customer's orders.
	PurchaseIntervalJoin string `json:"purchase_interval_join"`

	// Reports restricts the run to these report ids. Empty runs all.
	Reports []string `json:"reports"`
}

// Storage selects an optional database sink for relations and reports.
type Storage struct {
	// Kind selects the backend: "sqlite", "postgres", "mssql" or "mysql".
	// Empty disables database export.
	Kind string   `json:"kind"`
	DB   DBConfig `json:"db"`
}

// DBConfig configures the DB sink.
type DBConfig struct {
	// DSN is the driver-specific connection string.
	DSN string `json:"dsn"`

	// Schema optionally qualifies every table (e.g. "public", "dbo").
	Schema string `json:"schema"`

	// TablePrefix is prepended to every exported table name.
	TablePrefix string `json:"table_prefix"`

	// AutoCreateTable creates missing tables from the frame's column kinds.
	AutoCreateTable bool `json:"auto_create_table"`

	// Export lists what to write: "relations", "reports" or both.
	// Empty means both.
	Export []string `json:"export"`
}

// Output controls presentation of report results.
type Output struct {
	// Format is "table" (console), "json" (files under Dir) or "none".
	Format string `json:"format"`
	Dir    string `json:"dir"`

	// MaxRows caps console rows per report; 0 uses DefaultMaxRows and a
	// negative value prints everything.
	MaxRows int `json:"max_rows"`
}

// Metrics selects the metrics backend. CLI flags and env take precedence.
type Metrics struct {
	Backend        string `json:"backend"`
	PushgatewayURL string `json:"pushgateway_url"`
	DogstatsdAddr  string `json:"dogstatsd_addr"`
}

// Load decodes a pipeline from r and applies defaults.
func Load(r io.Reader) (Pipeline, error) {
	var p Pipeline
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return Pipeline{}, fmt.Errorf("decode pipeline: %w", err)
	}
	p.ApplyDefaults()
	return p, nil
}

// LoadFile opens path and decodes it with Load.
func LoadFile(path string) (Pipeline, error) {
	f, err := os.Open(path)
	if err != nil {
		return Pipeline{}, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()
	p, err := Load(f)
	if err != nil {
		return Pipeline{}, fmt.Errorf("%s: %w", path, err)
	}
	return p, nil
}

// ApplyDefaults fills zero values with their defaults.
func (p *Pipeline) ApplyDefaults() {
	if p.Source.Kind == "" {
		p.Source.Kind = "file"
	}
	if p.Parser.Kind == "" {
		p.Parser.Kind = "csv"
	}
	if p.Parser.Options == nil {
		p.Parser.Options = Options{}
	}
	if p.Analysis.ReferenceDate == "" {
		p.Analysis.ReferenceDate = DefaultReferenceDate
	}
	if p.Analysis.PurchaseIntervalJoin == "" {
		p.Analysis.PurchaseIntervalJoin = JoinLegacy
	}
	if p.Output.Format == "" {
		p.Output.Format = FormatTable
	}
	if p.Output.MaxRows == 0 {
		p.Output.MaxRows = DefaultMaxRows
	}
	if p.Runtime.BatchSize == 0 {
		p.Runtime.BatchSize = DefaultBatchSize
	}
	if p.Runtime.ChannelBuffer == 0 {
		p.Runtime.ChannelBuffer = DefaultChannelBuffer
	}
}

// Exports reports whether target ("relations" or "reports") is selected for
// database export.
func (d DBConfig) Exports(target string) bool {
	if len(d.Export) == 0 {
		return true
	}
	for _, e := range d.Export {
		if e == target {
			return true
		}
	}
	return false
}

// Options is a small helper to fetch typed values from arbitrary JSON maps.
// It performs only minimal type coercion and returns provided defaults when a
// key is absent or of an unexpected type.
type Options map[string]any

// String returns the string value for key or def if key is missing or not a string.
func (o Options) String(key, def string) string {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return def
}

// Bool returns the bool value for key or def if key is missing or not a bool.
func (o Options) Bool(key string, def bool) bool {
	if v, ok := o[key]; ok {
		if b, ok := v.(bool); ok {
			return b
		}
	}
	return def
}

// Int returns the int value for key or def. JSON numbers decode as float64.
func (o Options) Int(key string, def int) int {
	if v, ok := o[key]; ok {
		switch n := v.(type) {
		case float64:
			return int(n)
		case int:
			return n
		}
	}
	return def
}

// Rune returns the first rune of a string value for key, or def if key is
// missing or empty.
func (o Options) Rune(key string, def rune) rune {
	if v, ok := o[key]; ok {
		if s, ok := v.(string); ok && len(s) > 0 {
			return []rune(s)[0]
		}
	}
	return def
}

// StringMap returns a map[string]string for key when the value is an object.
// Non-string values are ignored.
func (o Options) StringMap(key string) map[string]string {
	res := map[string]string{}
	if v, ok := o[key]; ok {
		if m, ok := v.(map[string]any); ok {
			for k, vv := range m {
				if s, ok := vv.(string); ok {
					res[k] = s
				}
			}
		}
	}
	return res
}

// Any returns the raw value for key.
func (o Options) Any(key string) any {
	if v, ok := o[key]; ok {
		return v
	}
	return nil
}

// UnmarshalJSON decodes a missing or null "options" object to a non-nil,
// empty Options map.
func (o *Options) UnmarshalJSON(b []byte) error {
	var tmp map[string]any
	if len(b) == 0 || string(b) == "null" {
		*o = Options{}
		return nil
	}
	if err := json.Unmarshal(b, &tmp); err != nil {
		return err
	}
	*o = Options(tmp)
	return nil
}
