package present

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"

	"supplychain/internal/report"
)

// FileTimeLayout stamps exported file names.
const FileTimeLayout = "20060102_150405"

// Column describes one exported column.
type Column struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// Document is the JSON form of one report result. Rows are positional and
// follow Columns. Decimals are JSON numbers with their exact digits, dates
// are YYYY-MM-DD strings and NULL is null.
type Document struct {
	RunID       string    `json:"run_id"`
	Report      string    `json:"report"`
	Title       string    `json:"title"`
	GeneratedAt time.Time `json:"generated_at"`
	Columns     []Column  `json:"columns"`
	Rows        [][]any   `json:"rows"`
}

// NewDocument converts a successful result.
func NewDocument(runID string, generatedAt time.Time, res report.Result) (Document, error) {
	if res.Err != nil || res.Frame == nil {
		return Document{}, fmt.Errorf("report %s has no result", res.ID)
	}
	f := res.Frame
	doc := Document{
		RunID:       runID,
		Report:      res.ID,
		Title:       res.Title,
		GeneratedAt: generatedAt.UTC(),
		Columns:     make([]Column, len(f.Columns)),
		Rows:        make([][]any, len(f.Rows)),
	}
	for i, c := range f.Columns {
		doc.Columns[i] = Column{Name: c.Name, Kind: c.Kind.String()}
	}
	for i, r := range f.Rows {
		row := make([]any, len(r))
		for j, v := range r {
			row[j] = jsonValue(v)
		}
		doc.Rows[i] = row
	}
	return doc, nil
}

// WriteJSON writes res to <dir>/<report>_<timestamp>.json and returns the path.
func WriteJSON(dir, runID string, generatedAt time.Time, res report.Result) (string, error) {
	doc, err := NewDocument(runID, generatedAt, res)
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.json", res.ID, generatedAt.UTC().Format(FileTimeLayout)))

	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode %s: %w", res.ID, err)
	}
	if err := os.WriteFile(path, append(b, '\n'), 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", path, err)
	}
	return path, nil
}

func jsonValue(v any) any {
	switch x := v.(type) {
	case decimal.Decimal:
		return json.Number(x.String())
	case civil.Date:
		return x.String()
	}
	return v
}

