// Package csv streams the order-line CSV log into pooled positional rows.
package csv

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"supplychain/internal/config"
	"supplychain/internal/transformer"
)

// ErrMissingColumns is returned when the header lacks required columns.
var ErrMissingColumns = errors.New("csv header is missing required columns")

// StreamCSVRows streams CSV from src into pooled *transformer.Row objects
// aligned to the target columns order. Cells are copied into row.V[i] as
// strings, or nil when empty.
//
// Header handling:
//   - has_header=true (default): the first record is the header. Each cell
//     is mapped through header_map, else NormalizeFieldName. Every name in
//     required must be present or ErrMissingColumns is returned before any
//     row is emitted. Other missing target columns read as NULL.
//   - has_header=false: columns are taken by position.
//
// Options: comma (first rune, default ','), trim_space (default true),
// lazy_quotes (default false), fields_per_record (0 = variable).
//
// Each row carries its 1-based record number in Line (the header is record
// 1). Malformed records are reported to onErr and skipped. src is closed
// before returning.
func StreamCSVRows(
	ctx context.Context,
	src io.ReadCloser,
	columns []string,
	required []string,
	opt config.Options,
	out chan<- *transformer.Row,
	onErr func(line int, err error),
) error {
	defer src.Close()

	hasHeader := opt.Bool("has_header", true)
	trim := opt.Bool("trim_space", true)

	cr := csv.NewReader(src)
	cr.Comma = opt.Rune("comma", ',')
	cr.ReuseRecord = true
	cr.LazyQuotes = opt.Bool("lazy_quotes", false)
	if n := opt.Int("fields_per_record", 0); n != 0 {
		cr.FieldsPerRecord = n
	} else {
		cr.FieldsPerRecord = -1 // tolerant by default
	}

	// colIx[target] = source index, or -1.
	colIx := make([]int, len(columns))
	for i := range colIx {
		colIx[i] = -1
	}

	line := 0
	read := func() ([]string, error) { line++; return cr.Read() }

	if hasHeader {
		hdr, err := read()
		if err != nil {
			return fmt.Errorf("read csv header: %w", err)
		}
		names := normalizeHeaders(hdr, opt.StringMap("header_map"))
		srcIdx := make(map[string]int, len(names))
		for i, h := range names {
			if _, dup := srcIdx[h]; !dup {
				srcIdx[h] = i
			}
		}
		for t, target := range columns {
			if si, ok := srcIdx[target]; ok {
				colIx[t] = si
			}
		}
		var missing []string
		for _, r := range required {
			if _, ok := srcIdx[r]; !ok {
				missing = append(missing, r)
			}
		}
		if len(missing) > 0 {
			return fmt.Errorf("%w: %s", ErrMissingColumns, strings.Join(missing, ", "))
		}
	} else {
		for i := range columns {
			colIx[i] = i
		}
	}

	const logEveryN = 50_000
	emitted := 0

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		rec, err := read()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			if onErr != nil {
				onErr(line, fmt.Errorf("csv read: %w", err))
			}
			continue
		}

		row := transformer.GetRow(len(columns))
		row.Line = line
		for t, si := range colIx {
			if si < 0 || si >= len(rec) {
				continue
			}
			v := rec[si]
			if trim {
				v = strings.TrimSpace(v)
			}
			if v != "" {
				row.V[t] = v
			}
		}

		select {
		case out <- row:
			emitted++
			if emitted%logEveryN == 0 {
				slog.Debug("csv reader progress", "line", line, "emitted", emitted)
			}
		case <-ctx.Done():
			row.Free()
			return ctx.Err()
		}
	}
}
