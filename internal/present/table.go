// Package present renders report results for people (console tables) and
// for machines (JSON files).
package present

import (
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"

	"supplychain/internal/engine"
	"supplychain/internal/report"
)

// Table writes res as a titled console table with at most maxRows rows. A
// negative maxRows prints every row.
func Table(w io.Writer, res report.Result, maxRows int) error {
	if res.Err != nil {
		_, err := fmt.Fprintf(w, "\n[%s] %s: FAILED: %v\n", res.ID, res.Title, res.Err)
		return err
	}
	f := res.Frame
	if _, err := fmt.Fprintf(w, "\n[%s] %s (%d rows)\n", res.ID, res.Title, f.Len()); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_CENTER)
	table.SetAutoFormatHeaders(false)
	table.SetBorder(true)
	table.SetHeader(f.ColumnNames())

	n := f.Len()
	if maxRows >= 0 && n > maxRows {
		n = maxRows
	}
	for _, r := range f.Rows[:n] {
		table.Append(cells(r))
	}
	table.Render()

	if n < f.Len() {
		_, err := fmt.Fprintf(w, "only showing top %d rows\n", n)
		return err
	}
	return nil
}

func cells(r engine.Row) []string {
	out := make([]string, len(r))
	for i, v := range r {
		out[i] = engine.FormatValue(v)
	}
	return out
}
