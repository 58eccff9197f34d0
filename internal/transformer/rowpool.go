// Package transformer provides the streaming coercion stage of the loader.
// This file defines a pooled Row used across parser → transformer → collector
// to keep heap churn low on multi-hundred-thousand-line logs.
package transformer

import "sync"

// Row is a pooled positional row.
//
// Contract:
//   - The owner goroutine writes into r.V[0:colCount] (no re-slice growth).
//   - The final consumer copies what it needs and calls r.Free().
//   - Do not retain references to r or r.V after Free.
type Row struct {
	V []any
	// Line is the 1-based physical record number in the source, used to
	// restore input order after the parallel coercion stage.
	Line int
}

var rowPool sync.Pool

// GetRow returns a pooled Row with len(V) == colCount and all elements nil.
func GetRow(colCount int) *Row {
	if v := rowPool.Get(); v != nil {
		r := v.(*Row)
		if cap(r.V) < colCount {
			r.V = make([]any, colCount)
		}
		r.V = r.V[:colCount]
		for i := range r.V {
			r.V[i] = nil
		}
		r.Line = 0
		return r
	}
	return &Row{V: make([]any, colCount)}
}

// Free returns the Row to the pool. The caller must not use r after Free.
func (r *Row) Free() {
	rowPool.Put(r)
}
