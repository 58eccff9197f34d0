package transformer

import (
	"context"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"supplychain/internal/dates"
	"supplychain/internal/engine"
)

// Plan is a per-column coercion plan compiled once and shared by all
// workers. It is read-only after CompilePlan.
type Plan struct {
	cols []func(dst *any, s string) bool
}

// CompilePlan builds a plan for columns in positional order. Date columns are
// parsed with norm.
func CompilePlan(kinds []engine.Kind, norm dates.Normalizer) Plan {
	cols := make([]func(dst *any, s string) bool, len(kinds))
	for i, k := range kinds {
		switch k {
		case engine.KindInt:
			cols[i] = func(dst *any, s string) bool {
				v, ok := toIntFast(s)
				if !ok {
					return false
				}
				*dst = v
				return true
			}
		case engine.KindDecimal:
			cols[i] = func(dst *any, s string) bool {
				d, err := decimal.NewFromString(s)
				if err != nil {
					return false
				}
				*dst = d
				return true
			}
		case engine.KindDate:
			cols[i] = func(dst *any, s string) bool {
				d, ok := norm.Normalize(s)
				if !ok {
					return false
				}
				*dst = d
				return true
			}
		case engine.KindBool:
			cols[i] = func(dst *any, s string) bool {
				b, ok := toBoolFast(s)
				if !ok {
					return false
				}
				*dst = b
				return true
			}
		default:
			cols[i] = func(dst *any, s string) bool {
				*dst = s
				return true
			}
		}
	}
	return Plan{cols: cols}
}

// Width returns the number of columns the plan expects.
func (p Plan) Width() int { return len(p.cols) }

// Apply coerces r in place. Empty cells become NULL. A cell that does not
// parse as its column's kind also becomes NULL and onNull is called with its
// column index; the row itself is never dropped.
func (p Plan) Apply(r *Row, onNull func(line, col int)) {
	for i, coerce := range p.cols {
		if i >= len(r.V) {
			return
		}
		raw := r.V[i]
		if raw == nil {
			continue
		}
		s, _ := raw.(string) // parser fills strings
		s = strings.TrimSpace(s)
		if s == "" {
			r.V[i] = nil
			continue
		}
		if !coerce(&r.V[i], s) {
			r.V[i] = nil
			if onNull != nil {
				onNull(r.Line, i)
			}
		}
	}
}

// TransformLoopRows coerces pooled rows from in and forwards the same *Row to
// out. It returns when in is closed or ctx is canceled; the caller closes out.
func TransformLoopRows(
	ctx context.Context,
	plan Plan,
	in <-chan *Row,
	out chan<- *Row,
	onNull func(line, col int),
) {
	for r := range in {
		select {
		case <-ctx.Done():
			r.Free()
			return
		default:
		}

		plan.Apply(r, onNull)

		select {
		case out <- r:
		case <-ctx.Done():
			r.Free()
			return
		}
	}
}

// toIntFast parses integers and only falls back to float parsing when the
// field contains a '.', accepting inputs like "42.0".
func toIntFast(s string) (int64, bool) {
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, true
	}
	if strings.IndexByte(s, '.') >= 0 {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			if f == float64(int64(f)) {
				return int64(f), true
			}
		}
	}
	return 0, false
}

func toBoolFast(s string) (bool, bool) {
	switch strings.ToLower(s) {
	case "1", "t", "true", "yes", "y":
		return true, true
	case "0", "f", "false", "no", "n":
		return false, true
	}
	return false, false
}
