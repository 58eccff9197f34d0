package engine

import (
	"context"
	"errors"
	"fmt"
)

// Relation names a catalog relation (or an earlier stage) and the alias its
// columns are qualified with. An empty alias leaves names unqualified.
type Relation struct {
	Name  string
	Alias string
}

// Join is an inner equi-join of the rows so far with Right.
type Join struct {
	Right    Relation
	LeftKey  string
	RightKey string
}

// Named is an expression with an output name.
type Named struct {
	Name string
	Expr Expr
}

// As is shorthand for Named{name, e}.
func As(name string, e Expr) Named { return Named{Name: name, Expr: e} }

// Stage is one step of a pipeline. Its clauses run in this order: scan and
// joins, Where, grouping (GroupBy and Aggs), Windows, Select, Having, OrderBy,
// Limit. Select items may refer to earlier items of the same list. An empty
// Select keeps every column.
type Stage struct {
	Name    string
	From    Relation
	Joins   []Join
	Where   Expr
	GroupBy []Named
	Aggs    []Aggregate
	Windows []WindowCol
	Select  []Named
	Having  Expr
	OrderBy []Order
	Limit   int
}

func (s Stage) grouped() bool { return len(s.GroupBy) > 0 || len(s.Aggs) > 0 }

// Pipeline is an ordered list of stages; the last stage is the result.
type Pipeline struct {
	Stages []Stage
}

// Execute runs p against cat. Stage outputs are visible to later stages by
// stage name and are never added to cat.
func Execute(ctx context.Context, cat *Catalog, p Pipeline) (*Frame, error) {
	if len(p.Stages) == 0 {
		return nil, errors.New("empty pipeline")
	}
	local := make(map[string]*Frame, len(p.Stages))
	lookup := func(name string) (*Frame, error) {
		if f, ok := local[name]; ok {
			return f, nil
		}
		return cat.Lookup(name)
	}
	var out *Frame
	for _, st := range p.Stages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := runStage(st, lookup)
		if err != nil {
			return nil, fmt.Errorf("stage %s: %w", st.Name, err)
		}
		local[st.Name] = f
		out = f
	}
	return out, nil
}

func runStage(st Stage, lookup func(string) (*Frame, error)) (*Frame, error) {
	cur, err := scan(st.From, lookup)
	if err != nil {
		return nil, err
	}
	for _, j := range st.Joins {
		right, err := scan(j.Right, lookup)
		if err != nil {
			return nil, err
		}
		if cur, err = hashJoin(cur, right, j.LeftKey, j.RightKey); err != nil {
			return nil, fmt.Errorf("join %s: %w", j.Right.Name, err)
		}
	}
	if st.Where != nil {
		if cur, err = filter(cur, st.Where); err != nil {
			return nil, fmt.Errorf("where: %w", err)
		}
	}
	if st.grouped() {
		if cur, err = group(cur, st.GroupBy, st.Aggs); err != nil {
			return nil, fmt.Errorf("group: %w", err)
		}
	}
	if len(st.Windows) > 0 {
		if cur, err = windows(cur, st.Windows); err != nil {
			return nil, fmt.Errorf("window: %w", err)
		}
	}
	if len(st.Select) > 0 {
		if cur, err = project(cur, st.Select); err != nil {
			return nil, fmt.Errorf("select: %w", err)
		}
	}
	if st.Having != nil {
		if cur, err = filter(cur, st.Having); err != nil {
			return nil, fmt.Errorf("having: %w", err)
		}
	}
	if len(st.OrderBy) > 0 {
		if cur, err = orderBy(cur, st.OrderBy); err != nil {
			return nil, err
		}
	}
	if st.Limit > 0 && len(cur.Rows) > st.Limit {
		cur.Rows = cur.Rows[:st.Limit]
	}
	cur.Name = st.Name
	return cur, nil
}

func scan(rel Relation, lookup func(string) (*Frame, error)) (*Frame, error) {
	src, err := lookup(rel.Name)
	if err != nil {
		return nil, err
	}
	cols := make([]Column, len(src.Columns))
	for i, c := range src.Columns {
		cols[i] = c
		if rel.Alias != "" {
			cols[i].Name = rel.Alias + "." + c.Name
		}
	}
	// Rows are shared with the source; every later step allocates new rows.
	return &Frame{Name: rel.Name, Columns: cols, Rows: src.Rows}, nil
}

// hashJoin builds a hash table on right and probes it with each left row.
// Output order is left order, then right order within a key. NULL keys never
// match.
func hashJoin(left, right *Frame, leftKey, rightKey string) (*Frame, error) {
	li, err := left.Index(leftKey)
	if err != nil {
		return nil, err
	}
	ri, err := right.Index(rightKey)
	if err != nil {
		return nil, err
	}
	table := make(map[string][]Row, len(right.Rows))
	var buf []byte
	for _, r := range right.Rows {
		if r[ri] == nil {
			continue
		}
		buf = appendKey(buf[:0], r[ri])
		table[string(buf)] = append(table[string(buf)], r)
	}
	cols := make([]Column, 0, len(left.Columns)+len(right.Columns))
	cols = append(cols, left.Columns...)
	cols = append(cols, right.Columns...)
	out := &Frame{Name: left.Name, Columns: cols}
	for _, l := range left.Rows {
		if l[li] == nil {
			continue
		}
		buf = appendKey(buf[:0], l[li])
		for _, r := range table[string(buf)] {
			row := make(Row, 0, len(cols))
			row = append(row, l...)
			row = append(row, r...)
			out.Rows = append(out.Rows, row)
		}
	}
	return out, nil
}

func filter(f *Frame, pred Expr) (*Frame, error) {
	ev, _, err := pred.Bind(f.Columns)
	if err != nil {
		return nil, err
	}
	out := &Frame{Name: f.Name, Columns: f.Columns}
	for _, r := range f.Rows {
		if v, ok := ev(r).(bool); ok && v {
			out.Rows = append(out.Rows, r)
		}
	}
	return out, nil
}

type groupState struct {
	key  Row
	accs []Accumulator
}

// group evaluates the grouping keys and aggregates. Groups appear in the
// order their first row was seen. Without keys the whole input is one group,
// even when empty.
func group(f *Frame, keys []Named, aggs []Aggregate) (*Frame, error) {
	keyEvs := make([]Eval, len(keys))
	cols := make([]Column, 0, len(keys)+len(aggs))
	for i, k := range keys {
		ev, kind, err := k.Expr.Bind(f.Columns)
		if err != nil {
			return nil, fmt.Errorf("group by %s: %w", k.Name, err)
		}
		keyEvs[i] = ev
		cols = append(cols, Column{Name: k.Name, Kind: kind})
	}
	makers := make([]func() Accumulator, len(aggs))
	for i, a := range aggs {
		mk, kind, err := a.Func.BindAgg(f.Columns)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", a.Name, err)
		}
		makers[i] = mk
		cols = append(cols, Column{Name: a.Name, Kind: kind})
	}
	newState := func(key Row) *groupState {
		st := &groupState{key: key, accs: make([]Accumulator, len(makers))}
		for i, mk := range makers {
			st.accs[i] = mk()
		}
		return st
	}

	index := make(map[string]*groupState)
	var order []*groupState
	if len(keys) == 0 {
		st := newState(nil)
		order = append(order, st)
	}
	var buf []byte
	for _, r := range f.Rows {
		var st *groupState
		if len(keys) == 0 {
			st = order[0]
		} else {
			key := make(Row, len(keyEvs))
			buf = buf[:0]
			for i, ev := range keyEvs {
				key[i] = ev(r)
				buf = appendKey(buf, key[i])
			}
			var ok bool
			if st, ok = index[string(buf)]; !ok {
				st = newState(key)
				index[string(buf)] = st
				order = append(order, st)
			}
		}
		for _, a := range st.accs {
			a.Add(r)
		}
	}

	out := &Frame{Name: f.Name, Columns: cols, Rows: make([]Row, 0, len(order))}
	for _, st := range order {
		row := make(Row, 0, len(cols))
		row = append(row, st.key...)
		for _, a := range st.accs {
			row = append(row, a.Result())
		}
		out.Rows = append(out.Rows, row)
	}
	return out, nil
}

func windows(f *Frame, wins []WindowCol) (*Frame, error) {
	cols := append([]Column(nil), f.Columns...)
	results := make([][]any, len(wins))
	for i, w := range wins {
		fn, kind, err := w.Func.BindWindow(f.Columns)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", w.Name, err)
		}
		results[i] = fn(f.Rows)
		cols = append(cols, Column{Name: w.Name, Kind: kind})
	}
	out := &Frame{Name: f.Name, Columns: cols, Rows: make([]Row, len(f.Rows))}
	for i, r := range f.Rows {
		row := make(Row, 0, len(cols))
		row = append(row, r...)
		for _, res := range results {
			row = append(row, res[i])
		}
		out.Rows[i] = row
	}
	return out, nil
}

// project evaluates the select list. Each item is bound against the input
// columns followed by the items before it, so later items can reuse earlier
// results by name.
func project(f *Frame, items []Named) (*Frame, error) {
	scope := append([]Column(nil), f.Columns...)
	evs := make([]Eval, len(items))
	outCols := make([]Column, len(items))
	for i, it := range items {
		ev, kind, err := it.Expr.Bind(scope)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", it.Name, err)
		}
		evs[i] = ev
		outCols[i] = Column{Name: it.Name, Kind: kind}
		scope = append(scope, outCols[i])
	}
	width := len(f.Columns)
	out := &Frame{Name: f.Name, Columns: outCols, Rows: make([]Row, len(f.Rows))}
	for i, r := range f.Rows {
		ext := make(Row, width, len(scope))
		copy(ext, r)
		for _, ev := range evs {
			ext = append(ext, ev(ext))
		}
		out.Rows[i] = ext[width:]
	}
	return out, nil
}

func orderBy(f *Frame, orders []Order) (*Frame, error) {
	bound, err := bindOrders(f.Columns, orders)
	if err != nil {
		return nil, err
	}
	all := make([]int, len(f.Rows))
	for i := range all {
		all[i] = i
	}
	out := &Frame{Name: f.Name, Columns: f.Columns, Rows: make([]Row, len(all))}
	for i, p := range sortedPositions(f.Rows, all, bound) {
		out.Rows[i] = f.Rows[p]
	}
	return out, nil
}
