package engine

import (
	"fmt"
	"sort"
	"strings"
)

// Order is one sort key. Ascending puts NULLs first, descending puts them last.
type Order struct {
	Expr Expr
	Desc bool
}

func Asc(e Expr) Order  { return Order{Expr: e} }
func Desc(e Expr) Order { return Order{Expr: e, Desc: true} }

func (o Order) String() string {
	if o.Desc {
		return o.Expr.String() + " DESC"
	}
	return o.Expr.String()
}

type boundOrder struct {
	ev   Eval
	desc bool
}

func bindOrders(cols []Column, orders []Order) ([]boundOrder, error) {
	out := make([]boundOrder, len(orders))
	for i, o := range orders {
		ev, _, err := o.Expr.Bind(cols)
		if err != nil {
			return nil, fmt.Errorf("order by %s: %w", o.Expr, err)
		}
		out[i] = boundOrder{ev: ev, desc: o.Desc}
	}
	return out, nil
}

// sortedPositions returns the positions of rows (restricted to idx) ordered
// by orders. The sort is stable, so ties keep their input order.
func sortedPositions(rows []Row, idx []int, orders []boundOrder) []int {
	out := append([]int(nil), idx...)
	if len(orders) == 0 {
		return out
	}
	keys := make([][]any, len(rows))
	for _, i := range out {
		k := make([]any, len(orders))
		for j, o := range orders {
			k[j] = o.ev(rows[i])
		}
		keys[i] = k
	}
	sort.SliceStable(out, func(a, b int) bool {
		ka, kb := keys[out[a]], keys[out[b]]
		for j, o := range orders {
			c := compareValues(ka[j], kb[j])
			if o.desc {
				c = -c
			}
			if c != 0 {
				return c < 0
			}
		}
		return false
	})
	return out
}

// WindowFunc computes one value per row from the whole input.
type WindowFunc interface {
	BindWindow(cols []Column) (func(rows []Row) []any, Kind, error)
	String() string
}

// WindowCol names the output column of a WindowFunc.
type WindowCol struct {
	Name string
	Func WindowFunc
}

type lagFunc struct {
	arg       Expr
	offset    int
	partition []Expr
	orderBy   []Order
}

// Lag returns the value of e offset rows earlier within the row's partition,
// ordered by orderBy; NULL for the first offset rows of each partition.
func Lag(e Expr, offset int, partitionBy []Expr, orderBy ...Order) WindowFunc {
	return lagFunc{arg: e, offset: offset, partition: partitionBy, orderBy: orderBy}
}

func (l lagFunc) BindWindow(cols []Column) (func([]Row) []any, Kind, error) {
	ev, k, err := l.arg.Bind(cols)
	if err != nil {
		return nil, 0, err
	}
	parts := make([]Eval, len(l.partition))
	for i, p := range l.partition {
		pe, _, err := p.Bind(cols)
		if err != nil {
			return nil, 0, fmt.Errorf("partition by %s: %w", p, err)
		}
		parts[i] = pe
	}
	orders, err := bindOrders(cols, l.orderBy)
	if err != nil {
		return nil, 0, err
	}
	offset := l.offset
	return func(rows []Row) []any {
		out := make([]any, len(rows))
		for _, idx := range partitionRows(rows, parts) {
			sorted := sortedPositions(rows, idx, orders)
			for pos, i := range sorted {
				if pos >= offset {
					out[i] = ev(rows[sorted[pos-offset]])
				}
			}
		}
		return out
	}, k, nil
}

func (l lagFunc) String() string {
	return fmt.Sprintf("lag(%s, %d)", l.arg, l.offset)
}

// partitionRows groups row positions by the partition key, in first-seen
// order.
func partitionRows(rows []Row, parts []Eval) [][]int {
	index := make(map[string]int)
	var out [][]int
	var buf []byte
	for i, r := range rows {
		buf = buf[:0]
		for _, p := range parts {
			buf = appendKey(buf, p(r))
		}
		g, ok := index[string(buf)]
		if !ok {
			g = len(out)
			index[string(buf)] = g
			out = append(out, nil)
		}
		out[g] = append(out[g], i)
	}
	return out
}

type ntileFunc struct {
	n       int
	orderBy []Order
}

// NTile splits the rows, ordered by orderBy, into n buckets numbered from 1.
// With r rows the first r mod n buckets hold one extra row.
func NTile(n int, orderBy ...Order) WindowFunc {
	return ntileFunc{n: n, orderBy: orderBy}
}

func (t ntileFunc) BindWindow(cols []Column) (func([]Row) []any, Kind, error) {
	if t.n <= 0 {
		return nil, 0, fmt.Errorf("ntile: bucket count must be positive, got %d", t.n)
	}
	orders, err := bindOrders(cols, t.orderBy)
	if err != nil {
		return nil, 0, err
	}
	n := t.n
	return func(rows []Row) []any {
		out := make([]any, len(rows))
		all := make([]int, len(rows))
		for i := range all {
			all[i] = i
		}
		sorted := sortedPositions(rows, all, orders)
		for pos, i := range sorted {
			out[i] = ntileBucket(pos, len(rows), n)
		}
		return out
	}, KindInt, nil
}

// ntileBucket returns the 1-based bucket of the row at position pos.
func ntileBucket(pos, total, n int) int64 {
	size, extra := total/n, total%n
	big := extra * (size + 1)
	if pos < big {
		return int64(pos/(size+1)) + 1
	}
	return int64(extra+(pos-big)/size) + 1
}

func (t ntileFunc) String() string {
	parts := make([]string, len(t.orderBy))
	for i, o := range t.orderBy {
		parts[i] = o.String()
	}
	return fmt.Sprintf("ntile(%d) over (order by %s)", t.n, strings.Join(parts, ", "))
}
