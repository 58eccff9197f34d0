package engine

import (
	"github.com/shopspring/decimal"
)

// AggFunc is an aggregate over the rows of one group. NULL inputs are
// ignored, as in SQL.
type AggFunc interface {
	BindAgg(cols []Column) (func() Accumulator, Kind, error)
	String() string
}

// Accumulator folds the rows of a single group.
type Accumulator interface {
	Add(r Row)
	Result() any
}

// Aggregate names the output column of an AggFunc.
type Aggregate struct {
	Name string
	Func AggFunc
}

type aggFunc struct {
	name string
	arg  Expr
	kind func(Kind) Kind
	make func(ev Eval, k Kind) Accumulator
}

func (a aggFunc) BindAgg(cols []Column) (func() Accumulator, Kind, error) {
	var ev Eval = func(Row) any { return int64(1) }
	k := KindInt
	if a.arg != nil {
		var err error
		ev, k, err = a.arg.Bind(cols)
		if err != nil {
			return nil, 0, err
		}
	}
	mk := a.make
	return func() Accumulator { return mk(ev, k) }, a.kind(k), nil
}

func (a aggFunc) String() string {
	if a.arg == nil {
		return a.name + "(*)"
	}
	return a.name + "(" + a.arg.String() + ")"
}

type sumAcc struct {
	ev    Eval
	i     int64
	d     decimal.Decimal
	isDec bool
	seen  bool
}

func (s *sumAcc) Add(r Row) {
	switch x := s.ev(r).(type) {
	case int64:
		s.seen = true
		if s.isDec {
			s.d = s.d.Add(decimal.NewFromInt(x))
		} else {
			s.i += x
		}
	case decimal.Decimal:
		s.seen = true
		if !s.isDec {
			s.d = decimal.NewFromInt(s.i)
			s.isDec = true
		}
		s.d = s.d.Add(x)
	}
}

func (s *sumAcc) Result() any {
	switch {
	case !s.seen:
		return nil
	case s.isDec:
		return s.d
	}
	return s.i
}

// Sum adds the non-null values of e; NULL when there are none.
func Sum(e Expr) AggFunc {
	return aggFunc{name: "sum", arg: e, kind: func(k Kind) Kind {
		if k == KindInt {
			return KindInt
		}
		return KindDecimal
	}, make: func(ev Eval, _ Kind) Accumulator { return &sumAcc{ev: ev} }}
}

type avgAcc struct {
	ev    Eval
	total decimal.Decimal
	n     int64
}

func (a *avgAcc) Add(r Row) {
	d, ok := toDecimal(a.ev(r))
	if !ok {
		return
	}
	a.total = a.total.Add(d)
	a.n++
}

func (a *avgAcc) Result() any {
	if a.n == 0 {
		return nil
	}
	return a.total.Div(decimal.NewFromInt(a.n))
}

// Avg is the decimal mean of the non-null values of e.
func Avg(e Expr) AggFunc {
	return aggFunc{name: "avg", arg: e, kind: fixed(KindDecimal),
		make: func(ev Eval, _ Kind) Accumulator { return &avgAcc{ev: ev} }}
}

type countAcc struct {
	ev Eval
	n  int64
}

func (c *countAcc) Add(r Row) {
	if c.ev(r) != nil {
		c.n++
	}
}

func (c *countAcc) Result() any { return c.n }

// Count counts the non-null values of e.
func Count(e Expr) AggFunc {
	return aggFunc{name: "count", arg: e, kind: fixed(KindInt),
		make: func(ev Eval, _ Kind) Accumulator { return &countAcc{ev: ev} }}
}

// CountAll counts rows.
func CountAll() AggFunc {
	return aggFunc{name: "count", kind: fixed(KindInt),
		make: func(ev Eval, _ Kind) Accumulator { return &countAcc{ev: ev} }}
}

type distinctAcc struct {
	ev   Eval
	seen map[string]struct{}
	buf  []byte
}

func (d *distinctAcc) Add(r Row) {
	v := d.ev(r)
	if v == nil {
		return
	}
	d.buf = appendKey(d.buf[:0], v)
	if _, ok := d.seen[string(d.buf)]; !ok {
		d.seen[string(d.buf)] = struct{}{}
	}
}

func (d *distinctAcc) Result() any { return int64(len(d.seen)) }

// CountDistinct counts the distinct non-null values of e.
func CountDistinct(e Expr) AggFunc {
	return aggFunc{name: "count_distinct", arg: e, kind: fixed(KindInt),
		make: func(ev Eval, _ Kind) Accumulator {
			return &distinctAcc{ev: ev, seen: make(map[string]struct{})}
		}}
}

type extremeAcc struct {
	ev   Eval
	want int
	v    any
}

func (x *extremeAcc) Add(r Row) {
	v := x.ev(r)
	if v == nil {
		return
	}
	if x.v == nil || compareValues(v, x.v) == x.want {
		x.v = v
	}
}

func (x *extremeAcc) Result() any { return x.v }

// Min is the smallest non-null value of e.
func Min(e Expr) AggFunc {
	return aggFunc{name: "min", arg: e, kind: func(k Kind) Kind { return k },
		make: func(ev Eval, _ Kind) Accumulator { return &extremeAcc{ev: ev, want: -1} }}
}

// Max is the largest non-null value of e.
func Max(e Expr) AggFunc {
	return aggFunc{name: "max", arg: e, kind: func(k Kind) Kind { return k },
		make: func(ev Eval, _ Kind) Accumulator { return &extremeAcc{ev: ev, want: 1} }}
}
