package engine

import (
	"fmt"
	"strings"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Expr is a scalar expression evaluated once per row. Binding resolves column
// references against a concrete column list and reports the result kind.
type Expr interface {
	Bind(cols []Column) (Eval, Kind, error)
	String() string
}

// Eval evaluates a bound expression against one row.
type Eval func(r Row) any

type colRef struct{ name string }

// Col references a column by name; see Frame.Index for resolution rules.
func Col(name string) Expr { return colRef{name: name} }

func (c colRef) Bind(cols []Column) (Eval, Kind, error) {
	i, err := resolve(cols, c.name)
	if err != nil {
		return nil, 0, err
	}
	return func(r Row) any { return r[i] }, cols[i].Kind, nil
}

func (c colRef) String() string { return c.name }

type literal struct {
	v    any
	kind Kind
}

// Lit wraps a constant. Go ints become int64 and float64 becomes an exact
// decimal.
func Lit(v any) Expr {
	switch x := v.(type) {
	case int:
		return literal{v: int64(x), kind: KindInt}
	case int64:
		return literal{v: x, kind: KindInt}
	case float64:
		return literal{v: decimal.NewFromFloat(x), kind: KindDecimal}
	case decimal.Decimal:
		return literal{v: x, kind: KindDecimal}
	case civil.Date:
		return literal{v: x, kind: KindDate}
	case bool:
		return literal{v: x, kind: KindBool}
	case string:
		return literal{v: x, kind: KindText}
	case nil:
		return literal{}
	}
	panic(fmt.Sprintf("engine: unsupported literal %T", v))
}

// Dec is a decimal literal parsed from its text form; it panics on malformed
// input and is meant for constants in report definitions.
func Dec(s string) Expr { return literal{v: decimal.RequireFromString(s), kind: KindDecimal} }

func (l literal) Bind([]Column) (Eval, Kind, error) {
	v := l.v
	return func(Row) any { return v }, l.kind, nil
}

func (l literal) String() string {
	if s, ok := l.v.(string); ok {
		return "'" + s + "'"
	}
	return FormatValue(l.v)
}

type unary struct {
	name string
	arg  Expr
	kind func(Kind) Kind
	fn   func(any) any
}

func (u unary) Bind(cols []Column) (Eval, Kind, error) {
	ev, k, err := u.arg.Bind(cols)
	if err != nil {
		return nil, 0, err
	}
	fn := u.fn
	return func(r Row) any { return fn(ev(r)) }, u.kind(k), nil
}

func (u unary) String() string { return u.name + "(" + u.arg.String() + ")" }

type binary struct {
	op   string
	l, r Expr
	kind func(a, b Kind) Kind
	fn   func(a, b any) any
}

func (b binary) Bind(cols []Column) (Eval, Kind, error) {
	le, lk, err := b.l.Bind(cols)
	if err != nil {
		return nil, 0, err
	}
	re, rk, err := b.r.Bind(cols)
	if err != nil {
		return nil, 0, err
	}
	fn := b.fn
	return func(r Row) any { return fn(le(r), re(r)) }, b.kind(lk, rk), nil
}

func (b binary) String() string { return "(" + b.l.String() + " " + b.op + " " + b.r.String() + ")" }

func fixed(k Kind) func(Kind) Kind       { return func(Kind) Kind { return k } }
func fixed2(k Kind) func(a, b Kind) Kind { return func(Kind, Kind) Kind { return k } }

func numericKind(a, b Kind) Kind {
	if a == KindInt && b == KindInt {
		return KindInt
	}
	return KindDecimal
}

// Month extracts the month number of a date.
func Month(e Expr) Expr {
	return unary{name: "month", arg: e, kind: fixed(KindInt), fn: func(v any) any {
		d, ok := v.(civil.Date)
		if !ok {
			return nil
		}
		return int64(d.Month)
	}}
}

// DateDiff returns end - start in days.
func DateDiff(end, start Expr) Expr {
	return binary{op: "datediff", l: end, r: start, kind: fixed2(KindInt), fn: func(a, b any) any {
		e, ok1 := a.(civil.Date)
		s, ok2 := b.(civil.Date)
		if !ok1 || !ok2 {
			return nil
		}
		return int64(e.DaysSince(s))
	}}
}

func arith(op string, l, r Expr, ii func(a, b int64) int64, dd func(a, b decimal.Decimal) decimal.Decimal) Expr {
	return binary{op: op, l: l, r: r, kind: numericKind, fn: func(a, b any) any {
		if a == nil || b == nil {
			return nil
		}
		if x, ok := a.(int64); ok {
			if y, ok := b.(int64); ok {
				return ii(x, y)
			}
		}
		x, ok1 := toDecimal(a)
		y, ok2 := toDecimal(b)
		if !ok1 || !ok2 {
			return nil
		}
		return dd(x, y)
	}}
}

func Add(l, r Expr) Expr {
	return arith("+", l, r, func(a, b int64) int64 { return a + b }, decimal.Decimal.Add)
}

func Sub(l, r Expr) Expr {
	return arith("-", l, r, func(a, b int64) int64 { return a - b }, decimal.Decimal.Sub)
}

func Mul(l, r Expr) Expr {
	return arith("*", l, r, func(a, b int64) int64 { return a * b }, decimal.Decimal.Mul)
}

// Div is decimal division. A zero or NULL divisor yields NULL.
func Div(l, r Expr) Expr {
	return binary{op: "/", l: l, r: r, kind: fixed2(KindDecimal), fn: func(a, b any) any {
		x, ok1 := toDecimal(a)
		y, ok2 := toDecimal(b)
		if !ok1 || !ok2 || y.IsZero() {
			return nil
		}
		return x.Div(y)
	}}
}

// Round rounds half away from zero to places decimal places.
func Round(e Expr, places int32) Expr {
	return unary{name: fmt.Sprintf("round%d", places), arg: e, kind: fixed(KindDecimal), fn: func(v any) any {
		d, ok := toDecimal(v)
		if !ok {
			return nil
		}
		return d.Round(places)
	}}
}

// NullIf yields NULL when e equals v, otherwise e.
func NullIf(e, v Expr) Expr {
	return binary{op: "nullif", l: e, r: v, kind: func(a, _ Kind) Kind { return a }, fn: func(a, b any) any {
		if a != nil && b != nil && compareValues(a, b) == 0 {
			return nil
		}
		return a
	}}
}

func compare(op string, l, r Expr, ok func(c int) bool) Expr {
	return binary{op: op, l: l, r: r, kind: fixed2(KindBool), fn: func(a, b any) any {
		if a == nil || b == nil {
			return nil
		}
		return ok(compareValues(a, b))
	}}
}

func Gt(l, r Expr) Expr { return compare(">", l, r, func(c int) bool { return c > 0 }) }
func Ge(l, r Expr) Expr { return compare(">=", l, r, func(c int) bool { return c >= 0 }) }
func Lt(l, r Expr) Expr { return compare("<", l, r, func(c int) bool { return c < 0 }) }
func Le(l, r Expr) Expr { return compare("<=", l, r, func(c int) bool { return c <= 0 }) }
func Eq(l, r Expr) Expr { return compare("=", l, r, func(c int) bool { return c == 0 }) }

// Between is lo <= e AND e <= hi.
func Between(e, lo, hi Expr) Expr { return And(Ge(e, lo), Le(e, hi)) }

type andExpr struct{ terms []Expr }

// And combines predicates with SQL three-valued logic.
func And(terms ...Expr) Expr { return andExpr{terms: terms} }

func (a andExpr) Bind(cols []Column) (Eval, Kind, error) {
	evs := make([]Eval, len(a.terms))
	for i, t := range a.terms {
		ev, _, err := t.Bind(cols)
		if err != nil {
			return nil, 0, err
		}
		evs[i] = ev
	}
	return func(r Row) any {
		sawNull := false
		for _, ev := range evs {
			switch v := ev(r).(type) {
			case bool:
				if !v {
					return false
				}
			default:
				sawNull = true
			}
		}
		if sawNull {
			return nil
		}
		return true
	}, KindBool, nil
}

func (a andExpr) String() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.String()
	}
	return "(" + strings.Join(parts, " AND ") + ")"
}

// IsNotNull is true when e is not NULL.
func IsNotNull(e Expr) Expr {
	return unary{name: "is_not_null", arg: e, kind: fixed(KindBool), fn: func(v any) any { return v != nil }}
}

// When is one branch of a Case.
type When struct {
	Cond Expr
	Then Expr
}

type caseExpr struct {
	whens []When
	els   Expr
}

// Case evaluates the first branch whose condition is true; a NULL condition
// does not match. Without a match the result is els (which may be nil for
// NULL). The result kind is that of the first branch.
func Case(els Expr, whens ...When) Expr { return caseExpr{whens: whens, els: els} }

// If is a single-branch Case.
func If(cond, then, els Expr) Expr { return Case(els, When{Cond: cond, Then: then}) }

func (c caseExpr) Bind(cols []Column) (Eval, Kind, error) {
	type branch struct{ cond, then Eval }
	bs := make([]branch, len(c.whens))
	kind := KindText
	for i, w := range c.whens {
		ce, _, err := w.Cond.Bind(cols)
		if err != nil {
			return nil, 0, err
		}
		te, tk, err := w.Then.Bind(cols)
		if err != nil {
			return nil, 0, err
		}
		if i == 0 {
			kind = tk
		}
		bs[i] = branch{cond: ce, then: te}
	}
	var els Eval = func(Row) any { return nil }
	if c.els != nil {
		ev, _, err := c.els.Bind(cols)
		if err != nil {
			return nil, 0, err
		}
		els = ev
	}
	return func(r Row) any {
		for _, b := range bs {
			if v, ok := b.cond(r).(bool); ok && v {
				return b.then(r)
			}
		}
		return els(r)
	}, kind, nil
}

func (c caseExpr) String() string {
	var sb strings.Builder
	sb.WriteString("CASE")
	for _, w := range c.whens {
		sb.WriteString(" WHEN " + w.Cond.String() + " THEN " + w.Then.String())
	}
	if c.els != nil {
		sb.WriteString(" ELSE " + c.els.String())
	}
	sb.WriteString(" END")
	return sb.String()
}

type concatExpr struct{ parts []Expr }

// Concat joins the text forms of its arguments; any NULL makes it NULL.
func Concat(parts ...Expr) Expr { return concatExpr{parts: parts} }

func (c concatExpr) Bind(cols []Column) (Eval, Kind, error) {
	evs := make([]Eval, len(c.parts))
	for i, p := range c.parts {
		ev, _, err := p.Bind(cols)
		if err != nil {
			return nil, 0, err
		}
		evs[i] = ev
	}
	return func(r Row) any {
		var sb strings.Builder
		for _, ev := range evs {
			v := ev(r)
			if v == nil {
				return nil
			}
			sb.WriteString(FormatValue(v))
		}
		return sb.String()
	}, KindText, nil
}

func (c concatExpr) String() string {
	parts := make([]string, len(c.parts))
	for i, p := range c.parts {
		parts[i] = p.String()
	}
	return "concat(" + strings.Join(parts, ", ") + ")"
}
