package engine

import (
	"fmt"
	"strconv"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
)

// Kind is the logical type of a column.
type Kind int

const (
	KindText Kind = iota
	KindInt
	KindDecimal
	KindDate
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindDecimal:
		return "decimal"
	case KindDate:
		return "date"
	case KindBool:
		return "bool"
	default:
		return "text"
	}
}

// ParseKind maps a schema type name to a Kind.
func ParseKind(s string) (Kind, error) {
	switch s {
	case "text", "string", "":
		return KindText, nil
	case "int", "integer", "bigint":
		return KindInt, nil
	case "decimal", "numeric", "float":
		return KindDecimal, nil
	case "date":
		return KindDate, nil
	case "bool", "boolean":
		return KindBool, nil
	}
	return KindText, fmt.Errorf("unknown kind %q", s)
}

// Values held in a Row are one of: nil (SQL NULL), string, int64,
// decimal.Decimal, civil.Date or bool.

func toDecimal(v any) (decimal.Decimal, bool) {
	switch x := v.(type) {
	case int64:
		return decimal.NewFromInt(x), true
	case decimal.Decimal:
		return x, true
	}
	return decimal.Decimal{}, false
}

func isNumeric(v any) bool {
	switch v.(type) {
	case int64, decimal.Decimal:
		return true
	}
	return false
}

// compareValues orders two values of the same logical type. NULL sorts below
// every non-null value; integers and decimals compare numerically.
func compareValues(a, b any) int {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0
		case a == nil:
			return -1
		default:
			return 1
		}
	}
	switch x := a.(type) {
	case int64:
		if y, ok := b.(int64); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case string:
		if y, ok := b.(string); ok {
			switch {
			case x < y:
				return -1
			case x > y:
				return 1
			}
			return 0
		}
	case civil.Date:
		if y, ok := b.(civil.Date); ok {
			switch {
			case x.Before(y):
				return -1
			case x.After(y):
				return 1
			}
			return 0
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0
			case !x:
				return -1
			}
			return 1
		}
	}
	if da, ok := toDecimal(a); ok {
		if db, ok := toDecimal(b); ok {
			return da.Cmp(db)
		}
	}
	// Mixed types only appear through a malformed plan; fall back to text.
	sa, sb := FormatValue(a), FormatValue(b)
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	}
	return 0
}

// appendKey appends a canonical, unambiguous encoding of v to dst. Numbers
// share one tag so that 3 and 3.00 produce the same key.
func appendKey(dst []byte, v any) []byte {
	var tag byte
	var body string
	switch x := v.(type) {
	case nil:
		return append(dst, 'z', 0)
	case string:
		tag, body = 's', x
	case int64:
		tag, body = 'n', strconv.FormatInt(x, 10)
	case decimal.Decimal:
		tag, body = 'n', x.String()
	case civil.Date:
		tag, body = 'd', x.String()
	case bool:
		tag, body = 'b', strconv.FormatBool(x)
	default:
		tag, body = '?', fmt.Sprint(x)
	}
	dst = append(dst, tag)
	dst = strconv.AppendInt(dst, int64(len(body)), 10)
	dst = append(dst, ':')
	return append(dst, body...)
}

// FormatValue renders v for display; NULL renders as "NULL".
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case int64:
		return strconv.FormatInt(x, 10)
	case decimal.Decimal:
		return x.String()
	case civil.Date:
		return x.String()
	case bool:
		return strconv.FormatBool(x)
	}
	return fmt.Sprint(v)
}
