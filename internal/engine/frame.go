package engine

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"
)

var (
	// ErrUnknownColumn is returned when a column reference does not resolve.
	ErrUnknownColumn = errors.New("unknown column")
	// ErrAmbiguousColumn is returned when an unqualified name matches more
	// than one qualified column.
	ErrAmbiguousColumn = errors.New("ambiguous column")
)

// Column describes one column of a Frame.
type Column struct {
	Name string
	Kind Kind
}

// Row is one positional tuple; see value.go for the admitted value types.
type Row []any

// Frame is an ordered, typed table.
type Frame struct {
	Name    string
	Columns []Column
	Rows    []Row
}

// NewFrame returns an empty frame with the given columns.
func NewFrame(name string, cols ...Column) *Frame {
	return &Frame{Name: name, Columns: cols}
}

// Len returns the number of rows.
func (f *Frame) Len() int { return len(f.Rows) }

// ColumnNames returns the column names in order.
func (f *Frame) ColumnNames() []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = c.Name
	}
	return out
}

// Index resolves name to a column position. An exact match wins; otherwise an
// unqualified name matches the single column whose suffix after '.' equals it.
func (f *Frame) Index(name string) (int, error) {
	return resolve(f.Columns, name)
}

// Value returns the value of column name in row i.
func (f *Frame) Value(i int, name string) (any, error) {
	j, err := f.Index(name)
	if err != nil {
		return nil, err
	}
	return f.Rows[i][j], nil
}

func resolve(cols []Column, name string) (int, error) {
	// Later columns shadow earlier ones with the same name.
	for i := len(cols) - 1; i >= 0; i-- {
		if cols[i].Name == name {
			return i, nil
		}
	}
	if strings.Contains(name, ".") {
		return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	found := -1
	for i, c := range cols {
		dot := strings.LastIndexByte(c.Name, '.')
		if dot < 0 || c.Name[dot+1:] != name {
			continue
		}
		if found >= 0 {
			return -1, fmt.Errorf("%w: %s", ErrAmbiguousColumn, name)
		}
		found = i
	}
	if found < 0 {
		return -1, fmt.Errorf("%w: %s", ErrUnknownColumn, name)
	}
	return found, nil
}

// Project returns a new frame holding only the named columns, in the given
// order. Column names in the result are the requested names.
func (f *Frame) Project(name string, cols ...string) (*Frame, error) {
	idx := make([]int, len(cols))
	out := &Frame{Name: name, Columns: make([]Column, len(cols)), Rows: make([]Row, 0, len(f.Rows))}
	for i, c := range cols {
		j, err := f.Index(c)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", name, err)
		}
		idx[i] = j
		out.Columns[i] = Column{Name: c, Kind: f.Columns[j].Kind}
	}
	for _, r := range f.Rows {
		nr := make(Row, len(idx))
		for i, j := range idx {
			nr[i] = r[j]
		}
		out.Rows = append(out.Rows, nr)
	}
	return out, nil
}

// Distinct returns a copy of f without duplicate rows. Rows are compared on
// every column; the first occurrence is kept, so the result preserves input
// order.
func (f *Frame) Distinct() *Frame {
	out := &Frame{Name: f.Name, Columns: append([]Column(nil), f.Columns...)}
	seen := make(map[uint64][][]byte, len(f.Rows))
	var buf []byte
	for _, r := range f.Rows {
		buf = rowKey(buf[:0], r)
		h := xxh3.Hash(buf)
		dup := false
		for _, k := range seen[h] {
			if bytes.Equal(k, buf) {
				dup = true
				break
			}
		}
		if dup {
			continue
		}
		seen[h] = append(seen[h], append([]byte(nil), buf...))
		out.Rows = append(out.Rows, r)
	}
	return out
}

func rowKey(dst []byte, r Row) []byte {
	for _, v := range r {
		dst = appendKey(dst, v)
	}
	return dst
}
