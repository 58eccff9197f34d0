// Package ddl defines a small, backend-agnostic model for SQL DDL and renders
// CREATE TABLE statements from it.
//
// Backend packages (internal/storage/<kind>/ddl) supply a Dialect with their
// identifier quoting and type mapping and may wrap the statement further
// (SQL Server has no IF NOT EXISTS).
package ddl

import (
	"fmt"
	"strings"
)

// Dialect controls identifier quoting and the existence guard.
type Dialect struct {
	// Name prefixes error messages, e.g. "sqlite ddl".
	Name string
	// Quote quotes one identifier segment. Nil emits identifiers verbatim.
	Quote func(string) string
	// IfNotExists emits CREATE TABLE IF NOT EXISTS.
	IfNotExists bool
}

// QuoteFQN quotes each dotted segment of fqn with d.Quote.
func (d Dialect) QuoteFQN(fqn string) string {
	parts := strings.Split(fqn, ".")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, d.quote(p))
	}
	return strings.Join(out, ".")
}

func (d Dialect) quote(id string) string {
	if d.Quote == nil {
		return id
	}
	return d.Quote(id)
}

func (d Dialect) errorf(format string, args ...any) error {
	name := d.Name
	if name == "" {
		name = "ddl"
	}
	return fmt.Errorf(name+": "+format, args...)
}

// BuildCreateTableSQL renders a CREATE TABLE statement from t.
//
// Rules:
//
//   - t.FQN must be non-empty.
//
//   - Each column must have a non-empty Name and SQLType and is rendered as
//
//     <Name> <SQLType> [NOT NULL] [DEFAULT <Default>]
//
//   - Columns with PrimaryKey == true are collected into a trailing
//     PRIMARY KEY (...) clause.
func BuildCreateTableSQL(t TableDef, d Dialect) (string, error) {
	fqn := strings.TrimSpace(t.FQN)
	if fqn == "" {
		return "", d.errorf("table FQN must not be empty")
	}
	if len(t.Columns) == 0 {
		return "", d.errorf("at least one column is required")
	}

	cols := make([]string, 0, len(t.Columns)+1)
	pks := make([]string, 0, len(t.Columns))

	for _, c := range t.Columns {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			return "", d.errorf("column with empty name in table %s", fqn)
		}
		typ := strings.TrimSpace(c.SQLType)
		if typ == "" {
			return "", d.errorf("column %s missing SQLType", name)
		}

		var sb strings.Builder
		sb.WriteString(d.quote(name))
		sb.WriteByte(' ')
		sb.WriteString(typ)
		if !c.Nullable {
			sb.WriteString(" NOT NULL")
		}
		if def := strings.TrimSpace(c.Default); def != "" {
			sb.WriteString(" DEFAULT ")
			sb.WriteString(def)
		}
		cols = append(cols, sb.String())

		if c.PrimaryKey {
			pks = append(pks, d.quote(name))
		}
	}

	if len(pks) > 0 {
		cols = append(cols, fmt.Sprintf("PRIMARY KEY (%s)", strings.Join(pks, ", ")))
	}

	create := "CREATE TABLE "
	if d.IfNotExists {
		create += "IF NOT EXISTS "
	}
	return fmt.Sprintf("%s%s (\n  %s\n);", create, d.QuoteFQN(fqn), strings.Join(cols, ",\n  ")), nil
}
