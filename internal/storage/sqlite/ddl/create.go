package ddl

import (
	"strings"

	gddl "supplychain/internal/ddl"
)

// Dialect quotes identifiers with double quotes and emits
// CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:        "sqlite ddl",
	Quote:       quoteIdent,
	IfNotExists: true,
}

// BuildCreateTableSQL returns a SQLite CREATE TABLE statement of the form:
//
//	CREATE TABLE IF NOT EXISTS "table" (
//	  "col1" TYPE [NOT NULL] [DEFAULT expr],
//	  "col2" TYPE
//	);
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

func quoteIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}
