package ddl

import (
	"strings"

	gddl "supplychain/internal/ddl"
)

// Dialect quotes identifiers with backticks.
var Dialect = gddl.Dialect{
	Name:        "mysql ddl",
	Quote:       quoteIdent,
	IfNotExists: true,
}

// BuildCreateTableSQL renders CREATE TABLE IF NOT EXISTS for t.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

func quoteIdent(id string) string { return "`" + strings.ReplaceAll(id, "`", "``") + "`" }
