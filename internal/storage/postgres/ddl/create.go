package ddl

import (
	"strings"

	gddl "supplychain/internal/ddl"
)

// Dialect quotes identifiers with double quotes and emits
// CREATE TABLE IF NOT EXISTS.
var Dialect = gddl.Dialect{
	Name:        "postgres ddl",
	Quote:       pgIdent,
	IfNotExists: true,
}

// BuildCreateTableSQL returns a Postgres CREATE TABLE IF NOT EXISTS statement
// for t with every identifier quoted.
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	return gddl.BuildCreateTableSQL(t, Dialect)
}

// pgIdent safely quotes a single identifier segment for Postgres.
func pgIdent(id string) string { return `"` + strings.ReplaceAll(id, `"`, `""`) + `"` }
