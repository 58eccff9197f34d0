package ddl

import (
	"fmt"
	"strings"

	gddl "supplychain/internal/ddl"
)

// Dialect quotes identifiers with [brackets]. T-SQL has no CREATE TABLE IF
// NOT EXISTS, so BuildCreateTableSQL adds an OBJECT_ID guard instead.
var Dialect = gddl.Dialect{
	Name:  "mssql ddl",
	Quote: quoteIdent,
}

// BuildCreateTableSQL returns a T-SQL script that creates the table if it
// does not already exist:
//
//	IF OBJECT_ID(N'[schema].[table]', N'U') IS NULL
//	BEGIN
//	CREATE TABLE [schema].[table] (
//	  [col1] TYPE,
//	  ...
//	);
//	END;
func BuildCreateTableSQL(t gddl.TableDef) (string, error) {
	create, err := gddl.BuildCreateTableSQL(t, Dialect)
	if err != nil {
		return "", err
	}
	fqn := strings.ReplaceAll(Dialect.QuoteFQN(t.FQN), "'", "''")
	return fmt.Sprintf("IF OBJECT_ID(N'%s', N'U') IS NULL\nBEGIN\n%s\nEND;", fqn, create), nil
}

// quoteIdent quotes a single identifier segment for SQL Server using
// bracket syntax, escaping any closing brackets.
//
//	name      -> [name]
//	weird]id  -> [weird]]id]
func quoteIdent(id string) string {
	return "[" + strings.ReplaceAll(id, "]", "]]") + "]"
}
