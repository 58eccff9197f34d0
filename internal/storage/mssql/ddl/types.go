// Package ddl provides MSSQL-specific helpers for generating CREATE TABLE
// statements from the generic ddl.TableDef model.
package ddl

import "supplychain/internal/engine"

// DecimalType is the column type used for decimal engine columns. SQL Server
// has no unconstrained NUMERIC; 38 digits with 10 after the point covers the
// dataset's monetary and ratio fields.
const DecimalType = "DECIMAL(38,10)"

// MapType maps an engine kind to a SQL Server column type.
func MapType(k engine.Kind) string {
	switch k {
	case engine.KindInt:
		return "BIGINT"
	case engine.KindDecimal:
		return DecimalType
	case engine.KindDate:
		return "DATE"
	case engine.KindBool:
		return "BIT"
	default:
		return "NVARCHAR(MAX)"
	}
}
