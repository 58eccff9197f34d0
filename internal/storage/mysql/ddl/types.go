// Package ddl holds MySQL type mapping and CREATE TABLE rendering.
package ddl

import "supplychain/internal/engine"

// MapType maps an engine kind to a MySQL column type.
func MapType(k engine.Kind) string {
	switch k {
	case engine.KindInt:
		return "BIGINT"
	case engine.KindDecimal:
		return "DECIMAL(38,10)"
	case engine.KindDate:
		return "DATE"
	case engine.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
