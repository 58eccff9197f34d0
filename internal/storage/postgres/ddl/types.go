// Package ddl contains Postgres-specific helpers for generating DDL.
package ddl

import "supplychain/internal/engine"

// MapType maps an engine kind to a Postgres column type.
//
//	int     -> BIGINT
//	decimal -> NUMERIC (unconstrained, exact)
//	date    -> DATE
//	bool    -> BOOLEAN
//	text    -> TEXT
func MapType(k engine.Kind) string {
	switch k {
	case engine.KindInt:
		return "BIGINT"
	case engine.KindDecimal:
		return "NUMERIC"
	case engine.KindDate:
		return "DATE"
	case engine.KindBool:
		return "BOOLEAN"
	default:
		return "TEXT"
	}
}
