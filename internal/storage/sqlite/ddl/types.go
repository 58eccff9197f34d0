// Package ddl contains SQLite-specific helpers for generating DDL.
package ddl

import "supplychain/internal/engine"

// MapType maps an engine kind to a SQLite column type.
//
// SQLite is dynamically typed, so the mapping picks affinities:
//   - int, bool -> INTEGER (bool as 0/1)
//   - decimal   -> NUMERIC
//   - date      -> TEXT (ISO-8601)
//   - text      -> TEXT
func MapType(k engine.Kind) string {
	switch k {
	case engine.KindInt, engine.KindBool:
		return "INTEGER"
	case engine.KindDecimal:
		return "NUMERIC"
	default:
		return "TEXT"
	}
}
