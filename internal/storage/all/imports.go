// Package all wires all built-in storage backends into the storage factory.
//
// This package exists purely for side effects: importing it (even as a blank
// import) runs the init functions of each backend, which register their
// factories and DDL bootstrappers with the storage package:
//
//   - "postgres" (supplychain/internal/storage/postgres)
//   - "mssql"    (supplychain/internal/storage/mssql)
//   - "mysql"    (supplychain/internal/storage/mysql)
//   - "sqlite"   (supplychain/internal/storage/sqlite)
//
// A binary that needs only a subset can import those backends directly
// instead of this package.
package all

import (
	_ "supplychain/internal/storage/mssql"
	_ "supplychain/internal/storage/mysql"
	_ "supplychain/internal/storage/postgres"
	_ "supplychain/internal/storage/sqlite"
)
