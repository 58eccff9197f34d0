package storage

import (
	"context"
	"fmt"
	"sync"

	"supplychain/internal/engine"
)

// DDLBootstrapper creates table (if missing) with columns typed from the
// engine kinds, using the backend's dialect. Backends register one per kind
// at init time.
type DDLBootstrapper func(ctx context.Context, repo Repository, table string, cols []engine.Column) error

var (
	ddlMu  sync.RWMutex
	ddlFns = map[string]DDLBootstrapper{}
)

// RegisterDDL registers (or replaces) the DDLBootstrapper for kind.
func RegisterDDL(kind string, fn DDLBootstrapper) {
	ddlMu.Lock()
	defer ddlMu.Unlock()
	ddlFns[kind] = fn
}

// EnsureTable invokes the bootstrapper registered for kind.
func EnsureTable(ctx context.Context, kind string, repo Repository, table string, cols []engine.Column) error {
	ddlMu.RLock()
	fn, ok := ddlFns[kind]
	ddlMu.RUnlock()
	if !ok {
		return fmt.Errorf("no DDL bootstrapper registered for storage.kind=%q", kind)
	}
	return fn(ctx, repo, table, cols)
}
