// Package postgres registers the "postgres" backend with the storage factory
// together with its DDL bootstrapper, so callers obtain a Repository through
// storage.New without importing this package directly.
package postgres

import (
	"context"
	"fmt"

	"supplychain/internal/ddl"
	"supplychain/internal/engine"
	"supplychain/internal/storage"
	pgddl "supplychain/internal/storage/postgres/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo delegates to *Repository and adds Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

var _ storage.Repository = (*wrappedRepo)(nil)

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

func init() {
	storage.Register("postgres", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("postgres",
		func(ctx context.Context, repo storage.Repository, table string, cols []engine.Column) error {
			stmt, err := pgddl.BuildCreateTableSQL(ddl.FromColumns(table, cols, pgddl.MapType))
			if err != nil {
				return fmt.Errorf("build DDL: %w", err)
			}
			if err := repo.Exec(ctx, stmt); err != nil {
				return fmt.Errorf("apply DDL: %w", err)
			}
			return nil
		})
}
