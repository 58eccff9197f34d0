package mysql

import (
	"context"
	"fmt"

	"supplychain/internal/ddl"
	"supplychain/internal/engine"
	"supplychain/internal/storage"
	myddl "supplychain/internal/storage/mysql/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
// Tests may replace this variable to avoid real DB connections.
var newRepository = NewRepository

var _ storage.Repository = (*wrappedRepo)(nil)

// init registers the "mysql" backend with the factory.
func init() {
	storage.Register("mysql", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("mysql",
		func(ctx context.Context, repo storage.Repository, table string, cols []engine.Column) error {
			stmt, err := myddl.BuildCreateTableSQL(ddl.FromColumns(table, cols, myddl.MapType))
			if err != nil {
				return fmt.Errorf("build DDL: %w", err)
			}
			return repo.Exec(ctx, stmt)
		})
}

// wrappedRepo adapts *mysql.Repository to storage.Repository and provides Close.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close closes the underlying connection pool.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}
