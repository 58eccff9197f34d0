package sqlite

import (
	"context"
	"fmt"

	"supplychain/internal/ddl"
	"supplychain/internal/engine"
	"supplychain/internal/storage"
	sqliteddl "supplychain/internal/storage/sqlite/ddl"
)

// newRepository is a test hook that points to NewRepository by default.
var newRepository = NewRepository

// wrappedRepo adds a Close method that calls the cleanup function returned by
// NewRepository.
type wrappedRepo struct {
	*Repository
	closeFn func()
}

// Close implements storage.Repository.Close.
func (w *wrappedRepo) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

var _ storage.Repository = (*wrappedRepo)(nil)

func init() {
	storage.Register("sqlite", func(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
		r, closeFn, err := newRepository(ctx, cfg.DSN)
		if err != nil {
			return nil, err
		}
		return &wrappedRepo{Repository: r, closeFn: closeFn}, nil
	})

	storage.RegisterDDL("sqlite",
		func(ctx context.Context, repo storage.Repository, table string, cols []engine.Column) error {
			stmt, err := sqliteddl.BuildCreateTableSQL(ddl.FromColumns(table, cols, sqliteddl.MapType))
			if err != nil {
				return fmt.Errorf("build DDL: %w", err)
			}
			return repo.Exec(ctx, stmt)
		})
}
