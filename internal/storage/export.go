package storage

import (
	"context"
	"fmt"
	"strings"

	"golang.org/x/sync/errgroup"

	"supplychain/internal/engine"
	"supplychain/internal/metrics"
)

// ExportOptions controls how frames are written to a repository.
type ExportOptions struct {
	Kind        string // backend kind, used to find the DDL bootstrapper
	Schema      string // optional schema qualifier
	TablePrefix string
	AutoCreate  bool
	BatchSize   int
	Job         string // metrics label
}

// TableName returns the schema-qualified table a frame named name is written to.
func (o ExportOptions) TableName(name string) string {
	t := o.TablePrefix + name
	if o.Schema != "" {
		return o.Schema + "." + t
	}
	return t
}

// ColumnNames returns SQL-safe column names for f: qualifiers such as "m."
// become "m_".
func ColumnNames(f *engine.Frame) []string {
	out := make([]string, len(f.Columns))
	for i, c := range f.Columns {
		out[i] = strings.ReplaceAll(c.Name, ".", "_")
	}
	return out
}

// ExportFrame writes every row of f to its table, creating the table first
// when AutoCreate is set. It returns the number of rows written.
func ExportFrame(ctx context.Context, repo Repository, opt ExportOptions, f *engine.Frame) (int64, error) {
	table := opt.TableName(f.Name)
	cols := ColumnNames(f)

	if opt.AutoCreate {
		typed := make([]engine.Column, len(f.Columns))
		for i, c := range f.Columns {
			typed[i] = engine.Column{Name: cols[i], Kind: c.Kind}
		}
		if err := EnsureTable(ctx, opt.Kind, repo, table, typed); err != nil {
			return 0, fmt.Errorf("ensure table %s: %w", table, err)
		}
	}

	batchSize := opt.BatchSize
	if batchSize <= 0 {
		batchSize = 5000
	}

	g, gctx := errgroup.WithContext(ctx)
	rows := make(chan []any, batchSize)

	g.Go(func() error {
		defer close(rows)
		for _, r := range f.Rows {
			select {
			case rows <- []any(r):
			case <-gctx.Done():
				return gctx.Err()
			}
		}
		return nil
	})

	var total, batches int64
	g.Go(func() error {
		var err error
		total, batches, err = LoadBatches(gctx, cols, rows, batchSize,
			func(ctx context.Context, columns []string, batch [][]any) (int64, error) {
				return repo.CopyFrom(ctx, table, columns, batch)
			})
		return err
	})

	err := g.Wait()
	metrics.RecordBatches(opt.Job, batches)
	if err != nil {
		return total, fmt.Errorf("export %s: %w", table, err)
	}
	metrics.RecordRow(opt.Job, "exported_"+f.Name, total)
	return total, nil
}
