package storage

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain/internal/engine"
)

// recordingRepo captures every CopyFrom call.
type recordingRepo struct {
	mu      sync.Mutex
	tables  []string
	columns [][]string
	rows    [][]any
	failOn  int // 1-based CopyFrom call that fails; 0 never
	calls   int
}

func (r *recordingRepo) CopyFrom(_ context.Context, table string, columns []string, rows [][]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if r.calls == r.failOn {
		return 0, errors.New("disk full")
	}
	r.tables = append(r.tables, table)
	r.columns = append(r.columns, append([]string(nil), columns...))
	for _, row := range rows {
		r.rows = append(r.rows, append([]any(nil), row...))
	}
	return int64(len(rows)), nil
}
func (r *recordingRepo) Exec(context.Context, string) error { return nil }
func (r *recordingRepo) Close()                             {}

func sampleFrame() *engine.Frame {
	f := engine.NewFrame("q1",
		engine.Column{Name: "p.department_name", Kind: engine.KindText},
		engine.Column{Name: "total_profit", Kind: engine.KindDecimal},
	)
	for i := 0; i < 5; i++ {
		f.Rows = append(f.Rows, engine.Row{"Fitness", int64(i)})
	}
	return f
}

func TestExportOptions_TableName(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "sc_q1", ExportOptions{TablePrefix: "sc_"}.TableName("q1"))
	assert.Equal(t, "dbo.q1", ExportOptions{Schema: "dbo"}.TableName("q1"))
}

func TestExportFrame(t *testing.T) {
	t.Parallel()

	var (
		ddlTable string
		ddlCols  []engine.Column
	)
	RegisterDDL("export-test", func(_ context.Context, _ Repository, table string, cols []engine.Column) error {
		ddlTable, ddlCols = table, cols
		return nil
	})

	repo := &recordingRepo{}
	opt := ExportOptions{Kind: "export-test", Schema: "main", TablePrefix: "r_", AutoCreate: true, BatchSize: 2}
	n, err := ExportFrame(context.Background(), repo, opt, sampleFrame())
	require.NoError(t, err)

	assert.EqualValues(t, 5, n)
	assert.Equal(t, 3, repo.calls, "5 rows in batches of 2")
	assert.Equal(t, "main.r_q1", ddlTable)
	assert.Equal(t, []engine.Column{
		{Name: "p_department_name", Kind: engine.KindText},
		{Name: "total_profit", Kind: engine.KindDecimal},
	}, ddlCols)
	assert.Equal(t, []string{"p_department_name", "total_profit"}, repo.columns[0])
	assert.Len(t, repo.rows, 5)
	assert.Equal(t, []any{"Fitness", int64(4)}, repo.rows[4])
}

func TestExportFrame_NoBootstrapper(t *testing.T) {
	t.Parallel()
	_, err := ExportFrame(context.Background(), &recordingRepo{},
		ExportOptions{Kind: "nothing-registered", AutoCreate: true}, sampleFrame())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no DDL bootstrapper")
}

func TestExportFrame_CopyError(t *testing.T) {
	t.Parallel()
	repo := &recordingRepo{failOn: 2}
	n, err := ExportFrame(context.Background(), repo, ExportOptions{BatchSize: 2}, sampleFrame())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.EqualValues(t, 2, n)
}
