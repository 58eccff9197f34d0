package present

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain/internal/engine"
	"supplychain/internal/report"
)

func sampleResult() report.Result {
	f := engine.NewFrame("q1",
		engine.Column{Name: "department_name", Kind: engine.KindText},
		engine.Column{Name: "avg_profit", Kind: engine.KindDecimal},
		engine.Column{Name: "first_order", Kind: engine.KindDate},
	)
	f.Rows = []engine.Row{
		{"Golf", decimal.RequireFromString("12.50"), civil.Date{Year: 2017, Month: 1, Day: 2}},
		{"Fitness", nil, nil},
	}
	return report.Result{ID: "q1", Title: "Average profit per order by department", Frame: f}
}

func TestTable_CapsRows(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, sampleResult(), 1))
	out := buf.String()

	assert.Contains(t, out, "[q1] Average profit per order by department (2 rows)")
	assert.Contains(t, out, "department_name")
	assert.Contains(t, out, "12.5")
	assert.Contains(t, out, "2017-01-02")
	assert.NotContains(t, out, "Fitness")
	assert.Contains(t, out, "only showing top 1 rows")
}

func TestTable_AllRowsAndNull(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	require.NoError(t, Table(&buf, sampleResult(), -1))
	out := buf.String()
	assert.Contains(t, out, "Fitness")
	assert.Contains(t, out, "NULL")
	assert.NotContains(t, out, "only showing")
}

func TestTable_Failed(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	res := report.Result{ID: "q5", Title: "Purchase-interval profiling", Err: errors.New("boom")}
	require.NoError(t, Table(&buf, res, 20))
	assert.Equal(t, "\n[q5] Purchase-interval profiling: FAILED: boom\n", buf.String())
}

func TestWriteJSON(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "out")
	at := time.Date(2018, time.February, 3, 4, 5, 6, 0, time.UTC)

	path, err := WriteJSON(dir, "run-1", at, sampleResult())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "q1_20180203_040506.json"), path)

	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(b), `"avg_profit"`))

	var got struct {
		RunID       string              `json:"run_id"`
		Report      string              `json:"report"`
		GeneratedAt string              `json:"generated_at"`
		Columns     []Column            `json:"columns"`
		Rows        [][]json.RawMessage `json:"rows"`
	}
	require.NoError(t, json.Unmarshal(b, &got))
	assert.Equal(t, "run-1", got.RunID)
	assert.Equal(t, "q1", got.Report)
	assert.Equal(t, "2018-02-03T04:05:06Z", got.GeneratedAt)
	assert.Equal(t, []Column{{"department_name", "text"}, {"avg_profit", "decimal"}, {"first_order", "date"}}, got.Columns)
	require.Len(t, got.Rows, 2)
	assert.Equal(t, `12.5`, string(got.Rows[0][1]), "decimal is a bare number")
	assert.Equal(t, `"2017-01-02"`, string(got.Rows[0][2]))
	assert.Equal(t, `null`, string(got.Rows[1][1]))
}

func TestWriteJSON_FailedResult(t *testing.T) {
	t.Parallel()

	_, err := WriteJSON(t.TempDir(), "r", time.Now(), report.Result{ID: "q2", Err: errors.New("x")})
	assert.ErrorContains(t, err, "report q2 has no result")
}
