package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain/internal/schema"
)

// writeFixture writes a two-order log and a pipeline config into a temp dir
// and returns the config path.
func writeFixture(t *testing.T, mutate func(cfg map[string]any)) string {
	t.Helper()
	dir := t.TempDir()

	vals := map[string]string{
		"customer_id":            "1",
		"order_customer_id":      "1",
		"customer_segment":       "Consumer",
		"order_date_dateorders":  "1/31/2018 22:56",
		"sales":                  "100",
		"order_item_quantity":    "1",
		"order_region":           "West",
		"product_card_id":        "9",
		"department_name":        "Golf",
		"order_profit_per_order": "10",
	}
	var sb strings.Builder
	sb.WriteString(strings.Join(schema.Headers(), ",") + "\n")
	for _, id := range []string{"1", "2"} {
		vals["order_id"], vals["order_item_id"] = id, id
		cells := make([]string, 0, len(schema.Headers()))
		for _, h := range schema.Headers() {
			cells = append(cells, vals[h])
		}
		sb.WriteString(strings.Join(cells, ",") + "\n")
	}
	csvPath := filepath.Join(dir, "log.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte(sb.String()), 0o644))

	cfg := map[string]any{
		"job":      "cli-test",
		"source":   map[string]any{"kind": "file", "file": map[string]any{"path": csvPath}},
		"parser":   map[string]any{"kind": "csv", "options": map[string]any{"has_header": true}},
		"analysis": map[string]any{"reference_date": "2018-01-01", "processing_date": "2018-03-01", "purchase_interval_join": "order"},
		"output":   map[string]any{"format": "json", "dir": filepath.Join(dir, "out")},
	}
	if mutate != nil {
		mutate(cfg)
	}
	b, err := json.Marshal(cfg)
	require.NoError(t, err)
	cfgPath := filepath.Join(dir, "pipeline.json")
	require.NoError(t, os.WriteFile(cfgPath, b, 0o644))
	return cfgPath
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errb bytes.Buffer
	code = run(args, &out, &errb)
	return code, out.String(), errb.String()
}

func TestReportsCommand(t *testing.T) {
	code, out, _ := runCLI("reports")
	assert.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out, "q10")
	assert.Contains(t, out, "RFM segmentation")
}

func TestValidateCommand(t *testing.T) {
	cfg := writeFixture(t, nil)
	code, out, _ := runCLI("validate", "--config", cfg)
	assert.Equal(t, exitCodeSuccess, code)
	assert.Contains(t, out, "configuration is valid")

	bad := writeFixture(t, func(c map[string]any) {
		c["analysis"].(map[string]any)["reports"] = []string{"q1", "q99"}
	})
	code, out, errOut := runCLI("validate", "--config", bad)
	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, out, `error at analysis.reports[1]: unknown report "q99"`)
	assert.Contains(t, errOut, "configuration is invalid")
}

func TestRunCommand_WritesJSON(t *testing.T) {
	cfg := writeFixture(t, nil)
	code, _, errOut := runCLI("run", "--config", cfg, "--reports", "q1, q4", "--metrics-backend", "none")
	require.Equal(t, exitCodeSuccess, code, errOut)

	files, err := filepath.Glob(filepath.Join(filepath.Dir(cfg), "out", "*.json"))
	require.NoError(t, err)
	require.Len(t, files, 2)
	var names []string
	for _, f := range files {
		names = append(names, strings.SplitN(filepath.Base(f), "_", 2)[0])
	}
	assert.ElementsMatch(t, []string{"q1", "q4"}, names)
}

func TestRunCommand_TableOutput(t *testing.T) {
	cfg := writeFixture(t, func(c map[string]any) {
		c["output"] = map[string]any{"format": "table", "max_rows": 5}
	})
	code, out, errOut := runCLI("run", "--config", cfg, "--reports", "q1")
	require.Equal(t, exitCodeSuccess, code, errOut)
	assert.Contains(t, out, "[q1] Average profit per order by department")
	assert.Contains(t, out, "Golf")
}

func TestExtractCommand_SQLite(t *testing.T) {
	cfg := writeFixture(t, func(c map[string]any) {
		c["storage"] = map[string]any{
			"kind": "sqlite",
			"db":   map[string]any{"dsn": filepath.Join(t.TempDir(), "sc.db"), "auto_create_table": true},
		}
	})
	code, out, errOut := runCLI("extract", "--config", cfg)
	require.Equal(t, exitCodeSuccess, code, errOut)
	assert.Contains(t, out, "orders")
	assert.Contains(t, out, "shipping_info")
}

func TestRunCommand_MissingConfig(t *testing.T) {
	code, _, errOut := runCLI("run", "--config", filepath.Join(t.TempDir(), "nope.json"))
	assert.Equal(t, exitCodeError, code)
	assert.Contains(t, errOut, "open config")
}

func TestSplitIDs(t *testing.T) {
	assert.Equal(t, []string{"q1", "q10"}, splitIDs(" q1,,q10 "))
	assert.Nil(t, splitIDs(""))
}
