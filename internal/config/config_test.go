package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DecodesAndAppliesDefaults(t *testing.T) {
	t.Parallel()

	const js = `{
	  "job": "supplychain",
	  "source": { "kind": "file", "file": { "path": "testdata/dataco.csv" } },
	  "parser": {
	    "kind": "csv",
	    "options": {
	      "has_header": true,
	      "comma": ";",
	      "header_map": { "Order Date (DateOrders)": "order_date_dateorders" }
	    }
	  },
	  "analysis": { "purchase_interval_join": "order", "reports": ["q1", "q10"] },
	  "storage": { "kind": "sqlite", "db": { "dsn": "file:out.db", "auto_create_table": true, "export": ["reports"] } },
	  "runtime": { "transform_workers": 4, "report_workers": 2 }
	}`

	p, err := Load(strings.NewReader(js))
	require.NoError(t, err)

	assert.Equal(t, "supplychain", p.Job)
	assert.Equal(t, "testdata/dataco.csv", p.Source.File.Path)
	assert.Equal(t, ';', p.Parser.Options.Rune("comma", ','))
	assert.Equal(t, map[string]string{"Order Date (DateOrders)": "order_date_dateorders"}, p.Parser.Options.StringMap("header_map"))
	assert.Equal(t, JoinOrder, p.Analysis.PurchaseIntervalJoin)
	assert.Equal(t, []string{"q1", "q10"}, p.Analysis.Reports)
	assert.Equal(t, DefaultReferenceDate, p.Analysis.ReferenceDate)
	assert.Equal(t, FormatTable, p.Output.Format)
	assert.Equal(t, DefaultMaxRows, p.Output.MaxRows)
	assert.Equal(t, DefaultBatchSize, p.Runtime.BatchSize)
	assert.Equal(t, 4, p.Runtime.TransformWorkers)
	assert.True(t, p.Storage.DB.Exports("reports"))
	assert.False(t, p.Storage.DB.Exports("relations"))
}

func TestLoad_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	_, err := Load(strings.NewReader(`{"job":"x","transform":[]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transform")
}

func TestLoadFile(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	path := filepath.Join(dir, "p.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"job":"j","source":{"file":{"path":"a.csv"}}}`), 0o644))

	p, err := LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "file", p.Source.Kind)
	assert.Equal(t, "csv", p.Parser.Kind)
	assert.NotNil(t, p.Parser.Options)

	_, err = LoadFile(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)
}

func TestOptions_TypedAccessors(t *testing.T) {
	t.Parallel()
	var o Options
	require.NoError(t, json.Unmarshal([]byte(`{"s":"x","b":true,"n":3,"r":"|","m":{"a":"b","c":1}}`), &o))

	assert.Equal(t, "x", o.String("s", "d"))
	assert.Equal(t, "d", o.String("n", "d"))
	assert.True(t, o.Bool("b", false))
	assert.True(t, o.Bool("missing", true))
	assert.Equal(t, 3, o.Int("n", 0))
	assert.Equal(t, 7, o.Int("s", 7))
	assert.Equal(t, '|', o.Rune("r", ','))
	assert.Equal(t, map[string]string{"a": "b"}, o.StringMap("m"))
	assert.Nil(t, o.Any("missing"))

	var empty Options
	require.NoError(t, json.Unmarshal([]byte(`null`), &empty))
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}
