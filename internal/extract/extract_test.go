package extract

import (
	"testing"
	"time"

	"github.com/golang-sql/civil"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"supplychain/internal/engine"
	"supplychain/internal/schema"
)

var decimalEqual = cmp.Comparer(func(a, b decimal.Decimal) bool { return a.Equal(b) })

// sourceRow builds a full source row from a sparse map; unset columns are NULL.
func sourceRow(tb testing.TB, vals map[string]any) engine.Row {
	tb.Helper()
	names := schema.Names()
	row := make(engine.Row, len(names))
	for i, n := range names {
		row[i] = vals[n]
	}
	for k := range vals {
		require.Contains(tb, names, k)
	}
	return row
}

func sampleSource(tb testing.TB) *engine.Frame {
	tb.Helper()
	day := civil.Date{Year: 2017, Month: time.March, Day: 4}
	line := func(orderID, itemID int64, sales string) engine.Row {
		return sourceRow(tb, map[string]any{
			"customer_id":            int64(7),
			"customer_fname":         "Mary",
			"customer_segment":       "Consumer",
			"order_id":               orderID,
			"order_customer_id":      int64(7),
			"order_date":             day,
			"sales":                  decimal.RequireFromString(sales),
			"order_item_id":          itemID,
			"product_card_id":        int64(365),
			"product_name":           "Gloves",
			"department_name":        "Apparel",
			"shipping_mode":          "Standard Class",
			"days_for_shipping_real": int64(3),
			"order_profit_per_order": decimal.RequireFromString("12.5"),
		})
	}
	return &engine.Frame{
		Name:    "source",
		Columns: schema.Columns(),
		Rows: []engine.Row{
			line(1, 10, "100"),
			line(1, 11, "50"),
			line(2, 12, "75.5"),
			line(1, 10, "100"), // exact duplicate line
		},
	}
}

func TestExtract_DedupesEveryRelation(t *testing.T) {
	t.Parallel()
	cat, err := Extract(sampleSource(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"customers", "finance", "orders", "products", "shipping_info"}, cat.Names())

	want := map[string]int{
		schema.Customers:    1,
		schema.Orders:       3,
		schema.Products:     1,
		schema.ShippingInfo: 2,
		schema.Finance:      2,
	}
	for name, n := range want {
		rel, err := cat.Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, n, rel.Len(), name)
		assert.Equal(t, rel.Len(), rel.Distinct().Len(), "%s has duplicates", name)
	}

	orders, err := cat.Lookup(schema.Orders)
	require.NoError(t, err)
	assert.Equal(t, schema.Entities[1].Columns, orders.ColumnNames())
	idx, err := orders.Index("order_date")
	require.NoError(t, err)
	assert.Equal(t, engine.KindDate, orders.Columns[idx].Kind)
}

func TestExtract_Idempotent(t *testing.T) {
	t.Parallel()
	src := sampleSource(t)
	first, err := Extract(src)
	require.NoError(t, err)
	second, err := Extract(src)
	require.NoError(t, err)

	for _, name := range first.Names() {
		a, err := first.Lookup(name)
		require.NoError(t, err)
		b, err := second.Lookup(name)
		require.NoError(t, err)
		if diff := cmp.Diff(a, b, decimalEqual); diff != "" {
			t.Fatalf("%s differs between runs (-first +second):\n%s", name, diff)
		}
	}
	assert.Len(t, src.Rows, 4, "source must not be modified")
}

func TestExtract_MissingColumn(t *testing.T) {
	t.Parallel()
	src := &engine.Frame{Columns: []engine.Column{{Name: "order_id", Kind: engine.KindInt}}}
	_, err := Extract(src)
	assert.ErrorIs(t, err, engine.ErrUnknownColumn)

	_, err = Extract(nil)
	assert.Error(t, err)
}
