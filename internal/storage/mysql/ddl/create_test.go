package ddl

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	gddl "supplychain/internal/ddl"
	"supplychain/internal/engine"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	td := gddl.FromColumns("sc.q1_late_by_region", []engine.Column{
		{Name: "order_region", Kind: engine.KindText},
		{Name: "late_delivery_rate", Kind: engine.KindDecimal},
		{Name: "late_orders", Kind: engine.KindInt},
	}, MapType)

	got, err := BuildCreateTableSQL(td)
	require.NoError(t, err)
	assert.Equal(t, "CREATE TABLE IF NOT EXISTS `sc`.`q1_late_by_region` (\n"+
		"  `order_region` TEXT,\n"+
		"  `late_delivery_rate` DECIMAL(38,10),\n"+
		"  `late_orders` BIGINT\n);", got)
}

func TestQuoteIdent(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "`a``b`", quoteIdent("a`b"))
}
