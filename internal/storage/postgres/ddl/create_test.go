package ddl

import (
	"testing"

	gddl "supplychain/internal/ddl"
	"supplychain/internal/engine"
)

func TestBuildCreateTableSQL(t *testing.T) {
	t.Parallel()

	td := gddl.FromColumns("public.sc_finance", []engine.Column{
		{Name: "order_id", Kind: engine.KindInt},
		{Name: "benefit_per_order", Kind: engine.KindDecimal},
		{Name: "order_date", Kind: engine.KindDate},
		{Name: "flag", Kind: engine.KindBool},
		{Name: "status", Kind: engine.KindText},
	}, MapType)

	got, err := BuildCreateTableSQL(td)
	if err != nil {
		t.Fatalf("BuildCreateTableSQL: %v", err)
	}
	want := "CREATE TABLE IF NOT EXISTS \"public\".\"sc_finance\" (\n" +
		"  \"order_id\" BIGINT,\n" +
		"  \"benefit_per_order\" NUMERIC,\n" +
		"  \"order_date\" DATE,\n" +
		"  \"flag\" BOOLEAN,\n" +
		"  \"status\" TEXT\n);"
	if got != want {
		t.Fatalf("got:\n%s\nwant:\n%s", got, want)
	}
}
