// Package schema fixes the columns read from the order-line log and the
// column lists of the five relations derived from it.
package schema

import "supplychain/internal/engine"

// Relation names registered in the catalog.
const (
	Customers    = "customers"
	Orders       = "orders"
	Products     = "products"
	ShippingInfo = "shipping_info"
	Finance      = "finance"
)

// Field is one typed column of the source log. Header is the normalized CSV
// header it is read from; it defaults to Name.
type Field struct {
	Name   string
	Header string
	Kind   engine.Kind
}

// SourceHeader returns the header the field is read from.
func (f Field) SourceHeader() string {
	if f.Header != "" {
		return f.Header
	}
	return f.Name
}

// Source lists every source column any relation needs.
var Source = []Field{
	{Name: "customer_id", Kind: engine.KindInt},
	{Name: "customer_fname", Kind: engine.KindText},
	{Name: "customer_lname", Kind: engine.KindText},
	{Name: "customer_email", Kind: engine.KindText},
	{Name: "customer_segment", Kind: engine.KindText},
	{Name: "customer_city", Kind: engine.KindText},
	{Name: "customer_country", Kind: engine.KindText},
	{Name: "customer_state", Kind: engine.KindText},
	{Name: "customer_zipcode", Kind: engine.KindInt},

	{Name: "order_id", Kind: engine.KindInt},
	{Name: "order_customer_id", Kind: engine.KindInt},
	{Name: "order_date", Header: "order_date_dateorders", Kind: engine.KindDate},
	{Name: "sales", Kind: engine.KindDecimal},
	{Name: "order_item_quantity", Kind: engine.KindInt},
	{Name: "order_item_id", Kind: engine.KindInt},
	{Name: "order_item_product_price", Kind: engine.KindDecimal},
	{Name: "order_item_total", Kind: engine.KindDecimal},
	{Name: "order_item_discount", Kind: engine.KindDecimal},
	{Name: "order_item_discount_rate", Kind: engine.KindDecimal},
	{Name: "order_status", Kind: engine.KindText},
	{Name: "order_city", Kind: engine.KindText},
	{Name: "order_state", Kind: engine.KindText},
	{Name: "order_country", Kind: engine.KindText},
	{Name: "order_region", Kind: engine.KindText},

	{Name: "product_card_id", Kind: engine.KindInt},
	{Name: "product_name", Kind: engine.KindText},
	{Name: "product_category_id", Kind: engine.KindInt},
	{Name: "category_id", Kind: engine.KindInt},
	{Name: "category_name", Kind: engine.KindText},
	{Name: "department_id", Kind: engine.KindInt},
	{Name: "department_name", Kind: engine.KindText},
	{Name: "product_price", Kind: engine.KindDecimal},
	{Name: "product_status", Kind: engine.KindInt},

	{Name: "shipping_mode", Kind: engine.KindText},
	{Name: "days_for_shipment_scheduled", Kind: engine.KindInt},
	{Name: "days_for_shipping_real", Kind: engine.KindInt},
	{Name: "delivery_status", Kind: engine.KindText},
	{Name: "late_delivery_risk", Kind: engine.KindInt},

	{Name: "sales_per_customer", Kind: engine.KindDecimal},
	{Name: "benefit_per_order", Kind: engine.KindDecimal},
	{Name: "order_profit_per_order", Kind: engine.KindDecimal},
	{Name: "order_item_profit_ratio", Kind: engine.KindDecimal},
}

// Entity is a relation projected from the source.
type Entity struct {
	Relation string
	Columns  []string
}

// Entities lists the relations in registration order.
var Entities = []Entity{
	{Relation: Customers, Columns: []string{
		"customer_id", "customer_fname", "customer_lname", "customer_email",
		"customer_segment", "customer_city", "customer_country", "customer_state", "customer_zipcode",
	}},
	{Relation: Orders, Columns: []string{
		"order_id", "order_customer_id", "order_date", "sales", "order_item_quantity",
		"order_item_id", "order_item_product_price", "order_item_total", "order_item_discount",
		"order_item_discount_rate", "order_status", "order_city", "order_state",
		"order_country", "order_region", "product_card_id",
	}},
	{Relation: Products, Columns: []string{
		"product_card_id", "product_name", "product_category_id", "category_id",
		"category_name", "department_id", "department_name", "product_price", "product_status",
	}},
	{Relation: ShippingInfo, Columns: []string{
		"order_id", "shipping_mode", "order_date", "days_for_shipment_scheduled",
		"days_for_shipping_real", "delivery_status", "late_delivery_risk",
	}},
	{Relation: Finance, Columns: []string{
		"order_id", "sales_per_customer", "benefit_per_order",
		"order_profit_per_order", "order_item_profit_ratio",
	}},
}

// Names returns the source column names in order.
func Names() []string {
	out := make([]string, len(Source))
	for i, f := range Source {
		out[i] = f.Name
	}
	return out
}

// Headers returns the source headers in order.
func Headers() []string {
	out := make([]string, len(Source))
	for i, f := range Source {
		out[i] = f.SourceHeader()
	}
	return out
}

// Columns returns the engine columns of the source frame.
func Columns() []engine.Column {
	out := make([]engine.Column, len(Source))
	for i, f := range Source {
		out[i] = engine.Column{Name: f.Name, Kind: f.Kind}
	}
	return out
}
