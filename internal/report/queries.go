package report

import "supplychain/internal/engine"

func ordersProductsFinance() []engine.Join {
	return []engine.Join{
		{Right: engine.Relation{Name: "products", Alias: "p"}, LeftKey: "o.product_card_id", RightKey: "p.product_card_id"},
		{Right: engine.Relation{Name: "finance", Alias: "f"}, LeftKey: "o.order_id", RightKey: "f.order_id"},
	}
}

var (
	realDays      = engine.Col("s.days_for_shipping_real")
	scheduledDays = engine.Col("s.days_for_shipment_scheduled")
)

// pct is round(100 * part / whole, 2); NULL when whole is zero.
func pct(part, whole engine.Expr) engine.Expr {
	return engine.Round(engine.Div(engine.Mul(part, engine.Lit(100)), whole), 2)
}

func profitByDepartment(Options) engine.Pipeline {
	return engine.Pipeline{Stages: []engine.Stage{{
		Name: "q1",
		From: engine.Relation{Name: "products", Alias: "p"},
		Joins: []engine.Join{
			{Right: engine.Relation{Name: "orders", Alias: "o"}, LeftKey: "p.product_card_id", RightKey: "o.product_card_id"},
			{Right: engine.Relation{Name: "finance", Alias: "f"}, LeftKey: "o.order_id", RightKey: "f.order_id"},
		},
		GroupBy: []engine.Named{engine.As("department_name", engine.Col("p.department_name"))},
		Aggs:    []engine.Aggregate{{Name: "avg_profit", Func: engine.Avg(engine.Col("f.order_profit_per_order"))}},
		Select: []engine.Named{
			engine.As("department_name", engine.Col("department_name")),
			engine.As("avg_profit_per_order", engine.Round(engine.Col("avg_profit"), 2)),
		},
		OrderBy: []engine.Order{engine.Desc(engine.Col("avg_profit_per_order"))},
	}}}
}

func lowMarginBestsellers(Options) engine.Pipeline {
	return engine.Pipeline{Stages: []engine.Stage{{
		Name:    "q2",
		From:    engine.Relation{Name: "orders", Alias: "o"},
		Joins:   ordersProductsFinance(),
		GroupBy: []engine.Named{engine.As("product_name", engine.Col("p.product_name"))},
		Aggs: []engine.Aggregate{
			{Name: "sum_sales", Func: engine.Sum(engine.Col("o.sales"))},
			{Name: "sum_profit", Func: engine.Sum(engine.Col("f.order_profit_per_order"))},
			{Name: "avg_ratio", Func: engine.Avg(engine.Col("f.order_item_profit_ratio"))},
		},
		Select: []engine.Named{
			engine.As("product_name", engine.Col("product_name")),
			engine.As("total_sales", engine.Round(engine.Col("sum_sales"), 2)),
			engine.As("total_profit", engine.Round(engine.Col("sum_profit"), 2)),
			engine.As("avg_profit_ratio", engine.Round(engine.Col("avg_ratio"), 4)),
		},
		// Thresholds apply to the rounded values.
		Having: engine.And(
			engine.Gt(engine.Col("total_sales"), engine.Lit(10000)),
			engine.Lt(engine.Col("avg_profit_ratio"), engine.Dec("0.1")),
		),
		OrderBy: []engine.Order{engine.Desc(engine.Col("total_sales"))},
		Limit:   5,
	}}}
}

func monthlyProfitStage(name string) engine.Stage {
	return engine.Stage{
		Name:  name,
		From:  engine.Relation{Name: "orders", Alias: "o"},
		Joins: ordersProductsFinance(),
		Where: engine.IsNotNull(engine.Col("o.order_date")),
		GroupBy: []engine.Named{
			engine.As("month", engine.Month(engine.Col("o.order_date"))),
			engine.As("department_name", engine.Col("p.department_name")),
		},
		Aggs: []engine.Aggregate{{Name: "profit", Func: engine.Sum(engine.Col("f.order_profit_per_order"))}},
		Select: []engine.Named{
			engine.As("month", engine.Col("month")),
			engine.As("department_name", engine.Col("department_name")),
			engine.As("monthly_profit", engine.Round(engine.Col("profit"), 2)),
		},
	}
}

func monthlyProfit(Options) engine.Pipeline {
	st := monthlyProfitStage("q3")
	st.OrderBy = []engine.Order{engine.Asc(engine.Col("month")), engine.Desc(engine.Col("monthly_profit"))}
	return engine.Pipeline{Stages: []engine.Stage{st}}
}

func churnRisk(opt Options) engine.Pipeline {
	days := engine.Col("days_since_last_purchase")
	return engine.Pipeline{Stages: []engine.Stage{
		{
			Name:    "last_purchase",
			From:    engine.Relation{Name: "orders"},
			GroupBy: []engine.Named{engine.As("customer_id", engine.Col("order_customer_id"))},
			Aggs:    []engine.Aggregate{{Name: "last_order_date", Func: engine.Max(engine.Col("order_date"))}},
		},
		{
			Name: "churn_risk",
			From: engine.Relation{Name: "last_purchase"},
			Select: []engine.Named{
				engine.As("customer_id", engine.Col("customer_id")),
				engine.As("last_order_date", engine.Col("last_order_date")),
				engine.As("days_since_last_purchase", engine.DateDiff(engine.Lit(opt.ReferenceDate), engine.Col("last_order_date"))),
				// A NULL day count matches no branch and lands in High Risk.
				engine.As("churn_segment", engine.Case(engine.Lit("High Risk"),
					engine.When{Cond: engine.Le(days, engine.Lit(90)), Then: engine.Lit("Low Risk")},
					engine.When{Cond: engine.Le(days, engine.Lit(180)), Then: engine.Lit("Medium Risk")},
				)),
			},
		},
		{
			Name: "q4",
			From: engine.Relation{Name: "orders", Alias: "o"},
			Joins: []engine.Join{
				{Right: engine.Relation{Name: "churn_risk", Alias: "cr"}, LeftKey: "o.order_customer_id", RightKey: "cr.customer_id"},
				{Right: engine.Relation{Name: "customers", Alias: "c"}, LeftKey: "o.order_customer_id", RightKey: "c.customer_id"},
			},
			GroupBy: []engine.Named{
				engine.As("churn_segment", engine.Col("cr.churn_segment")),
				engine.As("customer_segment", engine.Col("c.customer_segment")),
			},
			Aggs: []engine.Aggregate{
				{Name: "sales", Func: engine.Avg(engine.Col("o.sales"))},
				{Name: "quantity", Func: engine.Avg(engine.Col("o.order_item_quantity"))},
				{Name: "discount_rate", Func: engine.Avg(engine.Col("o.order_item_discount_rate"))},
			},
			Select: []engine.Named{
				engine.As("churn_segment", engine.Col("churn_segment")),
				engine.As("customer_segment", engine.Col("customer_segment")),
				engine.As("avg_sales", engine.Round(engine.Col("sales"), 2)),
				engine.As("avg_quantity", engine.Round(engine.Col("quantity"), 2)),
				engine.As("avg_discount_rate", engine.Round(engine.Col("discount_rate"), 4)),
			},
			OrderBy: []engine.Order{engine.Asc(engine.Col("customer_segment"))},
		},
	}}
}

func purchaseInterval(opt Options) engine.Pipeline {
	between := engine.Col("avg_days_between")
	stages := []engine.Stage{
		{
			Name:    "customer_orders",
			From:    engine.Relation{Name: "orders", Alias: "o"},
			Where:   engine.IsNotNull(engine.Col("o.order_date")),
			GroupBy: []engine.Named{engine.As("customer_id", engine.Col("o.order_customer_id"))},
			Aggs: []engine.Aggregate{
				{Name: "purchase_count", Func: engine.CountDistinct(engine.Col("o.order_id"))},
				{Name: "first_order_date", Func: engine.Min(engine.Col("o.order_date"))},
				{Name: "last_order_date", Func: engine.Max(engine.Col("o.order_date"))},
			},
			Select: []engine.Named{
				engine.As("customer_id", engine.Col("customer_id")),
				engine.As("purchase_count", engine.Col("purchase_count")),
				engine.As("active_days", engine.DateDiff(engine.Col("last_order_date"), engine.Col("first_order_date"))),
			},
		},
		{
			Name: "customer_metrics",
			From: engine.Relation{Name: "customer_orders"},
			Select: []engine.Named{
				engine.As("customer_id", engine.Col("customer_id")),
				// One purchase divides by zero and yields NULL.
				engine.As("avg_days_between", engine.Round(engine.Div(engine.Col("active_days"), engine.Sub(engine.Col("purchase_count"), engine.Lit(1))), 2)),
				engine.As("purchase_frequency", engine.Case(engine.Lit("Infrequent (>90 days)"),
					engine.When{Cond: engine.Lt(between, engine.Lit(30)), Then: engine.Lit("Frequent (<30 days)")},
					engine.When{Cond: engine.Between(between, engine.Lit(30), engine.Lit(90)), Then: engine.Lit("Regular (30–90 days)")},
				)),
				engine.As("avg_days_active", engine.Round(engine.Col("active_days"), 2)),
				engine.As("purchase_count", engine.Col("purchase_count")),
			},
		},
	}

	final := engine.Stage{
		Name:    "q5",
		From:    engine.Relation{Name: "customer_metrics", Alias: "m"},
		GroupBy: []engine.Named{engine.As("purchase_frequency", engine.Col("m.purchase_frequency"))},
		Aggs: []engine.Aggregate{
			{Name: "customer_count", Func: engine.CountDistinct(engine.Col("m.customer_id"))},
			{Name: "purchase_count", Func: engine.Avg(engine.Col("m.purchase_count"))},
			{Name: "days_active", Func: engine.Avg(engine.Col("m.avg_days_active"))},
			{Name: "days_between", Func: engine.Avg(engine.Col("m.avg_days_between"))},
			{Name: "total_spent", Func: engine.Avg(engine.Col("f.sales_per_customer"))},
			{Name: "order_profit", Func: engine.Avg(engine.Col("f.order_profit_per_order"))},
		},
		Select: []engine.Named{
			engine.As("purchase_frequency", engine.Col("purchase_frequency")),
			engine.As("customer_count", engine.Col("customer_count")),
			engine.As("avg_purchase_count", engine.Round(engine.Col("purchase_count"), 2)),
			engine.As("avg_days_active", engine.Round(engine.Col("days_active"), 2)),
			engine.As("avg_days_between", engine.Round(engine.Col("days_between"), 2)),
			engine.As("avg_total_spent", engine.Round(engine.Col("total_spent"), 2)),
			engine.As("avg_order_profit", engine.Round(engine.Col("order_profit"), 2)),
		},
		OrderBy: []engine.Order{engine.Asc(engine.Col("purchase_frequency"))},
	}
	if opt.PurchaseIntervalJoin == JoinOrder {
		stages = append(stages, engine.Stage{
			Name: "customer_order_ids",
			From: engine.Relation{Name: "orders"},
			GroupBy: []engine.Named{
				engine.As("customer_id", engine.Col("order_customer_id")),
				engine.As("order_id", engine.Col("order_id")),
			},
		})
		final.Joins = []engine.Join{
			{Right: engine.Relation{Name: "customer_order_ids", Alias: "co"}, LeftKey: "m.customer_id", RightKey: "co.customer_id"},
			{Right: engine.Relation{Name: "finance", Alias: "f"}, LeftKey: "co.order_id", RightKey: "f.order_id"},
		}
	} else {
		final.Joins = []engine.Join{
			{Right: engine.Relation{Name: "finance", Alias: "f"}, LeftKey: "m.customer_id", RightKey: "f.order_id"},
		}
	}
	return engine.Pipeline{Stages: append(stages, final)}
}

func lateDelivery(Options) engine.Pipeline {
	return engine.Pipeline{Stages: []engine.Stage{{
		Name: "q6",
		From: engine.Relation{Name: "orders", Alias: "o"},
		Joins: []engine.Join{
			{Right: engine.Relation{Name: "customers", Alias: "c"}, LeftKey: "o.order_customer_id", RightKey: "c.customer_id"},
			{Right: engine.Relation{Name: "shipping_info", Alias: "s"}, LeftKey: "o.order_id", RightKey: "s.order_id"},
		},
		GroupBy: []engine.Named{engine.As("region", engine.Col("o.order_region"))},
		Aggs: []engine.Aggregate{
			{Name: "affected_customers", Func: engine.CountDistinct(engine.Col("c.customer_id"))},
			{Name: "late_lines", Func: engine.Sum(engine.If(engine.Gt(realDays, scheduledDays), engine.Lit(1), engine.Lit(0)))},
			{Name: "lines", Func: engine.CountAll()},
		},
		Select: []engine.Named{
			engine.As("region", engine.Col("region")),
			engine.As("affected_customers", engine.Col("affected_customers")),
			engine.As("late_rate", pct(engine.Col("late_lines"), engine.Col("lines"))),
		},
		Having:  engine.Gt(engine.Col("late_rate"), engine.Lit(30)),
		OrderBy: []engine.Order{engine.Desc(engine.Col("late_rate"))},
	}}}
}

func profitDecline(Options) engine.Pipeline {
	monthly := monthlyProfitStage("monthly_profit")
	return engine.Pipeline{Stages: []engine.Stage{
		monthly,
		{
			Name: "q7",
			From: engine.Relation{Name: "monthly_profit"},
			Windows: []engine.WindowCol{{
				Name: "previous_profit",
				Func: engine.Lag(engine.Col("monthly_profit"), 1, []engine.Expr{engine.Col("department_name")}, engine.Asc(engine.Col("month"))),
			}},
			Select: []engine.Named{
				engine.As("department_name", engine.Col("department_name")),
				engine.As("month", engine.Col("month")),
				engine.As("monthly_profit", engine.Col("monthly_profit")),
				engine.As("profit_change", engine.Round(engine.Sub(engine.Col("monthly_profit"), engine.Col("previous_profit")), 2)),
			},
			Having:  engine.Lt(engine.Col("profit_change"), engine.Lit(0)),
			OrderBy: []engine.Order{engine.Asc(engine.Col("profit_change"))},
			Limit:   10,
		},
	}}
}

func loyalty(Options) engine.Pipeline {
	return engine.Pipeline{Stages: []engine.Stage{{
		Name: "q8",
		From: engine.Relation{Name: "orders", Alias: "o"},
		Joins: []engine.Join{
			{Right: engine.Relation{Name: "shipping_info", Alias: "s"}, LeftKey: "o.order_id", RightKey: "s.order_id"},
		},
		GroupBy: []engine.Named{
			engine.As("region", engine.Col("o.order_region")),
			engine.As("customer_id", engine.Col("o.order_customer_id")),
		},
		Aggs: []engine.Aggregate{
			{Name: "total_orders", Func: engine.CountAll()},
			{Name: "total_sales", Func: engine.Sum(engine.Col("o.sales"))},
			{Name: "ontime_deliveries", Func: engine.Sum(engine.If(engine.Le(realDays, scheduledDays), engine.Lit(1), engine.Lit(0)))},
		},
		Select: []engine.Named{
			engine.As("region", engine.Col("region")),
			engine.As("customer_id", engine.Col("customer_id")),
			engine.As("total_orders", engine.Col("total_orders")),
			engine.As("total_sales", engine.Col("total_sales")),
			engine.As("ontime_deliveries", engine.Col("ontime_deliveries")),
			engine.As("ontime_rate", pct(engine.Col("ontime_deliveries"), engine.Col("total_orders"))),
		},
		Having: engine.And(
			engine.Gt(engine.Col("total_orders"), engine.Lit(2)),
			engine.Gt(engine.Col("total_sales"), engine.Lit(1000)),
			engine.Gt(engine.Col("ontime_rate"), engine.Lit(70)),
		),
		OrderBy: []engine.Order{engine.Desc(engine.Col("total_sales"))},
		Limit:   10,
	}}}
}

func discountTiers(Options) engine.Pipeline {
	high := engine.Ge(engine.Col("o.order_item_discount_rate"), engine.Dec("0.2"))
	return engine.Pipeline{Stages: []engine.Stage{{
		Name: "q9",
		From: engine.Relation{Name: "orders", Alias: "o"},
		Joins: []engine.Join{
			{Right: engine.Relation{Name: "customers", Alias: "c"}, LeftKey: "o.order_customer_id", RightKey: "c.customer_id"},
			{Right: engine.Relation{Name: "finance", Alias: "f"}, LeftKey: "o.order_id", RightKey: "f.order_id"},
		},
		GroupBy: []engine.Named{engine.As("customer_segment", engine.Col("c.customer_segment"))},
		Aggs: []engine.Aggregate{
			{Name: "total_customers", Func: engine.CountDistinct(engine.Col("c.customer_id"))},
			{Name: "total_orders", Func: engine.Count(engine.Col("o.order_id"))},
			{Name: "discount_rate", Func: engine.Avg(engine.Col("o.order_item_discount_rate"))},
			{Name: "high_discount_orders", Func: engine.Sum(engine.If(high, engine.Lit(1), engine.Lit(0)))},
			{Name: "total_sales", Func: engine.Sum(engine.Col("o.sales"))},
			{Name: "total_profit", Func: engine.Sum(engine.Col("f.order_profit_per_order"))},
		},
		Select: []engine.Named{
			engine.As("customer_segment", engine.Col("customer_segment")),
			engine.As("total_customers", engine.Col("total_customers")),
			engine.As("total_orders", engine.Col("total_orders")),
			engine.As("avg_discount_rate", engine.Round(engine.Col("discount_rate"), 2)),
			engine.As("high_discount_orders", engine.Col("high_discount_orders")),
			engine.As("high_discount_ratio_pct", pct(engine.Col("high_discount_orders"), engine.Col("total_orders"))),
			engine.As("total_sales", engine.Col("total_sales")),
			engine.As("total_profit", engine.Col("total_profit")),
			engine.As("profit_margin_pct", pct(engine.Col("total_profit"), engine.NullIf(engine.Col("total_sales"), engine.Lit(0)))),
		},
		OrderBy: []engine.Order{engine.Desc(engine.Col("total_profit"))},
	}}}
}

func rfm(opt Options) engine.Pipeline {
	return engine.Pipeline{Stages: []engine.Stage{
		{
			Name:    "last_order",
			From:    engine.Relation{Name: "orders", Alias: "o"},
			GroupBy: []engine.Named{engine.As("customer_id", engine.Col("o.order_customer_id"))},
			Aggs: []engine.Aggregate{
				{Name: "last_purchase_date", Func: engine.Max(engine.Col("o.order_date"))},
				{Name: "frequency", Func: engine.Count(engine.Col("o.order_id"))},
				{Name: "total_spent", Func: engine.Sum(engine.Col("o.sales"))},
			},
		},
		{
			Name: "rfm_base",
			From: engine.Relation{Name: "customers", Alias: "c"},
			Joins: []engine.Join{
				{Right: engine.Relation{Name: "last_order", Alias: "l"}, LeftKey: "c.customer_id", RightKey: "l.customer_id"},
			},
			Select: []engine.Named{
				engine.As("customer_id", engine.Col("c.customer_id")),
				engine.As("customer_fname", engine.Col("c.customer_fname")),
				engine.As("recency", engine.DateDiff(engine.Lit(opt.ProcessingDate), engine.Col("l.last_purchase_date"))),
				engine.As("frequency", engine.Col("l.frequency")),
				engine.As("monetary", engine.Col("l.total_spent")),
			},
		},
		{
			Name: "rfm_analysis",
			From: engine.Relation{Name: "rfm_base"},
			Windows: []engine.WindowCol{
				{Name: "r_score", Func: engine.NTile(5, engine.Desc(engine.Col("recency")))},
				{Name: "f_score", Func: engine.NTile(5, engine.Asc(engine.Col("frequency")))},
				{Name: "m_score", Func: engine.NTile(5, engine.Asc(engine.Col("monetary")))},
			},
		},
		{
			Name:    "q10",
			From:    engine.Relation{Name: "rfm_analysis"},
			GroupBy: []engine.Named{engine.As("rfm_segment", engine.Concat(engine.Col("r_score"), engine.Col("f_score"), engine.Col("m_score")))},
			Aggs: []engine.Aggregate{
				{Name: "customer_count", Func: engine.CountAll()},
				{Name: "recency", Func: engine.Avg(engine.Col("recency"))},
				{Name: "frequency", Func: engine.Avg(engine.Col("frequency"))},
				{Name: "monetary", Func: engine.Avg(engine.Col("monetary"))},
			},
			Select: []engine.Named{
				engine.As("rfm_segment", engine.Col("rfm_segment")),
				engine.As("customer_count", engine.Col("customer_count")),
				engine.As("avg_recency", engine.Round(engine.Col("recency"), 2)),
				engine.As("avg_frequency", engine.Round(engine.Col("frequency"), 2)),
				engine.As("avg_monetary", engine.Round(engine.Col("monetary"), 2)),
			},
			OrderBy: []engine.Order{engine.Asc(engine.Col("rfm_segment"))},
		},
	}}
}
