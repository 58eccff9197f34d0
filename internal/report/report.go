// Package report defines the ten fixed analytical reports as declarative
// engine pipelines and runs them over an extracted catalog.
package report

import (
	"fmt"
	"time"

	"github.com/golang-sql/civil"

	"supplychain/internal/engine"
)

// Purchase-interval join modes.
const (
	// JoinLegacy matches customer id against finance order id.
	JoinLegacy = "legacy"
	// JoinOrder reaches finance rows through the customer's orders.
	JoinOrder = "order"
)

// Options parameterize report definitions.
type Options struct {
	// ReferenceDate anchors churn-risk recency.
	ReferenceDate civil.Date
	// ProcessingDate is "today" for RFM recency.
	ProcessingDate civil.Date
	// PurchaseIntervalJoin is JoinLegacy or JoinOrder.
	PurchaseIntervalJoin string
}

// DefaultOptions uses the 2018-01-01 reference date, the legacy join and
// today's UTC date for processing.
func DefaultOptions() Options {
	return Options{
		ReferenceDate:        civil.Date{Year: 2018, Month: time.January, Day: 1},
		ProcessingDate:       civil.DateOf(time.Now().UTC()),
		PurchaseIntervalJoin: JoinLegacy,
	}
}

// Definition is one named report.
type Definition struct {
	ID       string
	Title    string
	Pipeline engine.Pipeline
}

type builder struct {
	id    string
	title string
	build func(Options) engine.Pipeline
}

var builders = []builder{
	{"q1", "Average profit per order by department", profitByDepartment},
	{"q2", "Low-margin bestsellers", lowMarginBestsellers},
	{"q3", "Monthly profit by department", monthlyProfit},
	{"q4", "Churn-risk segmentation", churnRisk},
	{"q5", "Purchase-interval profiling", purchaseInterval},
	{"q6", "Regional late-delivery exposure", lateDelivery},
	{"q7", "Month-over-month profit decline", profitDecline},
	{"q8", "Regional loyalty ranking", loyalty},
	{"q9", "Discount-tier marketing efficacy", discountTiers},
	{"q10", "RFM segmentation", rfm},
}

// IDs returns every report id in canonical order.
func IDs() []string {
	out := make([]string, len(builders))
	for i, b := range builders {
		out[i] = b.id
	}
	return out
}

// Definitions builds every report with opt.
func Definitions(opt Options) []Definition {
	out := make([]Definition, len(builders))
	for i, b := range builders {
		out[i] = Definition{ID: b.id, Title: b.title, Pipeline: b.build(opt)}
	}
	return out
}

// Select returns the definitions named by ids, in canonical order. An empty
// ids selects all.
func Select(defs []Definition, ids []string) ([]Definition, error) {
	if len(ids) == 0 {
		return defs, nil
	}
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var out []Definition
	for _, d := range defs {
		if want[d.ID] {
			out = append(out, d)
			delete(want, d.ID)
		}
	}
	for id := range want {
		return nil, fmt.Errorf("unknown report %q", id)
	}
	return out, nil
}
