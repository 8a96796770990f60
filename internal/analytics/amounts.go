// Package analytics derives deviation classifications, KPI aggregates, and
// chart inputs from comparison-result rows. Every function here is pure and
// order-independent per row: safe to recompute and shared by both the KPI
// cards and the grid so the two can never disagree.
package analytics

import (
	"strings"

	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/numeric"
)

// Reference-amount columns written by the backend. "Amount.1" is the name
// pandas gives the second "Amount" column when a report round-trips through
// a dataframe.
const (
	sorAmountKey    = "SOR Amount"
	sorAmountAltKey = "Amount.1"
)

// Backend-computed deviation columns.
const (
	amountDeviationKey        = "Amount Deviation"
	amountDeviationPercentKey = "Amount Deviation (%)"
)

// boqAmountKey locates the vendor (BOQ) amount column: the first header, in
// column order, containing "amount" case-insensitively, excluding the two
// reference columns and anything that is itself a deviation column.
// Falls back to the literal "Amount".
func boqAmountKey(row model.Row) string {
	key, ok := row.FindKey(func(k string) bool {
		lower := strings.ToLower(k)
		return strings.Contains(lower, "amount") &&
			k != sorAmountAltKey &&
			k != sorAmountKey &&
			!strings.Contains(lower, "deviation")
	})
	if !ok {
		return "Amount"
	}
	return key
}

// boqAmount returns the normalized vendor amount for the row.
func boqAmount(row model.Row) float64 {
	return numeric.Parse(row.Value(boqAmountKey(row)))
}

// sorAmount returns the normalized reference amount, preferring "SOR Amount"
// over "Amount.1".
func sorAmount(row model.Row) float64 {
	if v := numeric.Parse(row.Value(sorAmountKey)); v != 0 {
		return v
	}
	return numeric.Parse(row.Value(sorAmountAltKey))
}
