// Package grid builds the detailed-table view model: column whitelisting and
// aliasing, category filtering, stable sorting, text search, and per-row
// expansion state.
package grid

import (
	"strings"

	"github.com/sells-group/boq-console/internal/model"
)

// Column pairs a canonical column with the actual header it resolved to in
// the dataset. The actual name is what gets displayed and what cell values
// are read by.
type Column struct {
	Canonical string `json:"canonical"`
	Name      string `json:"name"`
}

// canonicalColumns is the ordered whitelist of columns the grid shows,
// matching the backend's Excel report layout. Columns that resolve to no
// actual header are omitted entirely, never shown blank.
var canonicalColumns = []string{
	"S.No",
	"Description",
	"UOM",
	"Quantity",
	"Rate (BOQ)",
	"SOR Rate",
	"Amount (BOQ)",
	"SOR Amount",
	"Amount Deviation (%)",
	"Rate Deviation (%)",
	"Match Found",
}

// columnAliases maps a canonical column to the uppercased raw headers that
// stand in for it. Raw BOQ sheets use terse headers like DETAILS or QTY.;
// the deviation columns only ever appear under their canonical names.
var columnAliases = map[string][]string{
	"S.No":         {"SNO"},
	"Description":  {"DETAILS"},
	"UOM":          {"UOM"},
	"Quantity":     {"QTY.", "QTY"},
	"Rate (BOQ)":   {"RATE"},
	"SOR Rate":     {"SOR RATE"},
	"Amount (BOQ)": {"AMOUNT(RS)"},
	"SOR Amount":   {"SOR AMOUNT"},
	"Match Found":  {"MATCH FOUND"},
}

// numericColumnTerms flags a column as numeric by name, which controls both
// sort comparison and right-alignment in renderers.
var numericColumnTerms = []string{"amount", "rate", "qty", "quantity", "cost", "price", "deviation"}

// ResolveColumns maps the canonical column list onto the headers actually
// present in the first row: exact name first, then the alias table. Resolved
// once per dataset, not per row.
func ResolveColumns(first model.Row) []Column {
	available := first.Keys()
	var out []Column

	for _, canonical := range canonicalColumns {
		if name, ok := resolveColumn(canonical, available); ok {
			out = append(out, Column{Canonical: canonical, Name: name})
		}
	}
	return out
}

func resolveColumn(canonical string, available []string) (string, bool) {
	for _, col := range available {
		if col == canonical {
			return col, true
		}
	}
	aliases := columnAliases[canonical]
	for _, col := range available {
		upper := strings.ToUpper(col)
		for _, alias := range aliases {
			if upper == alias {
				return col, true
			}
		}
	}
	return "", false
}

// IsNumericColumn reports whether a column holds numeric data, by header
// name heuristic.
func IsNumericColumn(name string) bool {
	lower := strings.ToLower(name)
	for _, term := range numericColumnTerms {
		if strings.Contains(lower, term) {
			return true
		}
	}
	return false
}
