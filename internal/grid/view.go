package grid

import (
	"sort"
	"strings"

	"github.com/sells-group/boq-console/internal/analytics"
	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/numeric"
)

// Filter selects rows by their highlight classification.
type Filter string

const (
	FilterAll        Filter = "all"
	FilterErrors     Filter = "errors"     // both error highlights
	FilterDeviations Filter = "deviations" // both warning highlights
	FilterCritical   Filter = "critical"   // warning-orange only
)

// ParseFilter maps a query-string value to a Filter, defaulting to all.
// "anomalies" is accepted as a legacy spelling of deviations.
func ParseFilter(s string) Filter {
	switch Filter(strings.ToLower(s)) {
	case FilterErrors:
		return FilterErrors
	case FilterDeviations, Filter("anomalies"):
		return FilterDeviations
	case FilterCritical:
		return FilterCritical
	}
	return FilterAll
}

// Counts holds the per-filter row counts shown on the filter buttons,
// computed over the full dataset regardless of the active filter.
type Counts struct {
	All        int `json:"all"`
	Deviations int `json:"deviations"`
	Critical   int `json:"critical"`
	Errors     int `json:"errors"`
}

// View is the grid view model for one dataset. Rows are classified exactly
// once at construction; filtering, sorting, and searching are projections
// over that shared classification and are safe to recompute repeatedly.
//
// Expansion state is an explicit set of row IDs owned by the view,
// independent of the current projection: a row filtered out of sight keeps
// its expansion state for when it reappears.
type View struct {
	rows     []analytics.Classified
	columns  []Column
	filter   Filter
	sortCol  string
	sortAsc  bool
	search   string
	expanded map[string]struct{}
}

// NewView classifies the rows and builds a view over them.
func NewView(rows []model.Row) *View {
	return FromClassified(analytics.ClassifyAll(rows))
}

// FromClassified builds a view over rows that are already classified,
// sharing the classification with the dashboard aggregates.
func FromClassified(rows []analytics.Classified) *View {
	v := &View{
		rows:     rows,
		filter:   FilterAll,
		sortAsc:  true,
		expanded: make(map[string]struct{}),
	}
	if len(rows) > 0 {
		v.columns = ResolveColumns(rows[0].Row)
	}
	return v
}

// Columns returns the resolved visible columns in canonical order.
func (v *View) Columns() []Column {
	return v.columns
}

// Classified returns the full classified dataset, unfiltered.
func (v *View) Classified() []analytics.Classified {
	return v.rows
}

// SetFilter sets the active category filter.
func (v *View) SetFilter(f Filter) {
	v.filter = f
}

// SetSearch sets the free-text search term. Empty disables searching.
func (v *View) SetSearch(term string) {
	v.search = term
}

// SortBy sorts by the given column, toggling direction when the column is
// already the active sort key.
func (v *View) SortBy(column string) {
	if v.sortCol == column {
		v.sortAsc = !v.sortAsc
		return
	}
	v.sortCol = column
	v.sortAsc = true
}

// SetSort sets the sort column and direction explicitly. An empty column
// clears sorting, restoring source order.
func (v *View) SetSort(column string, ascending bool) {
	v.sortCol = column
	v.sortAsc = ascending
}

// Toggle flips the expansion state for a row ID and returns the new state.
func (v *View) Toggle(id string) bool {
	if _, ok := v.expanded[id]; ok {
		delete(v.expanded, id)
		return false
	}
	v.expanded[id] = struct{}{}
	return true
}

// Expanded reports whether a row is expanded.
func (v *View) Expanded(id string) bool {
	_, ok := v.expanded[id]
	return ok
}

// Counts returns per-filter row counts over the full dataset.
func (v *View) Counts() Counts {
	c := Counts{All: len(v.rows)}
	for _, row := range v.rows {
		switch row.Highlight {
		case model.HighlightWarningOrange:
			c.Critical++
			c.Deviations++
		case model.HighlightWarningYellow:
			c.Deviations++
		case model.HighlightErrorHigh, model.HighlightErrorLow:
			c.Errors++
		}
	}
	return c
}

// Rows returns the current projection, applied in a fixed order: category
// filter, then sort, then search. Searching after sorting preserves sort
// order within the matching subset.
func (v *View) Rows() []analytics.Classified {
	rows := v.applyFilter(v.rows)
	rows = v.applySort(rows)
	return v.applySearch(rows)
}

func (v *View) applyFilter(rows []analytics.Classified) []analytics.Classified {
	if v.filter == FilterAll {
		return rows
	}
	var out []analytics.Classified
	for _, c := range rows {
		keep := false
		switch v.filter {
		case FilterErrors:
			keep = c.Highlight == model.HighlightErrorHigh || c.Highlight == model.HighlightErrorLow
		case FilterDeviations:
			keep = c.Highlight == model.HighlightWarningOrange || c.Highlight == model.HighlightWarningYellow
		case FilterCritical:
			keep = c.Highlight == model.HighlightWarningOrange
		}
		if keep {
			out = append(out, c)
		}
	}
	return out
}

func (v *View) applySort(rows []analytics.Classified) []analytics.Classified {
	if v.sortCol == "" {
		return rows
	}

	sorted := make([]analytics.Classified, len(rows))
	copy(sorted, rows)

	numericCol := IsNumericColumn(v.sortCol)
	sort.SliceStable(sorted, func(i, j int) bool {
		a := sorted[i].Row.Value(v.sortCol)
		b := sorted[j].Row.Value(v.sortCol)

		var less bool
		if numericCol {
			less = numeric.Parse(a) < numeric.Parse(b)
		} else {
			less = strings.ToLower(model.CellString(a)) < strings.ToLower(model.CellString(b))
		}
		if v.sortAsc {
			return less
		}
		// Strict "greater" keeps ties in prior order for both directions.
		if numericCol {
			return numeric.Parse(a) > numeric.Parse(b)
		}
		return strings.ToLower(model.CellString(a)) > strings.ToLower(model.CellString(b))
	})
	return sorted
}

func (v *View) applySearch(rows []analytics.Classified) []analytics.Classified {
	if v.search == "" {
		return rows
	}
	term := strings.ToLower(v.search)

	var out []analytics.Classified
	for _, c := range rows {
		for _, col := range v.columns {
			text := strings.ToLower(model.CellString(c.Row.Value(col.Name)))
			if strings.Contains(text, term) {
				out = append(out, c)
				break
			}
		}
	}
	return out
}
