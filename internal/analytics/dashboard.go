package analytics

import (
	"github.com/sells-group/boq-console/internal/model"
)

// PieSlice is one segment of the match-distribution donut. Slices with a
// zero count are dropped.
type PieSlice struct {
	Name  string `json:"name"`
	Value int    `json:"value"`
	Color string `json:"color"`
}

// Dashboard bundles every derived view of one analysis result. It is built
// from a single classification pass so the KPI cards, charts, and grid can
// never disagree about a row.
type Dashboard struct {
	Stats    Stats       `json:"stats"`
	Insight  Insight     `json:"insight"`
	CostWalk []WalkEntry `json:"cost_walk"`
	Pie      []PieSlice  `json:"pie"`
}

// BuildDashboard classifies the rows once and derives all dashboard outputs.
func BuildDashboard(rows []model.Row) Dashboard {
	classified := ClassifyAll(rows)
	return DashboardFrom(classified)
}

// DashboardFrom derives the dashboard from already-classified rows.
func DashboardFrom(classified []Classified) Dashboard {
	stats := AggregateStats(classified)
	return Dashboard{
		Stats:    stats,
		Insight:  BuildInsight(classified),
		CostWalk: BuildCostWalk(classified),
		Pie:      PieData(stats),
	}
}

// PieData converts KPI counts into donut slices, dropping empty ones.
func PieData(s Stats) []PieSlice {
	all := []PieSlice{
		{Name: "Exact Match", Value: s.Exact, Color: "#94a3b8"},
		{Name: "Moderate (0-15%)", Value: s.Moderate, Color: "#facc15"},
		{Name: "Critical (>15%)", Value: s.Overpriced, Color: "#f97316"},
		{Name: "Savings (<-15%)", Value: s.Savings, Color: "#14b8a6"},
		{Name: "Errors/Missing", Value: s.Errors, Color: "#ef4444"},
	}
	out := all[:0]
	for _, slice := range all {
		if slice.Value > 0 {
			out = append(out, slice)
		}
	}
	return out
}

