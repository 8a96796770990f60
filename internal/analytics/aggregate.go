package analytics

import (
	"strings"

	"github.com/sells-group/boq-console/internal/model"
)

// savingsNoiseFloor filters floating-point near-zero negatives out of the
// potential-savings sum: only deviations below -1 unit of currency count.
const savingsNoiseFloor = -1.0

// insightNameLimit is the display length for the largest-deviation item's
// description.
const insightNameLimit = 25

// Stats holds the KPI counts. The buckets partition the input: exact +
// moderate + overpriced + savings + errors == total for any row set.
type Stats struct {
	Exact      int `json:"exact"`
	Moderate   int `json:"moderate"`
	Overpriced int `json:"overpriced"`
	Savings    int `json:"savings"`
	Errors     int `json:"errors"`
	Total      int `json:"total"`
}

// Insight is the headline pair shown above the charts: the single item with
// the largest deviation percentage, and the total recoverable amount.
type Insight struct {
	MaxDeviationItem    string  `json:"max_deviation_item"`
	MaxDeviationPercent float64 `json:"max_deviation_percent"`
	TotalSavings        float64 `json:"total_savings"`
}

// descriptionTerms are the substrings tried, in order of the row's own
// columns, to locate a human-readable item description.
var descriptionTerms = []string{"description", "item", "particulars", "detail", "activity"}

// AggregateStats reduces classified rows into KPI bucket counts.
func AggregateStats(rows []Classified) Stats {
	s := Stats{Total: len(rows)}
	for _, c := range rows {
		switch c.Bucket() {
		case model.BucketExact:
			s.Exact++
		case model.BucketModerate:
			s.Moderate++
		case model.BucketOverpriced:
			s.Overpriced++
		case model.BucketSavings:
			s.Savings++
		case model.BucketErrors:
			s.Errors++
		}
	}
	return s
}

// BuildInsight finds the largest-deviation item and sums potential savings.
//
// "Largest" compares the signed percentage, not its absolute value, so a big
// savings percentage never wins over a smaller overrun. That asymmetry is
// deliberate: the insight chip calls out overruns.
func BuildInsight(rows []Classified) Insight {
	ins := Insight{MaxDeviationItem: "None"}

	for _, c := range rows {
		if c.AmountDiffPercent > ins.MaxDeviationPercent {
			ins.MaxDeviationPercent = c.AmountDiffPercent
			ins.MaxDeviationItem = describeRow(c.Row)
		}
		if c.AmountDiff < savingsNoiseFloor {
			ins.TotalSavings += -c.AmountDiff
		}
	}

	return ins
}

// describeRow locates a description by fuzzy key match, falling back to the
// first column, and truncates it for display.
func describeRow(row model.Row) string {
	key, ok := row.FindKey(func(k string) bool {
		lower := strings.ToLower(k)
		for _, term := range descriptionTerms {
			if strings.Contains(lower, term) {
				return true
			}
		}
		return false
	})
	if !ok {
		keys := row.Keys()
		if len(keys) == 0 {
			return "Unknown Item"
		}
		key = keys[0]
	}

	v := row.Value(key)
	if v == nil {
		return "Unknown Item"
	}
	desc := model.CellString(v)
	if desc == "" {
		return "Unknown Item"
	}

	runes := []rune(desc)
	if len(runes) > insightNameLimit {
		return string(runes[:insightNameLimit]) + "..."
	}
	return desc
}
