package analytics

import (
	"fmt"
	"math"

	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/numeric"
)

// Classification thresholds for rows without a backend category, in percent
// deviation of the vendor amount from the reference amount.
const (
	exactThreshold    = 0.01 // below this the row counts as an exact match
	criticalThreshold = 15.0 // above this the overrun is critical
)

// Origin records which path produced a row's classification. It is resolved
// exactly once in Classify; nothing downstream re-branches on the raw fields.
type Origin string

const (
	OriginUnmatched Origin = "unmatched" // no SOR match, amount math skipped
	OriginBackend   Origin = "backend"   // backend deviation category applied
	OriginComputed  Origin = "computed"  // percentage-threshold fallback
	OriginNone      Origin = "none"      // matched but nothing to compare
)

// Classified is a row plus everything derived from it. The source row is
// never mutated; derived fields live alongside it.
type Classified struct {
	Row model.Row

	ID                string
	Matched           bool
	Origin            Origin
	Category          model.DeviationCategory
	Highlight         model.Highlight
	AmountDiff        float64
	AmountDiffPercent float64
	Reasoning         string
	BOQAmountKey      string
}

// Classify derives the classification for a single row. It is a pure
// function of the row's fields: no dependence on other rows or on call
// order, and it never fails on malformed input.
func Classify(row model.Row, index int) Classified {
	c := Classified{
		Row:          row,
		ID:           rowID(row, index),
		Matched:      row.Matched(),
		Reasoning:    row.Reasoning(),
		BOQAmountKey: boqAmountKey(row),
	}

	// Backend-computed deviation fields apply to every row, matched or not.
	c.AmountDiff = numeric.Parse(row.Value(amountDeviationKey))
	c.AmountDiffPercent = numeric.Parse(row.Value(amountDeviationPercentKey))

	// Unmatched rows never proceed to amount math.
	if !c.Matched {
		c.Origin = OriginUnmatched
		c.Highlight = model.HighlightErrorHigh
		return c
	}

	// The backend category is authoritative when present.
	if cat := row.Category(); cat != "" {
		c.Origin = OriginBackend
		c.Category = cat
		c.Highlight = cat.HighlightFor()
		c.fillComputedDeviation()
		return c
	}

	boq := boqAmount(row)
	sor := sorAmount(row)

	// A zero or negative reference amount makes the percentage undefined.
	// Matched rows with nothing to compare are normal, not errors.
	if boq <= 0 || sor <= 0 {
		c.Origin = OriginNone
		c.Highlight = model.HighlightNormal
		return c
	}

	percent := (boq - sor) / sor * 100
	c.Origin = OriginComputed
	switch {
	case math.Abs(percent) < exactThreshold:
		c.Highlight = model.HighlightNormal
	case percent > criticalThreshold:
		c.Highlight = model.HighlightWarningOrange
	case percent < -criticalThreshold:
		c.Highlight = model.HighlightSuccess
	default:
		c.Highlight = model.HighlightWarningYellow
	}
	c.fillComputedDeviation()

	return c
}

// fillComputedDeviation computes the deviation fields from the amounts when
// the backend supplied none, applying the same positivity guard as the
// threshold classification.
func (c *Classified) fillComputedDeviation() {
	if c.AmountDiff != 0 || c.AmountDiffPercent != 0 {
		return
	}
	boq := boqAmount(c.Row)
	sor := sorAmount(c.Row)
	if boq <= 0 || sor <= 0 {
		return
	}
	c.AmountDiff = boq - sor
	c.AmountDiffPercent = (boq - sor) / sor * 100
}

// Bucket returns the KPI bucket this row contributes to. Every row lands in
// exactly one bucket, though the bucket-to-highlight mapping is not 1:1.
func (c Classified) Bucket() model.Bucket {
	switch c.Origin {
	case OriginUnmatched:
		return model.BucketErrors
	case OriginBackend:
		return c.Category.BucketFor()
	case OriginComputed:
		switch c.Highlight {
		case model.HighlightWarningOrange:
			return model.BucketOverpriced
		case model.HighlightSuccess:
			return model.BucketSavings
		case model.HighlightWarningYellow:
			return model.BucketModerate
		}
	}
	return model.BucketExact
}

// ClassifyAll classifies every row once. The result is shared by the
// aggregator, the cost walk, and the grid view model.
func ClassifyAll(rows []model.Row) []Classified {
	out := make([]Classified, len(rows))
	for i, row := range rows {
		out[i] = Classify(row, i)
	}
	return out
}

// rowID returns the row's stable identifier, synthesized from position when
// the backend did not assign one.
func rowID(row model.Row, index int) string {
	if id, ok := row.Get("_id"); ok {
		if s, ok := id.(string); ok && s != "" {
			return s
		}
	}
	return fmt.Sprintf("row-%d", index)
}
