package analytics

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/boq-console/internal/model"
)

// makeRow builds a matched row with the given vendor and reference amounts.
func makeRow(boq, sor float64) model.Row {
	row := model.NewRow()
	row.Set("Description", "Test Item")
	row.Set("Amount (BOQ)", boq)
	row.Set("SOR Amount", sor)
	row.Set("Match Found", true)
	return row
}

func TestClassifyUnmatched(t *testing.T) {
	t.Parallel()

	row := model.NewRow()
	row.Set("Description", "Orphan Item")
	row.Set("Amount (BOQ)", 5000.0)
	row.Set("SOR Amount", 4000.0)
	row.Set("Match Found", false)

	c := Classify(row, 0)

	// No match means no amount math, regardless of amounts being present.
	assert.Equal(t, OriginUnmatched, c.Origin)
	assert.Equal(t, model.HighlightErrorHigh, c.Highlight)
	assert.Equal(t, model.BucketErrors, c.Bucket())
}

func TestClassifyBackendCategoryWins(t *testing.T) {
	t.Parallel()

	// The amounts alone would classify as critical overrun; the backend
	// category must override them.
	row := makeRow(2000, 1000)
	row.Set("Deviation Category", "Moderate Overrun")

	c := Classify(row, 0)

	assert.Equal(t, OriginBackend, c.Origin)
	assert.Equal(t, model.CategoryModerateOverrun, c.Category)
	assert.Equal(t, model.HighlightWarningYellow, c.Highlight)
	assert.Equal(t, model.BucketModerate, c.Bucket())
}

func TestClassifyThresholds(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		boq       float64
		sor       float64
		highlight model.Highlight
		bucket    model.Bucket
	}{
		{name: "exact match", boq: 1000, sor: 1000, highlight: model.HighlightNormal, bucket: model.BucketExact},
		{name: "tiny deviation counts as exact", boq: 1000.00005, sor: 1000, highlight: model.HighlightNormal, bucket: model.BucketExact},
		{name: "moderate overrun", boq: 1100, sor: 1000, highlight: model.HighlightWarningYellow, bucket: model.BucketModerate},
		{name: "boundary 15 percent stays moderate", boq: 1150, sor: 1000, highlight: model.HighlightWarningYellow, bucket: model.BucketModerate},
		{name: "16 percent is critical", boq: 1160, sor: 1000, highlight: model.HighlightWarningOrange, bucket: model.BucketOverpriced},
		{name: "moderate saving", boq: 900, sor: 1000, highlight: model.HighlightWarningYellow, bucket: model.BucketModerate},
		{name: "deep saving", boq: 800, sor: 1000, highlight: model.HighlightSuccess, bucket: model.BucketSavings},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Classify(makeRow(tt.boq, tt.sor), 0)
			assert.Equal(t, OriginComputed, c.Origin)
			assert.Equal(t, tt.highlight, c.Highlight)
			assert.Equal(t, tt.bucket, c.Bucket())
		})
	}
}

func TestClassifyZeroReference(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		boq  float64
		sor  float64
	}{
		{name: "zero reference", boq: 1000, sor: 0},
		{name: "zero vendor amount", boq: 0, sor: 1000},
		{name: "negative reference", boq: 1000, sor: -5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := Classify(makeRow(tt.boq, tt.sor), 0)
			// Matched rows with nothing to compare are normal, never errors.
			assert.Equal(t, OriginNone, c.Origin)
			assert.Equal(t, model.HighlightNormal, c.Highlight)
			assert.Equal(t, model.BucketExact, c.Bucket())
		})
	}
}

func TestClassifyStringAmounts(t *testing.T) {
	t.Parallel()

	row := model.NewRow()
	row.Set("Amount (BOQ)", "1,200")
	row.Set("SOR Amount", "1000")
	row.Set("Match Found", true)

	c := Classify(row, 0)

	assert.Equal(t, OriginComputed, c.Origin)
	assert.Equal(t, model.HighlightWarningOrange, c.Highlight)
	assert.InDelta(t, 20.0, c.AmountDiffPercent, 0.001)
}

func TestClassifyBackendDeviationFieldsPassThrough(t *testing.T) {
	t.Parallel()

	row := makeRow(1200, 1000)
	row.Set("Amount Deviation", 250.0)
	row.Set("Amount Deviation (%)", 25.0)

	c := Classify(row, 0)

	// Backend figures win over locally recomputed ones.
	assert.Equal(t, 250.0, c.AmountDiff)
	assert.Equal(t, 25.0, c.AmountDiffPercent)
}

func TestClassifyComputesDeviationWhenBackendSilent(t *testing.T) {
	t.Parallel()

	c := Classify(makeRow(1200, 1000), 0)

	assert.InDelta(t, 200.0, c.AmountDiff, 0.001)
	assert.InDelta(t, 20.0, c.AmountDiffPercent, 0.001)
}

func TestBOQAmountKeyHeuristic(t *testing.T) {
	t.Parallel()

	row := model.NewRow()
	row.Set("S.No", 1.0)
	row.Set("Amount Deviation (%)", 5.0)
	row.Set("Total Amount", 900.0)
	row.Set("SOR Amount", 800.0)
	row.Set("Amount.1", 700.0)

	// Deviation and reference columns are excluded; the first remaining
	// amount-ish column wins.
	assert.Equal(t, "Total Amount", boqAmountKey(row))
}

func TestSORAmountPrefersCanonicalColumn(t *testing.T) {
	t.Parallel()

	row := model.NewRow()
	row.Set("SOR Amount", 800.0)
	row.Set("Amount.1", 700.0)
	assert.Equal(t, 800.0, sorAmount(row))

	alt := model.NewRow()
	alt.Set("Amount.1", 700.0)
	assert.Equal(t, 700.0, sorAmount(alt))
}

func TestRowID(t *testing.T) {
	t.Parallel()

	row := model.NewRow()
	row.Set("_id", "abc-123")
	assert.Equal(t, "abc-123", Classify(row, 7).ID)

	anon := model.NewRow()
	assert.Equal(t, "row-7", Classify(anon, 7).ID)
}
