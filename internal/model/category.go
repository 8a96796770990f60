package model

// DeviationCategory is the backend-authoritative per-row classification.
// When a row carries one it is the source of truth; the percentage-threshold
// fallback only runs for rows without a category.
type DeviationCategory string

const (
	CategoryCriticalOverrun    DeviationCategory = "Critical Overrun"
	CategoryHighSavingsRisk    DeviationCategory = "High Savings / Risk"
	CategoryHighSavings        DeviationCategory = "High Savings"
	CategoryModerateOverrun    DeviationCategory = "Moderate Overrun"
	CategoryModerateSavings    DeviationCategory = "Moderate Savings"
	CategoryReferenceMissing   DeviationCategory = "Reference Missing"
	CategoryVendorPriceMissing DeviationCategory = "Vendor Price Missing"
	CategoryCalculationError   DeviationCategory = "Calculation Error"
)

// Highlight is the visual classification a row renders with. It drives the
// grid's row styling and the category filters.
type Highlight string

const (
	HighlightErrorHigh     Highlight = "error-high"     // no SOR match / reference missing
	HighlightErrorLow      Highlight = "error-low"      // calculation error
	HighlightWarningOrange Highlight = "warning-orange" // critical overrun (>15%)
	HighlightWarningYellow Highlight = "warning-yellow" // moderate overrun
	HighlightSuccess       Highlight = "success"        // savings, moderate or high
	HighlightNormal        Highlight = "normal"         // balanced / nothing to compare
)

// Bucket is the KPI counting bucket a row contributes to. The mapping from
// highlight to bucket is not 1:1: Moderate Savings counts as moderate but
// renders as success.
type Bucket string

const (
	BucketExact      Bucket = "exact"
	BucketModerate   Bucket = "moderate"
	BucketOverpriced Bucket = "overpriced"
	BucketSavings    Bucket = "savings"
	BucketErrors     Bucket = "errors"
)

// categoryHighlights maps each backend category to its render highlight.
var categoryHighlights = map[DeviationCategory]Highlight{
	CategoryCriticalOverrun:    HighlightWarningOrange,
	CategoryHighSavingsRisk:    HighlightSuccess,
	CategoryHighSavings:        HighlightSuccess,
	CategoryModerateOverrun:    HighlightWarningYellow,
	CategoryModerateSavings:    HighlightSuccess,
	CategoryReferenceMissing:   HighlightErrorHigh,
	CategoryVendorPriceMissing: HighlightErrorHigh,
	CategoryCalculationError:   HighlightErrorLow,
}

// categoryBuckets maps each backend category to its KPI bucket. Moderate
// overruns and moderate savings are grouped.
var categoryBuckets = map[DeviationCategory]Bucket{
	CategoryCriticalOverrun:    BucketOverpriced,
	CategoryHighSavingsRisk:    BucketSavings,
	CategoryHighSavings:        BucketSavings,
	CategoryModerateOverrun:    BucketModerate,
	CategoryModerateSavings:    BucketModerate,
	CategoryReferenceMissing:   BucketErrors,
	CategoryVendorPriceMissing: BucketErrors,
	CategoryCalculationError:   BucketErrors,
}

// HighlightFor returns the render highlight for a backend category. Any
// unrecognized non-empty category renders as normal.
func (c DeviationCategory) HighlightFor() Highlight {
	if h, ok := categoryHighlights[c]; ok {
		return h
	}
	return HighlightNormal
}

// BucketFor returns the KPI bucket for a backend category. Any unrecognized
// non-empty category counts as exact (neutral / balanced).
func (c DeviationCategory) BucketFor() Bucket {
	if b, ok := categoryBuckets[c]; ok {
		return b
	}
	return BucketExact
}
