package numeric

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// inr prints numbers with Indian digit grouping (12,34,567).
var inr = message.NewPrinter(language.MustParse("en-IN"))

// FormatINR renders an amount as rupees with en-IN grouping and no decimals,
// e.g. 2400000 -> "₹24,00,000".
func FormatINR(v float64) string {
	return inr.Sprintf("₹%v", number.Decimal(v, number.MaxFractionDigits(0)))
}

// FormatGrouped renders a number with en-IN grouping and a fixed number of
// fraction digits.
func FormatGrouped(v float64, fractionDigits int) string {
	return inr.Sprintf("%v", number.Decimal(v,
		number.MinFractionDigits(fractionDigits),
		number.MaxFractionDigits(fractionDigits),
	))
}
