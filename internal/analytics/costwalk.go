package analytics

// WalkTone tags a cost-walk bar with its rendering semantics.
type WalkTone string

const (
	ToneNeutral   WalkTone = "neutral"   // reference total
	ToneWarning   WalkTone = "warning"   // positive variance: overrun
	ToneFavorable WalkTone = "favorable" // negative variance: savings
	ToneQuoted    WalkTone = "quoted"    // vendor total
)

// WalkEntry is one bar of the estimate cost-walk bridge.
type WalkEntry struct {
	Label string   `json:"label"`
	Value float64  `json:"value"`
	Tone  WalkTone `json:"tone"`
}

// BuildCostWalk reduces classified rows into the three-bar bridge: reference
// total, signed variance, quoted total. Amounts are located with the same
// heuristics the classifier uses.
func BuildCostWalk(rows []Classified) []WalkEntry {
	var sorTotal, boqTotal float64
	for _, c := range rows {
		sorTotal += sorAmount(c.Row)
		boqTotal += boqAmount(c.Row)
	}

	variance := boqTotal - sorTotal
	tone := ToneFavorable
	if variance > 0 {
		tone = ToneWarning
	}

	return []WalkEntry{
		{Label: "Estimated (SOR)", Value: sorTotal, Tone: ToneNeutral},
		{Label: "Variance", Value: variance, Tone: tone},
		{Label: "Quoted (Vendor)", Value: boqTotal, Tone: ToneQuoted},
	}
}
