package grid

import (
	"math"
	"strings"

	"github.com/sells-group/boq-console/internal/model"
	"github.com/sells-group/boq-console/internal/numeric"
)

// FormatCell renders a cell value for display: "-" for missing values,
// glyphs for booleans, en-IN grouped numbers with whole quantities kept
// integral.
func FormatCell(v any, column string) string {
	switch x := v.(type) {
	case nil:
		return "-"
	case bool:
		if x {
			return model.MatchGlyph
		}
		return "✗"
	case float64:
		lower := strings.ToLower(column)
		isQty := strings.Contains(lower, "qty") || strings.Contains(lower, "quantity")
		if isQty && x == math.Trunc(x) {
			return numeric.FormatGrouped(x, 0)
		}
		return numeric.FormatGrouped(x, 2)
	}
	return model.CellString(v)
}
