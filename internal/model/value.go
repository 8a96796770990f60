package model

import (
	"fmt"
	"strconv"
)

// CellString renders a cell value as plain text, without locale formatting.
// Floats print without a trailing ".0" so JSON-decoded numbers round-trip
// the way they were written.
func CellString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		if x {
			return "true"
		}
		return "false"
	}
	return fmt.Sprintf("%v", v)
}
