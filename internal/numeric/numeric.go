// Package numeric is the sole gateway for turning spreadsheet-derived cell
// values into numbers. Upstream data is unvalidated, so parsing never fails:
// anything unparseable degrades to zero.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Parse normalizes a heterogeneous cell value to a finite float64.
// Numbers pass through unchanged; strings have thousands-separator commas
// stripped and are then parsed as a decimal prefix; booleans, nils, and
// every other type yield 0.
func Parse(v any) float64 {
	switch x := v.(type) {
	case float64:
		return finite(x)
	case float32:
		return finite(float64(x))
	case int:
		return float64(x)
	case int32:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		return parsePrefix(strings.ReplaceAll(x, ",", ""))
	}
	return 0
}

// parsePrefix parses the longest leading decimal number of s, so values like
// "15%" or "12.5 Cr" still yield their numeric part. Returns 0 when s has no
// numeric prefix.
func parsePrefix(s string) float64 {
	s = strings.TrimSpace(s)
	end := 0
	seenDigit := false
	seenDot := false
	for i, r := range s {
		switch {
		case r == '+' || r == '-':
			if i != 0 {
				goto done
			}
		case r >= '0' && r <= '9':
			seenDigit = true
		case r == '.':
			if seenDot {
				goto done
			}
			seenDot = true
		default:
			goto done
		}
		end = i + 1
	}
done:
	if !seenDigit {
		return 0
	}
	f, err := strconv.ParseFloat(strings.TrimSuffix(s[:end], "."), 64)
	if err != nil {
		return 0
	}
	return finite(f)
}

func finite(f float64) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}
