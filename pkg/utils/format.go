package utils

import (
	"fmt"
	"math"
	"strings"
)

// FormatPercent renders a fraction as a percentage with two decimals,
// e.g. 0.0375 -> "3.75%".
func FormatPercent(v float64) string {
	if math.IsNaN(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.2f%%", v*100)
}

// FormatCompact renders large magnitudes with K/M/B/T suffixes,
// e.g. 241552527407 -> "241.55B".
func FormatCompact(v float64) string {
	negative := v < 0
	abs := math.Abs(v)

	var s string
	switch {
	case abs >= 1e12:
		s = formatWithDecimals(abs/1e12) + "T"
	case abs >= 1e9:
		s = formatWithDecimals(abs/1e9) + "B"
	case abs >= 1e6:
		s = formatWithDecimals(abs/1e6) + "M"
	case abs >= 1e3:
		s = formatWithDecimals(abs/1e3) + "K"
	default:
		s = formatWithDecimals(abs)
	}

	if negative {
		return "-" + s
	}
	return s
}

// formatWithDecimals prints up to two decimals, trimming trailing zeros.
func formatWithDecimals(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
