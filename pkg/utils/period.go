// Package utils provides common utility functions for OptiFolio.
package utils

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var periodPattern = regexp.MustCompile(`^(\d+)(d|wk|mo|y)$`)

// ParsePeriod resolves a Yahoo-style period string ("5d", "2wk", "3mo",
// "1y", "ytd", "max") into the start date it denotes relative to now.
func ParsePeriod(period string, now time.Time) (time.Time, error) {
	p := strings.ToLower(strings.TrimSpace(period))

	switch p {
	case "ytd":
		return time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, now.Location()), nil
	case "max":
		// Instrument inception is unknown up front; the epoch asks the
		// provider for everything it has.
		return time.Unix(0, 0).UTC(), nil
	}

	m := periodPattern.FindStringSubmatch(p)
	if m == nil {
		return time.Time{}, fmt.Errorf("invalid period %q (want e.g. %q, %q, %q, %q or %q)",
			period, "5d", "3mo", "1y", "ytd", "max")
	}

	n, err := strconv.Atoi(m[1])
	if err != nil || n == 0 {
		return time.Time{}, fmt.Errorf("invalid period %q: count must be a positive integer", period)
	}

	switch m[2] {
	case "d":
		return now.AddDate(0, 0, -n), nil
	case "wk":
		return now.AddDate(0, 0, -7*n), nil
	case "mo":
		return now.AddDate(0, -n, 0), nil
	default: // "y"
		return now.AddDate(-n, 0, 0), nil
	}
}

// ValidPeriod reports whether ParsePeriod would accept the string.
func ValidPeriod(period string) bool {
	_, err := ParsePeriod(period, time.Now())
	return err == nil
}
