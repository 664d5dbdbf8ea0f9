package core

import (
	"math"
	"strconv"
	"strings"
)

// CleanString trims all leading and trailing whitespace in `s` and optionally lowers it.
func CleanString(s string, lower ...bool) string {
	s = strings.TrimSpace(s)
	if len(lower) > 0 && lower[0] {
		return strings.ToLower(s)
	}
	return s
}

// ParseScore parses a score typed in a form. A comma is accepted as decimal separator.
func ParseScore(s string) (float64, error) {
	f, err := strconv.ParseFloat(strings.Replace(CleanString(s), ",", ".", 1), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, strconv.ErrSyntax
	}
	return f, nil
}
