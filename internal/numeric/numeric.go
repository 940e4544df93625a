// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package numeric is the single place where engineering text is coerced
// to numbers and where missing values are rendered for display.
package numeric

import (
	"math"
	"strconv"
	"strings"
)

// Placeholder is shown wherever a statistic or value is unavailable.
const Placeholder = "-"

// ParseEngineeringNumber parses a number as typed by engineers. Surrounding
// whitespace is ignored and a comma is accepted as the decimal separator
// ("1,6" parses as 1.6). It returns ok=false for empty, malformed, NaN or
// infinite input; it never substitutes 0. Callers decide whether a failed
// parse means "missing" or "zero".
func ParseEngineeringNumber(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	s = strings.ReplaceAll(s, ",", ".")
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || !IsFinite(v) {
		return 0, false
	}
	return v, true
}

// IsFinite reports whether v is neither NaN nor an infinity.
func IsFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Ptr returns a pointer to a copy of v.
func Ptr(v float64) *float64 {
	return &v
}

// Format renders v with prec decimals, or Placeholder when v is nil.
func Format(v *float64, prec int) string {
	if v == nil {
		return Placeholder
	}
	return strconv.FormatFloat(*v, 'f', prec, 64)
}
