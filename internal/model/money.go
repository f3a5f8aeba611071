package model

import (
	"math"
	"strconv"
)

// ParseCents converts decimal string amounts (dollars) to cents (int64).
// The shipping estimator returns rate prices in major units ("10.00").
// Examples: "99.00" → 9900, "1234.56" → 123456, "" → 0
func ParseCents(s string) int64 {
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	// math.Round handles both positive and negative numbers correctly
	return int64(math.Round(f * 100))
}

// FormatCents renders minor units as a fixed two-decimal string.
// Integer arithmetic keeps the result exact for any int64 amount.
// Examples: 1250 → "12.50", 5 → "0.05", -199 → "-1.99"
func FormatCents(cents int64) string {
	sign := ""
	if cents < 0 {
		sign = "-"
		cents = -cents
	}
	major := cents / 100
	minor := cents % 100
	tail := strconv.FormatInt(minor, 10)
	if minor < 10 {
		tail = "0" + tail
	}
	return sign + strconv.FormatInt(major, 10) + "." + tail
}
