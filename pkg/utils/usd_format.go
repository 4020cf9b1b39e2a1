// Package utils provides common formatting and normalization helpers.
package utils

import (
	"fmt"
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

var billion = decimal.NewFromInt(1_000_000_000)

// FormatUSD formats an amount with thousands separators ($1,234,567.89).
func FormatUSD(amount decimal.Decimal) string {
	negative := amount.IsNegative()
	s := amount.Abs().StringFixed(2)

	intPart, decPart, _ := strings.Cut(s, ".")
	formatted := groupThousands(intPart) + "." + decPart

	if negative {
		return "-$" + formatted
	}
	return "$" + formatted
}

// FormatUSDCompact formats an amount in short-scale notation.
// e.g., 1927345 → "$1.93M", 53823000000 → "$53.82B"
func FormatUSDCompact(amount decimal.Decimal) string {
	f, _ := amount.Float64()
	negative := f < 0
	f = math.Abs(f)

	prefix := "$"
	if negative {
		prefix = "-$"
	}

	switch {
	case f >= 1e12:
		return fmt.Sprintf("%s%sT", prefix, formatWithDecimals(f/1e12))
	case f >= 1e9:
		return fmt.Sprintf("%s%sB", prefix, formatWithDecimals(f/1e9))
	case f >= 1e6:
		return fmt.Sprintf("%s%sM", prefix, formatWithDecimals(f/1e6))
	case f >= 1e3:
		return fmt.Sprintf("%s%sK", prefix, formatWithDecimals(f/1e3))
	default:
		return fmt.Sprintf("%s%.2f", prefix, f)
	}
}

// ToBillions converts a USD amount to billions for charting.
func ToBillions(amount decimal.Decimal) float64 {
	f, _ := amount.Div(billion).Float64()
	return f
}

// FormatPct formats a fraction as a percentage with two decimals (0.1234 → "12.34%").
func FormatPct(fraction decimal.Decimal) string {
	return fraction.Shift(2).StringFixed(2) + "%"
}

// groupThousands inserts commas every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	var b strings.Builder
	lead := len(digits) % 3
	if lead > 0 {
		b.WriteString(digits[:lead])
	}
	for i := lead; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// formatWithDecimals drops trailing zeros: 1.50 → "1.5", 2.00 → "2".
func formatWithDecimals(n float64) string {
	s := fmt.Sprintf("%.2f", n)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
