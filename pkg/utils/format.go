// Package utils provides common formatting helpers for tierscreen.
package utils

import (
	"strings"

	"github.com/shopspring/decimal"
)

var (
	thousand = decimal.NewFromInt(1_000)
	million  = decimal.NewFromInt(1_000_000)
	billion  = decimal.NewFromInt(1_000_000_000)
	trillion = decimal.NewFromInt(1_000_000_000_000)
)

// FormatUSD formats an amount in US dollar format ($1,234,567.89).
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

// FormatUSDCompact formats an amount with a magnitude suffix.
// e.g., 1500000 → "$1.5M", 2300000000 → "$2.3B"
func FormatUSDCompact(amount decimal.Decimal) string {
	prefix := "$"
	if amount.IsNegative() {
		prefix = "-$"
	}
	abs := amount.Abs()

	switch {
	case abs.GreaterThanOrEqual(trillion):
		return prefix + trimDecimals(abs.Div(trillion)) + "T"
	case abs.GreaterThanOrEqual(billion):
		return prefix + trimDecimals(abs.Div(billion)) + "B"
	case abs.GreaterThanOrEqual(million):
		return prefix + trimDecimals(abs.Div(million)) + "M"
	case abs.GreaterThanOrEqual(thousand):
		return prefix + trimDecimals(abs.Div(thousand)) + "K"
	default:
		return prefix + abs.StringFixed(2)
	}
}

// groupThousands inserts a comma every three digits from the right.
func groupThousands(digits string) string {
	if len(digits) <= 3 {
		return digits
	}

	var b strings.Builder
	head := len(digits) % 3
	if head > 0 {
		b.WriteString(digits[:head])
	}
	for i := head; i < len(digits); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(digits[i : i+3])
	}
	return b.String()
}

// trimDecimals renders up to 2 decimal places, removing trailing zeros.
func trimDecimals(n decimal.Decimal) string {
	s := n.StringFixed(2)
	s = strings.TrimRight(s, "0")
	s = strings.TrimRight(s, ".")
	return s
}
