// Package utils provides common utility functions: ticker handling,
// presentation formatting and market-time helpers.
package utils

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// NotAvailable is rendered in place of an unknown value.
const NotAvailable = "N/A"

// FormatUSD formats an amount as US dollars with thousands separators.
// e.g., 1234567.891 → "$1,234,567.89"
func FormatUSD(amount float64) string {
	negative := amount < 0
	if negative {
		amount = -amount
	}
	s := strconv.FormatFloat(amount, 'f', 2, 64)
	intPart, decPart, _ := strings.Cut(s, ".")
	out := "$" + groupThousands(intPart) + "." + decPart
	if negative {
		return "-" + out
	}
	return out
}

// FormatPct formats a percentage value with sign and suffix.
// e.g., 2.45 → "+2.45%", -1.23 → "-1.23%"
func FormatPct(pct float64) string {
	if pct >= 0 {
		return fmt.Sprintf("+%.2f%%", pct)
	}
	return fmt.Sprintf("%.2f%%", pct)
}

// OptionalUSD renders a known amount as dollars, unknown as "N/A".
func OptionalUSD(n models.Number) string {
	v, ok := n.Get()
	if !ok {
		return NotAvailable
	}
	return FormatUSD(v)
}

// OptionalNumber renders a known number with two decimals, unknown as "N/A".
func OptionalNumber(n models.Number) string {
	v, ok := n.Get()
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// OptionalFractionPct rescales a fraction (0.05) to a percent ("5.00%").
// Unknown renders as "N/A".
func OptionalFractionPct(n models.Number) string {
	v, ok := n.Get()
	if !ok {
		return NotAvailable
	}
	return strconv.FormatFloat(v*100, 'f', 2, 64) + "%"
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
