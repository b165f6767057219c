package utils

import (
	"regexp"
	"strings"
)

// tickerPattern matches Yahoo Finance style symbols: BRK-B, RDS.A, ^GSPC, EURUSD=X.
var tickerPattern = regexp.MustCompile(`^\^?[A-Z0-9][A-Z0-9.\-=]{0,11}$`)

// NormalizeTicker normalizes user input to an uppercased symbol.
// It trims whitespace and a leading "$" (common in chat and forms).
func NormalizeTicker(ticker string) string {
	ticker = strings.TrimSpace(strings.ToUpper(ticker))
	ticker = strings.TrimPrefix(ticker, "$")
	return strings.TrimSpace(ticker)
}

// IsValidTicker reports whether the normalized ticker looks like a symbol
// the market-data source can resolve.
func IsValidTicker(ticker string) bool {
	return tickerPattern.MatchString(NormalizeTicker(ticker))
}

// SplitTickers parses a comma or whitespace separated list of tickers,
// normalizing and de-duplicating while keeping first-seen order.
func SplitTickers(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n'
	})
	seen := make(map[string]bool, len(fields))
	out := make([]string, 0, len(fields))
	for _, f := range fields {
		t := NormalizeTicker(f)
		if t == "" || seen[t] {
			continue
		}
		seen[t] = true
		out = append(out, t)
	}
	return out
}
