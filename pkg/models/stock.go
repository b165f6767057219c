// Package models defines the core data structures shared by the valuation
// engine, the market-data source and the web front end.
package models

import "time"

// Field names of the fundamentals payload returned by the market-data source.
const (
	FieldCurrentPrice        = "currentPrice"
	FieldTrailingPE          = "trailingPE"
	FieldPriceToBook         = "priceToBook"
	FieldTrailingEPS         = "trailingEps"
	FieldEarningsGrowth      = "earningsGrowth"
	FieldBeta                = "beta"
	FieldShortPercentOfFloat = "shortPercentOfFloat"
	FieldHeldPercentInst     = "heldPercentInstitutions"
	FieldTargetHighPrice     = "targetHighPrice"
	FieldTargetLowPrice      = "targetLowPrice"
	FieldTargetMeanPrice     = "targetMeanPrice"
)

// FundamentalFields lists every documented payload field.
var FundamentalFields = []string{
	FieldCurrentPrice,
	FieldTrailingPE,
	FieldPriceToBook,
	FieldTrailingEPS,
	FieldEarningsGrowth,
	FieldBeta,
	FieldShortPercentOfFloat,
	FieldHeldPercentInst,
	FieldTargetHighPrice,
	FieldTargetLowPrice,
	FieldTargetMeanPrice,
}

// RawPayload is the fundamentals payload as delivered by the market-data
// source: documented field names mapped to numbers, numeric strings or nil.
type RawPayload map[string]any

// PriceBar represents a single daily bar of price data.
type PriceBar struct {
	Date  time.Time `json:"date"   yaml:"date"`
	Open  float64   `json:"open"   yaml:"open"`
	High  float64   `json:"high"   yaml:"high"`
	Low   float64   `json:"low"    yaml:"low"`
	Close float64   `json:"close"  yaml:"close"`
}

// StockMetrics is the canonical, normalised view of one ticker.
// Fractions (short interest, institutional ownership) stay in [0, 1].
type StockMetrics struct {
	Ticker              string `json:"ticker"               yaml:"ticker"`
	CurrentPrice        Number `json:"current_price"        yaml:"current_price"`
	PERatio             Number `json:"pe_ratio"             yaml:"pe_ratio"`
	PBRatio             Number `json:"pb_ratio"             yaml:"pb_ratio"`
	EPS                 Number `json:"eps"                  yaml:"eps"`
	GrowthRate          Number `json:"growth_rate"          yaml:"growth_rate"`
	Beta                Number `json:"beta"                 yaml:"beta"`
	ShortInterest       Number `json:"short_interest"       yaml:"short_interest"`
	InstitutionalShares Number `json:"institutional_shares" yaml:"institutional_shares"`
	TargetLow           Number `json:"target_low"           yaml:"target_low"`
	TargetMean          Number `json:"target_mean"          yaml:"target_mean"`
	TargetHigh          Number `json:"target_high"          yaml:"target_high"`
	ExpectedReturn      Number `json:"expected_return"      yaml:"expected_return"` // annualised
	Risk                Number `json:"risk"                 yaml:"risk"`            // annualised volatility
}

// Valid reports whether the record can be valued. A record without a
// current price is invalid for valuation and recommendation.
func (m StockMetrics) Valid() bool {
	return m.Ticker != "" && m.CurrentPrice.IsKnown()
}

// Closes extracts closing prices from bars, preserving order.
func Closes(bars []PriceBar) []float64 {
	closes := make([]float64, len(bars))
	for i, b := range bars {
		closes[i] = b.Close
	}
	return closes
}
