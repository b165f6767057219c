// Package fundamental turns a raw fundamentals payload into canonical
// StockMetrics and values the stock with a discounted-cash-flow projection.
package fundamental

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/technical"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// StructuralError reports input whose shape is wrong, as opposed to values
// that are merely missing. It is the only hard failure of Normalize.
type StructuralError struct {
	Field  string
	Reason string
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("malformed input: %s: %s", e.Field, e.Reason)
}

// Normalize maps a fundamentals payload and a daily price series onto
// StockMetrics. Missing, null, non-numeric or non-finite fields become
// unknown; fractions outside [0, 1] become unknown. Bars must be strictly
// ascending by date; bars whose close is not a positive finite number are
// left out of the return statistics.
func Normalize(ticker string, payload models.RawPayload, bars []models.PriceBar) (models.StockMetrics, error) {
	symbol := utils.NormalizeTicker(ticker)
	if symbol == "" {
		return models.StockMetrics{}, &StructuralError{Field: "ticker", Reason: "empty"}
	}
	if err := checkBars(bars); err != nil {
		return models.StockMetrics{}, err
	}

	m := models.StockMetrics{Ticker: symbol}
	fields := []struct {
		key      string
		dst      *models.Number
		fraction bool
	}{
		{models.FieldCurrentPrice, &m.CurrentPrice, false},
		{models.FieldTrailingPE, &m.PERatio, false},
		{models.FieldPriceToBook, &m.PBRatio, false},
		{models.FieldTrailingEPS, &m.EPS, false},
		{models.FieldEarningsGrowth, &m.GrowthRate, false},
		{models.FieldBeta, &m.Beta, false},
		{models.FieldShortPercentOfFloat, &m.ShortInterest, true},
		{models.FieldHeldPercentInst, &m.InstitutionalShares, true},
		{models.FieldTargetLowPrice, &m.TargetLow, false},
		{models.FieldTargetMeanPrice, &m.TargetMean, false},
		{models.FieldTargetHighPrice, &m.TargetHigh, false},
	}
	for _, f := range fields {
		n, err := toNumber(f.key, payload[f.key])
		if err != nil {
			return models.StockMetrics{}, err
		}
		if f.fraction {
			n = inUnitInterval(n)
		}
		*f.dst = n
	}

	// A zero or negative quote is a provider placeholder, not a price.
	if p, ok := m.CurrentPrice.Get(); ok && p <= 0 {
		m.CurrentPrice = models.Unknown[float64]()
	}

	returns := technical.DailyReturns(models.Closes(UsableBars(bars)))
	m.ExpectedReturn = technical.ExpectedReturn(returns)
	m.Risk = technical.Risk(returns)

	return m, nil
}

// toNumber converts one payload cell. Numbers and numeric strings are
// accepted; nil and unparseable strings are unknown; any other shape is a
// StructuralError.
func toNumber(field string, v any) (models.Number, error) {
	switch x := v.(type) {
	case nil:
		return models.Unknown[float64](), nil
	case float64:
		return models.Finite(x), nil
	case float32:
		return models.Finite(float64(x)), nil
	case int:
		return models.Some(float64(x)), nil
	case int32:
		return models.Some(float64(x)), nil
	case int64:
		return models.Some(float64(x)), nil
	case json.Number:
		f, err := x.Float64()
		if err != nil {
			return models.Unknown[float64](), nil
		}
		return models.Finite(f), nil
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return models.Unknown[float64](), nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return models.Unknown[float64](), nil
		}
		return models.Finite(f), nil
	default:
		return models.Unknown[float64](), &StructuralError{
			Field:  field,
			Reason: fmt.Sprintf("unsupported value type %T", v),
		}
	}
}

func inUnitInterval(n models.Number) models.Number {
	v, ok := n.Get()
	if !ok || v < 0 || v > 1 {
		return models.Unknown[float64]()
	}
	return n
}

func checkBars(bars []models.PriceBar) error {
	for i := 1; i < len(bars); i++ {
		if !bars[i].Date.After(bars[i-1].Date) {
			return &StructuralError{
				Field:  fmt.Sprintf("bars[%d].date", i),
				Reason: "bars must be strictly ascending by date",
			}
		}
	}
	return nil
}

// UsableBars returns the bars whose close is a positive finite number.
// A zero or missing quote is a provider gap, not a price; it is dropped
// rather than failing the evaluation.
func UsableBars(bars []models.PriceBar) []models.PriceBar {
	for i, b := range bars {
		if !usableClose(b.Close) {
			out := append(make([]models.PriceBar, 0, len(bars)-1), bars[:i]...)
			for _, b := range bars[i+1:] {
				if usableClose(b.Close) {
					out = append(out, b)
				}
			}
			return out
		}
	}
	return bars
}

func usableClose(c float64) bool {
	return c > 0 && !math.IsNaN(c) && !math.IsInf(c, 0)
}
