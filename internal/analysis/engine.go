// Package analysis assembles valuation reports from fetched fundamentals and
// price history. Everything here is a pure function of its inputs.
package analysis

import (
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/fundamental"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/recommendation"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/technical"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// EvaluateOptions tunes a single evaluation.
type EvaluateOptions struct {
	// DCF overrides the projection parameters; zero fields take defaults.
	DCF fundamental.DCFParams
	// Bars is passed through to the report and feeds the moving averages.
	Bars []models.PriceBar
	// Windows are the moving-average lengths; empty means {50}.
	Windows []int
}

// Normalize maps a raw fundamentals payload and price bars onto
// StockMetrics. Only malformed input returns an error.
func Normalize(ticker string, payload models.RawPayload, bars []models.PriceBar) (models.StockMetrics, error) {
	return fundamental.Normalize(ticker, payload, bars)
}

// ComputeIndicators derives expected return, risk and moving averages from
// an ascending bar series.
func ComputeIndicators(bars []models.PriceBar, windows []int) technical.Indicators {
	return technical.Compute(bars, windows)
}

// Evaluate values m and classifies it under strategy.
//
// A record without a current price short-circuits: the fair value is
// unknown, the verdict unavailable and the label INSUFFICIENT_DATA. A DCF
// failure leaves the fair value unknown with its reason in DCFError and the
// rest of the report intact.
func Evaluate(m models.StockMetrics, strategy string, opts EvaluateOptions) models.ValuationReport {
	r := models.ValuationReport{
		Metrics:        m,
		DCFFairValue:   models.Unknown[float64](),
		MarginOfSafety: models.Unknown[float64](),
		Verdict:        models.VerdictUnavailable,
		GrahamNumber:   models.Unknown[float64](),
		EarningsYield:  models.Unknown[float64](),
		MovingAverages: technical.MultiSMA(models.Closes(opts.Bars), opts.Windows),
		Prices:         opts.Bars,
	}
	if r.Prices == nil {
		r.Prices = []models.PriceBar{}
	}

	if !m.Valid() {
		r.Recommendation = recommendation.Insufficient(strategy)
		return r
	}

	fv, err := fundamental.DCF(m.EPS, m.GrowthRate, opts.DCF)
	if err != nil {
		r.DCFError = err.Error()
	}
	r.DCFFairValue = fv
	r.MarginOfSafety = fundamental.MarginOfSafety(fv, m.CurrentPrice)
	r.Verdict = fundamental.DCFVerdict(fv, m.CurrentPrice)
	r.GrahamNumber = fundamental.GrahamNumber(m.EPS, m.CurrentPrice, m.PBRatio)
	r.EarningsYield = fundamental.EarningsYield(m.EPS, m.CurrentPrice)
	r.Recommendation = recommendation.Classify(m, strategy)
	return r
}

// Run normalizes the raw inputs and evaluates the result. The bars given
// here replace opts.Bars; bars without a usable close are dropped from the
// report's prices and moving averages.
func Run(ticker string, payload models.RawPayload, bars []models.PriceBar, strategy string, opts EvaluateOptions) (models.ValuationReport, error) {
	m, err := Normalize(ticker, payload, bars)
	if err != nil {
		return models.ValuationReport{}, err
	}
	opts.Bars = fundamental.UsableBars(bars)
	return Evaluate(m, strategy, opts), nil
}
