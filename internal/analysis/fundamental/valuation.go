package fundamental

import (
	"errors"
	"fmt"
	"math"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// Defaults applied to zero-valued DCFParams fields.
const (
	DefaultDiscountRate = 0.10
	DefaultYears        = 10
)

// Verdict bands around the current price.
const (
	undervaluedAbove = 1.2
	overvaluedBelow  = 0.8
)

var (
	// ErrNonConvergent is returned when the discount rate equals the growth
	// rate and the terminal value divides by zero.
	ErrNonConvergent = errors.New("non-convergent terminal value")
	// ErrUnreliableGrowth is returned when growth exceeds the discount rate
	// and the perpetuity formula no longer produces a meaningful value.
	ErrUnreliableGrowth = errors.New("growth rate exceeds discount rate, terminal value unreliable")
	// ErrInvalidParams is returned for a negative discount rate or horizon.
	ErrInvalidParams = errors.New("invalid dcf parameters")
)

// ValuationError describes why a DCF fair value could not be produced.
type ValuationError struct {
	DiscountRate float64
	GrowthRate   float64
	Err          error
}

func (e *ValuationError) Error() string {
	return fmt.Sprintf("dcf: %v (discount_rate=%.4f, growth_rate=%.4f)", e.Err, e.DiscountRate, e.GrowthRate)
}

func (e *ValuationError) Unwrap() error { return e.Err }

// DCFParams holds the projection parameters for a DCF valuation.
// Zero fields take DefaultDiscountRate and DefaultYears.
type DCFParams struct {
	DiscountRate float64 `json:"discount_rate" yaml:"discount_rate"`
	Years        int     `json:"years"         yaml:"years"`
}

// WithDefaults fills zero fields with the package defaults. Zero means
// "not set": a zero discount rate is never used as a rate, so callers that
// accept user input must reject it before it gets here.
func (p DCFParams) WithDefaults() DCFParams {
	if p.DiscountRate == 0 {
		p.DiscountRate = DefaultDiscountRate
	}
	if p.Years == 0 {
		p.Years = DefaultYears
	}
	return p
}

// DCF projects eps growing at growth for p.Years years, discounts each year
// at p.DiscountRate and adds a perpetuity-growth terminal value computed from
// the last projected cash flow.
//
// Unknown or non-positive eps, or unknown growth, yield an unknown value with
// no error. discount == growth yields ErrNonConvergent and growth > discount
// yields ErrUnreliableGrowth, both wrapped in a *ValuationError with an
// unknown value.
func DCF(eps, growth models.Number, p DCFParams) (models.Number, error) {
	p = p.WithDefaults()
	e, ok := eps.Get()
	if !ok || e <= 0 {
		return models.Unknown[float64](), nil
	}
	g, ok := growth.Get()
	if !ok {
		return models.Unknown[float64](), nil
	}

	r := p.DiscountRate
	verr := func(err error) (models.Number, error) {
		return models.Unknown[float64](), &ValuationError{DiscountRate: r, GrowthRate: g, Err: err}
	}
	switch {
	case r < 0 || p.Years < 0:
		return verr(ErrInvalidParams)
	case math.Abs(r-g) < 1e-12:
		return verr(ErrNonConvergent)
	case g > r, g <= -1:
		return verr(ErrUnreliableGrowth)
	}

	var total, cashflow float64
	for i := 1; i <= p.Years; i++ {
		cashflow = e * math.Pow(1+g, float64(i)) / math.Pow(1+r, float64(i))
		total += cashflow
	}
	terminal := cashflow * (1 + g) / (r - g)

	return models.Finite(total + terminal), nil
}

// MarginOfSafety is (fairValue - price) / fairValue, as a fraction.
// Unknown when either input is unknown or fairValue is not positive.
func MarginOfSafety(fairValue, price models.Number) models.Number {
	fv, ok := fairValue.Get()
	if !ok || fv <= 0 {
		return models.Unknown[float64]()
	}
	p, ok := price.Get()
	if !ok {
		return models.Unknown[float64]()
	}
	return models.Finite((fv - p) / fv)
}

// DCFVerdict compares a fair value with the current price: more than 20%
// above is undervalued, more than 20% below is overvalued.
func DCFVerdict(fairValue, price models.Number) models.Verdict {
	fv, ok := fairValue.Get()
	if !ok {
		return models.VerdictUnavailable
	}
	p, ok := price.Get()
	if !ok {
		return models.VerdictUnavailable
	}
	switch {
	case fv > p*undervaluedAbove:
		return models.VerdictUndervalued
	case fv < p*overvaluedBelow:
		return models.VerdictOvervalued
	default:
		return models.VerdictFairlyValued
	}
}

// GrahamNumber computes the classic Benjamin Graham intrinsic value.
// Graham Number = sqrt(22.5 × EPS × Book Value per Share), with book value
// per share derived as price / price-to-book.
func GrahamNumber(eps, price, priceToBook models.Number) models.Number {
	e, ok := eps.Get()
	if !ok || e <= 0 {
		return models.Unknown[float64]()
	}
	p, ok := price.Get()
	if !ok {
		return models.Unknown[float64]()
	}
	pb, ok := priceToBook.Get()
	if !ok || pb <= 0 {
		return models.Unknown[float64]()
	}
	bookValue := p / pb
	if bookValue <= 0 {
		return models.Unknown[float64]()
	}
	return models.Finite(math.Sqrt(22.5 * e * bookValue))
}

// EarningsYield is EPS / price as a fraction (inverse of PE).
func EarningsYield(eps, price models.Number) models.Number {
	e, ok := eps.Get()
	if !ok {
		return models.Unknown[float64]()
	}
	p, ok := price.Get()
	if !ok || p <= 0 {
		return models.Unknown[float64]()
	}
	return models.Finite(e / p)
}
