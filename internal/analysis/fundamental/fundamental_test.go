package fundamental

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

func samplePayload() models.RawPayload {
	return models.RawPayload{
		models.FieldCurrentPrice:        90.0,
		models.FieldTrailingPE:          "22.5",
		models.FieldPriceToBook:         json.Number("3"),
		models.FieldTrailingEPS:         2,
		models.FieldEarningsGrowth:      0.05,
		models.FieldBeta:                0.9,
		models.FieldShortPercentOfFloat: 0.05,
		models.FieldHeldPercentInst:     0.62,
		models.FieldTargetLowPrice:      80.0,
		models.FieldTargetMeanPrice:     100.0,
		models.FieldTargetHighPrice:     120.0,
	}
}

func sampleBars(closes ...float64) []models.PriceBar {
	start := time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC)
	bars := make([]models.PriceBar, len(closes))
	for i, c := range closes {
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c, Low: c, Close: c}
	}
	return bars
}

func mustGet(t *testing.T, n models.Number) float64 {
	t.Helper()
	v, ok := n.Get()
	require.True(t, ok, "expected a known value")
	return v
}

// ── Normalize ──

func TestNormalizeFullPayload(t *testing.T) {
	m, err := Normalize(" aapl ", samplePayload(), sampleBars(100, 102, 101, 105, 107))
	require.NoError(t, err)

	assert.Equal(t, "AAPL", m.Ticker)
	assert.True(t, m.Valid())
	assert.Equal(t, 90.0, mustGet(t, m.CurrentPrice))
	assert.Equal(t, 22.5, mustGet(t, m.PERatio))
	assert.Equal(t, 3.0, mustGet(t, m.PBRatio))
	assert.Equal(t, 2.0, mustGet(t, m.EPS))
	assert.Equal(t, 0.05, mustGet(t, m.ShortInterest))
	assert.Equal(t, 0.62, mustGet(t, m.InstitutionalShares))
	assert.Equal(t, 120.0, mustGet(t, m.TargetHigh))
	assert.InDelta(t, 4.337402446126967, mustGet(t, m.ExpectedReturn), 1e-9)
	assert.InDelta(t, 0.32305076595862675, mustGet(t, m.Risk), 1e-9)
}

func TestNormalizeMissingFieldsAreUnknown(t *testing.T) {
	m, err := Normalize("MSFT", models.RawPayload{
		models.FieldCurrentPrice: 300.0,
		models.FieldBeta:         nil,
		models.FieldTrailingPE:   "N/A",
		models.FieldTrailingEPS:  math.NaN(),
	}, nil)
	require.NoError(t, err)

	assert.True(t, m.Valid())
	for name, n := range map[string]models.Number{
		"beta":            m.Beta,
		"pe_ratio":        m.PERatio,
		"eps":             m.EPS,
		"growth_rate":     m.GrowthRate,
		"target_mean":     m.TargetMean,
		"expected_return": m.ExpectedReturn,
		"risk":            m.Risk,
	} {
		assert.False(t, n.IsKnown(), "%s should be unknown, not zero", name)
	}
}

func TestNormalizeNilPayload(t *testing.T) {
	m, err := Normalize("IBM", nil, nil)
	require.NoError(t, err)
	assert.False(t, m.Valid(), "no current price makes the record invalid")
}

func TestNormalizeFractionsOutOfRange(t *testing.T) {
	p := samplePayload()
	p[models.FieldShortPercentOfFloat] = 5.0 // a percentage, not a fraction
	p[models.FieldHeldPercentInst] = -0.1

	m, err := Normalize("AAPL", p, nil)
	require.NoError(t, err)
	assert.False(t, m.ShortInterest.IsKnown())
	assert.False(t, m.InstitutionalShares.IsKnown())
}

func TestNormalizeNonPositivePriceIsUnknown(t *testing.T) {
	p := samplePayload()
	p[models.FieldCurrentPrice] = 0.0

	m, err := Normalize("AAPL", p, nil)
	require.NoError(t, err)
	assert.False(t, m.CurrentPrice.IsKnown())
	assert.False(t, m.Valid())
}

func TestNormalizeStructuralErrors(t *testing.T) {
	tests := []struct {
		name    string
		ticker  string
		payload models.RawPayload
		bars    []models.PriceBar
		field   string
	}{
		{"empty ticker", "  ", samplePayload(), nil, "ticker"},
		{"nested object", "AAPL", models.RawPayload{models.FieldBeta: map[string]any{"raw": 1.2}}, nil, models.FieldBeta},
		{"list value", "AAPL", models.RawPayload{models.FieldTrailingEPS: []float64{1}}, nil, models.FieldTrailingEPS},
		{"bool value", "AAPL", models.RawPayload{models.FieldCurrentPrice: true}, nil, models.FieldCurrentPrice},
		{"descending bars", "AAPL", nil, []models.PriceBar{
			{Date: time.Date(2025, 1, 3, 0, 0, 0, 0, time.UTC), Close: 10},
			{Date: time.Date(2025, 1, 2, 0, 0, 0, 0, time.UTC), Close: 11},
		}, "bars[1].date"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Normalize(tt.ticker, tt.payload, tt.bars)
			var serr *StructuralError
			require.ErrorAs(t, err, &serr)
			assert.Equal(t, tt.field, serr.Field)
		})
	}
}

func TestNormalizeSkipsUnusableCloses(t *testing.T) {
	m, err := Normalize("AAPL", samplePayload(), sampleBars(100, 0, 101, math.NaN(), -5, 102))
	require.NoError(t, err)

	// returns over 100 -> 101 -> 102
	want := ((101.0/100 - 1) + (102.0/101 - 1)) / 2 * 252
	got, ok := m.ExpectedReturn.Get()
	require.True(t, ok)
	assert.InDelta(t, want, got, 1e-9)
	assert.True(t, m.Risk.IsKnown())
}

func TestUsableBars(t *testing.T) {
	clean := sampleBars(1, 2, 3)
	assert.Equal(t, clean, UsableBars(clean))

	got := UsableBars(sampleBars(0, 2, math.Inf(1), 3))
	require.Len(t, got, 2)
	assert.Equal(t, 2.0, got[0].Close)
	assert.Equal(t, 3.0, got[1].Close)

	assert.Empty(t, UsableBars(sampleBars(0, -1)))
}

// ── DCF ──

func TestDCFBaseline(t *testing.T) {
	v, err := DCF(models.Some(2.0), models.Some(0.05), DCFParams{DiscountRate: 0.10, Years: 10})
	require.NoError(t, err)
	assert.InDelta(t, 42.0, mustGet(t, v), 1e-9)
}

func TestDCFDefaultParams(t *testing.T) {
	explicit, err := DCF(models.Some(2.0), models.Some(0.05), DCFParams{DiscountRate: 0.10, Years: 10})
	require.NoError(t, err)
	defaulted, err := DCF(models.Some(2.0), models.Some(0.05), DCFParams{})
	require.NoError(t, err)
	assert.Equal(t, explicit, defaulted)
}

func TestDCFOtherHorizon(t *testing.T) {
	v, err := DCF(models.Some(2.0), models.Some(0.05), DCFParams{DiscountRate: 0.12, Years: 5})
	require.NoError(t, err)
	assert.InDelta(t, 30.0, mustGet(t, v), 1e-9)
}

func TestDCFMonotonicInGrowth(t *testing.T) {
	prev := math.Inf(-1)
	for _, g := range []float64{-0.05, 0, 0.02, 0.04, 0.06, 0.08, 0.095} {
		v, err := DCF(models.Some(2.0), models.Some(g), DCFParams{DiscountRate: 0.10, Years: 10})
		require.NoError(t, err)
		got := mustGet(t, v)
		assert.Greater(t, got, prev, "growth %.3f", g)
		prev = got
	}
}

func TestDCFUnknownInputs(t *testing.T) {
	tests := []struct {
		name        string
		eps, growth models.Number
	}{
		{"eps unknown", models.Unknown[float64](), models.Some(0.05)},
		{"growth unknown", models.Some(2.0), models.Unknown[float64]()},
		{"eps zero", models.Some(0.0), models.Some(0.05)},
		{"eps negative", models.Some(-1.5), models.Some(0.05)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := DCF(tt.eps, tt.growth, DCFParams{})
			require.NoError(t, err)
			assert.False(t, v.IsKnown())
		})
	}
}

func TestDCFNonConvergent(t *testing.T) {
	v, err := DCF(models.Some(2.0), models.Some(0.10), DCFParams{DiscountRate: 0.10, Years: 10})
	assert.False(t, v.IsKnown(), "never inf or NaN")

	var verr *ValuationError
	require.ErrorAs(t, err, &verr)
	assert.True(t, errors.Is(err, ErrNonConvergent))
	assert.Contains(t, err.Error(), "non-convergent terminal value")
}

func TestDCFGrowthAboveDiscount(t *testing.T) {
	v, err := DCF(models.Some(2.0), models.Some(0.25), DCFParams{DiscountRate: 0.10})
	assert.False(t, v.IsKnown())
	assert.ErrorIs(t, err, ErrUnreliableGrowth)
}

func TestDCFInvalidParams(t *testing.T) {
	_, err := DCF(models.Some(2.0), models.Some(0.05), DCFParams{DiscountRate: -0.1})
	assert.ErrorIs(t, err, ErrInvalidParams)

	_, err = DCF(models.Some(2.0), models.Some(0.05), DCFParams{Years: -1})
	assert.ErrorIs(t, err, ErrInvalidParams)
}

// ── Verdict, margin of safety, supplementary methods ──

func TestDCFVerdict(t *testing.T) {
	price := models.Some(100.0)
	tests := []struct {
		fv   models.Number
		want models.Verdict
	}{
		{models.Some(121.0), models.VerdictUndervalued},
		{models.Some(120.0), models.VerdictFairlyValued},
		{models.Some(100.0), models.VerdictFairlyValued},
		{models.Some(80.0), models.VerdictFairlyValued},
		{models.Some(79.0), models.VerdictOvervalued},
		{models.Unknown[float64](), models.VerdictUnavailable},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DCFVerdict(tt.fv, price), "fair value %s", tt.fv)
	}
	assert.Equal(t, models.VerdictUnavailable, DCFVerdict(models.Some(100.0), models.Unknown[float64]()))
}

func TestMarginOfSafety(t *testing.T) {
	assert.InDelta(t, 0.25, mustGet(t, MarginOfSafety(models.Some(120.0), models.Some(90.0))), 1e-12)
	assert.InDelta(t, -0.5, mustGet(t, MarginOfSafety(models.Some(60.0), models.Some(90.0))), 1e-12)
	assert.False(t, MarginOfSafety(models.Some(0.0), models.Some(90.0)).IsKnown())
	assert.False(t, MarginOfSafety(models.Unknown[float64](), models.Some(90.0)).IsKnown())
	assert.False(t, MarginOfSafety(models.Some(120.0), models.Unknown[float64]()).IsKnown())
}

func TestGrahamNumber(t *testing.T) {
	// book value per share = 90 / 3 = 30
	got := GrahamNumber(models.Some(2.0), models.Some(90.0), models.Some(3.0))
	assert.InDelta(t, math.Sqrt(22.5*2*30), mustGet(t, got), 1e-9)

	assert.False(t, GrahamNumber(models.Some(-1.0), models.Some(90.0), models.Some(3.0)).IsKnown())
	assert.False(t, GrahamNumber(models.Some(2.0), models.Some(90.0), models.Unknown[float64]()).IsKnown())
	assert.False(t, GrahamNumber(models.Some(2.0), models.Some(90.0), models.Some(-2.0)).IsKnown())
}

func TestEarningsYield(t *testing.T) {
	assert.InDelta(t, 0.05, mustGet(t, EarningsYield(models.Some(5.0), models.Some(100.0))), 1e-12)
	assert.False(t, EarningsYield(models.Some(5.0), models.Some(0.0)).IsKnown())
	assert.False(t, EarningsYield(models.Unknown[float64](), models.Some(100.0)).IsKnown())
}
