package recommendation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// buyCase is the reference risk_averse BUY input.
func buyCase() models.StockMetrics {
	return models.StockMetrics{
		Ticker:        "ACME",
		CurrentPrice:  models.Some(90.0),
		EPS:           models.Some(0.2),
		Beta:          models.Some(0.9),
		ShortInterest: models.Some(0.05),
		TargetMean:    models.Some(100.0),
		TargetHigh:    models.Some(120.0),
	}
}

func TestResolveStrategy(t *testing.T) {
	tests := []struct {
		name     string
		wantName RiskStrategy
		beta, si float64
	}{
		{"risk_averse", RiskAverse, 1.0, 0.10},
		{"moderate", Moderate, 1.5, 0.20},
		{"high_risk", HighRisk, 2.0, 0.30},
		{"  HIGH_RISK ", HighRisk, 2.0, 0.30},
		{"", Moderate, 1.5, 0.20},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := ResolveStrategy(tt.name)
			assert.Equal(t, tt.wantName, p.Name)
			assert.Equal(t, tt.beta, p.BetaThreshold)
			assert.Equal(t, tt.si, p.ShortInterestThreshold)
		})
	}
}

func TestUnknownStrategyResolvesToModerate(t *testing.T) {
	assert.Equal(t, ResolveStrategy("moderate"), ResolveStrategy("aggressive_plus"))
	assert.False(t, IsKnownStrategy("aggressive_plus"))
	assert.True(t, IsKnownStrategy("Risk_Averse"))
}

func TestStrategiesOrder(t *testing.T) {
	list := Strategies()
	require.Len(t, list, 3)
	assert.Equal(t, RiskAverse, list[0].Name)
	assert.Equal(t, Moderate, list[1].Name)
	assert.Equal(t, HighRisk, list[2].Name)
}

func TestClassifyBuy(t *testing.T) {
	rec := Classify(buyCase(), "risk_averse")
	assert.Equal(t, models.LabelBuy, rec.Label)
	assert.Equal(t, "risk_averse", rec.Strategy)
	assert.Equal(t, Explain(ResolveStrategy("risk_averse"), models.LabelBuy), rec.Explanation)
}

func TestClassifyNegativeEPSIsSell(t *testing.T) {
	m := buyCase()
	m.EPS = models.Some(-0.1)
	for _, s := range []string{"risk_averse", "moderate", "high_risk"} {
		assert.Equal(t, models.LabelSell, Classify(m, s).Label, s)
	}
}

func TestClassifyRules(t *testing.T) {
	tests := []struct {
		name     string
		strategy string
		mutate   func(*models.StockMetrics)
		want     models.Label
	}{
		{"eps at buy floor holds", "risk_averse", func(m *models.StockMetrics) { m.EPS = models.Some(0.1) }, models.LabelHold},
		{"beta at threshold still buys", "risk_averse", func(m *models.StockMetrics) { m.Beta = models.Some(1.0) }, models.LabelBuy},
		{"beta slightly high holds", "risk_averse", func(m *models.StockMetrics) { m.Beta = models.Some(1.2) }, models.LabelHold},
		{"beta far above sells", "risk_averse", func(m *models.StockMetrics) { m.Beta = models.Some(1.6) }, models.LabelSell},
		{"beta far above for risk_averse buys for high_risk", "high_risk", func(m *models.StockMetrics) { m.Beta = models.Some(1.6) }, models.LabelBuy},
		{"heavy short interest sells", "risk_averse", func(m *models.StockMetrics) { m.ShortInterest = models.Some(0.16) }, models.LabelSell},
		{"short interest between bands holds", "risk_averse", func(m *models.StockMetrics) { m.ShortInterest = models.Some(0.12) }, models.LabelHold},
		{"price at mean target holds", "moderate", func(m *models.StockMetrics) { m.CurrentPrice = models.Some(100.0) }, models.LabelHold},
		{"price above high target sells", "moderate", func(m *models.StockMetrics) { m.CurrentPrice = models.Some(125.0) }, models.LabelSell},
		{"zero eps holds", "moderate", func(m *models.StockMetrics) { m.EPS = models.Some(0.0) }, models.LabelHold},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := buyCase()
			tt.mutate(&m)
			assert.Equal(t, tt.want, Classify(m, tt.strategy).Label)
		})
	}
}

func TestClassifyBuyWinsOverSell(t *testing.T) {
	// price is below the mean target but above the high target, which
	// satisfies the BUY conditions and a SELL trigger at once.
	m := buyCase()
	m.TargetMean = models.Some(100.0)
	m.TargetHigh = models.Some(80.0)
	assert.Equal(t, models.LabelBuy, Classify(m, "risk_averse").Label)
}

func TestClassifyInsufficientData(t *testing.T) {
	unset := map[string]func(*models.StockMetrics){
		"eps":            func(m *models.StockMetrics) { m.EPS = models.Unknown[float64]() },
		"short_interest": func(m *models.StockMetrics) { m.ShortInterest = models.Unknown[float64]() },
		"beta":           func(m *models.StockMetrics) { m.Beta = models.Unknown[float64]() },
		"current_price":  func(m *models.StockMetrics) { m.CurrentPrice = models.Unknown[float64]() },
		"target_mean":    func(m *models.StockMetrics) { m.TargetMean = models.Unknown[float64]() },
		"target_high":    func(m *models.StockMetrics) { m.TargetHigh = models.Unknown[float64]() },
	}
	for field, fn := range unset {
		t.Run(field, func(t *testing.T) {
			m := buyCase()
			// make every other rule scream SELL; the precondition still wins
			m.EPS = models.Some(-5.0)
			m.Beta = models.Some(9.0)
			fn(&m)
			assert.Equal(t, models.LabelInsufficientData, Classify(m, "moderate").Label)
		})
	}
}

func TestClassifyIgnoresOptionalFields(t *testing.T) {
	m := buyCase()
	m.PERatio = models.Unknown[float64]()
	m.TargetLow = models.Unknown[float64]()
	m.GrowthRate = models.Unknown[float64]()
	assert.Equal(t, models.LabelBuy, Classify(m, "risk_averse").Label)
}

func TestExplainIsDeterministic(t *testing.T) {
	p := ResolveStrategy("moderate")
	assert.Equal(t,
		"moderate strategy (beta <= 1.50, short interest < 20%): HOLD. Neither the buy nor the sell conditions are met.",
		Explain(p, models.LabelHold))
	assert.Equal(t,
		"moderate strategy (beta <= 1.50, short interest < 20%): SELL. At least one sell trigger fired: short interest above 30%, negative EPS, beta above 2.00 or price above the high analyst target.",
		Explain(p, models.LabelSell))
	assert.Equal(t, Explain(p, models.LabelBuy), Classify(func() models.StockMetrics {
		m := buyCase()
		m.Beta = models.Some(1.4)
		return m
	}(), "unknown_profile").Explanation)
}
