package recommendation

import (
	"fmt"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// Fixed rule constants.
const (
	minBuyEPS         = 0.1
	sellShortMultiple = 1.5
	sellBetaAllowance = 0.5
	sellEPSFloor      = 0.0
)

// inputs holds the six metrics every rule needs, all known.
type inputs struct {
	eps, shortInterest, beta, price, targetMean, targetHigh float64
}

func required(m models.StockMetrics) (inputs, bool) {
	var in inputs
	for _, f := range []struct {
		n   models.Number
		dst *float64
	}{
		{m.EPS, &in.eps},
		{m.ShortInterest, &in.shortInterest},
		{m.Beta, &in.beta},
		{m.CurrentPrice, &in.price},
		{m.TargetMean, &in.targetMean},
		{m.TargetHigh, &in.targetHigh},
	} {
		v, ok := f.n.Get()
		if !ok {
			return inputs{}, false
		}
		*f.dst = v
	}
	return in, true
}

// Classify labels m under the named strategy. Missing inputs yield
// INSUFFICIENT_DATA before any rule runs. BUY is checked before SELL, so an
// input meeting both is a BUY.
func Classify(m models.StockMetrics, strategy string) models.Recommendation {
	p := ResolveStrategy(strategy)

	in, ok := required(m)
	if !ok {
		return recommend(p, models.LabelInsufficientData)
	}

	switch {
	case in.shortInterest < p.ShortInterestThreshold &&
		in.eps > minBuyEPS &&
		in.beta <= p.BetaThreshold &&
		in.price < in.targetMean:
		return recommend(p, models.LabelBuy)

	case in.shortInterest > p.ShortInterestThreshold*sellShortMultiple ||
		in.eps < sellEPSFloor ||
		in.beta > p.BetaThreshold+sellBetaAllowance ||
		in.price > in.targetHigh:
		return recommend(p, models.LabelSell)

	default:
		return recommend(p, models.LabelHold)
	}
}

func recommend(p Profile, label models.Label) models.Recommendation {
	return models.Recommendation{
		Label:       label,
		Strategy:    string(p.Name),
		Explanation: Explain(p, label),
	}
}

// Explain renders the explanation for a label under a profile. The text
// depends only on its arguments.
func Explain(p Profile, label models.Label) string {
	prefix := fmt.Sprintf("%s strategy (beta <= %.2f, short interest < %.0f%%)",
		p.Name, p.BetaThreshold, p.ShortInterestThreshold*100)

	switch label {
	case models.LabelBuy:
		return prefix + ": BUY. Short interest and beta are within limits, EPS is above 0.10 and the price is below the mean analyst target."
	case models.LabelSell:
		return fmt.Sprintf("%s: SELL. At least one sell trigger fired: short interest above %.0f%%, negative EPS, beta above %.2f or price above the high analyst target.",
			prefix, p.ShortInterestThreshold*sellShortMultiple*100, p.BetaThreshold+sellBetaAllowance)
	case models.LabelHold:
		return prefix + ": HOLD. Neither the buy nor the sell conditions are met."
	default:
		return prefix + ": INSUFFICIENT_DATA. EPS, short interest, beta, current price and analyst targets are all required."
	}
}

// Insufficient returns the INSUFFICIENT_DATA recommendation for strategy
// without looking at any metrics.
func Insufficient(strategy string) models.Recommendation {
	return recommend(ResolveStrategy(strategy), models.LabelInsufficientData)
}
