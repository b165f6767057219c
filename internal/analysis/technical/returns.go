package technical

import (
	"math"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// TradingDaysPerYear annualises daily statistics.
const TradingDaysPerYear = 252

// DailyReturns computes simple close-to-close returns. The first bar has no
// return, so the result has len(closes)-1 entries.
func DailyReturns(closes []float64) []float64 {
	if len(closes) < 2 {
		return nil
	}
	returns := make([]float64, len(closes)-1)
	for i := 1; i < len(closes); i++ {
		returns[i-1] = closes[i]/closes[i-1] - 1
	}
	return returns
}

// ExpectedReturn is the mean daily return scaled to a trading year.
// Unknown without at least one daily return.
func ExpectedReturn(returns []float64) models.Number {
	if len(returns) == 0 {
		return models.Unknown[float64]()
	}
	return models.Finite(mean(returns) * TradingDaysPerYear)
}

// Risk is the sample standard deviation of daily returns scaled by
// sqrt(252). Unknown with fewer than two daily returns.
func Risk(returns []float64) models.Number {
	if len(returns) < 2 {
		return models.Unknown[float64]()
	}
	return models.Finite(stddev(returns) * math.Sqrt(TradingDaysPerYear))
}

func mean(data []float64) float64 {
	if len(data) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range data {
		sum += v
	}
	return sum / float64(len(data))
}

func stddev(data []float64) float64 {
	if len(data) < 2 {
		return 0
	}
	m := mean(data)
	sumSq := 0.0
	for _, v := range data {
		d := v - m
		sumSq += d * d
	}
	return math.Sqrt(sumSq / float64(len(data)-1)) // sample stddev
}
