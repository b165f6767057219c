// Package technical derives return/risk statistics and moving averages from
// a daily price series. Bars must already be ordered by date ascending.
package technical

import (
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// Indicators is the output of Compute.
type Indicators struct {
	ExpectedReturn models.Number           `json:"expected_return"`
	Risk           models.Number           `json:"risk"`
	MovingAverages map[int][]models.Number `json:"moving_averages"`
}

// Compute derives annualised expected return, annualised risk and one SMA
// series per window. An empty windows set means DefaultWindows.
func Compute(bars []models.PriceBar, windows []int) Indicators {
	closes := models.Closes(bars)
	returns := DailyReturns(closes)
	return Indicators{
		ExpectedReturn: ExpectedReturn(returns),
		Risk:           Risk(returns),
		MovingAverages: MultiSMA(closes, windows),
	}
}
