package technical

import (
	"math/rand"
	"testing"
	"time"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// benchBars creates a synthetic random-walk daily series for benchmarks.
func benchBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	rng := rand.New(rand.NewSource(42))
	price := 150.0
	t := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)

	for i := range bars {
		change := (rng.Float64() - 0.48) * 3 // slight upward bias
		open := price
		close := price + change
		if close < 1 {
			close = 1
		}
		bars[i] = models.PriceBar{
			Date:  t,
			Open:  open,
			High:  max(open, close) + rng.Float64(),
			Low:   min(open, close) - rng.Float64(),
			Close: close,
		}
		price = close
		t = t.AddDate(0, 0, 1)
	}
	return bars
}

func BenchmarkSMA50_252(b *testing.B) {
	data := models.Closes(benchBars(252))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SMA(data, 50)
	}
}

func BenchmarkSMA200_1000(b *testing.B) {
	data := models.Closes(benchBars(1000))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		SMA(data, 200)
	}
}

func BenchmarkRisk_252(b *testing.B) {
	returns := DailyReturns(models.Closes(benchBars(252)))
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Risk(returns)
	}
}

func BenchmarkCompute_OneYear(b *testing.B) {
	bars := benchBars(252)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Compute(bars, LongTermWindows)
	}
}
