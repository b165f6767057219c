package technical

import (
	"sort"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// DefaultWindows is the moving-average window set used when none is given.
var DefaultWindows = []int{50}

// LongTermWindows adds the 200-day average to the default set.
var LongTermWindows = []int{50, 200}

// SMA calculates the Simple Moving Average series for the given period.
// The result is aligned 1:1 with data; index i is unknown until a full
// window of closes (i >= period-1) is available.
func SMA(data []float64, period int) []models.Number {
	n := len(data)
	result := make([]models.Number, n)
	if period <= 0 || n < period {
		return result
	}

	sum := 0.0
	for i := 0; i < period; i++ {
		sum += data[i]
	}
	result[period-1] = models.Some(sum / float64(period))

	for i := period; i < n; i++ {
		sum += data[i] - data[i-period]
		result[i] = models.Some(sum / float64(period))
	}

	return result
}

// SMALatest returns the most recent SMA value.
func SMALatest(data []float64, period int) models.Number {
	vals := SMA(data, period)
	if len(vals) == 0 {
		return models.Unknown[float64]()
	}
	return vals[len(vals)-1]
}

// MultiSMA computes SMA series for multiple periods at once.
func MultiSMA(data []float64, periods []int) map[int][]models.Number {
	periods = NormalizeWindows(periods)
	result := make(map[int][]models.Number, len(periods))
	for _, p := range periods {
		result[p] = SMA(data, p)
	}
	return result
}

// NormalizeWindows drops non-positive and duplicate windows and sorts the
// rest. An empty result falls back to DefaultWindows.
func NormalizeWindows(windows []int) []int {
	seen := make(map[int]bool, len(windows))
	out := make([]int, 0, len(windows))
	for _, w := range windows {
		if w <= 0 || seen[w] {
			continue
		}
		seen[w] = true
		out = append(out, w)
	}
	if len(out) == 0 {
		return append([]int(nil), DefaultWindows...)
	}
	sort.Ints(out)
	return out
}
