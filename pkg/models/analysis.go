package models

import "time"

// Label is the categorical recommendation.
type Label string

const (
	LabelBuy              Label = "BUY"
	LabelHold             Label = "HOLD"
	LabelSell             Label = "SELL"
	LabelInsufficientData Label = "INSUFFICIENT_DATA"
)

// Recommendation is a label plus the human-readable reason behind it.
type Recommendation struct {
	Label       Label  `json:"label"       yaml:"label"`
	Strategy    string `json:"strategy"    yaml:"strategy"` // resolved profile name
	Explanation string `json:"explanation" yaml:"explanation"`
}

// Verdict compares the DCF fair value with the current price.
type Verdict string

const (
	VerdictUndervalued  Verdict = "Undervalued"
	VerdictFairlyValued Verdict = "Fairly Valued"
	VerdictOvervalued   Verdict = "Overvalued"
	VerdictUnavailable  Verdict = "Unavailable"
)

// ValuationReport is everything the engine hands back for one evaluation.
// MovingAverages is keyed by window length; each series is aligned 1:1
// with Prices.
type ValuationReport struct {
	Metrics        StockMetrics     `json:"metrics"             yaml:"metrics"`
	DCFFairValue   Number           `json:"dcf_fair_value"      yaml:"dcf_fair_value"`
	DCFError       string           `json:"dcf_error,omitempty" yaml:"dcf_error,omitempty"`
	MarginOfSafety Number           `json:"margin_of_safety"    yaml:"margin_of_safety"`
	Verdict        Verdict          `json:"verdict"             yaml:"verdict"`
	GrahamNumber   Number           `json:"graham_number"       yaml:"graham_number"`
	EarningsYield  Number           `json:"earnings_yield"      yaml:"earnings_yield"`
	Recommendation Recommendation   `json:"recommendation"      yaml:"recommendation"`
	MovingAverages map[int][]Number `json:"moving_averages"     yaml:"moving_averages"`
	Prices         []PriceBar       `json:"prices"              yaml:"prices"`
}

// NewsArticle represents a headline for a ticker.
type NewsArticle struct {
	Title       string    `json:"title"             yaml:"title"`
	URL         string    `json:"url"               yaml:"url"`
	Source      string    `json:"source"            yaml:"source"`
	Summary     string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"      yaml:"published_at"`
}

// HeadlineSentiment is the keyword tone of a ticker's recent headlines.
// It is informational and never feeds the recommendation.
type HeadlineSentiment struct {
	Score        float64 `json:"score"         yaml:"score"` // -1 bearish .. +1 bullish
	Confidence   float64 `json:"confidence"    yaml:"confidence"`
	Label        string  `json:"label"         yaml:"label"`
	ArticleCount int     `json:"article_count" yaml:"article_count"`
}
