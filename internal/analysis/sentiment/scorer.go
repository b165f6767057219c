// Package sentiment scores news headlines with a keyword dictionary. It is
// deterministic and needs no network access.
package sentiment

import (
	"math"
	"strings"
	"time"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// Tone labels, from most bearish to most bullish.
const (
	Bearish         = "Bearish"
	SlightlyBearish = "Slightly Bearish"
	Neutral         = "Neutral"
	SlightlyBullish = "Slightly Bullish"
	Bullish         = "Bullish"
)

// halfLife is how long a headline takes to lose half its weight.
const halfLife = 24 * time.Hour

var bullishWords = map[string]float64{
	"bullish": 0.7, "rally": 0.6, "surge": 0.7, "soar": 0.7, "upbeat": 0.5,
	"positive": 0.4, "growth": 0.4, "upgrade": 0.6, "outperform": 0.6,
	"buy": 0.5, "strong": 0.4, "recovery": 0.5, "breakout": 0.6,
	"record high": 0.7, "all-time high": 0.7, "beat": 0.5,
	"exceeds": 0.5, "raises guidance": 0.6, "expansion": 0.4,
	"profit": 0.3, "dividend": 0.4, "buyback": 0.5,
}

var bearishWords = map[string]float64{
	"bearish": 0.7, "crash": 0.8, "plunge": 0.7, "slump": 0.6, "tumble": 0.6,
	"negative": 0.4, "downgrade": 0.6, "underperform": 0.6,
	"sell": 0.5, "weak": 0.4, "decline": 0.5, "loss": 0.4,
	"selloff": 0.7, "fall": 0.4, "correction": 0.5, "lawsuit": 0.5,
	"default": 0.7, "fraud": 0.8, "recall": 0.5, "investigation": 0.5,
	"cuts guidance": 0.6, "miss": 0.5, "warning": 0.5, "concern": 0.3,
}

// ScoreText returns a score in [-1, 1] and a confidence in [0.1, 0.85].
// Text without any dictionary hit scores 0 with the minimum confidence.
func ScoreText(text string) (score, confidence float64) {
	lower := strings.ToLower(text)

	var bull, bear float64
	matches := 0
	for word, weight := range bullishWords {
		if strings.Contains(lower, word) {
			bull += weight
			matches++
		}
	}
	for word, weight := range bearishWords {
		if strings.Contains(lower, word) {
			bear += weight
			matches++
		}
	}

	if matches == 0 {
		return 0, 0.1
	}
	score = (bull - bear) / (bull + bear)
	confidence = math.Min(float64(matches)*0.15+0.2, 0.85)
	return score, confidence
}

// ScoreArticle scores the title and summary of an article together.
func ScoreArticle(a models.NewsArticle) (score, confidence float64) {
	text := a.Title
	if a.Summary != "" {
		text += " " + a.Summary
	}
	return ScoreText(text)
}

// Summarize aggregates articles into one tone, weighting each by its
// confidence and halving the weight of a headline every 24 hours of age.
func Summarize(articles []models.NewsArticle, now time.Time) models.HeadlineSentiment {
	if len(articles) == 0 {
		return models.HeadlineSentiment{Label: Neutral}
	}

	var weighted, totalWeight, confSum float64
	for _, a := range articles {
		score, conf := ScoreArticle(a)

		age := now.Sub(a.PublishedAt)
		if age < 0 || a.PublishedAt.IsZero() {
			age = 0
		}
		w := math.Exp2(-float64(age)/float64(halfLife)) * conf

		weighted += score * w
		totalWeight += w
		confSum += conf
	}

	avg := 0.0
	if totalWeight > 0 {
		avg = weighted / totalWeight
	}
	return models.HeadlineSentiment{
		Score:        avg,
		Confidence:   confSum / float64(len(articles)),
		Label:        Label(avg),
		ArticleCount: len(articles),
	}
}

// Label maps a score onto a tone label.
func Label(score float64) string {
	switch {
	case score > 0.3:
		return Bullish
	case score > 0.1:
		return SlightlyBullish
	case score < -0.3:
		return Bearish
	case score < -0.1:
		return SlightlyBearish
	default:
		return Neutral
	}
}
