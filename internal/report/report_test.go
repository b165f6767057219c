package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// ════════════════════════════════════════════════════════════════════
// Test Helpers
// ════════════════════════════════════════════════════════════════════

func sampleBars(n int) []models.PriceBar {
	bars := make([]models.PriceBar, n)
	start := time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC)
	for i := range bars {
		c := 100 + float64(i%7) - float64(i%3)*0.5 + float64(i)*0.1
		bars[i] = models.PriceBar{Date: start.AddDate(0, 0, i), Open: c, High: c + 1, Low: c - 1, Close: c}
	}
	return bars
}

func sampleMA(bars []models.PriceBar, w int) []models.Number {
	out := make([]models.Number, len(bars))
	for i := range bars {
		if i < w {
			continue
		}
		sum := 0.0
		for _, b := range bars[i-w : i] {
			sum += b.Close
		}
		out[i] = models.Some(sum / float64(w))
	}
	return out
}

func sampleReport() models.ValuationReport {
	bars := sampleBars(30)
	return models.ValuationReport{
		Metrics: models.StockMetrics{
			Ticker:              "AAPL",
			CurrentPrice:        models.Some(190.5),
			PERatio:             models.Some(29.6),
			EPS:                 models.Some(6.43),
			GrowthRate:          models.Some(0.071),
			Beta:                models.Some(1.24),
			ShortInterest:       models.Some(0.0071),
			InstitutionalShares: models.Some(0.6112),
			TargetLow:           models.Some(160.0),
			TargetMean:          models.Some(215.3),
			TargetHigh:          models.Some(250.0),
			ExpectedReturn:      models.Some(0.12),
			Risk:                models.Some(0.25),
		},
		DCFFairValue:   models.Some(238.2),
		MarginOfSafety: models.Some(0.2),
		Verdict:        models.VerdictFairlyValued,
		GrahamNumber:   models.Unknown[float64](),
		EarningsYield:  models.Some(0.0338),
		Recommendation: models.Recommendation{
			Label:       models.LabelBuy,
			Strategy:    "moderate",
			Explanation: "moderate strategy (beta <= 1.50, short interest < 20%): BUY.",
		},
		MovingAverages: map[int][]models.Number{5: sampleMA(bars, 5)},
		Prices:         bars,
	}
}

func sampleInput() Input {
	return Input{
		Report: sampleReport(),
		Headlines: []models.NewsArticle{
			{Title: "Apple <b>beats</b> estimates", URL: "https://example.com/a", Source: "Yahoo Finance",
				PublishedAt: time.Date(2025, 1, 7, 14, 0, 0, 0, time.UTC)},
		},
		Sentiment:   &models.HeadlineSentiment{Score: 0.5, Label: "Bullish", ArticleCount: 1},
		Warnings:    []string{"history: timeout"},
		GeneratedAt: time.Date(2025, 1, 8, 15, 0, 0, 0, time.UTC),
	}
}

func renderDoc(t *testing.T, p *Page) *goquery.Document {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, RenderPage(&buf, p))
	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

// ════════════════════════════════════════════════════════════════════
// Chart
// ════════════════════════════════════════════════════════════════════

func TestRenderChartPNG(t *testing.T) {
	bars := sampleBars(30)
	img, err := RenderChart("AAPL", bars, map[int][]models.Number{5: sampleMA(bars, 5)}, DefaultChartConfig())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(img, []byte("\x89PNG")), "PNG signature")
}

func TestRenderChartSVG(t *testing.T) {
	bars := sampleBars(30)
	img, err := RenderChart("AAPL", bars, map[int][]models.Number{5: sampleMA(bars, 5)}, ChartConfig{Format: ChartSVG})
	require.NoError(t, err)
	svg := string(img)
	assert.Contains(t, svg, "<svg")
	assert.Contains(t, svg, "AAPL Closing Price")
	assert.Contains(t, svg, "5-Day MA")
}

func TestRenderChartOmitsUnknownWindow(t *testing.T) {
	bars := sampleBars(10)
	mas := map[int][]models.Number{
		5:  sampleMA(bars, 5),
		50: sampleMA(bars, 50), // all unknown
	}
	img, err := RenderChart("MSFT", bars, mas, ChartConfig{Format: ChartSVG})
	require.NoError(t, err)
	assert.Contains(t, string(img), "5-Day MA")
	assert.NotContains(t, string(img), "50-Day MA")
}

func TestRenderChartFlatSeries(t *testing.T) {
	bars := sampleBars(5)
	for i := range bars {
		bars[i].Close = 42
	}
	_, err := RenderChart("FLAT", bars, nil, ChartConfig{Format: ChartSVG})
	assert.NoError(t, err)
}

func TestRenderChartNotEnoughData(t *testing.T) {
	_, err := RenderChart("X", sampleBars(1), nil, DefaultChartConfig())
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, err = RenderChart("X", nil, nil, DefaultChartConfig())
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestChartConfigDefaults(t *testing.T) {
	c := ChartConfig{Format: "gif"}.withDefaults()
	assert.Equal(t, 900, c.Width)
	assert.Equal(t, 400, c.Height)
	assert.Equal(t, ChartPNG, c.Format)
	assert.Equal(t, "image/png", c.Format.ContentType())
	assert.Equal(t, "image/svg+xml", ChartSVG.ContentType())
}

func TestKnownPointsMisaligned(t *testing.T) {
	bars := sampleBars(3)
	xs, ys := knownPoints(bars, []models.Number{models.Unknown[float64](), models.Some(1.0), models.Some(2.0), models.Some(3.0)})
	assert.Equal(t, []float64{1, 2}, ys)
	assert.Equal(t, []time.Time{bars[1].Date, bars[2].Date}, xs)
}

// ════════════════════════════════════════════════════════════════════
// Report data
// ════════════════════════════════════════════════════════════════════

func TestBuildReportData(t *testing.T) {
	d := BuildReportData(sampleInput())

	assert.Equal(t, "AAPL", d.Ticker)
	assert.True(t, d.Available)
	assert.Equal(t, "$190.50", d.Price)
	assert.Equal(t, "$238.20", d.FairValue)
	assert.Equal(t, "20.00%", d.MarginOfSafety)
	assert.Equal(t, "Fairly Valued", d.Verdict)
	assert.Equal(t, "buy", d.LabelClass)
	assert.Equal(t, "Bullish (+0.50 across 1 headlines)", d.Sentiment)
	assert.NotEmpty(t, d.Chart)

	values := map[string]string{}
	for _, r := range append(d.Metrics, d.Stats...) {
		values[r.Label] = r.Value
	}
	assert.Equal(t, "0.71%", values["Short Interest"], "fractions are shown as percent")
	assert.Equal(t, "61.12%", values["Institutional Ownership"])
	assert.Equal(t, "N/A", values["P/B Ratio"])
	assert.Equal(t, "N/A", values["Graham Number"])
	assert.Equal(t, "2025-01-07", d.Headlines[0].Published)

	closes := models.Closes(sampleBars(30))
	sum := 0.0
	for _, c := range closes[25:] {
		sum += c
	}
	assert.Equal(t, utils.FormatUSD(sum/5), values["5-Day MA"], "latest moving average per window")
}

func TestBuildReportDataMovingAverageNeedsHistory(t *testing.T) {
	in := sampleInput()
	in.Report.Prices = sampleBars(3)

	d := BuildReportData(in)
	last := d.Stats[len(d.Stats)-1]
	assert.Equal(t, "5-Day MA", last.Label)
	assert.Equal(t, "N/A", last.Value)
}

func TestBuildReportDataNoHistory(t *testing.T) {
	in := sampleInput()
	in.Report.Prices = sampleBars(1)
	in.Sentiment = nil

	d := BuildReportData(in)
	assert.Empty(t, d.Chart)
	assert.Empty(t, d.Sentiment)
}

func TestLabelAndVerdictClasses(t *testing.T) {
	assert.Equal(t, "sell", labelClass(models.LabelSell))
	assert.Equal(t, "hold", labelClass(models.LabelHold))
	assert.Equal(t, "insufficient", labelClass(models.LabelInsufficientData))
	assert.Equal(t, "positive", verdictClass(models.VerdictUndervalued))
	assert.Equal(t, "negative", verdictClass(models.VerdictOvervalued))
	assert.Equal(t, "", verdictClass(models.VerdictUnavailable))
}

// ════════════════════════════════════════════════════════════════════
// HTML page
// ════════════════════════════════════════════════════════════════════

func TestRenderPageForm(t *testing.T) {
	doc := renderDoc(t, NewPage("", "HIGH_RISK"))

	assert.Equal(t, 1, doc.Find("form.lookup").Length())
	assert.Equal(t, 3, doc.Find("select#strategy option").Length())
	assert.Equal(t, "high_risk", doc.Find("select#strategy option[selected]").AttrOr("value", ""))
	assert.Equal(t, 0, doc.Find(".rec-box").Length())
	assert.Equal(t, 0, doc.Find(".error").Length())
}

func TestRenderPageUnknownStrategySelectsModerate(t *testing.T) {
	doc := renderDoc(t, NewPage("", "aggressive_plus"))
	assert.Equal(t, "moderate", doc.Find("select#strategy option[selected]").AttrOr("value", ""))
}

func TestRenderPageReport(t *testing.T) {
	p := NewPage("AAPL", "moderate")
	p.SetReport(BuildReportData(sampleInput()))
	doc := renderDoc(t, p)

	assert.Equal(t, "AAPL", doc.Find("input#ticker").AttrOr("value", ""))
	assert.Equal(t, "BUY", doc.Find(".rec-box.buy .rec-label").Text())
	assert.Contains(t, doc.Find(".explanation").Text(), "beta <= 1.50, short interest < 20%")
	assert.Equal(t, "$238.20", doc.Find("#fair-value").Text())
	assert.Equal(t, "Fairly Valued", doc.Find("#verdict").Text())
	assert.Equal(t, 11, doc.Find(".metrics .ratio-card").Length())
	assert.Equal(t, 1, doc.Find(".chart-container svg").Length())

	link := doc.Find("ul.headlines a")
	assert.Equal(t, "https://example.com/a", link.AttrOr("href", ""))
	assert.Equal(t, "Apple <b>beats</b> estimates", link.Text(), "headline text is escaped")
	assert.Contains(t, doc.Find(".sentiment").Text(), "Bullish")
	assert.Equal(t, "history: timeout", doc.Find(".warning").Text())
}

func TestRenderPageDCFNote(t *testing.T) {
	in := sampleInput()
	in.Report.DCFFairValue = models.Unknown[float64]()
	in.Report.Verdict = models.VerdictUnavailable
	in.Report.DCFError = "dcf: non-convergent terminal value (discount_rate=0.1000, growth_rate=0.1000)"

	p := NewPage("AAPL", "")
	p.SetReport(BuildReportData(in))
	doc := renderDoc(t, p)

	assert.Equal(t, "N/A", doc.Find("#fair-value").Text())
	assert.Contains(t, doc.Find(".dcf-note").Text(), "non-convergent")
	assert.Equal(t, "BUY", doc.Find(".rec-label").Text(), "the rest of the report survives")
}

func TestRenderPageUnavailable(t *testing.T) {
	in := sampleInput()
	in.Report.Metrics.CurrentPrice = models.Unknown[float64]()

	p := NewPage("ZZZZ", "")
	p.SetReport(BuildReportData(in))
	assert.Nil(t, p.Report)

	doc := renderDoc(t, p)
	assert.Equal(t, UnavailableMessage, doc.Find(".error").Text())
	assert.Equal(t, 0, doc.Find(".rec-box").Length())
}

// ════════════════════════════════════════════════════════════════════
// Text report
// ════════════════════════════════════════════════════════════════════

func TestGenerateText(t *testing.T) {
	out := GenerateText(sampleInput())

	for _, want := range []string{
		"AAPL Valuation Report",
		"Short Interest",
		"0.71%",
		"$238.20",
		"Fairly Valued",
		"BUY (moderate)",
		"Tone: Bullish",
		"[2025-01-07] Apple <b>beats</b> estimates",
		"! history: timeout",
		"Not financial advice",
	} {
		assert.Contains(t, out, want)
	}
	assert.NotContains(t, out, UnavailableMessage)
}

func TestGenerateTextUnavailable(t *testing.T) {
	in := Input{Report: models.ValuationReport{
		Metrics:        models.StockMetrics{Ticker: "ZZZZ"},
		Verdict:        models.VerdictUnavailable,
		Recommendation: models.Recommendation{Label: models.LabelInsufficientData, Strategy: "moderate"},
	}}
	out := GenerateText(in)

	assert.Contains(t, out, UnavailableMessage)
	assert.Contains(t, out, "INSUFFICIENT_DATA")
	assert.Equal(t, 0, strings.Count(out, "HEADLINES"))
}
