package report

import (
	"bytes"
	"fmt"
	"html/template"
	"io"
	"sort"
	"strings"
	"time"

	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/recommendation"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/technical"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// UnavailableMessage is shown when the ticker has no current price.
const UnavailableMessage = "Stock data unavailable."

// Input is everything a rendered report draws on.
type Input struct {
	Report    models.ValuationReport
	Headlines []models.NewsArticle
	Sentiment *models.HeadlineSentiment // nil hides the tone line
	Warnings  []string
	// GeneratedAt defaults to now.
	GeneratedAt time.Time
}

// ReportData is the flattened view passed to templates. Every value is
// already formatted; unknown numbers read "N/A" and fractions are shown as
// percentages.
type ReportData struct {
	Ticker      string
	GeneratedAt string
	Available   bool

	Price   string
	Metrics []MetricRow
	Stats   []MetricRow

	FairValue      string
	DCFNote        string
	Verdict        string
	VerdictClass   string
	MarginOfSafety string

	Label       string
	LabelClass  string
	Strategy    string
	Explanation string

	Chart     template.HTML // inline SVG, empty when there is not enough history
	Headlines []HeadlineRow
	Sentiment string
	Warnings  []string
}

// MetricRow is one label/value pair.
type MetricRow struct {
	Label string
	Value string
}

// HeadlineRow is a display-ready news headline.
type HeadlineRow struct {
	Title     string
	URL       string
	Source    string
	Published string
}

// StrategyOption is an entry of the strategy select.
type StrategyOption struct {
	Name        string
	Description string
	Selected    bool
}

// Page is the model of the web page: the form, and a report once one has
// been requested.
type Page struct {
	Title      string
	Ticker     string
	Strategies []StrategyOption
	Error      string
	Report     *ReportData
}

// NewPage creates the form page with strategy preselected.
func NewPage(ticker, strategy string) *Page {
	selected := recommendation.ResolveStrategy(strategy).Name
	p := &Page{Title: "Stock Valuation", Ticker: ticker}
	for _, prof := range recommendation.Strategies() {
		p.Strategies = append(p.Strategies, StrategyOption{
			Name:        string(prof.Name),
			Description: prof.Description,
			Selected:    prof.Name == selected,
		})
	}
	return p
}

// BuildReportData formats in for display.
func BuildReportData(in Input) ReportData {
	r := in.Report
	m := r.Metrics
	at := in.GeneratedAt
	if at.IsZero() {
		at = time.Now()
	}

	d := ReportData{
		Ticker:         m.Ticker,
		GeneratedAt:    utils.FormatDateTimeET(at),
		Available:      m.CurrentPrice.IsKnown(),
		Price:          utils.OptionalUSD(m.CurrentPrice),
		FairValue:      utils.OptionalUSD(r.DCFFairValue),
		DCFNote:        r.DCFError,
		Verdict:        string(r.Verdict),
		VerdictClass:   verdictClass(r.Verdict),
		MarginOfSafety: utils.OptionalFractionPct(r.MarginOfSafety),
		Label:          string(r.Recommendation.Label),
		LabelClass:     labelClass(r.Recommendation.Label),
		Strategy:       r.Recommendation.Strategy,
		Explanation:    r.Recommendation.Explanation,
		Warnings:       in.Warnings,
	}

	d.Metrics = []MetricRow{
		{"Current Price", utils.OptionalUSD(m.CurrentPrice)},
		{"P/E Ratio", utils.OptionalNumber(m.PERatio)},
		{"P/B Ratio", utils.OptionalNumber(m.PBRatio)},
		{"EPS", utils.OptionalUSD(m.EPS)},
		{"Earnings Growth", utils.OptionalFractionPct(m.GrowthRate)},
		{"Beta", utils.OptionalNumber(m.Beta)},
		{"Short Interest", utils.OptionalFractionPct(m.ShortInterest)},
		{"Institutional Ownership", utils.OptionalFractionPct(m.InstitutionalShares)},
		{"Target Low", utils.OptionalUSD(m.TargetLow)},
		{"Target Mean", utils.OptionalUSD(m.TargetMean)},
		{"Target High", utils.OptionalUSD(m.TargetHigh)},
	}
	d.Stats = []MetricRow{
		{"Expected Return (ann.)", utils.OptionalFractionPct(m.ExpectedReturn)},
		{"Risk (ann.)", utils.OptionalFractionPct(m.Risk)},
		{"Graham Number", utils.OptionalUSD(r.GrahamNumber)},
		{"Earnings Yield", utils.OptionalFractionPct(r.EarningsYield)},
	}
	windows := make([]int, 0, len(r.MovingAverages))
	for w := range r.MovingAverages {
		windows = append(windows, w)
	}
	sort.Ints(windows)
	closes := models.Closes(r.Prices)
	for _, w := range windows {
		d.Stats = append(d.Stats, MetricRow{
			fmt.Sprintf("%d-Day MA", w),
			utils.OptionalUSD(technical.SMALatest(closes, w)),
		})
	}

	if len(r.Prices) >= 2 {
		svg, err := RenderChart(m.Ticker, r.Prices, r.MovingAverages, ChartConfig{Format: ChartSVG})
		if err == nil {
			d.Chart = template.HTML(svg) // tickers are validated before they reach the renderer
		}
	}

	for _, a := range in.Headlines {
		row := HeadlineRow{Title: a.Title, URL: a.URL, Source: a.Source}
		if !a.PublishedAt.IsZero() {
			row.Published = utils.FormatDate(a.PublishedAt)
		}
		d.Headlines = append(d.Headlines, row)
	}
	if in.Sentiment != nil && in.Sentiment.ArticleCount > 0 {
		d.Sentiment = fmt.Sprintf("%s (%+.2f across %d headlines)",
			in.Sentiment.Label, in.Sentiment.Score, in.Sentiment.ArticleCount)
	}
	return d
}

var pageTemplate = template.Must(template.New("page").Parse(PageTemplate))

// RenderPage writes the HTML page.
func RenderPage(w io.Writer, p *Page) error {
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, p); err != nil {
		return fmt.Errorf("executing template: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}

// GenerateText renders a plain-text report for the terminal.
func GenerateText(in Input) string {
	d := BuildReportData(in)

	var sb strings.Builder
	line := strings.Repeat("═", 60)
	thinLine := strings.Repeat("─", 60)

	sb.WriteString("\n" + line + "\n")
	sb.WriteString(fmt.Sprintf("  %s Valuation Report\n", d.Ticker))
	sb.WriteString(fmt.Sprintf("  Generated: %s\n", d.GeneratedAt))
	sb.WriteString(line + "\n")

	if !d.Available {
		sb.WriteString("\n  " + UnavailableMessage + "\n")
	}

	sb.WriteString("\n  ■ METRICS\n")
	for _, r := range d.Metrics {
		sb.WriteString(fmt.Sprintf("    %-24s %s\n", r.Label, r.Value))
	}
	for _, r := range d.Stats {
		sb.WriteString(fmt.Sprintf("    %-24s %s\n", r.Label, r.Value))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ■ DCF VALUATION\n")
	sb.WriteString(fmt.Sprintf("    %-24s %s\n", "Fair Value", d.FairValue))
	sb.WriteString(fmt.Sprintf("    %-24s %s\n", "Margin of Safety", d.MarginOfSafety))
	sb.WriteString(fmt.Sprintf("    %-24s %s\n", "Verdict", d.Verdict))
	if d.DCFNote != "" {
		sb.WriteString(fmt.Sprintf("    Note: %s\n", d.DCFNote))
	}
	sb.WriteString(thinLine + "\n")

	sb.WriteString("\n  ★ RECOMMENDATION\n")
	sb.WriteString(fmt.Sprintf("  %s (%s)\n", d.Label, d.Strategy))
	sb.WriteString(fmt.Sprintf("\n  %s\n", d.Explanation))
	sb.WriteString(thinLine + "\n")

	if len(d.Headlines) > 0 {
		sb.WriteString("\n  ■ HEADLINES\n")
		if d.Sentiment != "" {
			sb.WriteString(fmt.Sprintf("  Tone: %s\n", d.Sentiment))
		}
		for _, h := range d.Headlines {
			if h.Published != "" {
				sb.WriteString(fmt.Sprintf("    [%s] %s\n", h.Published, h.Title))
			} else {
				sb.WriteString(fmt.Sprintf("    %s\n", h.Title))
			}
		}
		sb.WriteString(thinLine + "\n")
	}

	for _, w := range d.Warnings {
		sb.WriteString(fmt.Sprintf("  ! %s\n", w))
	}

	sb.WriteString("\n" + line + "\n")
	sb.WriteString("  For educational purposes only. Not financial advice.\n")
	sb.WriteString(line + "\n")

	return sb.String()
}

func labelClass(l models.Label) string {
	switch l {
	case models.LabelBuy:
		return "buy"
	case models.LabelSell:
		return "sell"
	case models.LabelHold:
		return "hold"
	default:
		return "insufficient"
	}
}

func verdictClass(v models.Verdict) string {
	switch v {
	case models.VerdictUndervalued:
		return "positive"
	case models.VerdictOvervalued:
		return "negative"
	default:
		return ""
	}
}

// SetReport attaches d to the page. A report without a current price is
// replaced by the unavailable message.
func (p *Page) SetReport(d ReportData) {
	if !d.Available {
		p.Error = UnavailableMessage
		p.Report = nil
		return
	}
	p.Error = ""
	p.Report = &d
}
