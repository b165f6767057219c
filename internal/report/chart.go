// Package report renders valuation reports: price charts with moving-average
// overlays, the HTML page served by the web front end and a plain-text
// report for the terminal.
package report

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// ErrNotEnoughData is returned when fewer than two bars are given.
var ErrNotEnoughData = errors.New("chart: need at least 2 price bars")

// ChartFormat selects the image encoding.
type ChartFormat string

const (
	ChartPNG ChartFormat = "png"
	ChartSVG ChartFormat = "svg"
)

// ContentType returns the MIME type for the format.
func (f ChartFormat) ContentType() string {
	if f == ChartSVG {
		return "image/svg+xml"
	}
	return "image/png"
}

// ChartConfig holds rendering parameters.
type ChartConfig struct {
	Width  int         // default 900
	Height int         // default 400
	Format ChartFormat // default PNG
	Title  string      // defaults to "<TICKER> Closing Price"
}

// DefaultChartConfig returns sensible defaults for chart rendering.
func DefaultChartConfig() ChartConfig {
	return ChartConfig{Width: 900, Height: 400, Format: ChartPNG}
}

func (c ChartConfig) withDefaults() ChartConfig {
	d := DefaultChartConfig()
	if c.Width <= 0 {
		c.Width = d.Width
	}
	if c.Height <= 0 {
		c.Height = d.Height
	}
	if c.Format != ChartSVG {
		c.Format = ChartPNG
	}
	return c
}

// closeColor and maPalette follow the Tailwind palette used on the page.
var (
	closeColor = drawing.ColorFromHex("2563eb") // blue-600
	maPalette  = []drawing.Color{
		drawing.ColorFromHex("ea580c"), // orange-600
		drawing.ColorFromHex("16a34a"), // green-600
		drawing.ColorFromHex("9333ea"), // purple-600
		drawing.ColorFromHex("dc2626"), // red-600
	}
)

// RenderChart draws the closing price of bars with one line per moving
// average window. Each moving-average series is aligned index for index with
// bars; unknown points are skipped and a window with fewer than two known
// points is left out.
func RenderChart(ticker string, bars []models.PriceBar, movingAverages map[int][]models.Number, cfg ChartConfig) ([]byte, error) {
	if len(bars) < 2 {
		return nil, ErrNotEnoughData
	}
	cfg = cfg.withDefaults()
	if cfg.Title == "" {
		cfg.Title = ticker + " Closing Price"
	}

	xs := make([]time.Time, len(bars))
	ys := make([]float64, len(bars))
	lo, hi := math.Inf(1), math.Inf(-1)
	for i, b := range bars {
		xs[i] = b.Date
		ys[i] = b.Close
		lo, hi = math.Min(lo, b.Close), math.Max(hi, b.Close)
	}

	series := []chart.Series{
		chart.TimeSeries{
			Name: "Close",
			Style: chart.Style{
				StrokeColor: closeColor,
				StrokeWidth: 2,
			},
			XValues: xs,
			YValues: ys,
		},
	}

	windows := make([]int, 0, len(movingAverages))
	for w := range movingAverages {
		windows = append(windows, w)
	}
	sort.Ints(windows)

	for i, w := range windows {
		mx, my := knownPoints(bars, movingAverages[w])
		if len(mx) < 2 {
			continue
		}
		for _, v := range my {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		series = append(series, chart.TimeSeries{
			Name: fmt.Sprintf("%d-Day MA", w),
			Style: chart.Style{
				StrokeColor:     maPalette[i%len(maPalette)],
				StrokeWidth:     1.5,
				StrokeDashArray: []float64{5.0, 3.0},
			},
			XValues: mx,
			YValues: my,
		})
	}

	// a flat series has a zero range, which go-chart refuses to draw
	pad := (hi - lo) * 0.05
	if pad == 0 {
		pad = math.Max(math.Abs(hi)*0.01, 1)
	}

	graph := chart.Chart{
		Title:  cfg.Title,
		Width:  cfg.Width,
		Height: cfg.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			Range: &chart.ContinuousRange{Min: lo - pad, Max: hi + pad},
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("$%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	provider := chart.PNG
	if cfg.Format == ChartSVG {
		provider = chart.SVG
	}

	var buf bytes.Buffer
	if err := graph.Render(provider, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}
	return buf.Bytes(), nil
}

// knownPoints pairs the known values of ma with the dates of bars.
func knownPoints(bars []models.PriceBar, ma []models.Number) ([]time.Time, []float64) {
	n := min(len(bars), len(ma))
	xs := make([]time.Time, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if v, ok := ma[i].Get(); ok {
			xs = append(xs, bars[i].Date)
			ys = append(ys, v)
		}
	}
	return xs, ys
}
