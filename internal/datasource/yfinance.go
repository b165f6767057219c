package datasource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZachStewart21/ZachStewartProjects/internal/config"
	"github.com/ZachStewart21/ZachStewartProjects/internal/infra"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// summaryModules are the quoteSummary modules carrying the documented
// fundamentals, in lookup priority order.
var summaryModules = []string{"financialData", "defaultKeyStatistics", "summaryDetail"}

// YFinance fetches fundamentals and daily history from Yahoo Finance.
type YFinance struct {
	baseURL  string
	http     *fetcher
	payloads *infra.Cache[models.RawPayload]
	history  *infra.Cache[[]models.PriceBar]
	log      zerolog.Logger
}

// NewYFinance creates a Yahoo Finance source from datasource settings.
func NewYFinance(cfg config.DataSourceConfig, log zerolog.Logger) *YFinance {
	log = log.With().Str("source", "yfinance").Logger()
	return &YFinance{
		baseURL:  strings.TrimRight(cfg.YahooBaseURL, "/"),
		http:     newFetcher(cfg.Timeout, cfg.RequestsPerSecond, log),
		payloads: infra.NewCache[models.RawPayload](cfg.CacheTTL, cfg.Timeout),
		history:  infra.NewCache[[]models.PriceBar](cfg.CacheTTL, cfg.Timeout),
		log:      log,
	}
}

// Name returns the data source name.
func (y *YFinance) Name() string { return "Yahoo Finance" }

// --- Yahoo Finance API types ---

type yfSummaryResponse struct {
	QuoteSummary struct {
		Result []map[string]map[string]json.RawMessage `json:"result"`
		Error  *yfError                                `json:"error"`
	} `json:"quoteSummary"`
}

type yfChartResponse struct {
	Chart struct {
		Result []yfChartResult `json:"result"`
		Error  *yfError        `json:"error"`
	} `json:"chart"`
}

type yfChartResult struct {
	Timestamp  []int64      `json:"timestamp"`
	Indicators yfIndicators `json:"indicators"`
}

type yfIndicators struct {
	Quote []yfOHLC `json:"quote"`
}

type yfOHLC struct {
	Open  []*float64 `json:"open"`
	High  []*float64 `json:"high"`
	Low   []*float64 `json:"low"`
	Close []*float64 `json:"close"`
}

type yfError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

// --- Public methods ---

// GetFundamentals returns the documented fundamentals for ticker. Fields the
// provider leaves empty are omitted from the payload, never zeroed.
func (y *YFinance) GetFundamentals(ctx context.Context, ticker string) (models.RawPayload, error) {
	symbol := utils.NormalizeTicker(ticker)
	payload, hit, err := y.payloads.GetOrLoad(ctx, "fund:"+symbol, func(ctx context.Context) (models.RawPayload, error) {
		return y.fetchFundamentals(ctx, symbol)
	})
	if hit {
		y.log.Debug().Str("ticker", symbol).Msg("fundamentals cache hit")
	}
	return payload, err
}

// GetHistory returns daily bars between from and to, ascending by date.
// Bars without a positive close are dropped.
func (y *YFinance) GetHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error) {
	symbol := utils.NormalizeTicker(ticker)
	key := fmt.Sprintf("hist:%s:%s:%s", symbol, utils.FormatDate(from), utils.FormatDate(to))
	bars, hit, err := y.history.GetOrLoad(ctx, key, func(ctx context.Context) ([]models.PriceBar, error) {
		return y.fetchHistory(ctx, symbol, from, to)
	})
	if hit {
		y.log.Debug().Str("ticker", symbol).Msg("history cache hit")
	}
	return bars, err
}

func (y *YFinance) fetchFundamentals(ctx context.Context, symbol string) (models.RawPayload, error) {
	endpoint := fmt.Sprintf("%s/v10/finance/quoteSummary/%s?modules=%s",
		y.baseURL, url.PathEscape(symbol), strings.Join(summaryModules, ","))

	data, err := y.http.get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("yfinance fundamentals %s: %w", symbol, err)
	}

	var resp yfSummaryResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance fundamentals: %w", err)
	}
	if e := resp.QuoteSummary.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yfinance API error: %s", e.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	return flattenSummary(resp.QuoteSummary.Result[0]), nil
}

func (y *YFinance) fetchHistory(ctx context.Context, symbol string, from, to time.Time) ([]models.PriceBar, error) {
	endpoint := fmt.Sprintf("%s/v8/finance/chart/%s?period1=%d&period2=%d&interval=1d",
		y.baseURL, url.PathEscape(symbol), from.Unix(), to.Unix())

	data, err := y.http.get(ctx, endpoint, map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", symbol, err)
	}

	var resp yfChartResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("parse yfinance chart: %w", err)
	}
	if e := resp.Chart.Error; e != nil {
		if e.Code == "Not Found" {
			return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
		}
		return nil, fmt.Errorf("yfinance chart error: %s", e.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTickerNotFound, symbol)
	}

	return parseYFBars(resp.Chart.Result[0]), nil
}

// --- Helpers ---

// flattenSummary picks the documented fields out of the quoteSummary
// modules. Each cell is either {"raw": x, "fmt": "..."} or a bare number;
// empty cells ({}) are skipped.
func flattenSummary(result map[string]map[string]json.RawMessage) models.RawPayload {
	payload := make(models.RawPayload, len(models.FundamentalFields))
	for _, field := range models.FundamentalFields {
		for _, module := range summaryModules {
			cell, ok := result[module][field]
			if !ok {
				continue
			}
			if v, ok := cellValue(cell); ok {
				payload[field] = v
				break
			}
		}
	}
	return payload
}

func cellValue(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return 0, false
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, true
	}
	var cell struct {
		Raw *float64 `json:"raw"`
	}
	if err := json.Unmarshal(raw, &cell); err != nil || cell.Raw == nil {
		return 0, false
	}
	return *cell.Raw, true
}

// parseYFBars converts the chart arrays into bars, skipping null closes,
// sorting ascending and keeping the last bar of any repeated date.
func parseYFBars(result yfChartResult) []models.PriceBar {
	if len(result.Indicators.Quote) == 0 {
		return []models.PriceBar{}
	}
	q := result.Indicators.Quote[0]

	bars := make([]models.PriceBar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil || *q.Close[i] <= 0 {
			continue
		}
		c := *q.Close[i]
		bars = append(bars, models.PriceBar{
			Date:  time.Unix(ts, 0).UTC(),
			Open:  valueAt(q.Open, i, c),
			High:  valueAt(q.High, i, c),
			Low:   valueAt(q.Low, i, c),
			Close: c,
		})
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Date.Before(bars[j].Date) })

	out := bars[:0]
	for _, b := range bars {
		if n := len(out); n > 0 && utils.FormatDate(out[n-1].Date) == utils.FormatDate(b.Date) {
			out[n-1] = b
			continue
		}
		out = append(out, b)
	}
	return out
}

func valueAt(series []*float64, i int, fallback float64) float64 {
	if i < len(series) && series[i] != nil {
		return *series[i]
	}
	return fallback
}
