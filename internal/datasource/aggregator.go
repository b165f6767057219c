package datasource

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/ZachStewart21/ZachStewartProjects/internal/config"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// Snapshot is everything fetched for one ticker. A failed leg leaves its
// field empty and adds a warning.
type Snapshot struct {
	Ticker    string               `json:"ticker"`
	Payload   models.RawPayload    `json:"payload"`
	Bars      []models.PriceBar    `json:"-"`
	Headlines []models.NewsArticle `json:"headlines"`
	Warnings  []string             `json:"warnings,omitempty"`
	FetchedAt time.Time            `json:"fetched_at"`
}

// Unavailable reports whether neither fundamentals nor history could be
// fetched.
func (s *Snapshot) Unavailable() bool {
	return len(s.Payload) == 0 && len(s.Bars) == 0 && len(s.Warnings) > 0
}

// Fetcher fetches a snapshot for a ticker.
type Fetcher interface {
	Fetch(ctx context.Context, ticker string) (*Snapshot, error)
}

// Aggregator fetches fundamentals, history and headlines concurrently.
type Aggregator struct {
	fundamentals  FundamentalsSource
	history       HistorySource
	news          HeadlineSource
	historyDays   int
	headlineLimit int
	log           zerolog.Logger
	now           func() time.Time
}

// AggregatorOptions wires the sources of an Aggregator. A nil source is
// skipped.
type AggregatorOptions struct {
	Fundamentals  FundamentalsSource
	History       HistorySource
	News          HeadlineSource
	HistoryDays   int
	HeadlineLimit int
	Logger        zerolog.Logger
}

// NewAggregator creates an aggregator over explicit sources.
func NewAggregator(opts AggregatorOptions) *Aggregator {
	return &Aggregator{
		fundamentals:  opts.Fundamentals,
		history:       opts.History,
		news:          opts.News,
		historyDays:   opts.HistoryDays,
		headlineLimit: opts.HeadlineLimit,
		log:           opts.Logger,
		now:           time.Now,
	}
}

// NewDefaultAggregator creates an aggregator over Yahoo Finance and its
// headline feed.
func NewDefaultAggregator(cfg *config.Config, log zerolog.Logger) *Aggregator {
	yf := NewYFinance(cfg.DataSource, log)
	return NewAggregator(AggregatorOptions{
		Fundamentals:  yf,
		History:       yf,
		News:          NewNews(cfg.DataSource, log),
		HistoryDays:   cfg.Valuation.HistoryDays,
		HeadlineLimit: cfg.DataSource.HeadlineLimit,
		Logger:        log,
	})
}

// Fetch runs every configured source concurrently. Source failures become
// warnings on the snapshot; only context cancellation returns an error.
func (a *Aggregator) Fetch(ctx context.Context, ticker string) (*Snapshot, error) {
	symbol := utils.NormalizeTicker(ticker)
	snap := &Snapshot{
		Ticker:    symbol,
		Payload:   models.RawPayload{},
		Bars:      []models.PriceBar{},
		Headlines: []models.NewsArticle{},
		FetchedAt: a.now().UTC(),
	}

	var mu sync.Mutex
	warn := func(leg string, err error) {
		a.log.Warn().Err(err).Str("ticker", symbol).Str("leg", leg).Msg("fetch failed")
		mu.Lock()
		snap.Warnings = append(snap.Warnings, fmt.Sprintf("%s: %v", leg, err))
		mu.Unlock()
	}

	g, gctx := errgroup.WithContext(ctx)

	// 1. Fundamentals.
	if a.fundamentals != nil {
		g.Go(func() error {
			payload, err := a.fundamentals.GetFundamentals(gctx, symbol)
			if err != nil {
				warn("fundamentals", err)
				return nil // non-fatal
			}
			mu.Lock()
			snap.Payload = payload
			mu.Unlock()
			return nil
		})
	}

	// 2. One year (configurable) of daily history.
	if a.history != nil {
		g.Go(func() error {
			from, to := utils.HistoryRange(a.now(), a.historyDays)
			bars, err := a.history.GetHistory(gctx, symbol, from, to)
			if err != nil {
				warn("history", err)
				return nil
			}
			mu.Lock()
			snap.Bars = bars
			mu.Unlock()
			return nil
		})
	}

	// 3. Headlines.
	if a.news != nil {
		g.Go(func() error {
			headlines, err := a.news.GetHeadlines(gctx, symbol, a.headlineLimit)
			if err != nil {
				warn("headlines", err)
				return nil
			}
			mu.Lock()
			snap.Headlines = headlines
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("fetch %s: %w", symbol, err)
	}
	return snap, nil
}
