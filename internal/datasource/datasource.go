// Package datasource fetches the inputs of a valuation: company fundamentals
// and daily price history from Yahoo Finance, and recent headlines from the
// Yahoo Finance RSS feed.
package datasource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZachStewart21/ZachStewartProjects/internal/infra"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
)

// FundamentalsSource returns the fundamentals payload for a ticker, keyed by
// the documented field names.
type FundamentalsSource interface {
	GetFundamentals(ctx context.Context, ticker string) (models.RawPayload, error)
}

// HistorySource returns daily bars for a ticker, ascending by date.
type HistorySource interface {
	GetHistory(ctx context.Context, ticker string, from, to time.Time) ([]models.PriceBar, error)
}

// HeadlineSource returns recent headlines for a ticker, newest first.
type HeadlineSource interface {
	GetHeadlines(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error)
}

// --- Sentinel errors ---

// ErrTickerNotFound is returned when a ticker cannot be resolved.
var ErrTickerNotFound = errors.New("ticker not found")

// ErrRateLimited is returned when a source rate-limits the request.
var ErrRateLimited = errors.New("rate limited by data source")

// ErrHTTP wraps an HTTP error with status code.
type ErrHTTP struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *ErrHTTP) Error() string {
	return fmt.Sprintf("HTTP %d %s: %s", e.StatusCode, e.Status, e.Body)
}

// Is maps 404 to ErrTickerNotFound and 429 to ErrRateLimited.
func (e *ErrHTTP) Is(target error) bool {
	switch target {
	case ErrTickerNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrRateLimited:
		return e.StatusCode == http.StatusTooManyRequests
	}
	return false
}

// --- Shared HTTP client helpers ---

// DefaultUserAgent is the user agent string used for HTTP requests.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/131.0.0.0 Safari/537.36"

// maxBodyBytes caps how much of a response body is read.
const maxBodyBytes = 8 << 20

// fetcher performs throttled GET requests.
type fetcher struct {
	client   *http.Client
	throttle *infra.Throttle
	log      zerolog.Logger
}

func newFetcher(timeout time.Duration, perSecond float64, log zerolog.Logger) *fetcher {
	return &fetcher{
		client:   &http.Client{Timeout: timeout},
		throttle: infra.NewThrottle(perSecond),
		log:      log,
	}
}

// get performs a GET request and returns the body. Status codes >= 400
// return *ErrHTTP.
func (f *fetcher) get(ctx context.Context, url string, headers map[string]string) ([]byte, error) {
	if err := f.throttle.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)
	req.Header.Set("Accept", "application/json, text/html, */*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("HTTP GET %s: %w", url, err)
	}
	defer resp.Body.Close()

	f.log.Debug().
		Str("url", url).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(start)).
		Msg("datasource request")

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, &ErrHTTP{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       string(body),
		}
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return data, nil
}
