package datasource

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
	"github.com/rs/zerolog"

	"github.com/ZachStewart21/ZachStewartProjects/internal/config"
	"github.com/ZachStewart21/ZachStewartProjects/internal/infra"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// newsSourceName labels articles from the Yahoo Finance headline feed.
const newsSourceName = "Yahoo Finance"

// News fetches per-ticker headlines from the Yahoo Finance RSS feed.
type News struct {
	feedURL string
	http    *fetcher
	parser  *gofeed.Parser
	cache   *infra.Cache[[]models.NewsArticle]
	log     zerolog.Logger
}

// NewNews creates a headline source from datasource settings.
func NewNews(cfg config.DataSourceConfig, log zerolog.Logger) *News {
	log = log.With().Str("source", "news").Logger()
	return &News{
		feedURL: cfg.NewsFeedURL,
		http:    newFetcher(cfg.Timeout, cfg.RequestsPerSecond, log),
		parser:  gofeed.NewParser(),
		cache:   infra.NewCache[[]models.NewsArticle](cfg.CacheTTL, cfg.Timeout),
		log:     log,
	}
}

// Name returns the data source name.
func (n *News) Name() string { return "Yahoo Finance News" }

// GetHeadlines returns up to limit headlines for ticker, newest first.
// A non-positive limit returns every item in the feed.
func (n *News) GetHeadlines(ctx context.Context, ticker string, limit int) ([]models.NewsArticle, error) {
	symbol := utils.NormalizeTicker(ticker)
	articles, hit, err := n.cache.GetOrLoad(ctx, "news:"+symbol, func(ctx context.Context) ([]models.NewsArticle, error) {
		return n.fetchRSS(ctx, symbol)
	})
	if err != nil {
		return nil, err
	}
	if hit {
		n.log.Debug().Str("ticker", symbol).Msg("headlines cache hit")
	}

	if limit > 0 && len(articles) > limit {
		articles = articles[:limit]
	}
	out := make([]models.NewsArticle, len(articles))
	copy(out, articles)
	return out, nil
}

// --- Internal helpers ---

// feedURLFor builds the per-ticker feed URL.
func (n *News) feedURLFor(symbol string) string {
	q := url.Values{}
	q.Set("s", symbol)
	q.Set("region", "US")
	q.Set("lang", "en-US")
	sep := "?"
	if strings.Contains(n.feedURL, "?") {
		sep = "&"
	}
	return n.feedURL + sep + q.Encode()
}

// fetchRSS downloads and parses the feed for symbol.
func (n *News) fetchRSS(ctx context.Context, symbol string) ([]models.NewsArticle, error) {
	data, err := n.http.get(ctx, n.feedURLFor(symbol), map[string]string{
		"Accept": "application/rss+xml, application/xml, text/xml",
	})
	if err != nil {
		return nil, fmt.Errorf("news feed %s: %w", symbol, err)
	}

	feed, err := n.parser.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parse RSS %s: %w", symbol, err)
	}

	articles := make([]models.NewsArticle, 0, len(feed.Items))
	for _, item := range feed.Items {
		title := strings.TrimSpace(item.Title)
		if title == "" {
			continue
		}
		a := models.NewsArticle{
			Title:   title,
			URL:     item.Link,
			Source:  newsSourceName,
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = item.PublishedParsed.UTC()
		}
		articles = append(articles, a)
	}

	sortArticlesByDate(articles)
	return articles, nil
}

// cleanHTML strips HTML tags from a string using goquery.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return s
	}
	return strings.Join(strings.Fields(doc.Text()), " ")
}

// sortArticlesByDate sorts articles by published date (newest first).
func sortArticlesByDate(articles []models.NewsArticle) {
	sort.SliceStable(articles, func(i, j int) bool {
		return articles[i].PublishedAt.After(articles[j].PublishedAt)
	})
}
