// Package pagesift provides a public SDK for the PageSift crawler.
//
// The Crawler type embeds the crawl engine directly, for programs that want
// keyword crawling without running a server:
//
//	c, err := pagesift.NewCrawler(pagesift.WithConcurrency(4))
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer c.Close()
//
//	result, err := c.Crawl(context.Background(), &pagesift.CrawlRequest{
//		URL:      "example.com",
//		Keywords: []string{"golang"},
//	})
//
// The Client type talks to a running PageSift server over HTTP; see NewClient.
package pagesift

import (
	"context"
	"log/slog"
	"time"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/crawler"
	"github.com/pagesift/pagesift/internal/fetcher"
	"github.com/pagesift/pagesift/internal/observability"
	"github.com/pagesift/pagesift/internal/types"
)

// Re-exported request and result types, so callers never need the internal
// packages.
type (
	CrawlRequest  = types.CrawlRequest
	CrawlResult   = types.CrawlResult
	DomainResult  = types.DomainResult
	KeywordMatch  = types.KeywordMatch
	CrawlMetadata = types.CrawlMetadata
	User          = types.User
)

// Option configures an embedded Crawler.
type Option func(*config.Config)

// WithConcurrency sets how many domains are crawled in parallel.
func WithConcurrency(n int) Option {
	return func(c *config.Config) { c.Crawler.Concurrency = n }
}

// WithRequestTimeout bounds each individual page fetch.
func WithRequestTimeout(d time.Duration) Option {
	return func(c *config.Config) { c.Fetcher.RequestTimeout = d }
}

// WithUserAgents replaces the rotating User-Agent pool.
func WithUserAgents(agents ...string) Option {
	return func(c *config.Config) { c.Fetcher.UserAgents = agents }
}

// WithLogLevel sets the log level (debug, info, warn, error).
func WithLogLevel(level string) Option {
	return func(c *config.Config) { c.Logging.Level = level }
}

// Crawler runs crawls in-process.
type Crawler struct {
	cfg    *config.Config
	fetch  fetcher.Fetcher
	orch   *crawler.Orchestrator
	logger *slog.Logger
}

// NewCrawler builds an embedded crawler from default configuration plus the
// given options.
func NewCrawler(opts ...Option) (*Crawler, error) {
	cfg := config.DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}

	logger := observability.NewLogger(&cfg.Logging)
	f, err := fetcher.NewHTTPFetcher(&cfg.Fetcher, logger)
	if err != nil {
		return nil, err
	}
	return &Crawler{
		cfg:    cfg,
		fetch:  f,
		orch:   crawler.NewOrchestrator(f, cfg.Crawler.Concurrency, logger),
		logger: logger,
	}, nil
}

// Crawl fetches every requested domain and reports keyword matches.
func (c *Crawler) Crawl(ctx context.Context, req *CrawlRequest) (*CrawlResult, error) {
	return c.orch.Crawl(ctx, req)
}

// Close releases the underlying HTTP resources.
func (c *Crawler) Close() error {
	return c.fetch.Close()
}
