package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/pagesift/pagesift/internal/fetcher"
	"github.com/pagesift/pagesift/internal/types"
)

// Orchestrator fans a multi-URL crawl request out to per-domain crawls over
// a bounded pool of workers.
type Orchestrator struct {
	crawler *DomainCrawler
	logger  *slog.Logger
	workers int
}

// NewOrchestrator builds an orchestrator running at most workers domain
// crawls concurrently. A worker count below one runs domains sequentially.
func NewOrchestrator(f fetcher.Fetcher, workers int, logger *slog.Logger) *Orchestrator {
	if workers < 1 {
		workers = 1
	}
	return &Orchestrator{
		crawler: NewDomainCrawler(f, logger),
		logger:  logger.With("component", "orchestrator"),
		workers: workers,
	}
}

// ParseURLs splits the request's comma separated URL list into crawl
// targets. Entries get stray backticks stripped, whitespace trimmed and an
// https scheme prefixed when none is present. Unparseable entries are
// logged and skipped; an input yielding no usable target at all is an
// error.
func (o *Orchestrator) ParseURLs(raw string) ([]*url.URL, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), "`", "")
	var targets []*url.URL
	for _, part := range strings.Split(cleaned, ",") {
		entry := strings.TrimSpace(part)
		if entry == "" {
			continue
		}
		candidate := entry
		if !strings.HasPrefix(candidate, "http://") && !strings.HasPrefix(candidate, "https://") {
			candidate = "https://" + candidate
		}
		u, err := url.Parse(candidate)
		if err != nil || u.Host == "" {
			o.logger.Warn("skipping unparseable URL", "entry", entry, "error", err)
			continue
		}
		targets = append(targets, u)
	}
	if len(targets) == 0 {
		return nil, types.ErrNoValidURLs
	}
	return targets, nil
}

// Crawl validates the request, then crawls every target and aggregates the
// outcomes in request order. A failing domain becomes an error entry in the
// result; only an invalid date window or an empty target list fail the
// whole request.
func (o *Orchestrator) Crawl(ctx context.Context, req *types.CrawlRequest) (*types.CrawlResult, error) {
	start := time.Now()

	from, to := req.Window()
	filter, err := NewDateFilter(from, to)
	if err != nil {
		return nil, err
	}
	targets, err := o.ParseURLs(req.URL)
	if err != nil {
		return nil, err
	}

	o.logger.Info("starting crawl",
		"domains", len(targets), "keywords", len(req.Keywords),
		"max_pages", req.PageBudget(), "paginate", req.Paginate())

	results := make([]types.DomainResult, len(targets))
	jobs := make(chan int)
	workers := o.workers
	if workers > len(targets) {
		workers = len(targets)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				target := targets[idx]
				res, err := o.crawler.Crawl(ctx, target, req, filter, start)
				if err != nil {
					o.logger.Warn("domain crawl failed",
						"url", target.String(), "kind", types.ErrorKind(err), "error", err)
					msg := err.Error()
					results[idx] = types.DomainResult{
						URL:     target.String(),
						Matches: []types.KeywordMatch{},
						Error:   &msg,
					}
					continue
				}
				results[idx] = *res
			}
		}()
	}
	for i := range targets {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	total := 0
	for i := range results {
		total += results[i].PagesCrawled
	}

	o.logger.Info("crawl finished",
		"domains", len(targets), "pages", total,
		"elapsed_ms", time.Since(start).Milliseconds())

	return &types.CrawlResult{
		Results:               results,
		TotalPagesCrawled:     total,
		TotalProcessingTimeMs: time.Since(start).Milliseconds(),
		CrawlTimestamp:        strconv.FormatInt(time.Now().Unix(), 10),
	}, nil
}
