package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/crawler"
	"github.com/pagesift/pagesift/internal/fetcher"
	"github.com/pagesift/pagesift/internal/observability"
	"github.com/pagesift/pagesift/internal/storage"
	"github.com/pagesift/pagesift/internal/types"
)

var (
	crawlKeywords   []string
	crawlMaxPages   int
	crawlMaxTime    int64
	crawlMaxDepth   int
	crawlPagination bool
	crawlDateFrom   string
	crawlDateTo     string
	crawlOutput     string
)

// crawlCmd creates the "crawl" subcommand for one-shot crawls without a
// server.
func crawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [url...]",
		Short: "Crawl URLs for keywords and print the result as JSON",
		Long: `Crawl one or more URLs for the given keywords.

Each URL is crawled independently. Pagination links are followed until the
page, depth or time budget runs out. The aggregated result is written as JSON
to stdout or to --output.`,
		Args: cobra.MinimumNArgs(1),
		RunE: runCrawl,
	}

	cmd.Flags().StringSliceVarP(&crawlKeywords, "keyword", "k", nil, "keyword to search for (repeatable)")
	cmd.Flags().IntVarP(&crawlMaxPages, "max-pages", "m", 0, "maximum pages per domain (0 = default of 10)")
	cmd.Flags().Int64Var(&crawlMaxTime, "max-time", 0, "time budget in seconds (0 = unlimited)")
	cmd.Flags().IntVarP(&crawlMaxDepth, "max-depth", "d", -1, "maximum pagination depth (-1 = unlimited)")
	cmd.Flags().BoolVar(&crawlPagination, "follow-pagination", true, "follow pagination links")
	cmd.Flags().StringVar(&crawlDateFrom, "date-from", "", "only include pages dated on or after this date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&crawlDateTo, "date-to", "", "only include pages dated on or before this date (YYYY-MM-DD)")
	cmd.Flags().StringVarP(&crawlOutput, "output", "o", "", "output file path (default stdout)")

	return cmd
}

func runCrawl(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if len(crawlKeywords) == 0 {
		return fmt.Errorf("at least one keyword is required (use --keyword)")
	}

	logger := observability.NewLogger(&cfg.Logging)

	httpFetcher, err := fetcher.NewHTTPFetcher(&cfg.Fetcher, logger)
	if err != nil {
		return fmt.Errorf("create fetcher: %w", err)
	}
	defer httpFetcher.Close()

	orch := crawler.NewOrchestrator(httpFetcher, cfg.Crawler.Concurrency, logger)

	req := &types.CrawlRequest{
		URL:              strings.Join(args, ","),
		Keywords:         crawlKeywords,
		FollowPagination: &crawlPagination,
	}
	if crawlMaxPages > 0 {
		req.MaxPages = &crawlMaxPages
	}
	if crawlMaxTime > 0 {
		req.MaxTimeSeconds = &crawlMaxTime
	}
	if crawlMaxDepth >= 0 {
		req.MaxDepth = &crawlMaxDepth
	}
	if crawlDateFrom != "" {
		req.DateFrom = &crawlDateFrom
	}
	if crawlDateTo != "" {
		req.DateTo = &crawlDateTo
	}

	start := time.Now()
	result, err := orch.Crawl(cmd.Context(), req)
	if err != nil {
		return err
	}

	if err := storage.WriteJSON(crawlOutput, result); err != nil {
		return fmt.Errorf("write output: %w", err)
	}

	var matches int
	for _, domain := range result.Results {
		matches += len(domain.Matches)
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "\n✅ Crawl complete in %s\n", time.Since(start).Round(time.Millisecond))
	fmt.Fprintf(cmd.ErrOrStderr(), "   Domains:  %d\n", len(result.Results))
	fmt.Fprintf(cmd.ErrOrStderr(), "   Pages:    %d\n", result.TotalPagesCrawled)
	fmt.Fprintf(cmd.ErrOrStderr(), "   Matches:  %d\n", matches)

	return nil
}
