package crawler

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pagesift/pagesift/internal/fetcher"
	"github.com/pagesift/pagesift/internal/types"
)

// pageSeparator joins the cleaned texts of successive pages of one domain.
const pageSeparator = "\n\n--- Next Page ---\n\n"

// timeoutContext marks a match that was cut short by the time budget.
const timeoutContext = "Time limit reached during processing"

// DomainCrawler runs the fetch, filter, match and paginate loop for a
// single domain.
type DomainCrawler struct {
	fetcher   fetcher.Fetcher
	extractor *PageExtractor
	logger    *slog.Logger
}

func NewDomainCrawler(f fetcher.Fetcher, logger *slog.Logger) *DomainCrawler {
	return &DomainCrawler{
		fetcher:   f,
		extractor: NewPageExtractor(logger),
		logger:    logger.With("component", "domain_crawler"),
	}
}

// domainState is the accumulator for one domain crawl.
type domainState struct {
	current      *url.URL
	visited      map[string]struct{}
	depth        int
	pagesCrawled int
	titleTaken   bool
	title        string
	pageTexts    []string
	matches      []types.KeywordMatch
	lastModified string
	published    string
	hasMore      bool
	start        time.Time
}

func newDomainState(base *url.URL) *domainState {
	return &domainState{
		current: base,
		visited: map[string]struct{}{base.String(): {}},
		matches: []types.KeywordMatch{},
		start:   time.Now(),
	}
}

// Crawl walks one domain from its base URL until a budget runs out, no next
// page exists or a page repeats. Pages outside the request's date window
// still count against the page budget but contribute no content or matches.
// requestStart anchors the elapsed time reported in the result metadata.
func (c *DomainCrawler) Crawl(ctx context.Context, base *url.URL, req *types.CrawlRequest, filter *DateFilter, requestStart time.Time) (*types.DomainResult, error) {
	st := newDomainState(base)
	limit, hasLimit := req.TimeBudget()
	maxPages := req.PageBudget()
	maxDepth, hasDepth := req.DepthBudget()

	for {
		if hasLimit && time.Since(st.start) > limit {
			st.hasMore = true
			break
		}
		if st.pagesCrawled >= maxPages {
			st.hasMore = true
			break
		}

		pageURL := st.current.String()
		c.logger.Debug("fetching page", "url", pageURL, "depth", st.depth)

		fetchCtx := ctx
		var cancel context.CancelFunc
		if hasLimit {
			fetchCtx, cancel = context.WithTimeout(ctx, limit-time.Since(st.start))
		}
		resp, err := c.fetcher.Fetch(fetchCtx, pageURL)
		if cancel != nil {
			cancel()
		}
		if err != nil {
			return nil, err
		}
		rawHTML := string(resp.Body)

		page, err := ParsePage(rawHTML)
		if err != nil {
			return nil, err
		}

		lastModified, published := c.extractor.Dates(page)
		st.lastModified, st.published = lastModified, published

		if !filter.Matches(lastModified, published) {
			c.logger.Debug("page outside date window", "url", pageURL,
				"last_modified", lastModified, "published", published)
			st.pagesCrawled++
			if !c.advance(req, page, st, maxDepth, hasDepth) {
				break
			}
			continue
		}

		if !st.titleTaken {
			title, err := c.extractor.Title(page)
			if err != nil {
				return nil, err
			}
			st.title = title
			st.titleTaken = true
		}

		if err := c.scanPage(rawHTML, pageURL, req.Keywords, st, limit, hasLimit); err != nil {
			return nil, err
		}
		st.pageTexts = append(st.pageTexts, CleanText(rawHTML))
		st.pagesCrawled++

		if !c.advance(req, page, st, maxDepth, hasDepth) {
			break
		}
	}

	return c.result(base, st, requestStart), nil
}

// advance moves the crawl to the next page. It returns false when the crawl
// should stop here: pagination disabled, no next link, the link already
// visited, or the depth budget spent.
func (c *DomainCrawler) advance(req *types.CrawlRequest, page *ParsedPage, st *domainState, maxDepth int, hasDepth bool) bool {
	if !req.Paginate() {
		return false
	}
	next, ok := c.extractor.NextPageURL(page, st.current)
	if !ok {
		return false
	}
	key := next.String()
	if _, seen := st.visited[key]; seen {
		c.logger.Debug("next page already visited", "url", key)
		return false
	}
	if hasDepth && st.depth >= maxDepth {
		st.hasMore = true
		return false
	}
	st.visited[key] = struct{}{}
	st.current = next
	st.depth++
	return true
}

// scanPage records keyword occurrences in the raw markup of one page.
// Matching runs on the lowercased markup; context windows are cut from the
// original. On budget expiry mid scan a truncated match marks the cut and
// the timeout surfaces to fail the domain.
func (c *DomainCrawler) scanPage(rawHTML, pageURL string, keywords []string, st *domainState, limit time.Duration, hasLimit bool) error {
	lower := strings.ToLower(rawHTML)
	for _, keyword := range keywords {
		if hasLimit && time.Since(st.start) > limit {
			return types.ErrTimeout
		}
		needle := strings.ToLower(strings.TrimSpace(keyword))
		if needle == "" {
			continue
		}
		idxs := matchIndices(lower, needle)
		if len(idxs) == 0 {
			continue
		}
		contexts := make([]string, 0, len(idxs))
		for _, idx := range idxs {
			if hasLimit && time.Since(st.start) > limit {
				st.matches = append(st.matches, types.KeywordMatch{
					Keyword:     keyword,
					Context:     timeoutContext,
					CleanedText: CleanText(timeoutContext),
					Count:       len(idxs),
					SourceURL:   pageURL,
				})
				return types.ErrTimeout
			}
			contexts = append(contexts, contextWindow(rawHTML, idx, len(needle)))
		}
		context := strings.Join(contexts, contextSeparator)
		st.matches = append(st.matches, types.KeywordMatch{
			Keyword:        keyword,
			Context:        context,
			CleanedText:    CleanText(context),
			Count:          len(idxs),
			RelevanceScore: relevanceScore(keyword, context),
			SourceURL:      pageURL,
		})
	}
	return nil
}

func (c *DomainCrawler) result(base *url.URL, st *domainState, requestStart time.Time) *types.DomainResult {
	meta := &types.CrawlMetadata{
		CrawlTimestamp:        strconv.FormatInt(time.Now().Unix(), 10),
		TotalProcessingTimeMs: time.Since(requestStart).Milliseconds(),
		ContentSummary:        optString(st.title),
		LastModified:          optString(st.lastModified),
		PublishedDate:         optString(st.published),
	}
	return &types.DomainResult{
		URL:          base.String(),
		Title:        optString(st.title),
		Content:      strings.Join(st.pageTexts, pageSeparator),
		Matches:      st.matches,
		PagesCrawled: st.pagesCrawled,
		HasMorePages: st.hasMore,
		Metadata:     meta,
	}
}

func optString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
