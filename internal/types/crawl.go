package types

import "time"

// Default crawl budgets applied when the request leaves them unset.
const (
	DefaultMaxPages = 10
)

// CrawlRequest is the payload accepted by the crawl endpoint. URL may name
// several targets separated by commas; keywords are matched independently
// against every fetched page.
type CrawlRequest struct {
	URL              string   `json:"url"`
	Keywords         []string `json:"keywords"`
	MaxDepth         *int     `json:"max_depth,omitempty"`
	MaxTimeSeconds   *int64   `json:"max_time_seconds,omitempty"`
	FollowPagination *bool    `json:"follow_pagination,omitempty"`
	MaxPages         *int     `json:"max_pages,omitempty"`
	DateFrom         *string  `json:"date_from,omitempty"`
	DateTo           *string  `json:"date_to,omitempty"`
}

// PageBudget returns the per-domain page limit, defaulting when unset.
func (r *CrawlRequest) PageBudget() int {
	if r.MaxPages == nil {
		return DefaultMaxPages
	}
	return *r.MaxPages
}

// TimeBudget returns the per-domain wall-clock limit. The second return is
// false when the request carries no limit.
func (r *CrawlRequest) TimeBudget() (time.Duration, bool) {
	if r.MaxTimeSeconds == nil {
		return 0, false
	}
	return time.Duration(*r.MaxTimeSeconds) * time.Second, true
}

// DepthBudget returns the maximum number of pagination hops from the seed
// page. The second return is false when the request carries no limit.
func (r *CrawlRequest) DepthBudget() (int, bool) {
	if r.MaxDepth == nil {
		return 0, false
	}
	return *r.MaxDepth, true
}

// Paginate reports whether next-page links should be followed.
func (r *CrawlRequest) Paginate() bool {
	return r.FollowPagination != nil && *r.FollowPagination
}

// Window returns the raw date bounds, empty when unset.
func (r *CrawlRequest) Window() (from, to string) {
	if r.DateFrom != nil {
		from = *r.DateFrom
	}
	if r.DateTo != nil {
		to = *r.DateTo
	}
	return from, to
}

// KeywordMatch records every occurrence of one keyword on one page. Context
// holds the raw surrounding markup of each occurrence joined by "\n...\n";
// CleanedText is the same material reduced to readable text.
type KeywordMatch struct {
	Keyword        string  `json:"keyword"`
	Context        string  `json:"context"`
	CleanedText    string  `json:"cleaned_text"`
	Count          int     `json:"count"`
	RelevanceScore float64 `json:"relevance_score"`
	SourceURL      string  `json:"source_url"`
}

// CrawlMetadata summarizes one domain crawl. Timestamps are unix seconds
// rendered as strings; the date fields carry whatever the last processed
// page exposed.
type CrawlMetadata struct {
	CrawlTimestamp        string  `json:"crawl_timestamp"`
	TotalProcessingTimeMs int64   `json:"total_processing_time_ms"`
	ContentSummary        *string `json:"content_summary,omitempty"`
	LastModified          *string `json:"last_modified,omitempty"`
	PublishedDate         *string `json:"published_date,omitempty"`
}

// DomainResult is the outcome for a single requested URL. A failed domain
// carries only URL and Error; content and matches stay empty.
type DomainResult struct {
	URL          string         `json:"url"`
	Title        *string        `json:"title,omitempty"`
	Content      string         `json:"content"`
	Matches      []KeywordMatch `json:"matches"`
	PagesCrawled int            `json:"pages_crawled"`
	HasMorePages bool           `json:"has_more_pages"`
	Metadata     *CrawlMetadata `json:"metadata,omitempty"`
	Error        *string        `json:"error,omitempty"`
}

// CrawlResult aggregates the per-domain outcomes of one request in request
// order.
type CrawlResult struct {
	Results               []DomainResult `json:"results"`
	TotalPagesCrawled     int            `json:"total_pages_crawled"`
	TotalProcessingTimeMs int64          `json:"total_processing_time_ms"`
	CrawlTimestamp        string         `json:"crawl_timestamp"`
}
