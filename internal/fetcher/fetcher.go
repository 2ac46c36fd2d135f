package fetcher

import (
	"context"
	"net/http"
	"time"
)

// Fetcher retrieves single pages over the network.
type Fetcher interface {
	// Fetch retrieves the content at the given URL. The context bounds the
	// whole exchange.
	Fetch(ctx context.Context, rawURL string) (*Response, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

// Response is one fetched page. Body is fully read and decompressed.
type Response struct {
	URL        string
	StatusCode int
	Headers    http.Header
	Body       []byte
	Duration   time.Duration
}

// IsSuccess reports whether the status code is in the 2xx range.
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}
