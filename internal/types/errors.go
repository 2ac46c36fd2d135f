package types

import (
	"errors"
	"fmt"
)

// Sentinel errors used across the crawler.
var (
	// ErrTimeout reports that a domain crawl ran past its wall-clock budget.
	ErrTimeout = errors.New("Timeout error: Crawling exceeded the time limit")

	// ErrNoValidURLs reports that every entry of the request URL list was
	// empty or unparseable.
	ErrNoValidURLs error = &OtherError{Err: errors.New("No valid URLs provided")}
)

// FetchError wraps a transport failure while getting a page.
type FetchError struct {
	URL string
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("Request error: %v", e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// URLError reports a crawl target that could not be parsed.
type URLError struct {
	Input string
	Err   error
}

func (e *URLError) Error() string {
	return fmt.Sprintf("Invalid URL: %v", e.Err)
}

func (e *URLError) Unwrap() error { return e.Err }

// SelectorError reports a document query that could not be evaluated.
type SelectorError struct {
	Expr string
	Err  error
}

func (e *SelectorError) Error() string {
	return fmt.Sprintf("Selector error: %v", e.Err)
}

func (e *SelectorError) Unwrap() error { return e.Err }

// DateParseError reports an invalid date bound on a crawl request, either an
// unreadable value or an inverted range.
type DateParseError struct {
	Value string // offending input, empty for range violations
	Err   error
}

func (e *DateParseError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("Date parsing error: Invalid date format '%s': %v", e.Value, e.Err)
	}
	return fmt.Sprintf("Date parsing error: %v", e.Err)
}

func (e *DateParseError) Unwrap() error { return e.Err }

// StorageError wraps a persistence failure with the backend that caused it.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// OtherError is the catch-all for failures outside the named kinds.
type OtherError struct {
	Err error
}

func (e *OtherError) Error() string {
	return fmt.Sprintf("Other error: %v", e.Err)
}

func (e *OtherError) Unwrap() error { return e.Err }

// ErrorKind labels an error for logs and metrics.
func ErrorKind(err error) string {
	var fetchErr *FetchError
	var urlErr *URLError
	var selErr *SelectorError
	var dateErr *DateParseError
	var storeErr *StorageError

	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.As(err, &fetchErr):
		return "request"
	case errors.As(err, &urlErr):
		return "url"
	case errors.As(err, &selErr):
		return "selector"
	case errors.As(err, &dateErr):
		return "date"
	case errors.As(err, &storeErr):
		return "storage"
	default:
		return "other"
	}
}
