package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pagesift/pagesift/internal/types"
)

func newOrchestrator(t *testing.T) *Orchestrator {
	t.Helper()
	return NewOrchestrator(newTestFetcher(t), 4, testLogger)
}

func TestParseURLs(t *testing.T) {
	o := newOrchestrator(t)

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"bare domain gets https", "example.com", []string{"https://example.com"}},
		{"explicit scheme kept", "http://example.com", []string{"http://example.com"}},
		{"multiple targets", "a.example.com, b.example.com", []string{"https://a.example.com", "https://b.example.com"}},
		{"backticks stripped", "`example.com`", []string{"https://example.com"}},
		{"empty entries skipped", "example.com,,,", []string{"https://example.com"}},
		{"path preserved", "example.com/news?page=1", []string{"https://example.com/news?page=1"}},
		{"invalid entry skipped", "example.com,not a url", []string{"https://example.com"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := o.ParseURLs(tc.in)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(got) != len(tc.want) {
				t.Fatalf("got %d targets, want %d", len(got), len(tc.want))
			}
			for i := range got {
				if got[i].String() != tc.want[i] {
					t.Errorf("target %d = %q, want %q", i, got[i], tc.want[i])
				}
			}
		})
	}
}

func TestParseURLsNoneValid(t *testing.T) {
	o := newOrchestrator(t)

	for _, in := range []string{"", "   ", ",,,", "not a url"} {
		_, err := o.ParseURLs(in)
		if !errors.Is(err, types.ErrNoValidURLs) {
			t.Errorf("ParseURLs(%q) error = %v, want ErrNoValidURLs", in, err)
		}
	}

	_, err := o.ParseURLs("")
	if err.Error() != "Other error: No valid URLs provided" {
		t.Errorf("unexpected message: %q", err.Error())
	}
}

func TestOrchestratorCrawlAggregates(t *testing.T) {
	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>First</title></head><body><p>papaya here</p></body></html>`)
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><head><title>Second</title></head><body><p>no fruit</p></body></html>`)
	}))
	defer second.Close()

	o := newOrchestrator(t)
	result, err := o.Crawl(context.Background(), &types.CrawlRequest{
		URL:      first.URL + "," + second.URL,
		Keywords: []string{"papaya"},
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}

	if len(result.Results) != 2 {
		t.Fatalf("expected 2 domain results, got %d", len(result.Results))
	}
	// Results come back in request order.
	if result.Results[0].URL != first.URL || result.Results[1].URL != second.URL {
		t.Errorf("order lost: %q, %q", result.Results[0].URL, result.Results[1].URL)
	}
	if len(result.Results[0].Matches) != 1 {
		t.Errorf("first domain matches = %d", len(result.Results[0].Matches))
	}
	if len(result.Results[1].Matches) != 0 {
		t.Errorf("second domain matches = %d", len(result.Results[1].Matches))
	}
	if result.TotalPagesCrawled != 2 {
		t.Errorf("total pages = %d", result.TotalPagesCrawled)
	}
	if result.CrawlTimestamp == "" {
		t.Error("missing crawl timestamp")
	}
}

func TestOrchestratorCrawlDomainFailureIsIsolated(t *testing.T) {
	healthy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `<html><body><p>quince</p></body></html>`)
	}))
	defer healthy.Close()

	dead := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	deadURL := dead.URL
	dead.Close()

	o := newOrchestrator(t)
	result, err := o.Crawl(context.Background(), &types.CrawlRequest{
		URL:      deadURL + "," + healthy.URL,
		Keywords: []string{"quince"},
	})
	if err != nil {
		t.Fatalf("one bad domain must not fail the request: %v", err)
	}

	failed := result.Results[0]
	if failed.Error == nil {
		t.Fatal("expected an error entry for the dead domain")
	}
	if !strings.HasPrefix(*failed.Error, "Request error:") {
		t.Errorf("error = %q", *failed.Error)
	}
	if failed.Matches == nil || len(failed.Matches) != 0 {
		t.Errorf("failed domain matches = %v", failed.Matches)
	}
	if failed.PagesCrawled != 0 {
		t.Errorf("failed domain pages = %d", failed.PagesCrawled)
	}

	ok := result.Results[1]
	if ok.Error != nil {
		t.Errorf("healthy domain errored: %s", *ok.Error)
	}
	if len(ok.Matches) != 1 {
		t.Errorf("healthy domain matches = %d", len(ok.Matches))
	}
	if result.TotalPagesCrawled != 1 {
		t.Errorf("total pages = %d", result.TotalPagesCrawled)
	}
}

func TestOrchestratorCrawlInvalidDateWindow(t *testing.T) {
	o := newOrchestrator(t)

	_, err := o.Crawl(context.Background(), &types.CrawlRequest{
		URL:      "example.com",
		Keywords: []string{"kw"},
		DateFrom: strPtr("15-01-2024"),
	})
	if err == nil {
		t.Fatal("expected an error for a malformed bound")
	}
	var dpe *types.DateParseError
	if !errors.As(err, &dpe) {
		t.Fatalf("expected DateParseError, got %T", err)
	}

	_, err = o.Crawl(context.Background(), &types.CrawlRequest{
		URL:      "example.com",
		Keywords: []string{"kw"},
		DateFrom: strPtr("2024-06-01"),
		DateTo:   strPtr("2024-01-01"),
	})
	if err == nil || err.Error() != "Date parsing error: date_from cannot be after date_to" {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestOrchestratorCrawlNoValidURLs(t *testing.T) {
	o := newOrchestrator(t)

	_, err := o.Crawl(context.Background(), &types.CrawlRequest{
		URL:      "```",
		Keywords: []string{"kw"},
	})
	if !errors.Is(err, types.ErrNoValidURLs) {
		t.Fatalf("expected ErrNoValidURLs, got %v", err)
	}
}

func TestOrchestratorSingleWorkerStillCoversAllDomains(t *testing.T) {
	var hits [3]*httptest.Server
	for i := range hits {
		hits[i] = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, `<html><body><p>melon</p></body></html>`)
		}))
		defer hits[i].Close()
	}

	o := NewOrchestrator(newTestFetcher(t), 1, testLogger)
	result, err := o.Crawl(context.Background(), &types.CrawlRequest{
		URL:      hits[0].URL + "," + hits[1].URL + "," + hits[2].URL,
		Keywords: []string{"melon"},
	})
	if err != nil {
		t.Fatalf("crawl: %v", err)
	}
	if result.TotalPagesCrawled != 3 {
		t.Errorf("total pages = %d", result.TotalPagesCrawled)
	}
	for i, dr := range result.Results {
		if dr.URL != hits[i].URL {
			t.Errorf("result %d out of order: %q", i, dr.URL)
		}
	}
}
