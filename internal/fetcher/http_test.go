package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/andybalholm/brotli"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func testConfig() *config.FetcherConfig {
	cfg := config.DefaultConfig()
	cfg.Fetcher.RequestTimeout = 10 * time.Second
	return &cfg.Fetcher
}

func newFetcher(t *testing.T, cfg *config.FetcherConfig) *HTTPFetcher {
	t.Helper()
	f, err := NewHTTPFetcher(cfg, testLogger)
	if err != nil {
		t.Fatalf("fetcher: %v", err)
	}
	t.Cleanup(func() { f.Close() })
	return f
}

func TestFetchPlainBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "hello crawler")
	}))
	defer srv.Close()

	f := newFetcher(t, testConfig())
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(resp.Body) != "hello crawler" {
		t.Errorf("body = %q", resp.Body)
	}
	if resp.StatusCode != http.StatusOK {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if !resp.IsSuccess() {
		t.Error("200 should be a success")
	}
	if resp.Duration <= 0 {
		t.Error("missing duration")
	}
}

func TestFetchErrorStatusYieldsResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, "try later")
	}))
	defer srv.Close()

	f := newFetcher(t, testConfig())
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("an error status is not a fetch failure: %v", err)
	}
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Errorf("status = %d", resp.StatusCode)
	}
	if resp.IsSuccess() {
		t.Error("503 should not be a success")
	}
	if string(resp.Body) != "try later" {
		t.Errorf("body = %q", resp.Body)
	}
}

func TestFetchDecompression(t *testing.T) {
	const payload = "compressed page body for the decompression round trip"

	t.Run("gzip", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !strings.Contains(r.Header.Get("Accept-Encoding"), "gzip") {
				t.Error("expected gzip offered in Accept-Encoding")
			}
			w.Header().Set("Content-Encoding", "gzip")
			zw := gzip.NewWriter(w)
			zw.Write([]byte(payload))
			zw.Close()
		}))
		defer srv.Close()

		f := newFetcher(t, testConfig())
		resp, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if string(resp.Body) != payload {
			t.Errorf("body = %q", resp.Body)
		}
	})

	t.Run("deflate", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "deflate")
			fw, _ := flate.NewWriter(w, flate.DefaultCompression)
			fw.Write([]byte(payload))
			fw.Close()
		}))
		defer srv.Close()

		f := newFetcher(t, testConfig())
		resp, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if string(resp.Body) != payload {
			t.Errorf("body = %q", resp.Body)
		}
	})

	t.Run("brotli", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Encoding", "br")
			bw := brotli.NewWriter(w)
			bw.Write([]byte(payload))
			bw.Close()
		}))
		defer srv.Close()

		f := newFetcher(t, testConfig())
		resp, err := f.Fetch(context.Background(), srv.URL)
		if err != nil {
			t.Fatalf("fetch: %v", err)
		}
		if string(resp.Body) != payload {
			t.Errorf("body = %q", resp.Body)
		}
	})
}

func TestFetchFollowsRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landed", http.StatusFound)
	})
	mux.HandleFunc("/landed", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "made it")
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	f := newFetcher(t, testConfig())
	resp, err := f.Fetch(context.Background(), srv.URL+"/start")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if string(resp.Body) != "made it" {
		t.Errorf("body = %q", resp.Body)
	}
	if !strings.HasSuffix(resp.URL, "/landed") {
		t.Errorf("final url = %q", resp.URL)
	}
}

func TestFetchRedirectsDisabled(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/start", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/landed", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.FollowRedirects = false

	f := newFetcher(t, cfg)
	resp, err := f.Fetch(context.Background(), srv.URL+"/start")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if resp.StatusCode != http.StatusFound {
		t.Errorf("status = %d, want the redirect itself", resp.StatusCode)
	}
	if loc := resp.Headers.Get("Location"); loc != "/landed" {
		t.Errorf("location = %q", loc)
	}
}

func TestFetchMaxRedirects(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/hop/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxRedirects = 3

	f := newFetcher(t, cfg)
	_, err := f.Fetch(context.Background(), srv.URL+"/hop/")
	if err == nil {
		t.Fatal("expected an error once the redirect limit is hit")
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
}

func TestFetchBodySizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, strings.Repeat("x", 4096))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxBodySize = 1024

	f := newFetcher(t, cfg)
	resp, err := f.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(resp.Body) != 1024 {
		t.Errorf("body length = %d, want the configured cap", len(resp.Body))
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	target := srv.URL
	srv.Close()

	f := newFetcher(t, testConfig())
	_, err := f.Fetch(context.Background(), target)
	if err == nil {
		t.Fatal("expected a transport error")
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
	if !strings.HasPrefix(err.Error(), "Request error:") {
		t.Errorf("message = %q", err.Error())
	}
}

func TestFetchRotatesUserAgents(t *testing.T) {
	seen := make(map[string]bool)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen[r.UserAgent()] = true
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.UserAgents = []string{"agent-a", "agent-b"}

	f := newFetcher(t, cfg)
	for i := 0; i < 4; i++ {
		if _, err := f.Fetch(context.Background(), srv.URL); err != nil {
			t.Fatalf("fetch %d: %v", i, err)
		}
	}

	if !seen["agent-a"] || !seen["agent-b"] {
		t.Errorf("expected both agents used, saw %v", seen)
	}
	if len(seen) != 2 {
		t.Errorf("unexpected agents: %v", seen)
	}
}

func TestFetchContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	f := newFetcher(t, testConfig())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := f.Fetch(ctx, srv.URL)
	if err == nil {
		t.Fatal("expected a context error")
	}
	var fe *types.FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FetchError, got %T", err)
	}
}
