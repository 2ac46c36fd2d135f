package pagesift

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientHealth(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, "API is running")
	}))
	defer srv.Close()

	// A trailing slash on the base URL must not double up in request paths.
	client := NewClient(srv.URL + "/")
	if err := client.Health(context.Background()); err != nil {
		t.Errorf("Health: %v", err)
	}
}

func TestClientHealthDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	err := NewClient(srv.URL).Health(context.Background())
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "health check failed") {
		t.Errorf("error = %v", err)
	}
}

func TestClientCrawl(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/crawl" {
			t.Errorf("got %s %s", r.Method, r.URL.Path)
		}
		var req CrawlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.URL != "example.com" {
			t.Errorf("url = %q", req.URL)
		}
		json.NewEncoder(w).Encode(CrawlResult{TotalPagesCrawled: 3})
	}))
	defer srv.Close()

	result, err := NewClient(srv.URL).Crawl(context.Background(), &CrawlRequest{
		URL:      "example.com",
		Keywords: []string{"go"},
	})
	if err != nil {
		t.Fatalf("Crawl: %v", err)
	}
	if result.TotalPagesCrawled != 3 {
		t.Errorf("pages = %d", result.TotalPagesCrawled)
	}
}

func TestClientCrawlTimeoutBody(t *testing.T) {
	// Timeouts come back as 200 with an error body; the client surfaces
	// them as errors anyway.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"error": "Crawling exceeded the time limit"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Crawl(context.Background(), &CrawlRequest{URL: "x", Keywords: []string{"kw"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "crawl failed: Crawling exceeded the time limit" {
		t.Errorf("error = %v", err)
	}
}

func TestClientCrawlRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		io.WriteString(w, `{"error": "Other error: No valid URLs provided"}`)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Crawl(context.Background(), &CrawlRequest{URL: "```", Keywords: []string{"kw"}})
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "status 400: Other error: No valid URLs provided" {
		t.Errorf("error = %v", err)
	}
}

func TestClientUserRoundTrip(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		var req struct{ Name, Email string }
		json.NewDecoder(r.Body).Decode(&req)
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]any{
			"success": true,
			"message": nil,
			"data":    User{ID: 1, Name: req.Name, Email: req.Email},
		})
	})
	mux.HandleFunc("GET /users/7", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]any{
			"success": false,
			"message": "Not found: user 7",
			"data":    nil,
		})
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewClient(srv.URL)

	user, err := client.CreateUser(context.Background(), "Ada", "ada@example.com")
	if err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	if user.ID != 1 || user.Name != "Ada" {
		t.Errorf("user = %+v", user)
	}

	_, err = client.GetUser(context.Background(), 7)
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "status 404: Not found: user 7" {
		t.Errorf("error = %v", err)
	}
}
