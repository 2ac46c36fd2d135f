package social

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"testing"
	"time"

	"github.com/pagesift/pagesift/internal/config"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

// capture records the last upstream request a test server received.
type capture struct {
	method string
	path   string
	query  url.Values
	header http.Header
	body   []byte
}

func captureServer(reply string) (*httptest.Server, *capture) {
	rec := &capture{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.method = r.Method
		rec.path = r.URL.Path
		rec.query = r.URL.Query()
		rec.header = r.Header.Clone()
		rec.body, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, reply)
	}))
	return srv, rec
}

func newTestClient(tikhubToken, rapidKey string) *Client {
	cfg := &config.SocialConfig{
		TikHubToken:    tikhubToken,
		RapidAPIKey:    rapidKey,
		RequestTimeout: 5 * time.Second,
	}
	return NewClient(cfg, testLogger)
}

func TestTikHubTwitterMissingToken(t *testing.T) {
	c := newTestClient("", "")
	_, err := c.TikHubTwitter(context.Background(), &Request{Path: "fetch_search_timeline"})
	if !errors.Is(err, ErrMissingTikHubToken) {
		t.Fatalf("expected missing token error, got %v", err)
	}
	if err.Error() != "Missing TIKHUB_TOKEN in environment" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestRapidAPIMissingKey(t *testing.T) {
	c := newTestClient("", "")
	_, err := c.RapidAPIInstagram(context.Background(), &Request{Path: "v1/info"})
	if !errors.Is(err, ErrMissingRapidAPIKey) {
		t.Fatalf("expected missing key error, got %v", err)
	}
	if err.Error() != "Missing RAPIDAPI_KEY in environment" {
		t.Errorf("message = %q", err.Error())
	}
}

func TestTikHubTwitterSearch(t *testing.T) {
	srv, rec := captureServer(`{"tweets":[]}`)
	defer srv.Close()

	c := newTestClient("tok-123", "")
	c.SetBaseURLs(srv.URL+"/api/v1/", "")

	res, err := c.TikHubTwitter(context.Background(), &Request{
		Path:   "fetch_search_timeline",
		Params: map[string]any{"q": "golang", "cursor": "abc"},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}

	if rec.method != http.MethodGet {
		t.Errorf("method = %s", rec.method)
	}
	if rec.path != "/api/v1/twitter/web/fetch_search_timeline" {
		t.Errorf("path = %s", rec.path)
	}
	// q is normalized to keyword and search_type gets its default.
	if got := rec.query.Get("keyword"); got != "golang" {
		t.Errorf("keyword = %q", got)
	}
	if rec.query.Has("q") {
		t.Error("q should not be forwarded")
	}
	if got := rec.query.Get("search_type"); got != "Top" {
		t.Errorf("search_type = %q", got)
	}
	if got := rec.query.Get("cursor"); got != "abc" {
		t.Errorf("cursor = %q", got)
	}
	if got := rec.header.Get("Authorization"); got != "Bearer tok-123" {
		t.Errorf("authorization = %q", got)
	}

	if !res.IsJSON {
		t.Error("expected JSON result")
	}
	if res.Status != http.StatusOK {
		t.Errorf("status = %d", res.Status)
	}
	if string(res.Data) != `{"tweets":[]}` {
		t.Errorf("data = %s", res.Data)
	}
}

func TestTikHubTwitterKeywordKept(t *testing.T) {
	srv, rec := captureServer(`{}`)
	defer srv.Close()

	c := newTestClient("tok", "")
	c.SetBaseURLs(srv.URL+"/", "")

	_, err := c.TikHubTwitter(context.Background(), &Request{
		Path:   "fetch_search_timeline",
		Params: map[string]any{"keyword": "direct", "search_type": "Latest"},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if got := rec.query.Get("keyword"); got != "direct" {
		t.Errorf("keyword = %q", got)
	}
	if got := rec.query.Get("search_type"); got != "Latest" {
		t.Errorf("search_type = %q, explicit value must win", got)
	}
}

func TestTikHubTikTokDefaults(t *testing.T) {
	srv, rec := captureServer(`{}`)
	defer srv.Close()

	c := newTestClient("tok", "")
	c.SetBaseURLs(srv.URL+"/", "")

	_, err := c.TikHubTikTok(context.Background(), &Request{
		Path:   "fetch_search_video",
		Params: map[string]any{"q": "dance"},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if rec.path != "/tiktok/web/fetch_search_video" {
		t.Errorf("path = %s", rec.path)
	}
	if got := rec.query.Get("keyword"); got != "dance" {
		t.Errorf("keyword = %q", got)
	}
	if got := rec.query.Get("count"); got != "20" {
		t.Errorf("count = %q", got)
	}
	if got := rec.query.Get("offset"); got != "0" {
		t.Errorf("offset = %q", got)
	}
}

func TestTikHubGenericPassthrough(t *testing.T) {
	srv, rec := captureServer(`{}`)
	defer srv.Close()

	c := newTestClient("tok", "")
	c.SetBaseURLs(srv.URL+"/", "")

	_, err := c.TikHubGeneric(context.Background(), &GenericRequest{
		Service: "douyin/web",
		Path:    "fetch_user_profile",
		Params:  map[string]any{"sec_uid": "xyz", "count": 5},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if rec.path != "/douyin/web/fetch_user_profile" {
		t.Errorf("path = %s", rec.path)
	}
	if got := rec.query.Get("sec_uid"); got != "xyz" {
		t.Errorf("sec_uid = %q", got)
	}
	// Non-string params are rendered in their JSON form.
	if got := rec.query.Get("count"); got != "5" {
		t.Errorf("count = %q", got)
	}
}

func TestRapidAPIInstagramHeaders(t *testing.T) {
	srv, rec := captureServer(`{"user":{}}`)
	defer srv.Close()

	c := newTestClient("", "rapid-key")
	c.SetBaseURLs("", srv.URL+"/")

	res, err := c.RapidAPIInstagram(context.Background(), &Request{
		Path:   "v1/info",
		Params: map[string]any{"username_or_id_or_url": "gopher"},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}

	if rec.path != "/instagram-scraper-api2.p.rapidapi.com/v1/info" {
		t.Errorf("path = %s", rec.path)
	}
	if got := rec.header.Get("x-rapidapi-key"); got != "rapid-key" {
		t.Errorf("key header = %q", got)
	}
	if got := rec.header.Get("x-rapidapi-host"); got != "instagram-scraper-api2.p.rapidapi.com" {
		t.Errorf("host header = %q", got)
	}
	if !res.IsJSON {
		t.Error("expected JSON result")
	}
}

func TestRapidAPIGenericHost(t *testing.T) {
	srv, rec := captureServer(`{}`)
	defer srv.Close()

	c := newTestClient("", "rapid-key")
	c.SetBaseURLs("", srv.URL+"/")

	_, err := c.RapidAPIGeneric(context.Background(), &HostRequest{
		Host: "some-api.p.rapidapi.com",
		Path: "search",
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if rec.path != "/some-api.p.rapidapi.com/search" {
		t.Errorf("path = %s", rec.path)
	}
	if got := rec.header.Get("x-rapidapi-host"); got != "some-api.p.rapidapi.com" {
		t.Errorf("host header = %q", got)
	}
}

func TestForwardPostSendsJSONBody(t *testing.T) {
	srv, rec := captureServer(`{}`)
	defer srv.Close()

	c := newTestClient("tok", "")
	c.SetBaseURLs(srv.URL+"/", "")

	_, err := c.TikHubGeneric(context.Background(), &GenericRequest{
		Service: "svc",
		Path:    "submit",
		Method:  "post",
		Params:  map[string]any{"a": "1"},
	})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}

	if rec.method != http.MethodPost {
		t.Errorf("method = %s", rec.method)
	}
	if got := rec.header.Get("Content-Type"); got != "application/json" {
		t.Errorf("content type = %q", got)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.body, &body); err != nil {
		t.Fatalf("body not JSON: %v", err)
	}
	if body["a"] != "1" {
		t.Errorf("body = %v", body)
	}
	if len(rec.query) != 0 {
		t.Errorf("POST params leaked into the query: %v", rec.query)
	}
}

func TestForwardNonJSONUpstream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>upstream broke</html>")
	}))
	defer srv.Close()

	c := newTestClient("tok", "")
	c.SetBaseURLs(srv.URL+"/", "")

	res, err := c.TikHubTwitter(context.Background(), &Request{Path: "x"})
	if err != nil {
		t.Fatalf("proxy: %v", err)
	}
	if res.IsJSON {
		t.Error("HTML body must not be treated as JSON")
	}
	if res.Status != http.StatusBadGateway {
		t.Errorf("status = %d", res.Status)
	}
	if res.Text != "<html>upstream broke</html>" {
		t.Errorf("text = %q", res.Text)
	}
}

func TestForwardTransportFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	base := srv.URL + "/"
	srv.Close()

	c := newTestClient("tok", "")
	c.SetBaseURLs(base, "")

	_, err := c.TikHubTwitter(context.Background(), &Request{Path: "x"})
	if err == nil {
		t.Fatal("expected a transport error")
	}
}
