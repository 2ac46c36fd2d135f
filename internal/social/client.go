package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/pagesift/pagesift/internal/config"
)

// Upstream endpoints the proxy forwards to.
const (
	defaultTikHubBase = "https://api.tikhub.io/api/v1/"

	instagramHost  = "instagram-scraper-api2.p.rapidapi.com"
	twitterV24Host = "twitter-v24.p.rapidapi.com"
)

// Credential errors surfaced verbatim to API callers.
var (
	ErrMissingTikHubToken = errors.New("Missing TIKHUB_TOKEN in environment")
	ErrMissingRapidAPIKey = errors.New("Missing RAPIDAPI_KEY in environment")
)

// Request is the common payload for the fixed-host proxy endpoints. Params
// become query parameters for GET requests and the JSON body otherwise.
type Request struct {
	Path   string         `json:"path"`
	Params map[string]any `json:"params,omitempty"`
	Method string         `json:"method,omitempty"`
}

// GenericRequest targets an arbitrary TikHub service.
type GenericRequest struct {
	Service string         `json:"service"`
	Path    string         `json:"path"`
	Params  map[string]any `json:"params,omitempty"`
	Method  string         `json:"method,omitempty"`
}

// HostRequest targets an arbitrary RapidAPI host.
type HostRequest struct {
	Host   string         `json:"host"`
	Path   string         `json:"path"`
	Params map[string]any `json:"params,omitempty"`
	Method string         `json:"method,omitempty"`
}

// Result is one upstream exchange. Data carries the body when it was valid
// JSON, Text otherwise.
type Result struct {
	Status int
	Data   json.RawMessage
	Text   string
	IsJSON bool
}

// Client forwards requests to the TikHub and RapidAPI gateways with the
// configured credentials attached.
type Client struct {
	http       *http.Client
	cfg        *config.SocialConfig
	logger     *slog.Logger
	tikhubBase string
	rapidBase  string // scheme-and-prefix the RapidAPI host is appended to
}

func NewClient(cfg *config.SocialConfig, logger *slog.Logger) *Client {
	return &Client{
		http:       &http.Client{Timeout: cfg.RequestTimeout},
		cfg:        cfg,
		logger:     logger.With("component", "social_client"),
		tikhubBase: defaultTikHubBase,
		rapidBase:  "https://",
	}
}

// SetBaseURLs redirects upstream traffic, for tests and self-hosted
// gateways. Empty arguments keep the current values.
func (c *Client) SetBaseURLs(tikhubBase, rapidBase string) {
	if tikhubBase != "" {
		c.tikhubBase = tikhubBase
	}
	if rapidBase != "" {
		c.rapidBase = rapidBase
	}
}

// TikHubTwitter proxies to TikHub's twitter web API, normalizing common
// search parameters.
func (c *Client) TikHubTwitter(ctx context.Context, req *Request) (*Result, error) {
	if c.cfg.TikHubToken == "" {
		return nil, ErrMissingTikHubToken
	}
	target := c.tikhubBase + "twitter/web/" + req.Path
	return c.forward(ctx, req.Method, target, twitterParams(req.Params), c.tikhubHeaders())
}

// TikHubTikTok proxies to TikHub's tiktok web API, normalizing common
// search parameters.
func (c *Client) TikHubTikTok(ctx context.Context, req *Request) (*Result, error) {
	if c.cfg.TikHubToken == "" {
		return nil, ErrMissingTikHubToken
	}
	target := c.tikhubBase + "tiktok/web/" + req.Path
	return c.forward(ctx, req.Method, target, tiktokParams(req.Params), c.tikhubHeaders())
}

// TikHubGeneric proxies to any TikHub service path with parameters passed
// through untouched.
func (c *Client) TikHubGeneric(ctx context.Context, req *GenericRequest) (*Result, error) {
	if c.cfg.TikHubToken == "" {
		return nil, ErrMissingTikHubToken
	}
	target := fmt.Sprintf("%s%s/%s", c.tikhubBase, req.Service, req.Path)
	return c.forward(ctx, req.Method, target, req.Params, c.tikhubHeaders())
}

// RapidAPIInstagram proxies to the Instagram scraper API.
func (c *Client) RapidAPIInstagram(ctx context.Context, req *Request) (*Result, error) {
	return c.rapidAPI(ctx, instagramHost, req)
}

// RapidAPITwitterV24 proxies to the twitter-v24 API.
func (c *Client) RapidAPITwitterV24(ctx context.Context, req *Request) (*Result, error) {
	return c.rapidAPI(ctx, twitterV24Host, req)
}

// RapidAPIGeneric proxies to any RapidAPI host the caller names.
func (c *Client) RapidAPIGeneric(ctx context.Context, req *HostRequest) (*Result, error) {
	return c.rapidAPI(ctx, req.Host, &Request{Path: req.Path, Params: req.Params, Method: req.Method})
}

func (c *Client) rapidAPI(ctx context.Context, host string, req *Request) (*Result, error) {
	if c.cfg.RapidAPIKey == "" {
		return nil, ErrMissingRapidAPIKey
	}
	target := fmt.Sprintf("%s%s/%s", c.rapidBase, host, req.Path)
	headers := http.Header{}
	headers.Set("x-rapidapi-key", c.cfg.RapidAPIKey)
	headers.Set("x-rapidapi-host", host)
	headers.Set("accept", "application/json")
	return c.forward(ctx, req.Method, target, req.Params, headers)
}

func (c *Client) tikhubHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Authorization", "Bearer "+c.cfg.TikHubToken)
	headers.Set("accept", "application/json")
	return headers
}

// forward executes one upstream exchange. GET requests carry params in the
// query string; any other method sends them as a JSON body.
func (c *Client) forward(ctx context.Context, method, target string, params map[string]any, headers http.Header) (*Result, error) {
	method = strings.ToUpper(strings.TrimSpace(method))
	if method == "" {
		method = http.MethodGet
	}

	var body io.Reader
	if method == http.MethodGet {
		if len(params) > 0 {
			sep := "?"
			if strings.Contains(target, "?") {
				sep = "&"
			}
			target += sep + queryValues(params).Encode()
		}
	} else {
		data, err := json.Marshal(params)
		if err != nil {
			return nil, fmt.Errorf("encode params: %w", err)
		}
		body = bytes.NewReader(data)
		headers.Set("Content-Type", "application/json")
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, fmt.Errorf("build upstream request: %w", err)
	}
	for key, values := range headers {
		for _, v := range values {
			req.Header.Set(key, v)
		}
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read upstream response: %w", err)
	}

	c.logger.Debug("proxied request",
		"method", method, "url", target, "status", resp.StatusCode)

	result := &Result{Status: resp.StatusCode}
	if json.Valid(data) {
		result.Data = json.RawMessage(data)
		result.IsJSON = true
	} else {
		result.Text = string(data)
	}
	return result, nil
}

// twitterParams maps the caller's search parameters onto TikHub's twitter
// API: q becomes keyword, search_type defaults to Top, everything else
// passes through.
func twitterParams(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	if kw, ok := in["keyword"]; ok {
		out["keyword"] = kw
	} else if q, ok := in["q"]; ok {
		out["keyword"] = q
	}
	if st, ok := in["search_type"]; ok {
		out["search_type"] = st
	} else {
		out["search_type"] = "Top"
	}
	for k, v := range in {
		switch k {
		case "q", "keyword", "search_type":
		default:
			out[k] = v
		}
	}
	return out
}

// tiktokParams maps the caller's search parameters onto TikHub's tiktok
// API: q becomes keyword, count and offset get defaults when absent.
func tiktokParams(in map[string]any) map[string]any {
	out := make(map[string]any, len(in)+2)
	if kw, ok := in["keyword"]; ok {
		out["keyword"] = kw
	} else if q, ok := in["q"]; ok {
		out["keyword"] = q
	}
	if _, ok := in["count"]; !ok {
		out["count"] = "20"
	}
	if _, ok := in["offset"]; !ok {
		out["offset"] = "0"
	}
	for k, v := range in {
		switch k {
		case "q", "keyword":
		default:
			out[k] = v
		}
	}
	return out
}

func queryValues(params map[string]any) url.Values {
	vals := url.Values{}
	for k, v := range params {
		vals.Set(k, paramString(v))
	}
	return vals
}

// paramString renders a parameter the way it appeared in the caller's JSON:
// strings verbatim, anything else in its JSON form.
func paramString(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}
