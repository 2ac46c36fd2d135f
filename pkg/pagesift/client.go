package pagesift

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client talks to a running PageSift server.
type Client struct {
	baseURL string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption {
	return func(c *Client) { c.http = h }
}

// WithClientTimeout sets the request timeout on the underlying HTTP client.
func WithClientTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.http.Timeout = d }
}

// NewClient builds a client for the server at baseURL, for example
// "http://localhost:8080".
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 5 * time.Minute},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Health checks that the server is up.
func (c *Client) Health(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/health", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check failed: status %d", resp.StatusCode)
	}
	return nil
}

// Crawl submits a crawl request and waits for the result.
//
// Server side failures are returned as errors carrying the server's message,
// including timeouts, which the server reports with a 200 status and an
// error body.
func (c *Client) Crawl(ctx context.Context, req *CrawlRequest) (*CrawlResult, error) {
	body, err := c.do(ctx, http.MethodPost, "/crawl", req)
	if err != nil {
		return nil, err
	}

	var probe struct {
		Error *string `json:"error"`
	}
	if err := json.Unmarshal(body, &probe); err == nil && probe.Error != nil {
		return nil, fmt.Errorf("crawl failed: %s", *probe.Error)
	}

	var result CrawlResult
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode crawl result: %w", err)
	}
	return &result, nil
}

// envelope mirrors the server's user endpoint responses.
type envelope struct {
	Success bool            `json:"success"`
	Message *string         `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// ListUsers returns every stored user.
func (c *Client) ListUsers(ctx context.Context) ([]User, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, "/users", nil)
	if err != nil {
		return nil, err
	}
	var users []User
	if err := json.Unmarshal(env.Data, &users); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	return users, nil
}

// GetUser fetches one user by id.
func (c *Client) GetUser(ctx context.Context, id int64) (*User, error) {
	env, err := c.doEnvelope(ctx, http.MethodGet, fmt.Sprintf("/users/%d", id), nil)
	if err != nil {
		return nil, err
	}
	return decodeUser(env.Data)
}

// CreateUser stores a new user.
func (c *Client) CreateUser(ctx context.Context, name, email string) (*User, error) {
	payload := map[string]string{"name": name, "email": email}
	env, err := c.doEnvelope(ctx, http.MethodPost, "/users", payload)
	if err != nil {
		return nil, err
	}
	return decodeUser(env.Data)
}

// UpdateUser modifies the given fields of a user. Nil fields are left alone.
func (c *Client) UpdateUser(ctx context.Context, id int64, name, email *string) (*User, error) {
	payload := map[string]*string{"name": name, "email": email}
	env, err := c.doEnvelope(ctx, http.MethodPut, fmt.Sprintf("/users/%d", id), payload)
	if err != nil {
		return nil, err
	}
	return decodeUser(env.Data)
}

// DeleteUser removes a user by id.
func (c *Client) DeleteUser(ctx context.Context, id int64) error {
	_, err := c.doEnvelope(ctx, http.MethodDelete, fmt.Sprintf("/users/%d", id), nil)
	return err
}

func decodeUser(data json.RawMessage) (*User, error) {
	var u User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &u, nil
}

// do issues one request and returns the raw body of a 2xx response. Non-2xx
// responses are turned into errors carrying the server's error message when
// one is present.
func (c *Client) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, serverMessage(body))
	}
	return body, nil
}

func (c *Client) doEnvelope(ctx context.Context, method, path string, payload any) (*envelope, error) {
	body, err := c.do(ctx, method, path, payload)
	if err != nil {
		return nil, err
	}
	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if !env.Success {
		if env.Message != nil {
			return nil, fmt.Errorf("request failed: %s", *env.Message)
		}
		return nil, fmt.Errorf("request failed")
	}
	return &env, nil
}

// serverMessage pulls a human readable message out of an error body.
func serverMessage(body []byte) string {
	var withError struct {
		Error   *string `json:"error"`
		Message *string `json:"message"`
	}
	if err := json.Unmarshal(body, &withError); err == nil {
		if withError.Error != nil {
			return *withError.Error
		}
		if withError.Message != nil {
			return *withError.Message
		}
	}
	return strings.TrimSpace(string(body))
}
