// Package endpoint posts form submissions to, and fetches stored records
// from, the HTTP endpoints named in form metadata.
package endpoint

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
	"time"
)

// ErrUnexpectedStatus reports a non-2xx response.
var ErrUnexpectedStatus = errors.New("endpoint: unexpected status")

// maxErrorBody caps how much of an error response is quoted in errors.
const maxErrorBody = 512

// Option customises a Client.
type Option func(*Client)

// WithBaseURL resolves relative endpoints against base.
func WithBaseURL(base string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(base, "/")
	}
}

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.http = client
		}
	}
}

// WithTimeout bounds every request.
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.timeout = timeout
		}
	}
}

// WithHeader adds a header sent with every request.
func WithHeader(key, value string) Option {
	return func(c *Client) {
		c.headers.Set(key, value)
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client is a JSON-over-HTTP submitter.
type Client struct {
	http    *http.Client
	baseURL string
	timeout time.Duration
	headers http.Header
	logger  *slog.Logger
}

// New constructs a Client. Requests time out after 15 seconds unless
// configured otherwise.
func New(options ...Option) *Client {
	c := &Client{
		http:    http.DefaultClient,
		timeout: 15 * time.Second,
		headers: make(http.Header),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range options {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Post sends payload as JSON. An endpoint of the form "METHOD /path" uses
// that method instead of POST.
func (c *Client) Post(ctx context.Context, endpoint string, payload map[string]any) (map[string]any, error) {
	method, target := splitEndpoint(endpoint, http.MethodPost)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("endpoint: encode payload: %w", err)
	}
	return c.do(ctx, method, target, body)
}

// Get fetches a JSON object.
func (c *Client) Get(ctx context.Context, endpoint string) (map[string]any, error) {
	method, target := splitEndpoint(endpoint, http.MethodGet)
	return c.do(ctx, method, target, nil)
}

func (c *Client) do(ctx context.Context, method, target string, body []byte) (map[string]any, error) {
	address, err := c.resolve(target)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, address, reader)
	if err != nil {
		return nil, fmt.Errorf("endpoint: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for key, values := range c.headers {
		for _, value := range values {
			req.Header.Add(key, value)
		}
	}

	started := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("endpoint: %s %s: %w", method, address, err)
	}
	defer resp.Body.Close()
	c.logger.Debug("endpoint: request completed",
		"method", method, "url", address, "status", resp.StatusCode, "duration", time.Since(started))

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("endpoint: read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet := strings.TrimSpace(string(raw))
		if len(snippet) > maxErrorBody {
			snippet = snippet[:maxErrorBody]
		}
		return nil, fmt.Errorf("%w: %s %s returned %d: %s", ErrUnexpectedStatus, method, address, resp.StatusCode, snippet)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return map[string]any{}, nil
	}
	var out map[string]any
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("endpoint: decode response from %s: %w", address, err)
	}
	return out, nil
}

func (c *Client) resolve(target string) (string, error) {
	if target == "" {
		return "", errors.New("endpoint: empty endpoint")
	}
	parsed, err := url.Parse(target)
	if err != nil {
		return "", fmt.Errorf("endpoint: parse %q: %w", target, err)
	}
	if parsed.IsAbs() || c.baseURL == "" {
		return target, nil
	}
	return c.baseURL + "/" + strings.TrimLeft(target, "/"), nil
}

func splitEndpoint(endpoint, fallback string) (string, string) {
	endpoint = strings.TrimSpace(endpoint)
	if method, path, ok := strings.Cut(endpoint, " "); ok {
		switch upper := strings.ToUpper(method); upper {
		case http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
			return upper, strings.TrimSpace(path)
		}
	}
	return fallback, endpoint
}
