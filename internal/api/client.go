package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"pte/internal/config"
	"pte/pkg/logging"
)

// Client is a thin HTTP verb wrapper around the target service. Every
// request carries the current LogID as a correlation header and is logged
// with its method, URL, status and elapsed time.
type Client struct {
	baseURL    string
	headers    map[string]string
	retryCount int
	httpClient *http.Client
	logger     *logging.Logger
}

// Response is the outcome of one HTTP exchange.
type Response struct {
	StatusCode int
	Header     http.Header
	Body       []byte
	Elapsed    time.Duration
}

// JSON unmarshals the response body into v.
func (r *Response) JSON(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return fmt.Errorf("failed to decode response body: %w", err)
	}
	return nil
}

// JSONMap decodes the response body as a generic JSON object.
func (r *Response) JSONMap() (map[string]any, error) {
	var m map[string]any
	if err := r.JSON(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.httpClient.Timeout = d }
}

// WithRetryCount overrides the retry budget reported to callers.
func WithRetryCount(n int) Option {
	return func(c *Client) { c.retryCount = n }
}

// WithHeader adds a default header sent on every request.
func WithHeader(key, value string) Option {
	return func(c *Client) { c.headers[key] = value }
}

// WithHTTPClient swaps the underlying transport, mainly for tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithLogger routes request logging to a specific logger.
func WithLogger(l *logging.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// NewClient creates a Client targeting baseURL with the default headers.
func NewClient(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		headers: map[string]string{
			"Content-Type": ContentTypeJSON,
			"User-Agent":   DefaultUserAgent,
		},
		retryCount: DefaultRetryCount,
		httpClient: &http.Client{Timeout: DefaultTimeout},
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewClientFromConfig creates a Client from a resolved IDC configuration:
// host, timeout, retry count and merged headers all come from the config,
// and the environment name is advertised via the X-Environment header.
func NewClientFromConfig(cfg config.Resolved, opts ...Option) *Client {
	base := []Option{
		WithTimeout(time.Duration(cfg.Timeout) * time.Second),
		WithRetryCount(cfg.RetryCount),
		WithHeader(HeaderEnvironment, cfg.Env),
	}
	for k, v := range cfg.Headers {
		base = append(base, WithHeader(k, v))
	}
	return NewClient(cfg.Host, append(base, opts...)...)
}

// Scoped returns a copy of the client that logs through l. The transport,
// default headers and retry budget are shared with the original.
func (c *Client) Scoped(l *logging.Logger) *Client {
	cc := *c
	cc.logger = l
	return &cc
}

// BaseURL returns the target service root.
func (c *Client) BaseURL() string { return c.baseURL }

// RetryCount returns the configured per-request retry budget.
func (c *Client) RetryCount() int { return c.retryCount }

// Get issues a GET request. Query parameters may be nil.
func (c *Client) Get(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodGet, path, query, nil)
}

// Post issues a POST request with a JSON-encoded body.
func (c *Client) Post(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPost, path, nil, body)
}

// Put issues a PUT request with a JSON-encoded body.
func (c *Client) Put(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPut, path, nil, body)
}

// Patch issues a PATCH request with a JSON-encoded body.
func (c *Client) Patch(ctx context.Context, path string, body any) (*Response, error) {
	return c.do(ctx, http.MethodPatch, path, nil, body)
}

// Delete issues a DELETE request. Query parameters may be nil.
func (c *Client) Delete(ctx context.Context, path string, query url.Values) (*Response, error) {
	return c.do(ctx, http.MethodDelete, path, query, nil)
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body any) (*Response, error) {
	fullURL := c.baseURL + "/" + strings.TrimLeft(path, "/")
	if path == "" || path == "/" {
		fullURL = c.baseURL + "/"
	}
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to encode request body: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to build %s %s: %w", method, fullURL, err)
	}
	for k, v := range c.headers {
		req.Header.Set(k, v)
	}
	req.Header.Set(HeaderLogID, c.logger.LogID())

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	elapsed := time.Since(start)
	if err != nil {
		c.logger.Error("API %s %s failed after %.3fs: %v", method, fullURL, elapsed.Seconds(), err)
		return nil, fmt.Errorf("%s %s: %w", method, fullURL, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s %s: failed to read body: %w", method, fullURL, err)
	}

	c.logger.APICall(method, fullURL, resp.StatusCode, elapsed)
	c.logger.Debug("response body: %s", truncate(data, maxLoggedBody))

	return &Response{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       data,
		Elapsed:    elapsed,
	}, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "... (truncated)"
}
