// Package api is a thin JSON client for the uncase backend REST API.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const apiPrefix = "/api/v1"

const (
	// DefaultTimeout caps requests made without a context deadline.
	DefaultTimeout = 30 * time.Second
	// maxResponseBytes bounds how much of a response body is read.
	maxResponseBytes = 8 << 20
)

// Error is returned for any non-2xx response.
type Error struct {
	StatusCode int
	Method     string
	Path       string
	Detail     string
}

func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.Path, e.StatusCode, http.StatusText(e.StatusCode))
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

type Client struct {
	http    *http.Client
	baseURL func(ctx context.Context) string
}

type Option func(*Client)

// WithHTTPClient replaces the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// WithTimeout sets the http.Client timeout. Zero leaves deadlines to the
// request context.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		hc := *c.http
		hc.Timeout = d
		c.http = &hc
	}
}

// WithBaseURLResolver picks the base URL per request, so an active sandbox
// session can redirect calls away from the configured backend.
func WithBaseURLResolver(fn func(ctx context.Context) string) Option {
	return func(c *Client) { c.baseURL = fn }
}

func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		http:    &http.Client{Timeout: DefaultTimeout},
		baseURL: func(context.Context) string { return baseURL },
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// WithoutTimeout returns a copy of c whose requests are bounded only by
// their context.
func (c *Client) WithoutTimeout() *Client {
	clone := *c
	WithTimeout(0)(&clone)
	return &clone
}

// BaseURL returns the URL requests made with ctx would target.
func (c *Client) BaseURL(ctx context.Context) string {
	return strings.TrimRight(c.baseURL(ctx), "/")
}

func (c *Client) endpoint(ctx context.Context, path string, query url.Values) string {
	u := c.BaseURL(ctx) + apiPrefix + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(ctx, path, query), reader)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes+1))
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}
	if len(data) > maxResponseBytes {
		return fmt.Errorf("%s %s response exceeds %d bytes", method, apiPrefix+path, maxResponseBytes)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{
			StatusCode: resp.StatusCode,
			Method:     method,
			Path:       apiPrefix + path,
			Detail:     errorDetail(data),
		}
	}

	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode %s %s response: %w", method, path, err)
	}
	return nil
}

// errorDetail pulls the message out of {"detail": "..."} bodies.
func errorDetail(body []byte) string {
	var payload struct {
		Detail any `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err != nil || payload.Detail == nil {
		return strings.TrimSpace(string(body))
	}
	if s, ok := payload.Detail.(string); ok {
		return s
	}
	data, _ := json.Marshal(payload.Detail)
	return string(data)
}
