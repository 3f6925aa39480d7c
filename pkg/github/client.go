// Package github is a small client for the GitHub REST endpoints that feed the activity digest.
package github

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public GitHub REST API host.
const DefaultBaseURL = "https://api.github.com"

const userAgent = "ghactivity"

// Observer is told about every completed API call. code is 0 when no response arrived.
type Observer func(endpoint string, code int)

// Client provides methods for interacting with the GitHub API
type Client struct {
	logger      *slog.Logger
	httpClient  *http.Client
	do          func(context.Context, *http.Request) (*http.Response, error)
	observe     Observer
	githubToken string
	baseURL     string
	retries     uint
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithDoer routes requests through fn, typically a caching layer.
func WithDoer(fn func(context.Context, *http.Request) (*http.Response, error)) Option {
	return func(c *Client) {
		c.do = fn
	}
}

// WithBaseURL points the client at a different API host.
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithRetries allows n extra attempts after a transport failure.
// Non-2xx responses are never retried.
func WithRetries(n uint) Option {
	return func(c *Client) {
		c.retries = n
	}
}

// WithObserver registers a callback for request outcomes.
func WithObserver(fn Observer) Option {
	return func(c *Client) {
		c.observe = fn
	}
}

// NewClient creates a new GitHub API client
func NewClient(logger *slog.Logger, githubToken string, opts ...Option) *Client {
	c := &Client{
		logger:      logger,
		httpClient:  defaultHTTPClient(),
		githubToken: githubToken,
		baseURL:     DefaultBaseURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.do == nil {
		hc := c.httpClient
		c.do = func(_ context.Context, req *http.Request) (*http.Response, error) {
			return hc.Do(req)
		}
	}
	if c.observe == nil {
		c.observe = func(string, int) {}
	}
	return c
}

// defaultHTTPClient returns a default HTTP client with timeout
func defaultHTTPClient() *http.Client {
	return &http.Client{
		Timeout: 30 * time.Second,
	}
}
