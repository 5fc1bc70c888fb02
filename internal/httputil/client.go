// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package httputil provides the rate-limited HTTP client shared across stages.
package httputil

import (
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdiddy/pmc-harvest/pkg/types"
)

const (
	// DefaultRateLimit is the E-utilities request rate without an API key.
	DefaultRateLimit = 3.0

	// KeyedRateLimit is the E-utilities request rate with an API key.
	KeyedRateLimit = 10.0

	defaultTimeout   = 30 * time.Second
	defaultUserAgent = "pmc-harvest/0.1"
)

// Client wraps http.Client with an E-utilities token-bucket rate limit and
// default headers. Every request is attempted exactly once; there is no
// retry or backoff layer.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter
	userAgent  string
}

// New builds a Client from shared HTTP settings. A zero Timeout defaults to
// 30 s; a zero RateLimit defaults to 3 req/s, or 10 req/s when an API key
// is configured.
func New(cfg types.HTTPConfig) *Client {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = defaultUserAgent
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = DefaultRateLimit
		if cfg.APIKey != "" {
			cfg.RateLimit = KeyedRateLimit
		}
	}

	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
		userAgent:  cfg.UserAgent,
	}
}

// Do waits for the rate limiter, sets the User-Agent header, and executes
// the request once.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if err := c.limiter.Wait(req.Context()); err != nil {
		return nil, fmt.Errorf("rate limiter wait: %w", err)
	}
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.httpClient.Do(req)
}
