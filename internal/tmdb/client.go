// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

/*
Package tmdb is the movie catalog client: candidate discovery with
constraint relaxation, full details, per-region availability, provider and
genre lists.

Request path:
  - Every read goes through the persistent cache first (cache.ReadThrough),
    so a stale entry is served immediately and refreshed in the background.
  - Detail and availability fetches take a slot from their gate class, which
    bounds fan-out across every caller in the process.
  - Each HTTP call waits on a token bucket limiter and passes through a
    circuit breaker. A 404 is reported as ErrNotFound and does not count
    against the breaker.

Authentication: a v4 read access token (a JWT) is sent as a bearer token;
anything else is treated as a v3 key and sent as the api_key parameter.
*/
package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/breaker"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/gate"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/metrics"
)

const upstreamName = "tmdb"

// maxErrorBodySize bounds how much of an error response is read for the message.
const maxErrorBodySize = 4 * 1024

var (
	// ErrNotFound is returned when the catalog has no such movie.
	ErrNotFound = errors.New("tmdb: not found")

	// ErrRateLimited is returned on HTTP 429.
	ErrRateLimited = errors.New("tmdb: rate limited")
)

// Config configures a Client.
type Config struct {
	BaseURL           string
	APIKey            string
	Language          string
	RequestsPerSecond float64
	Burst             int
	Timeout           time.Duration
	MaxPages          int
}

// Client is safe for concurrent use.
type Client struct {
	baseURL  string
	apiKey   string
	bearer   bool
	language string
	maxPages int

	http    *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker
	cache   *cache.Cache
	gates   *gate.Registry
	logger  zerolog.Logger
}

// New creates a catalog client backed by c and gates.
func New(cfg Config, c *cache.Cache, gates *gate.Registry) *Client {
	if cfg.RequestsPerSecond <= 0 {
		cfg.RequestsPerSecond = 20
	}
	if cfg.Burst <= 0 {
		cfg.Burst = 10
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxPages <= 0 {
		cfg.MaxPages = 3
	}
	if cfg.Language == "" {
		cfg.Language = "en-US"
	}

	return &Client{
		baseURL:  strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:   cfg.APIKey,
		bearer:   strings.Count(cfg.APIKey, ".") == 2,
		language: cfg.Language,
		maxPages: cfg.MaxPages,
		http:     &http.Client{Timeout: cfg.Timeout},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), cfg.Burst),
		breaker: breaker.New(breaker.Settings{
			Name: upstreamName,
			IsSuccessful: func(err error) bool {
				return breaker.IgnoreCancellation(err) || errors.Is(err, ErrNotFound)
			},
		}),
		cache:  c,
		gates:  gates,
		logger: logging.WithComponent("tmdb"),
	}
}

// Language returns the response language.
func (c *Client) Language() string {
	return c.language
}

// BreakerState reports the circuit state for health checks.
func (c *Client) BreakerState() string {
	return c.breaker.State()
}

func (c *Client) log(ctx context.Context) *zerolog.Logger {
	l := c.logger.With().Str("correlation_id", logging.CorrelationIDFromContext(ctx)).Logger()
	return &l
}

// get fetches path with query and decodes the JSON body into out.
func (c *Client) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	_, err := breaker.Execute(c.breaker, func() (struct{}, error) {
		return struct{}{}, c.do(ctx, path, query, out)
	})
	return err
}

func (c *Client) do(ctx context.Context, path string, query url.Values, out interface{}) error {
	params := url.Values{}
	for k, v := range query {
		params[k] = v
	}
	if params.Get("language") == "" {
		params.Set("language", c.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.bearer {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	} else if c.apiKey != "" {
		params.Set("api_key", c.apiKey)
	}
	req.URL.RawQuery = params.Encode()
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstream(upstreamName, 0, time.Since(start))
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(upstreamName, resp.StatusCode, time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%s: %w", path, ErrNotFound)
	case resp.StatusCode == http.StatusTooManyRequests:
		return fmt.Errorf("%s: %w (retry after %q)", path, ErrRateLimited, resp.Header.Get("Retry-After"))
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		return fmt.Errorf("tmdb %s: unexpected status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
