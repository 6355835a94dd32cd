// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package region

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/breaker"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/metrics"
)

const upstreamName = "geolocation"

// HTTPGeolocator queries an ip-api compatible endpoint that answers
// {"countryCode": "DE"} for the caller's address.
type HTTPGeolocator struct {
	url     string
	client  *http.Client
	limiter *rate.Limiter
	breaker *breaker.Breaker
}

// GeolocatorConfig configures an HTTPGeolocator.
type GeolocatorConfig struct {
	URL               string
	Timeout           time.Duration
	RequestsPerMinute int
}

// NewHTTPGeolocator creates a geolocator. Lookups are paced to
// RequestsPerMinute and pass through a circuit breaker.
func NewHTTPGeolocator(cfg GeolocatorConfig) *HTTPGeolocator {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	if cfg.RequestsPerMinute <= 0 {
		cfg.RequestsPerMinute = 30
	}
	return &HTTPGeolocator{
		url:     cfg.URL,
		client:  &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(cfg.RequestsPerMinute)), 1),
		breaker: breaker.New(breaker.Settings{Name: upstreamName, MinRequests: 3, Timeout: 5 * time.Minute}),
	}
}

type geoResponse struct {
	Status      string `json:"status"`
	CountryCode string `json:"countryCode"`
	Message     string `json:"message"`
}

// Detect implements GeolocationSource.
func (g *HTTPGeolocator) Detect(ctx context.Context) (string, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return "", err
	}
	return breaker.Execute(g.breaker, func() (string, error) {
		return g.fetch(ctx)
	})
}

func (g *HTTPGeolocator) fetch(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	resp, err := g.client.Do(req)
	if err != nil {
		metrics.RecordUpstream(upstreamName, 0, time.Since(start))
		return "", fmt.Errorf("geolocation request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(upstreamName, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geolocation: unexpected status %d", resp.StatusCode)
	}

	var body geoResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return "", fmt.Errorf("decode geolocation response: %w", err)
	}
	if body.Status == "fail" {
		return "", fmt.Errorf("%w: %s", ErrNoCountry, body.Message)
	}
	if body.CountryCode == "" {
		return "", ErrNoCountry
	}
	return body.CountryCode, nil
}
