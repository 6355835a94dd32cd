// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package services

import (
	"context"
	"time"
)

// RegionRefresher is satisfied by *region.Resolver. Refresh re-detects
// only when the stored detection is stale and reports whether it did.
type RegionRefresher interface {
	Refresh(ctx context.Context) bool
}

// RegionRefreshService keeps a long-running server's region detection
// fresh. Each tick is bounded by timeout so a hung geolocation call cannot
// stall the loop.
type RegionRefreshService struct {
	resolver RegionRefresher
	interval time.Duration
	timeout  time.Duration
	name     string
}

// NewRegionRefreshService checks every interval. Non-positive values mean
// one hour and ten seconds respectively.
func NewRegionRefreshService(resolver RegionRefresher, interval, timeout time.Duration) *RegionRefreshService {
	if interval <= 0 {
		interval = time.Hour
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RegionRefreshService{
		resolver: resolver,
		interval: interval,
		timeout:  timeout,
		name:     "region-refresh",
	}
}

// Serve implements suture.Service.
func (s *RegionRefreshService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			tickCtx, cancel := context.WithTimeout(ctx, s.timeout)
			s.resolver.Refresh(tickCtx)
			cancel()
		}
	}
}

func (s *RegionRefreshService) String() string {
	return s.name
}
