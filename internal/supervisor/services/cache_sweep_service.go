// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package services

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
)

// ExpiredEvicter is satisfied by *cache.Cache.
type ExpiredEvicter interface {
	EvictExpired() (int, error)
}

// CacheSweepService removes expired cache entries on a fixed interval. The
// cache never sweeps on its own; reads past TTL are handled lazily, this
// keeps the store from growing with entries nobody asks for again.
type CacheSweepService struct {
	cache    ExpiredEvicter
	interval time.Duration
	name     string
	logger   zerolog.Logger
}

// NewCacheSweepService sweeps every interval. A non-positive interval means 10m.
func NewCacheSweepService(cache ExpiredEvicter, interval time.Duration) *CacheSweepService {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	return &CacheSweepService{
		cache:    cache,
		interval: interval,
		name:     "cache-sweep",
		logger:   logging.WithComponent("cache-sweep"),
	}
}

// Serve implements suture.Service. A failed sweep is logged and retried on
// the next tick rather than restarting the service.
func (s *CacheSweepService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *CacheSweepService) sweep() {
	n, err := s.cache.EvictExpired()
	if err != nil {
		s.logger.Warn().Err(err).Msg("Cache sweep failed")
		return
	}
	if n > 0 {
		s.logger.Debug().Int("evicted", n).Msg("Cache sweep complete")
	}
}

func (s *CacheSweepService) String() string {
	return s.name
}
