// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package services

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
)

// Server is the part of *http.Server the API service drives.
type Server interface {
	Serve(ln net.Listener) error
	Shutdown(ctx context.Context) error
}

// APIService serves the discovery API on addr. It binds the listener
// itself, so a busy port fails the service with the address in the error
// and a restart binds again. Addr reports the bound address, which is how
// ":0" is resolved.
type APIService struct {
	addr            string
	server          Server
	shutdownTimeout time.Duration
	bound           atomic.Pointer[string]
	logger          zerolog.Logger
}

// NewAPIService serves server on addr. A non-positive shutdownTimeout
// means 10s.
func NewAPIService(addr string, server Server, shutdownTimeout time.Duration) *APIService {
	if shutdownTimeout <= 0 {
		shutdownTimeout = 10 * time.Second
	}
	return &APIService{
		addr:            addr,
		server:          server,
		shutdownTimeout: shutdownTimeout,
		logger:          logging.WithComponent("api-server"),
	}
}

// Addr returns the listening address, or "" while not listening.
func (s *APIService) Addr() string {
	if p := s.bound.Load(); p != nil {
		return *p
	}
	return ""
}

// Serve implements suture.Service. On cancellation in-flight requests get
// shutdownTimeout to finish.
func (s *APIService) Serve(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	addr := ln.Addr().String()
	s.bound.Store(&addr)
	defer s.bound.Store(nil)
	s.logger.Info().Str("addr", addr).Msg("API listening")

	done := make(chan error, 1)
	go func() { done <- s.server.Serve(ln) }()

	select {
	case err := <-done:
		if errors.Is(err, http.ErrServerClosed) {
			// Closed from outside the tree; a restart would fail the same way.
			return suture.ErrDoNotRestart
		}
		return fmt.Errorf("api server on %s: %w", addr, err)

	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.shutdownTimeout)
		defer cancel()
		if err := s.server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("api server shutdown: %w", err)
		}
		<-done
		s.logger.Info().Str("addr", addr).Msg("API stopped")
		return ctx.Err()
	}
}

func (s *APIService) String() string {
	return "api-server"
}
