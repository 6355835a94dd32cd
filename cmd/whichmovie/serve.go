// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/api"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/supervisor"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/supervisor/services"
)

const startupTimeout = 15 * time.Second

func newServeCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP and websocket API under the supervisor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.serve(cmd.Context())
		},
	}
}

func (c *cli) serve(parent context.Context) error {
	a, err := c.openApp(true)
	if err != nil {
		return err
	}
	defer closeApp(a)
	cfg := a.Config

	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := context.WithTimeout(ctx, startupTimeout)
	a.Start(startCtx)
	cancel()

	tree := supervisor.New(supervisor.ConfigFrom(cfg.Supervisor), nil)

	server := &http.Server{
		Handler:           api.NewRouter(a, api.MiddlewareConfigFrom(cfg.Server)),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	tree.Add(supervisor.LayerUpkeep, services.NewCacheSweepService(a.Cache, cfg.Cache.SweepInterval))
	tree.Add(supervisor.LayerUpkeep, services.NewRegionRefreshService(a.Region, time.Hour, cfg.Region.Timeout))
	tree.Add(supervisor.LayerPush, services.NewWebSocketHubService(a.Hub))
	tree.Add(supervisor.LayerAPI, services.NewAPIService(cfg.Server.Addr, server, cfg.Server.ShutdownTimeout))

	logging.Info().
		Str("addr", cfg.Server.Addr).
		Str("region", a.Region.EffectiveRegion()).
		Bool("ratings", a.Ratings != nil).
		Msg("Starting WhichMovieToWatch server")

	err = tree.Run(ctx)
	logging.Info().Msg("Server stopped")
	return err
}
