// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package app constructs every long-lived component exactly once and
// hands them out explicitly. Nothing in the core reaches for a global
// instance; the CLI, the HTTP API and the supervisor all receive an *App.
package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/config"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/discovery"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/gate"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/ledger"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/ratings"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/region"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/taste"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/tmdb"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/websocket"
)

// App is the service container.
type App struct {
	Config *config.Config

	Store       storage.Store
	Cache       *cache.Cache
	Gates       *gate.Registry
	Ledger      *ledger.Ledger
	Taste       *taste.Profile
	Region      *region.Resolver
	Preferences *discovery.Preferences
	Catalog     *tmdb.Client

	// Ratings is nil when ratings are disabled.
	Ratings *ratings.Client
	Engine  *discovery.Engine
	Hub     *websocket.Hub

	unsubscribe func()
	logger      zerolog.Logger
}

// Options adjust construction for tests.
type Options struct {
	// Store replaces the badger store named by the configuration.
	Store storage.Store

	// Geolocator replaces the HTTP geolocation source.
	Geolocator region.GeolocationSource

	// Timezone replaces local timezone lookup.
	Timezone func() string
}

// New opens storage and wires the components described by cfg.
func New(cfg *config.Config, opts Options) (*App, error) {
	store := opts.Store
	if store == nil {
		bs, err := storage.OpenBadger(storage.Options{
			Path:       cfg.Storage.Path,
			InMemory:   cfg.Storage.InMemory,
			SyncWrites: cfg.Storage.SyncWrites,
		})
		if err != nil {
			return nil, fmt.Errorf("open storage: %w", err)
		}
		store = bs
	}

	a := &App{
		Config: cfg,
		Store:  store,
		Cache:  cache.New(store),
		Gates:  gate.NewRegistry(cfg.Gate.Capacity),
		Ledger: ledger.New(store, cfg.Ledger.MaxShown),
		Taste:  taste.New(store),
		Hub:    websocket.NewHub(),
		logger: logging.WithComponent("app"),
	}
	a.Preferences = discovery.NewPreferences(store)

	geo := opts.Geolocator
	if geo == nil && cfg.Region.GeoURL != "" {
		geo = region.NewHTTPGeolocator(region.GeolocatorConfig{
			URL:               cfg.Region.GeoURL,
			Timeout:           cfg.Region.Timeout,
			RequestsPerMinute: cfg.Region.RequestsPerMinute,
		})
	}
	regionOpts := []region.Option{
		region.WithDefault(cfg.Region.Default),
		region.WithRedetectAfter(cfg.Region.RedetectAfter),
	}
	if opts.Timezone != nil {
		regionOpts = append(regionOpts, region.WithTimezone(opts.Timezone))
	}
	a.Region = region.NewResolver(store, geo, a.Cache, regionOpts...)

	a.Catalog = tmdb.New(tmdb.Config{
		BaseURL:           cfg.TMDB.BaseURL,
		APIKey:            cfg.TMDB.APIKey,
		Language:          cfg.TMDB.Language,
		RequestsPerSecond: cfg.TMDB.RequestsPerSecond,
		Burst:             cfg.TMDB.Burst,
		Timeout:           cfg.TMDB.Timeout,
		MaxPages:          cfg.TMDB.MaxPages,
	}, a.Cache, a.Gates)

	deps := discovery.Deps{
		Candidates:   a.Catalog,
		Details:      a.Catalog,
		Availability: a.Catalog,
		Genres:       a.Catalog,
		Regions:      a.Region,
		Ledger:       a.Ledger,
		Taste:        a.Taste,
		Preferences:  a.Preferences,
	}
	if cfg.Ratings.Enabled && cfg.Ratings.APIKey != "" {
		a.Ratings = ratings.New(ratings.Config{
			BaseURL:    cfg.Ratings.BaseURL,
			APIKey:     cfg.Ratings.APIKey,
			DailyQuota: cfg.Ratings.DailyQuota,
			Timeout:    cfg.Ratings.Timeout,
		}, a.Cache, a.Gates, store)
		deps.Ratings = a.Ratings
	}
	a.Engine = discovery.NewEngine(deps)

	a.unsubscribe = a.Engine.Subscribe(func(s discovery.State) {
		a.Hub.BroadcastState(s)
	})
	a.Region.OnChange(func(code string) {
		a.Engine.RegionChanged(code)
		a.Hub.BroadcastRegion(code)
	})

	a.logger.Debug().
		Str("region", a.Region.EffectiveRegion()).
		Bool("ratings", a.Ratings != nil).
		Int("gate_capacity", cfg.Gate.Capacity).
		Msg("components wired")
	return a, nil
}

// Start performs startup work that needs the network: region detection
// when the stored detection is missing or stale.
func (a *App) Start(ctx context.Context) {
	if a.Region.Refresh(ctx) {
		a.Engine.RegionChanged(a.Region.EffectiveRegion())
	}
}

// ResetOptions select what Reset clears.
type ResetOptions struct {
	Ledger      bool
	Taste       bool
	Preferences bool
	Region      bool
	Cache       bool
}

// All selects everything.
func (o ResetOptions) All() ResetOptions {
	return ResetOptions{Ledger: true, Taste: true, Preferences: true, Region: true, Cache: true}
}

// Any reports whether anything is selected.
func (o ResetOptions) Any() bool {
	return o.Ledger || o.Taste || o.Preferences || o.Region || o.Cache
}

// Reset clears the selected state. Every selected part is attempted; the
// errors are joined.
func (a *App) Reset(opts ResetOptions) error {
	var errs []error
	if opts.Ledger {
		errs = append(errs, wrap("ledger", a.Ledger.Reset()))
	}
	if opts.Taste {
		errs = append(errs, wrap("taste", a.Taste.Reset()))
	}
	if opts.Preferences {
		errs = append(errs, wrap("preferences", a.Preferences.Reset()))
	}
	if opts.Region {
		errs = append(errs, wrap("region", a.Region.Reset()))
	}
	if opts.Cache {
		_, err := a.Cache.InvalidateByPrefix("")
		errs = append(errs, wrap("cache", err))
	}
	a.Engine.Clear()

	a.logger.Info().
		Bool("ledger", opts.Ledger).
		Bool("taste", opts.Taste).
		Bool("preferences", opts.Preferences).
		Bool("region", opts.Region).
		Bool("cache", opts.Cache).
		Msg("state reset")
	return errors.Join(errs...)
}

func wrap(what string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("reset %s: %w", what, err)
}

// Close waits for background cache refreshes, stops admitting gated
// requests and closes storage.
func (a *App) Close() error {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
	a.Cache.Wait()
	a.Gates.Close()
	if err := a.Store.Close(); err != nil {
		return fmt.Errorf("close storage: %w", err)
	}
	return nil
}
