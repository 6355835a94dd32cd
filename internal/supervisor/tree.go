// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/config"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
)

// Layer groups services that fail and restart independently of the other
// layers.
type Layer int

const (
	// LayerUpkeep holds background maintenance: cache sweeps and region
	// re-detection. Nothing user-facing waits on it.
	LayerUpkeep Layer = iota
	// LayerPush holds the websocket hub.
	LayerPush
	// LayerAPI holds the HTTP server.
	LayerAPI

	layerCount
)

func (l Layer) String() string {
	switch l {
	case LayerUpkeep:
		return "upkeep"
	case LayerPush:
		return "push"
	case LayerAPI:
		return "api"
	default:
		return fmt.Sprintf("layer(%d)", int(l))
	}
}

// Config tunes restart behavior. Zero fields take the Defaults values.
type Config struct {
	FailureThreshold float64
	FailureDecay     float64 // seconds
	FailureBackoff   time.Duration
	ShutdownTimeout  time.Duration
}

// Defaults match suture's own, with a 10s shutdown.
func Defaults() Config {
	return Config{
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// ConfigFrom converts the supervisor section of the app config.
func ConfigFrom(cfg config.SupervisorConfig) Config {
	return Config(cfg)
}

func (c Config) withDefaults() Config {
	d := Defaults()
	if c.FailureThreshold <= 0 {
		c.FailureThreshold = d.FailureThreshold
	}
	if c.FailureDecay <= 0 {
		c.FailureDecay = d.FailureDecay
	}
	if c.FailureBackoff <= 0 {
		c.FailureBackoff = d.FailureBackoff
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = d.ShutdownTimeout
	}
	return c
}

func (c Config) spec() suture.Spec {
	return suture.Spec{
		FailureThreshold: c.FailureThreshold,
		FailureDecay:     c.FailureDecay,
		FailureBackoff:   c.FailureBackoff,
		Timeout:          c.ShutdownTimeout,
	}
}

// Tree supervises the server's services, one child supervisor per Layer.
type Tree struct {
	root   *suture.Supervisor
	layers [layerCount]*suture.Supervisor
	cfg    Config
	logger zerolog.Logger
}

// New builds an empty tree. Supervisor events go to events, or to the
// zerolog stream through the slog bridge when events is nil.
func New(cfg Config, events *slog.Logger) *Tree {
	cfg = cfg.withDefaults()
	if events == nil {
		events = logging.NewSlogLogger()
	}

	rootSpec := cfg.spec()
	// Layers inherit the hook from the root.
	rootSpec.EventHook = (&sutureslog.Handler{Logger: events}).MustHook()

	t := &Tree{
		root:   suture.New("whichmovie", rootSpec),
		cfg:    cfg,
		logger: logging.WithComponent("supervisor"),
	}
	for l := Layer(0); l < layerCount; l++ {
		t.layers[l] = suture.New(l.String()+"-layer", cfg.spec())
		t.root.Add(t.layers[l])
	}
	return t
}

// Add starts svc in layer when the tree runs, or right away if it is
// already running.
func (t *Tree) Add(layer Layer, svc suture.Service) {
	if layer < 0 || layer >= layerCount {
		panic(fmt.Sprintf("supervisor: unknown %v", layer))
	}
	t.layers[layer].Add(svc)
	t.logger.Debug().Stringer("layer", layer).Str("service", fmt.Sprint(svc)).Msg("service added")
}

// Run serves until ctx is canceled and every service has stopped or the
// shutdown timeout passed. Services that missed the timeout are logged.
// A stop caused by ctx returns nil.
func (t *Tree) Run(ctx context.Context) error {
	err := t.root.Serve(ctx)

	if report, rerr := t.root.UnstoppedServiceReport(); rerr == nil {
		for _, svc := range report {
			t.logger.Warn().
				Str("service", svc.Name).
				Dur("timeout", t.cfg.ShutdownTimeout).
				Msg("service did not stop within shutdown timeout")
		}
	}

	if ctx.Err() != nil {
		return nil
	}
	if err != nil {
		return fmt.Errorf("supervisor: %w", err)
	}
	return nil
}
