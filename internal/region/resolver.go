// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package region resolves the effective region used for every
// geography-sensitive lookup: the manual override when set, otherwise the
// detected country.
//
// Detection asks a GeolocationSource first, then falls back to the local
// timezone, then to a fixed default. Setting or clearing the override
// drops every cached per-region availability answer.
package region

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/validation"
)

// Defaults.
const (
	DefaultRegion        = "US"
	DefaultRedetectAfter = 24 * time.Hour
)

// DocumentKey is the storage key of the region state, under storage.StatePrefix.
const DocumentKey = "region"

var (
	// ErrInvalidRegion is returned by SetOverride for malformed codes.
	ErrInvalidRegion = errors.New("region: invalid country code")

	// ErrNoCountry is returned by a GeolocationSource that answered
	// without a usable country.
	ErrNoCountry = errors.New("region: no country in geolocation response")
)

// GeolocationSource reports the country of the current network location.
type GeolocationSource interface {
	Detect(ctx context.Context) (string, error)
}

// Invalidator drops cached entries by key prefix. *cache.Cache implements it.
type Invalidator interface {
	InvalidateByPrefix(prefix string) (int, error)
}

// State is the persisted region record.
type State struct {
	Detected       string    `json:"detected"`
	ManualOverride *string   `json:"manual_override"`
	LastDetectedAt time.Time `json:"last_detected_at"`
}

// EffectiveRegion returns the override if set, otherwise the detected region.
func (s State) EffectiveRegion() string {
	if s.ManualOverride != nil {
		return *s.ManualOverride
	}
	return s.Detected
}

// Resolver is safe for concurrent use.
type Resolver struct {
	store         storage.Store
	doc           storage.Document[State]
	geo           GeolocationSource
	invalidator   Invalidator
	now           func() time.Time
	timezone      func() string
	fallback      string
	redetectAfter time.Duration
	logger        zerolog.Logger

	mu        sync.RWMutex
	state     State
	listeners []func(region string)
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

// WithTimezone sets the function returning the local IANA timezone name.
func WithTimezone(tz func() string) Option {
	return func(r *Resolver) { r.timezone = tz }
}

// WithDefault sets the region used when every detection step fails.
func WithDefault(code string) Option {
	return func(r *Resolver) {
		if validation.IsRegion(code) {
			r.fallback = code
		}
	}
}

// WithRedetectAfter sets how old a detection may get.
func WithRedetectAfter(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.redetectAfter = d
		}
	}
}

// NewResolver loads the region state from store. geo may be nil, in which
// case detection goes straight to the timezone table.
func NewResolver(store storage.Store, geo GeolocationSource, invalidator Invalidator, opts ...Option) *Resolver {
	r := &Resolver{
		store:         store,
		geo:           geo,
		invalidator:   invalidator,
		now:           time.Now,
		timezone:      LocalTimezone,
		fallback:      DefaultRegion,
		redetectAfter: DefaultRedetectAfter,
		logger:        logging.WithComponent("region"),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.doc = storage.Document[State]{
		Key:     DocumentKey,
		Version: 1,
		Default: func() State { return State{Detected: r.fallback} },
	}
	st, outcome := r.doc.Load(store)
	if !validation.IsRegion(st.Detected) {
		st.Detected = r.fallback
	}
	if st.ManualOverride != nil && !validation.IsRegion(*st.ManualOverride) {
		st.ManualOverride = nil
	}
	r.state = st
	r.logger.Debug().Str("outcome", outcome.String()).Str("effective", st.EffectiveRegion()).Msg("region state loaded")
	return r
}

// State returns a copy of the current state.
func (r *Resolver) State() State {
	r.mu.RLock()
	defer r.mu.RUnlock()
	st := r.state
	if st.ManualOverride != nil {
		o := *st.ManualOverride
		st.ManualOverride = &o
	}
	return st
}

// EffectiveRegion returns the region every lookup should use.
func (r *Resolver) EffectiveRegion() string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.state.EffectiveRegion()
}

// NeedsRedetection reports whether the last successful detection is older
// than the re-detection interval. A region that was never detected over
// the network always needs it.
func (r *Resolver) NeedsRedetection() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.needsRedetectionLocked()
}

func (r *Resolver) needsRedetectionLocked() bool {
	if r.state.LastDetectedAt.IsZero() {
		return true
	}
	return r.now().Sub(r.state.LastDetectedAt) > r.redetectAfter
}

// Detect determines the current country and records it as the detected
// region. It never fails: a geolocation error falls back to the timezone
// table and then to the default. Only a network answer stamps
// LastDetectedAt, so a fallback result is retried on the next Refresh.
func (r *Resolver) Detect(ctx context.Context) string {
	code, fromNetwork := r.detect(ctx)

	r.mu.Lock()
	before := r.state.EffectiveRegion()
	r.state.Detected = code
	if fromNetwork {
		r.state.LastDetectedAt = r.now().UTC()
	}
	after := r.state.EffectiveRegion()
	r.saveLocked()
	listeners := r.listenersLocked(before, after)
	r.mu.Unlock()

	notify(listeners, after)
	return code
}

func (r *Resolver) detect(ctx context.Context) (string, bool) {
	if r.geo != nil {
		code, err := r.geo.Detect(ctx)
		code = strings.ToUpper(strings.TrimSpace(code))
		switch {
		case err != nil:
			r.logger.Warn().Err(err).Msg("geolocation failed, falling back to timezone")
		case !validation.IsRegion(code):
			r.logger.Warn().Str("code", code).Msg("geolocation returned an invalid country, falling back to timezone")
		default:
			r.logger.Info().Str("region", code).Msg("region detected")
			return code, true
		}
	}

	tz := r.timezone()
	if code, ok := CountryForTimezone(tz); ok {
		r.logger.Info().Str("timezone", tz).Str("region", code).Msg("region inferred from timezone")
		return code, false
	}
	r.logger.Warn().Str("timezone", tz).Str("region", r.fallback).Msg("region unknown, using default")
	return r.fallback, false
}

// Refresh runs Detect when NeedsRedetection reports true and reports
// whether it did.
func (r *Resolver) Refresh(ctx context.Context) bool {
	if !r.NeedsRedetection() {
		return false
	}
	r.Detect(ctx)
	return true
}

// SetOverride sets (code != nil) or clears (code == nil) the manual
// override and invalidates every cached availability answer. The code is
// upper-cased before validation.
func (r *Resolver) SetOverride(code *string) error {
	var override *string
	if code != nil {
		c := strings.ToUpper(strings.TrimSpace(*code))
		if !validation.IsRegion(c) {
			return fmt.Errorf("%w: %q", ErrInvalidRegion, *code)
		}
		override = &c
	}

	r.mu.Lock()
	before := r.state.EffectiveRegion()
	r.state.ManualOverride = override
	after := r.state.EffectiveRegion()
	r.saveLocked()
	listeners := r.listenersLocked(before, after)
	r.mu.Unlock()

	if err := r.invalidateAvailability(after); err != nil {
		return err
	}
	notify(listeners, after)
	return nil
}

// OnChange registers fn to be called with the new effective region after
// it changes.
func (r *Resolver) OnChange(fn func(region string)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, fn)
}

// Reset clears the override and the detection history. When that moves
// the effective region, cached availability is invalidated and listeners
// are told, exactly as for SetOverride.
func (r *Resolver) Reset() error {
	r.mu.Lock()
	before := r.state.EffectiveRegion()
	r.state = State{Detected: r.fallback}
	after := r.state.EffectiveRegion()
	err := r.doc.Delete(r.store)
	listeners := r.listenersLocked(before, after)
	r.mu.Unlock()

	if err != nil {
		return err
	}
	if before != after {
		if err := r.invalidateAvailability(after); err != nil {
			return err
		}
	}
	notify(listeners, after)
	return nil
}

func (r *Resolver) invalidateAvailability(effective string) error {
	if r.invalidator == nil {
		return nil
	}
	n, err := r.invalidator.InvalidateByPrefix(cache.AvailabilityPrefix)
	if err != nil {
		return fmt.Errorf("invalidate availability cache: %w", err)
	}
	r.logger.Info().Str("effective", effective).Int("invalidated", n).Msg("region changed")
	return nil
}

func (r *Resolver) listenersLocked(before, after string) []func(string) {
	if before == after {
		return nil
	}
	return append([]func(string){}, r.listeners...)
}

func (r *Resolver) saveLocked() {
	if err := r.doc.Save(r.store, r.state); err != nil {
		r.logger.Error().Err(err).Msg("failed to persist region state")
	}
}

func notify(listeners []func(string), region string) {
	for _, fn := range listeners {
		fn(region)
	}
}
