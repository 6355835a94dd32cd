// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package gate bounds concurrent outbound requests per resource class.
//
// A Gate is a counting semaphore with FIFO admission: when a slot frees,
// the longest-waiting caller gets it, and a new caller never overtakes a
// queued one. Gates are shared for the process lifetime by every caller
// of one class, so total fan-out stays bounded no matter how many
// independent call sites exist.
package gate

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/semaphore"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/metrics"
)

// DefaultCapacity is the admission capacity used when none is configured.
const DefaultCapacity = 4

// ErrClosed is returned by Acquire after Close.
var ErrClosed = errors.New("gate: closed")

// Gate is a FIFO counting semaphore. The zero value is not usable; use New.
type Gate struct {
	name     string
	capacity int64
	sem      *semaphore.Weighted

	inFlight atomic.Int64
	waiting  atomic.Int64
	closed   atomic.Bool

	logger zerolog.Logger
}

// Stats is a point-in-time view of a Gate.
type Stats struct {
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
	InFlight int    `json:"in_flight"`
	Waiting  int    `json:"waiting"`
}

// New creates a gate admitting at most capacity concurrent holders.
// capacity < 1 is treated as 1.
func New(name string, capacity int) *Gate {
	if capacity < 1 {
		capacity = 1
	}
	return &Gate{
		name:     name,
		capacity: int64(capacity),
		sem:      semaphore.NewWeighted(int64(capacity)),
		logger:   logging.WithComponent("gate").With().Str("class", name).Logger(),
	}
}

// Name returns the resource class of g.
func (g *Gate) Name() string {
	return g.name
}

// Acquire takes a slot, waiting in arrival order when none is free.
//
// If ctx is done before a slot is granted, the caller leaves the queue
// without holding a slot and ctx.Err() is returned.
func (g *Gate) Acquire(ctx context.Context) error {
	if g.closed.Load() {
		return ErrClosed
	}

	// TryAcquire fails whenever someone is already queued, so this fast
	// path cannot overtake a waiter.
	if g.sem.TryAcquire(1) {
		g.admitted(0)
		return nil
	}

	g.waiting.Add(1)
	metrics.GateWaiting.WithLabelValues(g.name).Inc()
	start := time.Now()
	err := g.sem.Acquire(ctx, 1)
	g.waiting.Add(-1)
	metrics.GateWaiting.WithLabelValues(g.name).Dec()

	if err != nil {
		g.logger.Debug().Err(err).Dur("waited", time.Since(start)).Msg("gave up waiting for slot")
		return err
	}
	if g.closed.Load() {
		g.sem.Release(1)
		return ErrClosed
	}

	waited := time.Since(start)
	g.logger.Debug().Dur("waited", waited).Msg("slot granted")
	g.admitted(waited)
	return nil
}

func (g *Gate) admitted(waited time.Duration) {
	g.inFlight.Add(1)
	metrics.GateInFlight.WithLabelValues(g.name).Inc()
	metrics.GateWaitDuration.WithLabelValues(g.name).Observe(waited.Seconds())
}

// Release frees a slot taken by Acquire, handing it to the head of the
// queue if there is one. Releasing more than was acquired panics.
func (g *Gate) Release() {
	g.inFlight.Add(-1)
	metrics.GateInFlight.WithLabelValues(g.name).Dec()
	g.sem.Release(1)
}

// Do runs fn while holding a slot.
func (g *Gate) Do(ctx context.Context, fn func(context.Context) error) error {
	if err := g.Acquire(ctx); err != nil {
		return err
	}
	defer g.Release()
	return fn(ctx)
}

// Close makes subsequent Acquire calls fail with ErrClosed. Current
// holders are unaffected and must still Release.
func (g *Gate) Close() {
	g.closed.Store(true)
}

// Stats returns the current occupancy of g.
func (g *Gate) Stats() Stats {
	return Stats{
		Name:     g.name,
		Capacity: int(g.capacity),
		InFlight: int(g.inFlight.Load()),
		Waiting:  int(g.waiting.Load()),
	}
}
