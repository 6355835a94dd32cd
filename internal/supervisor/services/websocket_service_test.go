// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type fakeHub struct {
	err  error
	runs atomic.Int32
}

func (f *fakeHub) RunWithContext(ctx context.Context) error {
	f.runs.Add(1)
	if f.err != nil {
		return f.err
	}
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService(t *testing.T) {
	t.Parallel()

	t.Run("delegates until canceled", func(t *testing.T) {
		t.Parallel()
		hub := &fakeHub{}
		svc := NewWebSocketHubService(hub)
		if svc.String() != "websocket-hub" {
			t.Errorf("String() = %q", svc.String())
		}

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()
		if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Serve() = %v", err)
		}
		if hub.runs.Load() != 1 {
			t.Errorf("runs = %d, want 1", hub.runs.Load())
		}
	})

	t.Run("propagates hub error", func(t *testing.T) {
		t.Parallel()
		hubErr := errors.New("hub crashed")
		svc := NewWebSocketHubService(&fakeHub{err: hubErr})
		if err := svc.Serve(context.Background()); !errors.Is(err, hubErr) {
			t.Errorf("Serve() = %v, want %v", err, hubErr)
		}
	})
}
