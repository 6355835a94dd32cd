// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package supervisor

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/config"
)

// stubService runs until canceled, failing its first failures starts.
type stubService struct {
	name     string
	failures int32
	starts   atomic.Int32
}

func (s *stubService) Serve(ctx context.Context) error {
	if s.starts.Add(1) <= s.failures {
		return errors.New("sweep failed")
	}
	<-ctx.Done()
	return ctx.Err()
}

func (s *stubService) String() string { return s.name }

// stubbornService ignores cancellation until released.
type stubbornService struct{ release chan struct{} }

func (s *stubbornService) Serve(context.Context) error {
	<-s.release
	return nil
}

func (s *stubbornService) String() string { return "stubborn" }

func quietEvents() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runInBackground(t *testing.T, tree *Tree, ctx context.Context) <-chan error {
	t.Helper()
	errCh := make(chan error, 1)
	go func() { errCh <- tree.Run(ctx) }()
	return errCh
}

func TestConfig(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   Config
		want Config
	}{
		{name: "zero takes defaults", in: Config{}, want: Defaults()},
		{
			name: "negative takes defaults",
			in:   Config{FailureThreshold: -1, FailureBackoff: -time.Second},
			want: Defaults(),
		},
		{
			name: "set fields kept",
			in:   Config{FailureThreshold: 2, FailureDecay: 5, FailureBackoff: time.Second, ShutdownTimeout: 3 * time.Second},
			want: Config{FailureThreshold: 2, FailureDecay: 5, FailureBackoff: time.Second, ShutdownTimeout: 3 * time.Second},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := New(tt.in, quietEvents()).cfg; got != tt.want {
				t.Errorf("cfg = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestConfigFrom(t *testing.T) {
	t.Parallel()

	got := ConfigFrom(config.SupervisorConfig{
		FailureThreshold: 3,
		FailureDecay:     10,
		FailureBackoff:   time.Second,
		ShutdownTimeout:  2 * time.Second,
	})
	want := Config{FailureThreshold: 3, FailureDecay: 10, FailureBackoff: time.Second, ShutdownTimeout: 2 * time.Second}
	if got != want {
		t.Errorf("ConfigFrom = %+v, want %+v", got, want)
	}
}

func TestLayerString(t *testing.T) {
	t.Parallel()

	for l, want := range map[Layer]string{LayerUpkeep: "upkeep", LayerPush: "push", LayerAPI: "api", Layer(9): "layer(9)"} {
		if got := l.String(); got != want {
			t.Errorf("Layer(%d) = %q, want %q", int(l), got, want)
		}
	}
}

func TestAddUnknownLayerPanics(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("Add to an unknown layer did not panic")
		}
	}()
	New(Config{}, quietEvents()).Add(layerCount, &stubService{name: "x"})
}

func TestRun_StartsEveryLayerAndStopsCleanly(t *testing.T) {
	t.Parallel()

	tree := New(Config{FailureBackoff: 100 * time.Millisecond, ShutdownTimeout: time.Second}, quietEvents())
	sweep := &stubService{name: "cache-sweep"}
	hub := &stubService{name: "websocket-hub"}
	api := &stubService{name: "api-server"}
	tree.Add(LayerUpkeep, sweep)
	tree.Add(LayerPush, hub)
	tree.Add(LayerAPI, api)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runInBackground(t, tree, ctx)
	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v, want nil after cancellation", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("tree did not shut down in time")
	}
	for _, svc := range []*stubService{sweep, hub, api} {
		if svc.starts.Load() != 1 {
			t.Errorf("%s started %d times, want 1", svc.name, svc.starts.Load())
		}
	}
}

func TestRun_RestartsFailedServiceOnly(t *testing.T) {
	t.Parallel()

	tree := New(Config{FailureThreshold: 10, FailureBackoff: 10 * time.Millisecond, ShutdownTimeout: time.Second}, quietEvents())
	failing := &stubService{name: "region-refresh", failures: 2}
	stable := &stubService{name: "api-server"}
	tree.Add(LayerUpkeep, failing)
	tree.Add(LayerAPI, stable)

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	errCh := runInBackground(t, tree, ctx)
	time.Sleep(200 * time.Millisecond)

	if failing.starts.Load() < 3 {
		t.Errorf("failing service started %d times, want at least 3", failing.starts.Load())
	}
	if stable.starts.Load() != 1 {
		t.Errorf("stable service started %d times, want 1", stable.starts.Load())
	}
	<-errCh
}

func TestRun_ReturnsAfterShutdownTimeout(t *testing.T) {
	t.Parallel()

	tree := New(Config{ShutdownTimeout: 50 * time.Millisecond}, quietEvents())
	stuck := &stubbornService{release: make(chan struct{})}
	t.Cleanup(func() { close(stuck.release) })
	tree.Add(LayerPush, stuck)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := runInBackground(t, tree, ctx)
	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Run() = %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Run blocked on a service that ignores cancellation")
	}
}
