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

type fakeEvicter struct {
	err    error
	sweeps atomic.Int32
}

func (f *fakeEvicter) EvictExpired() (int, error) {
	f.sweeps.Add(1)
	return 2, f.err
}

type fakeRefresher struct {
	calls       atomic.Int32
	hadDeadline atomic.Bool
}

func (f *fakeRefresher) Refresh(ctx context.Context) bool {
	f.calls.Add(1)
	_, ok := ctx.Deadline()
	f.hadDeadline.Store(ok)
	return false
}

func TestCacheSweepService(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
	}{
		{"sweeps on every tick", nil},
		{"keeps running after a failed sweep", errors.New("store closed")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cache := &fakeEvicter{err: tt.err}
			svc := NewCacheSweepService(cache, 10*time.Millisecond)

			ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
			defer cancel()
			if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("Serve() = %v", err)
			}
			if cache.sweeps.Load() < 2 {
				t.Errorf("sweeps = %d, want at least 2", cache.sweeps.Load())
			}
		})
	}
}

func TestNewCacheSweepService_Defaults(t *testing.T) {
	t.Parallel()

	svc := NewCacheSweepService(&fakeEvicter{}, 0)
	if svc.interval != 10*time.Minute || svc.String() != "cache-sweep" {
		t.Errorf("interval = %v, name = %q", svc.interval, svc.String())
	}
}

func TestRegionRefreshService(t *testing.T) {
	t.Parallel()

	resolver := &fakeRefresher{}
	svc := NewRegionRefreshService(resolver, 10*time.Millisecond, time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 80*time.Millisecond)
	defer cancel()
	if err := svc.Serve(ctx); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Serve() = %v", err)
	}
	if resolver.calls.Load() < 2 {
		t.Errorf("refreshes = %d, want at least 2", resolver.calls.Load())
	}
	if !resolver.hadDeadline.Load() {
		t.Error("refresh context has no deadline")
	}

	def := NewRegionRefreshService(resolver, 0, 0)
	if def.interval != time.Hour || def.timeout != 10*time.Second || def.String() != "region-refresh" {
		t.Errorf("defaults = %v %v %q", def.interval, def.timeout, def.String())
	}
}
