// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package gate

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not reached")
		}
		time.Sleep(time.Millisecond)
	}
}

func TestGate_FIFOAdmission(t *testing.T) {
	t.Parallel()

	const capacity = 2
	const waiters = 5
	g := New("fifo-test", capacity)
	ctx := context.Background()

	for i := 0; i < capacity; i++ {
		if err := g.Acquire(ctx); err != nil {
			t.Fatalf("acquire %d: %v", i, err)
		}
	}
	if s := g.Stats(); s.InFlight != capacity || s.Waiting != 0 {
		t.Fatalf("stats after fill = %+v", s)
	}

	order := make(chan int, waiters)
	for i := 0; i < waiters; i++ {
		go func() {
			if err := g.Acquire(ctx); err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			order <- i
		}()
		waitFor(t, func() bool { return g.Stats().Waiting == i+1 })
		// Let the waiter reach the semaphore queue before the next one starts.
		time.Sleep(5 * time.Millisecond)
	}

	select {
	case i := <-order:
		t.Fatalf("waiter %d admitted without a release", i)
	case <-time.After(20 * time.Millisecond):
	}

	for want := 0; want < waiters; want++ {
		g.Release()
		select {
		case got := <-order:
			if got != want {
				t.Fatalf("admitted waiter %d, want %d", got, want)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("waiter %d never admitted", want)
		}
	}

	waitFor(t, func() bool { return g.Stats().Waiting == 0 })
	if s := g.Stats(); s.InFlight != capacity {
		t.Errorf("in flight = %d, want %d", s.InFlight, capacity)
	}
}

func TestGate_BoundsConcurrency(t *testing.T) {
	t.Parallel()

	g := New("bound-test", DefaultCapacity)
	var current, peak atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = g.Do(context.Background(), func(context.Context) error {
				n := current.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(2 * time.Millisecond)
				current.Add(-1)
				return nil
			})
		}()
	}
	wg.Wait()

	if p := peak.Load(); p > DefaultCapacity {
		t.Errorf("peak concurrency %d exceeds capacity %d", p, DefaultCapacity)
	}
	if s := g.Stats(); s.InFlight != 0 || s.Waiting != 0 {
		t.Errorf("stats after drain = %+v", s)
	}
}

func TestGate_CancelledWaiterLeavesQueue(t *testing.T) {
	t.Parallel()

	g := New("cancel-test", 1)
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- g.Acquire(ctx) }()
	waitFor(t, func() bool { return g.Stats().Waiting == 1 })
	cancel()

	if err := <-errc; !errors.Is(err, context.Canceled) {
		t.Fatalf("err = %v, want context.Canceled", err)
	}
	if s := g.Stats(); s.Waiting != 0 || s.InFlight != 1 {
		t.Fatalf("stats after cancel = %+v", s)
	}

	g.Release()
	if err := g.Acquire(context.Background()); err != nil {
		t.Fatalf("slot should be free again: %v", err)
	}
	g.Release()
}

func TestGate_DoPropagatesError(t *testing.T) {
	t.Parallel()

	g := New("do-test", 1)
	boom := errors.New("boom")
	if err := g.Do(context.Background(), func(context.Context) error { return boom }); !errors.Is(err, boom) {
		t.Errorf("err = %v", err)
	}
	if s := g.Stats(); s.InFlight != 0 {
		t.Errorf("slot leaked: %+v", s)
	}
}

func TestGate_Closed(t *testing.T) {
	t.Parallel()

	g := New("closed-test", 2)
	g.Close()
	if err := g.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestNew_ClampsCapacity(t *testing.T) {
	t.Parallel()

	if c := New("zero", 0).Stats().Capacity; c != 1 {
		t.Errorf("capacity = %d, want 1", c)
	}
}

func TestRegistry_SharesGatePerClass(t *testing.T) {
	t.Parallel()

	r := NewRegistry(3)
	a := r.Get(ClassAvailability)
	if r.Get(ClassAvailability) != a {
		t.Fatal("Get returned a different gate for the same class")
	}
	if r.Get(ClassDetails) == a {
		t.Fatal("classes must not share a gate")
	}

	stats := r.Stats()
	if len(stats) != 2 || stats[0].Name != ClassAvailability || stats[1].Name != ClassDetails {
		t.Fatalf("stats = %+v", stats)
	}
	if stats[0].Capacity != 3 {
		t.Errorf("capacity = %d", stats[0].Capacity)
	}

	r.Close()
	if err := a.Acquire(context.Background()); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}
