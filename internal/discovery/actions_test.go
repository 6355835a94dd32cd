// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package discovery

import (
	"context"
	"errors"
	"testing"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

func TestParseAction(t *testing.T) {
	t.Parallel()

	for _, a := range Actions {
		got, err := ParseAction(string(a))
		if err != nil || got != a {
			t.Errorf("ParseAction(%q) = %q, %v", a, got, err)
		}
	}
	if _, err := ParseAction("meh"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("ParseAction(meh) error = %v, want ErrUnknownAction", err)
	}
}

func TestLove_IdempotentTasteUpdate(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.catalog.add(1)
	ctx := context.Background()

	for i, want := range []bool{true, false} {
		changed, err := h.engine.Love(ctx, 1)
		if err != nil {
			t.Fatal(err)
		}
		if changed != want {
			t.Errorf("call %d: changed = %v, want %v", i, changed, want)
		}
	}

	if got := h.taste.Snapshot().Genres[horror]; got != 1 {
		t.Errorf("horror affinity = %v, want 1", got)
	}
	if !h.ledger.IsFavorited(1) {
		t.Error("movie 1 not favorited")
	}
}

func TestNotInterested_LowersTaste(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.catalog.add(3)

	if _, err := h.engine.NotInterested(context.Background(), 3); err != nil {
		t.Fatal(err)
	}
	s := h.taste.Snapshot()
	if s.Genres[horror] != -1 || s.Decades[2000] != -0.5 || s.Creators[903] != -1 {
		t.Errorf("snapshot = %+v", s)
	}
	if !h.ledger.IsRejected(3) {
		t.Error("movie 3 not rejected")
	}
}

func TestMarkWatched_LeavesTaste(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.catalog.add(1)

	if _, err := h.engine.MarkWatched(context.Background(), 1); err != nil {
		t.Fatal(err)
	}
	if len(h.taste.Snapshot().Genres) != 0 {
		t.Error("watched changed the taste profile")
	}
	if len(h.catalog.fetched) != 0 {
		t.Errorf("fetched details %v for a watched mark", h.catalog.fetched)
	}
}

func TestUnmark(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	h.catalog.add(1)
	ctx := context.Background()

	steps := []struct {
		name string
		fn   func(context.Context, models.MovieID) (bool, error)
		want bool
	}{
		{"love", h.engine.Love, true},
		{"unlove", h.engine.UnmarkLove, true},
		{"unlove again", h.engine.UnmarkLove, false},
		{"watched", h.engine.MarkWatched, true},
		{"unwatched", h.engine.UnmarkWatched, true},
		{"reject", h.engine.NotInterested, true},
		{"unreject", h.engine.UnmarkNotInterested, true},
	}
	for _, s := range steps {
		changed, err := s.fn(ctx, 1)
		if err != nil {
			t.Fatalf("%s: %v", s.name, err)
		}
		if changed != s.want {
			t.Errorf("%s: changed = %v, want %v", s.name, changed, s.want)
		}
	}

	snap := h.ledger.Snapshot()
	if len(snap.Accepted)+len(snap.Favorited)+len(snap.Rejected) != 0 {
		t.Errorf("ledger = %+v, want empty sets", snap)
	}
}

func TestLove_DetailsUnavailable(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)

	changed, err := h.engine.Love(context.Background(), 42)
	if err != nil || !changed {
		t.Fatalf("Love() = %v, %v; want true, nil", changed, err)
	}
	if len(h.taste.Snapshot().Genres) != 0 {
		t.Error("taste updated without details")
	}
}

func TestApply_UnknownAction(t *testing.T) {
	t.Parallel()

	h := newHarness(t, 0)
	if _, err := h.engine.Apply(context.Background(), Action("shrug"), 1, false); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Apply() error = %v, want ErrUnknownAction", err)
	}
}
