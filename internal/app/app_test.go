// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/config"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

const movieJSON = `{
  "id": 550, "title": "Fight Club", "release_date": "1999-10-15",
  "genres": [{"id": 18, "name": "Drama"}],
  "vote_average": 8.4, "vote_count": 30000,
  "credits": {"crew": [{"id": 7467, "name": "David Fincher", "job": "Director"}]},
  "watch/providers": {"results": {"US": {"flatrate": [{"provider_id": 8, "provider_name": "Netflix"}]}}},
  "external_ids": {"imdb_id": "tt0137523"}
}`

type staticGeo string

func (g staticGeo) Detect(context.Context) (string, error) { return string(g), nil }

func newTestApp(t *testing.T) *App {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":550,"title":"Fight Club"}]}`))
	})
	mux.HandleFunc("/movie/550", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(movieJSON))
	})
	mux.HandleFunc("/movie/550/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"US":{"flatrate":[{"provider_id":8,"provider_name":"Netflix"}]}}}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	cfg := config.Default()
	cfg.TMDB.BaseURL = srv.URL
	cfg.TMDB.APIKey = "test"

	a, err := New(cfg, Options{
		Store:      storage.NewMemoryStore(),
		Geolocator: staticGeo("US"),
		Timezone:   func() string { return "Europe/Berlin" },
	})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Close() })
	return a
}

func TestApp_DiscoverEndToEnd(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	ctx := context.Background()
	a.Start(ctx)

	f := models.DefaultFilters()
	f.ProviderIDs = []int{8}
	if err := a.Preferences.Set(models.Preferences{Filters: f, OnboardingComplete: true}); err != nil {
		t.Fatal(err)
	}

	s := a.Engine.Discover(ctx)
	if s.CurrentItem == nil || s.CurrentItem.ID != 550 || !s.Verified {
		t.Fatalf("state = %+v", s)
	}
	if s.Region != "US" {
		t.Errorf("Region = %q, want US", s.Region)
	}
	if !a.Ledger.HasBeenShown(550) {
		t.Error("pick not recorded as shown")
	}
	if a.Ratings != nil {
		t.Error("ratings client built while disabled")
	}
}

func TestApp_RegionOverrideReachesEngine(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	de := "de"
	if err := a.Region.SetOverride(&de); err != nil {
		t.Fatal(err)
	}
	if got := a.Engine.State().Region; got != "DE" {
		t.Errorf("engine region = %q, want DE", got)
	}
}

func TestApp_RegionResetReachesEngine(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	de := "DE"
	if err := a.Region.SetOverride(&de); err != nil {
		t.Fatal(err)
	}
	_ = cache.Set(a.Cache, cache.AvailabilityKey(550, "DE"), models.Availability{}, cache.ClassAvailability)

	if err := a.Reset(ResetOptions{Region: true}); err != nil {
		t.Fatal(err)
	}
	want := a.Region.EffectiveRegion()
	if want == "DE" {
		t.Fatal("reset kept the override")
	}
	if got := a.Engine.State().Region; got != want {
		t.Errorf("engine region = %q, want %q", got, want)
	}
	if r := cache.Get[models.Availability](a.Cache, cache.AvailabilityKey(550, "DE")); r.Found {
		t.Error("availability cached under the old region survived the reset")
	}
}

func TestApp_Reset(t *testing.T) {
	t.Parallel()

	a := newTestApp(t)
	if _, err := a.Ledger.MarkAccepted(1); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Ledger.MarkRejected(2); err != nil {
		t.Fatal(err)
	}

	if err := a.Reset(ResetOptions{Ledger: true}); err != nil {
		t.Fatal(err)
	}
	if a.Ledger.IsAccepted(1) || a.Ledger.IsRejected(2) {
		t.Error("ledger not cleared")
	}

	if !(ResetOptions{}).All().Any() || (ResetOptions{}).Any() {
		t.Error("ResetOptions helpers disagree")
	}
}
