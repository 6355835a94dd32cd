// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/gate"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

// fakeCatalog serves canned catalog responses and counts requests per path.
type fakeCatalog struct {
	t   *testing.T
	mux *http.ServeMux

	mu     sync.Mutex
	counts map[string]int
	last   map[string]*http.Request
}

func newFakeCatalog(t *testing.T) *fakeCatalog {
	return &fakeCatalog{
		t:      t,
		mux:    http.NewServeMux(),
		counts: make(map[string]int),
		last:   make(map[string]*http.Request),
	}
}

func (f *fakeCatalog) handle(path string, fn func(w http.ResponseWriter, r *http.Request)) {
	f.mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.counts[path]++
		f.last[path] = r
		f.mu.Unlock()
		fn(w, r)
	})
}

func (f *fakeCatalog) count(path string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.counts[path]
}

func (f *fakeCatalog) lastRequest(path string) *http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last[path]
}

func writeJSON(t *testing.T, w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("encode: %v", err)
	}
}

func newTestClient(t *testing.T, f *fakeCatalog, apiKey string) *Client {
	t.Helper()
	srv := httptest.NewServer(f.mux)
	t.Cleanup(srv.Close)
	c := cache.New(storage.NewMemoryStore())
	t.Cleanup(c.Wait)
	return New(Config{
		BaseURL:           srv.URL,
		APIKey:            apiKey,
		RequestsPerSecond: 1000,
		Burst:             100,
		Timeout:           5 * time.Second,
		MaxPages:          3,
	}, c, gate.NewRegistry(gate.DefaultCapacity))
}

func summaries(ids ...int) []models.MovieSummary {
	out := make([]models.MovieSummary, len(ids))
	for i, id := range ids {
		out[i] = models.MovieSummary{ID: models.MovieID(id), Title: "Movie " + strconv.Itoa(id)}
	}
	return out
}

func intPtr(v int) *int { return &v }

func TestLadder(t *testing.T) {
	t.Parallel()

	full := models.DiscoveryFilters{GenreID: intPtr(27), ProviderIDs: []int{8}, MinRating: 6, MinVoteCount: 500}

	tests := []struct {
		name    string
		filters models.DiscoveryFilters
		lock    bool
		rungs   int
		check   func(t *testing.T, rungs []query)
	}{
		{
			name:    "defaults without providers",
			filters: models.DefaultFilters(),
			rungs:   4,
			check: func(t *testing.T, r []query) {
				if r[1].filters.MinVoteCount != 100 || r[1].filters.MinRating != 6 {
					t.Errorf("rung 1 = %+v", r[1].filters)
				}
				if r[2].filters.MinRating != 5 || r[2].filters.MinVoteCount != 100 {
					t.Errorf("rung 2 = %+v", r[2].filters)
				}
				if r[3].filters.MinRating != 4 || r[3].filters.MinVoteCount != 50 {
					t.Errorf("rung 3 = %+v", r[3].filters)
				}
			},
		},
		{
			name:    "unlocked drops providers then genre",
			filters: full,
			rungs:   6,
			check: func(t *testing.T, r []query) {
				if !r[4].anyProvider || r[4].filters.HasProviders() || !r[4].filters.HasGenre() {
					t.Errorf("rung 4 = %+v", r[4])
				}
				if r[5].filters.HasGenre() || !r[5].anyProvider {
					t.Errorf("rung 5 = %+v", r[5])
				}
			},
		},
		{
			name:    "locked keeps providers and genre",
			filters: full,
			lock:    true,
			rungs:   4,
			check: func(t *testing.T, r []query) {
				for i, q := range r {
					if !q.filters.HasGenre() || !q.filters.HasProviders() || q.anyProvider {
						t.Errorf("rung %d dropped a locked dimension: %+v", i, q)
					}
				}
			},
		},
		{
			name:    "already loose",
			filters: models.DiscoveryFilters{MinRating: 0, MinVoteCount: 20},
			rungs:   1,
		},
		{
			name:    "rating floor",
			filters: models.DiscoveryFilters{MinRating: 1.5, MinVoteCount: 10},
			rungs:   3,
			check: func(t *testing.T, r []query) {
				if r[2].filters.MinRating != 0 {
					t.Errorf("rating must not go below 0: %v", r[2].filters.MinRating)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ladder(tt.filters, tt.lock)
			if len(got) != tt.rungs {
				t.Fatalf("rungs = %d, want %d: %+v", len(got), tt.rungs, got)
			}
			if tt.check != nil {
				tt.check(t, got)
			}
			if tt.filters.MinVoteCount != got[0].filters.MinVoteCount {
				t.Error("ladder mutated the input filters")
			}
		})
	}
}

func TestDiscover_RelaxesUntilResults(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		votes, _ := strconv.Atoi(r.URL.Query().Get("vote_count.gte"))
		resp := pageResponse{Page: 1, TotalPages: 1}
		if votes <= 100 {
			resp.Results = summaries(1, 2, 3)
		}
		writeJSON(t, w, resp)
	})
	c := newTestClient(t, f, "")

	exclude := map[models.MovieID]struct{}{2: {}}
	res, err := c.Discover(context.Background(), models.DefaultFilters(), "US", exclude, models.DiscoverOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.RelaxationStep != 1 {
		t.Errorf("step = %d, want 1", res.RelaxationStep)
	}
	if len(res.Candidates) != 2 || res.Candidates[0].ID != 1 || res.Candidates[1].ID != 3 {
		t.Errorf("candidates = %+v", res.Candidates)
	}
	if n := f.count("/discover/movie"); n != 2 {
		t.Errorf("requests = %d, want 2", n)
	}
}

func TestDiscover_Exhausted(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, pageResponse{Page: 1, TotalPages: 1})
	})
	c := newTestClient(t, f, "")

	filters := models.DiscoveryFilters{GenreID: intPtr(27), ProviderIDs: []int{8}, MinRating: 6, MinVoteCount: 500}
	res, err := c.Discover(context.Background(), filters, "US", nil, models.DiscoverOptions{LockFilters: true})
	if err != nil {
		t.Fatal(err)
	}
	if len(res.Candidates) != 0 || res.RelaxationStep != 3 {
		t.Errorf("result = %+v", res)
	}
	if n := f.count("/discover/movie"); n != 4 {
		t.Errorf("requests = %d, want one per rung", n)
	}

	q := f.lastRequest("/discover/movie").URL.Query()
	if q.Get("with_genres") != "27" || q.Get("with_watch_providers") != "8" || q.Get("watch_region") != "US" {
		t.Errorf("locked dimensions missing from last query: %v", q)
	}
	if q.Get("with_watch_monetization_types") != streamingMonetization {
		t.Errorf("monetization = %q", q.Get("with_watch_monetization_types"))
	}
}

func TestDiscover_PagesPastExcluded(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		resp := pageResponse{Page: page, TotalPages: 3}
		switch page {
		case 1:
			resp.Results = summaries(1, 2)
		case 2:
			resp.Results = summaries(3, 4, 5, 6, 7)
		default:
			t.Errorf("page %d should not be requested", page)
		}
		writeJSON(t, w, resp)
	})
	c := newTestClient(t, f, "")

	exclude := map[models.MovieID]struct{}{1: {}, 2: {}}
	res, err := c.Discover(context.Background(), models.DefaultFilters(), "US", exclude, models.DiscoverOptions{})
	if err != nil {
		t.Fatal(err)
	}
	if res.RelaxationStep != 0 || len(res.Candidates) != 5 || res.Candidates[0].ID != 3 {
		t.Errorf("result = %+v", res)
	}
}

func TestDiscover_UpstreamError(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"boom"}`, http.StatusInternalServerError)
	})
	c := newTestClient(t, f, "")

	if _, err := c.Discover(context.Background(), models.DefaultFilters(), "US", nil, models.DiscoverOptions{}); err == nil {
		t.Fatal("expected an error")
	}
}

const detailsJSON = `{
  "id": 550, "title": "Fight Club", "release_date": "1999-10-15", "runtime": 139,
  "genres": [{"id": 18, "name": "Drama"}],
  "vote_average": 8.4, "vote_count": 30000,
  "credits": {"crew": [
    {"id": 7467, "name": "David Fincher", "job": "Director"},
    {"id": 7469, "name": "Jim Uhls", "job": "Screenplay"}
  ]},
  "watch/providers": {"results": {
    "US": {"link": "https://example.test/550", "flatrate": [{"provider_id": 8, "provider_name": "Netflix", "display_priority": 1}],
           "rent": [{"provider_id": 2, "provider_name": "Apple TV", "display_priority": 4}]},
    "DE": {"buy": [{"provider_id": 2, "provider_name": "Apple TV"}]}
  }},
  "external_ids": {"imdb_id": "tt0137523"}
}`

func TestDetails(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/movie/550", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("append_to_response"); got != "credits,watch/providers,external_ids" {
			t.Errorf("append_to_response = %q", got)
		}
		_, _ = w.Write([]byte(detailsJSON))
	})
	c := newTestClient(t, f, "")

	d, err := c.Details(context.Background(), 550)
	if err != nil {
		t.Fatal(err)
	}
	if d.Title != "Fight Club" || d.IMDbID != "tt0137523" || d.Decade() != 1990 {
		t.Errorf("details = %+v", d)
	}
	if len(d.Directors) != 1 || d.Directors[0].ID != 7467 {
		t.Errorf("directors = %+v", d.Directors)
	}
	if !d.Availability.StreamsOn("US", []int{8}) {
		t.Error("expected Netflix flatrate in US")
	}
	if d.Availability.StreamsOn("US", []int{2}) || d.Availability.StreamsOn("DE", []int{2}) {
		t.Error("rent and buy tiers must not count as streaming")
	}

	if _, err := c.Details(context.Background(), 550); err != nil {
		t.Fatal(err)
	}
	if n := f.count("/movie/550"); n != 1 {
		t.Errorf("requests = %d, second call should hit the cache", n)
	}
}

func TestDetails_NotFoundIsCached(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/movie/404", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_code":34}`, http.StatusNotFound)
	})
	c := newTestClient(t, f, "")

	for i := 0; i < 2; i++ {
		if _, err := c.Details(context.Background(), 404); !errors.Is(err, ErrNotFound) {
			t.Fatalf("err = %v, want ErrNotFound", err)
		}
	}
	if n := f.count("/movie/404"); n != 1 {
		t.Errorf("requests = %d", n)
	}
}

func TestAvailability(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/movie/550/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"id":550,"results":{
			"US":{"flatrate":[{"provider_id":8,"provider_name":"Netflix"}]},
			"GB":{"free":[{"provider_id":9,"provider_name":"Free Service"}]}}}`))
	})
	c := newTestClient(t, f, "")

	us, err := c.Availability(context.Background(), 550, "US")
	if err != nil {
		t.Fatal(err)
	}
	if len(us) != 1 || !us.StreamsOn("US", []int{8}) {
		t.Errorf("US = %+v", us)
	}

	all, err := c.Availability(context.Background(), 550, "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 2 || !all.StreamsOn("GB", []int{9}) {
		t.Errorf("all = %+v", all)
	}

	fr, err := c.Availability(context.Background(), 550, "FR")
	if err != nil || len(fr) != 0 {
		t.Errorf("FR = %+v, %v", fr, err)
	}
}

func TestRegionProviders_SortedByPriority(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/watch/providers/movie", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("watch_region") != "DE" {
			t.Errorf("watch_region = %q", r.URL.Query().Get("watch_region"))
		}
		_, _ = w.Write([]byte(`{"results":[
			{"provider_id":337,"provider_name":"Disney Plus","display_priority":5},
			{"provider_id":8,"provider_name":"Netflix","display_priority":1}]}`))
	})
	c := newTestClient(t, f, "")

	got, err := c.RegionProviders(context.Background(), "DE")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 || got[0].ID != 8 || got[1].Name != "Disney Plus" {
		t.Errorf("providers = %+v", got)
	}
}

func TestGenres_ConcurrentCallersShareOneRequest(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	f := newFakeCatalog(t)
	f.handle("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte(`{"genres":[{"id":27,"name":"Horror"},{"id":35,"name":"Comedy"}]}`))
	})
	c := newTestClient(t, f, "")

	var wg sync.WaitGroup
	var failures atomic.Int32
	for i := 0; i < 6; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if g, err := c.Genres(context.Background()); err != nil || len(g) != 2 {
				failures.Add(1)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if failures.Load() != 0 {
		t.Errorf("%d callers failed", failures.Load())
	}
	if n := f.count("/genre/movie/list"); n != 1 {
		t.Errorf("requests = %d, want 1", n)
	}
	if name := c.GenreName(context.Background(), 27); name != "Horror" {
		t.Errorf("GenreName = %q", name)
	}
	if name := c.GenreName(context.Background(), 99); name != "" {
		t.Errorf("unknown genre = %q", name)
	}
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		key        string
		wantHeader string
		wantParam  string
	}{
		{"v3 key", "abc123", "", "abc123"},
		{"v4 token", "eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.c2ln", "Bearer eyJhbGciOiJIUzI1NiJ9.eyJzdWIiOiJ4In0.c2ln", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			f := newFakeCatalog(t)
			f.handle("/trending/movie/day", func(w http.ResponseWriter, r *http.Request) {
				writeJSON(t, w, pageResponse{Results: summaries(1)})
			})
			c := newTestClient(t, f, tt.key)

			if _, err := c.Trending(context.Background(), "day"); err != nil {
				t.Fatal(err)
			}
			r := f.lastRequest("/trending/movie/day")
			if got := r.Header.Get("Authorization"); got != tt.wantHeader {
				t.Errorf("Authorization = %q", got)
			}
			if got := r.URL.Query().Get("api_key"); got != tt.wantParam {
				t.Errorf("api_key = %q", got)
			}
			if got := r.URL.Query().Get("language"); got != "en-US" {
				t.Errorf("language = %q", got)
			}
		})
	}
}

func TestSearch(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	f.handle("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "alien" || r.URL.Query().Get("page") != "2" {
			t.Errorf("query = %v", r.URL.Query())
		}
		writeJSON(t, w, pageResponse{Results: summaries(348)})
	})
	c := newTestClient(t, f, "")

	got, err := c.Search(context.Background(), "  alien ", 2)
	if err != nil || len(got) != 1 || got[0].ID != 348 {
		t.Fatalf("Search = %+v, %v", got, err)
	}
	if empty, err := c.Search(context.Background(), " ", 1); err != nil || empty != nil {
		t.Errorf("blank search = %+v, %v", empty, err)
	}
}

func TestNowPlaying(t *testing.T) {
	t.Parallel()

	f := newFakeCatalog(t)
	var calls atomic.Int32
	f.handle("/movie/now_playing", func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		if got := r.URL.Query().Get("region"); got != "DE" {
			t.Errorf("region = %q", got)
		}
		writeJSON(t, w, pageResponse{Results: summaries(11, 12)})
	})
	c := newTestClient(t, f, "")

	for i := 0; i < 2; i++ {
		got, err := c.NowPlaying(context.Background(), "DE")
		if err != nil || len(got) != 2 {
			t.Fatalf("NowPlaying = %+v, %v", got, err)
		}
	}
	if calls.Load() != 1 {
		t.Errorf("upstream calls = %d, want 1 (second read cached)", calls.Load())
	}
}
