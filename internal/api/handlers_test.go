// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package api

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/app"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/config"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

const testOrigin = "http://localhost:5173"

const movieJSON = `{
  "id": 550, "title": "Fight Club", "release_date": "1999-10-15",
  "genres": [{"id": 18, "name": "Drama"}],
  "vote_average": 8.4, "vote_count": 30000,
  "credits": {"crew": [{"id": 7467, "name": "David Fincher", "job": "Director"}]},
  "watch/providers": {"results": {"US": {"flatrate": [{"provider_id": 8, "provider_name": "Netflix"}]}}},
  "external_ids": {"imdb_id": "tt0137523"}
}`

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{Level: "error", Format: "console", Output: io.Discard})
}

type staticGeo string

func (g staticGeo) Detect(context.Context) (string, error) { return string(g), nil }

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

func newTestServer(t *testing.T, mw MiddlewareConfig) (*httptest.Server, *app.App) {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/discover/movie", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":550,"title":"Fight Club"}]}`))
	})
	mux.HandleFunc("/movie/550", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(movieJSON))
	})
	mux.HandleFunc("/genre/movie/list", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"genres":[{"id":18,"name":"Drama"}]}`))
	})
	mux.HandleFunc("/movie/550/watch/providers", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"results":{"US":{"flatrate":[{"provider_id":8,"provider_name":"Netflix"}]},"DE":{"rent":[{"provider_id":2,"provider_name":"Apple TV"}]}}}`))
	})
	mux.HandleFunc("/trending/movie/{window}", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":11,"title":"Trending ` + r.PathValue("window") + `"}]}`))
	})
	mux.HandleFunc("/movie/now_playing", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":12,"title":"In theaters ` + r.URL.Query().Get("region") + `"}]}`))
	})
	mux.HandleFunc("/search/movie", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("query") != "fight" {
			_, _ = w.Write([]byte(`{"page":1,"total_pages":0,"results":[]}`))
			return
		}
		_, _ = w.Write([]byte(`{"page":1,"total_pages":1,"results":[{"id":550,"title":"Fight Club"}]}`))
	})
	catalog := httptest.NewServer(mux)
	t.Cleanup(catalog.Close)

	cfg := config.Default()
	cfg.TMDB.BaseURL = catalog.URL
	cfg.TMDB.APIKey = "test"

	a, err := app.New(cfg, app.Options{
		Store:      storage.NewMemoryStore(),
		Geolocator: staticGeo("US"),
		Timezone:   func() string { return "UTC" },
	})
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = a.Hub.RunWithContext(ctx) }()

	srv := httptest.NewServer(NewRouter(a, mw))
	t.Cleanup(func() {
		srv.Close()
		cancel()
		_ = a.Close()
	})
	return srv, a
}

func testMiddleware() MiddlewareConfig {
	cfg := DefaultMiddlewareConfig()
	cfg.CORSAllowedOrigins = []string{testOrigin}
	cfg.RateLimitDisabled = true
	return cfg
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, envelope) {
	t.Helper()
	var rdr io.Reader
	if body != "" {
		rdr = strings.NewReader(body)
	}
	req, err := http.NewRequest(method, srv.URL+path, rdr)
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatalf("%s %s: decode: %v", method, path, err)
	}
	return resp.StatusCode, env
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, testMiddleware())
	code, env := do(t, srv, http.MethodGet, "/api/v1/health", "")
	if code != http.StatusOK || env.Status != "success" {
		t.Fatalf("health = %d %+v", code, env)
	}
	var h HealthResponse
	if err := json.Unmarshal(env.Data, &h); err != nil {
		t.Fatal(err)
	}
	if h.Status != "healthy" || h.CatalogBreaker != "closed" || h.Region != "US" {
		t.Errorf("health = %+v", h)
	}
}

func TestDiscoveryFlow(t *testing.T) {
	t.Parallel()

	srv, a := newTestServer(t, testMiddleware())

	code, env := do(t, srv, http.MethodPost, "/api/v1/discovery", "")
	if code != http.StatusOK {
		t.Fatalf("POST discovery = %d", code)
	}
	var state struct {
		CurrentItem *struct {
			ID    int64  `json:"id"`
			Title string `json:"title"`
		} `json:"current_item"`
		IsLoading bool   `json:"is_loading"`
		Error     string `json:"error"`
	}
	if err := json.Unmarshal(env.Data, &state); err != nil {
		t.Fatal(err)
	}
	if state.CurrentItem == nil || state.CurrentItem.ID != 550 || state.IsLoading || state.Error != "" {
		t.Fatalf("state = %s", env.Data)
	}

	code, env = do(t, srv, http.MethodGet, "/api/v1/discovery", "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), "Fight Club") {
		t.Errorf("GET discovery = %d %s", code, env.Data)
	}
	if !a.Ledger.HasBeenShown(550) {
		t.Error("pick not recorded")
	}
}

func TestMovieAction(t *testing.T) {
	t.Parallel()

	srv, a := newTestServer(t, testMiddleware())

	tests := []struct {
		name     string
		method   string
		path     string
		wantCode int
		changed  bool
		errCode  string
	}{
		{"love", http.MethodPost, "/api/v1/movies/550/actions/love", http.StatusOK, true, ""},
		{"love again", http.MethodPost, "/api/v1/movies/550/actions/love", http.StatusOK, false, ""},
		{"undo love", http.MethodDelete, "/api/v1/movies/550/actions/love", http.StatusOK, true, ""},
		{"watched", http.MethodPost, "/api/v1/movies/550/actions/watched", http.StatusOK, true, ""},
		{"bad action", http.MethodPost, "/api/v1/movies/550/actions/meh", http.StatusBadRequest, false, codeValidation},
		{"bad id", http.MethodPost, "/api/v1/movies/abc/actions/love", http.StatusBadRequest, false, codeBadRequest},
		{"negative id", http.MethodPost, "/api/v1/movies/-3/actions/love", http.StatusBadRequest, false, codeValidation},
	}
	for _, tt := range tests {
		code, env := do(t, srv, tt.method, tt.path, "")
		if code != tt.wantCode {
			t.Errorf("%s: code = %d, want %d", tt.name, code, tt.wantCode)
			continue
		}
		if code != http.StatusOK {
			if env.Error == nil || env.Error.Code != tt.errCode {
				t.Errorf("%s: error = %+v, want code %s", tt.name, env.Error, tt.errCode)
			}
			continue
		}
		var resp ActionResponse
		if err := json.Unmarshal(env.Data, &resp); err != nil {
			t.Fatal(err)
		}
		if resp.Changed != tt.changed {
			t.Errorf("%s: changed = %v, want %v", tt.name, resp.Changed, tt.changed)
		}
	}

	if a.Ledger.IsFavorited(550) || !a.Ledger.IsAccepted(550) {
		t.Errorf("ledger = %+v", a.Ledger.Snapshot())
	}
}

func TestPreferences(t *testing.T) {
	t.Parallel()

	srv, a := newTestServer(t, testMiddleware())

	code, env := do(t, srv, http.MethodPut, "/api/v1/preferences",
		`{"filters":{"min_rating":11,"min_vote_count":0,"provider_ids":[]},"onboarding_complete":true}`)
	if code != http.StatusBadRequest || env.Error == nil || env.Error.Code != codeValidation {
		t.Fatalf("invalid prefs = %d %+v", code, env.Error)
	}

	code, _ = do(t, srv, http.MethodPut, "/api/v1/preferences",
		`{"filters":{"genre_id":27,"min_rating":7,"min_vote_count":100,"provider_ids":[8]},"onboarding_complete":true}`)
	if code != http.StatusOK {
		t.Fatalf("valid prefs = %d", code)
	}
	got := a.Preferences.Get()
	if !got.FiltersLocked() || got.Filters.MinRating != 7 || *got.Filters.GenreID != 27 {
		t.Errorf("stored = %+v", got)
	}

	code, _ = do(t, srv, http.MethodPut, "/api/v1/preferences", `{"filters":{},"bogus":1}`)
	if code != http.StatusBadRequest {
		t.Errorf("unknown field accepted: %d", code)
	}
}

func TestRegionOverride(t *testing.T) {
	t.Parallel()

	srv, a := newTestServer(t, testMiddleware())

	code, env := do(t, srv, http.MethodPut, "/api/v1/region/override", `{"region":"DE"}`)
	if code != http.StatusOK {
		t.Fatalf("override = %d %+v", code, env.Error)
	}
	var resp struct {
		Effective string `json:"effective"`
	}
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Effective != "DE" || a.Engine.State().Region != "DE" {
		t.Errorf("effective = %q, engine = %q", resp.Effective, a.Engine.State().Region)
	}

	if code, _ := do(t, srv, http.MethodPut, "/api/v1/region/override", `{"region":"Germany"}`); code != http.StatusBadRequest {
		t.Errorf("invalid region = %d, want 400", code)
	}

	if code, _ := do(t, srv, http.MethodPut, "/api/v1/region/override", `{"region":null}`); code != http.StatusOK {
		t.Errorf("clear override = %d", code)
	}
	if a.Region.State().ManualOverride != nil {
		t.Error("override not cleared")
	}
}

func TestReset(t *testing.T) {
	t.Parallel()

	srv, a := newTestServer(t, testMiddleware())
	if _, err := a.Ledger.MarkRejected(9); err != nil {
		t.Fatal(err)
	}

	if code, _ := do(t, srv, http.MethodPost, "/api/v1/reset", `{}`); code != http.StatusBadRequest {
		t.Errorf("empty reset = %d, want 400", code)
	}
	if code, _ := do(t, srv, http.MethodPost, "/api/v1/reset", `{"ledger":true}`); code != http.StatusOK {
		t.Errorf("reset = %d", code)
	}
	if a.Ledger.IsRejected(9) {
		t.Error("ledger not reset")
	}
}

func TestLedgerAndTaste(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, testMiddleware())
	if code, _ := do(t, srv, http.MethodPost, "/api/v1/movies/550/actions/love", ""); code != http.StatusOK {
		t.Fatalf("love = %d", code)
	}

	code, env := do(t, srv, http.MethodGet, "/api/v1/ledger", "")
	if code != http.StatusOK || !strings.Contains(string(env.Data), `"favorited":[550]`) {
		t.Errorf("ledger = %d %s", code, env.Data)
	}

	code, env = do(t, srv, http.MethodGet, "/api/v1/taste", "")
	if code != http.StatusOK {
		t.Fatalf("taste = %d", code)
	}
	var taste TasteResponse
	if err := json.Unmarshal(env.Data, &taste); err != nil {
		t.Fatal(err)
	}
	if len(taste.TopGenres) != 1 || taste.TopGenres[0].ID != 18 || taste.TopGenres[0].Name != "Drama" {
		t.Errorf("top genres = %+v", taste.TopGenres)
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, testMiddleware())
	code, env := do(t, srv, http.MethodGet, "/api/v1/nope", "")
	if code != http.StatusNotFound || env.Error == nil || env.Error.Code != codeNotFound {
		t.Errorf("got %d %+v", code, env.Error)
	}
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	mw := testMiddleware()
	mw.RateLimitDisabled = false
	mw.RateLimitRequests = 2
	srv, _ := newTestServer(t, mw)

	var last int
	for i := 0; i < 3; i++ {
		last, _ = do(t, srv, http.MethodGet, "/api/v1/discovery", "")
	}
	if last != http.StatusTooManyRequests {
		t.Errorf("third request = %d, want 429", last)
	}
}

func TestRequestIDEchoed(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, testMiddleware())
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/v1/discovery", nil)
	req.Header.Set("X-Request-Id", "abc12345")
	resp, err := srv.Client().Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()

	var env struct {
		Metadata struct {
			CorrelationID string `json:"correlation_id"`
		} `json:"metadata"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		t.Fatal(err)
	}
	if resp.Header.Get("X-Request-Id") != "abc12345" || env.Metadata.CorrelationID != "abc12345" {
		t.Errorf("header = %q, correlation = %q", resp.Header.Get("X-Request-Id"), env.Metadata.CorrelationID)
	}
}

func TestWebSocket(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, testMiddleware())
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/ws"

	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial without Origin succeeded")
	}
	if resp != nil {
		resp.Body.Close()
	}

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL, http.Header{"Origin": {testOrigin}})
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	resp.Body.Close()
	defer conn.Close()

	// Give the hub a moment to register the client before the discover.
	time.Sleep(50 * time.Millisecond)
	if code, _ := do(t, srv, http.MethodPost, "/api/v1/discovery", ""); code != http.StatusOK {
		t.Fatalf("discover = %d", code)
	}

	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var msg struct {
			Type string `json:"type"`
			Data struct {
				CurrentItem *struct {
					ID int64 `json:"id"`
				} `json:"current_item"`
			} `json:"data"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Type == "state" && msg.Data.CurrentItem != nil && msg.Data.CurrentItem.ID == 550 {
			return
		}
	}
}
