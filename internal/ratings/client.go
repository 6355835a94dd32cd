// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package ratings looks up third-party ratings (IMDb, Rotten Tomatoes,
// Metacritic) from an OMDb-style API.
//
// The upstream enforces a hard daily quota, so the client keeps its own
// token bucket sized to that quota and refuses locally once it is spent.
// The bucket level is persisted after every spend and restored, with the
// refill accrued since, when the next process starts.
// "Not found" answers are cached for the full ratings TTL like any other
// result.
package ratings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/breaker"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/gate"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/metrics"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

const upstreamName = "ratings"

// QuotaDocumentKey is the storage key of the persisted quota bucket.
const QuotaDocumentKey = "ratings-quota"

// ErrQuotaExhausted is returned without a network call once the daily
// quota is spent, and when the upstream reports its own limit reached.
var ErrQuotaExhausted = errors.New("ratings: daily quota exhausted")

// Config configures a Client.
type Config struct {
	BaseURL    string
	APIKey     string
	DailyQuota int
	Timeout    time.Duration
}

// quotaState is the bucket level at a point in time.
type quotaState struct {
	Remaining float64   `json:"remaining"`
	At        time.Time `json:"at"`
}

// Client is safe for concurrent use.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client

	quotaMu  sync.Mutex
	quota    *rate.Limiter
	quotaDoc storage.Document[quotaState]
	store    storage.Store

	breaker *breaker.Breaker
	cache   *cache.Cache
	gates   *gate.Registry
	logger  zerolog.Logger
}

// New creates a ratings client. A non-nil store carries the quota across
// restarts; with a nil store every process starts with a full bucket.
func New(cfg Config, c *cache.Cache, gates *gate.Registry, store storage.Store) *Client {
	if cfg.DailyQuota <= 0 {
		cfg.DailyQuota = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	client := &Client{
		baseURL: cfg.BaseURL,
		apiKey:  cfg.APIKey,
		http:    &http.Client{Timeout: cfg.Timeout},
		quota:   rate.NewLimiter(rate.Every(24*time.Hour/time.Duration(cfg.DailyQuota)), cfg.DailyQuota),
		quotaDoc: storage.Document[quotaState]{
			Key:     QuotaDocumentKey,
			Version: 1,
			Default: func() quotaState { return quotaState{Remaining: -1} },
		},
		store: store,
		breaker: breaker.New(breaker.Settings{
			Name: upstreamName,
			IsSuccessful: func(err error) bool {
				return breaker.IgnoreCancellation(err) || errors.Is(err, ErrQuotaExhausted)
			},
		}),
		cache:  c,
		gates:  gates,
		logger: logging.WithComponent("ratings"),
	}
	client.restoreQuota(time.Now())
	return client
}

// restoreQuota drains the fresh bucket down to the persisted level plus
// whatever refilled since it was saved.
func (c *Client) restoreQuota(now time.Time) {
	if c.store == nil {
		return
	}
	st, outcome := c.quotaDoc.Load(c.store)
	if outcome != storage.LoadedCurrent || st.Remaining < 0 {
		return
	}
	level := st.Remaining
	if elapsed := now.Sub(st.At); elapsed > 0 {
		level += elapsed.Seconds() * float64(c.quota.Limit())
	}
	spent := c.quota.Burst() - int(math.Floor(level))
	if spent <= 0 {
		return
	}
	c.quota.AllowN(now, spent)
	c.logger.Debug().Int("remaining", c.Remaining()).Msg("restored ratings quota")
}

// spendQuota takes one token and persists the new level.
func (c *Client) spendQuota() bool {
	c.quotaMu.Lock()
	defer c.quotaMu.Unlock()

	now := time.Now()
	if !c.quota.AllowN(now, 1) {
		return false
	}
	if c.store != nil {
		st := quotaState{Remaining: c.quota.TokensAt(now), At: now}
		if err := c.quotaDoc.Save(c.store, st); err != nil {
			c.logger.Warn().Err(err).Msg("failed to persist ratings quota")
		}
	}
	return true
}

// Ratings returns the ratings of the movie with the given IMDb ID, or nil
// when the upstream does not know it.
func (c *Client) Ratings(ctx context.Context, imdbID string) (*models.Ratings, error) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return nil, nil
	}
	r, err := cache.ReadThrough(ctx, c.cache, cache.RatingsKey(imdbID), cache.ClassRatings,
		func(ctx context.Context) (*models.Ratings, error) {
			return c.fetch(ctx, imdbID)
		}, nil)
	if err != nil {
		return nil, err
	}
	return r.Value, nil
}

// Remaining estimates how many lookups the quota still allows right now.
func (c *Client) Remaining() int {
	return int(c.quota.Tokens())
}

type omdbRating struct {
	Source string `json:"Source"`
	Value  string `json:"Value"`
}

type omdbResponse struct {
	Response   string       `json:"Response"`
	Error      string       `json:"Error"`
	IMDbRating string       `json:"imdbRating"`
	IMDbVotes  string       `json:"imdbVotes"`
	Metascore  string       `json:"Metascore"`
	Ratings    []omdbRating `json:"Ratings"`
}

func (c *Client) fetch(ctx context.Context, imdbID string) (*models.Ratings, error) {
	if !c.spendQuota() {
		metrics.RatingsQuotaRejections.Inc()
		c.logger.Warn().Str("imdb_id", imdbID).Msg("daily quota spent, skipping lookup")
		return nil, ErrQuotaExhausted
	}

	var out *models.Ratings
	err := c.gates.Get(gate.ClassRatings).Do(ctx, func(ctx context.Context) error {
		var err error
		out, err = breaker.Execute(c.breaker, func() (*models.Ratings, error) {
			return c.request(ctx, imdbID)
		})
		return err
	})
	return out, err
}

func (c *Client) request(ctx context.Context, imdbID string) (*models.Ratings, error) {
	q := url.Values{"i": {imdbID}, "apikey": {c.apiKey}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+q.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		metrics.RecordUpstream(upstreamName, 0, time.Since(start))
		return nil, fmt.Errorf("ratings request: %w", err)
	}
	defer resp.Body.Close()
	metrics.RecordUpstream(upstreamName, resp.StatusCode, time.Since(start))

	var body omdbResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("ratings: unexpected status %d", resp.StatusCode)
		}
		return nil, fmt.Errorf("decode ratings response: %w", err)
	}

	if body.Response != "True" {
		switch {
		case strings.Contains(strings.ToLower(body.Error), "limit"):
			return nil, ErrQuotaExhausted
		case strings.Contains(strings.ToLower(body.Error), "not found"):
			return nil, nil
		default:
			return nil, fmt.Errorf("ratings: %s (status %d)", body.Error, resp.StatusCode)
		}
	}
	return body.model(), nil
}

func (b *omdbResponse) model() *models.Ratings {
	out := &models.Ratings{
		IMDb:       notAvailable(b.IMDbRating),
		IMDbVotes:  notAvailable(b.IMDbVotes),
		Metacritic: notAvailable(b.Metascore),
	}
	for _, r := range b.Ratings {
		switch r.Source {
		case "Rotten Tomatoes":
			out.RottenTomatoes = notAvailable(r.Value)
		case "Metacritic":
			if out.Metacritic == "" {
				out.Metacritic = strings.TrimSuffix(notAvailable(r.Value), "/100")
			}
		case "Internet Movie Database":
			if out.IMDb == "" {
				out.IMDb = strings.TrimSuffix(notAvailable(r.Value), "/10")
			}
		}
	}
	return out
}

func notAvailable(s string) string {
	if s == "N/A" {
		return ""
	}
	return s
}
