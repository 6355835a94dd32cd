// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package discovery answers "give me one good movie": an unseen,
// filter-matching movie that streams on the user's services in their
// region.
//
// Each Discover call runs the same sequence: capture and exclude the
// current item, build the exclusion set from the ledger, decide whether
// the genre and provider filters are locked, ask the candidate source
// (which relaxes constraints as needed), verify candidates against
// streaming availability, score the pick against the taste profile for
// the log, and record it as shown.
//
// Failures never escape as errors. They end up in State.Error as a
// message the user can act on.
//
// Overlapping Discover calls are not serialized: each works from its own
// snapshot of the ledger, and the last one to finish sets CurrentItem.
package discovery

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/ledger"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/metrics"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/taste"
)

// Outcome labels for metrics.
const (
	outcomeVerified   = "verified"
	outcomeBestEffort = "best_effort"
	outcomeEmpty      = "empty"
	outcomeError      = "error"
	outcomeCancelled  = "cancelled"
)

// State is what the UI renders.
type State struct {
	CurrentItem    *models.MovieDetails `json:"current_item"`
	IsLoading      bool                 `json:"is_loading"`
	Error          string               `json:"error,omitempty"`
	RelaxationStep int                  `json:"relaxation_step"`

	// Verified is false when CurrentItem is the best-effort fallback.
	Verified bool   `json:"verified"`
	Region   string `json:"region"`
}

// Deps are the collaborators of an Engine. Ratings and Genres are
// optional.
type Deps struct {
	Candidates   CandidateSource
	Details      DetailSource
	Availability AvailabilitySource
	Ratings      RatingsSource
	Genres       GenreNamer
	Regions      RegionSource
	Ledger       *ledger.Ledger
	Taste        *taste.Profile
	Preferences  *Preferences
}

// Engine is safe for concurrent use.
type Engine struct {
	deps   Deps
	logger zerolog.Logger

	mu          sync.Mutex
	state       State
	subscribers map[int]func(State)
	nextSub     int
}

// NewEngine creates an engine with an empty state.
func NewEngine(deps Deps) *Engine {
	e := &Engine{
		deps:        deps,
		logger:      logging.WithComponent("discovery"),
		subscribers: make(map[int]func(State)),
	}
	if deps.Regions != nil {
		e.state.Region = deps.Regions.EffectiveRegion()
	}
	return e
}

// State returns a copy of the current state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Subscribe registers fn to receive every state change. The returned
// function unregisters it. fn runs on the goroutine that changed the
// state and must not block.
func (e *Engine) Subscribe(fn func(State)) (unsubscribe func()) {
	e.mu.Lock()
	id := e.nextSub
	e.nextSub++
	e.subscribers[id] = fn
	e.mu.Unlock()

	return func() {
		e.mu.Lock()
		delete(e.subscribers, id)
		e.mu.Unlock()
	}
}

// update applies fn to the state under the lock and publishes the result.
func (e *Engine) update(fn func(s *State)) State {
	e.mu.Lock()
	fn(&e.state)
	snapshot := e.state
	subs := make([]func(State), 0, len(e.subscribers))
	for _, s := range e.subscribers {
		subs = append(subs, s)
	}
	e.mu.Unlock()

	for _, s := range subs {
		s(snapshot)
	}
	return snapshot
}

// RegionChanged records a new effective region in the state.
func (e *Engine) RegionChanged(region string) {
	e.update(func(s *State) { s.Region = region })
}

// Clear drops the current item and any error.
func (e *Engine) Clear() {
	e.update(func(s *State) {
		s.CurrentItem = nil
		s.Error = ""
		s.RelaxationStep = 0
		s.Verified = false
	})
}

// Discover finds one movie and returns the resulting state.
//
// Cancellation is cooperative: if ctx is done when results arrive they
// are discarded, nothing is recorded and only IsLoading is reset.
func (e *Engine) Discover(ctx context.Context) State {
	ctx = logging.ContextWithNewCorrelationID(ctx)
	log := e.logger.With().Str("correlation_id", logging.CorrelationIDFromContext(ctx)).Logger()
	start := time.Now()

	// 1. Start.
	var previous models.MovieID
	e.update(func(s *State) {
		if s.CurrentItem != nil {
			previous = s.CurrentItem.ID
		}
		s.CurrentItem = nil
		s.IsLoading = true
		s.Error = ""
	})

	// 2. Exclusion set.
	exclude := e.deps.Ledger.ExcludeSet()
	if previous != 0 {
		exclude[previous] = struct{}{}
	}

	// 3. Lock check.
	prefs := e.deps.Preferences.Get()
	lock := prefs.FiltersLocked()
	region := e.deps.Regions.EffectiveRegion()
	filters := prefs.Filters.Clone()
	filters.Region = region

	log.Debug().
		Int("excluded", len(exclude)).
		Bool("locked", lock).
		Str("region", region).
		Msg("discover started")

	res := e.resolve(ctx, log, filters, region, exclude, lock)

	// 10. Finally.
	final := e.update(func(s *State) {
		s.Region = region
		if !res.cancelled {
			s.CurrentItem = res.item
			s.Error = res.message
			s.RelaxationStep = res.step
			s.Verified = res.verified
		}
		s.IsLoading = false
	})
	metrics.RecordDiscovery(res.outcome, res.step, time.Since(start))

	if res.item != nil && !res.cancelled {
		final = e.enrich(ctx, log, res.item)
	}
	return final
}

// result is the outcome of steps 4 to 9.
type result struct {
	item      *models.MovieDetails
	step      int
	verified  bool
	message   string
	outcome   string
	cancelled bool
}

func (e *Engine) resolve(ctx context.Context, log zerolog.Logger, filters models.DiscoveryFilters, region string, exclude map[models.MovieID]struct{}, lock bool) result {
	// 4. Resolve candidates.
	found, err := e.deps.Candidates.Discover(ctx, filters, region, exclude, models.DiscoverOptions{LockFilters: lock})
	if ctx.Err() != nil {
		log.Debug().Msg("discover cancelled, discarding candidates")
		return result{outcome: outcomeCancelled, cancelled: true}
	}
	if err != nil {
		// 9. Failure path.
		log.Warn().Err(err).Int("step", found.RelaxationStep).Msg("candidate resolution failed")
		return result{step: found.RelaxationStep, message: failureMessage(err), outcome: outcomeError}
	}

	candidates := withoutExcluded(found.Candidates, exclude)

	// 5. No candidates.
	if len(candidates) == 0 {
		msg := e.emptyMessage(ctx, filters, region, lock)
		log.Info().Int("step", found.RelaxationStep).Str("message", msg).Msg("no candidates")
		return result{step: found.RelaxationStep, message: msg, outcome: outcomeEmpty}
	}

	// 6. Verify provider match.
	chosen, verified, err := e.verify(ctx, log, candidates, filters.ProviderIDs, region)
	if ctx.Err() != nil {
		log.Debug().Msg("discover cancelled, discarding pick")
		return result{outcome: outcomeCancelled, cancelled: true}
	}
	if err != nil {
		log.Warn().Err(err).Msg("no candidate details could be loaded")
		return result{step: found.RelaxationStep, message: failureMessage(err), outcome: outcomeError}
	}

	// 7. Score, for the log only.
	score := e.deps.Taste.Score(chosen)
	log.Info().
		Stringer("movie_id", chosen.ID).
		Str("title", chosen.Title).
		Float64("taste_score", score).
		Bool("verified", verified).
		Int("step", found.RelaxationStep).
		Msg("movie picked")

	// 8. Commit.
	if _, err := e.deps.Ledger.TrackShown(chosen.ID); err != nil {
		log.Warn().Err(err).Msg("shown history not persisted")
	}

	outcome := outcomeVerified
	if !verified {
		outcome = outcomeBestEffort
	}
	return result{item: chosen, step: found.RelaxationStep, verified: verified, outcome: outcome}
}

// verify returns the first candidate whose streaming offers in region
// include one of providerIDs. With no providers selected the first
// candidate with loadable details qualifies. When nothing verifies, the
// first details fetched are returned unverified. A candidate whose
// details fail to load is skipped; the error is returned only when no
// details loaded at all.
func (e *Engine) verify(ctx context.Context, log zerolog.Logger, candidates []models.MovieSummary, providerIDs []int, region string) (*models.MovieDetails, bool, error) {
	var fallback *models.MovieDetails
	var firstErr error

	for _, c := range candidates {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		d, err := e.deps.Details.Details(ctx, c.ID)
		if err != nil {
			log.Debug().Err(err).Stringer("movie_id", c.ID).Msg("details failed, skipping candidate")
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if fallback == nil {
			fallback = d
		}
		if len(providerIDs) == 0 || e.streamsOn(ctx, log, d, region, providerIDs) {
			return d, true, nil
		}
	}

	if fallback == nil {
		if firstErr == nil {
			firstErr = errors.New("no candidate details")
		}
		return nil, false, firstErr
	}
	log.Warn().Stringer("movie_id", fallback.ID).Str("region", region).Msg("no candidate verified on selected providers, using best effort")
	return fallback, false, nil
}

// streamsOn reports whether d streams in region on one of providerIDs.
// The region-scoped availability answer is used when there is a source
// for it: it expires sooner than details and is dropped when the region
// changes. The offers embedded in d are the fallback.
func (e *Engine) streamsOn(ctx context.Context, log zerolog.Logger, d *models.MovieDetails, region string, providerIDs []int) bool {
	if e.deps.Availability != nil {
		avail, err := e.deps.Availability.Availability(ctx, d.ID, region)
		if err == nil {
			return avail.StreamsOn(region, providerIDs)
		}
		log.Debug().Err(err).Stringer("movie_id", d.ID).Msg("availability failed, using offers from details")
	}
	return d.Availability.StreamsOn(region, providerIDs)
}

// enrich attaches ratings to the committed item. Failures are logged
// and otherwise ignored.
func (e *Engine) enrich(ctx context.Context, log zerolog.Logger, item *models.MovieDetails) State {
	if e.deps.Ratings == nil || item.IMDbID == "" {
		return e.State()
	}
	r, err := e.deps.Ratings.Ratings(ctx, item.IMDbID)
	if err != nil {
		log.Debug().Err(err).Str("imdb_id", item.IMDbID).Msg("ratings unavailable")
		return e.State()
	}
	if r == nil {
		return e.State()
	}
	return e.update(func(s *State) {
		if s.CurrentItem != nil && s.CurrentItem.ID == item.ID {
			enriched := *s.CurrentItem
			enriched.Ratings = r
			s.CurrentItem = &enriched
		}
	})
}

func withoutExcluded(in []models.MovieSummary, exclude map[models.MovieID]struct{}) []models.MovieSummary {
	out := make([]models.MovieSummary, 0, len(in))
	for _, c := range in {
		if _, skip := exclude[c.ID]; !skip {
			out = append(out, c)
		}
	}
	return out
}
