// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package taste accumulates genre, decade and director affinities from
// the user's love and not-interested actions.
//
// Scores only ever move by explicit events and never decay. Reset is the
// one way back to zero.
package taste

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

// Event weights.
const (
	favoriteGenre    = 1.0
	favoriteDecade   = 1.0
	favoriteDirector = 1.0

	rejectGenre    = -1.0
	rejectDecade   = -0.5
	rejectDirector = -1.0

	directorWeight = 2.0
)

// Profile is safe for concurrent use.
type Profile struct {
	store  storage.Store
	doc    storage.Document[document]
	now    func() time.Time
	logger zerolog.Logger

	mu          sync.RWMutex
	genres      map[int]float64
	decades     map[int]float64
	creators    map[int]float64
	lastUpdated time.Time
}

// Affinity is one scored dimension value.
type Affinity struct {
	ID    int     `json:"id"`
	Score float64 `json:"score"`
}

// Snapshot is a copy of the profile.
type Snapshot struct {
	Genres      map[int]float64 `json:"genres"`
	Decades     map[int]float64 `json:"decades"`
	Creators    map[int]float64 `json:"creators"`
	LastUpdated time.Time       `json:"last_updated"`
}

// Option configures a Profile.
type Option func(*Profile)

// WithClock sets the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(p *Profile) { p.now = now }
}

// New loads the profile from store.
func New(store storage.Store, opts ...Option) *Profile {
	p := &Profile{
		store:  store,
		doc:    newDocument(),
		now:    time.Now,
		logger: logging.WithComponent("taste"),
	}
	for _, opt := range opts {
		opt(p)
	}

	d, outcome := p.doc.Load(store)
	p.restore(d)
	p.logger.Debug().Str("outcome", outcome.String()).Int("genres", len(p.genres)).Msg("taste profile loaded")
	return p
}

// ApplyFavorite adds the weights of a loved movie.
func (p *Profile) ApplyFavorite(d *models.MovieDetails) error {
	return p.apply(d, favoriteGenre, favoriteDecade, favoriteDirector)
}

// ApplyReject adds the weights of a not-interested movie.
func (p *Profile) ApplyReject(d *models.MovieDetails) error {
	return p.apply(d, rejectGenre, rejectDecade, rejectDirector)
}

func (p *Profile) apply(d *models.MovieDetails, genre, decade, director float64) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	for _, g := range d.Genres {
		p.genres[g.ID] += genre
	}
	if dec := d.Decade(); dec != 0 {
		p.decades[dec] += decade
	}
	for _, person := range d.Directors {
		p.creators[person.ID] += director
	}
	p.lastUpdated = p.now().UTC()

	if err := p.doc.Save(p.store, p.documentLocked()); err != nil {
		p.logger.Error().Err(err).Msg("failed to persist taste profile")
		return err
	}
	return nil
}

// Score rates how well d matches the profile: the mean genre affinity
// over d's genres, plus the decade affinity, plus twice the mean director
// affinity. Unknown dimensions contribute 0.
func (p *Profile) Score(d *models.MovieDetails) float64 {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var score float64
	if len(d.Genres) > 0 {
		var sum float64
		for _, g := range d.Genres {
			sum += p.genres[g.ID]
		}
		score += sum / float64(len(d.Genres))
	}
	score += p.decades[d.Decade()]
	if len(d.Directors) > 0 {
		var sum float64
		for _, person := range d.Directors {
			sum += p.creators[person.ID]
		}
		score += directorWeight * sum / float64(len(d.Directors))
	}
	return score
}

// Top returns the n highest-scoring genres with a positive score, best
// first. Ties are broken by genre ID.
func (p *Profile) Top(n int) []Affinity {
	p.mu.RLock()
	out := make([]Affinity, 0, len(p.genres))
	for id, s := range p.genres {
		if s > 0 {
			out = append(out, Affinity{ID: id, Score: s})
		}
	}
	p.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].ID < out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Snapshot copies the profile.
func (p *Profile) Snapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return Snapshot{
		Genres:      copyScores(p.genres),
		Decades:     copyScores(p.decades),
		Creators:    copyScores(p.creators),
		LastUpdated: p.lastUpdated,
	}
}

// Reset zeroes every score and deletes the persisted document.
func (p *Profile) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.restore(document{})
	if err := p.doc.Delete(p.store); err != nil {
		return fmt.Errorf("reset taste profile: %w", err)
	}
	p.logger.Info().Msg("taste profile reset")
	return nil
}

func (p *Profile) restore(d document) {
	p.genres = orEmpty(d.Genres)
	p.decades = orEmpty(d.Decades)
	p.creators = orEmpty(d.Creators)
	p.lastUpdated = d.LastUpdated
}

func (p *Profile) documentLocked() document {
	return document{
		Genres:      p.genres,
		Decades:     p.decades,
		Creators:    p.creators,
		LastUpdated: p.lastUpdated,
	}
}

func orEmpty(m map[int]float64) map[int]float64 {
	if m == nil {
		return make(map[int]float64)
	}
	return m
}

func copyScores(m map[int]float64) map[int]float64 {
	out := make(map[int]float64, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
