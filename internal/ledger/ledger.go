// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package ledger records which movies a user has been shown and how they
// judged them.
//
// The shown history is a bounded ring holding the most recent N distinct
// IDs. The accepted ("watched"), favorited ("loved") and rejected ("not
// interested") sets are unbounded. Favorites are deliberately left out of
// ExcludeSet so a loved movie can come up again.
//
// Every mutation that changes the ledger is saved before it returns.
package ledger

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

// DefaultMaxShown is the size of the shown ring.
const DefaultMaxShown = 2000

type idSet map[models.MovieID]struct{}

type kind int

const (
	kindAccepted kind = iota
	kindFavorited
	kindRejected
)

// Ledger is safe for concurrent use. Mutations are last-write-wins on the
// persisted document; concurrent callers never corrupt it.
type Ledger struct {
	store    storage.Store
	doc      storage.Document[document]
	maxShown int
	logger   zerolog.Logger

	mu        sync.RWMutex
	shown     []models.MovieID
	shownSet  idSet
	accepted  idSet
	favorited idSet
	rejected  idSet
}

// LegacyData is history exported by an earlier client.
type LegacyData struct {
	Shown         []models.MovieID `json:"shown"`
	Watched       []models.MovieID `json:"watched"`
	Loved         []models.MovieID `json:"loved"`
	NotInterested []models.MovieID `json:"not_interested"`
}

// Snapshot is a copy of the ledger contents. Shown is oldest first; the
// sets are sorted.
type Snapshot struct {
	Shown     []models.MovieID `json:"shown"`
	Accepted  []models.MovieID `json:"accepted"`
	Favorited []models.MovieID `json:"favorited"`
	Rejected  []models.MovieID `json:"rejected"`
	MaxShown  int              `json:"max_shown"`
}

// New loads the ledger from store. maxShown < 1 means DefaultMaxShown.
func New(store storage.Store, maxShown int) *Ledger {
	if maxShown < 1 {
		maxShown = DefaultMaxShown
	}
	l := &Ledger{
		store:    store,
		doc:      newDocument(maxShown),
		maxShown: maxShown,
		logger:   logging.WithComponent("ledger"),
	}

	d, outcome := l.doc.Load(store)
	l.restore(d)
	l.logger.Debug().
		Str("outcome", outcome.String()).
		Int("shown", len(l.shown)).
		Int("accepted", len(l.accepted)).
		Int("favorited", len(l.favorited)).
		Int("rejected", len(l.rejected)).
		Msg("ledger loaded")
	return l
}

// TrackShown appends id to the shown ring, dropping the oldest entry when
// full. An ID already in the ring is left where it is.
func (l *Ledger) TrackShown(id models.MovieID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.pushShownLocked(id) {
		return false, nil
	}
	return true, l.saveLocked()
}

// MarkAccepted records that the user watched id.
func (l *Ledger) MarkAccepted(id models.MovieID) (bool, error) {
	return l.mutate(kindAccepted, id, true)
}

// MarkFavorited records that the user loved id.
func (l *Ledger) MarkFavorited(id models.MovieID) (bool, error) {
	return l.mutate(kindFavorited, id, true)
}

// MarkRejected records that the user is not interested in id.
func (l *Ledger) MarkRejected(id models.MovieID) (bool, error) {
	return l.mutate(kindRejected, id, true)
}

// RemoveAccepted undoes MarkAccepted.
func (l *Ledger) RemoveAccepted(id models.MovieID) (bool, error) {
	return l.mutate(kindAccepted, id, false)
}

// RemoveFavorited undoes MarkFavorited.
func (l *Ledger) RemoveFavorited(id models.MovieID) (bool, error) {
	return l.mutate(kindFavorited, id, false)
}

// RemoveRejected undoes MarkRejected.
func (l *Ledger) RemoveRejected(id models.MovieID) (bool, error) {
	return l.mutate(kindRejected, id, false)
}

// mutate adds or removes id and saves when the set changed. The returned
// bool reports the change; the error is the save failure, if any. The
// in-memory change is kept even when the save fails.
func (l *Ledger) mutate(k kind, id models.MovieID, add bool) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set := l.setLocked(k)
	_, present := set[id]
	if present == add {
		return false, nil
	}
	if add {
		set[id] = struct{}{}
	} else {
		delete(set, id)
	}
	return true, l.saveLocked()
}

// ExcludeSet returns shown ∪ accepted ∪ rejected, computed on each call.
func (l *Ledger) ExcludeSet() map[models.MovieID]struct{} {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make(map[models.MovieID]struct{}, len(l.shownSet)+len(l.accepted)+len(l.rejected))
	for _, s := range []idSet{l.shownSet, l.accepted, l.rejected} {
		for id := range s {
			out[id] = struct{}{}
		}
	}
	return out
}

// HasBeenShown reports whether id is in the shown ring.
func (l *Ledger) HasBeenShown(id models.MovieID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.shownSet[id]
	return ok
}

// IsAccepted reports whether id is marked watched.
func (l *Ledger) IsAccepted(id models.MovieID) bool { return l.has(kindAccepted, id) }

// IsFavorited reports whether id is marked loved.
func (l *Ledger) IsFavorited(id models.MovieID) bool { return l.has(kindFavorited, id) }

// IsRejected reports whether id is marked not interested.
func (l *Ledger) IsRejected(id models.MovieID) bool { return l.has(kindRejected, id) }

func (l *Ledger) has(k kind, id models.MovieID) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()
	_, ok := l.setLocked(k)[id]
	return ok
}

// ImportLegacy merges data into the ledger. Legacy shown IDs are appended
// in order under the usual ring truncation; the judgment sets are unioned.
func (l *Ledger) ImportLegacy(data LegacyData) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, id := range data.Shown {
		l.pushShownLocked(id)
	}
	for _, pair := range []struct {
		dst idSet
		src []models.MovieID
	}{
		{l.accepted, data.Watched},
		{l.favorited, data.Loved},
		{l.rejected, data.NotInterested},
	} {
		for _, id := range pair.src {
			pair.dst[id] = struct{}{}
		}
	}

	l.logger.Info().
		Int("shown", len(data.Shown)).
		Int("watched", len(data.Watched)).
		Int("loved", len(data.Loved)).
		Int("not_interested", len(data.NotInterested)).
		Msg("legacy history imported")
	return l.saveLocked()
}

// Reset clears the ledger and deletes its persisted document.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.restore(document{})
	if err := l.doc.Delete(l.store); err != nil {
		return fmt.Errorf("reset ledger: %w", err)
	}
	l.logger.Info().Msg("ledger reset")
	return nil
}

// Snapshot copies the ledger contents.
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()

	return Snapshot{
		Shown:     append([]models.MovieID{}, l.shown...),
		Accepted:  sortedIDs(l.accepted),
		Favorited: sortedIDs(l.favorited),
		Rejected:  sortedIDs(l.rejected),
		MaxShown:  l.maxShown,
	}
}

func (l *Ledger) setLocked(k kind) idSet {
	switch k {
	case kindAccepted:
		return l.accepted
	case kindFavorited:
		return l.favorited
	default:
		return l.rejected
	}
}

func (l *Ledger) pushShownLocked(id models.MovieID) bool {
	if _, ok := l.shownSet[id]; ok {
		return false
	}
	l.shown = append(l.shown, id)
	l.shownSet[id] = struct{}{}

	if excess := len(l.shown) - l.maxShown; excess > 0 {
		for _, old := range l.shown[:excess] {
			delete(l.shownSet, old)
		}
		n := copy(l.shown, l.shown[excess:])
		l.shown = l.shown[:n]
	}
	return true
}

func (l *Ledger) restore(d document) {
	l.shown = nil
	l.shownSet = make(idSet)
	for _, id := range d.Shown {
		l.pushShownLocked(id)
	}
	l.accepted = toSet(d.Accepted)
	l.favorited = toSet(d.Favorited)
	l.rejected = toSet(d.Rejected)
}

func (l *Ledger) saveLocked() error {
	d := document{
		Shown:     l.shown,
		Accepted:  sortedIDs(l.accepted),
		Favorited: sortedIDs(l.favorited),
		Rejected:  sortedIDs(l.rejected),
	}
	if err := l.doc.Save(l.store, d); err != nil {
		l.logger.Error().Err(err).Msg("failed to persist ledger")
		return err
	}
	return nil
}

func toSet(ids []models.MovieID) idSet {
	s := make(idSet, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

func sortedIDs(s idSet) []models.MovieID {
	out := make([]models.MovieID, 0, len(s))
	for id := range s {
		out = append(out, id)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
