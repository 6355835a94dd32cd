// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package discovery

import (
	"context"
	"errors"
	"fmt"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

// Action is a user verdict on a movie.
type Action string

const (
	ActionWatched       Action = "watched"
	ActionLove          Action = "love"
	ActionNotInterested Action = "not-interested"
)

// Actions lists the valid actions in display order.
var Actions = []Action{ActionWatched, ActionLove, ActionNotInterested}

var (
	// ErrUnknownAction is returned for an action outside Actions.
	ErrUnknownAction = errors.New("unknown action")

	// ErrActionNotSaved means the ledger could not persist the change.
	// The in-memory ledger is already updated.
	ErrActionNotSaved = errors.New("your choice could not be saved, try again")
)

// ParseAction validates s as an Action.
func ParseAction(s string) (Action, error) {
	for _, a := range Actions {
		if string(a) == s {
			return a, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
}

// Apply records action on id, or removes it when undo is set. It
// reports whether the ledger changed. Love and not-interested feed the
// taste profile, once per actual change.
func (e *Engine) Apply(ctx context.Context, action Action, id models.MovieID, undo bool) (bool, error) {
	l := e.deps.Ledger

	var mark func(models.MovieID) (bool, error)
	switch {
	case action == ActionWatched && !undo:
		mark = l.MarkAccepted
	case action == ActionWatched:
		mark = l.RemoveAccepted
	case action == ActionLove && !undo:
		mark = l.MarkFavorited
	case action == ActionLove:
		mark = l.RemoveFavorited
	case action == ActionNotInterested && !undo:
		mark = l.MarkRejected
	case action == ActionNotInterested:
		mark = l.RemoveRejected
	default:
		return false, fmt.Errorf("%w: %q", ErrUnknownAction, action)
	}

	log := logging.Ctx(ctx).With().
		Str("component", "discovery").
		Str("action", string(action)).
		Bool("undo", undo).
		Stringer("movie_id", id).
		Logger()

	changed, err := mark(id)
	if err != nil {
		log.Error().Err(err).Msg("ledger not persisted")
		return changed, ErrActionNotSaved
	}
	if !changed {
		log.Debug().Msg("action already recorded")
		return false, nil
	}
	log.Info().Msg("action recorded")

	if undo || action == ActionWatched {
		return true, nil
	}

	d := e.detailsFor(ctx, id)
	if d == nil {
		log.Warn().Msg("details unavailable, taste profile not updated")
		return true, nil
	}
	if action == ActionLove {
		err = e.deps.Taste.ApplyFavorite(d)
	} else {
		err = e.deps.Taste.ApplyReject(d)
	}
	if err != nil {
		log.Warn().Err(err).Msg("taste profile not persisted")
	}
	return true, nil
}

// MarkWatched records that the user has seen id.
func (e *Engine) MarkWatched(ctx context.Context, id models.MovieID) (bool, error) {
	return e.Apply(ctx, ActionWatched, id, false)
}

// Love favorites id. Favorites stay eligible for discovery once they
// leave the shown history.
func (e *Engine) Love(ctx context.Context, id models.MovieID) (bool, error) {
	return e.Apply(ctx, ActionLove, id, false)
}

// NotInterested rejects id permanently.
func (e *Engine) NotInterested(ctx context.Context, id models.MovieID) (bool, error) {
	return e.Apply(ctx, ActionNotInterested, id, false)
}

func (e *Engine) UnmarkWatched(ctx context.Context, id models.MovieID) (bool, error) {
	return e.Apply(ctx, ActionWatched, id, true)
}

func (e *Engine) UnmarkLove(ctx context.Context, id models.MovieID) (bool, error) {
	return e.Apply(ctx, ActionLove, id, true)
}

func (e *Engine) UnmarkNotInterested(ctx context.Context, id models.MovieID) (bool, error) {
	return e.Apply(ctx, ActionNotInterested, id, true)
}

// detailsFor prefers the item on screen over a fetch.
func (e *Engine) detailsFor(ctx context.Context, id models.MovieID) *models.MovieDetails {
	if cur := e.State().CurrentItem; cur != nil && cur.ID == id {
		return cur
	}
	if e.deps.Details == nil {
		return nil
	}
	d, err := e.deps.Details.Details(ctx, id)
	if err != nil {
		return nil
	}
	return d
}
