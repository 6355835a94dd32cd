// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package discovery

import (
	"fmt"
	"sync"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/validation"
)

// PreferencesKey is the storage key of the preferences, under storage.StatePrefix.
const PreferencesKey = "preferences"

// Preferences holds the user's discovery settings, persisted on every
// change.
type Preferences struct {
	store storage.Store
	doc   storage.Document[models.Preferences]

	mu    sync.RWMutex
	prefs models.Preferences
}

// NewPreferences loads preferences from store.
func NewPreferences(store storage.Store) *Preferences {
	p := &Preferences{
		store: store,
		doc: storage.Document[models.Preferences]{
			Key:     PreferencesKey,
			Version: 1,
			Default: func() models.Preferences {
				return models.Preferences{Filters: models.DefaultFilters()}
			},
		},
	}
	p.prefs, _ = p.doc.Load(store)
	return p
}

// Get returns a copy of the current preferences.
func (p *Preferences) Get() models.Preferences {
	p.mu.RLock()
	defer p.mu.RUnlock()
	out := p.prefs
	out.Filters = p.prefs.Filters.Clone()
	return out
}

// Set validates and stores prefs.
func (p *Preferences) Set(prefs models.Preferences) error {
	if err := validation.ValidateStruct(&prefs.Filters); err != nil {
		return err
	}
	prefs.Filters = prefs.Filters.Clone()

	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.doc.Save(p.store, prefs); err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	p.prefs = prefs
	return nil
}

// Reset restores the defaults.
func (p *Preferences) Reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.prefs = p.doc.Default()
	return p.doc.Delete(p.store)
}
