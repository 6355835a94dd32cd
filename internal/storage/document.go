// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package storage

import (
	"errors"
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
)

// StatePrefix namespaces persisted user state documents.
const StatePrefix = "state:"

// record is the on-disk envelope of a Document.
type record struct {
	Version int             `json:"version"`
	Data    json.RawMessage `json:"data"`
}

// LoadOutcome describes how Document.Load produced its value.
type LoadOutcome int

const (
	// LoadedDefault means nothing was stored yet.
	LoadedDefault LoadOutcome = iota
	// LoadedCurrent means the stored version matched.
	LoadedCurrent
	// LoadedMigrated means an older version was upgraded.
	LoadedMigrated
	// LoadedReset means the stored record was unusable and the default was used.
	LoadedReset
)

func (o LoadOutcome) String() string {
	switch o {
	case LoadedDefault:
		return "default"
	case LoadedCurrent:
		return "current"
	case LoadedMigrated:
		return "migrated"
	case LoadedReset:
		return "reset"
	default:
		return "unknown"
	}
}

// Document is a versioned, JSON-encoded state record stored under one key.
//
// Load never fails: an unknown or incompatible version, or a record that
// does not decode, resets to Default and logs a warning.
type Document[T any] struct {
	// Key is the storage key without StatePrefix.
	Key string

	// Version is the current schema version. Must be > 0.
	Version int

	// Default builds the empty value.
	Default func() T

	// Migrate upgrades data stored with an older version. A nil Migrate, or
	// one that returns an error, resets to Default.
	Migrate func(from int, data json.RawMessage) (T, error)
}

func (d Document[T]) storageKey() string {
	return StatePrefix + d.Key
}

// Load reads the document from s.
func (d Document[T]) Load(s Store) (T, LoadOutcome) {
	log := logging.WithComponent("storage").With().Str("document", d.Key).Logger()

	raw, err := s.Get(d.storageKey())
	if errors.Is(err, ErrNotFound) {
		return d.Default(), LoadedDefault
	}
	if err != nil {
		log.Warn().Err(err).Msg("read failed, using default")
		return d.Default(), LoadedReset
	}

	var rec record
	if err := json.Unmarshal(raw, &rec); err != nil {
		log.Warn().Err(err).Msg("undecodable record, resetting")
		return d.Default(), LoadedReset
	}

	switch {
	case rec.Version == d.Version:
		v := d.Default()
		if err := json.Unmarshal(rec.Data, &v); err != nil {
			log.Warn().Err(err).Int("version", rec.Version).Msg("undecodable data, resetting")
			return d.Default(), LoadedReset
		}
		return v, LoadedCurrent

	case rec.Version > 0 && rec.Version < d.Version && d.Migrate != nil:
		v, err := d.Migrate(rec.Version, rec.Data)
		if err != nil {
			log.Warn().Err(err).Int("from", rec.Version).Int("to", d.Version).Msg("migration failed, resetting")
			return d.Default(), LoadedReset
		}
		log.Info().Int("from", rec.Version).Int("to", d.Version).Msg("migrated")
		return v, LoadedMigrated

	default:
		log.Warn().Int("stored_version", rec.Version).Int("version", d.Version).Msg("incompatible version, resetting")
		return d.Default(), LoadedReset
	}
}

// Save writes v with the current version.
func (d Document[T]) Save(s Store, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", d.Key, err)
	}
	raw, err := json.Marshal(record{Version: d.Version, Data: data})
	if err != nil {
		return fmt.Errorf("marshal %s record: %w", d.Key, err)
	}
	if err := s.Set(d.storageKey(), raw); err != nil {
		return fmt.Errorf("save %s: %w", d.Key, err)
	}
	return nil
}

// Delete removes the stored document.
func (d Document[T]) Delete(s Store) error {
	return s.Delete(d.storageKey())
}
