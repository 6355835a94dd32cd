// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package storage is the durable key-value layer under the cache table and
// the persisted user state documents.
//
// Keys are opaque strings. Callers namespace them with a prefix
// ("cache:", "state:") so that prefix scans and prefix deletes stay cheap.
// Individual Get/Set/Delete calls are atomic; nothing spans keys.
package storage

import (
	"errors"
)

// ErrNotFound is returned by Get for absent keys.
var ErrNotFound = errors.New("storage: key not found")

// Store is implemented by BadgerStore and MemoryStore.
type Store interface {
	// Get returns a copy of the value stored under key, or ErrNotFound.
	Get(key string) ([]byte, error)

	// Set upserts key.
	Set(key string, value []byte) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error

	// Scan calls fn for every key starting with prefix, in key order.
	// Returning an error from fn stops the scan and is returned.
	Scan(prefix string, fn func(key string, value []byte) error) error

	// DeleteWhere removes every key under prefix for which match returns
	// true and reports how many were removed. A nil match removes all.
	DeleteWhere(prefix string, match func(key string, value []byte) bool) (int, error)

	// Close releases the underlying resources.
	Close() error
}

// DeletePrefix removes every key starting with prefix.
func DeletePrefix(s Store, prefix string) (int, error) {
	return s.DeleteWhere(prefix, nil)
}
