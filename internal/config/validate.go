// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package config

import (
	"errors"
	"fmt"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/validation"
)

// Validate checks field rules first, then cross-field constraints.
func (c *Config) Validate() error {
	if err := validation.ValidateStruct(c); err != nil {
		return err
	}
	if err := c.validateStorage(); err != nil {
		return err
	}
	return c.validateRatings()
}

func (c *Config) validateStorage() error {
	if !c.Storage.InMemory && c.Storage.Path == "" {
		return errors.New("storage.path is required unless storage.in_memory is set")
	}
	return nil
}

func (c *Config) validateRatings() error {
	if c.Ratings.Enabled && c.Ratings.APIKey == "" {
		return fmt.Errorf("ratings.api_key is required when ratings are enabled (set OMDB_API_KEY)")
	}
	return nil
}

// RequireCatalog reports an error when the catalog client cannot authenticate.
// Commands that only inspect local state do not call it.
func (c *Config) RequireCatalog() error {
	if c.TMDB.APIKey == "" {
		return errors.New("tmdb.api_key is required (set TMDB_API_KEY)")
	}
	return nil
}
