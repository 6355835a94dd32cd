// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package ledger

import (
	"fmt"

	"github.com/goccy/go-json"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

// DocumentKey is the storage key of the ledger, under storage.StatePrefix.
const DocumentKey = "ledger"

const schemaVersion = 2

// document is schema version 2.
type document struct {
	Shown     []models.MovieID `json:"shown"`
	Accepted  []models.MovieID `json:"accepted"`
	Favorited []models.MovieID `json:"favorited"`
	Rejected  []models.MovieID `json:"rejected"`
}

// documentV1 kept every shown ID forever and used the old action names.
type documentV1 struct {
	Shown         []models.MovieID `json:"shown"`
	Watched       []models.MovieID `json:"watched"`
	Loved         []models.MovieID `json:"loved"`
	NotInterested []models.MovieID `json:"not_interested"`
}

func newDocument(maxShown int) storage.Document[document] {
	return storage.Document[document]{
		Key:     DocumentKey,
		Version: schemaVersion,
		Default: func() document { return document{} },
		Migrate: func(from int, data json.RawMessage) (document, error) {
			if from != 1 {
				return document{}, fmt.Errorf("no migration from version %d", from)
			}
			var v1 documentV1
			if err := json.Unmarshal(data, &v1); err != nil {
				return document{}, fmt.Errorf("decode v1 ledger: %w", err)
			}
			shown := v1.Shown
			if len(shown) > maxShown {
				shown = shown[len(shown)-maxShown:]
			}
			return document{
				Shown:     shown,
				Accepted:  v1.Watched,
				Favorited: v1.Loved,
				Rejected:  v1.NotInterested,
			}, nil
		},
	}
}
