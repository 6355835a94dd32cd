// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package taste

import (
	"fmt"
	"time"

	"github.com/goccy/go-json"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/storage"
)

// DocumentKey is the storage key of the profile, under storage.StatePrefix.
const DocumentKey = "taste"

const schemaVersion = 2

type document struct {
	Genres      map[int]float64 `json:"genres"`
	Decades     map[int]float64 `json:"decades"`
	Creators    map[int]float64 `json:"creators"`
	LastUpdated time.Time       `json:"last_updated"`
}

// documentV1 predates director scoring.
type documentV1 struct {
	Genres    map[int]float64 `json:"genres"`
	Decades   map[int]float64 `json:"decades"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func newDocument() storage.Document[document] {
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
				return document{}, fmt.Errorf("decode v1 taste profile: %w", err)
			}
			return document{
				Genres:      v1.Genres,
				Decades:     v1.Decades,
				LastUpdated: v1.UpdatedAt,
			}, nil
		},
	}
}
