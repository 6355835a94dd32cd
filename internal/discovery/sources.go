// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package discovery

import (
	"context"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

// CandidateSource returns ranked candidates for filters, relaxing
// constraints it is allowed to relax until something outside exclude
// turns up.
type CandidateSource interface {
	Discover(ctx context.Context, filters models.DiscoveryFilters, region string, exclude map[models.MovieID]struct{}, opts models.DiscoverOptions) (models.CandidateResult, error)
}

// DetailSource returns full movie records including per-region offers.
type DetailSource interface {
	Details(ctx context.Context, id models.MovieID) (*models.MovieDetails, error)
}

// AvailabilitySource answers per-region offer questions.
type AvailabilitySource interface {
	Availability(ctx context.Context, id models.MovieID, region string) (models.Availability, error)
	RegionProviders(ctx context.Context, region string) ([]models.Provider, error)
}

// RatingsSource returns third-party ratings, or nil when unknown.
type RatingsSource interface {
	Ratings(ctx context.Context, externalID string) (*models.Ratings, error)
}

// GenreNamer resolves genre IDs to display names. "" means unknown.
type GenreNamer interface {
	GenreName(ctx context.Context, id int) string
}

// RegionSource reports the effective region.
type RegionSource interface {
	EffectiveRegion() string
}
