// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

/*
Package models defines the records shared across the discovery core.

Catalog records:

  - MovieSummary: lightweight candidate returned by discover/search endpoints
  - MovieDetails: full record with genres, directors, external IDs and
    per-region availability
  - ProviderTiers: the watch-provider offers of one region, split by tier
  - Ratings: third-party ratings keyed by the IMDb ID

User-facing records:

  - DiscoveryFilters and Preferences: what the user asked for
  - APIResponse, APIError, Metadata: the HTTP envelope

Only the flatrate, free and ads tiers count as "streaming". Rent and buy
offers are carried for display but never satisfy a provider filter.
*/
package models
