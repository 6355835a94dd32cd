// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package models

// DiscoveryFilters constrain candidate resolution. Region is informational
// here; the engine always queries with the effective region.
type DiscoveryFilters struct {
	GenreID      *int    `json:"genre_id,omitempty" validate:"omitempty,gt=0"`
	ProviderIDs  []int   `json:"provider_ids" validate:"dive,gt=0"`
	MinRating    float64 `json:"min_rating" validate:"gte=0,lte=10"`
	MinVoteCount int     `json:"min_vote_count" validate:"gte=0"`
	Region       string  `json:"region,omitempty" validate:"omitempty,region"`
}

// HasGenre reports whether a genre is selected.
func (f *DiscoveryFilters) HasGenre() bool {
	return f.GenreID != nil
}

// HasProviders reports whether any provider is selected.
func (f *DiscoveryFilters) HasProviders() bool {
	return len(f.ProviderIDs) > 0
}

// Clone returns a deep copy of f.
func (f *DiscoveryFilters) Clone() DiscoveryFilters {
	out := *f
	if f.GenreID != nil {
		g := *f.GenreID
		out.GenreID = &g
	}
	out.ProviderIDs = append([]int(nil), f.ProviderIDs...)
	return out
}

// DefaultFilters are applied before onboarding.
func DefaultFilters() DiscoveryFilters {
	return DiscoveryFilters{
		ProviderIDs:  []int{},
		MinRating:    6.0,
		MinVoteCount: 500,
	}
}

// Preferences are the user's discovery settings.
type Preferences struct {
	Filters            DiscoveryFilters `json:"filters"`
	OnboardingComplete bool             `json:"onboarding_complete"`
}

// FiltersLocked reports whether the selected genre and providers must
// survive constraint relaxation: onboarding is complete and at least one
// of them is set.
func (p *Preferences) FiltersLocked() bool {
	return p.OnboardingComplete && (p.Filters.HasProviders() || p.Filters.HasGenre())
}

// DiscoverOptions modify candidate resolution.
type DiscoverOptions struct {
	// LockFilters forbids dropping the genre or provider restriction
	// while relaxing. Rating and vote thresholds may still be lowered.
	LockFilters bool
}

// CandidateResult is a ranked candidate list and the number of
// relaxation steps it took to find it (0 = exact match).
type CandidateResult struct {
	Candidates     []MovieSummary `json:"candidates"`
	RelaxationStep int            `json:"relaxation_step"`
}
