// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package models

import "testing"

func TestProviderTiers_StreamsOn(t *testing.T) {
	t.Parallel()

	tiers := ProviderTiers{
		Flatrate: []Provider{{ID: 8, Name: "Netflix"}},
		Ads:      []Provider{{ID: 300, Name: "Pluto TV"}},
		Rent:     []Provider{{ID: 2, Name: "Apple TV"}},
		Buy:      []Provider{{ID: 3, Name: "Google Play"}},
	}

	tests := []struct {
		name string
		ids  []int
		want bool
	}{
		{"flatrate match", []int{8}, true},
		{"ads match", []int{300}, true},
		{"rent does not count", []int{2}, false},
		{"buy does not count", []int{3}, false},
		{"any of several", []int{99, 3, 8}, true},
		{"no selection", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tiers.StreamsOn(tt.ids); got != tt.want {
				t.Errorf("StreamsOn(%v) = %v, want %v", tt.ids, got, tt.want)
			}
		})
	}
}

func TestAvailability_StreamsOn(t *testing.T) {
	t.Parallel()

	a := Availability{"DE": {Free: []Provider{{ID: 7}}}}
	if !a.StreamsOn("DE", []int{7}) {
		t.Error("expected free tier match in DE")
	}
	if a.StreamsOn("US", []int{7}) {
		t.Error("expected no match in a region without offers")
	}
}

func TestMovieDetails_YearAndDecade(t *testing.T) {
	t.Parallel()

	tests := []struct {
		date   string
		year   int
		decade int
	}{
		{"1994-09-23", 1994, 1990},
		{"2000-01-01", 2000, 2000},
		{"", 0, 0},
		{"soon", 0, 0},
	}
	for _, tt := range tests {
		d := MovieDetails{ReleaseDate: tt.date}
		if d.Year() != tt.year || d.Decade() != tt.decade {
			t.Errorf("%q: year=%d decade=%d, want %d %d", tt.date, d.Year(), d.Decade(), tt.year, tt.decade)
		}
	}
}

func TestPreferences_FiltersLocked(t *testing.T) {
	t.Parallel()

	horror := 27
	tests := []struct {
		name  string
		prefs Preferences
		want  bool
	}{
		{"onboarding incomplete", Preferences{Filters: DiscoveryFilters{ProviderIDs: []int{8}}}, false},
		{"complete without selections", Preferences{OnboardingComplete: true}, false},
		{"complete with providers", Preferences{OnboardingComplete: true, Filters: DiscoveryFilters{ProviderIDs: []int{8}}}, true},
		{"complete with genre", Preferences{OnboardingComplete: true, Filters: DiscoveryFilters{GenreID: &horror}}, true},
	}
	for _, tt := range tests {
		if got := tt.prefs.FiltersLocked(); got != tt.want {
			t.Errorf("%s: FiltersLocked() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestDiscoveryFilters_Clone(t *testing.T) {
	t.Parallel()

	g := 35
	f := DiscoveryFilters{GenreID: &g, ProviderIDs: []int{8, 9}}
	c := f.Clone()
	*c.GenreID = 18
	c.ProviderIDs[0] = 1

	if *f.GenreID != 35 || f.ProviderIDs[0] != 8 {
		t.Error("Clone must share no memory with its source")
	}
}
