// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package models

// Provider is a streaming, rental or purchase service.
type Provider struct {
	ID              int    `json:"id"`
	Name            string `json:"name"`
	LogoPath        string `json:"logo_path,omitempty"`
	DisplayPriority int    `json:"display_priority,omitempty"`
}

// ProviderTiers are the offers for one movie in one region.
type ProviderTiers struct {
	Link     string     `json:"link,omitempty"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Free     []Provider `json:"free,omitempty"`
	Ads      []Provider `json:"ads,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// Streaming returns the flatrate, free and ads offers.
func (t ProviderTiers) Streaming() []Provider {
	out := make([]Provider, 0, len(t.Flatrate)+len(t.Free)+len(t.Ads))
	out = append(out, t.Flatrate...)
	out = append(out, t.Free...)
	out = append(out, t.Ads...)
	return out
}

// StreamsOn reports whether any of providerIDs offers the movie in a
// streaming tier.
func (t ProviderTiers) StreamsOn(providerIDs []int) bool {
	if len(providerIDs) == 0 {
		return false
	}
	wanted := make(map[int]struct{}, len(providerIDs))
	for _, id := range providerIDs {
		wanted[id] = struct{}{}
	}
	for _, p := range t.Streaming() {
		if _, ok := wanted[p.ID]; ok {
			return true
		}
	}
	return false
}

// Availability maps region codes to their offers.
type Availability map[string]ProviderTiers

// StreamsOn reports whether the movie streams on any of providerIDs in region.
func (a Availability) StreamsOn(region string, providerIDs []int) bool {
	tiers, ok := a[region]
	if !ok {
		return false
	}
	return tiers.StreamsOn(providerIDs)
}
