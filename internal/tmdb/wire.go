// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package tmdb

import (
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

// Response shapes of the catalog API.

type pageResponse struct {
	Page         int                   `json:"page"`
	Results      []models.MovieSummary `json:"results"`
	TotalPages   int                   `json:"total_pages"`
	TotalResults int                   `json:"total_results"`
}

type providerWire struct {
	ProviderID      int    `json:"provider_id"`
	ProviderName    string `json:"provider_name"`
	LogoPath        string `json:"logo_path"`
	DisplayPriority int    `json:"display_priority"`
}

type tiersWire struct {
	Link     string         `json:"link"`
	Flatrate []providerWire `json:"flatrate"`
	Free     []providerWire `json:"free"`
	Ads      []providerWire `json:"ads"`
	Rent     []providerWire `json:"rent"`
	Buy      []providerWire `json:"buy"`
}

type watchProvidersResponse struct {
	Results map[string]tiersWire `json:"results"`
}

type regionProvidersResponse struct {
	Results []providerWire `json:"results"`
}

type genresResponse struct {
	Genres []models.Genre `json:"genres"`
}

type crewWire struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

type detailsResponse struct {
	ID           models.MovieID `json:"id"`
	Title        string         `json:"title"`
	Overview     string         `json:"overview"`
	Tagline      string         `json:"tagline"`
	ReleaseDate  string         `json:"release_date"`
	Runtime      int            `json:"runtime"`
	Genres       []models.Genre `json:"genres"`
	VoteAverage  float64        `json:"vote_average"`
	VoteCount    int            `json:"vote_count"`
	PosterPath   string         `json:"poster_path"`
	BackdropPath string         `json:"backdrop_path"`
	IMDbID       string         `json:"imdb_id"`

	Credits struct {
		Crew []crewWire `json:"crew"`
	} `json:"credits"`
	WatchProviders watchProvidersResponse `json:"watch/providers"`
	ExternalIDs    struct {
		IMDbID string `json:"imdb_id"`
	} `json:"external_ids"`
}

func (p providerWire) model() models.Provider {
	return models.Provider{
		ID:              p.ProviderID,
		Name:            p.ProviderName,
		LogoPath:        p.LogoPath,
		DisplayPriority: p.DisplayPriority,
	}
}

func providers(in []providerWire) []models.Provider {
	if len(in) == 0 {
		return nil
	}
	out := make([]models.Provider, len(in))
	for i, p := range in {
		out[i] = p.model()
	}
	return out
}

func (t tiersWire) model() models.ProviderTiers {
	return models.ProviderTiers{
		Link:     t.Link,
		Flatrate: providers(t.Flatrate),
		Free:     providers(t.Free),
		Ads:      providers(t.Ads),
		Rent:     providers(t.Rent),
		Buy:      providers(t.Buy),
	}
}

func (w watchProvidersResponse) model() models.Availability {
	out := make(models.Availability, len(w.Results))
	for region, tiers := range w.Results {
		out[region] = tiers.model()
	}
	return out
}

func (d *detailsResponse) model() *models.MovieDetails {
	out := &models.MovieDetails{
		ID:           d.ID,
		Title:        d.Title,
		Overview:     d.Overview,
		Tagline:      d.Tagline,
		ReleaseDate:  d.ReleaseDate,
		Runtime:      d.Runtime,
		Genres:       d.Genres,
		VoteAverage:  d.VoteAverage,
		VoteCount:    d.VoteCount,
		PosterPath:   d.PosterPath,
		BackdropPath: d.BackdropPath,
		IMDbID:       d.IMDbID,
		Availability: d.WatchProviders.model(),
	}
	if out.IMDbID == "" {
		out.IMDbID = d.ExternalIDs.IMDbID
	}
	for _, c := range d.Credits.Crew {
		if c.Job == "Director" {
			out.Directors = append(out.Directors, models.Person{ID: c.ID, Name: c.Name})
		}
	}
	return out
}
