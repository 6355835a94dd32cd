// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package tmdb

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/gate"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

// allRegions keys the unfiltered availability map of a movie.
const allRegions = "ALL"

// notFoundAsAbsent turns ErrNotFound into a cacheable "known absent".
func notFoundAsAbsent[T any](v *T, err error) (*T, error) {
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return v, err
}

// Details returns the full record of id including directors, external
// IDs and availability in every region. A movie the catalog does not know
// is reported as ErrNotFound, and that answer is cached too.
func (c *Client) Details(ctx context.Context, id models.MovieID) (*models.MovieDetails, error) {
	r, err := cache.ReadThrough(ctx, c.cache, cache.DetailsKey(id), cache.ClassDetails,
		func(ctx context.Context) (*models.MovieDetails, error) {
			return notFoundAsAbsent(c.fetchDetails(ctx, id))
		}, nil)
	if err != nil {
		return nil, err
	}
	if r.Value == nil {
		return nil, fmt.Errorf("movie %d: %w", id, ErrNotFound)
	}
	return r.Value, nil
}

func (c *Client) fetchDetails(ctx context.Context, id models.MovieID) (*models.MovieDetails, error) {
	var resp detailsResponse
	err := c.gates.Get(gate.ClassDetails).Do(ctx, func(ctx context.Context) error {
		q := url.Values{"append_to_response": {"credits,watch/providers,external_ids"}}
		return c.get(ctx, "/movie/"+id.String(), q, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.model(), nil
}

// Availability returns the offers for id, keyed by region. With a region
// only that region is returned (possibly empty); an empty region returns
// every region.
func (c *Client) Availability(ctx context.Context, id models.MovieID, region string) (models.Availability, error) {
	key := region
	if key == "" {
		key = allRegions
	}
	r, err := cache.ReadThrough(ctx, c.cache, cache.AvailabilityKey(id, key), cache.ClassAvailability,
		func(ctx context.Context) (*models.Availability, error) {
			all, err := c.fetchAvailability(ctx, id)
			if err != nil {
				return notFoundAsAbsent[models.Availability](nil, err)
			}
			if region == "" {
				return &all, nil
			}
			only := models.Availability{}
			if tiers, ok := all[region]; ok {
				only[region] = tiers
			}
			return &only, nil
		}, nil)
	if err != nil {
		return nil, err
	}
	if r.Value == nil {
		return models.Availability{}, nil
	}
	return *r.Value, nil
}

func (c *Client) fetchAvailability(ctx context.Context, id models.MovieID) (models.Availability, error) {
	var resp watchProvidersResponse
	err := c.gates.Get(gate.ClassAvailability).Do(ctx, func(ctx context.Context) error {
		return c.get(ctx, "/movie/"+id.String()+"/watch/providers", nil, &resp)
	})
	if err != nil {
		return nil, err
	}
	return resp.model(), nil
}

// RegionProviders lists the providers operating in region, by display
// priority.
func (c *Client) RegionProviders(ctx context.Context, region string) ([]models.Provider, error) {
	r, err := cache.ReadThrough(ctx, c.cache, cache.RegionProvidersKey(region), cache.ClassProviders,
		func(ctx context.Context) (*[]models.Provider, error) {
			var resp regionProvidersResponse
			err := c.gates.Get(gate.ClassAvailability).Do(ctx, func(ctx context.Context) error {
				return c.get(ctx, "/watch/providers/movie", url.Values{"watch_region": {region}}, &resp)
			})
			if err != nil {
				return nil, err
			}
			out := providers(resp.Results)
			sort.SliceStable(out, func(i, j int) bool { return out[i].DisplayPriority < out[j].DisplayPriority })
			return &out, nil
		}, nil)
	if err != nil {
		return nil, err
	}
	if r.Value == nil {
		return nil, nil
	}
	return *r.Value, nil
}

// Genres returns the genre list in the client language. Concurrent first
// callers share one request.
func (c *Client) Genres(ctx context.Context) ([]models.Genre, error) {
	r, err := cache.ReadThrough(ctx, c.cache, cache.GenresKey(c.language), cache.ClassGenres,
		func(ctx context.Context) (*[]models.Genre, error) {
			var resp genresResponse
			if err := c.get(ctx, "/genre/movie/list", nil, &resp); err != nil {
				return nil, err
			}
			return &resp.Genres, nil
		}, nil)
	if err != nil {
		return nil, err
	}
	if r.Value == nil {
		return nil, nil
	}
	return *r.Value, nil
}

// GenreName returns the display name of id, or "" when unknown or the
// list cannot be loaded.
func (c *Client) GenreName(ctx context.Context, id int) string {
	genres, err := c.Genres(ctx)
	if err != nil {
		c.log(ctx).Debug().Err(err).Int("genre_id", id).Msg("genre list unavailable")
		return ""
	}
	for _, g := range genres {
		if g.ID == id {
			return g.Name
		}
	}
	return ""
}

// Trending returns the trending movies of window ("day" or "week").
func (c *Client) Trending(ctx context.Context, window string) ([]models.MovieSummary, error) {
	if window != "week" {
		window = "day"
	}
	return c.list(ctx, cache.TrendingKey(window), cache.ClassTrending, "/trending/movie/"+window, nil)
}

// NowPlaying returns the movies in theaters in region.
func (c *Client) NowPlaying(ctx context.Context, region string) ([]models.MovieSummary, error) {
	return c.list(ctx, cache.NowPlayingKey(region), cache.ClassNowPlaying, "/movie/now_playing", url.Values{"region": {region}})
}

// Search returns one page of title search results.
func (c *Client) Search(ctx context.Context, text string, page int) ([]models.MovieSummary, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if page < 1 {
		page = 1
	}
	q := url.Values{"query": {text}, "page": {strconv.Itoa(page)}, "include_adult": {"false"}}
	return c.list(ctx, cache.SearchKey(text, page), cache.ClassSearch, "/search/movie", q)
}

func (c *Client) list(ctx context.Context, key string, class cache.Class, path string, q url.Values) ([]models.MovieSummary, error) {
	r, err := cache.ReadThrough(ctx, c.cache, key, class,
		func(ctx context.Context) (*[]models.MovieSummary, error) {
			var resp pageResponse
			if err := c.get(ctx, path, q, &resp); err != nil {
				return nil, err
			}
			return &resp.Results, nil
		}, nil)
	if err != nil {
		return nil, err
	}
	if r.Value == nil {
		return nil, nil
	}
	return *r.Value, nil
}
