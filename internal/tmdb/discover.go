// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package tmdb

import (
	"context"
	"math"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

// streamingMonetization limits provider matches to the streaming tiers.
const streamingMonetization = "flatrate|free|ads"

// enoughCandidates stops paging within a step.
const enoughCandidates = 5

// query is one rung of the relaxation ladder.
type query struct {
	filters models.DiscoveryFilters

	// anyProvider restricts to titles streaming on any provider in the
	// region instead of the selected ones.
	anyProvider bool
}

// ladder returns the exact query followed by every relaxation that
// actually changes it:
//
//  1. vote count threshold lowered to 100
//  2. rating threshold lowered by 1
//  3. vote count threshold 50, rating lowered by 2
//  4. any streaming provider in the region (not when locked)
//  5. no genre (not when locked)
func ladder(f models.DiscoveryFilters, lock bool) []query {
	base := f.Clone()
	steps := []func(q *query){
		func(q *query) { q.filters.MinVoteCount = min(q.filters.MinVoteCount, 100) },
		func(q *query) { q.filters.MinRating = math.Max(0, base.MinRating-1) },
		func(q *query) {
			q.filters.MinVoteCount = min(q.filters.MinVoteCount, 50)
			q.filters.MinRating = math.Max(0, base.MinRating-2)
		},
	}
	if !lock {
		steps = append(steps,
			func(q *query) {
				if q.filters.HasProviders() {
					q.filters.ProviderIDs = nil
					q.anyProvider = true
				}
			},
			func(q *query) { q.filters.GenreID = nil },
		)
	}

	out := []query{{filters: base}}
	for _, step := range steps {
		prev := out[len(out)-1]
		next := query{filters: prev.filters.Clone(), anyProvider: prev.anyProvider}
		step(&next)
		if !next.equal(prev) {
			out = append(out, next)
		}
	}
	return out
}

func (q query) equal(o query) bool {
	a, b := q.filters, o.filters
	sameGenre := (a.GenreID == nil) == (b.GenreID == nil) && (a.GenreID == nil || *a.GenreID == *b.GenreID)
	return sameGenre &&
		q.anyProvider == o.anyProvider &&
		a.MinRating == b.MinRating &&
		a.MinVoteCount == b.MinVoteCount &&
		slices.Equal(a.ProviderIDs, b.ProviderIDs)
}

// Discover implements the candidate source: it walks the relaxation
// ladder until a rung yields at least one movie outside exclude.
//
// When every rung comes back empty the result has no candidates and
// RelaxationStep is the last rung tried.
func (c *Client) Discover(ctx context.Context, filters models.DiscoveryFilters, region string, exclude map[models.MovieID]struct{}, opts models.DiscoverOptions) (models.CandidateResult, error) {
	rungs := ladder(filters, opts.LockFilters)
	log := c.log(ctx)

	for step, q := range rungs {
		candidates, err := c.discoverPages(ctx, q, region, exclude)
		if err != nil {
			return models.CandidateResult{RelaxationStep: step}, err
		}
		if len(candidates) > 0 {
			if step > 0 {
				log.Info().
					Int("step", step).
					Float64("min_rating", q.filters.MinRating).
					Int("min_vote_count", q.filters.MinVoteCount).
					Bool("any_provider", q.anyProvider).
					Bool("genre", q.filters.HasGenre()).
					Int("candidates", len(candidates)).
					Msg("constraints relaxed")
			}
			return models.CandidateResult{Candidates: candidates, RelaxationStep: step}, nil
		}
		log.Debug().Int("step", step).Msg("no candidates, relaxing")
	}
	return models.CandidateResult{RelaxationStep: len(rungs) - 1}, nil
}

func (c *Client) discoverPages(ctx context.Context, q query, region string, exclude map[models.MovieID]struct{}) ([]models.MovieSummary, error) {
	var out []models.MovieSummary
	for page := 1; page <= c.maxPages; page++ {
		var resp pageResponse
		if err := c.get(ctx, "/discover/movie", discoverParams(q, region, page), &resp); err != nil {
			return nil, err
		}
		for _, m := range resp.Results {
			if _, skip := exclude[m.ID]; !skip {
				out = append(out, m)
			}
		}
		if len(out) >= enoughCandidates || page >= resp.TotalPages {
			break
		}
	}
	return out, nil
}

func discoverParams(q query, region string, page int) url.Values {
	p := url.Values{
		"sort_by":          {"popularity.desc"},
		"include_adult":    {"false"},
		"page":             {strconv.Itoa(page)},
		"vote_average.gte": {strconv.FormatFloat(q.filters.MinRating, 'f', -1, 64)},
		"vote_count.gte":   {strconv.Itoa(q.filters.MinVoteCount)},
	}
	if q.filters.GenreID != nil {
		p["with_genres"] = []string{strconv.Itoa(*q.filters.GenreID)}
	}
	if q.filters.HasProviders() {
		ids := make([]string, len(q.filters.ProviderIDs))
		for i, id := range q.filters.ProviderIDs {
			ids[i] = strconv.Itoa(id)
		}
		p["with_watch_providers"] = []string{strings.Join(ids, "|")}
	}
	if region != "" && (q.filters.HasProviders() || q.anyProvider) {
		p["watch_region"] = []string{region}
		p["with_watch_monetization_types"] = []string{streamingMonetization}
	}
	return p
}
