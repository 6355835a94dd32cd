// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package discovery

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/breaker"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

const (
	msgUnavailable = "The movie catalog is temporarily unavailable. Try again in a moment."
	msgTimeout     = "Finding a movie took too long. Try again."
	msgGeneric     = "Something went wrong while finding a movie. Try again."
)

// failureMessage maps an error from candidate resolution or verification
// to text the user can act on.
func failureMessage(err error) string {
	switch {
	case errors.Is(err, breaker.ErrOpen):
		return msgUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return msgTimeout
	default:
		return msgGeneric
	}
}

// emptyMessage explains an exhausted search in terms of the filters that
// were held fixed. Unlocked filters were relaxed away and are not named.
func (e *Engine) emptyMessage(ctx context.Context, f models.DiscoveryFilters, region string, lock bool) string {
	genre := lock && f.HasGenre()
	providers := lock && f.HasProviders()

	switch {
	case genre && providers:
		return fmt.Sprintf("No %s movies found on %s in your region (%s). Try different filters.",
			e.genreName(ctx, *f.GenreID), e.providerNames(ctx, f.ProviderIDs, region), region)
	case genre:
		return fmt.Sprintf("No unseen %s movies match your filters. Try a different genre.",
			e.genreName(ctx, *f.GenreID))
	case providers:
		return fmt.Sprintf("No movies found on %s in your region (%s). Try adding more services.",
			e.providerNames(ctx, f.ProviderIDs, region), region)
	case f.HasGenre() || f.HasProviders():
		return "No movies found even after widening your filters. Try different filters."
	default:
		return "No new movies found right now. Try again later or lower the minimum rating."
	}
}

func (e *Engine) genreName(ctx context.Context, id int) string {
	if e.deps.Genres != nil {
		if name := e.deps.Genres.GenreName(ctx, id); name != "" {
			return name
		}
	}
	return "matching"
}

// providerNames renders the selected providers as "A", "A or B" or
// "A, B or C", falling back to a generic phrase when the region's
// provider list cannot be loaded.
func (e *Engine) providerNames(ctx context.Context, ids []int, region string) string {
	const generic = "your selected services"
	if e.deps.Availability == nil {
		return generic
	}
	known, err := e.deps.Availability.RegionProviders(ctx, region)
	if err != nil {
		return generic
	}
	byID := make(map[int]string, len(known))
	for _, p := range known {
		byID[p.ID] = p.Name
	}

	names := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := byID[id]; ok {
			names = append(names, n)
		}
	}
	switch len(names) {
	case 0:
		return generic
	case 1:
		return names[0]
	default:
		return strings.Join(names[:len(names)-1], ", ") + " or " + names[len(names)-1]
	}
}
