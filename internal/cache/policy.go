// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package cache

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

// Class is a cached data category with a fixed TTL.
type Class string

const (
	ClassTrending     Class = "trending"
	ClassNowPlaying   Class = "now_playing"
	ClassDetails      Class = "details"
	ClassSearch       Class = "search"
	ClassProviders    Class = "providers"
	ClassAvailability Class = "availability"
	ClassRatings      Class = "ratings"
	ClassGenres       Class = "genres"
)

var classTTL = map[Class]time.Duration{
	ClassTrending:     30 * time.Minute,
	ClassNowPlaying:   30 * time.Minute,
	ClassDetails:      24 * time.Hour,
	ClassSearch:       time.Hour,
	ClassProviders:    24 * time.Hour,
	ClassAvailability: 24 * time.Hour,
	ClassRatings:      24 * time.Hour,
	ClassGenres:       24 * time.Hour,
}

// TTL returns the freshness window of c. Unknown classes get the shortest
// window so a typo never pins data for a day.
func (c Class) TTL() time.Duration {
	if ttl, ok := classTTL[c]; ok {
		return ttl
	}
	return 30 * time.Minute
}

// AvailabilityPrefix covers every region-dependent entry. Changing the
// effective region invalidates it.
const AvailabilityPrefix = "availability-"

// TrendingKey keys the trending list of a time window ("day", "week").
func TrendingKey(window string) string {
	return "trending-" + window
}

// NowPlayingKey keys the now-playing list of a region.
func NowPlayingKey(region string) string {
	return "now-playing-" + region
}

// DetailsKey keys the full record of a movie.
func DetailsKey(id models.MovieID) string {
	return "details-" + id.String()
}

// SearchKey keys one page of search results.
func SearchKey(query string, page int) string {
	return fmt.Sprintf("search-%s-%d", url.QueryEscape(strings.ToLower(strings.TrimSpace(query))), page)
}

// AvailabilityKey keys the offers of one movie in one region.
func AvailabilityKey(id models.MovieID, region string) string {
	return fmt.Sprintf("%s%s-%s", AvailabilityPrefix, id, region)
}

// RegionProvidersKey keys the provider list of a region. It lives under
// AvailabilityPrefix so region overrides clear it as well.
func RegionProvidersKey(region string) string {
	return AvailabilityPrefix + "providers-" + region
}

// RatingsKey keys third-party ratings by external ID.
func RatingsKey(externalID string) string {
	return "ratings-" + externalID
}

// GenresKey keys the genre list of a language.
func GenresKey(language string) string {
	return "genres-" + language
}

var keyFamilies = []struct {
	prefix string
	class  Class
}{
	{"trending-", ClassTrending},
	{"now-playing-", ClassNowPlaying},
	{"details-", ClassDetails},
	{"search-", ClassSearch},
	{AvailabilityPrefix + "providers-", ClassProviders},
	{AvailabilityPrefix, ClassAvailability},
	{"ratings-", ClassRatings},
	{"genres-", ClassGenres},
}

// family maps a key back to its class for metric labels.
func family(key string) string {
	for _, f := range keyFamilies {
		if strings.HasPrefix(key, f.prefix) {
			return string(f.class)
		}
	}
	return "other"
}
