// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package models

import (
	"strconv"
)

// MovieID is the catalog identifier of a movie.
type MovieID int64

// String implements fmt.Stringer.
func (id MovieID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

// ParseMovieID parses a decimal movie ID.
func ParseMovieID(s string) (MovieID, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return MovieID(n), nil
}

// Genre is a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Person is a cast or crew member.
type Person struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// MovieSummary is a candidate as returned by list endpoints.
type MovieSummary struct {
	ID          MovieID `json:"id"`
	Title       string  `json:"title"`
	Overview    string  `json:"overview,omitempty"`
	ReleaseDate string  `json:"release_date,omitempty"`
	GenreIDs    []int   `json:"genre_ids,omitempty"`
	VoteAverage float64 `json:"vote_average"`
	VoteCount   int     `json:"vote_count"`
	Popularity  float64 `json:"popularity,omitempty"`
	PosterPath  string  `json:"poster_path,omitempty"`
}

// MovieDetails is the full record of one movie.
type MovieDetails struct {
	ID           MovieID      `json:"id"`
	Title        string       `json:"title"`
	Overview     string       `json:"overview,omitempty"`
	Tagline      string       `json:"tagline,omitempty"`
	ReleaseDate  string       `json:"release_date,omitempty"`
	Runtime      int          `json:"runtime,omitempty"`
	Genres       []Genre      `json:"genres"`
	VoteAverage  float64      `json:"vote_average"`
	VoteCount    int          `json:"vote_count"`
	PosterPath   string       `json:"poster_path,omitempty"`
	BackdropPath string       `json:"backdrop_path,omitempty"`
	Directors    []Person     `json:"directors,omitempty"`
	IMDbID       string       `json:"imdb_id,omitempty"`
	Availability Availability `json:"availability,omitempty"`
	Ratings      *Ratings     `json:"ratings,omitempty"`
}

// Year returns the release year, or 0 when the date is missing or malformed.
func (d *MovieDetails) Year() int {
	return yearOf(d.ReleaseDate)
}

// Decade returns the release decade (1990 for 1994), or 0 when unknown.
func (d *MovieDetails) Decade() int {
	y := d.Year()
	if y == 0 {
		return 0
	}
	return y - y%10
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	y, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return y
}

// Ratings holds third-party ratings. Empty strings mean "not rated there".
type Ratings struct {
	IMDb           string `json:"imdb,omitempty"`
	IMDbVotes      string `json:"imdb_votes,omitempty"`
	RottenTomatoes string `json:"rotten_tomatoes,omitempty"`
	Metacritic     string `json:"metacritic,omitempty"`
}
