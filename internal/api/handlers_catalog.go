// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/ledger"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/tmdb"
)

// importBodyBytes bounds a legacy history upload, which carries whole ID
// lists rather than a settings object.
const importBodyBytes = 1 << 20

// MovieListResponse is a page of catalog summaries.
type MovieListResponse struct {
	Movies []models.MovieSummary `json:"movies"`
	Count  int                   `json:"count"`
}

func newMovieList(movies []models.MovieSummary) MovieListResponse {
	if movies == nil {
		movies = []models.MovieSummary{}
	}
	return MovieListResponse{Movies: movies, Count: len(movies)}
}

type trendingParams struct {
	Window string `json:"window" validate:"omitempty,oneof=day week"`
}

// GetTrending lists trending movies. ?window=day|week, default day.
func (h *Handler) GetTrending(w http.ResponseWriter, r *http.Request) {
	params := trendingParams{Window: r.URL.Query().Get("window")}
	if !validateRequest(w, r, &params) {
		return
	}
	movies, err := h.app.Catalog.Trending(r.Context(), params.Window)
	if err != nil {
		respondUpstream(w, r, err)
		return
	}
	respondSuccess(w, r, newMovieList(movies))
}

type regionParams struct {
	Region string `json:"region" validate:"omitempty,region"`
}

// regionParam reads ?region=, falling back to the effective region. On a
// malformed code it has already responded and returns false.
func (h *Handler) regionParam(w http.ResponseWriter, r *http.Request) (string, bool) {
	params := regionParams{Region: strings.ToUpper(strings.TrimSpace(r.URL.Query().Get("region")))}
	if !validateRequest(w, r, &params) {
		return "", false
	}
	if params.Region == "" {
		return h.app.Region.EffectiveRegion(), true
	}
	return params.Region, true
}

// GetNowPlaying lists movies in theaters in ?region=, default the
// effective region.
func (h *Handler) GetNowPlaying(w http.ResponseWriter, r *http.Request) {
	code, ok := h.regionParam(w, r)
	if !ok {
		return
	}
	movies, err := h.app.Catalog.NowPlaying(r.Context(), code)
	if err != nil {
		respondUpstream(w, r, err)
		return
	}
	respondSuccess(w, r, newMovieList(movies))
}

type searchParams struct {
	Query string `json:"q" validate:"required,max=200"`
	Page  int    `json:"page" validate:"gte=1,lte=500"`
}

// GetSearch runs a title search. ?q= is required, ?page= defaults to 1.
func (h *Handler) GetSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	params := searchParams{Query: strings.TrimSpace(q.Get("q")), Page: 1}
	if raw := q.Get("page"); raw != "" {
		page, err := strconv.Atoi(raw)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, codeBadRequest, "Page must be an integer", nil)
			return
		}
		params.Page = page
	}
	if !validateRequest(w, r, &params) {
		return
	}
	movies, err := h.app.Catalog.Search(r.Context(), params.Query, params.Page)
	if err != nil {
		respondUpstream(w, r, err)
		return
	}
	respondSuccess(w, r, newMovieList(movies))
}

// movieIDParam parses {id}. On failure it has already responded.
func movieIDParam(w http.ResponseWriter, r *http.Request) (models.MovieID, bool) {
	id, err := models.ParseMovieID(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "Movie ID must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

// GetMovie returns the full record of one movie.
func (h *Handler) GetMovie(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	d, err := h.app.Catalog.Details(r.Context(), id)
	if err != nil {
		respondUpstream(w, r, err)
		return
	}
	respondSuccess(w, r, d)
}

// AvailabilityResponse lists where one movie streams in one region.
type AvailabilityResponse struct {
	MovieID models.MovieID       `json:"movie_id"`
	Region  string               `json:"region"`
	Offers  models.ProviderTiers `json:"offers"`
}

// GetAvailability returns the offers for a movie in ?region=, default the
// effective region.
func (h *Handler) GetAvailability(w http.ResponseWriter, r *http.Request) {
	id, ok := movieIDParam(w, r)
	if !ok {
		return
	}
	code, ok := h.regionParam(w, r)
	if !ok {
		return
	}
	avail, err := h.app.Catalog.Availability(r.Context(), id, code)
	if err != nil {
		respondUpstream(w, r, err)
		return
	}
	respondSuccess(w, r, AvailabilityResponse{MovieID: id, Region: code, Offers: avail[code]})
}

// LedgerImportRequest is history exported by an earlier client.
type LedgerImportRequest struct {
	Shown         []models.MovieID `json:"shown" validate:"dive,gt=0"`
	Watched       []models.MovieID `json:"watched" validate:"dive,gt=0"`
	Loved         []models.MovieID `json:"loved" validate:"dive,gt=0"`
	NotInterested []models.MovieID `json:"not_interested" validate:"dive,gt=0"`
}

// PostLedgerImport merges legacy history into the ledger and returns the
// resulting snapshot.
func (h *Handler) PostLedgerImport(w http.ResponseWriter, r *http.Request) {
	var req LedgerImportRequest
	if !decodeJSONLimit(w, r, &req, importBodyBytes) {
		return
	}
	if !validateRequest(w, r, &req) {
		return
	}
	if err := h.app.Ledger.ImportLegacy(ledger.LegacyData(req)); err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorage, "History could not be saved. Try again.", err)
		return
	}
	respondSuccess(w, r, h.app.Ledger.Snapshot())
}

// respondUpstream maps a catalog failure to a status.
func respondUpstream(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tmdb.ErrNotFound):
		respondError(w, r, http.StatusNotFound, codeNotFound, "Movie not found", nil)
	case errors.Is(err, context.Canceled):
		respondError(w, r, http.StatusServiceUnavailable, codeUpstream, "Request cancelled", nil)
	default:
		respondError(w, r, http.StatusBadGateway, codeUpstream, "The movie catalog is unavailable. Try again.", err)
	}
}
