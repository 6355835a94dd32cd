// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package api

import (
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/app"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/cache"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/discovery"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/gate"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/region"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/taste"
	ws "github.com/Kohulan/WhichMovieToWatch-sub001/internal/websocket"
)

// topGenres is how many genres the taste endpoint lists.
const topGenres = 5

// Handler serves the API over one App.
type Handler struct {
	app            *app.App
	allowedOrigins []string
	started        time.Time
}

// NewHandler creates a handler. allowedOrigins also governs websocket
// upgrades.
func NewHandler(a *app.App, allowedOrigins []string) *Handler {
	return &Handler{app: a, allowedOrigins: allowedOrigins, started: time.Now()}
}

// HealthResponse reports component status.
type HealthResponse struct {
	Status           string        `json:"status"`
	Uptime           string        `json:"uptime"`
	Region           string        `json:"region"`
	CatalogBreaker   string        `json:"catalog_breaker"`
	RatingsEnabled   bool          `json:"ratings_enabled"`
	RatingsRemaining *int          `json:"ratings_remaining,omitempty"`
	Gates            []gate.Stats  `json:"gates"`
	Cache            cache.Stats   `json:"cache"`
	WebSocketClients int           `json:"websocket_clients"`
	Discovery        healthLoading `json:"discovery"`
}

type healthLoading struct {
	IsLoading bool `json:"is_loading"`
}

// Health reports "degraded" while the catalog breaker is not closed.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{
		Status:           "healthy",
		Uptime:           time.Since(h.started).Round(time.Second).String(),
		Region:           h.app.Region.EffectiveRegion(),
		CatalogBreaker:   h.app.Catalog.BreakerState(),
		RatingsEnabled:   h.app.Ratings != nil,
		Gates:            h.app.Gates.Stats(),
		Cache:            h.app.Cache.Stats(),
		WebSocketClients: h.app.Hub.GetClientCount(),
		Discovery:        healthLoading{IsLoading: h.app.Engine.State().IsLoading},
	}
	if h.app.Ratings != nil {
		n := h.app.Ratings.Remaining()
		resp.RatingsRemaining = &n
	}
	if resp.CatalogBreaker != "closed" {
		resp.Status = "degraded"
	}
	respondSuccess(w, r, resp)
}

// GetDiscovery returns the current state without side effects.
func (h *Handler) GetDiscovery(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.app.Engine.State())
}

// PostDiscovery runs one discovery. A failed or empty discovery is still
// a 200: the message is in the state's error field. If the caller goes
// away mid-run the result is discarded.
func (h *Handler) PostDiscovery(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.app.Engine.Discover(r.Context()))
}

type movieActionParams struct {
	ID     int64  `json:"id" validate:"gt=0"`
	Action string `json:"action" validate:"movieaction"`
}

// ActionResponse is returned by MovieAction.
type ActionResponse struct {
	MovieID models.MovieID   `json:"movie_id"`
	Action  discovery.Action `json:"action"`
	Undo    bool             `json:"undo"`
	Changed bool             `json:"changed"`
}

// MovieAction applies (POST) or undoes (DELETE) a user action.
func (h *Handler) MovieAction(w http.ResponseWriter, r *http.Request) {
	id, err := models.ParseMovieID(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "Movie ID must be a positive integer", nil)
		return
	}
	params := movieActionParams{ID: int64(id), Action: chi.URLParam(r, "action")}
	if !validateRequest(w, r, &params) {
		return
	}
	action, err := discovery.ParseAction(params.Action)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "Action must be watched, love or not-interested", nil)
		return
	}
	undo := r.Method == http.MethodDelete

	changed, err := h.app.Engine.Apply(r.Context(), action, id, undo)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorage, "Your choice could not be saved. Try again.", err)
		return
	}
	respondSuccess(w, r, ActionResponse{MovieID: id, Action: action, Undo: undo, Changed: changed})
}

func (h *Handler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.app.Preferences.Get())
}

// PutPreferences replaces the stored preferences.
func (h *Handler) PutPreferences(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if !decodeJSON(w, r, &prefs) {
		return
	}
	if !validateRequest(w, r, &prefs.Filters) {
		return
	}
	if prefs.Filters.ProviderIDs == nil {
		prefs.Filters.ProviderIDs = []int{}
	}
	if err := h.app.Preferences.Set(prefs); err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorage, "Preferences could not be saved. Try again.", err)
		return
	}
	respondSuccess(w, r, h.app.Preferences.Get())
}

// RegionResponse describes the region state.
type RegionResponse struct {
	region.State
	Effective        string `json:"effective"`
	NeedsRedetection bool   `json:"needs_redetection"`
}

func (h *Handler) regionResponse() RegionResponse {
	st := h.app.Region.State()
	return RegionResponse{
		State:            st,
		Effective:        st.EffectiveRegion(),
		NeedsRedetection: h.app.Region.NeedsRedetection(),
	}
}

func (h *Handler) GetRegion(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.regionResponse())
}

// RegionOverrideRequest sets ({"region": "DE"}) or clears ({"region": null})
// the manual override.
type RegionOverrideRequest struct {
	Region *string `json:"region" validate:"omitempty,region"`
}

// PutRegionOverride changes the override. Cached availability for the old
// region is dropped by the resolver.
func (h *Handler) PutRegionOverride(w http.ResponseWriter, r *http.Request) {
	var req RegionOverrideRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validateRequest(w, r, &req) {
		return
	}
	if err := h.app.Region.SetOverride(req.Region); err != nil {
		if errors.Is(err, region.ErrInvalidRegion) {
			respondError(w, r, http.StatusBadRequest, codeValidation, "Region must be a two-letter country code", nil)
			return
		}
		respondError(w, r, http.StatusInternalServerError, codeStorage, "Region could not be saved. Try again.", err)
		return
	}
	respondSuccess(w, r, h.regionResponse())
}

func (h *Handler) GetLedger(w http.ResponseWriter, r *http.Request) {
	respondSuccess(w, r, h.app.Ledger.Snapshot())
}

// NamedAffinity is a top genre with its display name.
type NamedAffinity struct {
	taste.Affinity
	Name string `json:"name,omitempty"`
}

// TasteResponse is the taste profile plus its strongest genres.
type TasteResponse struct {
	Profile   taste.Snapshot  `json:"profile"`
	TopGenres []NamedAffinity `json:"top_genres"`
}

func (h *Handler) GetTaste(w http.ResponseWriter, r *http.Request) {
	top := h.app.Taste.Top(topGenres)
	named := make([]NamedAffinity, len(top))
	for i, a := range top {
		named[i] = NamedAffinity{Affinity: a, Name: h.app.Catalog.GenreName(r.Context(), a.ID)}
	}
	respondSuccess(w, r, TasteResponse{Profile: h.app.Taste.Snapshot(), TopGenres: named})
}

// ResetRequest selects what to clear. At least one field must be set.
type ResetRequest struct {
	Ledger      bool `json:"ledger"`
	Taste       bool `json:"taste"`
	Preferences bool `json:"preferences"`
	Region      bool `json:"region"`
	Cache       bool `json:"cache"`
}

func (h *Handler) PostReset(w http.ResponseWriter, r *http.Request) {
	var req ResetRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	opts := app.ResetOptions(req)
	if !opts.Any() {
		respondError(w, r, http.StatusBadRequest, codeBadRequest, "Select at least one of ledger, taste, preferences, region or cache", nil)
		return
	}
	if err := h.app.Reset(opts); err != nil {
		respondError(w, r, http.StatusInternalServerError, codeStorage, "Reset did not complete. Try again.", err)
		return
	}
	respondSuccess(w, r, req)
}

func (h *Handler) upgrader() websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:   1024,
		WriteBufferSize:  4096,
		CheckOrigin:      h.checkWebSocketOrigin,
		HandshakeTimeout: 10 * time.Second,
	}
}

// checkWebSocketOrigin requires an Origin header from the allowed list.
// Browsers always send Origin on websocket handshakes.
func (h *Handler) checkWebSocketOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		logging.Warn().Msg("websocket connection rejected: missing Origin header")
		return false
	}
	if slices.Contains(h.allowedOrigins, "*") || slices.Contains(h.allowedOrigins, origin) {
		return true
	}
	logging.Warn().Str("origin", sanitizeLogValue(origin)).Msg("websocket connection rejected: origin not allowed")
	return false
}

// WebSocket upgrades to the state stream. The latest state is sent
// right after connecting, and the UI may send discover and action
// triggers over the same connection.
func (h *Handler) WebSocket(w http.ResponseWriter, r *http.Request) {
	upgrader := h.upgrader()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Debug().Err(err).Msg("websocket upgrade failed")
		return
	}

	client := ws.NewClient(h.app.Hub, conn, h.app.Engine)
	h.app.Hub.Register <- client
	client.Start()
}
