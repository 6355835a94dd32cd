// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/app"
)

// NewRouter builds the HTTP handler for a.
func NewRouter(a *app.App, cfg MiddlewareConfig) http.Handler {
	h := NewHandler(a, cfg.CORSAllowedOrigins)

	r := chi.NewRouter()
	r.Use(requestIDWithLogging)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(corsHandler(cfg))

	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(rateLimit(cfg))
		r.Use(securityHeaders)
		r.Use(requestMetrics)

		r.Get("/health", h.Health)

		r.Get("/discovery", h.GetDiscovery)
		r.Post("/discovery", h.PostDiscovery)

		r.Get("/trending", h.GetTrending)
		r.Get("/now-playing", h.GetNowPlaying)
		r.Get("/search", h.GetSearch)

		r.Get("/movies/{id}", h.GetMovie)
		r.Get("/movies/{id}/availability", h.GetAvailability)
		r.Post("/movies/{id}/actions/{action}", h.MovieAction)
		r.Delete("/movies/{id}/actions/{action}", h.MovieAction)

		r.Get("/preferences", h.GetPreferences)
		r.Put("/preferences", h.PutPreferences)

		r.Get("/region", h.GetRegion)
		r.Put("/region/override", h.PutRegionOverride)

		r.Get("/ledger", h.GetLedger)
		r.Post("/ledger/import", h.PostLedgerImport)
		r.Get("/taste", h.GetTaste)
		r.Post("/reset", h.PostReset)

		r.Get("/ws", h.WebSocket)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, codeNotFound, "No such endpoint", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, codeBadRequest, "Method not allowed", nil)
	})
	return r
}
