// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

/*
Package api exposes the discovery core over HTTP for the UI.

Routes (all JSON, wrapped in models.APIResponse):

	GET    /api/v1/health                          liveness plus component status
	GET    /api/v1/discovery                       current discovery state
	POST   /api/v1/discovery                       run one discovery
	GET    /api/v1/trending                        ?window=day|week
	GET    /api/v1/now-playing                     ?region=, default effective region
	GET    /api/v1/search                          ?q=title&page=1
	GET    /api/v1/movies/{id}                     full movie record
	GET    /api/v1/movies/{id}/availability        offers in ?region=
	POST   /api/v1/movies/{id}/actions/{action}    watched | love | not-interested
	DELETE /api/v1/movies/{id}/actions/{action}    undo the action
	GET    /api/v1/preferences                     filters and onboarding flag
	PUT    /api/v1/preferences
	GET    /api/v1/region                          detected, override, effective
	PUT    /api/v1/region/override                 {"region": "DE"} or {"region": null}
	GET    /api/v1/ledger                          interaction history
	POST   /api/v1/ledger/import                   merge history from an earlier client
	GET    /api/v1/taste                           taste profile and top genres
	POST   /api/v1/reset                           {"ledger": true, ...}
	GET    /api/v1/ws                              websocket state stream
	GET    /metrics                                Prometheus

Middleware, outermost first: request ID and correlation ID, real IP,
panic recovery, CORS (go-chi/cors), per-IP rate limiting
(go-chi/httprate), security headers, request metrics.
*/
package api
