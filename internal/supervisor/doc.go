// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

/*
Package supervisor runs the long-lived parts of the server under a suture v4
tree, so a crashed service is restarted without taking the others down.

# Layout

	"whichmovie"
	├── "upkeep-layer"   LayerUpkeep
	│   ├── cache-sweep
	│   └── region-refresh
	├── "push-layer"     LayerPush
	│   └── websocket-hub
	└── "api-layer"      LayerAPI
	    └── api-server

A failing region refresh backs off inside the upkeep layer while the API
keeps serving. Restarts back off after Config.FailureThreshold failures
within the decay window. Supervisor events are logged through sutureslog
into the zerolog stream (see logging.NewSlogLogger).

# Usage

	tree := supervisor.New(supervisor.ConfigFrom(cfg.Supervisor), nil)
	tree.Add(supervisor.LayerUpkeep, services.NewCacheSweepService(a.Cache, time.Minute))
	tree.Add(supervisor.LayerPush, services.NewWebSocketHubService(a.Hub))
	tree.Add(supervisor.LayerAPI, services.NewAPIService(":8080", server, 10*time.Second))
	return tree.Run(ctx)
*/
package supervisor
