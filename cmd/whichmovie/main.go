// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Command whichmovie runs the movie discovery core, either as a supervised
// HTTP/websocket server or as one-shot commands against the same local
// state.
//
// # Commands
//
//	whichmovie serve                          run the API until SIGINT/SIGTERM
//	whichmovie discover                       pick one movie and print the state
//	whichmovie action love 550 [--undo]       record watched, love or not-interested
//	whichmovie region [--override DE|--clear] show or change the region
//	whichmovie reset [--ledger] [--taste] ... clear stored state
//	whichmovie sweep                          delete expired cache entries
//	whichmovie trending [--window week]       list trending movies
//	whichmovie now-playing [--region FR]      list movies in theaters
//	whichmovie search fight club              search by title
//	whichmovie movie 550 [--availability]     show one movie or its offers
//	whichmovie import history.json            merge history from an earlier client
//
// # Configuration
//
// Settings come from defaults, then a YAML file (--config, $CONFIG_PATH or
// ./config.yaml), then environment variables. The catalog key is read from
// TMDB_API_KEY; any setting can be given as WMTW_<SECTION>__<KEY>, e.g.
// WMTW_GATE__CAPACITY=8. --ephemeral keeps all state in memory.
package main

import (
	"os"
)

func main() {
	if err := newRootCmd(&cli{}).Execute(); err != nil {
		os.Exit(1)
	}
}
