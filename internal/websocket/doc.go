// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

/*
Package websocket pushes discovery state to connected UIs.

The package uses gorilla/websocket with a hub-client architecture:

	┌──────────┐
	│   Hub    │ ← Broadcasts to all clients
	└────┬─────┘
	     │
	┌────┴─────┬─────────┬─────────┐
	│          │         │         │
	│ Client1  │ Client2 │ Client3 │ Client4
	│          │         │         │
	└──────────┴─────────┴─────────┘

Each client has two goroutines:
  - readPump: decodes inbound frames and starts the triggers they carry
  - writePump: writes hub broadcasts and per-client replies, and sends
    protocol pings

Outbound messages:

  - state: a discovery state snapshot, sent on every change and to each
    client right after it connects
  - region: the effective region changed
  - action_result: {"action", "movie_id", "undo", "changed"} for the
    sender of an action
  - error: {"message"} for the sender of a rejected trigger
  - pong: answer to ping

Inbound messages:

	{"type": "discover"}
	{"type": "action", "data": {"action": "love", "movie_id": 550, "undo": false}}
	{"type": "ping"}

A discover trigger runs the engine; its result reaches every client as a
state broadcast. Only one discover per connection runs at a time. Triggers
are cancelled when their connection closes.

Usage:

	hub := websocket.NewHub()
	go hub.RunWithContext(ctx)

	unsubscribe := engine.Subscribe(func(s discovery.State) {
	    hub.BroadcastState(s)
	})
	defer unsubscribe()

Slow clients whose send buffer fills up are dropped rather than allowed
to stall the hub.
*/
package websocket
