// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package services adapts the server's long-lived components to
// suture.Service. Each wrapper only translates lifecycles: Serve blocks
// until its context is canceled and returns ctx.Err() on a clean stop, so
// suture can tell a shutdown from a crash.
//
// Components are taken as small interfaces so the wrappers can be tested
// with fakes and this package imports nothing from the rest of the module.
package services
