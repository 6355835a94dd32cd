// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

/*
Package cache implements the persistent response cache that backs every
external read.

Entries live in a storage.Store under the "cache:" namespace as
{key, value, cached_at, ttl} records. Staleness is never stored: it is
recomputed on each read as now - cached_at > ttl. Stale entries are still
served; only EvictExpired (scheduled by the caller) or InvalidateByPrefix
removes them.

A JSON null value is a legal entry meaning "known absent upstream", which
Get reports as Found with a nil Value. A key that is not stored at all is
reported as {Value: nil, Found: false, IsStale: true}.

TTLs are fixed per data Class:

	trending, now_playing    30m
	details                  24h
	search                   1h
	providers, availability  24h
	ratings                  24h (absent results are cached too)
	genres                   24h

ReadThrough layers stale-while-revalidate on top:

	fresh entry  -> returned, no fetch
	stale entry  -> returned, background refresh (failure keeps the stale value)
	no entry     -> synchronous fetch; error only when there is nothing to fall back to

Concurrent fetches of one key share a single upstream call through
singleflight.
*/
package cache
