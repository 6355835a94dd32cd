// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package cache

import (
	"context"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/metrics"
)

// Fetcher loads a value from upstream. A nil value with a nil error means
// "known absent" and is cached as such.
type Fetcher[T any] func(ctx context.Context) (*T, error)

// ReadThrough serves key with stale-while-revalidate semantics.
//
// A fresh entry is returned as is. A stale entry is returned immediately
// and refreshed in the background; onRefresh (optional) receives the new
// value when that refresh succeeds, and a failed refresh leaves the stale
// entry in place. Without an entry the fetch runs synchronously and its
// error is returned, since there is nothing to fall back to.
func ReadThrough[T any](ctx context.Context, c *Cache, key string, class Class, fetch Fetcher[T], onRefresh func(*T)) (Result[T], error) {
	r := Get[T](c, key)
	if r.Found && !r.IsStale {
		return r, nil
	}
	if r.Found {
		refreshInBackground(ctx, c, key, class, fetch, onRefresh)
		return r, nil
	}

	v, err := fetchShared(ctx, c, key, class, fetch)
	if err != nil {
		return Result[T]{Value: nil, Found: false, IsStale: true}, err
	}
	return Result[T]{Value: v, Found: true, IsStale: false}, nil
}

// Refresh fetches key unconditionally and stores the result.
func Refresh[T any](ctx context.Context, c *Cache, key string, class Class, fetch Fetcher[T]) (*T, error) {
	return fetchShared(ctx, c, key, class, fetch)
}

func refreshInBackground[T any](ctx context.Context, c *Cache, key string, class Class, fetch Fetcher[T], onRefresh func(*T)) {
	// The refresh outlives the request that noticed the stale entry.
	bg := context.WithoutCancel(ctx)

	c.refreshes.Add(1)
	go func() {
		defer c.refreshes.Done()

		v, err := fetchShared(bg, c, key, class, fetch)
		metrics.RecordCacheRefresh(string(class), err)
		if err != nil {
			logging.Ctx(bg).Debug().Err(err).Str("key", key).Msg("background refresh failed, keeping stale value")
			return
		}
		if onRefresh != nil {
			onRefresh(v)
		}
	}()
}

// fetchShared runs fetch once per key across concurrent callers and
// stores the result. The shared fetch runs detached from any one caller's
// cancellation; each caller stops waiting when its own ctx is done, and
// the fetch still completes for the others. A failed cache write is
// logged, not returned: the caller still gets the fresh value.
func fetchShared[T any](ctx context.Context, c *Cache, key string, class Class, fetch Fetcher[T]) (*T, error) {
	shared := context.WithoutCancel(ctx)
	ch := c.flight.DoChan(key, func() (interface{}, error) {
		v, err := fetch(shared)
		if err != nil {
			return nil, err
		}
		var werr error
		if v == nil {
			werr = c.SetAbsent(key, class)
		} else {
			werr = Set(c, key, *v, class)
		}
		if werr != nil {
			c.logger.Warn().Err(werr).Str("key", key).Msg("cache write failed")
		}
		return v, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		v, _ := res.Val.(*T)
		return v, nil
	}
}
