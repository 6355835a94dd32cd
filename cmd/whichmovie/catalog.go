// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/api"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/app"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/ledger"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/validation"
)

// withCatalog opens the app with catalog credentials and runs fn under the
// command timeout.
func (c *cli) withCatalog(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	a, err := c.openApp(true)
	if err != nil {
		return err
	}
	defer closeApp(a)

	ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
	defer cancel()
	return fn(ctx, a)
}

// regionFlag upper-cases an explicit --region, or falls back to the
// effective region.
func regionFlag(a *app.App, code string) (string, error) {
	if code == "" {
		return a.Region.EffectiveRegion(), nil
	}
	code = strings.ToUpper(code)
	if !validation.IsRegion(code) {
		return "", fmt.Errorf("invalid region %q", code)
	}
	return code, nil
}

func printMovies(w io.Writer, movies []models.MovieSummary) error {
	if movies == nil {
		movies = []models.MovieSummary{}
	}
	return printJSON(w, api.MovieListResponse{Movies: movies, Count: len(movies)})
}

func newTrendingCmd(c *cli) *cobra.Command {
	var window string
	cmd := &cobra.Command{
		Use:   "trending",
		Short: "List trending movies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if window != "day" && window != "week" {
				return fmt.Errorf("invalid window %q: want day or week", window)
			}
			return c.withCatalog(cmd, func(ctx context.Context, a *app.App) error {
				movies, err := a.Catalog.Trending(ctx, window)
				if err != nil {
					return err
				}
				return printMovies(cmd.OutOrStdout(), movies)
			})
		},
	}
	cmd.Flags().StringVar(&window, "window", "day", "day or week")
	return cmd
}

func newNowPlayingCmd(c *cli) *cobra.Command {
	var code string
	cmd := &cobra.Command{
		Use:   "now-playing",
		Short: "List movies in theaters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withCatalog(cmd, func(ctx context.Context, a *app.App) error {
				r, err := regionFlag(a, code)
				if err != nil {
					return err
				}
				movies, err := a.Catalog.NowPlaying(ctx, r)
				if err != nil {
					return err
				}
				return printMovies(cmd.OutOrStdout(), movies)
			})
		},
	}
	cmd.Flags().StringVar(&code, "region", "", "region code (default: effective region)")
	return cmd
}

func newSearchCmd(c *cli) *cobra.Command {
	var page int
	cmd := &cobra.Command{
		Use:   "search <title>",
		Short: "Search movies by title",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text := strings.TrimSpace(strings.Join(args, " "))
			if text == "" {
				return fmt.Errorf("search text is empty")
			}
			return c.withCatalog(cmd, func(ctx context.Context, a *app.App) error {
				movies, err := a.Catalog.Search(ctx, text, page)
				if err != nil {
					return err
				}
				return printMovies(cmd.OutOrStdout(), movies)
			})
		},
	}
	cmd.Flags().IntVar(&page, "page", 1, "result page")
	return cmd
}

func newMovieCmd(c *cli) *cobra.Command {
	var (
		code      string
		available bool
	)
	cmd := &cobra.Command{
		Use:   "movie <movie-id>",
		Short: "Show one movie, or with --availability where it streams",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := models.ParseMovieID(args[0])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid movie id %q", args[0])
			}
			return c.withCatalog(cmd, func(ctx context.Context, a *app.App) error {
				if !available {
					d, err := a.Catalog.Details(ctx, id)
					if err != nil {
						return err
					}
					return printJSON(cmd.OutOrStdout(), d)
				}
				r, err := regionFlag(a, code)
				if err != nil {
					return err
				}
				avail, err := a.Catalog.Availability(ctx, id, r)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), api.AvailabilityResponse{MovieID: id, Region: r, Offers: avail[r]})
			})
		},
	}
	cmd.Flags().BoolVar(&available, "availability", false, "print the offers in one region instead of the full record")
	cmd.Flags().StringVar(&code, "region", "", "region for --availability (default: effective region)")
	return cmd
}

func newImportCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "import <file|->",
		Short: "Merge history exported by an earlier client into the ledger",
		Long: `import reads a JSON object with "shown", "watched", "loved" and
"not_interested" ID lists. Shown IDs are appended oldest first under the
usual ring bound; the other lists are merged into the existing sets.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var src io.Reader = cmd.InOrStdin()
			if args[0] != "-" {
				f, err := os.Open(args[0])
				if err != nil {
					return err
				}
				defer f.Close()
				src = f
			}

			var req api.LedgerImportRequest
			dec := json.NewDecoder(src)
			dec.DisallowUnknownFields()
			if err := dec.Decode(&req); err != nil {
				return fmt.Errorf("decode history: %w", err)
			}
			if verr := validation.ValidateStruct(&req); verr != nil {
				return verr
			}

			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if err := a.Ledger.ImportLegacy(ledger.LegacyData(req)); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), a.Ledger.Snapshot())
		},
	}
}
