// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/api"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/app"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/discovery"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/models"
)

const commandTimeout = 30 * time.Second

func newDiscoverCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Pick one movie and print the discovery state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(true)
			if err != nil {
				return err
			}
			defer closeApp(a)

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			a.Start(ctx)
			state := a.Engine.Discover(ctx)
			if err := printJSON(cmd.OutOrStdout(), state); err != nil {
				return err
			}
			if state.Error != "" {
				return errors.New(state.Error)
			}
			return nil
		},
	}
}

func newActionCmd(c *cli) *cobra.Command {
	var undo bool
	cmd := &cobra.Command{
		Use:       "action <watched|love|not-interested> <movie-id>",
		Short:     "Record (or with --undo, remove) a reaction to a movie",
		Args:      cobra.ExactArgs(2),
		ValidArgs: []string{string(discovery.ActionWatched), string(discovery.ActionLove), string(discovery.ActionNotInterested)},
		RunE: func(cmd *cobra.Command, args []string) error {
			action, err := discovery.ParseAction(args[0])
			if err != nil {
				return err
			}
			id, err := models.ParseMovieID(args[1])
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid movie id %q", args[1])
			}

			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			changed, err := a.Engine.Apply(ctx, action, id, undo)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), api.ActionResponse{
				MovieID: id,
				Action:  action,
				Undo:    undo,
				Changed: changed,
			})
		},
	}
	cmd.Flags().BoolVar(&undo, "undo", false, "remove the reaction instead of recording it")
	return cmd
}

func newRegionCmd(c *cli) *cobra.Command {
	var (
		override      string
		clearOverride bool
	)
	cmd := &cobra.Command{
		Use:   "region",
		Short: "Show the effective region, or set or clear the manual override",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			switch {
			case override != "":
				if err := a.Region.SetOverride(&override); err != nil {
					return err
				}
			case clearOverride:
				if err := a.Region.SetOverride(nil); err != nil {
					return err
				}
			default:
				ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
				defer cancel()
				a.Start(ctx)
			}

			return printJSON(cmd.OutOrStdout(), api.RegionResponse{
				State:            a.Region.State(),
				Effective:        a.Region.EffectiveRegion(),
				NeedsRedetection: a.Region.NeedsRedetection(),
			})
		},
	}
	cmd.Flags().StringVar(&override, "override", "", "ISO 3166-1 alpha-2 code to use instead of detection")
	cmd.Flags().BoolVar(&clearOverride, "clear", false, "remove the manual override")
	cmd.MarkFlagsMutuallyExclusive("override", "clear")
	return cmd
}

func newResetCmd(c *cli) *cobra.Command {
	var (
		opts app.ResetOptions
		all  bool
	)
	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Clear stored state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if all {
				opts = opts.All()
			}
			if !opts.Any() {
				return errors.New("nothing to reset: pass --all or at least one of --ledger, --taste, --preferences, --region, --cache")
			}

			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			if err := a.Reset(opts); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), opts)
		},
	}
	f := cmd.Flags()
	f.BoolVar(&opts.Ledger, "ledger", false, "forget shown, watched, loved and not-interested movies")
	f.BoolVar(&opts.Taste, "taste", false, "clear the taste profile")
	f.BoolVar(&opts.Preferences, "preferences", false, "restore default filters")
	f.BoolVar(&opts.Region, "region", false, "forget the detected region and override")
	f.BoolVar(&opts.Cache, "cache", false, "drop every cached upstream response")
	f.BoolVar(&all, "all", false, "all of the above")
	return cmd
}

func newSweepCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Delete expired cache entries",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.openApp(false)
			if err != nil {
				return err
			}
			defer closeApp(a)

			n, err := a.Cache.EvictExpired()
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "evicted %d expired entries\n", n)
			return err
		},
	}
}
