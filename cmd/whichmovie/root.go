// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package main

import (
	"fmt"
	"io"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/app"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/config"
	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
)

// cli carries the persistent flags and the hooks tests use to inject a
// shared store.
type cli struct {
	configPath string
	ephemeral  bool
	logLevel   string

	appOptions app.Options
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:           "whichmovie",
		Short:         "Discover one movie worth watching right now",
		Long:          `whichmovie picks a single unseen movie that matches your filters, streams in your region, and is biased toward what you have loved before.`,
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := root.PersistentFlags()
	flags.StringVarP(&c.configPath, "config", "c", "", "path to config.yaml")
	flags.BoolVar(&c.ephemeral, "ephemeral", false, "keep all state in memory")
	flags.StringVar(&c.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(
		newServeCmd(c),
		newDiscoverCmd(c),
		newActionCmd(c),
		newRegionCmd(c),
		newResetCmd(c),
		newSweepCmd(c),
		newTrendingCmd(c),
		newNowPlayingCmd(c),
		newSearchCmd(c),
		newMovieCmd(c),
		newImportCmd(c),
	)
	return root
}

func (c *cli) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return nil, err
	}
	if c.ephemeral {
		cfg.Storage.InMemory = true
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	logging.Init(cfg.Logging.ToLogging())
	return cfg, nil
}

// openApp loads config and wires the components. needCatalog makes a
// missing TMDB key an error up front instead of on the first request.
func (c *cli) openApp(needCatalog bool) (*app.App, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	if needCatalog {
		if err := cfg.RequireCatalog(); err != nil {
			return nil, err
		}
	}
	return app.New(cfg, c.appOptions)
}

func closeApp(a *app.App) {
	if err := a.Close(); err != nil {
		logging.Error().Err(err).Msg("Error closing storage")
	}
}

func printJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
