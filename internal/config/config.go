// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

// Package config loads WhichMovieToWatch configuration.
//
// Values are layered with koanf: struct defaults, then an optional YAML file,
// then environment variables. See Load for the precedence rules and
// envTransformFunc for the variable names that are understood.
package config

import (
	"time"

	"github.com/Kohulan/WhichMovieToWatch-sub001/internal/logging"
)

// Config is the complete application configuration.
type Config struct {
	Logging    LoggingConfig    `koanf:"logging"`
	Storage    StorageConfig    `koanf:"storage"`
	Cache      CacheConfig      `koanf:"cache"`
	Gate       GateConfig       `koanf:"gate"`
	Ledger     LedgerConfig     `koanf:"ledger"`
	Region     RegionConfig     `koanf:"region"`
	TMDB       TMDBConfig       `koanf:"tmdb"`
	Ratings    RatingsConfig    `koanf:"ratings"`
	Server     ServerConfig     `koanf:"server"`
	Supervisor SupervisorConfig `koanf:"supervisor"`
}

// LoggingConfig holds logging settings for zerolog.
//
// Environment Variables:
//   - LOG_LEVEL: trace, debug, info, warn, error (default: info)
//   - LOG_FORMAT: json, console (default: json)
//   - LOG_CALLER: true/false (default: false)
type LoggingConfig struct {
	Level  string `koanf:"level" validate:"oneof=trace debug info warn error disabled"`
	Format string `koanf:"format" validate:"oneof=json console"`
	Caller bool   `koanf:"caller"`
}

// ToLogging converts to the logging package's Config.
func (l LoggingConfig) ToLogging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// StorageConfig controls the badger database holding the cache table and
// the persisted ledger, taste and region documents.
type StorageConfig struct {
	// Path is the badger directory. Ignored when InMemory is set.
	Path string `koanf:"path"`

	// InMemory keeps everything in RAM. Used by tests and the CLI --ephemeral flag.
	InMemory bool `koanf:"in_memory"`

	// SyncWrites makes every commit fsync.
	SyncWrites bool `koanf:"sync_writes"`
}

// CacheConfig controls scheduling of the expired-entry sweep. TTLs
// themselves are fixed per data class and not configurable.
type CacheConfig struct {
	SweepInterval time.Duration `koanf:"sweep_interval" validate:"gte=0"`
}

// GateConfig sets the admission capacity shared by every caller of one
// upstream request class.
type GateConfig struct {
	Capacity int `koanf:"capacity" validate:"min=1,max=64"`
}

// LedgerConfig bounds the shown-history ring.
type LedgerConfig struct {
	MaxShown int `koanf:"max_shown" validate:"min=1"`
}

// RegionConfig controls region detection.
type RegionConfig struct {
	// Default is used when detection and timezone inference both fail.
	Default string `koanf:"default" validate:"region"`

	// RedetectAfter is how old a detection may get before it is refreshed.
	RedetectAfter time.Duration `koanf:"redetect_after" validate:"gt=0"`

	// GeoURL is an ip-api compatible endpoint returning {"countryCode": "..."}.
	// Empty disables network detection.
	GeoURL string `koanf:"geo_url" validate:"omitempty,url"`

	Timeout time.Duration `koanf:"timeout" validate:"gt=0"`

	// RequestsPerMinute paces geolocation lookups.
	RequestsPerMinute int `koanf:"requests_per_minute" validate:"min=1"`
}

// TMDBConfig configures the movie catalog client.
type TMDBConfig struct {
	BaseURL           string        `koanf:"base_url" validate:"required,url"`
	APIKey            string        `koanf:"api_key"`
	Language          string        `koanf:"language" validate:"required"`
	RequestsPerSecond float64       `koanf:"requests_per_second" validate:"gt=0"`
	Burst             int           `koanf:"burst" validate:"min=1"`
	Timeout           time.Duration `koanf:"timeout" validate:"gt=0"`

	// MaxPages limits how many result pages one relaxation step may scan.
	MaxPages int `koanf:"max_pages" validate:"min=1,max=20"`
}

// RatingsConfig configures the third-party ratings client. DailyQuota is a
// hard upstream limit; once spent, lookups fail fast until it refills.
type RatingsConfig struct {
	Enabled    bool          `koanf:"enabled"`
	BaseURL    string        `koanf:"base_url" validate:"required,url"`
	APIKey     string        `koanf:"api_key"`
	DailyQuota int           `koanf:"daily_quota" validate:"min=1"`
	Timeout    time.Duration `koanf:"timeout" validate:"gt=0"`
}

// ServerConfig configures the HTTP API consumed by the UI.
type ServerConfig struct {
	Addr               string        `koanf:"addr" validate:"required"`
	AllowedOrigins     []string      `koanf:"allowed_origins"`
	RateLimitPerMinute int           `koanf:"rate_limit_per_minute" validate:"min=1"`
	ShutdownTimeout    time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}

// SupervisorConfig mirrors supervisor.Config.
type SupervisorConfig struct {
	FailureThreshold float64       `koanf:"failure_threshold" validate:"gt=0"`
	FailureDecay     float64       `koanf:"failure_decay" validate:"gt=0"`
	FailureBackoff   time.Duration `koanf:"failure_backoff" validate:"gt=0"`
	ShutdownTimeout  time.Duration `koanf:"shutdown_timeout" validate:"gt=0"`
}
