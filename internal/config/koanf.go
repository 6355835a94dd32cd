// WhichMovieToWatch - Movie Discovery Orchestration Core
// Copyright 2026 The WhichMovieToWatch Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/Kohulan/WhichMovieToWatch

package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths are searched in order when no explicit path is given.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/whichmovie/config.yaml",
}

// ConfigPathEnvVar overrides the config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix marks generic nested overrides: WMTW_TMDB__API_KEY -> tmdb.api_key.
const EnvPrefix = "WMTW_"

func defaultConfig() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Storage: StorageConfig{
			Path: "/data/whichmovie",
		},
		Cache: CacheConfig{
			SweepInterval: 15 * time.Minute,
		},
		Gate: GateConfig{
			Capacity: 4,
		},
		Ledger: LedgerConfig{
			MaxShown: 2000,
		},
		Region: RegionConfig{
			Default:           "US",
			RedetectAfter:     24 * time.Hour,
			GeoURL:            "http://ip-api.com/json/?fields=countryCode",
			Timeout:           5 * time.Second,
			RequestsPerMinute: 30,
		},
		TMDB: TMDBConfig{
			BaseURL:           "https://api.themoviedb.org/3",
			Language:          "en-US",
			RequestsPerSecond: 20,
			Burst:             10,
			Timeout:           10 * time.Second,
			MaxPages:          3,
		},
		Ratings: RatingsConfig{
			Enabled:    false,
			BaseURL:    "https://www.omdbapi.com",
			DailyQuota: 1000,
			Timeout:    10 * time.Second,
		},
		Server: ServerConfig{
			Addr:               "127.0.0.1:8080",
			AllowedOrigins:     []string{"http://localhost:5173"},
			RateLimitPerMinute: 120,
			ShutdownTimeout:    10 * time.Second,
		},
		Supervisor: SupervisorConfig{
			FailureThreshold: 5,
			FailureDecay:     30,
			FailureBackoff:   15 * time.Second,
			ShutdownTimeout:  10 * time.Second,
		},
	}
}

// Load builds the configuration from three layers, later layers winning:
//
//  1. Defaults from defaultConfig
//  2. YAML file: path, else $CONFIG_PATH, else the first of DefaultConfigPaths
//  3. Environment variables
//
// The result is validated before it is returned.
func Load(path string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path == "" {
		path = findConfigFile()
	}
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// Default returns the validated defaults without reading files or env.
func Default() *Config {
	return defaultConfig()
}

func findConfigFile() string {
	if envPath := os.Getenv(ConfigPathEnvVar); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath
		}
	}
	for _, path := range DefaultConfigPaths {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when they come from env.
var sliceConfigPaths = []string{
	"server.allowed_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok || strVal == "" {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings are the short variable names documented for operators.
var envMappings = map[string]string{
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	"storage_path":      "storage.path",
	"storage_in_memory": "storage.in_memory",

	"tmdb_api_key":  "tmdb.api_key",
	"tmdb_base_url": "tmdb.base_url",
	"tmdb_language": "tmdb.language",

	"omdb_api_key":     "ratings.api_key",
	"omdb_daily_quota": "ratings.daily_quota",
	"ratings_enabled":  "ratings.enabled",

	"default_region": "region.default",
	"geo_url":        "region.geo_url",

	"http_addr":    "server.addr",
	"cors_origins": "server.allowed_origins",
}

// envTransformFunc maps an environment variable to a koanf path. Unknown
// variables map to "" and are ignored.
//
// Examples:
//   - TMDB_API_KEY -> tmdb.api_key
//   - LOG_LEVEL -> logging.level
//   - WMTW_GATE__CAPACITY -> gate.capacity
func envTransformFunc(key string) string {
	if strings.HasPrefix(key, EnvPrefix) {
		nested := strings.ToLower(strings.TrimPrefix(key, EnvPrefix))
		return strings.ReplaceAll(nested, "__", ".")
	}
	return envMappings[strings.ToLower(key)]
}
