package config

import (
	"time"
)

// StructuredConfig is the top-level configuration container for the
// checkpoint client. It aggregates all sub-configurations and is populated
// by merging values from environment variables, command-line flags, and an
// optional JSON file.
//
// Struct tags:
//   - envPrefix — prefix applied to all nested env tag lookups (caarlos0/env).
//   - env       — direct environment variable name for scalar fields.
type StructuredConfig struct {
	// API holds the connection settings for the authoritative server.
	API API `envPrefix:"API_"`

	// Storage holds configuration for the local replica store.
	Storage Storage `envPrefix:"STORAGE_"`

	// Sync holds the orchestrator interval settings.
	Sync Sync `envPrefix:"SYNC_"`

	// Log holds logging output settings.
	Log Log `envPrefix:"LOG_"`

	// JSONFilePath is the optional path to a JSON configuration file.
	// When non-empty, the file is parsed and merged on top of the values
	// already loaded from environment variables and flags.
	// Populated via the CONFIG environment variable or the -c / -config flag.
	JSONFilePath string `env:"CONFIG"`
}

// API holds the server connection settings.
type API struct {
	// BaseURL is the root URL of the server API
	// (e.g. "https://tickets.example.com/api/v1").
	// Env: API_URL
	BaseURL string `env:"URL"`

	// Token is the opaque device token presented on every request.
	// Must be kept confidential; it is redacted from all diagnostics.
	// Env: API_TOKEN
	Token string `env:"TOKEN"`

	// Organizer is the organizer slug all synced events belong to.
	// Env: API_ORGANIZER
	Organizer string `env:"ORGANIZER"`

	// Event is the slug of the event this device operates on.
	// Env: API_EVENT
	Event string `env:"EVENT"`

	// RequestTimeout is the maximum duration of a single outbound request
	// (e.g. "30s", "1m").
	// Env: API_REQUEST_TIMEOUT
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT"`
}

// Storage groups the configuration for the local replica store.
type Storage struct {
	// DB holds the SQLite connection settings.
	DB DB `envPrefix:"DB_"`
}

// DB holds connection settings for the local replica database.
type DB struct {
	// DSN is the SQLite file path or connection string.
	// Env: STORAGE_DB_DSN
	DSN string `env:"DSN"`
}

// Sync holds the orchestrator interval settings.
type Sync struct {
	// Interval is the minimum time between two sync cycles.
	// Env: SYNC_INTERVAL
	Interval time.Duration `env:"INTERVAL"`

	// DownloadInterval is the minimum time between two download phases;
	// uploads run every cycle, downloads only when this has elapsed or a
	// sync is forced.
	// Env: SYNC_DOWNLOAD_INTERVAL
	DownloadInterval time.Duration `env:"DOWNLOAD_INTERVAL"`

	// FailureCooldown is the back-off applied after a failed cycle. It is
	// shorter than Interval so a recovered server is picked up quickly
	// while an unreachable one does not cause a retry storm.
	// Env: SYNC_FAILURE_COOLDOWN
	FailureCooldown time.Duration `env:"FAILURE_COOLDOWN"`
}

// Log holds logging output settings.
type Log struct {
	// File is the rotated log file path; empty logs to stdout.
	// Env: LOG_FILE
	File string `env:"FILE"`
}

// Defaults applied by the builder for fields left unset by every source.
const (
	DefaultRequestTimeout   = 30 * time.Second
	DefaultSyncInterval     = 5 * time.Minute
	DefaultDownloadInterval = 15 * time.Minute
	DefaultFailureCooldown  = 30 * time.Second
)

// GetConfigWith loads, merges, and validates the client configuration.
// The CLI owns command-line parsing: flags carries the already-parsed flag
// values and is merged between the environment and the JSON file.
func GetConfigWith(flags *StructuredConfig) (*StructuredConfig, error) {
	return newConfigBuilder().
		withDotenv().
		withEnv().
		withOverrides(flags).
		withJSON().
		build()
}

func (cfg *StructuredConfig) applyDefaults() {
	if cfg.API.RequestTimeout == 0 {
		cfg.API.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.Sync.Interval == 0 {
		cfg.Sync.Interval = DefaultSyncInterval
	}
	if cfg.Sync.DownloadInterval == 0 {
		cfg.Sync.DownloadInterval = DefaultDownloadInterval
	}
	if cfg.Sync.FailureCooldown == 0 {
		cfg.Sync.FailureCooldown = DefaultFailureCooldown
	}
}
