package config

import "strings"

// validate checks that the final merged [StructuredConfig] satisfies all
// client invariants before it is used at startup.
//
// Returns nil if the configuration is valid, or one of the Err* sentinels
// otherwise.
func (cfg *StructuredConfig) validate() error {
	if cfg.API.BaseURL == "" || cfg.API.Token == "" {
		return ErrInvalidAPIConfigs
	}
	if cfg.API.Organizer == "" || cfg.API.Event == "" {
		return ErrInvalidAPIConfigs
	}

	if cfg.Storage.DB.DSN == "" || strings.Contains(cfg.Storage.DB.DSN, "memory") {
		return ErrInvalidStorageConfigs
	}

	if cfg.Sync.Interval <= 0 || cfg.Sync.DownloadInterval <= 0 {
		return ErrInvalidSyncConfigs
	}
	if cfg.Sync.FailureCooldown <= 0 || cfg.Sync.FailureCooldown > cfg.Sync.Interval {
		return ErrInvalidSyncConfigs
	}

	return nil
}
