package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseJSON_Success(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")

	// Durations in JSON are human-readable strings, see [Duration].
	jsonBody := `{
		"api": {
			"url": "https://tickets.example.com/api/v1",
			"token": "sekrit-token",
			"organizer": "demo-org",
			"event": "democon",
			"request_timeout": "30s"
		},
		"storage": {
			"db": { "dsn": "/var/lib/checkpoint/replica.db" }
		},
		"sync": {
			"interval": "5m",
			"download_interval": "15m",
			"failure_cooldown": "30s"
		},
		"log": {
			"file": "/var/log/checkpoint.log"
		}
	}`

	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, cfg)

	assert.Equal(t, "https://tickets.example.com/api/v1", cfg.API.BaseURL)
	assert.Equal(t, "sekrit-token", cfg.API.Token)
	assert.Equal(t, "demo-org", cfg.API.Organizer)
	assert.Equal(t, "democon", cfg.API.Event)
	assert.Equal(t, 30*time.Second, cfg.API.RequestTimeout)

	assert.Equal(t, "/var/lib/checkpoint/replica.db", cfg.Storage.DB.DSN)

	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 15*time.Minute, cfg.Sync.DownloadInterval)
	assert.Equal(t, 30*time.Second, cfg.Sync.FailureCooldown)

	assert.Equal(t, "/var/log/checkpoint.log", cfg.Log.File)
}

func TestParseJSON_NumericDuration(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")
	jsonBody := `{"sync": {"interval": 300000000000}}`
	require.NoError(t, os.WriteFile(p, []byte(jsonBody), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 5*time.Minute, cfg.Sync.Interval)
}

func TestParseJSON_FileNotFound(t *testing.T) {
	// Act
	cfg, err := parseJSON("definitely-does-not-exist.json")

	// Assert
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "error reading a json file")
}

func TestParseJSON_InvalidJSON(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "bad.json")
	require.NoError(t, os.WriteFile(p, []byte(`{ this is not json }`), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.Error(t, err)
	assert.Nil(t, cfg)
	assert.Contains(t, err.Error(), "error decoding json configs")
}

func TestParseJSON_InvalidDuration(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	p := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(p, []byte(`{"sync": {"interval": "soon"}}`), 0o600))

	// Act
	cfg, err := parseJSON(p)

	// Assert
	require.Error(t, err)
	assert.Nil(t, cfg)
}
