package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ── helpers ───────────────────────────────────────────────────────────────────

// validConfig carries the minimum a merged config needs to pass validation.
func validConfig() *StructuredConfig {
	return &StructuredConfig{
		API: API{
			BaseURL:   "https://tickets.example.com/api/v1",
			Token:     "sekrit-token",
			Organizer: "demo-org",
			Event:     "democon",
		},
		Storage: Storage{DB: DB{DSN: "/tmp/replica.db"}},
	}
}

func writeTempJSONConfig(t *testing.T, body string) string {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "config-*.json")
	require.NoError(t, err)
	_, err = f.WriteString(body)
	require.NoError(t, err)
	require.NoError(t, f.Close())
	return f.Name()
}

// ── newConfigBuilder ──────────────────────────────────────────────────────────

// TestNewConfigBuilder_InitialState verifies that a freshly created builder
// has no error and an empty configs slice.
func TestNewConfigBuilder_InitialState(t *testing.T) {
	b := newConfigBuilder()
	require.NotNil(t, b)
	assert.NoError(t, b.err)
	assert.Empty(t, b.configs)
}

// ── build ─────────────────────────────────────────────────────────────────────

// TestBuild_PropagatesBuilderError verifies that a pre-set b.err is wrapped
// and returned, with nil config.
func TestBuild_PropagatesBuilderError(t *testing.T) {
	b := newConfigBuilder()
	b.err = assert.AnError

	cfg, err := b.build()
	assert.Nil(t, cfg)
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
}

// TestBuild_MergesMultipleConfigs verifies that fields from multiple configs
// are merged into a single result.
func TestBuild_MergesMultipleConfigs(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs,
		validConfig(),
		&StructuredConfig{Log: Log{File: "/var/log/checkpoint.log"}},
	)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, "demo-org", cfg.API.Organizer)
	assert.Equal(t, "/var/log/checkpoint.log", cfg.Log.File)
}

// TestBuild_AppliesDefaults verifies that interval and timeout fields left
// unset by every source fall back to package defaults.
func TestBuild_AppliesDefaults(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, validConfig())

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, DefaultRequestTimeout, cfg.API.RequestTimeout)
	assert.Equal(t, DefaultSyncInterval, cfg.Sync.Interval)
	assert.Equal(t, DefaultDownloadInterval, cfg.Sync.DownloadInterval)
	assert.Equal(t, DefaultFailureCooldown, cfg.Sync.FailureCooldown)
}

// TestBuild_KeepsExplicitIntervals verifies that defaults do not clobber
// values a source supplied.
func TestBuild_KeepsExplicitIntervals(t *testing.T) {
	src := validConfig()
	src.Sync.Interval = 2 * time.Minute
	src.Sync.FailureCooldown = 10 * time.Second

	b := newConfigBuilder()
	b.configs = append(b.configs, src)

	cfg, err := b.build()
	require.NoError(t, err)
	assert.Equal(t, 2*time.Minute, cfg.Sync.Interval)
	assert.Equal(t, 10*time.Second, cfg.Sync.FailureCooldown)
}

// TestBuild_RejectsIncompleteConfig verifies that a merged config missing
// required API settings fails validation.
func TestBuild_RejectsIncompleteConfig(t *testing.T) {
	_, err := newConfigBuilder().build()
	assert.ErrorIs(t, err, ErrInvalidAPIConfigs)
}

// ── withDotenv ────────────────────────────────────────────────────────────────

// TestWithDotenv_MissingFileIsFine verifies that the absence of a .env file
// does not set b.err.
func TestWithDotenv_MissingFileIsFine(t *testing.T) {
	t.Chdir(t.TempDir())
	b := newConfigBuilder()
	assert.Same(t, b, b.withDotenv())
	assert.NoError(t, b.err)
}

// ── withEnv ───────────────────────────────────────────────────────────────────

// TestWithEnv_ReturnsBuilder verifies the fluent interface.
func TestWithEnv_ReturnsBuilder(t *testing.T) {
	b := newConfigBuilder()
	assert.Same(t, b, b.withEnv())
}

// TestWithEnv_ReadsEnvVars verifies that environment variables are picked up.
func TestWithEnv_ReadsEnvVars(t *testing.T) {
	t.Setenv("API_ORGANIZER", "env-org")
	t.Setenv("API_EVENT", "env-event")

	b := newConfigBuilder()
	b.withEnv()

	require.Len(t, b.configs, 1)
	assert.Equal(t, "env-org", b.configs[0].API.Organizer)
	assert.Equal(t, "env-event", b.configs[0].API.Event)
}

// ── withOverrides ─────────────────────────────────────────────────────────────

// TestWithOverrides_AppendsConfig verifies that a non-nil override is added
// to the merge list.
func TestWithOverrides_AppendsConfig(t *testing.T) {
	b := newConfigBuilder()
	assert.Same(t, b, b.withOverrides(&StructuredConfig{API: API{Event: "flag-event"}}))

	require.Len(t, b.configs, 1)
	assert.Equal(t, "flag-event", b.configs[0].API.Event)
}

// TestWithOverrides_SkipsNil verifies that a nil override is ignored.
func TestWithOverrides_SkipsNil(t *testing.T) {
	b := newConfigBuilder()
	b.withOverrides(nil)
	assert.Empty(t, b.configs)
}

// ── withJSON ──────────────────────────────────────────────────────────────────

// TestWithJSON_NoOp_WhenNoPathSet verifies that withJSON does nothing when
// no config has a JSONFilePath.
func TestWithJSON_NoOp_WhenNoPathSet(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{})
	b.withJSON()

	assert.Len(t, b.configs, 1)
	assert.NoError(t, b.err)
}

// TestWithJSON_AppendsConfig_WhenValidFile verifies that a valid JSON file is
// parsed and appended.
func TestWithJSON_AppendsConfig_WhenValidFile(t *testing.T) {
	path := writeTempJSONConfig(t, `{"api": {"event": "json-event"}}`)

	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{JSONFilePath: path})
	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 2)
	assert.Equal(t, "json-event", b.configs[1].API.Event)
}

// TestWithJSON_SetsError_WhenFileNotFound verifies that a missing file path
// sets b.err.
func TestWithJSON_SetsError_WhenFileNotFound(t *testing.T) {
	b := newConfigBuilder()
	b.configs = append(b.configs, &StructuredConfig{
		JSONFilePath: "/nonexistent/config.json",
	})
	b.withJSON()

	assert.Error(t, b.err)
}

// TestWithJSON_UsesLastPath verifies that when multiple configs have a
// JSONFilePath, the last non-empty one wins.
func TestWithJSON_UsesLastPath(t *testing.T) {
	path := writeTempJSONConfig(t, `{"api": {"event": "last-wins"}}`)

	b := newConfigBuilder()
	b.configs = append(b.configs,
		&StructuredConfig{JSONFilePath: ""},
		&StructuredConfig{JSONFilePath: path},
	)
	b.withJSON()

	require.NoError(t, b.err)
	require.Len(t, b.configs, 3)
	assert.Equal(t, "last-wins", b.configs[2].API.Event)
}
