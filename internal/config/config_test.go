package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const minimalConfig = `
[[airports]]
icao = "KJFK"
slot = 0

  [[airports.runways]]
  name = "04L"
  heading_deg = 43.0
`

func TestLoad_minimalWithDefaults(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, minimalConfig))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "console", cfg.Logging.Format)
	assert.Equal(t, 10, cfg.Monitor.RefreshIntervalMinutes)
	assert.Equal(t, []int{4, 8, 12}, cfg.Monitor.ForecastOffsetsHours)
	assert.Equal(t, Thresholds{WindKt: 20, GustKt: 25, CrosswindKt: 10}, cfg.Monitor.Thresholds())
	assert.Equal(t, "last_declared", cfg.Monitor.OverlayTieBreak)
	assert.Equal(t, 2, cfg.Fetch.MaxRetries)

	require.Len(t, cfg.Airports, 1)
	assert.Equal(t, "KJFK", cfg.Airports[0].Name, "name defaults to the ICAO code")
}

func TestLoad_fullConfig(t *testing.T) {
	t.Parallel()

	cfg, err := Load(writeConfig(t, `
[server]
port = 9090
host = "0.0.0.0"

[logging]
level = "debug"
format = "json"

[monitor]
refresh_interval_minutes = 5
forecast_offsets_hours = [2, 6]
wind_threshold_kt = 15
crosswind_threshold_kt = 12
overlay_tie_break = "first_declared"
magnetic_correction = true

[[airports]]
icao = "KBOS"
name = "Logan"
slot = 1
latitude = 42.3656
longitude = -71.0096
primary_runway = "33L"

  [[airports.runways]]
  name = "33L"
  heading_deg = 325.0
`))
	require.NoError(t, err)
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, []int{2, 6}, cfg.Monitor.ForecastOffsetsHours)
	assert.Equal(t, 15, cfg.Monitor.WindThresholdKt)
	assert.Equal(t, 25, cfg.Monitor.GustThresholdKt, "unset threshold takes the default")
	assert.True(t, cfg.Monitor.MagneticCorrection)
	assert.Equal(t, "33L", cfg.Airports[0].PrimaryRunway)
}

func TestLoad_missingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	assert.Error(t, err)
}

func TestValidate_errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"no airports", func(c *Config) { c.Airports = nil }},
		{"short icao", func(c *Config) { c.Airports[0].ICAO = "JFK" }},
		{"non-alphanumeric icao", func(c *Config) { c.Airports[0].ICAO = "K-1 " }},
		{"lowercase icao", func(c *Config) { c.Airports[0].ICAO = "kjfk" }},
		{"duplicate icao", func(c *Config) {
			c.Airports = append(c.Airports, Airport{ICAO: "KJFK", Slot: 1})
		}},
		{"duplicate slot", func(c *Config) {
			c.Airports = append(c.Airports, Airport{ICAO: "KBOS", Slot: 0})
		}},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"bad log format", func(c *Config) { c.Logging.Format = "xml" }},
		{"descending offsets", func(c *Config) { c.Monitor.ForecastOffsetsHours = []int{8, 4} }},
		{"zero offset", func(c *Config) { c.Monitor.ForecastOffsetsHours = []int{0, 4} }},
		{"bad tie break", func(c *Config) { c.Monitor.OverlayTieBreak = "newest" }},
		{"runway heading out of range", func(c *Config) { c.Airports[0].Runways[0].HeadingDeg = 360 }},
		{"unknown primary runway", func(c *Config) { c.Airports[0].PrimaryRunway = "27" }},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(writeConfig(t, minimalConfig))
			require.NoError(t, err)
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadWithFallback_prefersGivenPath(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, minimalConfig)
	cfg, err := LoadWithFallback(path)
	require.NoError(t, err)
	assert.Len(t, cfg.Airports, 1)
}
