package config

import (
	"fmt"
	"os"
	"regexp"

	"github.com/BurntSushi/toml"
)

var icaoPattern = regexp.MustCompile(`^[A-Z0-9]{4}$`)

// Config represents the main application configuration structure
// containing all configuration sections
type Config struct {
	Server   ServerConfig  `toml:"server"`   // HTTP server settings
	Logging  LoggingConfig `toml:"logging"`  // Application logging settings
	Fetch    FetchConfig   `toml:"fetch"`    // Raw report fetching settings
	Monitor  MonitorConfig `toml:"monitor"`  // Refresh, threshold and display mode settings
	Airports []Airport     `toml:"airports"` // Monitored airports
}

// ServerConfig contains HTTP server configuration settings
type ServerConfig struct {
	Port               int      `toml:"port"`                  // Primary HTTP port for the server
	Host               string   `toml:"host"`                  // Host address to bind to (e.g., 127.0.0.1 for localhost only, 0.0.0.0 for all interfaces)
	CORSAllowedOrigins []string `toml:"cors_allowed_origins"`  // List of origins allowed for CORS requests (use ["*"] for all origins)
	ReadTimeoutSecs    int      `toml:"read_timeout_seconds"`  // Maximum duration for reading the entire request (0 = no timeout)
	WriteTimeoutSecs   int      `toml:"write_timeout_seconds"` // Maximum duration for writing the response (0 = no timeout)
	IdleTimeoutSecs    int      `toml:"idle_timeout_seconds"`  // Maximum duration to wait for the next request when keep-alives are enabled
}

// LoggingConfig contains application logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`  // Log level: "debug", "info", "warn", or "error"
	Format string `toml:"format"` // Log format: "json" (structured) or "console" (human-readable)
}

// FetchConfig contains settings for the raw report fetch client
type FetchConfig struct {
	BaseURL               string `toml:"base_url"`                 // Base URL of the raw-text report API
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`  // Per-request HTTP timeout (in seconds)
	MaxRetries            int    `toml:"max_retries"`              // Retries per request on top of the first attempt
	BreakerCooldownSecs   int    `toml:"breaker_cooldown_seconds"` // How long the circuit breaker stays open after tripping
}

// MonitorConfig contains refresh-cycle, warning-threshold and display-mode
// settings for the monitor service
type MonitorConfig struct {
	RefreshIntervalMinutes int   `toml:"refresh_interval_minutes"` // How often to refetch and reinterpret reports (in minutes)
	ForecastOffsetsHours   []int `toml:"forecast_offsets_hours"`   // Ascending look-ahead horizons cycled by the display mode

	WindThresholdKt      int `toml:"wind_threshold_kt"`      // Sustained wind warning threshold (knots)
	GustThresholdKt      int `toml:"gust_threshold_kt"`      // Gust warning threshold (knots)
	CrosswindThresholdKt int `toml:"crosswind_threshold_kt"` // Crosswind component warning threshold (knots)

	// OverlayTieBreak selects which of two forecast overlays with the same
	// start time wins: "last_declared" (default) or "first_declared".
	OverlayTieBreak string `toml:"overlay_tie_break"`

	// MagneticCorrection enables true-to-magnetic wind direction correction
	// for crosswind computation on airports with coordinates configured.
	MagneticCorrection bool `toml:"magnetic_correction"`
}

// Thresholds bundles the warning thresholds checked by the status aggregator
type Thresholds struct {
	WindKt      int
	GustKt      int
	CrosswindKt int
}

// Thresholds returns the configured warning thresholds
func (m MonitorConfig) Thresholds() Thresholds {
	return Thresholds{
		WindKt:      m.WindThresholdKt,
		GustKt:      m.GustThresholdKt,
		CrosswindKt: m.CrosswindThresholdKt,
	}
}

// Airport contains the static configuration of one monitored airport
type Airport struct {
	ICAO          string   `toml:"icao" json:"icao"`                     // Four-character station identifier (e.g., "KJFK")
	Name          string   `toml:"name" json:"name"`                     // Human-readable display name
	Slot          int      `toml:"slot" json:"slot"`                     // Display slot index assigned to this airport
	Latitude      float64  `toml:"latitude" json:"latitude"`             // Decimal degrees, used for magnetic variation
	Longitude     float64  `toml:"longitude" json:"longitude"`           // Decimal degrees, used for magnetic variation
	ElevationFeet int      `toml:"elevation_feet" json:"elevation_feet"` // Field elevation above sea level
	PrimaryRunway string   `toml:"primary_runway" json:"primary_runway"` // When set, crosswind uses this runway exclusively
	Runways       []Runway `toml:"runways" json:"runways"`               // Runway surfaces considered for crosswind
}

// Runway contains one runway's label and magnetic heading
type Runway struct {
	Name       string  `toml:"name" json:"name"`               // Runway label (e.g., "27L")
	HeadingDeg float64 `toml:"heading_deg" json:"heading_deg"` // Magnetic heading in degrees [0,360)
}

// Load loads the configuration from the specified file path
func Load(path string) (*Config, error) {
	var config Config

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", path)
	}

	if _, err := toml.DecodeFile(path, &config); err != nil {
		return nil, fmt.Errorf("failed to decode config file: %w", err)
	}

	return &config, nil
}

// LoadWithFallback loads the configuration by checking multiple locations in
// order of preference
func LoadWithFallback(preferredPath string) (*Config, error) {
	searchPaths := []string{
		preferredPath,
		"configs/config.toml",
		"config.toml",
	}

	uniquePaths := make([]string, 0, len(searchPaths))
	seen := make(map[string]bool)
	for _, path := range searchPaths {
		if path != "" && !seen[path] {
			uniquePaths = append(uniquePaths, path)
			seen[path] = true
		}
	}

	var lastErr error
	for _, path := range uniquePaths {
		if _, err := os.Stat(path); err == nil {
			config, err := Load(path)
			if err != nil {
				lastErr = fmt.Errorf("failed to load config from %s: %w", path, err)
				continue
			}
			return config, nil
		}
		lastErr = fmt.Errorf("config file not found: %s", path)
	}

	return nil, fmt.Errorf("no config file found in %v: %w", uniquePaths, lastErr)
}

// Validate validates the configuration and fills in defaults for optional
// settings that were left unset
func (c *Config) Validate() error {
	if c.Server.Port == 0 {
		c.Server.Port = 8080
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.Host == "" {
		c.Server.Host = "127.0.0.1"
	}

	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level: %s", c.Logging.Level)
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "console"
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid log format: %s", c.Logging.Format)
	}

	if c.Fetch.BaseURL == "" {
		c.Fetch.BaseURL = "https://aviationweather.gov/cgi-bin/data"
	}
	if c.Fetch.RequestTimeoutSeconds <= 0 {
		c.Fetch.RequestTimeoutSeconds = 10
	}
	if c.Fetch.MaxRetries < 0 {
		return fmt.Errorf("max_retries must not be negative")
	}
	if c.Fetch.MaxRetries == 0 {
		c.Fetch.MaxRetries = 2
	}
	if c.Fetch.BreakerCooldownSecs <= 0 {
		c.Fetch.BreakerCooldownSecs = 120
	}

	if c.Monitor.RefreshIntervalMinutes <= 0 {
		c.Monitor.RefreshIntervalMinutes = 10
	}
	if len(c.Monitor.ForecastOffsetsHours) == 0 {
		c.Monitor.ForecastOffsetsHours = []int{4, 8, 12}
	}
	for i, h := range c.Monitor.ForecastOffsetsHours {
		if h <= 0 {
			return fmt.Errorf("forecast offset must be positive, got %d", h)
		}
		if i > 0 && h <= c.Monitor.ForecastOffsetsHours[i-1] {
			return fmt.Errorf("forecast_offsets_hours must be strictly ascending")
		}
	}
	if c.Monitor.WindThresholdKt <= 0 {
		c.Monitor.WindThresholdKt = 20
	}
	if c.Monitor.GustThresholdKt <= 0 {
		c.Monitor.GustThresholdKt = 25
	}
	if c.Monitor.CrosswindThresholdKt <= 0 {
		c.Monitor.CrosswindThresholdKt = 10
	}
	switch c.Monitor.OverlayTieBreak {
	case "":
		c.Monitor.OverlayTieBreak = "last_declared"
	case "last_declared", "first_declared":
	default:
		return fmt.Errorf("invalid overlay_tie_break: %s (must be 'last_declared' or 'first_declared')", c.Monitor.OverlayTieBreak)
	}

	if len(c.Airports) == 0 {
		return fmt.Errorf("at least one airport must be configured")
	}
	slotsSeen := make(map[int]bool)
	icaoSeen := make(map[string]bool)
	for i := range c.Airports {
		a := &c.Airports[i]
		if !icaoPattern.MatchString(a.ICAO) {
			return fmt.Errorf("invalid ICAO code: %q (must be 4 uppercase alphanumeric characters)", a.ICAO)
		}
		if icaoSeen[a.ICAO] {
			return fmt.Errorf("duplicate airport configured: %s", a.ICAO)
		}
		icaoSeen[a.ICAO] = true
		if slotsSeen[a.Slot] {
			return fmt.Errorf("duplicate display slot %d (airport %s)", a.Slot, a.ICAO)
		}
		slotsSeen[a.Slot] = true
		if a.Name == "" {
			a.Name = a.ICAO
		}
		for _, rwy := range a.Runways {
			if rwy.HeadingDeg < 0 || rwy.HeadingDeg >= 360 {
				return fmt.Errorf("invalid runway heading %.1f for %s %s (must be in [0,360))", rwy.HeadingDeg, a.ICAO, rwy.Name)
			}
		}
		if a.PrimaryRunway != "" {
			found := false
			for _, rwy := range a.Runways {
				if rwy.Name == a.PrimaryRunway {
					found = true
					break
				}
			}
			if !found {
				return fmt.Errorf("primary_runway %q not in runway list for %s", a.PrimaryRunway, a.ICAO)
			}
		}
	}

	return nil
}
