package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/motohud/internal/ble"
)

// EnvWeatherAPIKey overrides weather.api_key when set.
const EnvWeatherAPIKey = "MOTOHUD_WEATHER_API_KEY"

// Config holds all application configuration.
type Config struct {
	Device  DeviceConfig  `yaml:"device"`
	Display DisplayConfig `yaml:"display"`
	Weather WeatherConfig `yaml:"weather"`
	Log     LogConfig     `yaml:"log"`
}

// DeviceConfig holds the HUD link settings.
type DeviceConfig struct {
	// Name selects a device to connect to once it shows up in a scan.
	// Empty means the user picks one.
	Name               string        `yaml:"name"`
	ServiceUUID        string        `yaml:"service_uuid"`
	CharacteristicUUID string        `yaml:"characteristic_uuid"`
	ScanTimeout        time.Duration `yaml:"scan_timeout"`
	ConnectTimeout     time.Duration `yaml:"connect_timeout"`
	DiscoveryTimeout   time.Duration `yaml:"discovery_timeout"`
	HandshakeDelay     time.Duration `yaml:"handshake_delay"`
	DisconnectGrace    time.Duration `yaml:"disconnect_grace"`
	WriteQueue         int           `yaml:"write_queue"`
}

// SessionOptions converts the device settings for the session controller.
func (d DeviceConfig) SessionOptions() ble.Options {
	return ble.Options{
		ServiceUUID:        d.ServiceUUID,
		CharacteristicUUID: d.CharacteristicUUID,
		ScanTimeout:        d.ScanTimeout,
		ConnectTimeout:     d.ConnectTimeout,
		DiscoveryTimeout:   d.DiscoveryTimeout,
		HandshakeDelay:     d.HandshakeDelay,
		DisconnectGrace:    d.DisconnectGrace,
		WriteQueue:         d.WriteQueue,
	}
}

// DisplayConfig holds the initial display-update settings.
type DisplayConfig struct {
	Mode        string `yaml:"mode"` // "normal" or "waze"
	ShowTime    bool   `yaml:"show_time"`
	ShowWeather bool   `yaml:"show_weather"`
}

// WeatherConfig holds the weather lookup settings. Lookups are disabled
// while APIKey is empty.
type WeatherConfig struct {
	APIKey          string        `yaml:"api_key"`
	BaseURL         string        `yaml:"base_url"`
	Latitude        float64       `yaml:"latitude"`
	Longitude       float64       `yaml:"longitude"`
	MinInterval     time.Duration `yaml:"min_interval"`
	MinDistance     float64       `yaml:"min_distance_m"`
	RefreshInterval time.Duration `yaml:"refresh_interval"`
	Timeout         time.Duration `yaml:"timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level      string `yaml:"level"`
	Format     string `yaml:"format"` // "text" or "json"
	Output     string `yaml:"output"` // "stderr", "stdout" or a file path
	MaxEntries int    `yaml:"max_entries"`
}

// DefaultConfigDir returns the default config directory path.
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "motohud")
}

// DefaultConfigPath returns the default config file path.
func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.yaml")
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Device: DeviceConfig{
			ServiceUUID:        "FFE0",
			CharacteristicUUID: "FFE1",
			ScanTimeout:        10 * time.Second,
			ConnectTimeout:     10 * time.Second,
			DiscoveryTimeout:   15 * time.Second,
			HandshakeDelay:     500 * time.Millisecond,
			DisconnectGrace:    500 * time.Millisecond,
			WriteQueue:         16,
		},
		Display: DisplayConfig{
			Mode:        "normal",
			ShowTime:    true,
			ShowWeather: true,
		},
		Weather: WeatherConfig{
			BaseURL:         "https://api.openweathermap.org/data/2.5/weather",
			MinInterval:     15 * time.Minute,
			MinDistance:     1000,
			RefreshInterval: time.Minute,
			Timeout:         10 * time.Second,
		},
		Log: LogConfig{
			Level:      "info",
			Format:     "text",
			Output:     filepath.Join(DefaultConfigDir(), "motohud.log"),
			MaxEntries: 1000,
		},
	}
}

// Load reads and parses a YAML config file. Missing fields are filled
// with defaults. Tilde (~) in log.output is expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Log.Output = expandTilde(cfg.Log.Output)

	return cfg, nil
}

// ApplyEnv overlays settings taken from the environment.
func (c *Config) ApplyEnv() {
	if key := os.Getenv(EnvWeatherAPIKey); key != "" {
		c.Weather.APIKey = key
	}
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Device.ServiceUUID == "" {
		return fmt.Errorf("device.service_uuid must not be empty")
	}
	if c.Device.CharacteristicUUID == "" {
		return fmt.Errorf("device.characteristic_uuid must not be empty")
	}
	for name, d := range map[string]time.Duration{
		"device.scan_timeout":      c.Device.ScanTimeout,
		"device.connect_timeout":   c.Device.ConnectTimeout,
		"device.discovery_timeout": c.Device.DiscoveryTimeout,
		"device.handshake_delay":   c.Device.HandshakeDelay,
		"device.disconnect_grace":  c.Device.DisconnectGrace,
		"weather.min_interval":     c.Weather.MinInterval,
		"weather.refresh_interval": c.Weather.RefreshInterval,
		"weather.timeout":          c.Weather.Timeout,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be > 0, got %s", name, d)
		}
	}
	if c.Device.WriteQueue <= 0 {
		return fmt.Errorf("device.write_queue must be > 0")
	}

	switch c.Display.Mode {
	case "normal", "waze":
	default:
		return fmt.Errorf("display.mode must be \"normal\" or \"waze\", got %q", c.Display.Mode)
	}

	if c.Weather.Latitude < -90 || c.Weather.Latitude > 90 {
		return fmt.Errorf("weather.latitude must be within [-90, 90], got %v", c.Weather.Latitude)
	}
	if c.Weather.Longitude < -180 || c.Weather.Longitude > 180 {
		return fmt.Errorf("weather.longitude must be within [-180, 180], got %v", c.Weather.Longitude)
	}
	if c.Weather.MinDistance < 0 {
		return fmt.Errorf("weather.min_distance_m must be >= 0")
	}
	if c.Weather.APIKey != "" && c.Weather.BaseURL == "" {
		return fmt.Errorf("weather.base_url must not be empty when an api key is set")
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level must be debug, info, warn, or error, got %q", c.Log.Level)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be \"text\" or \"json\", got %q", c.Log.Format)
	}

	return nil
}

// ParseLogLevel converts a config level to a slog.Level. Unknown values
// map to info.
func ParseLogLevel(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WriteDefault writes the default config to DefaultConfigPath. It returns
// the written path, or "" when a config file already exists.
func WriteDefault() (string, error) {
	path := DefaultConfigPath()
	if _, err := os.Stat(path); err == nil {
		return "", nil
	} else if !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("checking config file: %w", err)
	}

	data, err := yaml.Marshal(Default())
	if err != nil {
		return "", fmt.Errorf("encoding default config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating config dir: %w", err)
	}

	content := "# motohud configuration\n# weather.api_key may be left empty and set through " + EnvWeatherAPIKey + ".\n\n" + string(data)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		return "", fmt.Errorf("writing config file: %w", err)
	}
	return path, nil
}

// expandTilde replaces a leading ~ with the user's home directory.
func expandTilde(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
