package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/chaz8081/motohud/internal/ble"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.ServiceUUID != "FFE0" {
		t.Errorf("Device.ServiceUUID = %q, want %q", cfg.Device.ServiceUUID, "FFE0")
	}
	if cfg.Device.CharacteristicUUID != "FFE1" {
		t.Errorf("Device.CharacteristicUUID = %q, want %q", cfg.Device.CharacteristicUUID, "FFE1")
	}
	if cfg.Device.ScanTimeout != 10*time.Second {
		t.Errorf("Device.ScanTimeout = %v, want 10s", cfg.Device.ScanTimeout)
	}
	if cfg.Device.HandshakeDelay != 500*time.Millisecond {
		t.Errorf("Device.HandshakeDelay = %v, want 500ms", cfg.Device.HandshakeDelay)
	}
	if cfg.Display.Mode != "normal" {
		t.Errorf("Display.Mode = %q, want %q", cfg.Display.Mode, "normal")
	}
	if cfg.Weather.MinInterval != 15*time.Minute {
		t.Errorf("Weather.MinInterval = %v, want 15m", cfg.Weather.MinInterval)
	}
	if cfg.Weather.MinDistance != 1000 {
		t.Errorf("Weather.MinDistance = %v, want 1000", cfg.Weather.MinDistance)
	}
	if cfg.Log.Level != "info" {
		t.Errorf("Log.Level = %q, want %q", cfg.Log.Level, "info")
	}
	if cfg.Log.MaxEntries != 1000 {
		t.Errorf("Log.MaxEntries = %d, want 1000", cfg.Log.MaxEntries)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config is invalid: %v", err)
	}
}

func TestLoad(t *testing.T) {
	yamlContent := `
device:
  name: HMSoft
  scan_timeout: 30s
  handshake_delay: 250ms
  write_queue: 4
display:
  mode: waze
  show_time: false
weather:
  latitude: 52.37
  longitude: 4.89
  min_interval: 5m
log:
  level: debug
  format: json
  output: stderr
  max_entries: 200
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.Name != "HMSoft" {
		t.Errorf("Device.Name = %q, want %q", cfg.Device.Name, "HMSoft")
	}
	if cfg.Device.ScanTimeout != 30*time.Second {
		t.Errorf("Device.ScanTimeout = %v, want 30s", cfg.Device.ScanTimeout)
	}
	if cfg.Device.HandshakeDelay != 250*time.Millisecond {
		t.Errorf("Device.HandshakeDelay = %v, want 250ms", cfg.Device.HandshakeDelay)
	}
	if cfg.Device.WriteQueue != 4 {
		t.Errorf("Device.WriteQueue = %d, want 4", cfg.Device.WriteQueue)
	}
	// Unset fields keep their defaults.
	if cfg.Device.ConnectTimeout != 10*time.Second {
		t.Errorf("Device.ConnectTimeout = %v, want 10s", cfg.Device.ConnectTimeout)
	}
	if cfg.Display.Mode != "waze" || cfg.Display.ShowTime || !cfg.Display.ShowWeather {
		t.Errorf("Display = %+v, want waze without time, with weather", cfg.Display)
	}
	if cfg.Weather.Latitude != 52.37 || cfg.Weather.Longitude != 4.89 {
		t.Errorf("Weather position = %v,%v, want 52.37,4.89", cfg.Weather.Latitude, cfg.Weather.Longitude)
	}
	if cfg.Weather.MinInterval != 5*time.Minute {
		t.Errorf("Weather.MinInterval = %v, want 5m", cfg.Weather.MinInterval)
	}
	if cfg.Log.Format != "json" || cfg.Log.Output != "stderr" || cfg.Log.MaxEntries != 200 {
		t.Errorf("Log = %+v", cfg.Log)
	}
}

func TestLoadExpandsTilde(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("cannot determine home directory")
	}

	yamlContent := `
log:
  output: ~/logs/motohud.log
`
	tmpDir := t.TempDir()
	cfgPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(yamlContent), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	expected := filepath.Join(home, "logs/motohud.log")
	if cfg.Log.Output != expected {
		t.Errorf("Log.Output = %q, want %q", cfg.Log.Output, expected)
	}
}

func TestLoadFileNotFound(t *testing.T) {
	_, err := Load("/nonexistent/config.yaml")
	if err == nil {
		t.Error("Load() should return error for nonexistent file")
	}
}

func TestLoadInvalidYAML(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("device: [unclosed"), 0644); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	if _, err := Load(cfgPath); err == nil {
		t.Error("Load() should fail on malformed YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvWeatherAPIKey, "secret")
	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Weather.APIKey != "secret" {
		t.Errorf("Weather.APIKey = %q, want %q", cfg.Weather.APIKey, "secret")
	}

	t.Setenv(EnvWeatherAPIKey, "")
	cfg = Default()
	cfg.Weather.APIKey = "from-file"
	cfg.ApplyEnv()
	if cfg.Weather.APIKey != "from-file" {
		t.Errorf("empty env var should not clear the key, got %q", cfg.Weather.APIKey)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:    "valid default config",
			modify:  func(c *Config) {},
			wantErr: false,
		},
		{
			name:    "empty service uuid",
			modify:  func(c *Config) { c.Device.ServiceUUID = "" },
			wantErr: true,
		},
		{
			name:    "empty characteristic uuid",
			modify:  func(c *Config) { c.Device.CharacteristicUUID = "" },
			wantErr: true,
		},
		{
			name:    "zero scan timeout",
			modify:  func(c *Config) { c.Device.ScanTimeout = 0 },
			wantErr: true,
		},
		{
			name:    "negative discovery timeout",
			modify:  func(c *Config) { c.Device.DiscoveryTimeout = -time.Second },
			wantErr: true,
		},
		{
			name:    "zero write queue",
			modify:  func(c *Config) { c.Device.WriteQueue = 0 },
			wantErr: true,
		},
		{
			name:    "invalid display mode",
			modify:  func(c *Config) { c.Display.Mode = "sport" },
			wantErr: true,
		},
		{
			name:    "latitude out of range",
			modify:  func(c *Config) { c.Weather.Latitude = 91 },
			wantErr: true,
		},
		{
			name:    "longitude out of range",
			modify:  func(c *Config) { c.Weather.Longitude = -181 },
			wantErr: true,
		},
		{
			name:    "api key without base url",
			modify:  func(c *Config) { c.Weather.APIKey = "k"; c.Weather.BaseURL = "" },
			wantErr: true,
		},
		{
			name:    "invalid log level",
			modify:  func(c *Config) { c.Log.Level = "invalid" },
			wantErr: true,
		},
		{
			name:    "invalid log format",
			modify:  func(c *Config) { c.Log.Format = "xml" },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestWriteDefault_CreatesFile(t *testing.T) {
	// Use a temp dir as fake home to avoid touching real config
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}

	expectedPath := filepath.Join(tmpHome, ".config", "motohud", "config.yaml")
	if path != expectedPath {
		t.Errorf("WriteDefault() path = %q, want %q", path, expectedPath)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read written config: %v", err)
	}
	if !strings.HasPrefix(string(data), "# motohud") {
		t.Error("written config should start with header comment")
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		t.Fatalf("written config is not valid YAML: %v", err)
	}
	if cfg.Device.ScanTimeout != 10*time.Second {
		t.Errorf("written config Device.ScanTimeout = %v, want 10s", cfg.Device.ScanTimeout)
	}
	if cfg.Display.Mode != "normal" {
		t.Errorf("written config Display.Mode = %q, want %q", cfg.Display.Mode, "normal")
	}
}

func TestWriteDefault_NoOpIfExists(t *testing.T) {
	tmpHome := t.TempDir()
	t.Setenv("HOME", tmpHome)

	configDir := filepath.Join(tmpHome, ".config", "motohud")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatalf("failed to create config dir: %v", err)
	}
	existingContent := []byte("device:\n  name: HMSoft\n")
	configPath := filepath.Join(configDir, "config.yaml")
	if err := os.WriteFile(configPath, existingContent, 0644); err != nil {
		t.Fatalf("failed to write existing config: %v", err)
	}

	path, err := WriteDefault()
	if err != nil {
		t.Fatalf("WriteDefault() error = %v", err)
	}
	if path != "" {
		t.Errorf("WriteDefault() path = %q, want empty string for existing file", path)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatalf("failed to read config: %v", err)
	}
	if string(data) != string(existingContent) {
		t.Error("WriteDefault() should not overwrite existing config file")
	}
}

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		input string
		want  slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
		{"unknown", slog.LevelInfo}, // defaults to info
		{"", slog.LevelInfo},        // defaults to info
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got := ParseLogLevel(tt.input)
			if got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestSessionOptionsMatchDefaults(t *testing.T) {
	got := Default().Device.SessionOptions()
	want := ble.DefaultOptions()
	if got != want {
		t.Errorf("SessionOptions() = %+v, want %+v", got, want)
	}
}
