// Package config loads and validates the on-disk configuration for the
// commissioning daemon. Adapted from the teacher's pkg/config/config.go
// (same yaml.v3 + validator/v10 pairing, same path-search Load), with
// the gateway-fleet config struct replaced by the commissioning
// daemon's own sections.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Default config file locations, searched in order when Load is called
// with an empty path.
var configPaths = []string{
	"./config.yaml",
	"./config.yml",
	"./wifi-commissioning.yaml",
	"~/.config/wifi-commissioning/config.yaml",
	"/etc/wifi-commissioning/config.yaml",
}

// Config is the root configuration for cmd/wificommd.
type Config struct {
	DeviceID      string              `yaml:"device_id" validate:"required"`
	Interface     string              `yaml:"interface" validate:"required"`
	UnixSocket    UnixSocketConfig    `yaml:"unix_socket"`
	BLE           BLEConfig           `yaml:"ble"`
	Authorization AuthorizationConfig `yaml:"authorization"`
	Logging       LoggingConfig       `yaml:"logging"`
	Metrics       MetricsConfig       `yaml:"metrics"`
	Audit         AuditConfig         `yaml:"audit"`
	Notify        NotifyConfig        `yaml:"notify"`
}

// UnixSocketConfig configures the JSON-RPC-over-Unix-socket transport.
type UnixSocketConfig struct {
	Path string `yaml:"path" validate:"required"`
	Mode uint32 `yaml:"mode"`
}

// BLEConfig configures the BLE GATT peripheral transport.
type BLEConfig struct {
	Enabled    bool   `yaml:"enabled"`
	DeviceName string `yaml:"device_name" validate:"required_if=Enabled true"`
}

// AuthorizationConfig holds settings for the proof-of-knowledge gate.
// Timeout is parsed but not applied: the gate's validity window is the
// fixed auth.Timeout.
type AuthorizationConfig struct {
	Timeout time.Duration `yaml:"timeout"`
}

// LoggingConfig mirrors pkg/logger.Config for YAML decoding.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
	Output string `yaml:"output"`
	File   string `yaml:"file"`
}

// MetricsConfig configures the Prometheus exposition endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Address string `yaml:"address"`
}

// AuditConfig configures the SQLite event audit log.
type AuditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// NotifyConfig configures the optional MQTT notification sink.
type NotifyConfig struct {
	MQTT MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig configures republishing state-change notifications to an
// external broker.
type MQTTConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Broker   string `yaml:"broker" validate:"required_if=Enabled true"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// Load reads configuration from path, or from the first default path
// that exists when path is empty, falling back to DefaultConfig if none
// is found.
func Load(path string) (*Config, error) {
	if path != "" {
		return loadFile(path)
	}

	for _, p := range configPaths {
		if len(p) > 0 && p[0] == '~' {
			home, err := os.UserHomeDir()
			if err == nil {
				p = filepath.Join(home, p[2:])
			}
		}
		if _, err := os.Stat(p); err == nil {
			return loadFile(p)
		}
	}

	return DefaultConfig(), nil
}

func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks struct tags against cfg.
func Validate(cfg *Config) error {
	return validator.New().Struct(cfg)
}

// Save writes cfg as YAML to path, creating parent directories as
// needed.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0644)
}

// DefaultConfig returns the configuration used when no file is found.
func DefaultConfig() *Config {
	return &Config{
		DeviceID:  "wifi-commissioning-device",
		Interface: "wlan0",
		UnixSocket: UnixSocketConfig{
			Path: "/run/wifi-commissioning.sock",
			Mode: 0660,
		},
		BLE: BLEConfig{
			Enabled:    true,
			DeviceName: "wifi-commissioning",
		},
		Authorization: AuthorizationConfig{
			Timeout: 5 * time.Minute,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
			Output: "stdout",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Address: ":9090",
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    "./wifi-commissioning-audit.db",
		},
	}
}
