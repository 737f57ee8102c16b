// Package config loads the daemon configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/hwmon-accessory/kbd-go/pkg/connection"
	"github.com/hwmon-accessory/kbd-go/pkg/firmware"
	"github.com/hwmon-accessory/kbd-go/pkg/interaction"
	"github.com/hwmon-accessory/kbd-go/pkg/transport"
)

// DefaultPath is where the daemon looks for its configuration.
const DefaultPath = "/etc/kbd-hwmon/config.yaml"

// Config holds the daemon configuration.
type Config struct {
	Serial   SerialConfig             `yaml:"serial"`
	Firmware FirmwareConfig           `yaml:"firmware"`
	Keyboard KeyboardConfig           `yaml:"keyboard"`
	Reopen   connection.BackoffConfig `yaml:"reopen"`

	// RequestTimeout bounds every attribute request.
	RequestTimeout time.Duration `yaml:"request_timeout"`

	// ProtocolLog is the path of the CBOR protocol trace. Empty disables it.
	ProtocolLog string `yaml:"protocol_log"`

	// ProtocolLogMaxBytes rotates the trace to ProtocolLog+".1" once it
	// reaches this size. Zero disables rotation.
	ProtocolLogMaxBytes int64 `yaml:"protocol_log_max_bytes"`

	LogLevel string `yaml:"log_level"`
}

// SerialConfig selects the accessory link.
type SerialConfig struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

// FirmwareConfig holds firmware update settings.
type FirmwareConfig struct {
	// Dir is the bundle directory holding manifest.yaml. Empty disables
	// firmware updates.
	Dir string `yaml:"dir"`

	MaxPacketSize int `yaml:"max_packet_size"`
}

// KeyboardConfig holds accessory manager settings.
type KeyboardConfig struct {
	InitialBrightness uint8         `yaml:"initial_brightness"`
	AuthorizeRetries  int           `yaml:"authorize_retries"`
	RepeatDelay       time.Duration `yaml:"repeat_delay"`
	RepeatPeriod      time.Duration `yaml:"repeat_period"`
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttymxc1",
			BaudRate: transport.DefaultBaudRate,
		},
		Firmware: FirmwareConfig{
			Dir:           "/usr/share/kbd-hwmon/firmware",
			MaxPacketSize: firmware.DefaultMaxPacketSize,
		},
		Keyboard: KeyboardConfig{
			RepeatDelay:  250 * time.Millisecond,
			RepeatPeriod: 33 * time.Millisecond,
		},
		Reopen:              connection.DefaultBackoffConfig(),
		RequestTimeout:      interaction.DefaultTimeout,
		ProtocolLogMaxBytes: 16 << 20,
		LogLevel:            "info",
	}
}

// Load reads a YAML config file over the defaults. A leading ~ in paths is
// expanded to the user's home directory.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Firmware.Dir = expandTilde(cfg.Firmware.Dir)
	cfg.ProtocolLog = expandTilde(cfg.ProtocolLog)

	return cfg, nil
}

// Validate checks the config for invalid values.
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port must not be empty")
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate must be > 0")
	}

	// Four bytes of every data packet carry the offset.
	if c.Firmware.MaxPacketSize <= 4 {
		return fmt.Errorf("firmware.max_packet_size must be > 4, got %d", c.Firmware.MaxPacketSize)
	}

	if c.Keyboard.AuthorizeRetries < 0 {
		return fmt.Errorf("keyboard.authorize_retries must be >= 0")
	}
	if c.Keyboard.RepeatDelay <= 0 || c.Keyboard.RepeatPeriod <= 0 {
		return fmt.Errorf("keyboard.repeat_delay and keyboard.repeat_period must be > 0")
	}

	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be > 0")
	}
	if c.Reopen.Initial <= 0 || c.Reopen.Max < c.Reopen.Initial {
		return fmt.Errorf("reopen.initial must be > 0 and not above reopen.max")
	}
	if c.ProtocolLogMaxBytes < 0 {
		return fmt.Errorf("protocol_log_max_bytes must be >= 0")
	}

	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level returns the slog level named by LogLevel.
func (c *Config) Level() (slog.Level, error) {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("log_level must be debug, info, warn, or error, got %q", c.LogLevel)
	}
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
