package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Device    DeviceConfig    `yaml:"device"`
	Polling   PollingConfig   `yaml:"polling"`
	Simulator SimulatorConfig `yaml:"simulator"`
	Logging   LoggingConfig   `yaml:"logging"`

	// ConfigPath is the path to the config file (not serialized)
	ConfigPath string `yaml:"-"`
}

// ServerConfig represents the operator console listener
type ServerConfig struct {
	Port int    `yaml:"port"`
	Host string `yaml:"host"`
}

// DeviceConfig describes the camera whose control API the console drives
type DeviceConfig struct {
	BaseURL  string `yaml:"base_url"`
	DeviceID string `yaml:"device_id"`
	IP       string `yaml:"ip,omitempty"`
}

// PollingConfig holds the widget schedules
type PollingConfig struct {
	WifiInterval    time.Duration `yaml:"wifi_interval"`
	LogInterval     time.Duration `yaml:"log_interval"`
	PreviewInterval time.Duration `yaml:"preview_interval"`
	SettleDelay     time.Duration `yaml:"settle_delay"`
}

// SimulatorConfig configures the development device emulator
type SimulatorConfig struct {
	Port          int           `yaml:"port"`
	Host          string        `yaml:"host"`
	SSID          string        `yaml:"ssid"`
	Hostname      string        `yaml:"hostname,omitempty"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	LogCapacity   int           `yaml:"log_capacity"`
}

// LoggingConfig selects the slog level
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port: 8080,
			Host: "0.0.0.0",
		},
		Device: DeviceConfig{
			BaseURL:  "http://127.0.0.1:8081",
			DeviceID: "docker-cam",
		},
		Polling: PollingConfig{
			WifiInterval:    10 * time.Second,
			LogInterval:     5 * time.Second,
			PreviewInterval: 3 * time.Second,
			SettleDelay:     500 * time.Millisecond,
		},
		Simulator: SimulatorConfig{
			Port:          8081,
			Host:          "0.0.0.0",
			SSID:          "SaniFlush-Lab",
			FrameInterval: 100 * time.Millisecond,
			LogCapacity:   300,
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// searchPaths are tried in order when no explicit path is given
var searchPaths = []string{
	"config.yaml",
	"configs/config.yaml",
	"/etc/camconsole/config.yaml",
}

// Load loads configuration from path, or from the first file found in the
// search paths when path is empty.
func Load(path string) (*Config, error) {
	candidates := searchPaths
	if path != "" {
		candidates = []string{path}
	}

	var data []byte
	var err error
	var loadedPath string

	for _, p := range candidates {
		data, err = os.ReadFile(p)
		if err == nil {
			loadedPath = p
			break
		}
	}

	if err != nil {
		return nil, err
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", loadedPath, err)
	}

	cfg.ConfigPath = loadedPath
	return cfg, nil
}

// Parse decodes YAML on top of the defaults
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save saves the configuration to a file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0644)
}

// Validate reports every invalid field at once
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port out of range: %d", c.Server.Port))
	}
	if u, err := url.Parse(c.Device.BaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("device.base_url must be an absolute URL: %q", c.Device.BaseURL))
	}
	for name, d := range map[string]time.Duration{
		"polling.wifi_interval":    c.Polling.WifiInterval,
		"polling.log_interval":     c.Polling.LogInterval,
		"polling.preview_interval": c.Polling.PreviewInterval,
	} {
		if d <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}
	if c.Polling.SettleDelay < 0 {
		errs = append(errs, errors.New("polling.settle_delay must not be negative"))
	}
	if c.Simulator.LogCapacity <= 0 {
		errs = append(errs, errors.New("simulator.log_capacity must be positive"))
	}
	if c.Simulator.FrameInterval <= 0 {
		errs = append(errs, errors.New("simulator.frame_interval must be positive"))
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("logging.level unknown: %q", c.Logging.Level))
	}

	return errors.Join(errs...)
}
