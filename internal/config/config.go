// Package config loads the application configuration from YAML with
// environment variable expansion.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Strava  StravaConfig  `yaml:"strava"`
	Output  OutputConfig  `yaml:"output"`
	Bikelog BikelogConfig `yaml:"bikelog"`
	Cache   CacheConfig   `yaml:"cache"`
	Daemon  DaemonConfig  `yaml:"daemon"`
}

// StravaConfig holds the OAuth application credentials.
type StravaConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
}

// OutputConfig controls where generated files are written.
type OutputConfig struct {
	Directory string `yaml:"directory"`
}

// BikelogConfig configures the bikelog XML payload for PDF form import.
type BikelogConfig struct {
	// Gears maps Strava gear IDs to the bike names used in the bikelog form.
	Gears map[string]string `yaml:"gears,omitempty"`
	// DefaultGear is used for activities without a gear ID.
	DefaultGear string `yaml:"default_gear,omitempty"`
}

// CacheConfig configures the local activity cache.
type CacheConfig struct {
	// Path of the SQLite database. Empty means the default location under
	// the user configuration directory.
	Path string `yaml:"path,omitempty"`
}

// DaemonConfig configures daemon mode.
type DaemonConfig struct {
	Interval time.Duration `yaml:"interval"`
	Listen   string        `yaml:"listen"`
	Channels []string      `yaml:"channels,omitempty"`
}

// Load loads configuration from the specified file.
func Load(configPath string) (*Config, error) {
	// Load .env if present; credentials usually live there rather than in
	// the checked-in config file.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "Note: .env file couldn't be loaded: %v\n", err)
	}

	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("configuration file not found: %s", configPath)
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Expand environment variables in the YAML content
	expandedData := os.ExpandEnv(string(data))

	var config Config
	if err := yaml.Unmarshal([]byte(expandedData), &config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyDefaults(&config)

	if config.Strava.ClientID == "" {
		return nil, fmt.Errorf("strava.client_id is required (set it in %s or via STRAVA_CLIENT_ID)", configPath)
	}

	return &config, nil
}

func applyDefaults(config *Config) {
	if config.Strava.ClientID == "" {
		config.Strava.ClientID = os.Getenv("STRAVA_CLIENT_ID")
	}
	if config.Strava.ClientSecret == "" {
		config.Strava.ClientSecret = os.Getenv("STRAVA_CLIENT_SECRET")
	}
	if config.Output.Directory == "" {
		config.Output.Directory = "./export"
	}
	if config.Daemon.Interval <= 0 {
		config.Daemon.Interval = 30 * time.Minute
	}
	if config.Daemon.Listen == "" {
		config.Daemon.Listen = "127.0.0.1:9416"
	}
	if len(config.Daemon.Channels) == 0 {
		config.Daemon.Channels = []string{"kml", "pdf"}
	}
}

// DefaultCachePath returns the activity cache location under the user
// configuration directory.
func DefaultCachePath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "ridelog", "activities.db"), nil
}

// Init creates a new configuration file with example content.
func Init(configPath string, force bool) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("configuration file already exists: %s (use --force to overwrite)", configPath)
	}

	exampleConfig := Config{
		Strava: StravaConfig{
			ClientID:     "${STRAVA_CLIENT_ID}",
			ClientSecret: "${STRAVA_CLIENT_SECRET}",
		},
		Output: OutputConfig{
			Directory: "./export",
		},
		Bikelog: BikelogConfig{
			Gears:       map[string]string{"b1234567": "Road bike"},
			DefaultGear: "Road bike",
		},
		Daemon: DaemonConfig{
			Interval: 30 * time.Minute,
			Listen:   "127.0.0.1:9416",
			Channels: []string{"kml", "pdf"},
		},
	}

	data, err := yaml.Marshal(&exampleConfig)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
