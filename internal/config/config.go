// Package config loads and persists the TOML configuration shared by the
// command-line tools.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Format Library API configuration
	API APIConfig `toml:"api"`

	// Local payload cache configuration
	Cache CacheConfig `toml:"cache"`

	// Google Sheets output configuration
	Sheets SheetsConfig `toml:"sheets"`
}

// APIConfig contains Format Library fetch settings.
type APIConfig struct {
	BaseURL        string `toml:"base_url"`        // API host
	Format         string `toml:"format"`          // Gallery format slug (e.g. "goat")
	Sleep          string `toml:"sleep"`           // Minimum gap between requests (e.g. "400ms")
	MaxRetries     int    `toml:"max_retries"`     // Attempt budget per request
	RetryBackoff   string `toml:"retry_backoff"`   // Base wait between attempts
	RequestTimeout string `toml:"request_timeout"` // Per-request HTTP timeout
}

// CacheConfig contains payload cache settings.
type CacheConfig struct {
	Enabled bool   `toml:"enabled"` // Enable the SQLite payload cache
	Path    string `toml:"path"`    // Database path ("" = default location)
	TTL     string `toml:"ttl"`     // Cache entry TTL (e.g. "24h")
}

// SheetsConfig contains Google Sheets publishing settings.
type SheetsConfig struct {
	CredentialsPath string `toml:"credentials_path"` // Service account JSON key
	SpreadsheetID   string `toml:"spreadsheet_id"`   // Existing spreadsheet ("" = create)
	Title           string `toml:"title"`            // Spreadsheet title when creating
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:        "https://formatlibrary.com",
			Format:         "goat",
			Sleep:          "400ms",
			MaxRetries:     3,
			RetryBackoff:   "800ms",
			RequestTimeout: "20s",
		},
		Cache: CacheConfig{
			Enabled: true,
			Path:    "",
			TTL:     "24h",
		},
		Sheets: SheetsConfig{
			CredentialsPath: "",
			SpreadsheetID:   "",
			Title:           "Goat Format Card Usage",
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".goat-usage")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from the default location. Returns the
// default config if the file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path. Returns the
// default config if the file doesn't exist.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return &config, nil
}

// Save saves the configuration to the default location.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.API.Format == "" {
		return fmt.Errorf("api format cannot be empty")
	}

	if _, err := time.ParseDuration(c.API.Sleep); err != nil {
		return fmt.Errorf("invalid api sleep %q: %w", c.API.Sleep, err)
	}

	if _, err := time.ParseDuration(c.API.RetryBackoff); err != nil {
		return fmt.Errorf("invalid retry backoff %q: %w", c.API.RetryBackoff, err)
	}

	if _, err := time.ParseDuration(c.API.RequestTimeout); err != nil {
		return fmt.Errorf("invalid request timeout %q: %w", c.API.RequestTimeout, err)
	}

	if c.API.MaxRetries < 1 {
		return fmt.Errorf("max retries must be at least 1: %d", c.API.MaxRetries)
	}

	if _, err := time.ParseDuration(c.Cache.TTL); err != nil {
		return fmt.Errorf("invalid cache TTL %q: %w", c.Cache.TTL, err)
	}

	return nil
}

// GetSleep returns the request gap as a duration.
func (c *Config) GetSleep() (time.Duration, error) {
	return time.ParseDuration(c.API.Sleep)
}

// GetRetryBackoff returns the retry backoff as a duration.
func (c *Config) GetRetryBackoff() (time.Duration, error) {
	return time.ParseDuration(c.API.RetryBackoff)
}

// GetRequestTimeout returns the request timeout as a duration.
func (c *Config) GetRequestTimeout() (time.Duration, error) {
	return time.ParseDuration(c.API.RequestTimeout)
}

// GetCacheTTL returns the cache TTL as a duration.
func (c *Config) GetCacheTTL() (time.Duration, error) {
	return time.ParseDuration(c.Cache.TTL)
}

// CachePath returns the configured cache database path, or the default
// location under the config directory.
func (c *Config) CachePath() (string, error) {
	if c.Cache.Path != "" {
		return c.Cache.Path, nil
	}

	path, err := configPath()
	if err != nil {
		return "", err
	}
	return filepath.Join(filepath.Dir(path), "cache.db"), nil
}
