package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Store backends
const (
	StoreSheets = "sheets"
	StoreMemory = "memory"
)

// Config holds application configuration
type Config struct {
	SpreadsheetID   string `json:"spreadsheet_id"`
	CredentialsPath string `json:"credentials_path"`
	// CredentialsJSON carries the service-account key inline, as set by a hosted secret store
	CredentialsJSON string `json:"-"`
	Store           string `json:"store"`
	Port            string `json:"port"`
	LogLevel        string `json:"log_level"`
	Environment     string `json:"environment"`
	LogDir          string `json:"log_dir"`
	SessionSecret   string `json:"-"`
	SessionTTL      string `json:"session_ttl"`
	RememberMeTTL   string `json:"remember_me_ttl"`
	// AdminPassword seeds an "admin" account when running on the memory store
	AdminPassword string `json:"-"`
}

// DefaultConfig returns a new config with default values
func DefaultConfig() *Config {
	return &Config{
		CredentialsPath: "credentials.json",
		Store:           StoreSheets,
		Port:            "8080",
		LogLevel:        "info",
		Environment:     "development",
		LogDir:          "logs",
		SessionTTL:      "12h",
		RememberMeTTL:   "720h",
	}
}

// GetConfigPath returns the path to the configuration file
// On Windows: %APPDATA%/PlacementAgency/config.json
// On Unix: ~/.config/PlacementAgency/config.json
func GetConfigPath() (string, error) {
	var configDir string

	if os.Getenv("APPDATA") != "" {
		configDir = filepath.Join(os.Getenv("APPDATA"), "PlacementAgency")
	} else {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get user home directory: %w", err)
		}
		configDir = filepath.Join(homeDir, ".config", "PlacementAgency")
	}

	return filepath.Join(configDir, "config.json"), nil
}

// Load reads the default config file, then a .env file if present, then the environment.
// Environment variables win over the file.
func Load() (*Config, error) {
	configPath, err := GetConfigPath()
	if err != nil {
		return nil, err
	}

	// godotenv.Load does not override variables that are already set
	_ = godotenv.Load()

	cfg, err := LoadFrom(configPath)
	if err != nil {
		return nil, err
	}
	cfg.ApplyEnv()

	return cfg, nil
}

// LoadFrom loads configuration from a specific path
func LoadFrom(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := json.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// ApplyEnv overrides fields from environment variables
func (c *Config) ApplyEnv() {
	setFromEnv(&c.SpreadsheetID, "SPREADSHEET_ID")
	setFromEnv(&c.CredentialsPath, "GOOGLE_APPLICATION_CREDENTIALS")
	setFromEnv(&c.CredentialsJSON, "GCP_SERVICE_ACCOUNT")
	setFromEnv(&c.Store, "STORE")
	setFromEnv(&c.Port, "PORT")
	setFromEnv(&c.LogLevel, "LOG_LEVEL")
	setFromEnv(&c.Environment, "ENVIRONMENT")
	setFromEnv(&c.LogDir, "LOG_DIR")
	setFromEnv(&c.SessionSecret, "SESSION_SECRET")
	setFromEnv(&c.SessionTTL, "SESSION_TTL")
	setFromEnv(&c.RememberMeTTL, "REMEMBER_ME_TTL")
	setFromEnv(&c.AdminPassword, "ADMIN_PASSWORD")

	c.Store = strings.ToLower(c.Store)
	c.LogLevel = strings.ToLower(c.LogLevel)
	c.Environment = strings.ToLower(c.Environment)
}

func setFromEnv(field *string, key string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*field = v
	}
}

// SaveTo saves the configuration to a specific path. Secrets are never written.
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Store {
	case StoreSheets:
		if c.SpreadsheetID == "" {
			return fmt.Errorf("spreadsheet_id is required")
		}
		if c.CredentialsJSON == "" {
			if _, err := os.Stat(c.CredentialsPath); err != nil {
				return fmt.Errorf("google credentials file not found and GCP_SERVICE_ACCOUNT not set: %w", err)
			}
		}
	case StoreMemory:
	default:
		return fmt.Errorf("unknown store %q, want %q or %q", c.Store, StoreSheets, StoreMemory)
	}

	if c.SessionSecret == "" {
		return fmt.Errorf("SESSION_SECRET is required")
	}

	if c.Port == "" {
		return fmt.Errorf("port is required")
	}

	if _, err := c.SessionDuration(); err != nil {
		return err
	}
	if _, err := c.RememberMeDuration(); err != nil {
		return err
	}

	return nil
}

// SessionDuration is the lifetime of an ordinary session token
func (c *Config) SessionDuration() (time.Duration, error) {
	return parseTTL("session_ttl", c.SessionTTL)
}

// RememberMeDuration is the lifetime of a session token issued with remember-me
func (c *Config) RememberMeDuration() (time.Duration, error) {
	return parseTTL("remember_me_ttl", c.RememberMeTTL)
}

func parseTTL(name, value string) (time.Duration, error) {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be positive", name)
	}
	return d, nil
}
