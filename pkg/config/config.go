package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

const (
	configDir  = ".autopatch"
	configFile = "config.json"
)

// Config holds per-workspace settings. Flags override these at the command
// layer; anything unset falls back to the defaults below.
type Config struct {
	Model               string `json:"model"`
	APIBaseURL          string `json:"api_base_url"`
	APIKeyEnv           string `json:"api_key_env"`
	Language            string `json:"language"`
	ValidateCommand     string `json:"validate_command"`
	MaxAttempts         int    `json:"max_attempts"`
	ValidateTimeoutSecs int    `json:"validate_timeout_secs"`
}

// DefaultConfig returns the settings used when no config file exists.
func DefaultConfig() *Config {
	return &Config{
		Model:               "gpt-4o-mini",
		APIBaseURL:          "https://api.openai.com/v1",
		APIKeyEnv:           "OPENAI_API_KEY",
		MaxAttempts:         3,
		ValidateTimeoutSecs: 300,
	}
}

// Path returns the config file location inside root.
func Path(root string) string {
	return filepath.Join(root, configDir, configFile)
}

// Load reads the workspace config, applying defaults for absent fields. A
// missing file is not an error; the defaults are returned.
func Load(root string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(Path(root))
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("could not parse config at %s: %w", Path(root), err)
	}

	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.ValidateTimeoutSecs < 1 {
		cfg.ValidateTimeoutSecs = DefaultConfig().ValidateTimeoutSecs
	}
	return cfg, nil
}

// Save writes the config to its workspace location, creating the state
// directory when needed.
func (c *Config) Save(root string) error {
	if err := os.MkdirAll(filepath.Join(root, configDir), 0755); err != nil {
		return fmt.Errorf("could not create config directory: %w", err)
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("could not encode config: %w", err)
	}
	if err := os.WriteFile(Path(root), data, 0644); err != nil {
		return fmt.Errorf("could not write config: %w", err)
	}
	return nil
}

// APIKey resolves the API key from the configured environment variable.
func (c *Config) APIKey() string {
	if c.APIKeyEnv == "" {
		return ""
	}
	return os.Getenv(c.APIKeyEnv)
}
