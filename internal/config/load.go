package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// Environment variables read by Load.
const (
	EnvAPIKey = "PROCGEN3D_API_KEY"
	EnvPort   = "PORT"
)

// Load loads configuration with priority: defaults < file < env < flags.
func Load() (*Config, error) {
	// Start with defaults
	cfg := Default()

	// Try to load from file (explicit path takes priority)
	configPath := ConfigPath()
	if configPath == "" {
		configPath = findConfigFile()
	}

	if configPath != "" {
		if err := loadFromFile(cfg, configPath); err != nil {
			return nil, fmt.Errorf("loading config from %s: %w", configPath, err)
		}
	}

	applyEnv(cfg)

	// Apply CLI flags (highest priority)
	applyFlags(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that would otherwise fail at first use and
// fills zero durations with defaults.
func (c *Config) Validate() error {
	switch c.Generation.Provider {
	case ProviderBuiltin, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown generation provider %q", c.Generation.Provider)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server address is empty")
	}

	def := Default()
	c.Store.TTL = durationOr(c.Store.TTL, def.Store.TTL)
	c.Store.CleanupInterval = durationOr(c.Store.CleanupInterval, def.Store.CleanupInterval)
	c.Generation.Timeout = durationOr(c.Generation.Timeout, def.Generation.Timeout)
	c.Generation.FeatureTimeout = durationOr(c.Generation.FeatureTimeout, def.Generation.FeatureTimeout)
	return nil
}

// applyEnv applies environment overrides. Secrets are expected here
// rather than in the config file.
func applyEnv(cfg *Config) {
	if key := os.Getenv(EnvAPIKey); key != "" {
		cfg.Generation.APIKey = key
	}
	if port := os.Getenv(EnvPort); port != "" {
		cfg.Server.Addr = ":" + port
	}
}

// findConfigFile looks for config in standard locations.
func findConfigFile() string {
	candidates := []string{
		"./config.yaml",
		filepath.Join(ConfigDir(), "config.yaml"),
	}

	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// ConfigDir returns the OS-appropriate config directory.
func ConfigDir() string {
	switch runtime.GOOS {
	case "darwin":
		home, _ := os.UserHomeDir()
		return filepath.Join(home, "Library", "Application Support", "Procgen3D")
	case "windows":
		return filepath.Join(os.Getenv("APPDATA"), "Procgen3D")
	default: // Linux and others
		if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
			return filepath.Join(xdg, "procgen3d")
		}
		home, _ := os.UserHomeDir()
		return filepath.Join(home, ".config", "procgen3d")
	}
}

// loadFromFile loads config from a YAML file, merging with existing values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}
