// Package config handles service configuration loading and management.
package config

import "time"

// Config holds all service settings.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Store      StoreConfig      `yaml:"store"`
	Generation GenerationConfig `yaml:"generation"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr            string        `yaml:"addr"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// StoreConfig holds model store settings.
type StoreConfig struct {
	TTL             time.Duration `yaml:"ttl"`              // Lifetime of an idle model
	CleanupInterval time.Duration `yaml:"cleanup_interval"` // How often expired models are purged
}

// Generation providers.
const (
	ProviderBuiltin = "builtin" // Fixed fallback mesh, no network
	ProviderOpenAI  = "openai"  // OpenAI-compatible chat completions
)

// GenerationConfig holds mesh generation settings.
type GenerationConfig struct {
	Provider       string        `yaml:"provider"`
	BaseURL        string        `yaml:"base_url"`
	Model          string        `yaml:"model"`
	APIKey         string        `yaml:"api_key"`
	Timeout        time.Duration `yaml:"timeout"`         // Mesh generation call
	FeatureTimeout time.Duration `yaml:"feature_timeout"` // Modifier extraction call
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level   string `yaml:"level"`
	LogFile string `yaml:"log_file"`
	JSON    bool   `yaml:"json"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8000",
			CORSOrigins:     []string{"http://localhost:3000"},
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    60 * time.Second,
			ShutdownTimeout: 10 * time.Second,
		},
		Store: StoreConfig{
			TTL:             time.Hour,
			CleanupInterval: 5 * time.Minute,
		},
		Generation: GenerationConfig{
			Provider:       ProviderBuiltin,
			BaseURL:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			Timeout:        30 * time.Second,
			FeatureTimeout: 15 * time.Second,
		},
		Logging: LoggingConfig{
			Level:   "info",
			LogFile: "",
		},
	}
}
