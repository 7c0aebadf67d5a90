package config

import (
	"flag"
	"time"
)

var (
	flagConfig   = flag.String("config", "", "Path to config file")
	flagDebug    = flag.Bool("debug", false, "Enable debug logging")
	flagAddr     = flag.String("addr", "", "HTTP listen address")
	flagTTL      = flag.Duration("ttl", 0, "Model store entry lifetime")
	flagProvider = flag.String("provider", "", "Generation provider (builtin, openai)")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagAddr != "" {
		cfg.Server.Addr = *flagAddr
	}
	if *flagTTL > 0 {
		cfg.Store.TTL = *flagTTL
	}
	if *flagProvider != "" {
		cfg.Generation.Provider = *flagProvider
	}
}

// durationOr returns d, or fallback when d is not positive.
func durationOr(d, fallback time.Duration) time.Duration {
	if d > 0 {
		return d
	}
	return fallback
}
