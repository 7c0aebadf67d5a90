// Package main is the entry point for the procgen3d HTTP service.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/Faultbox/procgen3d/internal/config"
	"github.com/Faultbox/procgen3d/internal/generate"
	"github.com/Faultbox/procgen3d/internal/logger"
	"github.com/Faultbox/procgen3d/internal/server"
	"github.com/Faultbox/procgen3d/internal/store"
)

func main() {
	// Parse CLI flags first
	config.ParseFlags()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	if err := logger.Init(cfg.Logging.Level, cfg.Logging.LogFile, cfg.Logging.JSON); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("=== Procgen3D Server ===", zap.String("version", server.Version))
	logger.Sugar.Debugf("Config: store=%+v generation.provider=%s", cfg.Store, cfg.Generation.Provider)

	models := store.New(store.Options{
		TTL:             cfg.Store.TTL,
		CleanupInterval: cfg.Store.CleanupInterval,
	})
	defer models.Close()

	provider, extractor := collaborators(cfg.Generation)

	srv := server.New(server.Options{
		Config:    cfg.Server,
		Store:     models,
		Provider:  provider,
		Extractor: extractor,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := srv.Run(ctx); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}

	logger.Info("server stopped normally")
}

// collaborators picks the mesh provider and modifier extractor. The chat
// provider always falls back to the builtin cube.
func collaborators(cfg config.GenerationConfig) (generate.Provider, generate.Extractor) {
	if cfg.Provider != config.ProviderOpenAI {
		logger.Info("using builtin generator")
		return generate.Builtin{}, generate.GroupExtractor{}
	}

	if cfg.APIKey == "" {
		logger.Warn("no API key configured, generation will use the builtin cube",
			zap.String("env", config.EnvAPIKey))
	}
	chat := generate.NewChat(generate.ChatOptions{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	})
	logger.Info("using chat generator", zap.String("base_url", cfg.BaseURL), zap.String("model", cfg.Model))

	provider := &generate.Fallback{Primary: chat, Secondary: generate.Builtin{}}
	extractor := &generate.ChatExtractor{
		Chat:     chat,
		Timeout:  cfg.FeatureTimeout,
		Fallback: generate.GroupExtractor{},
	}
	return provider, extractor
}
