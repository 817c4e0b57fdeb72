// Package main is the entry point for the deck-image-service HTTP server.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/cache"
	"github.com/fleveque/deck-image-service/internal/config"
	"github.com/fleveque/deck-image-service/internal/llm"
	"github.com/fleveque/deck-image-service/internal/provider"
	"github.com/fleveque/deck-image-service/internal/search"
	"github.com/fleveque/deck-image-service/internal/server"
	"github.com/fleveque/deck-image-service/internal/service"
	"github.com/fleveque/deck-image-service/internal/storage"
)

func main() {
	// We call run() separately so deferred cleanup functions execute
	// (deferred functions don't run when os.Exit is called directly).
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	configPath := os.Getenv("DECK_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// Structured logging with zap: JSON in production, human-readable in debug.
	var logger *zap.Logger
	if cfg.Log.Level == "debug" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}
	// Sync flushes buffered entries; it commonly fails on stdout, so the
	// error is intentionally ignored.
	defer func() { _ = logger.Sync() }()

	// Storage for run/call tracking
	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	runRepo := storage.NewRunRepository(db)
	callRepo := storage.NewProviderCallRepository(db)

	providers := buildProviders(cfg, logger)
	if len(providers) == 0 {
		logger.Warn("no image providers configured — every search will return empty galleries")
	}

	orchestrator := search.NewOrchestrator(
		providers,
		cache.New(cfg.Cache.TTL(), cfg.Cache.MaxEntries),
		callRepo,
		search.Config{
			ImagesPerSlide:     cfg.Search.ImagesPerSlide,
			TopicsPerSlide:     cfg.Search.TopicsPerSlide,
			BaseImagesPerTopic: cfg.Search.BaseImagesPerTopic,
			PerSlideShare:      cfg.Search.PerSlideShare,
			PoolMultiplier:     cfg.Search.PoolMultiplier,
			MaxConcurrent:      cfg.Search.MaxConcurrent,
			ProviderTimeout:    cfg.Providers.ProviderTimeout(),
			RatePerSecond:      cfg.Providers.RatePerSecond,
			RateBurst:          cfg.Providers.RateBurst,
		},
		logger,
	)

	deckService := service.NewDeckImageService(
		orchestrator,
		buildLLMClients(cfg),
		cfg.LLM.RatePerMinute,
		runRepo,
		logger,
	)

	srv := server.New(cfg, server.Deps{
		Searcher: deckService,
		RunRepo:  runRepo,
		CallRepo: callRepo,
	}, logger)

	// Graceful shutdown on SIGINT (Ctrl+C) or SIGTERM (docker stop).
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case sig := <-quit:
		logger.Info("received shutdown signal", zap.String("signal", sig.String()))
	case err := <-errChan:
		if err != nil {
			return err
		}
	}

	// Give in-flight requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Shutdown(ctx)
}

// buildProviders assembles the image providers in configured order,
// skipping any without credentials.
func buildProviders(cfg *config.Config, logger *zap.Logger) []provider.ImageProvider {
	timeout := cfg.Providers.ProviderTimeout()

	var providers []provider.ImageProvider
	for _, name := range cfg.Providers.Order {
		switch name {
		case "pexels":
			if cfg.Providers.Pexels.APIKey != "" {
				providers = append(providers, provider.NewPexelsProvider(cfg.Providers.Pexels.APIKey, timeout, logger))
			}
		case "unsplash":
			if cfg.Providers.Unsplash.AccessKey != "" {
				providers = append(providers, provider.NewUnsplashProvider(cfg.Providers.Unsplash.AccessKey, timeout, logger))
			}
		default:
			logger.Warn("unknown image provider in config", zap.String("provider", name))
		}
	}
	return providers
}

// buildLLMClients assembles the hint-generation clients in configured
// order. Missing API keys just mean that provider is skipped.
func buildLLMClients(cfg *config.Config) []llm.Client {
	var clients []llm.Client
	for _, name := range cfg.LLM.ProviderOrder {
		switch name {
		case "anthropic":
			if cfg.LLM.Anthropic.APIKey != "" {
				clients = append(clients, llm.NewAnthropicClient(cfg.LLM.Anthropic.APIKey, cfg.LLM.Anthropic.Model))
			}
		case "openai":
			if cfg.LLM.OpenAI.APIKey != "" {
				clients = append(clients, llm.NewOpenAIClient(cfg.LLM.OpenAI.APIKey, cfg.LLM.OpenAI.Model))
			}
		}
	}
	return clients
}
