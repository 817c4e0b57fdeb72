// Package main provides the CLI tool for the deck-image-service.
// Uses Cobra for command parsing.
//
// Run with: go run ./cmd/cli search --outline outline.json
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/fleveque/deck-image-service/internal/cache"
	"github.com/fleveque/deck-image-service/internal/config"
	"github.com/fleveque/deck-image-service/internal/model"
	"github.com/fleveque/deck-image-service/internal/provider"
	"github.com/fleveque/deck-image-service/internal/search"
	"github.com/fleveque/deck-image-service/internal/service"
	"github.com/fleveque/deck-image-service/internal/storage"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "deck-cli",
		Short: "Deck image service CLI tools",
	}

	root.AddCommand(searchCmd())
	root.AddCommand(statsCmd())
	return root
}

func searchCmd() *cobra.Command {
	var outlinePath string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "search",
		Short: "Run the image search pipeline for an outline file",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(outlinePath, asJSON)
		},
	}

	cmd.Flags().StringVar(&outlinePath, "outline", "", "Path to the outline JSON file")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print final galleries as JSON instead of a progress log")
	_ = cmd.MarkFlagRequired("outline")
	return cmd
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Print run and provider-call counts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStats()
		},
	}
}

func runSearch(outlinePath string, asJSON bool) error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	data, err := os.ReadFile(outlinePath)
	if err != nil {
		return fmt.Errorf("reading outline file: %w", err)
	}
	var outline model.Outline
	if err := json.Unmarshal(data, &outline); err != nil {
		return fmt.Errorf("parsing outline: %w", err)
	}

	// Wire the pipeline. The CLI skips run tracking — it's a one-off tool.
	var providers []provider.ImageProvider
	timeout := cfg.Providers.ProviderTimeout()
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
		}
	}

	orchestrator := search.NewOrchestrator(
		providers,
		cache.New(cfg.Cache.TTL(), cfg.Cache.MaxEntries),
		nil,
		search.Config{
			ImagesPerSlide:  cfg.Search.ImagesPerSlide,
			TopicsPerSlide:  cfg.Search.TopicsPerSlide,
			PoolMultiplier:  cfg.Search.PoolMultiplier,
			MaxConcurrent:   cfg.Search.MaxConcurrent,
			ProviderTimeout: timeout,
			RatePerSecond:   cfg.Providers.RatePerSecond,
			RateBurst:       cfg.Providers.RateBurst,
		},
		logger,
	)
	deckService := service.NewDeckImageService(orchestrator, nil, cfg.LLM.RatePerMinute, nil, logger)

	// Ctrl+C cancels outstanding provider calls and exits cleanly.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("cancelling search...")
		cancel()
	}()

	result, err := deckService.CollectImages(ctx, outline, nil)
	if err != nil {
		return fmt.Errorf("starting search: %w", err)
	}

	for ev := range result.Events {
		switch ev.Type {
		case model.EventTopicImagesFound:
			fmt.Printf("topic %-30q %d images (slides: %v)\n", ev.Topic, ev.ImagesCount, ev.SlidesUsingTopic)
		case model.EventSlideImagesReady:
			fmt.Printf("slide %s ready: %d images from topics %v\n", ev.SlideID, ev.ImagesCount, ev.TopicsUsed)
		case model.EventCollectionComplete:
			fmt.Printf("done: %d topics searched, %d slides processed\n",
				ev.TotalTopicsSearched, ev.TotalSlidesProcessed)
		}
	}

	if asJSON {
		out, err := json.MarshalIndent(result.Galleries(), "", "  ")
		if err != nil {
			return fmt.Errorf("encoding galleries: %w", err)
		}
		fmt.Println(string(out))
	}
	return nil
}

func runStats() error {
	cfg, logger, err := loadConfigAndLogger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := os.MkdirAll(filepath.Dir(cfg.Storage.DatabasePath), 0755); err != nil {
		return fmt.Errorf("creating database directory: %w", err)
	}
	db, err := storage.NewDatabase(cfg.Storage.DatabasePath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()
	runRepo := storage.NewRunRepository(db)
	callRepo := storage.NewProviderCallRepository(db)

	totalRuns, err := runRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting runs: %w", err)
	}
	completed, err := runRepo.CountByStatus(ctx, model.RunCompleted)
	if err != nil {
		return fmt.Errorf("counting completed runs: %w", err)
	}
	totalCalls, err := callRepo.Count(ctx)
	if err != nil {
		return fmt.Errorf("counting provider calls: %w", err)
	}
	failedCalls, err := callRepo.CountFailed(ctx)
	if err != nil {
		return fmt.Errorf("counting failed provider calls: %w", err)
	}

	fmt.Printf("runs:           %d (%d completed)\n", totalRuns, completed)
	fmt.Printf("provider calls: %d (%d failed)\n", totalCalls, failedCalls)
	for _, name := range cfg.Providers.Order {
		count, err := callRepo.CountByProvider(ctx, name)
		if err != nil {
			continue
		}
		fmt.Printf("  %-10s %d\n", name, count)
	}
	return nil
}

func loadConfigAndLogger() (*config.Config, *zap.Logger, error) {
	configPath := os.Getenv("DECK_CONFIG_PATH")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("loading config: %w", err)
	}

	// Always use development mode for CLI output
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, nil, fmt.Errorf("creating logger: %w", err)
	}
	return cfg, logger, nil
}
