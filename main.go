package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/vladimiradmaev/food-lens/internal/bot"
	"github.com/vladimiradmaev/food-lens/internal/bot/handlers"
	"github.com/vladimiradmaev/food-lens/internal/bot/state"
	"github.com/vladimiradmaev/food-lens/internal/config"
	"github.com/vladimiradmaev/food-lens/internal/logger"
	"github.com/vladimiradmaev/food-lens/internal/ratelimit"
	"github.com/vladimiradmaev/food-lens/internal/server"
	"github.com/vladimiradmaev/food-lens/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		logger.Warn(".env file not found", "error", err)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("Failed to load config", "error", err)
	}

	if err := logger.InitWithConfig(cfg.Logger.LoggerSettings()); err != nil {
		logger.Fatal("Failed to initialize logger", "error", err)
	}
	defer logger.Close()

	logger.Info("Starting Food Lens...",
		"provider", cfg.AI.Provider,
		"model", cfg.AI.Model,
		"model_configured", cfg.AI.Configured())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize services
	model, err := services.NewVisionModel(ctx, cfg.AI)
	if err != nil {
		logger.Fatal("Failed to create vision model", "error", err)
	}
	if closer, ok := model.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	estimator := services.NewNutritionEstimator(model, services.EstimatorOptionsFromConfig(cfg.AI))
	analysisService := services.NewAnalysisService(estimator)
	limiter := ratelimit.New(cfg.HTTP.RateLimitPerMinute, cfg.HTTP.RateLimitBurst)
	logger.Info("Services initialized successfully")

	srv, err := server.New(analysisService, limiter, cfg.HTTP)
	if err != nil {
		logger.Fatal("Failed to create HTTP server", "error", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := srv.Start(ctx); err != nil {
			logger.Error("HTTP server stopped with error", "error", err)
			stop()
		}
	}()

	if cfg.TelegramToken != "" {
		stateManager, closeState := newStateManager(cfg.Redis)
		defer closeState()

		deps := handlers.Dependencies{
			AnalysisSvc:    analysisService,
			Limiter:        limiter,
			MaxUploadBytes: cfg.HTTP.MaxUploadBytes(),
		}
		telegramBot, err := bot.NewBot(cfg.TelegramToken, deps, stateManager)
		if err != nil {
			logger.Fatal("Failed to create bot", "error", err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := telegramBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("Bot stopped with error", "error", err)
			}
		}()
	} else {
		logger.Info("TELEGRAM_BOT_TOKEN not set, running web interface only")
	}

	logger.Info("Food Lens is running. Press Ctrl+C to stop.")
	wg.Wait()
	logger.Info("Shutdown complete")
}

// newStateManager prefers Redis when it is configured and reachable, and
// falls back to process memory otherwise
func newStateManager(cfg config.RedisConfig) (state.StateManager, func()) {
	if cfg.Enabled() {
		redisManager, err := state.NewRedisManager(cfg.Host, cfg.Port)
		if err == nil {
			logger.Info("Using Redis for bot state", "host", cfg.Host, "port", cfg.Port)
			return redisManager, func() { redisManager.Close() }
		}
		logger.Warn("Redis unavailable, using in-memory bot state", "error", err)
	}
	return state.NewManager(), func() {}
}
