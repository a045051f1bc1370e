package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/vladimiradmaev/food-lens/internal/config"
)

func main() {
	fmt.Println("🔍 Checking configuration...")

	// Load .env if present
	if err := godotenv.Load(); err != nil {
		fmt.Printf("⚠️  .env file not found: %v\n", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("❌ Configuration is invalid:\n%v\n", err)
		os.Exit(1)
	}

	fmt.Println("✅ Configuration is valid!")
	fmt.Printf("📋 Configuration details:\n")
	fmt.Printf("  - AI Provider: %s\n", cfg.AI.Provider)
	fmt.Printf("  - AI Model: %s\n", cfg.AI.Model)
	fmt.Printf("  - Model Configured: %t\n", cfg.AI.Configured())
	fmt.Printf("  - Gemini API Key: %s\n", maskToken(cfg.AI.GeminiAPIKey))
	fmt.Printf("  - OpenAI API Key: %s\n", maskToken(cfg.AI.OpenAIAPIKey))
	if cfg.AI.Provider == config.ProviderVertex {
		fmt.Printf("  - Vertex Project: %s\n", cfg.AI.Vertex.ProjectID)
		fmt.Printf("  - Vertex Location: %s\n", cfg.AI.Vertex.Location)
	}
	fmt.Printf("  - AI Timeout: %s\n", cfg.AI.Timeout)
	fmt.Printf("  - AI Max Attempts: %d\n", cfg.AI.MaxAttempts)
	fmt.Printf("  - HTTP Address: %s\n", cfg.HTTP.Addr)
	fmt.Printf("  - Max Upload: %d MB\n", cfg.HTTP.MaxUploadMB)
	fmt.Printf("  - Rate Limit: %d/min (burst %d)\n", cfg.HTTP.RateLimitPerMinute, cfg.HTTP.RateLimitBurst)
	fmt.Printf("  - Telegram Token: %s\n", maskToken(cfg.TelegramToken))
	if cfg.Redis.Enabled() {
		fmt.Printf("  - Redis: %s:%s\n", cfg.Redis.Host, cfg.Redis.Port)
	} else {
		fmt.Printf("  - Redis: <disabled, in-memory bot state>\n")
	}
	fmt.Printf("  - Log Level: %s\n", cfg.Logger.Level)
	fmt.Printf("  - Log Output: %s\n", cfg.Logger.OutputPath)
	fmt.Printf("  - Log Format: %s\n", cfg.Logger.Format)
}

func maskToken(token string) string {
	if token == "" {
		return "<not set>"
	}
	if len(token) <= 8 {
		return "***"
	}
	return token[:4] + "..." + token[len(token)-4:]
}
