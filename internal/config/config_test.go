package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

var configEnvKeys = []string{
	"CONFIG_FILE", "TELEGRAM_BOT_TOKEN", "AI_PROVIDER", "AI_MODEL", "GEMINI_API_KEY", "OPENAI_API_KEY",
	"VERTEX_PROJECT_ID", "VERTEX_LOCATION", "VERTEX_CREDENTIALS_FILE", "AI_TIMEOUT", "AI_MAX_ATTEMPTS",
	"AI_RETRY_BACKOFF", "HTTP_ADDR", "MAX_UPLOAD_MB", "CORS_ALLOWED_ORIGINS", "RATE_LIMIT_PER_MINUTE",
	"RATE_LIMIT_BURST", "REDIS_HOST", "REDIS_PORT", "LOG_LEVEL", "LOG_OUTPUT", "LOG_FORMAT",
}

// clearEnv blanks every key Load reads so the host environment cannot leak in
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Provider != ProviderGemini || cfg.AI.Model != "gemini-flash-latest" {
		t.Errorf("AI = %s/%s", cfg.AI.Provider, cfg.AI.Model)
	}
	if cfg.AI.Timeout != 60*time.Second || cfg.AI.MaxAttempts != 1 {
		t.Errorf("Timeout = %v, MaxAttempts = %d", cfg.AI.Timeout, cfg.AI.MaxAttempts)
	}
	if cfg.AI.Configured() {
		t.Error("expected model to be unconfigured without a key")
	}
	if cfg.HTTP.Addr != ":8080" || cfg.HTTP.MaxUploadBytes() != 10<<20 {
		t.Errorf("HTTP = %+v", cfg.HTTP)
	}
	if cfg.Redis.Enabled() {
		t.Error("Redis should be disabled by default")
	}
	if cfg.Logger.Format != "json" {
		t.Errorf("Logger.Format = %q", cfg.Logger.Format)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("AI_PROVIDER", " OpenAI ")
	t.Setenv("OPENAI_API_KEY", "sk-test")
	t.Setenv("AI_TIMEOUT", "15s")
	t.Setenv("AI_MAX_ATTEMPTS", "3")
	t.Setenv("MAX_UPLOAD_MB", "5")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("REDIS_HOST", "localhost")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Provider != ProviderOpenAI || cfg.AI.Model != "gpt-4o" {
		t.Errorf("AI = %s/%s", cfg.AI.Provider, cfg.AI.Model)
	}
	if !cfg.AI.Configured() {
		t.Error("expected openai to be configured")
	}
	if cfg.AI.Timeout != 15*time.Second || cfg.AI.MaxAttempts != 3 {
		t.Errorf("Timeout = %v, MaxAttempts = %d", cfg.AI.Timeout, cfg.AI.MaxAttempts)
	}
	if cfg.HTTP.MaxUploadBytes() != 5<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.HTTP.MaxUploadBytes())
	}
	if len(cfg.HTTP.AllowedOrigins) != 2 || cfg.HTTP.AllowedOrigins[1] != "https://b.example" {
		t.Errorf("AllowedOrigins = %v", cfg.HTTP.AllowedOrigins)
	}
	if !cfg.Redis.Enabled() || cfg.Redis.Port != "6379" {
		t.Errorf("Redis = %+v", cfg.Redis)
	}
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
ai:
  provider: vertex
  timeout: 30s
  vertex:
    project_id: my-project
http:
  addr: ":9090"
  rate_limit_per_minute: 10
logger:
  level: debug
  format: text
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("HTTP_ADDR", ":7070")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.AI.Provider != ProviderVertex || cfg.AI.Model != "gemini-1.5-flash" {
		t.Errorf("AI = %s/%s", cfg.AI.Provider, cfg.AI.Model)
	}
	if cfg.AI.Timeout != 30*time.Second {
		t.Errorf("Timeout = %v", cfg.AI.Timeout)
	}
	if !cfg.AI.Configured() || cfg.AI.Vertex.Location != "us-central1" {
		t.Errorf("Vertex = %+v", cfg.AI.Vertex)
	}
	if cfg.HTTP.Addr != ":7070" {
		t.Errorf("Addr = %q, environment should win over the file", cfg.HTTP.Addr)
	}
	if cfg.HTTP.RateLimitPerMinute != 10 || cfg.HTTP.RateLimitBurst != 5 {
		t.Errorf("rate limit = %d/%d", cfg.HTTP.RateLimitPerMinute, cfg.HTTP.RateLimitBurst)
	}
	if cfg.Logger.Format != "text" || cfg.Logger.LoggerSettings().Level.String() != "debug" {
		t.Errorf("Logger = %+v", cfg.Logger)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{name: "unknown provider", env: map[string]string{"AI_PROVIDER": "claude"}, wantErr: "unknown AI_PROVIDER"},
		{name: "bad duration", env: map[string]string{"AI_TIMEOUT": "soon"}, wantErr: "invalid AI_TIMEOUT"},
		{name: "zero timeout", env: map[string]string{"AI_TIMEOUT": "0s"}, wantErr: "AI_TIMEOUT must be positive"},
		{name: "bad attempts", env: map[string]string{"AI_MAX_ATTEMPTS": "0"}, wantErr: "AI_MAX_ATTEMPTS"},
		{name: "non numeric upload", env: map[string]string{"MAX_UPLOAD_MB": "ten"}, wantErr: "invalid MAX_UPLOAD_MB"},
		{name: "bad log format", env: map[string]string{"LOG_FORMAT": "xml"}, wantErr: "unknown LOG_FORMAT"},
		{name: "missing file", env: map[string]string{"CONFIG_FILE": "/nonexistent/config.yaml"}, wantErr: "failed to read config file"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}
