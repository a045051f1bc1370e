package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/vladimiradmaev/food-lens/internal/logger"
	"gopkg.in/yaml.v2"
)

// Supported vision model providers
const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
	ProviderVertex = "vertex"
)

var defaultModels = map[string]string{
	ProviderGemini: "gemini-flash-latest",
	ProviderOpenAI: "gpt-4o",
	ProviderVertex: "gemini-1.5-flash",
}

type Config struct {
	TelegramToken string       `yaml:"telegram_token"`
	AI            AIConfig     `yaml:"ai"`
	HTTP          HTTPConfig   `yaml:"http"`
	Redis         RedisConfig  `yaml:"redis"`
	Logger        LoggerConfig `yaml:"logger"`
}

type AIConfig struct {
	Provider     string        `yaml:"provider"`
	Model        string        `yaml:"model"`
	GeminiAPIKey string        `yaml:"gemini_api_key"`
	OpenAIAPIKey string        `yaml:"openai_api_key"`
	Timeout      time.Duration `yaml:"timeout"`
	MaxAttempts  int           `yaml:"max_attempts"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	Vertex       VertexConfig  `yaml:"vertex"`
}

type VertexConfig struct {
	ProjectID       string `yaml:"project_id"`
	Location        string `yaml:"location"`
	CredentialsFile string `yaml:"credentials_file"`
}

type HTTPConfig struct {
	Addr               string   `yaml:"addr"`
	MaxUploadMB        int      `yaml:"max_upload_mb"`
	AllowedOrigins     []string `yaml:"allowed_origins"`
	RateLimitPerMinute int      `yaml:"rate_limit_per_minute"`
	RateLimitBurst     int      `yaml:"rate_limit_burst"`
}

// MaxUploadBytes returns the request body cap in bytes
func (c HTTPConfig) MaxUploadBytes() int64 {
	return int64(c.MaxUploadMB) << 20
}

type RedisConfig struct {
	Host string `yaml:"host"`
	Port string `yaml:"port"`
}

// Enabled reports whether a Redis host was configured
func (c RedisConfig) Enabled() bool {
	return c.Host != ""
}

type LoggerConfig struct {
	Level      string `yaml:"level"`
	OutputPath string `yaml:"output"`
	Format     string `yaml:"format"`
}

// LoggerSettings converts the config section into logger.Config
func (c LoggerConfig) LoggerSettings() logger.Config {
	return logger.Config{
		Level:      logger.ParseLevel(c.Level),
		OutputPath: c.OutputPath,
		Format:     c.Format,
	}
}

// Configured reports whether the selected provider has the credentials it needs
func (c AIConfig) Configured() bool {
	switch c.Provider {
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	case ProviderOpenAI:
		return c.OpenAIAPIKey != ""
	case ProviderVertex:
		return c.Vertex.ProjectID != "" && c.Vertex.Location != ""
	default:
		return false
	}
}

func defaults() *Config {
	return &Config{
		AI: AIConfig{
			Provider:     ProviderGemini,
			Timeout:      60 * time.Second,
			MaxAttempts:  1,
			RetryBackoff: 500 * time.Millisecond,
			Vertex: VertexConfig{
				Location: "us-central1",
			},
		},
		HTTP: HTTPConfig{
			Addr:               ":8080",
			MaxUploadMB:        10,
			RateLimitPerMinute: 30,
			RateLimitBurst:     5,
		},
		Redis: RedisConfig{
			Port: "6379",
		},
		Logger: LoggerConfig{
			Level:      "info",
			OutputPath: "stdout",
			Format:     "json",
		},
	}
}

// Load builds the configuration from defaults, the optional YAML file named by
// CONFIG_FILE, and the environment, in that order of precedence.
func Load() (*Config, error) {
	cfg := defaults()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := loadFile(path, cfg); err != nil {
			return nil, err
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	if cfg.AI.Model == "" {
		cfg.AI.Model = defaultModels[cfg.AI.Provider]
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}
	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.TelegramToken, "TELEGRAM_BOT_TOKEN")

	setString(&cfg.AI.Provider, "AI_PROVIDER")
	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	setString(&cfg.AI.Model, "AI_MODEL")
	setString(&cfg.AI.GeminiAPIKey, "GEMINI_API_KEY")
	setString(&cfg.AI.OpenAIAPIKey, "OPENAI_API_KEY")
	setString(&cfg.AI.Vertex.ProjectID, "VERTEX_PROJECT_ID")
	setString(&cfg.AI.Vertex.Location, "VERTEX_LOCATION")
	setString(&cfg.AI.Vertex.CredentialsFile, "VERTEX_CREDENTIALS_FILE")

	setString(&cfg.HTTP.Addr, "HTTP_ADDR")
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.HTTP.AllowedOrigins = splitList(v)
	}

	setString(&cfg.Redis.Host, "REDIS_HOST")
	setString(&cfg.Redis.Port, "REDIS_PORT")

	setString(&cfg.Logger.Level, "LOG_LEVEL")
	setString(&cfg.Logger.OutputPath, "LOG_OUTPUT")
	setString(&cfg.Logger.Format, "LOG_FORMAT")

	if err := setDuration(&cfg.AI.Timeout, "AI_TIMEOUT"); err != nil {
		return err
	}
	if err := setDuration(&cfg.AI.RetryBackoff, "AI_RETRY_BACKOFF"); err != nil {
		return err
	}
	if err := setInt(&cfg.AI.MaxAttempts, "AI_MAX_ATTEMPTS"); err != nil {
		return err
	}
	if err := setInt(&cfg.HTTP.MaxUploadMB, "MAX_UPLOAD_MB"); err != nil {
		return err
	}
	if err := setInt(&cfg.HTTP.RateLimitPerMinute, "RATE_LIMIT_PER_MINUTE"); err != nil {
		return err
	}
	return setInt(&cfg.HTTP.RateLimitBurst, "RATE_LIMIT_BURST")
}

// Validate checks values that would otherwise fail late at request time
func (c *Config) Validate() error {
	var problems []string

	if _, ok := defaultModels[c.AI.Provider]; !ok {
		problems = append(problems, fmt.Sprintf("unknown AI_PROVIDER %q (want gemini, openai or vertex)", c.AI.Provider))
	}
	if c.AI.Timeout <= 0 {
		problems = append(problems, "AI_TIMEOUT must be positive")
	}
	if c.AI.MaxAttempts < 1 {
		problems = append(problems, "AI_MAX_ATTEMPTS must be at least 1")
	}
	if c.AI.RetryBackoff < 0 {
		problems = append(problems, "AI_RETRY_BACKOFF must not be negative")
	}
	if c.HTTP.MaxUploadMB < 1 {
		problems = append(problems, "MAX_UPLOAD_MB must be at least 1")
	}
	if c.HTTP.RateLimitPerMinute < 0 || c.HTTP.RateLimitBurst < 0 {
		problems = append(problems, "rate limit settings must not be negative")
	}
	switch c.Logger.Format {
	case "json", "text":
	default:
		problems = append(problems, fmt.Sprintf("unknown LOG_FORMAT %q (want json or text)", c.Logger.Format))
	}

	if len(problems) > 0 {
		return fmt.Errorf("invalid configuration:\n  - %s", strings.Join(problems, "\n  - "))
	}
	return nil
}

func setString(dst *string, key string) {
	if value := os.Getenv(key); value != "" {
		*dst = value
	}
}

func setInt(dst *int, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = n
	return nil
}

func setDuration(dst *time.Duration, key string) error {
	value := os.Getenv(key)
	if value == "" {
		return nil
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fmt.Errorf("invalid %s: %w", key, err)
	}
	*dst = d
	return nil
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
