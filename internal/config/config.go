package config

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"

	"github.com/shadicards/concierge/backend/internal/llm/gemini"
	"github.com/shadicards/concierge/backend/internal/llm/openai"
)

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderArk    = "ark"
	ProviderGemini = "gemini"
)

// Config aggregates the service configuration.
type Config struct {
	Server    ServerConfig
	AI        AIConfig
	Database  DatabaseConfig
	Storage   StorageConfig
	Chat      ChatConfig
	Telemetry TelemetryConfig
}

// Load reads the configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env config: %w", err)
	}

	addr, err := normalizeAddr(cfg.Server.Port)
	if err != nil {
		return nil, err
	}
	cfg.Server.Addr = addr

	cfg.AI.Provider = strings.ToLower(strings.TrimSpace(cfg.AI.Provider))
	if cfg.AI.Provider == "" {
		cfg.AI.Provider = ProviderOpenAI
	}
	switch cfg.AI.Provider {
	case ProviderOpenAI, ProviderArk, ProviderGemini:
	default:
		return nil, fmt.Errorf("invalid LLM_PROVIDER value: %q", cfg.AI.Provider)
	}
	if cfg.AI.MaxTokens <= 0 {
		cfg.AI.MaxTokens = 500
	}

	if cfg.Chat.HistoryLimit < 1 {
		cfg.Chat.HistoryLimit = 10
	}
	if cfg.Chat.RetentionDays < 0 {
		cfg.Chat.RetentionDays = 0
	}

	cfg.Storage.Bucket = strings.TrimSpace(cfg.Storage.Bucket)
	cfg.Storage.AccessKeyID = strings.TrimSpace(cfg.Storage.AccessKeyID)
	cfg.Storage.SecretKey = strings.TrimSpace(cfg.Storage.SecretKey)

	return cfg, nil
}

// ServerConfig describes the HTTP listener.
type ServerConfig struct {
	Port            string        `env:"PORT" envDefault:"8080"`
	Addr            string
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`
}

// normalizeAddr accepts "8080", ":8080" or "127.0.0.1:8080".
func normalizeAddr(port string) (string, error) {
	port = strings.TrimSpace(port)
	if port == "" {
		port = "8080"
	}

	if strings.Contains(port, ":") {
		return port, nil
	}

	if strings.Contains(port, " ") {
		return "", fmt.Errorf("invalid PORT value: %q", port)
	}

	return ":" + port, nil
}

// AIConfig describes the chat-completion provider.
type AIConfig struct {
	Provider       string  `env:"LLM_PROVIDER" envDefault:"openai"`
	Model          string  `env:"LLM_MODEL"`
	MaxTokens      int     `env:"LLM_MAX_TOKENS" envDefault:"500"`
	Temperature    float64 `env:"LLM_TEMPERATURE" envDefault:"0.7"`
	StreamResponse bool    `env:"LLM_STREAM" envDefault:"true"`

	OpenAIAPIKey  string `env:"OPENAI_API_KEY"`
	OpenAIBaseURL string `env:"OPENAI_BASE_URL"`

	ArkAPIKey    string `env:"ARK_API_KEY"`
	ArkAccessKey string `env:"ARK_ACCESS_KEY"`
	ArkSecretKey string `env:"ARK_SECRET_KEY"`
	ArkBaseURL   string `env:"ARK_BASE_URL" envDefault:"https://ark.cn-beijing.volces.com/api/v3"`
	ArkRegion    string `env:"ARK_REGION" envDefault:"cn-beijing"`

	GeminiAPIKey string `env:"GEMINI_API_KEY"`
}

// ModelName returns the configured model or the provider default.
func (c AIConfig) ModelName() string {
	if m := strings.TrimSpace(c.Model); m != "" {
		return m
	}
	switch c.Provider {
	case ProviderGemini:
		return "gemini-2.0-flash"
	case ProviderArk:
		return ""
	default:
		return "gpt-4o-mini"
	}
}

// Enabled reports whether the selected provider has the credentials it needs.
func (c AIConfig) Enabled() bool {
	switch c.Provider {
	case ProviderArk:
		return c.ModelName() != "" && (c.ArkAPIKey != "" || (c.ArkAccessKey != "" && c.ArkSecretKey != ""))
	case ProviderGemini:
		return c.GeminiAPIKey != ""
	case ProviderOpenAI, "":
		return c.OpenAIAPIKey != ""
	default:
		return false
	}
}

// NewChatModel builds the chat model for the selected provider.
func (c AIConfig) NewChatModel(ctx context.Context) (model.ChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("credentials for LLM provider %q are not configured", c.Provider)
	}

	temperature := float32(c.Temperature)
	maxTokens := c.MaxTokens

	switch c.Provider {
	case ProviderArk:
		return ark.NewChatModel(ctx, &ark.ChatModelConfig{
			BaseURL:     c.ArkBaseURL,
			Region:      c.ArkRegion,
			APIKey:      c.ArkAPIKey,
			AccessKey:   c.ArkAccessKey,
			SecretKey:   c.ArkSecretKey,
			Model:       c.ModelName(),
			MaxTokens:   &maxTokens,
			Temperature: &temperature,
		})
	case ProviderGemini:
		return gemini.NewChatModel(ctx, gemini.Config{
			APIKey:      c.GeminiAPIKey,
			Model:       c.ModelName(),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
	default:
		return openai.NewChatModel(openai.Config{
			APIKey:      c.OpenAIAPIKey,
			BaseURL:     c.OpenAIBaseURL,
			Model:       c.ModelName(),
			MaxTokens:   maxTokens,
			Temperature: temperature,
		})
	}
}

// DatabaseConfig selects the relational backend.
type DatabaseConfig struct {
	Type         string        `env:"DB_TYPE" envDefault:"sqlite"`
	DSN          string        `env:"DATABASE_URL" envDefault:"concierge.sqlite"`
	MaxIdleConns int           `env:"DB_MAX_IDLE_CONNS" envDefault:"5"`
	MaxOpenConns int           `env:"DB_MAX_OPEN_CONNS" envDefault:"15"`
	ConnLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME" envDefault:"30m"`
}

// StorageConfig describes the S3-compatible bucket holding wedding photos.
type StorageConfig struct {
	Endpoint     string        `env:"STORAGE_S3_ENDPOINT"`
	Region       string        `env:"STORAGE_S3_REGION" envDefault:"us-east-1"`
	Bucket       string        `env:"STORAGE_S3_BUCKET"`
	AccessKeyID  string        `env:"STORAGE_S3_ACCESS_KEY_ID"`
	SecretKey    string        `env:"STORAGE_S3_SECRET_ACCESS_KEY"`
	UsePathStyle bool          `env:"STORAGE_S3_USE_PATH_STYLE" envDefault:"true"`
	PresignTTL   time.Duration `env:"STORAGE_PRESIGN_TTL" envDefault:"24h"`
}

// Enabled reports whether photo references can be signed.
func (c StorageConfig) Enabled() bool {
	return c.Bucket != "" && c.AccessKeyID != "" && c.SecretKey != ""
}

// ChatConfig tunes conversation history handling.
type ChatConfig struct {
	HistoryLimit      int    `env:"CHAT_HISTORY_LIMIT" envDefault:"10"`
	RetentionDays     int    `env:"CHAT_RETENTION_DAYS" envDefault:"0"`
	RetentionSchedule string `env:"CHAT_RETENTION_SCHEDULE" envDefault:"@daily"`
}

// TelemetryConfig describes trace export.
type TelemetryConfig struct {
	ServiceName  string `env:"SERVICE_NAME" envDefault:"shadicards-concierge"`
	OTLPEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
}
