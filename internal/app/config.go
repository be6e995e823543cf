package app

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Config is the process-wide configuration, assembled entirely from
// environment variables at startup.
type Config struct {
	ListenAddr string
	LogLevel   string
	LogFormat  string

	LLMProvider      string
	OpenRouterAPIKey string
	GoogleAPIKey     string
	AnthropicAPIKey  string
	OpenAIAPIKey     string
	DeepSeekAPIKey   string

	QdrantURL   string // empty = in-memory vector store
	RedisURL    string // empty = in-memory classification cache
	DatabaseURL string // audit log sink DSN

	ModelsCacheDir string
	HFModelName    string

	ProviderTimeoutSecs int

	CORSOrigins []string

	VaultEnabled  bool
	VaultPassword string // auto-unlock vault at startup if set

	OTelEnabled     bool
	OTelEndpoint    string
	OTelServiceName string
}

// LoadConfig reads Config from the environment, applying the defaults named
// in the external interfaces contract.
func LoadConfig() (Config, error) {
	cfg := Config{
		ListenAddr: ":" + getEnv("PORT", "3000"),
		LogLevel:   getEnv("LOG_LEVEL", "info"),
		LogFormat:  getEnv("LOG_FORMAT", "json"),

		LLMProvider:      getEnv("LLM_PROVIDER", "openrouter"),
		OpenRouterAPIKey: getEnv("OPENROUTER_API_KEY", ""),
		GoogleAPIKey:     getEnv("GOOGLE_API_KEY", ""),
		AnthropicAPIKey:  getEnv("ANTHROPIC_API_KEY", ""),
		OpenAIAPIKey:     getEnv("OPENAI_API_KEY", ""),
		DeepSeekAPIKey:   getEnv("DEEPSEEK_API_KEY", ""),

		QdrantURL:   getEnv("QDRANT_URL", ""),
		RedisURL:    getEnv("REDIS_URL", ""),
		DatabaseURL: getEnv("DATABASE_URL", "file:llm_router.sqlite"),

		ModelsCacheDir: getEnv("MODELS_CACHE_DIR", ""),
		HFModelName:    getEnv("HF_MODEL_NAME", ""),

		ProviderTimeoutSecs: getEnvInt("PROVIDER_TIMEOUT_SECS", 30),

		CORSOrigins: getEnvStringSlice("CORS_ORIGINS", nil),

		VaultEnabled:  getEnvBool("VAULT_ENABLED", false),
		VaultPassword: getEnv("VAULT_PASSWORD", ""),

		OTelEnabled:     getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:    getEnv("OTEL_ENDPOINT", "localhost:4318"),
		OTelServiceName: getEnv("OTEL_SERVICE_NAME", "llm-router"),
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks config values for obviously invalid settings and that an
// API key is present for the active provider.
func (c Config) Validate() error {
	if c.ProviderTimeoutSecs <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT_SECS must be > 0, got %d", c.ProviderTimeoutSecs)
	}
	if c.LogFormat != "json" && c.LogFormat != "text" {
		return fmt.Errorf("LOG_FORMAT must be %q or %q, got %q", "json", "text", c.LogFormat)
	}
	if c.providerAPIKey() == "" {
		return fmt.Errorf("no API key set for LLM_PROVIDER=%q", c.LLMProvider)
	}
	return nil
}

// providerAPIKey returns the API key matching LLMProvider.
func (c Config) providerAPIKey() string {
	switch c.LLMProvider {
	case "google":
		return c.GoogleAPIKey
	case "anthropic":
		return c.AnthropicAPIKey
	case "openai":
		return c.OpenAIAPIKey
	case "deepseek":
		return c.DeepSeekAPIKey
	default:
		return c.OpenRouterAPIKey
	}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err == nil {
			return b
		}
	}
	return def
}

func getEnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err == nil {
			return i
		}
	}
	return def
}

func getEnvStringSlice(key string, def []string) []string {
	if v := os.Getenv(key); v != "" {
		var result []string
		for _, s := range strings.Split(v, ",") {
			s = strings.TrimSpace(s)
			if s != "" {
				result = append(result, s)
			}
		}
		if len(result) > 0 {
			return result
		}
	}
	return def
}
