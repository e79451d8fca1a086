package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"go-ultrasound-inspector/pkg/validation"
)

const (
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

type Config struct {
	Host               string
	Port               string
	RequestTimeout     time.Duration
	AnalysisTimeout    time.Duration
	MaxRequestBodySize int64
	LogLevel           string

	// Image intake
	MaxImagePixels    int64
	MaxImageDimension int

	Provider ProviderConfig
	Archive  ArchiveConfig

	// PromptFile optionally points at a YAML file overriding the analysis prompt
	PromptFile string
}

// ProviderConfig selects and configures the generative model backend
type ProviderConfig struct {
	Type string

	GeminiAPIKey string
	GeminiModel  string

	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
}

// Model returns the model id of the selected provider
func (p ProviderConfig) Model() string {
	if p.Type == ProviderOpenAI {
		return p.OpenAIModel
	}
	return p.GeminiModel
}

// ArchiveConfig holds the optional Azure Blob archive settings
type ArchiveConfig struct {
	AzureAccount   string
	AzureKey       string
	AzureContainer string
	Workers        int
}

// Enabled reports whether all archive credentials are present
func (a ArchiveConfig) Enabled() bool {
	return a.AzureAccount != "" && a.AzureKey != "" && a.AzureContainer != ""
}

func (c *Config) ServerAddress() string {
	host := strings.TrimSpace(c.Host)
	port := strings.TrimSpace(c.Port)
	return net.JoinHostPort(host, port)
}

func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		Host:               getEnvOrDefault("HOST", "0.0.0.0"),
		Port:               getEnvOrDefault("PORT", "5000"),
		RequestTimeout:     parseDurationOrDefault("REQUEST_TIMEOUT", 90*time.Second),
		AnalysisTimeout:    parseDurationOrDefault("ANALYSIS_TIMEOUT", 60*time.Second),
		MaxRequestBodySize: parseIntOrDefault("MAX_REQUEST_BODY_SIZE", 10*1024*1024), // 10MB
		LogLevel:           getEnvOrDefault("LOG_LEVEL", "info"),
		MaxImagePixels:     parseIntOrDefault("MAX_IMAGE_PIXELS", 40_000_000),
		MaxImageDimension:  int(parseIntOrDefault("MAX_IMAGE_DIMENSION", 2048)),
		PromptFile:         strings.TrimSpace(os.Getenv("PROMPT_FILE")),
		Provider: ProviderConfig{
			Type:          strings.ToLower(getEnvOrDefault("PROVIDER", ProviderGemini)),
			GeminiAPIKey:  strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
			GeminiModel:   getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIAPIKey:  strings.TrimSpace(os.Getenv("OPENAI_API_KEY")),
			OpenAIBaseURL: strings.TrimSpace(os.Getenv("OPENAI_BASE_URL")),
			OpenAIModel:   getEnvOrDefault("OPENAI_MODEL", "gpt-4o-mini"),
		},
		Archive: ArchiveConfig{
			AzureAccount:   strings.TrimSpace(os.Getenv("ARCHIVE_AZURE_ACCOUNT")),
			AzureKey:       strings.TrimSpace(os.Getenv("ARCHIVE_AZURE_KEY")),
			AzureContainer: strings.TrimSpace(os.Getenv("ARCHIVE_AZURE_CONTAINER")),
			Workers:        int(parseIntOrDefault("ARCHIVE_WORKERS", 2)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and required secrets
func (c *Config) Validate() error {
	p, err := strconv.Atoi(strings.TrimSpace(c.Port))
	if err != nil || p < 1 || p > 65535 {
		return fmt.Errorf("invalid PORT: %q", c.Port)
	}
	if c.MaxRequestBodySize <= 0 {
		return fmt.Errorf("MAX_REQUEST_BODY_SIZE must be > 0 (got %d)", c.MaxRequestBodySize)
	}
	if c.MaxImagePixels <= 0 {
		return fmt.Errorf("MAX_IMAGE_PIXELS must be > 0 (got %d)", c.MaxImagePixels)
	}
	if c.MaxImageDimension < 0 {
		return fmt.Errorf("MAX_IMAGE_DIMENSION must be >= 0 (got %d)", c.MaxImageDimension)
	}
	if c.RequestTimeout <= 0 || c.AnalysisTimeout <= 0 {
		return fmt.Errorf("timeouts must be > 0 (got request=%s, analysis=%s)",
			c.RequestTimeout, c.AnalysisTimeout)
	}

	switch c.Provider.Type {
	case ProviderGemini:
		if c.Provider.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when PROVIDER=%s", ProviderGemini)
		}
	case ProviderOpenAI:
		if c.Provider.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when PROVIDER=%s", ProviderOpenAI)
		}
		if c.Provider.OpenAIBaseURL != "" {
			if err := validation.NewURLValidator().ValidateEndpoint(c.Provider.OpenAIBaseURL); err != nil {
				return fmt.Errorf("invalid OPENAI_BASE_URL: %w", err)
			}
		}
	default:
		return fmt.Errorf("unsupported PROVIDER: %q", c.Provider.Type)
	}

	if c.Archive.Enabled() && c.Archive.Workers <= 0 {
		return fmt.Errorf("ARCHIVE_WORKERS must be > 0 (got %d)", c.Archive.Workers)
	}
	return nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && duration > 0 {
			return duration
		}
	}
	return defaultValue
}

func parseIntOrDefault(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}
