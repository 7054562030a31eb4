// Package config handles service configuration from environment variables
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/walletroast/walletroast/internal/models"
)

// Config holds all service configuration
type Config struct {
	// Server settings
	HTTPAddr  string
	MCPAddr   string // empty disables the MCP listener
	LogLevel  string
	LogFormat string // "console" or "json"

	// Chain + providers
	ChainID             int64
	GoPlusBaseURL       string
	GoPlusTaxAsFraction bool
	AlchemyAPIKey       string
	AlchemyURL          string // overrides the network's Alchemy endpoint, API key included

	// Narrative generator
	LLMProvider         string // "gemini" or "openai"
	GeminiAPIKey        string
	OpenAIAPIKey        string
	LLMModel            string
	GeneratorTimeout    time.Duration
	GeneratorMaxRetries int

	// Pipeline limits
	ProviderTimeout     time.Duration
	MaxWalletTokens     int
	MetadataConcurrency int

	// Tracing
	OTLPEndpoint string
	OTLPInsecure bool
}

const (
	DefaultHTTPAddr            = ":8080"
	DefaultLogLevel            = "info"
	DefaultLogFormat           = "console"
	DefaultChainID             = 1
	DefaultGoPlusBaseURL       = "https://api.gopluslabs.io"
	DefaultLLMProvider         = ProviderGemini
	DefaultGeminiModel         = "gemini-2.5-flash"
	DefaultOpenAIModel         = "gpt-4o-mini"
	DefaultProviderTimeout     = 15 * time.Second
	DefaultGeneratorTimeout    = 60 * time.Second
	DefaultMaxWalletTokens     = 15
	DefaultMetadataConcurrency = 5

	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Load reads configuration from environment variables.
// A .env file is loaded first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		HTTPAddr:            getEnv("HTTP_ADDR", DefaultHTTPAddr),
		MCPAddr:             os.Getenv("MCP_ADDR"),
		LogLevel:            getEnv("LOG_LEVEL", DefaultLogLevel),
		LogFormat:           getEnv("LOG_FORMAT", DefaultLogFormat),
		ChainID:             getEnvInt64("CHAIN_ID", DefaultChainID),
		GoPlusBaseURL:       getEnv("GOPLUS_BASE_URL", DefaultGoPlusBaseURL),
		GoPlusTaxAsFraction: getEnvBool("GOPLUS_TAX_AS_FRACTION", false),
		AlchemyAPIKey:       os.Getenv("ALCHEMY_API_KEY"),
		AlchemyURL:          os.Getenv("ALCHEMY_URL"),
		LLMProvider:         strings.ToLower(getEnv("LLM_PROVIDER", DefaultLLMProvider)),
		GeminiAPIKey:        os.Getenv("GEMINI_API_KEY"),
		OpenAIAPIKey:        os.Getenv("OPENAI_API_KEY"),
		LLMModel:            os.Getenv("LLM_MODEL"),
		GeneratorTimeout:    getEnvDuration("GENERATOR_TIMEOUT", DefaultGeneratorTimeout),
		GeneratorMaxRetries: int(getEnvInt64("GENERATOR_MAX_RETRIES", 0)),
		ProviderTimeout:     getEnvDuration("PROVIDER_TIMEOUT", DefaultProviderTimeout),
		MaxWalletTokens:     int(getEnvInt64("MAX_WALLET_TOKENS", DefaultMaxWalletTokens)),
		MetadataConcurrency: int(getEnvInt64("METADATA_CONCURRENCY", DefaultMetadataConcurrency)),
		OTLPEndpoint:        os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		OTLPInsecure:        getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", true),
	}

	if cfg.LLMModel == "" {
		cfg.LLMModel = cfg.defaultModel()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and in range
func (c *Config) Validate() error {
	switch c.LLMProvider {
	case ProviderGemini:
		if c.GeminiAPIKey == "" {
			return fmt.Errorf("GEMINI_API_KEY is required when LLM_PROVIDER=gemini")
		}
	case ProviderOpenAI:
		if c.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY is required when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderGemini, ProviderOpenAI, c.LLMProvider)
	}

	if c.LogFormat != "console" && c.LogFormat != "json" {
		return fmt.Errorf("LOG_FORMAT must be console or json, got %q", c.LogFormat)
	}
	if !models.IsValidNetwork(c.ChainID) {
		return fmt.Errorf("CHAIN_ID %d is not a supported network", c.ChainID)
	}
	if c.GoPlusBaseURL == "" {
		return fmt.Errorf("GOPLUS_BASE_URL is required")
	}
	if c.ProviderTimeout <= 0 || c.GeneratorTimeout <= 0 {
		return fmt.Errorf("PROVIDER_TIMEOUT and GENERATOR_TIMEOUT must be positive")
	}
	if c.GeneratorMaxRetries < 0 {
		return fmt.Errorf("GENERATOR_MAX_RETRIES must not be negative")
	}
	if c.MaxWalletTokens < 1 || c.MaxWalletTokens > 100 {
		return fmt.Errorf("MAX_WALLET_TOKENS must be between 1 and 100, got %d", c.MaxWalletTokens)
	}
	if c.MetadataConcurrency < 1 {
		return fmt.Errorf("METADATA_CONCURRENCY must be at least 1")
	}

	return nil
}

// SimulationEnabled reports whether an Alchemy endpoint can be built
func (c *Config) SimulationEnabled() bool {
	return c.AlchemyAPIKey != "" || c.AlchemyURL != ""
}

// RPCURL is the Alchemy JSON-RPC endpoint for the configured chain
func (c *Config) RPCURL() string {
	if c.AlchemyURL != "" {
		return c.AlchemyURL
	}
	network, ok := models.GetNetwork(c.ChainID)
	if !ok || network.AlchemyURL == "" {
		return ""
	}
	return network.RPCURL(c.AlchemyAPIKey)
}

// GoPlusChainID is the chain identifier GoPlus expects for the configured chain
func (c *Config) GoPlusChainID() string {
	if network, ok := models.GetNetwork(c.ChainID); ok && network.GoPlusChainID != "" {
		return network.GoPlusChainID
	}
	return strconv.FormatInt(c.ChainID, 10)
}

func (c *Config) defaultModel() string {
	if c.LLMProvider == ProviderOpenAI {
		return DefaultOpenAIModel
	}
	return DefaultGeminiModel
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.ParseInt(value, 10, 64); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
