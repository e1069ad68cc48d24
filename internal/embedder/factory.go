package embedder

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment variables read by NewFromEnv
const (
	EnvProvider      = "KBCONTEXT_EMBEDDING_PROVIDER"
	EnvModel         = "KBCONTEXT_EMBEDDING_MODEL"
	EnvDimension     = "KBCONTEXT_EMBEDDING_DIMENSION"
	EnvOpenAIAPIKey  = "OPENAI_API_KEY"
	EnvOpenAIBaseURL = "OPENAI_BASE_URL"
)

// Config holds embedder configuration
type Config struct {
	Provider  string
	APIKey    string
	BaseURL   string
	Model     string
	Dimension int
	CacheSize int
	Timeout   time.Duration

	RequestsPerSecond float64
	Burst             int
}

// New creates an embedder with explicit configuration. An empty provider selects
// OpenAI when an API key is present and the hash provider otherwise.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	provider := strings.ToLower(strings.TrimSpace(cfg.Provider))
	if provider == "" {
		provider = detect(cfg.APIKey)
	}

	switch provider {
	case ProviderOpenAI:
		return NewOpenAIProvider(OpenAIConfig{
			APIKey:            cfg.APIKey,
			BaseURL:           cfg.BaseURL,
			Model:             cfg.Model,
			Dimension:         cfg.Dimension,
			Timeout:           cfg.Timeout,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}, cache)
	case ProviderHash, ProviderLocal:
		return NewHashProvider(cfg.Dimension, cache), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %s", ErrUnsupportedModel, cfg.Provider)
	}
}

// NewFromEnv creates an embedder based on environment variables
// Priority:
// 1. KBCONTEXT_EMBEDDING_PROVIDER (openai, hash)
// 2. OPENAI_API_KEY present selects openai
// 3. Default to the hash provider
func NewFromEnv() (Embedder, error) {
	dim := 0
	if v := os.Getenv(EnvDimension); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidInput, EnvDimension, v)
		}
		dim = n
	}

	return New(Config{
		Provider:  os.Getenv(EnvProvider),
		APIKey:    os.Getenv(EnvOpenAIAPIKey),
		BaseURL:   os.Getenv(EnvOpenAIBaseURL),
		Model:     os.Getenv(EnvModel),
		Dimension: dim,
		CacheSize: DefaultCacheSize,
	})
}

// DetectProvider returns the provider that would be used based on current environment
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}
	return detect(os.Getenv(EnvOpenAIAPIKey))
}

func detect(apiKey string) string {
	if apiKey != "" {
		return ProviderOpenAI
	}
	return ProviderHash
}
