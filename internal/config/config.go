package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"

	"github.com/dshills/kbcontext-mcp/internal/chunker"
	"github.com/dshills/kbcontext-mcp/internal/embedder"
	"github.com/dshills/kbcontext-mcp/internal/ingest"
)

// Environment variables that override file settings
const (
	EnvDBPath        = "KBCONTEXT_DB_PATH"
	EnvLogLevel      = "KBCONTEXT_LOG_LEVEL"
	EnvCacheSize     = "KBCONTEXT_EMBEDDING_CACHE_SIZE"
	EnvRPS           = "KBCONTEXT_EMBEDDING_RPS"
	EnvBurst         = "KBCONTEXT_EMBEDDING_BURST"
	EnvTimeout       = "KBCONTEXT_EMBEDDING_TIMEOUT"
	EnvChunkSize     = "KBCONTEXT_CHUNK_SIZE"
	EnvChunkOverlap  = "KBCONTEXT_CHUNK_OVERLAP"
	EnvChunkWorkers  = "KBCONTEXT_CHUNK_WORKERS"
	DefaultDBName    = "kbcontext.db"
	DefaultConfigDir = ".kbcontext"
)

// Config is the resolved process configuration
type Config struct {
	DBPath    string          `toml:"db_path"`
	LogLevel  string          `toml:"log_level"`
	Embedding EmbeddingConfig `toml:"embedding"`
	Chunking  ChunkingConfig  `toml:"chunking"`
	Ingest    IngestConfig    `toml:"ingest"`
}

// EmbeddingConfig selects and tunes the embedding provider
type EmbeddingConfig struct {
	Provider          string  `toml:"provider"`
	APIKey            string  `toml:"api_key"`
	Model             string  `toml:"model"`
	BaseURL           string  `toml:"base_url"`
	Dimension         int     `toml:"dimension"`
	CacheSize         int     `toml:"cache_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
	Burst             int     `toml:"burst"`
	TimeoutSeconds    int     `toml:"timeout_seconds"`
}

// ChunkingConfig controls how documents are split
type ChunkingConfig struct {
	ChunkSize int `toml:"chunk_size"`
	Overlap   int `toml:"overlap"`
}

// IngestConfig controls ingestion concurrency
type IngestConfig struct {
	ChunkWorkers int `toml:"chunk_workers"`
}

// Default returns the built-in configuration
func Default() *Config {
	return &Config{
		DBPath:   DefaultDBPath(),
		LogLevel: "info",
		Embedding: EmbeddingConfig{
			Dimension:      embedder.DefaultDimension,
			CacheSize:      embedder.DefaultCacheSize,
			TimeoutSeconds: 30,
		},
		Chunking: ChunkingConfig{
			ChunkSize: chunker.DefaultChunkSize,
			Overlap:   chunker.DefaultOverlap,
		},
		Ingest: IngestConfig{
			ChunkWorkers: ingest.DefaultChunkWorkers,
		},
	}
}

// DefaultDBPath returns ~/.kbcontext/kbcontext.db, or a relative path when
// the home directory is unknown
func DefaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return DefaultDBName
	}
	return filepath.Join(home, DefaultConfigDir, DefaultDBName)
}

// DefaultFilePath returns ~/.kbcontext/config.toml
func DefaultFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, DefaultConfigDir, "config.toml")
}

// Load resolves configuration from defaults, the TOML file at path, .env files
// and the environment, in that order. An empty path tries DefaultFilePath and
// tolerates its absence; an explicit path must exist. envFiles default to
// ".env" in the working directory and are optional.
func Load(path string, envFiles ...string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultFilePath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, fs.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := loadEnvFiles(envFiles); err != nil {
		return nil, err
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// loadEnvFiles populates the environment from .env files without overriding
// variables that are already set
func loadEnvFiles(files []string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}

	existing := make([]string, 0, len(files))
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			existing = append(existing, f)
		}
	}
	if len(existing) == 0 {
		return nil
	}

	if err := godotenv.Load(existing...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

type lookupFunc func(string) (string, bool)

func (c *Config) applyEnv(lookup lookupFunc) error {
	setString := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	setInt := func(key string, dst *int) error {
		v, ok := lookup(key)
		if !ok || strings.TrimSpace(v) == "" {
			return nil
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", key, v, err)
		}
		*dst = n
		return nil
	}

	setString(EnvDBPath, &c.DBPath)
	setString(EnvLogLevel, &c.LogLevel)
	setString(embedder.EnvProvider, &c.Embedding.Provider)
	setString(embedder.EnvModel, &c.Embedding.Model)
	setString(embedder.EnvOpenAIAPIKey, &c.Embedding.APIKey)
	setString(embedder.EnvOpenAIBaseURL, &c.Embedding.BaseURL)

	ints := []struct {
		key string
		dst *int
	}{
		{embedder.EnvDimension, &c.Embedding.Dimension},
		{EnvCacheSize, &c.Embedding.CacheSize},
		{EnvBurst, &c.Embedding.Burst},
		{EnvTimeout, &c.Embedding.TimeoutSeconds},
		{EnvChunkSize, &c.Chunking.ChunkSize},
		{EnvChunkOverlap, &c.Chunking.Overlap},
		{EnvChunkWorkers, &c.Ingest.ChunkWorkers},
	}
	for _, e := range ints {
		if err := setInt(e.key, e.dst); err != nil {
			return err
		}
	}

	if v, ok := lookup(EnvRPS); ok && strings.TrimSpace(v) != "" {
		rps, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s=%q: %w", EnvRPS, v, err)
		}
		c.Embedding.RequestsPerSecond = rps
	}

	return nil
}

// Validate rejects settings no component can work with
func (c *Config) Validate() error {
	if strings.TrimSpace(c.DBPath) == "" {
		return errors.New("db_path is required")
	}
	if _, err := parseLevel(c.LogLevel); err != nil {
		return err
	}

	switch strings.ToLower(c.Embedding.Provider) {
	case "", embedder.ProviderOpenAI, embedder.ProviderHash, embedder.ProviderLocal:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	if c.Embedding.Dimension < 0 {
		return fmt.Errorf("embedding dimension cannot be negative, got %d", c.Embedding.Dimension)
	}
	if c.Embedding.RequestsPerSecond < 0 || c.Embedding.Burst < 0 {
		return errors.New("embedding rate limits cannot be negative")
	}
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("overlap must be in [0, chunk_size), got %d", c.Chunking.Overlap)
	}
	if c.Ingest.ChunkWorkers <= 0 {
		return fmt.Errorf("chunk_workers must be positive, got %d", c.Ingest.ChunkWorkers)
	}
	return nil
}

// EmbedderConfig converts the embedding section for embedder.New
func (c *Config) EmbedderConfig() embedder.Config {
	return embedder.Config{
		Provider:          c.Embedding.Provider,
		APIKey:            c.Embedding.APIKey,
		BaseURL:           c.Embedding.BaseURL,
		Model:             c.Embedding.Model,
		Dimension:         c.Embedding.Dimension,
		CacheSize:         c.Embedding.CacheSize,
		Timeout:           time.Duration(c.Embedding.TimeoutSeconds) * time.Second,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
		Burst:             c.Embedding.Burst,
	}
}

// IngestConfig converts the chunking and ingest sections for ingest.New
func (c *Config) IngestConfig(logger *slog.Logger) *ingest.Config {
	overlap := c.Chunking.Overlap
	if overlap == 0 {
		// an explicit zero disables overlap rather than selecting the default
		overlap = -1
	}
	return &ingest.Config{
		ChunkSize:    c.Chunking.ChunkSize,
		Overlap:      overlap,
		ChunkWorkers: c.Ingest.ChunkWorkers,
		Logger:       logger,
	}
}

// Level returns the configured slog level
func (c *Config) Level() slog.Level {
	level, _ := parseLevel(c.LogLevel)
	return level
}

func parseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
	}
}
