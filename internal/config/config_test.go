package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/kbcontext-mcp/internal/chunker"
	"github.com/dshills/kbcontext-mcp/internal/embedder"
)

var allEnv = []string{
	EnvDBPath, EnvLogLevel, EnvCacheSize, EnvRPS, EnvBurst, EnvTimeout,
	EnvChunkSize, EnvChunkOverlap, EnvChunkWorkers,
	embedder.EnvProvider, embedder.EnvModel, embedder.EnvDimension,
	embedder.EnvOpenAIAPIKey, embedder.EnvOpenAIBaseURL,
}

// isolate points HOME at an empty directory and clears every variable Load reads
func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	for _, key := range allEnv {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	return home
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("", filepath.Join(home, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, DefaultConfigDir, DefaultDBName), cfg.DBPath)
	assert.Equal(t, slog.LevelInfo, cfg.Level())
	assert.Equal(t, embedder.DefaultDimension, cfg.Embedding.Dimension)
	assert.Equal(t, 3000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 300, cfg.Chunking.Overlap)
	assert.Equal(t, 4, cfg.Ingest.ChunkWorkers)
	assert.Empty(t, cfg.Embedding.Provider)
}

func TestLoad_File(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, home, "kb.toml", `
db_path = "/tmp/kb.db"
log_level = "debug"

[embedding]
provider = "hash"
dimension = 64
requests_per_second = 2.5
burst = 3
timeout_seconds = 5

[chunking]
chunk_size = 1000
overlap = 100

[ingest]
chunk_workers = 8
`)

	cfg, err := Load(path, filepath.Join(home, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/kb.db", cfg.DBPath)
	assert.Equal(t, slog.LevelDebug, cfg.Level())
	assert.Equal(t, "hash", cfg.Embedding.Provider)
	assert.Equal(t, 64, cfg.Embedding.Dimension)
	assert.Equal(t, 1000, cfg.Chunking.ChunkSize)
	assert.Equal(t, 8, cfg.Ingest.ChunkWorkers)

	ec := cfg.EmbedderConfig()
	assert.Equal(t, 2.5, ec.RequestsPerSecond)
	assert.Equal(t, 3, ec.Burst)
	assert.Equal(t, 5*time.Second, ec.Timeout)
	// Unset keys keep their defaults
	assert.Equal(t, embedder.DefaultCacheSize, ec.CacheSize)

	ic := cfg.IngestConfig(nil)
	assert.Equal(t, 1000, ic.ChunkSize)
	assert.Equal(t, 100, ic.Overlap)
	assert.Equal(t, 8, ic.ChunkWorkers)
}

func TestIngestConfig_Overlap(t *testing.T) {
	cfg := Default()
	assert.Equal(t, chunker.DefaultOverlap, cfg.IngestConfig(nil).Overlap)

	cfg.Chunking.Overlap = 0
	assert.Negative(t, cfg.IngestConfig(nil).Overlap, "zero overlap must not fall back to the default")
}

func TestLoad_DefaultFileInHome(t *testing.T) {
	home := isolate(t)
	require.NoError(t, os.MkdirAll(filepath.Join(home, DefaultConfigDir), 0700))
	writeFile(t, filepath.Join(home, DefaultConfigDir), "config.toml", `log_level = "warn"`)

	cfg, err := Load("", filepath.Join(home, "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, slog.LevelWarn, cfg.Level())
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	home := isolate(t)

	_, err := Load(filepath.Join(home, "nope.toml"))
	assert.Error(t, err)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, home, "kb.toml", `
db_path = "/tmp/file.db"

[embedding]
provider = "hash"
`)

	t.Setenv(EnvDBPath, "/tmp/env.db")
	t.Setenv(embedder.EnvProvider, "openai")
	t.Setenv(embedder.EnvOpenAIAPIKey, "sk-test")
	t.Setenv(embedder.EnvDimension, "256")
	t.Setenv(EnvRPS, "1.5")
	t.Setenv(EnvChunkWorkers, "2")

	cfg, err := Load(path, filepath.Join(home, "missing.env"))
	require.NoError(t, err)

	assert.Equal(t, "/tmp/env.db", cfg.DBPath)
	assert.Equal(t, "openai", cfg.Embedding.Provider)
	assert.Equal(t, "sk-test", cfg.Embedding.APIKey)
	assert.Equal(t, 256, cfg.Embedding.Dimension)
	assert.Equal(t, 1.5, cfg.Embedding.RequestsPerSecond)
	assert.Equal(t, 2, cfg.Ingest.ChunkWorkers)
}

func TestLoad_EnvFile(t *testing.T) {
	home := isolate(t)
	envFile := writeFile(t, home, "test.env", "KBCONTEXT_DB_PATH=/tmp/dotenv.db\nKBCONTEXT_CHUNK_SIZE=1200\n")

	// Real environment wins over the file
	t.Setenv(EnvChunkSize, "1500")

	cfg, err := Load("", envFile)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/dotenv.db", cfg.DBPath)
	assert.Equal(t, 1500, cfg.Chunking.ChunkSize)
}

func TestLoad_InvalidEnv(t *testing.T) {
	home := isolate(t)
	t.Setenv(EnvChunkSize, "big")

	_, err := Load("", filepath.Join(home, "missing.env"))
	assert.Error(t, err)
}

func TestLoad_InvalidFile(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, home, "bad.toml", "db_path = [")

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty db path", func(c *Config) { c.DBPath = " " }, true},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }, true},
		{"unknown provider", func(c *Config) { c.Embedding.Provider = "jina" }, true},
		{"local alias", func(c *Config) { c.Embedding.Provider = "local" }, false},
		{"negative dimension", func(c *Config) { c.Embedding.Dimension = -1 }, true},
		{"negative rps", func(c *Config) { c.Embedding.RequestsPerSecond = -1 }, true},
		{"zero chunk size", func(c *Config) { c.Chunking.ChunkSize = 0 }, true},
		{"overlap too large", func(c *Config) { c.Chunking.Overlap = c.Chunking.ChunkSize }, true},
		{"no workers", func(c *Config) { c.Ingest.ChunkWorkers = 0 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
