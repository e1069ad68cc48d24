package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/dshills/kbcontext-mcp/internal/config"
	"github.com/dshills/kbcontext-mcp/internal/embedder"
	"github.com/dshills/kbcontext-mcp/internal/ingest"
	"github.com/dshills/kbcontext-mcp/internal/searcher"
	"github.com/dshills/kbcontext-mcp/internal/storage"
)

// app holds the components shared by every command. One embedder instance
// serves both ingestion and search so they share its cache.
type app struct {
	logger   *slog.Logger
	store    *storage.SQLiteStorage
	embedder embedder.Embedder
	pipeline *ingest.Pipeline
	searcher *searcher.Searcher
}

func openApp(cfg *config.Config, logger *slog.Logger) (*app, error) {
	if cfg.DBPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	emb, err := embedder.New(cfg.EmbedderConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embedder: %w", err)
	}

	store, err := storage.NewSQLiteStorage(cfg.DBPath, storage.WithDimension(emb.Dimension()))
	if err != nil {
		_ = emb.Close()
		return nil, fmt.Errorf("failed to initialize storage: %w", err)
	}

	logger.Debug("components ready",
		"db", cfg.DBPath, "driver", storage.DriverName, "build_mode", storage.BuildMode,
		"provider", emb.Provider(), "model", emb.Model(), "dimension", emb.Dimension())

	return &app{
		logger:   logger,
		store:    store,
		embedder: emb,
		pipeline: ingest.New(store, emb, cfg.IngestConfig(logger)),
		searcher: searcher.NewSearcher(store, emb, searcher.WithLogger(logger)),
	}, nil
}

func (a *app) Close() error {
	if stats, ok := embedder.CacheStatsOf(a.embedder); ok {
		a.logger.Debug("embedding cache", "entries", stats.Entries, "hits", stats.Hits, "misses", stats.Misses)
	}
	return errors.Join(a.store.Close(), a.embedder.Close())
}
