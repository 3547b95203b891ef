package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/adapters/driven/ai"
	"github.com/custodia-labs/docqa/internal/adapters/driven/config/file"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/docqa/internal/adapters/driven/vector"
	"github.com/custodia-labs/docqa/internal/adapters/driving/cli"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/core/services"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/normalisers"
	"github.com/custodia-labs/docqa/internal/normalisers/html"
	"github.com/custodia-labs/docqa/internal/normalisers/markdown"
	"github.com/custodia-labs/docqa/internal/normalisers/ocr"
	"github.com/custodia-labs/docqa/internal/normalisers/pdf"
	"github.com/custodia-labs/docqa/internal/normalisers/plaintext"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

// persistentCacheEntries bounds the on-disk embedding cache.
const persistentCacheEntries = 200_000

// openSettings opens the settings service for configDir with environment
// overrides applied on read.
func openSettings(configDir string) (driving.SettingsService, error) {
	store, err := file.NewConfigStore(configDir)
	if err != nil {
		return nil, fmt.Errorf("opening config: %w", err)
	}
	logger.Debug("config: %s", store.Path())
	return services.NewSettingsService(store, ai.NewConfigValidator(), services.WithEnv(os.LookupEnv)), nil
}

// buildCore assembles the normalisers, model clients and session store.
func buildCore(ctx context.Context, settings *domain.AppSettings) (*cli.Services, error) {
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	newIndex, err := vector.Factory(settings.RAG.Backend)
	if err != nil {
		return nil, err
	}

	opts := ai.Options{}
	if prompts, err := file.NewPromptStore(promptDir(settings)); err != nil {
		logger.Warn("custom prompts disabled: %v", err)
	} else {
		opts.PromptStore = prompts
	}
	if settings.Embedding.PersistentCache && settings.RAG.Enabled {
		cache, err := openCache(ctx, settings.DataDir)
		if err != nil {
			logger.Warn("persistent embedding cache disabled: %v", err)
		} else {
			opts.EmbeddingCache = cache
			closers = append(closers, func() {
				if err := cache.Close(); err != nil {
					logger.Warn("closing embedding cache: %v", err)
				}
			})
		}
	}

	models := ai.Init(settings, opts)
	closers = append(closers, models.Close)

	engine := ocr.NewEngine(ocr.Config{Langs: settings.OCR.Langs, GPU: settings.OCR.GPU})
	registry := normalisers.NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		pdf.New(engine),
		ocr.New(engine),
	)

	split := chunker.New(
		chunker.WithChunkSize(settings.RAG.ChunkSize),
		chunker.WithOverlap(settings.RAG.ChunkOverlap),
	)

	embedder := models.Embedding
	sessions := services.NewSessionStore(split, embedder, newIndex,
		services.WithRAG(settings.RAG.Enabled && embedder != nil))
	closers = append(closers, func() {
		if err := sessions.Close(); err != nil {
			logger.Warn("closing sessions: %v", err)
		}
	})

	answerOpts := []services.AnswerOption{
		services.WithRAGDefault(sessions.RAGReady()),
		services.WithMaxContextChars(settings.RAG.MaxContextChars),
	}
	if models.Entities != nil {
		answerOpts = append(answerOpts, services.WithEntityExtractor(models.Entities))
	}

	logger.Info("retrieval: %t, backend: %s, formats: %v",
		sessions.RAGReady(), settings.RAG.Backend, registry.SupportedExtensions())

	return &cli.Services{
		Ingest:   services.NewIngestService(sessions, registry),
		Answer:   services.NewAnswerService(sessions, models.Answer, answerOpts...),
		Sessions: sessions,
		Close:    closeAll,
	}, nil
}

// openCache opens the SQLite embedding cache and trims it to size.
func openCache(ctx context.Context, dataDir string) (*sqlite.Store, error) {
	cache, err := sqlite.NewStore(dataDir)
	if err != nil {
		return nil, err
	}
	pruned, err := cache.Prune(ctx, persistentCacheEntries)
	if err != nil {
		logger.Warn("pruning embedding cache: %v", err)
	} else if pruned > 0 {
		logger.Debug("pruned %d cached embeddings", pruned)
	}
	return cache, nil
}

// promptDir places custom prompts next to the data directory when one is set.
func promptDir(settings *domain.AppSettings) string {
	if settings.DataDir == "" {
		return ""
	}
	return filepath.Join(settings.DataDir, "prompts")
}
