// Package app assembles the driven adapters and core services from settings.
package app

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/ai"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/config/file"
	ledgerfile "github.com/custodia-labs/oceanai-cli/internal/adapters/driven/ledger/file"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/parser/argo"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/storage/artifact"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/storage/demo"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/storage/postgres"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/oceanai-cli/internal/adapters/driven/vector/flat"
	"github.com/custodia-labs/oceanai-cli/internal/core/domain"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driven"
	"github.com/custodia-labs/oceanai-cli/internal/core/ports/driving"
	"github.com/custodia-labs/oceanai-cli/internal/core/services"
	"github.com/custodia-labs/oceanai-cli/internal/logger"
)

// Config is everything App needs to start.
type Config struct {
	// Settings are the resolved application settings.
	Settings domain.AppSettings

	// Scheduler configures periodic ingestion and index rebuilds.
	Scheduler domain.SchedulerConfig

	// PromptDir holds user-editable prompt templates. Empty disables the prompt store.
	PromptDir string
}

// App holds the wired services. Search is nil until an index has been built;
// SearchErr then holds the *domain.IndexInitError that prevented loading it.
type App struct {
	Ingest    *services.IngestionService
	Index     *services.IndexService
	Search    *services.VectorSearchService
	SearchErr error
	Router    *services.Router
	Retrieval *services.RetrievalService
	Floats    *services.FloatService
	Scheduler *services.Scheduler

	settings  domain.AppSettings
	prompts   driven.PromptStore
	ai        *ai.InitResult
	artifacts *artifact.Store
	queries   driven.ProfileQueries
	closers   []func() error
}

// New opens the stores and builds every service. AI providers that cannot be
// reached are disabled with a warning rather than failing startup.
func New(ctx context.Context, cfg Config) (*App, error) {
	a := &App{settings: cfg.Settings}
	s := &cfg.Settings

	local, err := sqlite.NewStore(s.Storage.DataDir)
	if err != nil {
		return nil, fmt.Errorf("opening local store: %w", err)
	}
	a.closers = append(a.closers, local.Close)

	var (
		store   driven.ProfileStore
		queries driven.ProfileQueries
	)
	switch s.Storage.Backend {
	case domain.StoragePostgres:
		pg, err := postgres.NewStore(ctx, s.Storage.PostgresDSN)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		a.closers = append(a.closers, pg.Close)
		store, queries = pg.Profiles(), pg.Profiles()
	default:
		store, queries = local.Profiles(), local.Profiles()
	}
	if s.DemoData {
		queries = demo.NewQueries(queries)
	}
	a.queries = queries

	ledger, err := ledgerfile.NewLedger(s.Ingest.LedgerPath)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening ingestion ledger: %w", err)
	}

	a.artifacts, err = artifact.NewStore(s.Index.Dir)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("opening index directory: %w", err)
	}

	if cfg.PromptDir != "" {
		prompts, err := file.NewPromptStore(cfg.PromptDir)
		if err != nil {
			logger.Warn("prompt store unavailable, using built-in prompts", "dir", cfg.PromptDir, "error", err)
		} else {
			a.prompts = prompts
		}
	}

	a.ai = ai.Init(ctx, s)
	a.closers = append(a.closers, func() error {
		a.ai.Close()
		return nil
	})

	a.Ingest = services.NewIngestionService(services.IngestConfig{
		SourceDir:           s.Ingest.SourceDir,
		Extension:           s.Ingest.Extension,
		BatchSize:           s.Ingest.BatchSize,
		RequireInstrumentID: s.Ingest.RequireInstrumentID,
	}, argo.NewParser(), store, ledger)

	a.Index = services.NewIndexService(queries, a.ai.EmbeddingService, a.artifacts, services.IndexConfig{
		RateLimit:   s.Embedding.RateLimit,
		Concurrency: s.Embedding.Concurrency,
	})

	a.Router = services.NewRouter(queries)
	a.Floats = services.NewFloatService(queries, nil)

	a.loadSearch(ctx)

	a.Scheduler = services.NewScheduler(cfg.Scheduler, local.SchedulerStore(), a.Ingest, a.Index)

	return a, nil
}

// loadSearch opens the active index generation once at startup and builds
// the retrieval service around it. A missing or mismatched index leaves
// Search nil and records the error in SearchErr; serving commands refuse
// to start on it.
func (a *App) loadSearch(ctx context.Context) {
	search, err := services.NewVectorSearchService(ctx, a.ai.EmbeddingService, a.artifacts, flat.Factory)
	a.Search, a.SearchErr = search, err
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrIndexNotFound):
		logger.Debug("no index built yet, semantic search disabled", "dir", a.artifacts.Dir())
		a.Search = nil
	default:
		logger.Warn("semantic search disabled", "error", err)
		a.Search = nil
	}

	var related driving.VectorSearchService
	if a.Search != nil {
		related = a.Search
	}
	a.Retrieval = services.NewRetrievalService(a.Router, related, a.ai.LLMService, a.prompts, services.RetrievalConfig{
		RelatedFloats: a.settings.Index.RelatedFloats,
		Timeout:       a.settings.LLM.Timeout,
	})
}

// Warnings returns non-fatal startup problems.
func (a *App) Warnings() []string {
	return a.ai.Warnings
}

// Close releases every resource in reverse order of acquisition.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

// PromptDir returns the prompt directory under an application home.
func PromptDir(home string) string {
	return filepath.Join(home, "prompts")
}
