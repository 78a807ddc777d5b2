package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/quillnote/recall/internal/config"
	"github.com/quillnote/recall/internal/connectivity"
	"github.com/quillnote/recall/internal/embedding"
	"github.com/quillnote/recall/internal/modelselect"
	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/rag"
	"github.com/quillnote/recall/internal/semantic"
	"github.com/quillnote/recall/internal/storage"
)

// ErrNoNoteSource is returned when neither notes.dir nor notes.jsonl is set.
var ErrNoNoteSource = errors.New("no note source configured; set notes.dir or notes.jsonl in the config file")

// app holds the wired components shared by the commands.
type app struct {
	settings  *config.Settings
	logger    *slog.Logger
	backend   embedding.Backend
	store     storage.Store
	monitor   *connectivity.Monitor
	models    *modelselect.Policy
	indexer   *semantic.Indexer
	engine    *semantic.Engine
	assembler *rag.Assembler
}

// newApp wires every component from settings.
// The caller is responsible for calling Close() on the returned app.
func newApp(ctx context.Context, settings *config.Settings, logger *slog.Logger) (*app, error) {
	store, err := openStore(ctx, settings)
	if err != nil {
		return nil, err
	}

	backend := newBackend(settings)

	monitor := connectivity.NewMonitor(backend,
		connectivity.WithTTL(settings.ConnectivityTTL()),
		connectivity.WithWait(settings.ConnectivityWait()),
		connectivity.WithProbeTimeout(settings.EmbedTimeout()),
		connectivity.WithLogger(logger),
	)

	models := modelselect.NewPolicy(backend,
		modelselect.WithOverride(modelselect.Embedding, settings.Models.Embedding),
		modelselect.WithOverride(modelselect.Chat, settings.Models.Chat),
		modelselect.WithTTL(settings.ModelCacheTTL()),
	)

	indexer := semantic.NewIndexer(backend, models, store)
	indexer.SetLogger(logger)

	engine := semantic.NewEngine(backend, models, store, settings, monitor)
	engine.SetLogger(logger)

	assembler := rag.NewAssembler(engine)
	assembler.SetLogger(logger)

	return &app{
		settings:  settings,
		logger:    logger,
		backend:   backend,
		store:     store,
		monitor:   monitor,
		models:    models,
		indexer:   indexer,
		engine:    engine,
		assembler: assembler,
	}, nil
}

// Close releases the store.
func (a *app) Close() error {
	return a.store.Close()
}

// loadNotes reads every configured note source.
func (a *app) loadNotes() ([]notes.Note, error) {
	return loadNotes(a.settings)
}

// mustNewApp wires the app with a logger that reports warnings, exits on error.
func mustNewApp(ctx context.Context) *app {
	return mustNewAppWithLogger(ctx, newLogger(slog.LevelWarn))
}

// mustNewAppWithLogger wires the app, exits on error.
func mustNewAppWithLogger(ctx context.Context, logger *slog.Logger) *app {
	a, err := newApp(ctx, mustLoadSettings(), logger)
	if err != nil {
		exitWithError(ExitError, "%v", err)
	}
	return a
}

// mustLoadNotes loads notes, exits on error.
func (a *app) mustLoadNotes() []notes.Note {
	all, err := a.loadNotes()
	if err != nil {
		exitWithCoreError("loading notes", err)
	}
	return all
}

// openStore opens the configured embedding store.
func openStore(ctx context.Context, s *config.Settings) (storage.Store, error) {
	switch s.Store.Backend {
	case config.StoreMemory:
		return storage.NewMemoryStore(), nil
	case config.StorePostgres:
		db, err := storage.OpenPostgres(ctx, s.Store.PostgresDSN)
		if err != nil {
			return nil, fmt.Errorf("opening postgres store: %w", err)
		}
		return db, nil
	default:
		db, err := storage.OpenDB(s.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		return db, nil
	}
}

// newBackend creates the configured embedding backend.
func newBackend(s *config.Settings) embedding.Backend {
	if s.Embedder.Backend == config.BackendOpenAI {
		opts := []embedding.OpenAIOption{
			embedding.WithOpenAITimeout(s.EmbedTimeout()),
			embedding.WithOpenAIRateLimit(s.Embedder.RequestsPerSecond),
		}
		if s.Embedder.OpenAIBaseURL != "" {
			opts = append(opts, embedding.WithOpenAIBaseURL(s.Embedder.OpenAIBaseURL))
		}
		if s.Models.Embedding != "" {
			opts = append(opts, embedding.WithOpenAIModel(s.Models.Embedding))
		}
		return embedding.NewOpenAIProvider(s.OpenAIAPIKey(), opts...)
	}

	opts := []embedding.OllamaOption{
		embedding.WithBaseURL(s.Embedder.OllamaURL),
		embedding.WithTimeout(s.EmbedTimeout()),
		embedding.WithRateLimit(s.Embedder.RequestsPerSecond),
	}
	if s.Models.Embedding != "" {
		opts = append(opts, embedding.WithModel(s.Models.Embedding))
	}
	return embedding.NewOllamaProvider(opts...)
}

// loadNotes reads the JSONL export and the notes directory, in that order.
// A note id present in both keeps the directory version.
func loadNotes(s *config.Settings) ([]notes.Note, error) {
	if s.Notes.JSONL == "" && s.Notes.Dir == "" {
		return nil, ErrNoNoteSource
	}

	var all []notes.Note
	if s.Notes.JSONL != "" {
		fromJSONL, err := notes.ReadJSONL(s.Notes.JSONL)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.Notes.JSONL, err)
		}
		all = append(all, fromJSONL...)
	}
	if s.Notes.Dir != "" {
		fromDir, err := notes.LoadDir(s.Notes.Dir)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", s.Notes.Dir, err)
		}
		for _, n := range fromDir {
			if i, ok := notes.FindByID(all, n.ID); ok {
				all[i] = n
				continue
			}
			all = append(all, n)
		}
	}
	return all, nil
}
