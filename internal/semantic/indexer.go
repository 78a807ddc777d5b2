package semantic

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/quillnote/recall/internal/embedding"
	"github.com/quillnote/recall/internal/modelselect"
	"github.com/quillnote/recall/internal/notes"
	"github.com/quillnote/recall/internal/storage"
	"github.com/quillnote/recall/internal/textnorm"
)

// ProgressReporter receives progress updates during reindexing.
type ProgressReporter interface {
	// OnProgress is called with the current progress.
	OnProgress(current, total int)
}

// ProgressFunc is a function adapter for ProgressReporter.
type ProgressFunc func(current, total int)

// OnProgress implements ProgressReporter.
func (f ProgressFunc) OnProgress(current, total int) {
	f(current, total)
}

// Indexer keeps stored embeddings consistent with note content.
//
// Writes for the same page are not serialized here; concurrent calls for
// one page resolve as last write wins in the store.
type Indexer struct {
	provider embedding.Provider
	models   modelselect.Selector
	store    Store
	progress ProgressReporter
	logger   *slog.Logger
	now      func() time.Time
}

// NewIndexer creates an Indexer.
func NewIndexer(provider embedding.Provider, models modelselect.Selector, store Store) *Indexer {
	return &Indexer{
		provider: provider,
		models:   models,
		store:    store,
		logger:   discardLogger(),
		now:      time.Now,
	}
}

// SetProgressReporter sets the progress reporter used by Reindex.
func (ix *Indexer) SetProgressReporter(reporter ProgressReporter) {
	ix.progress = reporter
}

// SetLogger sets the logger. A nil logger discards output.
func (ix *Indexer) SetLogger(logger *slog.Logger) {
	if logger == nil {
		logger = discardLogger()
	}
	ix.logger = logger
}

// Embed computes a fresh embedding for the page and stores it. Text below
// MinEmbeddingTextLength removes any existing record instead. Errors from
// the embedding provider are returned unchanged.
func (ix *Indexer) Embed(ctx context.Context, pageID, title, body string) (Outcome, error) {
	text := textnorm.BuildEmbeddingText(title, body)
	if textnorm.Length(text) < MinEmbeddingTextLength {
		return OutcomeSkipped, ix.retire(ctx, pageID)
	}
	return OutcomeEmbedded, ix.embed(ctx, pageID, text, textnorm.Fingerprint(text))
}

// EmbedIfChanged behaves like Embed but does nothing when the stored
// fingerprint already matches the page's text.
func (ix *Indexer) EmbedIfChanged(ctx context.Context, pageID, title, body string) (Outcome, error) {
	text := textnorm.BuildEmbeddingText(title, body)
	if textnorm.Length(text) < MinEmbeddingTextLength {
		return OutcomeSkipped, ix.retire(ctx, pageID)
	}

	fp := textnorm.Fingerprint(text)
	existing, err := ix.store.Get(ctx, pageID)
	if err != nil {
		return OutcomeEmbedded, fmt.Errorf("loading embedding for %s: %w", pageID, err)
	}
	if existing != nil && existing.Fingerprint == fp {
		return OutcomeUnchanged, nil
	}

	return OutcomeEmbedded, ix.embed(ctx, pageID, text, fp)
}

// Remove deletes the page's record. Removing a page without a record is
// not an error.
func (ix *Indexer) Remove(ctx context.Context, pageID string) error {
	if err := ix.store.Delete(ctx, pageID); err != nil {
		return fmt.Errorf("removing embedding for %s: %w", pageID, err)
	}
	ix.logger.Debug("removed embedding", "page_id", pageID)
	return nil
}

func (ix *Indexer) retire(ctx context.Context, pageID string) error {
	if err := ix.store.Delete(ctx, pageID); err != nil {
		return fmt.Errorf("removing embedding for %s: %w", pageID, err)
	}
	return nil
}

func (ix *Indexer) embed(ctx context.Context, pageID, text, fingerprint string) error {
	model, err := ix.models.ModelFor(ctx, modelselect.Embedding)
	if err != nil {
		return fmt.Errorf("selecting embedding model: %w", err)
	}

	emb, err := ix.provider.Embed(ctx, model, text)
	if err != nil {
		return err
	}

	rec := storage.Record{
		PageID:      pageID,
		Vector:      emb.Vector,
		Fingerprint: fingerprint,
		Model:       model,
		UpdatedAt:   ix.now().UTC(),
	}
	if err := ix.store.Upsert(ctx, rec); err != nil {
		return fmt.Errorf("storing embedding for %s: %w", pageID, err)
	}
	ix.logger.Debug("stored embedding", "page_id", pageID, "model", model, "dimensions", emb.Dimensions())
	return nil
}

// Reindex brings the store in line with all. Active notes are embedded
// when their text changed, or always when force is set. Records of
// trashed notes and of pages no longer present are removed. A note that
// fails to embed is counted and the run continues; only cancellation or
// a store failure aborts it.
func (ix *Indexer) Reindex(ctx context.Context, all []notes.Note, force bool) (*IndexStats, error) {
	start := time.Now()
	stats := &IndexStats{}

	records, err := ix.store.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("loading embeddings: %w", err)
	}
	stored := make(map[string]bool, len(records))
	for _, rec := range records {
		stored[rec.PageID] = true
	}

	seen := make(map[string]bool, len(all))
	total := len(all)
	for i, n := range all {
		// Check for cancellation
		select {
		case <-ctx.Done():
			stats.Duration = time.Since(start)
			return stats, ctx.Err()
		default:
		}

		if ix.progress != nil {
			ix.progress.OnProgress(i+1, total)
		}
		seen[n.ID] = true

		if n.Trashed {
			if stored[n.ID] {
				if err := ix.Remove(ctx, n.ID); err != nil {
					return stats, err
				}
				stats.Removed++
			}
			continue
		}

		var outcome Outcome
		if force {
			outcome, err = ix.Embed(ctx, n.ID, n.Title, n.Body)
		} else {
			outcome, err = ix.EmbedIfChanged(ctx, n.ID, n.Title, n.Body)
		}
		if err != nil {
			if ctx.Err() != nil {
				stats.Duration = time.Since(start)
				return stats, ctx.Err()
			}
			stats.Failed++
			stats.Failures = append(stats.Failures, Failure{PageID: n.ID, Error: err.Error()})
			ix.logger.Warn("embedding failed", "page_id", n.ID, "error", err)
			continue
		}

		switch outcome {
		case OutcomeEmbedded:
			stats.Embedded++
		case OutcomeUnchanged:
			stats.Unchanged++
		case OutcomeSkipped:
			stats.Skipped++
		}
	}

	for _, rec := range records {
		if seen[rec.PageID] {
			continue
		}
		if err := ix.Remove(ctx, rec.PageID); err != nil {
			return stats, err
		}
		stats.Removed++
	}

	stats.Duration = time.Since(start)
	return stats, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
